package handlers

import (
	"net/http"

	"survey-viewer/internal/catalog"

	"github.com/gorilla/mux"
)

// ListFolders returns every folder whose asset name contains the q query
// parameter, favorites first.
func (h *Handlers) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders := h.svc.List(r.URL.Query().Get("q"))
	if folders == nil {
		folders = []catalog.Folder{}
	}
	writeJSONStatusCode(w, http.StatusOK, folders)
}

// GetFolder returns one folder with its images.
func (h *Handlers) GetFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := h.svc.Folder(mux.Vars(r)["folderId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONStatusCode(w, http.StatusOK, folder)
}

// DeleteFolder removes a folder and every image in it.
func (h *Handlers) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFolder(mux.Vars(r)["folderId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteImage removes one image from its folder.
func (h *Handlers) DeleteImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.DeleteImage(vars["folderId"], vars["imageId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
