package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// FavoriteResponse reports the favorite flag after a toggle.
type FavoriteResponse struct {
	IsFavorite bool `json:"isFavorite"`
}

// ToggleFolderFavorite flips a folder's favorite flag.
func (h *Handlers) ToggleFolderFavorite(w http.ResponseWriter, r *http.Request) {
	fav, err := h.svc.ToggleFolderFavorite(mux.Vars(r)["folderId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONStatusCode(w, http.StatusOK, FavoriteResponse{IsFavorite: fav})
}

// ToggleImageFavorite flips an image's favorite flag.
func (h *Handlers) ToggleImageFavorite(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fav, err := h.svc.ToggleImageFavorite(vars["folderId"], vars["imageId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONStatusCode(w, http.StatusOK, FavoriteResponse{IsFavorite: fav})
}
