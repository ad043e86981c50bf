package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"survey-viewer/internal/logging"
	"survey-viewer/internal/media"

	"github.com/gorilla/mux"
)

// GetImage looks an image up by id across all folders.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.svc.FindImage(mux.Vars(r)["imageId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONStatusCode(w, http.StatusOK, img)
}

// ProcessImage starts measuring an image. The response carries the
// MEASURING event; the outcome is recorded later.
func (h *Handlers) ProcessImage(w http.ResponseWriter, r *http.Request) {
	imageID := mux.Vars(r)["imageId"]
	event, err := h.svc.ProcessImage(imageID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	logging.Debug("Processing started for %s (event %s)", imageID, event.ID)
	writeJSONStatusCode(w, http.StatusAccepted, event)
}

// GetThumbnail serves the JPEG preview of an image.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	imageID := mux.Vars(r)["imageId"]
	if _, err := h.svc.FindImage(imageID); err != nil {
		writeServiceError(w, err)
		return
	}

	if h.thumbs == nil {
		writeJSONError(w, "thumbnail not available", http.StatusNotFound)
		return
	}

	data, err := h.thumbs.GetThumbnail(imageID)
	switch {
	case errors.Is(err, media.ErrThumbnailNotFound), errors.Is(err, media.ErrThumbnailsDisabled):
		writeJSONError(w, "thumbnail not available", http.StatusNotFound)
		return
	case err != nil:
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.Debug("failed to write thumbnail for %s: %v", imageID, err)
	}
}
