package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"survey-viewer/internal/catalog"
	"survey-viewer/internal/filename"
	"survey-viewer/internal/logging"
	"survey-viewer/internal/processing"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatusCode writes v as JSON with the given status code.
func writeJSONStatusCode(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatusCode(w, statusCode, map[string]string{"error": message})
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	var decodeErr *filename.DecodeError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, processing.ErrAlreadyProcessing):
		return http.StatusConflict
	case errors.Is(err, processing.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.As(err, &decodeErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError reports err with the matching status. Internal errors
// are logged and not echoed to the client.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.Error("request failed: %v", err)
		writeJSONError(w, "internal error", status)
		return
	}
	writeJSONError(w, err.Error(), status)
}
