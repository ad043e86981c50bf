package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"survey-viewer/internal/filename"
	"survey-viewer/internal/logging"
	"survey-viewer/internal/survey"
)

const (
	// UploadedByHeader names the uploader when the form carries no uploadedBy field.
	UploadedByHeader = "X-Uploaded-By"

	uploadFormField     = "files"
	uploadedByFormField = "uploadedBy"
	multipartMemory     = 32 << 20
)

// UploadResponse summarises a batch upload.
type UploadResponse struct {
	Accepted int                   `json:"accepted"`
	Rejected int                   `json:"rejected"`
	Results  []survey.UploadResult `json:"results"`
}

// UploadImages accepts a multipart batch of survey images. Each file is
// decoded and filed on its own, so one bad name does not fail the batch.
func (h *Handlers) UploadImages(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadSize {
		writeJSONError(w, fmt.Sprintf("upload exceeds %d bytes", h.maxUploadSize), http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		writeJSONError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Warn("failed to remove multipart temp files: %v", err)
		}
	}()

	files := r.MultipartForm.File[uploadFormField]
	if len(files) == 0 {
		writeJSONError(w, "no files in upload", http.StatusBadRequest)
		return
	}

	uploader := strings.TrimSpace(r.FormValue(uploadedByFormField))
	if uploader == "" {
		uploader = strings.TrimSpace(r.Header.Get(UploadedByHeader))
	}

	uploads := make([]survey.Upload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, uploadFrom(fh))
	}

	results := h.svc.AddImages(uploads, uploader)

	resp := UploadResponse{Results: results}
	for _, res := range results {
		if res.Err() != nil {
			resp.Rejected++
		} else {
			resp.Accepted++
		}
	}

	status := http.StatusCreated
	if resp.Accepted == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSONStatusCode(w, status, resp)
}

// uploadFrom describes one multipart file. Its content is read only when the
// service asks for it, and never for files that cannot be survey images.
func uploadFrom(fh *multipart.FileHeader) survey.Upload {
	name := filepath.Base(fh.Filename)
	upload := survey.Upload{Name: name}
	if !filename.HasImageExtension(name) {
		return upload
	}

	upload.Open = func() ([]byte, error) {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return upload
}
