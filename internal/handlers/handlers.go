package handlers

import (
	"sync/atomic"
	"time"

	"survey-viewer/internal/startup"
	"survey-viewer/internal/survey"
)

// ThumbnailStore serves previews rendered for uploaded images.
type ThumbnailStore interface {
	GetThumbnail(imageID string) ([]byte, error)
}

// Handlers exposes the survey service over HTTP.
type Handlers struct {
	svc           *survey.Service
	thumbs        ThumbnailStore
	maxUploadSize int64
	startTime     time.Time
	ready         atomic.Bool
}

// New creates the API handlers. thumbs may be nil when thumbnails are off.
func New(svc *survey.Service, thumbs ThumbnailStore, config *startup.Config) *Handlers {
	maxUpload := int64(startup.DefaultMaxUploadSize)
	if config != nil && config.MaxUploadSize > 0 {
		maxUpload = config.MaxUploadSize
	}
	return &Handlers{
		svc:           svc,
		thumbs:        thumbs,
		maxUploadSize: maxUpload,
		startTime:     time.Now(),
	}
}

// SetReady marks the service ready to accept traffic, once the catalog has
// been restored.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}
