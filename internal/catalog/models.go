package catalog

import (
	"time"

	"survey-viewer/internal/filename"
)

// EventStatus is the fine-grained processing state recorded in an image's history.
type EventStatus string

const (
	EventQueued    EventStatus = "QUEUED"
	EventMeasuring EventStatus = "MEASURING"
	EventDone      EventStatus = "DONE"
	EventError     EventStatus = "ERROR"
)

// ImageStatus is the coarse status shown for an image.
type ImageStatus string

const (
	StatusProcessed       ImageStatus = "PROCESSED"
	StatusProcessing      ImageStatus = "PROCESSING"
	StatusProcessingError ImageStatus = "PROCESSING_ERROR"
)

// ImageStatus projects a history status onto the coarse image status.
func (s EventStatus) ImageStatus() ImageStatus {
	switch s {
	case EventDone:
		return StatusProcessed
	case EventError:
		return StatusProcessingError
	default:
		return StatusProcessing
	}
}

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventQueued, EventMeasuring, EventDone, EventError:
		return true
	}
	return false
}

// ProcessingEvent is one entry of an image's append-only processing history.
type ProcessingEvent struct {
	ID        string      `json:"id"`
	Status    EventStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Message   string      `json:"message,omitempty"`
}

// Image is a single uploaded survey image.
type Image struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	FolderID          string            `json:"folderId"`
	UploadDate        time.Time         `json:"uploadDate"`
	UploadedBy        string            `json:"uploadedBy"`
	Status            ImageStatus       `json:"status"`
	Metadata          filename.Metadata `json:"metadata"`
	ProcessingHistory []ProcessingEvent `json:"processingHistory"`
	IsFavorite        bool              `json:"isFavorite"`
}

// LastEvent returns the most recent processing event.
func (img *Image) LastEvent() (ProcessingEvent, bool) {
	if len(img.ProcessingHistory) == 0 {
		return ProcessingEvent{}, false
	}
	return img.ProcessingHistory[len(img.ProcessingHistory)-1], true
}

// Folder groups every image of one asset.
type Folder struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	CreatedBy  string    `json:"createdBy"`
	LastUpload time.Time `json:"lastUpload"`
	UpdatedBy  string    `json:"updatedBy"`
	ImageCount int       `json:"imageCount"`
	Images     []Image   `json:"images"`
	IsFavorite bool      `json:"isFavorite"`
}

// Stats summarises the catalog for metrics and health reporting.
type Stats struct {
	Folders         int
	Images          int
	FavoriteFolders int
	FavoriteImages  int
	Processing      int
	Processed       int
	Errored         int
}

func (img Image) clone() Image {
	img.ProcessingHistory = append([]ProcessingEvent(nil), img.ProcessingHistory...)
	return img
}

func (f Folder) clone() Folder {
	images := make([]Image, len(f.Images))
	for i := range f.Images {
		images[i] = f.Images[i].clone()
	}
	f.Images = images
	return f
}
