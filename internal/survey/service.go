package survey

import (
	"errors"
	"strings"

	"survey-viewer/internal/catalog"
	"survey-viewer/internal/filename"
	"survey-viewer/internal/logging"
	"survey-viewer/internal/metrics"
	"survey-viewer/internal/processing"
)

// DefaultUploader is recorded when an upload carries no uploader identity.
const DefaultUploader = "Usuário"

// Thumbnailer renders previews of accepted uploads.
type Thumbnailer interface {
	// Accepting reports whether Submit would take new work right now.
	Accepting() bool
	Submit(imageID string, data []byte) bool
	Remove(imageIDs ...string)
}

// Upload is one file of a batch upload. Open, when set, is called only if
// the file is accepted and a thumbnail will be made from it, so rejected or
// unused content is never held in memory.
type Upload struct {
	Name string
	Data []byte
	Open func() ([]byte, error)
}

func (u Upload) content() ([]byte, error) {
	if u.Data != nil || u.Open == nil {
		return u.Data, nil
	}
	return u.Open()
}

// UploadResult reports the outcome for one file of a batch upload.
type UploadResult struct {
	Name      string         `json:"name"`
	Image     *catalog.Image `json:"image,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorKind string         `json:"errorKind,omitempty"`
	err       error
}

// Err returns the failure for this file, or nil if it was accepted.
func (r UploadResult) Err() error {
	return r.err
}

// Service is the entry point for every operation callers perform on the
// survey catalog. It composes the repository with the processing controller
// so deletes retract pending work.
type Service struct {
	repo            *catalog.Repository
	ctrl            *processing.Controller
	thumbs          Thumbnailer
	defaultUploader string
}

// Option configures a Service.
type Option func(*Service)

// WithThumbnailer enables thumbnail generation for uploads carrying content.
func WithThumbnailer(t Thumbnailer) Option {
	return func(s *Service) { s.thumbs = t }
}

// WithDefaultUploader sets the identity recorded for anonymous uploads.
func WithDefaultUploader(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.defaultUploader = name
		}
	}
}

// NewService creates a service over repo and ctrl. ctrl must have been
// created over the same repository.
func NewService(repo *catalog.Repository, ctrl *processing.Controller, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		ctrl:            ctrl,
		defaultUploader: DefaultUploader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) uploader(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return s.defaultUploader
}

// AddImage files one uploaded image under its asset folder. data may be nil
// when only the filename is known.
func (s *Service) AddImage(name, uploader string, data []byte) (catalog.Image, error) {
	return s.add(Upload{Name: name, Data: data}, uploader)
}

func (s *Service) add(u Upload, uploader string) (catalog.Image, error) {
	name := u.Name
	img, err := s.repo.Ingest(name, s.uploader(uploader))
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		var decodeErr *filename.DecodeError
		if errors.As(err, &decodeErr) {
			metrics.DecodeFailuresTotal.WithLabelValues(filename.KindName(err)).Inc()
		}
		logging.Warn("Rejected upload %q: %v", name, err)
		return catalog.Image{}, err
	}

	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	logging.Info("Accepted upload %s into folder %s (%s)", name, img.Metadata.AssetName, img.ID)

	if s.thumbs == nil || !s.thumbs.Accepting() {
		return img, nil
	}
	data, err := u.content()
	if err != nil {
		// The record only needs the name; the preview is best effort
		logging.Warn("Failed to read content of %s, no thumbnail: %v", name, err)
		return img, nil
	}
	if len(data) > 0 {
		s.thumbs.Submit(img.ID, data)
	}
	return img, nil
}

// AddImages ingests a batch one file at a time, so at most one file's
// content is held at once. A file that fails is reported in its result and
// does not stop the rest of the batch.
func (s *Service) AddImages(uploads []Upload, uploader string) []UploadResult {
	results := make([]UploadResult, 0, len(uploads))
	accepted := 0

	for _, u := range uploads {
		result := UploadResult{Name: u.Name}
		img, err := s.add(u, uploader)
		if err != nil {
			result.err = err
			result.Error = err.Error()
			result.ErrorKind = filename.KindName(err)
		} else {
			result.Image = &img
			accepted++
		}
		results = append(results, result)
	}

	logging.Info("Batch upload: %d of %d files accepted", accepted, len(uploads))
	return results
}

// DeleteFolder removes a folder with all of its images and retracts their
// pending processing.
func (s *Service) DeleteFolder(folderID string) error {
	removed, err := s.repo.DeleteFolder(folderID)
	if err != nil {
		return err
	}

	s.ctrl.Cancel(removed...)
	if s.thumbs != nil {
		s.thumbs.Remove(removed...)
	}

	metrics.DeletionsTotal.WithLabelValues("folder").Inc()
	metrics.DeletionsTotal.WithLabelValues("image").Add(float64(len(removed)))
	logging.Info("Deleted folder %s with %d images", folderID, len(removed))
	return nil
}

// DeleteImage removes one image and retracts its pending processing.
func (s *Service) DeleteImage(folderID, imageID string) error {
	if err := s.repo.DeleteImage(folderID, imageID); err != nil {
		return err
	}

	s.ctrl.Cancel(imageID)
	if s.thumbs != nil {
		s.thumbs.Remove(imageID)
	}

	metrics.DeletionsTotal.WithLabelValues("image").Inc()
	logging.Info("Deleted image %s from folder %s", imageID, folderID)
	return nil
}

// ToggleFolderFavorite flips a folder's favorite flag.
func (s *Service) ToggleFolderFavorite(folderID string) (bool, error) {
	return s.repo.ToggleFolderFavorite(folderID)
}

// ToggleImageFavorite flips an image's favorite flag.
func (s *Service) ToggleImageFavorite(folderID, imageID string) (bool, error) {
	return s.repo.ToggleImageFavorite(folderID, imageID)
}

// ProcessImage starts the measurement of an image. The image is PROCESSING
// when this returns; the outcome is recorded asynchronously.
func (s *Service) ProcessImage(imageID string) (catalog.ProcessingEvent, error) {
	return s.ctrl.Start(imageID)
}

// FailImage records an externally detected processing failure.
func (s *Service) FailImage(imageID string, cause error) error {
	return s.ctrl.Fail(imageID, cause)
}

// List returns folders whose name contains query, favorites first.
func (s *Service) List(query string) []catalog.Folder {
	return s.repo.List(query)
}

// Folder returns one folder with its images.
func (s *Service) Folder(folderID string) (catalog.Folder, error) {
	return s.repo.Folder(folderID)
}

// FindImage looks an image up across all folders.
func (s *Service) FindImage(imageID string) (catalog.Image, error) {
	return s.repo.FindImage(imageID)
}

// GetStats summarises the catalog.
func (s *Service) GetStats() catalog.Stats {
	return s.repo.GetStats()
}

// Close stops pending processing.
func (s *Service) Close() {
	s.ctrl.Stop()
}
