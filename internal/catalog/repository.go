package catalog

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"survey-viewer/internal/filename"
	"survey-viewer/internal/logging"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a folder or image id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStaleEvent is returned when an event is no longer the tail of its image's history.
	ErrStaleEvent = errors.New("processing event is no longer current")
)

// DecodeFunc turns an uploaded filename into survey metadata.
type DecodeFunc func(name string) (filename.Metadata, error)

// Observer is notified with a copy of the catalog after every committed mutation.
// It is called while the writer lock is held and must not block.
type Observer func(folders []Folder)

// snapshot is an immutable view of the catalog. Mutations build a new one.
type snapshot struct {
	folders []Folder
	// image id -> folder id
	imageFolder map[string]string
}

func (s *snapshot) folderIndex(id string) int {
	for i := range s.folders {
		if s.folders[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *snapshot) folderByName(name string) int {
	for i := range s.folders {
		if s.folders[i].Name == name {
			return i
		}
	}
	return -1
}

func imageIndex(f *Folder, id string) int {
	for i := range f.Images {
		if f.Images[i].ID == id {
			return i
		}
	}
	return -1
}

// Repository owns every folder and image. Writers are serialized; readers
// load the current snapshot without locking and never see a partial mutation.
type Repository struct {
	mu       sync.Mutex
	current  atomic.Pointer[snapshot]
	decode   DecodeFunc
	now      func() time.Time
	newID    func(prefix string) string
	observer Observer
}

// Option configures a Repository.
type Option func(*Repository)

// WithDecoder replaces the filename decoder.
func WithDecoder(fn DecodeFunc) Option {
	return func(r *Repository) { r.decode = fn }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(r *Repository) { r.newID = fn }
}

// WithObserver registers a mutation observer.
func WithObserver(fn Observer) Option {
	return func(r *Repository) { r.observer = fn }
}

// NewID returns a random, collision-resistant record id.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// New creates an empty repository.
func New(opts ...Option) *Repository {
	r := &Repository{
		decode: filename.Decode,
		now:    time.Now,
		newID:  NewID,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.current.Store(&snapshot{imageFolder: map[string]string{}})
	return r
}

func (r *Repository) load() *snapshot {
	return r.current.Load()
}

// commit publishes next. Caller must hold r.mu.
func (r *Repository) commit(next *snapshot) {
	r.current.Store(next)
	if r.observer != nil {
		r.observer(copyFolders(next.folders))
	}
}

func copyFolders(folders []Folder) []Folder {
	out := make([]Folder, len(folders))
	for i := range folders {
		out[i] = folders[i].clone()
	}
	return out
}

// withFolders returns a shallow copy of s whose folder slice may be replaced freely.
func (s *snapshot) withFolders() *snapshot {
	next := &snapshot{
		folders:     append([]Folder(nil), s.folders...),
		imageFolder: make(map[string]string, len(s.imageFolder)),
	}
	for k, v := range s.imageFolder {
		next.imageFolder[k] = v
	}
	return next
}

// Restore replaces the whole catalog, typically with folders loaded from storage.
func (r *Repository) Restore(folders []Folder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := &snapshot{
		folders:     copyFolders(folders),
		imageFolder: make(map[string]string),
	}
	for i := range next.folders {
		f := &next.folders[i]
		f.ImageCount = len(f.Images)
		for j := range f.Images {
			f.Images[j].FolderID = f.ID
			next.imageFolder[f.Images[j].ID] = f.ID
		}
	}
	r.current.Store(next)
	logging.Info("Catalog restored: %d folders, %d images", len(next.folders), len(next.imageFolder))
}

// Ingest decodes name and files a new image under the folder for its asset,
// creating the folder if this is the first image of that asset.
func (r *Repository) Ingest(name, uploader string) (Image, error) {
	meta, err := r.decode(name)
	if err != nil {
		return Image{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	img := Image{
		ID:         r.newID("img"),
		Name:       name,
		UploadDate: now,
		UploadedBy: uploader,
		Status:     EventQueued.ImageStatus(),
		Metadata:   meta,
		ProcessingHistory: []ProcessingEvent{{
			ID:        r.newID("proc"),
			Status:    EventQueued,
			Timestamp: now,
		}},
	}

	next := r.load().withFolders()
	if idx := next.folderByName(meta.AssetName); idx >= 0 {
		f := next.folders[idx]
		img.FolderID = f.ID
		f.Images = append(append([]Image(nil), f.Images...), img)
		f.ImageCount = len(f.Images)
		f.LastUpload = now
		f.UpdatedBy = uploader
		next.folders[idx] = f
		logging.Debug("Added %s to folder %s (%d images)", name, f.Name, f.ImageCount)
	} else {
		f := Folder{
			ID:         r.newID("folder"),
			Name:       meta.AssetName,
			CreatedAt:  now,
			CreatedBy:  uploader,
			LastUpload: now,
			UpdatedBy:  uploader,
		}
		img.FolderID = f.ID
		f.Images = []Image{img}
		f.ImageCount = 1
		next.folders = append(next.folders, f)
		logging.Debug("Created folder %s for %s", f.Name, name)
	}
	next.imageFolder[img.ID] = img.FolderID

	r.commit(next)
	return img.clone(), nil
}

// DeleteFolder removes a folder and all of its images. It returns the ids of
// the removed images so pending work for them can be retracted.
func (r *Repository) DeleteFolder(folderID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.load()
	idx := cur.folderIndex(folderID)
	if idx < 0 {
		return nil, fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
	}

	next := cur.withFolders()
	removed := make([]string, 0, len(next.folders[idx].Images))
	for _, img := range next.folders[idx].Images {
		removed = append(removed, img.ID)
		delete(next.imageFolder, img.ID)
	}
	next.folders = append(next.folders[:idx], next.folders[idx+1:]...)

	r.commit(next)
	return removed, nil
}

// DeleteImage removes one image from a folder. The folder stays even when it
// becomes empty.
func (r *Repository) DeleteImage(folderID, imageID string) error {
	return r.updateFolder(folderID, func(f *Folder, next *snapshot) error {
		i := imageIndex(f, imageID)
		if i < 0 {
			return fmt.Errorf("image %s in folder %s: %w", imageID, folderID, ErrNotFound)
		}
		images := make([]Image, 0, len(f.Images)-1)
		images = append(images, f.Images[:i]...)
		f.Images = append(images, f.Images[i+1:]...)
		f.ImageCount = len(f.Images)
		delete(next.imageFolder, imageID)
		return nil
	})
}

// ToggleFolderFavorite flips a folder's favorite flag and returns the new value.
func (r *Repository) ToggleFolderFavorite(folderID string) (bool, error) {
	var favorite bool
	err := r.updateFolder(folderID, func(f *Folder, _ *snapshot) error {
		f.IsFavorite = !f.IsFavorite
		favorite = f.IsFavorite
		return nil
	})
	return favorite, err
}

// ToggleImageFavorite flips an image's favorite flag and returns the new value.
func (r *Repository) ToggleImageFavorite(folderID, imageID string) (bool, error) {
	var favorite bool
	err := r.updateImage(folderID, imageID, func(img *Image) error {
		img.IsFavorite = !img.IsFavorite
		favorite = img.IsFavorite
		return nil
	})
	return favorite, err
}

// AppendEvent records a new processing event as the tail of an image's history.
func (r *Repository) AppendEvent(imageID string, status EventStatus, message string) (ProcessingEvent, error) {
	if !status.Valid() {
		return ProcessingEvent{}, fmt.Errorf("unknown processing status %q", status)
	}

	var event ProcessingEvent
	err := r.updateImageByID(imageID, func(img *Image) error {
		event = ProcessingEvent{
			ID:        r.newID("proc"),
			Status:    status,
			Timestamp: r.now(),
			Message:   message,
		}
		img.ProcessingHistory = append(img.ProcessingHistory, event)
		img.Status = status.ImageStatus()
		return nil
	})
	return event, err
}

// ResolveEvent amends the tail event eventID in place to a final status. It
// fails with ErrNotFound if the image is gone and ErrStaleEvent if another
// event has since become the tail.
func (r *Repository) ResolveEvent(imageID, eventID string, status EventStatus, message string) error {
	if status != EventDone && status != EventError {
		return fmt.Errorf("cannot resolve event to %q", status)
	}

	return r.updateImageByID(imageID, func(img *Image) error {
		last, ok := img.LastEvent()
		if !ok || last.ID != eventID || last.Status != EventMeasuring {
			return fmt.Errorf("image %s event %s: %w", imageID, eventID, ErrStaleEvent)
		}
		last.Status = status
		last.Message = message
		img.ProcessingHistory[len(img.ProcessingHistory)-1] = last
		img.Status = status.ImageStatus()
		return nil
	})
}

func (r *Repository) updateFolder(folderID string, fn func(f *Folder, next *snapshot) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.load()
	idx := cur.folderIndex(folderID)
	if idx < 0 {
		return fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
	}

	next := cur.withFolders()
	f := next.folders[idx]
	if err := fn(&f, next); err != nil {
		return err
	}
	next.folders[idx] = f

	r.commit(next)
	return nil
}

func (r *Repository) updateImage(folderID, imageID string, fn func(img *Image) error) error {
	return r.updateFolder(folderID, func(f *Folder, _ *snapshot) error {
		i := imageIndex(f, imageID)
		if i < 0 {
			return fmt.Errorf("image %s in folder %s: %w", imageID, folderID, ErrNotFound)
		}
		images := append([]Image(nil), f.Images...)
		img := images[i].clone()
		if err := fn(&img); err != nil {
			return err
		}
		images[i] = img
		f.Images = images
		return nil
	})
}

func (r *Repository) updateImageByID(imageID string, fn func(img *Image) error) error {
	folderID, ok := r.load().imageFolder[imageID]
	if !ok {
		return fmt.Errorf("image %s: %w", imageID, ErrNotFound)
	}
	// The image may be deleted between the lookup and the update; updateImage
	// re-checks under the lock and reports ErrNotFound.
	return r.updateImage(folderID, imageID, fn)
}
