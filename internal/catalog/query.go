package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Folders returns a copy of every folder in insertion order.
func (r *Repository) Folders() []Folder {
	return copyFolders(r.load().folders)
}

// List returns folders whose name contains query (case-insensitive),
// favorites first and otherwise in insertion order.
func (r *Repository) List(query string) []Folder {
	cur := r.load()
	needle := strings.ToLower(strings.TrimSpace(query))

	matched := make([]Folder, 0, len(cur.folders))
	for i := range cur.folders {
		if needle == "" || strings.Contains(strings.ToLower(cur.folders[i].Name), needle) {
			matched = append(matched, cur.folders[i].clone())
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].IsFavorite && !matched[j].IsFavorite
	})
	return matched
}

// Folder returns a copy of one folder.
func (r *Repository) Folder(folderID string) (Folder, error) {
	cur := r.load()
	idx := cur.folderIndex(folderID)
	if idx < 0 {
		return Folder{}, fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
	}
	return cur.folders[idx].clone(), nil
}

// FindImage looks an image up across all folders.
func (r *Repository) FindImage(imageID string) (Image, error) {
	cur := r.load()
	folderID, ok := cur.imageFolder[imageID]
	if !ok {
		return Image{}, fmt.Errorf("image %s: %w", imageID, ErrNotFound)
	}
	idx := cur.folderIndex(folderID)
	if idx < 0 {
		return Image{}, fmt.Errorf("image %s: %w", imageID, ErrNotFound)
	}
	i := imageIndex(&cur.folders[idx], imageID)
	if i < 0 {
		return Image{}, fmt.Errorf("image %s: %w", imageID, ErrNotFound)
	}
	return cur.folders[idx].Images[i].clone(), nil
}

// GetStats counts folders, images and image states in the current snapshot.
func (r *Repository) GetStats() Stats {
	cur := r.load()

	var stats Stats
	stats.Folders = len(cur.folders)
	for i := range cur.folders {
		f := &cur.folders[i]
		if f.IsFavorite {
			stats.FavoriteFolders++
		}
		for j := range f.Images {
			img := &f.Images[j]
			stats.Images++
			if img.IsFavorite {
				stats.FavoriteImages++
			}
			switch img.Status {
			case StatusProcessed:
				stats.Processed++
			case StatusProcessingError:
				stats.Errored++
			default:
				stats.Processing++
			}
		}
	}
	return stats
}
