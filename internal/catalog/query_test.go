package catalog

import (
	"errors"
	"testing"
)

func TestListFiltersAndSortsFavoritesFirst(t *testing.T) {
	r := newTestRepository(t)
	a := mustIngest(t, r, "CAM1202401151030X123456_NORTE.tif", "alice")
	mustIngest(t, r, "CAM1202401151030X000100_SUL.tif", "alice")
	c := mustIngest(t, r, "CAM1202401151030X000200_norte.tif", "alice")

	if _, err := r.ToggleFolderFavorite(c.FolderID); err != nil {
		t.Fatal(err)
	}

	all := r.List("")
	if len(all) != 3 {
		t.Fatalf("expected 3 folders, got %d", len(all))
	}
	if all[0].ID != c.FolderID {
		t.Errorf("favorite should sort first, got %s", all[0].Name)
	}
	if all[1].ID != a.FolderID {
		t.Errorf("non-favorites should keep insertion order, got %s", all[1].Name)
	}

	matched := r.List("NoRtE")
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}
	if matched[0].ID != c.FolderID || matched[1].ID != a.FolderID {
		t.Errorf("unexpected order: %s, %s", matched[0].Name, matched[1].Name)
	}

	if got := r.List("missing"); len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestFolderNotFound(t *testing.T) {
	r := newTestRepository(t)
	if _, err := r.Folder("folder-404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Folder = %v, want ErrNotFound", err)
	}
	if _, err := r.FindImage("img-404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindImage = %v, want ErrNotFound", err)
	}
}

func TestGetStats(t *testing.T) {
	r := newTestRepository(t)
	a1 := mustIngest(t, r, nameA1, "alice")
	a2 := mustIngest(t, r, nameA2, "alice")
	b1 := mustIngest(t, r, nameB1, "alice")

	ev, _ := r.AppendEvent(a1.ID, EventMeasuring, "")
	if err := r.ResolveEvent(a1.ID, ev.ID, EventDone, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AppendEvent(a2.ID, EventError, "boom"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ToggleImageFavorite(b1.FolderID, b1.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ToggleFolderFavorite(b1.FolderID); err != nil {
		t.Fatal(err)
	}

	stats := r.GetStats()
	want := Stats{
		Folders:         2,
		Images:          3,
		FavoriteFolders: 1,
		FavoriteImages:  1,
		Processing:      1,
		Processed:       1,
		Errored:         1,
	}
	if stats != want {
		t.Errorf("GetStats = %+v, want %+v", stats, want)
	}
}

func TestEventStatusProjection(t *testing.T) {
	tests := map[EventStatus]ImageStatus{
		EventQueued:    StatusProcessing,
		EventMeasuring: StatusProcessing,
		EventDone:      StatusProcessed,
		EventError:     StatusProcessingError,
	}
	for ev, want := range tests {
		if got := ev.ImageStatus(); got != want {
			t.Errorf("%s.ImageStatus() = %s, want %s", ev, got, want)
		}
	}
}
