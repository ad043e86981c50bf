package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"survey-viewer/internal/catalog"
	"survey-viewer/internal/filename"
	"survey-viewer/internal/logging"
)

// InterruptedMessage is recorded on measurements cut short by a restart.
const InterruptedMessage = "interrupted by restart"

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Save replaces the stored catalog with folders in a single transaction.
func (d *Database) Save(ctx context.Context, folders []catalog.Folder) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_snapshot", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	err = d.withTx(ctx, func(tx *sql.Tx) error {
		// Events and images go with their folders through ON DELETE CASCADE
		if _, err := tx.ExecContext(ctx, "DELETE FROM folders"); err != nil {
			return fmt.Errorf("failed to clear folders: %w", err)
		}

		folderStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO folders (id, name, position, created_at, created_by, last_upload, updated_by, is_favorite)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer folderStmt.Close()

		imageStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO images (id, folder_id, position, name, upload_date, uploaded_by,
				acquisition_date, asset_name, km, line, is_favorite)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer imageStmt.Close()

		eventStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO processing_events (id, image_id, position, status, timestamp, message)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer eventStmt.Close()

		for fi, f := range folders {
			if _, err := folderStmt.ExecContext(ctx, f.ID, f.Name, fi, toUnix(f.CreatedAt), f.CreatedBy,
				toUnix(f.LastUpload), f.UpdatedBy, boolToInt(f.IsFavorite)); err != nil {
				return fmt.Errorf("failed to save folder %s: %w", f.ID, err)
			}

			for ii, img := range f.Images {
				m := img.Metadata
				if _, err := imageStmt.ExecContext(ctx, img.ID, f.ID, ii, img.Name, toUnix(img.UploadDate),
					img.UploadedBy, toUnix(m.AcquisitionDate), m.AssetName, m.Km, m.Line,
					boolToInt(img.IsFavorite)); err != nil {
					return fmt.Errorf("failed to save image %s: %w", img.ID, err)
				}

				for ei, ev := range img.ProcessingHistory {
					if _, err := eventStmt.ExecContext(ctx, ev.ID, img.ID, ei, string(ev.Status),
						toUnix(ev.Timestamp), ev.Message); err != nil {
						return fmt.Errorf("failed to save event %s: %w", ev.ID, err)
					}
				}
			}
		}

		return setMetadata(ctx, tx, lastSavedKey, time.Now().UTC().Format(time.RFC3339Nano))
	})
	if err != nil {
		return err
	}

	logging.Debug("Snapshot saved: %d folders in %v", len(folders), time.Since(start))
	return nil
}

// Load reads the stored catalog. Measurements that were in flight when the
// snapshot was written cannot resume, so their MEASURING event is resolved
// to ERROR.
func (d *Database) Load(ctx context.Context) (folders []catalog.Folder, err error) {
	start := time.Now()
	defer func() { recordQuery("load_snapshot", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	events, err := d.loadEvents(ctx)
	if err != nil {
		return nil, err
	}
	images, err := d.loadImages(ctx, events)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, created_at, created_by, last_upload, updated_by, is_favorite
		FROM folders ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f catalog.Folder
		var createdAt, lastUpload int64
		if err := rows.Scan(&f.ID, &f.Name, &createdAt, &f.CreatedBy, &lastUpload, &f.UpdatedBy, &f.IsFavorite); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		f.CreatedAt = fromUnix(createdAt)
		f.LastUpload = fromUnix(lastUpload)
		f.Images = images[f.ID]
		if f.Images == nil {
			f.Images = []catalog.Image{}
		}
		f.ImageCount = len(f.Images)
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	interrupted := 0
	for fi := range folders {
		for ii := range folders[fi].Images {
			if markInterrupted(&folders[fi].Images[ii]) {
				interrupted++
			}
		}
	}
	if interrupted > 0 {
		logging.Warn("Marked %d interrupted measurements as failed", interrupted)
	}

	logging.Info("Snapshot loaded: %d folders", len(folders))
	return folders, nil
}

func (d *Database) loadEvents(ctx context.Context) (map[string][]catalog.ProcessingEvent, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, image_id, status, timestamp, message
		FROM processing_events ORDER BY image_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing events: %w", err)
	}
	defer rows.Close()

	events := make(map[string][]catalog.ProcessingEvent)
	for rows.Next() {
		var ev catalog.ProcessingEvent
		var imageID, status string
		var ts int64
		if err := rows.Scan(&ev.ID, &imageID, &status, &ts, &ev.Message); err != nil {
			return nil, fmt.Errorf("failed to scan processing event: %w", err)
		}
		ev.Status = catalog.EventStatus(status)
		if !ev.Status.Valid() {
			return nil, fmt.Errorf("event %s has unknown status %q", ev.ID, status)
		}
		ev.Timestamp = fromUnix(ts)
		events[imageID] = append(events[imageID], ev)
	}
	return events, rows.Err()
}

func (d *Database) loadImages(ctx context.Context, events map[string][]catalog.ProcessingEvent) (map[string][]catalog.Image, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, folder_id, name, upload_date, uploaded_by, acquisition_date, asset_name, km, line, is_favorite
		FROM images ORDER BY folder_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	images := make(map[string][]catalog.Image)
	for rows.Next() {
		var img catalog.Image
		var m filename.Metadata
		var uploadDate, acquired int64
		if err := rows.Scan(&img.ID, &img.FolderID, &img.Name, &uploadDate, &img.UploadedBy,
			&acquired, &m.AssetName, &m.Km, &m.Line, &img.IsFavorite); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		img.UploadDate = fromUnix(uploadDate)
		m.AcquisitionDate = fromUnix(acquired)
		img.Metadata = m
		img.ProcessingHistory = events[img.ID]

		last, ok := img.LastEvent()
		if !ok {
			return nil, fmt.Errorf("image %s has no processing history", img.ID)
		}
		img.Status = last.Status.ImageStatus()

		images[img.FolderID] = append(images[img.FolderID], img)
	}
	return images, rows.Err()
}

// markInterrupted resolves a trailing MEASURING event to ERROR.
func markInterrupted(img *catalog.Image) bool {
	n := len(img.ProcessingHistory)
	if n == 0 || img.ProcessingHistory[n-1].Status != catalog.EventMeasuring {
		return false
	}
	img.ProcessingHistory[n-1].Status = catalog.EventError
	img.ProcessingHistory[n-1].Message = InterruptedMessage
	img.Status = catalog.StatusProcessingError
	return true
}
