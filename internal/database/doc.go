// Package database persists the survey catalog in SQLite.
//
// The catalog lives in memory; this package stores whole snapshots of it in
// three tables (folders, images and processing_events) so state survives a
// restart. Save replaces the stored snapshot in one transaction and Load
// rebuilds the folder list for catalog.Repository.Restore.
//
// SnapshotWriter decouples catalog mutations from disk: the repository
// observer publishes each committed snapshot and a single goroutine writes
// the most recent one, dropping any that were superseded in the meantime.
//
// The database uses WAL mode and records its schema version in the metadata
// table.
package database
