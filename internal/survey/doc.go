// Package survey exposes the operations callers perform on the survey
// catalog: uploading images, deleting and favoriting folders and images,
// starting processing and browsing.
//
// A Service ties the catalog repository to the processing controller so
// that deleting a record also retracts its pending measurement, and
// publishes upload metrics. Batch uploads report one result per file; a
// file whose name cannot be decoded never aborts the batch.
package survey
