// Package processing drives the measurement lifecycle of survey images.
//
// Every image starts with a QUEUED event. Starting processing appends a
// MEASURING event and schedules the measurement on its own goroutine; when
// it finishes, that same event is amended in place to DONE or ERROR:
//
//	QUEUED -> MEASURING -> DONE
//	                    -> ERROR
//
// The Controller keeps at most one pending measurement per image. Pending
// work is retracted with Cancel when its image or folder is deleted, so a
// completion can never recreate a removed record. The measurement backend
// is pluggable through the Measurer interface; the default DelayMeasurer
// simply succeeds after a fixed delay.
package processing
