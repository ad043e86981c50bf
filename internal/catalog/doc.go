// Package catalog owns the folders and images of the survey viewer.
//
// Images are filed into folders by the asset name decoded from their
// filename. The Repository is the only writer of these records: mutations are
// serialized behind a single lock and published as immutable snapshots, so a
// reader always sees a fully applied state. Every value handed out is a copy.
//
// Processing history is append-only. AppendEvent adds a new tail event and
// ResolveEvent amends the current MEASURING tail to DONE or ERROR; both keep
// the coarse Image.Status in step with the tail.
package catalog
