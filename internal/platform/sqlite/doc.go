// Package sqlite keeps the resumable session record in a local SQLite file.
//
// The database lives next to the process rather than in the shared content
// database, so an interrupted session can be resumed on the same device
// even when the content service is unreachable.
package sqlite
