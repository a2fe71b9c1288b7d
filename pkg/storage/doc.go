// Package storage persists page documents.
//
// A [Repository] stores whole pages keyed by page id, each with a version
// that increases on every Put. Three backends exist:
//
//   - memory: process-local, for tests and throwaway servers
//   - sqlite: a single file via the pure-Go modernc.org/sqlite driver
//   - mongo: a MongoDB collection, for shared deployments
//
// [Open] selects a backend by driver name. Documents are stored as their
// JSON encoding; the layout store remains the only place pages are edited.
package storage
