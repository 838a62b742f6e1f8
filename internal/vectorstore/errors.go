package vectorstore

import "errors"

// Sentinel errors returned by the vector store. Callers match them with
// errors.Is; the store itself never retries or degrades.
var (
	// ErrNotInitialized is returned when Search is called before
	// BuildFromDocs or Load has populated the store.
	ErrNotInitialized = errors.New("vector store not initialized: build or load first")

	// ErrNothingToSave is returned when Save is called on an empty store.
	ErrNothingToSave = errors.New("nothing to save: build or load first")

	// ErrNotFound is returned when Load cannot find the persisted index
	// or metadata file. A missing half of the pair is treated the same
	// way: the store is never partially populated.
	ErrNotFound = errors.New("persisted index or metadata not found")

	// ErrCorrupt is returned when the persisted state is unreadable or
	// the index and metadata row counts disagree.
	ErrCorrupt = errors.New("vector store corrupt")

	// ErrDimensionMismatch is returned when a vector does not match the
	// index's established dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrConfig is returned for an invalid store configuration.
	ErrConfig = errors.New("invalid vector store configuration")
)
