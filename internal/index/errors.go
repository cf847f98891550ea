package index

import "errors"

var (
	// ErrInvalidRoot means the corpus root path is not a directory.
	ErrInvalidRoot = errors.New("corpus root is not a directory")
	// ErrNotInitialized means retrieval was attempted before any
	// build or load.
	ErrNotInitialized = errors.New("index not initialized")
	// ErrStoreUnreachable means the backing store could not be
	// reached during construction.
	ErrStoreUnreachable = errors.New("index store unreachable")
)
