package store

import "errors"

var (
	// ErrNotInitialized indicates no state has been saved yet.
	ErrNotInitialized = errors.New("store: state not initialized")

	// ErrCorrupt indicates persisted data that cannot be decoded into a valid state.
	ErrCorrupt = errors.New("store: corrupt state")

	// ErrNilState indicates a nil state passed to Save.
	ErrNilState = errors.New("store: nil state")
)
