package gallery

import "errors"

var (
	// ErrNoRoots is returned by NewScanner when no folder is configured.
	ErrNoRoots = errors.New("gallery: no library roots configured")

	// ErrNoLibrary is returned when a component is built without a media index.
	ErrNoLibrary = errors.New("gallery: library is required")

	// ErrLibraryUnavailable wraps failures to read the media index.
	ErrLibraryUnavailable = errors.New("gallery: library unavailable")
)
