package slideshow

import "errors"

var (
	// ErrNoPictureService is returned when a controller has no picture source.
	ErrNoPictureService = errors.New("slideshow: picture service is required")

	// ErrInvalidWindow is returned for an on window of zero length.
	ErrInvalidWindow = errors.New("slideshow: invalid schedule window")

	// ErrInvalidDuration is returned for a non-positive photo or pause duration.
	ErrInvalidDuration = errors.New("slideshow: durations must be positive")
)
