package slideshow

import (
	"github.com/nerrad567/photoframe-core/internal/picture"
)

// StartSlideshow starts (or restarts) the slideshow for a display size.
type StartSlideshow struct {
	DesiredWidth  int
	DesiredHeight int
}

// TappedSlideshow is a user tap on the frame.
type TappedSlideshow struct{}

// NextPicture asks for the next picture to be fetched.
type NextPicture struct{}

// NewPicture delivers a picture, or a failure, to the state.
type NewPicture struct {
	Result picture.Result
}

// IsRunningChanged starts or pauses the slideshow.
type IsRunningChanged struct {
	IsRunning bool
}

// IsPausedForTheNight enters or leaves the night pause.
type IsPausedForTheNight struct {
	IsPausedForTheNight bool
}

func (StartSlideshow) ActionName() string      { return "start_slideshow" }
func (TappedSlideshow) ActionName() string     { return "tapped_slideshow" }
func (NextPicture) ActionName() string         { return "next_picture" }
func (NewPicture) ActionName() string          { return "new_picture" }
func (IsRunningChanged) ActionName() string    { return "is_running_changed" }
func (IsPausedForTheNight) ActionName() string { return "is_paused_for_the_night" }
