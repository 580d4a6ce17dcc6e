package slideshow

import (
	"github.com/nerrad567/photoframe-core/internal/picture"
	"github.com/nerrad567/photoframe-core/internal/statemachine"
)

// State is a snapshot of the slideshow. The zero value is the initial
// state: no picture, not running, not paused for the night.
type State struct {
	// CurrentPictureResult is nil until the first picture arrives.
	CurrentPictureResult picture.Result
	IsRunning            bool
	IsPausedForTheNight  bool
}

// Equal reports whether s and o describe the same slideshow.
func (s State) Equal(o State) bool {
	return s.IsRunning == o.IsRunning &&
		s.IsPausedForTheNight == o.IsPausedForTheNight &&
		picture.Equal(s.CurrentPictureResult, o.CurrentPictureResult)
}

// Active reports whether pictures should be advancing.
func (s State) Active() bool {
	return s.IsRunning && !s.IsPausedForTheNight
}

// FolderName returns the folder of the picture on screen, or "".
func (s State) FolderName() string {
	if p, ok := s.CurrentPictureResult.(picture.Success); ok {
		return p.FolderName
	}
	return ""
}

// Reduce folds an action into the state. StartSlideshow, TappedSlideshow
// and NextPicture only trigger effects and leave the state as it is.
func Reduce(s State, a statemachine.Action) State {
	switch a := a.(type) {
	case NewPicture:
		s.CurrentPictureResult = a.Result
	case IsRunningChanged:
		s.IsRunning = a.IsRunning
	case IsPausedForTheNight:
		s.IsPausedForTheNight = a.IsPausedForTheNight
	}
	return s
}

func equalState(a, b State) bool {
	return a.Equal(b)
}
