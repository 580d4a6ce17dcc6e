// Package slideshow implements the photo frame's behaviour on top of the
// statemachine package.
//
// The State holds the picture on screen, whether the slideshow is running
// and whether it is paused for the night. Five effects drive it:
//
//   - Timer emits NextPicture every photo duration while running and awake.
//   - Lifecycle turns taps into pause and resume, with a bounded auto-resume.
//   - PictureFetcher asks the PictureService to advance on NextPicture.
//   - PictureStream turns the service's image sequence into NewPicture.
//   - Scheduler pauses the slideshow outside the daily on window.
//
// Every timer-driven effect takes a clockwork.Clock so behaviour can be
// driven deterministically in tests.
//
// Controller bundles the machine, the effects and the notifier behind the
// handful of calls a display layer needs.
package slideshow
