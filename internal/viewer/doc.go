// Package viewer serves the frame's full-screen slideshow page.
//
// The page is embedded into the binary with go:embed. It starts the
// slideshow at the screen's pixel size, follows slideshow state over the
// API WebSocket, crossfades between pictures and forwards taps. Portrait
// pictures are letterboxed and landscape ones fill the screen. While paused
// the folder name is shown, and the screen goes dark for the night.
package viewer
