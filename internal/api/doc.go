// Package api implements the HTTP REST API and WebSocket server for the
// photo frame.
//
// This package provides:
//   - REST endpoints to start the slideshow, tap it, and read its state
//   - The picture currently on screen, encoded as JPEG
//   - A media library summary
//   - Prometheus metrics
//   - A WebSocket hub that broadcasts every slideshow state change
//
// # Architecture
//
// The server sits between remote clients (a phone, a home dashboard) and the
// slideshow controller. Commands go straight to the controller; state
// changes flow back from the controller's observation stream and are
// broadcast to WebSocket clients subscribed to the "slideshow.state"
// channel.
//
// # Graceful Degradation
//
// The library summary and dependency health checks are optional. Without
// them the slideshow endpoints keep working.
package api
