// Package remote drives the slideshow over MQTT.
//
// The Bridge subscribes to the frame's command topics and forwards them to
// the slideshow controller, and publishes every state change as a retained
// message:
//
//	photoframe/{device_id}/command/start  {"width":1920,"height":1080} (optional body)
//	photoframe/{device_id}/command/tap    any body
//	photoframe/{device_id}/state          retained slideshow.Snapshot JSON
//
// Taps are rate limited so a bouncing button or a retried automation does
// not pause and immediately resume the slideshow.
package remote
