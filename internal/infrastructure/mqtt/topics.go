package mqtt

import "fmt"

const (
	// TopicPrefix is the root of every photoframe topic.
	TopicPrefix = "photoframe"

	// TopicSystemStatus carries online/offline status and the LWT.
	TopicSystemStatus = TopicPrefix + "/system/status"
)

// Topics builds the topics of one frame. Every per-frame topic lives under
// photoframe/{device_id}.
//
//	topics := mqtt.Topics{DeviceID: "frame-001"}
//	topics.State() // "photoframe/frame-001/state"
type Topics struct {
	DeviceID string
}

func (t Topics) base() string {
	return fmt.Sprintf("%s/%s", TopicPrefix, t.DeviceID)
}

// CommandStart receives start requests, optionally with a display size.
//
// Example: photoframe/frame-001/command/start
func (t Topics) CommandStart() string {
	return t.base() + "/command/start"
}

// CommandTap receives taps.
//
// Example: photoframe/frame-001/command/tap
func (t Topics) CommandTap() string {
	return t.base() + "/command/tap"
}

// AllCommands matches every command topic of the frame.
//
// Pattern: photoframe/frame-001/command/+
func (t Topics) AllCommands() string {
	return t.base() + "/command/+"
}

// State carries the retained slideshow state.
//
// Example: photoframe/frame-001/state
func (t Topics) State() string {
	return t.base() + "/state"
}

// UINotification carries the retained "slideshow running" notification.
//
// Example: photoframe/frame-001/ui/notification
func (t Topics) UINotification() string {
	return t.base() + "/ui/notification"
}

// SystemStatus returns the shared status topic.
func (Topics) SystemStatus() string {
	return TopicSystemStatus
}
