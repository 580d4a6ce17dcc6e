package mqtt

import (
	"encoding/json"
	"time"
)

const (
	statusOnline  = "online"
	statusOffline = "offline"

	reasonShutdown   = "graceful_shutdown"
	reasonUnexpected = "unexpected_disconnect"
)

// Status is the retained presence message on photoframe/system/status.
type Status struct {
	Status    string    `json:"status"`
	ClientID  string    `json:"client_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func onlineStatus(clientID string) []byte {
	return encodeStatus(Status{Status: statusOnline, ClientID: clientID})
}

func offlineStatus(clientID, reason string) []byte {
	return encodeStatus(Status{Status: statusOffline, ClientID: clientID, Reason: reason})
}

func encodeStatus(s Status) []byte {
	s.Timestamp = time.Now().UTC().Truncate(time.Second)
	// Only strings and a time; Marshal cannot fail.
	data, _ := json.Marshal(s) //nolint:errcheck
	return data
}
