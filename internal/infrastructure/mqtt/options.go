package mqtt

import (
	"crypto/tls"
	"net"
	"net/url"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/photoframe-core/internal/infrastructure/config"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
	defaultKeepAlive      = time.Minute

	// Milliseconds, as paho's Disconnect expects.
	defaultDisconnectQuiesce = 1000

	maxQoS = 2

	// clientIDSuffixLen is how much of a UUID is appended to the configured
	// client ID.
	clientIDSuffixLen = 8
)

// uniqueClientID appends a random suffix to base so that two frames
// sharing a config file do not take over each other's session.
func uniqueClientID(base string) string {
	if base == "" {
		base = "photoframe"
	}
	return base + "-" + uuid.NewString()[:clientIDSuffixLen]
}

// brokerURL is tcp://host:port, or ssl:// when TLS is on.
func brokerURL(b config.MQTTBrokerConfig) string {
	u := url.URL{Scheme: "tcp", Host: net.JoinHostPort(b.Host, strconv.Itoa(b.Port))}
	if b.TLS {
		u.Scheme = "ssl"
	}
	return u.String()
}

// buildClientOptions maps the mqtt config section onto paho options. Paho
// handles reconnects; the Client restores subscriptions because sessions
// are clean.
func buildClientOptions(cfg config.MQTTConfig, clientID string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL(cfg.Broker)).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(cfg.Reconnect.InitialDelay).
		SetMaxReconnectInterval(cfg.Reconnect.MaxDelay).
		SetConnectTimeout(defaultConnectTimeout).
		SetKeepAlive(defaultKeepAlive)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username).SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	return opts
}

// configureLWT makes the broker publish an offline status for the frame if
// it drops off the network without a clean disconnect.
func configureLWT(opts *pahomqtt.ClientOptions, clientID string) {
	opts.SetWill(TopicSystemStatus, string(offlineStatus(clientID, reasonUnexpected)), 1, true)
}
