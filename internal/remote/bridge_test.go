package remote

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/photoframe-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/photoframe-core/internal/picture"
	"github.com/nerrad567/photoframe-core/internal/slideshow"
)

const waitFor = 2 * time.Second

// ─── Mock Dependencies ──────────────────────────────────────────────

type fakeMQTT struct {
	mu           sync.Mutex
	handlers     map[string]mqtt.MessageHandler
	unsubscribed []string
	published    chan publishedJSON
	subscribeErr error
	publishErr   error
}

type publishedJSON struct {
	topic    string
	payload  []byte
	retained bool
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{
		handlers:  make(map[string]mqtt.MessageHandler),
		published: make(chan publishedJSON, 16),
	}
}

func (f *fakeMQTT) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeMQTT) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	f.unsubscribed = append(f.unsubscribed, topic)
	return nil
}

func (f *fakeMQTT) PublishJSON(topic string, v any, retained bool) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.published <- publishedJSON{topic: topic, payload: payload, retained: retained}
	return nil
}

func (f *fakeMQTT) deliver(t *testing.T, topic string, payload []byte) error {
	t.Helper()

	f.mu.Lock()
	handler, ok := f.handlers[topic]
	f.mu.Unlock()
	require.True(t, ok, "no subscription for %s", topic)
	return handler(topic, payload)
}

type fakeController struct {
	mu     sync.Mutex
	starts [][2]int
	taps   int
	states chan slideshow.State
}

func newFakeController() *fakeController {
	return &fakeController{states: make(chan slideshow.State, 4)}
}

func (c *fakeController) Start(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts = append(c.starts, [2]int{width, height})
}

func (c *fakeController) Tap() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.taps++
}

func (c *fakeController) Taps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.taps
}

// Observe forwards states pushed by the test until ctx is done.
func (c *fakeController) Observe(ctx context.Context) <-chan slideshow.State {
	out := make(chan slideshow.State)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-c.states:
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func startBridge(t *testing.T, client *fakeMQTT, controller *fakeController, tapInterval time.Duration) *Bridge {
	t.Helper()

	b, err := NewBridge(BridgeOptions{
		DeviceID:      "frame-001",
		Client:        client,
		Controller:    controller,
		DisplayWidth:  1920,
		DisplayHeight: 1080,
		TapInterval:   tapInterval,
		QoS:           1,
		Logger:        slogt.New(t),
	})
	require.NoError(t, err)
	require.NoError(t, b.Start(t.Context()))
	t.Cleanup(b.Stop)
	return b
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestNewBridge_Validation(t *testing.T) {
	t.Parallel()

	valid := BridgeOptions{DeviceID: "frame-001", Client: newFakeMQTT(), Controller: newFakeController()}

	tests := []struct {
		name   string
		mutate func(o *BridgeOptions)
	}{
		{"missing client", func(o *BridgeOptions) { o.Client = nil }},
		{"missing controller", func(o *BridgeOptions) { o.Controller = nil }},
		{"missing device", func(o *BridgeOptions) { o.DeviceID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := valid
			tt.mutate(&opts)
			_, err := NewBridge(opts)
			require.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestBridge_StartCommand(t *testing.T) {
	t.Parallel()

	client := newFakeMQTT()
	controller := newFakeController()
	startBridge(t, client, controller, time.Millisecond)
	topic := mqtt.Topics{DeviceID: "frame-001"}.CommandStart()

	require.NoError(t, client.deliver(t, topic, []byte(`{"width":800,"height":600}`)))
	require.NoError(t, client.deliver(t, topic, nil))
	require.NoError(t, client.deliver(t, topic, []byte(`{"width":0}`)))
	require.Error(t, client.deliver(t, topic, []byte(`not json`)))

	controller.mu.Lock()
	defer controller.mu.Unlock()
	assert.Equal(t, [][2]int{{800, 600}, {1920, 1080}, {1920, 1080}}, controller.starts)
}

func TestBridge_TapsAreRateLimited(t *testing.T) {
	t.Parallel()

	client := newFakeMQTT()
	controller := newFakeController()
	startBridge(t, client, controller, time.Hour)
	topic := mqtt.Topics{DeviceID: "frame-001"}.CommandTap()

	for range 5 {
		require.NoError(t, client.deliver(t, topic, nil))
	}
	assert.Equal(t, 1, controller.Taps(), "taps within the interval are dropped")
}

func TestBridge_PublishesRetainedState(t *testing.T) {
	t.Parallel()

	client := newFakeMQTT()
	controller := newFakeController()
	startBridge(t, client, controller, time.Millisecond)

	controller.states <- slideshow.State{
		IsRunning: true,
		CurrentPictureResult: picture.Success{
			FolderName: "Summer", Path: "/p/Summer/a.jpg", Sequence: 3,
		},
	}

	select {
	case msg := <-client.published:
		assert.Equal(t, "photoframe/frame-001/state", msg.topic)
		assert.True(t, msg.retained)
		assert.JSONEq(t, `{
			"is_running": true,
			"is_paused_for_the_night": false,
			"picture": {"kind": "success", "folder_name": "Summer", "path": "/p/Summer/a.jpg", "sequence": 3}
		}`, string(msg.payload))
	case <-time.After(waitFor):
		require.FailNow(t, "state was not published")
	}
}

func TestBridge_PublishFailureKeepsRunning(t *testing.T) {
	t.Parallel()

	client := newFakeMQTT()
	client.publishErr = mqtt.ErrNotConnected
	controller := newFakeController()
	startBridge(t, client, controller, time.Millisecond)

	controller.states <- slideshow.State{IsRunning: true}
	controller.states <- slideshow.State{}

	require.Eventually(t, func() bool { return len(controller.states) == 0 }, waitFor, time.Millisecond)
}

func TestBridge_StartFailsWhenSubscribeFails(t *testing.T) {
	t.Parallel()

	client := newFakeMQTT()
	client.subscribeErr = errors.New("not authorised")

	b, err := NewBridge(BridgeOptions{DeviceID: "frame-001", Client: client, Controller: newFakeController()})
	require.NoError(t, err)
	require.ErrorIs(t, b.Start(t.Context()), client.subscribeErr)
}

func TestBridge_StopUnsubscribes(t *testing.T) {
	t.Parallel()

	client := newFakeMQTT()
	b := startBridge(t, client, newFakeController(), time.Millisecond)

	b.Stop()
	b.Stop()

	topics := mqtt.Topics{DeviceID: "frame-001"}
	assert.ElementsMatch(t, []string{topics.CommandStart(), topics.CommandTap()}, client.unsubscribed)
}
