package api

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/photoframe-core/internal/infrastructure/config"
	"github.com/nerrad567/photoframe-core/internal/infrastructure/logging"
	"github.com/nerrad567/photoframe-core/internal/picture"
	"github.com/nerrad567/photoframe-core/internal/slideshow"
)

// ─── Fakes ─────────────────────────────────────────────────────────

type fakeSlideshow struct {
	mu        sync.Mutex
	state     slideshow.State
	starts    [][2]int
	taps      int
	observers map[chan slideshow.State]struct{}
	panicking bool
}

func newFakeSlideshow() *fakeSlideshow {
	return &fakeSlideshow{observers: make(map[chan slideshow.State]struct{})}
}

func (f *fakeSlideshow) Start(width, height int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, [2]int{width, height})
}

func (f *fakeSlideshow) Tap() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taps++
}

func (f *fakeSlideshow) State() slideshow.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicking {
		panic("state exploded")
	}
	return f.state
}

func (f *fakeSlideshow) Observe(ctx context.Context) <-chan slideshow.State {
	ch := make(chan slideshow.State, 16)

	f.mu.Lock()
	ch <- f.state
	f.observers[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.observers, ch)
		close(ch)
		f.mu.Unlock()
	}()
	return ch
}

func (f *fakeSlideshow) push(s slideshow.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
	for ch := range f.observers {
		ch <- s
	}
}

func (f *fakeSlideshow) recorded() ([][2]int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]int(nil), f.starts...), f.taps
}

type fakeLibrary struct {
	count   int
	folders []string
	err     error
}

func (l fakeLibrary) Count(context.Context) (int, error) { return l.count, l.err }

func (l fakeLibrary) Folders(context.Context) ([]string, error) {
	return append([]string(nil), l.folders...), l.err
}

type fakeChecker struct{ err error }

func (c fakeChecker) HealthCheck(context.Context) error { return c.err }

type fakeMQTT struct{ connected bool }

func (m fakeMQTT) IsConnected() bool { return m.connected }

// ─── Helpers ───────────────────────────────────────────────────────

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

func testDeps(show *fakeSlideshow) Deps {
	return Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5 * time.Second,
				Write: 5 * time.Second,
				Idle:  5 * time.Second,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30 * time.Second,
			PongTimeout:    10 * time.Second,
		},
		Display:   config.DisplayConfig{Width: 1280, Height: 800},
		Logger:    testLogger(),
		Slideshow: show,
		Gatherer:  prometheus.NewRegistry(),
		Version:   "test",
	}
}

func testServer(t *testing.T, mutate ...func(*Deps)) (*Server, *fakeSlideshow) {
	t.Helper()

	show := newFakeSlideshow()
	deps := testDeps(show)
	for _, m := range mutate {
		m(&deps)
	}

	srv, err := New(deps)
	require.NoError(t, err)
	return srv, show
}

func serve(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// ─── Construction ──────────────────────────────────────────────────

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Deps{Slideshow: newFakeSlideshow()})
	require.Error(t, err, "logger is required")

	_, err = New(Deps{Logger: testLogger()})
	require.Error(t, err, "slideshow is required")
}

// ─── Health ────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv, _ := testServer(t, func(d *Deps) {
		d.Checks = map[string]HealthChecker{"database": fakeChecker{}}
	})

	w := serve(t, srv, http.MethodGet, "/api/v1/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	resp := decode[map[string]any](t, w)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "test", resp["version"])
	assert.Equal(t, map[string]any{"database": "ok"}, resp["checks"])
}

func TestHealth_Degraded(t *testing.T) {
	srv, _ := testServer(t, func(d *Deps) {
		d.Checks = map[string]HealthChecker{
			"database": fakeChecker{},
			"mqtt":     fakeChecker{err: errors.New("mqtt: not connected")},
		}
	})

	w := serve(t, srv, http.MethodGet, "/api/v1/health", "")

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode[map[string]any](t, w)
	assert.Equal(t, "degraded", resp["status"])
	assert.Equal(t, map[string]any{"database": "ok", "mqtt": "mqtt: not connected"}, resp["checks"])
}

// ─── Middleware ────────────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	srv, _ := testServer(t)

	w := serve(t, srv, http.MethodGet, "/api/v1/health", "")

	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err, "generated request ID should be a UUID")
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	assert.Equal(t, "client-123", w.Header().Get("X-Request-ID"))
}

func TestRequestID_ReplacesOversized(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", maxRequestIDLength+1))
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err, "oversized request ID should be replaced with a UUID")
}

// routeObservations sums the latency samples recorded for route.
func routeObservations(t *testing.T, route string) uint64 {
	t.Helper()

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(httpDuration))
	families, err := reg.Gather()
	require.NoError(t, err)

	var n uint64
	for _, family := range families {
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "route" && label.GetValue() == route {
					n += m.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return n
}

func TestObserve_RecordsRoutePattern(t *testing.T) {
	srv, _ := testServer(t)

	before := routeObservations(t, "/api/v1/library")
	serve(t, srv, http.MethodGet, "/api/v1/library?limit=1", "")

	assert.Equal(t, before+1, routeObservations(t, "/api/v1/library"))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"empty list allows all", nil, "http://localhost:3000", "http://localhost:3000"},
		{"listed origin", []string{"http://frame.local"}, "http://frame.local", "http://frame.local"},
		{"wildcard", []string{"*"}, "http://anywhere", "http://anywhere"},
		{"unlisted origin", []string{"http://frame.local"}, "http://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := testServer(t, func(d *Deps) { d.Config.CORS.AllowedOrigins = tt.allowed })

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/state", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			srv.buildRouter().ServeHTTP(w, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRecovery(t *testing.T) {
	srv, show := testServer(t)
	show.panicking = true

	w := serve(t, srv, http.MethodGet, "/api/v1/state", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, ErrCodeInternal, decode[Error](t, w).Code)
}

func TestNotFound(t *testing.T) {
	srv, _ := testServer(t)

	w := serve(t, srv, http.MethodGet, "/api/v1/nonexistent", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ─── Slideshow ─────────────────────────────────────────────────────

func TestViewer(t *testing.T) {
	t.Parallel()

	srv, _ := testServer(t, func(d *Deps) { d.Config.Viewer.Enabled = true })

	w := serve(t, srv, http.MethodGet, ViewerPath, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<!DOCTYPE html>")

	w = serve(t, srv, http.MethodGet, ViewerPath+"viewer.js", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1")

	w = serve(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, ViewerPath, w.Header().Get("Location"))

	w = serve(t, srv, http.MethodGet, "/viewer", "")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
}

func TestViewer_Disabled(t *testing.T) {
	t.Parallel()

	srv, _ := testServer(t)

	assert.Equal(t, http.StatusNotFound, serve(t, srv, http.MethodGet, ViewerPath, "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, srv, http.MethodGet, "/", "").Code)
}

func TestGetState(t *testing.T) {
	srv, show := testServer(t)
	show.push(slideshow.State{
		IsRunning:            true,
		CurrentPictureResult: picture.Success{Path: "/photos/Summer/a.jpg", FolderName: "Summer", Sequence: 4},
	})

	w := serve(t, srv, http.MethodGet, "/api/v1/state", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, slideshow.Snapshot{
		IsRunning: true,
		Picture: slideshow.PictureInfo{
			Kind:       picture.KindSuccess,
			FolderName: "Summer",
			Path:       "/photos/Summer/a.jpg",
			Sequence:   4,
		},
	}, decode[slideshow.Snapshot](t, w))
}

func TestStart(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantStart  [][2]int
	}{
		{"explicit size", `{"width":800,"height":600}`, http.StatusAccepted, [][2]int{{800, 600}}},
		{"empty body uses display", "", http.StatusAccepted, [][2]int{{1280, 800}}},
		{"zero size uses display", `{"width":0,"height":600}`, http.StatusAccepted, [][2]int{{1280, 800}}},
		{"invalid JSON", `{"width":`, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, show := testServer(t)

			w := serve(t, srv, http.MethodPost, "/api/v1/slideshow/start", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			starts, _ := show.recorded()
			assert.Equal(t, tt.wantStart, starts)
		})
	}
}

func TestStart_RejectsOversizedBody(t *testing.T) {
	srv, show := testServer(t)

	body := `{"width":800,"height":600,"pad":"` + strings.Repeat("x", maxRequestBodySize) + `"}`
	w := serve(t, srv, http.MethodPost, "/api/v1/slideshow/start", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	starts, _ := show.recorded()
	assert.Empty(t, starts)
}

func TestTap(t *testing.T) {
	srv, show := testServer(t)

	for range 3 {
		w := serve(t, srv, http.MethodPost, "/api/v1/slideshow/tap", "")
		require.Equal(t, http.StatusAccepted, w.Code)
	}

	_, taps := show.recorded()
	assert.Equal(t, 3, taps)
}

func TestGetPicture(t *testing.T) {
	img := imaging.New(40, 30, color.NRGBA{R: 200, G: 40, B: 40, A: 255})

	tests := []struct {
		name     string
		result   picture.Result
		wantCode int
		wantErr  string
	}{
		{"no picture yet", nil, http.StatusNotFound, ErrCodeNotFound},
		{"storage failure", picture.StorageFailure{Reason: "disk gone"}, http.StatusServiceUnavailable, ErrCodeStorageFailure},
		{"bitmap failure", picture.BitmapOperationFailure{Path: "/p/broken.jpg"}, http.StatusServiceUnavailable, ErrCodeBitmapFailure},
		{"success", picture.Success{Image: img, Path: "/p/Summer/a.jpg", FolderName: "Summer", Sequence: 9}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, show := testServer(t)
			show.push(slideshow.State{IsRunning: true, CurrentPictureResult: tt.result})

			w := serve(t, srv, http.MethodGet, "/api/v1/picture", "")

			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decode[Error](t, w).Code)
				return
			}

			assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
			assert.Equal(t, "9", w.Header().Get("X-Picture-Sequence"))
			assert.Equal(t, "Summer", w.Header().Get("X-Picture-Folder"))

			decoded, format, err := image.Decode(w.Body)
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, image.Rect(0, 0, 40, 30), decoded.Bounds())
		})
	}
}

// ─── Library ───────────────────────────────────────────────────────

func TestGetLibrary_NaturalOrder(t *testing.T) {
	srv, _ := testServer(t, func(d *Deps) {
		d.Library = fakeLibrary{count: 12, folders: []string{"img10", "img2", "Beach", "img1"}}
	})

	w := serve(t, srv, http.MethodGet, "/api/v1/library", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, LibraryResponse{
		Count:   12,
		Folders: []string{"Beach", "img1", "img2", "img10"},
	}, decode[LibraryResponse](t, w))
}

func TestGetLibrary_Empty(t *testing.T) {
	srv, _ := testServer(t, func(d *Deps) { d.Library = fakeLibrary{} })

	w := serve(t, srv, http.MethodGet, "/api/v1/library", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"folders":[]}`, w.Body.String())
}

func TestGetLibrary_Unavailable(t *testing.T) {
	tests := []struct {
		name     string
		library  Library
		wantCode string
	}{
		{"not configured", nil, ErrCodeUnavailable},
		{"storage error", fakeLibrary{err: errors.New("database is locked")}, ErrCodeStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := testServer(t, func(d *Deps) { d.Library = tt.library })

			w := serve(t, srv, http.MethodGet, "/api/v1/library", "")

			require.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Equal(t, tt.wantCode, decode[Error](t, w).Code)
		})
	}
}

// ─── Metrics ───────────────────────────────────────────────────────

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	shown := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "photoframe_test_pictures_total",
		Help: "Test counter.",
	})
	reg.MustRegister(shown)
	shown.Add(3)

	srv, _ := testServer(t, func(d *Deps) { d.Gatherer = reg })

	w := serve(t, srv, http.MethodGet, "/api/v1/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "photoframe_test_pictures_total 3")
}

func TestSystemMetrics(t *testing.T) {
	srv, show := testServer(t, func(d *Deps) { d.MQTT = fakeMQTT{connected: true} })
	show.push(slideshow.State{IsPausedForTheNight: true})

	w := serve(t, srv, http.MethodGet, "/api/v1/system", "")

	require.Equal(t, http.StatusOK, w.Code)
	metrics := decode[SystemMetrics](t, w)
	assert.Equal(t, "test", metrics.Version)
	assert.Positive(t, metrics.Runtime.Goroutines)
	assert.Zero(t, metrics.WebSocket.ConnectedClients)
	require.NotNil(t, metrics.MQTT)
	assert.True(t, metrics.MQTT.Connected)
	assert.True(t, metrics.Slideshow.IsPausedForTheNight)
}

// ─── Hub ───────────────────────────────────────────────────────────

func testHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHub_BroadcastToSubscribed(t *testing.T) {
	hub := testHub(t)

	client := newWSClient(hub, nil)
	client.subscribe([]string{ChannelSlideshowState})
	hub.Register(client)

	hub.Broadcast(ChannelSlideshowState, slideshow.Snapshot{IsRunning: true})

	select {
	case msg := <-client.send:
		var wsMsg WSMessage
		require.NoError(t, json.Unmarshal(msg, &wsMsg))
		assert.Equal(t, WSTypeEvent, wsMsg.Type)
		assert.Equal(t, ChannelSlideshowState, wsMsg.EventType)
	case <-time.After(time.Second):
		t.Error("timed out waiting for broadcast message")
	}
}

func TestHub_NoMessageForUnsubscribed(t *testing.T) {
	hub := testHub(t)

	client := newWSClient(hub, nil)
	client.subscribe([]string{"library.scan"})
	hub.Register(client)

	hub.Broadcast(ChannelSlideshowState, slideshow.Snapshot{})

	select {
	case <-client.send:
		t.Error("unsubscribed client should not receive message")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := testHub(t)
	assert.Zero(t, hub.ClientCount())

	client := newWSClient(hub, nil)
	hub.Register(client)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(client)
	assert.Zero(t, hub.ClientCount())

	// A second unregister and a late broadcast are both harmless.
	hub.Unregister(client)
	hub.Broadcast(ChannelSlideshowState, slideshow.Snapshot{})
	_, open := <-client.send
	assert.False(t, open, "queue should be closed once unregistered")
}

func TestHub_FullQueueDropsEvents(t *testing.T) {
	hub := testHub(t)

	client := newWSClient(hub, nil)
	client.subscribe([]string{ChannelSlideshowState})
	hub.Register(client)

	for range subscriberBuffer + 5 {
		hub.Broadcast(ChannelSlideshowState, slideshow.Snapshot{IsRunning: true})
	}
	assert.Len(t, client.send, subscriberBuffer)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := testHub(t)

	client := newWSClient(hub, nil)
	client.subscribe([]string{ChannelSlideshowState, "library.scan"})
	client.unsubscribe([]string{ChannelSlideshowState})

	assert.False(t, client.subscribed(ChannelSlideshowState))
	assert.True(t, client.subscribed("library.scan"))
}

// ─── WebSocket end to end ──────────────────────────────────────────

func readEvent(t *testing.T, conn *websocket.Conn, match func(WSMessage) bool) WSMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func snapshotOf(t *testing.T, msg WSMessage) slideshow.Snapshot {
	t.Helper()

	raw, err := json.Marshal(msg.Payload)
	require.NoError(t, err)
	var snap slideshow.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	return snap
}

func TestWebSocket_StreamsSlideshowState(t *testing.T) {
	srv, show := testServer(t)
	show.push(slideshow.State{IsPausedForTheNight: true})

	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { assert.NoError(t, srv.Close()) })

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/api/v1/ws", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{ChannelSlideshowState}},
	}))

	ack := readEvent(t, conn, func(m WSMessage) bool { return m.Type == WSTypeResponse })
	assert.Equal(t, "sub-1", ack.ID)

	replayed := readEvent(t, conn, func(m WSMessage) bool { return m.Type == WSTypeEvent })
	assert.True(t, snapshotOf(t, replayed).IsPausedForTheNight, "subscriber should get the current state first")

	show.push(slideshow.State{IsRunning: true})

	changed := readEvent(t, conn, func(m WSMessage) bool {
		return m.Type == WSTypeEvent && snapshotOf(t, m).IsRunning
	})
	assert.Equal(t, ChannelSlideshowState, changed.EventType)
}

func TestWebSocket_Ping(t *testing.T) {
	srv, _ := testServer(t)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { assert.NoError(t, srv.Close()) })

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/api/v1/ws", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "p-1"}))
	pong := readEvent(t, conn, func(m WSMessage) bool { return m.ID == "p-1" })
	assert.Equal(t, WSTypePong, pong.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	bad := readEvent(t, conn, func(m WSMessage) bool { return m.Type == WSTypeError })
	assert.NotNil(t, bad.Payload)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: WSTypeSubscribe, ID: "s-empty"}))
	empty := readEvent(t, conn, func(m WSMessage) bool { return m.ID == "s-empty" })
	assert.Equal(t, WSTypeError, empty.Type)
}

func TestServer_StartFailsOnBusyPort(t *testing.T) {
	first, _ := testServer(t)
	require.NoError(t, first.Start(context.Background()))
	t.Cleanup(func() { assert.NoError(t, first.Close()) })

	_, port, found := strings.Cut(first.Addr(), ":")
	require.True(t, found)

	busy, err := strconv.Atoi(port)
	require.NoError(t, err)

	second, _ := testServer(t, func(d *Deps) { d.Config.Port = busy })
	assert.Error(t, second.Start(context.Background()))
	assert.NoError(t, second.Close(), "closing a server that never started is a no-op")
}

func TestFail_StatusFromCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeBitmapFailure, http.StatusServiceUnavailable},
		{ErrCodeStorageFailure, http.StatusServiceUnavailable},
		{"made_up", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			fail(w, tt.code, "boom")

			assert.Equal(t, tt.want, w.Code)
			body := decode[Error](t, w)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.want, body.Status)
		})
	}
}
