// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/embyplay/internal/emby"
	"github.com/ManuGH/embyplay/internal/health"
	"github.com/ManuGH/embyplay/internal/ledger"
	"github.com/ManuGH/embyplay/internal/playback"
	"github.com/ManuGH/embyplay/internal/state"
)

type staticDevice string

func (d staticDevice) DeviceID() string { return string(d) }

type reachable map[string]bool

func (r reachable) Exists(_ context.Context, path string) bool { return r[path] }

type stack struct {
	srv     *emby.MockServer
	handler http.Handler
	ledger  *ledger.Store
}

func newStack(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()

	srv := emby.NewMockServer()
	t.Cleanup(srv.Close)
	client, err := emby.New(emby.Config{
		BaseURL:   srv.URL,
		UserID:    "user-1",
		Token:     "tok",
		DeviceID:  "dev-1",
		Timeout:   2 * time.Second,
		RateLimit: 100,
		RateBurst: 100,
	})
	require.NoError(t, err)

	store := state.NewMemoryStore()
	sessions := playback.NewSessionContext(store)
	led, err := ledger.Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = led.Close() })

	nop := zerolog.Nop()
	resolver, err := playback.NewResolver(playback.Options{
		ServerURL: srv.URL,
		UserID:    "user-1",
		Requester: client,
		Prober:    reachable{"/media/movie.mkv": true},
		Device:    staticDevice("dev-1"),
		Sessions:  sessions,
		Recorder:  led,
		Logger:    &nop,
	})
	require.NoError(t, err)

	hm := health.NewManager("test")
	hm.RegisterChecker(health.NewStoreChecker(store))
	hm.RegisterChecker(health.NewUpstreamChecker(client.Breaker()))
	hm.RegisterChecker(health.NewPingChecker("ledger", led.Ping))

	s, err := New(Config{RateLimit: 100, RateWindow: time.Minute}, Deps{
		Resolver: resolver,
		Items:    client,
		Sessions: sessions,
		History:  led,
		Health:   hm,
	})
	require.NoError(t, err)
	return &stack{srv: srv, handler: s.Handler(), ledger: led}
}

func call(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.RemoteAddr = "127.0.0.1:40000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}

func TestServer_ResolveLookupStop(t *testing.T) {
	st := newStack(t)
	width := 1920
	st.srv.SetItem(emby.Item{ID: "42", Name: "Movie", Type: "Movie", Path: "/media/movie.mkv"})
	st.srv.SetPlaybackInfo("42", emby.PlaybackInfoResponse{
		PlaySessionID: "ps-1",
		MediaSources: []emby.MediaSource{{
			ID:                 "src-1",
			Protocol:           emby.ProtocolFile,
			Path:               "/media/movie.mkv",
			MediaStreams:       []emby.MediaStream{{Type: emby.StreamTypeVideo, Width: &width}},
			SupportsDirectPlay: true,
		}},
	})

	w := call(t, st.handler, http.MethodPost, "/api/v1/items/42/resolve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	var plan map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, "DirectPlay", plan["method"])
	assert.Equal(t, "/media/movie.mkv", plan["url"])

	w = call(t, st.handler, http.MethodGet, "/api/v1/sessions/method?url=%2Fmedia%2Fmovie.mkv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"method":"DirectPlay"`)

	w = call(t, st.handler, http.MethodPost, "/api/v1/sessions/stop", map[string]string{"url": "/media/movie.mkv"})
	require.Equal(t, http.StatusOK, w.Code)

	w = call(t, st.handler, http.MethodGet, "/api/v1/sessions/recent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []ledger.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "42", entries[0].ItemID)
	assert.NotNil(t, entries[0].StoppedAt)

	w = call(t, st.handler, http.MethodGet, "/api/v1/sessions/method?url=%2Fmedia%2Fmovie.mkv", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	st := newStack(t)

	w := call(t, st.handler, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ready health.ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.True(t, ready.Ready)
	assert.Len(t, ready.Checks, 3)

	w = call(t, st.handler, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "embyplay_http_requests_in_flight")
}

func TestServer_ServeShutsDownCleanly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, err := New(Config{}, Deps{
		Resolver: nopResolver{},
		Items:    nopItems{},
		Sessions: playback.NewSessionContext(state.NewMemoryStore()),
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	tr := &http.Transport{}
	client := &http.Client{Transport: tr, Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	tr.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

type nopResolver struct{}

func (nopResolver) Resolve(context.Context, emby.Item, ...playback.ResolveOption) (playback.Plan, error) {
	return playback.Plan{}, playback.ErrInvalidPlayback
}

func (nopResolver) ApplyTracks(_ context.Context, p playback.Plan, _ playback.Selection) (playback.Plan, []string, error) {
	return p, nil, nil
}

func (nopResolver) Stop(context.Context, string) (playback.StopResult, error) {
	return playback.StopResult{}, playback.ErrUnknownSession
}

type nopItems struct{}

func (nopItems) Item(context.Context, string) (emby.Item, error) { return emby.Item{}, emby.ErrNotFound }

func (nopItems) AdditionalParts(context.Context, string) ([]emby.Item, error) {
	return nil, emby.ErrNotFound
}
