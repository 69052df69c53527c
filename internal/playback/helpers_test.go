package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/embyplay/internal/emby"
	"github.com/ManuGH/embyplay/internal/ledger"
	"github.com/ManuGH/embyplay/internal/state"
)

type fakeProber map[string]bool

func (f fakeProber) Exists(_ context.Context, path string) bool { return f[path] }

type fakeSettings map[string]string

func (f fakeSettings) GetString(name string) string { return f[name] }

type fakeDevice string

func (d fakeDevice) DeviceID() string { return string(d) }

type fakeRecorder struct {
	mu       sync.Mutex
	resolved []ledger.Entry
	stopped  []string
}

func (f *fakeRecorder) RecordResolved(_ context.Context, e ledger.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, e)
	return nil
}

func (f *fakeRecorder) RecordStopped(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, url)
	return nil
}

type harness struct {
	srv      *emby.MockServer
	store    *state.MemoryStore
	sessions *SessionContext
	recorder *fakeRecorder
	resolver *Resolver
}

func newHarness(t *testing.T, prober fakeProber, settings fakeSettings) *harness {
	t.Helper()
	srv := emby.NewMockServer()
	t.Cleanup(srv.Close)

	client, err := emby.New(emby.Config{
		BaseURL:          srv.URL,
		UserID:           "user-1",
		Token:            "tok",
		DeviceID:         "dev-1",
		Version:          "test",
		Timeout:          2 * time.Second,
		RateLimit:        1000,
		RateBurst:        1000,
		BreakerThreshold: 3,
		BreakerReset:     time.Minute,
	})
	require.NoError(t, err)

	store := state.NewMemoryStore()
	sessions := NewSessionContext(store)
	rec := &fakeRecorder{}
	nop := zerolog.Nop()
	r, err := NewResolver(Options{
		ServerURL: srv.URL,
		UserID:    "user-1",
		Requester: client,
		Prober:    prober,
		Settings:  settings,
		Device:    fakeDevice("dev-1"),
		Sessions:  sessions,
		Recorder:  rec,
		Logger:    &nop,
	})
	require.NoError(t, err)

	return &harness{srv: srv, store: store, sessions: sessions, recorder: rec, resolver: r}
}

// offlineResolver builds a resolver for probe and selection tests that never reach the server.
func offlineResolver(t *testing.T, prober fakeProber, settings fakeSettings) *Resolver {
	t.Helper()
	nop := zerolog.Nop()
	r, err := NewResolver(Options{
		ServerURL: "http://emby.local:8096",
		UserID:    "user-1",
		Requester: noRequester{},
		Prober:    prober,
		Settings:  settings,
		Device:    fakeDevice("dev-1"),
		Sessions:  NewSessionContext(state.NewMemoryStore()),
		Logger:    &nop,
	})
	require.NoError(t, err)
	return r
}

type noRequester struct{}

func (noRequester) Send(context.Context, string, string, any, any) error {
	panic("unexpected upstream call")
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func videoStream(width int) emby.MediaStream {
	return emby.MediaStream{Type: emby.StreamTypeVideo, Index: 0, Codec: "h264", Width: intPtr(width)}
}
