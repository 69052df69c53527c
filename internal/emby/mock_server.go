// SPDX-License-Identifier: MIT

package emby

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Endpoint names used by MockServer for call counting and failure injection.
const (
	EndpointPlaybackInfo    = "playback_info"
	EndpointLiveStreamOpen  = "live_stream_open"
	EndpointLiveStreamClose = "live_stream_close"
	EndpointItem            = "item"
	EndpointAdditionalParts = "additional_parts"
)

// MockServer provides a configurable Emby mock server for testing.
type MockServer struct {
	*httptest.Server
	mu           sync.RWMutex
	token        string
	playbackInfo map[string]PlaybackInfoResponse
	liveStreams  map[string]MediaSource // keyed by OpenToken
	items        map[string]Item
	parts        map[string][]Item
	failures     map[string]int // Number of 500 responses before success per endpoint
	calls        map[string]int
	bodies       map[string][]byte
	closed       []string
	holds        map[string]*hold
}

type hold struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewMockServer creates a new Emby mock server.
func NewMockServer() *MockServer {
	mock := &MockServer{
		playbackInfo: make(map[string]PlaybackInfoResponse),
		liveStreams:  make(map[string]MediaSource),
		items:        make(map[string]Item),
		parts:        make(map[string][]Item),
		failures:     make(map[string]int),
		calls:        make(map[string]int),
		bodies:       make(map[string][]byte),
		holds:        make(map[string]*hold),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /emby/Items/{id}/PlaybackInfo", mock.handlePlaybackInfo)
	mux.HandleFunc("POST /emby/LiveStreams/Open", mock.handleOpen)
	mux.HandleFunc("POST /emby/LiveStreams/Close", mock.handleClose)
	mux.HandleFunc("GET /emby/Users/{user}/Items/{id}", mock.handleItem)
	mux.HandleFunc("GET /emby/Videos/{id}/AdditionalParts", mock.handleParts)

	mock.Server = httptest.NewServer(mux)
	return mock
}

// RequireToken makes every request without a matching X-Emby-Token fail with 401.
func (m *MockServer) RequireToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// SetPlaybackInfo sets the PlaybackInfo response for an item.
func (m *MockServer) SetPlaybackInfo(itemID string, resp PlaybackInfoResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playbackInfo[itemID] = resp
}

// SetLiveStream sets the source returned when opening openToken.
func (m *MockServer) SetLiveStream(openToken string, src MediaSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.liveStreams[openToken] = src
}

// SetItem registers an item.
func (m *MockServer) SetItem(item Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
}

// SetAdditionalParts registers the extra parts of an item.
func (m *MockServer) SetAdditionalParts(itemID string, parts []Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parts[itemID] = parts
}

// SetFailures sets the number of 500 responses before success for an endpoint.
func (m *MockServer) SetFailures(endpoint string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[endpoint] = count
}

// Hold parks requests to endpoint until release is called. arrived is closed
// when the first request is parked.
func (m *MockServer) Hold(endpoint string) (arrived <-chan struct{}, release func()) {
	h := &hold{arrived: make(chan struct{}), release: make(chan struct{})}
	m.mu.Lock()
	m.holds[endpoint] = h
	m.mu.Unlock()
	var once sync.Once
	return h.arrived, func() { once.Do(func() { close(h.release) }) }
}

// Calls returns how many requests reached an endpoint.
func (m *MockServer) Calls(endpoint string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[endpoint]
}

// LastBody returns the most recent request body sent to an endpoint.
func (m *MockServer) LastBody(endpoint string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.bodies[endpoint]...)
}

// ClosedLiveStreams returns the live stream ids closed so far.
func (m *MockServer) ClosedLiveStreams() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.closed...)
}

// begin records the call and reports whether the handler should continue.
func (m *MockServer) begin(endpoint string, w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, _ := io.ReadAll(r.Body)

	m.mu.RLock()
	h := m.holds[endpoint]
	m.mu.RUnlock()
	if h != nil {
		h.once.Do(func() { close(h.arrived) })
		select {
		case <-h.release:
		case <-r.Context().Done():
			return nil, false
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[endpoint]++
	m.bodies[endpoint] = body

	if m.token != "" && r.Header.Get("X-Emby-Token") != m.token {
		http.Error(w, "Access token is invalid or expired.", http.StatusUnauthorized)
		return nil, false
	}
	if m.failures[endpoint] > 0 {
		m.failures[endpoint]--
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return body, true
}

func (m *MockServer) handlePlaybackInfo(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.begin(EndpointPlaybackInfo, w, r); !ok {
		return
	}
	m.mu.RLock()
	resp, ok := m.playbackInfo[r.PathValue("id")]
	m.mu.RUnlock()
	if !ok {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	writeJSON(w, resp)
}

func (m *MockServer) handleOpen(w http.ResponseWriter, r *http.Request) {
	body, ok := m.begin(EndpointLiveStreamOpen, w, r)
	if !ok {
		return
	}
	var req LiveStreamRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m.mu.RLock()
	src, ok := m.liveStreams[req.OpenToken]
	m.mu.RUnlock()
	if !ok {
		http.Error(w, "Unknown open token", http.StatusBadRequest)
		return
	}
	writeJSON(w, LiveStreamResponse{MediaSource: src})
}

func (m *MockServer) handleClose(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.begin(EndpointLiveStreamClose, w, r); !ok {
		return
	}
	m.mu.Lock()
	m.closed = append(m.closed, r.URL.Query().Get("LiveStreamId"))
	m.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (m *MockServer) handleItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.begin(EndpointItem, w, r); !ok {
		return
	}
	m.mu.RLock()
	item, ok := m.items[r.PathValue("id")]
	m.mu.RUnlock()
	if !ok {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	writeJSON(w, item)
}

func (m *MockServer) handleParts(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.begin(EndpointAdditionalParts, w, r); !ok {
		return
	}
	m.mu.RLock()
	parts := m.parts[r.PathValue("id")]
	m.mu.RUnlock()
	if parts == nil {
		parts = []Item{}
	}
	writeJSON(w, ItemsResponse{Items: parts, TotalRecordCount: len(parts)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
