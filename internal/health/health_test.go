// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/embyplay/internal/config"
	"github.com/ManuGH/embyplay/internal/emby"
	"github.com/ManuGH/embyplay/internal/state"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult { return CheckResult{Status: m.status} }

func TestManager_Health(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "a", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "b", status: StatusDegraded})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestManager_Ready(t *testing.T) {
	m := NewManager("v1")
	assert.True(t, m.Ready(context.Background()).Ready)

	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})
	resp := m.Ready(context.Background())
	assert.True(t, resp.Ready)
	assert.Equal(t, StatusDegraded, resp.Status)

	m.RegisterChecker(&mockChecker{name: "down", status: StatusUnhealthy})
	resp = m.Ready(context.Background())
	assert.False(t, resp.Ready)
	assert.Equal(t, StatusUnhealthy, resp.Status)
}

func TestServeReady_StatusCodes(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(NewPingChecker("ledger", func(context.Context) error { return errors.New("closed") }))

	w := httptest.NewRecorder()
	m.ServeReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "closed", resp.Checks["ledger"].Error)

	w = httptest.NewRecorder()
	m.ServeHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStoreChecker(t *testing.T) {
	res := NewStoreChecker(state.NewMemoryStore()).Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
}

func TestUpstreamChecker(t *testing.T) {
	cb := emby.NewCircuitBreaker("health-test", 1, time.Hour)
	c := NewUpstreamChecker(cb)
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	_ = cb.Execute(func() error { return errors.New("fail") })
	assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)
}

func TestPerformStartupChecks(t *testing.T) {
	dir := t.TempDir()
	cfg := config.AppConfig{DataDir: filepath.Join(dir, "data")}
	cfg.API.ListenAddr = "127.0.0.1:8097"
	cfg.Ledger.Enabled = true
	cfg.Ledger.Path = filepath.Join(dir, "ledger", "ledger.db")

	require.NoError(t, PerformStartupChecks(context.Background(), cfg))
	_, err := os.Stat(filepath.Join(dir, "ledger"))
	assert.NoError(t, err)

	cfg.API.ListenAddr = "localhost"
	assert.Error(t, PerformStartupChecks(context.Background(), cfg))
}
