package health

import (
	"context"

	"github.com/ManuGH/embyplay/internal/emby"
	"github.com/ManuGH/embyplay/internal/state"
)

const storeProbeKey = "health:probe"

// StoreChecker verifies the session state backend answers reads.
type StoreChecker struct {
	store state.Store
}

func NewStoreChecker(store state.Store) *StoreChecker {
	return &StoreChecker{store: store}
}

func (c *StoreChecker) Name() string { return "state_store" }

func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	if _, _, err := c.store.Get(ctx, storeProbeKey); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// UpstreamChecker reports the media server circuit breaker state.
// An open breaker degrades the service but does not make it unready:
// sessions can still be stopped and listed.
type UpstreamChecker struct {
	breaker *emby.CircuitBreaker
}

func NewUpstreamChecker(breaker *emby.CircuitBreaker) *UpstreamChecker {
	return &UpstreamChecker{breaker: breaker}
}

func (c *UpstreamChecker) Name() string { return "media_server" }

func (c *UpstreamChecker) Check(context.Context) CheckResult {
	switch c.breaker.State() {
	case emby.StateOpen:
		return CheckResult{Status: StatusDegraded, Message: "circuit open"}
	case emby.StateHalfOpen:
		return CheckResult{Status: StatusDegraded, Message: "circuit half-open"}
	default:
		return CheckResult{Status: StatusHealthy, Message: "circuit closed"}
	}
}

// PingChecker wraps a ping function such as a database PingContext.
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}
