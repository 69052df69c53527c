// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package state provides the keyed session state store used to correlate
// playback URLs with their play method and live stream.
package state

import (
	"context"
	"errors"
	"fmt"

	xglog "github.com/ManuGH/embyplay/internal/log"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("state: unknown backend")

// Store is a process-wide string key/value store without expiry.
// Implementations are safe for concurrent use; concurrent writes to the same
// key are last-writer-wins.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open constructs the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	logger := xglog.WithComponent("state")
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", BackendMemory:
		s = NewMemoryStore()
	case BackendRedis:
		s, err = NewRedisStore(ctx, RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}, logger)
	case BackendBadger:
		s, err = OpenBadgerStore(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s state store: %w", cfg.Backend, err)
	}
	logger.Info().Str("event", "state.opened").Str("backend", backendName(cfg.Backend)).Msg("session state store ready")
	return s, nil
}

func backendName(b string) string {
	if b == "" {
		return BackendMemory
	}
	return b
}
