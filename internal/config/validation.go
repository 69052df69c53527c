// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const maxVideoQualityTier = 18

// Validate performs business-logic validation and joins every problem found.
func Validate(cfg AppConfig) error {
	var errs []error

	if cfg.Server.BaseURL == "" {
		errs = append(errs, errors.New("server.baseUrl is required"))
	} else if u, err := url.Parse(cfg.Server.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.baseUrl %q must be an absolute http(s) URL", cfg.Server.BaseURL))
	}
	if cfg.Server.UserID == "" {
		errs = append(errs, errors.New("server.userId is required"))
	}
	if cfg.Server.Timeout <= 0 {
		errs = append(errs, errors.New("server.timeout must be positive"))
	}
	if cfg.Server.RateLimit <= 0 || cfg.Server.RateBurst <= 0 {
		errs = append(errs, errors.New("server.rateLimit and server.rateBurst must be positive"))
	}

	if q := strings.TrimSpace(cfg.Playback.VideoQuality); q != "" {
		if n, err := strconv.Atoi(q); err != nil || n < 0 || n > maxVideoQualityTier {
			errs = append(errs, fmt.Errorf("playback.videoQuality %q must be a tier between 0 and %d", q, maxVideoQualityTier))
		}
	}
	switch strings.TrimSpace(cfg.Playback.TranscodeH265) {
	case "", "0", "1", "2", "3":
	default:
		errs = append(errs, fmt.Errorf("playback.transcodeH265 %q must be one of 0, 1, 2, 3", cfg.Playback.TranscodeH265))
	}
	for prefix := range cfg.Playback.MountMap {
		if !strings.Contains(prefix, "://") {
			errs = append(errs, fmt.Errorf("playback.mountMap key %q must be a URI prefix (smb://, nfs://)", prefix))
		}
	}

	switch cfg.State.Backend {
	case "memory":
	case "redis":
		if cfg.State.RedisAddr == "" {
			errs = append(errs, errors.New("state.redisAddr is required for the redis backend"))
		}
	case "badger":
		if cfg.State.Path == "" {
			errs = append(errs, errors.New("state.path is required for the badger backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("state.backend %q must be memory, redis or badger", cfg.State.Backend))
	}

	if cfg.Ledger.Enabled && cfg.Ledger.Path == "" {
		errs = append(errs, errors.New("ledger.path is required when the ledger is enabled"))
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			errs = append(errs, fmt.Errorf("telemetry.exporter %q must be grpc or http", cfg.Telemetry.Exporter))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
