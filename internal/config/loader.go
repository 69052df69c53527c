// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultDataDir          = "/tmp/embyplay"
	DefaultServerTimeout    = 15 * time.Second
	DefaultRateLimit        = 5.0
	DefaultRateBurst        = 10
	DefaultBreakerThreshold = 5
	DefaultBreakerReset     = 30 * time.Second
	DefaultStateBackend     = "memory"
	DefaultListenAddr       = "127.0.0.1:8097"
	DefaultAPIRateLimit     = 120
	DefaultAPIRateWindow    = time.Minute
)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
func (l *Loader) Load() (AppConfig, error) {
	cfg := AppConfig{}
	l.setDefaults(&cfg)

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	if cfg.State.Backend == "badger" && cfg.State.Path == "" {
		cfg.State.Path = filepath.Join(cfg.DataDir, "state")
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = filepath.Join(cfg.DataDir, "ledger.db")
	}

	return cfg, nil
}

func (l *Loader) setDefaults(cfg *AppConfig) {
	cfg.Version = l.version
	cfg.DataDir = DefaultDataDir
	cfg.LogService = "embyplay"

	cfg.Server.Timeout = DefaultServerTimeout
	cfg.Server.RateLimit = DefaultRateLimit
	cfg.Server.RateBurst = DefaultRateBurst
	cfg.Server.BreakerThreshold = DefaultBreakerThreshold
	cfg.Server.BreakerReset = DefaultBreakerReset

	cfg.Playback.TranscodeH265 = "0"
	cfg.Playback.MountMap = map[string]string{}

	cfg.State.Backend = DefaultStateBackend

	cfg.API.ListenAddr = DefaultListenAddr
	cfg.API.RateLimit = DefaultAPIRateLimit
	cfg.API.RateWindow = DefaultAPIRateWindow

	cfg.Telemetry.Exporter = "grpc"
	cfg.Telemetry.Endpoint = "localhost:4317"
	cfg.Telemetry.SamplingRate = 1.0
	cfg.Telemetry.Environment = "production"
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	if src == nil {
		return nil
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}

	if s := src.Server; s != nil {
		setString(&dst.Server.BaseURL, s.BaseURL)
		setString(&dst.Server.UserID, s.UserID)
		setString(&dst.Server.ServerID, s.ServerID)
		setString(&dst.Server.Token, s.Token)
		if err := setDuration(&dst.Server.Timeout, s.Timeout, "server.timeout"); err != nil {
			return err
		}
		if err := setDuration(&dst.Server.BreakerReset, s.BreakerReset, "server.breakerReset"); err != nil {
			return err
		}
		if s.RateLimit != nil {
			dst.Server.RateLimit = *s.RateLimit
		}
		if s.RateBurst != nil {
			dst.Server.RateBurst = *s.RateBurst
		}
		if s.BreakerThreshold != nil {
			dst.Server.BreakerThreshold = *s.BreakerThreshold
		}
	}

	if p := src.Playback; p != nil {
		setString(&dst.Playback.VideoQuality, p.VideoQuality)
		setString(&dst.Playback.TranscodeH265, p.TranscodeH265)
		if p.TranscodeHi10P != nil {
			dst.Playback.TranscodeHi10P = *p.TranscodeHi10P
		}
		if p.PlayFromStream != nil {
			dst.Playback.PlayFromStream = *p.PlayFromStream
		}
		for prefix, mount := range p.MountMap {
			dst.Playback.MountMap[prefix] = mount
		}
	}

	if s := src.State; s != nil {
		setString(&dst.State.Backend, s.Backend)
		setString(&dst.State.Path, s.Path)
		setString(&dst.State.RedisAddr, s.RedisAddr)
		setString(&dst.State.RedisPassword, s.RedisPassword)
		if s.RedisDB != nil {
			dst.State.RedisDB = *s.RedisDB
		}
	}

	if lg := src.Ledger; lg != nil {
		if lg.Enabled != nil {
			dst.Ledger.Enabled = *lg.Enabled
		}
		setString(&dst.Ledger.Path, lg.Path)
	}

	if a := src.API; a != nil {
		setString(&dst.API.ListenAddr, a.ListenAddr)
		if a.RateLimit != nil {
			dst.API.RateLimit = *a.RateLimit
		}
		if err := setDuration(&dst.API.RateWindow, a.RateWindow, "api.rateWindow"); err != nil {
			return err
		}
	}

	if t := src.Telemetry; t != nil {
		if t.Enabled != nil {
			dst.Telemetry.Enabled = *t.Enabled
		}
		setString(&dst.Telemetry.Exporter, t.Exporter)
		setString(&dst.Telemetry.Endpoint, t.Endpoint)
		setString(&dst.Telemetry.Environment, t.Environment)
		if t.SamplingRate != nil {
			dst.Telemetry.SamplingRate = *t.SamplingRate
		}
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = l.envString("EMBYPLAY_DATA", cfg.DataDir)
	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)

	cfg.Server.BaseURL = l.envString("EMBYPLAY_SERVER_URL", cfg.Server.BaseURL)
	cfg.Server.UserID = l.envString("EMBYPLAY_USER_ID", cfg.Server.UserID)
	cfg.Server.ServerID = l.envString("EMBYPLAY_SERVER_ID", cfg.Server.ServerID)
	cfg.Server.Token = l.envString("EMBYPLAY_TOKEN", cfg.Server.Token)
	cfg.Server.Timeout = l.envDuration("EMBYPLAY_TIMEOUT", cfg.Server.Timeout)
	cfg.Server.RateLimit = l.envFloat("EMBYPLAY_RATE_LIMIT", cfg.Server.RateLimit)
	cfg.Server.RateBurst = l.envInt("EMBYPLAY_RATE_BURST", cfg.Server.RateBurst)

	cfg.Playback.VideoQuality = l.envString("EMBYPLAY_VIDEO_QUALITY", cfg.Playback.VideoQuality)
	cfg.Playback.TranscodeHi10P = l.envBool("EMBYPLAY_TRANSCODE_HI10P", cfg.Playback.TranscodeHi10P)
	cfg.Playback.TranscodeH265 = l.envString("EMBYPLAY_TRANSCODE_H265", cfg.Playback.TranscodeH265)
	cfg.Playback.PlayFromStream = l.envBool("EMBYPLAY_PLAY_FROM_STREAM", cfg.Playback.PlayFromStream)

	cfg.State.Backend = l.envString("EMBYPLAY_STATE_BACKEND", cfg.State.Backend)
	cfg.State.Path = l.envString("EMBYPLAY_STATE_PATH", cfg.State.Path)
	cfg.State.RedisAddr = l.envString("EMBYPLAY_REDIS_ADDR", cfg.State.RedisAddr)
	cfg.State.RedisPassword = l.envString("EMBYPLAY_REDIS_PASSWORD", cfg.State.RedisPassword)
	cfg.State.RedisDB = l.envInt("EMBYPLAY_REDIS_DB", cfg.State.RedisDB)

	cfg.Ledger.Enabled = l.envBool("EMBYPLAY_LEDGER_ENABLED", cfg.Ledger.Enabled)
	cfg.Ledger.Path = l.envString("EMBYPLAY_LEDGER_PATH", cfg.Ledger.Path)

	cfg.API.ListenAddr = l.envString("EMBYPLAY_LISTEN", cfg.API.ListenAddr)

	cfg.Telemetry.Enabled = l.envBool("EMBYPLAY_OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("EMBYPLAY_OTEL_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("EMBYPLAY_OTEL_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("EMBYPLAY_OTEL_SAMPLING", cfg.Telemetry.SamplingRate)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, raw, field string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	*dst = d
	return nil
}

// LoadFileConfig loads a YAML config file without applying defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	return NewLoader(path, "").loadFile(path)
}
