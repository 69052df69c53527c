// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the effective runtime configuration.
type AppConfig struct {
	Version    string
	DataDir    string
	LogLevel   string
	LogService string

	Server    ServerConfig
	Playback  PlaybackConfig
	State     StateConfig
	Ledger    LedgerConfig
	API       APIConfig
	Telemetry TelemetryConfig
}

// ServerConfig describes the remote media server and how we talk to it.
type ServerConfig struct {
	BaseURL  string
	UserID   string
	ServerID string
	Token    string
	Timeout  time.Duration

	// RateLimit is the sustained request rate towards the server (req/s).
	RateLimit float64
	RateBurst int

	BreakerThreshold int
	BreakerReset     time.Duration
}

// PlaybackConfig holds the user-facing playback settings.
type PlaybackConfig struct {
	// VideoQuality is the bitrate tier index ("0".."18"); empty means unlimited.
	VideoQuality string
	// TranscodeHi10P forces H264 High 10 sources to transcode.
	TranscodeHi10P bool
	// TranscodeH265 is the HEVC resolution tier ("0" off, "1" 480p, "2" 720p, "3" 1080p).
	TranscodeH265 string
	// PlayFromStream disables direct file access altogether.
	PlayFromStream bool
	// MountMap maps network share URI prefixes to local mount points.
	MountMap map[string]string
}

// StateConfig selects the session state backend.
type StateConfig struct {
	Backend       string // memory | redis | badger
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LedgerConfig controls the sqlite playback ledger.
type LedgerConfig struct {
	Enabled bool
	Path    string
}

// APIConfig controls the local HTTP API.
type APIConfig struct {
	ListenAddr string
	RateLimit  int
	RateWindow time.Duration
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
	Environment  string
}

// FileConfig is the YAML representation. Pointer fields distinguish "unset" from zero.
type FileConfig struct {
	DataDir  string `yaml:"dataDir,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`

	Server    *FileServer    `yaml:"server,omitempty"`
	Playback  *FilePlayback  `yaml:"playback,omitempty"`
	State     *FileState     `yaml:"state,omitempty"`
	Ledger    *FileLedger    `yaml:"ledger,omitempty"`
	API       *FileAPI       `yaml:"api,omitempty"`
	Telemetry *FileTelemetry `yaml:"telemetry,omitempty"`
}

type FileServer struct {
	BaseURL          string   `yaml:"baseUrl,omitempty"`
	UserID           string   `yaml:"userId,omitempty"`
	ServerID         string   `yaml:"serverId,omitempty"`
	Token            string   `yaml:"token,omitempty"`
	Timeout          string   `yaml:"timeout,omitempty"`
	RateLimit        *float64 `yaml:"rateLimit,omitempty"`
	RateBurst        *int     `yaml:"rateBurst,omitempty"`
	BreakerThreshold *int     `yaml:"breakerThreshold,omitempty"`
	BreakerReset     string   `yaml:"breakerReset,omitempty"`
}

type FilePlayback struct {
	VideoQuality   string            `yaml:"videoQuality,omitempty"`
	TranscodeHi10P *bool             `yaml:"transcodeHi10P,omitempty"`
	TranscodeH265  string            `yaml:"transcodeH265,omitempty"`
	PlayFromStream *bool             `yaml:"playFromStream,omitempty"`
	MountMap       map[string]string `yaml:"mountMap,omitempty"`
}

type FileState struct {
	Backend       string `yaml:"backend,omitempty"`
	Path          string `yaml:"path,omitempty"`
	RedisAddr     string `yaml:"redisAddr,omitempty"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       *int   `yaml:"redisDb,omitempty"`
}

type FileLedger struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

type FileAPI struct {
	ListenAddr string `yaml:"listenAddr,omitempty"`
	RateLimit  *int   `yaml:"rateLimit,omitempty"`
	RateWindow string `yaml:"rateWindow,omitempty"`
}

type FileTelemetry struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
}
