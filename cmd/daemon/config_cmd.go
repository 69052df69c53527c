// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/embyplay/internal/config"
)

func runConfigCLI(args []string) int {
	return configCLI(args, os.Stdout, os.Stderr)
}

func configCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  embyplay config validate [--file|-f config.yaml]")
	_, _ = fmt.Fprintln(w, "  embyplay config dump --effective [--file|-f config.yaml] [--format=yaml|json]")
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("embyplay config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = resolveDefaultConfigPath()
	}
	if configPath == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --file is required (no default config.yaml found in $EMBYPLAY_DATA)")
		return 2
	}

	cfg, err := config.NewLoader(configPath, version).Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}
	if err := config.Validate(cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "Validation error in %s:\n  %v\n", configPath, err)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "✓ %s is valid\n", configPath)
	return 0
}

func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("embyplay config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	var format string
	var effective bool

	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	fs.BoolVar(&effective, "effective", false, "dump effective configuration (defaults + file + env)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !effective {
		_, _ = fmt.Fprintln(stderr, "Error: --effective is required")
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = resolveDefaultConfigPath()
	}
	cfg, err := config.NewLoader(configPath, version).Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}

	out := toFileConfig(cfg)
	redactFileConfigSecrets(&out)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: encode yaml: %v\n", err)
			return 1
		}
		_ = enc.Close()
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: encode json: %v\n", err)
			return 1
		}
	default:
		_, _ = fmt.Fprintf(stderr, "Error: unsupported format %q (use yaml or json)\n", format)
		return 2
	}
	return 0
}

// toFileConfig renders the effective config in its YAML shape.
func toFileConfig(cfg config.AppConfig) config.FileConfig {
	rateLimit := cfg.Server.RateLimit
	rateBurst := cfg.Server.RateBurst
	breakerThreshold := cfg.Server.BreakerThreshold
	hi10p := cfg.Playback.TranscodeHi10P
	playFromStream := cfg.Playback.PlayFromStream
	redisDB := cfg.State.RedisDB
	ledgerEnabled := cfg.Ledger.Enabled
	apiRateLimit := cfg.API.RateLimit
	otelEnabled := cfg.Telemetry.Enabled
	sampling := cfg.Telemetry.SamplingRate

	return config.FileConfig{
		DataDir:  cfg.DataDir,
		LogLevel: cfg.LogLevel,
		Server: &config.FileServer{
			BaseURL:          cfg.Server.BaseURL,
			UserID:           cfg.Server.UserID,
			ServerID:         cfg.Server.ServerID,
			Token:            cfg.Server.Token,
			Timeout:          cfg.Server.Timeout.String(),
			RateLimit:        &rateLimit,
			RateBurst:        &rateBurst,
			BreakerThreshold: &breakerThreshold,
			BreakerReset:     cfg.Server.BreakerReset.String(),
		},
		Playback: &config.FilePlayback{
			VideoQuality:   cfg.Playback.VideoQuality,
			TranscodeHi10P: &hi10p,
			TranscodeH265:  cfg.Playback.TranscodeH265,
			PlayFromStream: &playFromStream,
			MountMap:       cfg.Playback.MountMap,
		},
		State: &config.FileState{
			Backend:       cfg.State.Backend,
			Path:          cfg.State.Path,
			RedisAddr:     cfg.State.RedisAddr,
			RedisPassword: cfg.State.RedisPassword,
			RedisDB:       &redisDB,
		},
		Ledger: &config.FileLedger{
			Enabled: &ledgerEnabled,
			Path:    cfg.Ledger.Path,
		},
		API: &config.FileAPI{
			ListenAddr: cfg.API.ListenAddr,
			RateLimit:  &apiRateLimit,
			RateWindow: cfg.API.RateWindow.String(),
		},
		Telemetry: &config.FileTelemetry{
			Enabled:      &otelEnabled,
			Exporter:     cfg.Telemetry.Exporter,
			Endpoint:     cfg.Telemetry.Endpoint,
			SamplingRate: &sampling,
			Environment:  cfg.Telemetry.Environment,
		},
	}
}

func redactFileConfigSecrets(cfg *config.FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.Server != nil && cfg.Server.Token != "" {
		cfg.Server.Token = "***"
	}
	if cfg.State != nil && cfg.State.RedisPassword != "" {
		cfg.State.RedisPassword = "***"
	}
}
