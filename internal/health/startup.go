// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/embyplay/internal/config"
	"github.com/ManuGH/embyplay/internal/log"
)

// PerformStartupChecks validates the environment before the daemon starts serving.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkWritableDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}
	if err := checkListenAddr(logger, cfg.API.ListenAddr); err != nil {
		return err
	}
	if cfg.State.Backend == "badger" {
		if err := checkWritableDir(logger, cfg.State.Path); err != nil {
			return fmt.Errorf("state directory check failed: %w", err)
		}
	}
	if cfg.Ledger.Enabled {
		if err := checkWritableDir(logger, filepath.Dir(cfg.Ledger.Path)); err != nil {
			return fmt.Errorf("ledger directory check failed: %w", err)
		}
	}

	tempDir := filepath.Clean(os.TempDir())
	dataDir := filepath.Clean(cfg.DataDir)
	if dataDir == tempDir || strings.HasPrefix(dataDir, tempDir+string(filepath.Separator)) {
		logger.Warn().
			Str("data_dir", cfg.DataDir).
			Msg("data directory is under temp; the device id may change after a reboot")
	}

	logger.Info().Msg("startup checks passed")
	return nil
}

// checkWritableDir creates path if needed and verifies it accepts writes.
func checkWritableDir(logger zerolog.Logger, path string) error {
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", path, err)
	}
	_ = os.Remove(testFile)

	logger.Debug().Str(log.FieldPath, path).Msg("directory is writable")
	return nil
}

func checkListenAddr(logger zerolog.Logger, addr string) error {
	if addr == "" {
		return nil
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid API listen address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid API listen port %q in %q", port, addr)
	}
	logger.Debug().Str("addr", addr).Msg("API listen address is valid")
	return nil
}
