// SPDX-License-Identifier: MIT

// Package deviceid provides a device identifier that is stable per installation.
package deviceid

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	xglog "github.com/ManuGH/embyplay/internal/log"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

// FileName is the name of the identity file inside the data directory.
const FileName = "device_id"

// Provider returns the installation's device id, creating it on first use.
type Provider struct {
	path string

	once sync.Once
	id   string
	err  error
}

// New returns a Provider persisting its id under dataDir.
func New(dataDir string) *Provider {
	return &Provider{path: filepath.Join(dataDir, FileName)}
}

// Load reads or creates the device id.
func (p *Provider) Load(ctx context.Context) (string, error) {
	p.once.Do(func() {
		p.id, p.err = loadOrCreate(ctx, p.path)
	})
	return p.id, p.err
}

// DeviceID returns the device id, or "" if it could not be loaded.
// Call Load at startup to surface errors.
func (p *Provider) DeviceID() string {
	id, _ := p.Load(context.Background())
	return id
}

func loadOrCreate(ctx context.Context, path string) (string, error) {
	logger := xglog.FromContext(ctx)

	// #nosec G304 -- path is derived from the operator-configured data directory
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		id := strings.TrimSpace(string(data))
		if _, perr := uuid.Parse(id); perr == nil {
			return id, nil
		}
		logger.Warn().Str("event", "deviceid.invalid").Str("path", path).Msg("device id file is corrupt, regenerating")
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("read device id: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	id := uuid.NewString()
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return "", fmt.Errorf("create pending device id file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending device id file")
		}
	}()

	if _, err := pendingFile.WriteString(id + "\n"); err != nil {
		return "", fmt.Errorf("write device id: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("atomically replace device id file: %w", err)
	}

	logger.Info().Str("event", "deviceid.created").Str(xglog.FieldDeviceID, id).Msg("generated new device id")
	return id, nil
}
