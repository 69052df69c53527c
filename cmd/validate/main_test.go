// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/embyplay/internal/ledger"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestValidateCLI(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EMBYPLAY_DATA", dir)

	tests := []struct {
		name       string
		body       string
		wantExit   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "valid minimal config",
			body:       "server:\n  baseUrl: http://emby.local:8096\n  userId: u1\n",
			wantExit:   0,
			wantStdout: "is valid",
		},
		{
			name:       "unknown key",
			body:       "server:\n  baseUrl: http://emby.local:8096\n  bogus: 1\n",
			wantExit:   1,
			wantStderr: "Configuration error",
		},
		{
			name:       "type mismatch",
			body:       "server:\n  rateBurst: lots\n",
			wantExit:   1,
			wantStderr: "Configuration error",
		},
		{
			name:       "relative server url",
			body:       "server:\n  baseUrl: emby.local\n  userId: u1\n",
			wantExit:   1,
			wantStderr: "Validation error",
		},
		{
			name:       "bad h265 tier",
			body:       "server:\n  baseUrl: http://emby.local:8096\n  userId: u1\nplayback:\n  transcodeH265: \"9\"\n",
			wantExit:   1,
			wantStderr: "transcodeH265",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", tt.body)
			var stdout, stderr bytes.Buffer
			code := run([]string{"-f", path}, &stdout, &stderr)
			assert.Equal(t, tt.wantExit, code, stderr.String())
			if tt.wantStdout != "" {
				assert.Contains(t, stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestValidateCLI_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "--file is required")

	stdout.Reset()
	assert.Equal(t, 0, run([]string{"-version"}, &stdout, &stderr))
	assert.Equal(t, Version+"\n", stdout.String())
}

func TestValidateCLI_VerifyLedger(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EMBYPLAY_DATA", dir)
	ledgerPath := filepath.Join(dir, "ledger.db")

	led, err := ledger.Open(context.Background(), ledgerPath)
	require.NoError(t, err)
	require.NoError(t, led.Close())

	path := writeFile(t, dir, "config.yaml",
		"server:\n  baseUrl: http://emby.local:8096\n  userId: u1\nledger:\n  enabled: true\n  path: "+ledgerPath+"\n")
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-f", path, "--verify-ledger"}, &stdout, &stderr), stderr.String())

	require.NoError(t, os.WriteFile(ledgerPath, []byte("not a database, just some bytes that are long enough"), 0o600))
	stdout.Reset()
	stderr.Reset()
	assert.Equal(t, 1, run([]string{"-f", path, "--verify-ledger"}, &stdout, &stderr))
}
