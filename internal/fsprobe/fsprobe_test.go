package fsprobe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExists_LocalPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	p := New(Options{})
	assert.True(t, p.Exists(context.Background(), file))
	assert.True(t, p.Exists(context.Background(), "file://"+file))
	assert.False(t, p.Exists(context.Background(), filepath.Join(dir, "missing.mkv")))
	assert.False(t, p.Exists(context.Background(), ""))
}

func TestExists_MappedShare(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "films", "A Movie"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "films", "A Movie", "movie.mkv"), []byte("x"), 0o600))

	p := New(Options{MountMap: map[string]string{
		"smb://nas/media":  dir,
		"smb://nas/media2": "/nonexistent",
	}})

	assert.True(t, p.Exists(context.Background(), "smb://nas/media/films/A Movie/movie.mkv"))
	assert.True(t, p.Exists(context.Background(), "SMB://NAS/media/films/A%20Movie/movie.mkv"))
	assert.False(t, p.Exists(context.Background(), "smb://nas/media/films/other.mkv"))
	assert.False(t, p.Exists(context.Background(), "smb://other/share/movie.mkv"))
	assert.False(t, p.Exists(context.Background(), "nfs://nas/media/films/A Movie/movie.mkv"))
}

func TestResolve_LongestPrefixAndBoundary(t *testing.T) {
	p := New(Options{MountMap: map[string]string{
		"smb://nas/media":       "/mnt/media",
		"smb://nas/media/4k/":   "/mnt/uhd",
		"nfs://server/exported": "/srv",
	}})

	got, ok := p.Resolve("smb://nas/media/4k/film.mkv")
	require.True(t, ok)
	assert.Equal(t, "/mnt/uhd/film.mkv", got)

	got, ok = p.Resolve("smb://nas/media/hd/film.mkv")
	require.True(t, ok)
	assert.Equal(t, "/mnt/media/hd/film.mkv", got)

	_, ok = p.Resolve("smb://nas/mediaextra/film.mkv")
	assert.False(t, ok)

	got, ok = p.Resolve("nfs://server/exported/a.mkv")
	require.True(t, ok)
	assert.Equal(t, "/srv/a.mkv", got)
}

func TestExists_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/ok.mkv" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := New(Options{HTTPClient: srv.Client()})
	assert.True(t, p.Exists(context.Background(), srv.URL+"/ok.mkv"))
	assert.False(t, p.Exists(context.Background(), srv.URL+"/missing.mkv"))
}
