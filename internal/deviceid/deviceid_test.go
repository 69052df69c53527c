package deviceid

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_CreatesAndReuses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	first, err := New(dir).Load(context.Background())
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	require.NoError(t, err)

	second := New(dir).DeviceID()
	assert.Equal(t, first, second)

	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, first+"\n", string(raw))
}

func TestProvider_RegeneratesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("not-a-uuid"), 0o600))

	id, err := New(dir).Load(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", id)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestProvider_StableWithinProcess(t *testing.T) {
	p := New(t.TempDir())
	assert.Equal(t, p.DeviceID(), p.DeviceID())
}
