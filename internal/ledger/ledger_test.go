package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "sub", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLedger_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, s.RecordResolved(ctx, Entry{URL: "u1", ItemID: "1", Method: "DirectPlay", ResolvedAt: base}))
	require.NoError(t, s.RecordResolved(ctx, Entry{URL: "u2", ItemID: "2", Method: "Transcode", LiveStreamID: "ls", ResolvedAt: base.Add(time.Second)}))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u2", got[0].URL)
	assert.Equal(t, "ls", got[0].LiveStreamID)
	assert.Equal(t, base.UnixMilli(), got[1].ResolvedAt.UnixMilli())
	assert.Nil(t, got[1].StoppedAt)

	got, err = s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLedger_RecordStoppedMarksLatestOpenSession(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	stopAt := time.UnixMilli(1_700_000_100_000)
	s.now = func() time.Time { return stopAt }

	base := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, s.RecordResolved(ctx, Entry{URL: "u", ItemID: "1", Method: "DirectStream", ResolvedAt: base}))
	require.NoError(t, s.RecordResolved(ctx, Entry{URL: "u", ItemID: "1", Method: "DirectStream", ResolvedAt: base.Add(time.Minute)}))

	require.NoError(t, s.RecordStopped(ctx, "u"))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, got[0].StoppedAt)
	assert.Equal(t, stopAt.UnixMilli(), got[0].StoppedAt.UnixMilli())
	assert.Nil(t, got[1].StoppedAt)

	require.NoError(t, s.RecordStopped(ctx, "u"))
	assert.ErrorIs(t, s.RecordStopped(ctx, "u"), ErrNotFound)
	assert.ErrorIs(t, s.RecordStopped(ctx, "unknown"), ErrNotFound)
}

func TestLedger_ReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.RecordResolved(ctx, Entry{URL: "u", ItemID: "1", Method: "DirectPlay"}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
