package playback

import (
	"context"
	"fmt"

	"github.com/ManuGH/embyplay/internal/state"
)

const sessionKeyPrefix = "emby_"

// PlayMethodKey is the state key holding the play method for url.
func PlayMethodKey(url string) string { return sessionKeyPrefix + url + ".playmethod" }

// LiveStreamKey is the state key holding the live stream id for url.
func LiveStreamKey(url string) string { return sessionKeyPrefix + url + ".livestreamid" }

// SessionContext records resolved plans so playback handlers can find them by URL.
type SessionContext struct {
	store state.Store
}

// NewSessionContext wraps store.
func NewSessionContext(store state.Store) *SessionContext {
	return &SessionContext{store: store}
}

// Record stores the play method and, when set, the live stream id for url.
// A live stream id left by an earlier plan for the same URL is removed.
func (s *SessionContext) Record(ctx context.Context, url string, method PlayMethod, liveStreamID string) error {
	if err := s.store.Set(ctx, PlayMethodKey(url), string(method)); err != nil {
		return fmt.Errorf("record play method: %w", err)
	}
	if liveStreamID == "" {
		if err := s.store.Delete(ctx, LiveStreamKey(url)); err != nil {
			return fmt.Errorf("clear live stream id: %w", err)
		}
		return nil
	}
	if err := s.store.Set(ctx, LiveStreamKey(url), liveStreamID); err != nil {
		return fmt.Errorf("record live stream id: %w", err)
	}
	return nil
}

// PlayMethod returns the recorded play method for url.
func (s *SessionContext) PlayMethod(ctx context.Context, url string) (PlayMethod, bool, error) {
	v, ok, err := s.store.Get(ctx, PlayMethodKey(url))
	if err != nil || !ok {
		return "", false, err
	}
	return PlayMethod(v), true, nil
}

// LiveStreamID returns the recorded live stream id for url.
func (s *SessionContext) LiveStreamID(ctx context.Context, url string) (string, bool, error) {
	return s.store.Get(ctx, LiveStreamKey(url))
}

// Clear removes both keys for url.
func (s *SessionContext) Clear(ctx context.Context, url string) error {
	if err := s.store.Delete(ctx, PlayMethodKey(url)); err != nil {
		return err
	}
	return s.store.Delete(ctx, LiveStreamKey(url))
}
