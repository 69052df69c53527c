package playback

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/embyplay/internal/emby"
	"github.com/ManuGH/embyplay/internal/ledger"
	xglog "github.com/ManuGH/embyplay/internal/log"
	"github.com/ManuGH/embyplay/internal/metrics"
)

// StopResult describes what Stop released.
type StopResult struct {
	URL          string     `json:"url"`
	Method       PlayMethod `json:"method"`
	LiveStreamID string     `json:"liveStreamId,omitempty"`
	Closed       bool       `json:"closed"`
}

// Stop ends the session recorded for url. An open live stream is closed on
// the server before the session keys are removed; if closing fails the keys
// are kept so the call can be retried.
func (r *Resolver) Stop(ctx context.Context, url string) (StopResult, error) {
	logger := xglog.WithContext(ctx, r.logger).With().Str(xglog.FieldURL, url).Logger()

	method, ok, err := r.sessions.PlayMethod(ctx, url)
	if err != nil {
		return StopResult{}, fmt.Errorf("stop: %w", err)
	}
	if !ok {
		return StopResult{}, fmt.Errorf("stop %s: %w", url, ErrUnknownSession)
	}
	res := StopResult{URL: url, Method: method}

	liveID, ok, err := r.sessions.LiveStreamID(ctx, url)
	if err != nil {
		return StopResult{}, fmt.Errorf("stop: %w", err)
	}
	if ok && liveID != "" {
		res.LiveStreamID = liveID
		err := emby.CloseLiveStream(ctx, r.requester, liveID)
		metrics.RecordLiveStream("close", err == nil)
		if err != nil {
			return res, fmt.Errorf("stop: %w", err)
		}
		res.Closed = true
	}

	if err := r.sessions.Clear(ctx, url); err != nil {
		return res, fmt.Errorf("stop: clear session: %w", err)
	}
	if r.recorder != nil {
		if err := r.recorder.RecordStopped(ctx, url); err != nil && !errors.Is(err, ledger.ErrNotFound) {
			logger.Warn().Err(err).Msg("failed to mark session stopped in ledger")
		}
	}

	logger.Info().
		Str(xglog.FieldPlayMethod, string(method)).
		Bool("live_stream_closed", res.Closed).
		Msg("playback stopped")
	return res, nil
}
