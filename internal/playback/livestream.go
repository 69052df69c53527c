package playback

import (
	"context"
	"fmt"

	"github.com/ManuGH/embyplay/internal/emby"
	xglog "github.com/ManuGH/embyplay/internal/log"
	"github.com/ManuGH/embyplay/internal/metrics"
	"github.com/rs/zerolog"
)

// openLiveStream converts a source that requires opening into an active live
// source and probes the result again.
func (r *Resolver) openLiveStream(ctx context.Context, logger zerolog.Logger, item emby.Item, playSessionID string, src emby.MediaSource, profile emby.DeviceProfile, forced bool) (probeResult, error) {
	req := emby.LiveStreamRequest{
		UserID:        r.userID,
		DeviceProfile: profile,
		ItemID:        item.ID,
		PlaySessionID: playSessionID,
		OpenToken:     src.OpenToken,
	}

	live, err := emby.OpenLiveStream(ctx, r.requester, req)
	metrics.RecordLiveStream("open", err == nil)
	if err != nil {
		return probeResult{}, fmt.Errorf("open live stream for item %s: %w", item.ID, err)
	}
	logger.Info().
		Str(xglog.FieldLiveStreamID, live.LiveStreamID).
		Str(xglog.FieldMediaSourceID, live.ID).
		Msg("live stream opened")

	if live.Protocol == emby.ProtocolFile {
		live.Path = NormalizePath(live.Path, item.VideoType)
	}
	return r.probe(ctx, logger, item, live, forced), nil
}

// closeLiveStream releases a live stream, logging rather than returning failures.
func (r *Resolver) closeLiveStream(ctx context.Context, logger zerolog.Logger, liveStreamID string) {
	err := emby.CloseLiveStream(ctx, r.requester, liveStreamID)
	metrics.RecordLiveStream("close", err == nil)
	if err != nil {
		logger.Warn().Err(err).Str(xglog.FieldLiveStreamID, liveStreamID).Msg("failed to close live stream")
	}
}
