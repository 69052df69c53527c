// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/embyplay/internal/emby"
	"github.com/ManuGH/embyplay/internal/ledger"
	xglog "github.com/ManuGH/embyplay/internal/log"
	"github.com/ManuGH/embyplay/internal/metrics"
	"github.com/ManuGH/embyplay/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PlayMethod is how the player receives the item.
type PlayMethod string

const (
	DirectPlay   PlayMethod = "DirectPlay"
	DirectStream PlayMethod = "DirectStream"
	Transcode    PlayMethod = "Transcode"
)

// Requester performs one authenticated JSON call against the server.
type Requester interface {
	Send(ctx context.Context, method, urlTemplate string, body, out any) error
}

// DeviceIdentity supplies this installation's device id.
type DeviceIdentity interface {
	DeviceID() string
}

// Recorder persists resolved and stopped sessions. It is optional.
type Recorder interface {
	RecordResolved(ctx context.Context, e ledger.Entry) error
	RecordStopped(ctx context.Context, url string) error
}

// Plan is the result of a successful resolution.
type Plan struct {
	ItemID          string           `json:"itemId"`
	Method          PlayMethod       `json:"method"`
	URL             string           `json:"url"`
	MediaSourceID   string           `json:"mediaSourceId,omitempty"`
	LiveStreamID    string           `json:"liveStreamId,omitempty"`
	PlaySessionID   string           `json:"playSessionId,omitempty"`
	RequiresClosing bool             `json:"requiresClosing"`
	Source          emby.MediaSource `json:"-"`
}

// Options wires a Resolver.
type Options struct {
	ServerURL string
	UserID    string
	Requester Requester
	Prober    Prober
	Settings  Settings
	Device    DeviceIdentity
	Sessions  *SessionContext
	Recorder  Recorder
	Logger    *zerolog.Logger
}

// Resolver turns items into playable URLs.
type Resolver struct {
	serverURL string
	userID    string
	requester Requester
	prober    Prober
	settings  Settings
	device    DeviceIdentity
	sessions  *SessionContext
	recorder  Recorder
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewResolver validates opts and returns a Resolver.
func NewResolver(opts Options) (*Resolver, error) {
	var missing []string
	if strings.TrimSpace(opts.ServerURL) == "" {
		missing = append(missing, "server url")
	}
	if opts.Requester == nil {
		missing = append(missing, "requester")
	}
	if opts.Prober == nil {
		missing = append(missing, "prober")
	}
	if opts.Device == nil {
		missing = append(missing, "device identity")
	}
	if opts.Sessions == nil {
		missing = append(missing, "session context")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("playback: missing %s", strings.Join(missing, ", "))
	}

	logger := xglog.WithComponent("playback")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Resolver{
		serverURL: strings.TrimRight(opts.ServerURL, "/"),
		userID:    opts.UserID,
		requester: opts.Requester,
		prober:    opts.Prober,
		settings:  opts.Settings,
		device:    opts.Device,
		sessions:  opts.Sessions,
		recorder:  opts.Recorder,
		logger:    logger,
		tracer:    telemetry.Tracer("embyplay/playback"),
		now:       time.Now,
	}, nil
}

// Sessions exposes the session context used by this resolver.
func (r *Resolver) Sessions() *SessionContext { return r.sessions }

type resolveConfig struct {
	forceTranscode bool
}

// ResolveOption adjusts a single resolution.
type ResolveOption func(*resolveConfig)

// WithForcedTranscode disables DirectPlay and DirectStream for every source.
func WithForcedTranscode() ResolveOption {
	return func(c *resolveConfig) { c.forceTranscode = true }
}

// Resolve negotiates playback for item and records the resulting session.
// A failed resolution never yields a URL and records nothing.
func (r *Resolver) Resolve(ctx context.Context, item emby.Item, opts ...ResolveOption) (plan Plan, err error) {
	var cfg resolveConfig
	for _, o := range opts {
		o(&cfg)
	}

	start := r.now()
	bitrate := ParseVideoQuality(settingString(r.settings, SettingVideoBitrate)).Bitrate()

	ctx, span := r.tracer.Start(ctx, "playback.resolve",
		trace.WithAttributes(telemetry.ItemAttributes(item.ID, item.Type, bitrate)...))
	defer span.End()

	logger := xglog.WithContext(ctx, r.logger).With().Str(xglog.FieldItemID, item.ID).Logger()

	var (
		candidates int
		rule       string
	)
	defer func() {
		outcome := outcomeLabel(err)
		metrics.RecordResolve(string(plan.Method), outcome, r.now().Sub(start).Seconds())
		telemetry.RecordDecision(ctx, string(plan.Method), outcome, rule)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			span.SetAttributes(telemetry.ErrorAttributes(outcome)...)
			logger.Warn().Err(err).Str("outcome", outcome).Msg("resolution failed")
			return
		}
		span.SetAttributes(telemetry.PlanAttributes(string(plan.Method), plan.MediaSourceID, plan.LiveStreamID, candidates)...)
	}()

	if strings.TrimSpace(item.ID) == "" {
		return Plan{}, ErrMissingItemID
	}

	profile := BuildDeviceProfile(bitrate)
	info, err := emby.PlaybackInfo(ctx, r.requester, item.ID, emby.PlaybackInfoRequest{
		UserID:        r.userID,
		DeviceProfile: profile,
	})
	if err != nil {
		return Plan{}, fmt.Errorf("resolve item %s: %w", item.ID, err)
	}
	if len(info.MediaSources) == 0 {
		return Plan{}, fmt.Errorf("resolve item %s: %w", item.ID, ErrNoPlaybackInfo)
	}

	sel, ok := r.selectOptimal(ctx, logger, item, info.MediaSources, cfg.forceTranscode)
	candidates = sel.candidates
	if !ok {
		return Plan{}, fmt.Errorf("resolve item %s: %w: %w", item.ID, ErrNoPlaybackInfo, ErrMalformedSource)
	}

	chosen := probeResult{source: sel.source, directPlay: sel.directPlay, rule: sel.rule}
	if chosen.source.RequiresOpening {
		chosen, err = r.openLiveStream(ctx, logger, item, info.PlaySessionID, chosen.source, profile, cfg.forceTranscode)
		if err != nil {
			return Plan{}, err
		}
	}
	src := chosen.source
	rule = chosen.rule

	plan = Plan{
		ItemID:          item.ID,
		MediaSourceID:   src.ID,
		LiveStreamID:    src.LiveStreamID,
		PlaySessionID:   info.PlaySessionID,
		RequiresClosing: src.RequiresClosing,
		Source:          src,
	}
	switch {
	case src.SupportsDirectPlay:
		plan.Method = DirectPlay
		plan.URL = src.Path
	case src.SupportsDirectStream:
		plan.Method = DirectStream
		plan.URL = DirectStreamURL(r.serverURL, item)
	case src.SupportsTranscoding:
		plan.Method = Transcode
		if src.LiveStreamID != "" && src.TranscodingURL != "" {
			plan.URL = liveTranscodeURL(r.serverURL, src)
		} else {
			plan.URL = TranscodeURL(r.serverURL, item, r.device.DeviceID(), bitrate)
		}
	default:
		r.releaseLiveStream(ctx, logger, src)
		return Plan{}, fmt.Errorf("resolve item %s: %w", item.ID, ErrInvalidPlayback)
	}

	if err := r.sessions.Record(ctx, plan.URL, plan.Method, plan.trackedLiveStreamID()); err != nil {
		r.releaseLiveStream(ctx, logger, src)
		return Plan{}, fmt.Errorf("resolve item %s: %w", item.ID, err)
	}
	r.recordResolved(ctx, logger, plan)

	logger.Info().
		Str(xglog.FieldPlayMethod, string(plan.Method)).
		Str(xglog.FieldMediaSourceID, plan.MediaSourceID).
		Int64(xglog.FieldScore, sel.score).
		Int(xglog.FieldCandidates, sel.candidates).
		Msg("playback resolved")
	return plan, nil
}

// trackedLiveStreamID is the live stream Stop must close; only streams the
// server marks RequiresClosing are tracked.
func (p Plan) trackedLiveStreamID() string {
	if !p.RequiresClosing {
		return ""
	}
	return p.LiveStreamID
}

func (r *Resolver) releaseLiveStream(ctx context.Context, logger zerolog.Logger, src emby.MediaSource) {
	if src.LiveStreamID == "" || !src.RequiresClosing {
		return
	}
	r.closeLiveStream(context.WithoutCancel(ctx), logger, src.LiveStreamID)
}

func (r *Resolver) recordResolved(ctx context.Context, logger zerolog.Logger, plan Plan) {
	if r.recorder == nil {
		return
	}
	err := r.recorder.RecordResolved(ctx, ledger.Entry{
		URL:           plan.URL,
		ItemID:        plan.ItemID,
		Method:        string(plan.Method),
		LiveStreamID:  plan.LiveStreamID,
		MediaSourceID: plan.MediaSourceID,
		PlaySessionID: plan.PlaySessionID,
		ResolvedAt:    r.now(),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn().Err(err).Msg("failed to write session ledger")
	}
}
