package playback

import (
	"context"
	"strconv"
	"strings"

	"github.com/ManuGH/embyplay/internal/emby"
	xglog "github.com/ManuGH/embyplay/internal/log"
	"github.com/ManuGH/embyplay/internal/metrics"
	"github.com/rs/zerolog"
)

// Prober reports whether a path is reachable from this host.
type Prober interface {
	Exists(ctx context.Context, path string) bool
}

// Settings is a read-only view of user preferences.
type Settings interface {
	GetString(name string) string
}

// Forced-transcode rule names, also used as metric labels.
const (
	RuleCaller = "caller"
	RuleHi10P  = "hi10p"
	RuleH265   = "h265"
)

// probeResult is the outcome of probing one media source.
type probeResult struct {
	source     emby.MediaSource
	directPlay bool
	rule       string
}

// probe decides direct-play eligibility for source and applies the
// forced-transcode policy. The returned source is a copy; source is not mutated.
// directPlay always equals the returned source's SupportsDirectPlay.
func (r *Resolver) probe(ctx context.Context, logger zerolog.Logger, item emby.Item, source emby.MediaSource, forced bool) probeResult {
	src := source.Clone()
	strm := IsStrm(item.Path)

	eligible := false
	if !settingBool(r.settings, SettingPlayFromStream) {
		eligible = r.prober.Exists(ctx, src.Path)
	}
	if strm {
		eligible = true
	}

	// The server's claim is necessary but not sufficient.
	src.SupportsDirectPlay = strm || (src.SupportsDirectPlay && eligible)

	rule := forcedRule(logger, r.settings, src, forced)
	if rule != "" {
		metrics.RecordForcedTranscode(rule)
		logger.Debug().
			Str(xglog.FieldMediaSourceID, src.ID).
			Str(xglog.FieldRule, rule).
			Msg("transcode forced")

		src.SupportsDirectStream = false
		if strm {
			// A .strm pointer is only meaningful to the local player.
			src.SupportsDirectPlay = true
		} else {
			src.SupportsDirectPlay = false
		}
	}

	return probeResult{source: src, directPlay: src.SupportsDirectPlay, rule: rule}
}

// forcedRule returns the name of the first rule that forces a transcode, or "".
func forcedRule(logger zerolog.Logger, settings Settings, src emby.MediaSource, callerForced bool) string {
	if callerForced {
		return RuleCaller
	}
	if settingBool(settings, SettingTranscodeHi10P) && isHi10P(src) {
		return RuleHi10P
	}

	threshold, ok := ParseH265Tier(settingString(settings, SettingTranscodeH265)).Threshold()
	if !ok || !isHEVC(src.Name) {
		return ""
	}
	res, err := leadingResolution(src.Name)
	if err != nil {
		logger.Debug().
			Str(xglog.FieldMediaSourceID, src.ID).
			Str("name", src.Name).
			Err(err).
			Msg("cannot read resolution from source name")
		return ""
	}
	if res >= threshold {
		return RuleH265
	}
	return ""
}

func isHi10P(src emby.MediaSource) bool {
	if !strings.Contains(src.Name, "H264") {
		return false
	}
	for _, s := range src.MediaStreams {
		if s.Profile == "High 10" {
			return true
		}
	}
	return false
}

func isHEVC(name string) bool {
	return strings.Contains(name, "HEVC") || strings.Contains(name, "H265")
}

// leadingResolution parses names such as "1080P HEVC" into 1080.
func leadingResolution(name string) (int, error) {
	head := name
	if i := strings.IndexAny(name, "Pp"); i >= 0 {
		head = name[:i]
	}
	return strconv.Atoi(strings.TrimSpace(head))
}
