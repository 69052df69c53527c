package playback

import (
	"context"

	"github.com/ManuGH/embyplay/internal/emby"
	xglog "github.com/ManuGH/embyplay/internal/log"
	"github.com/ManuGH/embyplay/internal/metrics"
	"github.com/rs/zerolog"
)

// Score weights.
const (
	widthWeight       int64 = 10000
	directPlayBonus   int64 = 100_000_000
	directStreamBonus int64 = 5_000_000
)

// Score ranks a probed media source; higher is better.
func Score(src emby.MediaSource, directPlay bool) int64 {
	var score int64
	if src.Bitrate != nil {
		score += *src.Bitrate
	}
	for _, s := range src.MediaStreams {
		if s.Type == emby.StreamTypeVideo && s.Width != nil {
			score += int64(*s.Width) * widthWeight
		}
	}
	if directPlay {
		score += directPlayBonus
	}
	if src.SupportsDirectStream {
		score += directStreamBonus
	}
	return score
}

// selection is the winning probed source together with scoring stats.
type selection struct {
	source     emby.MediaSource
	directPlay bool
	rule       string
	score      int64
	candidates int
	malformed  int
}

// selectOptimal scores every well-formed source and keeps the best one.
// Ties go to the later source.
func (r *Resolver) selectOptimal(ctx context.Context, logger zerolog.Logger, item emby.Item, sources []emby.MediaSource, forced bool) (selection, bool) {
	var (
		best  selection
		found bool
	)
	for i, src := range sources {
		if src.MediaStreams == nil {
			best.malformed++
			logger.Warn().
				Err(ErrMalformedSource).
				Int("index", i).
				Str(xglog.FieldMediaSourceID, src.ID).
				Msg("skipping media source without streams")
			continue
		}
		if src.Protocol == emby.ProtocolFile {
			src.Path = NormalizePath(src.Path, item.VideoType)
		}

		res := r.probe(ctx, logger, item, src, forced)
		score := Score(res.source, res.directPlay)
		best.candidates++

		logger.Debug().
			Str(xglog.FieldMediaSourceID, src.ID).
			Int64(xglog.FieldScore, score).
			Bool("direct_play", res.directPlay).
			Msg("scored media source")

		if !found || score >= best.score {
			best.source = res.source
			best.directPlay = res.directPlay
			best.rule = res.rule
			best.score = score
			found = true
		}
	}
	metrics.ObserveCandidates(best.candidates)
	return best, found
}
