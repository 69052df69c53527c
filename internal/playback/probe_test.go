package playback

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/embyplay/internal/emby"
)

func movieSource(name, path string) emby.MediaSource {
	return emby.MediaSource{
		ID:                   "src",
		Name:                 name,
		Protocol:             emby.ProtocolFile,
		Path:                 path,
		MediaStreams:         []emby.MediaStream{videoStream(1920)},
		SupportsDirectPlay:   true,
		SupportsDirectStream: true,
		SupportsTranscoding:  true,
	}
}

func TestProbe_DirectPlayRequiresReachablePath(t *testing.T) {
	r := offlineResolver(t, fakeProber{"/media/movie.mkv": true}, fakeSettings{})
	item := emby.Item{ID: "1", Path: "/media/movie.mkv"}

	res := r.probe(context.Background(), zerolog.Nop(), item, movieSource("1080P H264", "/media/movie.mkv"), false)
	assert.True(t, res.directPlay)
	assert.True(t, res.source.SupportsDirectPlay)
	assert.Empty(t, res.rule)

	res = r.probe(context.Background(), zerolog.Nop(), item, movieSource("1080P H264", "/elsewhere/movie.mkv"), false)
	assert.False(t, res.directPlay)
	assert.False(t, res.source.SupportsDirectPlay, "server claim must be overridden by a failed probe")
	assert.True(t, res.source.SupportsDirectStream)
}

func TestProbe_ReachablePathWithoutServerClaim(t *testing.T) {
	r := offlineResolver(t, fakeProber{"/media/movie.mkv": true}, fakeSettings{})
	src := movieSource("1080P H264", "/media/movie.mkv")
	src.SupportsDirectPlay = false

	res := r.probe(context.Background(), zerolog.Nop(), emby.Item{ID: "1", Path: "/media/movie.mkv"}, src, false)
	assert.False(t, res.directPlay)
	assert.False(t, res.source.SupportsDirectPlay)
}

func TestProbe_PlayFromStreamSkipsLocalPaths(t *testing.T) {
	r := offlineResolver(t, fakeProber{"/media/movie.mkv": true}, fakeSettings{SettingPlayFromStream: "true"})

	res := r.probe(context.Background(), zerolog.Nop(), emby.Item{ID: "1"}, movieSource("x", "/media/movie.mkv"), false)
	assert.False(t, res.directPlay)
	assert.False(t, res.source.SupportsDirectPlay)
}

func TestProbe_StrmKeepsDirectPlayWhenForced(t *testing.T) {
	r := offlineResolver(t, fakeProber{}, fakeSettings{})
	item := emby.Item{ID: "1", Path: "/library/channel.strm"}

	res := r.probe(context.Background(), zerolog.Nop(), item, movieSource("x", "http://tuner/1"), true)
	assert.True(t, res.directPlay)
	assert.True(t, res.source.SupportsDirectPlay)
	assert.False(t, res.source.SupportsDirectStream)
	assert.Equal(t, RuleCaller, res.rule)
}

func TestProbe_Hi10PRule(t *testing.T) {
	r := offlineResolver(t, fakeProber{"/m.mkv": true}, fakeSettings{SettingTranscodeHi10P: "true"})
	src := movieSource("1080P H264", "/m.mkv")
	src.MediaStreams[0].Profile = "High 10"

	res := r.probe(context.Background(), zerolog.Nop(), emby.Item{ID: "1"}, src, false)
	assert.Equal(t, RuleHi10P, res.rule)
	assert.False(t, res.directPlay)
	assert.False(t, res.source.SupportsDirectPlay)
	assert.False(t, res.source.SupportsDirectStream)

	off := offlineResolver(t, fakeProber{"/m.mkv": true}, fakeSettings{})
	res = off.probe(context.Background(), zerolog.Nop(), emby.Item{ID: "1"}, src, false)
	assert.Empty(t, res.rule)
	assert.True(t, res.directPlay)
}

func TestProbe_H265Rule(t *testing.T) {
	tests := []struct {
		name   string
		tier   string
		source string
		forced bool
	}{
		{"1080p at tier 2", "2", "1080P HEVC", true},
		{"720p at tier 2", "2", "720P H265", true},
		{"480p at tier 2", "2", "480P HEVC", false},
		{"1080p at tier 3", "3", "1080P HEVC", true},
		{"tier off", "", "2160P HEVC", false},
		{"not hevc", "1", "1080P H264", false},
		{"unparseable name", "1", "HEVC Remux", false},
		{"lowercase marker", "1", "576p HEVC", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := offlineResolver(t, fakeProber{"/m.mkv": true}, fakeSettings{SettingTranscodeH265: tt.tier})
			res := r.probe(context.Background(), zerolog.Nop(), emby.Item{ID: "1"}, movieSource(tt.source, "/m.mkv"), false)
			if tt.forced {
				assert.Equal(t, RuleH265, res.rule)
				assert.False(t, res.source.SupportsDirectPlay)
				assert.False(t, res.source.SupportsDirectStream)
				return
			}
			assert.Empty(t, res.rule)
			assert.True(t, res.source.SupportsDirectPlay)
		})
	}
}

func TestProbe_DoesNotMutateInput(t *testing.T) {
	r := offlineResolver(t, fakeProber{}, fakeSettings{})
	src := movieSource("x", "/m.mkv")

	res := r.probe(context.Background(), zerolog.Nop(), emby.Item{ID: "1"}, src, true)
	assert.False(t, res.source.SupportsDirectStream)
	assert.True(t, src.SupportsDirectPlay)
	assert.True(t, src.SupportsDirectStream)

	res.source.MediaStreams[0].Codec = "changed"
	assert.Equal(t, "h264", src.MediaStreams[0].Codec)
}
