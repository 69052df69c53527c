package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/embyplay/internal/playback"
)

var _ playback.Settings = Settings{}

func TestSettings_GetString(t *testing.T) {
	cfg := AppConfig{Playback: PlaybackConfig{
		VideoQuality:   "5",
		TranscodeHi10P: true,
		TranscodeH265:  "3",
	}}
	s := NewSettings(Static(cfg))

	assert.Equal(t, "5", s.GetString(playback.SettingVideoBitrate))
	assert.Equal(t, "true", s.GetString(playback.SettingTranscodeHi10P))
	assert.Equal(t, "3", s.GetString(playback.SettingTranscodeH265))
	assert.Equal(t, "false", s.GetString(playback.SettingPlayFromStream))
	assert.Equal(t, "", s.GetString("unknown"))
}

func TestSettings_NilSource(t *testing.T) {
	assert.Equal(t, "", Settings{}.GetString(playback.SettingVideoBitrate))
}

func TestSettings_FollowsHolder(t *testing.T) {
	h := NewHolder(AppConfig{Playback: PlaybackConfig{VideoQuality: "1"}}, NewLoader("", ""), "")
	s := NewSettings(h)
	assert.Equal(t, "1", s.GetString(playback.SettingVideoBitrate))

	h.mu.Lock()
	h.current.Playback.VideoQuality = "9"
	h.mu.Unlock()
	assert.Equal(t, "9", s.GetString(playback.SettingVideoBitrate))
}

func TestSettings_ReadByPlaybackPolicy(t *testing.T) {
	s := NewSettings(Static(AppConfig{Playback: PlaybackConfig{VideoQuality: "5", TranscodeH265: "2"}}))

	assert.Equal(t, playback.VideoQuality(5), playback.ParseVideoQuality(s.GetString(playback.SettingVideoBitrate)))
	threshold, ok := playback.ParseH265Tier(s.GetString(playback.SettingTranscodeH265)).Threshold()
	assert.True(t, ok)
	assert.Equal(t, 720, threshold)
}
