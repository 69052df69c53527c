package config

import (
	"strconv"

	"github.com/ManuGH/embyplay/internal/playback"
)

// Source yields the current configuration snapshot.
type Source interface {
	Get() AppConfig
}

// Static is a Source that never changes.
type Static AppConfig

// Get returns the wrapped configuration.
func (s Static) Get() AppConfig { return AppConfig(s) }

// Settings exposes playback settings as a string-keyed store, reading the
// latest snapshot on every call so hot reloads take effect immediately.
type Settings struct {
	src Source
}

// NewSettings wraps a configuration source.
func NewSettings(src Source) Settings {
	return Settings{src: src}
}

// GetString returns the named playback setting, or "" for unknown names.
func (s Settings) GetString(name string) string {
	if s.src == nil {
		return ""
	}
	p := s.src.Get().Playback
	switch name {
	case playback.SettingVideoBitrate:
		return p.VideoQuality
	case playback.SettingTranscodeHi10P:
		return strconv.FormatBool(p.TranscodeHi10P)
	case playback.SettingTranscodeH265:
		return p.TranscodeH265
	case playback.SettingPlayFromStream:
		return strconv.FormatBool(p.PlayFromStream)
	default:
		return ""
	}
}
