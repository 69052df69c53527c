package playback

import (
	"strconv"
	"strings"
)

// Setting names read through Settings.GetString.
const (
	SettingVideoBitrate   = "videoBitrate"
	SettingTranscodeHi10P = "transcodeHi10P"
	SettingTranscodeH265  = "transcodeH265"
	SettingPlayFromStream = "playFromStream"
)

// VideoQuality is a bitrate tier index from 0 to 18.
type VideoQuality int

// QualityUnlimited is used for empty or unknown tiers.
const QualityUnlimited VideoQuality = -1

// UnlimitedBitrate is the ceiling used when no tier applies (max int32 kbps, in bits/s).
const UnlimitedBitrate int64 = 2147483 * 1000

// ParseVideoQuality parses a tier string; anything outside 0..18 is QualityUnlimited.
func ParseVideoQuality(s string) VideoQuality {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 18 {
		return QualityUnlimited
	}
	return VideoQuality(n)
}

// Bitrate returns the tier's streaming ceiling in bits per second.
func (q VideoQuality) Bitrate() int64 {
	var kbps int64
	switch q {
	case 0:
		kbps = 664
	case 1:
		kbps = 996
	case 2:
		kbps = 1320
	case 3:
		kbps = 2000
	case 4:
		kbps = 3200
	case 5:
		kbps = 4700
	case 6:
		kbps = 6200
	case 7:
		kbps = 7700
	case 8:
		kbps = 9200
	case 9:
		kbps = 10700
	case 10:
		kbps = 12200
	case 11:
		kbps = 13700
	case 12:
		kbps = 15200
	case 13:
		kbps = 16700
	case 14:
		kbps = 18200
	case 15:
		kbps = 20000
	case 16:
		kbps = 40000
	case 17:
		kbps = 100000
	case 18:
		kbps = 1000000
	default:
		return UnlimitedBitrate
	}
	return kbps * 1000
}

// H265Tier is the HEVC transcode threshold setting.
type H265Tier int

const (
	H265Off H265Tier = iota
	H265From480
	H265From720
	H265From1080
)

// ParseH265Tier parses "1".."3"; anything else disables the rule.
func ParseH265Tier(s string) H265Tier {
	switch strings.TrimSpace(s) {
	case "1":
		return H265From480
	case "2":
		return H265From720
	case "3":
		return H265From1080
	default:
		return H265Off
	}
}

// Threshold returns the vertical resolution from which HEVC is transcoded.
func (t H265Tier) Threshold() (int, bool) {
	switch t {
	case H265From480:
		return 480, true
	case H265From720:
		return 720, true
	case H265From1080:
		return 1080, true
	default:
		return 0, false
	}
}

func settingBool(s Settings, name string) bool {
	if s == nil {
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s.GetString(name)))
	return err == nil && b
}

func settingString(s Settings, name string) string {
	if s == nil {
		return ""
	}
	return s.GetString(name)
}
