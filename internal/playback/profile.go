package playback

import "github.com/ManuGH/embyplay/internal/emby"

const (
	profileName                      = "Kodi"
	musicStreamingTranscodingBitrate = 1280000
	timelineOffsetSeconds            = 5
)

// BuildDeviceProfile declares what this client can play. maxBitrate is in bits/s.
func BuildDeviceProfile(maxBitrate int64) emby.DeviceProfile {
	didl := ""
	embedded := func(format string) emby.SubtitleProfile {
		return emby.SubtitleProfile{Format: format, Method: emby.SubtitleEmbed, DidlMode: &didl}
	}

	return emby.DeviceProfile{
		Name:                             profileName,
		MaxStreamingBitrate:              maxBitrate,
		MusicStreamingTranscodingBitrate: musicStreamingTranscodingBitrate,
		TimelineOffsetSeconds:            timelineOffsetSeconds,
		Identification: emby.DeviceIdentification{
			ModelName: profileName,
			Headers: []emby.HTTPHeaderInfo{
				{Name: "User-Agent", Value: profileName, Match: emby.HeaderMatchSubstring},
			},
		},
		TranscodingProfiles: []emby.TranscodingProfile{
			{Container: "mp3", AudioCodec: "mp3", Type: emby.ProfileTypeAudio},
			{Container: "ts", AudioCodec: "ac3", VideoCodec: "h264", Type: emby.ProfileTypeVideo},
			{Container: "jpeg", Type: emby.ProfileTypePhoto},
		},
		DirectPlayProfiles: []emby.DirectPlayProfile{
			{Container: "", Type: emby.ProfileTypeAudio},
			{Container: "", Type: emby.ProfileTypeVideo},
			{Container: "", Type: emby.ProfileTypePhoto},
		},
		ResponseProfiles:  []emby.ResponseProfile{},
		ContainerProfiles: []emby.ContainerProfile{},
		CodecProfiles:     []emby.CodecProfile{},
		SubtitleProfiles: []emby.SubtitleProfile{
			{Format: "srt", Method: emby.SubtitleExternal},
			{Format: "sub", Method: emby.SubtitleExternal},
			{Format: "srt", Method: emby.SubtitleEmbed},
			embedded("ass"),
			embedded("ssa"),
			embedded("smi"),
			embedded("dvdsub"),
			embedded("pgs"),
			embedded("pgssub"),
			embedded("sub"),
		},
	}
}
