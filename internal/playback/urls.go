package playback

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ManuGH/embyplay/internal/emby"
)

const strmSuffix = ".strm"

var audioStreamContainers = map[string]struct{}{
	"mp3": {}, "aac": {}, "ogg": {}, "oga": {}, "webma": {}, "wma": {}, "flac": {},
}

// IsStrm reports whether an item path is a playlist pointer file.
func IsStrm(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), strmSuffix)
}

// DirectPlayURL is the path the player opens itself.
func DirectPlayURL(item emby.Item) string {
	return item.Path
}

// DirectStreamURL builds the static stream endpoint for an item.
func DirectStreamURL(server string, item emby.Item) string {
	if IsStrm(item.Path) {
		return DirectPlayURL(item)
	}
	server = strings.TrimRight(server, "/")
	id := url.PathEscape(item.ID)

	if item.Type == emby.ItemTypeAudio {
		container := strings.ToLower(item.Container)
		if _, ok := audioStreamContainers[container]; !ok {
			container = "mp3"
		}
		return fmt.Sprintf("%s/emby/Audio/%s/stream.%s?static=true", server, id, container)
	}
	return fmt.Sprintf("%s/emby/Videos/%s/stream?static=true", server, id)
}

// TranscodeURL builds the HLS master playlist endpoint for an item.
func TranscodeURL(server string, item emby.Item, deviceID string, bitrate int64) string {
	if IsStrm(item.Path) {
		return DirectPlayURL(item)
	}
	server = strings.TrimRight(server, "/")
	id := url.PathEscape(item.ID)
	return fmt.Sprintf(
		"%s/emby/Videos/%s/master.m3u8?MediaSourceId=%s&VideoCodec=h264&AudioCodec=ac3&MaxAudioChannels=6&deviceId=%s&VideoBitrate=%d",
		server, id, url.QueryEscape(item.ID), url.QueryEscape(deviceID), bitrate,
	)
}

// liveTranscodeURL uses the server-negotiated transcoding URL of an opened live stream.
func liveTranscodeURL(server string, src emby.MediaSource) string {
	return strings.TrimRight(server, "/") + src.TranscodingURL
}
