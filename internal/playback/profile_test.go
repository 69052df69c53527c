package playback

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/embyplay/internal/emby"
)

func TestBuildDeviceProfile(t *testing.T) {
	didl := ""
	want := emby.DeviceProfile{
		Name:                             "Kodi",
		MaxStreamingBitrate:              4_000_000,
		MusicStreamingTranscodingBitrate: 1_280_000,
		TimelineOffsetSeconds:            5,
		Identification: emby.DeviceIdentification{
			ModelName: "Kodi",
			Headers:   []emby.HTTPHeaderInfo{{Name: "User-Agent", Value: "Kodi", Match: 2}},
		},
		TranscodingProfiles: []emby.TranscodingProfile{
			{Container: "mp3", AudioCodec: "mp3", Type: 0},
			{Container: "ts", AudioCodec: "ac3", VideoCodec: "h264", Type: 1},
			{Container: "jpeg", Type: 2},
		},
		DirectPlayProfiles: []emby.DirectPlayProfile{
			{Type: 0}, {Type: 1}, {Type: 2},
		},
		ResponseProfiles:  []emby.ResponseProfile{},
		ContainerProfiles: []emby.ContainerProfile{},
		CodecProfiles:     []emby.CodecProfile{},
		SubtitleProfiles: []emby.SubtitleProfile{
			{Format: "srt", Method: 2},
			{Format: "sub", Method: 2},
			{Format: "srt", Method: 1},
			{Format: "ass", Method: 1, DidlMode: &didl},
			{Format: "ssa", Method: 1, DidlMode: &didl},
			{Format: "smi", Method: 1, DidlMode: &didl},
			{Format: "dvdsub", Method: 1, DidlMode: &didl},
			{Format: "pgs", Method: 1, DidlMode: &didl},
			{Format: "pgssub", Method: 1, DidlMode: &didl},
			{Format: "sub", Method: 1, DidlMode: &didl},
		},
	}

	got := BuildDeviceProfile(4_000_000)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("device profile mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDeviceProfile_WireShape(t *testing.T) {
	raw, err := json.Marshal(BuildDeviceProfile(UnlimitedBitrate))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, float64(2_147_483_000), m["MaxStreamingBitrate"])
	assert.Equal(t, []any{}, m["CodecProfiles"])
	assert.Equal(t, []any{}, m["ResponseProfiles"])

	subs := m["SubtitleProfiles"].([]any)
	require.Len(t, subs, 10)
	assert.NotContains(t, subs[0].(map[string]any), "DidlMode")
	assert.Equal(t, "", subs[3].(map[string]any)["DidlMode"])
}
