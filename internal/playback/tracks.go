// SPDX-License-Identifier: MIT

package playback

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/ManuGH/embyplay/internal/emby"
)

// Audio bitrates requested alongside an explicit audio track.
const (
	surroundAudioBitrate = 384000
	stereoAudioBitrate   = 192000
)

// Track is one selectable audio or subtitle stream.
type Track struct {
	Index     int    `json:"index"`
	Label     string `json:"label"`
	Codec     string `json:"codec,omitempty"`
	Language  string `json:"language,omitempty"`
	Channels  int    `json:"channels,omitempty"`
	IsDefault bool   `json:"isDefault"`
	IsForced  bool   `json:"isForced"`
	IsText    bool   `json:"isText"`
}

// Tracks groups the selectable streams of a media source.
type Tracks struct {
	Audio     []Track `json:"audio"`
	Subtitles []Track `json:"subtitles"`
}

// ListTracks returns the audio and subtitle tracks of src in stream order.
func ListTracks(src emby.MediaSource) Tracks {
	out := Tracks{Audio: []Track{}, Subtitles: []Track{}}
	for _, s := range src.MediaStreams {
		t := Track{
			Index:     s.Index,
			Codec:     s.Codec,
			Language:  s.Language,
			Channels:  s.Channels,
			IsDefault: s.IsDefault,
			IsForced:  s.IsForced,
			IsText:    s.IsTextSubtitleStream,
		}
		switch s.Type {
		case emby.StreamTypeAudio:
			t.Label = audioLabel(s)
			out.Audio = append(out.Audio, t)
		case emby.StreamTypeSubtitle:
			t.Label = subtitleLabel(s)
			out.Subtitles = append(out.Subtitles, t)
		}
	}
	return out
}

func audioLabel(s emby.MediaStream) string {
	format := strings.TrimSpace(s.Codec + " " + s.ChannelLayout)
	if name := languageName(s.Language); name != "" {
		return fmt.Sprintf("%d - %s - %s", s.Index, name, format)
	}
	return fmt.Sprintf("%d - %s", s.Index, format)
}

func subtitleLabel(s emby.MediaStream) string {
	name := languageName(s.Language)
	if name == "" {
		name = s.Codec
	}
	label := fmt.Sprintf("%d - %s", s.Index, name)
	if s.IsDefault {
		label += " - Default"
	}
	if s.IsForced {
		label += " - Forced"
	}
	return label
}

// languageName renders ISO 639 codes such as "eng" as "English".
// Unknown codes are returned unchanged.
func languageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// Selection picks tracks by stream index. A nil AudioIndex keeps the
// source's default audio track; a nil SubtitleIndex disables subtitles.
type Selection struct {
	AudioIndex    *int `json:"audioIndex,omitempty"`
	SubtitleIndex *int `json:"subtitleIndex,omitempty"`
}

// AppliedSelection is a play URL adjusted for a track selection.
type AppliedSelection struct {
	URL               string   `json:"url"`
	ExternalSubtitles []string `json:"externalSubtitles,omitempty"`
}

// ApplySelection adds stream parameters to a transcode URL for sel. Text
// subtitles are returned as external URLs instead of being burned in.
func ApplySelection(server, itemID, playURL string, src emby.MediaSource, sel Selection) AppliedSelection {
	out := AppliedSelection{URL: playURL}
	tracks := ListTracks(src)

	var params []string
	audio, ok := pickAudio(tracks.Audio, src.DefaultAudioStreamIndex, sel.AudioIndex)
	if ok {
		params = append(params, "AudioStreamIndex="+strconv.Itoa(audio.Index))
	}

	if sel.SubtitleIndex != nil {
		for _, sub := range tracks.Subtitles {
			if sub.Index != *sel.SubtitleIndex {
				continue
			}
			if sub.IsText {
				out.ExternalSubtitles = append(out.ExternalSubtitles, ExternalSubtitleURL(server, itemID, sub.Index))
			} else {
				params = append(params, "SubtitleStreamIndex="+strconv.Itoa(sub.Index))
			}
			break
		}
	}

	if ok {
		bitrate := stereoAudioBitrate
		if audio.Channels > 2 {
			bitrate = surroundAudioBitrate
		}
		params = append(params, "AudioBitrate="+strconv.Itoa(bitrate))
	}

	if len(params) > 0 {
		sep := "?"
		if strings.Contains(playURL, "?") {
			sep = "&"
		}
		out.URL = playURL + sep + strings.Join(params, "&")
	}
	return out
}

// ExternalSubtitleURL is the server endpoint delivering a text subtitle as SRT.
func ExternalSubtitleURL(server, itemID string, index int) string {
	return fmt.Sprintf("%s/Videos/%s/%s/Subtitles/%d/Stream.srt", strings.TrimRight(server, "/"), itemID, itemID, index)
}

func pickAudio(audio []Track, defaultIndex, chosen *int) (Track, bool) {
	if len(audio) == 0 {
		return Track{}, false
	}
	want := audio[0].Index
	switch {
	case chosen != nil:
		want = *chosen
	case defaultIndex != nil:
		want = *defaultIndex
	}
	for _, t := range audio {
		if t.Index == want {
			return t, true
		}
	}
	return audio[0], true
}

// ApplyTracks applies sel to a transcoding plan and moves its session keys to
// the adjusted URL. Other play methods carry their streams untouched and are
// returned unchanged apart from external text subtitles.
func (r *Resolver) ApplyTracks(ctx context.Context, plan Plan, sel Selection) (Plan, []string, error) {
	applied := ApplySelection(r.serverURL, plan.ItemID, plan.URL, plan.Source, sel)
	if plan.Method != Transcode || applied.URL == plan.URL {
		return plan, applied.ExternalSubtitles, nil
	}

	if err := r.sessions.Record(ctx, applied.URL, plan.Method, plan.trackedLiveStreamID()); err != nil {
		return plan, nil, fmt.Errorf("apply tracks: %w", err)
	}
	if err := r.sessions.Clear(ctx, plan.URL); err != nil {
		return plan, nil, fmt.Errorf("apply tracks: %w", err)
	}
	plan.URL = applied.URL
	return plan, applied.ExternalSubtitles, nil
}
