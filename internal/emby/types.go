// SPDX-License-Identifier: MIT

package emby

// Item is the subset of a library item needed for playback.
type Item struct {
	ID           string        `json:"Id"`
	Name         string        `json:"Name,omitempty"`
	Type         string        `json:"Type,omitempty"`
	Path         string        `json:"Path,omitempty"`
	VideoType    string        `json:"VideoType,omitempty"`
	Container    string        `json:"Container,omitempty"`
	MediaSources []MediaSource `json:"MediaSources,omitempty"`
}

// Video types with a fixed on-disk structure.
const (
	VideoTypeDvd    = "Dvd"
	VideoTypeBluRay = "BluRay"
)

// Item types.
const (
	ItemTypeAudio = "Audio"
)

// Media source protocols.
const (
	ProtocolFile = "File"
	ProtocolHTTP = "Http"
)

// MediaSource is one candidate way to deliver an item's bytes.
// A nil MediaStreams means the server omitted the field.
type MediaSource struct {
	ID                         string        `json:"Id,omitempty"`
	Name                       string        `json:"Name,omitempty"`
	Protocol                   string        `json:"Protocol,omitempty"`
	Path                       string        `json:"Path,omitempty"`
	Container                  string        `json:"Container,omitempty"`
	Bitrate                    *int64        `json:"Bitrate,omitempty"`
	MediaStreams               []MediaStream `json:"MediaStreams"`
	SupportsDirectPlay         bool          `json:"SupportsDirectPlay"`
	SupportsDirectStream       bool          `json:"SupportsDirectStream"`
	SupportsTranscoding        bool          `json:"SupportsTranscoding"`
	RequiresOpening            bool          `json:"RequiresOpening"`
	RequiresClosing            bool          `json:"RequiresClosing"`
	OpenToken                  string        `json:"OpenToken,omitempty"`
	LiveStreamID               string        `json:"LiveStreamId,omitempty"`
	TranscodingURL             string        `json:"TranscodingUrl,omitempty"`
	DefaultAudioStreamIndex    *int          `json:"DefaultAudioStreamIndex,omitempty"`
	DefaultSubtitleStreamIndex *int          `json:"DefaultSubtitleStreamIndex,omitempty"`
}

// Clone returns a deep copy so callers can adjust flags without aliasing.
func (m MediaSource) Clone() MediaSource {
	out := m
	if m.Bitrate != nil {
		b := *m.Bitrate
		out.Bitrate = &b
	}
	if m.MediaStreams != nil {
		out.MediaStreams = make([]MediaStream, len(m.MediaStreams))
		for i, s := range m.MediaStreams {
			out.MediaStreams[i] = s.clone()
		}
	}
	if m.DefaultAudioStreamIndex != nil {
		v := *m.DefaultAudioStreamIndex
		out.DefaultAudioStreamIndex = &v
	}
	if m.DefaultSubtitleStreamIndex != nil {
		v := *m.DefaultSubtitleStreamIndex
		out.DefaultSubtitleStreamIndex = &v
	}
	return out
}

// Stream types.
const (
	StreamTypeVideo    = "Video"
	StreamTypeAudio    = "Audio"
	StreamTypeSubtitle = "Subtitle"
)

// MediaStream is one elementary stream inside a media source.
type MediaStream struct {
	Type                 string `json:"Type"`
	Index                int    `json:"Index"`
	Codec                string `json:"Codec,omitempty"`
	Profile              string `json:"Profile,omitempty"`
	Language             string `json:"Language,omitempty"`
	Width                *int   `json:"Width,omitempty"`
	Height               *int   `json:"Height,omitempty"`
	Channels             int    `json:"Channels,omitempty"`
	ChannelLayout        string `json:"ChannelLayout,omitempty"`
	IsDefault            bool   `json:"IsDefault"`
	IsForced             bool   `json:"IsForced"`
	IsTextSubtitleStream bool   `json:"IsTextSubtitleStream"`
}

func (s MediaStream) clone() MediaStream {
	out := s
	if s.Width != nil {
		w := *s.Width
		out.Width = &w
	}
	if s.Height != nil {
		h := *s.Height
		out.Height = &h
	}
	return out
}

// DlnaProfileType is the server's numeric media kind.
type DlnaProfileType int

const (
	ProfileTypeAudio DlnaProfileType = 0
	ProfileTypeVideo DlnaProfileType = 1
	ProfileTypePhoto DlnaProfileType = 2
)

// SubtitleDeliveryMethod is the server's numeric subtitle delivery mode.
type SubtitleDeliveryMethod int

const (
	SubtitleEncode   SubtitleDeliveryMethod = 0
	SubtitleEmbed    SubtitleDeliveryMethod = 1
	SubtitleExternal SubtitleDeliveryMethod = 2
)

// HeaderMatchType controls how an identification header is compared.
type HeaderMatchType int

const (
	HeaderMatchEquals    HeaderMatchType = 0
	HeaderMatchRegex     HeaderMatchType = 1
	HeaderMatchSubstring HeaderMatchType = 2
)

// DeviceProfile declares client capabilities to the server.
type DeviceProfile struct {
	Name                             string               `json:"Name"`
	MaxStreamingBitrate              int64                `json:"MaxStreamingBitrate"`
	MusicStreamingTranscodingBitrate int64                `json:"MusicStreamingTranscodingBitrate"`
	TimelineOffsetSeconds            int                  `json:"TimelineOffsetSeconds"`
	Identification                   DeviceIdentification `json:"Identification"`
	TranscodingProfiles              []TranscodingProfile `json:"TranscodingProfiles"`
	DirectPlayProfiles               []DirectPlayProfile  `json:"DirectPlayProfiles"`
	ResponseProfiles                 []ResponseProfile    `json:"ResponseProfiles"`
	ContainerProfiles                []ContainerProfile   `json:"ContainerProfiles"`
	CodecProfiles                    []CodecProfile       `json:"CodecProfiles"`
	SubtitleProfiles                 []SubtitleProfile    `json:"SubtitleProfiles"`
}

type DeviceIdentification struct {
	ModelName string           `json:"ModelName"`
	Headers   []HTTPHeaderInfo `json:"Headers"`
}

type HTTPHeaderInfo struct {
	Name  string          `json:"Name"`
	Value string          `json:"Value"`
	Match HeaderMatchType `json:"Match"`
}

type TranscodingProfile struct {
	Container  string          `json:"Container"`
	AudioCodec string          `json:"AudioCodec,omitempty"`
	VideoCodec string          `json:"VideoCodec,omitempty"`
	Type       DlnaProfileType `json:"Type"`
}

type DirectPlayProfile struct {
	Container string          `json:"Container"`
	Type      DlnaProfileType `json:"Type"`
}

type ResponseProfile struct {
	Container string          `json:"Container,omitempty"`
	MimeType  string          `json:"MimeType,omitempty"`
	Type      DlnaProfileType `json:"Type"`
}

type ContainerProfile struct {
	Container string          `json:"Container,omitempty"`
	Type      DlnaProfileType `json:"Type"`
}

type CodecProfile struct {
	Codec     string `json:"Codec,omitempty"`
	Container string `json:"Container,omitempty"`
	Type      string `json:"Type,omitempty"`
}

// SubtitleProfile maps a subtitle format to a delivery method.
// DidlMode is emitted only when set, including when set to "".
type SubtitleProfile struct {
	Format   string                 `json:"Format"`
	Method   SubtitleDeliveryMethod `json:"Method"`
	DidlMode *string                `json:"DidlMode,omitempty"`
}

// PlaybackInfoRequest is the body of the PlaybackInfo call. Nil indices are sent as null.
type PlaybackInfoRequest struct {
	UserID              string        `json:"UserId"`
	DeviceProfile       DeviceProfile `json:"DeviceProfile"`
	StartTimeTicks      int64         `json:"StartTimeTicks"`
	AudioStreamIndex    *int          `json:"AudioStreamIndex"`
	SubtitleStreamIndex *int          `json:"SubtitleStreamIndex"`
	MediaSourceID       *string       `json:"MediaSourceId"`
	LiveStreamID        *string       `json:"LiveStreamId"`
}

// PlaybackInfoResponse carries the candidate sources for one item.
type PlaybackInfoResponse struct {
	MediaSources  []MediaSource `json:"MediaSources"`
	PlaySessionID string        `json:"PlaySessionId"`
	ErrorCode     string        `json:"ErrorCode,omitempty"`
}

// LiveStreamRequest is the body of the LiveStreams/Open call.
type LiveStreamRequest struct {
	UserID              string        `json:"UserId"`
	DeviceProfile       DeviceProfile `json:"DeviceProfile"`
	ItemID              string        `json:"ItemId"`
	PlaySessionID       string        `json:"PlaySessionId"`
	OpenToken           string        `json:"OpenToken"`
	StartTimeTicks      int64         `json:"StartTimeTicks"`
	AudioStreamIndex    *int          `json:"AudioStreamIndex"`
	SubtitleStreamIndex *int          `json:"SubtitleStreamIndex"`
}

// LiveStreamResponse wraps the opened live source.
type LiveStreamResponse struct {
	MediaSource MediaSource `json:"MediaSource"`
}

// ItemsResponse is the server's paged item list envelope.
type ItemsResponse struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
}
