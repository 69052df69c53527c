package playback

import (
	"context"
	"errors"

	"github.com/ManuGH/embyplay/internal/emby"
)

var (
	// ErrNoPlaybackInfo means the server returned no usable media source.
	ErrNoPlaybackInfo = errors.New("playback: no playback info")
	// ErrInvalidPlayback means the selected source supports no play method.
	ErrInvalidPlayback = errors.New("playback: no supported play method")
	// ErrMissingItemID means the item has no id; always fatal.
	ErrMissingItemID = errors.New("playback: item id is required")
	// ErrMalformedSource marks a media source excluded from scoring.
	ErrMalformedSource = errors.New("playback: malformed media source")
	// ErrUnknownSession means no play method is recorded for a URL.
	ErrUnknownSession = errors.New("playback: unknown session")
)

// outcomeLabel maps a resolution error to a bounded metric label.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingItemID):
		return "missing_item_id"
	case errors.Is(err, ErrNoPlaybackInfo):
		return "no_playback_info"
	case errors.Is(err, ErrInvalidPlayback):
		return "invalid_playback"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, emby.ErrTransport):
		return "transport_error"
	default:
		return "error"
	}
}
