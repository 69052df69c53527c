package emby

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/singleflight"
)

// URL templates. {server} and {UserId} are resolved by the Sender.
const (
	PlaybackInfoTemplate    = "{server}/emby/Items/%s/PlaybackInfo?format=json"
	LiveStreamOpenTemplate  = "{server}/emby/LiveStreams/Open?format=json"
	LiveStreamCloseTemplate = "{server}/emby/LiveStreams/Close?LiveStreamId=%s"
	ItemTemplate            = "{server}/emby/Users/{UserId}/Items/%s?format=json"
	AdditionalPartsTemplate = "{server}/emby/Videos/%s/AdditionalParts?UserId={UserId}&format=json"
)

// Sender performs one JSON round trip against a URL template.
type Sender interface {
	Send(ctx context.Context, method, urlTemplate string, body, out any) error
}

// PlaybackInfo asks the server for the candidate media sources of an item.
func PlaybackInfo(ctx context.Context, s Sender, itemID string, req PlaybackInfoRequest) (PlaybackInfoResponse, error) {
	var resp PlaybackInfoResponse
	if err := s.Send(ctx, http.MethodPost, fmt.Sprintf(PlaybackInfoTemplate, url.PathEscape(itemID)), req, &resp); err != nil {
		return PlaybackInfoResponse{}, fmt.Errorf("playback info %s: %w", itemID, err)
	}
	return resp, nil
}

// OpenLiveStream opens a live session and returns the live media source.
func OpenLiveStream(ctx context.Context, s Sender, req LiveStreamRequest) (MediaSource, error) {
	var resp LiveStreamResponse
	if err := s.Send(ctx, http.MethodPost, LiveStreamOpenTemplate, req, &resp); err != nil {
		return MediaSource{}, fmt.Errorf("open live stream for %s: %w", req.ItemID, err)
	}
	return resp.MediaSource, nil
}

// CloseLiveStream releases a live session opened by OpenLiveStream.
func CloseLiveStream(ctx context.Context, s Sender, liveStreamID string) error {
	if liveStreamID == "" {
		return fmt.Errorf("%w: empty live stream id", ErrInvalidRequest)
	}
	target := fmt.Sprintf(LiveStreamCloseTemplate, url.QueryEscape(liveStreamID))
	if err := s.Send(ctx, http.MethodPost, target, nil, nil); err != nil {
		return fmt.Errorf("close live stream %s: %w", liveStreamID, err)
	}
	return nil
}

// GetItem fetches one item for the configured user.
func GetItem(ctx context.Context, s Sender, itemID string) (Item, error) {
	var item Item
	if err := s.Send(ctx, http.MethodGet, fmt.Sprintf(ItemTemplate, url.PathEscape(itemID)), nil, &item); err != nil {
		return Item{}, fmt.Errorf("get item %s: %w", itemID, err)
	}
	return item, nil
}

// GetAdditionalParts lists the extra parts of a multi-part video.
func GetAdditionalParts(ctx context.Context, s Sender, itemID string) ([]Item, error) {
	var resp ItemsResponse
	if err := s.Send(ctx, http.MethodGet, fmt.Sprintf(AdditionalPartsTemplate, url.PathEscape(itemID)), nil, &resp); err != nil {
		return nil, fmt.Errorf("additional parts %s: %w", itemID, err)
	}
	return resp.Items, nil
}

// Item fetches an item, coalescing concurrent lookups of the same id.
// The shared lookup is detached from any single caller; each caller still
// stops waiting when its own ctx is done.
func (c *Client) Item(ctx context.Context, itemID string) (Item, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.items.DoChan(itemID, func() (any, error) {
		return GetItem(detached, c, itemID)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return Item{}, fmt.Errorf("get item %s: %w", itemID,
			&Error{Sentinel: contextSentinel(ctx, ctx.Err()), Operation: "item", Err: ctx.Err()})
	case res = <-ch:
	}
	if res.Err != nil {
		return Item{}, res.Err
	}
	v, shared := res.Val, res.Shared
	if shared {
		c.logger.Debug().Str("event", "emby.item_shared").Str("item_id", itemID).Msg("served item from shared lookup")
	}
	item := v.(Item)
	if item.MediaSources != nil {
		sources := make([]MediaSource, len(item.MediaSources))
		for i, ms := range item.MediaSources {
			sources[i] = ms.Clone()
		}
		item.MediaSources = sources
	}
	return item, nil
}

// AdditionalParts lists the extra parts of a multi-part video.
func (c *Client) AdditionalParts(ctx context.Context, itemID string) ([]Item, error) {
	return GetAdditionalParts(ctx, c, itemID)
}

// CloseLiveStream releases a live session.
func (c *Client) CloseLiveStream(ctx context.Context, liveStreamID string) error {
	return CloseLiveStream(ctx, c, liveStreamID)
}
