package emby

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestPlaybackInfo_SendsNullIndices(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetPlaybackInfo("42", PlaybackInfoResponse{
		PlaySessionID: "ps-42",
		MediaSources:  []MediaSource{{ID: "ms-1", Bitrate: int64Ptr(1000), MediaStreams: []MediaStream{}}},
	})

	c := newTestClient(t, mock.URL)
	resp, err := PlaybackInfo(context.Background(), c, "42", PlaybackInfoRequest{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, resp.MediaSources, 1)
	assert.Equal(t, "ps-42", resp.PlaySessionID)
	assert.Equal(t, int64(1000), *resp.MediaSources[0].Bitrate)

	var body map[string]any
	require.NoError(t, json.Unmarshal(mock.LastBody(EndpointPlaybackInfo), &body))
	for _, key := range []string{"AudioStreamIndex", "SubtitleStreamIndex", "MediaSourceId", "LiveStreamId"} {
		v, ok := body[key]
		assert.True(t, ok, key)
		assert.Nil(t, v, key)
	}
	assert.EqualValues(t, 0, body["StartTimeTicks"])
}

func TestPlaybackInfo_MissingMediaStreamsIsNil(t *testing.T) {
	var resp PlaybackInfoResponse
	require.NoError(t, json.Unmarshal([]byte(`{"MediaSources":[{"Id":"a"},{"Id":"b","MediaStreams":[]}]}`), &resp))
	assert.Nil(t, resp.MediaSources[0].MediaStreams)
	assert.NotNil(t, resp.MediaSources[1].MediaStreams)
}

func TestOpenAndCloseLiveStream(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetLiveStream("open-1", MediaSource{ID: "live", LiveStreamID: "ls-9", RequiresClosing: true})

	c := newTestClient(t, mock.URL)
	src, err := OpenLiveStream(context.Background(), c, LiveStreamRequest{ItemID: "42", OpenToken: "open-1", PlaySessionID: "ps"})
	require.NoError(t, err)
	assert.Equal(t, "ls-9", src.LiveStreamID)

	require.NoError(t, c.CloseLiveStream(context.Background(), "ls-9"))
	assert.Equal(t, []string{"ls-9"}, mock.ClosedLiveStreams())

	assert.ErrorIs(t, c.CloseLiveStream(context.Background(), ""), ErrInvalidRequest)
}

func TestItemAndAdditionalParts(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetItem(Item{ID: "7", Name: "Movie", Type: "Movie", Path: "/m/movie.mkv"})
	mock.SetAdditionalParts("7", []Item{{ID: "7b", Path: "/m/movie-part2.mkv"}})

	c := newTestClient(t, mock.URL)
	item, err := c.Item(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Movie", item.Name)

	parts, err := c.AdditionalParts(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "7b", parts[0].ID)

	_, err = c.Item(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItem_ConcurrentLookups(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetItem(Item{ID: "7", Name: "Movie", MediaSources: []MediaSource{{ID: "a"}}})

	c := newTestClient(t, mock.URL)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, err := c.Item(context.Background(), "7")
			assert.NoError(t, err)
			assert.Equal(t, "a", item.MediaSources[0].ID)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, mock.Calls(EndpointItem), 8)
	assert.GreaterOrEqual(t, mock.Calls(EndpointItem), 1)
}

func TestItem_SharedLookupOutlivesCanceledCaller(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetItem(Item{ID: "7", Name: "Movie"})
	arrived, release := mock.Hold(EndpointItem)
	defer release()

	c := newTestClient(t, mock.URL)
	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Item(ctx, "7")
		firstErr <- err
	}()
	<-arrived

	type result struct {
		item Item
		err  error
	}
	second := make(chan result, 1)
	go func() {
		item, err := c.Item(context.Background(), "7")
		second <- result{item, err}
	}()

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrCanceled)
	case <-time.After(2 * time.Second):
		t.Fatal("canceled caller kept waiting")
	}

	time.Sleep(20 * time.Millisecond)
	release()
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "Movie", res.item.Name)
	assert.Equal(t, 1, mock.Calls(EndpointItem))
}

func TestMockServer_TokenAndFailures(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.RequireToken("other")
	mock.SetItem(Item{ID: "1"})

	c := newTestClient(t, mock.URL)
	_, err := c.Item(context.Background(), "1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	mock.RequireToken("")
	mock.SetFailures(EndpointItem, 1)
	_, err = GetItem(context.Background(), c, "1")
	assert.ErrorIs(t, err, ErrUpstreamError)
	_, err = GetItem(context.Background(), c, "1")
	assert.NoError(t, err)
}

func TestMediaSourceClone(t *testing.T) {
	orig := MediaSource{
		Bitrate:                 int64Ptr(5),
		MediaStreams:            []MediaStream{{Type: StreamTypeVideo, Width: intPtr(1920)}},
		DefaultAudioStreamIndex: intPtr(1),
	}
	cp := orig.Clone()
	*cp.Bitrate = 6
	*cp.MediaStreams[0].Width = 1280
	cp.SupportsDirectPlay = true

	assert.Equal(t, int64(5), *orig.Bitrate)
	assert.Equal(t, 1920, *orig.MediaStreams[0].Width)
	assert.False(t, orig.SupportsDirectPlay)
	assert.Nil(t, MediaSource{}.Clone().MediaStreams)
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Sentinel: ErrNotFound, Operation: "item", Status: 404, Body: "gone"}
	assert.Equal(t, "emby: item: emby: resource not found (HTTP 404): gone", err.Error())
	assert.ErrorIs(t, err, ErrTransport)
}
