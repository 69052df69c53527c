// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by playback spans.
const (
	ItemIDKey       = "playback.item_id"
	ItemTypeKey     = "playback.item_type"
	PlayMethodKey   = "playback.method"
	MediaSourceKey  = "playback.media_source_id"
	LiveStreamKey   = "playback.live_stream_id"
	CandidatesKey   = "playback.candidates"
	RequiresOpenKey = "playback.requires_opening"
	MaxBitrateKey   = "playback.max_bitrate"
	UpstreamOpKey   = "upstream.operation"
	UpstreamCodeKey = "upstream.status_code"
	ErrorKey        = "error"
	ErrorTypeKey    = "error.type"
)

// ItemAttributes describes the item being resolved.
func ItemAttributes(itemID, itemType string, maxBitrate int64) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(ItemIDKey, itemID),
		attribute.Int64(MaxBitrateKey, maxBitrate),
	}
	if itemType != "" {
		attrs = append(attrs, attribute.String(ItemTypeKey, itemType))
	}
	return attrs
}

// PlanAttributes describes the resolved plan.
func PlanAttributes(method, mediaSourceID, liveStreamID string, candidates int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(PlayMethodKey, method),
		attribute.Int(CandidatesKey, candidates),
	}
	if mediaSourceID != "" {
		attrs = append(attrs, attribute.String(MediaSourceKey, mediaSourceID))
	}
	if liveStreamID != "" {
		attrs = append(attrs, attribute.String(LiveStreamKey, liveStreamID))
	}
	return attrs
}

// ErrorAttributes marks a span as failed with a classified error type.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
