// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldItemID        = "item_id"
	FieldServerID      = "server_id"
	FieldDeviceID      = "device_id"
	FieldPlaySessionID = "play_session_id"
	FieldMediaSourceID = "media_source_id"
	FieldLiveStreamID  = "live_stream_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOperation = "operation"

	// Decision fields
	FieldPlayMethod = "play_method"
	FieldScore      = "score"
	FieldCandidates = "candidates"
	FieldRule       = "rule"
	FieldResolution = "resolution"
	FieldBitrate    = "bitrate"

	// Path / URL fields
	FieldPath = "path"
	FieldURL  = "url"
)
