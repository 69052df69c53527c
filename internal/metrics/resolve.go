// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embyplay_resolve_total",
		Help: "Total number of playback resolutions by chosen play method and outcome",
	}, []string{"method", "outcome"})

	resolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "embyplay_resolve_duration_seconds",
		Help:    "End-to-end playback resolution latency including upstream calls",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"outcome"})

	forcedTranscodeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embyplay_forced_transcode_total",
		Help: "Number of media sources forced to transcode, by policy rule",
	}, []string{"rule"})

	selectorCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "embyplay_selector_candidates",
		Help:    "Number of media source candidates scored per resolution",
		Buckets: []float64{0, 1, 2, 3, 5, 8},
	})

	liveStreamTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embyplay_live_stream_total",
		Help: "Live stream open/close handshakes by action and result",
	}, []string{"action", "result"})
)

// RecordResolve records one resolution outcome and its latency.
func RecordResolve(method, outcome string, seconds float64) {
	outcome = normalizeOutcomeLabel(outcome)
	resolveTotal.WithLabelValues(normalizeMethodLabel(method), outcome).Inc()
	resolveDuration.WithLabelValues(outcome).Observe(seconds)
}

// RecordForcedTranscode counts a forced-transcode policy hit.
func RecordForcedTranscode(rule string) {
	forcedTranscodeTotal.WithLabelValues(normalizeRuleLabel(rule)).Inc()
}

// ObserveCandidates records how many sources the selector scored.
func ObserveCandidates(n int) {
	selectorCandidates.Observe(float64(n))
}

// RecordLiveStream counts a live stream handshake.
func RecordLiveStream(action string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	switch action {
	case "open", "close":
	default:
		action = "unknown"
	}
	liveStreamTotal.WithLabelValues(action, result).Inc()
}

func normalizeMethodLabel(method string) string {
	switch strings.TrimSpace(method) {
	case "DirectPlay", "DirectStream", "Transcode":
		return strings.TrimSpace(method)
	case "":
		return "none"
	default:
		return "unknown"
	}
}

func normalizeOutcomeLabel(outcome string) string {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "ok", "no_playback_info", "invalid_playback", "missing_item_id", "transport_error", "canceled":
		return strings.ToLower(strings.TrimSpace(outcome))
	default:
		return "error"
	}
}

func normalizeRuleLabel(rule string) string {
	switch strings.ToLower(strings.TrimSpace(rule)) {
	case "hi10p", "h265", "caller":
		return strings.ToLower(strings.TrimSpace(rule))
	default:
		return "unknown"
	}
}
