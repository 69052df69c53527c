// SPDX-License-Identifier: MIT

// Package v1 implements the versioned playback API handlers.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/embyplay/internal/emby"
	"github.com/ManuGH/embyplay/internal/ledger"
	"github.com/ManuGH/embyplay/internal/log"
	"github.com/ManuGH/embyplay/internal/playback"
)

const (
	apiVersion        = "1"
	maxBodyBytes      = 64 << 10
	defaultRecentSize = 50
)

// Resolver is the playback engine seen by the API.
type Resolver interface {
	Resolve(ctx context.Context, item emby.Item, opts ...playback.ResolveOption) (playback.Plan, error)
	ApplyTracks(ctx context.Context, plan playback.Plan, sel playback.Selection) (playback.Plan, []string, error)
	Stop(ctx context.Context, url string) (playback.StopResult, error)
}

// ItemSource fetches library items.
type ItemSource interface {
	Item(ctx context.Context, itemID string) (emby.Item, error)
	AdditionalParts(ctx context.Context, itemID string) ([]emby.Item, error)
}

// SessionLookup reads recorded sessions.
type SessionLookup interface {
	PlayMethod(ctx context.Context, url string) (playback.PlayMethod, bool, error)
	LiveStreamID(ctx context.Context, url string) (string, bool, error)
}

// History lists recent sessions. It is optional.
type History interface {
	Recent(ctx context.Context, limit int) ([]ledger.Entry, error)
}

// Handler holds v1 API dependencies.
type Handler struct {
	resolver Resolver
	items    ItemSource
	sessions SessionLookup
	history  History
}

// NewHandler creates a v1 handler. history may be nil.
func NewHandler(resolver Resolver, items ItemSource, sessions SessionLookup, history History) *Handler {
	return &Handler{resolver: resolver, items: items, sessions: sessions, history: history}
}

// Routes mounts the v1 endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/items/{itemID}/resolve", h.HandleResolve)
	r.Get("/items/{itemID}/parts", h.HandleParts)
	r.Post("/sessions/stop", h.HandleStop)
	r.Get("/sessions/method", h.HandleSessionMethod)
	r.Get("/sessions/recent", h.HandleRecent)
}

// ResolveRequest is the optional body of a resolve call.
type ResolveRequest struct {
	ForceTranscode bool `json:"forceTranscode,omitempty"`
	AudioIndex     *int `json:"audioIndex,omitempty"`
	SubtitleIndex  *int `json:"subtitleIndex,omitempty"`
}

// ResolveResponse is a resolved plan with its selectable tracks.
type ResolveResponse struct {
	playback.Plan
	Tracks            playback.Tracks `json:"tracks"`
	ExternalSubtitles []string        `json:"externalSubtitles,omitempty"`
}

// HandleResolve implements POST /api/v1/items/{itemID}/resolve
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	ctx := log.ContextWithItemID(r.Context(), itemID)

	var req ResolveRequest
	if err := decodeOptional(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	item, err := h.items.Item(ctx, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var opts []playback.ResolveOption
	if req.ForceTranscode {
		opts = append(opts, playback.WithForcedTranscode())
	}
	plan, err := h.resolver.Resolve(ctx, item, opts...)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := ResolveResponse{Plan: plan, Tracks: playback.ListTracks(plan.Source)}
	if req.AudioIndex != nil || req.SubtitleIndex != nil {
		sel := playback.Selection{AudioIndex: req.AudioIndex, SubtitleIndex: req.SubtitleIndex}
		resp.Plan, resp.ExternalSubtitles, err = h.resolver.ApplyTracks(ctx, plan, sel)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// PartResponse is one extra part of a multi-part video.
type PartResponse struct {
	ItemID string `json:"itemId"`
	Name   string `json:"name,omitempty"`
	Path   string `json:"path,omitempty"`
}

// HandleParts implements GET /api/v1/items/{itemID}/parts
func (h *Handler) HandleParts(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	ctx := log.ContextWithItemID(r.Context(), itemID)

	parts, err := h.items.AdditionalParts(ctx, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]PartResponse, 0, len(parts))
	for _, p := range parts {
		resp = append(resp, PartResponse{ItemID: p.ID, Name: p.Name, Path: p.Path})
	}
	writeJSON(w, http.StatusOK, resp)
}

// StopRequest identifies a session by its play URL.
type StopRequest struct {
	URL string `json:"url"`
}

// HandleStop implements POST /api/v1/sessions/stop
func (h *Handler) HandleStop(w http.ResponseWriter, r *http.Request) {
	var req StopRequest
	if err := decodeOptional(r, &req); err != nil || req.URL == "" {
		writeProblem(w, http.StatusBadRequest, "invalid_body", "url is required")
		return
	}
	res, err := h.resolver.Stop(r.Context(), req.URL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SessionResponse is the recorded state for one URL.
type SessionResponse struct {
	URL          string              `json:"url"`
	Method       playback.PlayMethod `json:"method"`
	LiveStreamID string              `json:"liveStreamId,omitempty"`
}

// HandleSessionMethod implements GET /api/v1/sessions/method?url=
func (h *Handler) HandleSessionMethod(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeProblem(w, http.StatusBadRequest, "missing_url", "url query parameter is required")
		return
	}
	method, ok, err := h.sessions.PlayMethod(r.Context(), url)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, playback.ErrUnknownSession)
		return
	}
	liveID, _, err := h.sessions.LiveStreamID(r.Context(), url)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{URL: url, Method: method, LiveStreamID: liveID})
}

// HandleRecent implements GET /api/v1/sessions/recent?limit=
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeProblem(w, http.StatusNotImplemented, "ledger_disabled", "session ledger is not enabled")
		return
	}
	limit := defaultRecentSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			writeProblem(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	entries, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// decodeOptional decodes a JSON body; an empty body leaves v untouched.
func decodeOptional(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
