// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package playback decides how an Emby item is played on this host.
//
// A resolution asks the server for playback info with a device profile,
// scores the returned media sources, opens a live stream when the chosen
// source requires it, and picks DirectPlay, DirectStream or Transcode in that
// order of preference. The resulting URL is recorded in a SessionContext so
// that later progress and stop handling can find the play method and live
// stream without resolving again.
package playback
