// Package fsprobe answers whether a media path can be opened directly by this host.
package fsprobe

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ManuGH/embyplay/internal/core/urlutil"
	xglog "github.com/ManuGH/embyplay/internal/log"
	"github.com/ManuGH/embyplay/internal/platform/httpx"
	"github.com/rs/zerolog"
)

const defaultHeadTimeout = 5 * time.Second

type mount struct {
	prefix string
	local  string
}

// Options configures a Prober.
type Options struct {
	// MountMap maps network share URI prefixes (smb://host/share) to local mount points.
	MountMap map[string]string
	// HTTPClient is used for HEAD probes of http(s) paths.
	HTTPClient *http.Client
}

// Prober checks path reachability for local files, mounted shares and http(s) targets.
type Prober struct {
	mounts []mount
	client *http.Client
	logger zerolog.Logger
}

// New creates a Prober.
func New(opts Options) *Prober {
	mounts := make([]mount, 0, len(opts.MountMap))
	for prefix, local := range opts.MountMap {
		mounts = append(mounts, mount{prefix: strings.TrimRight(prefix, "/"), local: local})
	}
	// Longest prefix wins.
	sort.Slice(mounts, func(i, j int) bool {
		if len(mounts[i].prefix) != len(mounts[j].prefix) {
			return len(mounts[i].prefix) > len(mounts[j].prefix)
		}
		return mounts[i].prefix < mounts[j].prefix
	})

	client := opts.HTTPClient
	if client == nil {
		client = httpx.NewClient(defaultHeadTimeout)
	}
	return &Prober{mounts: mounts, client: client, logger: xglog.WithComponent("fsprobe")}
}

// Exists reports whether path is reachable. It never returns an error:
// anything that cannot be verified is reported as not reachable.
func (p *Prober) Exists(ctx context.Context, path string) bool {
	if path == "" {
		return false
	}
	lower := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return p.headOK(ctx, path)
	case strings.HasPrefix(lower, "smb://"), strings.HasPrefix(lower, "nfs://"):
		local, ok := p.Resolve(path)
		if !ok {
			p.logger.Debug().Str("event", "fsprobe.unmapped_share").Str(xglog.FieldPath, path).
				Msg("network share is not mapped to a local mount")
			return false
		}
		return statOK(local)
	case strings.HasPrefix(lower, "file://"):
		u, err := url.Parse(path)
		if err != nil {
			return false
		}
		return statOK(u.Path)
	default:
		return statOK(path)
	}
}

// Resolve maps a network share URI onto its local mount point.
func (p *Prober) Resolve(shareURI string) (string, bool) {
	for _, m := range p.mounts {
		if !hasPrefixFold(shareURI, m.prefix) {
			continue
		}
		rest := shareURI[len(m.prefix):]
		if rest != "" && rest[0] != '/' {
			continue
		}
		if unescaped, err := url.PathUnescape(rest); err == nil {
			rest = unescaped
		}
		return filepath.Join(m.local, filepath.FromSlash(rest)), true
	}
	return "", false
}

func (p *Prober) headOK(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug().Err(err).Str("event", "fsprobe.head_failed").
			Str(xglog.FieldURL, urlutil.SanitizeURL(target)).Msg("HEAD probe failed")
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

func statOK(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
