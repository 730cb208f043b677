// Package videos fans a query out to platform adapters, normalizes their results,
// scores them for relevance, filters and ranks the merged set.
package videos

import (
	"context"
	"errors"
	"fmt"

	"github.com/anatolykoptev/go_video/internal/engine"
)

var (
	// ErrUnknownPlatform is returned when a platform has no registered adapter.
	ErrUnknownPlatform = errors.New("platform not registered")
	// ErrNoDownloader is returned when the platform's adapter cannot download.
	ErrNoDownloader = errors.New("platform adapter does not support download")
)

// Adapter searches one platform.
//
// Search returns at most maxResults raw records in platform-native shape.
// Failures are returned as errors; the Manager absorbs them per platform.
// Implementations must be safe for concurrent use: the same adapter serves
// parallel searches without any serialization by the Manager.
type Adapter interface {
	Platform() engine.Platform
	Search(ctx context.Context, query string, maxResults int) ([]engine.RawRecord, error)
}

// Downloader is implemented by adapters that can fetch the video file itself.
// It returns the path of the written file.
type Downloader interface {
	Download(ctx context.Context, videoURL, outputDir, filename string) (string, error)
}

// Registry is the read-only platform → adapter table, built once and shared across searches.
type Registry struct {
	byName map[engine.Platform]Adapter
	order  []engine.Platform
}

// NewRegistry indexes adapters by platform tag. Nil adapters, empty tags and duplicates are rejected.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{byName: make(map[engine.Platform]Adapter, len(adapters))}
	for _, a := range adapters {
		if a == nil {
			return nil, errors.New("registry: nil adapter")
		}
		p := engine.ParsePlatform(string(a.Platform()))
		if p == "" {
			return nil, errors.New("registry: adapter with empty platform tag")
		}
		if _, dup := r.byName[p]; dup {
			return nil, fmt.Errorf("registry: duplicate adapter for %q", p)
		}
		r.byName[p] = a
		r.order = append(r.order, p)
	}
	return r, nil
}

// Get returns the adapter registered for p.
func (r *Registry) Get(p engine.Platform) (Adapter, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.byName[engine.ParsePlatform(string(p))]
	return a, ok
}

// Platforms returns registered tags in registration order.
func (r *Registry) Platforms() []engine.Platform {
	if r == nil {
		return nil
	}
	out := make([]engine.Platform, len(r.order))
	copy(out, r.order)
	return out
}
