package videos

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/anatolykoptev/go_video/internal/engine"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxResults      = 10
	DefaultMaxWorkers      = 5
	DefaultPlatformTimeout = 20 * time.Second
)

// Options configures a Manager at construction.
type Options struct {
	MaxWorkers      int           // pool cap; the pool size is min(platforms, MaxWorkers)
	PlatformTimeout time.Duration // bound on each platform task
	Weights         Weights       // zero value = DefaultWeights
	Now             func() time.Time
	History         *History // optional search/download log
}

// SearchRequest is one aggregate search.
type SearchRequest struct {
	Query                 string
	Platforms             []engine.Platform // nil = every registered platform
	MaxResultsPerPlatform int               // cap applied at dispatch; <=0 = DefaultMaxResults
	Filter                *engine.FilterSpec
}

// Manager is the search aggregator. It is stateless between calls apart from its
// read-only registry, and safe for concurrent use.
type Manager struct {
	reg    *Registry
	scorer *Scorer
	opts   Options
}

// NewManager validates options and fills defaults.
func NewManager(reg *Registry, opts Options) (*Manager, error) {
	if reg == nil {
		return nil, errors.New("videos: nil registry")
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights
	}
	scorer, err := NewScorer(opts.Weights)
	if err != nil {
		return nil, err
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if opts.PlatformTimeout <= 0 {
		opts.PlatformTimeout = DefaultPlatformTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{reg: reg, scorer: scorer, opts: opts}, nil
}

// platformResult is the private output of one platform task.
type platformResult struct {
	records []engine.VideoRecord
	status  engine.PlatformStatus
}

// SearchVideos fans query out to the requested platforms and returns the merged,
// scored, filtered list sorted by descending relevance.
//
// Only an invalid filter is returned as an error. An empty query or an empty resolved
// platform set yields an empty result without contacting any adapter; adapter failures
// and timeouts show up in the per-platform statuses.
func (m *Manager) SearchVideos(ctx context.Context, req SearchRequest) (engine.VideoSearchOutput, error) {
	var out engine.VideoSearchOutput
	err := engine.TrackOperation(ctx, "video_search:"+req.Query, func(ctx context.Context) error {
		var err error
		out, err = m.searchVideos(ctx, req)
		return err
	})
	if err != nil {
		return engine.VideoSearchOutput{}, err
	}
	return out, nil
}

func (m *Manager) searchVideos(ctx context.Context, req SearchRequest) (engine.VideoSearchOutput, error) {
	query := strings.TrimSpace(req.Query)
	out := engine.VideoSearchOutput{
		SearchID:  uuid.NewString(),
		Query:     query,
		Videos:    []engine.VideoRecord{},
		Platforms: []engine.PlatformStatus{},
	}
	if query == "" {
		return out, nil
	}

	var filter Filter
	if req.Filter != nil {
		f, err := NewFilter(*req.Filter)
		if err != nil {
			return engine.VideoSearchOutput{}, err
		}
		filter = f
	}

	platforms, skipped := m.resolve(req.Platforms)
	if len(platforms) == 0 {
		out.Platforms = skipped
		return out, nil
	}

	maxResults := req.MaxResultsPerPlatform
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	engine.IncrSearches()
	results := m.dispatch(ctx, query, platforms, maxResults)

	// Single-threaded merge after every task has joined.
	now := m.opts.Now()
	var merged []engine.VideoRecord
	for _, r := range results {
		for _, rec := range r.records {
			score := m.scorer.Score(rec, query, now)
			rec.RelevanceScore = &score
			merged = append(merged, rec)
		}
		out.Platforms = append(out.Platforms, r.status)
	}
	out.Platforms = append(out.Platforms, skipped...)

	merged = filter.Apply(merged)
	SortRanked(merged)

	out.Videos = merged
	out.Total = len(merged)

	if m.opts.History != nil {
		if err := m.opts.History.RecordSearch(ctx, out); err != nil {
			slog.Warn("video_search: history write failed", slog.Any("error", err))
		}
	}
	return out, nil
}

// resolve intersects requested tags with the registry, keeping request order and
// dropping duplicates. Unregistered tags are returned as failed statuses.
func (m *Manager) resolve(requested []engine.Platform) ([]engine.Platform, []engine.PlatformStatus) {
	if requested == nil {
		return m.reg.Platforms(), nil
	}
	var (
		out     []engine.Platform
		skipped []engine.PlatformStatus
		seen    = make(map[engine.Platform]bool, len(requested))
	)
	for _, raw := range requested {
		p := engine.ParsePlatform(string(raw))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if _, ok := m.reg.Get(p); !ok {
			slog.Warn("video_search: platform not registered, skipping", slog.String("platform", string(p)))
			skipped = append(skipped, engine.PlatformStatus{Platform: p, Error: ErrUnknownPlatform.Error()})
			continue
		}
		out = append(out, p)
	}
	return out, skipped
}

// dispatch runs one task per platform on a bounded pool and waits for all of them.
// Each task writes only its own slot, so no locking is needed.
func (m *Manager) dispatch(ctx context.Context, query string, platforms []engine.Platform, maxResults int) []platformResult {
	results := make([]platformResult, len(platforms))

	var g errgroup.Group
	g.SetLimit(min(len(platforms), m.opts.MaxWorkers))
	for i, p := range platforms {
		if err := ctx.Err(); err != nil {
			results[i] = platformResult{status: engine.PlatformStatus{Platform: p, Error: "not dispatched: " + err.Error()}}
			continue
		}
		adapter, _ := m.reg.Get(p)
		g.Go(func() error {
			results[i] = m.runPlatform(ctx, adapter, p, query, maxResults)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

type adapterReply struct {
	raws []engine.RawRecord
	err  error
}

// runPlatform calls one adapter under its own timeout and normalizes its output.
// A timeout abandons only this platform's wait; the adapter sees a cancelled context.
func (m *Manager) runPlatform(ctx context.Context, adapter Adapter, p engine.Platform, query string, maxResults int) platformResult {
	start := time.Now()
	status := engine.PlatformStatus{Platform: p}

	tctx, cancel := context.WithTimeout(ctx, m.opts.PlatformTimeout)
	defer cancel()

	done := make(chan adapterReply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- adapterReply{err: fmt.Errorf("adapter panic: %v", r)}
			}
		}()
		raws, err := adapter.Search(tctx, query, maxResults)
		done <- adapterReply{raws: raws, err: err}
	}()

	var reply adapterReply
	select {
	case reply = <-done:
	case <-tctx.Done():
		reply.err = tctx.Err()
	}
	// The adapter may surface the deadline itself before the select sees it.
	if reply.err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		engine.IncrAdapterTimeouts()
		reply.err = fmt.Errorf("timed out after %s", m.opts.PlatformTimeout)
	}
	status.ElapsedMS = time.Since(start).Milliseconds()

	if reply.err != nil {
		engine.IncrAdapterFailures()
		slog.Warn("video_search: platform failed",
			slog.String("platform", string(p)), slog.Any("error", reply.err))
		status.Error = reply.err.Error()
		return platformResult{status: status}
	}

	raws := reply.raws
	if len(raws) > maxResults {
		raws = raws[:maxResults]
	}
	records := normalizeAll(p, raws)
	slog.Debug("video_search: platform results",
		slog.String("platform", string(p)), slog.Int("raw", len(reply.raws)), slog.Int("normalized", len(records)))

	status.OK = true
	status.Count = len(records)
	return platformResult{records: records, status: status}
}

// normalizeAll maps raws to records, dropping URL-less entries and duplicates.
func normalizeAll(p engine.Platform, raws []engine.RawRecord) []engine.VideoRecord {
	records := make([]engine.VideoRecord, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for _, raw := range raws {
		rec, ok := Normalize(p, raw)
		if !ok {
			continue
		}
		key := rec.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		records = append(records, rec)
	}
	return records
}

// SortRanked orders records by relevance descending, then view count descending,
// then platform, video id and URL ascending, so equal scores never depend on arrival order.
func SortRanked(records []engine.VideoRecord) {
	slices.SortStableFunc(records, func(a, b engine.VideoRecord) int {
		if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.ViewCount, a.ViewCount); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Platform, b.Platform); c != 0 {
			return c
		}
		if c := cmp.Compare(a.VideoID, b.VideoID); c != 0 {
			return c
		}
		return cmp.Compare(a.URL, b.URL)
	})
}

// Download fetches a video through its platform adapter. An empty platform is
// detected from the URL.
func (m *Manager) Download(ctx context.Context, p engine.Platform, videoURL, outputDir, filename string) (string, error) {
	if strings.TrimSpace(videoURL) == "" {
		return "", errors.New("download: url is required")
	}
	if p == "" {
		p = engine.DetectPlatform(videoURL)
	}
	p = engine.ParsePlatform(string(p))
	adapter, ok := m.reg.Get(p)
	if !ok {
		return "", fmt.Errorf("download %q: %w", p, ErrUnknownPlatform)
	}
	dl, ok := adapter.(Downloader)
	if !ok {
		return "", fmt.Errorf("download %q: %w", p, ErrNoDownloader)
	}

	engine.IncrDownloads()
	path, err := dl.Download(ctx, videoURL, outputDir, filename)
	if err != nil {
		engine.IncrDownloadErrors()
		err = fmt.Errorf("download %s: %w", videoURL, err)
	}
	if m.opts.History != nil {
		if herr := m.opts.History.RecordDownload(ctx, p, videoURL, path, err); herr != nil {
			slog.Warn("video_download: history write failed", slog.Any("error", herr))
		}
	}
	return path, err
}
