package videos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anatolykoptev/go_video/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter returns canned records after an optional delay.
type fakeAdapter struct {
	platform engine.Platform
	records  []engine.RawRecord
	err      error
	delay    time.Duration
	panicMsg string
	calls    atomic.Int32

	// concurrency probe shared across adapters
	probe *concurrencyProbe
}

func (f *fakeAdapter) Platform() engine.Platform { return f.platform }

func (f *fakeAdapter) Search(ctx context.Context, _ string, maxResults int) ([]engine.RawRecord, error) {
	f.calls.Add(1)
	if f.probe != nil {
		f.probe.enter()
		defer f.probe.leave()
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.records, f.err
}

type concurrencyProbe struct {
	mu       sync.Mutex
	cur, max int
}

func (p *concurrencyProbe) enter() {
	p.mu.Lock()
	p.cur++
	p.max = max(p.max, p.cur)
	p.mu.Unlock()
}

func (p *concurrencyProbe) leave() {
	p.mu.Lock()
	p.cur--
	p.mu.Unlock()
}

// raws builds generic-shaped raw records for platform p.
func raws(p engine.Platform, views ...int64) []engine.RawRecord {
	out := make([]engine.RawRecord, len(views))
	for i, v := range views {
		id := fmt.Sprintf("%s-%d", p, i)
		out[i] = engine.RawRecord{
			"video_id":   id,
			"url":        "https://example.com/" + id,
			"title":      "python tutorial " + id,
			"view_count": v,
		}
	}
	return out
}

func newTestManager(t *testing.T, opts Options, adapters ...Adapter) *Manager {
	t.Helper()
	reg, err := NewRegistry(adapters...)
	require.NoError(t, err)
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	m, err := NewManager(reg, opts)
	require.NoError(t, err)
	return m
}

func TestSearchVideos_EmptyQueryCallsNothing(t *testing.T) {
	a := &fakeAdapter{platform: "alpha", records: raws("alpha", 1)}
	m := newTestManager(t, Options{}, a)

	for _, q := range []string{"", "   ", "\t\n"} {
		out, err := m.SearchVideos(context.Background(), SearchRequest{Query: q})
		require.NoError(t, err)
		assert.Empty(t, out.Videos)
		assert.Zero(t, out.Total)
	}
	assert.Zero(t, a.calls.Load())
}

func TestSearchVideos_PartialFailure(t *testing.T) {
	bad := &fakeAdapter{platform: "alpha", err: errors.New("HTTP 503")}
	good := &fakeAdapter{platform: "beta", records: raws("beta", 10, 20, 30)}
	m := newTestManager(t, Options{}, bad, good)

	out, err := m.SearchVideos(context.Background(), SearchRequest{Query: "python tutorial"})
	require.NoError(t, err)
	require.Len(t, out.Videos, 3)
	for _, v := range out.Videos {
		assert.Equal(t, engine.Platform("beta"), v.Platform)
		require.NotNil(t, v.RelevanceScore)
	}

	require.Len(t, out.Platforms, 2)
	assert.False(t, out.Platforms[0].OK)
	assert.Contains(t, out.Platforms[0].Error, "503")
	assert.True(t, out.Platforms[1].OK)
	assert.Equal(t, 3, out.Platforms[1].Count)
}

func TestSearchVideos_AllFailReturnsEmpty(t *testing.T) {
	m := newTestManager(t, Options{},
		&fakeAdapter{platform: "alpha", err: errors.New("down")},
		&fakeAdapter{platform: "beta", panicMsg: "boom"},
	)
	out, err := m.SearchVideos(context.Background(), SearchRequest{Query: "q"})
	require.NoError(t, err)
	assert.Empty(t, out.Videos)
	assert.Contains(t, out.Platforms[1].Error, "panic")
}

func TestSearchVideos_FilteredAndRanked(t *testing.T) {
	var ytRecs, biliRecs []engine.RawRecord
	for i, v := range []int{500, 2000, 1500, 800, 3000} {
		ytRecs = append(ytRecs, engine.RawRecord{
			"id":         fmt.Sprintf("yt%d", i),
			"snippet":    map[string]any{"title": "Python Tutorial part " + fmt.Sprint(i)},
			"statistics": map[string]any{"viewCount": fmt.Sprint(v)},
		})
	}
	for i, v := range []float64{1200, 4000, 2500} {
		biliRecs = append(biliRecs, engine.RawRecord{
			"bvid":  fmt.Sprintf("BV%d", i),
			"title": "<em class=\"keyword\">python</em> tutorial",
			"play":  v,
		})
	}
	yt := &fakeAdapter{platform: engine.PlatformYouTube, records: ytRecs}
	bili := &fakeAdapter{platform: engine.PlatformBilibili, records: biliRecs}
	m := newTestManager(t, Options{}, yt, bili)

	minViews := int64(1000)
	search := func(platforms ...engine.Platform) engine.VideoSearchOutput {
		out, err := m.SearchVideos(context.Background(), SearchRequest{
			Query:                 "python tutorial",
			Platforms:             platforms,
			MaxResultsPerPlatform: 5,
			Filter:                &engine.FilterSpec{MinViews: &minViews},
		})
		require.NoError(t, err)
		return out
	}

	out := search(engine.PlatformYouTube, engine.PlatformBilibili)
	require.Len(t, out.Videos, 6) // three youtube, three bilibili
	assert.Equal(t, 6, out.Total)

	for i, v := range out.Videos {
		assert.GreaterOrEqual(t, v.ViewCount, minViews)
		if i > 0 {
			assert.GreaterOrEqual(t, out.Videos[i-1].Score(), v.Score())
		}
	}

	// Request order of platforms does not affect result order.
	reversed := search(engine.PlatformBilibili, engine.PlatformYouTube)
	assert.Equal(t, out.Videos, reversed.Videos)
}

func TestSearchVideos_FilterIsSubsetOfUnfiltered(t *testing.T) {
	a := &fakeAdapter{platform: "alpha", records: raws("alpha", 5, 50, 500, 5000)}
	m := newTestManager(t, Options{}, a)

	all, err := m.SearchVideos(context.Background(), SearchRequest{Query: "python"})
	require.NoError(t, err)
	minViews := int64(100)
	some, err := m.SearchVideos(context.Background(), SearchRequest{Query: "python", Filter: &engine.FilterSpec{MinViews: &minViews}})
	require.NoError(t, err)

	keys := make(map[string]bool)
	for _, v := range all.Videos {
		keys[v.Key()] = true
	}
	require.Len(t, some.Videos, 2)
	for _, v := range some.Videos {
		assert.True(t, keys[v.Key()], v.Key())
	}
}

func TestSearchVideos_InvalidFilter(t *testing.T) {
	a := &fakeAdapter{platform: "alpha", records: raws("alpha", 1)}
	m := newTestManager(t, Options{}, a)

	_, err := m.SearchVideos(context.Background(), SearchRequest{
		Query:  "python",
		Filter: &engine.FilterSpec{DurationRange: []int{300, 60}},
	})
	assert.ErrorIs(t, err, ErrInvalidFilter)
	assert.Zero(t, a.calls.Load())
}

func TestSearchVideos_TimeoutIsolatesPlatform(t *testing.T) {
	slow := &fakeAdapter{platform: "slow", records: raws("slow", 1), delay: 5 * time.Second}
	fast := &fakeAdapter{platform: "fast", records: raws("fast", 1, 2)}
	m := newTestManager(t, Options{PlatformTimeout: 50 * time.Millisecond}, slow, fast)

	start := time.Now()
	out, err := m.SearchVideos(context.Background(), SearchRequest{Query: "python"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, out.Videos, 2)
	assert.False(t, out.Platforms[0].OK)
	assert.Contains(t, out.Platforms[0].Error, "timed out")
	assert.True(t, out.Platforms[1].OK)
}

func TestSearchVideos_WorkerBound(t *testing.T) {
	probe := &concurrencyProbe{}
	var adapters []Adapter
	for i := range 8 {
		adapters = append(adapters, &fakeAdapter{
			platform: engine.Platform(fmt.Sprintf("p%d", i)),
			records:  raws(engine.Platform(fmt.Sprintf("p%d", i)), 1),
			delay:    20 * time.Millisecond,
			probe:    probe,
		})
	}
	m := newTestManager(t, Options{MaxWorkers: 3}, adapters...)

	out, err := m.SearchVideos(context.Background(), SearchRequest{Query: "python"})
	require.NoError(t, err)
	assert.Len(t, out.Videos, 8)
	assert.LessOrEqual(t, probe.max, 3)
}

func TestSearchVideos_UnknownPlatformSkipped(t *testing.T) {
	a := &fakeAdapter{platform: "alpha", records: raws("alpha", 1)}
	m := newTestManager(t, Options{}, a)

	out, err := m.SearchVideos(context.Background(), SearchRequest{
		Query:     "python",
		Platforms: []engine.Platform{"myspace", "ALPHA", "alpha"},
	})
	require.NoError(t, err)
	assert.Len(t, out.Videos, 1)
	assert.Equal(t, int32(1), a.calls.Load())
	require.Len(t, out.Platforms, 2)
	assert.Equal(t, engine.Platform("myspace"), out.Platforms[1].Platform)
	assert.Equal(t, ErrUnknownPlatform.Error(), out.Platforms[1].Error)
}

func TestSearchVideos_MaxResultsCapAndDedupe(t *testing.T) {
	recs := raws("alpha", 1, 2, 3, 4, 5)
	recs = append([]engine.RawRecord{recs[0]}, recs...) // duplicate first record
	a := &fakeAdapter{platform: "alpha", records: recs}
	m := newTestManager(t, Options{}, a)

	out, err := m.SearchVideos(context.Background(), SearchRequest{Query: "python", MaxResultsPerPlatform: 3})
	require.NoError(t, err)
	assert.Len(t, out.Videos, 2) // cap 3, one of them a duplicate
}

func TestSearchVideos_CancelledContext(t *testing.T) {
	a := &fakeAdapter{platform: "alpha", records: raws("alpha", 1)}
	m := newTestManager(t, Options{}, a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := m.SearchVideos(ctx, SearchRequest{Query: "python"})
	require.NoError(t, err)
	assert.Empty(t, out.Videos)
	assert.Zero(t, a.calls.Load())
	assert.Contains(t, out.Platforms[0].Error, "not dispatched")
}

func TestSortRanked_TieBreak(t *testing.T) {
	s := func(f float64) *float64 { return &f }
	recs := []engine.VideoRecord{
		{Platform: "youtube", VideoID: "b", URL: "u3", RelevanceScore: s(0.5), ViewCount: 10},
		{Platform: "bilibili", VideoID: "z", URL: "u1", RelevanceScore: s(0.5), ViewCount: 10},
		{Platform: "youtube", VideoID: "a", URL: "u2", RelevanceScore: s(0.5), ViewCount: 10},
		{Platform: "tiktok", VideoID: "x", URL: "u4", RelevanceScore: s(0.5), ViewCount: 99},
		{Platform: "weibo", VideoID: "w", URL: "u5", RelevanceScore: s(0.9)},
	}
	SortRanked(recs)
	assert.Equal(t, []string{"w", "x", "z", "a", "b"}, ids(recs))
}

func TestManagerDownload(t *testing.T) {
	h, err := OpenHistory(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	dl := &downloadingAdapter{fakeAdapter: fakeAdapter{platform: engine.PlatformYouTube}}
	plain := &fakeAdapter{platform: engine.PlatformTikTok}
	m := newTestManager(t, Options{History: h}, dl, plain)
	ctx := context.Background()

	path, err := m.Download(ctx, "", "https://www.youtube.com/watch?v=abc", "/tmp/out", "")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out/abc.mp4", path)

	_, err = m.Download(ctx, engine.PlatformTikTok, "https://www.tiktok.com/@a/video/1", "/tmp/out", "")
	assert.ErrorIs(t, err, ErrNoDownloader)

	_, err = m.Download(ctx, "", "https://vimeo.com/1", "/tmp/out", "")
	assert.ErrorIs(t, err, ErrUnknownPlatform)

	entries, err := h.ListDownloads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DownloadOK, entries[0].Status)
}

type downloadingAdapter struct {
	fakeAdapter
}

func (d *downloadingAdapter) Download(_ context.Context, _, outputDir, _ string) (string, error) {
	return outputDir + "/abc.mp4", nil
}
