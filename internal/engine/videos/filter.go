package videos

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// ErrInvalidFilter wraps every FilterSpec validation failure.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter is a validated FilterSpec. The zero Filter passes every record.
type Filter struct {
	duration  *[2]int
	dates     *[2]string // YYYY-MM-DD, compared lexically
	minViews  *int64
	platforms map[engine.Platform]struct{}
}

// NewFilter validates spec. Ranges must have exactly two ordered, non-negative bounds;
// dates must be YYYY-MM-DD; platforms must be supported tags.
func NewFilter(spec engine.FilterSpec) (Filter, error) {
	var f Filter

	if spec.DurationRange != nil {
		if len(spec.DurationRange) != 2 {
			return Filter{}, fmt.Errorf("%w: duration_range needs [min, max], got %d values", ErrInvalidFilter, len(spec.DurationRange))
		}
		lo, hi := spec.DurationRange[0], spec.DurationRange[1]
		if lo < 0 || hi < 0 {
			return Filter{}, fmt.Errorf("%w: duration_range bounds must be non-negative", ErrInvalidFilter)
		}
		if lo > hi {
			return Filter{}, fmt.Errorf("%w: duration_range min %d > max %d", ErrInvalidFilter, lo, hi)
		}
		f.duration = &[2]int{lo, hi}
	}

	if spec.UploadDateRange != nil {
		if len(spec.UploadDateRange) != 2 {
			return Filter{}, fmt.Errorf("%w: upload_date_range needs [start, end], got %d values", ErrInvalidFilter, len(spec.UploadDateRange))
		}
		var bounds [2]string
		for i, raw := range spec.UploadDateRange {
			t, err := time.Parse(time.DateOnly, raw)
			if err != nil {
				return Filter{}, fmt.Errorf("%w: upload_date_range %q is not YYYY-MM-DD", ErrInvalidFilter, raw)
			}
			bounds[i] = t.Format(time.DateOnly)
		}
		if bounds[0] > bounds[1] {
			return Filter{}, fmt.Errorf("%w: upload_date_range start %s after end %s", ErrInvalidFilter, bounds[0], bounds[1])
		}
		f.dates = &bounds
	}

	if spec.MinViews != nil {
		if *spec.MinViews < 0 {
			return Filter{}, fmt.Errorf("%w: min_views must be non-negative", ErrInvalidFilter)
		}
		v := *spec.MinViews
		f.minViews = &v
	}

	if len(spec.Platforms) > 0 {
		f.platforms = make(map[engine.Platform]struct{}, len(spec.Platforms))
		for _, tag := range spec.Platforms {
			p := engine.ParsePlatform(tag)
			if !slices.Contains(engine.AllPlatforms, p) {
				return Filter{}, fmt.Errorf("%w: unknown platform %q", ErrInvalidFilter, tag)
			}
			f.platforms[p] = struct{}{}
		}
	}

	return f, nil
}

// Match reports whether rec satisfies every present predicate.
// Unknown duration (0) and unknown upload date fail the respective range predicates.
func (f Filter) Match(rec engine.VideoRecord) bool {
	if f.duration != nil && (rec.DurationSeconds <= 0 || rec.DurationSeconds < f.duration[0] || rec.DurationSeconds > f.duration[1]) {
		return false
	}
	if f.dates != nil && (rec.UploadDate == "" || rec.UploadDate < f.dates[0] || rec.UploadDate > f.dates[1]) {
		return false
	}
	if f.minViews != nil && rec.ViewCount < *f.minViews {
		return false
	}
	if f.platforms != nil {
		if _, ok := f.platforms[rec.Platform]; !ok {
			return false
		}
	}
	return true
}

// Apply returns the records that match, in their original order.
// The input slice and its records are not modified.
func (f Filter) Apply(records []engine.VideoRecord) []engine.VideoRecord {
	out := make([]engine.VideoRecord, 0, len(records))
	for _, rec := range records {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// ApplyFilter validates spec and applies it to records.
func ApplyFilter(records []engine.VideoRecord, spec engine.FilterSpec) ([]engine.VideoRecord, error) {
	f, err := NewFilter(spec)
	if err != nil {
		return nil, err
	}
	return f.Apply(records), nil
}
