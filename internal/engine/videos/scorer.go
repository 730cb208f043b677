package videos

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// Scoring constants. One weighting scheme is used throughout; see DefaultWeights.
const (
	TitlePhraseBonus   = 0.2       // added when the whole query appears in the title
	DescOverlapShare   = 0.7       // description = 0.7*overlap + 0.3*density
	DescDensityShare   = 0.3
	ReferenceViews     = 1_000_000 // popularity reaches 0.75 at this many views
	RecencyDecayPerDay = 0.95
	IdealDurationMin   = 300  // seconds
	IdealDurationMax   = 1800 // seconds
)

// Weights are the shares of each sub-score in the final relevance score. They sum to 1.
type Weights struct {
	Title       float64 `json:"title"`
	Description float64 `json:"description"`
	Popularity  float64 `json:"popularity"`
	Recency     float64 `json:"recency"`
	Duration    float64 `json:"duration"`
}

// DefaultWeights favour text match over engagement, and recency over duration.
var DefaultWeights = Weights{
	Title:       0.40,
	Description: 0.20,
	Popularity:  0.15,
	Recency:     0.15,
	Duration:    0.10,
}

// WeightsFromSlice builds Weights from [title, description, popularity, recency, duration].
func WeightsFromSlice(w []float64) (Weights, error) {
	if len(w) != 5 {
		return Weights{}, fmt.Errorf("score weights: want 5 values, got %d", len(w))
	}
	out := Weights{Title: w[0], Description: w[1], Popularity: w[2], Recency: w[3], Duration: w[4]}
	return out, out.Validate()
}

// Validate checks that weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	parts := []float64{w.Title, w.Description, w.Popularity, w.Recency, w.Duration}
	sum := 0.0
	for _, p := range parts {
		if p < 0 || math.IsNaN(p) {
			return errors.New("score weights: negative or NaN weight")
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("score weights: sum to %.4f, want 1", sum)
	}
	return nil
}

// Scorer computes relevance scores. It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer returns a Scorer with validated weights.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// Weights returns the scorer's weighting scheme.
func (s *Scorer) Weights() Weights { return s.weights }

// Score returns the relevance of rec to query in [0,1]. now anchors recency so the
// result is a pure function of its arguments.
func (s *Scorer) Score(rec engine.VideoRecord, query string, now time.Time) float64 {
	qTokens := uniqueTokens(query)
	w := s.weights
	total := w.Title*titleScore(rec.Title, query, qTokens) +
		w.Description*descriptionScore(rec.Description, qTokens) +
		w.Popularity*popularityScore(rec.ViewCount) +
		w.Recency*recencyScore(rec.UploadDate, now) +
		w.Duration*durationScore(rec.DurationSeconds)
	return clamp01(total)
}

// tokenize lowercases and whitespace-splits s, trimming punctuation around each token.
func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) })
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func uniqueTokens(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range tokenize(s) {
		set[t] = struct{}{}
	}
	return set
}

// overlap is |query ∩ text| / |query|.
func overlap(qTokens, textTokens map[string]struct{}) float64 {
	if len(qTokens) == 0 {
		return 0
	}
	hit := 0
	for t := range qTokens {
		if _, ok := textTokens[t]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(qTokens))
}

func titleScore(title, query string, qTokens map[string]struct{}) float64 {
	if strings.TrimSpace(title) == "" || len(qTokens) == 0 {
		return 0
	}
	score := overlap(qTokens, uniqueTokens(title))
	phrase := strings.ToLower(strings.TrimSpace(query))
	if phrase != "" && strings.Contains(strings.ToLower(title), phrase) {
		score += TitlePhraseBonus
	}
	return math.Min(score, 1)
}

func descriptionScore(desc string, qTokens map[string]struct{}) float64 {
	tokens := tokenize(desc)
	if len(tokens) == 0 || len(qTokens) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(tokens))
	matched := 0
	for _, t := range tokens {
		set[t] = struct{}{}
		if _, ok := qTokens[t]; ok {
			matched++
		}
	}
	density := float64(matched) / float64(len(tokens))
	return DescOverlapShare*overlap(qTokens, set) + DescDensityShare*density
}

func popularityScore(views int64) float64 {
	if views <= 0 {
		return 0
	}
	ratio := float64(views) / ReferenceViews
	return 0.5 + 0.5*(1-1/(1+ratio))
}

func recencyScore(uploadDate string, now time.Time) float64 {
	if uploadDate == "" {
		return 0
	}
	t, err := time.Parse(time.DateOnly, uploadDate)
	if err != nil {
		return 0
	}
	days := math.Floor(now.Sub(t).Hours() / 24)
	if days < 0 {
		days = 0 // future-dated uploads count as fresh
	}
	return math.Pow(RecencyDecayPerDay, days)
}

// durationScore is 1 inside the ideal window, rises linearly from 0 below it
// and falls linearly to 0 at twice its upper bound.
func durationScore(seconds int) float64 {
	switch {
	case seconds <= 0:
		return 0
	case seconds < IdealDurationMin:
		return float64(seconds) / IdealDurationMin
	case seconds <= IdealDurationMax:
		return 1
	default:
		over := float64(seconds-IdealDurationMax) / IdealDurationMax
		return math.Max(0, 1-over)
	}
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
