package videos

import (
	"testing"
	"time"

	"github.com/anatolykoptev/go_video/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestScore_Bounds(t *testing.T) {
	s, err := NewScorer(DefaultWeights)
	require.NoError(t, err)

	tests := []struct {
		name string
		rec  engine.VideoRecord
	}{
		{"empty", engine.VideoRecord{}},
		{"perfect", engine.VideoRecord{
			Title:           "python tutorial",
			Description:     "python tutorial",
			ViewCount:       1 << 60,
			UploadDate:      "2026-03-01",
			DurationSeconds: 600,
		}},
		{"future date", engine.VideoRecord{Title: "x", UploadDate: "2030-01-01"}},
		{"huge duration", engine.VideoRecord{DurationSeconds: 1 << 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.rec, "python tutorial", fixedNow)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	s, _ := NewScorer(DefaultWeights)
	rec := engine.VideoRecord{
		Title:           "Learn Python fast",
		Description:     "a python tutorial for beginners",
		ViewCount:       12345,
		UploadDate:      "2026-02-20",
		DurationSeconds: 420,
	}
	a := s.Score(rec, "python tutorial", fixedNow)
	for range 10 {
		assert.Equal(t, a, s.Score(rec, "python tutorial", fixedNow))
	}
}

func TestScore_TitleMatchRanksHigher(t *testing.T) {
	s, _ := NewScorer(DefaultWeights)
	match := engine.VideoRecord{Title: "Python Tutorial for Beginners"}
	miss := engine.VideoRecord{Title: "Cooking pasta at home"}
	assert.Greater(t, s.Score(match, "python tutorial", fixedNow), s.Score(miss, "python tutorial", fixedNow))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"python", "tutorial", "3.12"}, tokenize("  Python, TUTORIAL!  (3.12) "))
	assert.Empty(t, tokenize(" ... "))
}

func TestTitleScore(t *testing.T) {
	q := uniqueTokens("python tutorial")
	assert.Equal(t, 0.0, titleScore("", "python tutorial", q))
	assert.InDelta(t, 0.5, titleScore("python basics", "python tutorial", q), 1e-9)
	assert.InDelta(t, 1.0, titleScore("Python Tutorial 2026", "python tutorial", q), 1e-9)
	assert.InDelta(t, 1.0, titleScore("tutorial on python", "python tutorial", q), 1e-9)
	// phrase bonus alone, no token overlap
	assert.InDelta(t, TitlePhraseBonus, titleScore("golang rocks", "go", uniqueTokens("go")), 1e-9)
}

func TestDescriptionScore(t *testing.T) {
	q := uniqueTokens("python tutorial")
	assert.Equal(t, 0.0, descriptionScore("", q))
	// overlap 1, density 2/4
	assert.InDelta(t, 0.7+0.3*0.5, descriptionScore("python tutorial for beginners", q), 1e-9)
}

func TestPopularityScore(t *testing.T) {
	assert.Equal(t, 0.0, popularityScore(0))
	assert.InDelta(t, 0.75, popularityScore(ReferenceViews), 1e-9)
	assert.Less(t, popularityScore(100), popularityScore(1000))
	assert.LessOrEqual(t, popularityScore(1<<62), 1.0)
}

func TestRecencyScore(t *testing.T) {
	assert.Equal(t, 0.0, recencyScore("", fixedNow))
	assert.Equal(t, 0.0, recencyScore("garbage", fixedNow))
	assert.InDelta(t, 1.0, recencyScore("2026-03-01", fixedNow), 1e-9)
	assert.InDelta(t, 1.0, recencyScore("2027-01-01", fixedNow), 1e-9)
	assert.InDelta(t, 0.95, recencyScore("2026-02-28", fixedNow), 1e-9)
}

func TestDurationScore(t *testing.T) {
	tests := []struct {
		seconds int
		want    float64
	}{
		{0, 0},
		{-5, 0},
		{150, 0.5},
		{300, 1},
		{1800, 1},
		{2700, 0.5},
		{3600, 0},
		{7200, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, durationScore(tt.seconds), 1e-9, "seconds=%d", tt.seconds)
	}
}

func TestWeights(t *testing.T) {
	require.NoError(t, DefaultWeights.Validate())

	_, err := WeightsFromSlice([]float64{0.5, 0.5})
	assert.Error(t, err)

	_, err = WeightsFromSlice([]float64{0.5, 0.5, 0.5, 0, 0})
	assert.Error(t, err)

	_, err = WeightsFromSlice([]float64{1.2, -0.2, 0, 0, 0})
	assert.Error(t, err)

	w, err := WeightsFromSlice([]float64{1, 0, 0, 0, 0})
	require.NoError(t, err)
	s, err := NewScorer(w)
	require.NoError(t, err)
	assert.Equal(t, w, s.Weights())
	assert.InDelta(t, 1.0, s.Score(engine.VideoRecord{Title: "go"}, "go", fixedNow), 1e-9)
}
