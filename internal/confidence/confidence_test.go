package confidence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-5))
	assert.Equal(t, 100.0, Clamp(120))
	assert.Equal(t, 42.0, Clamp(42))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
}

func TestEffective(t *testing.T) {
	assert.InDelta(t, 95, Effective(95, 1), 1e-9)
	assert.InDelta(t, 48, Effective(80, 0.6), 1e-9)
	assert.InDelta(t, 0, Effective(80, -1), 1e-9)
	assert.InDelta(t, 100, Effective(150, 2), 1e-9)
}

func TestBlendDefaultWeight(t *testing.T) {
	got := Blend(90, []float64{80, 100}, DefaultExtractionWeight)
	assert.InDelta(t, 90, got, 1e-9)

	got = Blend(80, []float64{40}, DefaultExtractionWeight)
	assert.InDelta(t, 60, got, 1e-9)
}

func TestBlendNoFields(t *testing.T) {
	assert.InDelta(t, 47.5, Blend(95, nil, 0.5), 1e-9)
}

func TestBlendInvalidWeight(t *testing.T) {
	assert.InDelta(t, Blend(80, []float64{40}, 0.5), Blend(80, []float64{40}, 3), 1e-9)
	assert.InDelta(t, Blend(80, []float64{40}, 0.5), Blend(80, []float64{40}, math.NaN()), 1e-9)
}

func TestBlendCustomWeight(t *testing.T) {
	assert.InDelta(t, 80, Blend(80, []float64{0}, 1), 1e-9)
	assert.InDelta(t, 40, Blend(80, []float64{40}, 0), 1e-9)
}

func TestScore(t *testing.T) {
	// Clean labeled fields on a 95-confidence tier.
	got := Score(95, 1, []float64{StrengthExact, StrengthExact}, DefaultExtractionWeight)
	assert.InDelta(t, 95, got, 1e-9)

	// Quality penalty lowers both halves of the blend.
	penalized := Score(95, 0.6, []float64{StrengthExact, StrengthExact}, DefaultExtractionWeight)
	assert.Less(t, penalized, got)
}

func TestScoreMonotonicInMultiplier(t *testing.T) {
	strengths := []float64{StrengthExact, StrengthLabeled, StrengthHeuristic}
	prev := 101.0
	for m := 1.0; m >= 0; m -= 0.1 {
		s := Score(90, m, strengths, DefaultExtractionWeight)
		assert.LessOrEqual(t, s, prev)
		prev = s
	}
}

func TestCap(t *testing.T) {
	assert.Equal(t, 30.0, Cap(55, DefaultFallbackCeiling))
	assert.Equal(t, 12.0, Cap(12, DefaultFallbackCeiling))
}

func TestDocumentQuality(t *testing.T) {
	assert.InDelta(t, 100, DocumentQuality(1, 3), 1e-9)
	assert.InDelta(t, 80, DocumentQuality(1, 0), 1e-9)
	assert.InDelta(t, 0, DocumentQuality(0.1, 0), 1e-9)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 50, Mean([]float64{0, 100}), 1e-9)
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 72.3, Round1(72.34))
}
