// Package confidence holds the single blending formula used to score
// extracted fields and whole outcomes on a 0-100 scale.
package confidence

import "math"

// DefaultExtractionWeight is the share of the overall score taken from the
// effective tier confidence; the rest comes from parse quality.
const DefaultExtractionWeight = 0.5

// DefaultFallbackCeiling caps every score produced from synthetic text.
const DefaultFallbackCeiling = 30.0

// Match strengths for a recognized field, by how unambiguous the match was.
const (
	StrengthExact     = 95.0 // labeled field in its canonical form, e.g. "SSN: 123-45-6789"
	StrengthLabeled   = 85.0 // labeled but loosely formatted
	StrengthInferred  = 60.0 // derived from context or another field
	StrengthHeuristic = 40.0 // shape-only guess with no label
)

// noAccountsPenalty is subtracted from document quality when no tradelines
// were recognized.
const noAccountsPenalty = 20.0

// Clamp bounds v to [0,100]. NaN maps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Effective applies the quality multiplier to a tier's native confidence.
func Effective(native, multiplier float64) float64 {
	return Clamp(Clamp(native) * clampUnit(multiplier))
}

// Field scores one recognized field: its match strength discounted by text
// quality.
func Field(strength, multiplier float64) float64 {
	return Clamp(Clamp(strength) * clampUnit(multiplier))
}

// Blend combines the effective extraction confidence with the mean of the
// recognized per-field confidences:
//
//	overall = weight*effective + (1-weight)*mean(fields)
//
// With no recognized fields the parse term contributes 0. Weight outside
// [0,1] falls back to DefaultExtractionWeight.
func Blend(effective float64, fields []float64, weight float64) float64 {
	if weight < 0 || weight > 1 || math.IsNaN(weight) {
		weight = DefaultExtractionWeight
	}
	return Clamp(weight*Clamp(effective) + (1-weight)*Mean(fields))
}

// Score is the full computation from raw inputs: native tier confidence,
// quality multiplier, and the match strengths of every recognized field.
func Score(native, multiplier float64, strengths []float64, weight float64) float64 {
	fields := make([]float64, len(strengths))
	for i, s := range strengths {
		fields[i] = Field(s, multiplier)
	}
	return Blend(Effective(native, multiplier), fields, weight)
}

// Mean averages clamped values; an empty slice yields 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += Clamp(v)
	}
	return sum / float64(len(values))
}

// Cap limits v to ceiling, for synthetic results.
func Cap(v, ceiling float64) float64 {
	return math.Min(Clamp(v), Clamp(ceiling))
}

// DocumentQuality converts the quality multiplier to a 0-100 score,
// penalized when the report yielded no accounts.
func DocumentQuality(multiplier float64, accounts int) float64 {
	q := clampUnit(multiplier) * 100
	if accounts == 0 {
		q -= noAccountsPenalty
	}
	return Clamp(q)
}

// Round1 rounds to one decimal place for presentation.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
