package model

// ExtractionResult is the raw output of a single tier engine.
type ExtractionResult struct {
	Text             string  `json:"text"`
	PageCount        int     `json:"page_count"`
	NativeConfidence float64 `json:"native_confidence"`
	Method           Method  `json:"method"`
}

// Quality artifact flags.
const (
	FlagHighSymbolDensity = "high-symbol-density"
	FlagOCRSubstitution   = "ocr-substitution"
	FlagMixedScript       = "mixed-script-corruption"
	FlagGarbled           = "garbled-characters"
	FlagEmpty             = "empty-text"
)

// QualityAdjustment is the multiplicative penalty derived from text
// corruption heuristics. Multiplier is always within [0,1].
type QualityAdjustment struct {
	Multiplier float64  `json:"multiplier"`
	Flags      []string `json:"flags"`
}

// HasFlag reports whether the adjustment carries the given flag.
func (q QualityAdjustment) HasFlag(flag string) bool {
	for _, f := range q.Flags {
		if f == flag {
			return true
		}
	}
	return false
}
