// Package quality scores raw extracted text for corruption signals and turns
// them into a confidence multiplier.
package quality

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/credit-extract/internal/model"
)

// Penalty factors applied per detected artifact.
const (
	symbolDensityPenalty = 0.7
	garbledPenalty       = 0.6
	mixedScriptPenalty   = 0.8
	substitutionStep     = 0.1
	substitutionFloor    = 0.5

	garbledRuneThreshold = 0.05
	singleCharThreshold  = 0.4
)

// Config tunes the assessor thresholds.
type Config struct {
	SymbolDensityThreshold float64 `yaml:"symbol_density_threshold" mapstructure:"symbol_density_threshold"`
	EmptyFloor             float64 `yaml:"empty_floor" mapstructure:"empty_floor"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		SymbolDensityThreshold: 0.15,
		EmptyFloor:             0.1,
	}
}

// Assessor applies the text heuristics. It holds only configuration and is
// safe for concurrent use.
type Assessor struct {
	cfg Config
}

// NewAssessor creates an Assessor; zero fields fall back to defaults.
func NewAssessor(cfg Config) *Assessor {
	def := DefaultConfig()
	if cfg.SymbolDensityThreshold <= 0 {
		cfg.SymbolDensityThreshold = def.SymbolDensityThreshold
	}
	if cfg.EmptyFloor <= 0 || cfg.EmptyFloor > 1 {
		cfg.EmptyFloor = def.EmptyFloor
	}
	return &Assessor{cfg: cfg}
}

var defaultAssessor = NewAssessor(DefaultConfig())

// Assess scores text with the default thresholds.
func Assess(text string) model.QualityAdjustment {
	return defaultAssessor.Assess(text)
}

// Assess returns the combined multiplier and the artifact flags found in text.
// Each heuristic contributes an independent factor; the product is clamped to
// [0,1]. Empty text short-circuits to the configured floor.
func (a *Assessor) Assess(text string) model.QualityAdjustment {
	if strings.TrimSpace(text) == "" {
		return model.QualityAdjustment{
			Multiplier: a.cfg.EmptyFloor,
			Flags:      []string{model.FlagEmpty},
		}
	}

	text = norm.NFKC.String(text)
	mult := 1.0
	flags := []string{}

	if SymbolDensity(text) > a.cfg.SymbolDensityThreshold {
		mult *= symbolDensityPenalty
		flags = append(flags, model.FlagHighSymbolDensity)
	}

	if n := len(SubstitutionTokens(text)); n > 0 {
		factor := 1 - substitutionStep*float64(n)
		if factor < substitutionFloor {
			factor = substitutionFloor
		}
		mult *= factor
		flags = append(flags, model.FlagOCRSubstitution)
	}

	if garbageRatio(text) > garbledRuneThreshold || singleCharRatio(text) > singleCharThreshold {
		mult *= garbledPenalty
		flags = append(flags, model.FlagGarbled)
	}

	if hasMixedScript(text) {
		mult *= mixedScriptPenalty
		flags = append(flags, model.FlagMixedScript)
	}

	return model.QualityAdjustment{Multiplier: clamp01(mult), Flags: flags}
}

// SymbolDensity is the share of runes that are neither letters, digits,
// punctuation nor whitespace.
func SymbolDensity(text string) float64 {
	total, symbols := 0, 0
	for _, r := range text {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSpace(r) {
			continue
		}
		symbols++
	}
	if total == 0 {
		return 0
	}
	return float64(symbols) / float64(total)
}

// leet maps digits commonly confused with letters by OCR.
var leet = map[rune]bool{'0': true, '1': true, '3': true, '4': true, '5': true, '7': true, '8': true}

// SubstitutionTokens returns word-shaped tokens in which a look-alike digit
// sits between letters, such as "R3p0rt". Identifiers like "XXXX1234", "2nd"
// or "A1B2" do not qualify: the token must be mostly letters, contain a
// lowercase letter, and every digit must be a look-alike.
func SubstitutionTokens(text string) []string {
	var out []string
	for _, raw := range strings.Fields(text) {
		tok := strings.TrimFunc(raw, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if isSubstitution(tok) {
			out = append(out, tok)
		}
	}
	return out
}

func isSubstitution(tok string) bool {
	rs := []rune(tok)
	if len(rs) < 3 {
		return false
	}
	letters, digits, lower := 0, 0, false
	interleaved := false
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r):
			letters++
			if unicode.IsLower(r) {
				lower = true
			}
		case unicode.IsDigit(r):
			if !leet[r] {
				return false
			}
			digits++
			if i > 0 && i < len(rs)-1 && unicode.IsLetter(rs[i-1]) && unicode.IsLetter(rs[i+1]) {
				interleaved = true
			}
		default:
			return false
		}
	}
	return interleaved && lower && digits > 0 && letters >= 2*digits
}

// garbageRatio is the share of private-use, replacement and control runes.
func garbageRatio(text string) float64 {
	total, bad := 0, 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			bad++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}

func isGarbageRune(r rune) bool {
	switch {
	case r >= 0xE000 && r <= 0xF8FF:
		return true
	case r == unicode.ReplacementChar:
		return true
	case r < 0x20 && r != '\n' && r != '\r' && r != '\t':
		return true
	}
	return false
}

// singleCharRatio flags text whose leading words are mostly stray single
// characters, a common symptom of broken layout extraction.
func singleCharRatio(text string) float64 {
	words := strings.Fields(text)
	if len(words) < 20 {
		return 0
	}
	sample := min(50, len(words))
	single := 0
	for _, w := range words[:sample] {
		if len([]rune(w)) != 1 {
			continue
		}
		switch w {
		case ".", "-", ":", "X", "x", "$", "#", "|":
			continue
		}
		single++
	}
	return float64(single) / float64(sample)
}

// hasMixedScript reports a token that mixes Latin letters with Cyrillic or
// Greek look-alikes.
func hasMixedScript(text string) bool {
	for _, tok := range strings.Fields(text) {
		latin, other := false, false
		for _, r := range tok {
			switch {
			case unicode.Is(unicode.Latin, r):
				latin = true
			case unicode.Is(unicode.Cyrillic, r), unicode.Is(unicode.Greek, r):
				other = true
			}
		}
		if latin && other {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
