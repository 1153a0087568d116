package cost

import (
	"github.com/sells-group/credit-extract/internal/config"
	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/pkg/anthropic"
)

// Rates holds per-provider pricing configuration.
type Rates struct {
	DocumentAIPerPage float64              `yaml:"documentai_per_page" mapstructure:"documentai_per_page"`
	VisionPerPage     float64              `yaml:"vision_per_page" mapstructure:"vision_per_page"`
	Anthropic         map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Tier returns the cost of running a tier over the given number of pages.
// Local tiers are free. A document with an unknown page count is billed as
// one page.
func (c *Calculator) Tier(method model.Method, pages int) float64 {
	if pages < 1 {
		pages = 1
	}
	switch method {
	case model.MethodStructuredDocument:
		return float64(pages) * c.rates.DocumentAIPerPage
	case model.MethodGeneralOCR:
		return float64(pages) * c.rates.VisionPerPage
	default:
		return 0
	}
}

// Claude computes the cost for a Claude API call. Unknown models cost 0.
func (c *Calculator) Claude(modelName string, usage anthropic.TokenUsage) float64 {
	rate, ok := c.rates.Anthropic[modelName]
	if !ok {
		return 0
	}

	inCost := (float64(usage.InputTokens) / 1e6) * rate.Input
	outCost := (float64(usage.OutputTokens) / 1e6) * rate.Output
	cwCost := (float64(usage.CacheCreationInputTokens) / 1e6) * rate.Input * rate.CacheWriteMul
	crCost := (float64(usage.CacheReadInputTokens) / 1e6) * rate.Input * rate.CacheReadMul

	return inCost + outCost + cwCost + crCost
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		DocumentAIPerPage: 0.0015,
		VisionPerPage:     0.0015,
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001": {
				Input: 1.00, Output: 5.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"claude-sonnet-4-5-20250929": {
				Input: 3.00, Output: 15.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
		},
	}
}

// RatesFromConfig overlays configured prices on DefaultRates. Zero per-page
// prices keep the default; configured models replace or extend the table.
func RatesFromConfig(cfg config.CostsConfig) Rates {
	r := DefaultRates()
	if cfg.DocumentAIPerPage > 0 {
		r.DocumentAIPerPage = cfg.DocumentAIPerPage
	}
	if cfg.VisionPerPage > 0 {
		r.VisionPerPage = cfg.VisionPerPage
	}
	for name, p := range cfg.Anthropic {
		r.Anthropic[name] = ModelRate{
			Input:         p.Input,
			Output:        p.Output,
			CacheWriteMul: p.CacheWriteMul,
			CacheReadMul:  p.CacheReadMul,
		}
	}
	return r
}
