package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/credit-extract/internal/config"
	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/pkg/anthropic"
)

func testRates() Rates {
	return Rates{
		DocumentAIPerPage: 0.0015,
		VisionPerPage:     0.001,
		Anthropic: map[string]ModelRate{
			"haiku": {
				Input: 0.80, Output: 4.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"sonnet": {
				Input: 3.00, Output: 15.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
		},
	}
}

func TestClaude(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name  string
		model string
		usage anthropic.TokenUsage
		want  float64
	}{
		{
			name:  "haiku simple",
			model: "haiku",
			usage: anthropic.TokenUsage{InputTokens: 1000000, OutputTokens: 100000},
			want:  0.80 + 0.40,
		},
		{
			name:  "haiku with cache",
			model: "haiku",
			usage: anthropic.TokenUsage{
				InputTokens: 500000, OutputTokens: 50000,
				CacheCreationInputTokens: 200000, CacheReadInputTokens: 300000,
			},
			// in: 0.40, out: 0.20, cw: 0.2 * 0.80 * 1.25 = 0.20, cr: 0.3 * 0.80 * 0.1 = 0.024
			want: 0.40 + 0.20 + 0.20 + 0.024,
		},
		{
			name:  "sonnet",
			model: "sonnet",
			usage: anthropic.TokenUsage{InputTokens: 1000000, OutputTokens: 100000},
			want:  3.00 + 1.50,
		},
		{
			name:  "unknown model returns 0",
			model: "unknown",
			usage: anthropic.TokenUsage{InputTokens: 1000000, OutputTokens: 1000000},
			want:  0,
		},
		{
			name:  "zero tokens returns 0",
			model: "haiku",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.Claude(tt.model, tt.usage), 0.001)
		})
	}
}

func TestTier(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name   string
		method model.Method
		pages  int
		want   float64
	}{
		{"documentai three pages", model.MethodStructuredDocument, 3, 0.0045},
		{"vision one page", model.MethodGeneralOCR, 1, 0.001},
		{"unknown page count billed as one", model.MethodGeneralOCR, 0, 0.001},
		{"basic ocr free", model.MethodBasicImageOCR, 4, 0},
		{"fallback free", model.MethodFallback, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.Tier(tt.method, tt.pages), 0.00001)
		})
	}
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	rates := DefaultRates()

	assert.Contains(t, rates.Anthropic, "claude-haiku-4-5-20251001")
	assert.Contains(t, rates.Anthropic, "claude-sonnet-4-5-20250929")
	assert.Positive(t, rates.DocumentAIPerPage)
	assert.Positive(t, rates.VisionPerPage)
}

func TestRatesFromConfig(t *testing.T) {
	t.Parallel()

	r := RatesFromConfig(config.CostsConfig{})
	assert.Equal(t, DefaultRates(), r)

	r = RatesFromConfig(config.CostsConfig{
		VisionPerPage: 0.002,
		Anthropic: map[string]config.ModelPricing{
			"custom": {Input: 2, Output: 8, CacheWriteMul: 1.25, CacheReadMul: 0.1},
		},
	})
	assert.InDelta(t, 0.002, r.VisionPerPage, 1e-9)
	assert.InDelta(t, 0.0015, r.DocumentAIPerPage, 1e-9)
	assert.Contains(t, r.Anthropic, "claude-haiku-4-5-20251001")
	assert.Equal(t, ModelRate{Input: 2, Output: 8, CacheWriteMul: 1.25, CacheReadMul: 0.1}, r.Anthropic["custom"])
}
