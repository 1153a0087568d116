// Package assist fills gaps the pattern parser left by asking Claude to
// structure the report text. It only ever adds values; anything the parser
// located is kept as is.
package assist

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/sells-group/credit-extract/internal/config"
	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/pkg/anthropic"
)

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 4096
	defaultTimeout   = 60 * time.Second
	cacheTTL         = "5m"
)

// Result reports what one Refine call did. Usage is set whenever the model
// answered, even when the answer was rejected.
type Result struct {
	Model   string
	Usage   anthropic.TokenUsage
	Filled  int
	Skipped bool
	Err     error
}

// Refiner is safe for concurrent use.
type Refiner struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	schema    *jsonschema.Schema
	system    []anthropic.SystemBlock
}

// New creates a Refiner from the assist settings. Zero settings fall back to
// defaults.
func New(client anthropic.Client, cfg config.AssistConfig) (*Refiner, error) {
	if client == nil {
		return nil, eris.New("assist: client is required")
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	r := &Refiner{
		client:    client,
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		timeout:   config.Timeout(cfg.TimeoutSecs),
		schema:    schema,
		system:    anthropic.CachedSystem(systemPrompt(), cacheTTL),
	}
	if r.model == "" {
		r.model = defaultModel
	}
	if r.maxTokens <= 0 {
		r.maxTokens = defaultMaxTokens
	}
	if r.timeout == 0 {
		r.timeout = defaultTimeout
	}
	return r, nil
}

// Incomplete reports whether data is missing something the model could
// supply: the consumer's name, a score, or any account.
func Incomplete(d *model.StructuredCreditData) bool {
	return d.PersonalInfo.Name == nil || d.CreditScore.Score == nil || len(d.Accounts) == 0
}

// Refine asks the model for the report's contents and merges its answer into
// the null or empty parts of data at inferred strength. Failures leave data
// untouched and are logged, never returned to the caller's control flow.
func (r *Refiner) Refine(ctx context.Context, text string, data *model.StructuredCreditData, multiplier float64) Result {
	res := Result{Model: r.model}
	log := zap.L().With(zap.String("model", r.model))

	if !Incomplete(data) {
		res.Skipped = true
		log.Debug("assist: parse complete, skipping")
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	temp := 0.0
	start := time.Now()
	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       r.model,
		MaxTokens:   r.maxTokens,
		System:      r.system,
		Messages:    []anthropic.Message{{Role: "user", Content: redact(text)}},
		Temperature: &temp,
	})
	if err != nil {
		res.Err = eris.Wrap(err, "assist: request")
		log.Warn("assist: request failed", zap.Error(res.Err))
		return res
	}
	res.Usage = resp.Usage

	if resp.StopReason == "max_tokens" {
		res.Err = eris.New("assist: response truncated at max tokens")
		log.Warn("assist: response rejected", zap.Error(res.Err))
		return res
	}

	raw := []byte(cleanJSON(resp.Text()))
	if err := validate(r.schema, raw); err != nil {
		res.Err = err
		log.Warn("assist: response rejected", zap.Error(err))
		return res
	}

	var s suggestion
	if err := json.Unmarshal(raw, &s); err != nil {
		res.Err = eris.Wrap(err, "assist: decode suggestion")
		log.Warn("assist: response rejected", zap.Error(res.Err))
		return res
	}

	res.Filled = merge(data, &s, multiplier)
	log.Info("assist: refined",
		zap.Int("filled", res.Filled),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return res
}
