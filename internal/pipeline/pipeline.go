// Package pipeline is the single entry point callers use to turn an uploaded
// document into an ExtractionOutcome.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/credit-extract/internal/assist"
	"github.com/sells-group/credit-extract/internal/confidence"
	"github.com/sells-group/credit-extract/internal/cost"
	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/internal/parser"
	"github.com/sells-group/credit-extract/internal/quality"
	"github.com/sells-group/credit-extract/internal/waterfall"
)

// Extractor runs the tier cascade. *waterfall.Orchestrator implements it.
type Extractor interface {
	Extract(ctx context.Context, doc model.DocumentInput) *waterfall.Result
}

// Refiner fills parse gaps after the pattern parser. *assist.Refiner
// implements it.
type Refiner interface {
	Refine(ctx context.Context, text string, data *model.StructuredCreditData, multiplier float64) assist.Result
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRefiner enables refinement of incomplete parses.
func WithRefiner(r Refiner) Option {
	return func(p *Pipeline) { p.refiner = r }
}

// WithCostCalculator enables cost attribution in the outcome metadata.
func WithCostCalculator(c *cost.Calculator) Option {
	return func(p *Pipeline) { p.costs = c }
}

// WithExtractionWeight sets the share of the overall confidence taken from
// the effective tier confidence.
func WithExtractionWeight(w float64) Option {
	return func(p *Pipeline) { p.weight = w }
}

// WithFallbackCeiling sets the highest confidence a synthetic outcome may
// report.
func WithFallbackCeiling(c float64) Option {
	return func(p *Pipeline) { p.ceiling = c }
}

// WithNow overrides the clock used for processing time.
func WithNow(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline wires the cascade, the quality assessor and the parser. It holds
// no per-request state and is safe for concurrent use.
type Pipeline struct {
	extractor Extractor
	parser    *parser.Parser
	assessor  *quality.Assessor
	refiner   Refiner
	costs     *cost.Calculator
	weight    float64
	ceiling   float64
	now       func() time.Time
}

// New creates a Pipeline. A nil parser or assessor uses the defaults.
func New(ext Extractor, prs *parser.Parser, assessor *quality.Assessor, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: ext,
		parser:    prs,
		assessor:  assessor,
		weight:    confidence.DefaultExtractionWeight,
		ceiling:   confidence.DefaultFallbackCeiling,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.parser == nil {
		p.parser = parser.New(parser.WithExtractionWeight(p.weight))
	}
	if p.assessor == nil {
		p.assessor = quality.NewAssessor(quality.DefaultConfig())
	}
	return p
}

// ProcessDocument extracts, assesses and parses doc. It never fails: an
// unreadable document produces a fallback outcome with low confidence.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc model.DocumentInput) *model.ExtractionOutcome {
	start := p.now()
	log := zap.L().With(zap.String("filename", doc.Filename()), zap.Int("size", doc.Size()))

	res := p.extractor.Extract(ctx, doc)
	ext := res.Extraction

	q := p.assessor.Assess(ext.Text)
	data := p.parser.Parse(ext.Text, ext.Method, q, ext.NativeConfidence)
	synthetic := ext.Method == model.MethodFallback || data.ExtractionMetadata.Synthetic

	var costUSD float64
	if p.costs != nil {
		costUSD = p.costs.Tier(ext.Method, ext.PageCount)
	}

	if p.refiner != nil && !synthetic {
		r := p.refiner.Refine(ctx, ext.Text, data, q.Multiplier)
		if !r.Skipped && p.costs != nil {
			c := p.costs.Claude(r.Model, r.Usage)
			r.Usage.LogCost(r.Model, "assist", c)
			costUSD += c
		}
	}

	m := &data.ExtractionMetadata
	m.ProcessingMethod = ext.Method
	m.Synthetic = synthetic
	m.DocumentQuality = confidence.DocumentQuality(q.Multiplier, len(data.Accounts))
	overall := confidence.Blend(
		confidence.Effective(ext.NativeConfidence, q.Multiplier),
		parser.Recognized(data),
		p.weight,
	)
	if synthetic {
		overall = confidence.Cap(overall, p.ceiling)
		capFields(data, p.ceiling)
	}
	m.OverallConfidence = confidence.Round1(overall)
	m.TiersAttempted = res.TiersAttempted()
	m.EstimatedCostUSD = costUSD

	elapsed := p.now().Sub(start).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	m.ProcessingTimeMs = elapsed
	data.EnsureShape()

	out := &model.ExtractionOutcome{
		Text:             ext.Text,
		Pages:            max(ext.PageCount, 0),
		Confidence:       m.OverallConfidence,
		ProcessingMethod: ext.Method,
		ProcessingTime:   elapsed,
		ExtractedData:    data,
	}

	log.Info("pipeline: document processed",
		zap.String("method", ext.Method.Label()),
		zap.Strings("tiers", m.TiersAttempted),
		zap.Float64("confidence", out.Confidence),
		zap.Int("accounts", len(data.Accounts)),
		zap.Int("warnings", len(m.Warnings)),
		zap.Int64("duration_ms", elapsed),
	)
	return out
}

// capFields bounds every per-field confidence of synthetic data.
func capFields(d *model.StructuredCreditData, ceiling float64) {
	c := func(v *float64) { *v = confidence.Cap(*v, ceiling) }

	p := &d.PersonalInfo
	c(&p.Confidence)
	c(&p.FieldConfidence.Name)
	c(&p.FieldConfidence.Address)
	c(&p.FieldConfidence.DateOfBirth)
	c(&p.FieldConfidence.SSN)
	c(&d.CreditScore.Confidence)
	for b, s := range d.CreditScores {
		c(&s.Confidence)
		d.CreditScores[b] = s
	}
	for i := range d.Accounts {
		c(&d.Accounts[i].Confidence)
	}
	for i := range d.NegativeItems {
		c(&d.NegativeItems[i].Confidence)
	}
	for i := range d.Inquiries {
		c(&d.Inquiries[i].Confidence)
	}
	for i := range d.PublicRecords {
		c(&d.PublicRecords[i].Confidence)
	}
}
