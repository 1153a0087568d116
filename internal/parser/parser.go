// Package parser maps extracted report text onto model.StructuredCreditData.
// Recognition is pattern-driven and never fails: an unlocated field stays
// null with confidence 0, and ambiguous values become metadata warnings.
package parser

import (
	"fmt"
	"slices"

	"github.com/sells-group/credit-extract/internal/confidence"
	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/internal/ocr"
)

// maxWarnings bounds the warnings kept per document.
const maxWarnings = 50

// Option configures a Parser.
type Option func(*Parser)

// WithFormats replaces the embedded report-format catalog.
func WithFormats(c Catalog) Option {
	return func(p *Parser) { p.catalog = c }
}

// WithExtractionWeight sets the blend weight used for the provisional
// overall confidence.
func WithExtractionWeight(w float64) Option {
	return func(p *Parser) { p.weight = w }
}

// Parser is stateless after New and safe for concurrent use.
type Parser struct {
	catalog Catalog
	weight  float64
}

// New creates a Parser with the embedded format catalog.
func New(opts ...Option) *Parser {
	p := &Parser{catalog: DefaultCatalog(), weight: confidence.DefaultExtractionWeight}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run holds the state of one Parse call.
type run struct {
	sections []section
	format   Format
	mult     float64
	warnings []string
	seen     map[string]bool
}

func (r *run) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.seen[msg] || len(r.warnings) >= maxWarnings {
		return
	}
	r.seen[msg] = true
	r.warnings = append(r.warnings, msg)
}

func (r *run) score(strength float64) float64 {
	return confidence.Field(strength, r.mult)
}

// Parse maps text to a fully shaped StructuredCreditData. native is the
// producing tier's confidence; the metadata's overall confidence is a
// provisional blend that callers may recompute after refinement.
func (p *Parser) Parse(text string, method model.Method, q model.QualityAdjustment, native float64) *model.StructuredCreditData {
	data := model.NewStructuredCreditData()

	r := &run{
		sections: splitSections(normalize(text)),
		format:   p.catalog.Detect(text),
		mult:     q.Multiplier,
		seen:     make(map[string]bool),
	}

	data.PersonalInfo = r.parsePersonal()
	data.CreditScores, data.CreditScore = r.parseScores()
	data.Accounts = r.parseAccounts()
	data.NegativeItems = r.parseNegative(data.Accounts)
	data.Inquiries = r.parseInquiries()
	data.PublicRecords = r.parsePublicRecords()

	m := &data.ExtractionMetadata
	m.ProcessingMethod = method
	m.DetectedReportFormat = r.format.Name
	m.Synthetic = ocr.IsSynthetic(text)
	m.QualityFlags = append(m.QualityFlags, q.Flags...)
	m.Warnings = append(m.Warnings, r.warnings...)
	m.DocumentQuality = confidence.DocumentQuality(q.Multiplier, len(data.Accounts))
	m.OverallConfidence = confidence.Blend(confidence.Effective(native, q.Multiplier), Recognized(data), p.weight)

	data.EnsureShape()
	return data
}

// Recognized returns the confidence of every located field. The best-score
// summary duplicates a creditScores entry and is not counted.
func Recognized(d *model.StructuredCreditData) []float64 {
	var out []float64
	fc := d.PersonalInfo.FieldConfidence
	for _, c := range []float64{fc.Name, fc.Address, fc.DateOfBirth, fc.SSN} {
		if c > 0 {
			out = append(out, c)
		}
	}
	for _, b := range scoreOrder(d.CreditScores) {
		if s := d.CreditScores[b]; s.Score != nil {
			out = append(out, s.Confidence)
		}
	}
	for _, a := range d.Accounts {
		out = append(out, a.Confidence)
	}
	for _, n := range d.NegativeItems {
		out = append(out, n.Confidence)
	}
	for _, i := range d.Inquiries {
		out = append(out, i.Confidence)
	}
	for _, pr := range d.PublicRecords {
		out = append(out, pr.Confidence)
	}
	return out
}

// scoreOrder lists bureau keys deterministically: known bureaus first, then
// any others sorted.
func scoreOrder(scores map[string]model.CreditScore) []string {
	out := model.KnownBureaus()
	var extra []string
	for b := range scores {
		if !slices.Contains(out, b) {
			extra = append(extra, b)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// NormalizeDate returns the first date in v as MM/DD/YYYY, or MM/YYYY when v
// has no day.
func NormalizeDate(v string) (string, bool) {
	return findDate(v)
}

// BestScore picks the most confident located score; ties go to bureau order.
func BestScore(scores map[string]model.CreditScore) model.CreditScore {
	return bestScore(scores)
}
