package waterfall

import (
	"time"

	"github.com/sells-group/credit-extract/internal/docinfo"
	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/internal/ocr"
)

// Attempt records one tier invocation.
type Attempt struct {
	Tier     model.Method  `json:"tier"`
	Kind     ocr.Kind      `json:"kind,omitempty"` // empty on success
	Timeout  bool          `json:"timeout,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Succeeded reports whether the tier produced text.
func (a Attempt) Succeeded() bool { return a.Err == nil }

// Result is the outcome of one cascade. Extraction is never nil.
type Result struct {
	Extraction *model.ExtractionResult
	Attempts   []Attempt
	Inspection docinfo.Info
}

// TiersAttempted lists the labels of every attempted tier in order.
func (r *Result) TiersAttempted() []string {
	out := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		out = append(out, a.Tier.Label())
	}
	return out
}

// Failures returns the failed attempts.
func (r *Result) Failures() []Attempt {
	var out []Attempt
	for _, a := range r.Attempts {
		if !a.Succeeded() {
			out = append(out, a)
		}
	}
	return out
}
