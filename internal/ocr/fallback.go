package ocr

import (
	"context"
	"strings"

	"github.com/sells-group/credit-extract/internal/model"
)

// FallbackConfidence is the native confidence of synthetic text.
const FallbackConfidence = 10.0

// SyntheticMarker opens every fallback document.
const SyntheticMarker = "PLACEHOLDER CREDIT REPORT"

// Placeholder is the value used for every synthetic text field.
const Placeholder = "PLACEHOLDER"

// syntheticReport has the section layout of a real report so the parser
// yields a fully shaped result. It contains no numbers a reader could take
// for real data.
var syntheticReport = strings.Join([]string{
	SyntheticMarker,
	"No extraction service could read this document.",
	"Every value below is a placeholder and must be verified manually.",
	"",
	"PERSONAL INFORMATION",
	"Name: " + Placeholder,
	"Address: " + Placeholder,
	"",
	"ACCOUNTS",
	"Creditor: " + Placeholder,
	"Account Type: " + Placeholder,
	"Status: Unknown",
	"",
	"INQUIRIES",
	"",
	"PUBLIC RECORDS",
	"",
}, "\n")

// FallbackEngine is the always-available last tier. It never fails.
type FallbackEngine struct{}

// NewFallback creates the fallback tier.
func NewFallback() *FallbackEngine { return &FallbackEngine{} }

func (FallbackEngine) Method() model.Method { return model.MethodFallback }

func (FallbackEngine) Supports(model.MimeKind) bool { return true }

// Extract returns the synthetic report. The page count is left at zero; the
// orchestrator fills it from document inspection.
func (FallbackEngine) Extract(context.Context, model.DocumentInput) (*model.ExtractionResult, error) {
	return SyntheticResult(), nil
}

// SyntheticResult builds the fallback result directly.
func SyntheticResult() *model.ExtractionResult {
	return &model.ExtractionResult{
		Text:             syntheticReport,
		NativeConfidence: FallbackConfidence,
		Method:           model.MethodFallback,
	}
}

// IsSynthetic reports whether text is fallback output.
func IsSynthetic(text string) bool {
	return strings.HasPrefix(text, SyntheticMarker)
}
