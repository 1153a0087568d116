package model

// ExtractionOutcome is the only value the pipeline hands back to callers. It
// is built once and treated as read-only afterwards.
type ExtractionOutcome struct {
	Text             string                `json:"text"`
	Pages            int                   `json:"pages"`
	Confidence       float64               `json:"confidence"`
	ProcessingMethod Method                `json:"processingMethod"`
	ProcessingTime   int64                 `json:"processingTime"`
	ExtractedData    *StructuredCreditData `json:"extractedData"`
}

// IsFallback reports whether the outcome came from the synthetic tier and
// should be presented as needing verification.
func (o *ExtractionOutcome) IsFallback() bool {
	return o.ProcessingMethod == MethodFallback
}
