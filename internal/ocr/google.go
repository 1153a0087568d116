package ocr

import (
	"context"
	"math"
	"strings"

	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/pkg/google"
)

const (
	// documentAIDefault is used when Document AI reports no page confidence.
	documentAIDefault = 95.0

	visionCeiling = 90.0
	visionDefault = 80.0
)

// DocumentAIEngine is the layout-aware structured document tier.
type DocumentAIEngine struct {
	client google.DocumentAI
}

// NewDocumentAI wraps a Document AI client.
func NewDocumentAI(client google.DocumentAI) *DocumentAIEngine {
	return &DocumentAIEngine{client: client}
}

func (e *DocumentAIEngine) Method() model.Method { return model.MethodStructuredDocument }

func (e *DocumentAIEngine) Supports(kind model.MimeKind) bool { return supportsDocument(kind) }

// Extract sends the document to the configured processor.
func (e *DocumentAIEngine) Extract(ctx context.Context, doc model.DocumentInput) (*model.ExtractionResult, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	out, err := e.client.Process(ctx, doc.Bytes(), doc.Kind().ContentType())
	if err != nil {
		return nil, err
	}
	return toResult(out, e.Method(), documentAIDefault, 100)
}

// VisionEngine is the general OCR tier.
type VisionEngine struct {
	client google.Vision
}

// NewVision wraps a Cloud Vision client.
func NewVision(client google.Vision) *VisionEngine {
	return &VisionEngine{client: client}
}

func (e *VisionEngine) Method() model.Method { return model.MethodGeneralOCR }

func (e *VisionEngine) Supports(kind model.MimeKind) bool { return supportsDocument(kind) }

// Extract runs dense text detection. General OCR has no layout model, so its
// confidence never exceeds visionCeiling.
func (e *VisionEngine) Extract(ctx context.Context, doc model.DocumentInput) (*model.ExtractionResult, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	out, err := e.client.DetectText(ctx, doc.Bytes(), doc.Kind().ContentType())
	if err != nil {
		return nil, err
	}
	return toResult(out, e.Method(), visionDefault, visionCeiling)
}

func toResult(doc *google.Document, method model.Method, fallback, ceiling float64) (*model.ExtractionResult, error) {
	if doc == nil || strings.TrimSpace(doc.Text) == "" {
		return nil, ErrEmptyText
	}
	native := fallback
	if doc.Scored {
		native = math.Min(doc.Confidence*100, ceiling)
	}
	return &model.ExtractionResult{
		Text:             doc.Text,
		PageCount:        doc.Pages,
		NativeConfidence: native,
		Method:           method,
	}, nil
}
