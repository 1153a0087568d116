// Package ocr holds the tier engines that turn a document into raw text.
// Each engine wraps one extraction backend and reports a native confidence
// on a 0-100 scale.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-extract/internal/config"
	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/pkg/google"
)

// Engine is one tier of the extraction cascade.
type Engine interface {
	// Method is the tier this engine implements.
	Method() model.Method
	// Supports reports whether the engine accepts the kind at all. An
	// unsupported kind is never attempted.
	Supports(kind model.MimeKind) bool
	Extract(ctx context.Context, doc model.DocumentInput) (*model.ExtractionResult, error)
}

// Deps carries the backend clients for enabled tiers.
type Deps struct {
	DocumentAI google.DocumentAI
	Vision     google.Vision
	Runner     Runner
}

// NewEngines returns the enabled real tiers in descending accuracy order.
// The fallback tier is not included; it is built with NewFallback.
func NewEngines(cfg config.TiersConfig, deps Deps) ([]Engine, error) {
	var engines []Engine
	if cfg.DocumentAI.Enabled {
		if deps.DocumentAI == nil {
			return nil, eris.New("ocr: documentai tier enabled without a client")
		}
		engines = append(engines, NewDocumentAI(deps.DocumentAI))
	}
	if cfg.Vision.Enabled {
		if deps.Vision == nil {
			return nil, eris.New("ocr: vision tier enabled without a client")
		}
		engines = append(engines, NewVision(deps.Vision))
	}
	if cfg.BasicOCR.Enabled {
		runner := deps.Runner
		if runner == nil {
			runner = ExecRunner{}
		}
		engines = append(engines, NewTesseract(runner, cfg.BasicOCR))
	}
	return engines, nil
}

func supportsDocument(kind model.MimeKind) bool {
	return kind == model.MimePDF || kind.IsImage()
}
