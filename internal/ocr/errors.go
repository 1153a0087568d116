package ocr

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/internal/resilience"
	"github.com/sells-group/credit-extract/pkg/google"
)

// Kind classifies a tier failure. Every kind is absorbed by the cascade;
// none reaches the caller of the pipeline.
type Kind string

const (
	KindServiceUnavailable    Kind = "service_unavailable"
	KindAuthenticationFailure Kind = "authentication_failure"
	KindQuotaExceeded         Kind = "quota_exceeded"
	KindUnsupportedInput      Kind = "unsupported_input"
	KindEmptyOrCorrupt        Kind = "empty_or_corrupt_document"
)

// ErrEmptyText is returned by an engine that ran but produced no text.
var ErrEmptyText = eris.New("ocr: engine returned no text")

// Error is a classified tier failure.
type Error struct {
	Kind Kind
	Tier model.Method
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ocr: %s %s", e.Tier.Label(), e.Kind)
	}
	return fmt.Sprintf("ocr: %s %s: %v", e.Tier.Label(), e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies err and attaches the tier. A nil err returns nil; an
// existing *Error is returned with its tier filled in.
func Wrap(tier model.Method, err error) *Error {
	if err == nil {
		return nil
	}
	var oe *Error
	if errors.As(err, &oe) {
		if oe.Tier == 0 {
			oe.Tier = tier
		}
		return oe
	}
	return &Error{Kind: Classify(err), Tier: tier, Err: err}
}

// Classify maps an engine error onto the failure taxonomy. Anything not
// recognized is treated as the service being unavailable.
func Classify(err error) Kind {
	var oe *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &oe):
		return oe.Kind
	case errors.Is(err, ErrEmptyText), errors.Is(err, google.ErrNoText),
		errors.Is(err, model.ErrEmptyDocument):
		return KindEmptyOrCorrupt
	case google.IsUnauthorized(err):
		return KindAuthenticationFailure
	case google.IsQuotaExceeded(err):
		return KindQuotaExceeded
	case google.IsInvalidInput(err):
		return KindEmptyOrCorrupt
	case errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, context.DeadlineExceeded):
		return KindServiceUnavailable
	default:
		return KindServiceUnavailable
	}
}

// IsTimeout reports whether err came from a tier deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
