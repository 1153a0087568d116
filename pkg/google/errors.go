package google

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/api/googleapi"
)

var (
	// ErrQuotaExceeded is returned when the local rate limit rejects a call.
	ErrQuotaExceeded = eris.New("google: quota exceeded")

	// ErrNoText is returned when the service answered but found no text.
	ErrNoText = eris.New("google: no text detected")
)

// APIError is an upstream failure with an HTTP-equivalent status.
type APIError struct {
	Service string
	Code    int
	Message string
	Reason  string
	err     error
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("google: %s returned %d (%s): %s", e.Service, e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("google: %s returned %d: %s", e.Service, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.err }

// HTTPStatus lets the retry layer classify the error.
func (e *APIError) HTTPStatus() int { return e.Code }

// wrapAPIError converts a googleapi.Error into an APIError; other errors pass
// through unchanged.
func wrapAPIError(service string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	ae := &APIError{Service: service, Code: gerr.Code, Message: gerr.Message, err: err}
	if len(gerr.Errors) > 0 {
		ae.Reason = gerr.Errors[0].Reason
	}
	return ae
}

// statusError converts an in-body google.rpc.Status into an APIError.
func statusError(service string, code int64, msg string) error {
	return &APIError{Service: service, Code: rpcToHTTP(code), Message: msg}
}

// rpcToHTTP maps google.rpc.Code values to their HTTP equivalents.
func rpcToHTTP(code int64) int {
	switch code {
	case 3, 9, 11:
		return http.StatusBadRequest
	case 4:
		return http.StatusGatewayTimeout
	case 5:
		return http.StatusNotFound
	case 7:
		return http.StatusForbidden
	case 8:
		return http.StatusTooManyRequests
	case 14:
		return http.StatusServiceUnavailable
	case 16:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func statusOf(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{Code: gerr.Code, Message: gerr.Message}, true
	}
	return nil, false
}

func quotaReason(reason string) bool {
	r := strings.ToLower(reason)
	return strings.Contains(r, "ratelimit") || strings.Contains(r, "quota") || strings.Contains(r, "exhausted")
}

// IsUnauthorized reports a rejected credential: 401, or 403 that is not a
// quota rejection.
func IsUnauthorized(err error) bool {
	ae, ok := statusOf(err)
	if !ok {
		return false
	}
	switch ae.Code {
	case http.StatusUnauthorized:
		return true
	case http.StatusForbidden:
		return !quotaReason(ae.Reason) && !quotaReason(ae.Message)
	}
	return false
}

// IsQuotaExceeded reports a local or upstream rate/usage limit.
func IsQuotaExceeded(err error) bool {
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	ae, ok := statusOf(err)
	if !ok {
		return false
	}
	if ae.Code == http.StatusTooManyRequests {
		return true
	}
	return ae.Code == http.StatusForbidden && (quotaReason(ae.Reason) || quotaReason(ae.Message))
}

// IsInvalidInput reports that the service rejected the document itself.
func IsInvalidInput(err error) bool {
	ae, ok := statusOf(err)
	return ok && (ae.Code == http.StatusBadRequest || ae.Code == http.StatusRequestEntityTooLarge)
}
