// Package google wraps the Document AI and Cloud Vision REST APIs behind small
// interfaces that return plain text, page counts and page confidence.
package google

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/sells-group/credit-extract/internal/resilience"
)

// Document is the text extracted by a Google service.
type Document struct {
	Text  string
	Pages int
	// Confidence is the mean page confidence in [0,1]. Scored is false when
	// the service reported no confidence at all.
	Confidence float64
	Scored     bool
}

// Option configures a client.
type Option func(*settings)

type settings struct {
	endpoint        string
	httpClient      *http.Client
	apiKey          string
	credentialsFile string
	limiter         *rate.Limiter
	breaker         *resilience.Breaker
	retry           *resilience.RetryPolicy
	maxPages        int
}

// WithEndpoint overrides the service root URL.
func WithEndpoint(url string) Option {
	return func(s *settings) { s.endpoint = url }
}

// WithHTTPClient supplies a preconfigured http.Client; credentials options
// are then ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// WithAPIKey authenticates with an API key instead of service credentials.
func WithAPIKey(key string) Option {
	return func(s *settings) { s.apiKey = key }
}

// WithCredentialsFile authenticates with a service account JSON file.
func WithCredentialsFile(path string) Option {
	return func(s *settings) { s.credentialsFile = path }
}

// WithRateLimit bounds local request rate. Requests over the limit fail fast
// with ErrQuotaExceeded rather than queueing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *settings) {
		if perSecond <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBreaker routes calls through a circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(s *settings) { s.breaker = b }
}

// WithRetry retries transient failures with the given policy.
func WithRetry(p resilience.RetryPolicy) Option {
	return func(s *settings) { s.retry = &p }
}

// WithMaxPages limits how many PDF pages Vision annotates per document.
func WithMaxPages(n int) Option {
	return func(s *settings) { s.maxPages = n }
}

func newSettings(opts []Option) *settings {
	s := &settings{}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *settings) clientOptions() []option.ClientOption {
	var out []option.ClientOption
	if s.endpoint != "" {
		out = append(out, option.WithEndpoint(s.endpoint))
	}
	if s.httpClient != nil {
		return append(out, option.WithHTTPClient(s.httpClient))
	}
	if s.apiKey != "" {
		out = append(out, option.WithAPIKey(s.apiKey))
	}
	if s.credentialsFile != "" {
		out = append(out, option.WithCredentialsFile(s.credentialsFile))
	}
	return out
}

// guarded applies the local quota, breaker and retry policy around fn, in
// that order. A quota rejection never reaches the breaker.
func guarded[T any](ctx context.Context, s *settings, service, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if s.limiter != nil && !s.limiter.Allow() {
		return zero, ErrQuotaExceeded
	}
	return resilience.Call(ctx, s.breaker, func(ctx context.Context) (T, error) {
		if s.retry == nil {
			return fn(ctx)
		}
		p := *s.retry
		if p.OnRetry == nil {
			p.OnRetry = resilience.LogRetries(service, op)
		}
		return resilience.Retry(ctx, p, fn)
	})
}
