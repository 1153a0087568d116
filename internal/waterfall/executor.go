// Package waterfall runs the tier cascade for one document: each applicable
// tier is tried in order under its own timeout until one yields text, and the
// fallback tier guarantees a result.
package waterfall

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/credit-extract/internal/docinfo"
	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/internal/ocr"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultAlertTimeout = 5 * time.Second
)

// Alerter is notified when a tier rejects its credentials.
type Alerter interface {
	NotifyAuthFailure(ctx context.Context, tier model.Method, err error) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeouts sets per-tier timeouts. Zero entries use the default.
func WithTimeouts(timeouts map[model.Method]time.Duration) Option {
	return func(o *Orchestrator) {
		for m, d := range timeouts {
			if d > 0 {
				o.timeouts[m] = d
			}
		}
	}
}

// WithDefaultTimeout sets the timeout for tiers without their own.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.defaultTimeout = d
		}
	}
}

// WithAlerter routes authentication failures to a.
func WithAlerter(a Alerter) Option {
	return func(o *Orchestrator) { o.alerter = a }
}

// WithLogger overrides the global logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// Orchestrator is immutable after New and safe for concurrent use.
type Orchestrator struct {
	engines        []ocr.Engine
	fallback       ocr.Engine
	timeouts       map[model.Method]time.Duration
	defaultTimeout time.Duration
	alerter        Alerter
	alertTimeout   time.Duration
	log            *zap.Logger
}

// New creates an Orchestrator over engines, tried in the given order. A nil
// fallback uses ocr.NewFallback.
func New(engines []ocr.Engine, fallback ocr.Engine, opts ...Option) *Orchestrator {
	if fallback == nil {
		fallback = ocr.NewFallback()
	}
	o := &Orchestrator{
		engines:        append([]ocr.Engine(nil), engines...),
		fallback:       fallback,
		timeouts:       make(map[model.Method]time.Duration),
		defaultTimeout: defaultTimeout,
		alertTimeout:   defaultAlertTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.log != nil {
		return o.log
	}
	return zap.L()
}

func (o *Orchestrator) timeoutFor(m model.Method) time.Duration {
	if d, ok := o.timeouts[m]; ok {
		return d
	}
	return o.defaultTimeout
}

// Plan returns the engines that accept kind, in cascade order. The fallback
// tier is not included.
func (o *Orchestrator) Plan(kind model.MimeKind) []ocr.Engine {
	var out []ocr.Engine
	for _, e := range o.engines {
		if e.Supports(kind) {
			out = append(out, e)
		}
	}
	return out
}

// Extract runs the cascade. It never fails: when every applicable tier fails,
// or the payload is unreadable, the fallback result is returned.
func (o *Orchestrator) Extract(ctx context.Context, doc model.DocumentInput) *Result {
	log := o.logger().With(zap.String("filename", doc.Filename()), zap.String("kind", string(doc.Kind())))

	result := &Result{Inspection: docinfo.Inspect(doc.Bytes(), doc.Kind())}

	if result.Inspection.Corrupt {
		log.Info("waterfall: unreadable document, skipping to fallback",
			zap.String("reason", result.Inspection.Reason),
			zap.Int("size", doc.Size()),
		)
	} else {
		for _, e := range o.engines {
			if !e.Supports(doc.Kind()) {
				log.Debug("waterfall: tier does not support input",
					zap.String("tier", e.Method().Label()),
				)
				continue
			}
			res, ok := o.attempt(ctx, log, e, doc, result)
			if ok {
				result.Extraction = o.finish(res, e.Method(), result.Inspection)
				return result
			}
		}
	}

	// The fallback must run even when the caller's context is done.
	res, ok := o.attempt(context.WithoutCancel(ctx), log, o.fallback, doc, result)
	if !ok {
		res = ocr.SyntheticResult()
	}
	result.Extraction = o.finish(res, model.MethodFallback, result.Inspection)
	return result
}

// attempt runs one tier and records exactly one log entry and one Attempt.
func (o *Orchestrator) attempt(ctx context.Context, log *zap.Logger, e ocr.Engine, doc model.DocumentInput, result *Result) (*model.ExtractionResult, bool) {
	tier := e.Method()
	start := time.Now()
	res, err := o.run(ctx, e, doc)
	elapsed := time.Since(start)

	a := Attempt{Tier: tier, Duration: elapsed}
	fields := []zap.Field{
		zap.String("tier", tier.Label()),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	}

	if err == nil {
		result.Attempts = append(result.Attempts, a)
		log.Info("waterfall: tier succeeded", append(fields,
			zap.Int("pages", res.PageCount),
			zap.Float64("native_confidence", res.NativeConfidence),
		)...)
		return res, true
	}

	oe := ocr.Wrap(tier, err)
	a.Kind, a.Err, a.Timeout = oe.Kind, oe, ocr.IsTimeout(err)
	result.Attempts = append(result.Attempts, a)

	fields = append(fields, zap.String("kind", string(a.Kind)), zap.Error(err))
	if a.Timeout {
		fields = append(fields, zap.String("reason", "timeout"))
	}

	if a.Kind == ocr.KindAuthenticationFailure {
		log.Error("waterfall: tier failed", fields...)
		o.alert(ctx, tier, oe)
	} else {
		log.Warn("waterfall: tier failed", fields...)
	}
	return nil, false
}

type reply struct {
	res *model.ExtractionResult
	err error
}

// run bounds one engine call. An engine that ignores its context is
// abandoned when the deadline passes; its goroutine drains into a buffered
// channel.
func (o *Orchestrator) run(ctx context.Context, e ocr.Engine, doc model.DocumentInput) (*model.ExtractionResult, error) {
	tctx, cancel := context.WithTimeout(ctx, o.timeoutFor(e.Method()))
	defer cancel()

	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- reply{err: eris.Errorf("waterfall: %s panicked: %v", e.Method().Label(), r)}
			}
		}()
		res, err := e.Extract(tctx, doc)
		ch <- reply{res: res, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		if r.res == nil || strings.TrimSpace(r.res.Text) == "" {
			return nil, ocr.ErrEmptyText
		}
		return r.res, nil
	case <-tctx.Done():
		return nil, tctx.Err()
	}
}

// finish copies res and stamps the method of the tier that produced it.
func (o *Orchestrator) finish(res *model.ExtractionResult, method model.Method, info docinfo.Info) *model.ExtractionResult {
	out := *res
	out.Method = method
	if out.PageCount <= 0 {
		out.PageCount = info.Pages
	}
	return &out
}

func (o *Orchestrator) alert(ctx context.Context, tier model.Method, err error) {
	if o.alerter == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.alertTimeout)
	defer cancel()
	if aerr := o.alerter.NotifyAuthFailure(actx, tier, err); aerr != nil {
		o.logger().Warn("waterfall: auth failure alert not delivered",
			zap.String("tier", tier.Label()),
			zap.Error(aerr),
		)
	}
}
