package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/credit-extract/internal/assist"
	"github.com/sells-group/credit-extract/internal/config"
	"github.com/sells-group/credit-extract/internal/cost"
	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/internal/monitoring"
	"github.com/sells-group/credit-extract/internal/ocr"
	"github.com/sells-group/credit-extract/internal/parser"
	"github.com/sells-group/credit-extract/internal/pipeline"
	"github.com/sells-group/credit-extract/internal/quality"
	"github.com/sells-group/credit-extract/internal/resilience"
	"github.com/sells-group/credit-extract/internal/store"
	"github.com/sells-group/credit-extract/internal/waterfall"
	"github.com/sells-group/credit-extract/pkg/anthropic"
	"github.com/sells-group/credit-extract/pkg/google"
)

// extractEnv holds the pipeline and the optional collaborators the extract,
// batch and serve commands share.
type extractEnv struct {
	Pipeline *pipeline.Pipeline
	Store    store.OutcomeStore // nil unless requested
	Alerter  *monitoring.Alerter
}

// Close releases resources held by the environment.
func (e *extractEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initExtractor validates cfg for mode, builds the service clients for the
// enabled tiers and assembles the Pipeline. The store is opened only when
// withStore is set. Callers should defer env.Close().
func initExtractor(ctx context.Context, c *config.Config, mode string, withStore bool) (*extractEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	deps, err := initClients(ctx, c)
	if err != nil {
		return nil, err
	}
	engines, err := ocr.NewEngines(c.Tiers, deps)
	if err != nil {
		return nil, err
	}

	alerter := monitoring.NewAlerter(c.Monitoring)
	orch := waterfall.New(engines, ocr.NewFallback(),
		waterfall.WithTimeouts(tierTimeouts(c.Tiers)),
		waterfall.WithAlerter(alerter),
	)

	catalog, err := parser.LoadCatalog(c.Parser.FormatsFile)
	if err != nil {
		return nil, err
	}
	prs := parser.New(
		parser.WithFormats(catalog),
		parser.WithExtractionWeight(c.Confidence.ExtractionWeight),
	)
	assessor := quality.NewAssessor(quality.Config{
		SymbolDensityThreshold: c.Quality.SymbolDensityThreshold,
		EmptyFloor:             c.Quality.EmptyFloor,
	})

	opts := []pipeline.Option{
		pipeline.WithCostCalculator(cost.NewCalculator(cost.RatesFromConfig(c.Costs))),
		pipeline.WithExtractionWeight(c.Confidence.ExtractionWeight),
		pipeline.WithFallbackCeiling(c.Confidence.FallbackCeiling),
	}
	if c.Assist.Enabled {
		refiner, err := assist.New(anthropic.NewClient(c.Assist.APIKey), c.Assist)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithRefiner(refiner))
		zap.L().Info("assist refinement enabled", zap.String("model", c.Assist.Model))
	}

	env := &extractEnv{
		Pipeline: pipeline.New(orch, prs, assessor, opts...),
		Alerter:  alerter,
	}

	if withStore {
		st, err := store.Open(ctx, c.Store)
		if err != nil {
			return nil, eris.Wrap(err, "open store")
		}
		env.Store = st
	}

	names := make([]string, 0, len(engines))
	for _, e := range engines {
		names = append(names, e.Method().Label())
	}
	zap.L().Info("extractor ready",
		zap.Strings("tiers", names),
		zap.Bool("store", env.Store != nil),
	)
	return env, nil
}

// initClients builds the Google clients for the enabled cloud tiers. Each
// client gets its own breaker and limiter.
func initClients(ctx context.Context, c *config.Config) (ocr.Deps, error) {
	var deps ocr.Deps
	retry := retryPolicy(c.Retry)

	if dai := c.Tiers.DocumentAI; dai.Enabled {
		retry.OnRetry = resilience.LogRetries("documentai", "process")
		opts := []google.Option{
			google.WithRateLimit(dai.RatePerSec, dai.Burst),
			google.WithBreaker(newBreaker(model.MethodStructuredDocument, c.Circuit)),
			google.WithRetry(retry),
		}
		if dai.Endpoint != "" {
			opts = append(opts, google.WithEndpoint(dai.Endpoint))
		}
		if dai.CredentialsFile != "" {
			opts = append(opts, google.WithCredentialsFile(dai.CredentialsFile))
		}
		client, err := google.NewDocumentAI(ctx, google.ProcessorConfig{
			Project:     dai.Project,
			Location:    dai.Location,
			ProcessorID: dai.ProcessorID,
		}, opts...)
		if err != nil {
			return deps, eris.Wrap(err, "init documentai client")
		}
		deps.DocumentAI = client
	}

	if v := c.Tiers.Vision; v.Enabled {
		retry.OnRetry = resilience.LogRetries("vision", "annotate")
		opts := []google.Option{
			google.WithRateLimit(v.RatePerSec, v.Burst),
			google.WithBreaker(newBreaker(model.MethodGeneralOCR, c.Circuit)),
			google.WithRetry(retry),
			google.WithMaxPages(v.MaxPDFPages),
		}
		if v.Endpoint != "" {
			opts = append(opts, google.WithEndpoint(v.Endpoint))
		}
		if v.APIKey != "" {
			opts = append(opts, google.WithAPIKey(v.APIKey))
		} else if v.CredentialsFile != "" {
			opts = append(opts, google.WithCredentialsFile(v.CredentialsFile))
		}
		client, err := google.NewVision(ctx, opts...)
		if err != nil {
			return deps, eris.Wrap(err, "init vision client")
		}
		deps.Vision = client
	}

	return deps, nil
}

func retryPolicy(rc config.RetryConfig) resilience.RetryPolicy {
	return resilience.RetryPolicy{
		Attempts:   rc.Attempts,
		Initial:    time.Duration(rc.InitialMs) * time.Millisecond,
		Max:        time.Duration(rc.MaxMs) * time.Millisecond,
		Multiplier: rc.Multiplier,
		Jitter:     rc.Jitter,
	}
}

func newBreaker(m model.Method, cc config.CircuitConfig) *resilience.Breaker {
	return resilience.NewBreaker(resilience.BreakerConfig{
		Name:             m.Label(),
		FailureThreshold: cc.FailureThreshold,
		Cooldown:         config.Timeout(cc.CooldownSecs),
		Probes:           cc.Probes,
	})
}

func tierTimeouts(tc config.TiersConfig) map[model.Method]time.Duration {
	return map[model.Method]time.Duration{
		model.MethodStructuredDocument: config.Timeout(tc.DocumentAI.TimeoutSecs),
		model.MethodGeneralOCR:         config.Timeout(tc.Vision.TimeoutSecs),
		model.MethodBasicImageOCR:      config.Timeout(tc.BasicOCR.TimeoutSecs),
		model.MethodFallback:           config.Timeout(tc.Fallback.TimeoutSecs),
	}
}
