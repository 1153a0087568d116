package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/internal/store"
)

// maxWindowOutcomes bounds how many outcomes one snapshot reads.
const maxWindowOutcomes = 10000

// MetricsSnapshot holds a point-in-time view of extraction health.
type MetricsSnapshot struct {
	Total         int            `json:"total"`
	Fallback      int            `json:"fallback"`
	FallbackRate  float64        `json:"fallback_rate"`
	ByMethod      map[string]int `json:"by_method"`
	CostUSD       float64        `json:"cost_usd"`
	AvgConfidence float64        `json:"avg_confidence"`
	AvgPages      float64        `json:"avg_pages"`
	LookbackHours int            `json:"lookback_hours"`
	CollectedAt   time.Time      `json:"collected_at"`
}

// OutcomeLister is the part of store.OutcomeStore the collector reads.
type OutcomeLister interface {
	ListOutcomes(ctx context.Context, filter store.OutcomeFilter) ([]store.Record, error)
}

// Collector gathers metrics from stored outcomes.
type Collector struct {
	store OutcomeLister
	now   func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(st OutcomeLister) *Collector {
	return &Collector{store: st, now: time.Now}
}

// Collect gathers a snapshot of outcome metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	snap := &MetricsSnapshot{
		ByMethod:      map[string]int{},
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	recs, err := c.store.ListOutcomes(ctx, store.OutcomeFilter{
		Since: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit: maxWindowOutcomes,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list outcomes")
	}

	var confSum float64
	var pageSum int
	for _, r := range recs {
		snap.Total++
		snap.ByMethod[r.Method.Label()]++
		if r.Method == model.MethodFallback {
			snap.Fallback++
		}
		snap.CostUSD += r.CostUSD
		confSum += r.Confidence
		pageSum += r.Pages
	}
	if snap.Total > 0 {
		snap.FallbackRate = float64(snap.Fallback) / float64(snap.Total)
		snap.AvgConfidence = confSum / float64(snap.Total)
		snap.AvgPages = float64(pageSum) / float64(snap.Total)
	}
	return snap, nil
}
