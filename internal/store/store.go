// Package store persists extraction outcomes for the service surfaces. The
// extraction core never calls it.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-extract/internal/config"
	"github.com/sells-group/credit-extract/internal/model"
)

// ErrNotFound is returned by GetOutcome for an unknown id.
var ErrNotFound = eris.New("store: outcome not found")

// OutcomeStore is the persistence interface implemented by each backend.
type OutcomeStore interface {
	SaveOutcome(ctx context.Context, filename string, outcome *model.ExtractionOutcome) (string, error)
	GetOutcome(ctx context.Context, id string) (*Record, error)
	ListOutcomes(ctx context.Context, filter OutcomeFilter) ([]Record, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Record is a stored outcome with its summary columns.
type Record struct {
	ID           string                   `json:"id"`
	Filename     string                   `json:"filename"`
	Method       model.Method             `json:"processingMethod"`
	Confidence   float64                  `json:"confidence"`
	Pages        int                      `json:"pages"`
	ProcessingMs int64                    `json:"processingTimeMs"`
	CostUSD      float64                  `json:"estimatedCostUsd"`
	CreatedAt    time.Time                `json:"createdAt"`
	Outcome      *model.ExtractionOutcome `json:"outcome"`
}

// OutcomeFilter narrows ListOutcomes. Zero fields match everything.
type OutcomeFilter struct {
	Since  time.Time
	Method model.Method
	Limit  int
	Offset int
}

const defaultListLimit = 100

func (f OutcomeFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Open returns the backend selected by cfg.Driver and applies its migration.
func Open(ctx context.Context, cfg config.StoreConfig) (OutcomeStore, error) {
	var (
		s   OutcomeStore
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// newRecord builds the row for outcome.
func newRecord(id, filename string, o *model.ExtractionOutcome, now time.Time) (*Record, []byte, error) {
	if o == nil {
		return nil, nil, eris.New("store: outcome is nil")
	}
	data, err := json.Marshal(o)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal outcome")
	}
	r := &Record{
		ID:           id,
		Filename:     filename,
		Method:       o.ProcessingMethod,
		Confidence:   o.Confidence,
		Pages:        o.Pages,
		ProcessingMs: o.ProcessingTime,
		CreatedAt:    now,
		Outcome:      o,
	}
	if o.ExtractedData != nil {
		r.CostUSD = o.ExtractedData.ExtractionMetadata.EstimatedCostUSD
	}
	return r, data, nil
}

type scannable interface {
	Scan(dest ...any) error
}

// scanRecord reads the columns selected by recordColumns. created adapts the
// created_at destination to the backend's column type.
func scanRecord(row scannable, created func(*time.Time) any) (*Record, error) {
	var (
		r      Record
		method string
		data   []byte
	)
	if err := row.Scan(&r.ID, &r.Filename, &method, &r.Confidence, &r.Pages,
		&r.ProcessingMs, &r.CostUSD, created(&r.CreatedAt), &data); err != nil {
		return nil, err
	}
	m, err := model.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	r.Method = m
	r.Outcome = &model.ExtractionOutcome{}
	if err := json.Unmarshal(data, r.Outcome); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal outcome")
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

const recordColumns = `id, filename, method, confidence, pages, processing_ms, cost_usd, created_at, outcome`
