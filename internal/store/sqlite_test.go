package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/credit-extract/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func sampleOutcome(method model.Method, conf float64) *model.ExtractionOutcome {
	d := model.NewStructuredCreditData()
	d.PersonalInfo.Name = model.StringPtr("JOHN DOE")
	d.ExtractionMetadata.ProcessingMethod = method
	d.ExtractionMetadata.OverallConfidence = conf
	d.ExtractionMetadata.EstimatedCostUSD = 0.003
	return &model.ExtractionOutcome{
		Text:             "JOHN DOE",
		Pages:            2,
		Confidence:       conf,
		ProcessingMethod: method,
		ProcessingTime:   1200,
		ExtractedData:    d,
	}
}

func TestSQLite_SaveAndGet(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 30, 0, 500000000, time.UTC)
	s.now = func() time.Time { return now }

	id, err := s.SaveOutcome(ctx, "report.pdf", sampleOutcome(model.MethodStructuredDocument, 91.5))
	require.NoError(t, err)
	assert.Len(t, id, 36)

	r, err := s.GetOutcome(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "report.pdf", r.Filename)
	assert.Equal(t, model.MethodStructuredDocument, r.Method)
	assert.InDelta(t, 91.5, r.Confidence, 0.001)
	assert.Equal(t, 2, r.Pages)
	assert.Equal(t, int64(1200), r.ProcessingMs)
	assert.InDelta(t, 0.003, r.CostUSD, 1e-9)
	assert.True(t, now.Equal(r.CreatedAt))

	require.NotNil(t, r.Outcome.ExtractedData)
	assert.Equal(t, "JOHN DOE", *r.Outcome.ExtractedData.PersonalInfo.Name)
	assert.Equal(t, model.MethodStructuredDocument, r.Outcome.ProcessingMethod)
}

func TestSQLite_GetOutcome_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)
	_, err := s.GetOutcome(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_SaveOutcome_Nil(t *testing.T) {
	s := newTestSQLiteStore(t)
	_, err := s.SaveOutcome(context.Background(), "x.pdf", nil)
	assert.Error(t, err)
}

func TestSQLite_ListOutcomes(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	saved := []struct {
		at     time.Time
		method model.Method
	}{
		{base, model.MethodStructuredDocument},
		{base.Add(time.Hour), model.MethodFallback},
		{base.Add(2 * time.Hour), model.MethodBasicImageOCR},
		{base.Add(3 * time.Hour), model.MethodFallback},
	}
	for i, sv := range saved {
		s.now = func() time.Time { return sv.at }
		_, err := s.SaveOutcome(ctx, "f.pdf", sampleOutcome(sv.method, float64(10*i)))
		require.NoError(t, err)
	}

	all, err := s.ListOutcomes(ctx, OutcomeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt), "newest first")

	recent, err := s.ListOutcomes(ctx, OutcomeFilter{Since: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	fallback, err := s.ListOutcomes(ctx, OutcomeFilter{Method: model.MethodFallback})
	require.NoError(t, err)
	require.Len(t, fallback, 2)
	for _, r := range fallback {
		assert.True(t, r.Outcome.IsFallback())
	}

	page, err := s.ListOutcomes(ctx, OutcomeFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, model.MethodBasicImageOCR, page[0].Method)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, configFor("sqlite", filepath.Join(t.TempDir(), "open.db")))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	id, err := s.SaveOutcome(ctx, "a.png", sampleOutcome(model.MethodGeneralOCR, 80))
	require.NoError(t, err)
	_, err = s.GetOutcome(ctx, id)
	assert.NoError(t, err)

	_, err = Open(ctx, configFor("mongo", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
