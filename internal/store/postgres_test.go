package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/credit-extract/internal/config"
	"github.com/sells-group/credit-extract/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func configFor(driver, url string) config.StoreConfig {
	return config.StoreConfig{Driver: driver, DatabaseURL: url}
}

var recordCols = []string{"id", "filename", "method", "confidence", "pages", "processing_ms", "cost_usd", "created_at", "outcome"}

func outcomeRow(t *testing.T, id string, o *model.ExtractionOutcome, at time.Time) []any {
	t.Helper()
	data, err := json.Marshal(o)
	require.NoError(t, err)
	return []any{id, "report.pdf", o.ProcessingMethod.Label(), o.Confidence, o.Pages, o.ProcessingTime, 0.003, at, data}
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS outcomes`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveOutcome(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	mock.ExpectExec(`INSERT INTO outcomes`).
		WithArgs(pgxmock.AnyArg(), "report.pdf", "google-vision", 77.5, 2, int64(1200), 0.003, now, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.SaveOutcome(context.Background(), "report.pdf", sampleOutcome(model.MethodGeneralOCR, 77.5))
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveOutcome_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`INSERT INTO outcomes`).
		WithArgs(pgxmock.AnyArg(), "report.pdf", "fallback", 20.0, pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	_, err := s.SaveOutcome(context.Background(), "report.pdf", sampleOutcome(model.MethodFallback, 20))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert outcome")
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetOutcome(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o := sampleOutcome(model.MethodStructuredDocument, 92)

	mock.ExpectQuery(`SELECT id, filename, method, .* FROM outcomes WHERE id = \$1`).
		WithArgs("abc").
		WillReturnRows(pgxmock.NewRows(recordCols).AddRow(outcomeRow(t, "abc", o, at)...))

	r, err := s.GetOutcome(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", r.ID)
	assert.Equal(t, model.MethodStructuredDocument, r.Method)
	assert.Equal(t, at, r.CreatedAt)
	assert.Equal(t, "JOHN DOE", *r.Outcome.ExtractedData.PersonalInfo.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetOutcome_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`FROM outcomes WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetOutcome(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListOutcomes(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	o := sampleOutcome(model.MethodFallback, 25)

	mock.ExpectQuery(`FROM outcomes WHERE created_at >= \$1 AND method = \$2 ORDER BY created_at DESC, id LIMIT \$3 OFFSET \$4`).
		WithArgs(since, "fallback", 10, 0).
		WillReturnRows(pgxmock.NewRows(recordCols).
			AddRow(outcomeRow(t, "b", o, since.Add(2*time.Hour))...).
			AddRow(outcomeRow(t, "a", o, since.Add(time.Hour))...))

	recs, err := s.ListOutcomes(context.Background(), OutcomeFilter{Since: since, Method: model.MethodFallback, Limit: 10})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].ID)
	assert.True(t, recs[1].Outcome.IsFallback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListOutcomes_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`FROM outcomes ORDER BY created_at DESC, id LIMIT \$1 OFFSET \$2`).
		WithArgs(defaultListLimit, 0).
		WillReturnRows(pgxmock.NewRows(recordCols))

	recs, err := s.ListOutcomes(context.Background(), OutcomeFilter{Offset: -3})
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close(t *testing.T) {
	closed := false
	s := &PostgresStore{closeFn: func() { closed = true }}
	assert.NoError(t, s.Close())
	assert.True(t, closed)
}
