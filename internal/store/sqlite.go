package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/credit-extract/internal/model"
)

// sqliteTimeLayout is fixed width so created_at sorts and compares as text.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000"

// SQLiteStore implements OutcomeStore using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS outcomes (
	id            TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	method        TEXT NOT NULL,
	confidence    REAL NOT NULL,
	pages         INTEGER NOT NULL DEFAULT 0,
	processing_ms INTEGER NOT NULL DEFAULT 0,
	cost_usd      REAL NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	outcome       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outcomes_created_at ON outcomes(created_at);
CREATE INDEX IF NOT EXISTS idx_outcomes_method ON outcomes(method);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveOutcome(ctx context.Context, filename string, outcome *model.ExtractionOutcome) (string, error) {
	r, data, err := newRecord(uuid.New().String(), filename, outcome, s.now().UTC())
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO outcomes (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Filename, r.Method.Label(), r.Confidence, r.Pages, r.ProcessingMs, r.CostUSD,
		r.CreatedAt.Format(sqliteTimeLayout), string(data),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert outcome")
	}
	return r.ID, nil
}

func (s *SQLiteStore) GetOutcome(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM outcomes WHERE id = ?`, id)
	r, err := scanRecord(row, sqliteCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get outcome %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get outcome")
	}
	return r, nil
}

func (s *SQLiteStore) ListOutcomes(ctx context.Context, filter OutcomeFilter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(sqliteTimeLayout))
	}
	if filter.Method != 0 {
		where = append(where, "method = ?")
		args = append(args, filter.Method.Label())
	}

	query := `SELECT ` + recordColumns + ` FROM outcomes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, filter.limit(), max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list outcomes")
	}
	defer rows.Close() //nolint:errcheck

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows, sqliteCreated)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan outcome")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate outcomes")
}

// sqliteTime scans the text created_at column.
type sqliteTime struct {
	t *time.Time
}

func sqliteCreated(t *time.Time) any { return &sqliteTime{t: t} }

func (st *sqliteTime) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	case time.Time:
		*st.t = v.UTC()
		return nil
	default:
		return eris.Errorf("sqlite: unsupported created_at type %T", src)
	}
	t, err := time.ParseInLocation(sqliteTimeLayout, text, time.UTC)
	if err != nil {
		return eris.Wrap(err, "sqlite: parse created_at")
	}
	*st.t = t
	return nil
}
