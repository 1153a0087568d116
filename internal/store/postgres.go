package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-extract/internal/model"
)

// Pool is the subset of *pgxpool.Pool the store uses. pgxmock.PgxPoolIface
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements OutcomeStore using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	insertOutcomeSQL = `INSERT INTO outcomes (` + recordColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	getOutcomeSQL    = `SELECT ` + recordColumns + ` FROM outcomes WHERE id = $1`
)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_outcome": insertOutcomeSQL,
	"get_outcome":    getOutcomeSQL,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS outcomes (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	filename      TEXT NOT NULL,
	method        TEXT NOT NULL,
	confidence    DOUBLE PRECISION NOT NULL,
	pages         INTEGER NOT NULL DEFAULT 0,
	processing_ms BIGINT NOT NULL DEFAULT 0,
	cost_usd      DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	outcome       JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outcomes_created_at ON outcomes(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_outcomes_method ON outcomes(method);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *PostgresStore) SaveOutcome(ctx context.Context, filename string, outcome *model.ExtractionOutcome) (string, error) {
	r, data, err := newRecord(uuid.New().String(), filename, outcome, s.clock().UTC())
	if err != nil {
		return "", err
	}
	_, err = s.pool.Exec(ctx, insertOutcomeSQL,
		r.ID, r.Filename, r.Method.Label(), r.Confidence, r.Pages, r.ProcessingMs, r.CostUSD, r.CreatedAt, data,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert outcome")
	}
	return r.ID, nil
}

func (s *PostgresStore) GetOutcome(ctx context.Context, id string) (*Record, error) {
	r, err := scanRecord(s.pool.QueryRow(ctx, getOutcomeSQL, id), postgresCreated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get outcome %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get outcome")
	}
	return r, nil
}

func (s *PostgresStore) ListOutcomes(ctx context.Context, filter OutcomeFilter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if !filter.Since.IsZero() {
		args = append(args, filter.Since.UTC())
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.Method != 0 {
		args = append(args, filter.Method.Label())
		where = append(where, fmt.Sprintf("method = $%d", len(args)))
	}

	query := `SELECT ` + recordColumns + ` FROM outcomes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.limit(), max(filter.Offset, 0))
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list outcomes")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows, postgresCreated)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan outcome")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate outcomes")
}

func postgresCreated(t *time.Time) any { return t }
