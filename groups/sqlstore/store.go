// Package sqlstore persists groups in SQLite or PostgreSQL through
// database/sql. Tenant ids and the cached report are stored as JSON text.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/groups"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
	"github.com/rs/zerolog/log"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO required)
)

const table = "dashboard_groups"

var _ groups.Repo = (*Store)(nil)

type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database. Call Migrate before first use.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// OpenSQLite opens (creating if needed) the database file at path and
// migrates it. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	s := New(db, &SQLiteDialect{})
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenPostgres connects through the pgx stdlib driver and migrates.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := New(db, &PostgresDialect{})
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	ts := s.dialect.TimestampType()
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		tenants TEXT NOT NULL,
		report TEXT NOT NULL,
		reported_at %s NULL,
		created_at %s NOT NULL
	)`, table, ts, ts)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.E(errors.ErrPersistence, "sqlstore.Migrate", s.dialect.Name(), err)
	}
	log.Debug().Str("dialect", s.dialect.Name()).Msg("group store schema ready")
	return nil
}

func (s *Store) Insert(ctx context.Context, g *groups.Group) error {
	const op = "sqlstore.Insert"
	tenantsJSON, reportJSON, err := encode(g.Tenants, g.Report)
	if err != nil {
		return errors.E(errors.ErrPersistence, op, "encode", err)
	}
	query := fmt.Sprintf("INSERT INTO %s (id, title, description, tenants, report, created_at) VALUES (%s)",
		table, placeholders(s.dialect, 6))
	if _, err := s.db.ExecContext(ctx, query, g.ID, g.Title, g.Description, tenantsJSON, reportJSON, g.CreatedAt.UTC()); err != nil {
		return errors.E(errors.ErrPersistence, op, "exec", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*groups.Group, error) {
	const op = "sqlstore.List"
	query := fmt.Sprintf("SELECT id, title, description, tenants, report, reported_at, created_at FROM %s ORDER BY created_at, id", table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.E(errors.ErrPersistence, op, "query", err)
	}
	defer rows.Close()

	out := []*groups.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, errors.E(errors.ErrPersistence, op, "scan", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.E(errors.ErrPersistence, op, "rows", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (*groups.Group, error) {
	query := fmt.Sprintf("SELECT id, title, description, tenants, report, reported_at, created_at FROM %s WHERE id = %s",
		table, s.dialect.Placeholder(1))
	g, err := scanGroup(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "group %s", id)
	}
	if err != nil {
		return nil, errors.E(errors.ErrPersistence, "sqlstore.Get", "scan", err)
	}
	return g, nil
}

// SetReport overwrites the cached report; the previous one is discarded.
func (s *Store) SetReport(ctx context.Context, id string, report []reports.Result, at time.Time) error {
	const op = "sqlstore.SetReport"
	if report == nil {
		report = []reports.Result{}
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return errors.E(errors.ErrPersistence, op, "encode", err)
	}
	query := fmt.Sprintf("UPDATE %s SET report = %s, reported_at = %s WHERE id = %s",
		table, s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3))
	res, err := s.db.ExecContext(ctx, query, string(reportJSON), at.UTC(), id)
	if err != nil {
		return errors.E(errors.ErrPersistence, op, "exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.E(errors.ErrPersistence, op, "rows_affected", err)
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "group %s", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(row scanner) (*groups.Group, error) {
	var (
		g           groups.Group
		tenantsJSON string
		reportJSON  string
		reportedAt  sql.NullTime
	)
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &tenantsJSON, &reportJSON, &reportedAt, &g.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tenantsJSON), &g.Tenants); err != nil {
		return nil, fmt.Errorf("tenants column: %w", err)
	}
	if err := json.Unmarshal([]byte(reportJSON), &g.Report); err != nil {
		return nil, fmt.Errorf("report column: %w", err)
	}
	if reportedAt.Valid {
		g.ReportedAt = reportedAt.Time.UTC()
	}
	g.CreatedAt = g.CreatedAt.UTC()
	return &g, nil
}

func encode(tenantIDs []string, report []reports.Result) (string, string, error) {
	if tenantIDs == nil {
		tenantIDs = []string{}
	}
	if report == nil {
		report = []reports.Result{}
	}
	t, err := json.Marshal(tenantIDs)
	if err != nil {
		return "", "", err
	}
	r, err := json.Marshal(report)
	if err != nil {
		return "", "", err
	}
	return string(t), string(r), nil
}
