package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const memoryPath = ":memory:"

// SQLiteStore is the SQLite-backed retrieval journal.
type SQLiteStore struct {
	db  *sql.DB
	cfg Config
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance. Call Init and Migrate
// before use.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 4
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 2
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}
	// Every connection to :memory: is a separate database.
	if cfg.Path == memoryPath {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
	}

	return &SQLiteStore{cfg: cfg}, nil
}

// Init opens the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := s.cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate&_time_format=sqlite"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// RecordRetrieval inserts one journal entry.
func (s *SQLiteStore) RecordRetrieval(ctx context.Context, r *Retrieval) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO retrievals (id, type_name, part, source, status, error_kind, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.TypeName,
		r.Part,
		r.Source,
		r.Status,
		r.ErrorKind,
		r.Error,
		r.DurationMS,
		r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record retrieval: %w", err)
	}

	return nil
}

// ListRetrievals returns matching entries, newest first.
func (s *SQLiteStore) ListRetrievals(ctx context.Context, filter RetrievalFilter) ([]*Retrieval, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	where, args := filter.where()
	query := `
		SELECT id, type_name, part, source, status, error_kind, error, duration_ms, created_at
		FROM retrievals` + where + `
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list retrievals: %w", err)
	}
	defer rows.Close()

	retrievals := []*Retrieval{}
	for rows.Next() {
		r := &Retrieval{}
		err := rows.Scan(
			&r.ID,
			&r.TypeName,
			&r.Part,
			&r.Source,
			&r.Status,
			&r.ErrorKind,
			&r.Error,
			&r.DurationMS,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan retrieval: %w", err)
		}
		retrievals = append(retrievals, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating retrievals: %w", err)
	}

	return retrievals, nil
}

// RetrievalStats aggregates matching entries per type name and part.
// Limit and Offset in filter are ignored.
func (s *SQLiteStore) RetrievalStats(ctx context.Context, filter RetrievalFilter) ([]*RetrievalStats, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	where, args := filter.where()
	query := `
		SELECT type_name, part, COUNT(*), SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END)
		FROM retrievals` + where + `
		GROUP BY type_name, part
		ORDER BY type_name, part
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate retrievals: %w", err)
	}
	defer rows.Close()

	stats := []*RetrievalStats{}
	for rows.Next() {
		st := &RetrievalStats{}
		if err := rows.Scan(&st.TypeName, &st.Part, &st.Total, &st.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan retrieval stats: %w", err)
		}
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating retrieval stats: %w", err)
	}

	return stats, nil
}

// PruneRetrievals deletes entries recorded before the given time and returns
// how many were removed.
func (s *SQLiteStore) PruneRetrievals(ctx context.Context, before time.Time) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM retrievals WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune retrievals: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}

func (f RetrievalFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.TypeName != "" {
		clauses = append(clauses, "type_name = ?")
		args = append(args, f.TypeName)
	}
	if f.Part != "" {
		clauses = append(clauses, "part = ?")
		args = append(args, f.Part)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.Since.UTC())
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(clauses, " AND "), args
}
