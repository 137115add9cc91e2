package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type SQLConfig struct {
	DSN            string `mapstructure:"dsn"`
	MaxConnections int    `mapstructure:"max-connections"`
	MaxIdle        int    `mapstructure:"max-idle"`
}

const createTable = `CREATE TABLE IF NOT EXISTS analysis_history (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL,
	analyzed_at TIMESTAMP NOT NULL,
	payload TEXT NOT NULL
)`

// SQLStore keeps records in a single table. It speaks both Postgres and SQLite.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQL opens the database and creates the history table when missing.
func OpenSQL(ctx context.Context, driver string, cfg SQLConfig) (*SQLStore, error) {
	name := driver
	if driver == DriverSQLite {
		name = "sqlite3"
	}
	db, err := sql.Open(name, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	store := NewSQLStore(db, driver)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create history table: %w", err)
	}
	return nil
}

// bind rewrites ? placeholders to $N for Postgres.
func (s *SQLStore) bind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Save(ctx context.Context, r *Record) error {
	if err := r.validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(r.Analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		s.bind(`INSERT INTO analysis_history (id, student_id, analyzed_at, payload) VALUES (?, ?, ?, ?)`),
		r.ID, r.StudentID, r.AnalyzedAt.UTC(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *SQLStore) Latest(ctx context.Context, studentID string, n int) ([]*Record, error) {
	query := `SELECT id, student_id, analyzed_at, payload FROM analysis_history WHERE student_id = ? ORDER BY analyzed_at DESC`
	args := []any{studentID}
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}
	rows, err := s.db.QueryContext(ctx, s.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			r       Record
			payload string
		)
		if err := rows.Scan(&r.ID, &r.StudentID, &r.AnalyzedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &r.Analysis); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", r.ID, err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
