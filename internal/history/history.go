// Package history persists finished gap analyses so later runs can be diffed
// against them.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/analysis"
)

const (
	DriverNone     = "none"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	ErrUnknownDriver = errors.New("unknown history driver")
	ErrNoStudent     = errors.New("record has no student id")
)

// Record is one stored analysis.
type Record struct {
	ID         string             `json:"id"`
	StudentID  string             `json:"studentId"`
	AnalyzedAt time.Time          `json:"analyzedAt"`
	Analysis   *analysis.Analysis `json:"analysis"`
}

// NewRecord wraps an analysis with a fresh ID.
func NewRecord(a *analysis.Analysis) *Record {
	return &Record{
		ID:         uuid.New().String(),
		StudentID:  a.StudentID,
		AnalyzedAt: a.AnalyzedAt,
		Analysis:   a,
	}
}

func (r *Record) validate() error {
	if r == nil || r.Analysis == nil {
		return analysis.ErrMissingAnalysis
	}
	if r.StudentID == "" {
		return ErrNoStudent
	}
	return nil
}

// Store keeps records per student. Latest returns at most n records, newest first.
type Store interface {
	Save(ctx context.Context, r *Record) error
	Latest(ctx context.Context, studentID string, n int) ([]*Record, error)
	Close() error
}

// Config selects and configures a store.
type Config struct {
	Driver string `mapstructure:"driver"`
	Dir    string `mapstructure:"dir"`
	// MaxEntries caps records per student in the file store.
	MaxEntries int         `mapstructure:"max-entries"`
	Redis      RedisConfig `mapstructure:"redis"`
	SQL        SQLConfig   `mapstructure:"sql"`
}

// Open builds the store named by cfg.Driver. An empty driver means none.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "", DriverNone:
		return Nop{}, nil
	case DriverFile:
		return NewFileStore(cfg.Dir, cfg.MaxEntries)
	case DriverRedis:
		return NewRedisStore(ctx, cfg.Redis, log)
	case DriverPostgres, DriverSQLite:
		return OpenSQL(ctx, cfg.Driver, cfg.SQL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// Nop discards records.
type Nop struct{}

func (Nop) Save(context.Context, *Record) error { return nil }

func (Nop) Latest(context.Context, string, int) ([]*Record, error) { return nil, nil }

func (Nop) Close() error { return nil }
