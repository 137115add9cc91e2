package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/logger"
)

const (
	defaultKeyPrefix  = "scholarpath:history:"
	defaultMaxEntries = 50
)

type RedisConfig struct {
	Address    string        `mapstructure:"address"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	TTL        time.Duration `mapstructure:"ttl"`
	KeyPrefix  string        `mapstructure:"key-prefix"`
	MaxEntries int64         `mapstructure:"max-entries"`
}

// RedisStore keeps a capped list of JSON records per student, newest at the head.
type RedisStore struct {
	client     *redis.Client
	logger     *zap.Logger
	ttl        time.Duration
	prefix     string
	maxEntries int64
}

// NewRedisStore dials Redis and checks the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig, log *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, cfg, log), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, cfg RedisConfig, log *zap.Logger) *RedisStore {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &RedisStore{
		client:     client,
		logger:     logger.WithFields(log),
		ttl:        cfg.TTL,
		prefix:     prefix,
		maxEntries: maxEntries,
	}
}

func (s *RedisStore) key(studentID string) string {
	return s.prefix + studentID
}

func (s *RedisStore) Save(ctx context.Context, r *Record) error {
	if err := r.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	key := s.key(r.StudentID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, s.maxEntries-1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	s.logger.Debug("history record saved", append(logger.StudentFields(r.StudentID), zap.String("record_id", r.ID))...)
	return nil
}

func (s *RedisStore) Latest(ctx context.Context, studentID string, n int) ([]*Record, error) {
	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}
	raw, err := s.client.LRange(ctx, s.key(studentID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	records := make([]*Record, 0, len(raw))
	for _, item := range raw {
		var r Record
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			s.logger.Warn("skipping unreadable history record", append(logger.StudentFields(studentID), zap.Error(err))...)
			continue
		}
		records = append(records, &r)
	}
	return records, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
