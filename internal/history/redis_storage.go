package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKey is the sorted set holding history records, scored by the
// write-time unix nanosecond clock so range reads come back in time order.
const redisKey = "mindsweep:history"

const redisDialTimeout = 3 * time.Second

// RedisStorage persists history records in a Redis sorted set, for
// deployments that want the log shared across replicas.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage connects to Redis at the given URL
// (redis://[user:pass@]host:port/db) and verifies the connection.
func NewRedisStorage(redisURL string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStorage{client: client}, nil
}

// Append writes one immutable record with a server-assigned timestamp.
func (s *RedisStorage) Append(ctx context.Context, rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return &WriteError{Err: err}
	}

	member := redis.Z{
		Score:  float64(rec.CreatedAt.UnixNano()),
		Member: payload,
	}
	if err := s.client.ZAdd(ctx, redisKey, member).Err(); err != nil {
		return &WriteError{Err: err}
	}

	return nil
}

// ListRecent returns up to limit records, most recent first.
func (s *RedisStorage) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	members, err := s.client.ZRevRange(ctx, redisKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, &ReadError{Err: err}
	}

	records := make([]Record, 0, len(members))
	for _, member := range members {
		var rec Record
		if err := json.Unmarshal([]byte(member), &rec); err != nil {
			return nil, &ReadError{Err: err}
		}
		records = append(records, rec)
	}

	return records, nil
}

// Ping verifies the Redis connection.
func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
