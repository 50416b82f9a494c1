package history

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxRecords bounds the in-memory log when no cap is configured.
const DefaultMaxRecords = 1000

// MemoryStorage keeps history records in process memory. Used for tests and
// demo runs; the log does not survive a restart.
type MemoryStorage struct {
	mu         sync.RWMutex
	records    []Record
	maxRecords int
}

// NewMemoryStorage creates an in-memory storage holding at most maxRecords
// entries; the oldest entries are dropped past the cap.
func NewMemoryStorage(maxRecords int) *MemoryStorage {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &MemoryStorage{maxRecords: maxRecords}
}

// Append writes one immutable record with a server-assigned timestamp.
func (s *MemoryStorage) Append(_ context.Context, rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if len(s.records) > s.maxRecords {
		s.records = s.records[len(s.records)-s.maxRecords:]
	}

	return nil
}

// ListRecent returns up to limit records, most recent first.
func (s *MemoryStorage) ListRecent(_ context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if limit > n {
		limit = n
	}

	records := make([]Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		records = append(records, s.records[i])
	}

	return records, nil
}

// Ping always succeeds for the in-memory backend.
func (s *MemoryStorage) Ping(_ context.Context) error {
	return nil
}

// Close releases the stored records.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}
