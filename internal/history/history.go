// Copyright 2025 MindSweep AI Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package history persists completed exchanges and reads them back newest
// first. Records are immutable once written; there is no update or delete
// path.
package history

import (
	"context"
	"fmt"
	"time"
)

// StorageType represents the type of storage backend for history records
type StorageType string

const (
	// SQLiteStorageType stores records in a local SQLite database
	SQLiteStorageType StorageType = "sqlite"
	// RedisStorageType stores records in a Redis sorted set
	RedisStorageType StorageType = "redis"
	// MemoryStorageType keeps records in process memory
	MemoryStorageType StorageType = "memory"
)

// DefaultListLimit is the number of records the read path returns when the
// caller does not say otherwise.
const DefaultListLimit = 20

// Record is one persisted exchange.
type Record struct {
	Message   string    `json:"message"`
	Clarity   string    `json:"clarity"`
	ModelUsed string    `json:"model_used,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TimestampISO serializes the record's timestamp for the read boundary.
// A record with no timestamp serializes to an empty string rather than
// raising.
func (r Record) TimestampISO() string {
	if r.CreatedAt.IsZero() {
		return ""
	}
	return r.CreatedAt.UTC().Format(time.RFC3339)
}

// Storage defines the interface for history storage backends. Append
// assigns the timestamp at write time from the server clock; ListRecent
// returns up to limit records in non-increasing CreatedAt order.
type Storage interface {
	Append(ctx context.Context, rec Record) error
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// WriteError signals that the backing store rejected or could not take a
// write. Callers must not let it mask an already-computed completion.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("history write failed: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ReadError signals that the backing store was unreachable or failed while
// reading. The read path degrades to an empty list at the handler boundary.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("history read failed: %v", e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Config holds history storage configuration.
type Config struct {
	StorageType StorageType
	DBPath      string
	RedisURL    string
	MaxRecords  int
}

// NewStorage creates the storage backend named by the configuration.
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.StorageType {
	case SQLiteStorageType:
		return NewSQLiteStorage(cfg.DBPath)
	case RedisStorageType:
		return NewRedisStorage(cfg.RedisURL)
	case MemoryStorageType:
		return NewMemoryStorage(cfg.MaxRecords), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}
