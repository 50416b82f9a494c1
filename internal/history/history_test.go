package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_TimestampISO(t *testing.T) {
	rec := Record{CreatedAt: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)}
	assert.Equal(t, "2025-06-01T12:30:00Z", rec.TimestampISO())

	// Non-UTC timestamps serialize in UTC.
	ist := time.FixedZone("IST", 5*3600+1800)
	rec = Record{CreatedAt: time.Date(2025, 6, 1, 18, 0, 0, 0, ist)}
	assert.Equal(t, "2025-06-01T12:30:00Z", rec.TimestampISO())

	// A record with no timestamp serializes to an empty string.
	assert.Equal(t, "", Record{}.TimestampISO())
}

func TestWriteError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := &WriteError{Err: cause}

	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorIs(t, err, cause)
}

func TestReadError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ReadError{Err: cause}

	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}

func TestNewStorage(t *testing.T) {
	storage, err := NewStorage(Config{StorageType: MemoryStorageType})
	require.NoError(t, err)
	require.NotNil(t, storage)
	defer storage.Close()

	_, err = NewStorage(Config{StorageType: StorageType("cassandra")})
	assert.Error(t, err)
}

// appendListContract exercises the behavior every backend must share.
func appendListContract(t *testing.T, storage Storage) {
	t.Helper()
	ctx := context.Background()

	// Append then ListRecent(1) returns exactly the appended record as the
	// most recent entry.
	require.NoError(t, storage.Append(ctx, Record{Message: "first", Clarity: "reply one", ModelUsed: "model-a"}))

	records, err := storage.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "first", records[0].Message)
	assert.Equal(t, "reply one", records[0].Clarity)
	assert.Equal(t, "model-a", records[0].ModelUsed)
	assert.False(t, records[0].CreatedAt.IsZero(), "Append must assign a timestamp")

	// Additional appends come back newest first, never more than limit.
	require.NoError(t, storage.Append(ctx, Record{Message: "second", Clarity: "reply two"}))
	require.NoError(t, storage.Append(ctx, Record{Message: "third", Clarity: "reply three"}))

	records, err = storage.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "third", records[0].Message)
	assert.Equal(t, "second", records[1].Message)

	records, err = storage.ListRecent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i-1].CreatedAt.Before(records[i].CreatedAt),
			"records must be in non-increasing CreatedAt order")
	}

	assert.NoError(t, storage.Ping(ctx))
}
