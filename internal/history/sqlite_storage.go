package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage persists history records in a local SQLite database.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at dbPath and ensures
// the schema exists.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{db: db}

	if err := storage.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates the mindsweeps table if it doesn't exist
func (s *SQLiteStorage) initSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS mindsweeps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message TEXT NOT NULL,
			clarity TEXT NOT NULL,
			model_used TEXT,
			created_at DATETIME NOT NULL
		)
	`

	_, err := s.db.Exec(query)
	return err
}

// Append writes one immutable record with a server-assigned timestamp.
func (s *SQLiteStorage) Append(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO mindsweeps (message, clarity, model_used, created_at)
		VALUES (?, ?, ?, ?)
	`

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := s.db.ExecContext(ctx, query, rec.Message, rec.Clarity, rec.ModelUsed, createdAt); err != nil {
		return &WriteError{Err: err}
	}

	return nil
}

// ListRecent returns up to limit records, most recent first. The id column
// breaks ties between records written within the same clock tick.
func (s *SQLiteStorage) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT message, clarity, model_used, created_at
		FROM mindsweeps
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var modelUsed sql.NullString
		if err := rows.Scan(&rec.Message, &rec.Clarity, &modelUsed, &rec.CreatedAt); err != nil {
			return nil, &ReadError{Err: err}
		}
		rec.ModelUsed = modelUsed.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, &ReadError{Err: err}
	}

	return records, nil
}

// Ping verifies the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
