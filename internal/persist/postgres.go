package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/fetchdeck/backend/internal/queue"
)

// PostgresStore persists queue snapshots in Postgres. Each save replaces
// the full snapshot inside a transaction, so a crash never leaves a
// half-written queue behind.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to Postgres and runs migrations
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS queue_items (
		id UUID PRIMARY KEY,
		url TEXT NOT NULL,
		kind VARCHAR(16) NOT NULL,
		status VARCHAR(32) NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		priority INTEGER NOT NULL DEFAULT 0,
		playlist_id UUID,
		playlist_index INTEGER,
		playlist_title TEXT,
		title TEXT,
		size_bytes BIGINT NOT NULL DEFAULT 0,
		duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		output_path TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		options JSONB NOT NULL,
		added_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_queue_items_playlist_id ON queue_items(playlist_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Load retrieves the persisted snapshot
func (s *PostgresStore) Load(ctx context.Context) ([]queue.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, kind, status, progress, priority,
		       COALESCE(playlist_id::text, ''), COALESCE(playlist_index, 0),
		       COALESCE(playlist_title, ''), COALESCE(title, ''),
		       size_bytes, duration_seconds, COALESCE(output_path, ''),
		       retry_count, COALESCE(last_error, ''), options, added_at
		FROM queue_items
		ORDER BY priority, added_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue snapshot: %w", err)
	}
	defer rows.Close()

	var items []queue.Item
	for rows.Next() {
		var (
			it      queue.Item
			options []byte
		)
		if err := rows.Scan(
			&it.ID, &it.URL, &it.Kind, &it.Status, &it.Progress, &it.Priority,
			&it.PlaylistID, &it.PlaylistIndex, &it.PlaylistTitle, &it.Title,
			&it.Size, &it.Duration, &it.OutputPath,
			&it.RetryCount, &it.LastError, &options, &it.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}
		if err := json.Unmarshal(options, &it.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item options: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queue items: %w", err)
	}
	return items, nil
}

// Save replaces the persisted snapshot in one transaction
func (s *PostgresStore) Save(ctx context.Context, items []queue.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM queue_items`); err != nil {
		return fmt.Errorf("failed to clear queue snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO queue_items (
			id, url, kind, status, progress, priority,
			playlist_id, playlist_index, playlist_title, title,
			size_bytes, duration_seconds, output_path,
			retry_count, last_error, options, added_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		options, err := json.Marshal(it.Options)
		if err != nil {
			return fmt.Errorf("failed to marshal item options: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			it.ID, it.URL, it.Kind, it.Status, it.Progress, it.Priority,
			it.PlaylistID, it.PlaylistIndex, it.PlaylistTitle, it.Title,
			it.Size, it.Duration, it.OutputPath,
			it.RetryCount, it.LastError, options, it.AddedAt,
		); err != nil {
			return fmt.Errorf("failed to insert queue item: %w", err)
		}
	}

	return tx.Commit()
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
