package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// KVRepo defines the interface for key-value repository operations
type KVRepo interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type kvRepo struct {
	db *sql.DB
}

// NewKVRepo creates a new KVRepo backed by the kv_entries table
func NewKVRepo(db *sql.DB) KVRepo {
	return &kvRepo{db: db}
}

// Get retrieves the raw JSON value stored for key
func (r *kvRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT value FROM kv_entries WHERE key = $1
	`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to query entry: %w", err)
	}
	return value, true, nil
}

// Set inserts or replaces the value for key (last writer wins)
func (r *kvRepo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (r *kvRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}
