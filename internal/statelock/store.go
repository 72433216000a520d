package statelock

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// keyPrefix namespaces lock records inside the shared kv_store table.
const keyPrefix = "_state_lock:"

// Store is the durable backend for lock records. The Lock mirrors every
// acquire and release to it when configured.
type Store interface {
	// Put upserts the record for rec.DeviceID.
	Put(ctx context.Context, rec StateVersion) error

	// Delete removes the record for deviceID. Deleting an absent record
	// is not an error.
	Delete(ctx context.Context, deviceID string) error

	// List returns all stored lock records.
	List(ctx context.Context) ([]StateVersion, error)
}

// SQLiteStore implements Store on the kv_store table, one row per device
// keyed "_state_lock:<deviceID>" with the record serialised as JSON.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed lock store.
// The db parameter should be an open SQLite connection with the kv_store
// table migrated.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Put upserts a lock record.
func (s *SQLiteStore) Put(ctx context.Context, rec StateVersion) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling lock record: %w", err)
	}

	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, query, keyPrefix+rec.DeviceID, string(value), now); err != nil {
		return fmt.Errorf("upserting lock record: %w", err)
	}
	return nil
}

// Delete removes a lock record.
func (s *SQLiteStore) Delete(ctx context.Context, deviceID string) error {
	query := `DELETE FROM kv_store WHERE key = ?`
	if _, err := s.db.ExecContext(ctx, query, keyPrefix+deviceID); err != nil {
		return fmt.Errorf("deleting lock record: %w", err)
	}
	return nil
}

// List returns all stored lock records.
// GLOB is used instead of LIKE because "_" is a LIKE wildcard.
func (s *SQLiteStore) List(ctx context.Context) ([]StateVersion, error) {
	query := `SELECT value FROM kv_store WHERE key GLOB ? ORDER BY key`

	rows, err := s.db.QueryContext(ctx, query, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("querying lock records: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var records []StateVersion
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scanning lock record: %w", err)
		}
		var rec StateVersion
		if err := json.Unmarshal([]byte(value), &rec); err != nil {
			return nil, fmt.Errorf("unmarshalling lock record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lock records: %w", err)
	}
	return records, nil
}
