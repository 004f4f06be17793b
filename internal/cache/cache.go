// Package cache persists the most recent full listing snapshot in a
// local SQLite database so it can be shown again without a network round
// trip. The cache is additive only — the live listing path never reads it.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".

	"github.com/tonimelisma/gdrive-go/internal/remote"
)

// ErrNoSnapshot is returned when no listing has been cached yet.
var ErrNoSnapshot = errors.New("cache: no snapshot stored")

// Store holds the SQLite handle. Single writer — the connection pool is
// capped at one so snapshot replacement stays serialized.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the cache database at path and applies any
// pending migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot atomically replaces the stored snapshot with the given
// resources, preserving their order.
func (s *Store) SaveSnapshot(ctx context.Context, resources []remote.Resource) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache: beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_resources`); err != nil {
		return fmt.Errorf("cache: clearing snapshot: %w", err)
	}

	now := time.Now().UTC().Unix()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_resources (position, id, name, modified_at, size, parents, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cache: preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range resources {
		parents, marshalErr := json.Marshal(r.ParentIDs)
		if marshalErr != nil {
			return fmt.Errorf("cache: encoding parents for %s: %w", r.ID, marshalErr)
		}

		if _, err := stmt.ExecContext(ctx,
			i, r.ID, r.Name, r.ModifiedAt.UTC().Format(time.RFC3339Nano), r.Size, string(parents), now,
		); err != nil {
			return fmt.Errorf("cache: inserting %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache: committing snapshot: %w", err)
	}

	s.logger.Debug("saved listing snapshot", slog.Int("count", len(resources)))

	return nil
}

// Snapshot returns the stored snapshot in its original order, plus the
// time it was stored. Returns ErrNoSnapshot if nothing has been saved.
func (s *Store) Snapshot(ctx context.Context) ([]remote.Resource, time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, modified_at, size, parents, stored_at
		FROM snapshot_resources
		ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("cache: querying snapshot: %w", err)
	}
	defer rows.Close()

	var (
		resources []remote.Resource
		storedAt  int64
	)

	for rows.Next() {
		var (
			r        remote.Resource
			modified string
			parents  string
		)

		if err := rows.Scan(&r.ID, &r.Name, &modified, &r.Size, &parents, &storedAt); err != nil {
			return nil, time.Time{}, fmt.Errorf("cache: scanning row: %w", err)
		}

		if modified != "" {
			t, parseErr := time.Parse(time.RFC3339Nano, modified)
			if parseErr != nil {
				return nil, time.Time{}, fmt.Errorf("cache: parsing modified_at for %s: %w", r.ID, parseErr)
			}

			r.ModifiedAt = t
		}

		if err := json.Unmarshal([]byte(parents), &r.ParentIDs); err != nil {
			return nil, time.Time{}, fmt.Errorf("cache: decoding parents for %s: %w", r.ID, err)
		}

		resources = append(resources, r)
	}

	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("cache: iterating snapshot: %w", err)
	}

	if len(resources) == 0 {
		return nil, time.Time{}, ErrNoSnapshot
	}

	return resources, time.Unix(storedAt, 0).UTC(), nil
}
