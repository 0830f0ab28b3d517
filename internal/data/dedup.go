package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// dedupRepo persists identifier sets in sqlite so a restart does not
// greet the same match twice
type dedupRepo struct {
	db *sql.DB
}

// NewDedupRepo opens (or creates) the dedup database at dbPath
func NewDedupRepo(dbPath string) (repo.DedupRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps INSERT OR IGNORE race-free across goroutines
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS seen_identifiers (
			set_name TEXT NOT NULL,
			id TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			seen_at INTEGER NOT NULL,
			PRIMARY KEY (set_name, id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_seen_identifiers_seen_at ON seen_identifiers(set_name, seen_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &dedupRepo{db: db}, nil
}

// MarkSeen inserts the identifier and reports whether it was new
func (r *dedupRepo) MarkSeen(ctx context.Context, set domain.IdentifierSet, id, label string) (bool, error) {
	if !set.Valid() {
		return false, fmt.Errorf("unknown identifier set %q", set)
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO seen_identifiers (set_name, id, label, seen_at)
		VALUES (?, ?, ?, ?)
	`, string(set), id, label, time.Now().UnixNano())
	if err != nil {
		return false, fmt.Errorf("failed to mark identifier: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

// Seen reports whether the identifier was marked before
func (r *dedupRepo) Seen(ctx context.Context, set domain.IdentifierSet, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM seen_identifiers WHERE set_name = ? AND id = ?
	`, string(set), id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query identifier: %w", err)
	}
	return count > 0, nil
}

// List lists a set oldest first
func (r *dedupRepo) List(ctx context.Context, set domain.IdentifierSet) ([]*domain.SeenIdentifier, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, label, seen_at FROM seen_identifiers
		WHERE set_name = ?
		ORDER BY seen_at ASC, rowid ASC
	`, string(set))
	if err != nil {
		return nil, fmt.Errorf("failed to list identifiers: %w", err)
	}
	defer rows.Close()

	var result []*domain.SeenIdentifier
	for rows.Next() {
		var item domain.SeenIdentifier
		var seenAt int64
		if err := rows.Scan(&item.ID, &item.Label, &seenAt); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		item.Set = set
		item.SeenAt = time.Unix(0, seenAt)
		result = append(result, &item)
	}
	return result, rows.Err()
}

// Close closes the database
func (r *dedupRepo) Close() error {
	return r.db.Close()
}
