package repo

import (
	"context"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
)

// DedupRepo is the identifier dedup store.
// Sets are append-only: an identifier is never removed once marked.
type DedupRepo interface {
	// MarkSeen inserts id into set and reports whether it was newly inserted.
	// Safe for concurrent use; exactly one caller wins for a given id.
	MarkSeen(ctx context.Context, set domain.IdentifierSet, id, label string) (bool, error)

	// Seen reports whether id is already in set
	Seen(ctx context.Context, set domain.IdentifierSet, id string) (bool, error)

	// List lists the entries of a set, oldest first
	List(ctx context.Context, set domain.IdentifierSet) ([]*domain.SeenIdentifier, error)

	Close() error
}
