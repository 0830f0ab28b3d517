package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/repo"
)

type memorySet struct {
	index map[string]int
	items []domain.SeenIdentifier
}

// memoryDedupRepo keeps identifier sets for the lifetime of the process
type memoryDedupRepo struct {
	mu   sync.Mutex
	sets map[domain.IdentifierSet]*memorySet
}

// NewMemoryDedupRepo creates an in-memory dedup store
func NewMemoryDedupRepo() repo.DedupRepo {
	return &memoryDedupRepo{
		sets: make(map[domain.IdentifierSet]*memorySet),
	}
}

func (r *memoryDedupRepo) MarkSeen(ctx context.Context, set domain.IdentifierSet, id, label string) (bool, error) {
	if !set.Valid() {
		return false, fmt.Errorf("unknown identifier set %q", set)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sets[set]
	if !ok {
		s = &memorySet{index: make(map[string]int)}
		r.sets[set] = s
	}
	if _, exists := s.index[id]; exists {
		return false, nil
	}

	s.index[id] = len(s.items)
	s.items = append(s.items, domain.SeenIdentifier{
		Set:    set,
		ID:     id,
		Label:  label,
		SeenAt: time.Now(),
	})
	return true, nil
}

func (r *memoryDedupRepo) Seen(ctx context.Context, set domain.IdentifierSet, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sets[set]
	if !ok {
		return false, nil
	}
	_, seen := s.index[id]
	return seen, nil
}

func (r *memoryDedupRepo) List(ctx context.Context, set domain.IdentifierSet) ([]*domain.SeenIdentifier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sets[set]
	if !ok {
		return nil, nil
	}
	result := make([]*domain.SeenIdentifier, 0, len(s.items))
	for i := range s.items {
		item := s.items[i]
		result = append(result, &item)
	}
	return result, nil
}

func (r *memoryDedupRepo) Close() error {
	return nil
}
