package effects

import (
	"context"
	"sync"

	apperrors "github.com/villagemind/spellcore/internal/errors"
)

type inMemoryRepo struct {
	mu           sync.RWMutex
	records      map[string]*Record
	grimoires    map[string][]string
	timeProvider TimeProvider
}

// NewInMemory creates an in-memory effect repository for tests and
// single-process hosts.
func NewInMemory() Repository {
	return &inMemoryRepo{
		records:      make(map[string]*Record),
		grimoires:    make(map[string][]string),
		timeProvider: RealTimeProvider{},
	}
}

func (r *inMemoryRepo) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return apperrors.InvalidArgument("record cannot be nil")
	}
	if record.ID == "" {
		return apperrors.InvalidArgument("record has no id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.ID]; exists {
		return apperrors.AlreadyExists("effect already exists: " + record.ID)
	}

	now := r.timeProvider.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	r.records[record.ID] = record
	if record.GrimoireID != "" {
		r.grimoires[record.GrimoireID] = append(r.grimoires[record.GrimoireID], record.ID)
	}
	return nil
}

func (r *inMemoryRepo) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, apperrors.InvalidArgument("id cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, apperrors.NotFoundf("effect %q not found", id)
	}
	return record, nil
}

func (r *inMemoryRepo) Update(ctx context.Context, record *Record) error {
	if record == nil {
		return apperrors.InvalidArgument("record cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[record.ID]
	if !ok {
		return apperrors.NotFoundf("effect %q not found", record.ID)
	}

	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = r.timeProvider.Now()
	r.records[record.ID] = record
	return nil
}

func (r *inMemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return apperrors.NotFoundf("effect %q not found", id)
	}

	delete(r.records, id)
	if record.GrimoireID != "" {
		ids := r.grimoires[record.GrimoireID]
		kept := ids[:0]
		for _, existing := range ids {
			if existing != id {
				kept = append(kept, existing)
			}
		}
		r.grimoires[record.GrimoireID] = kept
	}
	return nil
}

func (r *inMemoryRepo) ListByGrimoire(ctx context.Context, grimoireID string) ([]*Record, error) {
	if grimoireID == "" {
		return nil, apperrors.InvalidArgument("grimoireID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.grimoires[grimoireID]
	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		if record, ok := r.records[id]; ok {
			records = append(records, record)
		}
	}
	return records, nil
}
