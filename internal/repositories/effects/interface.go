package effects

//go:generate mockgen -destination=mocks/mock_repository.go -package=mockeffects -source=interface.go

import (
	"context"
	"time"

	"github.com/villagemind/spellcore/internal/effect"
)

// Repository persists effect definitions. The interpreter's chain
// registry is in-memory and per-instance; this store is where the host
// loads grimoires from.
type Repository interface {
	// Create stores a new effect definition
	Create(ctx context.Context, record *Record) error

	// Get retrieves an effect definition by ID
	Get(ctx context.Context, id string) (*Record, error)

	// Update replaces an existing effect definition
	Update(ctx context.Context, record *Record) error

	// Delete removes an effect definition
	Delete(ctx context.Context, id string) error

	// ListByGrimoire retrieves all effects in a grimoire
	ListByGrimoire(ctx context.Context, grimoireID string) ([]*Record, error)
}

// Record wraps a stored effect definition with ownership metadata.
type Record struct {
	ID         string                   `json:"id"`
	GrimoireID string                   `json:"grimoire_id"`
	Definition *effect.EffectExpression `json:"definition"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// TimeProvider supplies timestamps so repositories are testable.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider returns the wall clock.
type RealTimeProvider struct{}

// Now returns the current time
func (RealTimeProvider) Now() time.Time {
	return time.Now().UTC()
}
