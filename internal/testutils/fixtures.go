package testutils

import (
	"github.com/villagemind/spellcore/internal/uuid"
	"github.com/villagemind/spellcore/internal/world"
)

// NewTestWorld creates an in-memory world with deterministic entity
// IDs (entity-1, entity-2, ...).
func NewTestWorld() *world.MemoryWorld {
	return world.NewMemoryWorld(&world.MemoryWorldConfig{
		IDGenerator: &uuid.SequentialGenerator{Prefix: "entity"},
	})
}

// CreateTestVillager creates a positioned villager with full health,
// panicking on failure so fixtures stay assignment-friendly.
func CreateTestVillager(w *world.MemoryWorld, name, faction string, x, y float64) world.Entity {
	e, err := world.SeedVillager(w, name, faction, x, y)
	if err != nil {
		panic(err)
	}
	return e
}

// CreateTestAnimal creates a positioned animal entity.
func CreateTestAnimal(w *world.MemoryWorld, name string, x, y float64) world.Entity {
	e, err := world.SeedAnimal(w, name, x, y)
	if err != nil {
		panic(err)
	}
	return e
}
