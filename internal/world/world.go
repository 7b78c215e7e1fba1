// Package world defines the entity/component contracts the effect
// interpreter executes against, plus an in-memory implementation used
// by the host loop and tests.
package world

import (
	apperrors "github.com/villagemind/spellcore/internal/errors"
	"github.com/villagemind/spellcore/internal/uuid"
)

// Entity is one addressable thing in the simulation.
type Entity interface {
	// ID returns the entity's stable identifier
	ID() string

	// Component returns the most recently added component of the given
	// type, or false when the entity has none
	Component(componentType string) (Component, bool)

	// HasComponent reports whether a component of the given type exists
	HasComponent(componentType string) bool

	// ComponentTypes lists attached component types in insertion order
	ComponentTypes() []string
}

// World is the mutable handle effects operate on. Implementations must
// make mutations immediately visible to subsequent reads within one
// effect execution.
type World interface {
	// CreateEntity creates a new empty entity
	CreateEntity() Entity

	// Entity looks up an entity by ID
	Entity(id string) (Entity, bool)

	// AddComponent attaches a component to an entity
	AddComponent(entityID string, component Component) error

	// RemoveComponent detaches all components of the given type
	RemoveComponent(entityID string, componentType string) error

	// Query starts a component-filtered entity query
	Query() Query
}

// Query selects entities by required components. Results preserve
// entity insertion order so callers taking a stable prefix are
// deterministic.
type Query interface {
	With(componentType string) Query
	Entities() []Entity
}

// MemoryWorld is the reference in-memory World.
type MemoryWorld struct {
	ids      uuid.Generator
	entities map[string]*memoryEntity
	order    []string
}

// MemoryWorldConfig configures a MemoryWorld.
type MemoryWorldConfig struct {
	// IDGenerator defaults to random UUIDs
	IDGenerator uuid.Generator
}

// NewMemoryWorld creates an empty in-memory world.
func NewMemoryWorld(cfg *MemoryWorldConfig) *MemoryWorld {
	gen := uuid.Generator(uuid.NewGoogleUUIDGenerator())
	if cfg != nil && cfg.IDGenerator != nil {
		gen = cfg.IDGenerator
	}
	return &MemoryWorld{
		ids:      gen,
		entities: make(map[string]*memoryEntity),
	}
}

// CreateEntity creates a new empty entity
func (w *MemoryWorld) CreateEntity() Entity {
	e := &memoryEntity{
		id:    w.ids.New(),
		index: make(map[string]int),
	}
	w.entities[e.id] = e
	w.order = append(w.order, e.id)
	return e
}

// Entity looks up an entity by ID
func (w *MemoryWorld) Entity(id string) (Entity, bool) {
	e, ok := w.entities[id]
	if !ok {
		return nil, false
	}
	return e, true
}

// AddComponent attaches a component to an entity
func (w *MemoryWorld) AddComponent(entityID string, component Component) error {
	e, ok := w.entities[entityID]
	if !ok {
		return apperrors.NotFoundf("entity %q not found", entityID)
	}
	if component == nil {
		return apperrors.InvalidArgument("component cannot be nil")
	}
	e.add(component)
	return nil
}

// RemoveComponent detaches all components of the given type
func (w *MemoryWorld) RemoveComponent(entityID string, componentType string) error {
	e, ok := w.entities[entityID]
	if !ok {
		return apperrors.NotFoundf("entity %q not found", entityID)
	}
	e.remove(componentType)
	return nil
}

// Query starts a component-filtered entity query
func (w *MemoryWorld) Query() Query {
	return &memoryQuery{world: w}
}

// Len returns the number of entities in the world.
func (w *MemoryWorld) Len() int {
	return len(w.entities)
}

type memoryQuery struct {
	world    *MemoryWorld
	required []string
}

func (q *memoryQuery) With(componentType string) Query {
	q.required = append(q.required, componentType)
	return q
}

func (q *memoryQuery) Entities() []Entity {
	var out []Entity
	for _, id := range q.world.order {
		e := q.world.entities[id]
		if e == nil {
			continue
		}
		match := true
		for _, req := range q.required {
			if !e.HasComponent(req) {
				match = false
				break
			}
		}
		if match {
			out = append(out, e)
		}
	}
	return out
}

type memoryEntity struct {
	id         string
	components []Component
	index      map[string]int // type -> position of latest component
}

func (e *memoryEntity) ID() string {
	return e.id
}

func (e *memoryEntity) Component(componentType string) (Component, bool) {
	i, ok := e.index[componentType]
	if !ok {
		return nil, false
	}
	return e.components[i], true
}

func (e *memoryEntity) HasComponent(componentType string) bool {
	_, ok := e.index[componentType]
	return ok
}

func (e *memoryEntity) ComponentTypes() []string {
	seen := make(map[string]bool, len(e.components))
	var types []string
	for _, c := range e.components {
		if c == nil {
			continue
		}
		t := c.ComponentType()
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types
}

func (e *memoryEntity) add(c Component) {
	e.components = append(e.components, c)
	e.index[c.ComponentType()] = len(e.components) - 1
}

func (e *memoryEntity) remove(componentType string) {
	if _, ok := e.index[componentType]; !ok {
		return
	}
	kept := e.components[:0]
	for _, c := range e.components {
		if c != nil && c.ComponentType() != componentType {
			kept = append(kept, c)
		}
	}
	e.components = kept
	e.index = make(map[string]int, len(kept))
	for i, c := range kept {
		e.index[c.ComponentType()] = i
	}
}
