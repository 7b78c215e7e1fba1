package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/villagemind/spellcore/internal/errors"
	"github.com/villagemind/spellcore/internal/uuid"
)

func newTestWorld() *MemoryWorld {
	return NewMemoryWorld(&MemoryWorldConfig{
		IDGenerator: &uuid.SequentialGenerator{Prefix: "e"},
	})
}

func TestCreateAndLookupEntity(t *testing.T) {
	w := newTestWorld()

	e := w.CreateEntity()
	assert.Equal(t, "e-1", e.ID())

	got, ok := w.Entity("e-1")
	require.True(t, ok)
	assert.Equal(t, e.ID(), got.ID())

	_, ok = w.Entity("missing")
	assert.False(t, ok)
}

func TestAddComponentErrors(t *testing.T) {
	w := newTestWorld()
	e := w.CreateEntity()

	err := w.AddComponent("missing", &Position{})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	err = w.AddComponent(e.ID(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestLatestComponentWins(t *testing.T) {
	w := newTestWorld()
	e := w.CreateEntity()

	require.NoError(t, w.AddComponent(e.ID(), &StatusEffect{Version: 1, Name: "burning"}))
	require.NoError(t, w.AddComponent(e.ID(), &StatusEffect{Version: 1, Name: "frozen"}))

	c, ok := e.Component(ComponentStatusEffect)
	require.True(t, ok)
	assert.Equal(t, "frozen", c.(*StatusEffect).Name)
}

func TestRemoveComponentDropsAllOfType(t *testing.T) {
	w := newTestWorld()
	e := w.CreateEntity()

	require.NoError(t, w.AddComponent(e.ID(), &StatusEffect{Version: 1, Name: "burning"}))
	require.NoError(t, w.AddComponent(e.ID(), &StatusEffect{Version: 1, Name: "frozen"}))
	require.NoError(t, w.AddComponent(e.ID(), &Position{X: 1}))

	require.NoError(t, w.RemoveComponent(e.ID(), ComponentStatusEffect))

	assert.False(t, e.HasComponent(ComponentStatusEffect))
	assert.True(t, e.HasComponent(ComponentPosition))

	// removing an absent type is not an error
	require.NoError(t, w.RemoveComponent(e.ID(), ComponentStatusEffect))
}

func TestQueryPreservesInsertionOrder(t *testing.T) {
	w := newTestWorld()

	first := w.CreateEntity()
	second := w.CreateEntity()
	third := w.CreateEntity()

	require.NoError(t, w.AddComponent(first.ID(), &Position{}))
	require.NoError(t, w.AddComponent(third.ID(), &Position{}))
	require.NoError(t, w.AddComponent(second.ID(), &Position{}))

	got := w.Query().With(ComponentPosition).Entities()
	require.Len(t, got, 3)
	assert.Equal(t, first.ID(), got[0].ID())
	assert.Equal(t, second.ID(), got[1].ID())
	assert.Equal(t, third.ID(), got[2].ID())
}

func TestQueryRequiresAllComponents(t *testing.T) {
	w := newTestWorld()

	both := w.CreateEntity()
	require.NoError(t, w.AddComponent(both.ID(), &Position{}))
	require.NoError(t, w.AddComponent(both.ID(), &Needs{Health: 1}))

	posOnly := w.CreateEntity()
	require.NoError(t, w.AddComponent(posOnly.ID(), &Position{}))

	got := w.Query().With(ComponentPosition).With(ComponentNeeds).Entities()
	require.Len(t, got, 1)
	assert.Equal(t, both.ID(), got[0].ID())
}

func TestSeedVillagerComponents(t *testing.T) {
	w := newTestWorld()

	e, err := SeedVillager(w, "Maren", "village", 2, 3)
	require.NoError(t, err)

	pos, ok := e.Component(ComponentPosition)
	require.True(t, ok)
	assert.Equal(t, 2.0, pos.(*Position).X)
	assert.Equal(t, 3.0, pos.(*Position).Y)

	needs, ok := e.Component(ComponentNeeds)
	require.True(t, ok)
	assert.Equal(t, 1.0, needs.(*Needs).Health)

	ident, ok := e.Component(ComponentIdentity)
	require.True(t, ok)
	assert.Equal(t, "Maren", ident.(*Identity).Name)
	assert.Equal(t, "village", ident.(*Identity).Faction)
	assert.Equal(t, "villager", ident.(*Identity).EntityType)

	assert.True(t, e.HasComponent("villager"))
}

func TestSeedAnimalComponents(t *testing.T) {
	w := newTestWorld()

	e, err := SeedAnimal(w, "wolf", 5, 5)
	require.NoError(t, err)

	ident, ok := e.Component(ComponentIdentity)
	require.True(t, ok)
	assert.Equal(t, "animal", ident.(*Identity).EntityType)
	assert.True(t, e.HasComponent("animal"))
}

func TestTagComponentTypeIsItsName(t *testing.T) {
	w := newTestWorld()
	e := w.CreateEntity()

	require.NoError(t, w.AddComponent(e.ID(), &Tag{Name: "villager"}))
	assert.True(t, e.HasComponent("villager"))
	assert.Equal(t, []string{"villager"}, e.ComponentTypes())
}
