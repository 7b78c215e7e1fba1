package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/villagemind/spellcore/internal/errors"
	"github.com/villagemind/spellcore/internal/testutils"
	"github.com/villagemind/spellcore/internal/world"
)

func selectorFixture(t *testing.T) (*Interpreter, *world.MemoryWorld, *Context) {
	t.Helper()
	in := New(nil)
	in.reset()

	w := testutils.NewTestWorld()
	caster := testutils.CreateTestVillager(w, "caster", "village", 0, 0)
	return in, w, &Context{Caster: caster, World: w, Tick: 1}
}

func entityIDs(entities []world.Entity) []string {
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID())
	}
	return ids
}

func TestSelectSelfAndSingle(t *testing.T) {
	in, w, ctx := selectorFixture(t)
	target := testutils.CreateTestVillager(w, "target", "village", 1, 0)
	ctx.Target = target

	got, err := in.selectTargets(&TargetSelector{Type: TargetSelf}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ctx.Caster.ID()}, entityIDs(got))

	got, err = in.selectTargets(&TargetSelector{Type: TargetSingle}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{target.ID()}, entityIDs(got))

	ctx.Target = nil
	got, err = in.selectTargets(&TargetSelector{Type: TargetSingle}, ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelectAreaBySquaredDistance(t *testing.T) {
	in, w, ctx := selectorFixture(t)
	near := testutils.CreateTestVillager(w, "near", "village", 3, 0)
	edge := testutils.CreateTestVillager(w, "edge", "village", 0, 5)
	testutils.CreateTestVillager(w, "far", "village", 10, 0)

	got, err := in.selectTargets(&TargetSelector{
		Type:        TargetArea,
		Radius:      5,
		ExcludeSelf: true,
	}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{near.ID(), edge.ID()}, entityIDs(got))

	// without excludeSelf the caster is inside its own radius
	got, err = in.selectTargets(&TargetSelector{Type: TargetArea, Radius: 5}, ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSelectConeAndLineDegradeToArea(t *testing.T) {
	in, w, ctx := selectorFixture(t)
	near := testutils.CreateTestVillager(w, "near", "village", 2, 0)

	for _, typ := range []TargetType{TargetCone, TargetLine} {
		got, err := in.selectTargets(&TargetSelector{Type: typ, Radius: 3, ExcludeSelf: true}, ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{near.ID()}, entityIDs(got), string(typ))
	}
}

func TestSelectAllRequiresPosition(t *testing.T) {
	in, w, ctx := selectorFixture(t)
	testutils.CreateTestVillager(w, "other", "village", 100, 100)
	w.CreateEntity() // no position, never targetable

	got, err := in.selectTargets(&TargetSelector{Type: TargetAll}, ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSelectUnknownTypeIsError(t *testing.T) {
	in, _, ctx := selectorFixture(t)

	_, err := in.selectTargets(&TargetSelector{Type: "everyone"}, ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.False(t, apperrors.IsFatal(err))
}

func TestSelectFilterByEntityType(t *testing.T) {
	in, w, ctx := selectorFixture(t)
	testutils.CreateTestVillager(w, "neighbor", "village", 1, 0)
	wolf := testutils.CreateTestAnimal(w, "wolf", 2, 0)

	got, err := in.selectTargets(&TargetSelector{
		Type:   TargetArea,
		Radius: 10,
		Filter: &TargetFilter{EntityTypes: []string{"animal"}},
	}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{wolf.ID()}, entityIDs(got))
}

func TestSelectFilterByFaction(t *testing.T) {
	in, w, ctx := selectorFixture(t)
	friend := testutils.CreateTestVillager(w, "friend", "village", 1, 0)
	testutils.CreateTestVillager(w, "raider", "bandits", 2, 0)

	got, err := in.selectTargets(&TargetSelector{
		Type:        TargetArea,
		Radius:      10,
		ExcludeSelf: true,
		Filter:      &TargetFilter{Factions: []string{"village"}},
	}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{friend.ID()}, entityIDs(got))
}

func TestSelectFilterByComponents(t *testing.T) {
	in, w, ctx := selectorFixture(t)
	marked := testutils.CreateTestVillager(w, "marked", "village", 1, 0)
	require.NoError(t, w.AddComponent(marked.ID(), &world.Tag{Name: "chosen"}))
	testutils.CreateTestVillager(w, "plain", "village", 2, 0)

	got, err := in.selectTargets(&TargetSelector{
		Type:   TargetArea,
		Radius: 10,
		Filter: &TargetFilter{HasComponents: []string{"chosen"}},
	}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{marked.ID()}, entityIDs(got))
}

func TestSelectFilterByPredicate(t *testing.T) {
	in, w, ctx := selectorFixture(t)
	hurt := testutils.CreateTestVillager(w, "hurt", "village", 1, 0)
	setHealth(t, hurt, 0.3)
	testutils.CreateTestVillager(w, "healthy", "village", 2, 0)

	got, err := in.selectTargets(&TargetSelector{
		Type:        TargetArea,
		Radius:      10,
		ExcludeSelf: true,
		Filter:      &TargetFilter{CustomPredicate: MustSource("target.health < 0.5")},
	}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{hurt.ID()}, entityIDs(got))
}

func TestSelectErroringPredicateExcludesCandidate(t *testing.T) {
	in, w, ctx := selectorFixture(t)
	positioned := testutils.CreateTestVillager(w, "positioned", "village", 1, 0)

	bare := w.CreateEntity() // no needs component, predicate cannot resolve target.health
	require.NoError(t, w.AddComponent(bare.ID(), &world.Position{X: 2, Y: 0}))

	got, err := in.selectTargets(&TargetSelector{
		Type:        TargetArea,
		Radius:      10,
		ExcludeSelf: true,
		Filter:      &TargetFilter{CustomPredicate: MustSource("target.health > 0")},
	}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{positioned.ID()}, entityIDs(got))
}

func TestSelectMaxTargetsTakesStablePrefix(t *testing.T) {
	in, w, ctx := selectorFixture(t)
	first := testutils.CreateTestVillager(w, "first", "village", 1, 0)
	second := testutils.CreateTestVillager(w, "second", "village", 2, 0)
	testutils.CreateTestVillager(w, "third", "village", 3, 0)

	got, err := in.selectTargets(&TargetSelector{
		Type:        TargetArea,
		Radius:      10,
		ExcludeSelf: true,
		MaxTargets:  2,
	}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID(), second.ID()}, entityIDs(got))
}

func TestSelectMaxTargetsClampedByLimit(t *testing.T) {
	limits := DefaultLimits
	limits.MaxTargets = 2
	in := New(&Config{Limits: &limits})
	in.reset()

	w := testutils.NewTestWorld()
	caster := testutils.CreateTestVillager(w, "caster", "village", 0, 0)
	for i := 0; i < 5; i++ {
		testutils.CreateTestVillager(w, "extra", "village", float64(i+1), 0)
	}
	ctx := &Context{Caster: caster, World: w, Tick: 1}

	// a selector asking for more than the hard cap still gets the cap
	got, err := in.selectTargets(&TargetSelector{
		Type:        TargetArea,
		Radius:      100,
		ExcludeSelf: true,
		MaxTargets:  10,
	}, ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSelectExcludePreviousSharesVisitedSet(t *testing.T) {
	in, w, ctx := selectorFixture(t)
	target := testutils.CreateTestVillager(w, "target", "village", 1, 0)
	ctx.Target = target

	sel := &TargetSelector{Type: TargetSingle, ExcludePrevious: true}

	got, err := in.selectTargets(sel, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{target.ID()}, entityIDs(got))

	// the same execution sees the target as visited
	got, err = in.selectTargets(sel, ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	// a fresh execution does not
	in.reset()
	got, err = in.selectTargets(sel, ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
