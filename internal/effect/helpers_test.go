package effect

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/villagemind/spellcore/internal/world"
)

func setHealth(t *testing.T, e world.Entity, health float64) {
	t.Helper()
	c, ok := e.Component(world.ComponentNeeds)
	require.True(t, ok)
	needs, ok := c.(*world.Needs)
	require.True(t, ok)
	needs.Health = health
}

func health(t *testing.T, e world.Entity) float64 {
	t.Helper()
	c, ok := e.Component(world.ComponentNeeds)
	require.True(t, ok)
	needs, ok := c.(*world.Needs)
	require.True(t, ok)
	return needs.Health
}

func position(t *testing.T, e world.Entity) (float64, float64) {
	t.Helper()
	c, ok := e.Component(world.ComponentPosition)
	require.True(t, ok)
	pos, ok := c.(*world.Position)
	require.True(t, ok)
	return pos.X, pos.Y
}

// singleTargetEffect wraps operations in a minimal single-target effect.
func singleTargetEffect(ops ...Operation) *EffectExpression {
	return &EffectExpression{
		ID:         "test-effect",
		Target:     TargetSelector{Type: TargetSingle},
		Operations: ops,
	}
}
