package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/villagemind/spellcore/internal/errors"
)

// mapScope resolves dotted paths against a flat map keyed by the
// joined path.
type mapScope map[string]any

func (s mapScope) Resolve(path []string) (any, bool) {
	key := ""
	for i, p := range path {
		if i > 0 {
			key += "."
		}
		key += p
	}
	val, ok := s[key]
	return val, ok
}

func evalSource(t *testing.T, src string, scope Scope) (any, error) {
	t.Helper()
	node, err := Parse(src)
	require.NoError(t, err)
	return NewEvaluator(DefaultLimits).Evaluate(node, scope)
}

func TestEvaluateArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 4 / 2", 8},
		{"10 % 3", 1},
		{"-5 + 2", -3},
	}
	for _, tt := range tests {
		val, err := evalSource(t, tt.src, mapScope{})
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.want, val, tt.src)
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	_, err := evalSource(t, "1 / 0", mapScope{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.False(t, apperrors.IsFatal(err))

	_, err = evalSource(t, "1 % 0", mapScope{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestEvaluateComparisons(t *testing.T) {
	scope := mapScope{"target.health": 0.5}

	tests := []struct {
		src  string
		want bool
	}{
		{"target.health < 0.6", true},
		{"target.health > 0.6", false},
		{"target.health <= 0.5", true},
		{"target.health >= 0.5", true},
		{"target.health == 0.5", true},
		{"target.health != 0.5", false},
	}
	for _, tt := range tests {
		val, err := evalSource(t, tt.src, scope)
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.want, val, tt.src)
	}
}

func TestEvaluateLogicShortCircuits(t *testing.T) {
	// the right side references an undefined variable; short-circuiting
	// means it is never resolved
	val, err := evalSource(t, "false && missing.var", mapScope{})
	require.NoError(t, err)
	assert.Equal(t, false, val)

	val, err = evalSource(t, "true || missing.var", mapScope{})
	require.NoError(t, err)
	assert.Equal(t, true, val)

	_, err = evalSource(t, "true && missing.var", mapScope{})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnsafeInput(err))
}

func TestEvaluateUndefinedVariableIsFatal(t *testing.T) {
	_, err := evalSource(t, "caster.mana + 1", mapScope{})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnsafeInput(err))
	assert.True(t, apperrors.IsFatal(err))
	assert.Contains(t, err.Error(), "caster.mana")
}

func TestEvaluateStringEquality(t *testing.T) {
	scope := mapScope{"target.faction": "village"}

	val, err := evalSource(t, "target.faction == 'village'", scope)
	require.NoError(t, err)
	assert.Equal(t, true, val)

	val, err = evalSource(t, "target.faction == 'bandits'", scope)
	require.NoError(t, err)
	assert.Equal(t, false, val)
}

func TestEvaluateBoolCoercion(t *testing.T) {
	ev := NewEvaluator(DefaultLimits)

	node, err := Parse("true + 1")
	require.NoError(t, err)
	num, err := ev.EvaluateNumber(node, mapScope{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, num)

	node, err = Parse("0.0")
	require.NoError(t, err)
	b, err := ev.EvaluateBool(node, mapScope{})
	require.NoError(t, err)
	assert.False(t, b)
}

func TestEvaluateBuiltins(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"abs(-3)", 3},
		{"min(4, 2, 9)", 2},
		{"max(4, 2, 9)", 9},
		{"floor(2.9)", 2},
		{"ceil(2.1)", 3},
		{"round(2.5)", 3},
		{"sqrt(16)", 4},
		{"pow(2, 10)", 1024},
		{"clamp(150, 0, 100)", 100},
		{"clamp(-5, 0, 100)", 0},
	}
	for _, tt := range tests {
		val, err := evalSource(t, tt.src, mapScope{})
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.want, val, tt.src)
	}
}

func TestEvaluateBuiltinErrors(t *testing.T) {
	_, err := evalSource(t, "sqrt(-1)", mapScope{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = evalSource(t, "abs(1, 2)", mapScope{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestEvaluateUnknownFunctionIsFatal(t *testing.T) {
	_, err := evalSource(t, "summon(1)", mapScope{})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnsafeInput(err))
}

func TestEvaluateDepthLimit(t *testing.T) {
	ev := NewEvaluator(Limits{MaxDepth: 5, MaxOperations: 1000})

	var node Node = &NumberLit{Value: 1}
	for i := 0; i < 10; i++ {
		node = &Unary{Op: "-", Operand: node}
	}

	_, err := ev.Evaluate(node, mapScope{})
	require.Error(t, err)
	assert.True(t, apperrors.IsLimitExceeded(err))
}

func TestDefaultBudgetSpansManyExpressions(t *testing.T) {
	// one evaluator serves every expression in an effect execution, so
	// the default budget has to absorb hundreds of small expressions
	ev := NewEvaluator(DefaultLimits)
	scope := mapScope{"caster.energy": 0.8}

	node, err := Parse("10 + caster.energy * 12.5")
	require.NoError(t, err)

	for i := 0; i < 400; i++ {
		val, err := ev.Evaluate(node, scope)
		require.NoError(t, err, "evaluation %d", i)
		assert.Equal(t, 20.0, val)
	}
}

func TestEvaluateOperationLimitAndReset(t *testing.T) {
	ev := NewEvaluator(Limits{MaxDepth: 20, MaxOperations: 5})

	node, err := Parse("1 + 2 + 3 + 4 + 5 + 6")
	require.NoError(t, err)

	_, err = ev.Evaluate(node, mapScope{})
	require.Error(t, err)
	assert.True(t, apperrors.IsLimitExceeded(err))

	// the budget spans evaluations until Reset
	small, err := Parse("1 + 2")
	require.NoError(t, err)
	_, err = ev.Evaluate(small, mapScope{})
	require.Error(t, err)

	ev.Reset()
	val, err := ev.Evaluate(small, mapScope{})
	require.NoError(t, err)
	assert.Equal(t, 3.0, val)
}
