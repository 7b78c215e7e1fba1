package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/villagemind/spellcore/internal/errors"
)

func TestParseLiterals(t *testing.T) {
	node, err := Parse("42.5")
	require.NoError(t, err)
	num, ok := node.(*NumberLit)
	require.True(t, ok)
	assert.Equal(t, 42.5, num.Value)

	node, err = Parse("true")
	require.NoError(t, err)
	b, ok := node.(*BoolLit)
	require.True(t, ok)
	assert.True(t, b.Value)

	node, err = Parse("'burning'")
	require.NoError(t, err)
	s, ok := node.(*StringLit)
	require.True(t, ok)
	assert.Equal(t, "burning", s.Value)
}

func TestParseVariableReference(t *testing.T) {
	node, err := Parse("target.health")
	require.NoError(t, err)

	ref, ok := node.(*VarRef)
	require.True(t, ok)
	assert.Equal(t, []string{"target", "health"}, ref.Path)
	assert.Equal(t, "target.health", ref.Name())
}

func TestParsePrecedence(t *testing.T) {
	// 1 + 2 * 3 parses as 1 + (2 * 3)
	node, err := Parse("1 + 2 * 3")
	require.NoError(t, err)

	bin, ok := node.(*Binary)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)

	right, ok := bin.Right.(*Binary)
	require.True(t, ok)
	assert.Equal(t, "*", right.Op)
}

func TestParseComparisonAndLogic(t *testing.T) {
	node, err := Parse("target.health < 0.5 && caster.energy >= 0.2")
	require.NoError(t, err)

	bin, ok := node.(*Binary)
	require.True(t, ok)
	assert.Equal(t, "&&", bin.Op)

	// word forms normalize to symbols
	node, err = Parse("true and false or true")
	require.NoError(t, err)
	bin, ok = node.(*Binary)
	require.True(t, ok)
	assert.Equal(t, "||", bin.Op)
}

func TestParseFunctionCall(t *testing.T) {
	node, err := Parse("min(target.health * 100, 50)")
	require.NoError(t, err)

	call, ok := node.(*Call)
	require.True(t, ok)
	assert.Equal(t, "min", call.Name)
	assert.Len(t, call.Args, 2)
}

func TestParseParenthesesAndUnary(t *testing.T) {
	node, err := Parse("-(1 + 2)")
	require.NoError(t, err)

	un, ok := node.(*Unary)
	require.True(t, ok)
	assert.Equal(t, "-", un.Op)

	_, err = Parse("(1 + 2")
	require.Error(t, err)
}

func TestParseRejectsDangerousPatterns(t *testing.T) {
	for _, src := range []string{
		"__proto__",
		"target.constructor",
		"prototype.x",
		"eval(1)",
		"${caster}",
		"import('fs')",
	} {
		_, err := Parse(src)
		require.Error(t, err, "expected %q to be rejected", src)
		assert.True(t, apperrors.IsUnsafeInput(err), "expected unsafe-input classification for %q", src)
	}
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	_, err := Parse("1 + 2 xyz 3")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestValidateIdentifier(t *testing.T) {
	require.NoError(t, ValidateIdentifier("strength"))
	require.NoError(t, ValidateIdentifier("_hidden"))
	require.NoError(t, ValidateIdentifier("stat_2"))

	for _, name := range []string{"", "2fast", "a-b", "has space", "__proto__", "constructor", "ütf"} {
		err := ValidateIdentifier(name)
		require.Error(t, err, "expected %q to fail", name)
		assert.True(t, apperrors.IsUnsafeInput(err))
	}
}
