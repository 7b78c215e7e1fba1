package effect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagemind/spellcore/internal/effect/expr"
)

func TestExpressionDecodeForms(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"number", `42`},
		{"bool", `true`},
		{"source string", `"caster.health * 0.5"`},
		{"structured op", `{"op": "+", "left": 1, "right": {"var": "world.tick"}}`},
		{"structured fn", `{"fn": "min", "args": [1, 2]}`},
		{"structured var", `{"var": "target.health"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Expression
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &e))
			require.NotNil(t, e.Node())

			// the original document form survives re-encoding
			out, err := json.Marshal(&e)
			require.NoError(t, err)
			assert.JSONEq(t, tt.doc, string(out))
		})
	}
}

func TestSourceExpressionMarshalsAsString(t *testing.T) {
	e := MustSource("caster.energy * 2")
	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, `"caster.energy * 2"`, string(out))

	_, err = Source("1 +")
	require.Error(t, err)
}

func TestExpressionDecodeRejectsBadDocuments(t *testing.T) {
	for _, doc := range []string{
		`"__proto__ + 1"`,
		`"1 +"`,
		`{"op": "+"}`,
		`{"fn": "eval("}`,
		`[1, 2]`,
	} {
		var e Expression
		require.Error(t, json.Unmarshal([]byte(doc), &e), doc)
	}
}

func TestExpressionStructuredVarEvaluates(t *testing.T) {
	var e Expression
	require.NoError(t, json.Unmarshal([]byte(`{"op": "*", "left": {"var": "x"}, "right": 3}`), &e))

	ev := expr.NewEvaluator(expr.DefaultLimits)
	val, err := ev.Evaluate(e.Node(), staticScope{"x": 7.0})
	require.NoError(t, err)
	assert.Equal(t, 21.0, val)
}

// staticScope resolves single-segment names for expression tests.
type staticScope map[string]any

func (s staticScope) Resolve(path []string) (any, bool) {
	if len(path) != 1 {
		return nil, false
	}
	val, ok := s[path[0]]
	return val, ok
}
