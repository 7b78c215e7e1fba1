package effect

import (
	"encoding/json"

	apperrors "github.com/villagemind/spellcore/internal/errors"
	"github.com/villagemind/spellcore/internal/effect/expr"
)

// Expression is a dynamically evaluated value slot in an effect
// definition. In JSON it may be a number, a boolean, an expression
// string ("target.health * 0.1"), or one of the structured forms:
//
//	{"op": "+", "left": ..., "right": ...}
//	{"fn": "min", "args": [...]}
//	{"var": "caster.health"}
//
// Parsing happens once, at decode time, so a malformed expression is
// rejected when the effect is loaded rather than mid-execution.
type Expression struct {
	node expr.Node
	raw  json.RawMessage
}

// Number returns a literal numeric expression.
func Number(v float64) *Expression {
	return &Expression{node: &expr.NumberLit{Value: v}}
}

// Source returns an expression parsed from source text. The source is
// kept as the expression's document form so it survives re-encoding.
func Source(src string) (*Expression, error) {
	node, err := expr.Parse(src)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	return &Expression{node: node, raw: raw}, nil
}

// MustSource is Source for hand-authored constants in code and tests.
func MustSource(src string) *Expression {
	e, err := Source(src)
	if err != nil {
		panic(err)
	}
	return e
}

// Node exposes the parsed tree for evaluation.
func (e *Expression) Node() expr.Node {
	if e == nil {
		return nil
	}
	return e.node
}

// UnmarshalJSON decodes any of the supported expression shapes.
func (e *Expression) UnmarshalJSON(data []byte) error {
	e.raw = append(e.raw[:0], data...)

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		e.node = &expr.NumberLit{Value: num}
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		e.node = &expr.BoolLit{Value: b}
		return nil
	}

	var src string
	if err := json.Unmarshal(data, &src); err == nil {
		node, err := expr.Parse(src)
		if err != nil {
			return err
		}
		e.node = node
		return nil
	}

	node, err := decodeStructured(data)
	if err != nil {
		return err
	}
	e.node = node
	return nil
}

// MarshalJSON re-emits the original document form.
func (e *Expression) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}
	if lit, ok := e.node.(*expr.NumberLit); ok {
		return json.Marshal(lit.Value)
	}
	if lit, ok := e.node.(*expr.BoolLit); ok {
		return json.Marshal(lit.Value)
	}
	return nil, apperrors.Internal("expression has no serializable form")
}

func decodeStructured(data []byte) (expr.Node, error) {
	var s struct {
		Op    string          `json:"op"`
		Left  json.RawMessage `json:"left"`
		Right json.RawMessage `json:"right"`
		Fn    string          `json:"fn"`
		Args  []Expression    `json:"args"`
		Var   string          `json:"var"`
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperrors.Wrap(err, "invalid expression document")
	}

	switch {
	case s.Op != "" && s.Left != nil && s.Right != nil:
		var left, right Expression
		if err := left.UnmarshalJSON(s.Left); err != nil {
			return nil, err
		}
		if err := right.UnmarshalJSON(s.Right); err != nil {
			return nil, err
		}
		return &expr.Binary{Op: s.Op, Left: left.node, Right: right.node}, nil

	case s.Fn != "":
		if err := expr.ValidateIdentifier(s.Fn); err != nil {
			return nil, err
		}
		args := make([]expr.Node, len(s.Args))
		for i := range s.Args {
			args[i] = s.Args[i].node
		}
		return &expr.Call{Name: s.Fn, Args: args}, nil

	case s.Var != "":
		return expr.Parse(s.Var)
	}

	return nil, apperrors.Validation("expression document matches no known shape")
}

// Location is a pair of coordinate expressions, used by teleport,
// push, pull and spawn destinations.
type Location struct {
	X *Expression `json:"x"`
	Y *Expression `json:"y"`
}
