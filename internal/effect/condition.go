package effect

import (
	apperrors "github.com/villagemind/spellcore/internal/errors"
	"github.com/villagemind/spellcore/internal/effect/expr"
)

// Condition is a precondition in one of three shapes, tried in order:
//
//  1. binary comparison: op + left + right
//  2. predicate: a boolean expression
//  3. function call: fn + args
//
// A condition matching none of the shapes passes vacuously. That
// permissive default is deliberate and tested; tightening it would
// break generated content that emits empty condition objects.
type Condition struct {
	Op    string      `json:"op,omitempty"`
	Left  *Expression `json:"left,omitempty"`
	Right *Expression `json:"right,omitempty"`

	Predicate *Expression `json:"predicate,omitempty"`

	Fn   string       `json:"fn,omitempty"`
	Args []Expression `json:"args,omitempty"`
}

// evaluateCondition normalizes the condition shapes into a boolean.
func evaluateCondition(ev *expr.Evaluator, cond *Condition, scope expr.Scope) (bool, error) {
	if cond == nil {
		return true, nil
	}

	if cond.Op != "" && cond.Left != nil && cond.Right != nil {
		node := &expr.Binary{Op: cond.Op, Left: cond.Left.Node(), Right: cond.Right.Node()}
		return ev.EvaluateBool(node, scope)
	}

	if cond.Predicate != nil {
		return ev.EvaluateBool(cond.Predicate.Node(), scope)
	}

	if cond.Fn != "" {
		if err := expr.ValidateIdentifier(cond.Fn); err != nil {
			return false, err
		}
		args := make([]expr.Node, len(cond.Args))
		for i := range cond.Args {
			if cond.Args[i].Node() == nil {
				return false, apperrors.Validationf("condition call %s has an empty argument", cond.Fn)
			}
			args[i] = cond.Args[i].Node()
		}
		return ev.EvaluateBool(&expr.Call{Name: cond.Fn, Args: args}, scope)
	}

	// no recognized shape: vacuous pass
	return true, nil
}

// evaluateConditions applies AND logic over the declared conditions.
func evaluateConditions(ev *expr.Evaluator, conds []Condition, scope expr.Scope) (bool, error) {
	for i := range conds {
		ok, err := evaluateCondition(ev, &conds[i], scope)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
