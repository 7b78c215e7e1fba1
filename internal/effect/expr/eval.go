package expr

import (
	"math"

	apperrors "github.com/villagemind/spellcore/internal/errors"
)

// Scope resolves dotted variable references against the execution
// context. The second return reports whether the variable is defined;
// undefined variables are a fatal evaluation error, never a default.
type Scope interface {
	Resolve(path []string) (any, bool)
}

// Limits bounds a single evaluator's work. The evaluator keeps its own
// accounting because expressions nest inside operations that are
// themselves nested inside control-flow operations, and the host
// interpreter's counters must not be consumed by expression work.
//
// MaxOperations spans every expression evaluated during one effect
// execution, so it must be sized against the host's own operation
// limit times a typical expression's node count, not against a single
// expression.
type Limits struct {
	MaxDepth      int
	MaxOperations int
}

// DefaultLimits are generous for authored content and tight enough to
// stop generated pathological trees. The operation budget covers a
// full execution's worth of amount/condition expressions (the host
// runs up to 1000 operations per effect).
var DefaultLimits = Limits{
	MaxDepth:      20,
	MaxOperations: 10000,
}

// Evaluator evaluates expression trees. One evaluator's operation
// budget spans every expression evaluated during a single effect
// execution; call Reset between executions.
type Evaluator struct {
	limits Limits
	ops    int
}

// NewEvaluator creates an evaluator with the given limits, falling
// back to DefaultLimits fields for zero values.
func NewEvaluator(limits Limits) *Evaluator {
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = DefaultLimits.MaxDepth
	}
	if limits.MaxOperations <= 0 {
		limits.MaxOperations = DefaultLimits.MaxOperations
	}
	return &Evaluator{limits: limits}
}

// Reset clears the operation counter for a fresh execution.
func (e *Evaluator) Reset() {
	e.ops = 0
}

// Evaluate evaluates a node against the scope, yielding a float64,
// bool or string.
func (e *Evaluator) Evaluate(node Node, scope Scope) (any, error) {
	return e.eval(node, scope, 0)
}

// EvaluateNumber evaluates a node in a numeric position. Booleans
// coerce to 1/0; strings are a validation error.
func (e *Evaluator) EvaluateNumber(node Node, scope Scope) (float64, error) {
	val, err := e.eval(node, scope, 0)
	if err != nil {
		return 0, err
	}
	return toNumber(val)
}

// EvaluateBool evaluates a node in a boolean position. Numbers are
// truthy when non-zero.
func (e *Evaluator) EvaluateBool(node Node, scope Scope) (bool, error) {
	val, err := e.eval(node, scope, 0)
	if err != nil {
		return false, err
	}
	return truthy(val), nil
}

func (e *Evaluator) eval(node Node, scope Scope, depth int) (any, error) {
	if depth > e.limits.MaxDepth {
		return nil, apperrors.LimitExceededf("expression depth exceeded maximum of %d", e.limits.MaxDepth)
	}
	e.ops++
	if e.ops > e.limits.MaxOperations {
		return nil, apperrors.LimitExceededf("expression operations exceeded maximum of %d", e.limits.MaxOperations)
	}

	switch n := node.(type) {
	case *NumberLit:
		return n.Value, nil

	case *BoolLit:
		return n.Value, nil

	case *StringLit:
		return n.Value, nil

	case *VarRef:
		val, ok := scope.Resolve(n.Path)
		if !ok {
			return nil, apperrors.UnsafeInputf("undefined variable %q", n.Name())
		}
		return val, nil

	case *Unary:
		return e.evalUnary(n, scope, depth)

	case *Binary:
		return e.evalBinary(n, scope, depth)

	case *Call:
		return e.evalCall(n, scope, depth)
	}

	return nil, apperrors.Internalf("unknown expression node %T", node)
}

func (e *Evaluator) evalUnary(n *Unary, scope Scope, depth int) (any, error) {
	val, err := e.eval(n.Operand, scope, depth+1)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "-":
		num, err := toNumber(val)
		if err != nil {
			return nil, err
		}
		return -num, nil
	case "!":
		return !truthy(val), nil
	}
	return nil, apperrors.Validationf("unknown unary operator %q", n.Op)
}

func (e *Evaluator) evalBinary(n *Binary, scope Scope, depth int) (any, error) {
	// logical operators short-circuit
	switch n.Op {
	case "&&":
		left, err := e.eval(n.Left, scope, depth+1)
		if err != nil {
			return nil, err
		}
		if !truthy(left) {
			return false, nil
		}
		right, err := e.eval(n.Right, scope, depth+1)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil

	case "||":
		left, err := e.eval(n.Left, scope, depth+1)
		if err != nil {
			return nil, err
		}
		if truthy(left) {
			return true, nil
		}
		right, err := e.eval(n.Right, scope, depth+1)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil
	}

	left, err := e.eval(n.Left, scope, depth+1)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(n.Right, scope, depth+1)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	}

	lnum, err := toNumber(left)
	if err != nil {
		return nil, err
	}
	rnum, err := toNumber(right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "+":
		return lnum + rnum, nil
	case "-":
		return lnum - rnum, nil
	case "*":
		return lnum * rnum, nil
	case "/":
		if rnum == 0 {
			return nil, apperrors.Validation("division by zero")
		}
		return lnum / rnum, nil
	case "%":
		if rnum == 0 {
			return nil, apperrors.Validation("division by zero")
		}
		return math.Mod(lnum, rnum), nil
	case "<":
		return lnum < rnum, nil
	case "<=":
		return lnum <= rnum, nil
	case ">":
		return lnum > rnum, nil
	case ">=":
		return lnum >= rnum, nil
	}

	return nil, apperrors.Validationf("unknown operator %q", n.Op)
}

func (e *Evaluator) evalCall(n *Call, scope Scope, depth int) (any, error) {
	args := make([]float64, 0, len(n.Args))
	for _, argNode := range n.Args {
		val, err := e.eval(argNode, scope, depth+1)
		if err != nil {
			return nil, err
		}
		num, err := toNumber(val)
		if err != nil {
			return nil, err
		}
		args = append(args, num)
	}

	fn, ok := builtins[n.Name]
	if !ok {
		return nil, apperrors.UnsafeInputf("unknown function %q", n.Name)
	}
	return fn(n.Name, args)
}

type builtin func(name string, args []float64) (any, error)

// builtins is the closed set of callable functions. Everything here is
// pure and total over finite inputs.
var builtins = map[string]builtin{
	"abs": func(name string, args []float64) (any, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		return math.Abs(args[0]), nil
	},
	"min": func(name string, args []float64) (any, error) {
		if len(args) == 0 {
			return nil, apperrors.Validationf("%s requires at least 1 argument", name)
		}
		out := args[0]
		for _, a := range args[1:] {
			out = math.Min(out, a)
		}
		return out, nil
	},
	"max": func(name string, args []float64) (any, error) {
		if len(args) == 0 {
			return nil, apperrors.Validationf("%s requires at least 1 argument", name)
		}
		out := args[0]
		for _, a := range args[1:] {
			out = math.Max(out, a)
		}
		return out, nil
	},
	"floor": func(name string, args []float64) (any, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		return math.Floor(args[0]), nil
	},
	"ceil": func(name string, args []float64) (any, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		return math.Ceil(args[0]), nil
	},
	"round": func(name string, args []float64) (any, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		return math.Round(args[0]), nil
	},
	"sqrt": func(name string, args []float64) (any, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		if args[0] < 0 {
			return nil, apperrors.Validation("sqrt of negative number")
		}
		return math.Sqrt(args[0]), nil
	},
	"pow": func(name string, args []float64) (any, error) {
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		return math.Pow(args[0], args[1]), nil
	},
	"clamp": func(name string, args []float64) (any, error) {
		if err := arity(name, args, 3); err != nil {
			return nil, err
		}
		return math.Min(math.Max(args[0], args[1]), args[2]), nil
	},
}

func arity(name string, args []float64, want int) error {
	if len(args) != want {
		return apperrors.Validationf("%s requires %d argument(s), got %d", name, want, len(args))
	}
	return nil
}

func toNumber(val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, apperrors.Validationf("value %v is not numeric", val)
}

func truthy(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case string:
		return v != ""
	}
	return val != nil
}

func looseEqual(a, b any) bool {
	an, aerr := toNumber(a)
	bn, berr := toNumber(b)
	if aerr == nil && berr == nil {
		return an == bn
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	return false
}
