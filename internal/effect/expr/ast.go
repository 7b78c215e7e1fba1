// Package expr implements the small expression language embedded in
// effect definitions: literals, variable references into the
// caster/target/world/context namespaces, binary operators and a fixed
// set of named functions. Evaluation is depth- and operation-limited
// independently of the interpreter that hosts it.
package expr

// Node is a parsed expression tree node.
type Node interface {
	node()
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
}

// StringLit is a quoted string literal.
type StringLit struct {
	Value string
}

// VarRef is a dotted variable reference, e.g. target.health.
type VarRef struct {
	Path []string
}

// Unary is a prefix operator application (- or !).
type Unary struct {
	Op      string
	Operand Node
}

// Binary is an infix operator application.
type Binary struct {
	Op    string
	Left  Node
	Right Node
}

// Call is a named function call with evaluated arguments.
type Call struct {
	Name string
	Args []Node
}

func (*NumberLit) node() {}
func (*BoolLit) node()   {}
func (*StringLit) node() {}
func (*VarRef) node()    {}
func (*Unary) node()     {}
func (*Binary) node()    {}
func (*Call) node()      {}

// Name returns the dotted form of the reference.
func (v *VarRef) Name() string {
	out := ""
	for i, p := range v.Path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
