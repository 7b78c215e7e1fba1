package expr

import (
	"strconv"
	"strings"
	"unicode"

	apperrors "github.com/villagemind/spellcore/internal/errors"
)

// dangerousPatterns are substrings that never appear in legitimate
// effect expressions. Their presence means the source was tampered with
// or a generator is probing the sandbox, so parsing fails hard.
var dangerousPatterns = []string{
	"__proto__",
	"constructor",
	"prototype",
	"eval(",
	"${",
	"import(",
	"require(",
}

// CheckSafe rejects raw expression source containing a dangerous
// pattern. Exposed so identifier validation elsewhere can apply the
// same policy.
func CheckSafe(src string) error {
	lower := strings.ToLower(src)
	for _, p := range dangerousPatterns {
		if strings.Contains(lower, p) {
			return apperrors.UnsafeInputf("expression contains dangerous pattern %q", p)
		}
	}
	return nil
}

// Parse parses expression source into a Node. Parse errors are
// validation errors; dangerous patterns are unsafe-input errors.
func Parse(src string) (Node, error) {
	if err := CheckSafe(src); err != nil {
		return nil, err
	}

	p := &parser{src: src}
	p.next()

	node, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, apperrors.Validationf("unexpected %q in expression %q", p.tok.text, src)
	}
	return node, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokString
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
}

type parser struct {
	src string
	pos int
	tok token
}

// binaryPrecedence orders operators loosest to tightest. Zero means
// not a binary operator.
func binaryPrecedence(op string) int {
	switch op {
	case "||", "or":
		return 1
	case "&&", "and":
		return 2
	case "==", "!=":
		return 3
	case "<", "<=", ">", ">=":
		return 4
	case "+", "-":
		return 5
	case "*", "/", "%":
		return 6
	}
	return 0
}

func (p *parser) parseExpr(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.tok.text
		if p.tok.kind == tokIdent && (op == "and" || op == "or") {
			// word forms normalize to the symbol forms
			if op == "and" {
				op = "&&"
			} else {
				op = "||"
			}
		} else if p.tok.kind != tokOp {
			return left, nil
		}

		prec := binaryPrecedence(op)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		p.next()

		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if p.tok.kind == tokOp && (p.tok.text == "-" || p.tok.text == "!") {
		op := p.tok.text
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.tok.kind {
	case tokNumber:
		val, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return nil, apperrors.Validationf("invalid number %q", p.tok.text)
		}
		p.next()
		return &NumberLit{Value: val}, nil

	case tokString:
		node := &StringLit{Value: p.tok.text}
		p.next()
		return node, nil

	case tokLParen:
		p.next()
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, apperrors.Validation("missing closing parenthesis")
		}
		p.next()
		return inner, nil

	case tokIdent:
		name := p.tok.text
		p.next()

		switch name {
		case "true":
			return &BoolLit{Value: true}, nil
		case "false":
			return &BoolLit{Value: false}, nil
		}

		if p.tok.kind == tokLParen {
			return p.parseCall(name)
		}
		return p.parseVarRef(name)
	}

	return nil, apperrors.Validationf("unexpected %q in expression", p.tok.text)
}

func (p *parser) parseCall(name string) (Node, error) {
	if err := ValidateIdentifier(name); err != nil {
		return nil, err
	}

	p.next() // consume (
	call := &Call{Name: name}
	if p.tok.kind == tokRParen {
		p.next()
		return call, nil
	}

	for {
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		if p.tok.kind == tokComma {
			p.next()
			continue
		}
		if p.tok.kind == tokRParen {
			p.next()
			return call, nil
		}
		return nil, apperrors.Validationf("expected , or ) in call to %s", name)
	}
}

func (p *parser) parseVarRef(first string) (Node, error) {
	ref := &VarRef{Path: []string{first}}
	for p.tok.kind == tokOp && p.tok.text == "." {
		p.next()
		if p.tok.kind != tokIdent {
			return nil, apperrors.Validationf("expected identifier after %q.", ref.Name())
		}
		ref.Path = append(ref.Path, p.tok.text)
		p.next()
	}

	for _, part := range ref.Path {
		if err := ValidateIdentifier(part); err != nil {
			return nil, err
		}
	}
	return ref, nil
}

func (p *parser) next() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF}
		return
	}

	c := p.src[p.pos]
	switch {
	case c >= '0' && c <= '9':
		start := p.pos
		for p.pos < len(p.src) && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
			// a digit followed by ".ident" is a syntax error surfaced
			// later; numbers greedily take digits and at most one dot
			if p.src[p.pos] == '.' && strings.Count(p.src[start:p.pos+1], ".") > 1 {
				break
			}
			p.pos++
		}
		p.tok = token{kind: tokNumber, text: p.src[start:p.pos]}

	case isIdentStart(rune(c)):
		start := p.pos
		for p.pos < len(p.src) && isIdentPart(rune(p.src[p.pos])) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.pos]}

	case c == '\'' || c == '"':
		quote := c
		p.pos++
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != quote {
			p.pos++
		}
		text := p.src[start:p.pos]
		if p.pos < len(p.src) {
			p.pos++ // closing quote
		}
		p.tok = token{kind: tokString, text: text}

	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "("}

	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")"}

	case c == ',':
		p.pos++
		p.tok = token{kind: tokComma, text: ","}

	default:
		for _, op := range []string{"==", "!=", "<=", ">=", "&&", "||"} {
			if strings.HasPrefix(p.src[p.pos:], op) {
				p.pos += 2
				p.tok = token{kind: tokOp, text: op}
				return
			}
		}
		p.pos++
		p.tok = token{kind: tokOp, text: string(c)}
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ValidateIdentifier enforces the safe-identifier policy on a single
// name: ASCII letters, digits and underscore, starting with a letter
// or underscore, and free of dangerous patterns.
func ValidateIdentifier(name string) error {
	if name == "" {
		return apperrors.UnsafeInput("empty identifier")
	}
	if err := CheckSafe(name); err != nil {
		return err
	}
	for i, r := range name {
		if i == 0 && !isIdentStart(r) {
			return apperrors.UnsafeInputf("invalid identifier %q", name)
		}
		if !isIdentPart(r) || r > unicode.MaxASCII {
			return apperrors.UnsafeInputf("invalid identifier %q", name)
		}
	}
	return nil
}
