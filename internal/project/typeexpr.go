package project

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ExprKind classifies a parsed type expression.
type ExprKind uint8

const (
	ExprNamed ExprKind = iota
	ExprTypeParam
	ExprMethodParam
	ExprArray
	ExprPointer
	ExprFnPtr
)

// TypeExpr is a parsed type expression:
//
//	Name  Ns.Name  [Module]Ns.Name  Name<T1,T2>  T[]  T*  !0  !!0
//	fnptr<Ret(P1,P2)>  __Canon  __UniversalCanon  int32 ...
type TypeExpr struct {
	Kind   ExprKind
	Module string
	Name   string
	Index  int
	Args   []*TypeExpr // generic arguments, or fnptr parameters
	Elem   *TypeExpr   // array/pointer element, or fnptr return type
}

func (e *TypeExpr) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e *TypeExpr) write(sb *strings.Builder) {
	switch e.Kind {
	case ExprTypeParam:
		fmt.Fprintf(sb, "!%d", e.Index)
	case ExprMethodParam:
		fmt.Fprintf(sb, "!!%d", e.Index)
	case ExprArray:
		e.Elem.write(sb)
		sb.WriteString("[]")
	case ExprPointer:
		e.Elem.write(sb)
		sb.WriteString("*")
	case ExprFnPtr:
		sb.WriteString("fnptr<")
		e.Elem.write(sb)
		sb.WriteString("(")
		writeExprList(sb, e.Args)
		sb.WriteString(")>")
	default:
		if e.Module != "" {
			sb.WriteString("[" + e.Module + "]")
		}
		sb.WriteString(e.Name)
		if len(e.Args) > 0 {
			sb.WriteString("<")
			writeExprList(sb, e.Args)
			sb.WriteString(">")
		}
	}
}

func writeExprList(sb *strings.Builder, list []*TypeExpr) {
	for i, a := range list {
		if i > 0 {
			sb.WriteString(",")
		}
		a.write(sb)
	}
}

// MethodRef is a parsed method reference "<type>::<name>[<args>]".
type MethodRef struct {
	Owner *TypeExpr
	Name  string
	Args  []*TypeExpr
}

func (r *MethodRef) String() string {
	var sb strings.Builder
	r.Owner.write(&sb)
	sb.WriteString("::")
	sb.WriteString(r.Name)
	if len(r.Args) > 0 {
		sb.WriteString("<")
		writeExprList(&sb, r.Args)
		sb.WriteString(">")
	}
	return sb.String()
}

// ParseTypeExpr parses a complete type expression.
func ParseTypeExpr(s string) (*TypeExpr, error) {
	p := &exprParser{src: s}
	e, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q", p.rest())
	}
	return e, nil
}

// ParseMethodRef parses "<type>::<name>" with optional method type
// arguments.
func ParseMethodRef(s string) (*MethodRef, error) {
	sep := topLevelSeparator(s)
	if sep < 0 {
		return nil, fmt.Errorf("method reference %q: missing '::'", s)
	}
	owner, err := ParseTypeExpr(s[:sep])
	if err != nil {
		return nil, err
	}
	p := &exprParser{src: s, pos: sep + 2}
	p.skipSpace()
	name := p.scanName()
	if name == "" {
		return nil, p.errorf("missing method name")
	}
	ref := &MethodRef{Owner: owner, Name: name}
	p.skipSpace()
	if p.peek() == '<' {
		p.pos++
		if ref.Args, err = p.parseList('>'); err != nil {
			return nil, err
		}
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q", p.rest())
	}
	return ref, nil
}

// topLevelSeparator finds the last "::" outside brackets.
func topLevelSeparator(s string) int {
	depth, found := 0, -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case ':':
			if depth == 0 && i+1 < len(s) && s[i+1] == ':' {
				found = i
				i++
			}
		}
	}
	return found
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) eof() bool { return p.pos >= len(p.src) }

func (p *exprParser) rest() string { return p.src[p.pos:] }

func (p *exprParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) skipSpace() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type expression %q at offset %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *exprParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		if p.eof() {
			return p.errorf("expected %q, found end of input", c)
		}
		return p.errorf("expected %q, found %q", c, p.peek())
	}
	p.pos++
	return nil
}

func isNameRune(r rune) bool {
	return r == '_' || r == '`' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// scanName reads a dotted name. Method names may start with a dot (.ctor).
func (p *exprParser) scanName() string {
	start := p.pos
	for i, r := range p.src[p.pos:] {
		if !isNameRune(r) {
			p.pos = start + i
			return p.src[start:p.pos]
		}
	}
	p.pos = len(p.src)
	return p.src[start:]
}

func (p *exprParser) parseType() (*TypeExpr, error) {
	base, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		switch {
		case strings.HasPrefix(p.rest(), "[]"):
			p.pos += 2
			base = &TypeExpr{Kind: ExprArray, Elem: base}
		case p.peek() == '*':
			p.pos++
			base = &TypeExpr{Kind: ExprPointer, Elem: base}
		default:
			return base, nil
		}
	}
}

func (p *exprParser) parseBase() (*TypeExpr, error) {
	p.skipSpace()
	if p.peek() == '!' {
		p.pos++
		kind := ExprTypeParam
		if p.peek() == '!' {
			p.pos++
			kind = ExprMethodParam
		}
		start := p.pos
		for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		idx, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil {
			return nil, p.errorf("bad generic parameter index")
		}
		return &TypeExpr{Kind: kind, Index: idx}, nil
	}

	e := &TypeExpr{Kind: ExprNamed}
	if p.peek() == '[' {
		p.pos++
		e.Module = p.scanName()
		if e.Module == "" {
			return nil, p.errorf("missing module name")
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
	}
	e.Name = p.scanName()
	if e.Name == "" {
		if p.eof() {
			return nil, p.errorf("missing type name")
		}
		return nil, p.errorf("unexpected %q", p.peek())
	}
	if err := ValidateDottedName(e.Name); err != nil {
		return nil, p.errorf("%v", err)
	}
	p.skipSpace()
	if p.peek() != '<' {
		return e, nil
	}
	p.pos++
	if e.Name == "fnptr" && e.Module == "" {
		return p.parseFnPtr()
	}
	args, err := p.parseList('>')
	if err != nil {
		return nil, err
	}
	e.Args = args
	return e, nil
}

// parseFnPtr parses "Ret(P1,P2)>" after "fnptr<".
func (p *exprParser) parseFnPtr() (*TypeExpr, error) {
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	params, err := p.parseList(')')
	if err != nil {
		return nil, err
	}
	if err := p.expect('>'); err != nil {
		return nil, err
	}
	return &TypeExpr{Kind: ExprFnPtr, Elem: ret, Args: params}, nil
}

// parseList parses comma-separated types up to and including closing. An
// empty list is allowed only for fnptr parameters.
func (p *exprParser) parseList(closing byte) ([]*TypeExpr, error) {
	var out []*TypeExpr
	p.skipSpace()
	if p.peek() == closing {
		if closing == '>' {
			return nil, p.errorf("empty type argument list")
		}
		p.pos++
		return nil, nil
	}
	for {
		e, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
			p.pos++
			return out, nil
		default:
			if p.eof() {
				return nil, p.errorf("expected %q, found end of input", closing)
			}
			return nil, p.errorf("expected ',' or %q, found %q", closing, p.peek())
		}
	}
}
