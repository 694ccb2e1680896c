package clc

import (
	"github.com/gridc-io/gridc/errz"
)

// Base types of the kernel language. Vector forms (float4 and so on) are
// derived from these at emission time.
var baseTypes = map[string]bool{
	"void": true, "bool": true,
	"char": true, "uchar": true,
	"short": true, "ushort": true,
	"int": true, "uint": true,
	"long": true, "ulong": true,
	"float": true, "double": true,
	"size_t": true, "half": true,
}

var addrSpaceQualifiers = map[string]bool{
	"global": true, "constant": true, "local": true, "private": true,
}

// Statement keywords that look like calls when followed by a parenthesis.
var controlKeywords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"switch": true, "return": true, "sizeof": true,
}

// parser turns a token stream into top-level function declarations. Only
// the declaration surface is parsed precisely; bodies are scanned for call
// expressions and otherwise skipped with brace matching.
type parser struct {
	toks  []token
	pos   int
	diags *diagList
}

func newParser(toks []token, diags *diagList) *parser {
	return &parser{toks: toks, diags: diags}
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	p.advance()
	return t
}

func (p *parser) advance() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *parser) atEOF() bool { return p.peek().kind == tokEOF }

// parse consumes the whole token stream. Declarations that fail to parse
// are reported and skipped to the next likely declaration boundary.
func (p *parser) parse() []*funcDecl {
	var decls []*funcDecl
	for !p.atEOF() {
		if p.peek().kind == tokSemi {
			p.advance()
			continue
		}
		decl, ok := p.parseDecl()
		if !ok {
			p.recover()
			continue
		}
		decls = append(decls, decl)
	}
	return decls
}

// recover skips to just past the next semicolon or closing brace at depth
// zero so one bad declaration does not cascade.
func (p *parser) recover() {
	depth := 0
	for !p.atEOF() {
		t := p.next()
		switch t.kind {
		case tokLBrace:
			depth++
		case tokRBrace:
			depth--
			if depth <= 0 {
				return
			}
		case tokSemi:
			if depth == 0 {
				return
			}
		}
	}
}

func (p *parser) parseDecl() (*funcDecl, bool) {
	decl := &funcDecl{Loc: p.peek().loc}

	if p.peek().is(tokIdent, "kernel") {
		decl.Kernel = true
		p.advance()
	}

	ret, ok := p.parseType()
	if !ok {
		return nil, false
	}
	decl.Ret = ret

	name := p.peek()
	if name.kind != tokIdent {
		p.diags.errorf(errz.ErrSyntax, name.loc, "expected function name, found %q", name.lit)
		return nil, false
	}
	decl.Name = name.lit
	decl.Loc = name.loc
	p.advance()

	if p.peek().kind != tokLParen {
		p.diags.errorf(errz.ErrSyntax, p.peek().loc, "expected '(' after %q", decl.Name)
		return nil, false
	}
	p.advance()

	if !p.parseParams(decl) {
		return nil, false
	}

	switch p.peek().kind {
	case tokSemi:
		p.advance()
	case tokLBrace:
		decl.Defined = true
		p.advance()
		p.parseBody(decl)
	default:
		p.diags.errorf(errz.ErrSyntax, p.peek().loc,
			"expected ';' or function body after declaration of %q", decl.Name)
		return nil, false
	}
	return decl, true
}

// parseType parses [qualifiers] base [*...]. Unknown base names are syntax
// errors; the kernel language has no user-defined types.
func (p *parser) parseType() (typeRef, bool) {
	var t typeRef
	for {
		tok := p.peek()
		if tok.kind != tokIdent {
			break
		}
		switch {
		case addrSpaceQualifiers[tok.lit]:
			t.AddrSpace = tok.lit
			p.advance()
			continue
		case tok.lit == "const" || tok.lit == "volatile" || tok.lit == "restrict" || tok.lit == "unsigned":
			p.advance()
			continue
		}
		break
	}

	tok := p.peek()
	if tok.kind != tokIdent || !isTypeName(tok.lit) {
		p.diags.errorf(errz.ErrSyntax, tok.loc, "unknown type name %q", tok.lit)
		return t, false
	}
	t.Base = tok.lit
	p.advance()

	for p.peek().kind == tokStar {
		t.Stars++
		p.advance()
	}
	return t, true
}

func (p *parser) parseParams(decl *funcDecl) bool {
	if p.peek().kind == tokRParen {
		p.advance()
		return true
	}
	// A single void parameter means no parameters.
	if p.peek().is(tokIdent, "void") && p.toks[p.pos+1].kind == tokRParen {
		p.advance()
		p.advance()
		return true
	}
	for {
		t, ok := p.parseType()
		if !ok {
			return false
		}
		var name string
		if p.peek().kind == tokIdent {
			name = p.next().lit
		}
		decl.Params = append(decl.Params, param{Type: t, Name: name})

		switch p.peek().kind {
		case tokComma:
			p.advance()
		case tokRParen:
			p.advance()
			return true
		default:
			p.diags.errorf(errz.ErrSyntax, p.peek().loc,
				"expected ',' or ')' in parameter list of %q", decl.Name)
			return false
		}
	}
}

// parseBody scans a function body, recording call expressions. The opening
// brace has been consumed. Bodies are not otherwise analyzed.
func (p *parser) parseBody(decl *funcDecl) {
	depth := 1
	for !p.atEOF() && depth > 0 {
		t := p.next()
		switch t.kind {
		case tokLBrace:
			depth++
		case tokRBrace:
			depth--
		case tokIdent:
			if p.peek().kind == tokLParen && !controlKeywords[t.lit] && !isTypeName(t.lit) {
				decl.Calls = append(decl.Calls, p.parseCall(t))
			}
		}
	}
	if depth > 0 {
		p.diags.errorf(errz.ErrSyntax, decl.Loc, "unterminated body of function %q", decl.Name)
	}
}

// parseCall counts the arguments of a call expression. The callee token has
// been consumed and the current token is the opening parenthesis.
func (p *parser) parseCall(callee token) call {
	c := call{Callee: callee.lit, Loc: callee.loc}
	p.advance() // (
	depth := 1
	sawArg := false
	for !p.atEOF() && depth > 0 {
		t := p.peek()
		switch t.kind {
		case tokLParen:
			depth++
			p.advance()
		case tokRParen:
			depth--
			p.advance()
		case tokComma:
			if depth == 1 {
				c.Args++
			}
			p.advance()
		case tokIdent:
			// Nested calls are recorded too.
			sawArg = true
			p.advance()
			if p.peek().kind == tokLParen && !controlKeywords[t.lit] && !isTypeName(t.lit) {
				// Arguments of nested calls do not affect the outer count.
				c.Nested = append(c.Nested, p.parseCall(t))
			}
		default:
			sawArg = true
			p.advance()
		}
	}
	if sawArg {
		c.Args++
	}
	return c
}

func isTypeName(name string) bool {
	if baseTypes[name] {
		return true
	}
	base, n := splitVector(name)
	return n > 0 && baseTypes[base]
}

// splitVector splits a vector type name like float4 into its scalar base
// and lane count. Returns zero lanes when the name is not a vector type.
func splitVector(name string) (string, int) {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) || i == 0 {
		return name, 0
	}
	lanes := 0
	for _, c := range name[i:] {
		lanes = lanes*10 + int(c-'0')
	}
	switch lanes {
	case 2, 3, 4, 8, 16:
		return name[:i], lanes
	}
	return name, 0
}
