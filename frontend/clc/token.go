package clc

import "github.com/gridc-io/gridc/errz"

// tokenKind identifies the category of a lexed token.
type tokenKind int

const (
	tokEOF tokenKind = iota

	tokIdent  // identifier or keyword
	tokNumber // numeric literal
	tokString // string literal "..."

	tokLParen // (
	tokRParen // )
	tokLBrace // {
	tokRBrace // }
	tokComma  // ,
	tokSemi   // ;
	tokStar   // *

	tokPunct // any other punctuation, kept as its literal text
)

// token is one lexed token with its originating location.
type token struct {
	kind tokenKind
	lit  string
	loc  errz.SourceLocation
}

func (t token) is(kind tokenKind, lit string) bool {
	return t.kind == kind && t.lit == lit
}
