package clc

import (
	"github.com/gridc-io/gridc/errz"
)

// lex tokenizes preprocessed lines. Lines arrive with comments already
// stripped and directives already consumed, so the lexer only deals with
// identifiers, numbers, strings and punctuation. Every token carries the
// file and line of the original source it came from.
func lex(lines []line) []token {
	var toks []token
	for _, ln := range lines {
		toks = append(toks, lexLine(ln)...)
	}
	toks = append(toks, token{kind: tokEOF})
	return toks
}

func lexLine(ln line) []token {
	var toks []token
	text := ln.text
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case isIdentStart(c):
			start := i
			for i < len(text) && isIdentPart(text[i]) {
				i++
			}
			toks = append(toks, token{
				kind: tokIdent,
				lit:  text[start:i],
				loc:  ln.locAt(start),
			})
		case c >= '0' && c <= '9':
			start := i
			for i < len(text) && isNumberPart(text[i]) {
				i++
			}
			toks = append(toks, token{
				kind: tokNumber,
				lit:  text[start:i],
				loc:  ln.locAt(start),
			})
		case c == '"':
			start := i
			i++
			for i < len(text) && text[i] != '"' {
				if text[i] == '\\' && i+1 < len(text) {
					i++
				}
				i++
			}
			if i < len(text) {
				i++ // closing quote
			}
			toks = append(toks, token{
				kind: tokString,
				lit:  text[start:i],
				loc:  ln.locAt(start),
			})
		default:
			kind := tokPunct
			switch c {
			case '(':
				kind = tokLParen
			case ')':
				kind = tokRParen
			case '{':
				kind = tokLBrace
			case '}':
				kind = tokRBrace
			case ',':
				kind = tokComma
			case ';':
				kind = tokSemi
			case '*':
				kind = tokStar
			}
			toks = append(toks, token{
				kind: kind,
				lit:  string(c),
				loc:  ln.locAt(i),
			})
			i++
		}
	}
	return toks
}

// locAt returns the location of the given byte offset within the line.
func (ln line) locAt(offset int) errz.SourceLocation {
	return errz.SourceLocation{File: ln.file, Line: ln.num, Column: offset + 1}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isNumberPart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == 'x' || c == 'X' ||
		(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == 'u' || c == 'U' || c == 'l' || c == 'L'
}
