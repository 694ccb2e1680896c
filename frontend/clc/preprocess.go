package clc

import (
	"strings"

	"github.com/gridc-io/gridc/errz"
	"github.com/gridc-io/gridc/frontend"
)

// line is one line of preprocessed source, tagged with where it came from
// so later phases report accurate locations across included files.
type line struct {
	file string
	num  int // 1-based
	text string
}

// preprocessor expands a virtual file into a flat list of lines, resolving
// #include against the invocation's virtual file set and evaluating
// object-like macros and #ifdef conditionals.
type preprocessor struct {
	inv     *frontend.Invocation
	defines map[string]string
	stack   []string // include stack, for cycle detection
	diags   *diagList
}

func newPreprocessor(inv *frontend.Invocation, predefined []string, diags *diagList) *preprocessor {
	defines := make(map[string]string, len(predefined))
	for _, d := range predefined {
		name, value, _ := strings.Cut(d, "=")
		defines[name] = value
	}
	return &preprocessor{inv: inv, defines: defines, diags: diags}
}

// run preprocesses the named virtual file.
func (p *preprocessor) run(name, source string) []line {
	for _, active := range p.stack {
		if active == name {
			p.diags.errorf(errz.ErrPreprocess, errz.SourceLocation{File: name},
				"circular include of %q", name)
			return nil
		}
	}
	p.stack = append(p.stack, name)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	var out []line

	// Conditional-inclusion state: one entry per open #if-group.
	type cond struct {
		active   bool
		taken    bool // a branch of this group has been taken
		seenElse bool
	}
	var conds []cond
	live := func() bool {
		for _, c := range conds {
			if !c.active {
				return false
			}
		}
		return true
	}

	inBlockComment := false
	for i, raw := range strings.Split(source, "\n") {
		loc := errz.SourceLocation{File: name, Line: i + 1, Column: 1}
		text, nowInComment := stripComments(raw, inBlockComment)
		inBlockComment = nowInComment

		trimmed := strings.TrimSpace(text)
		if strings.HasPrefix(trimmed, "#") {
			directive, rest, _ := strings.Cut(strings.TrimSpace(trimmed[1:]), " ")
			rest = strings.TrimSpace(rest)
			switch directive {
			case "ifdef":
				_, defined := p.defines[rest]
				conds = append(conds, cond{active: defined, taken: defined})
			case "ifndef":
				_, defined := p.defines[rest]
				conds = append(conds, cond{active: !defined, taken: !defined})
			case "else":
				if len(conds) == 0 || conds[len(conds)-1].seenElse {
					p.diags.errorf(errz.ErrPreprocess, loc, "#else without #ifdef")
					continue
				}
				c := &conds[len(conds)-1]
				c.seenElse = true
				c.active = !c.taken
				c.taken = true
			case "endif":
				if len(conds) == 0 {
					p.diags.errorf(errz.ErrPreprocess, loc, "#endif without #ifdef")
					continue
				}
				conds = conds[:len(conds)-1]
			case "define":
				if live() {
					mname, value, _ := strings.Cut(rest, " ")
					if mname == "" {
						p.diags.errorf(errz.ErrPreprocess, loc, "macro name missing")
						continue
					}
					p.defines[mname] = strings.TrimSpace(value)
				}
			case "undef":
				if live() {
					delete(p.defines, rest)
				}
			case "include":
				if live() {
					out = append(out, p.include(rest, loc)...)
				}
			case "pragma":
				// Pragmas are accepted and ignored.
			default:
				if live() {
					p.diags.errorf(errz.ErrPreprocess, loc, "unknown directive #%s", directive)
				}
			}
			continue
		}

		if !live() || trimmed == "" {
			continue
		}
		out = append(out, line{file: name, num: i + 1, text: p.expand(text)})
	}

	if len(conds) > 0 {
		p.diags.errorf(errz.ErrPreprocess, errz.SourceLocation{File: name},
			"unterminated conditional directive")
	}
	return out
}

// include resolves an #include directive against the virtual file set.
func (p *preprocessor) include(spec string, loc errz.SourceLocation) []line {
	target := strings.Trim(spec, "\"<>")
	if target == "" {
		p.diags.errorf(errz.ErrPreprocess, loc, "#include expects a file name")
		return nil
	}
	for _, candidate := range []string{frontend.RemapDir + target, target} {
		if src, ok := p.inv.Lookup(candidate); ok {
			return p.run(candidate, src)
		}
	}
	p.diags.errorf(errz.ErrPreprocess, loc, "%q file not found", target)
	return nil
}

// expand substitutes object-like macros by whole-word replacement.
func (p *preprocessor) expand(text string) string {
	var sb strings.Builder
	i := 0
	for i < len(text) {
		if !isIdentStart(text[i]) {
			sb.WriteByte(text[i])
			i++
			continue
		}
		start := i
		for i < len(text) && isIdentPart(text[i]) {
			i++
		}
		word := text[start:i]
		if value, ok := p.defines[word]; ok && value != "" {
			sb.WriteString(value)
		} else {
			sb.WriteString(word)
		}
	}
	return sb.String()
}

// stripComments removes // and /* */ comments from one line, carrying
// block-comment state across lines. Removed comment text is replaced with a
// single space so token columns stay close to the original.
func stripComments(text string, inBlock bool) (string, bool) {
	var sb strings.Builder
	i := 0
	for i < len(text) {
		if inBlock {
			if i+1 < len(text) && text[i] == '*' && text[i+1] == '/' {
				inBlock = false
				sb.WriteByte(' ')
				i += 2
				continue
			}
			i++
			continue
		}
		if i+1 < len(text) && text[i] == '/' && text[i+1] == '/' {
			break
		}
		if i+1 < len(text) && text[i] == '/' && text[i+1] == '*' {
			inBlock = true
			i += 2
			continue
		}
		sb.WriteByte(text[i])
		i++
	}
	return sb.String(), inBlock
}
