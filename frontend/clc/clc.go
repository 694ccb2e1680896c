// Package clc is the built-in compiler front end for the kernel language.
// It resolves every input through the invocation's virtual file set, so no
// real source file is ever read back from disk, and reports diagnostics in
// compiler style, one file:line:col line per problem.
//
// The front end compiles the declaration surface of a program exactly and
// lowers function bodies only far enough to preserve the call graph; it is
// the kernel surface (entry points, calling conventions, argument
// information) that downstream consumers depend on.
package clc

import (
	"fmt"
	"strings"

	"github.com/gridc-io/gridc/errz"
	"github.com/gridc-io/gridc/frontend"
)

// Frontend is the built-in front end. The zero value is ready to use; it
// is stateless between compiles but not safe for concurrent invocation.
type Frontend struct{}

// New returns the built-in front end.
func New() *Frontend {
	return &Frontend{}
}

// compileOpts is the subset of invocation arguments the front end acts on.
type compileOpts struct {
	triple   string
	defines  []string
	includes []string // -include files, in order
	pch      string   // -include-pch path
	argInfo  bool
}

func parseArgs(args []string) compileOpts {
	var opts compileOpts
	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() string {
			if i+1 < len(args) {
				i++
				return args[i]
			}
			return ""
		}
		switch {
		case arg == "-D":
			opts.defines = append(opts.defines, next())
		case strings.HasPrefix(arg, "-D"):
			opts.defines = append(opts.defines, arg[2:])
		case arg == "-include":
			opts.includes = append(opts.includes, next())
		case arg == "-include-pch":
			opts.pch = next()
		case arg == "-triple":
			opts.triple = next()
		case arg == "-kernel-arg-info":
			opts.argInfo = true
		}
	}
	return opts
}

func (o compileOpts) width() int {
	if o.triple == "spir-unknown-unknown" {
		return 32
	}
	return 64
}

// Compile runs the front end over one invocation. A non-nil error means
// the compile could not even be attempted (a malformed invocation);
// compilation failures come back as a Result with a nil Module and the
// diagnostics in Log.
func (f *Frontend) Compile(inv *frontend.Invocation) (*frontend.Result, error) {
	if inv == nil || inv.Input == "" {
		return nil, fmt.Errorf("clc: invocation has no input")
	}
	source, ok := inv.Lookup(inv.Input)
	if !ok {
		return nil, fmt.Errorf("clc: input %q is not remapped", inv.Input)
	}

	opts := parseArgs(inv.Args)
	diags := &diagList{}
	table := newDeclTable(diags)

	// Declarations enter the table in a fixed order: the precompiled
	// header (or its source fallback via -include), then the input.
	if opts.pch != "" {
		decls, err := loadPCH(opts.pch)
		if err != nil {
			diags.errorf(errz.ErrDecode, errz.SourceLocation{File: opts.pch},
				"cannot load precompiled header: %v", err)
		} else {
			table.add(decls)
		}
	}

	pp := newPreprocessor(inv, opts.defines, diags)
	for _, inc := range opts.includes {
		src, ok := inv.Lookup(inc)
		if !ok {
			diags.errorf(errz.ErrPreprocess, errz.SourceLocation{File: inc},
				"%q file not found", inc)
			continue
		}
		table.add(newParser(lex(pp.run(inc, src)), diags).parse())
	}
	table.add(newParser(lex(pp.run(inv.Input, source)), diags).parse())

	table.validate()
	if !diags.empty() {
		return &frontend.Result{Log: diags.text()}, nil
	}

	em := newEmitter(opts.triple, inv.Input, table.byName, opts.width(), opts.argInfo)
	mod, err := em.emit(table.defs)
	if err != nil {
		// An emission failure past validation is an internal fault; report
		// it as an ordinary compile failure rather than crashing the build.
		return &frontend.Result{Log: fmt.Sprintf("internal error: %v\n", err)}, nil
	}
	return &frontend.Result{Module: mod}, nil
}

// declTable accumulates declarations across the precompiled header,
// -include files and the input, detecting redefinitions as they arrive.
type declTable struct {
	byName map[string]*funcDecl
	defs   []*funcDecl // definitions in source order
	all    []*funcDecl
	diags  *diagList
}

func newDeclTable(diags *diagList) *declTable {
	return &declTable{byName: make(map[string]*funcDecl), diags: diags}
}

func (t *declTable) add(decls []*funcDecl) {
	for _, d := range decls {
		existing, ok := t.byName[d.Name]
		if !ok {
			t.byName[d.Name] = d
		} else if existing.Defined && d.Defined {
			t.diags.errorf(errz.ErrSyntax, d.Loc, "redefinition of %q", d.Name)
			continue
		} else if d.Defined {
			// The definition supersedes the earlier prototype.
			t.byName[d.Name] = d
		}
		t.all = append(t.all, d)
		if d.Defined {
			t.defs = append(t.defs, d)
		}
	}
}

// validate checks declaration-level rules and every recorded call.
func (t *declTable) validate() {
	for _, d := range t.all {
		if d.Kernel && !d.Ret.isVoid() {
			t.diags.errorf(errz.ErrSyntax, d.Loc, "kernel function %q must return void", d.Name)
		}
		for _, c := range d.Calls {
			t.checkCall(c)
		}
	}
}

func (t *declTable) checkCall(c call) {
	callee, ok := t.byName[c.Callee]
	if !ok {
		t.diags.errorf(errz.ErrName, c.Loc,
			"implicit declaration of function '%s'", c.Callee)
	} else if len(callee.Params) != c.Args {
		t.diags.errorf(errz.ErrSyntax, c.Loc,
			"call to '%s' with %d arguments, expected %d",
			c.Callee, c.Args, len(callee.Params))
	}
	for _, nested := range c.Nested {
		t.checkCall(nested)
	}
}
