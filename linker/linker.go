// Package linker merges independently compiled IR modules into one. Inputs
// are deep-copied first, since they remain owned by their original
// programs, and the merge is all-or-nothing: a single symbol conflict fails
// the whole link and no partial module is returned.
package linker

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/gridc-io/gridc/errz"
	"github.com/gridc-io/gridc/kernels"
	"github.com/hashicorp/go-multierror"
	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
)

// Link merges the given modules in order into a freshly synthesized module.
// Input order is the tie-break priority: for compatible duplicate symbols
// (matching declarations, or a declaration matching a definition) the first
// definition wins. Two definitions of the same name, or any two symbols of
// the same name with different types, conflict; all conflicts found are
// reported together and no module is returned.
func Link(mods []*ir.Module) (*ir.Module, error) {
	if len(mods) == 0 {
		return nil, fmt.Errorf("linker: no modules to link")
	}

	merged := ir.NewModule()
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("linker: module identity: %w", err)
	}
	merged.SourceFilename = "linked-" + id.String()

	clones := make([]*ir.Module, 0, len(mods))
	for _, m := range mods {
		c, err := clone(m)
		if err != nil {
			return nil, err
		}
		clones = append(clones, c)
	}

	var conflicts error
	funcsByName := make(map[string]*ir.Func)
	globalsByName := make(map[string]*ir.Global)
	typeDefsSeen := make(map[string]bool)

	for _, c := range clones {
		if merged.TargetTriple == "" {
			merged.TargetTriple = c.TargetTriple
		}
		for _, t := range c.TypeDefs {
			key := t.LLString()
			if !typeDefsSeen[key] {
				typeDefsSeen[key] = true
				merged.TypeDefs = append(merged.TypeDefs, t)
			}
		}
		for _, fn := range c.Funcs {
			if err := mergeFunc(merged, funcsByName, fn); err != nil {
				conflicts = multierror.Append(conflicts, err)
			}
		}
		for _, g := range c.Globals {
			if err := mergeGlobal(merged, globalsByName, g); err != nil {
				conflicts = multierror.Append(conflicts, err)
			}
		}
	}
	if conflicts != nil {
		return nil, conflicts
	}

	// Rebuild the kernel table from the inputs, in input order, but only
	// when at least one input declared its kernels through a table. Inputs
	// relying on calling-convention tagging keep that provenance.
	anyTable := false
	var kernelFns []*ir.Func
	seenKernels := make(map[string]bool)
	for _, c := range clones {
		if kernels.HasTable(c) {
			anyTable = true
		}
		for _, fn := range kernels.StrategyFor(c).Funcs(c) {
			if seenKernels[fn.Name()] {
				continue
			}
			seenKernels[fn.Name()] = true
			kernelFns = append(kernelFns, funcsByName[fn.Name()])
		}
	}
	if anyTable {
		kernels.SetTable(merged, kernelFns)
	}

	return merged, nil
}

func mergeFunc(merged *ir.Module, byName map[string]*ir.Func, fn *ir.Func) error {
	existing, ok := byName[fn.Name()]
	if !ok {
		fn.Parent = merged
		merged.Funcs = append(merged.Funcs, fn)
		byName[fn.Name()] = fn
		return nil
	}
	if existing.Sig.LLString() != fn.Sig.LLString() {
		return errz.Newf(errz.ErrLink, errz.SourceLocation{},
			"conflicting types for symbol %s: %s vs %s",
			fn.Name(), existing.Sig.LLString(), fn.Sig.LLString())
	}
	if len(existing.Blocks) > 0 && len(fn.Blocks) > 0 {
		return errz.Newf(errz.ErrLink, errz.SourceLocation{},
			"duplicate definition of symbol %s", fn.Name())
	}
	// Compatible: a definition replaces a declaration, otherwise the first
	// occurrence stands.
	if len(existing.Blocks) == 0 && len(fn.Blocks) > 0 {
		replaceFunc(merged, existing, fn)
		byName[fn.Name()] = fn
	}
	return nil
}

func replaceFunc(merged *ir.Module, old, repl *ir.Func) {
	repl.Parent = merged
	for i, fn := range merged.Funcs {
		if fn == old {
			merged.Funcs[i] = repl
			return
		}
	}
}

func mergeGlobal(merged *ir.Module, byName map[string]*ir.Global, g *ir.Global) error {
	existing, ok := byName[g.Name()]
	if !ok {
		merged.Globals = append(merged.Globals, g)
		byName[g.Name()] = g
		return nil
	}
	if existing.ContentType.LLString() != g.ContentType.LLString() {
		return errz.Newf(errz.ErrLink, errz.SourceLocation{},
			"conflicting types for global %s: %s vs %s",
			g.Name(), existing.ContentType.LLString(), g.ContentType.LLString())
	}
	if existing.Init != nil && g.Init != nil {
		return errz.Newf(errz.ErrLink, errz.SourceLocation{},
			"duplicate definition of global %s", g.Name())
	}
	if existing.Init == nil && g.Init != nil {
		for i, got := range merged.Globals {
			if got == existing {
				merged.Globals[i] = g
				break
			}
		}
		byName[g.Name()] = g
	}
	return nil
}

// clone deep-copies a module by round-tripping it through the IR toolkit's
// textual serialization, leaving the original untouched.
func clone(m *ir.Module) (*ir.Module, error) {
	if m == nil {
		return nil, fmt.Errorf("linker: cannot link an unbuilt program")
	}
	c, err := asm.ParseString("module.ll", m.String())
	if err != nil {
		return nil, fmt.Errorf("linker: clone module: %w", err)
	}
	return c, nil
}
