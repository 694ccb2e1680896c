package kernels

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/rs/zerolog"
)

// Strategy enumerates the kernel entry points of a module. Implementations
// are stateless; pick one with StrategyFor.
type Strategy interface {
	// Funcs returns the kernel functions in discovery order.
	Funcs(m *ir.Module) []*ir.Func

	// Count returns the number of kernel entries, which may exceed
	// len(Funcs) when the module carries malformed table entries.
	Count(m *ir.Module) int
}

// metadataTable discovers kernels through the module's explicit kernel
// metadata table.
type metadataTable struct{}

func (metadataTable) Funcs(m *ir.Module) []*ir.Func { return tableFuncs(m) }
func (metadataTable) Count(m *ir.Module) int        { return tableEntries(m) }

// callingConvScan discovers kernels by scanning every function defined in
// the module for the kernel calling convention. Used for modules of foreign
// provenance that carry no metadata table.
type callingConvScan struct{}

func (callingConvScan) Funcs(m *ir.Module) []*ir.Func {
	var fns []*ir.Func
	for _, fn := range m.Funcs {
		if fn.CallingConv == enum.CallingConvSPIRKernel {
			fns = append(fns, fn)
		}
	}
	return fns
}

func (c callingConvScan) Count(m *ir.Module) int { return len(c.Funcs(m)) }

// StrategyFor selects the discovery strategy for a module: the metadata
// table when present (even if empty), else the calling-convention scan.
func StrategyFor(m *ir.Module) Strategy {
	if HasTable(m) {
		return metadataTable{}
	}
	return callingConvScan{}
}

// Names returns the kernel names of a module in discovery order.
func Names(m *ir.Module) []string {
	fns := StrategyFor(m).Funcs(m)
	names := make([]string, 0, len(fns))
	for _, fn := range fns {
		names = append(names, fn.Name())
	}
	return names
}

// Count returns the number of kernel entries in a module.
func Count(m *ir.Module) int {
	return StrategyFor(m).Count(m)
}

// Resolve finds the kernel with the given name (exact, case-sensitive) and
// materializes it. A nil result means not found: no module entry matched,
// or the matched function's argument information was malformed. The latter
// is logged rather than propagated, so callers see a uniform not-found.
func Resolve(m *ir.Module, name string, programUID uint64, log zerolog.Logger) *Kernel {
	if m == nil {
		return nil
	}
	var match *ir.Func
	for _, fn := range StrategyFor(m).Funcs(m) {
		if fn.Name() == name {
			match = fn
			break
		}
	}
	if match == nil {
		return nil
	}

	// Name any unnamed temporaries first so diagnostic output referencing
	// them is stable across builds.
	nameTemporaries(match)

	k, err := newKernel(match, m, programUID)
	if err != nil {
		log.Error().
			Err(err).
			Str("kernel", name).
			Msg("failed to create kernel")
		return nil
	}
	return k
}

// nameTemporaries assigns stable identifiers to unnamed parameters, blocks
// and instruction results within a function. Unnamedness is checked on the
// identifier itself, since Name reports the numeric slot for unnamed
// values.
func nameTemporaries(fn *ir.Func) {
	for i, p := range fn.Params {
		if p.IsUnnamed() {
			p.SetName(fmt.Sprintf("arg%d", i))
		}
	}
	for i, block := range fn.Blocks {
		if block.IsUnnamed() {
			block.SetName(fmt.Sprintf("bb%d", i))
		}
		tmp := 0
		for _, inst := range block.Insts {
			named, ok := inst.(value.Named)
			if !ok || types.Equal(named.Type(), types.Void) {
				continue
			}
			ident, ok := inst.(interface{ IsUnnamed() bool })
			if ok && ident.IsUnnamed() {
				named.SetName(fmt.Sprintf("tmp%d_%d", i, tmp))
				tmp++
			}
		}
	}
}
