package kernels

import (
	"github.com/gridc-io/gridc/errz"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// ArgInfo describes one kernel argument as seen by the execution engine.
type ArgInfo struct {
	Name      string
	Type      string
	AddrSpace uint64
	Pointer   bool
}

// Kernel is a read-only view into a compiled module: one entry-point
// function plus the module that owns it and the identity of the owning
// program. A Kernel is invalid the moment its program's module is discarded
// or rebuilt; it never outlives the module it references.
type Kernel struct {
	fn         *ir.Func
	module     *ir.Module
	programUID uint64
	args       []ArgInfo
}

// newKernel wraps an entry-point function, parsing its argument
// information. Malformed argument information (an argument type a kernel
// cannot legally take) yields a structured error carrying the origin.
func newKernel(fn *ir.Func, m *ir.Module, programUID uint64) (*Kernel, error) {
	args := make([]ArgInfo, 0, len(fn.Params))
	for i, p := range fn.Params {
		info, err := argInfo(p)
		if err != nil {
			return nil, errz.Newf(errz.ErrKernelArg,
				errz.SourceLocation{File: m.SourceFilename},
				"kernel %s argument %d: %s", fn.Name(), i, err)
		}
		args = append(args, info)
	}
	return &Kernel{fn: fn, module: m, programUID: programUID, args: args}, nil
}

func argInfo(p *ir.Param) (ArgInfo, error) {
	info := ArgInfo{Name: p.Name(), Type: p.Typ.LLString()}
	switch t := p.Typ.(type) {
	case *types.PointerType:
		info.Pointer = true
		info.AddrSpace = uint64(t.AddrSpace)
	case *types.IntType, *types.FloatType, *types.VectorType:
		// Pass-by-value argument types.
	default:
		return ArgInfo{}, errz.Newf(errz.ErrKernelArg, errz.SourceLocation{},
			"unsupported argument type %s", p.Typ.LLString())
	}
	return info, nil
}

// Name returns the kernel's entry-point name.
func (k *Kernel) Name() string { return k.fn.Name() }

// Func returns the entry-point function.
func (k *Kernel) Func() *ir.Func { return k.fn }

// Module returns the module the kernel lives in.
func (k *Kernel) Module() *ir.Module { return k.module }

// ProgramUID returns the build identity of the owning program.
func (k *Kernel) ProgramUID() uint64 { return k.programUID }

// NumArgs returns the number of kernel arguments.
func (k *Kernel) NumArgs() int { return len(k.args) }

// Args returns the parsed argument information in declaration order.
func (k *Kernel) Args() []ArgInfo { return k.args }
