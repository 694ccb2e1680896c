package clc

import (
	"fmt"

	"github.com/gridc-io/gridc/kernels"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// emitter lowers validated declarations to an IR module. Bodies are lowered
// only far enough to preserve the call graph: each recorded call becomes a
// call instruction with zero-value arguments, followed by a return of the
// function's zero value. The kernel surface (names, calling conventions,
// the kernel table, argument names and types) is exact.
type emitter struct {
	m       *ir.Module
	decls   map[string]*funcDecl
	funcs   map[string]*ir.Func
	width   int
	argInfo bool
}

func newEmitter(triple, source string, decls map[string]*funcDecl, width int, argInfo bool) *emitter {
	m := ir.NewModule()
	m.TargetTriple = triple
	m.SourceFilename = source
	return &emitter{
		m:       m,
		decls:   decls,
		funcs:   make(map[string]*ir.Func),
		width:   width,
		argInfo: argInfo,
	}
}

// emit lowers the given definitions, in source order, and installs the
// kernel metadata table. Declarations referenced by calls are emitted on
// demand; unreferenced prototypes are dropped.
func (e *emitter) emit(defs []*funcDecl) (*ir.Module, error) {
	var kernelFns []*ir.Func
	for _, decl := range defs {
		fn, err := e.fn(decl)
		if err != nil {
			return nil, err
		}
		if decl.Kernel {
			kernelFns = append(kernelFns, fn)
		}
	}
	for _, decl := range defs {
		if err := e.body(decl); err != nil {
			return nil, err
		}
	}
	kernels.SetTable(e.m, kernelFns)
	return e.m, nil
}

// fn creates (or returns) the IR function for a declaration.
func (e *emitter) fn(decl *funcDecl) (*ir.Func, error) {
	if fn, ok := e.funcs[decl.Name]; ok {
		return fn, nil
	}
	ret, err := e.irType(decl.Ret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", decl.Name, err)
	}
	params := make([]*ir.Param, 0, len(decl.Params))
	for i, p := range decl.Params {
		pt, err := e.irType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", decl.Name, i, err)
		}
		name := ""
		if e.argInfo {
			name = p.Name
		}
		params = append(params, ir.NewParam(name, pt))
	}
	fn := e.m.NewFunc(decl.Name, ret, params...)
	if decl.Kernel {
		fn.CallingConv = enum.CallingConvSPIRKernel
	} else {
		fn.CallingConv = enum.CallingConvSPIRFunc
	}
	e.funcs[decl.Name] = fn
	return fn, nil
}

// body emits the entry block of a defined function: one call instruction
// per recorded top-level call, then a return.
func (e *emitter) body(decl *funcDecl) error {
	fn := e.funcs[decl.Name]
	block := fn.NewBlock("entry")
	for _, c := range decl.Calls {
		if err := e.call(block, c); err != nil {
			return err
		}
	}
	if types.Equal(fn.Sig.RetType, types.Void) {
		block.NewRet(nil)
	} else {
		zero, err := zeroValue(fn.Sig.RetType)
		if err != nil {
			return err
		}
		block.NewRet(zero)
	}
	return nil
}

func (e *emitter) call(block *ir.Block, c call) error {
	decl, ok := e.decls[c.Callee]
	if !ok {
		// Validation already rejected unknown callees.
		return nil
	}
	callee, err := e.fn(decl)
	if err != nil {
		return err
	}
	args := make([]value.Value, 0, len(callee.Params))
	for _, p := range callee.Params {
		zero, err := zeroValue(p.Typ)
		if err != nil {
			return err
		}
		args = append(args, zero)
	}
	block.NewCall(callee, args...)
	return nil
}

// irType maps a kernel-language type to its IR type.
func (e *emitter) irType(t typeRef) (types.Type, error) {
	scalar, err := e.scalarType(t.Base)
	if err != nil {
		return nil, err
	}
	typ := scalar
	for i := 0; i < t.Stars; i++ {
		ptr := types.NewPointer(typ)
		if i == t.Stars-1 {
			ptr.AddrSpace = addrSpaceNum(t.AddrSpace)
		}
		typ = ptr
	}
	return typ, nil
}

func (e *emitter) scalarType(base string) (types.Type, error) {
	if t, ok := e.baseType(base); ok {
		return t, nil
	}
	vecBase, lanes := splitVector(base)
	if lanes > 0 {
		if t, ok := e.baseType(vecBase); ok {
			return types.NewVector(uint64(lanes), t), nil
		}
	}
	return nil, fmt.Errorf("unsupported type %q", base)
}

func (e *emitter) baseType(base string) (types.Type, bool) {
	switch base {
	case "void":
		return types.Void, true
	case "bool":
		return types.I1, true
	case "char", "uchar":
		return types.I8, true
	case "short", "ushort":
		return types.I16, true
	case "int", "uint":
		return types.I32, true
	case "long", "ulong":
		return types.I64, true
	case "half":
		return types.Half, true
	case "float":
		return types.Float, true
	case "double":
		return types.Double, true
	case "size_t":
		if e.width == 32 {
			return types.I32, true
		}
		return types.I64, true
	}
	return nil, false
}

func addrSpaceNum(qualifier string) types.AddrSpace {
	switch qualifier {
	case "global":
		return 1
	case "constant":
		return 2
	case "local":
		return 3
	default: // private
		return 0
	}
}

func zeroValue(t types.Type) (constant.Constant, error) {
	switch tt := t.(type) {
	case *types.IntType:
		return constant.NewInt(tt, 0), nil
	case *types.FloatType:
		return constant.NewFloat(tt, 0), nil
	case *types.PointerType:
		return constant.NewNull(tt), nil
	case *types.VectorType:
		return constant.NewZeroInitializer(tt), nil
	}
	return nil, fmt.Errorf("no zero value for type %s", t.LLString())
}
