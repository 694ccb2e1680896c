package clc

import (
	"path/filepath"
	"testing"

	"github.com/gridc-io/gridc/frontend"
	"github.com/gridc-io/gridc/kernels"
	"github.com/llir/llvm/ir/enum"
	"github.com/stretchr/testify/require"
)

// compile runs the built-in front end over a full invocation, the same way
// the build pipeline does.
func compile(t *testing.T, source, options string, headers []frontend.Header) *frontend.Result {
	t.Helper()
	inv := frontend.NewInvocation(source, options, headers, frontend.Policy{PointerWidth: 64})
	res, err := New().Compile(inv)
	require.NoError(t, err)
	return res
}

func TestCompileSingleKernel(t *testing.T) {
	res := compile(t, "kernel void foo(){}", "", nil)
	require.True(t, res.Ok(), res.Log)
	require.Equal(t, []string{"foo"}, kernels.Names(res.Module))
	require.Equal(t, "spir64-unknown-unknown", res.Module.TargetTriple)
}

func TestCompileUnresolvedSymbol(t *testing.T) {
	res := compile(t, "kernel void foo(){ unresolved_symbol(); }", "", nil)
	require.False(t, res.Ok())
	require.Contains(t, res.Log, "unresolved_symbol")
	require.Contains(t, res.Log, "input.clk:1:")
}

func TestCompileBuiltinCall(t *testing.T) {
	src := `kernel void ids(global uint *out) {
	uint i = get_global_id(0);
	out[i] = i;
}`
	res := compile(t, src, "", nil)
	require.True(t, res.Ok(), res.Log)
	require.Equal(t, []string{"ids"}, kernels.Names(res.Module))
}

func TestCompileCallingConventions(t *testing.T) {
	src := `
int helper(int x) { return x; }

kernel void k(global int *p) {
	helper(1);
}`
	res := compile(t, src, "", nil)
	require.True(t, res.Ok(), res.Log)

	convs := map[string]enum.CallingConv{}
	for _, fn := range res.Module.Funcs {
		convs[fn.Name()] = fn.CallingConv
	}
	require.Equal(t, enum.CallingConvSPIRKernel, convs["k"])
	require.Equal(t, enum.CallingConvSPIRFunc, convs["helper"])
	require.Equal(t, []string{"k"}, kernels.Names(res.Module))
}

func TestCompileUserHeader(t *testing.T) {
	headers := []frontend.Header{
		{Name: "util.h", Source: "int triple(int x);"},
	}
	src := `#include "util.h"
int triple(int x) { return x; }
kernel void k() { triple(3); }`
	res := compile(t, src, "", headers)
	require.True(t, res.Ok(), res.Log)
}

func TestCompileMissingInclude(t *testing.T) {
	res := compile(t, "#include \"missing.h\"\nkernel void k(){}", "", nil)
	require.False(t, res.Ok())
	require.Contains(t, res.Log, `"missing.h" file not found`)
	require.Contains(t, res.Log, "input.clk:1:")
}

func TestCompileExtensionMacroConditionals(t *testing.T) {
	// dsqrt is declared in the bundled header behind the grid_fp64
	// extension macro, which every invocation defines.
	res := compile(t, "kernel void k(global double *p) { dsqrt(1.0); }", "", nil)
	require.True(t, res.Ok(), res.Log)
}

func TestCompileKernelMustReturnVoid(t *testing.T) {
	res := compile(t, "kernel int k(){ return 0; }", "", nil)
	require.False(t, res.Ok())
	require.Contains(t, res.Log, `kernel function "k" must return void`)
}

func TestCompileRedefinition(t *testing.T) {
	res := compile(t, "kernel void k(){}\nkernel void k(){}", "", nil)
	require.False(t, res.Ok())
	require.Contains(t, res.Log, `redefinition of "k"`)
}

func TestCompileArityMismatch(t *testing.T) {
	res := compile(t, "kernel void k(){ barrier(); }", "", nil)
	require.False(t, res.Ok())
	require.Contains(t, res.Log, "call to 'barrier' with 0 arguments, expected 1")
}

func TestCompileArgInfo(t *testing.T) {
	src := "kernel void k(global float *data, uint n) {}"
	res := compile(t, src, "", nil)
	require.True(t, res.Ok(), res.Log)

	k := kernels.StrategyFor(res.Module).Funcs(res.Module)[0]
	require.Equal(t, "data", k.Params[0].Name())
	require.Equal(t, "n", k.Params[1].Name())
}

func TestCompileWithoutArgInfoLeavesParamsUnnamed(t *testing.T) {
	inv := &frontend.Invocation{
		Args:  []string{"-triple", "spir64-unknown-unknown", "input.clk"},
		Input: "input.clk",
	}
	inv.Remap("input.clk", "kernel void k(global float *data) {}")
	res, err := New().Compile(inv)
	require.NoError(t, err)
	require.True(t, res.Ok(), res.Log)

	k := res.Module.Funcs[0]
	require.True(t, k.Params[0].IsUnnamed())
}

func TestCompileAddressSpaces(t *testing.T) {
	src := "kernel void k(global int *a, constant int *b, local int *c, int d) {}"
	res := compile(t, src, "", nil)
	require.True(t, res.Ok(), res.Log)
	require.Contains(t, res.Module.String(), "addrspace(1)")
	require.Contains(t, res.Module.String(), "addrspace(2)")
	require.Contains(t, res.Module.String(), "addrspace(3)")
}

func TestCompilePointerWidthSizeT(t *testing.T) {
	inv32 := frontend.NewInvocation("kernel void k(size_t n){}", "", nil,
		frontend.Policy{PointerWidth: 32})
	res, err := New().Compile(inv32)
	require.NoError(t, err)
	require.True(t, res.Ok(), res.Log)
	require.Contains(t, res.Module.String(), "i32 %n")
	require.Equal(t, "spir-unknown-unknown", res.Module.TargetTriple)
}

func TestCompileInvalidInvocation(t *testing.T) {
	_, err := New().Compile(nil)
	require.Error(t, err)

	_, err = New().Compile(&frontend.Invocation{})
	require.Error(t, err)

	// Input named but never remapped.
	_, err = New().Compile(&frontend.Invocation{Input: "input.clk"})
	require.Error(t, err)
}

func TestCompileWithPCH(t *testing.T) {
	dir := t.TempDir()
	pch := filepath.Join(dir, "kernelstd64.noopt.pch")
	err := WritePCHFile(pch, frontend.FallbackHeaderName, frontend.FallbackHeaderSource(),
		frontend.Extensions)
	require.NoError(t, err)

	inv := frontend.NewInvocation("kernel void k(){ barrier(0); }", "", nil,
		frontend.Policy{PCHDir: dir, PointerWidth: 64})
	require.Contains(t, inv.Args, "-include-pch")
	require.Empty(t, inv.Warnings)

	res, err := New().Compile(inv)
	require.NoError(t, err)
	require.True(t, res.Ok(), res.Log)
	require.Equal(t, []string{"k"}, kernels.Names(res.Module))
}

func TestCompileCorruptPCH(t *testing.T) {
	inv := &frontend.Invocation{
		Args:  []string{"-include-pch", filepath.Join(t.TempDir(), "nope.pch"), "input.clk"},
		Input: "input.clk",
	}
	inv.Remap("input.clk", "kernel void k(){}")
	res, err := New().Compile(inv)
	require.NoError(t, err)
	require.False(t, res.Ok())
	require.Contains(t, res.Log, "precompiled header")
}
