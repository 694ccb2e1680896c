package frontend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewInvocationFixedPrefix(t *testing.T) {
	inv := NewInvocation("kernel void foo(){}", "", nil, Policy{PointerWidth: 64})
	require.Equal(t, "-g", inv.Args[0])
	require.Equal(t, "-kernel-arg-info", inv.Args[1])
	require.Equal(t, "-triple", inv.Args[2])
	require.Equal(t, "spir64-unknown-unknown", inv.Args[3])
	require.Contains(t, inv.Args, "-O0")
	require.Contains(t, inv.Args, "grid_fp64")
	require.Equal(t, InputName, inv.Args[len(inv.Args)-1])
	require.Equal(t, InputName, inv.Input)
}

func TestNewInvocationTriple32(t *testing.T) {
	inv := NewInvocation("", "", nil, Policy{PointerWidth: 32})
	require.Contains(t, inv.Args, "spir-unknown-unknown")
	require.NotContains(t, inv.Args, "spir64-unknown-unknown")
}

func TestNewInvocationDeterministic(t *testing.T) {
	a := NewInvocation("src", "-D FOO -W", nil, Policy{PointerWidth: 64})
	b := NewInvocation("src", "-D FOO -W", nil, Policy{PointerWidth: 64})
	require.Equal(t, a.Args, b.Args)
	require.Equal(t, a.Files, b.Files)
}

func TestNewInvocationDenyList(t *testing.T) {
	inv := NewInvocation("", "-fast-relaxed-math -D FOO -single-precision-constant", nil,
		Policy{PointerWidth: 64})
	require.NotContains(t, inv.Args, "-fast-relaxed-math")
	require.NotContains(t, inv.Args, "-single-precision-constant")
	require.Contains(t, inv.Args, "FOO")
}

func TestNewInvocationFallbackHeader(t *testing.T) {
	// Empty PCH directory: the bundled header must be remapped in and a
	// warning recorded.
	inv := NewInvocation("", "", nil, Policy{PCHDir: t.TempDir(), PointerWidth: 64})
	require.Contains(t, inv.Args, "-include")
	require.Contains(t, inv.Args, RemapDir+FallbackHeaderName)
	require.Len(t, inv.Warnings, 1)
	require.Contains(t, inv.Warnings[0], "precompiled header")

	src, ok := inv.Lookup(RemapDir + FallbackHeaderName)
	require.True(t, ok)
	require.Contains(t, src, "get_global_id")
}

func TestNewInvocationSelectsPCH(t *testing.T) {
	dir := t.TempDir()
	noopt := filepath.Join(dir, "kernelstd64.noopt.pch")
	opt := filepath.Join(dir, "kernelstd64.pch")
	require.NoError(t, os.WriteFile(noopt, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(opt, []byte("x"), 0o644))

	policy := Policy{PCHDir: dir, PointerWidth: 64}

	inv := NewInvocation("", "", nil, policy)
	require.Contains(t, inv.Args, noopt)
	require.Empty(t, inv.Warnings)

	inv = NewInvocation("", "-O2", nil, policy)
	require.Contains(t, inv.Args, opt)

	// An explicit -O0 keeps the unoptimized header.
	inv = NewInvocation("", "-O0", nil, policy)
	require.Contains(t, inv.Args, noopt)
}

func TestNewInvocationRemapsHeadersInOrder(t *testing.T) {
	headers := []Header{
		{Name: "a.h", Source: "int a();"},
		{Name: "b.h", Source: "int b();"},
	}
	inv := NewInvocation("#include \"a.h\"", "", headers, Policy{PointerWidth: 64})

	var names []string
	for _, f := range inv.Files {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{
		RemapDir + FallbackHeaderName,
		RemapDir + "a.h",
		RemapDir + "b.h",
		InputName,
	}, names)

	src, ok := inv.Lookup(RemapDir + "b.h")
	require.True(t, ok)
	require.Equal(t, "int b();", src)

	_, ok = inv.Lookup(RemapDir + "c.h")
	require.False(t, ok)
}

func TestLookupShadowing(t *testing.T) {
	inv := &Invocation{}
	inv.Remap("x.h", "old")
	inv.Remap("x.h", "new")
	src, ok := inv.Lookup("x.h")
	require.True(t, ok)
	require.Equal(t, "new", src)
}
