package gridc

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/gridc-io/gridc/frontend"
	"github.com/stretchr/testify/require"
)

type invalidationRecorder struct {
	uids []uint64
}

func (r *invalidationRecorder) InvalidateProgram(uid uint64) {
	r.uids = append(r.uids, uid)
}

type brokenFrontend struct {
	err      error
	compiles int
}

func (f *brokenFrontend) Compile(inv *frontend.Invocation) (*frontend.Result, error) {
	f.compiles++
	return nil, f.err
}

func TestRebuildIssuesFreshUID(t *testing.T) {
	ctx := NewContext()
	rec := &invalidationRecorder{}
	ctx.RegisterInvalidator(rec)

	p := New(ctx, "kernel void foo(){}")
	require.True(t, p.Build("", nil))
	before := p.UID()

	require.True(t, p.Build("", nil))
	after := p.UID()

	require.NotEqual(t, before, after)
	require.Contains(t, rec.uids, before)
	require.NotContains(t, rec.uids, after)
}

func TestFailedBuildStillIssuesFreshUID(t *testing.T) {
	p := New(NewContext(), "kernel void foo(){ missing(); }")
	before := p.UID()
	require.False(t, p.Build("", nil))
	require.NotEqual(t, before, p.UID())
}

func TestRebuildDiscardsModule(t *testing.T) {
	p := New(NewContext(), "kernel void foo(){ maybe_missing(); }")
	require.False(t, p.Build("", nil))
	require.Nil(t, p.Module())
	require.Equal(t, BuildError, p.Status())
	require.NotEmpty(t, p.BuildLog())
}

func TestBuildLogResetEachBuild(t *testing.T) {
	p := New(NewContext(), "kernel void foo(){ missing(); }")
	require.False(t, p.Build("", nil))
	first := p.BuildLog()
	require.Contains(t, first, "missing")

	require.False(t, p.Build("", nil))
	require.Equal(t, first, p.BuildLog())
}

func TestBuildFromBinaryIsNoOp(t *testing.T) {
	src := build(t, "kernel void foo(){}")
	data, err := src.Binary()
	require.NoError(t, err)

	fe := &brokenFrontend{err: errors.New("must not be called")}
	loaded, err := FromBitcode(NewContext(), data, WithFrontend(fe))
	require.NoError(t, err)

	require.True(t, loaded.Build("-cl-opt-disable", nil))
	require.Equal(t, BuildSuccess, loaded.Status())
	require.Zero(t, fe.compiles)
	require.Equal(t, []string{"foo"}, loaded.KernelNames())

	// Even without a recompile, the queried state reflects this call.
	require.Equal(t, "-cl-opt-disable", loaded.BuildOptions())
	require.Empty(t, loaded.BuildLog())
}

func TestBuildFrontendSetupFailure(t *testing.T) {
	fe := &brokenFrontend{err: errors.New("diagnostics engine unavailable")}
	p := New(NewContext(), "kernel void foo(){}", WithFrontend(fe))

	require.False(t, p.Build("", nil))
	require.Equal(t, BuildError, p.Status())
	require.Contains(t, p.BuildLog(), "diagnostics engine unavailable")
	require.Nil(t, p.Module())
}

func TestBuildDeterministicOutcome(t *testing.T) {
	for i := 0; i < 3; i++ {
		p := build(t, "kernel void foo(global float *out){}")
		require.Equal(t, []string{"foo"}, p.KernelNames())
	}
}

func TestDumpMode(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDumpIR, "1")
	t.Setenv(EnvTempDir, dir)

	p := build(t, "kernel void foo(){}")
	base := fmt.Sprintf("%s/gridc_%d", dir, p.UID())
	for _, path := range []string{base + ".clk", base + ".ll", base + ".bin"} {
		_, err := os.Stat(path)
		require.NoError(t, err, path)
	}

	source, err := os.ReadFile(base + ".clk")
	require.NoError(t, err)
	require.Equal(t, p.Source(), string(source))

	p.Release()
	for _, path := range []string{base + ".clk", base + ".ll", base + ".bin"} {
		_, err := os.Stat(path)
		require.True(t, os.IsNotExist(err), path)
	}
}

func TestDumpModeKeepTemps(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDumpIR, "1")
	t.Setenv(EnvKeepTemps, "1")
	t.Setenv(EnvTempDir, dir)

	p := build(t, "kernel void foo(){}")
	base := fmt.Sprintf("%s/gridc_%d", dir, p.UID())
	p.Release()

	_, err := os.Stat(base + ".ll")
	require.NoError(t, err)
}

func TestDumpModeOffByDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvTempDir, dir)

	p := build(t, "kernel void foo(){}")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
	_ = p
}
