package kernels

import (
	"testing"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// buildModule returns a module with one kernel "foo" and one plain helper
// function "helper", discoverable through the metadata table.
func buildModule() *ir.Module {
	m := ir.NewModule()
	m.SourceFilename = "input.clk"

	helper := m.NewFunc("helper", types.I32, ir.NewParam("x", types.I32))
	helper.CallingConv = enum.CallingConvSPIRFunc
	hb := helper.NewBlock("")
	hb.NewRet(constant.NewInt(types.I32, 0))

	buf := types.NewPointer(types.Float)
	buf.AddrSpace = 1
	foo := m.NewFunc("foo", types.Void,
		ir.NewParam("out", buf),
		ir.NewParam("n", types.I32))
	foo.CallingConv = enum.CallingConvSPIRKernel
	fb := foo.NewBlock("")
	fb.NewCall(helper, constant.NewInt(types.I32, 1))
	fb.NewRet(nil)

	SetTable(m, []*ir.Func{foo})
	return m
}

func TestMetadataTableStrategy(t *testing.T) {
	m := buildModule()
	require.True(t, HasTable(m))
	require.IsType(t, metadataTable{}, StrategyFor(m))
	require.Equal(t, []string{"foo"}, Names(m))
	require.Equal(t, 1, Count(m))
}

func TestEmptyTableMeansZeroKernels(t *testing.T) {
	m := ir.NewModule()
	SetTable(m, nil)
	require.True(t, HasTable(m))
	require.Empty(t, Names(m))
	require.Equal(t, 0, Count(m))
}

func TestMalformedTableEntriesSkipped(t *testing.T) {
	m := buildModule()
	def := m.NamedMetadataDefs[TableName]

	// Entries that do not resolve to a function: a name the module does
	// not define, a non-string field, and an empty tuple.
	bad := &metadata.Tuple{Fields: []metadata.Field{&metadata.String{Value: "junk"}}}
	bad.SetID(int64(len(m.MetadataDefs)))
	m.MetadataDefs = append(m.MetadataDefs, bad)
	notFunc := &metadata.Tuple{Fields: []metadata.Field{
		&metadata.Value{Value: constant.NewInt(types.I32, 7)},
	}}
	notFunc.SetID(int64(len(m.MetadataDefs)))
	m.MetadataDefs = append(m.MetadataDefs, notFunc)
	empty := &metadata.Tuple{}
	empty.SetID(int64(len(m.MetadataDefs)))
	m.MetadataDefs = append(m.MetadataDefs, empty)
	def.Nodes = append(def.Nodes, bad, notFunc, empty)

	// Names skips malformed entries; Count reports raw table length.
	require.Equal(t, []string{"foo"}, Names(m))
	require.Equal(t, 4, Count(m))
}

func TestTableSurvivesTextualRoundTrip(t *testing.T) {
	m := buildModule()

	clone, err := asm.ParseString("module.ll", m.String())
	require.NoError(t, err)
	require.True(t, HasTable(clone))
	require.Equal(t, []string{"foo"}, Names(clone))
	require.Equal(t, 1, Count(clone))

	k := Resolve(clone, "foo", 7, zerolog.Nop())
	require.NotNil(t, k)
	require.Equal(t, 2, k.NumArgs())
}

func TestCallingConvScanStrategy(t *testing.T) {
	m := buildModule()
	delete(m.NamedMetadataDefs, TableName)

	require.False(t, HasTable(m))
	require.IsType(t, callingConvScan{}, StrategyFor(m))
	require.Equal(t, []string{"foo"}, Names(m))
	require.Equal(t, 1, Count(m))
}

func TestResolve(t *testing.T) {
	m := buildModule()
	k := Resolve(m, "foo", 42, zerolog.Nop())
	require.NotNil(t, k)
	require.Equal(t, "foo", k.Name())
	require.Equal(t, uint64(42), k.ProgramUID())
	require.Same(t, m, k.Module())
	require.Equal(t, 2, k.NumArgs())

	args := k.Args()
	require.Equal(t, "out", args[0].Name)
	require.True(t, args[0].Pointer)
	require.Equal(t, uint64(1), args[0].AddrSpace)
	require.Equal(t, "n", args[1].Name)
	require.False(t, args[1].Pointer)
}

func TestResolveNotFound(t *testing.T) {
	m := buildModule()
	require.Nil(t, Resolve(m, "bar", 0, zerolog.Nop()))
	require.Nil(t, Resolve(m, "FOO", 0, zerolog.Nop()), "matching is case-sensitive")
	require.Nil(t, Resolve(nil, "foo", 0, zerolog.Nop()))
}

func TestResolveHelperNotAKernel(t *testing.T) {
	m := buildModule()
	require.Nil(t, Resolve(m, "helper", 0, zerolog.Nop()))
}

func TestResolveMalformedArgInfo(t *testing.T) {
	m := ir.NewModule()
	// A kernel argument of function type cannot be interpreted; resolution
	// must downgrade the failure to not-found instead of propagating.
	badType := types.NewFunc(types.Void)
	bad := m.NewFunc("bad", types.Void, ir.NewParam("f", badType))
	bad.CallingConv = enum.CallingConvSPIRKernel
	bad.NewBlock("").NewRet(nil)
	SetTable(m, []*ir.Func{bad})

	require.Equal(t, []string{"bad"}, Names(m))
	require.Nil(t, Resolve(m, "bad", 0, zerolog.Nop()))
}

func TestNameTemporaries(t *testing.T) {
	m := ir.NewModule()
	helper := m.NewFunc("h", types.I32)
	helper.NewBlock("").NewRet(constant.NewInt(types.I32, 0))

	fn := m.NewFunc("k", types.Void, ir.NewParam("", types.I32))
	fn.CallingConv = enum.CallingConvSPIRKernel
	b := fn.NewBlock("")
	b.NewCall(helper)
	b.NewRet(nil)

	nameTemporaries(fn)
	require.Equal(t, "arg0", fn.Params[0].Name())
	require.Equal(t, "bb0", fn.Blocks[0].Name())
	require.Equal(t, "tmp0_0", fn.Blocks[0].Insts[0].(*ir.InstCall).Name())

	// Naming twice is stable.
	nameTemporaries(fn)
	require.Equal(t, "arg0", fn.Params[0].Name())
	require.Equal(t, "tmp0_0", fn.Blocks[0].Insts[0].(*ir.InstCall).Name())
}

func TestNameTemporariesParsedModule(t *testing.T) {
	// Parsed unnamed values carry numeric slot IDs, and Name reports the
	// slot as a string. They must still be renamed.
	const src = `define spir_kernel void @k(i32 %0) {
entry:
	%1 = add i32 %0, 1
	ret void
}
`
	m, err := asm.ParseString("module.ll", src)
	require.NoError(t, err)
	fn := m.Funcs[0]
	require.Equal(t, "0", fn.Params[0].Name())

	nameTemporaries(fn)
	require.Equal(t, "arg0", fn.Params[0].Name())
	require.Equal(t, "entry", fn.Blocks[0].Name())
	require.Equal(t, "tmp0_0", fn.Blocks[0].Insts[0].(*ir.InstAdd).Name())
}
