package gridc

import (
	"fmt"

	"github.com/gridc-io/gridc/bitcode"
	"github.com/gridc-io/gridc/errz"
	"github.com/gridc-io/gridc/kernels"
	"github.com/gridc-io/gridc/linker"
	"github.com/llir/llvm/ir"
)

// BuildStatus is the state of a Program's build state machine.
type BuildStatus int

const (
	// BuildNone means the program has never been built.
	BuildNone BuildStatus = iota

	// BuildInProgress means a build is running.
	BuildInProgress

	// BuildSuccess means the last build produced a module.
	BuildSuccess

	// BuildError means the last build failed; the build log has details.
	BuildError
)

func (s BuildStatus) String() string {
	switch s {
	case BuildNone:
		return "none"
	case BuildInProgress:
		return "in progress"
	case BuildSuccess:
		return "success"
	case BuildError:
		return "error"
	default:
		return fmt.Sprintf("BuildStatus(%d)", int(s))
	}
}

// Program is one unit of kernel source and, after a successful build, its
// compiled IR module. The source is immutable after creation. A Program is
// not safe for concurrent use: callers must not overlap Build with itself or
// with any read of the module or its kernels.
type Program struct {
	ctx *Context
	cfg *config

	source string
	lines  []string

	buildOptions string
	buildLog     string
	status       BuildStatus
	uid          uint64

	// module is exclusively owned. Nil until a successful build unless the
	// program was constructed from a module, binary, or link result.
	module *ir.Module

	tempFiles []string
}

// New creates a Program from kernel source text. The program starts unbuilt;
// call Build to compile it.
func New(ctx *Context, source string, opts ...Option) *Program {
	return &Program{
		ctx:    ctx,
		cfg:    newConfig(opts),
		source: source,
		lines:  splitLines(source),
		status: BuildNone,
		uid:    nextUID(),
	}
}

// FromModule wraps an already-compiled module in a Program. The program
// takes ownership of the module and starts at BuildSuccess with empty
// source.
func FromModule(ctx *Context, mod *ir.Module, opts ...Option) *Program {
	return &Program{
		ctx:    ctx,
		cfg:    newConfig(opts),
		status: BuildSuccess,
		uid:    nextUID(),
		module: mod,
	}
}

// FromBitcode decodes a portable binary into a new Program. On any decode
// failure no Program is returned.
func FromBitcode(ctx *Context, data []byte, opts ...Option) (*Program, error) {
	mod, err := bitcode.Decode(data)
	if err != nil {
		return nil, err
	}
	return FromModule(ctx, mod, opts...), nil
}

// FromBitcodeFile decodes a portable binary file into a new Program.
func FromBitcodeFile(ctx *Context, path string, opts ...Option) (*Program, error) {
	mod, err := bitcode.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return FromModule(ctx, mod, opts...), nil
}

// FromPrograms links the modules of already-built programs into a new
// Program. Input order determines merge priority. The whole operation fails
// on any symbol conflict; no partial Program is returned.
func FromPrograms(ctx *Context, progs []*Program, opts ...Option) (*Program, error) {
	mods := make([]*ir.Module, 0, len(progs))
	for i, p := range progs {
		if p == nil || p.module == nil {
			return nil, errz.Newf(errz.ErrLink, errz.SourceLocation{},
				"program %d has no compiled module", i)
		}
		mods = append(mods, p.module)
	}
	mod, err := linker.Link(mods)
	if err != nil {
		return nil, err
	}
	return FromModule(ctx, mod, opts...), nil
}

// Source returns the original source text.
func (p *Program) Source() string {
	return p.source
}

// SourceLine returns the 1-based nth source line without its line
// terminator. The second result is false when n is out of range.
func (p *Program) SourceLine(n int) (string, bool) {
	if n < 1 || n > len(p.lines) {
		return "", false
	}
	return p.lines[n-1], true
}

// NumSourceLines returns the number of source lines.
func (p *Program) NumSourceLines() int {
	return len(p.lines)
}

// BuildOptions returns the options string of the most recent build.
func (p *Program) BuildOptions() string {
	return p.buildOptions
}

// BuildLog returns the diagnostic log of the most recent build.
func (p *Program) BuildLog() string {
	return p.buildLog
}

// Status returns the program's build status.
func (p *Program) Status() BuildStatus {
	return p.status
}

// UID returns the identifier of the most recent build attempt. Downstream
// caches key their entries by it; a rebuild always issues a fresh one.
func (p *Program) UID() uint64 {
	return p.uid
}

// Module returns the compiled module, or nil if the program has none. The
// module remains owned by the Program.
func (p *Program) Module() *ir.Module {
	return p.module
}

// Binary serializes the compiled module to its portable binary form. The
// returned buffer is owned by the caller.
func (p *Program) Binary() ([]byte, error) {
	if p.module == nil {
		return nil, fmt.Errorf("program has no compiled module")
	}
	return bitcode.Encode(p.module)
}

// BinarySize returns the size of the portable binary, or zero when the
// program has no module.
func (p *Program) BinarySize() int {
	data, err := p.Binary()
	if err != nil {
		return 0
	}
	return len(data)
}

// CreateKernel resolves the named kernel entry point. A nil result means not
// found: the program has no module, no kernel has that exact name, or the
// matched kernel's argument information was malformed (which is logged).
func (p *Program) CreateKernel(name string) *kernels.Kernel {
	if p.module == nil {
		return nil
	}
	return kernels.Resolve(p.module, name, p.uid, p.cfg.logger)
}

// KernelNames enumerates the kernel entry points in discovery order.
func (p *Program) KernelNames() []string {
	if p.module == nil {
		return nil
	}
	return kernels.Names(p.module)
}

// NumKernels returns the number of kernel entry points. Calling it on a
// program with no module is a precondition violation and panics.
func (p *Program) NumKernels() int {
	if p.module == nil {
		panic("gridc: NumKernels called on a program with no compiled module")
	}
	return kernels.Count(p.module)
}

// Release discards the program's module and invalidates every downstream
// cache entry keyed by its build identifier. Dump artifacts are removed
// unless the retain switch is set. The program must not be used afterwards.
func (p *Program) Release() {
	p.removeTemps()
	p.module = nil
	if p.ctx != nil {
		p.ctx.invalidate(p.uid)
	}
}

// splitLines builds the line index: lines are 1-based and stored without
// their terminator. A trailing newline does not produce an empty final line.
func splitLines(source string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			lines = append(lines, trimCR(source[start:i]))
			start = i + 1
		}
	}
	if start < len(source) {
		lines = append(lines, trimCR(source[start:]))
	}
	return lines
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}
