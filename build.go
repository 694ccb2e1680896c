package gridc

import (
	"strings"
	"sync"

	"github.com/gridc-io/gridc/frontend"
	"github.com/gridc-io/gridc/kernels"
)

// Header is an auxiliary header supplied to Build for #include resolution.
// Header order is preserved when remapping.
type Header = frontend.Header

// The front end shares one IR namespace across all programs, so builds are
// serialized process-wide. Per-Program exclusion with readers is still the
// caller's responsibility.
var buildMu sync.Mutex

// Build compiles the program's source with the given whitespace-separated
// options and auxiliary headers. It blocks until the front end returns;
// there is no cancellation of an in-flight build.
//
// Rebuilding discards the previous module, invalidates every downstream
// cache entry keyed by the previous build identifier, and issues a fresh
// identifier even when the new build fails, so stale entries never alias a
// fresh build. A program loaded from a binary has no source and is not
// recompiled: Build records the options, clears the log and reports
// success.
func (p *Program) Build(options string, headers []Header) bool {
	p.buildOptions = options
	p.buildLog = ""

	if p.source == "" && p.module != nil {
		p.status = BuildSuccess
		return true
	}

	p.status = BuildInProgress

	// Discard the previous build before compiling the next one.
	p.removeTemps()
	p.module = nil
	if p.ctx != nil {
		p.ctx.invalidate(p.uid)
	}
	p.uid = nextUID()

	inv := frontend.NewInvocation(p.source, options, headers, p.cfg.policy)
	for _, w := range inv.Warnings {
		p.logln(w)
	}

	buildMu.Lock()
	res, err := p.cfg.frontend.Compile(inv)
	buildMu.Unlock()

	if err != nil {
		// The front end could not be set up; compilation never ran.
		p.logln("error: " + err.Error())
		p.status = BuildError
		p.cfg.logger.Debug().
			Uint64("uid", p.uid).
			Err(err).
			Msg("front end setup failed")
		return false
	}
	if res.Log != "" {
		p.logln(strings.TrimRight(res.Log, "\n"))
	}
	if !res.Ok() {
		p.status = BuildError
		p.cfg.logger.Debug().
			Uint64("uid", p.uid).
			Msg("build failed")
		return false
	}

	p.module = res.Module
	p.status = BuildSuccess
	p.cfg.logger.Debug().
		Uint64("uid", p.uid).
		Int("kernels", kernels.Count(p.module)).
		Msg("build succeeded")
	p.dumpArtifacts()
	return true
}

func (p *Program) logln(line string) {
	p.buildLog += line + "\n"
}
