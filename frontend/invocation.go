package frontend

import (
	_ "embed"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
	"strings"
)

// RemapDir is the private directory namespace under which all virtual files
// are visible to the front end. Nothing is ever created on disk under it.
const RemapDir = "/remapped/"

// InputName is the virtual name of the main source file.
const InputName = "input.clk"

// FallbackHeaderName is the virtual name of the bundled standard header,
// injected when no precompiled header is available.
const FallbackHeaderName = "kernelstd.h"

// Extensions is the fixed list of feature macros defined for every build.
var Extensions = []string{
	"grid_fp64",
	"grid_int32_base_atomics",
	"grid_int32_extended_atomics",
	"grid_local_int32_base_atomics",
	"grid_local_int32_extended_atomics",
	"grid_byte_addressable_store",
	"grid_3d_image_writes",
}

// Options on this list are dropped from the forwarded argument list because
// they change the preprocessor state baked into the precompiled headers.
var denyList = map[string]bool{
	"-fast-relaxed-math":         true,
	"-single-precision-constant": true,
}

//go:embed kernelstd.h
var fallbackHeaderSource string

// Policy fixes the environment-dependent parts of invocation construction:
// where precompiled headers live and which pointer width to target. The
// zero value targets the host pointer width with no PCH directory, which
// always selects the bundled-header fallback.
type Policy struct {
	// PCHDir is the directory searched for precompiled headers.
	PCHDir string

	// PointerWidth is 32 or 64. Zero means the host width.
	PointerWidth int
}

// Width returns the effective pointer width in bits.
func (p Policy) Width() int {
	if p.PointerWidth != 0 {
		return p.PointerWidth
	}
	return bits.UintSize
}

// Triple returns the target triple for the policy's pointer width.
func (p Policy) Triple() string {
	if p.Width() == 32 {
		return "spir-unknown-unknown"
	}
	return "spir64-unknown-unknown"
}

// pchPath returns the on-disk path of the precompiled header matching the
// optimization level and pointer width.
func (p Policy) pchPath(optimize bool) string {
	suffix := ".noopt"
	if optimize {
		suffix = ""
	}
	name := fmt.Sprintf("kernelstd%d%s.pch", p.Width(), suffix)
	return filepath.Join(p.PCHDir, name)
}

// NewInvocation produces the argument list and virtual file remappings for
// one build. The fixed prefix requests debug info and kernel argument
// information and selects the target triple; the caller's options are
// tokenized on whitespace, filtered against the deny list, and scanned for
// an optimization-level flag that switches between the optimized and
// unoptimized precompiled header. If the selected precompiled header is not
// present on disk the bundled standard header is remapped in instead and a
// warning is recorded on the invocation.
//
// Optimization is off by default: -O0 always precedes the caller's options,
// so a later caller-supplied -O flag takes effect in option order.
func NewInvocation(source, options string, headers []Header, policy Policy) *Invocation {
	inv := &Invocation{}

	inv.Args = append(inv.Args, "-g", "-kernel-arg-info", "-triple", policy.Triple())
	for _, ext := range Extensions {
		inv.Args = append(inv.Args, "-D", ext)
	}
	inv.Args = append(inv.Args, "-O0")

	optimize := false
	for _, opt := range strings.Fields(options) {
		if denyList[opt] {
			continue
		}
		inv.Args = append(inv.Args, opt)
		if strings.HasPrefix(opt, "-O") {
			optimize = opt != "-O0"
		}
	}

	// Use a precompiled header if one exists, otherwise fall back to the
	// bundled standard header.
	pch := policy.pchPath(optimize)
	if fileExists(pch) {
		inv.Args = append(inv.Args, "-include-pch", pch)
	} else {
		inv.Remap(RemapDir+FallbackHeaderName, fallbackHeaderSource)
		inv.Args = append(inv.Args, "-include", RemapDir+FallbackHeaderName)
		inv.Warnf("warning: unable to find precompiled header %s", pch)
	}

	// Remap auxiliary headers, then the input itself, so the front end
	// never reads a real source file.
	for _, h := range headers {
		inv.Remap(RemapDir+h.Name, h.Source)
	}
	inv.Remap(InputName, source)
	inv.Input = InputName
	inv.Args = append(inv.Args, InputName)

	return inv
}

// FallbackHeaderSource returns the bundled standard header text. The PCH
// generator compiles this same text.
func FallbackHeaderSource() string {
	return fallbackHeaderSource
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
