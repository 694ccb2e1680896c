// Package frontend defines the narrow interface between the program build
// pipeline and the compiler front end that turns kernel source text into an
// IR module. The concrete front end is swappable; the build pipeline only
// depends on the Frontend interface and the Invocation it is handed.
package frontend

import (
	"fmt"

	"github.com/llir/llvm/ir"
)

// Header is a named piece of source text supplied at build time for
// #include-style resolution. Headers form an ordered list; iteration order
// is insertion order and is preserved when remapping.
type Header struct {
	Name   string
	Source string
}

// VirtualFile is an in-memory file remapped into the front end's private
// include namespace. No real file backs it.
type VirtualFile struct {
	Name   string
	Source string
}

// Invocation carries everything a front end needs for one compile: the
// ordered argument list, the ordered set of virtual file remappings, and the
// virtual name of the main input. Warnings recorded while constructing the
// invocation (for example a missing precompiled header) travel with it so
// they end up in the build log alongside front-end diagnostics.
type Invocation struct {
	Args     []string
	Files    []VirtualFile
	Input    string
	Warnings []string
}

// Remap adds an in-memory file under the given virtual name. Later
// remappings with the same name shadow earlier ones on lookup.
func (inv *Invocation) Remap(name, source string) {
	inv.Files = append(inv.Files, VirtualFile{Name: name, Source: source})
}

// Lookup returns the source text remapped under the given virtual name.
func (inv *Invocation) Lookup(name string) (string, bool) {
	for i := len(inv.Files) - 1; i >= 0; i-- {
		if inv.Files[i].Name == name {
			return inv.Files[i].Source, true
		}
	}
	return "", false
}

// Warnf records a warning to be surfaced in the build log.
func (inv *Invocation) Warnf(format string, args ...any) {
	inv.Warnings = append(inv.Warnings, fmt.Sprintf(format, args...))
}

// Result is the outcome of a front-end compile. Exactly one of Module or a
// failure is present: on success Module is non-nil, on failure Module is nil
// and Log holds the diagnostics. Log may also carry warnings on success.
type Result struct {
	Module *ir.Module
	Log    string
}

// Ok reports whether compilation produced a module.
func (r *Result) Ok() bool {
	return r != nil && r.Module != nil
}

// Frontend compiles one invocation into an IR module. Implementations are
// not safe for concurrent invocation; the build pipeline serializes calls.
// A non-nil error indicates the front end could not be set up at all (the
// compile was never attempted); compilation failures are reported through
// the Result with a nil Module and a populated Log.
type Frontend interface {
	Compile(inv *Invocation) (*Result, error)
}
