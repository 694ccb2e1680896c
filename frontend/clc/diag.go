package clc

import (
	"strings"

	"github.com/gridc-io/gridc/errz"
)

// diagList accumulates diagnostics across all front-end phases so a single
// compile reports every problem it found, not just the first.
type diagList struct {
	errs []*errz.StructuredError
}

func (d *diagList) errorf(kind errz.Kind, loc errz.SourceLocation, format string, args ...any) {
	d.errs = append(d.errs, errz.Newf(kind, loc, format, args...))
}

func (d *diagList) empty() bool {
	return len(d.errs) == 0
}

// text renders the diagnostics as a build log, one per line.
func (d *diagList) text() string {
	var sb strings.Builder
	for _, e := range d.errs {
		sb.WriteString(e.Diagnostic())
		sb.WriteByte('\n')
	}
	return sb.String()
}
