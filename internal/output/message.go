package output

import (
	"fmt"
	"io"
)

// Progress writes human progress lines, such as confirmation polling, to a
// side channel so they never mix with the command result.
type Progress struct {
	w     io.Writer
	quiet bool
}

// NewProgress creates a progress writer. A quiet writer drops everything.
func NewProgress(w io.Writer, quiet bool) *Progress {
	return &Progress{w: w, quiet: quiet || w == nil}
}

// Infof prints an informational line.
func (p *Progress) Infof(format string, args ...any) {
	p.write("ℹ️  ", format, args...)
}

// Warnf prints a warning line.
func (p *Progress) Warnf(format string, args ...any) {
	p.write("⚠️  ", format, args...)
}

func (p *Progress) write(prefix, format string, args ...any) {
	if p == nil || p.quiet {
		return
	}
	_, _ = fmt.Fprintln(p.w, prefix+fmt.Sprintf(format, args...))
}
