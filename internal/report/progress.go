package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/famomatic/totalsize/client"
	"github.com/famomatic/totalsize/internal/totals"
)

// Progress prints a running status line after each entry. On a terminal the
// line is rewritten in place; otherwise each update is its own line.
type Progress struct {
	w       io.Writer
	tty     bool
	total   int
	lastLen int
}

// NewProgress creates a Progress writing to w for a run of total entries.
// A zero total omits the denominator.
func NewProgress(w io.Writer, total int) *Progress {
	return &Progress{w: w, tty: isTerminal(w), total: total}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Update prints the status for t.
func (p *Progress) Update(t totals.Totals) {
	done := t.Media + t.Unresolved
	var b strings.Builder
	if p.total > 0 {
		fmt.Fprintf(&b, "[%d/%d] ", done, p.total)
	} else {
		fmt.Fprintf(&b, "[%d] ", done)
	}
	fmt.Fprintf(&b, "%s so far", humanize.IBytes(uint64(t.Size)))
	if t.SizeMissing > 0 {
		fmt.Fprintf(&b, ", %d without size", t.SizeMissing)
	}
	if t.Unresolved > 0 {
		fmt.Fprintf(&b, ", %d unavailable", t.Unresolved)
	}
	line := b.String()

	if !p.tty {
		fmt.Fprintln(p.w, line)
		return
	}
	fmt.Fprint(p.w, "\r"+line)
	if n := p.lastLen - len(line); n > 0 {
		fmt.Fprint(p.w, strings.Repeat(" ", n))
	}
	p.lastLen = len(line)
}

// Clear erases an in-place status line so other output starts on a clean line.
func (p *Progress) Clear() {
	if !p.tty || p.lastLen == 0 {
		return
	}
	fmt.Fprint(p.w, "\r"+strings.Repeat(" ", p.lastLen)+"\r")
	p.lastLen = 0
}

// Tracker combines a renderer with an optional progress line and reports
// unresolved entries on Logger.
type Tracker struct {
	Renderer totals.Observer
	Progress *Progress // nil when progress output is suppressed
	Logger   client.Logger
}

// Entry implements totals.Observer.
func (t *Tracker) Entry(e *client.Entry, tot totals.Totals) {
	t.clear()
	if t.Renderer != nil {
		t.Renderer.Entry(e, tot)
	}
	t.update(tot)
}

// Unresolved implements totals.Observer.
func (t *Tracker) Unresolved(err error, tot totals.Totals) {
	t.clear()
	if t.Logger != nil {
		t.Logger.Warnf("skipping unavailable media: %v", err)
	}
	if t.Renderer != nil {
		t.Renderer.Unresolved(err, tot)
	}
	t.update(tot)
}

// Done clears the progress line once the run is over.
func (t *Tracker) Done() { t.clear() }

func (t *Tracker) clear() {
	if t.Progress != nil {
		t.Progress.Clear()
	}
}

func (t *Tracker) update(tot totals.Totals) {
	if t.Progress != nil {
		t.Progress.Update(tot)
	}
}
