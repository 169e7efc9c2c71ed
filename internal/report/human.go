package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/famomatic/totalsize/client"
	"github.com/famomatic/totalsize/internal/totals"
)

const (
	titleWidth = 58
	msgWidth   = 12
	moreWidth  = 55

	abortedText      = "Aborted by user. Results will be incomplete!"
	totalsText       = "Totals"
	totalMediaText   = "Total number of media files"
	totalInaccText   = "Total number of media files with inaccurate reported size"
	totalNoSizeText  = "Total number of media files with no reported size"
	totalUnavailText = "Total number of unavailable media files"
)

var (
	pad     = strings.Repeat("-", titleWidth+msgWidth)
	morePad = strings.Repeat("-", titleWidth+msgWidth+moreWidth)
)

// Human renders the human-readable table. Rows go to Out; rows without a
// size and failure summaries go to Err.
type Human struct {
	Out  io.Writer
	Err  io.Writer
	More bool // extra duration/views/likes/dislikes/like-ratio columns
}

// Header prints the column header and separator.
func (h *Human) Header() {
	h.headerLine()
	fmt.Fprintln(h.Out, h.pad())
}

// Entry implements totals.Observer.
func (h *Human) Entry(e *client.Entry, _ totals.Totals) {
	if e.Size == nil {
		h.line(h.Err, truncate(e.Title), "no size", e)
		return
	}
	h.line(h.Out, truncate(e.Title), sizeText(e), e)
}

// Unresolved implements totals.Observer. Failures are reported through the
// logger and summarized at the end, so no row is printed.
func (h *Human) Unresolved(error, totals.Totals) {}

// Summary prints the totals section and the trailing counters.
func (h *Human) Summary(t totals.Totals, aborted bool) {
	if aborted {
		fmt.Fprintln(h.Err, "\n"+abortedText)
	}
	p := h.pad()

	// a single media has nothing to add up
	if t.Media > 1 {
		fmt.Fprintln(h.Out, p)
		h.headerLine()
		fmt.Fprintln(h.Out, p)
		e := t.Entry()
		msg := ""
		if e.Size != nil {
			msg = sizeText(e)
		}
		h.line(h.Out, totalsText, msg, e)
	}

	fmt.Fprintln(h.Out, p)
	countOut := h.Out
	if t.Media == 0 {
		countOut = h.Err
	}
	h.plain(countOut, totalMediaText, humanize.Comma(int64(t.Media)))
	if t.Inaccurate > 0 {
		h.plain(h.Out, totalInaccText, humanize.Comma(int64(t.Inaccurate)))
	}
	if t.SizeMissing > 0 {
		h.plain(h.Err, totalNoSizeText, humanize.Comma(int64(t.SizeMissing)))
	}
	if t.Unresolved > 0 {
		h.plain(h.Err, totalUnavailText, humanize.Comma(int64(t.Unresolved)))
	}
}

func (h *Human) pad() string {
	if h.More {
		return morePad
	}
	return pad
}

func (h *Human) headerLine() {
	s := fmt.Sprintf("%-*s%*s", titleWidth, "", msgWidth, "Size")
	if h.More {
		s += fmt.Sprintf("%19s%9s%9s%9s%9s", "Duration", "Views", "Likes", "Dislikes", "L/D%")
	}
	fmt.Fprintln(h.Out, s)
}

func (h *Human) line(w io.Writer, txt, msg string, e *client.Entry) {
	s := fmt.Sprintf("%-*s%*s", titleWidth, txt, msgWidth, msg)
	if h.More && e != nil {
		s += fmt.Sprintf("%19s%9s%9s%9s%9s",
			optional(e.Duration, FormatDuration),
			optional(e.Views, FormatCount),
			optional(e.Likes, FormatCount),
			optional(e.Dislikes, FormatCount),
			likeRatio(e),
		)
	}
	fmt.Fprintln(w, s)
}

func (h *Human) plain(w io.Writer, txt, msg string) {
	fmt.Fprintf(w, "%-*s%*s\n", titleWidth, txt, msgWidth, msg)
}

func sizeText(e *client.Entry) string {
	s := FormatSize(*e.Size)
	if e.Inaccurate {
		return "~" + s
	}
	return s
}

func likeRatio(e *client.Entry) string {
	if p, ok := e.LikesPercentage(); ok {
		return FormatPercent(p)
	}
	return ""
}

func optional[T any](v *T, format func(T) string) string {
	if v == nil {
		return ""
	}
	return format(*v)
}

// truncate shortens titles that would overflow the title column.
func truncate(title string) string {
	r := []rune(title)
	if len(r) > titleWidth {
		return string(r[:titleWidth-3]) + "..."
	}
	return title
}
