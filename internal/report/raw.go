package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/famomatic/totalsize/client"
	"github.com/famomatic/totalsize/internal/totals"
)

// Field is a raw output selector.
type Field string

const (
	FieldMedia      Field = "media"
	FieldSize       Field = "size"
	FieldDuration   Field = "duration"
	FieldViews      Field = "views"
	FieldLikes      Field = "likes"
	FieldDislikes   Field = "dislikes"
	FieldPercentage Field = "percentage"
)

// Fields lists every raw field in output order. The order is part of the
// command-line contract and must not change.
var Fields = []Field{FieldMedia, FieldSize, FieldDuration, FieldViews, FieldLikes, FieldDislikes, FieldPercentage}

// NotAvailable is printed for a value no entry reported.
const NotAvailable = "-1"

// OrderFields returns the selected fields deduplicated and in output order,
// regardless of the order they were requested in.
func OrderFields(selected []Field) []Field {
	var out []Field
	for _, f := range Fields {
		if slices.Contains(selected, f) {
			out = append(out, f)
		}
	}
	return out
}

// Raw renders raw fields. Without PerEntry it prints one line per field
// with the run-wide value after the run; with PerEntry it prints one
// tab-separated line per resolved entry holding only the selected fields.
type Raw struct {
	Out      io.Writer
	Fields   []Field
	PerEntry bool

	pending []*client.Entry
}

// NewRaw creates a Raw renderer for the given selection.
func NewRaw(w io.Writer, fields []Field, perEntry bool) *Raw {
	return &Raw{Out: w, Fields: OrderFields(fields), PerEntry: perEntry}
}

// needsTotals reports whether per-entry lines depend on the final totals.
func (r *Raw) needsTotals() bool {
	return slices.Contains(r.Fields, FieldPercentage)
}

// Entry implements totals.Observer.
func (r *Raw) Entry(e *client.Entry, t totals.Totals) {
	if !r.PerEntry {
		return
	}
	if r.needsTotals() {
		r.pending = append(r.pending, e)
		return
	}
	r.entryLine(e, t)
}

// Unresolved implements totals.Observer.
func (r *Raw) Unresolved(error, totals.Totals) {}

// Finish prints whatever waited for the final totals.
func (r *Raw) Finish(t totals.Totals) {
	if !r.PerEntry {
		for _, f := range r.Fields {
			fmt.Fprintln(r.Out, totalValue(f, t))
		}
		return
	}
	for _, e := range r.pending {
		r.entryLine(e, t)
	}
	r.pending = nil
}

func (r *Raw) entryLine(e *client.Entry, t totals.Totals) {
	values := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		values = append(values, entryValue(f, e, t))
	}
	fmt.Fprintln(r.Out, strings.Join(values, "\t"))
}

func totalValue(f Field, t totals.Totals) string {
	switch f {
	case FieldMedia:
		return strconv.Itoa(t.Media)
	case FieldSize:
		return intOrNA(t.SizeValue())
	case FieldDuration:
		if v, ok := t.DurationValue(); ok {
			return FormatSeconds(v)
		}
	case FieldViews:
		return intOrNA(t.ViewsValue())
	case FieldLikes:
		return intOrNA(t.LikesValue())
	case FieldDislikes:
		return intOrNA(t.DislikesValue())
	}
	// percentage is a per-entry share and has no run-wide value
	return NotAvailable
}

func entryValue(f Field, e *client.Entry, t totals.Totals) string {
	switch f {
	case FieldMedia:
		return strconv.Itoa(e.Index)
	case FieldSize:
		return ptrOrNA(e.Size)
	case FieldDuration:
		if e.Duration != nil {
			return FormatSeconds(*e.Duration)
		}
	case FieldViews:
		return ptrOrNA(e.Views)
	case FieldLikes:
		return ptrOrNA(e.Likes)
	case FieldDislikes:
		return ptrOrNA(e.Dislikes)
	case FieldPercentage:
		if p, ok := t.SizeShare(e); ok {
			return strconv.FormatFloat(p, 'f', 2, 64)
		}
	}
	return NotAvailable
}

func intOrNA(v int64, ok bool) string {
	if !ok {
		return NotAvailable
	}
	return strconv.FormatInt(v, 10)
}

func ptrOrNA(v *int64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatInt(*v, 10)
}
