package totals

import (
	"context"
	"errors"
	"iter"

	"github.com/famomatic/totalsize/client"
)

// Observer receives aggregation events in playlist order. Totals passed to
// the observer already include the event's entry.
type Observer interface {
	Entry(e *client.Entry, t Totals)
	Unresolved(err error, t Totals)
}

// Aggregator drives an entry sequence to completion.
type Aggregator struct {
	Observer Observer
	// Retain keeps resolved entries for rendering after the run, e.g. when
	// per-entry size shares are needed.
	Retain bool

	totals  Totals
	entries []*client.Entry
}

// Process consumes entries and returns the accumulated totals. A per-entry
// error counts as unresolved and never stops the run; a context error stops
// it and is returned together with the partial totals.
func (a *Aggregator) Process(ctx context.Context, entries iter.Seq2[*client.Entry, error]) (Totals, error) {
	for entry, err := range entries {
		if err != nil {
			if isContextErr(err) {
				return a.totals, err
			}
			a.totals.AddUnresolved()
			if a.Observer != nil {
				a.Observer.Unresolved(err, a.totals)
			}
			continue
		}
		if entry == nil {
			continue
		}

		a.totals.Add(entry)
		if a.Retain {
			a.entries = append(a.entries, entry)
		}
		if a.Observer != nil {
			a.Observer.Entry(entry, a.totals)
		}
		if err := ctx.Err(); err != nil {
			return a.totals, err
		}
	}
	return a.totals, ctx.Err()
}

// Totals returns the totals accumulated so far.
func (a *Aggregator) Totals() Totals { return a.totals }

// Entries returns the retained entries.
func (a *Aggregator) Entries() []*client.Entry { return a.entries }

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
