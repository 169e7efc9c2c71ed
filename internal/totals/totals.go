// Package totals accumulates per-entry metadata into run-wide totals.
package totals

import (
	"github.com/famomatic/totalsize/client"
)

// Totals is the running accumulator of one invocation. The zero value is
// ready to use. Every counter only ever grows.
type Totals struct {
	Media      int // resolved entries
	Unresolved int

	Size        int64
	SizeMissing int
	Inaccurate  int

	Duration        float64
	DurationMissing int

	Views        int64
	ViewsMissing int

	Likes        int64
	LikesMissing int

	Dislikes        int64
	DislikesMissing int
}

// Add records one resolved entry. Missing fields add nothing to their sum
// and bump the field's missing counter.
func (t *Totals) Add(e *client.Entry) {
	t.Media++

	if e.Size != nil {
		t.Size += *e.Size
		if e.Inaccurate {
			t.Inaccurate++
		}
	} else {
		t.SizeMissing++
	}

	if e.Duration != nil {
		t.Duration += *e.Duration
	} else {
		t.DurationMissing++
	}
	addCount(&t.Views, &t.ViewsMissing, e.Views)
	addCount(&t.Likes, &t.LikesMissing, e.Likes)
	addCount(&t.Dislikes, &t.DislikesMissing, e.Dislikes)
}

// AddUnresolved records an entry the extractor could not resolve.
func (t *Totals) AddUnresolved() {
	t.Unresolved++
}

func addCount(sum *int64, missing *int, v *int64) {
	if v == nil {
		*missing++
		return
	}
	*sum += *v
}

// Sized returns the number of entries that contributed to Size.
func (t Totals) Sized() int { return t.Media - t.SizeMissing }

// SizeValue returns Size when at least one entry reported a size.
func (t Totals) SizeValue() (int64, bool) { return t.Size, t.Sized() > 0 }

// DurationValue returns Duration when at least one entry reported one.
func (t Totals) DurationValue() (float64, bool) {
	return t.Duration, t.Media-t.DurationMissing > 0
}

// ViewsValue returns Views when at least one entry reported a count.
func (t Totals) ViewsValue() (int64, bool) { return t.Views, t.Media-t.ViewsMissing > 0 }

// LikesValue returns Likes when at least one entry reported a count.
func (t Totals) LikesValue() (int64, bool) { return t.Likes, t.Media-t.LikesMissing > 0 }

// DislikesValue returns Dislikes when at least one entry reported a count.
func (t Totals) DislikesValue() (int64, bool) {
	return t.Dislikes, t.Media-t.DislikesMissing > 0
}

// Entry renders the totals as a pseudo entry so the report can print the
// totals row with the same formatting as media rows. Fields no entry
// reported stay nil.
func (t Totals) Entry() *client.Entry {
	e := &client.Entry{Inaccurate: t.Inaccurate > 0}
	if v, ok := t.SizeValue(); ok {
		e.Size = &v
	}
	if v, ok := t.DurationValue(); ok {
		e.Duration = &v
	}
	if v, ok := t.ViewsValue(); ok {
		e.Views = &v
	}
	likes, likesOK := t.LikesValue()
	dislikes, dislikesOK := t.DislikesValue()
	if likesOK || dislikesOK {
		e.Likes = &likes
		e.Dislikes = &dislikes
	}
	return e
}

// SizeShare returns e's size as a percentage of the run total.
func (t Totals) SizeShare(e *client.Entry) (float64, bool) {
	if e.Size == nil || t.Size <= 0 {
		return 0, false
	}
	return float64(*e.Size) / float64(t.Size) * 100, true
}
