package totals

import (
	"context"
	"errors"
	"iter"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famomatic/totalsize/client"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

type item struct {
	entry *client.Entry
	err   error
}

func seq(items ...item) iter.Seq2[*client.Entry, error] {
	return func(yield func(*client.Entry, error) bool) {
		for _, it := range items {
			if !yield(it.entry, it.err) {
				return
			}
		}
	}
}

func sized(title string, size int64) item {
	return item{entry: &client.Entry{Title: title, Size: i64(size)}}
}

func failed(index int) item {
	return item{err: &client.EntryError{Index: index, Err: errors.New("Video unavailable")}}
}

type recorder struct {
	entries    []string
	unresolved int
	snapshots  []Totals
}

func (r *recorder) Entry(e *client.Entry, t Totals) {
	r.entries = append(r.entries, e.Title)
	r.snapshots = append(r.snapshots, t)
}

func (r *recorder) Unresolved(_ error, t Totals) {
	r.unresolved++
	r.snapshots = append(r.snapshots, t)
}

func TestProcess_SingleVideo(t *testing.T) {
	var a Aggregator
	got, err := a.Process(context.Background(), seq(sized("one", 104857600)))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Media)
	assert.EqualValues(t, 104857600, got.Size)
	assert.Zero(t, got.SizeMissing)
}

func TestProcess_MissingSize(t *testing.T) {
	var a Aggregator
	got, err := a.Process(context.Background(), seq(
		sized("a", 1048576),
		sized("b", 2097152),
		item{entry: &client.Entry{Title: "c"}},
	))
	require.NoError(t, err)
	assert.EqualValues(t, 3145728, got.Size)
	assert.Equal(t, 1, got.SizeMissing)
	assert.Equal(t, 3, got.Media)
	assert.Equal(t, got.Media, got.SizeMissing+got.Sized())
}

func TestProcess_UnresolvedEntryIsSkipped(t *testing.T) {
	rec := &recorder{}
	a := Aggregator{Observer: rec}
	got, err := a.Process(context.Background(), seq(
		item{entry: &client.Entry{Title: "a", Size: i64(10), Views: i64(1), Duration: f64(5)}},
		failed(2),
		item{entry: &client.Entry{Title: "c", Size: i64(20), Views: i64(2), Duration: f64(6)}},
		item{entry: &client.Entry{Title: "d", Size: i64(30), Views: i64(3), Duration: f64(7)}},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Unresolved)
	assert.Equal(t, 3, got.Media)
	assert.EqualValues(t, 60, got.Size)
	assert.EqualValues(t, 6, got.Views)
	assert.InDelta(t, 18, got.Duration, 1e-9)
	assert.Zero(t, got.ViewsMissing)
	assert.Equal(t, []string{"a", "c", "d"}, rec.entries)
	assert.Equal(t, 1, rec.unresolved)
}

func TestProcess_UnresolvedContributesNothingElse(t *testing.T) {
	var a Aggregator
	got, err := a.Process(context.Background(), seq(failed(1), failed(2)))
	require.NoError(t, err)
	assert.Equal(t, Totals{Unresolved: 2}, got)
}

func TestProcess_MissingFieldsCounted(t *testing.T) {
	var a Aggregator
	got, err := a.Process(context.Background(), seq(
		item{entry: &client.Entry{Likes: i64(4), Dislikes: i64(1)}},
		item{entry: &client.Entry{Views: i64(9)}},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, got.SizeMissing)
	assert.Equal(t, 2, got.DurationMissing)
	assert.Equal(t, 1, got.ViewsMissing)
	assert.Equal(t, 1, got.LikesMissing)
	assert.Equal(t, 1, got.DislikesMissing)
	assert.EqualValues(t, 9, got.Views)
	assert.EqualValues(t, 4, got.Likes)
}

func TestProcess_Monotonic(t *testing.T) {
	rec := &recorder{}
	a := Aggregator{Observer: rec}
	_, err := a.Process(context.Background(), seq(
		sized("a", 5), failed(2), item{entry: &client.Entry{Title: "c"}}, sized("d", 7),
	))
	require.NoError(t, err)
	for i := 1; i < len(rec.snapshots); i++ {
		prev, cur := rec.snapshots[i-1], rec.snapshots[i]
		assert.GreaterOrEqual(t, cur.Size, prev.Size)
		assert.GreaterOrEqual(t, cur.Media, prev.Media)
		assert.GreaterOrEqual(t, cur.SizeMissing, prev.SizeMissing)
		assert.GreaterOrEqual(t, cur.Unresolved, prev.Unresolved)
	}
}

func TestProcess_OrderIndependent(t *testing.T) {
	items := []item{
		sized("a", 100), sized("b", 2000), sized("c", 30000), failed(4),
		{entry: &client.Entry{Title: "e", Views: i64(7), Duration: f64(1.5)}},
	}

	var first Aggregator
	want, err := first.Process(context.Background(), seq(items...))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for range 10 {
		shuffled := append([]item(nil), items...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		var a Aggregator
		got, err := a.Process(context.Background(), seq(shuffled...))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestProcess_Idempotent(t *testing.T) {
	items := []item{sized("a", 1), failed(2), sized("c", 3)}
	var a, b Aggregator
	first, err := a.Process(context.Background(), seq(items...))
	require.NoError(t, err)
	second, err := b.Process(context.Background(), seq(items...))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProcess_ContextErrorStops(t *testing.T) {
	var a Aggregator
	got, err := a.Process(context.Background(), seq(
		sized("a", 1),
		item{err: context.Canceled},
		sized("c", 3),
	))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, got.Media)
	assert.Zero(t, got.Unresolved)
}

func TestProcess_Retain(t *testing.T) {
	a := Aggregator{Retain: true}
	got, err := a.Process(context.Background(), seq(sized("a", 25), sized("b", 75), failed(3)))
	require.NoError(t, err)
	require.Len(t, a.Entries(), 2)

	share, ok := got.SizeShare(a.Entries()[0])
	require.True(t, ok)
	assert.InDelta(t, 25, share, 1e-9)

	_, ok = got.SizeShare(&client.Entry{})
	assert.False(t, ok)
}

func TestTotals_Entry(t *testing.T) {
	var empty Totals
	e := empty.Entry()
	assert.Nil(t, e.Size)
	assert.Nil(t, e.Views)
	assert.Nil(t, e.Likes)

	tot := Totals{Media: 2, Size: 10, SizeMissing: 1, Inaccurate: 1, Likes: 3, LikesMissing: 1, DislikesMissing: 2, ViewsMissing: 2, DurationMissing: 2}
	e = tot.Entry()
	require.NotNil(t, e.Size)
	assert.EqualValues(t, 10, *e.Size)
	assert.True(t, e.Inaccurate)
	assert.Nil(t, e.Duration)
	require.NotNil(t, e.Likes)
	require.NotNil(t, e.Dislikes)
	assert.EqualValues(t, 0, *e.Dislikes)
	pct, ok := e.LikesPercentage()
	assert.True(t, ok)
	assert.InDelta(t, 100, pct, 1e-9)
}
