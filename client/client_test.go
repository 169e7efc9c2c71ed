package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famomatic/totalsize/internal/ytdlp"
)

// fakeRunner answers extractor calls by the URL, which is always the last argument.
type fakeRunner struct {
	responses map[string]fakeResponse
	calls     [][]string
}

type fakeResponse struct {
	stdout string
	stderr string
	fail   bool
}

func (f *fakeRunner) Run(_ context.Context, _ string, args []string) ([]byte, []byte, error) {
	f.calls = append(f.calls, args)
	resp, ok := f.responses[args[len(args)-1]]
	if !ok {
		return nil, []byte("ERROR: Unsupported URL: " + args[len(args)-1]), errors.New("exit status 1")
	}
	if resp.fail {
		return nil, []byte(resp.stderr), errors.New("exit status 1")
	}
	return []byte(resp.stdout), nil, nil
}

const playlistURL = "https://www.youtube.com/playlist?list=PL1"

func newPlaylistRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]fakeResponse{
		playlistURL: {stdout: `{"_type":"playlist","id":"PL1","title":"Mix","entries":[
			{"_type":"url","id":"a","url":"https://v/a","title":"A"},
			{"_type":"url","id":"b","url":"https://v/b","title":"[Deleted video]"},
			{"_type":"url","id":"c","url":"https://v/c","title":"C"},
			{"_type":"url","id":"d","url":"https://v/d","title":"D"}]}`},
		"https://v/a": {stdout: `{"id":"a","title":"A full","webpage_url":"https://v/a","format_id":"18","ext":"mp4","filesize":1048576,"duration":60,"view_count":100,"like_count":10,"dislike_count":0}`},
		"https://v/b": {fail: true, stderr: "ERROR: [youtube] b: Video unavailable. This video has been removed by the uploader"},
		"https://v/c": {stdout: `{"id":"c","title":"C","requested_formats":[{"format_id":"137","ext":"mp4","filesize":2000000},{"format_id":"140","ext":"m4a","filesize":97152}],"duration":30.5}`},
		"https://v/d": {stdout: `{"id":"d","title":"D","format_id":"22","ext":"mp4","view_count":5}`},
	}}
}

func collect(t *testing.T, p *Playlist) ([]*Entry, []error) {
	t.Helper()
	var entries []*Entry
	var errs []error
	for e, err := range p.Entries(context.Background()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, errs
}

func TestOpen_PlaylistEntries(t *testing.T) {
	runner := newPlaylistRunner()
	c, err := New(Config{Runner: runner, Retries: 2})
	require.NoError(t, err)

	p, err := c.Open(context.Background(), playlistURL)
	require.NoError(t, err)
	assert.Equal(t, "Mix", p.Title)
	assert.Equal(t, 4, p.Len())

	entries, errs := collect(t, p)
	require.Len(t, entries, 3)
	require.Len(t, errs, 1)

	var entryErr *EntryError
	require.ErrorAs(t, errs[0], &entryErr)
	assert.Equal(t, 2, entryErr.Index)
	assert.Equal(t, ytdlp.KindUnavailable, entryErr.Kind)
	assert.ErrorIs(t, errs[0], ErrEntryUnavailable)
	assert.Equal(t, ErrorCategoryEntryUnavailable, ClassifyError(errs[0]))

	a := entries[0]
	assert.Equal(t, 1, a.Index)
	assert.Equal(t, "A", a.Title, "flat listing title wins")
	require.NotNil(t, a.Size)
	assert.EqualValues(t, 1048576, *a.Size)
	require.Len(t, a.Formats, 1)
	assert.Equal(t, "18", a.Formats[0].ID)

	c3 := entries[1]
	assert.Equal(t, 3, c3.Index)
	require.NotNil(t, c3.Size)
	assert.EqualValues(t, 2097152, *c3.Size)
	assert.Len(t, c3.Formats, 2)
	assert.Nil(t, c3.Views)

	d := entries[2]
	assert.Nil(t, d.Size)
	require.NotNil(t, d.Views)
	assert.EqualValues(t, 5, *d.Views)

	// probe + four resolutions, every call carrying the default filter
	require.Len(t, runner.calls, 5)
	for _, args := range runner.calls {
		assert.Contains(t, strings.Join(args, " "), "-f "+DefaultFormatFilter)
		assert.Contains(t, strings.Join(args, " "), "--retries 2")
	}
}

func TestOpen_SingleVideoIsResolvedOnce(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResponse{
		"https://v/one": {stdout: `{"id":"one","title":"One","format_id":"18","filesize":104857600}`},
	}}
	c, err := New(Config{Runner: runner, FormatFilter: "18"})
	require.NoError(t, err)

	p, err := c.Open(context.Background(), "https://v/one")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())

	entries, errs := collect(t, p)
	require.Empty(t, errs)
	require.Len(t, entries, 1)
	assert.EqualValues(t, 104857600, *entries[0].Size)
	assert.Len(t, runner.calls, 1)
}

func TestOpen_Failures(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResponse{
		"https://bad-format": {fail: true, stderr: "ERROR: Invalid format specification b["},
	}}
	c, err := New(Config{Runner: runner})
	require.NoError(t, err)

	_, err = c.Open(context.Background(), "https://www.google.com")
	assert.ErrorIs(t, err, ErrResourceNotFound)
	assert.Equal(t, ErrorCategoryResourceNotFound, ClassifyError(err))

	_, err = c.Open(context.Background(), "https://bad-format")
	assert.ErrorIs(t, err, ErrInvalidFormatFilter)

	_, err = c.Open(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Len(t, runner.calls, 2, "invalid input never reaches the extractor")
}

func TestOpen_ExtractorMissing(t *testing.T) {
	c, err := New(Config{YtDlpPath: filepath.Join(t.TempDir(), "missing-yt-dlp")})
	require.NoError(t, err)
	_, err = c.Open(context.Background(), "https://v/one")
	assert.ErrorIs(t, err, ErrExtractorNotFound)
}

func TestNew_RejectsInvalidFormatFilter(t *testing.T) {
	runner := &fakeRunner{}
	_, err := New(Config{Runner: runner, FormatFilter: "bestvideo[height<=720"})
	assert.ErrorIs(t, err, ErrInvalidFormatFilter)
	assert.Empty(t, runner.calls)
}

func TestNew_CookieFile(t *testing.T) {
	dir := t.TempDir()

	_, err := New(Config{CookiesFile: filepath.Join(dir, "missing.txt")})
	assert.ErrorIs(t, err, ErrCookieFile)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o600))
	_, err = New(Config{CookiesFile: bad})
	assert.ErrorIs(t, err, ErrCookieFile)
	assert.Equal(t, ErrorCategoryCookieFile, ClassifyError(err))

	good := filepath.Join(dir, "cookies.txt")
	require.NoError(t, os.WriteFile(good, []byte("# Netscape HTTP Cookie File\n.youtube.com\tTRUE\t/\tTRUE\t0\tSID\tx\n"), 0o600))
	runner := &fakeRunner{responses: map[string]fakeResponse{"https://v/one": {stdout: `{"id":"one"}`}}}
	c, err := New(Config{CookiesFile: good, Runner: runner})
	require.NoError(t, err)
	_, err = c.Open(context.Background(), "https://v/one")
	require.NoError(t, err)
	assert.Contains(t, strings.Join(runner.calls[0], " "), "--cookies "+good)
}

func TestEntries_StopsOnCancel(t *testing.T) {
	c, err := New(Config{Runner: newPlaylistRunner()})
	require.NoError(t, err)
	p, err := c.Open(context.Background(), playlistURL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var seen int
	var last error
	for _, err := range p.Entries(ctx) {
		seen++
		last = err
		cancel()
	}
	assert.Equal(t, 2, seen)
	assert.ErrorIs(t, last, context.Canceled)
}

func TestEntries_EarlyBreak(t *testing.T) {
	runner := newPlaylistRunner()
	c, err := New(Config{Runner: runner})
	require.NoError(t, err)
	p, err := c.Open(context.Background(), playlistURL)
	require.NoError(t, err)

	for range p.Entries(context.Background()) {
		break
	}
	assert.Len(t, runner.calls, 2, "entries are resolved lazily")
}

func TestEntries_URLEntryResolvingToPlaylist(t *testing.T) {
	const channel = "https://www.youtube.com/@chan"
	runner := &fakeRunner{responses: map[string]fakeResponse{
		channel: {stdout: `{"_type":"playlist","id":"chan","title":"Chan","entries":[
			{"_type":"url","ie_key":"YoutubeTab","url":"https://www.youtube.com/@chan/videos","title":"Chan - Videos"},
			{"_type":"url","url":"https://v/a","title":"A"}]}`},
		"https://www.youtube.com/@chan/videos": {stdout: `{"_type":"playlist","id":"chan-videos","title":"Chan - Videos","entries":[
			{"id":"x","title":"X","format_id":"18","filesize":10}]}`},
		"https://v/a": {stdout: `{"id":"a","title":"A","format_id":"18","filesize":1048576}`},
	}}
	c, err := New(Config{Runner: runner})
	require.NoError(t, err)
	p, err := c.Open(context.Background(), channel)
	require.NoError(t, err)

	entries, errs := collect(t, p)
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].Title)

	require.Len(t, errs, 1)
	var entryErr *EntryError
	require.ErrorAs(t, errs[0], &entryErr)
	assert.Equal(t, 1, entryErr.Index)
	assert.Equal(t, ytdlp.KindUnsupported, entryErr.Kind)
	assert.Contains(t, errs[0].Error(), "nested playlist")
}

func TestToEntry_NoFormatData(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResponse{
		"https://v/bare": {stdout: `{"id":"bare","title":"Bare","duration":12}`},
	}}
	c, err := New(Config{Runner: runner})
	require.NoError(t, err)
	p, err := c.Open(context.Background(), "https://v/bare")
	require.NoError(t, err)

	entries, errs := collect(t, p)
	require.Empty(t, errs)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Formats)
	assert.Nil(t, entries[0].Size)
}

func TestEntries_RateLimitPacesResolution(t *testing.T) {
	runner := newPlaylistRunner()
	c, err := New(Config{Runner: runner, RateLimit: 20})
	require.NoError(t, err)
	p, err := c.Open(context.Background(), playlistURL)
	require.NoError(t, err)

	start := time.Now()
	entries, errs := collect(t, p)
	elapsed := time.Since(start)

	assert.Len(t, entries, 3)
	assert.Len(t, errs, 1)
	// four resolutions at 20/s with a burst of one wait three intervals
	assert.GreaterOrEqual(t, elapsed, 140*time.Millisecond)
}

func TestEntries_RateLimitStopsAtDeadline(t *testing.T) {
	runner := newPlaylistRunner()
	c, err := New(Config{Runner: runner, RateLimit: 0.01})
	require.NoError(t, err)
	p, err := c.Open(context.Background(), playlistURL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	var resolved int
	var stopErr error
	for e, err := range p.Entries(ctx) {
		if err != nil {
			stopErr = err
			break
		}
		require.NotNil(t, e)
		resolved++
	}

	assert.Equal(t, 1, resolved)
	assert.ErrorIs(t, stopErr, context.DeadlineExceeded)
	assert.Equal(t, ErrorCategoryCanceled, ClassifyError(stopErr))
	assert.Less(t, time.Since(start), time.Second, "the limiter gives up without sleeping")
	assert.Len(t, runner.calls, 2, "listing plus the first entry")
}

func TestLikesPercentage(t *testing.T) {
	n := func(v int64) *int64 { return &v }
	tests := []struct {
		likes, dislikes *int64
		want            float64
		ok              bool
	}{
		{n(75), n(25), 75, true},
		{n(0), n(10), 0, true},
		{n(0), n(0), 0, false},
		{nil, n(1), 0, false},
		{n(1), nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := LikesPercentage(tt.likes, tt.dislikes)
		assert.Equal(t, tt.ok, ok)
		assert.InDelta(t, tt.want, got, 1e-9)
	}
}

func TestNormalizeURL(t *testing.T) {
	for _, in := range []string{"https://youtu.be/x", " https://a.b/c ", "ytsearch5:cats", "dQw4w9WgXcQ"} {
		_, err := NormalizeURL(in)
		assert.NoError(t, err, in)
	}
	for _, in := range []string{"", "https://a b", "ftp://x/y", "https:///nohost"} {
		_, err := NormalizeURL(in)
		var detail *InvalidInputDetailError
		assert.ErrorAs(t, err, &detail, in)
		assert.ErrorIs(t, err, ErrInvalidInput, in)
	}
}
