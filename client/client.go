// Package client resolves a playlist or media URL through the yt-dlp
// extractor and yields one Entry per playlist item.
package client

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/famomatic/totalsize/internal/cookies"
	"github.com/famomatic/totalsize/internal/selector"
	"github.com/famomatic/totalsize/internal/ytdlp"
)

// Client resolves URLs into lazily evaluated entry sequences.
type Client struct {
	config    Config
	extractor *ytdlp.Client
	sizer     ytdlp.FragmentSizer
	limiter   *rate.Limiter
	logger    Logger
}

// New validates config and creates a Client. An invalid format filter or an
// unreadable cookie file fails here, before any extractor process runs.
func New(config Config) (*Client, error) {
	opts := config.toExtractorOptions()
	if err := selector.Validate(opts.Format); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormatFilter, err)
	}

	var jar http.CookieJar
	if config.CookiesFile != "" {
		list, err := cookies.Load(config.CookiesFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCookieFile, err)
		}
		if jar, err = cookies.NewJar(list); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCookieFile, err)
		}
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient(config.ProxyURL, jar, config.SocketTimeout)
	}

	logger := config.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	extractor := ytdlp.NewClient(config.YtDlpPath, opts)
	if config.Runner != nil {
		extractor.Runner = config.Runner
	}
	if sl, ok := logger.(SlogLogger); ok {
		extractor.Logger = sl.L.With(slog.String("component", "ytdlp"))
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &Client{
		config:    config,
		extractor: extractor,
		sizer:     &ytdlp.HTTPFragmentSizer{Client: httpClient},
		limiter:   limiter,
		logger:    logger,
	}, nil
}

// ExtractorVersion reports the version of the yt-dlp executable in use.
func (c *Client) ExtractorVersion(ctx context.Context) (string, error) {
	v, err := c.extractor.Version(ctx)
	if err != nil {
		return "", mapProbeError(err)
	}
	return v, nil
}

// Open resolves rawURL far enough to know its entries. A failure here means
// the URL as a whole cannot be resolved.
func (c *Client) Open(ctx context.Context, rawURL string) (*Playlist, error) {
	u, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	info, err := c.extractor.Probe(ctx, u)
	if err != nil {
		return nil, mapProbeError(err)
	}

	p := &Playlist{client: c, ID: info.ID, Title: info.Title, URL: u}
	if info.IsPlaylist() {
		p.items = info.Entries
		c.logger.Debugf("playlist %q has %d entries", info.Title, len(info.Entries))
	} else {
		p.single = info
	}
	return p, nil
}

// Playlist is an opened URL. A single video is a playlist of one.
type Playlist struct {
	client *Client
	ID     string
	Title  string
	URL    string

	items  []*ytdlp.Info // flat entries still to be resolved
	single *ytdlp.Info   // already resolved
}

// Len returns the number of entries.
func (p *Playlist) Len() int {
	if p.single != nil {
		return 1
	}
	return len(p.items)
}

// Entries returns the playlist entries in enumeration order. Each entry is
// resolved only when the consumer pulls it. A per-entry failure is yielded as
// an *EntryError and iteration continues; a context error is yielded once and
// ends the sequence.
func (p *Playlist) Entries(ctx context.Context) iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		if p.single != nil {
			entry, err := p.client.toEntry(ctx, 1, p.single, p.single)
			if err != nil {
				yield(nil, err)
				return
			}
			yield(entry, nil)
			return
		}

		for i, item := range p.items {
			index := i + 1
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			entry, err := p.client.resolve(ctx, index, item)
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(nil, ctxErr)
				return
			}
			if !yield(entry, err) {
				return
			}
		}
	}
}

func (c *Client) resolve(ctx context.Context, index int, item *ytdlp.Info) (*Entry, error) {
	if item == nil {
		return nil, &EntryError{Index: index, Kind: ytdlp.KindUnavailable, Err: fmt.Errorf("entry missing from playlist listing")}
	}
	if item.IsPlaylist() {
		return nil, &EntryError{Index: index, Title: item.Title, URL: item.EntryURL(), Kind: ytdlp.KindUnsupported, Err: fmt.Errorf("nested playlist")}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// the next slot lies beyond the context deadline
			return nil, fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
	}

	url := item.EntryURL()
	info, err := c.extractor.Resolve(ctx, url)
	if err != nil {
		return nil, &EntryError{Index: index, Title: item.Title, URL: url, Kind: ytdlp.KindOf(err), Err: err}
	}
	if info.IsPlaylist() {
		return nil, &EntryError{Index: index, Title: item.Title, URL: url, Kind: ytdlp.KindUnsupported, Err: fmt.Errorf("nested playlist")}
	}
	return c.toEntry(ctx, index, item, info)
}

// toEntry builds an Entry from a flat listing item and its resolved info.
func (c *Client) toEntry(ctx context.Context, index int, item, info *ytdlp.Info) (*Entry, error) {
	size, err := ytdlp.MediaSize(ctx, info, c.sizer)
	if err != nil {
		return nil, err
	}

	title := item.Title
	if title == "" {
		title = info.Title
	}
	url := info.WebpageURL
	if url == "" {
		url = item.EntryURL()
	}

	entry := &Entry{
		Index:      index,
		ID:         info.ID,
		URL:        url,
		Title:      title,
		Inaccurate: size.Inaccurate,
		Duration:   info.Duration,
		Views:      info.ViewCount,
		Likes:      info.LikeCount,
		Dislikes:   info.DislikeCount,
	}
	if size.Known {
		n := size.Bytes
		entry.Size = &n
	} else {
		c.logger.Debugf("no size reported for %q", title)
	}
	for _, f := range info.SelectedFormats() {
		entry.Formats = append(entry.Formats, Format{
			ID:             f.FormatID,
			Ext:            f.Ext,
			Filesize:       f.Filesize,
			FilesizeApprox: f.FilesizeApprox,
		})
	}
	return entry, nil
}
