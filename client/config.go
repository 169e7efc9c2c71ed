package client

import (
	"net/http"
	"time"

	"github.com/famomatic/totalsize/internal/ytdlp"
)

// DefaultFormatFilter selects the best video (with or without audio) merged
// with the best audio, or the best single file.
const DefaultFormatFilter = "bestvideo*+bestaudio/best"

// DefaultRetries is the retry count handed to the extractor.
const DefaultRetries = 10

// DefaultSocketTimeout bounds each network operation of the extractor.
const DefaultSocketTimeout = 30 * time.Second

// Config holds configuration for the Client.
type Config struct {
	// YtDlpPath is the extractor executable. Empty means "yt-dlp" on PATH.
	YtDlpPath string

	// FormatFilter is passed to the extractor unmodified after a syntax check.
	// Empty means DefaultFormatFilter.
	FormatFilter string

	// CookiesFile is a Netscape cookies.txt path. It is validated by New and
	// handed to the extractor.
	CookiesFile string

	// Retries is passed to the extractor for transient failures.
	// Negative keeps the extractor's own default.
	Retries int

	// SocketTimeout bounds extractor network operations and fragment probes.
	SocketTimeout time.Duration

	// ProxyURL is used by the extractor and for fragment probes.
	ProxyURL string

	// RateLimit caps entry resolutions per second. Zero disables pacing.
	RateLimit float64

	// HTTPClient is used for fragment probes. If nil, one is built from
	// ProxyURL, SocketTimeout and the cookie file.
	HTTPClient *http.Client

	// Runner overrides how the extractor process is started.
	Runner ytdlp.Runner

	// Logger receives warnings and diagnostics. If nil, output is discarded.
	Logger Logger
}

func (c Config) toExtractorOptions() ytdlp.Options {
	format := c.FormatFilter
	if format == "" {
		format = DefaultFormatFilter
	}
	return ytdlp.Options{
		Format:        format,
		CookiesFile:   c.CookiesFile,
		Retries:       c.Retries,
		SocketTimeout: c.SocketTimeout,
		ProxyURL:      c.ProxyURL,
	}
}
