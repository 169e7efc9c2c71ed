package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/famomatic/totalsize/client"
	"github.com/famomatic/totalsize/internal/config"
	"github.com/famomatic/totalsize/internal/report"
)

// UsageError reports an invalid command line.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// Options holds all command-line options.
type Options struct {
	// Input
	URL string

	// General
	Help       bool
	Version    bool
	ConfigFile string // --config
	Debug      bool   // --debug

	// Extraction
	FormatFilter  string  // -f, --format-filter
	Retries       int     // -r, --retries
	CookiesFile   string  // -c, --cookies
	ProxyURL      string  // --proxy
	YtDlpPath     string  // --yt-dlp
	SocketTimeout float64 // --socket-timeout, seconds
	RateLimit     float64 // --rate-limit, resolutions per second

	// Output
	MoreInfo   bool           // -m, --more-info
	NoProgress bool           // -n, --no-progress
	Fields     []report.Field // --media, --size, ...
	CSVFile    string         // --csv

	// set records the flags given on the command line, by canonical name.
	set map[string]bool
}

// aliases maps short flag names to their long form.
var aliases = map[string]string{
	"f": "format-filter",
	"m": "more-info",
	"n": "no-progress",
	"r": "retries",
	"c": "cookies",
	"h": "help",
}

// IsSet reports whether the named flag (long form) was given.
func (o Options) IsSet(name string) bool { return o.set[name] }

// Raw reports whether any raw output field was selected.
func (o Options) Raw() bool { return len(o.Fields) > 0 }

func newFlagSet(opts *Options, fields map[report.Field]*bool) *flag.FlagSet {
	fs := flag.NewFlagSet("totalsize", flag.ContinueOnError)

	fs.StringVar(&opts.FormatFilter, "f", "", "Custom format filter")
	fs.StringVar(&opts.FormatFilter, "format-filter", "", "Custom format filter (default "+client.DefaultFormatFilter+")")
	fs.BoolVar(&opts.MoreInfo, "m", false, "Display more metadata")
	fs.BoolVar(&opts.MoreInfo, "more-info", false, "Display more metadata: duration, views, likes, dislikes, likes percentage")
	fs.BoolVar(&opts.NoProgress, "n", false, "Do not display progress count")
	fs.BoolVar(&opts.NoProgress, "no-progress", false, "Do not display progress count during processing")
	fs.IntVar(&opts.Retries, "r", client.DefaultRetries, "Number of retries")
	fs.IntVar(&opts.Retries, "retries", client.DefaultRetries, "Number of retries for each yt-dlp request")
	fs.StringVar(&opts.CookiesFile, "c", "", "Netscape cookies file")
	fs.StringVar(&opts.CookiesFile, "cookies", "", "Netscape formatted cookies file")
	fs.BoolVar(&opts.Help, "h", false, "Show this help message and exit")
	fs.BoolVar(&opts.Help, "help", false, "Show this help message and exit")

	for _, f := range report.Fields {
		fields[f] = fs.Bool(string(f), false, "Print "+string(f)+" (raw output)")
	}

	fs.StringVar(&opts.CSVFile, "csv", "", "Write per-media rows to a new CSV file")
	fs.StringVar(&opts.ProxyURL, "proxy", "", "Use the specified HTTP/HTTPS/SOCKS proxy")
	fs.StringVar(&opts.YtDlpPath, "yt-dlp", "", "Path to the yt-dlp executable")
	fs.Float64Var(&opts.SocketTimeout, "socket-timeout", client.DefaultSocketTimeout.Seconds(), "Seconds to wait before giving up on a network operation")
	fs.Float64Var(&opts.RateLimit, "rate-limit", 0, "Maximum media resolutions per second (0 = unlimited)")
	fs.StringVar(&opts.ConfigFile, "config", "", "Config file (default $"+config.PathEnv+" or "+displayPath(config.DefaultPath())+")")
	fs.BoolVar(&opts.Debug, "debug", false, "Print debugging information")
	fs.BoolVar(&opts.Version, "version", false, "Print version information and exit")
	return fs
}

func displayPath(p string) string {
	if p == "" {
		return "none"
	}
	return p
}

// ParseArgs parses command-line arguments into Options. Flags may appear
// before or after the URL. A help request returns flag.ErrHelp after the
// usage text has been written to stdout.
func ParseArgs(args []string, stdout io.Writer) (Options, error) {
	opts := Options{set: map[string]bool{}}
	fields := map[report.Field]*bool{}
	fs := newFlagSet(&opts, fields)
	fs.SetOutput(io.Discard)

	var positional []string
	rest := args
	for len(rest) > 0 {
		if err := fs.Parse(rest); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				printUsage(stdout, fs)
				return opts, err
			}
			return opts, &UsageError{Err: err}
		}
		remaining := fs.Args()
		// everything after a bare "--" is positional
		if consumed := len(rest) - len(remaining); consumed > 0 && rest[consumed-1] == "--" {
			positional = append(positional, remaining...)
			break
		}
		if len(remaining) == 0 {
			break
		}
		positional = append(positional, remaining[0])
		rest = remaining[1:]
	}

	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := aliases[name]; ok {
			name = long
		}
		opts.set[name] = true
	})

	if opts.Help {
		printUsage(stdout, fs)
		return opts, flag.ErrHelp
	}
	if opts.Version {
		return opts, nil
	}

	switch len(positional) {
	case 0:
		return opts, usageErrorf("the following arguments are required: URL")
	case 1:
		opts.URL = positional[0]
	default:
		return opts, usageErrorf("unrecognized arguments: %v", positional[1:])
	}

	if opts.Retries < 0 {
		return opts, usageErrorf("retries must not be negative")
	}
	if opts.SocketTimeout < 0 || math.IsNaN(opts.SocketTimeout) {
		return opts, usageErrorf("socket timeout must not be negative")
	}
	if opts.RateLimit < 0 || math.IsNaN(opts.RateLimit) {
		return opts, usageErrorf("rate limit must not be negative")
	}

	var selected []report.Field
	for f, v := range fields {
		if *v {
			selected = append(selected, f)
		}
	}
	opts.Fields = report.OrderFields(selected)
	return opts, nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: totalsize [-h] [-f FORMAT_FILTER] [-m] [-n] [-r NUM] [-c FILE]")
	fmt.Fprintln(w, "                 [--media] [--size] [--duration] [--views] [--likes]")
	fmt.Fprintln(w, "                 [--dislikes] [--percentage] [--cookies FILE] URL")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Calculate the total size of all media in a playlist or of a single media URL.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
}

// ToClientConfig merges the config file settings with the command-line
// options. Flags given on the command line win.
func ToClientConfig(cfg config.Config, opts Options) client.Config {
	out := client.Config{
		YtDlpPath:     cfg.YtDlpPath,
		FormatFilter:  cfg.Format,
		CookiesFile:   cfg.Cookies,
		Retries:       cfg.Retries,
		SocketTimeout: cfg.SocketTimeout,
		ProxyURL:      cfg.Proxy,
		RateLimit:     cfg.RateLimit,
	}
	if opts.IsSet("yt-dlp") {
		out.YtDlpPath = opts.YtDlpPath
	}
	if opts.IsSet("format-filter") {
		out.FormatFilter = opts.FormatFilter
	}
	if opts.IsSet("cookies") {
		out.CookiesFile = opts.CookiesFile
	}
	if opts.IsSet("retries") {
		out.Retries = opts.Retries
	}
	if opts.IsSet("socket-timeout") {
		out.SocketTimeout = time.Duration(opts.SocketTimeout * float64(time.Second))
	}
	if opts.IsSet("proxy") {
		out.ProxyURL = opts.ProxyURL
	}
	if opts.IsSet("rate-limit") {
		out.RateLimit = opts.RateLimit
	}
	return out
}
