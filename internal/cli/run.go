// Package cli implements the totalsize command line: option parsing, run
// orchestration and exit codes.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/famomatic/totalsize/client"
	"github.com/famomatic/totalsize/internal/config"
	"github.com/famomatic/totalsize/internal/report"
	"github.com/famomatic/totalsize/internal/totals"
	"github.com/famomatic/totalsize/internal/ytdlp"
)

// Version is the program version, set at build time.
var Version = "dev"

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Run executes one invocation and returns its exit code. Cancelling ctx
// interrupts the run; partial results are still reported.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := ParseArgs(args, stdout)
	if errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, "Run 'totalsize --help' for usage.")
		return ExitUsage
	}

	logger := newLogger(stderr, opts.Debug)

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return fail(stderr, err)
	}
	clientCfg := ToClientConfig(cfg, opts)
	clientCfg.Logger = client.SlogLogger{L: logger}

	c, err := client.New(clientCfg)
	if err != nil {
		return fail(stderr, err)
	}

	if opts.Version {
		fmt.Fprintf(stdout, "totalsize %s\n", Version)
		v, err := c.ExtractorVersion(ctx)
		if err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "yt-dlp %s\n", v)
		return ExitOK
	}

	if opts.CSVFile != "" {
		if err := report.CheckCSVPath(opts.CSVFile); err != nil {
			return fail(stderr, err)
		}
	}

	playlist, err := c.Open(ctx, opts.URL)
	if err != nil {
		if isCanceled(err) {
			fmt.Fprintln(stderr, "Aborted by user.")
			return ExitError
		}
		return fail(stderr, err)
	}
	logger.Debug("opened", slog.String("url", playlist.URL), slog.String("title", playlist.Title), slog.Int("entries", playlist.Len()))

	var (
		human *report.Human
		raw   *report.Raw
	)
	tracker := &report.Tracker{Logger: clientCfg.Logger}
	if opts.Raw() {
		raw = report.NewRaw(stdout, opts.Fields, opts.MoreInfo)
		tracker.Renderer = raw
	} else {
		human = &report.Human{Out: stdout, Err: stderr, More: opts.MoreInfo}
		tracker.Renderer = human
		human.Header()
	}
	if !opts.NoProgress {
		tracker.Progress = report.NewProgress(stderr, playlist.Len())
	}

	agg := &totals.Aggregator{Observer: tracker, Retain: opts.CSVFile != ""}
	t, err := agg.Process(ctx, playlist.Entries(ctx))
	tracker.Done()
	aborted := err != nil
	if aborted && !isCanceled(err) {
		return fail(stderr, err)
	}

	if human != nil {
		human.Summary(t, aborted)
	} else {
		if aborted {
			fmt.Fprintln(stderr, "Aborted by user. Results will be incomplete!")
		}
		raw.Finish(t)
	}

	if opts.CSVFile != "" {
		if err := report.WriteCSV(opts.CSVFile, agg.Entries(), opts.MoreInfo); err != nil {
			return fail(stderr, err)
		}
	}

	if aborted {
		return ExitError
	}
	return ExitOK
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %s\n", describe(err))
	return ExitError
}

// describe turns a fatal error into the message shown to the user.
func describe(err error) string {
	switch client.ClassifyError(err) {
	case client.ErrorCategoryExtractorNotFound:
		return fmt.Sprintf("%v (install yt-dlp or point --yt-dlp at it)", err)
	case client.ErrorCategoryInvalidFormatFilter:
		return fmt.Sprintf("%v (see the FORMAT SELECTION section of the yt-dlp documentation)", err)
	case client.ErrorCategoryResourceNotFound:
		var ee *ytdlp.ExtractionError
		if errors.As(err, &ee) && ee.Message != "" {
			return fmt.Sprintf("unable to get information about %s: %s", ee.URL, ee.Message)
		}
	}
	return err.Error()
}

func isCanceled(err error) bool {
	return client.ClassifyError(err) == client.ErrorCategoryCanceled
}
