// Package ytdlp drives the yt-dlp executable as the media-extraction
// collaborator: it enumerates playlists, resolves single entries with a
// format filter, and works out the byte size of the selected formats.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultBinary is looked up on PATH when BinaryPath is empty.
const DefaultBinary = "yt-dlp"

// Runner executes a command and returns its captured output.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Options are passed through to every yt-dlp invocation.
type Options struct {
	Format        string
	CookiesFile   string
	Retries       int // negative keeps yt-dlp defaults
	SocketTimeout time.Duration
	ProxyURL      string
}

// Client calls the yt-dlp binary.
type Client struct {
	// BinaryPath is the path to the yt-dlp executable. Defaults to "yt-dlp".
	BinaryPath string
	Options    Options
	Runner     Runner
	Logger     *slog.Logger
}

// NewClient creates a Client running bin with opts.
func NewClient(bin string, opts Options) *Client {
	return &Client{BinaryPath: bin, Options: opts, Runner: ExecRunner{}}
}

// Probe extracts url without resolving playlist entries. A single video comes
// back fully resolved with the format filter applied; a playlist comes back
// with flat entries. A bare reference to another URL is followed once.
func (c *Client) Probe(ctx context.Context, url string) (*Info, error) {
	info, err := c.extract(ctx, url, "--flat-playlist")
	if err != nil {
		return nil, err
	}
	if info.IsReference() && info.IEKey != "" {
		c.logger().Debug("following url reference", slog.String("url", info.URL), slog.String("ie_key", info.IEKey))
		return c.extract(ctx, info.URL, "--flat-playlist")
	}
	return info, nil
}

// Resolve extracts a single media URL with the format filter applied.
func (c *Client) Resolve(ctx context.Context, url string) (*Info, error) {
	return c.extract(ctx, url, "--no-playlist")
}

func (c *Client) extract(ctx context.Context, url string, mode string) (*Info, error) {
	args := c.args(mode, url)
	bin := c.binary()
	c.logger().Debug("running extractor", slog.String("bin", bin), slog.String("args", strings.Join(args, " ")))

	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	stdout, stderr, err := runner.Run(ctx, bin, args)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, classify(url, err, stderr)
	}

	var info Info
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &info); err != nil {
		return nil, &ExtractionError{URL: url, Kind: KindBadOutput, Message: "failed to parse yt-dlp output", Err: err}
	}
	return &info, nil
}

func (c *Client) args(mode, url string) []string {
	args := []string{"-J", "--no-warnings", mode}
	opts := c.Options
	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if opts.Retries >= 0 {
		n := strconv.Itoa(opts.Retries)
		args = append(args, "--retries", n, "--extractor-retries", n)
	}
	if opts.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.FormatFloat(opts.SocketTimeout.Seconds(), 'f', -1, 64))
	}
	if opts.CookiesFile != "" {
		args = append(args, "--cookies", opts.CookiesFile)
	}
	if opts.ProxyURL != "" {
		args = append(args, "--proxy", opts.ProxyURL)
	}
	// "--" keeps URLs starting with "-" from being read as options.
	return append(args, "--", url)
}

func (c *Client) binary() string {
	if c.BinaryPath == "" {
		return DefaultBinary
	}
	return c.BinaryPath
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Version returns the output of "yt-dlp --version".
func (c *Client) Version(ctx context.Context) (string, error) {
	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	stdout, stderr, err := runner.Run(ctx, c.binary(), []string{"--version"})
	if err != nil {
		return "", fmt.Errorf("yt-dlp --version: %w", classify("", err, stderr))
	}
	return strings.TrimSpace(string(stdout)), nil
}
