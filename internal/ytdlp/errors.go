package ytdlp

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

// ErrorKind classifies an extractor failure.
type ErrorKind string

const (
	KindUnknown           ErrorKind = "unknown"
	KindNotInstalled      ErrorKind = "not_installed"
	KindUnsupported       ErrorKind = "unsupported"
	KindUnavailable       ErrorKind = "unavailable"
	KindInvalidFormat     ErrorKind = "invalid_format"
	KindFormatUnavailable ErrorKind = "format_unavailable"
	KindNetwork           ErrorKind = "network"
	KindBadOutput         ErrorKind = "bad_output"
)

// ExtractionError is returned when yt-dlp fails for a URL.
type ExtractionError struct {
	URL     string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("yt-dlp %s url=%s: %s", e.Kind, e.URL, msg)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// KindOf returns the kind of an *ExtractionError in err's chain.
func KindOf(err error) ErrorKind {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindUnknown
}

var (
	invalidFormatMarkers = []string{
		"invalid format specification",
		"invalid filter specification",
		"invalid format string",
	}
	unavailableMarkers = []string{
		"private video",
		"video unavailable",
		"this video is unavailable",
		"has been removed",
		"has been terminated",
		"members-only",
		"join this channel",
		"not available in your country",
		"geo restriction",
		"geo-restricted",
		"confirm your age",
		"this live event will begin",
		"premieres in",
		"no video formats found",
		"http error 404",
		"http error 410",
	}
	networkMarkers = []string{
		"unable to download webpage",
		"unable to download json metadata",
		"timed out",
		"connection reset",
		"temporary failure in name resolution",
		"fragment",
	}
)

func classify(url string, runErr error, stderr []byte) *ExtractionError {
	ee := &ExtractionError{URL: url, Kind: KindUnknown, Err: runErr, Message: errorMessage(stderr)}
	if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, fs.ErrNotExist) {
		ee.Kind = KindNotInstalled
		return ee
	}

	lower := strings.ToLower(string(stderr))
	switch {
	case strings.Contains(lower, "unsupported url"):
		ee.Kind = KindUnsupported
	case containsAny(lower, invalidFormatMarkers):
		ee.Kind = KindInvalidFormat
	case strings.Contains(lower, "requested format is not available"):
		ee.Kind = KindFormatUnavailable
	case containsAny(lower, unavailableMarkers):
		ee.Kind = KindUnavailable
	case containsAny(lower, networkMarkers):
		ee.Kind = KindNetwork
	}
	return ee
}

// errorMessage returns the last "ERROR:" line, or the last non-empty line.
func errorMessage(stderr []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if msg, ok := strings.CutPrefix(line, "ERROR:"); ok {
			return strings.TrimSpace(msg)
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
