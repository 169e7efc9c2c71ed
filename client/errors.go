package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/famomatic/totalsize/internal/ytdlp"
)

var (
	// ErrInvalidInput indicates a malformed URL argument.
	ErrInvalidInput = errors.New("invalid input")
	// ErrResourceNotFound indicates the URL could not be resolved at all.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrInvalidFormatFilter indicates the format filter was rejected.
	ErrInvalidFormatFilter = errors.New("invalid format filter")
	// ErrCookieFile indicates the cookie file is missing or malformed.
	ErrCookieFile = errors.New("cookie file error")
	// ErrExtractorNotFound indicates the yt-dlp executable could not be run.
	ErrExtractorNotFound = errors.New("extractor not found")
	// ErrEntryUnavailable indicates one playlist entry could not be resolved.
	ErrEntryUnavailable = errors.New("media unavailable")
)

// EntryError describes a single playlist entry that failed to resolve.
type EntryError struct {
	Index int
	Title string
	URL   string
	Kind  ytdlp.ErrorKind
	Err   error
}

func (e *EntryError) Error() string {
	name := e.Title
	if name == "" {
		name = e.URL
	}
	if name == "" {
		return fmt.Sprintf("entry %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("entry %d (%s): %v", e.Index, name, e.Err)
}

func (e *EntryError) Unwrap() []error {
	return []error{ErrEntryUnavailable, e.Err}
}

// ErrorCategory is a coarse, stable classification of client errors.
type ErrorCategory string

const (
	ErrorCategoryUnknown             ErrorCategory = "unknown"
	ErrorCategoryInvalidInput        ErrorCategory = "invalid_input"
	ErrorCategoryResourceNotFound    ErrorCategory = "resource_not_found"
	ErrorCategoryInvalidFormatFilter ErrorCategory = "invalid_format_filter"
	ErrorCategoryCookieFile          ErrorCategory = "cookie_file"
	ErrorCategoryExtractorNotFound   ErrorCategory = "extractor_not_found"
	ErrorCategoryEntryUnavailable    ErrorCategory = "entry_unavailable"
	ErrorCategoryCanceled            ErrorCategory = "canceled"
)

// ClassifyError maps err to an ErrorCategory.
func ClassifyError(err error) ErrorCategory {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorCategoryCanceled
	case errors.Is(err, ErrInvalidInput):
		return ErrorCategoryInvalidInput
	case errors.Is(err, ErrInvalidFormatFilter):
		return ErrorCategoryInvalidFormatFilter
	case errors.Is(err, ErrCookieFile):
		return ErrorCategoryCookieFile
	case errors.Is(err, ErrExtractorNotFound):
		return ErrorCategoryExtractorNotFound
	case errors.Is(err, ErrEntryUnavailable):
		return ErrorCategoryEntryUnavailable
	case errors.Is(err, ErrResourceNotFound):
		return ErrorCategoryResourceNotFound
	default:
		return ErrorCategoryUnknown
	}
}

// mapProbeError converts a whole-URL extraction failure.
func mapProbeError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch ytdlp.KindOf(err) {
	case ytdlp.KindNotInstalled:
		return fmt.Errorf("%w: %w", ErrExtractorNotFound, err)
	case ytdlp.KindInvalidFormat:
		return fmt.Errorf("%w: %w", ErrInvalidFormatFilter, err)
	default:
		return fmt.Errorf("%w: %w", ErrResourceNotFound, err)
	}
}
