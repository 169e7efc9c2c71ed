package client

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// InvalidInputDetailError explains why an input was rejected.
type InvalidInputDetailError struct {
	Input  string
	Reason string
}

func (e *InvalidInputDetailError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reason, e.Input)
}

func (e *InvalidInputDetailError) Unwrap() error { return ErrInvalidInput }

// NormalizeURL trims input and rejects values the extractor can never
// resolve. Anything else, including "ytsearch:" style pseudo URLs and bare
// IDs, is passed through and left to the extractor.
func NormalizeURL(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", &InvalidInputDetailError{Input: input, Reason: "empty url"}
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 || strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return "", &InvalidInputDetailError{Input: input, Reason: "url contains whitespace"}
	}
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", &InvalidInputDetailError{Input: input, Reason: "malformed url"}
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", &InvalidInputDetailError{Input: input, Reason: "unsupported url scheme"}
		}
		if u.Host == "" {
			return "", &InvalidInputDetailError{Input: input, Reason: "url has no host"}
		}
	}
	return s, nil
}
