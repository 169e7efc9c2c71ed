// Package cookies validates Netscape cookies.txt files and turns them into a
// cookie jar for the few requests this tool makes itself.
package cookies

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

const httpOnlyPrefix = "#HttpOnly_"

var headerPattern = regexp.MustCompile(`^#( Netscape)? HTTP Cookie File`)

// ErrMissingHeader indicates the file does not start with the Netscape magic line.
var ErrMissingHeader = errors.New("missing Netscape cookie file header")

// LineError points at a malformed line.
type LineError struct {
	Line   int
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseNetscape parses a Netscape cookies.txt format.
// Format: domain flag path secure expiration name value
//
// Parsing is strict: the header line must be present and every cookie line
// must carry seven tab-separated fields, matching what the extractor accepts.
func ParseNetscape(r io.Reader) ([]*http.Cookie, error) {
	var cookies []*http.Cookie
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r\n")
		if lineNo == 1 {
			if !headerPattern.MatchString(strings.TrimPrefix(raw, "\ufeff")) {
				return nil, ErrMissingHeader
			}
			continue
		}

		httpOnly := false
		if strings.HasPrefix(raw, httpOnlyPrefix) {
			httpOnly = true
			raw = strings.TrimPrefix(raw, httpOnlyPrefix)
		}
		if strings.TrimSpace(raw) == "" || strings.HasPrefix(strings.TrimSpace(raw), "#") {
			continue
		}

		parts := strings.Split(raw, "\t")
		if len(parts) != 7 {
			return nil, &LineError{Line: lineNo, Reason: fmt.Sprintf("expected 7 tab-separated fields, got %d", len(parts))}
		}

		domain := parts[0]
		includeSubdomains := strings.EqualFold(parts[1], "TRUE")
		if !includeSubdomains && !strings.EqualFold(parts[1], "FALSE") {
			return nil, &LineError{Line: lineNo, Reason: fmt.Sprintf("invalid subdomain flag %q", parts[1])}
		}
		if includeSubdomains != strings.HasPrefix(domain, ".") {
			return nil, &LineError{Line: lineNo, Reason: "subdomain flag does not match domain"}
		}

		var expires time.Time
		if parts[4] != "" {
			expiresUnix, err := strconv.ParseInt(parts[4], 10, 64)
			if err != nil {
				return nil, &LineError{Line: lineNo, Reason: fmt.Sprintf("invalid expiry %q", parts[4])}
			}
			if expiresUnix > 0 {
				expires = time.Unix(expiresUnix, 0)
			}
		}

		cookies = append(cookies, &http.Cookie{
			Name:     parts[5],
			Value:    parts[6],
			Domain:   domain,
			Path:     parts[2],
			Expires:  expires,
			Secure:   strings.EqualFold(parts[3], "TRUE"),
			HttpOnly: httpOnly,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if lineNo == 0 {
		return nil, ErrMissingHeader
	}
	return cookies, nil
}

// Load opens and parses path. A missing file, a directory, or a malformed file
// is an error.
func Load(path string) ([]*http.Cookie, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("cookie file does not exist")
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cookie file is a directory")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	list, err := ParseNetscape(f)
	if err != nil {
		return nil, fmt.Errorf("cookie file is not formatted correctly: %w", err)
	}
	return list, nil
}

// NewJar builds a public-suffix aware jar holding cookies, grouped by domain.
func NewJar(list []*http.Cookie) (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	domainCookies := make(map[string][]*http.Cookie)
	for _, c := range list {
		domainCookies[c.Domain] = append(domainCookies[c.Domain], c)
	}
	for domain, cs := range domainCookies {
		scheme := "http"
		for _, c := range cs {
			if c.Secure {
				scheme = "https"
				break
			}
		}
		host := strings.TrimPrefix(domain, ".")
		jar.SetCookies(&url.URL{Scheme: scheme, Host: host}, cs)
	}
	return jar, nil
}
