package ytdlp

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
)

var fragmentRangePattern = regexp.MustCompile(`range/\d+-(\d+)$`)

// FragmentSizer measures one fragment of a fragmented format.
type FragmentSizer interface {
	FragmentSize(ctx context.Context, url string, headers map[string]string) (int64, error)
}

// SizeResult is the byte size computed for a resolved entry.
type SizeResult struct {
	Bytes      int64
	Known      bool
	Inaccurate bool
}

// MediaSize sums the sizes of the selected formats of info. A format with an
// exact size counts as is, an approximate one marks the result inaccurate,
// and a fragmented one is estimated from its fragments. If any selected format
// has no usable size the whole result is unknown. sizer may be nil, in which
// case fragments are never fetched.
func MediaSize(ctx context.Context, info *Info, sizer FragmentSizer) (SizeResult, error) {
	formats := info.SelectedFormats()
	if len(formats) == 0 {
		return SizeResult{}, nil
	}
	var res SizeResult
	for _, f := range formats {
		n, inaccurate, ok, err := formatSize(ctx, f, sizer)
		if err != nil {
			return SizeResult{}, err
		}
		if !ok {
			return SizeResult{}, nil
		}
		res.Bytes += n
		res.Inaccurate = res.Inaccurate || inaccurate
	}
	res.Known = true
	return res, nil
}

func formatSize(ctx context.Context, f Format, sizer FragmentSizer) (n int64, inaccurate, ok bool, err error) {
	switch {
	case f.Filesize != nil && *f.Filesize > 0:
		return *f.Filesize, false, true, nil
	case f.FilesizeApprox != nil && *f.FilesizeApprox > 0:
		return int64(math.Round(*f.FilesizeApprox)), true, true, nil
	case len(f.Fragments) > 0:
		return fragmentedSize(ctx, f, sizer)
	default:
		return 0, false, false, nil
	}
}

func fragmentedSize(ctx context.Context, f Format, sizer FragmentSizer) (int64, bool, bool, error) {
	var sum int64
	complete := true
	for _, fr := range f.Fragments {
		if fr.Filesize == nil {
			complete = false
			break
		}
		sum += *fr.Filesize
	}
	if complete {
		return sum, false, true, nil
	}

	last := f.Fragments[len(f.Fragments)-1]
	if m := fragmentRangePattern.FindStringSubmatch(last.Path); m != nil {
		end, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			return end, false, true, nil
		}
	}

	count := len(f.Fragments)
	if count < 2 || sizer == nil {
		return 0, false, false, nil
	}
	// The first fragment is usually an init segment; sample a media one.
	sample := f.Fragments[1]
	if count > 2 {
		sample = f.Fragments[2]
	}
	url := sample.URL
	if url == "" {
		url = f.FragmentBaseURL + sample.Path
	}
	size, err := sizer.FragmentSize(ctx, url, f.HTTPHeaders)
	if err != nil {
		if ctx.Err() != nil {
			return 0, false, false, ctx.Err()
		}
		return 0, false, false, nil
	}
	return size * int64(count-1), true, true, nil
}

// HTTPFragmentSizer fetches fragments over HTTP.
type HTTPFragmentSizer struct {
	Client *http.Client
}

// FragmentSize asks for the Content-Length with HEAD and falls back to
// downloading the fragment when the server does not report one.
func (s *HTTPFragmentSizer) FragmentSize(ctx context.Context, url string, headers map[string]string) (int64, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := s.do(ctx, client, http.MethodHead, url, headers)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK && resp.ContentLength > 0 {
			return resp.ContentLength, nil
		}
	}

	resp, err = s.do(ctx, client, http.MethodGet, url, headers)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fragment http status=%d", resp.StatusCode)
	}
	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read fragment: %w", err)
	}
	return n, nil
}

func (s *HTTPFragmentSizer) do(ctx context.Context, client *http.Client, method, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return client.Do(req)
}
