package client

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const fragmentTimeout = 30 * time.Second

func defaultHTTPClient(proxyURL string, jar http.CookieJar, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = fragmentTimeout
	}
	client := &http.Client{Jar: jar, Timeout: timeout}
	if strings.TrimSpace(proxyURL) == "" {
		return client
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return client
	}
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return client
	}
	transport := baseTransport.Clone()
	transport.Proxy = http.ProxyURL(parsed)
	client.Transport = transport
	return client
}
