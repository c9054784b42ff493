package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout   = 10 * time.Second
	maxBodySize      = 2 * 1024 * 1024 // titles live in the head; no need for more
	defaultUserAgent = "tabroll/0.1 (terminal tab workspace; +https://github.com/vidyasagar/tabroll)"
)

// ErrNotFetchable is returned for URLs without an http or https scheme, such
// as about:blank.
var ErrNotFetchable = errors.New("url is not fetchable")

// SharedTransport is the HTTP transport used by every Fetcher.
var SharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:          32,
	MaxIdleConnsPerHost:   4,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   5 * time.Second,
	ResponseHeaderTimeout: 10 * time.Second,
	ForceAttemptHTTP2:     true,
}

// FetchResult holds the raw response from fetching a URL.
type FetchResult struct {
	URL         string
	FinalURL    string // after redirects
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// Fetcher retrieves pages for tab labelling.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a Fetcher using the shared transport.
func NewFetcher() *Fetcher {
	return NewFetcherWithClient(&http.Client{
		Transport: SharedTransport,
		Timeout:   defaultTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects (>10)")
			}
			return nil
		},
	})
}

// NewFetcherWithClient creates a Fetcher around client.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client, userAgent: defaultUserAgent}
}

// Fetch retrieves the content at rawURL. Non-2xx responses are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	rawURL = NormalizeURL(rawURL)
	if !Fetchable(rawURL) {
		return nil, fmt.Errorf("fetching %q: %w", rawURL, ErrNotFetchable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &FetchResult{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Duration:    time.Since(start),
	}, nil
}

// NormalizeURL adds https:// when no scheme is present. Input that does not
// look like a host becomes a DuckDuckGo search. about: URLs are kept.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") ||
		strings.HasPrefix(raw, "about:") {
		return raw
	}

	if strings.HasPrefix(raw, "localhost") ||
		(strings.Contains(raw, ".") && !strings.Contains(raw, " ")) {
		return "https://" + raw
	}

	return "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(raw)
}

// Fetchable reports whether u can be fetched over HTTP.
func Fetchable(u string) bool {
	p, err := url.Parse(u)
	if err != nil || p.Host == "" {
		return false
	}
	return p.Scheme == "http" || p.Scheme == "https"
}

// IsHTML checks if the content type indicates HTML.
func IsHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
