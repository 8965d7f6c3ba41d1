package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FetchError is a typed failure from fetching a link target. Blocked marks
// responses where every user agent was rejected with a client-blocking
// status; callers map it to 403 rather than a generic 500. Transport
// failures (DNS, refused connection, timeout) carry Err and no status.
type FetchError struct {
	URL        string
	StatusCode int
	Blocked    bool
	Err        error
}

func (e *FetchError) Error() string {
	if e.Blocked {
		return fmt.Sprintf("fetch blocked by %s (status %d)", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch of %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch of %s failed with status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Some sites reject non-browser clients outright; retried in order.
var browserUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// maxFetchBody caps how much of a page is read.
const maxFetchBody = 2 * 1024 * 1024

// Page is the readable content of a fetched link target.
type Page struct {
	Title string
	Text  string
}

// PageFetcher downloads a web page and extracts its readable text.
type PageFetcher struct {
	client     *http.Client
	userAgents []string
}

// NewPageFetcher creates a fetcher with the given per-request timeout.
func NewPageFetcher(timeout time.Duration) *PageFetcher {
	return &PageFetcher{
		client:     &http.Client{Timeout: timeout},
		userAgents: browserUserAgents,
	}
}

// Fetch downloads the page at url. A client-blocking status (403/406/429/503)
// moves on to the next user agent; any other non-2xx status fails immediately.
func (f *PageFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	lastStatus := 0

	for _, ua := range f.userAgents {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", ua)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, &FetchError{URL: url, Err: err}
		}

		if isBlockingStatus(resp.StatusCode) {
			resp.Body.Close()
			lastStatus = resp.StatusCode
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody))
		resp.Body.Close()
		if err != nil {
			return nil, &FetchError{URL: url, Err: err}
		}

		contentType := resp.Header.Get("Content-Type")
		if strings.Contains(contentType, "text/html") || strings.Contains(contentType, "xhtml") || contentType == "" {
			return parseHTMLPage(string(body))
		}
		return &Page{Text: string(body)}, nil
	}

	return nil, &FetchError{URL: url, StatusCode: lastStatus, Blocked: true}
}

func isBlockingStatus(code int) bool {
	switch code {
	case http.StatusForbidden, http.StatusNotAcceptable, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// parseHTMLPage extracts the title and visible text, skipping script, style
// and page chrome elements.
func parseHTMLPage(content string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return &Page{
		Title: findTitle(doc),
		Text:  collectText(doc),
	}, nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// collectText extracts all visible text from a node subtree.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Header, atom.Title:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
