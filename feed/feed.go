// Package feed provides a client for the Yappli feed API and the
// entry-resolution logic that turns a tab entry into a playable video record.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultTimeout = 30 * time.Second

// Sentinel errors for feed conditions.
var (
	// ErrNoEntries indicates the response carried no feed.entry sequence.
	ErrNoEntries = errors.New("feed: response has no entries")
	// ErrMissingLink indicates an entry has no usable link to follow.
	ErrMissingLink = errors.New("feed: entry has no link")
	// ErrMissingTitle indicates a terminal video entry has no title.
	ErrMissingTitle = errors.New("feed: entry has no title")
	// ErrMissingThumbnail indicates a terminal video entry has no content source.
	ErrMissingThumbnail = errors.New("feed: entry has no thumbnail source")
)

// FetchError wraps transport and schema failures while fetching a feed document.
// Use errors.As() to extract the failing URL and HTTP status:
//
//	var fetchErr *feed.FetchError
//	if errors.As(err, &fetchErr) {
//		fmt.Printf("fetch %s failed (HTTP %d): %v\n", fetchErr.URL, fetchErr.Status, fetchErr.Err)
//	}
type FetchError struct {
	// URL is the feed URL that failed.
	URL string
	// Status is the HTTP status code, or 0 for transport errors.
	Status int
	// Err is the underlying error.
	Err error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("feed: fetch %s: HTTP %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("feed: fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *FetchError) Unwrap() error { return e.Err }

// Document is the root feed response. Only the fields the pipeline
// consumes are modeled; the rest of the payload is ignored.
type Document struct {
	Feed struct {
		Entry []Entry `json:"entry"`
	} `json:"feed"`
}

// Entry is one item in a feed document. Depending on resolution depth it
// represents a category tab, a video summary, or a terminal video record.
type Entry struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Summary string  `json:"summary"`
	Content Content `json:"content"`
	Link    []Link  `json:"link"`
}

// Content is an entry's media reference, used as the thumbnail source.
type Content struct {
	Src  string `json:"_src"`
	Type string `json:"_type"`
}

// Link is a navigable reference carried by an entry. The first link is the
// canonical detail URL to follow next.
type Link struct {
	Href string `json:"_href"`
	Type string `json:"_type"`
}

// Headers holds the fixed request header set the Yappli API expects.
// All values come from configuration; none are derived at runtime.
type Headers struct {
	APIVersion string
	UserAgent  string
	UDID       string
	ADID       string
}

// Client fetches feed documents from the Yappli API.
// Requests are paced by a token-bucket rate limiter so a long batch run
// does not hammer the API.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	headers Headers
}

// NewClient creates a feed client sending the given header set.
// rps limits outgoing requests per second; 0 means unlimited.
func NewClient(headers Headers, rps float64) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(limit, 1),
		headers: headers,
	}
}

// NewClientWithHTTP creates a feed client using a custom HTTP client.
func NewClientWithHTTP(headers Headers, rps float64, httpClient *http.Client) *Client {
	c := NewClient(headers, rps)
	c.http = httpClient
	return c
}

// Entries fetches the feed document at url and returns its entry sequence.
// It fails with *FetchError on transport errors, non-2xx statuses, and
// responses missing feed.entry. No retries are attempted.
func (c *Client) Entries(ctx context.Context, url string) ([]Entry, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("X-API-VERSION", c.headers.APIVersion)
	req.Header.Set("User-Agent", c.headers.UserAgent)
	req.Header.Set("Accept-Language", "en-us")
	req.Header.Set("X-UDID", c.headers.UDID)
	req.Header.Set("X-ADID", c.headers.ADID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("decode feed: %w", err)}
	}
	if doc.Feed.Entry == nil {
		return nil, &FetchError{URL: url, Err: ErrNoEntries}
	}

	return doc.Feed.Entry, nil
}
