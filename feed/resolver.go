package feed

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// ResolutionError wraps failures while following detail links from a tab
// entry down to its terminal video record.
type ResolutionError struct {
	// Stage identifies the hop that failed ("entry", "detail", "video").
	Stage string
	// EntryID is the id of the entry being resolved, if known.
	EntryID string
	// Err is the underlying error.
	Err error
}

func (e *ResolutionError) Error() string {
	if e.EntryID != "" {
		return fmt.Sprintf("feed: resolve %s entry %s: %v", e.Stage, e.EntryID, e.Err)
	}
	return fmt.Sprintf("feed: resolve %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *ResolutionError) Unwrap() error { return e.Err }

// Video is a fully resolved video record, ready for download and upload.
type Video struct {
	// URL is the streaming manifest URL.
	URL string
	// Title is the raw title from the feed.
	Title string
	// SanitizedTitle is Title with whitespace, slashes and periods removed,
	// safe for use as a filename stem.
	SanitizedTitle string
	// Description is the concatenated summaries of the detail-level entries.
	Description string
	// ThumbnailURL is the terminal entry's content source.
	ThumbnailURL string
}

// Resolver follows detail links from a top-level tab entry to the entry
// carrying the playable video URL.
type Resolver struct {
	client *Client
}

// NewResolver creates a resolver fetching through the given client.
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve follows entry's detail links and returns the video record.
//
// Resolution normally takes two hops: tab entry -> detail entries -> video
// entries. Categories whose feed already returns the terminal video record
// at the detail level set skipVideoDetail and stop after the first hop.
func (r *Resolver) Resolve(ctx context.Context, entry Entry, skipVideoDetail bool) (*Video, error) {
	if len(entry.Link) == 0 || entry.Link[0].Href == "" {
		return nil, &ResolutionError{Stage: "entry", EntryID: entry.ID, Err: ErrMissingLink}
	}

	detail, err := r.client.Entries(ctx, entry.Link[0].Href)
	if err != nil {
		return nil, &ResolutionError{Stage: "detail", EntryID: entry.ID, Err: err}
	}
	if len(detail) == 0 {
		return nil, &ResolutionError{Stage: "detail", EntryID: entry.ID, Err: ErrNoEntries}
	}

	video := detail
	if !skipVideoDetail {
		if len(detail[0].Link) == 0 || detail[0].Link[0].Href == "" {
			return nil, &ResolutionError{Stage: "video", EntryID: entry.ID, Err: ErrMissingLink}
		}
		video, err = r.client.Entries(ctx, detail[0].Link[0].Href)
		if err != nil {
			return nil, &ResolutionError{Stage: "video", EntryID: entry.ID, Err: err}
		}
		if len(video) == 0 {
			return nil, &ResolutionError{Stage: "video", EntryID: entry.ID, Err: ErrNoEntries}
		}
	}

	terminal := video[0]
	if len(terminal.Link) == 0 || terminal.Link[0].Href == "" {
		return nil, &ResolutionError{Stage: "video", EntryID: entry.ID, Err: ErrMissingLink}
	}
	if terminal.Title == "" {
		return nil, &ResolutionError{Stage: "video", EntryID: entry.ID, Err: ErrMissingTitle}
	}
	if terminal.Content.Src == "" {
		return nil, &ResolutionError{Stage: "video", EntryID: entry.ID, Err: ErrMissingThumbnail}
	}

	return &Video{
		URL:            terminal.Link[0].Href,
		Title:          terminal.Title,
		SanitizedTitle: SanitizeTitle(terminal.Title),
		Description:    joinSummaries(detail),
		ThumbnailURL:   terminal.Content.Src,
	}, nil
}

// SanitizeTitle strips whitespace, forward slashes and periods from a raw
// title so it can serve as a filename stem. The transform is lossy: titles
// differing only in stripped characters collide to the same stem.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if unicode.IsSpace(r) || r == '/' || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// joinSummaries concatenates the non-empty summaries of the detail-level
// entries with newlines. The terminal video entry's own summary is not
// part of the description.
func joinSummaries(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Summary != "" {
			parts = append(parts, e.Summary)
		}
	}
	return strings.Join(parts, "\n")
}
