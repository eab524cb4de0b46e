package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// feedServer serves canned feed documents by path and counts requests.
type feedServer struct {
	*httptest.Server
	docs     map[string]string
	requests atomic.Int64
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	fs := &feedServer{docs: map[string]string{}}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.requests.Add(1)
		doc, ok := fs.docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(doc))
	}))
	t.Cleanup(fs.Server.Close)
	return fs
}

func (fs *feedServer) entryDoc(entries ...string) string {
	out := `{"feed":{"entry":[`
	for i, e := range entries {
		if i > 0 {
			out += ","
		}
		out += e
	}
	return out + `]}}`
}

// twoHopFixture builds tab -> detail -> video documents on the server and
// returns the tab entry to resolve.
func twoHopFixture(fs *feedServer) Entry {
	detailURL := fs.URL + "/detail"
	videoURL := fs.URL + "/video"

	fs.docs["/detail"] = fs.entryDoc(
		fmt.Sprintf(`{"id":"d1","summary":"Paragraph one.","link":[{"_href":%q}]}`, videoURL),
		`{"id":"d2","summary":"Paragraph two."}`,
		`{"id":"d3","summary":""}`,
	)
	fs.docs["/video"] = fs.entryDoc(
		`{"id":"v1","title":"Salmon Teriyaki","summary":"terminal summary, unused",
		  "content":{"_src":"https://img.example/salmon.png"},
		  "link":[{"_href":"https://n.yapp.li/m/salmon.m3u8"}]}`,
	)

	return Entry{ID: "t1", Link: []Link{{Href: detailURL}}}
}

func TestResolver_TwoHops(t *testing.T) {
	fs := newFeedServer(t)
	entry := twoHopFixture(fs)

	client := NewClientWithHTTP(testHeaders(), 0, fs.Client())
	resolver := NewResolver(client)

	video, err := resolver.Resolve(context.Background(), entry, false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if video.URL != "https://n.yapp.li/m/salmon.m3u8" {
		t.Errorf("video URL = %q", video.URL)
	}
	if video.Title != "Salmon Teriyaki" {
		t.Errorf("video title = %q", video.Title)
	}
	if video.SanitizedTitle != "SalmonTeriyaki" {
		t.Errorf("sanitized title = %q, want %q", video.SanitizedTitle, "SalmonTeriyaki")
	}
	if video.ThumbnailURL != "https://img.example/salmon.png" {
		t.Errorf("thumbnail = %q", video.ThumbnailURL)
	}
	// Description joins the detail-level summaries, skipping empties; the
	// terminal entry's own summary is not part of it.
	if video.Description != "Paragraph one.\nParagraph two." {
		t.Errorf("description = %q", video.Description)
	}

	if got := fs.requests.Load(); got != 2 {
		t.Errorf("two-hop resolution made %d requests, want 2", got)
	}
}

func TestResolver_OneHopWhenSkippingVideoDetail(t *testing.T) {
	fs := newFeedServer(t)
	detailURL := fs.URL + "/detail"
	fs.docs["/detail"] = fs.entryDoc(
		`{"id":"d1","title":"Miso Soup","summary":"How to make it.",
		  "content":{"_src":"https://img.example/miso.png"},
		  "link":[{"_href":"https://n.yapp.li/m/miso.m3u8"}]}`,
	)

	client := NewClientWithHTTP(testHeaders(), 0, fs.Client())
	resolver := NewResolver(client)

	entry := Entry{ID: "t1", Link: []Link{{Href: detailURL}}}
	video, err := resolver.Resolve(context.Background(), entry, true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if video.SanitizedTitle != "MisoSoup" {
		t.Errorf("sanitized title = %q", video.SanitizedTitle)
	}
	if got := fs.requests.Load(); got != 1 {
		t.Errorf("one-hop resolution made %d requests, want 1", got)
	}
}

func TestResolver_Errors(t *testing.T) {
	tests := []struct {
		name      string
		entry     func(fs *feedServer) Entry
		docs      func(fs *feedServer)
		wantStage string
		wantErr   error
	}{
		{
			name:      "entry without link",
			entry:     func(fs *feedServer) Entry { return Entry{ID: "t1"} },
			docs:      func(fs *feedServer) {},
			wantStage: "entry",
			wantErr:   ErrMissingLink,
		},
		{
			name: "detail without link",
			entry: func(fs *feedServer) Entry {
				return Entry{ID: "t1", Link: []Link{{Href: fs.URL + "/detail"}}}
			},
			docs: func(fs *feedServer) {
				fs.docs["/detail"] = fs.entryDoc(`{"id":"d1","summary":"no link here"}`)
			},
			wantStage: "video",
			wantErr:   ErrMissingLink,
		},
		{
			name: "terminal entry without title",
			entry: func(fs *feedServer) Entry {
				return Entry{ID: "t1", Link: []Link{{Href: fs.URL + "/detail"}}}
			},
			docs: func(fs *feedServer) {
				fs.docs["/detail"] = fs.entryDoc(
					fmt.Sprintf(`{"id":"d1","link":[{"_href":%q}]}`, fs.URL+"/video"))
				fs.docs["/video"] = fs.entryDoc(
					`{"id":"v1","content":{"_src":"x"},"link":[{"_href":"https://n.yapp.li/m/x.m3u8"}]}`)
			},
			wantStage: "video",
			wantErr:   ErrMissingTitle,
		},
		{
			name: "terminal entry without thumbnail",
			entry: func(fs *feedServer) Entry {
				return Entry{ID: "t1", Link: []Link{{Href: fs.URL + "/detail"}}}
			},
			docs: func(fs *feedServer) {
				fs.docs["/detail"] = fs.entryDoc(
					fmt.Sprintf(`{"id":"d1","link":[{"_href":%q}]}`, fs.URL+"/video"))
				fs.docs["/video"] = fs.entryDoc(
					`{"id":"v1","title":"No Thumb","link":[{"_href":"https://n.yapp.li/m/x.m3u8"}]}`)
			},
			wantStage: "video",
			wantErr:   ErrMissingThumbnail,
		},
		{
			name: "detail fetch failure",
			entry: func(fs *feedServer) Entry {
				return Entry{ID: "t1", Link: []Link{{Href: fs.URL + "/missing"}}}
			},
			docs:      func(fs *feedServer) {},
			wantStage: "detail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFeedServer(t)
			tt.docs(fs)

			client := NewClientWithHTTP(testHeaders(), 0, fs.Client())
			resolver := NewResolver(client)

			_, err := resolver.Resolve(context.Background(), tt.entry(fs), false)
			if err == nil {
				t.Fatal("Resolve() expected error, got nil")
			}

			var resErr *ResolutionError
			if !errors.As(err, &resErr) {
				t.Fatalf("Resolve() error = %T, want *ResolutionError", err)
			}
			if resErr.Stage != tt.wantStage {
				t.Errorf("ResolutionError.Stage = %q, want %q", resErr.Stage, tt.wantStage)
			}
			if resErr.EntryID != "t1" {
				t.Errorf("ResolutionError.EntryID = %q, want %q", resErr.EntryID, "t1")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		// The transform is lossy: these three collide intentionally.
		{"Salmon Teriyaki", "SalmonTeriyaki"},
		{"Salmon.Teriyaki", "SalmonTeriyaki"},
		{"Salmon/Teriyaki", "SalmonTeriyaki"},
		{"  spaced\tout\ntitle  ", "spacedouttitle"},
		{"鮭の照り焼き", "鮭の照り焼き"},
		{"v1.2/beta release", "v12betarelease"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeTitle(tt.in); got != tt.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
