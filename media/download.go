// Package media handles the on-disk video artifacts: streaming manifest
// download and transcoding to MP4. Both operations are idempotent on the
// existence of their output path.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultAllowedPrefix is the manifest CDN every video URL must point at.
// The gate guards against the upstream feed pointing the pipeline at an
// unexpected host.
const DefaultAllowedPrefix = "https://n.yapp.li/"

const downloadTimeout = 5 * time.Minute

// ErrUntrustedSource indicates a manifest URL outside the allow-listed CDN.
var ErrUntrustedSource = errors.New("media: manifest url not on allow-listed host")

// DownloadError wraps transport failures while streaming a manifest to disk.
type DownloadError struct {
	// URL is the manifest URL that failed.
	URL string
	// Status is the HTTP status code, or 0 for transport errors.
	Status int
	// Err is the underlying error.
	Err error
}

func (e *DownloadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("media: download %s: HTTP %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("media: download %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *DownloadError) Unwrap() error { return e.Err }

// Downloader streams manifest files from the allow-listed CDN to local storage.
type Downloader struct {
	// AllowedPrefix is the URL prefix every manifest must match.
	// Defaults to DefaultAllowedPrefix.
	AllowedPrefix string
	// Client is the HTTP client used for transfers. Defaults to a client
	// with a 5 minute timeout.
	Client *http.Client
}

// NewDownloader creates a downloader gated on the default CDN prefix.
func NewDownloader() *Downloader {
	return &Downloader{
		AllowedPrefix: DefaultAllowedPrefix,
		Client:        &http.Client{Timeout: downloadTimeout},
	}
}

// Download streams the manifest at url to {dir}/{title}.m3u8 and returns
// that path.
//
// The URL must match the allowed prefix; anything else fails with
// ErrUntrustedSource before any network call. If the output already exists
// it is returned immediately without a transfer. The body is written to a
// temporary path and renamed on success, so a failed transfer never leaves
// a partial file the idempotence check would treat as complete.
func (d *Downloader) Download(ctx context.Context, url, title, dir string) (string, error) {
	prefix := d.AllowedPrefix
	if prefix == "" {
		prefix = DefaultAllowedPrefix
	}
	if !strings.HasPrefix(url, prefix) {
		return "", &DownloadError{URL: url, Err: ErrUntrustedSource}
	}

	output := filepath.Join(dir, title+".m3u8")
	if _, err := os.Stat(output); err == nil {
		log.Printf("media: skip download, %s already exists", output)
		return output, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}

	log.Printf("media: start download -- %s", output)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}

	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &DownloadError{URL: url, Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if err := writeAtomic(output, resp.Body); err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}

	log.Printf("media: finished download -- %s", output)
	return output, nil
}

// writeAtomic streams r to path via a temporary sibling file, renaming on
// success and removing the temporary on failure.
func writeAtomic(path string, r io.Reader) error {
	tmp := path + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}
