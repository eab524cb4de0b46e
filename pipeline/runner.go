// Package pipeline wires the feed, media and youtube components into the
// sequential batch run: for every endpoint category, resolve each entry to
// a video, download its manifest, transcode it, and optionally upload it.
package pipeline

import (
	"context"
	"log"
	"path/filepath"

	"github.com/google/uuid"

	"yappsync/feed"
	"yappsync/youtube"
)

// Endpoint describes one feed category to process.
type Endpoint struct {
	// Key names the category; it is the storage sub-directory and log label.
	Key string
	// URL is the category's feed URL.
	URL string
	// TitlePrefix is prepended to the sanitized title for upload naming.
	TitlePrefix string
	// SkipVideoDetail is set for categories whose feed returns the terminal
	// video record one resolution hop earlier than the others.
	SkipVideoDetail bool
}

// DefaultEndpoints returns the known Yappli tab categories.
func DefaultEndpoints() []Endpoint {
	const api = "https://yapp.li/api"
	return []Endpoint{
		{Key: "normalVideos", URL: api + "/tab/bio/a608b295"},
		{Key: "wanokokoroVideos", URL: api + "/tab/bio/b6ce08d3", SkipVideoDetail: true},
		{Key: "specialVideos", URL: api + "/tab/bio/a1e886ec"},
	}
}

// Downloader fetches a manifest to {dir}/{title}.m3u8. Satisfied by
// *media.Downloader.
type Downloader interface {
	Download(ctx context.Context, url, title, dir string) (string, error)
}

// Transcoder converts a manifest to {dir}/{title}.mp4. Satisfied by
// *media.Transcoder.
type Transcoder interface {
	Transcode(ctx context.Context, manifestPath, title, dir string) (string, error)
}

// Uploader pushes a transcoded video to the hosting platform. Satisfied by
// *youtube.Uploader. A nil Uploader on the Runner disables uploading.
type Uploader interface {
	Upload(ctx context.Context, req youtube.UploadRequest) error
}

// Runner executes the batch over all configured endpoints, one entry at a
// time, strictly sequentially.
type Runner struct {
	Feed       *feed.Client
	Resolver   *feed.Resolver
	Downloader Downloader
	Transcoder Transcoder
	// Uploader is optional; nil means download and transcode only.
	Uploader Uploader

	// VideoDest is the root directory for per-endpoint artifacts.
	VideoDest string
	// Endpoints are the categories to process, in order.
	Endpoints []Endpoint
}

// Run processes every endpoint in order. A failure in one entry is logged
// with its endpoint key and entry id and never aborts the batch; the loop
// moves on to the next entry. Run only returns an error when an endpoint's
// top-level feed cannot be fetched at all and even then continues with the
// remaining endpoints, returning the last such error.
func (r *Runner) Run(ctx context.Context) error {
	runID := uuid.New().String()
	var lastErr error

	for _, ep := range r.Endpoints {
		log.Println("-----------------------------------------")
		log.Printf("pipeline: [%s] downloading %s", runID, ep.Key)
		log.Println("-----------------------------------------")

		entries, err := r.Feed.Entries(ctx, ep.URL)
		if err != nil {
			log.Printf("pipeline: [%s] %s: fetch entries: %v", runID, ep.Key, err)
			lastErr = err
			continue
		}

		for _, entry := range entries {
			if err := r.processEntry(ctx, ep, entry); err != nil {
				log.Printf("pipeline: [%s] %s entry %s: %v", runID, ep.Key, entry.ID, err)
			}
		}
	}

	return lastErr
}

// processEntry runs the full per-entry chain: resolve, download, transcode,
// upload. Artifacts from earlier steps are kept on failure and reused by
// the idempotence checks on the next run.
func (r *Runner) processEntry(ctx context.Context, ep Endpoint, entry feed.Entry) error {
	video, err := r.Resolver.Resolve(ctx, entry, ep.SkipVideoDetail)
	if err != nil {
		return err
	}

	dir := filepath.Join(r.VideoDest, ep.Key)
	manifest, err := r.Downloader.Download(ctx, video.URL, video.SanitizedTitle, dir)
	if err != nil {
		return err
	}

	mp4, err := r.Transcoder.Transcode(ctx, manifest, video.SanitizedTitle, dir)
	if err != nil {
		return err
	}

	if r.Uploader == nil {
		return nil
	}

	return r.Uploader.Upload(ctx, youtube.UploadRequest{
		FilePath:     mp4,
		Title:        ep.TitlePrefix + video.SanitizedTitle,
		Description:  video.Description,
		ThumbnailURL: video.ThumbnailURL,
	})
}
