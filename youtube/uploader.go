package youtube

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"yappsync/internal/config"
)

// Ledger records titles that have already been uploaded. Satisfied by
// *storage.Ledger.
type Ledger interface {
	Has(title string) bool
	Record(title string) error
}

// Options configures the upload orchestration.
type Options struct {
	// ThumbnailDest is the staging directory for resized thumbnails.
	ThumbnailDest string
	// PlaylistID is the playlist to attach uploads to. Required only when
	// Playlist is true.
	PlaylistID string
	// Playlist enables playlist attachment after a successful upload.
	Playlist bool
}

// UploadRequest describes one video to upload.
type UploadRequest struct {
	// FilePath is the transcoded MP4 on local disk.
	FilePath string
	// Title is the video title, also the ledger idempotence key.
	Title string
	// Description is the video description.
	Description string
	// ThumbnailURL is the source thumbnail to resize and attach.
	ThumbnailURL string
}

// Uploader drives the video upload, thumbnail upload and optional playlist
// attachment against the YouTube Data API. Every created resource is
// private.
type Uploader struct {
	service *youtube.Service
	ledger  Ledger
	opts    Options

	// thumbClient fetches source thumbnails. Defaults to http.DefaultClient.
	thumbClient *http.Client
}

// NewUploader creates an uploader from an authorized HTTP client, as
// returned by Authenticator.Client.
func NewUploader(ctx context.Context, client *http.Client, ledger Ledger, opts Options) (*Uploader, error) {
	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}
	return NewUploaderWithService(service, ledger, opts), nil
}

// NewUploaderWithService creates an uploader around an existing service.
// Tests use this with a service pointed at a local fake endpoint.
func NewUploaderWithService(service *youtube.Service, ledger Ledger, opts Options) *Uploader {
	return &Uploader{
		service:     service,
		ledger:      ledger,
		opts:        opts,
		thumbClient: http.DefaultClient,
	}
}

// Upload runs the full orchestration for one video: ledger check, video
// insert with progress reporting, thumbnail resize and upload, and
// playlist attachment when enabled.
//
// A title already present in the ledger is a logged cancellation, not an
// error. Missing configuration for a requested feature aborts before any
// network call.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) error {
	if err := u.validate(); err != nil {
		return err
	}

	if u.ledger.Has(req.Title) {
		log.Printf("youtube: [CANCEL] %s is already uploaded", req.Title)
		return nil
	}

	videoID, err := u.insertVideo(ctx, req)
	if err != nil {
		return err
	}
	if videoID == "" {
		return nil
	}

	if err := u.ledger.Record(req.Title); err != nil {
		return err
	}

	if err := u.uploadThumbnail(ctx, videoID, req.ThumbnailURL); err != nil {
		return err
	}

	if u.opts.Playlist {
		return u.attachToPlaylist(ctx, videoID)
	}
	return nil
}

// validate checks the option set before any network traffic.
func (u *Uploader) validate() error {
	if u.opts.ThumbnailDest == "" {
		return fmt.Errorf("youtube: invalid options: thumbnail destination: %w", config.ErrMissing)
	}
	if u.opts.Playlist && u.opts.PlaylistID == "" {
		return fmt.Errorf("youtube: invalid options: playlist id: %w", config.ErrMissing)
	}
	return nil
}

// insertVideo uploads the video binary with its metadata and returns the
// new video ID.
func (u *Uploader) insertVideo(ctx context.Context, req UploadRequest) (string, error) {
	f, err := os.Open(req.FilePath)
	if err != nil {
		return "", fmt.Errorf("youtube: open video file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("youtube: stat video file: %w", err)
	}
	size := info.Size()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Title,
			Description: req.Description,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "private"},
	}

	call := u.service.Videos.Insert([]string{"id", "snippet", "status"}, video).
		NotifySubscribers(false).
		Media(f, googleapi.ChunkSize(googleapi.DefaultUploadChunkSize)).
		ProgressUpdater(progressPrinter("Uploading a video", size)).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("youtube: insert video %q: %w", req.Title, err)
	}
	fmt.Println()

	return resp.Id, nil
}

// uploadThumbnail resizes the source thumbnail and sets it on the video.
func (u *Uploader) uploadThumbnail(ctx context.Context, videoID, thumbnailURL string) error {
	path, err := stageThumbnail(ctx, u.thumbClient, thumbnailURL, u.opts.ThumbnailDest)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("youtube: open thumbnail: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("youtube: stat thumbnail: %w", err)
	}

	call := u.service.Thumbnails.Set(videoID).
		Media(f, googleapi.ContentType("image/jpeg")).
		ProgressUpdater(progressPrinter("Uploading a thumbnail", info.Size())).
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("youtube: set thumbnail for %s: %w", videoID, err)
	}
	fmt.Println()

	return nil
}

// attachToPlaylist inserts the video into the configured playlist as a
// private item.
func (u *Uploader) attachToPlaylist(ctx context.Context, videoID string) error {
	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: u.opts.PlaylistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
		Status: &youtube.PlaylistItemStatus{PrivacyStatus: "private"},
	}

	call := u.service.PlaylistItems.Insert([]string{"id", "snippet", "status"}, item).
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("youtube: insert playlist item for %s: %w", videoID, err)
	}

	return nil
}

// progressPrinter returns a ProgressUpdater writing a single rewritten
// percentage line, computed as bytes sent over the total size.
func progressPrinter(label string, size int64) googleapi.ProgressUpdater {
	return func(current, total int64) {
		if size <= 0 {
			return
		}
		pct := float64(current) / float64(size) * 100
		fmt.Printf("\r%s - %.0f%% complete", label, pct)
	}
}
