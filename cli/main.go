package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"yappsync/feed"
	"yappsync/internal/config"
	"yappsync/media"
	"yappsync/pipeline"
	"yappsync/storage"
	"yappsync/youtube"
)

func main() {
	upload := flag.Bool("upload", false, "Upload transcoded videos to YouTube")
	playlist := flag.Bool("playlist", false, "Attach uploaded videos to the configured playlist")
	flag.Usage = printUsage
	flag.Parse()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Upload = *upload
	cfg.Playlist = *playlist

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	client := feed.NewClient(feed.Headers{
		APIVersion: cfg.APIVersion,
		UserAgent:  cfg.UserAgent,
		UDID:       cfg.UDID,
		ADID:       cfg.ADID,
	}, cfg.FeedRPS)

	runner := &pipeline.Runner{
		Feed:       client,
		Resolver:   feed.NewResolver(client),
		Downloader: media.NewDownloader(),
		Transcoder: media.NewTranscoder(),
		VideoDest:  cfg.VideoDest,
		Endpoints:  pipeline.DefaultEndpoints(),
	}

	if cfg.Upload {
		uploader, err := buildUploader(ctx, cfg)
		if err != nil {
			// The download and transcode steps are still useful without
			// credentials, so a failed upload setup only disables uploading.
			fmt.Fprintf(os.Stderr, "Upload disabled: %v\n", err)
		} else {
			runner.Uploader = uploader
		}
	}

	if err := runner.Run(ctx); err != nil {
		os.Exit(1)
	}
}

func buildUploader(ctx context.Context, cfg *config.Config) (*youtube.Uploader, error) {
	auth := youtube.NewAuthenticator(youtube.DefaultSecretPath, youtube.DefaultTokenPath, nil)
	client, err := auth.Client(ctx)
	if err != nil {
		return nil, err
	}

	ledger, err := storage.Open(filepath.Join(cfg.VideoDest, storage.LedgerFileName))
	if err != nil {
		return nil, err
	}

	return youtube.NewUploader(ctx, client, ledger, youtube.Options{
		ThumbnailDest: cfg.ThumbnailDest,
		PlaylistID:    cfg.PlaylistID,
		Playlist:      cfg.Playlist,
	})
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `yappsync - Yappli video archiver and YouTube uploader

Usage:
  yappsync [flags]

Flags:
  --upload     Upload transcoded videos to YouTube (requires client_secret.json)
  --playlist   Attach uploads to the playlist from PLAYLIST_ID

Environment (a .env file in the working directory is also read):
  YAPPLI_API_VERSION, USER_AGENT, X_UDID, X_ADID   Feed API request headers
  VIDEO_DEST                                       Root directory for downloads
  THUMBNAIL_DEST                                   Thumbnail staging directory
  PLAYLIST_ID                                      Target playlist for --playlist
  FEED_RPS                                         Feed requests per second (default 5)
`)
}
