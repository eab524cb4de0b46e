// Package config manages application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ErrMissing indicates required configuration is absent for a requested feature.
var ErrMissing = errors.New("config: missing required value")

// Config holds all application configuration. It is constructed once at
// startup and passed into every component constructor; nothing reads the
// environment after Load returns.
type Config struct {
	// Yappli API request headers
	APIVersion string
	UserAgent  string
	UDID       string
	ADID       string

	// Destination roots
	VideoDest     string
	ThumbnailDest string

	// Upload settings. Upload and Playlist come from CLI flags, not the
	// environment.
	Upload     bool
	Playlist   bool
	PlaylistID string

	// FeedRPS limits feed API requests per second (0 = unlimited).
	FeedRPS float64
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		FeedRPS: 5.0,
	}
}

// Load loads configuration from environment variables. An optional .env
// file in the working directory fills in variables not already set.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.APIVersion = os.Getenv("YAPPLI_API_VERSION")
	cfg.UserAgent = os.Getenv("USER_AGENT")
	cfg.UDID = os.Getenv("X_UDID")
	cfg.ADID = os.Getenv("X_ADID")
	cfg.VideoDest = os.Getenv("VIDEO_DEST")
	cfg.ThumbnailDest = os.Getenv("THUMBNAIL_DEST")
	cfg.PlaylistID = os.Getenv("PLAYLIST_ID")

	if v := os.Getenv("FEED_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.FeedRPS = f
		}
	}

	return cfg, nil
}

// Validate checks that every value required by the enabled features is set.
// Upload-only requirements are skipped when uploading is disabled, so a
// download-only run needs no YouTube configuration at all.
func (c *Config) Validate() error {
	if c.VideoDest == "" {
		return fmt.Errorf("%w: VIDEO_DEST", ErrMissing)
	}

	if !c.Upload {
		return nil
	}

	if c.ThumbnailDest == "" {
		return fmt.Errorf("%w: THUMBNAIL_DEST", ErrMissing)
	}
	if c.Playlist && c.PlaylistID == "" {
		return fmt.Errorf("%w: PLAYLIST_ID", ErrMissing)
	}

	return nil
}
