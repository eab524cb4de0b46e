package yappsync

import (
	"yappsync/feed"
	"yappsync/media"
	"yappsync/storage"
	"yappsync/youtube"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, media.ErrUntrustedSource) {
//		fmt.Println("manifest host not allow-listed")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var dlErr *media.DownloadError
//	if errors.As(err, &dlErr) {
//		fmt.Printf("download of %s failed: %v\n", dlErr.URL, dlErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// FetchError wraps transport and schema failures fetching a feed document.
	FetchError = feed.FetchError
	// ResolutionError wraps failures resolving an entry to its video record.
	ResolutionError = feed.ResolutionError
	// DownloadError wraps transport failures while streaming a manifest.
	DownloadError = media.DownloadError
	// TranscodeError wraps a non-zero exit of the ffmpeg process.
	TranscodeError = media.TranscodeError
	// CredentialError wraps OAuth credential acquisition failures.
	CredentialError = youtube.CredentialError
	// StorageError wraps upload ledger persistence failures.
	StorageError = storage.StorageError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrNoEntries indicates a feed response carried no entries.
	ErrNoEntries = feed.ErrNoEntries
	// ErrMissingLink indicates an entry has no usable link to follow.
	ErrMissingLink = feed.ErrMissingLink
	// ErrMissingTitle indicates a terminal video entry has no title.
	ErrMissingTitle = feed.ErrMissingTitle
	// ErrMissingThumbnail indicates a terminal video entry has no content source.
	ErrMissingThumbnail = feed.ErrMissingThumbnail
	// ErrUntrustedSource indicates a manifest URL outside the allow-listed CDN.
	ErrUntrustedSource = media.ErrUntrustedSource

	// Storage errors
	// ErrLedgerCorrupt indicates the ledger file could not be parsed.
	ErrLedgerCorrupt = storage.ErrLedgerCorrupt
	// ErrLockTimeout indicates a timeout acquiring the ledger file lock.
	ErrLockTimeout = storage.ErrLockTimeout
)
