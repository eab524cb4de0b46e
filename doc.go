// Package yappsync archives videos from a Yappli-powered app and
// optionally re-uploads them to YouTube.
//
// It is a sequential batch pipeline, run as a scheduled or manual job:
// for each configured tab category it fetches the feed, follows the
// detail links of every entry down to its playable video record,
// downloads the streaming manifest from the allow-listed CDN, remuxes it
// into an MP4 with ffmpeg, and, when uploading is enabled, pushes the
// result to YouTube with a resized thumbnail and optional playlist
// attachment.
//
// Overview
//
// The sub-packages map onto the pipeline stages:
//
//   - feed: feed client and entry resolution (one or two detail hops)
//   - media: manifest download and ffmpeg transcoding, both idempotent
//   - storage: the uploaded-titles ledger backing upload idempotence
//   - youtube: OAuth2 credentials and the upload orchestration
//   - pipeline: the endpoint/entry loop tying it all together
//
// Idempotence
//
// Every artifact-producing step checks for its output before doing work:
// an existing manifest or MP4 is reused rather than re-fetched, and a
// title present in the upload ledger is never uploaded again. A run can
// therefore be interrupted and restarted without duplicating transfers.
//
// Error Handling
//
// Per-entry failures never abort the batch. Each stage returns a typed
// error carrying enough context to debug the entry that failed:
//
//	var resErr *feed.ResolutionError
//	if errors.As(err, &resErr) {
//		fmt.Printf("entry %s failed at %s: %v\n", resErr.EntryID, resErr.Stage, resErr.Err)
//	}
//
// Dependencies
//
// yappsync requires ffmpeg to be installed and available in PATH. The
// upload path additionally needs a Google OAuth client secret at
// ./client_secret.json; the first upload run prompts for interactive
// authorization and stores the token under ./.credentials/.
package yappsync
