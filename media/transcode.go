package media

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// TranscodeError wraps a non-zero exit of the external ffmpeg process.
type TranscodeError struct {
	// Manifest is the input manifest path.
	Manifest string
	// Stderr is the captured ffmpeg stderr output, if any.
	Stderr string
	// Err is the underlying exec error.
	Err error
}

func (e *TranscodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("media: transcode %s: %v: %s", e.Manifest, e.Err, e.Stderr)
	}
	return fmt.Sprintf("media: transcode %s: %v", e.Manifest, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *TranscodeError) Unwrap() error { return e.Err }

// Transcoder repackages downloaded manifests into MP4 containers by
// invoking ffmpeg. Streams are copied, not re-encoded; the AAC bitstream
// is remuxed from ADTS to the MP4 framing.
type Transcoder struct {
	// FfmpegPath is the path to the ffmpeg executable.
	// If empty, uses "ffmpeg" from PATH.
	FfmpegPath string
}

// NewTranscoder creates a Transcoder using ffmpeg from PATH.
func NewTranscoder() *Transcoder {
	return &Transcoder{FfmpegPath: "ffmpeg"}
}

// Transcode converts manifestPath into {dir}/{title}.mp4 and returns that
// path. If the output already exists it is returned immediately without
// invoking ffmpeg. ffmpeg writes to a temporary path which is renamed on
// success, so a killed or failed run never leaves a partial MP4 behind.
func (t *Transcoder) Transcode(ctx context.Context, manifestPath, title, dir string) (string, error) {
	output := filepath.Join(dir, title+".mp4")
	if _, err := os.Stat(output); err == nil {
		log.Printf("media: skip transcode, %s already exists", output)
		return output, nil
	}

	log.Printf("media: start transcode -- %s", output)

	ffmpeg := t.FfmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}

	// ffmpeg infers the container from the extension, so the temporary
	// file must keep the .mp4 suffix.
	tmp := filepath.Join(dir, title+".partial.mp4")
	args := []string{
		"-loglevel", "panic",
		"-protocol_whitelist", "file,http,https,tcp,tls,crypto",
		"-i", manifestPath,
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		tmp,
	}

	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(tmp)
		return "", &TranscodeError{Manifest: manifestPath, Stderr: stderr.String(), Err: err}
	}

	if err := os.Rename(tmp, output); err != nil {
		os.Remove(tmp)
		return "", &TranscodeError{Manifest: manifestPath, Err: err}
	}

	log.Printf("media: finished transcode -- %s", output)
	return output, nil
}
