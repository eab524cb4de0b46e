package youtube

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// maxThumbnailWidth is the width thumbnails are scaled down to. YouTube
// rejects thumbnails over 2MB and the source images can exceed that.
const maxThumbnailWidth = 1500

// stageThumbnail downloads the source image, scales it down to at most
// maxThumbnailWidth wide and re-encodes it as JPEG under dir. It returns
// the staged file path.
func stageThumbnail(ctx context.Context, client *http.Client, srcURL, dir string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return "", fmt.Errorf("youtube: fetch thumbnail %s: %w", srcURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("youtube: fetch thumbnail %s: %w", srcURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("youtube: fetch thumbnail %s: unexpected status %s", srcURL, resp.Status)
	}

	src, _, err := image.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("youtube: decode thumbnail %s: %w", srcURL, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("youtube: stage thumbnail: %w", err)
	}

	out := filepath.Join(dir, jpegBasename(srcURL))
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("youtube: stage thumbnail: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, resize(src), &jpeg.Options{Quality: 90}); err != nil {
		os.Remove(out)
		return "", fmt.Errorf("youtube: encode thumbnail: %w", err)
	}

	return out, nil
}

// resize scales img down to maxThumbnailWidth, preserving aspect ratio.
// Images already narrow enough pass through untouched.
func resize(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxThumbnailWidth {
		return img
	}

	scaled := image.NewRGBA(image.Rect(0, 0, maxThumbnailWidth, h*maxThumbnailWidth/w))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
	return scaled
}

// jpegBasename derives the staged filename from the source URL's path,
// forcing a .jpg extension since the staged file is always re-encoded as
// JPEG. URLs with no usable path segment fall back to "thumbnail.jpg".
func jpegBasename(rawURL string) string {
	var base string
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
	}
	if ext := path.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	if base == "" || base == "." || base == "/" {
		base = "thumbnail"
	}
	return base + ".jpg"
}
