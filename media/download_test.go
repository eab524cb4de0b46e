package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestDownloader_RejectsUntrustedHost(t *testing.T) {
	var transfers atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transfers.Add(1)
	}))
	defer srv.Close()

	d := &Downloader{AllowedPrefix: "https://n.yapp.li/", Client: srv.Client()}

	urls := []string{
		"http://evil.example/x.m3u8",
		"http://n.yapp.li/x.m3u8", // wrong scheme
		"https://evil.example/n.yapp.li/x.m3u8",
		srv.URL + "/x.m3u8",
	}
	for _, url := range urls {
		_, err := d.Download(context.Background(), url, "x", t.TempDir())
		if !errors.Is(err, ErrUntrustedSource) {
			t.Errorf("Download(%q) error = %v, want ErrUntrustedSource", url, err)
		}
	}

	if transfers.Load() != 0 {
		t.Errorf("untrusted URLs caused %d network calls, want 0", transfers.Load())
	}
}

func TestDownloader_DownloadsOnceThenSkips(t *testing.T) {
	var transfers atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transfers.Add(1)
		w.Write([]byte("#EXTM3U\n#EXT-X-VERSION:3\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := &Downloader{AllowedPrefix: srv.URL, Client: srv.Client()}

	first, err := d.Download(context.Background(), srv.URL+"/video.m3u8", "MisoSoup", dir)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	want := filepath.Join(dir, "MisoSoup.m3u8")
	if first != want {
		t.Errorf("Download() path = %q, want %q", first, want)
	}

	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "#EXTM3U\n#EXT-X-VERSION:3\n" {
		t.Errorf("downloaded content = %q", data)
	}

	second, err := d.Download(context.Background(), srv.URL+"/video.m3u8", "MisoSoup", dir)
	if err != nil {
		t.Fatalf("Download() second call error = %v", err)
	}
	if second != first {
		t.Errorf("second Download() path = %q, want %q", second, first)
	}
	if transfers.Load() != 1 {
		t.Errorf("two Download() calls made %d transfers, want 1", transfers.Load())
	}
}

func TestDownloader_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := &Downloader{AllowedPrefix: srv.URL, Client: srv.Client()}

	_, err := d.Download(context.Background(), srv.URL+"/video.m3u8", "x", dir)
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("Download() error = %T, want *DownloadError", err)
	}
	if dlErr.Status != http.StatusGone {
		t.Errorf("DownloadError.Status = %d, want %d", dlErr.Status, http.StatusGone)
	}

	assertDirEmpty(t, dir)
}

func TestDownloader_NoPartialFileAfterFailure(t *testing.T) {
	// Announce more bytes than are sent, then drop the connection so the
	// streaming copy fails mid-body.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.Write([]byte("#EXTM3U\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := &Downloader{AllowedPrefix: srv.URL, Client: srv.Client()}

	_, err := d.Download(context.Background(), srv.URL+"/video.m3u8", "Truncated", dir)
	if err == nil {
		t.Fatal("Download() expected error for truncated body, got nil")
	}

	// Neither the final path nor the temporary may survive the failure; a
	// leftover would wrongly satisfy the next run's idempotence check.
	assertDirEmpty(t, dir)
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, f := range files {
		t.Errorf("unexpected file left behind: %s", f.Name())
	}
}
