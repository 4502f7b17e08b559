package imageprefetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/afero"
)

// Decoder is the external per-format decoder collaborator: it turns a raw
// downloaded byte buffer into an owned Image, or fails with
// ErrDecodeFailure. The core never implements decoding itself.
type Decoder interface {
	Decode(data []byte, name string) (Image, error)
}

// Downloader wraps a single fixed upstream URL, producing one freshly
// decoded Image per FetchOne call, optionally mirroring the raw response
// body onto disk under a strict "<cache>/<seq>_img.jpg" naming scheme.
type Downloader struct {
	url      string
	cacheDir string
	cleanup  bool
	fs       afero.Fs
	client   *http.Client
	decoder  Decoder

	seq int64
}

// DownloaderOption configures optional Downloader collaborators; the zero
// value of Downloader is never used directly, NewDownloader always applies
// sane defaults first.
type DownloaderOption func(*Downloader)

// WithFs overrides the filesystem used for cache-directory operations.
// Tests pass afero.NewMemMapFs() to avoid touching real disk.
func WithFs(fs afero.Fs) DownloaderOption {
	return func(d *Downloader) { d.fs = fs }
}

// WithHTTPClient overrides the HTTP client used for the upstream GET.
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = c }
}

// NewDownloader validates its configuration the way the original
// downloader_init does: a missing URL or an unusable cache directory fails
// fast rather than surfacing as a runtime download error.
func NewDownloader(url, cacheDir string, cleanupAfterUse bool, decoder Decoder, opts ...DownloaderOption) (*Downloader, error) {
	if url == "" {
		return nil, fmt.Errorf("imageprefetch: %w: www_url is required", ErrMissingConfig)
	}
	if decoder == nil {
		return nil, fmt.Errorf("imageprefetch: %w: decoder is required", ErrMissingConfig)
	}

	d := &Downloader{
		url:      url,
		cacheDir: cacheDir,
		cleanup:  cleanupAfterUse,
		fs:       afero.NewOsFs(),
		client:   &http.Client{},
		decoder:  decoder,
	}
	for _, opt := range opts {
		opt(d)
	}

	if cacheDir != "" {
		info, err := d.fs.Stat(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("imageprefetch: %w: %s: %v", ErrCacheDirUnavailable, cacheDir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("imageprefetch: %w: %s is not a directory", ErrCacheDirUnavailable, cacheDir)
		}
		if cleanupAfterUse {
			d.cleanCacheDir()
		}
	}

	return d, nil
}

// cleanCacheDir empties the cache directory of regular files. It is
// best-effort and idempotent: a scan failure is logged and the call
// returns, a sub-directory is reported and skipped rather than removed,
// and a per-file removal failure is logged but does not abort the rest of
// the scan.
func (d *Downloader) cleanCacheDir() {
	if d.cacheDir == "" {
		return
	}
	entries, err := afero.ReadDir(d.fs, d.cacheDir)
	if err != nil {
		log.Printf("[downloader] cache dir scan failed for %q: %v", d.cacheDir, err)
		return
	}
	for _, entry := range entries {
		p := filepath.Join(d.cacheDir, entry.Name())
		if entry.IsDir() {
			log.Printf("[downloader] unexpected sub-directory %q in cache path %q, skipping", p, d.cacheDir)
			continue
		}
		if err := d.fs.Remove(p); err != nil {
			log.Printf("[downloader] failed to remove cache file %q: %v", p, err)
		}
	}
}

// FetchOne performs one HTTP GET against the configured URL and hands the
// body to the decoder. The sequence counter increments on every call,
// including failed ones, so the on-disk name never collides even across
// retries. The caller owns the returned Image.
func (d *Downloader) FetchOne(ctx context.Context) (Image, error) {
	n := atomic.AddInt64(&d.seq, 1) - 1

	var body []byte
	err := retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %s", resp.Status)
		}
		buf, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = buf
		return nil
	}, retry.Attempts(1), retry.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailure, err)
	}

	if d.cacheDir != "" {
		name := filepath.Join(d.cacheDir, fmt.Sprintf("%d_img.jpg", n))
		if err := afero.WriteFile(d.fs, name, body, 0o644); err != nil {
			log.Printf("[downloader] %v: %q: %v", ErrDiskMirrorFailure, name, err)
		}
	}

	img, err := d.decoder.Decode(body, d.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return img, nil
}

// Close releases the HTTP client's idle connections and, if configured,
// re-runs the same best-effort cleanup FetchOne's disk mirroring left
// behind.
func (d *Downloader) Close() error {
	d.client.CloseIdleConnections()
	if d.cleanup {
		d.cleanCacheDir()
	}
	return nil
}
