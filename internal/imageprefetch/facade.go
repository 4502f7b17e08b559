package imageprefetch

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"imgviewer/config"
)

// startupWait bounds how long Scan will wait for the very first prefetched
// image before giving up and reporting failure, so a stalled upstream never
// hangs Scan forever. The wait only happens when no placeholder is
// configured.
const startupWait = 30 * time.Second

// Direction enumerates the viewer's movement verbs. Only DirNextFile and
// DirPrevFile are meaningful for a remote image list; the others are kept
// so a future source (e.g. a local filesystem list) can implement the
// same verb set without changing this interface.
type Direction int

const (
	DirFirst Direction = iota
	DirLast
	DirNextFile
	DirPrevFile
	DirNextDir
	DirPrevDir
)

// ImageList is the thin coordinator that binds configuration to a
// Downloader and a Prefetcher and translates the viewer's movement verbs
// into cursor operations. It holds no image decoding or rendering logic
// of its own.
type ImageList struct {
	cfg     ListConfig
	decoder Decoder

	downloader *Downloader
	prefetcher *Prefetcher

	current     Image
	hasCurrent  bool
	placeholder Image
}

// NewImageList creates a facade bound to decoder. Nothing is opened until
// Scan.
func NewImageList(decoder Decoder) *ImageList {
	return &ImageList{decoder: decoder}
}

// Init registers the facade's "list" configuration section. It performs no
// I/O: Scan is what actually opens network and disk resources.
func (l *ImageList) Init(reg *config.Registry) {
	l.cfg = DefaultListConfig()
	RegisterListConfig(reg, &l.cfg)
}

// Scan constructs the downloader and prefetcher from whatever configuration
// has been applied so far and positions the cursor on the first available
// image. files and n exist only so this source satisfies the same Scan
// shape a local-filesystem image list would; a remote source ignores them.
//
// If a placeholder is configured, Scan returns immediately with current set
// to it: the prefetcher still starts and fills in the background, ready
// for the first Jump, but nothing blocks on the network up front. Only
// when no placeholder is configured does Scan spin on the first real
// image, bounded by startupWait.
func (l *ImageList) Scan(_ []string, _ int) bool {
	cacheDir := ""
	if l.cfg.SaveToFile {
		cacheDir = l.cfg.CacheDir
	}

	downloader, err := NewDownloader(l.cfg.URL, cacheDir, l.cfg.CleanupCache, l.decoder)
	if err != nil {
		log.Printf("[imagelist] downloader unavailable: %v", err)
		return l.fallbackToPlaceholder()
	}
	l.downloader = downloader

	prefetcher, err := NewPrefetcher(downloader.FetchOne)
	if err != nil {
		log.Printf("[imagelist] prefetcher unavailable: %v", err)
		return l.fallbackToPlaceholder()
	}
	if err := prefetcher.Start(l.cfg.CacheLimit, l.cfg.PrefetchN); err != nil {
		log.Printf("[imagelist] prefetcher failed to start: %v", err)
		return l.fallbackToPlaceholder()
	}
	l.prefetcher = prefetcher

	if l.cfg.NoImageAsset != "" {
		return l.fallbackToPlaceholder()
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupWait)
	defer cancel()
	if _, ok := prefetcher.WaitForFirst(ctx); !ok {
		log.Printf("[imagelist] no image available after %s", startupWait)
		return false
	}

	img, ok := prefetcher.JumpNext()
	if !ok {
		return false
	}
	l.current = img
	l.hasCurrent = true
	return true
}

// fallbackToPlaceholder loads the configured no_image_asset, if any, so
// Current still has something to return. It reports Scan's own success,
// which mirrors a missing/failed upstream as "scanned, nothing real to
// show" rather than a hard error the viewer must special-case.
func (l *ImageList) fallbackToPlaceholder() bool {
	if l.cfg.NoImageAsset == "" {
		return false
	}
	img, err := loadPlaceholder(l.cfg.NoImageAsset, l.decoder)
	if err != nil {
		log.Printf("[imagelist] placeholder load failed: %v", err)
		return false
	}
	l.placeholder = img
	return true
}

func loadPlaceholder(path string, decoder Decoder) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("imageprefetch: read placeholder: %w", err)
	}
	img, err := decoder.Decode(data, path)
	if err != nil {
		return nil, fmt.Errorf("imageprefetch: decode placeholder: %w", err)
	}
	return img, nil
}

// Current returns the image the cursor is presently on, preferring a real
// prefetched image over the placeholder.
func (l *ImageList) Current() (Image, bool) {
	if l.hasCurrent {
		return l.current, true
	}
	if l.placeholder != nil {
		return l.placeholder, true
	}
	return nil, false
}

// Jump moves the cursor per dir, returning false if dir is not meaningful
// for this source or the move is not currently possible (cache exhausted
// forward, or already at the oldest retained image backward).
func (l *ImageList) Jump(dir Direction) bool {
	if l.prefetcher == nil {
		return false
	}
	switch dir {
	case DirNextFile:
		img, ok := l.prefetcher.JumpNext()
		if !ok {
			return false
		}
		if l.hasCurrent && img == l.current {
			// JumpNext held at the prefetch head: the cursor did not move.
			return false
		}
		l.current, l.hasCurrent = img, true
		return true
	case DirPrevFile:
		img, ok := l.prefetcher.JumpPrev()
		if !ok {
			return false
		}
		l.current, l.hasCurrent = img, true
		return true
	default:
		return false
	}
}

// CountAvailable reports the Prefetcher's current prefetched-but-unseen
// depth, or zero before Scan.
func (l *ImageList) CountAvailable() int {
	if l.prefetcher == nil {
		return 0
	}
	return l.prefetcher.CountAvailable()
}

// Free tears everything Scan opened back down: the worker is cancelled and
// joined, the ring's images are closed, the HTTP client's connections are
// released, and the placeholder (if any) is closed.
func (l *ImageList) Free() {
	if l.prefetcher != nil {
		l.prefetcher.Destroy()
		l.prefetcher = nil
	}
	if l.downloader != nil {
		l.downloader.Close()
		l.downloader = nil
	}
	if l.placeholder != nil {
		l.placeholder.Close()
		l.placeholder = nil
	}
	l.hasCurrent = false
	l.current = nil
}
