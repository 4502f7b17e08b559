package imageprefetch

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/sourcegraph/conc"
)

// DownloaderFunc is the single-image production callback the worker calls
// repeatedly. It is ordinarily Downloader.FetchOne, kept as a func value so
// tests can substitute synthetic producers without a real HTTP round trip.
type DownloaderFunc func(ctx context.Context) (Image, error)

// Prefetcher owns the background worker and the ring it fills. Exactly one
// worker goroutine ever runs per instance; the reader (whatever goroutine
// calls CountAvailable/JumpNext/JumpPrev) is expected to be
// single-threaded, matching a single producer and a single consumer — this
// type does not defend against concurrent readers.
type Prefetcher struct {
	download DownloaderFunc

	mu      sync.Mutex
	started bool
	ring    *ring
	target  int

	shutdown context.CancelFunc
	wg       *conc.WaitGroup
}

// NewPrefetcher creates a Prefetcher bound to download. It does nothing
// else: no goroutine runs and no ring exists until Start.
func NewPrefetcher(download DownloaderFunc) (*Prefetcher, error) {
	if download == nil {
		return nil, fmt.Errorf("imageprefetch: %w: downloader function is required", ErrResourceExhaustion)
	}
	return &Prefetcher{download: download}, nil
}

// Start allocates a ring of cacheSize slots and launches the worker
// targeting prefetchN images ahead of the cursor. prefetchN greater than
// cacheSize is clamped down to cacheSize; the worker's actual achievable
// depth is additionally bounded to cacheSize-1, since the ring must never
// become completely full.
func (p *Prefetcher) Start(cacheSize, prefetchN int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		panic("imageprefetch: Prefetcher.Start called twice")
	}
	if cacheSize < 1 || prefetchN < 1 {
		return fmt.Errorf("imageprefetch: %w: cache_size and prefetch_n must be >= 1", ErrMissingConfig)
	}
	if prefetchN > cacheSize {
		log.Printf("[prefetcher] prefetch_n %d exceeds cache_size %d, clamping", prefetchN, cacheSize)
		prefetchN = cacheSize
	}

	target := prefetchN
	if max := cacheSize - 1; target > max {
		target = max
	}

	p.ring = newRing(cacheSize)
	p.target = target
	p.started = true

	ctx, cancel := context.WithCancel(context.Background())
	p.shutdown = cancel
	p.wg = conc.NewWaitGroup()
	p.wg.Go(func() { p.runWorker(ctx) })
	p.wg.Go(func() {
		<-ctx.Done()
		p.ring.mu.Lock()
		p.ring.cond.Broadcast()
		p.ring.mu.Unlock()
	})
	return nil
}

// runWorker is the sole background goroutine: fill the ring up to target,
// then sleep until a broadcast (reader forward motion, a sibling push, or
// shutdown) gives it a reason to re-check. Download failures are logged
// and retried immediately; a transient failure never aborts the worker.
func (p *Prefetcher) runWorker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		for p.ring.countAvailable() < p.target {
			if ctx.Err() != nil {
				return
			}
			img, err := p.download(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[prefetcher] download failed, retrying: %v", err)
				continue
			}
			p.ring.push(img)
		}
		// Re-check the fill target and shutdown under the ring lock before
		// waiting, so a broadcast sent after the checks above is not lost.
		p.ring.mu.Lock()
		for ctx.Err() == nil && p.ring.countAvailableLocked() >= p.target {
			p.ring.cond.Wait()
		}
		p.ring.mu.Unlock()
	}
}

// CountAvailable reports the number of prefetched-but-unseen images ahead
// of the cursor. Zero before Start.
func (p *Prefetcher) CountAvailable() int {
	p.mu.Lock()
	rg := p.ring
	p.mu.Unlock()
	if rg == nil {
		return 0
	}
	return rg.countAvailable()
}

// JumpNext advances the cursor one image forward, returning false only
// when the ring has never produced anything (the pre-Start / not-yet-first
// image state). Once at the prefetch head it holds position and keeps
// returning the same image until the worker produces a new one.
func (p *Prefetcher) JumpNext() (Image, bool) {
	p.mu.Lock()
	rg := p.ring
	p.mu.Unlock()
	if rg == nil {
		return nil, false
	}
	return rg.jumpNext()
}

// JumpPrev moves the cursor one image back into bounded history, or
// reports false if already at the oldest retained image.
func (p *Prefetcher) JumpPrev() (Image, bool) {
	p.mu.Lock()
	rg := p.ring
	p.mu.Unlock()
	if rg == nil {
		return nil, false
	}
	return rg.jumpPrev()
}

// WaitForFirst blocks until at least one image has been prefetched or ctx
// is done, whichever comes first. It does not move the cursor; callers
// typically follow a successful wait with one JumpNext. This gives facade
// startup a bounded condition-variable wait instead of a busy spin.
func (p *Prefetcher) WaitForFirst(ctx context.Context) (Image, bool) {
	p.mu.Lock()
	rg := p.ring
	p.mu.Unlock()
	if rg == nil {
		return nil, false
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			rg.mu.Lock()
			rg.cond.Broadcast()
			rg.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	rg.mu.Lock()
	defer rg.mu.Unlock()
	for rg.countAvailableLocked() == 0 {
		if ctx.Err() != nil {
			return nil, false
		}
		rg.cond.Wait()
	}
	return rg.slots[rg.r], true
}

// Destroy cancels the worker, joins it, and releases every slot still held
// by the ring. Safe to call on a Prefetcher that was created but never
// started. Not safe to call twice.
func (p *Prefetcher) Destroy() {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return
	}

	p.shutdown()
	p.wg.Wait()
	p.ring.releaseAll()
}
