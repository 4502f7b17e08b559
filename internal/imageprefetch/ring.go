package imageprefetch

import (
	"log"
	"sync"
)

// ring is the fixed-length cyclic slot array backing the Prefetcher. It
// has a read cursor r, the next slot due to be delivered, and a write
// cursor w, the frontier the worker writes new images into. Slots from r
// up to but not including w (moving forward) are prefetched-but-unseen;
// the slot just before r is the one last delivered, and the populated
// slots behind it, back to but not including w, are bounded history. A
// few invariants hold throughout:
//
//   - 0 <= r, w < len(slots)
//   - a slot is nil only until the worker first writes it
//   - w never advances onto r: the ring is never allowed to become
//     completely full, since r == w also represents "empty"
//   - a slot, once populated, is only ever overwritten by the worker at w
//   - effective prefetch depth never exceeds len(slots)-1
//
// Only the worker goroutine ever advances w; only the reader ever moves r.
// The mutex serializes both plus the occasional concurrent read from a
// count-available caller.
type ring struct {
	mu   sync.Mutex
	cond *sync.Cond

	slots []Image
	r, w  int
}

func newRing(size int) *ring {
	rg := &ring{slots: make([]Image, size)}
	rg.cond = sync.NewCond(&rg.mu)
	return rg
}

func (rg *ring) size() int { return len(rg.slots) }

// countAvailableLocked returns the number of undelivered slots, from r up
// to but not including w, i.e. (w - r) mod n. Caller must hold mu.
func (rg *ring) countAvailableLocked() int {
	n := len(rg.slots)
	return ((rg.w-rg.r)%n + n) % n
}

func (rg *ring) countAvailable() int {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	return rg.countAvailableLocked()
}

// push writes img at the current frontier and advances w, refusing the
// write outright if doing so would let w catch r (the ring must never
// become completely full, since r == w is also how an empty ring is
// represented). The worker's own fill loop already stops requesting more
// once its available count reaches its target, so this only ever fires as
// a backstop against a caller bypassing that discipline. The slot being
// overwritten, if any (a stale history entry the reader has long since
// passed), is closed outside the lock.
//
// The condition variable is broadcast here too, on top of the reader's own
// forward-motion broadcast: this lets WaitForFirst wake as soon as the
// very first image lands, without waiting for a caller to issue JumpNext
// first.
func (rg *ring) push(img Image) {
	rg.mu.Lock()
	n := len(rg.slots)
	next := (rg.w + 1) % n
	if next == rg.r {
		rg.mu.Unlock()
		img.Close()
		return
	}
	evicted := rg.slots[rg.w]
	rg.slots[rg.w] = img
	rg.w = next
	rg.cond.Broadcast()
	rg.mu.Unlock()

	if evicted != nil {
		evicted.Close()
	}
}

// waitOnce blocks until the next broadcast (forward reader motion, a fresh
// push, or shutdown). The worker re-checks its own predicate after waking.
func (rg *ring) waitOnce() {
	rg.mu.Lock()
	rg.cond.Wait()
	rg.mu.Unlock()
}

// jumpNext delivers the oldest not-yet-seen slot and advances r onto it, so
// a run of several pending images is handed out in the order they were
// produced rather than skipping straight to the newest. If nothing new has
// landed since the last call (r == w), it holds at the last delivered slot
// and returns that again -- a cache-exhausted caller sees the same image
// until the worker produces a new one -- or reports no image at all if
// nothing has ever been delivered. Forward motion broadcasts so the worker
// can reconsider whether there's now room to prefetch further; holding does
// not, since it changes nothing about ring occupancy.
func (rg *ring) jumpNext() (Image, bool) {
	rg.mu.Lock()
	n := len(rg.slots)

	if rg.r == rg.w {
		cur := (rg.r - 1 + n) % n
		img := rg.slots[cur]
		rg.mu.Unlock()
		if img != nil {
			log.Printf("[prefetcher] reached last available image, waiting for more cache...")
		}
		return img, img != nil
	}

	img := rg.slots[rg.r]
	rg.r = (rg.r + 1) % n
	rg.cond.Broadcast()
	rg.mu.Unlock()
	return img, true
}

// jumpPrev moves the cursor back onto the previously delivered slot, into
// bounded history. It refuses to move past the oldest slot the worker has
// not yet overwritten (detected by an empty predecessor slot, or the
// predecessor being the write frontier itself), and refuses outright if
// nothing has been delivered yet. When the current slot is itself the
// write frontier, every other slot holds an unseen image, so there is no
// history and it refuses too. Backward motion never broadcasts: it can't
// create new work for the worker.
func (rg *ring) jumpPrev() (Image, bool) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	n := len(rg.slots)

	cur := (rg.r - 1 + n) % n
	if rg.slots[cur] == nil || cur == rg.w {
		return nil, false
	}
	prev := (cur - 1 + n) % n
	if prev == rg.w || rg.slots[prev] == nil {
		return nil, false
	}
	rg.r = cur
	return rg.slots[prev], true
}

// releaseAll closes every populated slot. Called once, after the worker
// has been joined, as part of destroy.
func (rg *ring) releaseAll() {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	for i, img := range rg.slots {
		if img != nil {
			img.Close()
			rg.slots[i] = nil
		}
	}
}
