package imageprefetch

import "errors"

// Error kinds surfaced by the Downloader and Prefetcher (spec §7). The
// Downloader returns a nil image with one of these wrapped as the cause;
// the Prefetcher surfaces ErrResourceExhaustion from NewPrefetcher and
// ErrMissingConfig from Start (non-positive sizes), and otherwise retries
// silently.
var (
	// ErrMissingConfig is returned when a required option (e.g. the
	// upstream URL) is absent at Downloader creation.
	ErrMissingConfig = errors.New("imageprefetch: missing required configuration")

	// ErrCacheDirUnavailable is returned when the configured cache
	// directory does not exist or is not a directory.
	ErrCacheDirUnavailable = errors.New("imageprefetch: cache directory unavailable")

	// ErrDownloadFailure is returned when the HTTP layer fails.
	ErrDownloadFailure = errors.New("imageprefetch: download failed")

	// ErrDecodeFailure is returned when the decoder rejects a response.
	ErrDecodeFailure = errors.New("imageprefetch: decode failed")

	// ErrDiskMirrorFailure is logged, never returned: spec mandates that
	// a failure to mirror a response onto disk must not block handing
	// the decoded image back to the caller.
	ErrDiskMirrorFailure = errors.New("imageprefetch: disk mirror failed")

	// ErrResourceExhaustion is returned when allocating the ring, HTTP
	// client, or a synchronization primitive fails.
	ErrResourceExhaustion = errors.New("imageprefetch: resource exhaustion")
)
