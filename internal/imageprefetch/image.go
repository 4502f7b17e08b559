package imageprefetch

// Image is the opaque handle the Downloader produces and the ring owns
// until it is evicted or the Prefetcher is destroyed. The core never
// inspects pixel content; only Close is called, and only once per handle,
// by whichever owner currently holds it.
type Image interface {
	Close() error
}

// Encoder is an optional capability an Image may implement to expose its
// bytes for serving over HTTP (the debug/admin surface) or for re-mirroring
// in a different format. Not every Image needs to support it.
type Encoder interface {
	// Bytes returns an encoded byte representation of the image and its
	// MIME content type.
	Bytes() (data []byte, contentType string, err error)
}
