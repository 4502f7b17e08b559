// Package viewerdemo is a minimal stand-in for the real viewer UI (canvas
// rendering, keybinding, slideshow timer) — all of which stay out of scope.
// It drives an imageprefetch.ImageList through the same init -> scan ->
// current/jump loop -> free lifecycle a real viewer would, so the facade
// has a realistic consumer end to end.
package viewerdemo

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"imgviewer/internal/imageprefetch"
)

// Run scans list (already Init'd and configured by the caller) and walks
// forward through every image the prefetcher is willing to produce within
// one pass, logging each step with a per-run request ID the way the
// teacher's playback prequeue tags in-flight work.
func Run(logger *slog.Logger, list *imageprefetch.ImageList, steps int) {
	runID := uuid.New().String()
	logger = logger.With("run_id", runID)

	if !list.Scan(nil, 0) {
		logger.Warn("viewerdemo: scan produced no image")
		return
	}
	defer list.Free()

	if img, ok := list.Current(); ok {
		logger.Info("viewerdemo: positioned on first image", "image", describe(img))
	}

	for i := 0; i < steps; i++ {
		if !list.Jump(imageprefetch.DirNextFile) {
			logger.Info("viewerdemo: cache exhausted, holding position", "step", i)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		img, _ := list.Current()
		logger.Info("viewerdemo: advanced", "step", i, "available", list.CountAvailable(), "image", describe(img))
	}
}

func describe(img imageprefetch.Image) string {
	if img == nil {
		return "<nil>"
	}
	return "<image>"
}
