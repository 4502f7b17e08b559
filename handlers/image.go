package handlers

import (
	"encoding/json"
	"net/http"

	"imgviewer/internal/imageprefetch"
)

// ImageHandler exposes a debug/admin view of an ImageList: ring occupancy
// and the current image's bytes, plus Next/Prev, which move the cursor. It
// is not part of the prefetch
// core's own contract, which names no wire protocol of its own; it exists
// so a developer can poke at a running facade from a browser.
type ImageHandler struct {
	list *imageprefetch.ImageList
}

// NewImageHandler wraps list for HTTP inspection.
func NewImageHandler(list *imageprefetch.ImageList) *ImageHandler {
	return &ImageHandler{list: list}
}

// Status reports ring occupancy as JSON.
func (h *ImageHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"count_available": h.list.CountAvailable(),
	})
}

// Current serves the current image's bytes, if the Image backing it
// implements imageprefetch.Encoder. Images that don't (most real decoders
// do) report 501, since there is nothing generic to serve.
func (h *ImageHandler) Current(w http.ResponseWriter, r *http.Request) {
	img, ok := h.list.Current()
	if !ok {
		http.Error(w, "no current image", http.StatusNotFound)
		return
	}
	enc, ok := img.(imageprefetch.Encoder)
	if !ok {
		http.Error(w, "current image does not support byte export", http.StatusNotImplemented)
		return
	}
	data, contentType, err := enc.Bytes()
	if err != nil {
		http.Error(w, "failed to encode image", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// Next advances the cursor forward and reports whether it moved.
func (h *ImageHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.jump(w, imageprefetch.DirNextFile)
}

// Prev moves the cursor backward and reports whether it moved.
func (h *ImageHandler) Prev(w http.ResponseWriter, r *http.Request) {
	h.jump(w, imageprefetch.DirPrevFile)
}

func (h *ImageHandler) jump(w http.ResponseWriter, dir imageprefetch.Direction) {
	ok := h.list.Jump(dir)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"moved": ok})
}

// Options handles CORS preflight.
func (h *ImageHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
