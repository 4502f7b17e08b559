package api

import (
	"net/http"

	"imgviewer/handlers"

	"github.com/gorilla/mux"
)

// corsMiddleware handles CORS for the debug API routes.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Register mounts the image-list debug/admin surface onto r: a tiny
// window into ring occupancy and the current image, plus POST routes that
// move the cursor forward and back, for manual inspection during
// development. The prefetch core itself names no wire
// protocol; this is an external consumer exercising it over HTTP.
func Register(r *mux.Router, imageHandler *handlers.ImageHandler) {
	api := r.PathPrefix("/api/imagelist").Subrouter()
	api.Use(corsMiddleware)

	api.HandleFunc("/status", imageHandler.Status).Methods(http.MethodGet)
	api.HandleFunc("/status", imageHandler.Options).Methods(http.MethodOptions)

	api.HandleFunc("/current", imageHandler.Current).Methods(http.MethodGet)
	api.HandleFunc("/current", imageHandler.Options).Methods(http.MethodOptions)

	api.HandleFunc("/next", imageHandler.Next).Methods(http.MethodPost)
	api.HandleFunc("/next", imageHandler.Options).Methods(http.MethodOptions)

	api.HandleFunc("/prev", imageHandler.Prev).Methods(http.MethodPost)
	api.HandleFunc("/prev", imageHandler.Options).Methods(http.MethodOptions)
}
