package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"imgviewer/api"
	"imgviewer/config"
	"imgviewer/handlers"
	"imgviewer/internal/imageprefetch"
	"imgviewer/internal/imageprefetch/imagedecoder"
	"imgviewer/internal/logsetup"
	"imgviewer/internal/viewerdemo"

	"github.com/gorilla/mux"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	demoSteps := flag.Int("demo-steps", 20, "number of forward jumps the sample viewer walks after scan")
	flag.Parse()

	fmt.Println("imgviewer starting...")

	configPath := os.Getenv("IMGVIEWER_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	logger := logsetup.Init(settings.Log)

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// The HTTP debug surface and the one-shot sample viewer each get their
	// own ImageList: the facade's fields are unsynchronized and the demo
	// calls Free() when it finishes, so the two must never share an
	// instance while both are live.
	list := newScannedList(settings, logger)

	router := mux.NewRouter()
	api.Register(router, handlers.NewImageHandler(list))

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Info("debug HTTP surface listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("debug HTTP surface stopped", "error", err)
		}
	}()

	demoList := imageprefetch.NewImageList(&imagedecoder.Standard{MaxWidth: 1920})
	demoReg := config.NewRegistry()
	demoList.Init(demoReg)
	for _, res := range settings.List.ApplyTo(demoReg) {
		if res != config.OK {
			logger.Warn("rejected list configuration value", "result", res)
		}
	}
	viewerdemo.Run(logger, demoList, *demoSteps)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	srv.Close()
}

// newScannedList builds and scans the ImageList backing the long-lived HTTP
// debug surface. A failed Scan is logged but not fatal: the surface still
// comes up, just reporting no current image until an operator fixes the
// upstream configuration and the process is restarted.
func newScannedList(settings config.Settings, logger *slog.Logger) *imageprefetch.ImageList {
	reg := config.NewRegistry()
	list := imageprefetch.NewImageList(&imagedecoder.Standard{MaxWidth: 1920})
	list.Init(reg)
	for _, res := range settings.List.ApplyTo(reg) {
		if res != config.OK {
			logger.Warn("rejected list configuration value", "result", res)
		}
	}
	if !list.Scan(nil, 0) {
		logger.Warn("initial scan produced no image")
	}
	return list
}
