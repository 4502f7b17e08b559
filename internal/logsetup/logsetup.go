// Package logsetup wires the rotating file log sink the rest of the
// application logs through.
package logsetup

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"imgviewer/config"
)

// Init points both the standard library logger (used for the
// component-tagged "[downloader]"/"[prefetcher]"/"[imagelist]" chatter) and
// a slog.Logger (used for structured application events) at a shared
// rotating file sink, mirroring stdout. It returns the slog.Logger for
// callers that want structured fields; the standard logger is left as the
// process-wide default.
func Init(cfg config.LogConfig) *slog.Logger {
	if cfg.File == "" {
		return slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		log.Printf("logsetup: could not create log directory for %s: %v", cfg.File, err)
		return slog.Default()
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	multi := io.MultiWriter(os.Stdout, fileWriter)

	log.SetOutput(multi)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	level := parseLevel(cfg.Level)
	logger := slog.New(slog.NewTextHandler(multi, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	log.Printf("logsetup: logging to %s", cfg.File)
	return logger
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
