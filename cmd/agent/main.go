package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"satori/internal/agenthttp"
	satoriconfig "satori/internal/config"
	"satori/internal/diskusage"
	"satori/internal/platform/config"
	"satori/internal/platform/logger"
	"satori/internal/platform/metrics"
	"satori/internal/segment"
	"satori/internal/segment/watcher"
	"satori/internal/transcoder"
)

const (
	shutdownTimeout  = 10 * time.Second
	playlistPollRate = time.Second
	diskUsagePoll    = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "agent.toml", "path to the agent TOML configuration file")
	flag.Parse()

	cfg, err := config.Load[satoriconfig.Agent](*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agent: load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	met := metrics.NewAgent()

	idx := segment.NewIndex()

	sup := transcoder.New(transcoder.Config{
		VideoDirectory:          cfg.VideoDirectory,
		URL:                     cfg.Stream.URL,
		FFmpegInputArgs:         cfg.Stream.FFmpegInputArgs,
		HLSSegmentTime:          cfg.Stream.HLSSegmentTime,
		HLSRetainedSegmentCount: cfg.Stream.HLSRetainedSegmentCount,
		RestartDelay:            time.Duration(cfg.Stream.FFmpegRestartDelaySecs) * time.Second,
	}, log, met)

	pollInterval := playlistPollRate
	if cfg.Stream.HLSSegmentTime > 0 {
		pollInterval = time.Duration(cfg.Stream.HLSSegmentTime) * time.Second / 4
		if pollInterval < 250*time.Millisecond {
			pollInterval = 250 * time.Millisecond
		}
	}
	w := watcher.New(sup.PlaylistPath(), idx, pollInterval, log)

	h := agenthttp.NewHandler(idx, cfg.VideoDirectory, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/stream.m3u8", h.Playlist)
	r.Get("/hls", h.Playlist)
	r.Get("/segments/{filename}", h.Segment)
	r.Get("/frame.jpg", h.Frame)
	r.Get("/player", h.Player)
	r.Get("/healthz", h.Healthz)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() {
			met.SetSegmentIndexSize(idx.Len())
			if n, err := diskusage.Size(cfg.VideoDirectory); err == nil {
				met.SetVideoDirectoryBytes(n)
			}
		}).ServeHTTP(w, r)
	})

	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	supErrCh := make(chan error, 1)
	go func() { supErrCh <- sup.Run(ctx) }()
	go w.Run(ctx)
	go diskUsageLoop(ctx, cfg.VideoDirectory, met, log)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("agent starting",
		"http_addr", addr,
		"video_directory", cfg.VideoDirectory,
		"stream_url", cfg.Stream.URL,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-supErrCh:
		log.Error("transcoder supervisor failed fatally", "error", err)
		os.Exit(1)
	}

	log.Info("shutdown signal received, draining connections")
	cancel()
	sup.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("agent stopped")
}

func diskUsageLoop(ctx context.Context, dir string, met *metrics.Agent, log *slog.Logger) {
	ticker := time.NewTicker(diskUsagePoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := diskusage.Size(dir)
			if err != nil {
				log.Warn("disk usage scan failed", "error", err)
				continue
			}
			met.SetVideoDirectoryBytes(n)
			log.Info("video directory disk usage", "bytes", n, "human", diskusage.HumanSize(n))
		}
	}
}
