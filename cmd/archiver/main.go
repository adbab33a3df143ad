package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"satori/internal/archiver"
	satoriconfig "satori/internal/config"
	"satori/internal/event"
	"satori/internal/mqttutil"
	"satori/internal/platform/config"
	"satori/internal/platform/logger"
	"satori/internal/platform/metrics"
	"satori/internal/queue"
	"satori/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "archiver.toml", "path to the archiver TOML configuration file")
	flag.Parse()

	cfg, err := config.Load[satoriconfig.Archiver](*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "archiver: load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	met := metrics.NewArchiver()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "archiver: init storage: %v\n", err)
		os.Exit(1)
	}

	q := queue.NewQueue()
	if loaded, err := queue.Load(cfg.QueueFile, log); err != nil {
		log.Warn("failed to load persisted queue file, starting empty", "error", err)
	} else {
		q.Restore(loaded)
	}

	knownCameras := make(map[string]bool, len(cfg.Cameras))
	for _, c := range cfg.Cameras {
		knownCameras[c] = true
	}
	if len(knownCameras) == 0 {
		knownCameras = nil // unset allow-list means accept every camera
	}

	mqttClient, err := mqttutil.Connect(mqttutil.Config{
		Broker:   cfg.MQTT.Broker,
		Port:     cfg.MQTT.Port,
		ClientID: cfg.MQTT.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		Topic:    cfg.MQTT.Topic,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "archiver: connect mqtt: %v\n", err)
		os.Exit(1)
	}
	defer mqttClient.Disconnect(250)

	err = mqttutil.Subscribe(mqttClient, func(cmd event.ArchiveCommand) {
		archiver.EnqueueCommand(q, knownCameras, cmd, log, met)
	}, func(err error) {
		log.Warn("failed to decode archive command", "error", err)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "archiver: subscribe mqtt: %v\n", err)
		os.Exit(1)
	}

	backoffBase := time.Duration(cfg.BackoffBaseSecs) * time.Second
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	backoffMax := time.Duration(cfg.BackoffMaxSecs) * time.Second
	if backoffMax <= 0 {
		backoffMax = time.Hour
	}
	fetchTimeout := time.Duration(cfg.FetchTimeoutSecs) * time.Second
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	interval := time.Duration(cfg.IntervalMillis) * time.Millisecond
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	worker := archiver.NewWorker(q, cfg.QueueFile, store, cfg.Agents, fetchTimeout, backoffBase, backoffMax, interval, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() {
			met.SetQueueLength(metrics.TaskKindSegments, q.LenByKind(queue.KindFetchAndStoreSegments))
			met.SetQueueLength(metrics.TaskKindEvent, q.LenByKind(queue.KindStoreEventMetadata))
		}).ServeHTTP(w, r)
	})

	addr := cfg.MetricsAddr
	if addr == "" {
		addr = ":8082"
	}
	srv := &http.Server{Addr: addr, Handler: r}

	go worker.Run(ctx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("archiver starting", "metrics_addr", addr, "queue_file", cfg.QueueFile, "storage_kind", cfg.Storage.Kind)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("archiver stopped")
}
