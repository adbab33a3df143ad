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

	satoriconfig "satori/internal/config"
	"satori/internal/event"
	"satori/internal/eventhttp"
	"satori/internal/mqttutil"
	"satori/internal/platform/config"
	"satori/internal/platform/logger"
	"satori/internal/platform/metrics"
	"satori/internal/trigger"
)

const shutdownTimeout = 10 * time.Second

func toTemplate(t satoriconfig.TriggerTemplate) trigger.Template {
	return trigger.Template{Cameras: t.Cameras, Reason: t.Reason, PreSecs: t.PreSecs, PostSecs: t.PostSecs}
}

func main() {
	configPath := flag.String("config", "event-processor.toml", "path to the event processor TOML configuration file")
	flag.Parse()

	cfg, err := config.Load[satoriconfig.EventProcessor](*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "event-processor: load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	met := metrics.NewEventProcessor()

	eventTTL := time.Duration(cfg.EventTTLSecs) * time.Second
	set := event.NewSet(eventTTL)

	if loaded, err := event.Load(cfg.EventFile, log); err != nil {
		log.Warn("failed to load persisted event file, starting empty", "error", err)
	} else {
		set.Restore(loaded)
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
		fmt.Fprintf(os.Stderr, "event-processor: connect mqtt: %v\n", err)
		os.Exit(1)
	}
	defer mqttClient.Disconnect(250)

	interval := time.Duration(cfg.IntervalSecs) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	proc := event.NewProcessor(set, cfg.EventFile, interval, mqttClient, log, met)

	templates := make(map[string]trigger.Template, len(cfg.Triggers.Templates))
	for name, tmpl := range cfg.Triggers.Templates {
		templates[name] = toTemplate(tmpl)
	}
	h := eventhttp.NewHandler(set, toTemplate(cfg.Triggers.Fallback), templates, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Post("/trigger", h.Trigger)
	r.Get("/healthz", h.Healthz)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetOpenEvents(set.Len()) }).ServeHTTP(w, r)
	})

	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8081"
	}
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go proc.Run(ctx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("event processor starting", "http_addr", addr, "event_file", cfg.EventFile)

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

	log.Info("event processor stopped")
}
