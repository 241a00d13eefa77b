package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-logger/glog"
	"github.com/robfig/cron/v3"

	"kolekta/internal/config"
	"kolekta/internal/handler"
	"kolekta/internal/i18n"
	"kolekta/internal/identity"
	"kolekta/internal/notify"
	"kolekta/internal/service"
	"kolekta/internal/store"
)

var cli struct {
	Config   string `help:"Path to YAML config file." type:"path"`
	Port     string `help:"Override listen port."`
	InMemory bool   `help:"Run against in-memory stores (dev only)." name:"in-memory"`
}

func main() {
	kong.Parse(&cli, kong.Name("kolekta-server"),
		kong.Description("Collection request and schedule lifecycle service."))

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cli.Port != "" {
		cfg.Port = cli.Port
	}

	logger := glog.NewLogger(
		glog.WithLoggerTypeJSON(),
		glog.WithLevel(cfg.LogLevel),
	)

	i18n.Init(cfg.DefaultLocale)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	var (
		requestStore      service.RequestStore
		scheduleStore     service.ScheduleStore
		attendanceStore   service.AttendanceStore
		profileStore      service.ProfileStore
		notificationStore notify.Store
	)
	if cli.InMemory {
		logger.Warn("running with in-memory stores, nothing will be persisted")
		requestStore = store.NewMemoryRequestStore()
		scheduleStore = store.NewMemoryScheduleStore()
		attendanceStore = store.NewMemoryAttendanceStore()
		profileStore = store.NewMemoryProfileStore()
		notificationStore = store.NewMemoryNotificationStore()
	} else {
		db, err := store.NewMongoDB(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer db.Close(context.Background())

		if requestStore, err = store.NewRequestStore(ctx, db); err != nil {
			log.Fatalf("Failed to init request store: %v", err)
		}
		if scheduleStore, err = store.NewScheduleStore(ctx, db); err != nil {
			log.Fatalf("Failed to init schedule store: %v", err)
		}
		if attendanceStore, err = store.NewAttendanceStore(ctx, db); err != nil {
			log.Fatalf("Failed to init attendance store: %v", err)
		}
		if profileStore, err = store.NewProfileStore(ctx, db); err != nil {
			log.Fatalf("Failed to init profile store: %v", err)
		}
		if notificationStore, err = store.NewNotificationStore(ctx, db); err != nil {
			log.Fatalf("Failed to init notification store: %v", err)
		}
	}
	cancel()

	dispatcher := notify.NewDispatcher(notificationStore, logger)
	resolver := identity.NewStoreResolver(profileStore)

	requestSvc := service.NewRequestService(requestStore, profileStore, dispatcher, logger)
	scheduleSvc := service.NewScheduleService(scheduleStore, attendanceStore, profileStore, dispatcher, logger)
	attendanceSvc := service.NewAttendanceService(attendanceStore, logger)

	// Notification retry sweep
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.NotifyRetrySchedule, func() {
		dispatcher.Flush(context.Background())
	}); err != nil {
		log.Fatalf("Invalid notify retry schedule %q: %v", cfg.NotifyRetrySchedule, err)
	}
	sweeper.Start()

	mux := http.NewServeMux()
	handler.NewRequestHandler(requestSvc, resolver).RegisterRoutes(mux)
	handler.NewScheduleHandler(scheduleSvc, resolver).RegisterRoutes(mux)
	handler.NewAttendanceHandler(attendanceSvc, resolver).RegisterRoutes(mux)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.LoggingMiddleware(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("kolekta service started on :%s (env: %s)", cfg.Port, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	<-sweeper.Stop().Done()
	if n := dispatcher.PendingCount(); n > 0 {
		logger.Warn("flushing %d pending notifications before exit", n)
		dispatcher.Flush(context.Background())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}
