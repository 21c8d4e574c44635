package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-wellness/internal/adapters/auth/jwtauth"
	"pet-wellness/internal/adapters/files/localstore"
	"pet-wellness/internal/adapters/files/s3store"
	"pet-wellness/internal/adapters/notify/kafkanotify"
	"pet-wellness/internal/adapters/notify/lognotify"
	"pet-wellness/internal/adapters/notify/webhooknotify"
	"pet-wellness/internal/adapters/storage/postgres"
	"pet-wellness/internal/platform/config"
	"pet-wellness/internal/platform/logger"
	"pet-wellness/internal/ports/auth"
	"pet-wellness/internal/ports/files"
	"pet-wellness/internal/ports/notify"
	"pet-wellness/internal/router"
)

// @title Pet Wellness API
// @version 1.0
// @description Backend de bienestar de mascotas: vacunaciones, recordatorios y citas.
// @BasePath /
func main() {
	cfg := config.FromEnv()
	log := logger.NewFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := router.Options{
		Log:          log,
		ReminderHour: cfg.ReminderHour,
	}

	if cfg.DBDSN != "" {
		db, err := postgres.Open(cfg.DBDSN)
		if err != nil {
			log.Error("open database", map[string]any{"error": err})
			os.Exit(1)
		}
		defer db.Close()

		if err := postgres.RunMigrations(ctx, db); err != nil {
			log.Error("run migrations", map[string]any{"error": err})
			os.Exit(1)
		}
		opts.DB = db
	} else {
		log.Info("no DB_DSN, using in-memory repositories", nil)
	}

	var verifier auth.AuthVerifier
	if cfg.JWTSigningKey != "" {
		verifier = jwtauth.New(cfg.JWTSigningKey)
	} else {
		log.Info("no JWT_SIGNING_KEY, auth in dev mode (X-Debug-User-ID)", nil)
	}
	opts.AuthVerifier = verifier

	var notifier notify.Notifier
	switch {
	case len(cfg.KafkaBrokers) > 0:
		kn := kafkanotify.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kn.Close()
		notifier = kn
	case cfg.WebhookURL != "":
		notifier = webhooknotify.New(cfg.WebhookURL)
	default:
		notifier = lognotify.New(log)
	}
	opts.Notifier = notifier

	var attachments files.Store
	if cfg.S3Bucket != "" {
		st, err := s3store.New(ctx, cfg.S3Bucket)
		if err != nil {
			log.Error("init s3 store", map[string]any{"error": err})
			os.Exit(1)
		}
		attachments = st
	} else {
		st, err := localstore.New(cfg.UploadsDir)
		if err != nil {
			log.Error("init local store", map[string]any{"error": err})
			os.Exit(1)
		}
		attachments = st
	}
	opts.Attachments = attachments

	handler, sched := router.NewRouter(opts)

	go sched.Start(ctx)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting server", map[string]any{"addr": cfg.Addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", map[string]any{"error": err})
		os.Exit(1)
	}
}
