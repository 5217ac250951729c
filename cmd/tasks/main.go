package main

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskmanager/internal/archive"
	"taskmanager/internal/auth"
	"taskmanager/internal/logger"
	"taskmanager/internal/mail"
	"taskmanager/internal/reminder"
	"taskmanager/internal/server"
	"taskmanager/internal/services"
	db "taskmanager/repository/db"
	inmemory "taskmanager/repository/inmemory"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 30 * time.Second

// store is everything the services and the dispatcher need from persistence.
type store interface {
	services.UserRepository
	services.TaskRepository
	reminder.Store
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := server.ReadConfig(args)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	log, err := logger.New(cfg.Env, os.Stdout)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log.Info().Str("env", cfg.Env).Msg("starting task service")

	st, closeStore := openStore(cfg, log)
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authService := services.NewAuthService(st, tokens, log)
	taskService := services.NewTaskService(st, newArchiver(ctx, cfg, log), log)

	mailer, err := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, log)
	if err != nil {
		return fmt.Errorf("init mailer: %w", err)
	}

	api := server.NewTaskAPI(authService, taskService, tokens, cfg, log)
	if api == nil {
		return fmt.Errorf("failed to initialize api")
	}

	dispatcher := reminder.NewDispatcher(st, mailer, cfg.ReminderInterval, log)
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		dispatcher.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := api.Start(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		} else {
			log.Info().Msg("http server stopped")
		}

	case err := <-serverErr:
		log.Error().Err(err).Msg("http server failed")
	}

	cancel()
	<-dispatcherDone
	log.Info().Msg("task service stopped")
	return nil
}

// openStore applies migrations and connects to PostgreSQL, falling back to
// the in-memory store when the database is unavailable.
func openStore(cfg *server.Config, log zerolog.Logger) (store, func()) {
	if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
		log.Warn().Err(err).Msg("migrations not applied, using in-memory store")
		return inmemory.NewStorage(), func() {}
	}
	log.Info().Msg("migrations applied")

	pg, err := db.NewStorage(cfg.DBStr, log)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, using in-memory store")
		return inmemory.NewStorage(), func() {}
	}
	return pg, pg.Close
}

// newArchiver returns nil, which disables archived exports, when no bucket is
// configured or the S3 client cannot be built.
func newArchiver(ctx context.Context, cfg *server.Config, log zerolog.Logger) services.Archiver {
	s3cfg := archive.Config{
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	}
	if !s3cfg.Enabled() {
		log.Info().Msg("export archive disabled")
		return nil
	}

	a, err := archive.NewS3Archiver(ctx, s3cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("export archive unavailable")
		return nil
	}
	return a
}
