// Package main is the entry point for the form engine API.
//
//	@title			Go Form Engine API
//	@version		1.0
//	@description	Configurable forms: schema management, validated submissions, notifier settings and CSV export.
//
//	@contact.name	Form Engine Maintainers
//	@contact.url	https://github.com/tbourn/go-form-engine/issues
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-form-engine/docs"
	"github.com/tbourn/go-form-engine/internal/config"
	"github.com/tbourn/go-form-engine/internal/events"
	httpapi "github.com/tbourn/go-form-engine/internal/http"
	"github.com/tbourn/go-form-engine/internal/mail"
	"github.com/tbourn/go-form-engine/internal/notify"
	"github.com/tbourn/go-form-engine/internal/observability"
	"github.com/tbourn/go-form-engine/internal/repo"
	"github.com/tbourn/go-form-engine/internal/services"
	"github.com/tbourn/go-form-engine/internal/sysutil"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// purgeEvery is how often expired idempotency keys are removed.
const purgeEvery = 15 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	log := sysutil.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	zerolog.DefaultContextLogger = &log
	gin.SetMode(cfg.GinMode)

	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	docs.SwaggerInfo.Version = appVersion
	docs.SwaggerInfo.BasePath = cfg.APIBasePath

	if err := run(cfg, log, appVersion); err != nil {
		log.Fatal().Err(err).Msg("server_exit")
	}
}

func run(cfg config.Config, log zerolog.Logger, appVersion string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel_shutdown")
		}
	}()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	if cfg.SeedForms {
		n, err := repo.SeedForms(ctx, db)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info().Int("forms", n).Msg("seeded_forms")
		}
	}
	if err := repo.SeedSettings(ctx, db, cfg.SeedSettings()); err != nil {
		return err
	}

	sender, err := mail.NewSender(cfg.Mail.Provider, mail.SMTPConfig{
		Host:        cfg.Mail.Host,
		Port:        cfg.Mail.Port,
		Username:    cfg.Mail.Username,
		Password:    cfg.Mail.Password,
		From:        cfg.Mail.From,
		FromName:    cfg.Notify.FromName,
		UseTLS:      cfg.Mail.UseTLS,
		UseImplicit: cfg.Mail.UseImplicit,
		SkipVerify:  cfg.Mail.SkipVerify,
		Timeout:     cfg.Mail.Timeout,
	})
	if err != nil {
		return err
	}

	bus := events.NewBus(log.With().Str("component", "events").Logger())
	dispatcher := notify.NewDispatcher(log.With().Str("component", "notify").Logger(), cfg.Notify.Timeout)
	dispatcher.Subscribe(bus)

	forms := services.NewFormService(db, services.GormRepo{}, log)
	subs := services.NewSubmissionService(db, services.GormRepo{}, forms, bus, log)
	subs.IdemTTL = cfg.IdempotencyTTL
	subs.ExportMaxRows = cfg.ExportMaxRows
	settings := services.NewSettingsService(db, services.GormRepo{}, dispatcher, notify.Deps{
		Mail:     sender,
		HTTP:     &http.Client{Timeout: cfg.Notify.Timeout},
		FromName: cfg.Notify.FromName,
		Now:      time.Now,
	}, log)
	if err := settings.Reload(ctx); err != nil {
		return err
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, httpapi.Services{Forms: forms, Submissions: subs, Settings: settings}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go purgeIdempotency(ctx, db, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", appVersion).
			Str("commit", commit).
			Str("build_date", buildDate).
			Int("notifiers", len(dispatcher.Notifiers())).
			Msg("server_start")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("server_shutdown")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

func purgeIdempotency(ctx context.Context, db *gorm.DB, log zerolog.Logger) {
	t := time.NewTicker(purgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeIdempotency(ctx, db, now)
			if err != nil {
				log.Warn().Err(err).Msg("idempotency_purge")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("idempotency_purge")
			}
		}
	}
}
