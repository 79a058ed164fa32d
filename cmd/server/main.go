// Command server runs the Open Claw Enterprise gateway: email code
// verification, session management, and keyword-routed AI agent chat over a
// Groq (OpenAI-compatible) completion backend.
//
// Configuration is environment-driven (optionally via a local .env file);
// see internal/config for the full list of variables and defaults.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/jiggy769/OPENCLAW-ENTERPRISE/docs"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/config"
	httpapi "github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/http"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/llm"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/mail"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/observability"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/repo"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/services"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/store"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "3.0.0"

// shutdownGrace bounds how long in-flight requests may run after SIGTERM.
const shutdownGrace = 10 * time.Second

// @title           Open Claw Enterprise API
// @version         3.0.0
// @description     Email verification gateway and keyword-routed AI agent chat.
// @BasePath        /api/v1
func main() {
	// Local development convenience; absent .env files are not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Sessions live in memory unless DB_PATH opts into SQLite persistence.
	var sessions services.SessionStore = store.NewSessions()
	persistent := false
	if cfg.DBPath != "" {
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open sqlite failed")
		}
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate failed")
		}
		sessions = &repo.Store{DB: db}
		persistent = true
	}

	mailer := mail.NewResend(cfg.Mail.APIKey, cfg.Mail.From, cfg.Mail.BaseURL)
	client := llm.New(cfg.Groq)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Codes:      store.NewCodes(),
		Sessions:   sessions,
		Mailer:     mailer,
		Client:     client,
		Version:    version,
		Persistent: persistent,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("model", cfg.Groq.Model).
			Bool("persistent", persistent).
			Bool("mail_configured", mailer.Configured()).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
