package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"edubook.org/internal/auth"
	"edubook.org/internal/college"
	"edubook.org/internal/config"
	"edubook.org/internal/httpapi"
	"edubook.org/internal/obs"
	"edubook.org/internal/session"
	"edubook.org/internal/token"
	"edubook.org/internal/user"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)
	log := obs.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	ttl, err := cfg.TokenTTL()
	if err != nil {
		log.Fatal().Err(err).Msg("parse token ttl")
	}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("open db")
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	codec, err := token.NewCodec(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		log.Fatal().Err(err).Msg("token codec")
	}

	// Without a database the service runs on in-memory stores; useful for
	// local development, never for production.
	var (
		users    user.Store
		sessions session.Store
		colleges college.Store
	)
	if db != nil {
		users = user.NewPGStore(db)
		sessions = session.NewPGStore(db)
		colleges = college.NewPGStore(db)
	} else {
		log.Warn().Msg("DATABASE_URL not set; using in-memory stores")
		users = user.NewMemoryStore()
		sessions = session.NewMemoryStore()
		colleges = college.NewMemoryStore()
	}

	mgr := session.NewManager(sessions)
	svc := auth.NewService(users, colleges, mgr, codec, ttl,
		auth.WithBcryptCost(cfg.BcryptCost))

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, svc, colleges, version)

	handler := httpapi.RequestID(
		httpapi.LoggingJSON(
			httpapi.SecurityHeaders(
				httpapi.CORS(
					httpapi.MaxBodyBytes(
						httpapi.RateLimit(api.Handler(), cfg.RateLimitBurst, cfg.RateLimitPerSecond),
						cfg.MaxBodyBytes,
					),
				),
			),
		),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Str("version", version).Msg("starting edubook-api")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Info().Msg("stopped")
}
