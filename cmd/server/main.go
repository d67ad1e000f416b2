package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"meditrip-api/internal/config"
	"meditrip-api/internal/gateway"
	"meditrip-api/internal/handler"
	"meditrip-api/internal/middleware"
	"meditrip-api/internal/notify"
	"meditrip-api/internal/payment"
	"meditrip-api/internal/scheduling"
	"meditrip-api/internal/store"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer pool.Close()
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping")
	}
	log.Info().Msg("connected to postgres")

	// run migrations
	if migration, err := os.ReadFile(cfg.MigrationsFile); err != nil {
		log.Warn().Err(err).Msg("migration file not found, skipping")
	} else if _, err := pool.Exec(context.Background(), string(migration)); err != nil {
		log.Warn().Err(err).Msg("migration")
	} else {
		log.Info().Msg("migration applied")
	}

	st := store.New(pool)

	var gw payment.Gateway = gateway.Disabled{}
	if cfg.OmiseSecretKey != "" {
		og, err := gateway.NewOmise(cfg.OmisePublicKey, cfg.OmiseSecretKey)
		if err != nil {
			log.Fatal().Err(err).Msg("omise")
		}
		gw = og
	} else {
		log.Warn().Msg("no omise keys configured, payment gateway disabled")
	}

	engine := scheduling.New(st, notify.NewLogNotifier(log), log)
	linker := payment.NewLinker(st, st, gw, log)
	h := handler.New(engine, linker, st, cfg.JWTSecret, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.Logger(log))

	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	h.RegisterRoutes(e, rl)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http listening")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http")
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
