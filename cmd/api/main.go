package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carbon-ledger/internal/config"
	"carbon-ledger/internal/interfaces/router"
	"carbon-ledger/internal/pkg/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}
	logger.Setup(cfg.LogLevel, cfg.Env)

	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("App create failed")
	}
	defer rdb.Close()

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("Database handle failed")
	}
	defer sqlDB.Close()
	if err := sqlDB.Ping(); err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	log.Info().Str("dialect", db.Dialector.Name()).Msg("Database connected")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = rdb.Ping(ctx).Err()
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	log.Info().Msg("Redis connected")

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Info().Msg("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("admin", cfg.AdminAccount).Msg("Carbon ledger listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
