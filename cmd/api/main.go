package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"reviewflow/internal/api/handlers"
	"reviewflow/internal/api/server"
	"reviewflow/internal/app"
	"reviewflow/internal/config"
	"reviewflow/internal/logger"
	"reviewflow/internal/reconcile"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("No .env file found")
	}
	envConfig, err := config.NewEnvConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	envConfig.PrintConfigWithHiddenSecrets()

	logger.Setup(envConfig)

	if envConfig.Auth.JWTSecret == "" {
		log.Warn().Msg("AUTH_JWT_SECRET is empty, every request will be anonymous")
	}

	application, err := app.New(envConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close storage")
		}
	}()

	appHandler := handlers.NewHandler(application.Service, envConfig.Auth.JWTSecret)
	apiServer := server.NewServer(envConfig, appHandler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(apiServer.Run)

	if envConfig.Reconcile.Interval > 0 {
		g.Go(func() error {
			reconcile.New(application.TxManager).Run(gctx, envConfig.Reconcile.Interval)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return apiServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("service stopped with error")
		return
	}

	log.Info().Msg("service shutdown gracefully")
}
