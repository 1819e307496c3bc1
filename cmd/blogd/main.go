package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogd/internal/auth"
	"blogd/internal/config"
	"blogd/internal/db"
	httpx "blogd/internal/http"
	"blogd/internal/jobs"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, _ := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret, cfg.TokenTTL)
	r := httpx.NewRouter(cfg, gdb, jwtSvc)

	ctx, cancel := context.WithCancel(context.Background())

	// publish-notification worker
	if cfg.WorkerEnabled {
		jobsRepo := &jobs.Repo{DB: gdb}
		worker := &jobs.Worker{ID: "worker-1", Repo: jobsRepo, DB: gdb}
		go worker.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
