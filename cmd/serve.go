package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"userapi/gates/server"
	"userapi/gates/storage"
	"userapi/iternal/config"
	"userapi/iternal/logger"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Create the schema if needed and serve the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// config
	cfg := config.MustLoad(configPath)

	// logger
	log := logger.MustInitLogger(cfg)

	// database
	db, err := storage.Open(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()
	if err := storage.Migrate(ctx, db); err != nil {
		return err
	}

	// router and REST server
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	_ = server.NewServer(db, cfg, log, router)

	httpServer := &http.Server{
		Addr:         cfg.Rest.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Rest.ReadTimeout,
		WriteTimeout: cfg.Rest.WriteTimeout,
		IdleTimeout:  cfg.Rest.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("rest server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("rest server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down rest server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Rest.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
