package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harsh-khajruia/thread-manager/internal/api"
	"github.com/harsh-khajruia/thread-manager/internal/logger"
	"github.com/harsh-khajruia/thread-manager/internal/pool"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the thread-manager API server that visualization clients poll for thread-state snapshots.`,
	Run:   runAPIServer,
}

func runAPIServer(cmd *cobra.Command, args []string) {
	applyFlags()

	log, err := logger.InitForAPI(cfg.App.LogLevel,
		logger.WithFileOutput(cfg.Log.File != ""),
		logger.WithFilename(cfg.Log.File),
		logger.WithRotationConfig(cfg.Log.MaxSizeMB, cfg.Log.MaxAgeDays, cfg.Log.MaxBackups, cfg.Log.Compress),
	)
	if err != nil {
		fmt.Println("Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	mgr, err := pool.New(pool.Options{
		MaxWorkers: cfg.Pool.MaxWorkers,
		NamePrefix: cfg.Pool.NamePrefix,
		Logger:     log,
	})
	if err != nil {
		log.Fatal("Failed to create thread pool", zap.Error(err))
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.App.SubmitRatePerSec), cfg.App.SubmitBurst)

	router := api.NewRouter(mgr, limiter, log, api.VersionInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: goVersion,
		Platform:  platform,
	})

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Server starting",
			zap.String("address", server.Addr),
			zap.Duration("read_timeout", cfg.Server.ReadTimeout),
			zap.Duration("write_timeout", cfg.Server.WriteTimeout),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	mgr.Shutdown(true)
}
