package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/testispark/testispark/internal/config"
	"github.com/testispark/testispark/internal/events"
	"github.com/testispark/testispark/internal/server"
	"github.com/testispark/testispark/internal/store/postgres"
	"github.com/testispark/testispark/internal/summarize"
	tssync "github.com/testispark/testispark/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:               "serve",
	Short:             "Start the TestiSpark HTTP server",
	GroupID:           "system",
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := cfg.NewLogger(os.Stderr)

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = events.Discard
			logger.Info("events disabled (TESTISPARK_NATS_URL not set)")
		}

		summarizer, err := summarize.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			publisher.Close()
			store.Close()
			return err
		}
		if cfg.GeminiAPIKey == "" {
			logger.Info("AI summaries use the first-sentence fallback (TESTISPARK_GEMINI_API_KEY not set)")
		}

		srv := server.New(store, publisher, server.Options{
			JWTSecret:             cfg.JWTSecret,
			LemonSqueezySecret:    cfg.LemonSqueezySecret,
			LemonSqueezyStore:     cfg.LemonSqueezyStore,
			LemonSqueezyVariantID: cfg.LemonSqueezyVariantID,
			PaddleSecret:          cfg.PaddleSecret,
			Summarizer:            summarizer,
			Logger:                logger,
		})

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr, "public_url", cfg.PublicURL)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		var scheduler *tssync.Scheduler
		if cfg.SyncInterval > 0 {
			var dests []tssync.Destination
			if cfg.SyncS3Bucket != "" {
				s3Dest, err := tssync.NewS3Destination(context.Background(),
					cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
				if err != nil {
					logger.Error("failed to create S3 backup destination", "err", err)
				} else {
					s3Dest.KeepHistory = cfg.SyncS3History
					dests = append(dests, s3Dest)
					logger.Info("backup S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
				}
			}
			if cfg.SyncGitRepo != "" {
				dests = append(dests, tssync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
				logger.Info("backup git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
			}
			if len(dests) > 0 {
				scheduler = tssync.NewScheduler(store, dests, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("backup scheduler started", "interval", cfg.SyncInterval)
			}
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		sig := <-sigCh
		for sig == syscall.SIGHUP {
			if scheduler != nil {
				logger.Info("backup requested", "signal", sig)
				scheduler.Trigger()
			}
			sig = <-sigCh
		}
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("backup scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}
		logger.Info("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("env-file", ".env", "dotenv file loaded before reading the environment")
}
