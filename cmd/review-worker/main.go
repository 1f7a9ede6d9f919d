// The review-worker binary consumes moderation alerts from SQS, summarizes
// each incident into a reviewer briefing and emails the moderation team.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/brightbuddy-ai/platform/internal/app/bootstrap"
	appconfig "github.com/brightbuddy-ai/platform/internal/config"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting review worker", "queue", cfg.ReviewQueueURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker, err := bootstrap.BuildReviewWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build review worker", "error", err)
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("review worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("review worker stopped")
}
