package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fixmyhinge/fixmyhinge/internal/config"
	"github.com/fixmyhinge/fixmyhinge/internal/infra"
	"github.com/fixmyhinge/fixmyhinge/internal/logging"
	"github.com/fixmyhinge/fixmyhinge/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	// In dev every backend is optional; routes.Setup substitutes in-memory
	// fallbacks for whatever is missing.
	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	} else if !cfg.IsDev() {
		logger.Error("DATABASE_URL is required outside dev")
		os.Exit(1)
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	} else if !cfg.IsDev() {
		logger.Error("REDIS_URL is required outside dev")
		os.Exit(1)
	}

	var s3c *s3.Client
	var dyn *dynamodb.Client
	if cfg.S3Bucket != "" || cfg.PhotoTable != "" {
		awsCfg, err := infra.NewAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			logger.Error("load aws config", "error", err)
			os.Exit(1)
		}
		if cfg.S3Bucket != "" {
			s3c = infra.NewS3Client(awsCfg)
		}
		if cfg.PhotoTable != "" {
			dyn = infra.NewDynamoClient(awsCfg)
		}
	} else if !cfg.IsDev() {
		logger.Error("S3_BUCKET and DDB_TABLE are required outside dev")
		os.Exit(1)
	}

	srv, err := server.New(cfg, db, cache, s3c, dyn, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
