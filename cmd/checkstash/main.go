package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/S0me0neR0man/indexstash/internal/checker"
	"github.com/S0me0neR0man/indexstash/internal/config"
)

func main() {
	conf, err := config.NewConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(conf)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	c, err := checker.NewChecker(conf, logger)
	if err != nil {
		sugar.Fatalw("checker", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	report, err := c.Run(ctx)
	sugar.Infow("report",
		"index", conf.Index,
		"seed", conf.Seed,
		"operations", report.Operations,
		"ops", report.Ops,
		"rejected", report.Rejected,
		"yielded", report.Yielded,
		"checks", report.Checks,
		"records", report.Records)

	if err != nil && !errors.Is(err, context.Canceled) {
		sugar.Errorw("check failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newLogger(conf *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(conf.LogLevel)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if conf.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
