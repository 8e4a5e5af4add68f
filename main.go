package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/MuthonduG/reports-api/internal/config"
	"github.com/MuthonduG/reports-api/internal/database"
	"github.com/MuthonduG/reports-api/internal/facedetect"
	"github.com/MuthonduG/reports-api/internal/router"
	"github.com/MuthonduG/reports-api/internal/storage"
	"github.com/MuthonduG/reports-api/internal/sweeper"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	// media store
	store, err := storage.NewS3Storage(context.Background(), cfg.Storage)
	if err != nil {
		logger.Fatal("init storage", zap.Error(err))
	}

	// face detection gate
	detector, err := facedetect.NewPigoDetector(cfg.Face.CascadePath)
	if err != nil {
		logger.Fatal("init face detector", zap.Error(err))
	}
	gate := facedetect.NewGate(detector, facedetect.FFmpegOpener{})

	// background sweep of expired guests
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx, db, time.Duration(cfg.Guest.SweepMinutes)*time.Minute, logger)

	// setup router
	r := router.SetupRouter(cfg, db, store, gate, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("run server", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
