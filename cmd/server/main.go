package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"face_cropper/internal/app/config"
	"face_cropper/internal/app/di"
	"face_cropper/internal/app/router"
	facecropadapters "face_cropper/internal/feature/facecrop/adapters"
	facecrophandler "face_cropper/internal/feature/facecrop/transport/handler"
	"face_cropper/internal/platform/db"
	infraredis "face_cropper/internal/platform/redis"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Redis（任意）
	var rdb *redisv9.Client
	rcfg, err := infraredis.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load redis config: %v", err)
	}
	if rcfg.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, rcfg); err != nil {
			slog.Warn("Redis unavailable. Running without detection cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// DB（任意）
	var gdb *gorm.DB
	if dcfg := db.LoadConfigFromEnv(); dcfg.Enabled() {
		gdb, err = db.OpenDB(dcfg, &facecropadapters.CropEventModel{})
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
	}

	// Detector
	detector, closer, err := di.NewFaceDetector(ctx, cfg, rdb)
	if err != nil {
		log.Fatalf("failed to create face detector: %v", err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			slog.Error("failed to close face detector", "error", err)
		}
	}()

	// Usecase
	cropper, err := di.NewFaceCropper(cfg, detector, di.NewCropEventRecorder(gdb))
	if err != nil {
		log.Fatalf("invalid pipeline parameters: %v", err)
	}

	// Handler
	cropH := facecrophandler.NewFaceCropHandler(cropper, int64(cfg.Pipeline.MaxImageBytes))

	// ルータ生成
	r := router.NewRouter(cropH, cfg.Server)

	if cfg.Server.AuthRequired && os.Getenv("JWT_SECRET") == "" {
		slog.Warn("AUTH_REQUIRED is set but JWT_SECRET is empty; every crop request will fail")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr, "detector", cfg.Detector.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
