// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"face_cropper/internal/app/config"
	"face_cropper/internal/feature/facecrop/adapters/gemini"
	"face_cropper/internal/feature/facecrop/adapters/inference"
	"face_cropper/internal/feature/facecrop/adapters/pigo"
	"face_cropper/internal/feature/facecrop/adapters/vision"
	"face_cropper/internal/feature/facecrop/usecase"
	"face_cropper/internal/platform/cache"
	"face_cropper/internal/shared/ratelimiter"
)

// NewFaceDetector creates the configured detector backend and wraps it with
// rate limiting and, when rdb is non-nil, Redis caching. The returned closer
// releases backend resources and is never nil.
func NewFaceDetector(ctx context.Context, cfg config.Config, rdb *redis.Client) (usecase.FaceDetector, io.Closer, error) {
	base, closer, err := newBackend(ctx, cfg.Detector)
	if err != nil {
		return nil, nil, err
	}

	var limiter usecase.Limiter
	if cfg.Detector.RateLimit > 0 {
		limiter = ratelimiter.NewRateLimiter(cfg.Detector.RateLimit, cfg.Detector.RateInterval)
	}
	detector := usecase.NewThrottledDetector(base, limiter)

	if rdb != nil {
		detector = cache.NewCachingFaceDetector(rdb, cfg.Cache.TTL, detector, cfg.Cache.Namespace, cfg.Detector.Backend)
	}

	slog.Info("face detector ready",
		"backend", cfg.Detector.Backend,
		"rate_limit", cfg.Detector.RateLimit,
		"cache", rdb != nil,
	)
	return detector, closer, nil
}

func newBackend(ctx context.Context, cfg config.DetectorConfig) (usecase.FaceDetector, io.Closer, error) {
	switch cfg.Backend {
	case config.DetectorPigo:
		pcfg, err := pigo.LoadConfig()
		if err != nil {
			return nil, nil, err
		}
		d, err := pigo.NewPigoFaceDetector(pcfg)
		if err != nil {
			return nil, nil, err
		}
		return d, nopCloser{}, nil

	case config.DetectorVision:
		d, err := vision.NewVisionFaceDetector(ctx)
		if err != nil {
			return nil, nil, err
		}
		return d, d, nil

	case config.DetectorGemini:
		d, err := gemini.NewGeminiFaceDetector(ctx, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return d, nopCloser{}, nil

	case config.DetectorInference:
		d := inference.NewInferenceFaceDetector(cfg.InferenceURL, cfg.InferenceTimeout)
		if err := d.CheckHealth(ctx); err != nil {
			// 起動順序の都合で推論サービスが遅れて立ち上がることがあるため、起動は止めない
			slog.Warn("inference service health check failed", "url", cfg.InferenceURL, "error", err)
		}
		return d, nopCloser{}, nil

	case config.DetectorYuNet:
		return newYuNet(cfg)

	default:
		return nil, nil, fmt.Errorf("unknown detector backend %q", cfg.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
