package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"face_cropper/internal/app/config"
	"face_cropper/internal/feature/facecrop/adapters/inference"
	"face_cropper/internal/platform/cache"
)

func inferenceConfig(url string) config.Config {
	cfg := config.Default()
	cfg.Detector.Backend = config.DetectorInference
	cfg.Detector.InferenceURL = url
	return cfg
}

func TestNewFaceDetector_Inference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, closer, err := NewFaceDetector(context.Background(), inferenceConfig(srv.URL), nil)
	require.NoError(t, err)
	require.NotNil(t, closer)
	assert.NoError(t, closer.Close())
	assert.IsType(t, &inference.InferenceFaceDetector{}, d)
}

func TestNewFaceDetector_WrapsWithCacheAndLimiter(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	cfg := inferenceConfig("http://127.0.0.1:1")
	cfg.Detector.RateLimit = 10

	d, _, err := NewFaceDetector(context.Background(), cfg, rdb)
	require.NoError(t, err)
	assert.IsType(t, &cache.CachingFaceDetector{}, d)
}

func TestNewFaceDetector_Errors(t *testing.T) {
	tests := []struct {
		name    string
		backend string
	}{
		{"unknown backend", "opencv"},
		{"pigo without cascade", config.DetectorPigo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PIGO_CASCADE_PATH", t.TempDir()+"/missing")
			cfg := config.Default()
			cfg.Detector.Backend = tt.backend

			_, _, err := NewFaceDetector(context.Background(), cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestNewCropEventRecorder(t *testing.T) {
	assert.Nil(t, NewCropEventRecorder(nil))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	assert.NotNil(t, NewCropEventRecorder(db))
}

func TestNewFaceCropper(t *testing.T) {
	cfg := config.Default()
	c, err := NewFaceCropper(cfg, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, c)

	cfg.Pipeline.ResampleFilter = "nearest"
	_, err = NewFaceCropper(cfg, nil, nil)
	assert.Error(t, err)
}
