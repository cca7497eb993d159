package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"face_cropper/internal/feature/facecrop/domain/entity"
)

// mockFaceDetector はFaceDetectorインターフェースのモック実装です。
type mockFaceDetector struct {
	DetectFacesFunc  func(ctx context.Context, img *entity.Image) ([]entity.BoundingBox, error)
	DetectFacesCalls int
}

func (m *mockFaceDetector) DetectFaces(ctx context.Context, img *entity.Image) ([]entity.BoundingBox, error) {
	m.DetectFacesCalls++
	if m.DetectFacesFunc != nil {
		return m.DetectFacesFunc(ctx, img)
	}
	return nil, errors.New("DetectFacesFunc is not implemented")
}

// gradient は内容が一様でないテスト画像を生成します。
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(w, h)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}
