package usecase_test

import (
	"image"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"face_cropper/internal/feature/facecrop/domain"
	"face_cropper/internal/feature/facecrop/domain/entity"
	"face_cropper/internal/feature/facecrop/usecase"
)

func TestNormalize(t *testing.T) {
	src := gradient(1000, 800)

	testCases := []struct {
		name string
		rect entity.CropRect
	}{
		{name: "square crop is scaled up", rect: entity.CropRect{X1: 300, Y1: 300, X2: 700, Y2: 700}},
		{name: "wide crop is stretched", rect: entity.CropRect{X1: 0, Y1: 0, X2: 1000, Y2: 200}},
		{name: "single pixel", rect: entity.CropRect{X1: 999, Y1: 799, X2: 1000, Y2: 800}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := usecase.Normalize(src, tc.rect, usecase.DefaultOutputSize, imaging.Linear)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 600, 600), out.Bounds())
		})
	}
}

func TestNormalize_OffsetBounds(t *testing.T) {
	full := gradient(200, 200)
	sub := full.SubImage(image.Rect(50, 50, 150, 150))

	out, err := usecase.Normalize(sub, entity.CropRect{X1: 0, Y1: 0, X2: 100, Y2: 100}, 10, imaging.Lanczos)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())
}

func TestNormalize_ExtractionFailed(t *testing.T) {
	src := gradient(100, 100)

	testCases := []struct {
		name string
		rect entity.CropRect
		size int
	}{
		{name: "empty rect", rect: entity.CropRect{X1: 10, Y1: 10, X2: 10, Y2: 50}, size: 600},
		{name: "outside the image", rect: entity.CropRect{X1: 50, Y1: 50, X2: 150, Y2: 150}, size: 600},
		{name: "negative origin", rect: entity.CropRect{X1: -1, Y1: 0, X2: 10, Y2: 10}, size: 600},
		{name: "zero target size", rect: entity.CropRect{X1: 0, Y1: 0, X2: 10, Y2: 10}, size: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := usecase.Normalize(src, tc.rect, tc.size, imaging.Linear)
			assert.ErrorIs(t, err, domain.ErrExtractionFailed)
			assert.Nil(t, out)
		})
	}
}

func TestParseFilter(t *testing.T) {
	for _, name := range []string{"", "linear", "Bilinear", "catmullrom", "bicubic", "lanczos"} {
		f, err := usecase.ParseFilter(name)
		require.NoError(t, err, name)
		assert.Positive(t, f.Support, name)
	}

	_, err := usecase.ParseFilter("nearest")
	assert.Error(t, err)
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, usecase.DefaultParams().Validate())

	testCases := []struct {
		name   string
		mutate func(p *usecase.Params)
	}{
		{name: "negative margin", mutate: func(p *usecase.Params) { p.MarginRatio = -0.1 }},
		{name: "zero output size", mutate: func(p *usecase.Params) { p.OutputSize = 0 }},
		{name: "quality above 100", mutate: func(p *usecase.Params) { p.JPEGQuality = 101 }},
		{name: "confidence above 1", mutate: func(p *usecase.Params) { p.MinConfidence = 1.5 }},
		{name: "nearest neighbor filter", mutate: func(p *usecase.Params) { p.Filter = imaging.NearestNeighbor }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := usecase.DefaultParams()
			tc.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}
