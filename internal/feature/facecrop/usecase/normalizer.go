package usecase

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"face_cropper/internal/feature/facecrop/domain"
	"face_cropper/internal/feature/facecrop/domain/entity"
)

// Normalize は切り出し矩形を取り出し、size x size に再サンプリングします。
// アスペクト比は維持しません。矩形が空または画像の外にはみ出す場合は
// domain.ErrExtractionFailed を返します。
func Normalize(src image.Image, rect entity.CropRect, size int, filter imaging.ResampleFilter) (*image.NRGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: target size %d", domain.ErrExtractionFailed, size)
	}
	bounds := src.Bounds()
	r := rect.Rectangle().Add(bounds.Min)
	if rect.Empty() || !r.In(bounds) {
		return nil, fmt.Errorf("%w: crop %v outside image bounds %v", domain.ErrExtractionFailed, r, bounds)
	}

	cropped := imaging.Crop(src, r)
	return imaging.Resize(cropped, size, size, filter), nil
}
