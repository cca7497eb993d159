package usecase

import (
	"fmt"
	"math"

	"face_cropper/internal/feature/facecrop/domain"
	"face_cropper/internal/feature/facecrop/domain/entity"
)

// ComputeCrop は顔の矩形を余白付きで拡張し、画像の範囲にクランプした切り出し矩形を返します。
//
//	mx = floor(bw*margin), my = floor(bh*margin)
//	x1 = max(x-mx, 0),      y1 = max(y-my, 0)
//	x2 = min(x+bw+mx, W),   y2 = min(y+bh+my, H)
//
// 顔のサイズが0以下、顔が画像と重ならない、またはクランプ後の矩形が空の場合は
// domain.ErrDegenerateCrop を返します。
func ComputeCrop(box entity.PixelBox, imgW, imgH int, margin float64) (entity.CropRect, error) {
	if box.W <= 0 || box.H <= 0 {
		return entity.CropRect{}, fmt.Errorf("%w: face box %dx%d has no area", domain.ErrDegenerateCrop, box.W, box.H)
	}
	if imgW <= 0 || imgH <= 0 {
		return entity.CropRect{}, fmt.Errorf("%w: image %dx%d has no area", domain.ErrDegenerateCrop, imgW, imgH)
	}

	// 余白を付ける前に、顔そのものが画像と重なっているかを確認する
	if box.X >= imgW || box.Y >= imgH || box.X+box.W <= 0 || box.Y+box.H <= 0 {
		return entity.CropRect{}, fmt.Errorf("%w: face box %+v lies outside %dx%d", domain.ErrDegenerateCrop, box, imgW, imgH)
	}

	mx := int(math.Floor(float64(box.W) * margin))
	my := int(math.Floor(float64(box.H) * margin))

	rect := entity.CropRect{
		X1: max(box.X-mx, 0),
		Y1: max(box.Y-my, 0),
		X2: min(box.X+box.W+mx, imgW),
		Y2: min(box.Y+box.H+my, imgH),
	}
	if rect.Empty() {
		// 負の余白でのみ起こり得る
		return entity.CropRect{}, fmt.Errorf("%w: crop %+v is empty", domain.ErrDegenerateCrop, rect)
	}
	return rect, nil
}
