package usecase

import (
	"face_cropper/internal/feature/facecrop/domain"
	"face_cropper/internal/feature/facecrop/domain/entity"
)

// SelectFace はピクセル面積が最大の顔を選びます。
// 同じ面積の場合は入力順で先に現れたものを返します。
// 候補が空の場合は domain.ErrNoFaceFound を返します。
func SelectFace(boxes []entity.BoundingBox, imgW, imgH int) (int, entity.BoundingBox, error) {
	if len(boxes) == 0 {
		return -1, entity.BoundingBox{}, domain.ErrNoFaceFound
	}

	best := 0
	bestArea := boxes[0].ToPixels(imgW, imgH).Area()
	for i := 1; i < len(boxes); i++ {
		// 厳密に大きい場合のみ更新（先着優先）
		if area := boxes[i].ToPixels(imgW, imgH).Area(); area > bestArea {
			best, bestArea = i, area
		}
	}
	return best, boxes[best], nil
}

// FilterByConfidence は信頼度がminConfidence未満の候補を除外します。
// 順序は維持されます。minConfidenceが0以下の場合は入力をそのまま返します。
func FilterByConfidence(boxes []entity.BoundingBox, minConfidence float32) []entity.BoundingBox {
	if minConfidence <= 0 {
		return boxes
	}
	out := make([]entity.BoundingBox, 0, len(boxes))
	for _, b := range boxes {
		if b.Confidence >= minConfidence {
			out = append(out, b)
		}
	}
	return out
}
