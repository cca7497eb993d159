// Package usecase はfacecropフィーチャーのビジネスロジック（顔選択・切り出し・正規化）を実装します。
package usecase

import (
	"context"
	"fmt"

	"face_cropper/internal/feature/facecrop/domain"
	"face_cropper/internal/feature/facecrop/domain/entity"
)

// FaceDetector は画像から顔の候補矩形を検出するインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type FaceDetector interface {
	// DetectFaces は顔の候補を0件以上返します。順序は検出器に依存します。
	DetectFaces(ctx context.Context, img *entity.Image) ([]entity.BoundingBox, error)
}

// facecropUsecase は デコード → 検出 → 選択 → 幾何計算 → 正規化 → エンコード を順に実行します。
// 状態を持たないため、複数のリクエストから同時に呼び出せます。
type facecropUsecase struct {
	detector FaceDetector
	params   Params
}

// NewFaceCropUsecase はfacecropUsecaseの新しいインスタンスを生成します。
func NewFaceCropUsecase(detector FaceDetector, params Params) *facecropUsecase {
	return &facecropUsecase{detector: detector, params: params}
}

// CropFace は画像データから最も大きな顔を切り出し、正規化したJPEGを返します。
// 失敗はすべて domain パッケージのエラーとして返り、自動リトライは行いません。
func (u *facecropUsecase) CropFace(ctx context.Context, imageData []byte) (*entity.CropResult, error) {
	img, err := DecodeImage(imageData, u.params.MaxImageBytes)
	if err != nil {
		return nil, err
	}

	boxes, err := u.detector.DetectFaces(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDetectionFailed, err)
	}
	candidates := FilterByConfidence(boxes, u.params.MinConfidence)

	w, h := img.Width(), img.Height()
	idx, face, err := SelectFace(candidates, w, h)
	if err != nil {
		return nil, err
	}

	rect, err := ComputeCrop(face.ToPixels(w, h), w, h, u.params.MarginRatio)
	if err != nil {
		// 外部には顔なしとして扱い、内部では縮退を区別できるようにする
		return nil, fmt.Errorf("%w: %w", domain.ErrNoFaceFound, err)
	}

	normalized, err := Normalize(img.Pixels, rect, u.params.OutputSize, u.params.Filter)
	if err != nil {
		return nil, err
	}

	out, err := EncodeJPEG(normalized, u.params.JPEGQuality)
	if err != nil {
		return nil, err
	}

	return &entity.CropResult{
		JPEG:      out,
		Face:      face,
		FaceIndex: idx,
		FaceCount: len(candidates),
		Crop:      rect,
	}, nil
}
