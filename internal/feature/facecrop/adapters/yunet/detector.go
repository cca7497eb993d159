//go:build gocv

// Package yunet はOpenCVのFaceDetectorYN（YuNet）を使用した顔検出を提供します。
// OpenCVのネイティブライブラリが必要なため、gocvビルドタグを指定したときだけビルドされます。
package yunet

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"face_cropper/internal/feature/facecrop/domain/entity"
	"face_cropper/internal/feature/facecrop/usecase"
)

const (
	DefaultModelPath = "models/face_detection_yunet.onnx"
	// DefaultScoreThreshold 未満のスコアはOpenCV側で除外されます。
	DefaultScoreThreshold = 0.5
	nmsThreshold          = 0.3
	topK                  = 5000
	initialInputSize      = 320
)

// YuNetFaceDetector はYuNetモデルで顔を検出します。
// FaceDetectorYNは入力サイズを状態として持つため、推論はミューテックスで直列化します。
type YuNetFaceDetector struct {
	mu       sync.Mutex
	detector gocv.FaceDetectorYN
}

var _ usecase.FaceDetector = (*YuNetFaceDetector)(nil)

// NewYuNetFaceDetector はONNXモデルを読み込み、検出器を生成します。
func NewYuNetFaceDetector(modelPath string, scoreThreshold float32) (*YuNetFaceDetector, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s: %w", modelPath, err)
	}
	detector := gocv.NewFaceDetectorYNWithParams(
		modelPath,
		"",
		image.Pt(initialInputSize, initialInputSize),
		scoreThreshold,
		nmsThreshold,
		topK,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)
	return &YuNetFaceDetector{detector: detector}, nil
}

// DetectFaces は画像から顔を検出し、ピクセル座標の矩形を返します。
func (d *YuNetFaceDetector) DetectFaces(ctx context.Context, img *entity.Image) ([]entity.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, _, err := usecase.DetectorPayload(img)
	if err != nil {
		return nil, err
	}

	mat, err := gocv.IMDecode(payload, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.detector.SetInputSize(image.Pt(mat.Cols(), mat.Rows()))
	faces := gocv.NewMat()
	defer faces.Close()
	d.detector.Detect(mat, &faces)

	// 1行15列: 0-3が矩形、4-13がランドマーク、14がスコア
	boxes := make([]entity.BoundingBox, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		boxes = append(boxes, entity.BoundingBox{
			X:          float64(faces.GetFloatAt(r, 0)),
			Y:          float64(faces.GetFloatAt(r, 1)),
			Width:      float64(faces.GetFloatAt(r, 2)),
			Height:     float64(faces.GetFloatAt(r, 3)),
			Confidence: faces.GetFloatAt(r, 14),
		})
	}
	return boxes, nil
}

// Close はOpenCVのリソースを解放します。
func (d *YuNetFaceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
