// Package pigo はpigoのカスケード分類器を使用したローカル顔検出を提供します。
// 外部APIへの通信を伴わないため、デフォルトの検出器として使われます。
//
// カスケードファイルはリポジトリに含まれていません。pigoのリポジトリから取得して
// DefaultCascadePath に置くか、PIGO_CASCADE_PATH で場所を指定してください。
//
//	mkdir -p models
//	curl -fsSL -o models/facefinder https://raw.githubusercontent.com/esimov/pigo/master/cascade/facefinder
package pigo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	pigo "github.com/esimov/pigo/core"

	"face_cropper/internal/feature/facecrop/domain/entity"
	"face_cropper/internal/feature/facecrop/usecase"
)

const (
	EnvKeyCascadePath = "PIGO_CASCADE_PATH"
	EnvKeyMinSize     = "PIGO_MIN_SIZE"
	EnvKeyMaxSize     = "PIGO_MAX_SIZE"
	EnvKeyQuality     = "PIGO_QUALITY_THRESHOLD"

	DefaultCascadePath = "models/facefinder"
	DefaultMinSize     = 20
	DefaultMaxSize     = 2000
	// DefaultQualityThreshold 未満のスコアの検出は破棄します。
	DefaultQualityThreshold = 5.0

	shiftFactor  = 0.1
	scaleFactor  = 1.1
	iouThreshold = 0.2
	// qualityScale は検出スコアQを0..1の信頼度に換算する係数です。
	qualityScale = 100.0
)

// Config はpigo検出器の設定を保持します。
type Config struct {
	CascadePath      string
	MinSize          int
	MaxSize          int
	QualityThreshold float32
}

// DefaultConfig はデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		CascadePath:      DefaultCascadePath,
		MinSize:          DefaultMinSize,
		MaxSize:          DefaultMaxSize,
		QualityThreshold: DefaultQualityThreshold,
	}
}

// LoadConfig は環境変数から設定を読み込みます。未設定の項目はデフォルト値になります。
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if v := os.Getenv(EnvKeyCascadePath); v != "" {
		cfg.CascadePath = v
	}
	if v := os.Getenv(EnvKeyMinSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvKeyMinSize, err)
		}
		cfg.MinSize = n
	}
	if v := os.Getenv(EnvKeyMaxSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvKeyMaxSize, err)
		}
		cfg.MaxSize = n
	}
	if v := os.Getenv(EnvKeyQuality); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvKeyQuality, err)
		}
		cfg.QualityThreshold = float32(f)
	}
	return cfg, nil
}

// PigoFaceDetector はpigoの分類器で顔を検出します。
// 分類器は読み取り専用のため、複数のgoroutineから同時に利用できます。
type PigoFaceDetector struct {
	classifier *pigo.Pigo
	cfg        Config
}

var _ usecase.FaceDetector = (*PigoFaceDetector)(nil)

// NewPigoFaceDetector はカスケードファイルを読み込み、検出器を生成します。
func NewPigoFaceDetector(cfg Config) (*PigoFaceDetector, error) {
	cascade, err := os.ReadFile(cfg.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade file %s (download it or set %s): %w", cfg.CascadePath, EnvKeyCascadePath, err)
	}
	return FromCascade(cascade, cfg)
}

// FromCascade はカスケードのバイト列から検出器を生成します。
func FromCascade(cascade []byte, cfg Config) (*PigoFaceDetector, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}
	slog.Info("pigo cascade loaded", "min_size", cfg.MinSize, "max_size", cfg.MaxSize)
	return &PigoFaceDetector{classifier: classifier, cfg: cfg}, nil
}

// DetectFaces は画像から顔を検出し、ピクセル座標の矩形を返します。
func (d *PigoFaceDetector) DetectFaces(ctx context.Context, img *entity.Image) ([]entity.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := pigo.ImgToNRGBA(img.Pixels)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()
	params := pigo.CascadeParams{
		MinSize:     d.cfg.MinSize,
		MaxSize:     min(d.cfg.MaxSize, max(cols, rows)),
		ShiftFactor: shiftFactor,
		ScaleFactor: scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0)
	dets = d.classifier.ClusterDetections(dets, iouThreshold)
	return toBoundingBoxes(dets, d.cfg.QualityThreshold), nil
}

// toBoundingBoxes は中心座標とスケールで表される検出を矩形に変換します。
func toBoundingBoxes(dets []pigo.Detection, qThresh float32) []entity.BoundingBox {
	boxes := make([]entity.BoundingBox, 0, len(dets))
	for _, det := range dets {
		if det.Q < qThresh || det.Scale <= 0 {
			continue
		}
		half := det.Scale / 2
		boxes = append(boxes, entity.BoundingBox{
			X:          float64(det.Col - half),
			Y:          float64(det.Row - half),
			Width:      float64(det.Scale),
			Height:     float64(det.Scale),
			Confidence: min(det.Q/qualityScale, 1),
		})
	}
	return boxes
}
