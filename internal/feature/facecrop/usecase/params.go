package usecase

import (
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// DefaultMarginRatio は顔のサイズに対する上下左右の余白の割合です。
	DefaultMarginRatio = 0.5
	// DefaultOutputSize は出力画像の一辺のピクセル数です。
	DefaultOutputSize = 600
	// DefaultJPEGQuality は出力JPEGの品質です。
	DefaultJPEGQuality = 95
	// DefaultMaxImageBytes はアップロード画像の最大サイズ（16MB）です。
	DefaultMaxImageBytes = 16 * 1024 * 1024
	// DefaultResampleFilter はリサンプリングフィルタの既定名です。
	DefaultResampleFilter = "linear"
)

// Params はパイプラインの固定パラメータです。
type Params struct {
	MarginRatio   float64                // 余白の割合
	OutputSize    int                    // 出力の一辺（正方形）
	JPEGQuality   int                    // JPEG品質（1 ~ 100）
	MaxImageBytes int                    // 入力サイズ上限。0以下で無制限
	MinConfidence float32                // これ未満の検出は候補から除外。0で全件採用
	Filter        imaging.ResampleFilter // 連続補間フィルタ
}

// DefaultParams は既定のパラメータを返します。
func DefaultParams() Params {
	return Params{
		MarginRatio:   DefaultMarginRatio,
		OutputSize:    DefaultOutputSize,
		JPEGQuality:   DefaultJPEGQuality,
		MaxImageBytes: DefaultMaxImageBytes,
		Filter:        imaging.Linear,
	}
}

// Validate はパラメータの整合性を検証します。
func (p Params) Validate() error {
	if p.MarginRatio < 0 {
		return fmt.Errorf("margin ratio must not be negative, got %v", p.MarginRatio)
	}
	if p.OutputSize <= 0 {
		return fmt.Errorf("output size must be positive, got %d", p.OutputSize)
	}
	if p.JPEGQuality < 1 || p.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be within 1..100, got %d", p.JPEGQuality)
	}
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be within 0..1, got %v", p.MinConfidence)
	}
	if p.Filter.Kernel == nil || p.Filter.Support <= 0 {
		return fmt.Errorf("resample filter must be continuous")
	}
	return nil
}

// ParseFilter はフィルタ名を連続補間フィルタに変換します。
// 最近傍補間は出力品質の要件を満たさないため受け付けません。
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "linear", "bilinear":
		return imaging.Linear, nil
	case "catmullrom", "bicubic":
		return imaging.CatmullRom, nil
	case "lanczos":
		return imaging.Lanczos, nil
	default:
		return imaging.ResampleFilter{}, fmt.Errorf("unsupported resample filter %q", name)
	}
}
