// Package entity はfacecropフィーチャーのドメインモデルを定義します。
package entity

import "image"

// BoundingBox は検出器が返す顔の候補矩形を表します。
// Normalized が true の場合、座標とサイズは画像サイズに対する比率（0.0 ~ 1.0）です。
// 検出器によっては画像の外側にはみ出した値を返すことがあります。
type BoundingBox struct {
	X          float64 `json:"x"`          // 左上のx座標
	Y          float64 `json:"y"`          // 左上のy座標
	Width      float64 `json:"width"`      // 幅
	Height     float64 `json:"height"`     // 高さ
	Normalized bool    `json:"normalized"` // 比率表現かどうか
	Confidence float32 `json:"confidence"` // 検出スコア（0.0 ~ 1.0）
}

// PixelBox はピクセル単位に変換した顔の矩形です。
type PixelBox struct {
	X int
	Y int
	W int
	H int
}

// ToPixels は画像サイズを使ってBoundingBoxをピクセル座標に変換します。
// 小数部は0方向への切り捨てです。
func (b BoundingBox) ToPixels(imgW, imgH int) PixelBox {
	if !b.Normalized {
		return PixelBox{X: int(b.X), Y: int(b.Y), W: int(b.Width), H: int(b.Height)}
	}
	return PixelBox{
		X: int(b.X * float64(imgW)),
		Y: int(b.Y * float64(imgH)),
		W: int(b.Width * float64(imgW)),
		H: int(b.Height * float64(imgH)),
	}
}

// Area はピクセル面積を返します。幅または高さが0以下の場合は0です。
func (p PixelBox) Area() int {
	if p.W <= 0 || p.H <= 0 {
		return 0
	}
	return p.W * p.H
}

// CropRect は画像から切り出す矩形 [X1,X2) x [Y1,Y2) です。
type CropRect struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// Dx は切り出し幅を返します。
func (r CropRect) Dx() int { return r.X2 - r.X1 }

// Dy は切り出し高さを返します。
func (r CropRect) Dy() int { return r.Y2 - r.Y1 }

// Empty は面積が0以下の場合にtrueを返します。
func (r CropRect) Empty() bool { return r.X1 >= r.X2 || r.Y1 >= r.Y2 }

// Rectangle はimage.Rectangleに変換します。
func (r CropRect) Rectangle() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}
