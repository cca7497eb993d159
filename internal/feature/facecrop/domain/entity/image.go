package entity

import (
	"image"
	"time"
)

// Image はデコード済みのアップロード画像です。リクエストの間だけ保持されます。
type Image struct {
	Pixels   image.Image // EXIFの向きを反映したピクセルデータ
	Raw      []byte      // アップロードされたバイト列
	MIMEType string      // 内容から判定したMIMEタイプ
}

// Width は画像の幅（ピクセル）を返します。
func (i *Image) Width() int { return i.Pixels.Bounds().Dx() }

// Height は画像の高さ（ピクセル）を返します。
func (i *Image) Height() int { return i.Pixels.Bounds().Dy() }

// CropResult は顔切り出しパイプラインの出力です。
type CropResult struct {
	JPEG      []byte      // エンコード済みの出力画像
	Face      BoundingBox // 選択された顔
	FaceIndex int         // 候補の中での選択位置
	FaceCount int         // 信頼度フィルタ後の候補数
	Crop      CropRect    // 元画像上の切り出し矩形
}

// CropEvent は1リクエスト分の処理結果の記録です。画像そのものは含みません。
type CropEvent struct {
	RequestID   string
	Outcome     string
	FaceCount   int
	Crop        CropRect
	InputBytes  int
	OutputBytes int
	Duration    time.Duration
	CreatedAt   time.Time
}
