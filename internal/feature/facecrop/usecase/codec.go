package usecase

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // WebPデコーダを登録

	"face_cropper/internal/feature/facecrop/domain"
	"face_cropper/internal/feature/facecrop/domain/entity"
)

// acceptedMIMETypes はデコード可能な画像形式です。
var acceptedMIMETypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
}

// DecodeImage はアップロードされたバイト列を画像にデコードします。
// EXIFの向き情報はピクセルに反映されます。
func DecodeImage(data []byte, maxBytes int) (*entity.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image data is empty", domain.ErrInvalidImage)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds maximum of %d bytes", domain.ErrImageTooLarge, len(data), maxBytes)
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), acceptedMIMETypes...) {
		return nil, fmt.Errorf("%w: unsupported content type %s", domain.ErrInvalidImage, mt.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidImage, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", domain.ErrInvalidImage)
	}

	return &entity.Image{Pixels: img, Raw: data, MIMEType: mt.String()}, nil
}

// EncodeJPEG は画像を指定品質のJPEGにエンコードします。
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEncodingFailed, err)
	}
	return buf.Bytes(), nil
}

// DetectorPayload は外部検出器に送るバイト列とそのMIMEタイプを返します。
// PNGとWebPはそのまま送ります。それ以外は向き補正後のピクセルをJPEGで再エンコードし、
// 検出座標がデコード済みピクセルと一致するようにします。
func DetectorPayload(img *entity.Image) ([]byte, string, error) {
	switch img.MIMEType {
	case "image/png", "image/webp":
		return img.Raw, img.MIMEType, nil
	}
	data, err := EncodeJPEG(img.Pixels, DefaultJPEGQuality)
	if err != nil {
		return nil, "", err
	}
	return data, "image/jpeg", nil
}
