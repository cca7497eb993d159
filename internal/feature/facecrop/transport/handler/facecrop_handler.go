// Package handler はfacecropフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"face_cropper/internal/feature/facecrop/domain"
	"face_cropper/internal/feature/facecrop/domain/entity"
	"face_cropper/internal/platform/requestid"
)

// 応答本文はテキストです。
const (
	msgNoImage       = "No image provided"
	msgInvalidImage  = "Invalid image"
	msgImageTooLarge = "Image too large"
	msgNoFaceFound   = "No face found"
	errorPrefix      = "Error: "
)

// multipartOverhead はフォーム境界やヘッダー分として画像サイズ上限に上乗せするバイト数です。
const multipartOverhead = 1 << 20

// FaceCropUsecase は顔切り出しのユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type FaceCropUsecase interface {
	CropFace(ctx context.Context, imageData []byte) (*entity.CropResult, error)
}

// FaceCropHandler は顔切り出しのHTTPリクエストを処理します。
type FaceCropHandler struct {
	uc       FaceCropUsecase
	maxBytes int64
}

// NewFaceCropHandler はFaceCropHandlerの新しいインスタンスを生成します。
// maxBytesが正の場合、リクエスト本文をその大きさ（と境界分）までに制限します。
func NewFaceCropHandler(uc FaceCropUsecase, maxBytes int64) *FaceCropHandler {
	return &FaceCropHandler{uc: uc, maxBytes: maxBytes}
}

// CropFace はアップロードされた画像から最大の顔を切り出し、600x600のJPEGを返します。
//
// エンドポイント: POST /crop-face
// Content-Type: multipart/form-data
// フィールド: image（画像ファイル）
func (h *FaceCropHandler) CropFace(c *gin.Context) {
	ctx := c.Request.Context()
	reqID := requestid.FromContext(ctx)

	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.Warn("request body too large", "request_id", reqID, "limit", tooLarge.Limit)
			c.String(http.StatusBadRequest, msgImageTooLarge)
			return
		}
		slog.Warn("image field missing", "request_id", reqID, "error", err, "remote_addr", c.ClientIP())
		c.String(http.StatusBadRequest, msgNoImage)
		return
	}
	if file.Size == 0 {
		slog.Warn("image field empty", "request_id", reqID, "filename", file.Filename)
		c.String(http.StatusBadRequest, msgNoImage)
		return
	}

	f, err := file.Open()
	if err != nil {
		slog.Error("failed to open uploaded image", "request_id", reqID, "error", err)
		c.String(http.StatusInternalServerError, errorPrefix+err.Error())
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close uploaded image", "request_id", reqID, "error", err)
		}
	}()

	imageData, err := io.ReadAll(f)
	if err != nil {
		slog.Error("failed to read uploaded image", "request_id", reqID, "error", err)
		c.String(http.StatusInternalServerError, errorPrefix+err.Error())
		return
	}

	res, err := h.uc.CropFace(ctx, imageData)
	if err != nil {
		status, body := mapError(err)
		if domain.IsUserError(err) {
			slog.Info("face crop rejected", "request_id", reqID, "outcome", domain.Outcome(err), "error", err)
		} else {
			slog.Error("face crop failed", "request_id", reqID, "outcome", domain.Outcome(err), "error", err)
		}
		c.String(status, body)
		return
	}

	slog.Info("face cropped",
		"request_id", reqID,
		"faces", res.FaceCount,
		"face_index", res.FaceIndex,
		"crop", res.Crop.Rectangle().String(),
		"bytes", len(res.JPEG),
	)
	c.Data(http.StatusOK, "image/jpeg", res.JPEG)
}

// Preflight はCORSのプリフライトリクエストに本文なしの204で応答します。
func (h *FaceCropHandler) Preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// mapError はパイプラインのエラーをHTTPステータスと本文に変換します。
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNoFaceFound):
		return http.StatusNotFound, msgNoFaceFound
	case errors.Is(err, domain.ErrImageTooLarge):
		return http.StatusBadRequest, msgImageTooLarge
	case errors.Is(err, domain.ErrInvalidImage):
		return http.StatusBadRequest, msgInvalidImage
	default:
		return http.StatusInternalServerError, errorPrefix + err.Error()
	}
}
