// Package inference は外部の推論サービスにHTTPで顔検出を依頼するクライアントを提供します。
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"face_cropper/internal/feature/facecrop/domain/entity"
	"face_cropper/internal/feature/facecrop/usecase"
	httpclient "face_cropper/internal/platform/http"
)

// DefaultTimeout は推論リクエスト全体のタイムアウトです。
const DefaultTimeout = 30 * time.Second

// faceClass は顔として扱う検出クラスです。クラスが空の検出も顔として扱います。
const faceClass = "face"

// InferenceFaceDetector は推論サービスの /detect 相当のエンドポイントに画像を送信します。
type InferenceFaceDetector struct {
	client       *http.Client
	inferenceURL string
	healthURL    string
}

var _ usecase.FaceDetector = (*InferenceFaceDetector)(nil)

// NewInferenceFaceDetector は新しいInferenceFaceDetectorを生成します。
func NewInferenceFaceDetector(inferenceURL string, timeout time.Duration) *InferenceFaceDetector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	inferenceURL = strings.TrimRight(inferenceURL, "/")
	return &InferenceFaceDetector{
		client:       httpclient.NewHTTPClient(timeout),
		inferenceURL: inferenceURL,
		healthURL:    healthURLFor(inferenceURL),
	}
}

// healthURLFor は検出エンドポイントと同じホストの /health を返します。
// URLとして解釈できない場合は末尾に /health を付けます。
func healthURLFor(inferenceURL string) string {
	u, err := url.Parse(inferenceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return inferenceURL + "/health"
	}
	return (&url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host, Path: "/health"}).String()
}

type detectionJSON struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Normalized bool    `json:"normalized"`
	Class      string  `json:"class"`
	Confidence float32 `json:"confidence"`
}

type detectResponse struct {
	Detections []detectionJSON `json:"detections"`
}

// DetectFaces は画像をmultipartの "file" フィールドで送信し、検出結果を矩形に変換します。
func (c *InferenceFaceDetector) DetectFaces(ctx context.Context, img *entity.Image) ([]entity.BoundingBox, error) {
	payload, mimeType, err := usecase.DetectorPayload(img)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "image"+extension(mimeType))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	boxes := make([]entity.BoundingBox, 0, len(result.Detections))
	for _, d := range result.Detections {
		if d.Class != "" && d.Class != faceClass {
			continue
		}
		boxes = append(boxes, entity.BoundingBox{
			X:          d.X,
			Y:          d.Y,
			Width:      d.Width,
			Height:     d.Height,
			Normalized: d.Normalized,
			Confidence: d.Confidence,
		})
	}
	return boxes, nil
}

// CheckHealth は推論サービスのホストの /health が200を返すかを確認します。
func (c *InferenceFaceDetector) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
