// Package gemini はGoogle Gemini APIを使用した顔の位置推定クライアントを提供します。
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"face_cropper/internal/feature/facecrop/domain/entity"
	"face_cropper/internal/feature/facecrop/usecase"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
	// boxScale はGeminiが返すbox_2dの座標スケールです。
	boxScale = 1000.0
	// DetectPrompt は顔の矩形をJSONで返させるプロンプトです。
	DetectPrompt = "Detect every human face in the image. " +
		"Respond with a JSON array only. Each element must be " +
		`{"box_2d": [ymin, xmin, ymax, xmax], "confidence": number between 0 and 1}` +
		" with coordinates normalized to 0-1000. Respond with [] when there is no face."
)

// GeminiFaceDetector はGoogle Gemini APIを使用して顔の位置を推定します。
type GeminiFaceDetector struct {
	client *genai.Client
	model  string
}

// GeminiFaceDetectorがFaceDetectorを実装していることをコンパイル時に検証します。
var _ usecase.FaceDetector = (*GeminiFaceDetector)(nil)

// NewGeminiFaceDetector はADCを使用してGeminiFaceDetectorの新しいインスタンスを生成します。
// 環境変数 GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION が必要です。
func NewGeminiFaceDetector(ctx context.Context, model string) (*GeminiFaceDetector, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiFaceDetector{client: client, model: model}, nil
}

// DetectFaces は画像とプロンプトを送り、返されたJSONを正規化座標の矩形に変換します。
func (g *GeminiFaceDetector) DetectFaces(ctx context.Context, img *entity.Image) ([]entity.BoundingBox, error) {
	payload, mimeType, err := usecase.DetectorPayload(img)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(payload, mimeType),
			genai.NewPartFromText(DetectPrompt),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini API request failed: %w", err)
	}

	return parseFaces(resp.Text())
}

// faceJSON はGeminiの応答1件分です。
type faceJSON struct {
	Box2D      []float64 `json:"box_2d"`
	Confidence *float32  `json:"confidence"`
}

// parseFaces はGeminiの応答テキストを矩形に変換します。
// コードフェンスで囲まれた応答も受け付けます。
func parseFaces(text string) ([]entity.BoundingBox, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var faces []faceJSON
	if err := json.Unmarshal([]byte(text), &faces); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	boxes := make([]entity.BoundingBox, 0, len(faces))
	for _, f := range faces {
		if len(f.Box2D) != 4 {
			continue
		}
		ymin, xmin, ymax, xmax := f.Box2D[0], f.Box2D[1], f.Box2D[2], f.Box2D[3]
		conf := float32(1)
		if f.Confidence != nil {
			conf = *f.Confidence
		}
		boxes = append(boxes, entity.BoundingBox{
			X:          xmin / boxScale,
			Y:          ymin / boxScale,
			Width:      (xmax - xmin) / boxScale,
			Height:     (ymax - ymin) / boxScale,
			Normalized: true,
			Confidence: conf,
		})
	}
	return boxes, nil
}
