// Package vision はGoogle Cloud Vision APIを使用した顔検出クライアントを提供します。
package vision

import (
	"context"
	"fmt"
	"math"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"face_cropper/internal/feature/facecrop/domain/entity"
	"face_cropper/internal/feature/facecrop/usecase"
)

// DefaultMaxResults は1リクエストで取得する顔の最大数です。
const DefaultMaxResults = 20

// VisionFaceDetector はGoogle Cloud Vision APIのFACE_DETECTIONを使用して顔を検出します。
type VisionFaceDetector struct {
	client     *gvision.ImageAnnotatorClient
	maxResults int32
}

// VisionFaceDetectorがFaceDetectorを実装していることをコンパイル時に検証します。
var _ usecase.FaceDetector = (*VisionFaceDetector)(nil)

// NewVisionFaceDetector はADCを使用してVisionFaceDetectorの新しいインスタンスを生成します。
func NewVisionFaceDetector(ctx context.Context) (*VisionFaceDetector, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionFaceDetector{client: client, maxResults: DefaultMaxResults}, nil
}

// Close はVision APIクライアントを解放します。
func (v *VisionFaceDetector) Close() error {
	return v.client.Close()
}

// DetectFaces は画像から顔を検出し、ピクセル座標の矩形を返します。
func (v *VisionFaceDetector) DetectFaces(ctx context.Context, img *entity.Image) ([]entity.BoundingBox, error) {
	payload, _, err := usecase.DetectorPayload(img)
	if err != nil {
		return nil, err
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: payload},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_FACE_DETECTION, MaxResults: v.maxResults},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision API request failed: %w", err)
	}

	if len(resp.Responses) == 0 {
		return nil, nil
	}

	if resp.Responses[0].Error != nil {
		return nil, fmt.Errorf("vision API error: %s", resp.Responses[0].Error.Message)
	}

	return toBoundingBoxes(resp.Responses[0].FaceAnnotations), nil
}

// toBoundingBoxes はFaceAnnotationを矩形に変換します。
// 肌領域に沿ったfdBoundingPolyを優先し、無い場合は頭部全体のboundingPolyを使います。
func toBoundingBoxes(faces []*visionpb.FaceAnnotation) []entity.BoundingBox {
	boxes := make([]entity.BoundingBox, 0, len(faces))
	for _, f := range faces {
		poly := f.GetFdBoundingPoly()
		if len(poly.GetVertices()) == 0 {
			poly = f.GetBoundingPoly()
		}
		vertices := poly.GetVertices()
		if len(vertices) == 0 {
			continue
		}

		minX, minY := int32(math.MaxInt32), int32(math.MaxInt32)
		maxX, maxY := int32(math.MinInt32), int32(math.MinInt32)
		for _, vtx := range vertices {
			minX = min(minX, vtx.GetX())
			minY = min(minY, vtx.GetY())
			maxX = max(maxX, vtx.GetX())
			maxY = max(maxY, vtx.GetY())
		}

		boxes = append(boxes, entity.BoundingBox{
			X:          float64(minX),
			Y:          float64(minY),
			Width:      float64(maxX - minX),
			Height:     float64(maxY - minY),
			Confidence: f.GetDetectionConfidence(),
		})
	}
	return boxes
}
