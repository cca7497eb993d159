package usecase

import (
	"context"
	"log/slog"
	"time"

	"face_cropper/internal/feature/facecrop/domain"
	"face_cropper/internal/feature/facecrop/domain/entity"
	"face_cropper/internal/platform/requestid"
)

// FaceCropper は顔切り出しパイプラインの入口です。
type FaceCropper interface {
	CropFace(ctx context.Context, imageData []byte) (*entity.CropResult, error)
}

// CropEventRecorder は処理結果を記録するリポジトリインターフェースです。
type CropEventRecorder interface {
	Record(ctx context.Context, event entity.CropEvent) error
}

// Limiter は外部呼び出しの頻度を制限します。
type Limiter interface {
	Wait(ctx context.Context) error
}

// recordingCropper はFaceCropperをラップし、各リクエストの結果を記録します。
// 記録の失敗はレスポンスに影響させません。
type recordingCropper struct {
	inner    FaceCropper
	recorder CropEventRecorder
	now      func() time.Time
}

// NewRecordingCropper はrecorderがnilの場合innerをそのまま返します。
func NewRecordingCropper(inner FaceCropper, recorder CropEventRecorder) FaceCropper {
	if recorder == nil {
		return inner
	}
	return &recordingCropper{inner: inner, recorder: recorder, now: time.Now}
}

// CropFace はinnerを呼び出した後に結果を記録します。
func (r *recordingCropper) CropFace(ctx context.Context, imageData []byte) (*entity.CropResult, error) {
	start := r.now()
	res, err := r.inner.CropFace(ctx, imageData)

	event := entity.CropEvent{
		RequestID:  requestid.FromContext(ctx),
		Outcome:    domain.Outcome(err),
		InputBytes: len(imageData),
		Duration:   r.now().Sub(start),
		CreatedAt:  start,
	}
	if res != nil {
		event.FaceCount = res.FaceCount
		event.Crop = res.Crop
		event.OutputBytes = len(res.JPEG)
	}
	if recErr := r.recorder.Record(ctx, event); recErr != nil {
		slog.Warn("failed to record crop event", "error", recErr, "request_id", event.RequestID)
	}

	return res, err
}

// throttledDetector は検出器の呼び出し前にLimiterで待機します。
type throttledDetector struct {
	inner   FaceDetector
	limiter Limiter
}

// NewThrottledDetector はlimiterがnilの場合innerをそのまま返します。
func NewThrottledDetector(inner FaceDetector, limiter Limiter) FaceDetector {
	if limiter == nil {
		return inner
	}
	return &throttledDetector{inner: inner, limiter: limiter}
}

// DetectFaces は呼び出し枠を待ってからinnerに委譲します。
func (t *throttledDetector) DetectFaces(ctx context.Context, img *entity.Image) ([]entity.BoundingBox, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.DetectFaces(ctx, img)
}
