//go:build gocv

package di

import (
	"io"

	"face_cropper/internal/app/config"
	"face_cropper/internal/feature/facecrop/adapters/yunet"
	"face_cropper/internal/feature/facecrop/usecase"
)

func newYuNet(cfg config.DetectorConfig) (usecase.FaceDetector, io.Closer, error) {
	d, err := yunet.NewYuNetFaceDetector(cfg.YuNetModelPath, cfg.YuNetScore)
	if err != nil {
		return nil, nil, err
	}
	return d, d, nil
}
