//go:build !gocv

package di

import (
	"errors"
	"io"

	"face_cropper/internal/app/config"
	"face_cropper/internal/feature/facecrop/usecase"
)

func newYuNet(config.DetectorConfig) (usecase.FaceDetector, io.Closer, error) {
	return nil, nil, errors.New("the yunet detector requires a build with -tags gocv")
}
