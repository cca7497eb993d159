package di

import (
	"gorm.io/gorm"

	"face_cropper/internal/app/config"
	facecropadapters "face_cropper/internal/feature/facecrop/adapters"
	"face_cropper/internal/feature/facecrop/usecase"
)

// NewCropEventRecorder returns a GORM-backed recorder, or nil when no database is configured.
func NewCropEventRecorder(db *gorm.DB) usecase.CropEventRecorder {
	if db == nil {
		return nil
	}
	return facecropadapters.NewCropEventGorm(db)
}

// NewFaceCropper builds the face crop pipeline with optional event recording.
func NewFaceCropper(cfg config.Config, detector usecase.FaceDetector, recorder usecase.CropEventRecorder) (usecase.FaceCropper, error) {
	params, err := cfg.Pipeline.Params()
	if err != nil {
		return nil, err
	}
	return usecase.NewRecordingCropper(usecase.NewFaceCropUsecase(detector, params), recorder), nil
}
