package adapters

import (
	"time"

	"face_cropper/internal/feature/facecrop/domain/entity"
)

// CropEventModel is the GORM model for the crop_events table.
type CropEventModel struct {
	ID          uint   `gorm:"primaryKey"`
	RequestID   string `gorm:"size:64;index"`
	Outcome     string `gorm:"size:32;index;not null"`
	FaceCount   int    `gorm:"not null"`
	CropX1      int
	CropY1      int
	CropX2      int
	CropY2      int
	InputBytes  int       `gorm:"not null"`
	OutputBytes int       `gorm:"not null"`
	DurationMS  int64     `gorm:"not null"`
	CreatedAt   time.Time `gorm:"index;not null"`
}

// TableName returns the table name for GORM.
func (CropEventModel) TableName() string {
	return "crop_events"
}

// ToEntity converts the GORM model to a domain entity.
func (m *CropEventModel) ToEntity() entity.CropEvent {
	return entity.CropEvent{
		RequestID:   m.RequestID,
		Outcome:     m.Outcome,
		FaceCount:   m.FaceCount,
		Crop:        entity.CropRect{X1: m.CropX1, Y1: m.CropY1, X2: m.CropX2, Y2: m.CropY2},
		InputBytes:  m.InputBytes,
		OutputBytes: m.OutputBytes,
		Duration:    time.Duration(m.DurationMS) * time.Millisecond,
		CreatedAt:   m.CreatedAt,
	}
}

// CropEventModelFromEntity converts a domain entity to a GORM model.
func CropEventModelFromEntity(e entity.CropEvent) *CropEventModel {
	return &CropEventModel{
		RequestID:   e.RequestID,
		Outcome:     e.Outcome,
		FaceCount:   e.FaceCount,
		CropX1:      e.Crop.X1,
		CropY1:      e.Crop.Y1,
		CropX2:      e.Crop.X2,
		CropY2:      e.Crop.Y2,
		InputBytes:  e.InputBytes,
		OutputBytes: e.OutputBytes,
		DurationMS:  e.Duration.Milliseconds(),
		CreatedAt:   e.CreatedAt,
	}
}
