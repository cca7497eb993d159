// Package adapters provides persistence implementations for the facecrop feature.
package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"

	"face_cropper/internal/feature/facecrop/domain/entity"
	"face_cropper/internal/feature/facecrop/usecase"
)

// cropEventGorm is a GORM implementation of the CropEventRecorder interface.
// It works with both PostgreSQL and SQLite.
type cropEventGorm struct {
	db *gorm.DB
}

// Compile-time check to ensure cropEventGorm implements CropEventRecorder.
var _ usecase.CropEventRecorder = (*cropEventGorm)(nil)

// NewCropEventGorm creates a new instance of cropEventGorm.
func NewCropEventGorm(db *gorm.DB) *cropEventGorm {
	return &cropEventGorm{db: db}
}

// Record persists a single crop event.
func (r *cropEventGorm) Record(ctx context.Context, event entity.CropEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(CropEventModelFromEntity(event)).Error
}

// CountByOutcome returns the number of events per outcome recorded since the given time.
func (r *cropEventGorm) CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []struct {
		Outcome string
		Count   int64
	}
	if err := r.db.WithContext(ctx).
		Model(&CropEventModel{}).
		Select("outcome, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("outcome").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Outcome] = row.Count
	}
	return counts, nil
}
