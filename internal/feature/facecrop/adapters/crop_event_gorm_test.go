package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"face_cropper/internal/feature/facecrop/domain"
	"face_cropper/internal/feature/facecrop/domain/entity"
)

// setupCropEventTestDB prepares an in-memory SQLite database for crop event testing.
func setupCropEventTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	err = db.AutoMigrate(&CropEventModel{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

func TestNewCropEventGorm(t *testing.T) {
	db := setupCropEventTestDB(t)

	repo := NewCropEventGorm(db)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestCropEventGorm_Record(t *testing.T) {
	tests := []struct {
		name         string
		event        entity.CropEvent
		validateFunc func(t *testing.T, found CropEventModel)
	}{
		{
			name: "success: ok event with crop rectangle",
			event: entity.CropEvent{
				RequestID:   "req-001",
				Outcome:     domain.OutcomeOK,
				FaceCount:   2,
				Crop:        entity.CropRect{X1: 300, Y1: 300, X2: 700, Y2: 700},
				InputBytes:  1024,
				OutputBytes: 512,
				Duration:    150 * time.Millisecond,
				CreatedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			},
			validateFunc: func(t *testing.T, found CropEventModel) {
				assert.Equal(t, "req-001", found.RequestID)
				assert.Equal(t, domain.OutcomeOK, found.Outcome)
				assert.Equal(t, 2, found.FaceCount)
				assert.Equal(t, 300, found.CropX1)
				assert.Equal(t, 700, found.CropY2)
				assert.Equal(t, int64(150), found.DurationMS)

				e := found.ToEntity()
				assert.Equal(t, entity.CropRect{X1: 300, Y1: 300, X2: 700, Y2: 700}, e.Crop)
				assert.Equal(t, 150*time.Millisecond, e.Duration)
			},
		},
		{
			name: "success: zero CreatedAt is filled",
			event: entity.CropEvent{
				RequestID: "req-002",
				Outcome:   domain.OutcomeNoFaceFound,
			},
			validateFunc: func(t *testing.T, found CropEventModel) {
				assert.Equal(t, domain.OutcomeNoFaceFound, found.Outcome)
				assert.False(t, found.CreatedAt.IsZero())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupCropEventTestDB(t)
			repo := NewCropEventGorm(db)

			err := repo.Record(context.Background(), tt.event)
			require.NoError(t, err)

			var found CropEventModel
			require.NoError(t, db.Where("request_id = ?", tt.event.RequestID).First(&found).Error)
			tt.validateFunc(t, found)
		})
	}
}

func TestCropEventGorm_CountByOutcome(t *testing.T) {
	db := setupCropEventTestDB(t)
	repo := NewCropEventGorm(db)
	ctx := context.Background()

	now := time.Now()
	old := now.Add(-48 * time.Hour)
	events := []entity.CropEvent{
		{RequestID: "a", Outcome: domain.OutcomeOK, CreatedAt: now},
		{RequestID: "b", Outcome: domain.OutcomeOK, CreatedAt: now},
		{RequestID: "c", Outcome: domain.OutcomeNoFaceFound, CreatedAt: now},
		{RequestID: "d", Outcome: domain.OutcomeInvalidImage, CreatedAt: old},
	}
	for _, e := range events {
		require.NoError(t, repo.Record(ctx, e))
	}

	counts, err := repo.CountByOutcome(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		domain.OutcomeOK:          2,
		domain.OutcomeNoFaceFound: 1,
	}, counts)
}
