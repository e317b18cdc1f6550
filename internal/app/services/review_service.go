package services

import (
	"context"
	"database/sql"
	"math"

	"github.com/google/uuid"
	"github.com/safatanc/travel-checkout/internal/app/errors"
	"github.com/safatanc/travel-checkout/internal/app/models"
	"gorm.io/gorm"
)

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{
		db: db,
	}
}

// AverageRating returns the mean rating of a package rounded to two
// places, or zero when it has no reviews.
func (s *ReviewService) AverageRating(ctx context.Context, packageID uuid.UUID) (float64, error) {
	var average sql.NullFloat64
	err := s.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("AVG(rating)").
		Where("package_id = ?", packageID).
		Row().
		Scan(&average)
	if err != nil {
		return 0, errors.NewInternalServerError(err, "Failed to get average rating")
	}

	if !average.Valid {
		return 0, nil
	}
	return math.Round(average.Float64*100) / 100, nil
}
