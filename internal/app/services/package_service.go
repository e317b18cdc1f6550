package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/safatanc/travel-checkout/internal/app/errors"
	"github.com/safatanc/travel-checkout/internal/app/models"
	"gorm.io/gorm"
)

// PackageService reads the package catalog. Packages and their extra
// services are managed elsewhere.
type PackageService struct {
	db *gorm.DB
}

func NewPackageService(db *gorm.DB) *PackageService {
	return &PackageService{
		db: db,
	}
}

func (s *PackageService) GetPackage(ctx context.Context, packageID uuid.UUID) (*models.TourPackage, error) {
	return s.getPackage(s.db.WithContext(ctx), packageID)
}

func (s *PackageService) getPackage(db *gorm.DB, packageID uuid.UUID) (*models.TourPackage, error) {
	var tourPackage models.TourPackage
	err := db.Where("id = ?", packageID).First(&tourPackage).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("Package not found")
		}
		return nil, errors.NewInternalServerError(err, "Failed to get package")
	}

	return &tourPackage, nil
}

// EnsureSellable checks that a package can be put into a checkout.
func (s *PackageService) EnsureSellable(tourPackage *models.TourPackage) error {
	if !tourPackage.IsActive {
		return errors.NewInvalidStateError("Package is not active")
	}
	if !tourPackage.IsApproved() {
		return errors.NewInvalidStateError("Package is not approved")
	}
	return nil
}

// findExtraServices resolves the requested extra services of a package.
// Every id must name an active extra service of that package.
func (s *PackageService) findExtraServices(db *gorm.DB, packageID uuid.UUID, ids []string) ([]models.ExtraService, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		extraID, err := parseUUID(id, "extra service ID")
		if err != nil {
			return nil, err
		}
		if !seen[extraID] {
			seen[extraID] = true
			parsed = append(parsed, extraID)
		}
	}

	var extras []models.ExtraService
	err := db.Where("id IN ? AND package_id = ? AND is_active = ?", parsed, packageID, true).
		Order("name ASC").
		Find(&extras).Error
	if err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to get extra services")
	}

	if len(extras) != len(parsed) {
		found := make(map[uuid.UUID]bool, len(extras))
		for _, extra := range extras {
			found[extra.ID] = true
		}
		for _, id := range parsed {
			if !found[id] {
				return nil, errors.NewNotFoundError(fmt.Sprintf("Extra service %s not found", id))
			}
		}
	}

	return extras, nil
}
