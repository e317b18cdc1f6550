package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/travel-checkout/internal/app/errors"
	"github.com/safatanc/travel-checkout/internal/app/models"
	"github.com/safatanc/travel-checkout/internal/app/pkg"
	"github.com/safatanc/travel-checkout/internal/infrastructures"
	"gorm.io/gorm"
)

const (
	// MaxTravelersPerCheckout caps adults, children and infants together.
	MaxTravelersPerCheckout = 10
	// MaxBookingYearsAhead bounds how far in the future a date can be picked.
	MaxBookingYearsAhead = 2
	// TourAvailableSlots is reported for tour packages, which have no
	// capacity records.
	TourAvailableSlots = 9999
)

type AvailabilityService struct {
	db             *gorm.DB
	validator      *infrastructures.Validator
	packageService *PackageService
}

func NewAvailabilityService(db *gorm.DB, validator *infrastructures.Validator, packageService *PackageService) *AvailabilityService {
	return &AvailabilityService{
		db:             db,
		validator:      validator,
		packageService: packageService,
	}
}

// CheckAvailability answers whether a package can take the requested
// travelers on a date. Bound and date violations are reported together.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, req *models.AvailabilityCheckRequest) (*models.AvailabilityResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	packageID, err := parseUUID(req.PackageID, "package ID")
	if err != nil {
		return nil, err
	}

	tourPackage, err := s.packageService.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if err := s.packageService.EnsureSellable(tourPackage); err != nil {
		return nil, err
	}

	selectedDate, err := parseSelectedDate(req.SelectedDate)
	if err != nil {
		return nil, err
	}

	violations := ValidateTravelerCounts(tourPackage, req.TravelerCounts)
	violations = append(violations, ValidateSelectedDate(selectedDate, time.Now())...)
	if len(violations) > 0 {
		return nil, errors.NewValidationError("Availability request is invalid", violations...)
	}

	return s.Validate(ctx, tourPackage.ID, selectedDate, tourPackage.Type, req.TravelerCounts.Total())
}

// Validate evaluates the capacity records of a package for a date.
func (s *AvailabilityService) Validate(ctx context.Context, packageID uuid.UUID, selectedDate time.Time, packageType models.PackageType, requested int) (*models.AvailabilityResult, error) {
	return s.validate(s.db.WithContext(ctx), packageID, selectedDate, packageType, requested)
}

func (s *AvailabilityService) validate(db *gorm.DB, packageID uuid.UUID, selectedDate time.Time, packageType models.PackageType, requested int) (*models.AvailabilityResult, error) {
	if packageType == models.PackageTypeTour {
		return &models.AvailabilityResult{
			IsAvailable:    true,
			AvailableSlots: TourAvailableSlots,
			Message:        "Package is available",
		}, nil
	}

	var records []models.PackageAvailability
	err := db.Where("package_id = ? AND is_available = ?", packageID, true).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to get package availability")
	}

	record := firstEligibleRecord(records, selectedDate)
	if record == nil {
		return &models.AvailabilityResult{
			IsAvailable: false,
			Message:     "Package is not available on the selected date",
		}, nil
	}

	if record.AvailableSlots < requested {
		return &models.AvailabilityResult{
			IsAvailable:    false,
			AvailableSlots: record.AvailableSlots,
			Message:        fmt.Sprintf("Only %d slot(s) available on the selected date", record.AvailableSlots),
		}, nil
	}

	return &models.AvailabilityResult{
		IsAvailable:    true,
		AvailableSlots: record.AvailableSlots,
		Message:        "Package is available",
	}, nil
}

// firstEligibleRecord picks the first record covering the date, either as
// an exact day or through an inclusive window.
func firstEligibleRecord(records []models.PackageAvailability, selectedDate time.Time) *models.PackageAvailability {
	for i := range records {
		record := &records[i]
		if record.AvailableDate != nil && pkg.SameDay(*record.AvailableDate, selectedDate) {
			return record
		}
		if record.StartDate != nil && record.EndDate != nil && pkg.WithinDays(selectedDate, *record.StartDate, *record.EndDate) {
			return record
		}
	}
	return nil
}

// ValidateTravelerCounts checks the counts against the package bounds and
// the global cap. Package maximums of zero are treated as unset.
func ValidateTravelerCounts(tourPackage *models.TourPackage, counts models.TravelerCounts) []string {
	var violations []string

	if counts.Adults < 0 || counts.Children < 0 || counts.Infants < 0 {
		violations = append(violations, "traveler counts cannot be negative")
	}
	if counts.Total() <= 0 {
		violations = append(violations, "at least one traveler is required")
	}
	if counts.Total() > MaxTravelersPerCheckout {
		violations = append(violations, fmt.Sprintf("total travelers cannot exceed %d", MaxTravelersPerCheckout))
	}

	if counts.Adults < tourPackage.MinAdults {
		violations = append(violations, fmt.Sprintf("adults must be at least %d", tourPackage.MinAdults))
	}
	if tourPackage.MaxAdults > 0 && counts.Adults > tourPackage.MaxAdults {
		violations = append(violations, fmt.Sprintf("adults cannot exceed %d", tourPackage.MaxAdults))
	}
	if counts.Children < tourPackage.MinChildren {
		violations = append(violations, fmt.Sprintf("children must be at least %d", tourPackage.MinChildren))
	}
	if tourPackage.MaxChildren > 0 && counts.Children > tourPackage.MaxChildren {
		violations = append(violations, fmt.Sprintf("children cannot exceed %d", tourPackage.MaxChildren))
	}
	if tourPackage.MaxInfants > 0 && counts.Infants > tourPackage.MaxInfants {
		violations = append(violations, fmt.Sprintf("infants cannot exceed %d", tourPackage.MaxInfants))
	}

	return violations
}

// ValidateSelectedDate rejects dates before today and dates more than
// MaxBookingYearsAhead years after today.
func ValidateSelectedDate(selectedDate, now time.Time) []string {
	today := pkg.StartOfDay(now)
	day := pkg.StartOfDay(selectedDate)

	var violations []string
	if day.Before(today) {
		violations = append(violations, "selected_date cannot be in the past")
	}
	if day.After(today.AddDate(MaxBookingYearsAhead, 0, 0)) {
		violations = append(violations, fmt.Sprintf("selected_date cannot be more than %d years ahead", MaxBookingYearsAhead))
	}
	return violations
}

func parseSelectedDate(value string) (time.Time, error) {
	selectedDate, err := pkg.ParseDate(value)
	if err != nil {
		return time.Time{}, errors.NewValidationError("Request validation failed", "selected_date must be a date in YYYY-MM-DD format")
	}
	return selectedDate, nil
}
