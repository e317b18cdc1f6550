package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/travel-checkout/internal/app/errors"
	"github.com/safatanc/travel-checkout/internal/app/models"
	"github.com/safatanc/travel-checkout/internal/infrastructures"
	"github.com/safatanc/travel-checkout/internal/metrics"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// couponPurchaseQuantity is the quantity a checkout contributes towards a
// coupon's minimum quantity requirement.
const couponPurchaseQuantity = 1

type CouponService struct {
	db             *gorm.DB
	validator      *infrastructures.Validator
	packageService *PackageService
	auditService   *AuditService
	txAttempts     uint
}

func NewCouponService(db *gorm.DB, validator *infrastructures.Validator, packageService *PackageService, auditService *AuditService, cfg *infrastructures.AppConfig) *CouponService {
	return &CouponService{
		db:             db,
		validator:      validator,
		packageService: packageService,
		auditService:   auditService,
		txAttempts:     cfg.TxRetryAttempts,
	}
}

// ApplyCoupon validates a coupon code against the checkout and records a
// hold for it. Applying the same coupon twice keeps a single hold.
func (s *CouponService) ApplyCoupon(ctx context.Context, userID uuid.UUID, checkoutID string, req *models.CouponApplyRequest) (*models.CouponHold, error) {
	hold, err := s.applyCoupon(ctx, userID, checkoutID, req)
	metrics.CouponApplications.WithLabelValues(metrics.ResultLabel(err, isRejection)).Inc()
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"checkout_id": hold.CheckoutID,
		"coupon_id":   hold.CouponID,
		"user_id":     userID,
	}).Info("coupon applied")

	return hold, nil
}

func (s *CouponService) applyCoupon(ctx context.Context, userID uuid.UUID, checkoutID string, req *models.CouponApplyRequest) (*models.CouponHold, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	checkoutUUID, err := parseUUID(checkoutID, "checkout ID")
	if err != nil {
		return nil, err
	}
	packageID, err := parseOptionalUUID(req.PackageID, "package ID")
	if err != nil {
		return nil, err
	}

	var hold models.CouponHold
	err = runInTx(ctx, s.db, s.txAttempts, func(tx *gorm.DB) error {
		checkout, err := loadOwnedCheckout(tx, checkoutUUID, userID, true)
		if err != nil {
			return err
		}
		if err := requireDraft(checkout); err != nil {
			return err
		}

		var coupon models.Coupon
		err = couponByCodeForUpdate(tx, req.CouponCode).First(&coupon).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NewNotFoundError("Coupon not found")
			}
			return errors.NewInternalServerError(err, "Failed to get coupon")
		}

		tourPackage, err := s.resolvePackage(tx, checkout, packageID)
		if err != nil {
			return err
		}

		if err := s.checkEligibility(tx, &coupon, userID, tourPackage, time.Now()); err != nil {
			return err
		}

		candidate := models.CouponHold{
			ID:         uuid.New(),
			CheckoutID: checkout.ID,
			CouponID:   coupon.ID,
			UserID:     userID,
		}
		err = upsertCouponHold(tx, &candidate).Error
		if err != nil {
			return errors.NewInternalServerError(err, "Failed to hold coupon")
		}

		err = tx.Preload("Coupon").
			Where("checkout_id = ? AND coupon_id = ?", checkout.ID, coupon.ID).
			First(&hold).Error
		if err != nil {
			return errors.NewInternalServerError(err, "Failed to get coupon hold")
		}

		return s.auditService.LogAuditTx(tx, "coupon_holds", hold.ID, models.AuditActionCreate, nil, hold, &userID)
	})
	if err != nil {
		return nil, err
	}

	return &hold, nil
}

// couponByCodeForUpdate selects a code-redeemable coupon and keeps its row
// locked until the transaction ends.
func couponByCodeForUpdate(tx *gorm.DB, code string) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ? AND redemption_method = ?", code, models.CouponRedemptionMethodCode)
}

// upsertCouponHold keeps a single hold per checkout and coupon.
func upsertCouponHold(tx *gorm.DB, hold *models.CouponHold) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "checkout_id"}, {Name: "coupon_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "updated_at"}),
	}).Create(hold)
}

// resolvePackage returns the package the coupon is priced against: the
// requested one, or the package of the checkout item.
func (s *CouponService) resolvePackage(tx *gorm.DB, checkout *models.Checkout, packageID *uuid.UUID) (*models.TourPackage, error) {
	if packageID != nil {
		tourPackage, err := s.packageService.getPackage(tx, *packageID)
		if err != nil {
			return nil, err
		}
		if !tourPackage.IsActive {
			return nil, errors.NewInvalidStateError("Package is not active")
		}
		return tourPackage, nil
	}

	var item models.CheckoutItem
	err := tx.Where("checkout_id = ?", checkout.ID).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewInvalidStateError("Checkout has no item")
		}
		return nil, errors.NewInternalServerError(err, "Failed to get checkout item")
	}

	return s.packageService.getPackage(tx, item.PackageID)
}

// checkEligibility runs the coupon rules in order and stops at the first
// failure. Usage is counted from committed redemptions only.
func (s *CouponService) checkEligibility(tx *gorm.DB, coupon *models.Coupon, userID uuid.UUID, tourPackage *models.TourPackage, now time.Time) error {
	if !coupon.Status {
		return errors.NewBusinessRuleError("Coupon is not active")
	}
	if coupon.ExpiresAt != nil && !coupon.ExpiresAt.After(now) {
		return errors.NewBusinessRuleError("Coupon has expired")
	}
	if coupon.StartsAt != nil && coupon.StartsAt.After(now) {
		return errors.NewBusinessRuleError("Coupon is not yet valid")
	}

	if coupon.MaxUses != nil {
		var used int64
		err := tx.Model(&models.CouponRedemption{}).Where("coupon_id = ?", coupon.ID).Count(&used).Error
		if err != nil {
			return errors.NewInternalServerError(err, "Failed to count coupon redemptions")
		}
		if used >= int64(*coupon.MaxUses) {
			return errors.NewBusinessRuleError("Coupon usage limit has been reached")
		}
	}

	if coupon.MaxUsesPerUser != nil {
		var used int64
		err := tx.Model(&models.CouponRedemption{}).
			Where("coupon_id = ? AND user_id = ?", coupon.ID, userID).
			Count(&used).Error
		if err != nil {
			return errors.NewInternalServerError(err, "Failed to count coupon redemptions")
		}
		if used >= int64(*coupon.MaxUsesPerUser) {
			return errors.NewBusinessRuleError("You have reached the usage limit for this coupon")
		}
	}

	switch coupon.MinimumRequirement {
	case models.CouponMinimumAmount:
		if coupon.MinimumAmount != nil && tourPackage.Price.LessThan(*coupon.MinimumAmount) {
			return errors.NewBusinessRuleError(fmt.Sprintf("Minimum purchase amount of %s is required", coupon.MinimumAmount.StringFixed(2)))
		}
	case models.CouponMinimumQuantity:
		if coupon.MinimumQuantity != nil && couponPurchaseQuantity < *coupon.MinimumQuantity {
			return errors.NewBusinessRuleError(fmt.Sprintf("Minimum purchase quantity of %d is required", *coupon.MinimumQuantity))
		}
	}

	return nil
}

// RemoveCoupon releases the hold of a coupon on the checkout.
func (s *CouponService) RemoveCoupon(ctx context.Context, userID uuid.UUID, checkoutID, couponCode string) error {
	checkoutUUID, err := parseUUID(checkoutID, "checkout ID")
	if err != nil {
		return err
	}

	return runInTx(ctx, s.db, s.txAttempts, func(tx *gorm.DB) error {
		checkout, err := loadOwnedCheckout(tx, checkoutUUID, userID, true)
		if err != nil {
			return err
		}
		if err := requireDraft(checkout); err != nil {
			return err
		}

		var hold models.CouponHold
		err = tx.Joins("JOIN coupons ON coupons.id = coupon_holds.coupon_id").
			Where("coupon_holds.checkout_id = ? AND coupons.code = ?", checkout.ID, couponCode).
			First(&hold).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NewNotFoundError("Coupon is not applied to this checkout")
			}
			return errors.NewInternalServerError(err, "Failed to get coupon hold")
		}

		if err := tx.Delete(&hold).Error; err != nil {
			return errors.NewInternalServerError(err, "Failed to remove coupon")
		}

		return s.auditService.LogAuditTx(tx, "coupon_holds", hold.ID, models.AuditActionDelete, hold, nil, &userID)
	})
}
