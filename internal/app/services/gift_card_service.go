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

type GiftCardService struct {
	db           *gorm.DB
	validator    *infrastructures.Validator
	auditService *AuditService
	holdTTL      time.Duration
	txAttempts   uint
}

func NewGiftCardService(db *gorm.DB, validator *infrastructures.Validator, auditService *AuditService, cfg *infrastructures.AppConfig) *GiftCardService {
	return &GiftCardService{
		db:           db,
		validator:    validator,
		auditService: auditService,
		holdTTL:      cfg.GiftCardHoldTTL,
		txAttempts:   cfg.TxRetryAttempts,
	}
}

// ApplyGiftCard reserves certificates of a paid gift card purchase for the
// checkout. Re-applying replaces the held quantity and refreshes expiry.
func (s *GiftCardService) ApplyGiftCard(ctx context.Context, userID uuid.UUID, checkoutID string, req *models.GiftCardApplyRequest) (*models.GiftCardApplyResult, error) {
	result, err := s.applyGiftCard(ctx, userID, checkoutID, req)
	metrics.GiftCardApplications.WithLabelValues(metrics.ResultLabel(err, isRejection)).Inc()
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"checkout_id": result.Hold.CheckoutID,
		"hold_id":     result.Hold.ID,
		"quantity":    result.Hold.Quantity,
		"user_id":     userID,
	}).Info("gift card applied")

	return result, nil
}

func (s *GiftCardService) applyGiftCard(ctx context.Context, userID uuid.UUID, checkoutID string, req *models.GiftCardApplyRequest) (*models.GiftCardApplyResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	checkoutUUID, err := parseUUID(checkoutID, "checkout ID")
	if err != nil {
		return nil, err
	}

	var result models.GiftCardApplyResult
	err = runInTx(ctx, s.db, s.txAttempts, func(tx *gorm.DB) error {
		checkout, err := loadOwnedCheckout(tx, checkoutUUID, userID, true)
		if err != nil {
			return err
		}
		if err := requireDraft(checkout); err != nil {
			return err
		}

		var giftCard models.GiftCard
		err = tx.Where("code = ? AND is_active = ?", req.Code, true).First(&giftCard).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NewNotFoundError("Gift card not found")
			}
			return errors.NewInternalServerError(err, "Failed to get gift card")
		}

		var purchase models.GiftCardPurchase
		err = paidPurchaseForUpdate(tx, giftCard.ID).First(&purchase).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NewNotFoundError("Gift card not found or not paid")
			}
			return errors.NewInternalServerError(err, "Failed to get gift card purchase")
		}

		now := time.Now()
		reserved, err := reservedQuantity(tx, purchase.ID, checkout.ID, now)
		if err != nil {
			return err
		}

		available := purchase.AvailableQuantity() - reserved
		if available < 0 {
			available = 0
		}
		if req.Quantity > available {
			return errors.NewBusinessRuleError(fmt.Sprintf("Only %d gift card(s) available", available))
		}

		candidate := models.GiftCardHold{
			ID:                 uuid.New(),
			CheckoutID:         checkout.ID,
			GiftCardPurchaseID: purchase.ID,
			UserID:             userID,
			Quantity:           req.Quantity,
			ExpiresAt:          now.Add(s.holdTTL),
		}
		err = upsertGiftCardHold(tx, &candidate).Error
		if err != nil {
			return errors.NewInternalServerError(err, "Failed to hold gift card")
		}

		var hold models.GiftCardHold
		err = tx.Where("checkout_id = ? AND gift_card_purchase_id = ? AND user_id = ?", checkout.ID, purchase.ID, userID).
			First(&hold).Error
		if err != nil {
			return errors.NewInternalServerError(err, "Failed to get gift card hold")
		}

		result = models.GiftCardApplyResult{
			Hold:     &hold,
			GiftCard: toAppliedGiftCard(&hold, &giftCard),
		}

		return s.auditService.LogAuditTx(tx, "gift_card_holds", hold.ID, models.AuditActionCreate, nil, hold, &userID)
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// paidPurchaseForUpdate selects the oldest paid purchase of a gift card and
// keeps its row locked until the transaction ends.
func paidPurchaseForUpdate(tx *gorm.DB, giftCardID uuid.UUID) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("gift_card_id = ? AND payment_status = ? AND is_active = ?", giftCardID, models.GiftCardPaymentPaid, true).
		Order("created_at ASC")
}

// upsertGiftCardHold keeps a single hold per checkout, purchase and user.
func upsertGiftCardHold(tx *gorm.DB, hold *models.GiftCardHold) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "checkout_id"}, {Name: "gift_card_purchase_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "expires_at", "updated_at"}),
	}).Create(hold)
}

// reservedQuantity sums the live holds on a purchase from other checkouts.
// Holds of soft-deleted checkouts and expired holds are not counted.
func reservedQuantity(tx *gorm.DB, purchaseID, checkoutID uuid.UUID, now time.Time) (int, error) {
	var holds []models.GiftCardHold
	err := tx.Joins("JOIN checkouts ON checkouts.id = gift_card_holds.checkout_id AND checkouts.deleted_at IS NULL").
		Where("gift_card_holds.gift_card_purchase_id = ? AND gift_card_holds.checkout_id <> ?", purchaseID, checkoutID).
		Find(&holds).Error
	if err != nil {
		return 0, errors.NewInternalServerError(err, "Failed to get gift card holds")
	}

	reserved := 0
	for _, hold := range holds {
		if !hold.IsExpired(now) {
			reserved += hold.Quantity
		}
	}
	return reserved, nil
}

// RemoveGiftCard releases a gift card hold of the checkout.
func (s *GiftCardService) RemoveGiftCard(ctx context.Context, userID uuid.UUID, checkoutID, holdID string) error {
	checkoutUUID, err := parseUUID(checkoutID, "checkout ID")
	if err != nil {
		return err
	}
	holdUUID, err := parseUUID(holdID, "hold ID")
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

		var hold models.GiftCardHold
		err = tx.Where("id = ? AND checkout_id = ?", holdUUID, checkout.ID).First(&hold).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NewNotFoundError("Gift card is not applied to this checkout")
			}
			return errors.NewInternalServerError(err, "Failed to get gift card hold")
		}

		if err := tx.Delete(&hold).Error; err != nil {
			return errors.NewInternalServerError(err, "Failed to remove gift card")
		}

		return s.auditService.LogAuditTx(tx, "gift_card_holds", hold.ID, models.AuditActionDelete, hold, nil, &userID)
	})
}
