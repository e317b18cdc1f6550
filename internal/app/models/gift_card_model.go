package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GiftCardPaymentStatus string

const (
	GiftCardPaymentPending GiftCardPaymentStatus = "PENDING"
	GiftCardPaymentPaid    GiftCardPaymentStatus = "PAID"
	GiftCardPaymentFailed  GiftCardPaymentStatus = "FAILED"
)

type GiftCard struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string          `gorm:"type:varchar(50);uniqueIndex" json:"code"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"deleted_at"`
}

// GiftCardPurchase is the paid acquisition of a gift card. Quantity is the
// number of certificates that can still be redeemed.
type GiftCardPurchase struct {
	ID            uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	GiftCardID    uuid.UUID             `gorm:"type:uuid;index;not null" json:"gift_card_id"`
	UserID        uuid.UUID             `gorm:"type:uuid;index" json:"user_id"`
	Quantity      *int                  `gorm:"default:1" json:"quantity"`
	PaymentStatus GiftCardPaymentStatus `gorm:"type:varchar(20)" json:"payment_status"`
	IsActive      bool                  `json:"is_active"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
	GiftCard      *GiftCard             `gorm:"foreignKey:GiftCardID" json:"gift_card,omitempty"`
}

// AvailableQuantity defaults to a single certificate when unset.
func (p *GiftCardPurchase) AvailableQuantity() int {
	if p.Quantity == nil {
		return 1
	}
	return *p.Quantity
}

// GiftCardHold reserves Quantity certificates of a purchase for a checkout
// until ExpiresAt. Re-applying replaces the quantity.
type GiftCardHold struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CheckoutID         uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_gift_card_holds_key" json:"checkout_id"`
	GiftCardPurchaseID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_gift_card_holds_key" json:"gift_card_purchase_id"`
	UserID             uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_gift_card_holds_key" json:"user_id"`
	Quantity           int               `gorm:"not null" json:"quantity"`
	ExpiresAt          time.Time         `json:"expires_at"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	GiftCardPurchase   *GiftCardPurchase `gorm:"foreignKey:GiftCardPurchaseID" json:"gift_card_purchase,omitempty"`
}

func (h *GiftCardHold) IsExpired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}

type GiftCardApplyRequest struct {
	Code     string `json:"code" validate:"required,max=50"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// AppliedGiftCard is the denormalized display view of a gift-card hold.
type AppliedGiftCard struct {
	ID          uuid.UUID       `json:"id"`
	HoldID      uuid.UUID       `json:"hold_id"`
	Code        string          `json:"code"`
	Amount      decimal.Decimal `json:"amount"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type GiftCardApplyResult struct {
	Hold     *GiftCardHold    `json:"hold"`
	GiftCard *AppliedGiftCard `json:"gift_card"`
}
