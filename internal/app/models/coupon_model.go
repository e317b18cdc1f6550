package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CouponAmountType string

const (
	CouponAmountTypePercentage CouponAmountType = "percentage"
	CouponAmountTypeFixed      CouponAmountType = "fixed"
)

type CouponRedemptionMethod string

const (
	CouponRedemptionMethodCode      CouponRedemptionMethod = "code"
	CouponRedemptionMethodAutomatic CouponRedemptionMethod = "automatic"
)

type CouponMinimumRequirement string

const (
	CouponMinimumNone     CouponMinimumRequirement = "none"
	CouponMinimumAmount   CouponMinimumRequirement = "amount"
	CouponMinimumQuantity CouponMinimumRequirement = "quantity"
)

// Coupon is owned by the promotions admin; this core only reads it.
type Coupon struct {
	ID                 uuid.UUID                `gorm:"type:uuid;primaryKey" json:"id"`
	Code               string                   `gorm:"type:varchar(50);index" json:"code"`
	Name               string                   `json:"name"`
	RedemptionMethod   CouponRedemptionMethod   `gorm:"type:varchar(20)" json:"redemption_method"`
	Amount             decimal.Decimal          `gorm:"type:decimal(18,2)" json:"amount"`
	AmountType         CouponAmountType         `gorm:"type:varchar(20)" json:"amount_type"`
	Status             bool                     `json:"status"`
	StartsAt           *time.Time               `json:"starts_at,omitempty"`
	ExpiresAt          *time.Time               `json:"expires_at,omitempty"`
	MaxUses            *int                     `json:"max_uses,omitempty"`
	MaxUsesPerUser     *int                     `json:"max_uses_per_user,omitempty"`
	MinimumRequirement CouponMinimumRequirement `gorm:"type:varchar(20);default:'none'" json:"minimum_requirement"`
	MinimumAmount      *decimal.Decimal         `gorm:"type:decimal(18,2)" json:"minimum_amount,omitempty"`
	MinimumQuantity    *int                     `json:"minimum_quantity,omitempty"`
	CreatedAt          time.Time                `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time                `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt           `gorm:"index" json:"deleted_at"`
}

// CouponRedemption is the committed usage ledger. Rows are written by the
// booking pipeline once a checkout has been paid.
type CouponRedemption struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CouponID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"coupon_id"`
	UserID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	BookingID  uuid.UUID  `gorm:"type:uuid;index" json:"booking_id"`
	CheckoutID *uuid.UUID `gorm:"type:uuid" json:"checkout_id,omitempty"`
	RedeemedAt time.Time  `gorm:"autoCreateTime" json:"redeemed_at"`
}

// CouponHold is a temporary redemption. It must never count as usage.
type CouponHold struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CheckoutID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_coupon_holds_checkout_coupon" json:"checkout_id"`
	CouponID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_coupon_holds_checkout_coupon" json:"coupon_id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Coupon     *Coupon   `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
}

type CouponApplyRequest struct {
	CouponCode string  `json:"coupon_code" validate:"required,max=50"`
	PackageID  *string `json:"package_id,omitempty" validate:"omitempty,uuid"`
}

type AppliedCoupon struct {
	ID             uuid.UUID        `json:"id"`
	Code           string           `json:"code"`
	Amount         decimal.Decimal  `json:"amount"`
	AmountType     CouponAmountType `json:"amount_type"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
}
