package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CheckoutStatus string

const (
	CheckoutStatusDraft CheckoutStatus = "DRAFT"
	// CheckoutStatusConsumed is set by the booking pipeline once a booking
	// has been created from the checkout.
	CheckoutStatusConsumed CheckoutStatus = "CONSUMED"
)

type TravellerType string

const (
	TravellerTypeAdult  TravellerType = "adult"
	TravellerTypeChild  TravellerType = "child"
	TravellerTypeInfant TravellerType = "infant"
)

type Checkout struct {
	ID              uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID              `gorm:"type:uuid;index;not null" json:"user_id"`
	VendorID        uuid.UUID              `gorm:"type:uuid;index" json:"vendor_id"`
	Status          CheckoutStatus         `gorm:"type:varchar(20);not null;default:'DRAFT'" json:"status"`
	ContactName     *string                `json:"contact_name,omitempty"`
	ContactEmail    *string                `json:"contact_email,omitempty"`
	ContactPhone    *string                `json:"contact_phone,omitempty"`
	SpecialRequest  *string                `gorm:"type:text" json:"special_request,omitempty"`
	PaymentMethodID *string                `gorm:"type:varchar(255)" json:"payment_method_id,omitempty"`
	CreatedAt       time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt         `gorm:"index" json:"deleted_at"`
	Item            *CheckoutItem          `gorm:"foreignKey:CheckoutID" json:"item,omitempty"`
	ExtraServices   []CheckoutExtraService `gorm:"foreignKey:CheckoutID" json:"extra_services"`
	Travellers      []CheckoutTraveller    `gorm:"foreignKey:CheckoutID" json:"travellers"`
	CouponHolds     []CouponHold           `gorm:"foreignKey:CheckoutID" json:"-"`
	GiftCardHolds   []GiftCardHold         `gorm:"foreignKey:CheckoutID" json:"-"`
}

func (c *Checkout) IsDraft() bool {
	return c.Status == CheckoutStatusDraft
}

func (c *Checkout) IsOwnedBy(userID uuid.UUID) bool {
	return c.UserID == userID
}

type CheckoutItem struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CheckoutID     uuid.UUID        `gorm:"type:uuid;uniqueIndex;not null" json:"checkout_id"`
	PackageID      uuid.UUID        `gorm:"type:uuid;index;not null" json:"package_id"`
	SelectedDate   time.Time        `gorm:"type:date;not null" json:"selected_date"`
	EndDate        *time.Time       `gorm:"type:date" json:"end_date,omitempty"`
	Adults         int              `json:"adults"`
	Children       int              `json:"children"`
	Infants        int              `json:"infants"`
	PricePerPerson decimal.Decimal  `gorm:"type:decimal(18,2)" json:"price_per_person"`
	ChildPrice     *decimal.Decimal `gorm:"type:decimal(18,2)" json:"child_price,omitempty"`
	InfantPrice    *decimal.Decimal `gorm:"type:decimal(18,2)" json:"infant_price,omitempty"`
	TotalPrice     *decimal.Decimal `gorm:"type:decimal(18,2)" json:"total_price,omitempty"`
	FinalPrice     *decimal.Decimal `gorm:"type:decimal(18,2)" json:"final_price,omitempty"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	Package        *TourPackage     `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}

func (i *CheckoutItem) Travelers() TravelerCounts {
	return TravelerCounts{Adults: i.Adults, Children: i.Children, Infants: i.Infants}
}

type CheckoutExtraService struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CheckoutID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"checkout_id"`
	PackageID      uuid.UUID       `gorm:"type:uuid;not null" json:"package_id"`
	ExtraServiceID uuid.UUID       `gorm:"type:uuid;not null" json:"extra_service_id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `gorm:"type:decimal(18,2)" json:"price"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type CheckoutTraveller struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	CheckoutID uuid.UUID     `gorm:"type:uuid;index;not null" json:"checkout_id"`
	FirstName  string        `json:"first_name"`
	LastName   string        `json:"last_name"`
	Type       TravellerType `gorm:"type:varchar(10)" json:"type"`
	Age        *int          `json:"age,omitempty"`
	Email      *string       `json:"email,omitempty"`
	Phone      *string       `json:"phone,omitempty"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

type TravellerRequest struct {
	FirstName string        `json:"first_name" validate:"required,max=100"`
	LastName  string        `json:"last_name" validate:"required,max=100"`
	Type      TravellerType `json:"type" validate:"required,oneof=adult child infant"`
	Age       *int          `json:"age,omitempty" validate:"omitempty,min=0,max=120"`
	Email     *string       `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string       `json:"phone,omitempty" validate:"omitempty,max=30"`
}

type CheckoutCreateRequest struct {
	PackageID       string             `json:"package_id" validate:"required,uuid"`
	SelectedDate    string             `json:"selected_date" validate:"required"`
	EndDate         *string            `json:"end_date,omitempty"`
	ContactName     *string            `json:"contact_name,omitempty" validate:"omitempty,max=255"`
	ContactEmail    *string            `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone    *string            `json:"contact_phone,omitempty" validate:"omitempty,max=30"`
	SpecialRequest  *string            `json:"special_request,omitempty" validate:"omitempty,max=1000"`
	ExtraServiceIDs []string           `json:"extra_service_ids,omitempty" validate:"omitempty,dive,uuid"`
	Travellers      []TravellerRequest `json:"travellers,omitempty" validate:"omitempty,dive"`
	TravelerCounts
}

type CheckoutUpdateRequest struct {
	ContactName     *string   `json:"contact_name,omitempty" validate:"omitempty,max=255"`
	ContactEmail    *string   `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone    *string   `json:"contact_phone,omitempty" validate:"omitempty,max=30"`
	SpecialRequest  *string   `json:"special_request,omitempty" validate:"omitempty,max=1000"`
	ExtraServiceIDs *[]string `json:"extra_service_ids,omitempty" validate:"omitempty,dive,uuid"`
	PaymentMethodID *string   `json:"payment_method_id,omitempty" validate:"omitempty,max=255"`
}

// CheckoutFilter holds the optional criteria for listing checkouts. Nil
// fields are ignored.
type CheckoutFilter struct {
	UserID        uuid.UUID       `json:"-"`
	VendorID      *uuid.UUID      `json:"vendor_id,omitempty"`
	PackageID     *uuid.UUID      `json:"package_id,omitempty"`
	Status        *CheckoutStatus `json:"status,omitempty" validate:"omitempty,oneof=DRAFT CONSUMED"`
	CreatedAfter  *time.Time      `json:"created_after,omitempty"`
	CreatedBefore *time.Time      `json:"created_before,omitempty"`
}

// Apply compiles the filter into query conditions.
func (f CheckoutFilter) Apply(query *gorm.DB) *gorm.DB {
	query = query.Where("checkouts.user_id = ?", f.UserID)
	if f.VendorID != nil {
		query = query.Where("checkouts.vendor_id = ?", *f.VendorID)
	}
	if f.Status != nil {
		query = query.Where("checkouts.status = ?", *f.Status)
	}
	if f.PackageID != nil {
		query = query.Where("EXISTS (SELECT 1 FROM checkout_items ci WHERE ci.checkout_id = checkouts.id AND ci.package_id = ?)", *f.PackageID)
	}
	if f.CreatedAfter != nil {
		query = query.Where("checkouts.created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		query = query.Where("checkouts.created_at < ?", *f.CreatedBefore)
	}
	return query
}

type TravelerSummary struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
	Total    int `json:"total"`
}

// PriceSummary is derived from checkout state on every read and never
// stored.
type PriceSummary struct {
	Subtotal        decimal.Decimal   `json:"subtotal"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	DiscountAmount  decimal.Decimal   `json:"discount_amount"`
	FinalPrice      decimal.Decimal   `json:"final_price"`
	GiftCardAmount  decimal.Decimal   `json:"gift_card_amount"`
	TravelerSummary TravelerSummary   `json:"traveler_summary"`
	AppliedCoupons  []AppliedCoupon   `json:"applied_coupons"`
	AppliedGiftCard []AppliedGiftCard `json:"applied_gift_cards"`
}

// CheckoutResponse is a checkout with its derived price. AverageRating is
// only filled for single checkout reads.
type CheckoutResponse struct {
	*Checkout
	Price         PriceSummary `json:"price"`
	AverageRating *float64     `json:"average_rating,omitempty"`
}

const (
	EventCheckoutCreated   = "checkout.created"
	EventCheckoutUpdated   = "checkout.updated"
	EventCheckoutAbandoned = "checkout.abandoned"
)

// CheckoutEvent is published to the event exchange after a lifecycle
// change has been committed.
type CheckoutEvent struct {
	Type       string         `json:"type"`
	CheckoutID uuid.UUID      `json:"checkout_id"`
	UserID     uuid.UUID      `json:"user_id"`
	Status     CheckoutStatus `json:"status"`
	Price      *PriceSummary  `json:"price,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
