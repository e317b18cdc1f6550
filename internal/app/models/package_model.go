package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PackageType string

const (
	PackageTypeTour     PackageType = "tour"
	PackageTypeActivity PackageType = "activity"
	PackageTypeHotel    PackageType = "hotel"
	PackageTypeTransfer PackageType = "transfer"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// TourPackage is a sellable travel product managed by the catalog service.
type TourPackage struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID       uuid.UUID        `gorm:"type:uuid;index" json:"vendor_id"`
	Title          string           `json:"title"`
	Type           PackageType      `gorm:"type:varchar(20);not null" json:"type"`
	Price          decimal.Decimal  `gorm:"type:decimal(18,2)" json:"price"`
	ChildPrice     *decimal.Decimal `gorm:"type:decimal(18,2)" json:"child_price,omitempty"`
	InfantPrice    *decimal.Decimal `gorm:"type:decimal(18,2)" json:"infant_price,omitempty"`
	Currency       string           `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	MinAdults      int              `gorm:"default:1" json:"min_adults"`
	MaxAdults      int              `gorm:"default:10" json:"max_adults"`
	MinChildren    int              `gorm:"default:0" json:"min_children"`
	MaxChildren    int              `gorm:"default:10" json:"max_children"`
	MaxInfants     int              `gorm:"default:10" json:"max_infants"`
	IsActive       bool             `json:"is_active"`
	ApprovalStatus ApprovalStatus   `gorm:"type:varchar(20)" json:"approval_status"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"deleted_at"`
}

func (p *TourPackage) IsApproved() bool {
	return p.ApprovalStatus == ApprovalStatusApproved
}

// PackageAvailability is a capacity record. Either AvailableDate is set
// for a single day, or StartDate/EndDate bound an inclusive window.
type PackageAvailability struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PackageID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"package_id"`
	AvailableDate  *time.Time `gorm:"type:date" json:"available_date,omitempty"`
	StartDate      *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate        *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	IsAvailable    bool       `json:"is_available"`
	AvailableSlots int        `json:"available_slots"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PackageAvailability) TableName() string {
	return "package_availabilities"
}

type ExtraService struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PackageID uuid.UUID       `gorm:"type:uuid;index;not null" json:"package_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(18,2)" json:"price"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"deleted_at"`
}

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PackageID uuid.UUID `gorm:"type:uuid;index;not null" json:"package_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type TravelerCounts struct {
	Adults   int `json:"adults" validate:"min=0,max=10"`
	Children int `json:"children" validate:"min=0,max=10"`
	Infants  int `json:"infants" validate:"min=0,max=10"`
}

func (c TravelerCounts) Total() int {
	return c.Adults + c.Children + c.Infants
}

type AvailabilityCheckRequest struct {
	PackageID    string `json:"package_id" validate:"required,uuid"`
	SelectedDate string `json:"selected_date" validate:"required"`
	TravelerCounts
}

type AvailabilityResult struct {
	IsAvailable    bool   `json:"is_available"`
	AvailableSlots int    `json:"available_slots"`
	Message        string `json:"message"`
}
