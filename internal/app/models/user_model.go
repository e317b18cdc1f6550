package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusInactive  UserStatus = "INACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is owned by the account service; this core only reads status and
// billing identity.
type User struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	Phone             *string        `json:"phone,omitempty"`
	Status            UserStatus     `gorm:"type:varchar(20);not null" json:"status"`
	BillingCustomerID *string        `gorm:"type:varchar(255)" json:"billing_customer_id,omitempty"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
