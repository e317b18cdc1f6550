package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/safatanc/travel-checkout/internal/app/models"
	"github.com/safatanc/travel-checkout/internal/app/pkg"
	"github.com/safatanc/travel-checkout/internal/infrastructures"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.TourPackage{},
		&models.PackageAvailability{},
		&models.ExtraService{},
		&models.Review{},
		&models.Coupon{},
		&models.CouponRedemption{},
		&models.CouponHold{},
		&models.GiftCard{},
		&models.GiftCardPurchase{},
		&models.GiftCardHold{},
		&models.Checkout{},
		&models.CheckoutItem{},
		&models.CheckoutExtraService{},
		&models.CheckoutTraveller{},
		&models.AuditLog{},
	))

	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.CheckoutEvent
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event, ok := v.(models.CheckoutEvent); ok {
		p.events = append(p.events, event)
	}
	return nil
}

func (p *recordingPublisher) Close() error {
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}
	return types
}

type testServices struct {
	db           *gorm.DB
	publisher    *recordingPublisher
	availability *AvailabilityService
	pricing      *PricingService
	coupons      *CouponService
	giftCards    *GiftCardService
	checkouts    *CheckoutService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := newTestDB(t)
	cfg := &infrastructures.AppConfig{
		GiftCardHoldTTL: 30 * time.Minute,
		TxRetryAttempts: 3,
	}
	validator := infrastructures.NewValidator()
	publisher := &recordingPublisher{}

	packageService := NewPackageService(db)
	auditService := NewAuditService()
	userService := NewUserService(db)
	availabilityService := NewAvailabilityService(db, validator, packageService)
	pricingService := NewPricingService()
	billingService := NewBillingService(infrastructures.NewBillingClient(infrastructures.NewBillingConfig(cfg)))

	return &testServices{
		db:           db,
		publisher:    publisher,
		availability: availabilityService,
		pricing:      pricingService,
		coupons:      NewCouponService(db, validator, packageService, auditService, cfg),
		giftCards:    NewGiftCardService(db, validator, auditService, cfg),
		checkouts: NewCheckoutService(
			db, validator, userService, packageService, availabilityService,
			pricingService, NewReviewService(db), billingService, auditService, publisher, cfg,
		),
	}
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format(pkg.DateLayout)
}

func seedUser(t *testing.T, db *gorm.DB, status models.UserStatus) *models.User {
	t.Helper()
	user := &models.User{
		ID:     uuid.New(),
		Name:   "Traveler",
		Email:  uuid.NewString() + "@example.com",
		Status: status,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPackage(t *testing.T, db *gorm.DB, mutate func(p *models.TourPackage)) *models.TourPackage {
	t.Helper()
	tourPackage := &models.TourPackage{
		ID:             uuid.New(),
		VendorID:       uuid.New(),
		Title:          "Island Hopping",
		Type:           models.PackageTypeTour,
		Price:          decimal.NewFromInt(100),
		Currency:       "USD",
		MinAdults:      1,
		MaxAdults:      10,
		MaxChildren:    10,
		MaxInfants:     10,
		IsActive:       true,
		ApprovalStatus: models.ApprovalStatusApproved,
	}
	if mutate != nil {
		mutate(tourPackage)
	}
	require.NoError(t, db.Create(tourPackage).Error)
	return tourPackage
}

func seedCoupon(t *testing.T, db *gorm.DB, mutate func(c *models.Coupon)) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		ID:                 uuid.New(),
		Code:               "SAVE" + uuid.NewString()[:6],
		Name:               "Save",
		RedemptionMethod:   models.CouponRedemptionMethodCode,
		Amount:             decimal.NewFromInt(10),
		AmountType:         models.CouponAmountTypePercentage,
		Status:             true,
		MinimumRequirement: models.CouponMinimumNone,
	}
	if mutate != nil {
		mutate(coupon)
	}
	require.NoError(t, db.Create(coupon).Error)
	return coupon
}

func seedGiftCard(t *testing.T, db *gorm.DB, amount int64, quantity int, status models.GiftCardPaymentStatus) (*models.GiftCard, *models.GiftCardPurchase) {
	t.Helper()
	giftCard := &models.GiftCard{
		ID:       uuid.New(),
		Code:     "GIFT" + uuid.NewString()[:6],
		Title:    "Holiday card",
		Amount:   decimal.NewFromInt(amount),
		IsActive: true,
	}
	require.NoError(t, db.Create(giftCard).Error)

	purchase := &models.GiftCardPurchase{
		ID:            uuid.New(),
		GiftCardID:    giftCard.ID,
		UserID:        uuid.New(),
		Quantity:      &quantity,
		PaymentStatus: status,
		IsActive:      true,
	}
	require.NoError(t, db.Create(purchase).Error)
	return giftCard, purchase
}

// createCheckout opens a draft checkout for two adults through the service.
func createCheckout(t *testing.T, s *testServices, user *models.User, tourPackage *models.TourPackage) *models.CheckoutResponse {
	t.Helper()
	response, err := s.checkouts.Create(context.Background(), user.ID, &models.CheckoutCreateRequest{
		PackageID:      tourPackage.ID.String(),
		SelectedDate:   futureDate(14),
		TravelerCounts: models.TravelerCounts{Adults: 2},
	})
	require.NoError(t, err)
	return response
}
