package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/travel-checkout/internal/app/errors"
	"github.com/safatanc/travel-checkout/internal/app/models"
	"github.com/safatanc/travel-checkout/internal/app/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(value string) *string {
	return &value
}

func TestCreateCheckoutPricesItem(t *testing.T) {
	s := newTestServices(t)
	user := seedUser(t, s.db, models.UserStatusActive)
	tourPackage := seedPackage(t, s.db, nil)

	response := createCheckout(t, s, user, tourPackage)

	assert.Equal(t, models.CheckoutStatusDraft, response.Status)
	assert.Equal(t, tourPackage.VendorID, response.VendorID)
	require.NotNil(t, response.Item)
	assert.Equal(t, "200.00", response.Item.TotalPrice.StringFixed(2))
	assert.Equal(t, "200.00", response.Item.FinalPrice.StringFixed(2))
	assert.Equal(t, "200.00", response.Price.TotalPrice.StringFixed(2))
	assert.Equal(t, "200.00", response.Price.FinalPrice.StringFixed(2))
	assert.Equal(t, 2, response.Price.TravelerSummary.Total)
	assert.Equal(t, []string{models.EventCheckoutCreated}, s.publisher.types())

	var audits int64
	require.NoError(t, s.db.Model(&models.AuditLog{}).Where("record_id = ?", response.ID).Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestCreateCheckoutWithExtrasAndTravellers(t *testing.T) {
	s := newTestServices(t)
	user := seedUser(t, s.db, models.UserStatusActive)
	tourPackage := seedPackage(t, s.db, func(p *models.TourPackage) { p.ChildPrice = decPtr("40") })
	extra := &models.ExtraService{ID: uuid.New(), PackageID: tourPackage.ID, Name: "Snorkel gear", Price: dec("12.50"), IsActive: true}
	require.NoError(t, s.db.Create(extra).Error)

	response, err := s.checkouts.Create(context.Background(), user.ID, &models.CheckoutCreateRequest{
		PackageID:       tourPackage.ID.String(),
		SelectedDate:    futureDate(20),
		ContactName:     strPtr("Ana Ruiz"),
		ContactEmail:    strPtr("ana@example.com"),
		ExtraServiceIDs: []string{extra.ID.String()},
		Travellers: []models.TravellerRequest{
			{FirstName: "Ana", LastName: "Ruiz", Type: models.TravellerTypeAdult},
			{FirstName: "Leo", LastName: "Ruiz", Type: models.TravellerTypeChild},
		},
		TravelerCounts: models.TravelerCounts{Adults: 1, Children: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, "140.00", response.Item.TotalPrice.StringFixed(2))
	require.Len(t, response.ExtraServices, 1)
	assert.Equal(t, "Snorkel gear", response.ExtraServices[0].Name)
	assert.Len(t, response.Travellers, 2)
	assert.Equal(t, "152.50", response.Price.Subtotal.StringFixed(2))
	assert.Equal(t, "152.50", response.Price.FinalPrice.StringFixed(2))
}

func TestCreateCheckoutDateWindow(t *testing.T) {
	s := newTestServices(t)
	user := seedUser(t, s.db, models.UserStatusActive)
	tourPackage := seedPackage(t, s.db, nil)

	for _, selected := range []string{
		time.Now().AddDate(0, 0, -1).Format(pkg.DateLayout),
		time.Now().AddDate(3, 0, 0).Format(pkg.DateLayout),
	} {
		_, err := s.checkouts.Create(context.Background(), user.ID, &models.CheckoutCreateRequest{
			PackageID:      tourPackage.ID.String(),
			SelectedDate:   selected,
			TravelerCounts: models.TravelerCounts{Adults: 1},
		})
		assert.True(t, errors.IsKind(err, errors.KindValidationFailed), "date %s", selected)
	}

	var count int64
	require.NoError(t, s.db.Model(&models.Checkout{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateCheckoutCollectsViolations(t *testing.T) {
	s := newTestServices(t)
	user := seedUser(t, s.db, models.UserStatusActive)
	tourPackage := seedPackage(t, s.db, func(p *models.TourPackage) { p.MinAdults = 2 })

	_, err := s.checkouts.Create(context.Background(), user.ID, &models.CheckoutCreateRequest{
		PackageID:    tourPackage.ID.String(),
		SelectedDate: time.Now().AddDate(0, 0, -3).Format(pkg.DateLayout),
		Travellers: []models.TravellerRequest{
			{FirstName: "A", LastName: "B", Type: models.TravellerTypeChild},
		},
		TravelerCounts: models.TravelerCounts{Adults: 1},
	})

	require.Error(t, err)
	appErr := err.(*errors.AppError)
	assert.Equal(t, errors.KindValidationFailed, appErr.Kind)
	assert.ElementsMatch(t, []string{
		"adults must be at least 2",
		"selected_date cannot be in the past",
		"child travellers cannot exceed 0",
	}, appErr.Errors)
}

func TestCreateCheckoutPreconditions(t *testing.T) {
	s := newTestServices(t)
	active := seedUser(t, s.db, models.UserStatusActive)
	suspended := seedUser(t, s.db, models.UserStatusSuspended)
	approved := seedPackage(t, s.db, nil)
	inactive := seedPackage(t, s.db, func(p *models.TourPackage) { p.IsActive = false })
	soldOut := seedPackage(t, s.db, func(p *models.TourPackage) { p.Type = models.PackageTypeActivity })

	request := func(tourPackage *models.TourPackage) *models.CheckoutCreateRequest {
		return &models.CheckoutCreateRequest{
			PackageID:      tourPackage.ID.String(),
			SelectedDate:   futureDate(9),
			TravelerCounts: models.TravelerCounts{Adults: 1},
		}
	}

	_, err := s.checkouts.Create(context.Background(), suspended.ID, request(approved))
	assert.True(t, errors.IsKind(err, errors.KindInvalidState))

	_, err = s.checkouts.Create(context.Background(), active.ID, request(inactive))
	assert.True(t, errors.IsKind(err, errors.KindInvalidState))

	_, err = s.checkouts.Create(context.Background(), active.ID, request(soldOut))
	assert.True(t, errors.IsKind(err, errors.KindBusinessRuleViolation))

	_, err = s.checkouts.Create(context.Background(), active.ID, &models.CheckoutCreateRequest{
		PackageID:       approved.ID.String(),
		SelectedDate:    futureDate(9),
		ExtraServiceIDs: []string{uuid.NewString()},
		TravelerCounts:  models.TravelerCounts{Adults: 1},
	})
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	assert.Empty(t, s.publisher.types())
}

func TestRemoveCheckoutByNonOwner(t *testing.T) {
	s := newTestServices(t)
	owner := seedUser(t, s.db, models.UserStatusActive)
	checkout := createCheckout(t, s, owner, seedPackage(t, s.db, nil))
	intruder := seedUser(t, s.db, models.UserStatusActive)

	err := s.checkouts.Remove(context.Background(), intruder.ID, checkout.ID.String())

	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnauthorized))
	assert.Equal(t, http.StatusForbidden, err.(*errors.AppError).StatusCode)

	found, err := s.checkouts.FindOne(context.Background(), owner.ID, checkout.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutStatusDraft, found.Status)
}

func TestRemoveCheckoutReleasesHolds(t *testing.T) {
	s := newTestServices(t)
	user := seedUser(t, s.db, models.UserStatusActive)
	checkout := createCheckout(t, s, user, seedPackage(t, s.db, nil))
	coupon := seedCoupon(t, s.db, nil)
	giftCard, _ := seedGiftCard(t, s.db, 50, 1, models.GiftCardPaymentPaid)

	_, err := applyCode(s, user, checkout.ID, coupon.Code)
	require.NoError(t, err)
	_, err = applyGiftCard(s, user, checkout.ID, giftCard.Code, 1)
	require.NoError(t, err)

	require.NoError(t, s.checkouts.Remove(context.Background(), user.ID, checkout.ID.String()))

	_, err = s.checkouts.FindOne(context.Background(), user.ID, checkout.ID.String())
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	var couponHolds, giftCardHolds int64
	require.NoError(t, s.db.Model(&models.CouponHold{}).Count(&couponHolds).Error)
	require.NoError(t, s.db.Model(&models.GiftCardHold{}).Count(&giftCardHolds).Error)
	assert.Zero(t, couponHolds)
	assert.Zero(t, giftCardHolds)

	var deleted models.Checkout
	require.NoError(t, s.db.Unscoped().Where("id = ?", checkout.ID).First(&deleted).Error)
	assert.True(t, deleted.DeletedAt.Valid)

	assert.Equal(t, []string{models.EventCheckoutCreated, models.EventCheckoutAbandoned}, s.publisher.types())

	// the released certificate is available to another checkout again
	other := seedUser(t, s.db, models.UserStatusActive)
	_, err = applyGiftCard(s, other, createCheckout(t, s, other, seedPackage(t, s.db, nil)).ID, giftCard.Code, 1)
	assert.NoError(t, err)
}

func TestRemoveConsumedCheckout(t *testing.T) {
	s := newTestServices(t)
	user := seedUser(t, s.db, models.UserStatusActive)
	checkout := createCheckout(t, s, user, seedPackage(t, s.db, nil))
	require.NoError(t, s.db.Model(&models.Checkout{}).Where("id = ?", checkout.ID).
		Update("status", models.CheckoutStatusConsumed).Error)

	err := s.checkouts.Remove(context.Background(), user.ID, checkout.ID.String())
	assert.True(t, errors.IsKind(err, errors.KindInvalidState))

	coupon := seedCoupon(t, s.db, nil)
	_, err = applyCode(s, user, checkout.ID, coupon.Code)
	assert.True(t, errors.IsKind(err, errors.KindInvalidState))
}

func TestUpdateCheckout(t *testing.T) {
	s := newTestServices(t)
	user := seedUser(t, s.db, models.UserStatusActive)
	tourPackage := seedPackage(t, s.db, nil)
	first := &models.ExtraService{ID: uuid.New(), PackageID: tourPackage.ID, Name: "Lunch", Price: dec("20"), IsActive: true}
	second := &models.ExtraService{ID: uuid.New(), PackageID: tourPackage.ID, Name: "Photos", Price: dec("30"), IsActive: true}
	require.NoError(t, s.db.Create(first).Error)
	require.NoError(t, s.db.Create(second).Error)

	checkout, err := s.checkouts.Create(context.Background(), user.ID, &models.CheckoutCreateRequest{
		PackageID:       tourPackage.ID.String(),
		SelectedDate:    futureDate(4),
		ExtraServiceIDs: []string{first.ID.String()},
		TravelerCounts:  models.TravelerCounts{Adults: 1},
	})
	require.NoError(t, err)

	updated, err := s.checkouts.Update(context.Background(), user.ID, checkout.ID.String(), &models.CheckoutUpdateRequest{
		ContactPhone:    strPtr("+62 811 000"),
		ExtraServiceIDs: &[]string{second.ID.String()},
	})

	require.NoError(t, err)
	require.NotNil(t, updated.ContactPhone)
	assert.Equal(t, "+62 811 000", *updated.ContactPhone)
	require.Len(t, updated.ExtraServices, 1)
	assert.Equal(t, "Photos", updated.ExtraServices[0].Name)
	assert.Equal(t, "130.00", updated.Price.FinalPrice.StringFixed(2))
	assert.Contains(t, s.publisher.types(), models.EventCheckoutUpdated)

	intruder := seedUser(t, s.db, models.UserStatusActive)
	_, err = s.checkouts.Update(context.Background(), intruder.ID, checkout.ID.String(), &models.CheckoutUpdateRequest{
		ContactPhone: strPtr("000"),
	})
	assert.True(t, errors.IsKind(err, errors.KindUnauthorized))
}

func TestUpdateCheckoutPaymentMethodWithoutBilling(t *testing.T) {
	s := newTestServices(t)
	user := seedUser(t, s.db, models.UserStatusActive)
	checkout := createCheckout(t, s, user, seedPackage(t, s.db, nil))

	_, err := s.checkouts.Update(context.Background(), user.ID, checkout.ID.String(), &models.CheckoutUpdateRequest{
		PaymentMethodID: strPtr("pm_123"),
	})

	assert.True(t, errors.IsKind(err, errors.KindInvalidState))
}

func TestFindAllCheckouts(t *testing.T) {
	s := newTestServices(t)
	user := seedUser(t, s.db, models.UserStatusActive)
	beach := seedPackage(t, s.db, nil)
	mountain := seedPackage(t, s.db, nil)
	createCheckout(t, s, user, beach)
	createCheckout(t, s, user, beach)
	createCheckout(t, s, user, mountain)

	other := seedUser(t, s.db, models.UserStatusActive)
	createCheckout(t, s, other, beach)

	page, err := s.checkouts.FindAll(context.Background(), user.ID, &models.CheckoutFilter{}, &models.PaginationRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.Len(t, page.Items, 2)
	for _, item := range page.Items {
		assert.Equal(t, user.ID, item.UserID)
		assert.Equal(t, "200.00", item.Price.FinalPrice.StringFixed(2))
	}

	page, err = s.checkouts.FindAll(context.Background(), user.ID, &models.CheckoutFilter{PackageID: &mountain.ID}, &models.PaginationRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mountain.ID, page.Items[0].Item.PackageID)
}

func TestFindOneIncludesAverageRating(t *testing.T) {
	s := newTestServices(t)
	user := seedUser(t, s.db, models.UserStatusActive)
	tourPackage := seedPackage(t, s.db, nil)
	for _, rating := range []int{4, 5, 5} {
		require.NoError(t, s.db.Create(&models.Review{ID: uuid.New(), PackageID: tourPackage.ID, UserID: uuid.New(), Rating: rating}).Error)
	}
	checkout := createCheckout(t, s, user, tourPackage)

	response, err := s.checkouts.FindOne(context.Background(), user.ID, checkout.ID.String())

	require.NoError(t, err)
	require.NotNil(t, response.AverageRating)
	assert.InDelta(t, 4.67, *response.AverageRating, 0.001)

	intruder := seedUser(t, s.db, models.UserStatusActive)
	_, err = s.checkouts.FindOne(context.Background(), intruder.ID, checkout.ID.String())
	assert.True(t, errors.IsKind(err, errors.KindUnauthorized))

	_, err = s.checkouts.FindOne(context.Background(), user.ID, "not-a-uuid")
	assert.True(t, errors.IsKind(err, errors.KindBadRequest))
}

func TestAddAndRemoveTraveller(t *testing.T) {
	s := newTestServices(t)
	user := seedUser(t, s.db, models.UserStatusActive)
	checkout := createCheckout(t, s, user, seedPackage(t, s.db, nil))

	adult := models.TravellerRequest{FirstName: "Mia", LastName: "Tan", Type: models.TravellerTypeAdult}
	first, err := s.checkouts.AddTraveller(context.Background(), user.ID, checkout.ID.String(), &adult)
	require.NoError(t, err)
	_, err = s.checkouts.AddTraveller(context.Background(), user.ID, checkout.ID.String(), &adult)
	require.NoError(t, err)

	_, err = s.checkouts.AddTraveller(context.Background(), user.ID, checkout.ID.String(), &adult)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidationFailed))
	assert.Equal(t, []string{"adult travellers cannot exceed 2"}, err.(*errors.AppError).Errors)

	require.NoError(t, s.checkouts.RemoveTraveller(context.Background(), user.ID, checkout.ID.String(), first.ID.String()))

	err = s.checkouts.RemoveTraveller(context.Background(), user.ID, checkout.ID.String(), first.ID.String())
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	response, err := s.checkouts.FindOne(context.Background(), user.ID, checkout.ID.String())
	require.NoError(t, err)
	assert.Len(t, response.Travellers, 1)
}
