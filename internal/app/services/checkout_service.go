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
	"github.com/safatanc/travel-checkout/internal/metrics"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CheckoutService struct {
	db                  *gorm.DB
	validator           *infrastructures.Validator
	userService         *UserService
	packageService      *PackageService
	availabilityService *AvailabilityService
	pricingService      *PricingService
	reviewService       *ReviewService
	billingService      *BillingService
	auditService        *AuditService
	publisher           infrastructures.EventPublisher
	txAttempts          uint
}

func NewCheckoutService(
	db *gorm.DB,
	validator *infrastructures.Validator,
	userService *UserService,
	packageService *PackageService,
	availabilityService *AvailabilityService,
	pricingService *PricingService,
	reviewService *ReviewService,
	billingService *BillingService,
	auditService *AuditService,
	publisher infrastructures.EventPublisher,
	cfg *infrastructures.AppConfig,
) *CheckoutService {
	return &CheckoutService{
		db:                  db,
		validator:           validator,
		userService:         userService,
		packageService:      packageService,
		availabilityService: availabilityService,
		pricingService:      pricingService,
		reviewService:       reviewService,
		billingService:      billingService,
		auditService:        auditService,
		publisher:           publisher,
		txAttempts:          cfg.TxRetryAttempts,
	}
}

// Create opens a draft checkout for a single package. Every request rule
// is checked before anything is written.
func (s *CheckoutService) Create(ctx context.Context, userID uuid.UUID, req *models.CheckoutCreateRequest) (*models.CheckoutResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.userService.GetActiveUser(ctx, userID); err != nil {
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
	violations = append(violations, validateTravellerRecords(req.Travellers, req.TravelerCounts)...)

	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := pkg.ParseDate(*req.EndDate)
		if err != nil {
			violations = append(violations, "end_date must be a date in YYYY-MM-DD format")
		} else if parsed.Before(selectedDate) {
			violations = append(violations, "end_date cannot be before selected_date")
		} else {
			endDate = &parsed
		}
	}

	if len(violations) > 0 {
		return nil, errors.NewValidationError("Checkout request is invalid", violations...)
	}

	checkout := &models.Checkout{
		ID:             uuid.New(),
		UserID:         userID,
		VendorID:       tourPackage.VendorID,
		Status:         models.CheckoutStatusDraft,
		ContactName:    req.ContactName,
		ContactEmail:   req.ContactEmail,
		ContactPhone:   req.ContactPhone,
		SpecialRequest: req.SpecialRequest,
	}

	err = runInTx(ctx, s.db, s.txAttempts, func(tx *gorm.DB) error {
		availability, err := s.availabilityService.validate(tx, tourPackage.ID, selectedDate, tourPackage.Type, req.TravelerCounts.Total())
		if err != nil {
			return err
		}
		if !availability.IsAvailable {
			return errors.NewBusinessRuleError(availability.Message)
		}

		extras, err := s.packageService.findExtraServices(tx, tourPackage.ID, req.ExtraServiceIDs)
		if err != nil {
			return err
		}

		if err := tx.Create(checkout).Error; err != nil {
			return errors.NewInternalServerError(err, "Failed to create checkout")
		}

		totalPrice := s.pricingService.ItemTotal(tourPackage, req.TravelerCounts)
		finalPrice := totalPrice
		item := &models.CheckoutItem{
			ID:             uuid.New(),
			CheckoutID:     checkout.ID,
			PackageID:      tourPackage.ID,
			SelectedDate:   selectedDate,
			EndDate:        endDate,
			Adults:         req.Adults,
			Children:       req.Children,
			Infants:        req.Infants,
			PricePerPerson: tourPackage.Price,
			ChildPrice:     tourPackage.ChildPrice,
			InfantPrice:    tourPackage.InfantPrice,
			TotalPrice:     &totalPrice,
			FinalPrice:     &finalPrice,
		}
		if err := tx.Create(item).Error; err != nil {
			return errors.NewInternalServerError(err, "Failed to create checkout item")
		}

		if err := createExtraServices(tx, checkout.ID, extras); err != nil {
			return err
		}

		for _, travellerReq := range req.Travellers {
			traveller := newTraveller(checkout.ID, travellerReq)
			if err := tx.Create(traveller).Error; err != nil {
				return errors.NewInternalServerError(err, "Failed to create traveller")
			}
		}

		return s.auditService.LogAuditTx(tx, "checkouts", checkout.ID, models.AuditActionCreate, nil, checkout, &userID)
	})
	if err != nil {
		return nil, err
	}

	metrics.CheckoutsCreated.Inc()

	response, err := s.FindOne(ctx, userID, checkout.ID.String())
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.EventCheckoutCreated, response.Checkout, &response.Price)
	logrus.WithFields(logrus.Fields{
		"checkout_id": checkout.ID,
		"package_id":  tourPackage.ID,
		"user_id":     userID,
	}).Info("checkout created")

	return response, nil
}

// Update changes contact details, extra services and the payment method of
// a draft checkout.
func (s *CheckoutService) Update(ctx context.Context, userID uuid.UUID, checkoutID string, req *models.CheckoutUpdateRequest) (*models.CheckoutResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	checkoutUUID, err := parseUUID(checkoutID, "checkout ID")
	if err != nil {
		return nil, err
	}

	checkout, err := loadOwnedCheckout(s.db.WithContext(ctx), checkoutUUID, userID, false)
	if err != nil {
		return nil, err
	}
	if err := requireDraft(checkout); err != nil {
		return nil, err
	}

	if req.PaymentMethodID != nil {
		user, err := s.userService.GetActiveUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if _, err := s.billingService.AttachPaymentMethod(ctx, user, *req.PaymentMethodID); err != nil {
			return nil, err
		}
	}

	err = runInTx(ctx, s.db, s.txAttempts, func(tx *gorm.DB) error {
		current, err := loadOwnedCheckout(tx, checkoutUUID, userID, true)
		if err != nil {
			return err
		}
		if err := requireDraft(current); err != nil {
			return err
		}
		before := *current

		updates := map[string]interface{}{}
		if req.ContactName != nil {
			updates["contact_name"] = *req.ContactName
		}
		if req.ContactEmail != nil {
			updates["contact_email"] = *req.ContactEmail
		}
		if req.ContactPhone != nil {
			updates["contact_phone"] = *req.ContactPhone
		}
		if req.SpecialRequest != nil {
			updates["special_request"] = *req.SpecialRequest
		}
		if req.PaymentMethodID != nil {
			updates["payment_method_id"] = *req.PaymentMethodID
		}

		if len(updates) > 0 {
			if err := tx.Model(current).Updates(updates).Error; err != nil {
				return errors.NewInternalServerError(err, "Failed to update checkout")
			}
		}

		if req.ExtraServiceIDs != nil {
			if err := s.replaceExtraServices(tx, current.ID, *req.ExtraServiceIDs); err != nil {
				return err
			}
		}

		return s.auditService.LogAuditTx(tx, "checkouts", current.ID, models.AuditActionUpdate, before, updates, &userID)
	})
	if err != nil {
		return nil, err
	}

	response, err := s.FindOne(ctx, userID, checkoutID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.EventCheckoutUpdated, response.Checkout, &response.Price)
	return response, nil
}

func (s *CheckoutService) replaceExtraServices(tx *gorm.DB, checkoutID uuid.UUID, ids []string) error {
	var item models.CheckoutItem
	if err := tx.Where("checkout_id = ?", checkoutID).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NewInvalidStateError("Checkout has no item")
		}
		return errors.NewInternalServerError(err, "Failed to get checkout item")
	}

	extras, err := s.packageService.findExtraServices(tx, item.PackageID, ids)
	if err != nil {
		return err
	}

	if err := tx.Where("checkout_id = ?", checkoutID).Delete(&models.CheckoutExtraService{}).Error; err != nil {
		return errors.NewInternalServerError(err, "Failed to remove extra services")
	}

	return createExtraServices(tx, checkoutID, extras)
}

// Remove abandons a draft checkout and releases every hold it carries.
func (s *CheckoutService) Remove(ctx context.Context, userID uuid.UUID, checkoutID string) error {
	checkoutUUID, err := parseUUID(checkoutID, "checkout ID")
	if err != nil {
		return err
	}

	var (
		removed *models.Checkout
		price   models.PriceSummary
	)
	err = runInTx(ctx, s.db, s.txAttempts, func(tx *gorm.DB) error {
		if _, err := loadOwnedCheckout(tx, checkoutUUID, userID, true); err != nil {
			return err
		}

		checkout, err := loadCheckoutDetails(tx, checkoutUUID)
		if err != nil {
			return err
		}
		if err := requireDraft(checkout); err != nil {
			return err
		}
		price = s.pricingService.Calculate(checkout, time.Now())

		if err := tx.Where("checkout_id = ?", checkout.ID).Delete(&models.CouponHold{}).Error; err != nil {
			return errors.NewInternalServerError(err, "Failed to release coupon holds")
		}
		if err := tx.Where("checkout_id = ?", checkout.ID).Delete(&models.GiftCardHold{}).Error; err != nil {
			return errors.NewInternalServerError(err, "Failed to release gift card holds")
		}
		if err := tx.Delete(&models.Checkout{}, "id = ?", checkout.ID).Error; err != nil {
			return errors.NewInternalServerError(err, "Failed to remove checkout")
		}

		removed = checkout
		return s.auditService.LogAuditTx(tx, "checkouts", checkout.ID, models.AuditActionDelete, checkout, nil, &userID)
	})
	if err != nil {
		return err
	}

	metrics.CheckoutsAbandoned.Inc()
	s.publish(ctx, models.EventCheckoutAbandoned, removed, &price)
	logrus.WithFields(logrus.Fields{
		"checkout_id": removed.ID,
		"user_id":     userID,
	}).Info("checkout abandoned")

	return nil
}

// FindAll lists the checkouts of a user, newest first unless ordered
// otherwise.
func (s *CheckoutService) FindAll(ctx context.Context, userID uuid.UUID, filter *models.CheckoutFilter, pagination *models.PaginationRequest) (*models.Pagination[[]models.CheckoutResponse], error) {
	if err := s.validator.Validate(filter); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(pagination); err != nil {
		return nil, err
	}

	if pagination.Limit <= 0 {
		pagination.Limit = 10
	}
	if pagination.Page <= 0 {
		pagination.Page = 1
	}
	if pagination.OrderField == "" {
		pagination.OrderField = "created_at"
	}
	if pagination.Order == "" {
		pagination.Order = "desc"
	}

	filter.UserID = userID
	offset := (pagination.Page - 1) * pagination.Limit
	db := s.db.WithContext(ctx)

	var totalItems int64
	if err := filter.Apply(db.Model(&models.Checkout{})).Count(&totalItems).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to count checkouts")
	}

	var checkouts []models.Checkout
	query := preloadCheckoutDetails(filter.Apply(db.Model(&models.Checkout{}))).
		Order(fmt.Sprintf("checkouts.%s %s", pagination.OrderField, pagination.Order)).
		Limit(pagination.Limit)
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&checkouts).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to get checkouts")
	}

	now := time.Now()
	items := make([]models.CheckoutResponse, 0, len(checkouts))
	for i := range checkouts {
		items = append(items, models.CheckoutResponse{
			Checkout: &checkouts[i],
			Price:    s.pricingService.Calculate(&checkouts[i], now),
		})
	}

	totalPages := int((totalItems + int64(pagination.Limit) - 1) / int64(pagination.Limit))

	return &models.Pagination[[]models.CheckoutResponse]{
		Page:       pagination.Page,
		Limit:      pagination.Limit,
		TotalPages: totalPages,
		TotalItems: int(totalItems),
		HasNext:    pagination.Page < totalPages,
		HasPrev:    pagination.Page > 1,
		Items:      items,
	}, nil
}

// FindOne returns a checkout of the user with its price and the average
// rating of its package.
func (s *CheckoutService) FindOne(ctx context.Context, userID uuid.UUID, checkoutID string) (*models.CheckoutResponse, error) {
	checkoutUUID, err := parseUUID(checkoutID, "checkout ID")
	if err != nil {
		return nil, err
	}

	checkout, err := loadCheckoutDetails(s.db.WithContext(ctx), checkoutUUID)
	if err != nil {
		return nil, err
	}
	if !checkout.IsOwnedBy(userID) {
		return nil, errors.NewForbiddenError("You do not have access to this checkout")
	}

	response := &models.CheckoutResponse{
		Checkout: checkout,
		Price:    s.pricingService.Calculate(checkout, time.Now()),
	}

	if checkout.Item != nil {
		rating, err := s.reviewService.AverageRating(ctx, checkout.Item.PackageID)
		if err != nil {
			return nil, err
		}
		response.AverageRating = &rating
	}

	return response, nil
}

// AddTraveller attaches a traveller record. Records per type cannot exceed
// the traveler counts of the item.
func (s *CheckoutService) AddTraveller(ctx context.Context, userID uuid.UUID, checkoutID string, req *models.TravellerRequest) (*models.CheckoutTraveller, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	checkoutUUID, err := parseUUID(checkoutID, "checkout ID")
	if err != nil {
		return nil, err
	}

	var traveller *models.CheckoutTraveller
	err = runInTx(ctx, s.db, s.txAttempts, func(tx *gorm.DB) error {
		checkout, err := loadOwnedCheckout(tx, checkoutUUID, userID, true)
		if err != nil {
			return err
		}
		if err := requireDraft(checkout); err != nil {
			return err
		}

		var item models.CheckoutItem
		if err := tx.Where("checkout_id = ?", checkout.ID).First(&item).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NewInvalidStateError("Checkout has no item")
			}
			return errors.NewInternalServerError(err, "Failed to get checkout item")
		}

		var existing []models.CheckoutTraveller
		if err := tx.Where("checkout_id = ?", checkout.ID).Find(&existing).Error; err != nil {
			return errors.NewInternalServerError(err, "Failed to get travellers")
		}

		records := make([]models.TravellerRequest, 0, len(existing)+1)
		for _, t := range existing {
			records = append(records, models.TravellerRequest{Type: t.Type})
		}
		records = append(records, *req)
		if violations := validateTravellerRecords(records, item.Travelers()); len(violations) > 0 {
			return errors.NewValidationError("Traveller cannot be added", violations...)
		}

		traveller = newTraveller(checkout.ID, *req)
		if err := tx.Create(traveller).Error; err != nil {
			return errors.NewInternalServerError(err, "Failed to create traveller")
		}

		return s.auditService.LogAuditTx(tx, "checkout_travellers", traveller.ID, models.AuditActionCreate, nil, traveller, &userID)
	})
	if err != nil {
		return nil, err
	}

	return traveller, nil
}

func (s *CheckoutService) RemoveTraveller(ctx context.Context, userID uuid.UUID, checkoutID, travellerID string) error {
	checkoutUUID, err := parseUUID(checkoutID, "checkout ID")
	if err != nil {
		return err
	}
	travellerUUID, err := parseUUID(travellerID, "traveller ID")
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

		var traveller models.CheckoutTraveller
		err = tx.Where("id = ? AND checkout_id = ?", travellerUUID, checkout.ID).First(&traveller).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NewNotFoundError("Traveller not found")
			}
			return errors.NewInternalServerError(err, "Failed to get traveller")
		}

		if err := tx.Delete(&traveller).Error; err != nil {
			return errors.NewInternalServerError(err, "Failed to remove traveller")
		}

		return s.auditService.LogAuditTx(tx, "checkout_travellers", traveller.ID, models.AuditActionDelete, traveller, nil, &userID)
	})
}

func (s *CheckoutService) publish(ctx context.Context, eventType string, checkout *models.Checkout, price *models.PriceSummary) {
	event := models.CheckoutEvent{
		Type:       eventType,
		CheckoutID: checkout.ID,
		UserID:     checkout.UserID,
		Status:     checkout.Status,
		Price:      price,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.PublishJSON(ctx, eventType, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event":       eventType,
			"checkout_id": checkout.ID,
		}).Error("failed to publish checkout event")
	}
}

// loadOwnedCheckout loads a live checkout and rejects users other than its
// owner. With forUpdate the row stays locked until the transaction ends.
func loadOwnedCheckout(db *gorm.DB, checkoutID, userID uuid.UUID, forUpdate bool) (*models.Checkout, error) {
	query := db
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var checkout models.Checkout
	err := query.Where("id = ?", checkoutID).First(&checkout).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("Checkout not found")
		}
		return nil, errors.NewInternalServerError(err, "Failed to get checkout")
	}

	if !checkout.IsOwnedBy(userID) {
		return nil, errors.NewForbiddenError("You do not have access to this checkout")
	}

	return &checkout, nil
}

func requireDraft(checkout *models.Checkout) error {
	if !checkout.IsDraft() {
		return errors.NewInvalidStateError("Checkout is no longer a draft")
	}
	return nil
}

func preloadCheckoutDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Item").
		Preload("Item.Package").
		Preload("ExtraServices", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Travellers", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("CouponHolds", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("CouponHolds.Coupon").
		Preload("GiftCardHolds").
		Preload("GiftCardHolds.GiftCardPurchase").
		Preload("GiftCardHolds.GiftCardPurchase.GiftCard")
}

func loadCheckoutDetails(db *gorm.DB, checkoutID uuid.UUID) (*models.Checkout, error) {
	var checkout models.Checkout
	err := preloadCheckoutDetails(db).Where("id = ?", checkoutID).First(&checkout).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("Checkout not found")
		}
		return nil, errors.NewInternalServerError(err, "Failed to get checkout")
	}
	return &checkout, nil
}

func createExtraServices(tx *gorm.DB, checkoutID uuid.UUID, extras []models.ExtraService) error {
	for _, extra := range extras {
		snapshot := &models.CheckoutExtraService{
			ID:             uuid.New(),
			CheckoutID:     checkoutID,
			PackageID:      extra.PackageID,
			ExtraServiceID: extra.ID,
			Name:           extra.Name,
			Price:          extra.Price,
		}
		if err := tx.Create(snapshot).Error; err != nil {
			return errors.NewInternalServerError(err, "Failed to create extra service")
		}
	}
	return nil
}

func newTraveller(checkoutID uuid.UUID, req models.TravellerRequest) *models.CheckoutTraveller {
	return &models.CheckoutTraveller{
		ID:         uuid.New(),
		CheckoutID: checkoutID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Type:       req.Type,
		Age:        req.Age,
		Email:      req.Email,
		Phone:      req.Phone,
	}
}

// validateTravellerRecords checks that named travellers fit the declared
// traveler counts per type.
func validateTravellerRecords(travellers []models.TravellerRequest, counts models.TravelerCounts) []string {
	perType := map[models.TravellerType]int{}
	for _, traveller := range travellers {
		perType[traveller.Type]++
	}

	limits := []struct {
		travellerType models.TravellerType
		limit         int
	}{
		{models.TravellerTypeAdult, counts.Adults},
		{models.TravellerTypeChild, counts.Children},
		{models.TravellerTypeInfant, counts.Infants},
	}

	var violations []string
	for _, l := range limits {
		if perType[l.travellerType] > l.limit {
			violations = append(violations, fmt.Sprintf("%s travellers cannot exceed %d", l.travellerType, l.limit))
		}
	}
	return violations
}
