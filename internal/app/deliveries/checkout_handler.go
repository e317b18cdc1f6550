package deliveries

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/safatanc/travel-checkout/internal/app/errors"
	"github.com/safatanc/travel-checkout/internal/app/middlewares"
	"github.com/safatanc/travel-checkout/internal/app/models"
	"github.com/safatanc/travel-checkout/internal/app/pkg"
	"github.com/safatanc/travel-checkout/internal/app/services"
	"github.com/safatanc/travel-checkout/pkg/ratelimit"
)

type CheckoutHandler struct {
	checkoutService     *services.CheckoutService
	availabilityService *services.AvailabilityService
	couponService       *services.CouponService
	giftCardService     *services.GiftCardService
	authMiddleware      *middlewares.AuthMiddleware
	rateLimitMiddleware *middlewares.RateLimitMiddleware
}

func NewCheckoutHandler(
	checkoutService *services.CheckoutService,
	availabilityService *services.AvailabilityService,
	couponService *services.CouponService,
	giftCardService *services.GiftCardService,
	authMiddleware *middlewares.AuthMiddleware,
	rateLimitMiddleware *middlewares.RateLimitMiddleware,
) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService:     checkoutService,
		availabilityService: availabilityService,
		couponService:       couponService,
		giftCardService:     giftCardService,
		authMiddleware:      authMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
	}
}

func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutGroup := router.Group("/checkouts")

	// Public endpoints
	checkoutGroup.Post("/availability", h.rateLimitMiddleware.LimitByIP(ratelimit.PublicAPILimit), h.CheckAvailability)

	authConnect := h.authMiddleware.AuthConnect
	authUser := h.authMiddleware.AuthUser
	userLimit := h.rateLimitMiddleware.LimitByUser(ratelimit.AuthenticatedAPILimit)
	redemptionLimit := h.rateLimitMiddleware.LimitByUser(ratelimit.RedemptionLimit)

	checkoutGroup.Post("/", authConnect, authUser, userLimit, h.CreateCheckout)
	checkoutGroup.Get("/", authConnect, authUser, userLimit, h.GetCheckouts)
	checkoutGroup.Get("/:id", authConnect, authUser, userLimit, h.GetCheckout)
	checkoutGroup.Patch("/:id", authConnect, authUser, userLimit, h.UpdateCheckout)
	checkoutGroup.Delete("/:id", authConnect, authUser, userLimit, h.RemoveCheckout)

	checkoutGroup.Post("/:id/travellers", authConnect, authUser, userLimit, h.AddTraveller)
	checkoutGroup.Delete("/:id/travellers/:travellerId", authConnect, authUser, userLimit, h.RemoveTraveller)

	checkoutGroup.Post("/:id/coupons", authConnect, authUser, redemptionLimit, h.ApplyCoupon)
	checkoutGroup.Delete("/:id/coupons/:code", authConnect, authUser, userLimit, h.RemoveCoupon)

	checkoutGroup.Post("/:id/gift-cards", authConnect, authUser, redemptionLimit, h.ApplyGiftCard)
	checkoutGroup.Delete("/:id/gift-cards/:holdId", authConnect, authUser, userLimit, h.RemoveGiftCard)
}

func (h *CheckoutHandler) CheckAvailability(c *fiber.Ctx) error {
	var req models.AvailabilityCheckRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	result, err := h.availabilityService.CheckAvailability(c.UserContext(), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, result)
}

func (h *CheckoutHandler) CreateCheckout(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req models.CheckoutCreateRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	checkout, err := h.checkoutService.Create(c.UserContext(), user.ID, &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	c.Status(fiber.StatusCreated)
	return pkg.SuccessResponse(c, checkout)
}

func (h *CheckoutHandler) GetCheckouts(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	filter, err := parseCheckoutFilter(c)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	var pagination models.PaginationRequest
	if err := c.QueryParser(&pagination); err != nil {
		return pkg.ErrorResponse(c, errors.NewBadRequestError("Invalid pagination parameters"))
	}

	checkouts, err := h.checkoutService.FindAll(c.UserContext(), user.ID, filter, &pagination)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, checkouts)
}

func (h *CheckoutHandler) GetCheckout(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	checkout, err := h.checkoutService.FindOne(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, checkout)
}

func (h *CheckoutHandler) UpdateCheckout(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req models.CheckoutUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	checkout, err := h.checkoutService.Update(c.UserContext(), user.ID, c.Params("id"), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, checkout)
}

func (h *CheckoutHandler) RemoveCheckout(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if err := h.checkoutService.Remove(c.UserContext(), user.ID, c.Params("id")); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessMessageResponse[any](c, "Checkout removed", nil)
}

func (h *CheckoutHandler) AddTraveller(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req models.TravellerRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	traveller, err := h.checkoutService.AddTraveller(c.UserContext(), user.ID, c.Params("id"), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	c.Status(fiber.StatusCreated)
	return pkg.SuccessResponse(c, traveller)
}

func (h *CheckoutHandler) RemoveTraveller(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if err := h.checkoutService.RemoveTraveller(c.UserContext(), user.ID, c.Params("id"), c.Params("travellerId")); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessMessageResponse[any](c, "Traveller removed", nil)
}

func (h *CheckoutHandler) ApplyCoupon(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req models.CouponApplyRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	hold, err := h.couponService.ApplyCoupon(c.UserContext(), user.ID, c.Params("id"), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessMessageResponse(c, "Coupon applied", hold)
}

func (h *CheckoutHandler) RemoveCoupon(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if err := h.couponService.RemoveCoupon(c.UserContext(), user.ID, c.Params("id"), c.Params("code")); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessMessageResponse[any](c, "Coupon removed", nil)
}

func (h *CheckoutHandler) ApplyGiftCard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req models.GiftCardApplyRequest
	if err := parseBody(c, &req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	result, err := h.giftCardService.ApplyGiftCard(c.UserContext(), user.ID, c.Params("id"), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessMessageResponse(c, "Gift card applied", result)
}

func (h *CheckoutHandler) RemoveGiftCard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if err := h.giftCardService.RemoveGiftCard(c.UserContext(), user.ID, c.Params("id"), c.Params("holdId")); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessMessageResponse[any](c, "Gift card removed", nil)
}

func parseCheckoutFilter(c *fiber.Ctx) (*models.CheckoutFilter, error) {
	var filter models.CheckoutFilter

	if value := c.Query("vendor_id"); value != "" {
		vendorID, err := uuid.Parse(value)
		if err != nil {
			return nil, errors.NewBadRequestError("Invalid vendor_id format")
		}
		filter.VendorID = &vendorID
	}

	if value := c.Query("package_id"); value != "" {
		packageID, err := uuid.Parse(value)
		if err != nil {
			return nil, errors.NewBadRequestError("Invalid package_id format")
		}
		filter.PackageID = &packageID
	}

	if value := c.Query("status"); value != "" {
		status := models.CheckoutStatus(value)
		filter.Status = &status
	}

	if value := c.Query("created_after"); value != "" {
		createdAfter, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, errors.NewBadRequestError("created_after must be an RFC3339 timestamp")
		}
		filter.CreatedAfter = &createdAfter
	}

	if value := c.Query("created_before"); value != "" {
		createdBefore, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, errors.NewBadRequestError("created_before must be an RFC3339 timestamp")
		}
		filter.CreatedBefore = &createdBefore
	}

	return &filter, nil
}

// parseBody decodes the request body and reports malformed payloads as
// validation failures.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errors.NewValidationError("Request body is invalid", err.Error())
	}
	return nil
}
