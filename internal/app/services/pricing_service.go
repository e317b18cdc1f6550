package services

import (
	"time"

	"github.com/safatanc/travel-checkout/internal/app/models"
	"github.com/safatanc/travel-checkout/internal/metrics"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PricingService derives prices from checkout state. It never touches the
// database; callers preload the item, extras and holds.
type PricingService struct{}

func NewPricingService() *PricingService {
	return &PricingService{}
}

// ItemTotal prices the travelers of an item. Children fall back to the
// adult price and infants travel free unless the package prices them.
func (s *PricingService) ItemTotal(tourPackage *models.TourPackage, counts models.TravelerCounts) decimal.Decimal {
	childPrice := tourPackage.Price
	if tourPackage.ChildPrice != nil {
		childPrice = *tourPackage.ChildPrice
	}
	infantPrice := decimal.Zero
	if tourPackage.InfantPrice != nil {
		infantPrice = *tourPackage.InfantPrice
	}

	return tourPackage.Price.Mul(decimal.NewFromInt(int64(counts.Adults))).
		Add(childPrice.Mul(decimal.NewFromInt(int64(counts.Children)))).
		Add(infantPrice.Mul(decimal.NewFromInt(int64(counts.Infants))))
}

// Calculate computes the price summary of a checkout. Only the final price
// is rounded. Gift card holds that expired before now are left out.
func (s *PricingService) Calculate(checkout *models.Checkout, now time.Time) models.PriceSummary {
	start := time.Now()
	defer func() {
		metrics.PriceComputationTime.Observe(time.Since(start).Seconds())
	}()

	summary := models.PriceSummary{
		Subtotal:        decimal.Zero,
		TotalPrice:      decimal.Zero,
		DiscountAmount:  decimal.Zero,
		FinalPrice:      decimal.Zero,
		GiftCardAmount:  decimal.Zero,
		AppliedCoupons:  []models.AppliedCoupon{},
		AppliedGiftCard: []models.AppliedGiftCard{},
	}

	if item := checkout.Item; item != nil {
		itemTotal := decimal.Zero
		if item.TotalPrice != nil {
			itemTotal = *item.TotalPrice
		}
		itemFinal := itemTotal
		if item.FinalPrice != nil {
			itemFinal = *item.FinalPrice
		}
		summary.Subtotal = summary.Subtotal.Add(itemTotal)
		summary.TotalPrice = summary.TotalPrice.Add(itemFinal)

		summary.TravelerSummary = models.TravelerSummary{
			Adults:   item.Adults,
			Children: item.Children,
			Infants:  item.Infants,
			Total:    item.Travelers().Total(),
		}
	}

	for _, extra := range checkout.ExtraServices {
		summary.Subtotal = summary.Subtotal.Add(extra.Price)
		summary.TotalPrice = summary.TotalPrice.Add(extra.Price)
	}

	for _, hold := range checkout.CouponHolds {
		if hold.Coupon == nil {
			continue
		}
		discount := CouponDiscount(hold.Coupon, summary.TotalPrice)
		summary.DiscountAmount = summary.DiscountAmount.Add(discount)
		summary.AppliedCoupons = append(summary.AppliedCoupons, models.AppliedCoupon{
			ID:             hold.Coupon.ID,
			Code:           hold.Coupon.Code,
			Amount:         hold.Coupon.Amount,
			AmountType:     hold.Coupon.AmountType,
			DiscountAmount: discount,
		})
	}

	for _, hold := range checkout.GiftCardHolds {
		if hold.IsExpired(now) || hold.GiftCardPurchase == nil || hold.GiftCardPurchase.GiftCard == nil {
			continue
		}
		applied := toAppliedGiftCard(&hold, hold.GiftCardPurchase.GiftCard)
		summary.GiftCardAmount = summary.GiftCardAmount.Add(applied.TotalAmount)
		summary.AppliedGiftCard = append(summary.AppliedGiftCard, *applied)
	}

	final := summary.TotalPrice.Sub(summary.DiscountAmount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	summary.FinalPrice = final.Round(2)

	return summary
}

// CouponDiscount is the discount a single coupon grants on total. Fixed
// amounts never exceed the total they apply to.
func CouponDiscount(coupon *models.Coupon, total decimal.Decimal) decimal.Decimal {
	switch coupon.AmountType {
	case models.CouponAmountTypePercentage:
		return total.Mul(coupon.Amount).Div(hundred)
	case models.CouponAmountTypeFixed:
		return decimal.Min(coupon.Amount, total)
	}
	return decimal.Zero
}

func toAppliedGiftCard(hold *models.GiftCardHold, giftCard *models.GiftCard) *models.AppliedGiftCard {
	return &models.AppliedGiftCard{
		ID:          giftCard.ID,
		HoldID:      hold.ID,
		Code:        giftCard.Code,
		Amount:      giftCard.Amount,
		Quantity:    hold.Quantity,
		TotalAmount: giftCard.Amount.Mul(decimal.NewFromInt(int64(hold.Quantity))),
	}
}
