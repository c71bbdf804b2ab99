package promotions

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/enums"
)

// Reasons a promotion fails to apply. Exposed so callers and tests can
// distinguish outcomes without string matching on messages.
const (
	ReasonNotFound      = "promotion code not found"
	ReasonInactive      = "promotion is not active"
	ReasonOutsideWindow = "promotion is outside its usage window"
	ReasonExhausted     = "promotion usage limit reached"
	ReasonBelowMinimum  = "order subtotal is below the promotion minimum"
)

// Evaluation is the outcome of checking a promotion against an order subtotal.
type Evaluation struct {
	Applicable     bool
	Reason         string
	DiscountAmount int64
	FreeShipping   bool
	Promotion      *models.Promotion
}

func notApplicable(reason string) *Evaluation {
	return &Evaluation{Reason: reason}
}

// evaluate applies the promotion rules to a subtotal at a point in time. It
// is pure: no I/O, no clock reads.
func evaluate(promo *models.Promotion, subtotal int64, now time.Time) *Evaluation {
	if promo == nil {
		return notApplicable(ReasonNotFound)
	}
	if promo.Status != enums.PromotionStatusActive {
		return notApplicable(ReasonInactive)
	}
	if now.Before(promo.StartDate) || now.After(promo.EndDate) {
		return notApplicable(ReasonOutsideWindow)
	}
	if promo.UsageLimit != nil && promo.UsedCount >= *promo.UsageLimit {
		return notApplicable(ReasonExhausted)
	}
	if subtotal < promo.MinOrderAmount {
		return notApplicable(ReasonBelowMinimum)
	}

	result := &Evaluation{Applicable: true, Promotion: promo}
	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		result.DiscountAmount = percentageDiscount(subtotal, promo.DiscountValue, promo.MaxDiscountAmount)
	case enums.DiscountTypeFixedAmount:
		// Not clamped to the subtotal here; the order assembler owns that.
		result.DiscountAmount = promo.DiscountValue
	case enums.DiscountTypeFreeShipping:
		result.FreeShipping = true
	}
	return result
}

func percentageDiscount(subtotal, percent int64, cap *int64) int64 {
	discount := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
	if cap != nil && discount > *cap {
		discount = *cap
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
