package promotions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/enums"
)

func activePromo(mutate func(*models.Promotion)) *models.Promotion {
	promo := &models.Promotion{
		Code:          "SUMMER10",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: 10,
		StartDate:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
		Status:        enums.PromotionStatusActive,
	}
	if mutate != nil {
		mutate(promo)
	}
	return promo
}

func TestEvaluatePercentageWithCap(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	cap := int64(50000)
	promo := activePromo(func(p *models.Promotion) {
		p.MaxDiscountAmount = &cap
	})

	// 10% of 1,000,000 is 100,000 but the cap wins.
	result := evaluate(promo, 1_000_000, now)
	assert.True(t, result.Applicable)
	assert.Equal(t, int64(50000), result.DiscountAmount)
	assert.False(t, result.FreeShipping)
}

func TestEvaluatePercentageNoCap(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	result := evaluate(activePromo(nil), 250_000, now)
	assert.True(t, result.Applicable)
	assert.Equal(t, int64(25000), result.DiscountAmount)
}

func TestEvaluatePercentageRounding(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	promo := activePromo(func(p *models.Promotion) {
		p.DiscountValue = 3
	})

	// 3% of 99,999 is 2999.97, rounded half up to 3000.
	result := evaluate(promo, 99_999, now)
	assert.Equal(t, int64(3000), result.DiscountAmount)
}

func TestEvaluateFixedAmount(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	promo := activePromo(func(p *models.Promotion) {
		p.DiscountType = enums.DiscountTypeFixedAmount
		p.DiscountValue = 75000
	})

	result := evaluate(promo, 50_000, now)
	assert.True(t, result.Applicable)
	// Larger than the subtotal on purpose; clamping happens at checkout.
	assert.Equal(t, int64(75000), result.DiscountAmount)
}

func TestEvaluateFreeShipping(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	promo := activePromo(func(p *models.Promotion) {
		p.DiscountType = enums.DiscountTypeFreeShipping
		p.DiscountValue = 0
	})

	result := evaluate(promo, 100_000, now)
	assert.True(t, result.Applicable)
	assert.True(t, result.FreeShipping)
	assert.Zero(t, result.DiscountAmount)
}

func TestEvaluateRejections(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	limit := 5

	cases := []struct {
		name     string
		promo    *models.Promotion
		subtotal int64
		reason   string
	}{
		{
			name:   "nil promotion",
			promo:  nil,
			reason: ReasonNotFound,
		},
		{
			name: "inactive",
			promo: activePromo(func(p *models.Promotion) {
				p.Status = enums.PromotionStatusInactive
			}),
			reason: ReasonInactive,
		},
		{
			name: "before window",
			promo: activePromo(func(p *models.Promotion) {
				p.StartDate = now.Add(24 * time.Hour)
			}),
			reason: ReasonOutsideWindow,
		},
		{
			name: "after window",
			promo: activePromo(func(p *models.Promotion) {
				p.EndDate = now.Add(-24 * time.Hour)
			}),
			reason: ReasonOutsideWindow,
		},
		{
			name: "exhausted",
			promo: activePromo(func(p *models.Promotion) {
				p.UsageLimit = &limit
				p.UsedCount = 5
			}),
			reason: ReasonExhausted,
		},
		{
			name: "below minimum",
			promo: activePromo(func(p *models.Promotion) {
				p.MinOrderAmount = 500_000
			}),
			subtotal: 100_000,
			reason:   ReasonBelowMinimum,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			subtotal := tc.subtotal
			if subtotal == 0 {
				subtotal = 1_000_000
			}
			result := evaluate(tc.promo, subtotal, now)
			assert.False(t, result.Applicable)
			assert.Equal(t, tc.reason, result.Reason)
			assert.Zero(t, result.DiscountAmount)
		})
	}
}
