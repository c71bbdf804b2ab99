package enums

import (
	"fmt"
	"strings"
)

// DiscountType classifies how a promotion's value is applied.
type DiscountType string

const (
	DiscountTypePercentage   DiscountType = "percentage"
	DiscountTypeFixedAmount  DiscountType = "fixed_amount"
	DiscountTypeFreeShipping DiscountType = "free_shipping"
)

func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountTypePercentage, DiscountTypeFixedAmount, DiscountTypeFreeShipping:
		return true
	default:
		return false
	}
}

func ParseDiscountType(raw string) (DiscountType, error) {
	t := DiscountType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid discount type %q", raw)
	}
	return t, nil
}
