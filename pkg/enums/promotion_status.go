package enums

import (
	"fmt"
	"strings"
)

type PromotionStatus string

const (
	PromotionStatusActive   PromotionStatus = "active"
	PromotionStatusInactive PromotionStatus = "inactive"
)

func (s PromotionStatus) IsValid() bool {
	return s == PromotionStatusActive || s == PromotionStatusInactive
}

func ParsePromotionStatus(raw string) (PromotionStatus, error) {
	status := PromotionStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid promotion status %q", raw)
	}
	return status, nil
}
