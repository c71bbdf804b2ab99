package enums

import (
	"fmt"
	"strings"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

func (s ProductStatus) IsValid() bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}

func ParseProductStatus(raw string) (ProductStatus, error) {
	status := ProductStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid product status %q", raw)
	}
	return status, nil
}
