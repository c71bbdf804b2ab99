package enums

import (
	"fmt"
	"strings"
)

type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodBankTransfer:
		return true
	default:
		return false
	}
}

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	method := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	if !method.IsValid() {
		return "", fmt.Errorf("invalid payment method %q", raw)
	}
	return method, nil
}
