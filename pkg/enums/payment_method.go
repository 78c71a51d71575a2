package enums

import "fmt"

// PaymentMethod enumerates the out-of-band channels a customer can pay through.
type PaymentMethod string

const (
	PaymentMethodBaridiMob    PaymentMethod = "baridimob"
	PaymentMethodCCPCheque    PaymentMethod = "ccp_cheque"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCashDeposit  PaymentMethod = "cash_deposit"
	PaymentMethodOther        PaymentMethod = "other"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodBaridiMob,
	PaymentMethodCCPCheque,
	PaymentMethodBankTransfer,
	PaymentMethodCashDeposit,
	PaymentMethodOther,
}

func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether the value matches the canonical enum.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
