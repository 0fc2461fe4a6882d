package enums

import "fmt"

// BillPaymentStatus is derived from the sum of recorded payments on a bill.
type BillPaymentStatus string

const (
	BillPaymentStatusPending BillPaymentStatus = "pending"
	BillPaymentStatusPartial BillPaymentStatus = "partial"
	BillPaymentStatusPaid    BillPaymentStatus = "paid"
)

var validBillPaymentStatuses = []BillPaymentStatus{
	BillPaymentStatusPending,
	BillPaymentStatusPartial,
	BillPaymentStatusPaid,
}

// String implements fmt.Stringer.
func (s BillPaymentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BillPaymentStatus.
func (s BillPaymentStatus) IsValid() bool {
	for _, candidate := range validBillPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBillPaymentStatus converts raw input into a BillPaymentStatus.
func ParseBillPaymentStatus(value string) (BillPaymentStatus, error) {
	for _, candidate := range validBillPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bill payment status %q", value)
}
