package enums

// EventType names the realtime events fanned out to observers.
type EventType string

const (
	EventTransactionCreated  EventType = "transaction_created"
	EventTransactionUpdated  EventType = "transaction_updated"
	EventTransactionApproved EventType = "transaction_approved"
	EventBillCreated         EventType = "bill_created"
	EventBillUpdated         EventType = "bill_updated"
	EventBillDeleted         EventType = "bill_deleted"
	EventPaymentAdded        EventType = "payment_added"
	EventLowStockAlert       EventType = "low_stock_alert"
	EventUserUpdated         EventType = "user_updated"
	EventUserDeleted         EventType = "user_deleted"
)

var validEventTypes = []EventType{
	EventTransactionCreated,
	EventTransactionUpdated,
	EventTransactionApproved,
	EventBillCreated,
	EventBillUpdated,
	EventBillDeleted,
	EventPaymentAdded,
	EventLowStockAlert,
	EventUserUpdated,
	EventUserDeleted,
}

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EventType.
func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}
