package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillPayment is append-only; rows are never mutated after creation.
type BillPayment struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BillID      uuid.UUID       `gorm:"column:bill_id;type:uuid;not null;index"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentDate time.Time       `gorm:"column:payment_date;not null"`
	Reference   *string         `gorm:"column:reference"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default pluralization.
func (BillPayment) TableName() string {
	return "bill_payments"
}
