package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
)

// Bill carries the billed total and the payment status derived from its
// recorded payments.
type Bill struct {
	ID            uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BillNumber    string                  `gorm:"column:bill_number;not null;uniqueIndex"`
	TotalAmount   decimal.Decimal         `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentStatus enums.BillPaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	CreatedBy     uuid.UUID               `gorm:"column:created_by;type:uuid;not null"`
	LineItems     []BillLineItem          `gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE"`
	Payments      []BillPayment           `gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Bill) TableName() string {
	return "bills"
}

// BillLineItem reserves stock for a bill; removing one restores the ledger.
type BillLineItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BillID    uuid.UUID       `gorm:"column:bill_id;type:uuid;not null;index"`
	ItemID    uuid.UUID       `gorm:"column:item_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default pluralization.
func (BillLineItem) TableName() string {
	return "bill_line_items"
}
