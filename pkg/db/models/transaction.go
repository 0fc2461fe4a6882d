package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
)

// Transaction records a checkout or checkin against an inventory item.
// Rows are never deleted; they are the audit trail.
type Transaction struct {
	ID              uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID          uuid.UUID               `gorm:"column:item_id;type:uuid;not null;index"`
	Item            *InventoryItem          `gorm:"foreignKey:ItemID"`
	UserID          uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	TransactionType enums.TransactionType   `gorm:"column:transaction_type;not null"`
	Quantity        int                     `gorm:"column:quantity;not null"`
	Status          enums.TransactionStatus `gorm:"column:status;not null;default:'active'"`
	DueDate         *time.Time              `gorm:"column:due_date"`
	ReturnedDate    *time.Time              `gorm:"column:returned_date"`
	ApprovedBy      *uuid.UUID              `gorm:"column:approved_by;type:uuid"`
	ApprovedAt      *time.Time              `gorm:"column:approved_at"`
	Notes           *string                 `gorm:"column:notes"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Transaction) TableName() string {
	return "inventory_transactions"
}
