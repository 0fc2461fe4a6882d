package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
)

// InventoryItem is the canonical stock record. Quantity is mutated only through
// the inventory ledger, never by request handlers directly.
type InventoryItem struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string           `gorm:"column:name;not null"`
	Description *string          `gorm:"column:description"`
	Quantity    int              `gorm:"column:quantity;not null;default:0"`
	MinQuantity int              `gorm:"column:min_quantity;not null;default:0"`
	Status      enums.ItemStatus `gorm:"column:status;not null;default:'available'"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (InventoryItem) TableName() string {
	return "inventory_items"
}
