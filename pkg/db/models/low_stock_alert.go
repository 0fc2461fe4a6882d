package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
)

// LowStockAlert is the single alert row per item, reused across its
// active/resolved lifecycle rather than recreated.
type LowStockAlert struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID          uuid.UUID         `gorm:"column:item_id;type:uuid;not null;uniqueIndex"`
	Item            *InventoryItem    `gorm:"foreignKey:ItemID"`
	CurrentQuantity int               `gorm:"column:current_quantity;not null"`
	MinQuantity     int               `gorm:"column:min_quantity;not null"`
	AlertLevel      enums.AlertLevel  `gorm:"column:alert_level;not null"`
	Status          enums.AlertStatus `gorm:"column:status;not null;default:'active'"`
	ResolvedAt      *time.Time        `gorm:"column:resolved_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (LowStockAlert) TableName() string {
	return "low_stock_alerts"
}
