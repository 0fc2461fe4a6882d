package alerts

import (
	"context"
	"time"

	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for low-stock alerts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, alert *models.LowStockAlert) error
	Resolve(ctx context.Context, itemID uuid.UUID, at time.Time) (bool, error)
	FindByItemID(ctx context.Context, itemID uuid.UUID) (*models.LowStockAlert, error)
	ListActive(ctx context.Context) ([]models.LowStockAlert, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an alert repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert writes the single alert row for the item. A conflicting row is
// flipped back to active with fresh snapshot fields instead of duplicated.
func (r *repository) Upsert(ctx context.Context, alert *models.LowStockAlert) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "item_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"current_quantity": alert.CurrentQuantity,
				"min_quantity":     alert.MinQuantity,
				"alert_level":      alert.AlertLevel,
				"status":           enums.AlertStatusActive,
				"resolved_at":      nil,
				"updated_at":       time.Now().UTC(),
			}),
		}).
		Create(alert).Error
}

// Resolve flips the active alert row for the item to resolved. It reports
// whether a row was transitioned; no active row is a no-op.
func (r *repository) Resolve(ctx context.Context, itemID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LowStockAlert{}).
		Where("item_id = ? AND status = ?", itemID, enums.AlertStatusActive).
		Updates(map[string]any{
			"status":      enums.AlertStatusResolved,
			"resolved_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindByItemID(ctx context.Context, itemID uuid.UUID) (*models.LowStockAlert, error) {
	var alert models.LowStockAlert
	if err := r.db.WithContext(ctx).First(&alert, "item_id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.LowStockAlert, error) {
	var alerts []models.LowStockAlert
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.AlertStatusActive).
		Order("updated_at DESC").
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}
