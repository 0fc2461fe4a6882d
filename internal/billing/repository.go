package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	"github.com/dmarquezluna/stockroom-backend/pkg/pagination"
)

// Repository is the persistence surface for bills and their payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bill *models.Bill) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bill, error)
	// FindByIDForUpdate locks the bill row so payment recording and bill
	// mutations against the same bill serialize.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Bill, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.BillPaymentStatus) error
	Update(ctx context.Context, bill *models.Bill) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params) ([]models.Bill, error)

	AddPayment(ctx context.Context, payment *models.BillPayment) error
	// SumPayments re-derives the paid total from the complete payment set.
	// Derivation never trusts a cached counter.
	SumPayments(ctx context.Context, billID uuid.UUID) (decimal.Decimal, error)

	ReplaceLineItems(ctx context.Context, billID uuid.UUID, items []models.BillLineItem) error
	LineItems(ctx context.Context, billID uuid.UUID) ([]models.BillLineItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the gorm-backed repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, bill *models.Bill) error {
	return r.db.WithContext(ctx).Create(bill).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Preload("Payments").
		First(&bill, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&bill, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.BillPaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Bill{}).
		Where("id = ?", id).
		Update("payment_status", status).Error
}

func (r *repository) Update(ctx context.Context, bill *models.Bill) error {
	return r.db.WithContext(ctx).
		Omit("LineItems", "Payments").
		Save(bill).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Bill{}, "id = ?", id).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.Bill, error) {
	query := r.db.WithContext(ctx).Model(&models.Bill{}).Preload("LineItems")

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var bills []models.Bill
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repository) AddPayment(ctx context.Context, payment *models.BillPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) SumPayments(ctx context.Context, billID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.BillPayment{}).
		Where("bill_id = ?", billID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repository) ReplaceLineItems(ctx context.Context, billID uuid.UUID, items []models.BillLineItem) error {
	if err := r.db.WithContext(ctx).
		Delete(&models.BillLineItem{}, "bill_id = ?", billID).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].BillID = billID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) LineItems(ctx context.Context, billID uuid.UUID) ([]models.BillLineItem, error) {
	var items []models.BillLineItem
	err := r.db.WithContext(ctx).
		Where("bill_id = ?", billID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
