package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarquezluna/stockroom-backend/internal/inventory"
	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	pkgerrors "github.com/dmarquezluna/stockroom-backend/pkg/errors"
	"github.com/dmarquezluna/stockroom-backend/pkg/pagination"
)

// Broadcaster fans events out to realtime observers without blocking the
// caller or surfacing delivery failures.
type Broadcaster interface {
	Broadcast(event enums.EventType, data any)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledger interface {
	ApplyDelta(ctx context.Context, tx *gorm.DB, input inventory.DeltaInput) (*inventory.DeltaResult, error)
}

// Service reconciles bills, their line items and their payments.
type Service interface {
	CreateBill(ctx context.Context, input CreateBillInput) (*models.Bill, error)
	RecordPayment(ctx context.Context, input PaymentInput) (*models.Bill, error)
	// OverrideStatus sets the payment status directly, bypassing derivation.
	// The next recorded payment re-derives and replaces the override.
	OverrideStatus(ctx context.Context, billID uuid.UUID, status enums.BillPaymentStatus) (*models.Bill, error)
	UpdateBill(ctx context.Context, billID uuid.UUID, input UpdateBillInput) (*models.Bill, error)
	DeleteBill(ctx context.Context, billID uuid.UUID) error
	Get(ctx context.Context, billID uuid.UUID) (*models.Bill, error)
	List(ctx context.Context, params pagination.Params) ([]models.Bill, string, error)
}

// LineItemInput is one billed position.
type LineItemInput struct {
	ItemID    uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateBillInput captures a new bill with its stock-impacting line items.
type CreateBillInput struct {
	BillNumber string
	CreatedBy  uuid.UUID
	LineItems  []LineItemInput
}

// UpdateBillInput replaces the bill's line item set.
type UpdateBillInput struct {
	LineItems []LineItemInput
}

// PaymentInput records one payment against a bill.
type PaymentInput struct {
	BillID      uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
	Reference   *string
}

// ServiceParams configures the billing service.
type ServiceParams struct {
	Repo        Repository
	Ledger      ledger
	DB          txRunner
	Broadcaster Broadcaster
}

type service struct {
	repo        Repository
	ledger      ledger
	db          txRunner
	broadcaster Broadcaster
	now         func() time.Time
}

// NewService wires the payment reconciler.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "billing repository required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory ledger required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		repo:        params.Repo,
		ledger:      params.Ledger,
		db:          params.DB,
		broadcaster: params.Broadcaster,
		now:         time.Now,
	}, nil
}

func (s *service) CreateBill(ctx context.Context, input CreateBillInput) (*models.Bill, error) {
	if input.BillNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill number required")
	}
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "created_by required")
	}
	if err := validateLineItems(input.LineItems); err != nil {
		return nil, err
	}

	var (
		bill        *models.Bill
		transitions []inventory.AlertTransition
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		transitions = transitions[:0]
		for _, line := range input.LineItems {
			result, err := s.ledger.ApplyDelta(ctx, tx, inventory.DeltaInput{
				ItemID: line.ItemID,
				Delta:  -line.Quantity,
			})
			if err != nil {
				return err
			}
			transitions = append(transitions, result.Transition)
		}

		bill = &models.Bill{
			BillNumber:    input.BillNumber,
			TotalAmount:   lineItemsTotal(input.LineItems),
			PaymentStatus: enums.BillPaymentStatusPending,
			CreatedBy:     input.CreatedBy,
			LineItems:     buildLineItems(input.LineItems),
		}
		return s.repo.WithTx(tx).Create(ctx, bill)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(enums.EventBillCreated, bill)
	s.broadcastTransitions(transitions)
	return bill, nil
}

func (s *service) RecordPayment(ctx context.Context, input PaymentInput) (*models.Bill, error) {
	if input.BillID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	var (
		bill    *models.Bill
		payment *models.BillPayment
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDForUpdate(ctx, input.BillID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock bill")
		}

		paymentDate := input.PaymentDate
		if paymentDate.IsZero() {
			paymentDate = s.now().UTC()
		}
		payment = &models.BillPayment{
			BillID:      current.ID,
			Amount:      input.Amount,
			PaymentDate: paymentDate,
			Reference:   input.Reference,
		}
		if err := repo.AddPayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add payment")
		}

		paid, err := repo.SumPayments(ctx, current.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payments")
		}
		status := derivePaymentStatus(paid, current.TotalAmount)
		if err := repo.UpdatePaymentStatus(ctx, current.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		current.PaymentStatus = status
		bill = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(enums.EventPaymentAdded, payment)
	s.broadcast(enums.EventBillUpdated, bill)
	return bill, nil
}

func (s *service) OverrideStatus(ctx context.Context, billID uuid.UUID, status enums.BillPaymentStatus) (*models.Bill, error) {
	if billID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	var bill *models.Bill
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDForUpdate(ctx, billID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock bill")
		}
		if err := repo.UpdatePaymentStatus(ctx, billID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "override payment status")
		}
		current.PaymentStatus = status
		bill = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(enums.EventBillUpdated, bill)
	return bill, nil
}

// UpdateBill replaces the line item set. Stock held by the outgoing set is
// restored first, then the incoming set is deducted, all in one transaction
// with the bill row itself.
func (s *service) UpdateBill(ctx context.Context, billID uuid.UUID, input UpdateBillInput) (*models.Bill, error) {
	if billID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}
	if err := validateLineItems(input.LineItems); err != nil {
		return nil, err
	}

	var (
		bill        *models.Bill
		transitions []inventory.AlertTransition
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		transitions = transitions[:0]
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDForUpdate(ctx, billID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock bill")
		}

		existing, err := repo.LineItems(ctx, billID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line items")
		}
		for _, line := range existing {
			result, err := s.ledger.ApplyDelta(ctx, tx, inventory.DeltaInput{
				ItemID: line.ItemID,
				Delta:  line.Quantity,
				Clamp:  true,
			})
			if err != nil {
				return err
			}
			transitions = append(transitions, result.Transition)
		}
		for _, line := range input.LineItems {
			result, err := s.ledger.ApplyDelta(ctx, tx, inventory.DeltaInput{
				ItemID: line.ItemID,
				Delta:  -line.Quantity,
			})
			if err != nil {
				return err
			}
			transitions = append(transitions, result.Transition)
		}

		if err := repo.ReplaceLineItems(ctx, billID, buildLineItems(input.LineItems)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace line items")
		}

		current.TotalAmount = lineItemsTotal(input.LineItems)
		paid, err := repo.SumPayments(ctx, billID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payments")
		}
		current.PaymentStatus = derivePaymentStatus(paid, current.TotalAmount)
		if err := repo.Update(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bill")
		}
		bill = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(enums.EventBillUpdated, bill)
	s.broadcastTransitions(transitions)
	return bill, nil
}

// DeleteBill restores every line item's stock before the bill row (and its
// dependents, via cascade) goes away.
func (s *service) DeleteBill(ctx context.Context, billID uuid.UUID) error {
	if billID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}

	var transitions []inventory.AlertTransition
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		transitions = transitions[:0]
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByIDForUpdate(ctx, billID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock bill")
		}

		lines, err := repo.LineItems(ctx, billID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line items")
		}
		for _, line := range lines {
			result, err := s.ledger.ApplyDelta(ctx, tx, inventory.DeltaInput{
				ItemID: line.ItemID,
				Delta:  line.Quantity,
				Clamp:  true,
			})
			if err != nil {
				return err
			}
			transitions = append(transitions, result.Transition)
		}

		return repo.Delete(ctx, billID)
	})
	if err != nil {
		return err
	}

	s.broadcast(enums.EventBillDeleted, map[string]any{"id": billID})
	s.broadcastTransitions(transitions)
	return nil
}

func (s *service) Get(ctx context.Context, billID uuid.UUID) (*models.Bill, error) {
	if billID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}
	bill, err := s.repo.FindByID(ctx, billID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch bill")
	}
	return bill, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Bill, string, error) {
	bills, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bills")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(bills) > limit {
		bills = bills[:limit]
		last := bills[len(bills)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return bills, next, nil
}

func (s *service) broadcast(event enums.EventType, data any) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(event, data)
}

func (s *service) broadcastTransitions(transitions []inventory.AlertTransition) {
	if s.broadcaster == nil {
		return
	}
	for _, transition := range transitions {
		if transition.Kind == inventory.TransitionEnter {
			s.broadcaster.Broadcast(enums.EventLowStockAlert, transition.Alert)
		}
	}
}

// derivePaymentStatus maps the summed payments against the billed total.
// Decimal comparison, never float. Validation keeps totals positive, so a
// non-positive total only reaches here from pre-existing rows; nothing is
// owed on such a bill and it counts as paid.
func derivePaymentStatus(paid, total decimal.Decimal) enums.BillPaymentStatus {
	if !total.IsPositive() {
		return enums.BillPaymentStatusPaid
	}
	switch {
	case paid.GreaterThanOrEqual(total):
		return enums.BillPaymentStatusPaid
	case paid.IsPositive():
		return enums.BillPaymentStatusPartial
	default:
		return enums.BillPaymentStatusPending
	}
}

func lineItemsTotal(lines []LineItemInput) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func buildLineItems(lines []LineItemInput) []models.BillLineItem {
	out := make([]models.BillLineItem, 0, len(lines))
	for _, line := range lines {
		out = append(out, models.BillLineItem{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}
	return out
}

func validateLineItems(lines []LineItemInput) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line item required")
	}
	for _, line := range lines {
		if line.ItemID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item id required")
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item unit price must be non-negative")
		}
	}
	if !lineItemsTotal(lines).IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "bill total must be positive")
	}
	return nil
}
