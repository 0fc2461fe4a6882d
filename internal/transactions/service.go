package transactions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquezluna/stockroom-backend/internal/inventory"
	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	pkgerrors "github.com/dmarquezluna/stockroom-backend/pkg/errors"
	"github.com/dmarquezluna/stockroom-backend/pkg/pagination"
)

// Broadcaster fans events out to realtime observers. Implementations must not
// block and must not surface delivery failures to the caller.
type Broadcaster interface {
	Broadcast(event enums.EventType, data any)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledger interface {
	ApplyDelta(ctx context.Context, tx *gorm.DB, input inventory.DeltaInput) (*inventory.DeltaResult, error)
}

// Service drives the checkout/checkin lifecycle.
type Service interface {
	CreateCheckout(ctx context.Context, input CheckoutInput) (*models.Transaction, error)
	CreateCheckin(ctx context.Context, input CheckinInput) (*models.Transaction, error)
	CompleteReturn(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	Approve(ctx context.Context, id, approverID uuid.UUID) (*models.Transaction, error)
	SweepOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Transaction, string, error)
}

// CheckoutInput captures a new checkout request.
type CheckoutInput struct {
	ItemID   uuid.UUID
	UserID   uuid.UUID
	Quantity int
	DueDate  *time.Time
	Notes    *string
}

// CheckinInput captures a direct stock return that was not tied to a prior
// checkout (donations, found stock, bulk restock).
type CheckinInput struct {
	ItemID   uuid.UUID
	UserID   uuid.UUID
	Quantity int
	Notes    *string
}

// ServiceParams configures the transaction service.
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

// NewService wires the transaction processor.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction repository required")
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

func (s *service) CreateCheckout(ctx context.Context, input CheckoutInput) (*models.Transaction, error) {
	if err := validateLendingInput(input.ItemID, input.UserID, input.Quantity); err != nil {
		return nil, err
	}

	var (
		txn        *models.Transaction
		transition inventory.AlertTransition
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		result, err := s.ledger.ApplyDelta(ctx, tx, inventory.DeltaInput{
			ItemID:           input.ItemID,
			Delta:            -input.Quantity,
			RequireAvailable: true,
		})
		if err != nil {
			return err
		}
		transition = result.Transition

		txn = &models.Transaction{
			ItemID:          input.ItemID,
			UserID:          input.UserID,
			TransactionType: enums.TransactionTypeCheckout,
			Quantity:        input.Quantity,
			Status:          enums.TransactionStatusActive,
			DueDate:         input.DueDate,
			Notes:           input.Notes,
		}
		return s.repo.WithTx(tx).Create(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(enums.EventTransactionCreated, txn)
	s.broadcastTransition(transition)
	return txn, nil
}

func (s *service) CreateCheckin(ctx context.Context, input CheckinInput) (*models.Transaction, error) {
	if err := validateLendingInput(input.ItemID, input.UserID, input.Quantity); err != nil {
		return nil, err
	}

	var (
		txn        *models.Transaction
		transition inventory.AlertTransition
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		result, err := s.ledger.ApplyDelta(ctx, tx, inventory.DeltaInput{
			ItemID: input.ItemID,
			Delta:  input.Quantity,
		})
		if err != nil {
			return err
		}
		transition = result.Transition

		returned := s.now().UTC()
		txn = &models.Transaction{
			ItemID:          input.ItemID,
			UserID:          input.UserID,
			TransactionType: enums.TransactionTypeCheckin,
			Quantity:        input.Quantity,
			Status:          enums.TransactionStatusCompleted,
			ReturnedDate:    &returned,
			Notes:           input.Notes,
		}
		return s.repo.WithTx(tx).Create(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(enums.EventTransactionCreated, txn)
	s.broadcastTransition(transition)
	return txn, nil
}

// CompleteReturn restores the checked-out quantity and completes the
// transaction. Overdue checkouts are still outstanding and remain returnable;
// a second return of the same transaction is a state conflict and never
// re-credits stock.
func (s *service) CompleteReturn(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}

	var (
		txn        *models.Transaction
		transition inventory.AlertTransition
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock transaction")
		}

		if current.TransactionType != enums.TransactionTypeCheckout {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only checkouts can be returned").
				WithDetails(map[string]any{"transaction_type": current.TransactionType})
		}
		if current.Status == enums.TransactionStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction already returned").
				WithDetails(map[string]any{"returned_date": current.ReturnedDate})
		}

		result, err := s.ledger.ApplyDelta(ctx, tx, inventory.DeltaInput{
			ItemID: current.ItemID,
			Delta:  current.Quantity,
			Clamp:  true,
		})
		if err != nil {
			return err
		}
		transition = result.Transition

		returned := s.now().UTC()
		current.Status = enums.TransactionStatusCompleted
		current.ReturnedDate = &returned
		if err := repo.Update(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete transaction")
		}
		txn = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(enums.EventTransactionUpdated, txn)
	s.broadcastTransition(transition)
	return txn, nil
}

func (s *service) Approve(ctx context.Context, id, approverID uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil || approverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id and approver id required")
	}

	var txn *models.Transaction
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock transaction")
		}
		if current.ApprovedAt != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction already approved").
				WithDetails(map[string]any{"approved_by": current.ApprovedBy})
		}

		approvedAt := s.now().UTC()
		current.ApprovedBy = &approverID
		current.ApprovedAt = &approvedAt
		if err := repo.Update(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve transaction")
		}
		txn = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(enums.EventTransactionApproved, txn)
	return txn, nil
}

func (s *service) SweepOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	ids, err := s.repo.MarkOverdue(ctx, now.UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark overdue transactions")
	}
	for _, id := range ids {
		s.broadcast(enums.EventTransactionUpdated, map[string]any{
			"id":     id,
			"status": enums.TransactionStatusOverdue,
		})
	}
	return ids, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch transaction")
	}
	return txn, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Transaction, string, error) {
	txns, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return txns, next, nil
}

func (s *service) broadcast(event enums.EventType, data any) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(event, data)
}

func (s *service) broadcastTransition(transition inventory.AlertTransition) {
	if s.broadcaster == nil || transition.Kind != inventory.TransitionEnter {
		return
	}
	s.broadcaster.Broadcast(enums.EventLowStockAlert, transition.Alert)
}

func validateLendingInput(itemID, userID uuid.UUID, quantity int) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}
