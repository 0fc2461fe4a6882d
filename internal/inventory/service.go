package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/dmarquezluna/stockroom-backend/internal/alerts"
	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	pkgerrors "github.com/dmarquezluna/stockroom-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransitionKind classifies the alert side effect of a quantity delta.
type TransitionKind string

const (
	TransitionNone    TransitionKind = "none"
	TransitionEnter   TransitionKind = "enter"
	TransitionResolve TransitionKind = "resolve"
)

// DeltaInput describes one signed quantity mutation.
type DeltaInput struct {
	ItemID uuid.UUID
	Delta  int
	// Clamp floors the resulting quantity at zero instead of failing. Only
	// restore paths (returns, bill-edit restoration) set it; checkouts must
	// fail outright rather than silently under-fulfill.
	Clamp bool
	// RequireAvailable rejects the delta when the item is not in a
	// checkout-eligible state.
	RequireAvailable bool
}

// AlertTransition reports what the delta did to the item's alert state.
type AlertTransition struct {
	Kind  TransitionKind
	Level enums.AlertLevel
	Alert *models.LowStockAlert
}

// DeltaResult is returned to callers so they can broadcast after commit.
type DeltaResult struct {
	Item             *models.InventoryItem
	PreviousQuantity int
	NewQuantity      int
	Transition       AlertTransition
}

// Service owns every quantity mutation and the alert derivation tied to it.
type Service interface {
	// ApplyDelta mutates the item quantity inside the caller's transaction.
	// The row lock, the quantity write and the alert transition commit or
	// roll back as one unit.
	ApplyDelta(ctx context.Context, tx *gorm.DB, input DeltaInput) (*DeltaResult, error)
	CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListItems(ctx context.Context) ([]models.InventoryItem, error)
}

// ServiceParams configures the inventory service.
type ServiceParams struct {
	Repo      Repository
	AlertRepo alerts.Repository
	// ReevaluateActive re-derives the alert level on deltas that stay below
	// the threshold, so an active alert can escalate without resolving first.
	ReevaluateActive bool
}

type service struct {
	repo             Repository
	alertRepo        alerts.Repository
	reevaluateActive bool
	now              func() time.Time
}

// CreateItemInput captures the fields a new inventory item requires.
type CreateItemInput struct {
	Name        string
	Description *string
	Quantity    int
	MinQuantity int
	Status      enums.ItemStatus
}

// NewService wires the inventory ledger with its repositories.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory repository required")
	}
	if params.AlertRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "alert repository required")
	}
	return &service{
		repo:             params.Repo,
		alertRepo:        params.AlertRepo,
		reevaluateActive: params.ReevaluateActive,
		now:              time.Now,
	}, nil
}

func (s *service) ApplyDelta(ctx context.Context, tx *gorm.DB, input DeltaInput) (*DeltaResult, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	repo := s.repo.WithTx(tx)
	item, err := repo.FindByIDForUpdate(ctx, input.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock item row")
	}

	if input.RequireAvailable && item.Status != enums.ItemStatusAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable, "item is not available for checkout").
			WithDetails(map[string]any{"status": item.Status})
	}

	previous := item.Quantity
	next := previous + input.Delta
	if next < 0 {
		if !input.Clamp {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for requested quantity").
				WithDetails(map[string]any{
					"available": previous,
					"requested": -input.Delta,
				})
		}
		next = 0
	}

	if err := repo.UpdateQuantity(ctx, item.ID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quantity")
	}
	item.Quantity = next

	transition, err := s.applyAlertTransition(ctx, tx, item, previous, next)
	if err != nil {
		return nil, err
	}

	return &DeltaResult{
		Item:             item,
		PreviousQuantity: previous,
		NewQuantity:      next,
		Transition:       transition,
	}, nil
}

// applyAlertTransition compares the previous and new quantity against the
// threshold and persists the resulting alert state in the same transaction.
func (s *service) applyAlertTransition(ctx context.Context, tx *gorm.DB, item *models.InventoryItem, previous, next int) (AlertTransition, error) {
	alertRepo := s.alertRepo.WithTx(tx)
	min := item.MinQuantity

	switch {
	case previous > min && next <= min:
		level := enums.DeriveAlertLevel(next, min)
		alert := &models.LowStockAlert{
			ItemID:          item.ID,
			CurrentQuantity: next,
			MinQuantity:     min,
			AlertLevel:      level,
			Status:          enums.AlertStatusActive,
		}
		if err := alertRepo.Upsert(ctx, alert); err != nil {
			return AlertTransition{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enter alert")
		}
		return AlertTransition{Kind: TransitionEnter, Level: level, Alert: alert}, nil

	case previous <= min && next > min:
		if _, err := alertRepo.Resolve(ctx, item.ID, s.now().UTC()); err != nil {
			return AlertTransition{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve alert")
		}
		return AlertTransition{Kind: TransitionResolve}, nil

	case s.reevaluateActive && previous <= min && next <= min && previous != next:
		return s.reevaluateLevel(ctx, alertRepo, item, next)
	}

	return AlertTransition{Kind: TransitionNone}, nil
}

// reevaluateLevel escalates or downgrades an already-active alert in place.
func (s *service) reevaluateLevel(ctx context.Context, alertRepo alerts.Repository, item *models.InventoryItem, next int) (AlertTransition, error) {
	current, err := alertRepo.FindByItemID(ctx, item.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AlertTransition{Kind: TransitionNone}, nil
		}
		return AlertTransition{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load alert")
	}
	if current.Status != enums.AlertStatusActive {
		return AlertTransition{Kind: TransitionNone}, nil
	}

	level := enums.DeriveAlertLevel(next, item.MinQuantity)
	if level == current.AlertLevel && current.CurrentQuantity == next {
		return AlertTransition{Kind: TransitionNone}, nil
	}

	changed := level != current.AlertLevel
	current.CurrentQuantity = next
	current.AlertLevel = level
	if err := alertRepo.Upsert(ctx, current); err != nil {
		return AlertTransition{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update alert level")
	}
	if !changed {
		return AlertTransition{Kind: TransitionNone}, nil
	}
	return AlertTransition{Kind: TransitionEnter, Level: level, Alert: current}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	if input.Quantity < 0 || input.MinQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantities must be non-negative")
	}
	status := input.Status
	if status == "" {
		status = enums.ItemStatusAvailable
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item status")
	}

	item := &models.InventoryItem{
		Name:        input.Name,
		Description: input.Description,
		Quantity:    input.Quantity,
		MinQuantity: input.MinQuantity,
		Status:      status,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch item")
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	return items, nil
}
