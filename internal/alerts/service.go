package alerts

import (
	"context"
	"errors"

	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/dmarquezluna/stockroom-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes read access to low-stock alerts.
type Service interface {
	ListActive(ctx context.Context) ([]models.LowStockAlert, error)
	GetByItemID(ctx context.Context, itemID uuid.UUID) (*models.LowStockAlert, error)
}

type service struct {
	repo Repository
}

// NewService wires the alerts service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "alerts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.LowStockAlert, error) {
	alerts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active alerts")
	}
	return alerts, nil
}

func (s *service) GetByItemID(ctx context.Context, itemID uuid.UUID) (*models.LowStockAlert, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	alert, err := s.repo.FindByItemID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no alert for item")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch alert")
	}
	return alert, nil
}
