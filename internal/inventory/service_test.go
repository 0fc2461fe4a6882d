package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/dmarquezluna/stockroom-backend/internal/alerts"
	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	pkgerrors "github.com/dmarquezluna/stockroom-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeItemRepo struct {
	items map[uuid.UUID]*models.InventoryItem
}

func newFakeItemRepo(items ...*models.InventoryItem) *fakeItemRepo {
	r := &fakeItemRepo{items: make(map[uuid.UUID]*models.InventoryItem)}
	for _, item := range items {
		r.items[item.ID] = item
	}
	return r
}

func (r *fakeItemRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *fakeItemRepo) Create(ctx context.Context, item *models.InventoryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = item
	return nil
}

func (r *fakeItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *fakeItemRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeItemRepo) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Quantity = quantity
	return nil
}

func (r *fakeItemRepo) Update(ctx context.Context, item *models.InventoryItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *fakeItemRepo) List(ctx context.Context) ([]models.InventoryItem, error) {
	out := make([]models.InventoryItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, *item)
	}
	return out, nil
}

type fakeAlertRepo struct {
	byItem map[uuid.UUID]*models.LowStockAlert
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{byItem: make(map[uuid.UUID]*models.LowStockAlert)}
}

func (r *fakeAlertRepo) WithTx(tx *gorm.DB) alerts.Repository { return r }

func (r *fakeAlertRepo) Upsert(ctx context.Context, alert *models.LowStockAlert) error {
	if existing, ok := r.byItem[alert.ItemID]; ok {
		alert.ID = existing.ID
	} else if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	alert.Status = enums.AlertStatusActive
	alert.ResolvedAt = nil
	copied := *alert
	r.byItem[alert.ItemID] = &copied
	return nil
}

func (r *fakeAlertRepo) Resolve(ctx context.Context, itemID uuid.UUID, at time.Time) (bool, error) {
	alert, ok := r.byItem[itemID]
	if !ok || alert.Status != enums.AlertStatusActive {
		return false, nil
	}
	alert.Status = enums.AlertStatusResolved
	alert.ResolvedAt = &at
	return true, nil
}

func (r *fakeAlertRepo) FindByItemID(ctx context.Context, itemID uuid.UUID) (*models.LowStockAlert, error) {
	alert, ok := r.byItem[itemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *alert
	return &copied, nil
}

func (r *fakeAlertRepo) ListActive(ctx context.Context) ([]models.LowStockAlert, error) {
	var out []models.LowStockAlert
	for _, alert := range r.byItem {
		if alert.Status == enums.AlertStatusActive {
			out = append(out, *alert)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, itemRepo *fakeItemRepo, alertRepo *fakeAlertRepo, reevaluate bool) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:             itemRepo,
		AlertRepo:        alertRepo,
		ReevaluateActive: reevaluate,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testItem(quantity, min int) *models.InventoryItem {
	return &models.InventoryItem{
		ID:          uuid.New(),
		Name:        "socket wrench set",
		Quantity:    quantity,
		MinQuantity: min,
		Status:      enums.ItemStatusAvailable,
	}
}

func TestApplyDeltaRejectsNegativeResult(t *testing.T) {
	item := testItem(3, 1)
	itemRepo := newFakeItemRepo(item)
	svc := newTestService(t, itemRepo, newFakeAlertRepo(), false)

	_, err := svc.ApplyDelta(context.Background(), nil, DeltaInput{ItemID: item.ID, Delta: -5})
	if !pkgerrors.Is(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if itemRepo.items[item.ID].Quantity != 3 {
		t.Fatalf("quantity mutated on rejected delta: %d", itemRepo.items[item.ID].Quantity)
	}
}

func TestApplyDeltaClampsRestores(t *testing.T) {
	item := testItem(2, 0)
	itemRepo := newFakeItemRepo(item)
	svc := newTestService(t, itemRepo, newFakeAlertRepo(), false)

	result, err := svc.ApplyDelta(context.Background(), nil, DeltaInput{ItemID: item.ID, Delta: -5, Clamp: true})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if result.NewQuantity != 0 {
		t.Fatalf("expected clamp to zero, got %d", result.NewQuantity)
	}
	if result.PreviousQuantity != 2 {
		t.Fatalf("previous quantity = %d, want 2", result.PreviousQuantity)
	}
}

func TestApplyDeltaRequireAvailable(t *testing.T) {
	item := testItem(5, 1)
	item.Status = enums.ItemStatusMaintenance
	svc := newTestService(t, newFakeItemRepo(item), newFakeAlertRepo(), false)

	_, err := svc.ApplyDelta(context.Background(), nil, DeltaInput{ItemID: item.ID, Delta: -1, RequireAvailable: true})
	if !pkgerrors.Is(err, pkgerrors.CodeItemUnavailable) {
		t.Fatalf("expected item unavailable, got %v", err)
	}
}

func TestApplyDeltaUnknownItem(t *testing.T) {
	svc := newTestService(t, newFakeItemRepo(), newFakeAlertRepo(), false)

	_, err := svc.ApplyDelta(context.Background(), nil, DeltaInput{ItemID: uuid.New(), Delta: 1})
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyDeltaAlertHysteresis(t *testing.T) {
	item := testItem(10, 5)
	itemRepo := newFakeItemRepo(item)
	alertRepo := newFakeAlertRepo()
	svc := newTestService(t, itemRepo, alertRepo, false)
	ctx := context.Background()

	steps := []struct {
		delta     int
		kind      TransitionKind
		level     enums.AlertLevel
		remaining int
	}{
		{-4, TransitionNone, "", 6},                              // 10 -> 6, above threshold
		{-1, TransitionEnter, enums.AlertLevelLow, 5},            // crosses to 5 == min
		{-3, TransitionNone, "", 2},                              // stays below, no re-eval by default
		{-2, TransitionNone, "", 0},                              // hits zero, still no re-eval
		{6, TransitionResolve, "", 6},                            // restored above threshold
		{-6, TransitionEnter, enums.AlertLevelOutOfStock, 0},     // re-enters straight at zero
	}

	for i, step := range steps {
		result, err := svc.ApplyDelta(ctx, nil, DeltaInput{ItemID: item.ID, Delta: step.delta})
		if err != nil {
			t.Fatalf("step %d: ApplyDelta: %v", i, err)
		}
		if result.NewQuantity != step.remaining {
			t.Fatalf("step %d: quantity = %d, want %d", i, result.NewQuantity, step.remaining)
		}
		if result.Transition.Kind != step.kind {
			t.Fatalf("step %d: transition = %s, want %s", i, result.Transition.Kind, step.kind)
		}
		if step.kind == TransitionEnter && result.Transition.Level != step.level {
			t.Fatalf("step %d: level = %s, want %s", i, result.Transition.Level, step.level)
		}
	}

	alert, err := alertRepo.FindByItemID(ctx, item.ID)
	if err != nil {
		t.Fatalf("FindByItemID: %v", err)
	}
	if alert.Status != enums.AlertStatusActive || alert.AlertLevel != enums.AlertLevelOutOfStock {
		t.Fatalf("final alert = %s/%s, want active/out_of_stock", alert.Status, alert.AlertLevel)
	}
}

func TestApplyDeltaReevaluatesActiveAlert(t *testing.T) {
	item := testItem(6, 5)
	alertRepo := newFakeAlertRepo()
	svc := newTestService(t, newFakeItemRepo(item), alertRepo, true)
	ctx := context.Background()

	// 6 -> 4 crosses the threshold at level low.
	result, err := svc.ApplyDelta(ctx, nil, DeltaInput{ItemID: item.ID, Delta: -2})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if result.Transition.Kind != TransitionEnter || result.Transition.Level != enums.AlertLevelLow {
		t.Fatalf("expected low enter, got %s/%s", result.Transition.Kind, result.Transition.Level)
	}

	// 4 -> 2 stays below but escalates to critical.
	result, err = svc.ApplyDelta(ctx, nil, DeltaInput{ItemID: item.ID, Delta: -2})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if result.Transition.Kind != TransitionEnter || result.Transition.Level != enums.AlertLevelCritical {
		t.Fatalf("expected critical escalation, got %s/%s", result.Transition.Kind, result.Transition.Level)
	}

	alert, err := alertRepo.FindByItemID(ctx, item.ID)
	if err != nil {
		t.Fatalf("FindByItemID: %v", err)
	}
	if alert.CurrentQuantity != 2 || alert.AlertLevel != enums.AlertLevelCritical {
		t.Fatalf("alert row = %d/%s, want 2/critical", alert.CurrentQuantity, alert.AlertLevel)
	}
}

func TestCreateItemValidation(t *testing.T) {
	svc := newTestService(t, newFakeItemRepo(), newFakeAlertRepo(), false)
	ctx := context.Background()

	if _, err := svc.CreateItem(ctx, CreateItemInput{Quantity: 1}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := svc.CreateItem(ctx, CreateItemInput{Name: "drill", Quantity: -1}); err == nil {
		t.Fatal("expected error for negative quantity")
	}

	item, err := svc.CreateItem(ctx, CreateItemInput{Name: "drill", Quantity: 4, MinQuantity: 2})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Status != enums.ItemStatusAvailable {
		t.Fatalf("status = %s, want available", item.Status)
	}
	if item.ID == uuid.Nil {
		t.Fatal("expected id assigned")
	}
}
