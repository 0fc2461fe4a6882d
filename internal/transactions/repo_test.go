package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	"github.com/dmarquezluna/stockroom-backend/pkg/pagination"
)

func setupTransactionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS inventory_transactions (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  transaction_type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  due_date DATETIME,
  returned_date DATETIME,
  approved_by TEXT,
  approved_at DATETIME,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedTransaction(t *testing.T, db *gorm.DB, itemID, userID uuid.UUID, status enums.TransactionStatus, created time.Time, due *time.Time) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		ItemID:          itemID,
		UserID:          userID,
		TransactionType: enums.TransactionTypeCheckout,
		Quantity:        1,
		Status:          status,
		DueDate:         due,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	txn.ID = uuid.New()
	require.NoError(t, db.Create(txn).Error)
	return txn
}

func TestRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)

	itemA := uuid.New()
	itemB := uuid.New()
	user := uuid.New()

	now := time.Now().UTC().Truncate(time.Second)
	oldest := seedTransaction(t, db, itemA, user, enums.TransactionStatusCompleted, now.Add(-2*time.Hour), nil)
	middle := seedTransaction(t, db, itemA, user, enums.TransactionStatusActive, now.Add(-time.Hour), nil)
	newest := seedTransaction(t, db, itemB, user, enums.TransactionStatusActive, now, nil)

	all, err := repo.List(context.Background(), ListFilter{}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newest.ID, all[0].ID)
	assert.Equal(t, oldest.ID, all[2].ID)

	itemFiltered, err := repo.List(context.Background(), ListFilter{ItemID: &itemA}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, itemFiltered, 2)

	active := enums.TransactionStatusActive
	statusFiltered, err := repo.List(context.Background(), ListFilter{Status: &active}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, statusFiltered, 2)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: newest.CreatedAt, ID: newest.ID})
	page, err := repo.List(context.Background(), ListFilter{}, pagination.Params{Limit: 10, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, middle.ID, page[0].ID)
}

func TestRepositoryMarkOverdueFlipsOnlyPastDueActive(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)

	user := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	pastDue := seedTransaction(t, db, uuid.New(), user, enums.TransactionStatusActive, now.Add(-48*time.Hour), &past)
	notDue := seedTransaction(t, db, uuid.New(), user, enums.TransactionStatusActive, now, &future)
	completed := seedTransaction(t, db, uuid.New(), user, enums.TransactionStatusCompleted, now.Add(-48*time.Hour), &past)
	noDueDate := seedTransaction(t, db, uuid.New(), user, enums.TransactionStatusActive, now, nil)

	ids, err := repo.MarkOverdue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, pastDue.ID, ids[0])

	flipped, err := repo.FindByID(context.Background(), pastDue.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusOverdue, flipped.Status)

	for _, untouched := range []*models.Transaction{notDue, noDueDate} {
		got, err := repo.FindByID(context.Background(), untouched.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.TransactionStatusActive, got.Status)
	}

	got, err := repo.FindByID(context.Background(), completed.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCompleted, got.Status)

	again, err := repo.MarkOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, again)
}
