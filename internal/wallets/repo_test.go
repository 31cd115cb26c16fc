package wallets

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tokri-app/tokri-backend/pkg/db/models"
	"github.com/tokri-app/tokri-backend/pkg/enums"
)

func setupWalletsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	wallets := `
CREATE TABLE IF NOT EXISTS wallets (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  owner_type TEXT NOT NULL,
  current_balance TEXT NOT NULL,
  total_earned TEXT NOT NULL,
  total_withdrawn TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS wallet_transactions (
  id TEXT PRIMARY KEY,
  wallet_id TEXT NOT NULL,
  order_id TEXT,
  type TEXT NOT NULL,
  amount TEXT NOT NULL,
  balance_after TEXT NOT NULL,
  description TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(wallets).Error)
	require.NoError(t, db.Exec(transactions).Error)
	return db
}

func newWallet(t *testing.T, db *gorm.DB, ownerType enums.WalletOwnerType) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		OwnerType:      ownerType,
		CurrentBalance: decimal.Zero,
		TotalEarned:    decimal.Zero,
		TotalWithdrawn: decimal.Zero,
	}
	require.NoError(t, db.Create(wallet).Error)
	return wallet
}

func appendEntry(t *testing.T, db *gorm.DB, wallet *models.Wallet, txType enums.WalletTransactionType, amount, balanceAfter string, created time.Time) {
	t.Helper()

	entry := &models.WalletTransaction{
		ID:           uuid.New(),
		WalletID:     wallet.ID,
		Type:         txType,
		Amount:       decimal.RequireFromString(amount),
		BalanceAfter: decimal.RequireFromString(balanceAfter),
		Description:  "test entry",
		CreatedAt:    created,
	}
	require.NoError(t, db.Create(entry).Error)
}

func TestRepositoryFindByOwner(t *testing.T) {
	db := setupWalletsTestDB(t)
	repo := NewRepository(db)

	wallet := newWallet(t, db, enums.WalletOwnerTypeRider)
	newWallet(t, db, enums.WalletOwnerTypeMerchant)

	found, err := repo.FindByOwner(context.Background(), wallet.OwnerID, enums.WalletOwnerTypeRider)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, found.ID)

	_, err = repo.FindByOwner(context.Background(), wallet.OwnerID, enums.WalletOwnerTypeMerchant)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositorySaveWalletRoundTrip(t *testing.T) {
	db := setupWalletsTestDB(t)
	repo := NewRepository(db)

	wallet := newWallet(t, db, enums.WalletOwnerTypeMerchant)
	wallet.CurrentBalance = decimal.RequireFromString("800")
	wallet.TotalEarned = decimal.RequireFromString("800")
	require.NoError(t, repo.SaveWallet(context.Background(), wallet))

	found, err := repo.FindByID(context.Background(), wallet.ID)
	require.NoError(t, err)
	assert.True(t, found.CurrentBalance.Equal(decimal.RequireFromString("800")))
	assert.True(t, found.TotalEarned.Equal(decimal.RequireFromString("800")))
}

func TestRepositoryListTransactionsInCreationOrder(t *testing.T) {
	db := setupWalletsTestDB(t)
	repo := NewRepository(db)

	wallet := newWallet(t, db, enums.WalletOwnerTypeRider)
	other := newWallet(t, db, enums.WalletOwnerTypeRider)

	now := time.Now().UTC()
	appendEntry(t, db, wallet, enums.WalletTransactionTypeCredit, "45", "70", now)
	appendEntry(t, db, wallet, enums.WalletTransactionTypeCredit, "25", "25", now.Add(-time.Hour))
	appendEntry(t, db, other, enums.WalletTransactionTypeCredit, "99", "99", now)

	entries, err := repo.ListTransactions(context.Background(), wallet.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Amount.Equal(decimal.RequireFromString("25")))
	assert.True(t, entries[1].Amount.Equal(decimal.RequireFromString("45")))
	assert.True(t, ReplayBalance(entries).Equal(decimal.RequireFromString("70")))
}
