package wallets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tokri-app/tokri-backend/pkg/db/models"
	"github.com/tokri-app/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
)

// ReplayBalance folds the ledger in creation order starting from zero.
// The result must equal the wallet's live balance; any difference means the
// ledger and the wallet have drifted apart.
func ReplayBalance(entries []models.WalletTransaction) decimal.Decimal {
	balance := decimal.Zero
	for _, entry := range entries {
		switch entry.Type {
		case enums.WalletTransactionTypeCredit:
			balance = balance.Add(entry.Amount)
		case enums.WalletTransactionTypeDebit:
			balance = balance.Sub(entry.Amount)
		}
	}
	return balance
}

// Audit checks the full ledger of a wallet and reports every inconsistency
// found, not just the first: each entry's recorded balanceAfter against the
// running replay, and the final replayed balance against the wallet row.
func (s *service) Audit(ctx context.Context, walletID uuid.UUID) error {
	if walletID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "wallet id required")
	}

	wallet, err := s.repo.FindByID(ctx, walletID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	entries, err := s.repo.ListTransactions(ctx, walletID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger")
	}

	var findings error
	running := decimal.Zero
	for i, entry := range entries {
		switch entry.Type {
		case enums.WalletTransactionTypeCredit:
			running = running.Add(entry.Amount)
		case enums.WalletTransactionTypeDebit:
			running = running.Sub(entry.Amount)
		default:
			findings = multierr.Append(findings,
				fmt.Errorf("entry %d (%s): unknown type %q", i, entry.ID, entry.Type))
			continue
		}
		if !entry.BalanceAfter.Equal(running) {
			findings = multierr.Append(findings,
				fmt.Errorf("entry %d (%s): balanceAfter %s, replay says %s", i, entry.ID, entry.BalanceAfter, running))
		}
	}
	if !wallet.CurrentBalance.Equal(running) {
		findings = multierr.Append(findings,
			fmt.Errorf("wallet balance %s does not match replayed %s", wallet.CurrentBalance, running))
	}
	if findings != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, findings, "ledger audit failed")
	}
	return nil
}
