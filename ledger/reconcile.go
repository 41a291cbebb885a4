/*
reconcile.go - Account reconciliation

PURPOSE:
  Reconciling an account asserts "the bank says the cleared balance is X".
  All Cleared transactions flip to Reconciled, and any difference between
  the stated balance and the ledger's cleared bucket is recorded as a
  Reconciliation Balance Adjustment transaction through the normal posting
  path, so every aggregate stays consistent.

SEE ALSO:
  - poster.go: The posting path the adjustment flows through
*/
package ledger

import (
	"context"
	"fmt"
	"time"
)

// ReconcileResult reports what a reconciliation did.
type ReconcileResult struct {
	Account *Account

	// Adjustment is the created adjustment transaction, nil when the
	// stated balance already matched.
	Adjustment *Transaction
}

// ReconcileAccount flips the account's Cleared transactions to Reconciled
// and posts an adjustment transaction for the difference between
// statedBalance and the cleared bucket. For bank accounts the adjustment
// is inflow-categorized (the money becomes budgetable); for credit card
// and tracking accounts it is uncategorized.
func (e *Engine) ReconcileAccount(ctx context.Context, accountID AccountID, statedBalance Money) (*ReconcileResult, error) {
	stored, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("reconcile account: %w", err)
	}

	result := &ReconcileResult{}
	err = e.withBudget(ctx, stored.BudgetID, func(st Store) error {
		account, err := st.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		txs, err := st.ListTransactionsByAccount(ctx, accountID)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			if tx.Status != StatusCleared {
				continue
			}
			// Cleared and Reconciled share the cleared bucket, so the
			// flip carries no account ledger weight.
			tx.Status = StatusReconciled
			if err := st.UpdateTransaction(ctx, tx); err != nil {
				return err
			}
		}

		adjustment := statedBalance - account.Cleared
		if adjustment != 0 {
			payee, err := e.ensurePayee(ctx, st, account.BudgetID, PayeeNameReconcile, true)
			if err != nil {
				return err
			}

			var categoryID CategoryID
			if account.Type == AccountBank {
				inflow, err := st.FindInflowCategory(ctx, account.BudgetID)
				if err != nil {
					return err
				}
				if inflow == nil {
					return notFound("inflow category", string(account.BudgetID))
				}
				categoryID = inflow.ID
			}

			now := time.Now().UTC()
			tx := &Transaction{
				ID:         TransactionID(NewID()),
				BudgetID:   account.BudgetID,
				AccountID:  account.ID,
				PayeeID:    payee.ID,
				CategoryID: categoryID,
				Amount:     adjustment,
				Date:       now,
				Memo:       "Reconciliation adjustment",
				Status:     StatusReconciled,
				CreatedAt:  now,
			}
			if err := e.postTransaction(ctx, st, tx, SourceUser); err != nil {
				return err
			}
			result.Adjustment = tx
		}

		account, err = st.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		result.Account = account
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile account: %w", err)
	}
	return result, nil
}
