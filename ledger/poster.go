/*
poster.go - Transaction posting, updating, deleting, and transfer pairing

PURPOSE:
  The entry point for every transaction mutation. Side effects run in a
  fixed order inside one atomic store transaction:
    (a) resolve transfer pairing from the payee
    (b) ensure category month rows exist for the affected months
    (c) persist the transaction
    (d) update the account ledger (cleared/uncleared/balance)
    (e) run category bookkeeping (activity cascade + credit card mirror)
    (f) materialize the transfer counterpart if one is pending

TRANSFER STATE MACHINE:
  A transaction is Plain (no transfer), Transfer-Pending (payee resolved
  to a transfer payee; TransferTransactionID holds the sentinel "0"), or
  Transfer-Linked (both sides carry each other's id, negated amounts, the
  same date). Counterpart writes are SourceSystem mutations: they skip
  payee resolution so the pairing update cannot re-trigger itself.

UPDATE DIFFING:
  Updates work on an explicit before/after pair. Old effects are reversed
  with the before values and new effects applied with the after values -
  there is no shared "current transaction" cache and no hidden state.

SEE ALSO:
  - accounts.go: The account ledger driven from here
  - months.go: updateActivity and the cascade
  - mirror.go: Credit card mirroring rules
*/
package ledger

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// INPUT TYPES
// =============================================================================

// TransactionInput describes a new transaction. Exactly one of PayeeID or
// PayeeName must be set; a name that matches no payee creates one.
type TransactionInput struct {
	BudgetID   BudgetID
	AccountID  AccountID
	PayeeID    PayeeID
	PayeeName  string
	CategoryID CategoryID
	Amount     Money
	Date       time.Time
	Memo       string
	Status     TransactionStatus
}

// TransactionPatch carries the fields of an update. Nil pointers leave the
// stored value untouched; a pointer to the zero value clears it.
type TransactionPatch struct {
	PayeeID    *PayeeID
	CategoryID *CategoryID
	Amount     *Money
	Date       *time.Time
	Memo       *string
	Status     *TransactionStatus
}

// =============================================================================
// CREATE
// =============================================================================

// PostTransaction records a new transaction and updates every dependent
// aggregate. If the payee is a transfer payee, the counterpart transaction
// in the target account is created and linked in the same atomic mutation.
func (e *Engine) PostTransaction(ctx context.Context, in TransactionInput) (*Transaction, error) {
	if in.Status == "" {
		in.Status = StatusPending
	}

	var posted *Transaction
	err := e.withBudget(ctx, in.BudgetID, func(st Store) error {
		account, err := st.GetAccount(ctx, in.AccountID)
		if err != nil {
			return err
		}
		if account.BudgetID != in.BudgetID {
			return notFound("account", string(in.AccountID))
		}

		payeeID := in.PayeeID
		if payeeID == "" {
			payee, err := e.ensurePayee(ctx, st, in.BudgetID, in.PayeeName, false)
			if err != nil {
				return err
			}
			payeeID = payee.ID
		}

		if in.CategoryID != "" {
			cat, err := st.GetCategory(ctx, in.CategoryID)
			if err != nil {
				return err
			}
			if cat.BudgetID != in.BudgetID {
				return notFound("category", string(in.CategoryID))
			}
			if cat.IsTracking() {
				return ErrLockedCategory
			}
		}

		tx := &Transaction{
			ID:         TransactionID(NewID()),
			BudgetID:   in.BudgetID,
			AccountID:  in.AccountID,
			PayeeID:    payeeID,
			CategoryID: in.CategoryID,
			Amount:     in.Amount,
			Date:       in.Date,
			Memo:       in.Memo,
			Status:     in.Status,
			CreatedAt:  time.Now().UTC(),
		}
		if err := e.postTransaction(ctx, st, tx, SourceUser); err != nil {
			return err
		}
		posted = tx
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("post transaction: %w", err)
	}
	return posted, nil
}

// postTransaction runs the ordered create side effects. SourceSystem
// callers (counterpart materialization) skip payee resolution: their
// pairing fields are already final.
func (e *Engine) postTransaction(ctx context.Context, st Store, tx *Transaction, source MutationSource) error {
	// (a) resolve transfer pairing
	if source == SourceUser {
		payee, err := st.GetPayee(ctx, tx.PayeeID)
		if err != nil {
			return err
		}
		if payee.IsTransfer() {
			tx.TransferAccountID = payee.TransferAccountID
			tx.TransferTransactionID = transferPending
			// Transfer halves are uncategorized; their budget effect
			// flows through the account ledger and the CC mirror.
			tx.CategoryID = ""
		}
	}

	account, err := st.GetAccount(ctx, tx.AccountID)
	if err != nil {
		return err
	}

	// (b) ensure month rows exist before bookkeeping touches them
	if tx.CategoryID != "" {
		cat, err := st.GetCategory(ctx, tx.CategoryID)
		if err != nil {
			return err
		}
		if _, err := e.findOrCreateCategoryMonth(ctx, st, cat, tx.MonthOf()); err != nil {
			return err
		}
	}
	if account.Type == AccountCreditCard {
		tracking, err := st.FindCategoryByTrackingAccount(ctx, account.ID)
		if err != nil {
			return err
		}
		if tracking == nil {
			return &InvariantError{BudgetID: account.BudgetID, Detail: "credit card account has no tracking category"}
		}
		if _, err := e.findOrCreateCategoryMonth(ctx, st, tracking, tx.MonthOf()); err != nil {
			return err
		}
	}

	// (c) persist
	if err := st.CreateTransaction(ctx, tx); err != nil {
		return err
	}

	// (d) account ledger
	if err := e.accountAdd(ctx, st, account, tx.Amount, tx.Status); err != nil {
		return err
	}

	// (e) category bookkeeping + mirror
	if err := e.bookkeeping(ctx, st, tx, +1); err != nil {
		return err
	}

	// (f) materialize counterpart
	if tx.TransferTransactionID == transferPending {
		return e.materializeTransfer(ctx, st, tx)
	}
	return nil
}

// materializeTransfer creates the counterpart half of a pending transfer
// and writes the real pairing ids back onto the origin. The origin write
// is a plain persist: pairing ids carry no ledger weight.
func (e *Engine) materializeTransfer(ctx context.Context, st Store, origin *Transaction) error {
	originAccount, err := st.GetAccount(ctx, origin.AccountID)
	if err != nil {
		return err
	}

	counterpart := &Transaction{
		ID:                    TransactionID(NewID()),
		BudgetID:              origin.BudgetID,
		AccountID:             origin.TransferAccountID,
		PayeeID:               originAccount.TransferPayeeID,
		Amount:                origin.Amount.Neg(),
		Date:                  origin.Date,
		Memo:                  origin.Memo,
		Status:                StatusPending,
		TransferAccountID:     origin.AccountID,
		TransferTransactionID: origin.ID,
		CreatedAt:             time.Now().UTC(),
	}
	if err := e.postTransaction(ctx, st, counterpart, SourceSystem); err != nil {
		return err
	}

	origin.TransferTransactionID = counterpart.ID
	return st.UpdateTransaction(ctx, origin)
}

// =============================================================================
// UPDATE
// =============================================================================

// UpdateTransaction applies a patch to a transaction and reconciles every
// dependent aggregate, including the transfer counterpart when a
// transfer-relevant field changed.
func (e *Engine) UpdateTransaction(ctx context.Context, id TransactionID, patch TransactionPatch) (*Transaction, error) {
	stored, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	var updated *Transaction
	err = e.withBudget(ctx, stored.BudgetID, func(st Store) error {
		before, err := st.GetTransaction(ctx, id)
		if err != nil {
			return err
		}

		after := *before
		if patch.PayeeID != nil {
			after.PayeeID = *patch.PayeeID
		}
		if patch.CategoryID != nil {
			after.CategoryID = *patch.CategoryID
		}
		if patch.Amount != nil {
			after.Amount = *patch.Amount
		}
		if patch.Date != nil {
			after.Date = *patch.Date
		}
		if patch.Memo != nil {
			after.Memo = *patch.Memo
		}
		if patch.Status != nil {
			after.Status = *patch.Status
		}

		if after.CategoryID != "" && after.CategoryID != before.CategoryID {
			cat, err := st.GetCategory(ctx, after.CategoryID)
			if err != nil {
				return err
			}
			if cat.IsTracking() {
				return ErrLockedCategory
			}
		}

		payeeChanged := after.PayeeID != before.PayeeID
		pairRelevant := after.Amount != before.Amount || !after.Date.Equal(before.Date)

		// Transfer state transitions driven by the payee.
		if payeeChanged {
			payee, err := st.GetPayee(ctx, after.PayeeID)
			if err != nil {
				return err
			}
			if before.IsTransferLinked() {
				// The old pair is dead regardless of what the new
				// payee is; tear the counterpart down.
				cp, err := st.GetTransaction(ctx, before.TransferTransactionID)
				if err != nil && !IsNotFound(err) {
					return err
				}
				if cp != nil {
					// Keep TransferAccountID until removal so the
					// mirror reversal matches what was applied.
					cp.TransferTransactionID = ""
					if err := st.UpdateTransaction(ctx, cp); err != nil {
						return err
					}
					if err := e.removeTransaction(ctx, st, cp, false); err != nil {
						return err
					}
				}
			}
			after.TransferAccountID = ""
			after.TransferTransactionID = ""
			if payee.IsTransfer() {
				after.TransferAccountID = payee.TransferAccountID
				after.TransferTransactionID = transferPending
				after.CategoryID = ""
			}
		}

		// A transaction that is still a transfer after the patch stays
		// uncategorized.
		if after.TransferAccountID != "" && after.CategoryID != "" {
			return ErrTransferCategorized
		}

		if err := e.applyTransactionUpdate(ctx, st, before, &after); err != nil {
			return err
		}

		switch {
		case after.TransferTransactionID == transferPending:
			if err := e.materializeTransfer(ctx, st, &after); err != nil {
				return err
			}
		case !payeeChanged && before.IsTransferLinked() && pairRelevant:
			cp, err := st.GetTransaction(ctx, before.TransferTransactionID)
			if err != nil {
				return err
			}
			cpBefore := *cp
			cp.Amount = after.Amount.Neg()
			cp.Date = after.Date
			if err := e.applyTransactionUpdate(ctx, st, &cpBefore, cp); err != nil {
				return err
			}
		}

		updated = &after
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return updated, nil
}

// applyTransactionUpdate persists the after values and reconciles the
// account ledger and category bookkeeping against the before values.
func (e *Engine) applyTransactionUpdate(ctx context.Context, st Store, before, after *Transaction) error {
	account, err := st.GetAccount(ctx, after.AccountID)
	if err != nil {
		return err
	}
	if err := e.accountApplyUpdate(ctx, st, account, before.Amount, before.Status, after.Amount, after.Status); err != nil {
		return err
	}

	// A transfer-destination change flips mirror eligibility even when
	// category, amount, and month all stayed put.
	if before.CategoryID != after.CategoryID ||
		before.Amount != after.Amount ||
		before.TransferAccountID != after.TransferAccountID ||
		!before.MonthOf().Equal(after.MonthOf()) {
		if err := e.bookkeeping(ctx, st, before, -1); err != nil {
			return err
		}
		if err := e.bookkeeping(ctx, st, after, +1); err != nil {
			return err
		}
	}

	return st.UpdateTransaction(ctx, after)
}

// =============================================================================
// DELETE
// =============================================================================

// DeleteTransaction removes a transaction and backs its effects out of
// every aggregate. Deleting either half of a transfer pair deletes both.
func (e *Engine) DeleteTransaction(ctx context.Context, id TransactionID) error {
	stored, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	err = e.withBudget(ctx, stored.BudgetID, func(st Store) error {
		tx, err := st.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		return e.removeTransaction(ctx, st, tx, true)
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// removeTransaction reverses a transaction's ledger effects and deletes
// it. followPair controls counterpart cascade: the counterpart's
// back-reference is nulled before its own removal so the pair cascade
// runs exactly once in each direction.
func (e *Engine) removeTransaction(ctx context.Context, st Store, tx *Transaction, followPair bool) error {
	account, err := st.GetAccount(ctx, tx.AccountID)
	if err != nil {
		return err
	}
	if err := e.accountRemove(ctx, st, account, tx.Amount, tx.Status); err != nil {
		return err
	}
	if err := e.bookkeeping(ctx, st, tx, -1); err != nil {
		return err
	}
	if err := st.DeleteTransaction(ctx, tx.ID); err != nil {
		return err
	}

	if followPair && tx.IsTransferLinked() {
		cp, err := st.GetTransaction(ctx, tx.TransferTransactionID)
		if err != nil && !IsNotFound(err) {
			return err
		}
		if cp != nil {
			cp.TransferTransactionID = ""
			if err := st.UpdateTransaction(ctx, cp); err != nil {
				return err
			}
			if err := e.removeTransaction(ctx, st, cp, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// =============================================================================
// BOOKKEEPING - Category activity + credit card mirror
// =============================================================================

// bookkeeping applies (direction +1) or reverses (direction -1) a
// transaction's category-month and mirror effects. Off-budget accounts
// carry no category weight at all.
func (e *Engine) bookkeeping(ctx context.Context, st Store, tx *Transaction, direction int) error {
	account, err := st.GetAccount(ctx, tx.AccountID)
	if err != nil {
		return err
	}
	if !account.OnBudget() {
		return nil
	}

	delta := tx.Amount
	if direction < 0 {
		delta = delta.Neg()
	}

	var cat *Category
	if tx.CategoryID != "" {
		cat, err = st.GetCategory(ctx, tx.CategoryID)
		if err != nil {
			return err
		}
	}

	if cat != nil {
		// Inflow on a credit card is absorbed via the payment-transfer
		// amount difference; it never enters the category cascade.
		ccInflow := account.Type == AccountCreditCard && cat.Inflow
		if !ccInflow {
			cm, err := e.findOrCreateCategoryMonth(ctx, st, cat, tx.MonthOf())
			if err != nil {
				return err
			}
			if err := e.updateActivity(ctx, st, cat, cm, delta); err != nil {
				return err
			}
		}
	}

	if account.Type == AccountCreditCard {
		mirror, err := e.shouldMirror(ctx, st, tx, cat)
		if err != nil {
			return err
		}
		if mirror {
			if err := e.mirrorActivity(ctx, st, account, tx.MonthOf(), delta); err != nil {
				return err
			}
		}
	}
	return nil
}
