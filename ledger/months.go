/*
months.go - Category month ledger and the balance cascade

PURPOSE:
  Maintains budgeted, activity, and balance per (category, month) and
  propagates balance changes forward into future months. This is the most
  algorithmically involved piece of the engine: a single activity or
  budgeted delta in one month can ripple through every later month the
  budget knows about.

THE CARRY RULE:
  A month's balance carries into the next month only when it is positive,
  or when the category is a credit card tracking category (card debt
  carries regardless of sign). A non-positive balance does not carry;
  instead the next month's balance is reset to budgeted + activity if a
  stale positive carry-in is still baked into it.

  The asymmetry is deliberate and load-bearing: when the current balance
  is non-positive AND the next month's balance already equals its own
  budgeted + activity, the cascade stops early. Do not "simplify" this
  into a single rule; downstream behavior depends on the exact stop
  condition.

CASCADE SHAPE:
  Implemented as an explicit loop, one iteration per month, rather than
  recursion. Termination is auditable: each iteration either breaks (no
  next budget month, or the early-stop condition) or advances to the next
  month, and the set of budget months is finite. The cascade never creates
  budget months; it terminates at the edge of known months.

SEE ALSO:
  - poster.go: Drives updateActivity from transaction mutations
  - mirror.go: Drives updateActivity for tracking categories
  - engine.go: The lock + store transaction every cascade runs inside
*/
package ledger

import (
	"context"
	"fmt"
)

// =============================================================================
// PUBLIC OPERATION - Assign money to an envelope
// =============================================================================

// SetBudgeted sets the budgeted amount for a category in a month and
// cascades the resulting balance change forward. The budget-wide
// toBeBudgeted pool moves by the inverse of the budgeted delta.
func (e *Engine) SetBudgeted(ctx context.Context, budgetID BudgetID, categoryID CategoryID, month Month, amount Money) error {
	err := e.withBudget(ctx, budgetID, func(st Store) error {
		cat, err := st.GetCategory(ctx, categoryID)
		if err != nil {
			return err
		}
		if cat.BudgetID != budgetID {
			return notFound("category", string(categoryID))
		}
		if cat.Locked {
			return ErrLockedCategory
		}

		cm, err := e.findOrCreateCategoryMonth(ctx, st, cat, month)
		if err != nil {
			return err
		}

		dBudgeted := amount - cm.Budgeted
		if dBudgeted == 0 {
			return nil
		}
		oldBalance := cm.Balance
		cm.Budgeted = amount
		cm.Balance += dBudgeted
		if err := st.UpdateCategoryMonth(ctx, cm); err != nil {
			return err
		}
		return e.cascade(ctx, st, cat, cm, dBudgeted, 0, oldBalance)
	})
	if err != nil {
		return fmt.Errorf("set budgeted: %w", err)
	}
	return nil
}

// =============================================================================
// ACTIVITY
// =============================================================================

// updateActivity adds delta to a category month's activity and balance,
// persists it, and cascades the balance change forward.
func (e *Engine) updateActivity(ctx context.Context, st Store, cat *Category, cm *CategoryMonth, delta Money) error {
	if delta == 0 {
		return nil
	}
	oldBalance := cm.Balance
	cm.Activity += delta
	cm.Balance += delta
	if err := st.UpdateCategoryMonth(ctx, cm); err != nil {
		return err
	}
	return e.cascade(ctx, st, cat, cm, 0, delta, oldBalance)
}

// EnsureMonth makes sure a BudgetMonth row exists for the given month,
// creating it with zero aggregates if absent. The rollover scheduler
// calls this as wall-clock time crosses into a new month, so the month
// is ready before the first transaction or budgeting action lands in it.
func (e *Engine) EnsureMonth(ctx context.Context, budgetID BudgetID, month Month) (*BudgetMonth, error) {
	var bm *BudgetMonth
	err := e.withBudget(ctx, budgetID, func(st Store) error {
		if _, err := st.GetBudget(ctx, budgetID); err != nil {
			return err
		}
		var err error
		bm, err = e.findOrCreateBudgetMonth(ctx, st, budgetID, month)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bm, nil
}

// =============================================================================
// FIND-OR-CREATE
// =============================================================================

// findOrCreateBudgetMonth returns the month's aggregate row, creating it
// with zero aggregates if the budget has not seen this month yet.
func (e *Engine) findOrCreateBudgetMonth(ctx context.Context, st Store, budgetID BudgetID, month Month) (*BudgetMonth, error) {
	bm, err := st.FindBudgetMonth(ctx, budgetID, month)
	if err != nil {
		return nil, err
	}
	if bm != nil {
		return bm, nil
	}
	bm = &BudgetMonth{
		ID:       BudgetMonthID(NewID()),
		BudgetID: budgetID,
		Month:    month,
	}
	if err := st.CreateBudgetMonth(ctx, bm); err != nil {
		return nil, err
	}
	return bm, nil
}

// findOrCreateCategoryMonth returns the category's row for a month,
// creating it lazily. A freshly created row is seeded from the most
// recent prior row via the cascade itself, so the carry math stays in
// one place: if that row's balance carries (positive, or tracking
// category), running a zero-delta cascade from it writes this row's
// opening balance, filling any untouched months in between. The
// backwards walk stops at the edge of known BudgetMonths, matching the
// cascade's own forward stop rule.
func (e *Engine) findOrCreateCategoryMonth(ctx context.Context, st Store, cat *Category, month Month) (*CategoryMonth, error) {
	cm, err := st.FindCategoryMonth(ctx, cat.ID, month)
	if err != nil {
		return nil, err
	}
	if cm != nil {
		return cm, nil
	}

	bm, err := e.findOrCreateBudgetMonth(ctx, st, cat.BudgetID, month)
	if err != nil {
		return nil, err
	}
	cm = &CategoryMonth{
		ID:            CategoryMonthID(NewID()),
		CategoryID:    cat.ID,
		BudgetMonthID: bm.ID,
		Month:         month,
	}
	if err := st.CreateCategoryMonth(ctx, cm); err != nil {
		return nil, err
	}

	var prev *CategoryMonth
	for m := month.Prev(); ; m = m.Prev() {
		bmPrior, err := st.FindBudgetMonth(ctx, cat.BudgetID, m)
		if err != nil {
			return nil, err
		}
		if bmPrior == nil {
			break
		}
		prev, err = st.FindCategoryMonth(ctx, cat.ID, m)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			break
		}
	}
	if prev != nil && (prev.Balance.IsPositive() || cat.IsTracking()) {
		if err := e.cascade(ctx, st, cat, prev, 0, 0, prev.Balance); err != nil {
			return nil, err
		}
		// The cascade rewrote the new row; re-read it.
		cm, err = st.FindCategoryMonth(ctx, cat.ID, month)
		if err != nil {
			return nil, err
		}
		if cm == nil {
			return nil, &InvariantError{BudgetID: cat.BudgetID, Detail: "category month vanished during seed cascade"}
		}
	}
	return cm, nil
}

// =============================================================================
// CASCADE - Forward propagation over consecutive months
// =============================================================================

// cascade propagates a category month change forward. cm's own change has
// already been persisted; dBudgeted/dActivity are the deltas applied to it
// and oldBalance is its balance before the change. Subsequent iterations
// carry balance only (their deltas are zero), so toBeBudgeted and income
// move exactly once per mutation.
func (e *Engine) cascade(ctx context.Context, st Store, cat *Category, cm *CategoryMonth, dBudgeted, dActivity, oldBalance Money) error {
	budget, err := st.GetBudget(ctx, cat.BudgetID)
	if err != nil {
		return err
	}
	tracking := cat.IsTracking()

	cur := cm
	dB, dA, oldBal := dBudgeted, dActivity, oldBalance

	for {
		bm, err := st.GetBudgetMonthByID(ctx, cur.BudgetMonthID)
		if err != nil {
			return err
		}

		bm.Budgeted += dB
		// Tracking activity mirrors card spending that the spending
		// category already counted; adding it again would double-count
		// the month's activity.
		if !tracking {
			bm.Activity += dA
		}

		if dB != 0 || dA != 0 {
			budget.ToBeBudgeted -= dB
			if cat.Inflow {
				budget.ToBeBudgeted += dA
			}
		}
		if cat.Inflow {
			bm.Income += dA
		}

		// Underfunded tracks envelope overspend. A negative tracking
		// balance can be legitimate reimbursement, not deficit.
		if !tracking {
			if oldBal.IsNegative() {
				bm.Underfunded -= oldBal.Abs()
			}
			if cur.Balance.IsNegative() {
				bm.Underfunded += cur.Balance.Abs()
			}
		}

		if err := st.UpdateBudgetMonth(ctx, bm); err != nil {
			return err
		}

		nextBM, err := st.FindBudgetMonth(ctx, bm.BudgetID, cur.Month.Next())
		if err != nil {
			return err
		}
		if nextBM == nil {
			break // edge of known months
		}

		next, err := st.FindCategoryMonth(ctx, cat.ID, cur.Month.Next())
		if err != nil {
			return err
		}
		if next == nil {
			next = &CategoryMonth{
				ID:            CategoryMonthID(NewID()),
				CategoryID:    cat.ID,
				BudgetMonthID: nextBM.ID,
				Month:         cur.Month.Next(),
			}
			if err := st.CreateCategoryMonth(ctx, next); err != nil {
				return err
			}
		}

		nextOldBalance := next.Balance
		if cur.Balance.IsPositive() || tracking {
			next.Balance = cur.Balance + next.Budgeted + next.Activity
		} else {
			if next.Balance == next.Budgeted+next.Activity {
				break // no stale carry-in to correct
			}
			next.Balance = next.Budgeted + next.Activity
		}
		if err := st.UpdateCategoryMonth(ctx, next); err != nil {
			return err
		}

		cur, oldBal = next, nextOldBalance
		dB, dA = 0, 0
	}

	return st.UpdateBudget(ctx, budget)
}
