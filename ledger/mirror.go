/*
mirror.go - Credit card tracking category

PURPOSE:
  Every credit card account owns exactly one locked tracking category in
  the shared "Credit Card Payments" group, created when the account is.
  Card spending is mirrored inversely into it: a -50 purchase on the card
  puts +50 into the tracking category, representing money that must be
  reserved for the eventual card payment.

WHAT IS MIRRORED:
  Any transaction against the card that is NOT inflow-categorized,
  including transfers in and out of the card - except transfers whose
  counterpart account is off-budget (a Tracking account). Inflow value on
  a card is absorbed purely via the payment-transfer amount difference.

SEE ALSO:
  - months.go: updateActivity, which the mirror drives
  - engine.go: Tracking category creation on account insert
*/
package ledger

import "context"

// ensureTrackingCategory creates the card's tracking category in the
// shared locked "Credit Card Payments" group (creating the group on the
// budget's first card).
func (e *Engine) ensureTrackingCategory(ctx context.Context, st Store, card *Account) error {
	group, err := st.FindCategoryGroupByName(ctx, card.BudgetID, GroupNameCreditCards)
	if err != nil {
		return err
	}
	if group == nil {
		group = &CategoryGroup{
			ID:        CategoryGroupID(NewID()),
			BudgetID:  card.BudgetID,
			Name:      GroupNameCreditCards,
			Locked:    true,
			CreatedAt: card.CreatedAt,
		}
		if err := st.CreateCategoryGroup(ctx, group); err != nil {
			return err
		}
	}

	tracking := &Category{
		ID:                CategoryID(NewID()),
		BudgetID:          card.BudgetID,
		GroupID:           group.ID,
		Name:              card.Name,
		Locked:            true,
		TrackingAccountID: card.ID,
		CreatedAt:         card.CreatedAt,
	}
	return st.CreateCategory(ctx, tracking)
}

// shouldMirror decides whether a card transaction reflects into the
// tracking category. cat is the transaction's category (nil when
// uncategorized).
func (e *Engine) shouldMirror(ctx context.Context, st Store, tx *Transaction, cat *Category) (bool, error) {
	if cat != nil && cat.Inflow {
		return false, nil
	}
	if tx.TransferAccountID != "" {
		other, err := st.GetAccount(ctx, tx.TransferAccountID)
		if err != nil {
			return false, err
		}
		if !other.OnBudget() {
			return false, nil
		}
	}
	return true, nil
}

// mirrorActivity applies the inverse of a card transaction amount to the
// tracking category's month. delta is the signed change in the card's
// transaction activity (the transaction amount on add, its negation on
// remove).
func (e *Engine) mirrorActivity(ctx context.Context, st Store, card *Account, month Month, delta Money) error {
	tracking, err := st.FindCategoryByTrackingAccount(ctx, card.ID)
	if err != nil {
		return err
	}
	if tracking == nil {
		return &InvariantError{BudgetID: card.BudgetID, Detail: "credit card account has no tracking category"}
	}
	cm, err := e.findOrCreateCategoryMonth(ctx, st, tracking, month)
	if err != nil {
		return err
	}
	return e.updateActivity(ctx, st, tracking, cm, delta.Neg())
}
