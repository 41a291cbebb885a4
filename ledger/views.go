/*
views.go - Read models

PURPOSE:
  Read-only projections of the ledger for API consumers: the month view
  (one budget month with its category rows joined to category metadata),
  the account register (transactions for one account), and the budget
  summary (accounts plus category tree).

  Views never mutate anything, so they read outside the budget lock. A
  view racing a mutation sees either the pre- or post-mutation state,
  never a partial one, because every mutation commits atomically.
*/
package ledger

import (
	"context"
	"sort"
)

// =============================================================================
// MONTH VIEW
// =============================================================================

// CategoryMonthRow joins one category month with its category.
type CategoryMonthRow struct {
	Category *Category
	Month    *CategoryMonth
}

// MonthView is one budget month with all its category rows.
type MonthView struct {
	BudgetMonth *BudgetMonth
	Categories  []CategoryMonthRow
}

// GetMonthView returns the month view for a budget month, or ErrNotFound
// if no BudgetMonth exists for that month.
func (e *Engine) GetMonthView(ctx context.Context, budgetID BudgetID, month Month) (*MonthView, error) {
	st := e.store

	bm, err := st.FindBudgetMonth(ctx, budgetID, month)
	if err != nil {
		return nil, err
	}
	if bm == nil {
		return nil, notFound("budget month", string(budgetID)+"/"+month.String())
	}

	cms, err := st.ListCategoryMonths(ctx, bm.ID)
	if err != nil {
		return nil, err
	}

	view := &MonthView{BudgetMonth: bm}
	for _, cm := range cms {
		cat, err := st.GetCategory(ctx, cm.CategoryID)
		if err != nil {
			return nil, err
		}
		view.Categories = append(view.Categories, CategoryMonthRow{Category: cat, Month: cm})
	}
	sort.Slice(view.Categories, func(i, j int) bool {
		return view.Categories[i].Category.Name < view.Categories[j].Category.Name
	})
	return view, nil
}

// =============================================================================
// ACCOUNT REGISTER
// =============================================================================

// AccountRegister is one account with its transactions in date order.
type AccountRegister struct {
	Account      *Account
	Transactions []*Transaction
}

// GetAccountRegister returns the account and its full transaction list,
// ordered by date then creation time.
func (e *Engine) GetAccountRegister(ctx context.Context, accountID AccountID) (*AccountRegister, error) {
	st := e.store

	a, err := st.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	txs, err := st.ListTransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].CreatedAt.Before(txs[j].CreatedAt)
	})
	return &AccountRegister{Account: a, Transactions: txs}, nil
}

// =============================================================================
// BUDGET SUMMARY
// =============================================================================

// CategoryGroupRow is one category group with its categories.
type CategoryGroupRow struct {
	Group      *CategoryGroup
	Categories []*Category
}

// BudgetSummary is the budget with its accounts and category tree.
type BudgetSummary struct {
	Budget   *Budget
	Accounts []*Account
	Groups   []CategoryGroupRow
}

// GetBudgetSummary returns the budget, its accounts, and its category
// groups each with their categories.
func (e *Engine) GetBudgetSummary(ctx context.Context, budgetID BudgetID) (*BudgetSummary, error) {
	st := e.store

	b, err := st.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	accounts, err := st.ListAccounts(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	groups, err := st.ListCategoryGroups(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	categories, err := st.ListCategories(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[CategoryGroupID][]*Category)
	for _, c := range categories {
		byGroup[c.GroupID] = append(byGroup[c.GroupID], c)
	}

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })

	summary := &BudgetSummary{Budget: b, Accounts: accounts}
	for _, g := range groups {
		cats := byGroup[g.ID]
		sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
		summary.Groups = append(summary.Groups, CategoryGroupRow{
			Group:      g,
			Categories: cats,
		})
	}
	return summary, nil
}
