/*
engine.go - Engine wiring, per-budget serialization, and entity lifecycle

PURPOSE:
  The Engine is the single entry point controllers call. Every mutating
  operation acquires the budget's lock, opens one store transaction, and
  runs its ordered side effects inside it. Operations on different budgets
  proceed in parallel; operations on the same budget are serialized.

WHY A LOCK PER BUDGET?
  The ledger performs sequential read-modify-write steps with no row-level
  locking. Two simultaneous posts against the same category month would
  race and corrupt the cascade. A per-budget mutex makes that impossible
  by construction instead of detecting it after the fact.

LIFECYCLE OPERATIONS (this file):
  CreateBudget:   budget + internal group + inflow category + three months
  CreateAccount:  account + transfer payee + starting balance transaction
                  (+ tracking category for credit cards)
  CreateCategoryGroup / CreateCategory: user-defined envelopes

SEE ALSO:
  - poster.go: Transaction mutations
  - months.go: SetBudgeted and the cascade
  - reconcile.go: Account reconciliation
*/
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine orchestrates all ledger mutations. Construct one per process and
// share it; the lock registry inside is what serializes budgets.
type Engine struct {
	store TxStore

	mu    sync.Mutex
	locks map[BudgetID]*sync.Mutex
}

func NewEngine(store TxStore) *Engine {
	return &Engine{
		store: store,
		locks: make(map[BudgetID]*sync.Mutex),
	}
}

// Store exposes the underlying store for read-only callers (API handlers).
func (e *Engine) Store() TxStore { return e.store }

func (e *Engine) budgetLock(id BudgetID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// withBudget runs fn under the budget's lock inside one atomic store
// transaction. This is the mutation boundary: either fn's full effect
// (including any cascade) commits, or none of it does.
func (e *Engine) withBudget(ctx context.Context, id BudgetID, fn func(Store) error) error {
	l := e.budgetLock(id)
	l.Lock()
	defer l.Unlock()
	return e.store.WithTx(ctx, fn)
}

// =============================================================================
// BUDGET LIFECYCLE
// =============================================================================

// CreateBudget creates a budget with its internal category group, the
// system "To be Budgeted" inflow category, and three budget months
// (previous, current, next) with zero aggregates.
func (e *Engine) CreateBudget(ctx context.Context, userID, name, currency string) (*Budget, error) {
	b := &Budget{
		ID:        BudgetID(NewID()),
		UserID:    userID,
		Name:      name,
		Currency:  currency,
		CreatedAt: time.Now().UTC(),
	}

	err := e.withBudget(ctx, b.ID, func(st Store) error {
		if err := st.CreateBudget(ctx, b); err != nil {
			return err
		}

		group := &CategoryGroup{
			ID:        CategoryGroupID(NewID()),
			BudgetID:  b.ID,
			Name:      GroupNameInternal,
			Internal:  true,
			Locked:    true,
			CreatedAt: b.CreatedAt,
		}
		if err := st.CreateCategoryGroup(ctx, group); err != nil {
			return err
		}

		inflow := &Category{
			ID:        CategoryID(NewID()),
			BudgetID:  b.ID,
			GroupID:   group.ID,
			Name:      CategoryNameInflow,
			Inflow:    true,
			Locked:    true,
			CreatedAt: b.CreatedAt,
		}
		if err := st.CreateCategory(ctx, inflow); err != nil {
			return err
		}

		current := CurrentMonth()
		for _, m := range []Month{current.Prev(), current, current.Next()} {
			bm := &BudgetMonth{
				ID:       BudgetMonthID(NewID()),
				BudgetID: b.ID,
				Month:    m,
			}
			if err := st.CreateBudgetMonth(ctx, bm); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

// =============================================================================
// ACCOUNT LIFECYCLE
// =============================================================================

// CreateAccount creates an account together with its auto transfer payee
// and, for credit cards, the locked tracking category in the shared
// "Credit Card Payments" group. A non-zero starting balance is recorded as
// a cleared transaction through the normal posting path: inflow-categorized
// for bank accounts, uncategorized for credit card and tracking accounts.
func (e *Engine) CreateAccount(ctx context.Context, budgetID BudgetID, name string, typ AccountType, startingBalance Money) (*Account, error) {
	a := &Account{
		ID:        AccountID(NewID()),
		BudgetID:  budgetID,
		Name:      name,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}

	err := e.withBudget(ctx, budgetID, func(st Store) error {
		if _, err := st.GetBudget(ctx, budgetID); err != nil {
			return err
		}

		payee := &Payee{
			ID:                PayeeID(NewID()),
			BudgetID:          budgetID,
			Name:              TransferPayeeName(name),
			Internal:          true,
			TransferAccountID: a.ID,
			CreatedAt:         a.CreatedAt,
		}
		if err := st.CreatePayee(ctx, payee); err != nil {
			return err
		}
		a.TransferPayeeID = payee.ID

		if err := st.CreateAccount(ctx, a); err != nil {
			return err
		}

		if typ == AccountCreditCard {
			if err := e.ensureTrackingCategory(ctx, st, a); err != nil {
				return err
			}
		}

		if startingBalance != 0 {
			if err := e.postStartingBalance(ctx, st, a, startingBalance); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

// postStartingBalance records the opening balance as a regular transaction
// so all downstream aggregates flow through the one posting path.
func (e *Engine) postStartingBalance(ctx context.Context, st Store, a *Account, amount Money) error {
	payee, err := e.ensurePayee(ctx, st, a.BudgetID, PayeeNameStarting, true)
	if err != nil {
		return err
	}

	var categoryID CategoryID
	if a.Type == AccountBank {
		inflow, err := st.FindInflowCategory(ctx, a.BudgetID)
		if err != nil {
			return err
		}
		if inflow == nil {
			return notFound("inflow category", string(a.BudgetID))
		}
		categoryID = inflow.ID
	}

	tx := &Transaction{
		ID:         TransactionID(NewID()),
		BudgetID:   a.BudgetID,
		AccountID:  a.ID,
		PayeeID:    payee.ID,
		CategoryID: categoryID,
		Amount:     amount,
		Date:       a.CreatedAt,
		Memo:       "Starting balance",
		Status:     StatusCleared,
		CreatedAt:  a.CreatedAt,
	}
	return e.postTransaction(ctx, st, tx, SourceUser)
}

// =============================================================================
// CATEGORY LIFECYCLE
// =============================================================================

// CreateCategoryGroup creates a user-defined category group.
func (e *Engine) CreateCategoryGroup(ctx context.Context, budgetID BudgetID, name string) (*CategoryGroup, error) {
	g := &CategoryGroup{
		ID:        CategoryGroupID(NewID()),
		BudgetID:  budgetID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	err := e.withBudget(ctx, budgetID, func(st Store) error {
		if _, err := st.GetBudget(ctx, budgetID); err != nil {
			return err
		}
		return st.CreateCategoryGroup(ctx, g)
	})
	if err != nil {
		return nil, fmt.Errorf("create category group: %w", err)
	}
	return g, nil
}

// CreateCategory creates a user-defined category in an existing group.
func (e *Engine) CreateCategory(ctx context.Context, budgetID BudgetID, groupID CategoryGroupID, name string) (*Category, error) {
	c := &Category{
		ID:        CategoryID(NewID()),
		BudgetID:  budgetID,
		GroupID:   groupID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	err := e.withBudget(ctx, budgetID, func(st Store) error {
		group, err := st.GetCategoryGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if group.BudgetID != budgetID {
			return notFound("category group", string(groupID))
		}
		if group.Locked {
			return ErrLockedCategory
		}
		return st.CreateCategory(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// =============================================================================
// PAYEES
// =============================================================================

// ensurePayee finds a payee by name or creates it.
func (e *Engine) ensurePayee(ctx context.Context, st Store, budgetID BudgetID, name string, internal bool) (*Payee, error) {
	p, err := st.FindPayeeByName(ctx, budgetID, name)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	p = &Payee{
		ID:        PayeeID(NewID()),
		BudgetID:  budgetID,
		Name:      name,
		Internal:  internal,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreatePayee(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
