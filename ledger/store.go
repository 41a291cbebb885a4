/*
store.go - Persistence interface for the budgeting engine

PURPOSE:
  Defines the interface between the engine and the database. The engine
  performs read-modify-write sequences against this interface; atomicity
  comes from TxStore.WithTx and ordering comes from the per-budget locks
  in engine.go.

KEY INTERFACES:
  Store:   Entity persistence (create, read, update, delete, find)
  TxStore: Transactional wrapper (one logical mutation + its full cascade
           commits or rolls back as a unit)

NOT-FOUND CONTRACT:
  Get* methods return an error satisfying errors.Is(err, ErrNotFound) for
  missing rows. Find* methods return (nil, nil) when nothing matches, so
  find-or-create call sites stay branch-light.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - ledger/store: In-memory store for tests

SEE ALSO:
  - engine.go: Per-budget serialization around WithTx
  - poster.go, months.go: The read-modify-write call sites
*/
package ledger

import "context"

// =============================================================================
// STORE - Entity persistence
// =============================================================================

type Store interface {
	// Budgets
	CreateBudget(ctx context.Context, b *Budget) error
	GetBudget(ctx context.Context, id BudgetID) (*Budget, error)
	UpdateBudget(ctx context.Context, b *Budget) error
	ListBudgets(ctx context.Context, userID string) ([]*Budget, error)
	ListAllBudgets(ctx context.Context) ([]*Budget, error)

	// Accounts
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, id AccountID) (*Account, error)
	UpdateAccount(ctx context.Context, a *Account) error
	ListAccounts(ctx context.Context, budgetID BudgetID) ([]*Account, error)

	// Payees
	CreatePayee(ctx context.Context, p *Payee) error
	GetPayee(ctx context.Context, id PayeeID) (*Payee, error)
	FindPayeeByName(ctx context.Context, budgetID BudgetID, name string) (*Payee, error)
	ListPayees(ctx context.Context, budgetID BudgetID) ([]*Payee, error)

	// Category groups
	CreateCategoryGroup(ctx context.Context, g *CategoryGroup) error
	GetCategoryGroup(ctx context.Context, id CategoryGroupID) (*CategoryGroup, error)
	FindCategoryGroupByName(ctx context.Context, budgetID BudgetID, name string) (*CategoryGroup, error)
	ListCategoryGroups(ctx context.Context, budgetID BudgetID) ([]*CategoryGroup, error)

	// Categories
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id CategoryID) (*Category, error)
	FindInflowCategory(ctx context.Context, budgetID BudgetID) (*Category, error)
	FindCategoryByTrackingAccount(ctx context.Context, accountID AccountID) (*Category, error)
	ListCategories(ctx context.Context, budgetID BudgetID) ([]*Category, error)

	// Budget months
	CreateBudgetMonth(ctx context.Context, bm *BudgetMonth) error
	GetBudgetMonthByID(ctx context.Context, id BudgetMonthID) (*BudgetMonth, error)
	FindBudgetMonth(ctx context.Context, budgetID BudgetID, month Month) (*BudgetMonth, error)
	UpdateBudgetMonth(ctx context.Context, bm *BudgetMonth) error
	ListBudgetMonths(ctx context.Context, budgetID BudgetID) ([]*BudgetMonth, error)

	// Category months
	CreateCategoryMonth(ctx context.Context, cm *CategoryMonth) error
	FindCategoryMonth(ctx context.Context, categoryID CategoryID, month Month) (*CategoryMonth, error)
	UpdateCategoryMonth(ctx context.Context, cm *CategoryMonth) error
	ListCategoryMonths(ctx context.Context, budgetMonthID BudgetMonthID) ([]*CategoryMonth, error)

	// Transactions
	CreateTransaction(ctx context.Context, t *Transaction) error
	GetTransaction(ctx context.Context, id TransactionID) (*Transaction, error)
	UpdateTransaction(ctx context.Context, t *Transaction) error
	DeleteTransaction(ctx context.Context, id TransactionID) error
	ListTransactionsByAccount(ctx context.Context, accountID AccountID) ([]*Transaction, error)
}

// =============================================================================
// TRANSACTIONAL STORE - Atomic mutation boundary
// =============================================================================

// TxStore wraps Store with transaction support. One engine operation (a
// mutation plus its full cascade) runs inside a single WithTx call: either
// everything commits or nothing does. Partial cascade application is the
// primary correctness risk this guards against.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
