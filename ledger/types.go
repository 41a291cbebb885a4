/*
Package ledger implements the envelope-budgeting consistency engine.

PURPOSE:
  This package contains the entities and algorithms that keep a budget's
  books balanced. Users assign money to spending categories ("envelopes")
  per calendar month and record transactions against accounts; the engine
  recomputes and propagates every dependent aggregate so that account
  balances, category month balances, and the budget-wide "to be budgeted"
  pool are always consistent.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A signed integer amount in minor currency units (cents)
  - Budget, Account, Payee, Category, CategoryGroup: The entity graph
  - BudgetMonth / CategoryMonth: Per-month aggregate rows
  - Transaction: A dated, signed amount against an account
  - MutationSource: Distinguishes user mutations from internal pairing updates

DESIGN PRINCIPLES:
  1. Integer money: all internal amounts are int64 minor units, never floats
  2. Derived aggregates: balances are maintained by the engine, never set
     directly by callers
  3. Explicit orchestration: side effects are ordered method calls, not
     storage hooks
  4. Serialization: all mutations for one budget run under one lock and one
     atomic store transaction

USAGE:
  eng := ledger.NewEngine(store)
  b, _ := eng.CreateBudget(ctx, "user-1", "Household", "EUR")
  acct, _ := eng.CreateAccount(ctx, b.ID, "Checking", ledger.AccountBank, 0)

SEE ALSO:
  - poster.go: Transaction posting and transfer pairing
  - months.go: Category month ledger and the balance cascade
  - mirror.go: Credit card tracking category
  - store.go: Persistence interface
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Signed integer amount in minor currency units
// =============================================================================

// Money is an amount in minor currency units (e.g. cents). All ledger math
// happens on Money; decimal conversion exists only for the API boundary.
type Money int64

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsNegative() bool { return m < 0 }
func (m Money) IsPositive() bool { return m > 0 }
func (m Money) Neg() Money       { return -m }

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// Decimal returns m in major units for the given currency exponent
// (2 for EUR/USD: 1234 -> "12.34").
func (m Money) Decimal(exponent int32) decimal.Decimal {
	return decimal.New(int64(m), -exponent)
}

// MoneyFromDecimal converts a major-unit decimal into minor units.
// The fractional part beyond the exponent is truncated.
func MoneyFromDecimal(d decimal.Decimal, exponent int32) Money {
	return Money(d.Shift(exponent).IntPart())
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	BudgetID        string
	AccountID       string
	PayeeID         string
	CategoryGroupID string
	CategoryID      string
	BudgetMonthID   string
	CategoryMonthID string
	TransactionID   string
)

// NewID returns a fresh random identifier.
func NewID() string { return uuid.NewString() }

// =============================================================================
// BUDGET - Root of the entity graph
// =============================================================================

type Budget struct {
	ID       BudgetID
	UserID   string
	Name     string
	Currency string

	// ToBeBudgeted is the budget-wide pool of unassigned money. It is
	// mutated only by the cascade (budgeted/activity deltas), never set
	// directly by callers.
	ToBeBudgeted Money

	CreatedAt time.Time
}

// Internal names for system-created objects.
const (
	GroupNameInternal     = "Internal Category"
	GroupNameCreditCards  = "Credit Card Payments"
	CategoryNameInflow    = "To be Budgeted"
	PayeeNameStarting     = "Starting Balance"
	PayeeNameReconcile    = "Reconciliation Balance Adjustment"
	transferPayeePrefix   = "Transfer : "
)

// TransferPayeeName returns the name of the auto-created transfer payee
// for an account.
func TransferPayeeName(accountName string) string {
	return transferPayeePrefix + accountName
}

// =============================================================================
// ACCOUNT
// =============================================================================

type AccountType string

const (
	AccountBank       AccountType = "bank"
	AccountCreditCard AccountType = "credit_card"
	AccountTracking   AccountType = "tracking"
)

type Account struct {
	ID       AccountID
	BudgetID BudgetID
	Name     string
	Type     AccountType

	// INVARIANT: Balance == Cleared + Uncleared after every committed
	// mutation. Pending transaction amounts live in Uncleared; Cleared and
	// Reconciled amounts live in Cleared.
	Cleared   Money
	Uncleared Money
	Balance   Money

	// TransferPayeeID points at the auto-created "Transfer : <name>" payee.
	TransferPayeeID PayeeID

	CreatedAt time.Time
}

// OnBudget reports whether the account participates in the budget.
// Tracking accounts hold money outside the envelope system.
func (a *Account) OnBudget() bool { return a.Type != AccountTracking }

// =============================================================================
// PAYEE
// =============================================================================

type Payee struct {
	ID       PayeeID
	BudgetID BudgetID
	Name     string

	// Internal marks system payees (Starting Balance, Reconciliation
	// Balance Adjustment, Transfer : <account>).
	Internal bool

	// TransferAccountID is non-empty only for auto-created transfer payees
	// and links back to the target account.
	TransferAccountID AccountID

	CreatedAt time.Time
}

// IsTransfer reports whether posting against this payee creates a transfer.
func (p *Payee) IsTransfer() bool { return p.TransferAccountID != "" }

// =============================================================================
// CATEGORY GROUP / CATEGORY
// =============================================================================

type CategoryGroup struct {
	ID       CategoryGroupID
	BudgetID BudgetID
	Name     string
	Internal bool
	Locked   bool

	CreatedAt time.Time
}

type Category struct {
	ID       CategoryID
	BudgetID BudgetID
	GroupID  CategoryGroupID
	Name     string

	// Inflow is true only for the system "To be Budgeted" category.
	Inflow bool
	Locked bool

	// TrackingAccountID is non-empty only for the synthetic per-card
	// tracking category and links back to the credit card account.
	TrackingAccountID AccountID

	CreatedAt time.Time
}

// IsTracking reports whether this is a credit card tracking category.
func (c *Category) IsTracking() bool { return c.TrackingAccountID != "" }

// =============================================================================
// BUDGET MONTH / CATEGORY MONTH - Per-month aggregates
// =============================================================================

type BudgetMonth struct {
	ID       BudgetMonthID
	BudgetID BudgetID
	Month    Month

	// INVARIANT: Budgeted equals the sum of this month's CategoryMonth
	// budgeted amounts; Income equals the sum of inflow-category activity.
	Income      Money
	Budgeted    Money
	Activity    Money
	Underfunded Money
}

type CategoryMonth struct {
	ID            CategoryMonthID
	CategoryID    CategoryID
	BudgetMonthID BudgetMonthID
	Month         Month

	// INVARIANT: Balance = prev.Balance (if positive, or if the category
	// is a CC tracking category) + Budgeted + Activity; otherwise
	// Balance = Budgeted + Activity.
	Budgeted Money
	Activity Money
	Balance  Money
}

// =============================================================================
// TRANSACTION
// =============================================================================

type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusCleared    TransactionStatus = "cleared"
	StatusReconciled TransactionStatus = "reconciled"
)

// transferPending is the sentinel TransferTransactionID marking a
// transaction whose counterpart has not been materialized yet.
const transferPending TransactionID = "0"

type Transaction struct {
	ID        TransactionID
	BudgetID  BudgetID
	AccountID AccountID
	PayeeID   PayeeID

	// CategoryID is empty for uncategorized transactions and for transfer
	// halves between budget accounts.
	CategoryID CategoryID

	Amount Money
	Date   time.Time
	Memo   string
	Status TransactionStatus

	// TransferAccountID / TransferTransactionID are set only when this
	// transaction is one half of a transfer pair. Both sides carry each
	// other's id; amounts are negated mirrors with the same date.
	TransferAccountID     AccountID
	TransferTransactionID TransactionID

	CreatedAt time.Time
}

// IsTransfer reports whether the transaction is (or is becoming) half of a
// transfer pair.
func (t *Transaction) IsTransfer() bool { return t.TransferTransactionID != "" }

// IsTransferLinked reports whether the counterpart already exists.
func (t *Transaction) IsTransferLinked() bool {
	return t.TransferTransactionID != "" && t.TransferTransactionID != transferPending
}

// MonthOf returns the budget month the transaction falls into.
func (t *Transaction) MonthOf() Month { return MonthOf(t.Date) }

// =============================================================================
// MUTATION SOURCE - Who initiated a mutation
// =============================================================================

// MutationSource distinguishes user-initiated mutations from system-internal
// ones (the pairing update that writes the counterpart ids back onto a
// transfer origin must not re-trigger posting side effects).
type MutationSource int

const (
	// SourceUser is a mutation initiated by a caller of the engine.
	SourceUser MutationSource = iota

	// SourceSystem is an internal follow-up write (transfer pairing,
	// counterpart maintenance). System writes skip transfer resolution.
	SourceSystem
)
