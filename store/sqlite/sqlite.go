/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements ledger.Store and ledger.TxStore using SQLite. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

TRANSACTION BOUNDARY:
  WithTx wraps one logical ledger mutation plus its full cascade in a
  single database transaction. Every read inside WithTx goes through the
  same *sql.Tx, so the cascade sees its own uncommitted writes - the
  engine's read-modify-write loops depend on that.

KEY TABLES:
  budgets, accounts, payees, category_groups, categories,
  budget_months, category_months, transactions

  All amounts are INTEGER minor currency units. Months are stored as
  "YYYY-MM" TEXT, which sorts chronologically.

INDEXES:
  Critical indexes for performance:
  - idx_category_months_category_month: find-or-create hot path (UNIQUE)
  - idx_budget_months_budget_month: cascade month walk (UNIQUE)
  - idx_transactions_account: account register and reconciliation

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery
  Write ordering per budget is the engine's job, not ours.

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eng := ledger.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/budget-engine/ledger"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	q  querier
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and sidesteps
	// SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, q: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		currency TEXT NOT NULL,
		to_be_budgeted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_budgets_user ON budgets(user_id);

	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		cleared INTEGER NOT NULL DEFAULT 0,
		uncleared INTEGER NOT NULL DEFAULT 0,
		balance INTEGER NOT NULL DEFAULT 0,
		transfer_payee_id TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_budget ON accounts(budget_id);

	CREATE TABLE IF NOT EXISTS payees (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL,
		name TEXT NOT NULL,
		internal BOOLEAN NOT NULL DEFAULT FALSE,
		transfer_account_id TEXT,
		created_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payees_budget_name ON payees(budget_id, name);

	CREATE TABLE IF NOT EXISTS category_groups (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL,
		name TEXT NOT NULL,
		internal BOOLEAN NOT NULL DEFAULT FALSE,
		locked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_category_groups_budget ON category_groups(budget_id);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL,
		group_id TEXT NOT NULL,
		name TEXT NOT NULL,
		inflow BOOLEAN NOT NULL DEFAULT FALSE,
		locked BOOLEAN NOT NULL DEFAULT FALSE,
		tracking_account_id TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_categories_budget ON categories(budget_id);
	CREATE INDEX IF NOT EXISTS idx_categories_tracking
		ON categories(tracking_account_id) WHERE tracking_account_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS budget_months (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL,
		month TEXT NOT NULL,
		income INTEGER NOT NULL DEFAULT 0,
		budgeted INTEGER NOT NULL DEFAULT 0,
		activity INTEGER NOT NULL DEFAULT 0,
		underfunded INTEGER NOT NULL DEFAULT 0
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_budget_months_budget_month
		ON budget_months(budget_id, month);

	CREATE TABLE IF NOT EXISTS category_months (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL,
		budget_month_id TEXT NOT NULL,
		month TEXT NOT NULL,
		budgeted INTEGER NOT NULL DEFAULT 0,
		activity INTEGER NOT NULL DEFAULT 0,
		balance INTEGER NOT NULL DEFAULT 0
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_category_months_category_month
		ON category_months(category_id, month);
	CREATE INDEX IF NOT EXISTS idx_category_months_budget_month
		ON category_months(budget_month_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		payee_id TEXT NOT NULL,
		category_id TEXT,
		amount INTEGER NOT NULL,
		date TEXT NOT NULL,
		memo TEXT,
		status TEXT NOT NULL,
		transfer_account_id TEXT,
		transfer_transaction_id TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_budget_date ON transactions(budget_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. The store handed to
// fn routes every query through the transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// BUDGETS
// =============================================================================

func (s *Store) CreateBudget(ctx context.Context, b *ledger.Budget) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, name, currency, to_be_budgeted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Name, b.Currency, int64(b.ToBeBudgeted),
		b.CreatedAt.Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetBudget(ctx context.Context, id ledger.BudgetID) (*ledger.Budget, error) {
	var b ledger.Budget
	var tbb int64
	var createdAt string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, name, currency, to_be_budgeted, created_at
		 FROM budgets WHERE id = ?`, id,
	).Scan(&b.ID, &b.UserID, &b.Name, &b.Currency, &tbb, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Kind: "budget", ID: string(id)}
	}
	if err != nil {
		return nil, err
	}
	b.ToBeBudgeted = ledger.Money(tbb)
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &b, nil
}

func (s *Store) UpdateBudget(ctx context.Context, b *ledger.Budget) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE budgets SET name = ?, currency = ?, to_be_budgeted = ? WHERE id = ?`,
		b.Name, b.Currency, int64(b.ToBeBudgeted), b.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "budget", string(b.ID))
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]*ledger.Budget, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, name, currency, to_be_budgeted, created_at
		 FROM budgets WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.Budget
	for rows.Next() {
		var b ledger.Budget
		var tbb int64
		var createdAt string
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Currency, &tbb, &createdAt); err != nil {
			return nil, err
		}
		b.ToBeBudgeted = ledger.Money(tbb)
		b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (s *Store) ListAllBudgets(ctx context.Context) ([]*ledger.Budget, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, name, currency, to_be_budgeted, created_at
		 FROM budgets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.Budget
	for rows.Next() {
		var b ledger.Budget
		var tbb int64
		var createdAt string
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Currency, &tbb, &createdAt); err != nil {
			return nil, err
		}
		b.ToBeBudgeted = ledger.Money(tbb)
		b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, &b)
	}
	return out, rows.Err()
}

// =============================================================================
// ACCOUNTS
// =============================================================================

const accountColumns = `id, budget_id, name, type, cleared, uncleared, balance, transfer_payee_id, created_at`

func (s *Store) CreateAccount(ctx context.Context, a *ledger.Account) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.BudgetID, a.Name, a.Type,
		int64(a.Cleared), int64(a.Uncleared), int64(a.Balance),
		nullString(string(a.TransferPayeeID)),
		a.CreatedAt.Format(time.RFC3339),
	)
	return err
}

func scanAccount(row interface{ Scan(...any) error }) (*ledger.Account, error) {
	var a ledger.Account
	var cleared, uncleared, balance int64
	var transferPayee sql.NullString
	var createdAt string
	err := row.Scan(&a.ID, &a.BudgetID, &a.Name, &a.Type,
		&cleared, &uncleared, &balance, &transferPayee, &createdAt)
	if err != nil {
		return nil, err
	}
	a.Cleared = ledger.Money(cleared)
	a.Uncleared = ledger.Money(uncleared)
	a.Balance = ledger.Money(balance)
	a.TransferPayeeID = ledger.PayeeID(transferPayee.String)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

func (s *Store) GetAccount(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	a, err := scanAccount(s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Kind: "account", ID: string(id)}
	}
	return a, err
}

func (s *Store) UpdateAccount(ctx context.Context, a *ledger.Account) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE accounts SET name = ?, cleared = ?, uncleared = ?, balance = ? WHERE id = ?`,
		a.Name, int64(a.Cleared), int64(a.Uncleared), int64(a.Balance), a.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "account", string(a.ID))
}

func (s *Store) ListAccounts(ctx context.Context, budgetID ledger.BudgetID) ([]*ledger.Account, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE budget_id = ? ORDER BY name`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYEES
// =============================================================================

const payeeColumns = `id, budget_id, name, internal, transfer_account_id, created_at`

func (s *Store) CreatePayee(ctx context.Context, p *ledger.Payee) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO payees (`+payeeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.BudgetID, p.Name, p.Internal,
		nullString(string(p.TransferAccountID)),
		p.CreatedAt.Format(time.RFC3339),
	)
	return err
}

func scanPayee(row interface{ Scan(...any) error }) (*ledger.Payee, error) {
	var p ledger.Payee
	var transferAccount sql.NullString
	var createdAt string
	err := row.Scan(&p.ID, &p.BudgetID, &p.Name, &p.Internal, &transferAccount, &createdAt)
	if err != nil {
		return nil, err
	}
	p.TransferAccountID = ledger.AccountID(transferAccount.String)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func (s *Store) GetPayee(ctx context.Context, id ledger.PayeeID) (*ledger.Payee, error) {
	p, err := scanPayee(s.q.QueryRowContext(ctx,
		`SELECT `+payeeColumns+` FROM payees WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Kind: "payee", ID: string(id)}
	}
	return p, err
}

func (s *Store) FindPayeeByName(ctx context.Context, budgetID ledger.BudgetID, name string) (*ledger.Payee, error) {
	p, err := scanPayee(s.q.QueryRowContext(ctx,
		`SELECT `+payeeColumns+` FROM payees WHERE budget_id = ? AND name = ?`, budgetID, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *Store) ListPayees(ctx context.Context, budgetID ledger.BudgetID) ([]*ledger.Payee, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+payeeColumns+` FROM payees WHERE budget_id = ? ORDER BY name`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.Payee
	for rows.Next() {
		p, err := scanPayee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// CATEGORY GROUPS
// =============================================================================

const groupColumns = `id, budget_id, name, internal, locked, created_at`

func (s *Store) CreateCategoryGroup(ctx context.Context, g *ledger.CategoryGroup) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO category_groups (`+groupColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.BudgetID, g.Name, g.Internal, g.Locked,
		g.CreatedAt.Format(time.RFC3339),
	)
	return err
}

func scanGroup(row interface{ Scan(...any) error }) (*ledger.CategoryGroup, error) {
	var g ledger.CategoryGroup
	var createdAt string
	err := row.Scan(&g.ID, &g.BudgetID, &g.Name, &g.Internal, &g.Locked, &createdAt)
	if err != nil {
		return nil, err
	}
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &g, nil
}

func (s *Store) GetCategoryGroup(ctx context.Context, id ledger.CategoryGroupID) (*ledger.CategoryGroup, error) {
	g, err := scanGroup(s.q.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM category_groups WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Kind: "category group", ID: string(id)}
	}
	return g, err
}

func (s *Store) FindCategoryGroupByName(ctx context.Context, budgetID ledger.BudgetID, name string) (*ledger.CategoryGroup, error) {
	g, err := scanGroup(s.q.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM category_groups WHERE budget_id = ? AND name = ?`, budgetID, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func (s *Store) ListCategoryGroups(ctx context.Context, budgetID ledger.BudgetID) ([]*ledger.CategoryGroup, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM category_groups WHERE budget_id = ? ORDER BY name`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.CategoryGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// =============================================================================
// CATEGORIES
// =============================================================================

const categoryColumns = `id, budget_id, group_id, name, inflow, locked, tracking_account_id, created_at`

func (s *Store) CreateCategory(ctx context.Context, c *ledger.Category) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.BudgetID, c.GroupID, c.Name, c.Inflow, c.Locked,
		nullString(string(c.TrackingAccountID)),
		c.CreatedAt.Format(time.RFC3339),
	)
	return err
}

func scanCategory(row interface{ Scan(...any) error }) (*ledger.Category, error) {
	var c ledger.Category
	var tracking sql.NullString
	var createdAt string
	err := row.Scan(&c.ID, &c.BudgetID, &c.GroupID, &c.Name, &c.Inflow, &c.Locked, &tracking, &createdAt)
	if err != nil {
		return nil, err
	}
	c.TrackingAccountID = ledger.AccountID(tracking.String)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

func (s *Store) GetCategory(ctx context.Context, id ledger.CategoryID) (*ledger.Category, error) {
	c, err := scanCategory(s.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Kind: "category", ID: string(id)}
	}
	return c, err
}

func (s *Store) FindInflowCategory(ctx context.Context, budgetID ledger.BudgetID) (*ledger.Category, error) {
	c, err := scanCategory(s.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE budget_id = ? AND inflow = TRUE`, budgetID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *Store) FindCategoryByTrackingAccount(ctx context.Context, accountID ledger.AccountID) (*ledger.Category, error) {
	c, err := scanCategory(s.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE tracking_account_id = ?`, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *Store) ListCategories(ctx context.Context, budgetID ledger.BudgetID) ([]*ledger.Category, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE budget_id = ? ORDER BY name`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// BUDGET MONTHS
// =============================================================================

const budgetMonthColumns = `id, budget_id, month, income, budgeted, activity, underfunded`

func (s *Store) CreateBudgetMonth(ctx context.Context, bm *ledger.BudgetMonth) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO budget_months (`+budgetMonthColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		bm.ID, bm.BudgetID, bm.Month.String(),
		int64(bm.Income), int64(bm.Budgeted), int64(bm.Activity), int64(bm.Underfunded),
	)
	return err
}

func scanBudgetMonth(row interface{ Scan(...any) error }) (*ledger.BudgetMonth, error) {
	var bm ledger.BudgetMonth
	var month string
	var income, budgeted, activity, underfunded int64
	err := row.Scan(&bm.ID, &bm.BudgetID, &month, &income, &budgeted, &activity, &underfunded)
	if err != nil {
		return nil, err
	}
	bm.Month, err = ledger.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	bm.Income = ledger.Money(income)
	bm.Budgeted = ledger.Money(budgeted)
	bm.Activity = ledger.Money(activity)
	bm.Underfunded = ledger.Money(underfunded)
	return &bm, nil
}

func (s *Store) GetBudgetMonthByID(ctx context.Context, id ledger.BudgetMonthID) (*ledger.BudgetMonth, error) {
	bm, err := scanBudgetMonth(s.q.QueryRowContext(ctx,
		`SELECT `+budgetMonthColumns+` FROM budget_months WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Kind: "budget month", ID: string(id)}
	}
	return bm, err
}

func (s *Store) FindBudgetMonth(ctx context.Context, budgetID ledger.BudgetID, month ledger.Month) (*ledger.BudgetMonth, error) {
	bm, err := scanBudgetMonth(s.q.QueryRowContext(ctx,
		`SELECT `+budgetMonthColumns+` FROM budget_months WHERE budget_id = ? AND month = ?`,
		budgetID, month.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return bm, err
}

func (s *Store) UpdateBudgetMonth(ctx context.Context, bm *ledger.BudgetMonth) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE budget_months SET income = ?, budgeted = ?, activity = ?, underfunded = ? WHERE id = ?`,
		int64(bm.Income), int64(bm.Budgeted), int64(bm.Activity), int64(bm.Underfunded), bm.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "budget month", string(bm.ID))
}

func (s *Store) ListBudgetMonths(ctx context.Context, budgetID ledger.BudgetID) ([]*ledger.BudgetMonth, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+budgetMonthColumns+` FROM budget_months WHERE budget_id = ? ORDER BY month`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.BudgetMonth
	for rows.Next() {
		bm, err := scanBudgetMonth(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bm)
	}
	return out, rows.Err()
}

// =============================================================================
// CATEGORY MONTHS
// =============================================================================

const categoryMonthColumns = `id, category_id, budget_month_id, month, budgeted, activity, balance`

func (s *Store) CreateCategoryMonth(ctx context.Context, cm *ledger.CategoryMonth) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO category_months (`+categoryMonthColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cm.ID, cm.CategoryID, cm.BudgetMonthID, cm.Month.String(),
		int64(cm.Budgeted), int64(cm.Activity), int64(cm.Balance),
	)
	return err
}

func scanCategoryMonth(row interface{ Scan(...any) error }) (*ledger.CategoryMonth, error) {
	var cm ledger.CategoryMonth
	var month string
	var budgeted, activity, balance int64
	err := row.Scan(&cm.ID, &cm.CategoryID, &cm.BudgetMonthID, &month, &budgeted, &activity, &balance)
	if err != nil {
		return nil, err
	}
	cm.Month, err = ledger.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	cm.Budgeted = ledger.Money(budgeted)
	cm.Activity = ledger.Money(activity)
	cm.Balance = ledger.Money(balance)
	return &cm, nil
}

func (s *Store) FindCategoryMonth(ctx context.Context, categoryID ledger.CategoryID, month ledger.Month) (*ledger.CategoryMonth, error) {
	cm, err := scanCategoryMonth(s.q.QueryRowContext(ctx,
		`SELECT `+categoryMonthColumns+` FROM category_months WHERE category_id = ? AND month = ?`,
		categoryID, month.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return cm, err
}

func (s *Store) UpdateCategoryMonth(ctx context.Context, cm *ledger.CategoryMonth) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE category_months SET budgeted = ?, activity = ?, balance = ? WHERE id = ?`,
		int64(cm.Budgeted), int64(cm.Activity), int64(cm.Balance), cm.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "category month", string(cm.ID))
}

func (s *Store) ListCategoryMonths(ctx context.Context, budgetMonthID ledger.BudgetMonthID) ([]*ledger.CategoryMonth, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+categoryMonthColumns+` FROM category_months WHERE budget_month_id = ?`, budgetMonthID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.CategoryMonth
	for rows.Next() {
		cm, err := scanCategoryMonth(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

const transactionColumns = `id, budget_id, account_id, payee_id, category_id, amount, date, memo, status, transfer_account_id, transfer_transaction_id, created_at`

func (s *Store) CreateTransaction(ctx context.Context, t *ledger.Transaction) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.BudgetID, t.AccountID, t.PayeeID,
		nullString(string(t.CategoryID)),
		int64(t.Amount),
		t.Date.UTC().Format(time.RFC3339),
		t.Memo, t.Status,
		nullString(string(t.TransferAccountID)),
		nullString(string(t.TransferTransactionID)),
		t.CreatedAt.Format(time.RFC3339),
	)
	return err
}

func scanTransaction(row interface{ Scan(...any) error }) (*ledger.Transaction, error) {
	var t ledger.Transaction
	var amount int64
	var categoryID, memo, transferAccount, transferTx sql.NullString
	var date, createdAt string
	err := row.Scan(&t.ID, &t.BudgetID, &t.AccountID, &t.PayeeID, &categoryID,
		&amount, &date, &memo, &t.Status, &transferAccount, &transferTx, &createdAt)
	if err != nil {
		return nil, err
	}
	t.CategoryID = ledger.CategoryID(categoryID.String)
	t.Amount = ledger.Money(amount)
	t.Date, _ = time.Parse(time.RFC3339, date)
	t.Memo = memo.String
	t.TransferAccountID = ledger.AccountID(transferAccount.String)
	t.TransferTransactionID = ledger.TransactionID(transferTx.String)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &t, nil
}

func (s *Store) GetTransaction(ctx context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	t, err := scanTransaction(s.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Kind: "transaction", ID: string(id)}
	}
	return t, err
}

func (s *Store) UpdateTransaction(ctx context.Context, t *ledger.Transaction) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE transactions SET payee_id = ?, category_id = ?, amount = ?, date = ?, memo = ?,
		 status = ?, transfer_account_id = ?, transfer_transaction_id = ? WHERE id = ?`,
		t.PayeeID,
		nullString(string(t.CategoryID)),
		int64(t.Amount),
		t.Date.UTC().Format(time.RFC3339),
		t.Memo, t.Status,
		nullString(string(t.TransferAccountID)),
		nullString(string(t.TransferTransactionID)),
		t.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "transaction", string(t.ID))
}

func (s *Store) DeleteTransaction(ctx context.Context, id ledger.TransactionID) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

func (s *Store) ListTransactionsByAccount(ctx context.Context, accountID ledger.AccountID) ([]*ledger.Transaction, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE account_id = ? ORDER BY date ASC, created_at ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}
