// Package store provides Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/budget-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory stores entities in maps keyed by id. All reads and writes copy,
// so callers never alias stored state: a mutation only lands via the
// corresponding Update call.
type Memory struct {
	mu sync.RWMutex

	budgets        map[ledger.BudgetID]ledger.Budget
	accounts       map[ledger.AccountID]ledger.Account
	payees         map[ledger.PayeeID]ledger.Payee
	groups         map[ledger.CategoryGroupID]ledger.CategoryGroup
	categories     map[ledger.CategoryID]ledger.Category
	budgetMonths   map[ledger.BudgetMonthID]ledger.BudgetMonth
	categoryMonths map[ledger.CategoryMonthID]ledger.CategoryMonth
	transactions   map[ledger.TransactionID]ledger.Transaction
}

func NewMemory() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.budgets = make(map[ledger.BudgetID]ledger.Budget)
	m.accounts = make(map[ledger.AccountID]ledger.Account)
	m.payees = make(map[ledger.PayeeID]ledger.Payee)
	m.groups = make(map[ledger.CategoryGroupID]ledger.CategoryGroup)
	m.categories = make(map[ledger.CategoryID]ledger.Category)
	m.budgetMonths = make(map[ledger.BudgetMonthID]ledger.BudgetMonth)
	m.categoryMonths = make(map[ledger.CategoryMonthID]ledger.CategoryMonth)
	m.transactions = make(map[ledger.TransactionID]ledger.Transaction)
}

// =============================================================================
// BUDGETS
// =============================================================================

func (m *Memory) CreateBudget(_ context.Context, b *ledger.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[b.ID] = *b
	return nil
}

func (m *Memory) GetBudget(_ context.Context, id ledger.BudgetID) (*ledger.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.budgets[id]
	if !ok {
		return nil, &ledger.NotFoundError{Kind: "budget", ID: string(id)}
	}
	return &b, nil
}

func (m *Memory) UpdateBudget(_ context.Context, b *ledger.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgets[b.ID]; !ok {
		return &ledger.NotFoundError{Kind: "budget", ID: string(b.ID)}
	}
	m.budgets[b.ID] = *b
	return nil
}

func (m *Memory) ListBudgets(_ context.Context, userID string) ([]*ledger.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ledger.Budget
	for _, b := range m.budgets {
		if b.UserID == userID {
			c := b
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *Memory) ListAllBudgets(_ context.Context) ([]*ledger.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ledger.Budget
	for _, b := range m.budgets {
		c := b
		out = append(out, &c)
	}
	return out, nil
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) CreateAccount(_ context.Context, a *ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = *a
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id ledger.AccountID) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, &ledger.NotFoundError{Kind: "account", ID: string(id)}
	}
	return &a, nil
}

func (m *Memory) UpdateAccount(_ context.Context, a *ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; !ok {
		return &ledger.NotFoundError{Kind: "account", ID: string(a.ID)}
	}
	m.accounts[a.ID] = *a
	return nil
}

func (m *Memory) ListAccounts(_ context.Context, budgetID ledger.BudgetID) ([]*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ledger.Account
	for _, a := range m.accounts {
		if a.BudgetID == budgetID {
			c := a
			out = append(out, &c)
		}
	}
	return out, nil
}

// =============================================================================
// PAYEES
// =============================================================================

func (m *Memory) CreatePayee(_ context.Context, p *ledger.Payee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payees[p.ID] = *p
	return nil
}

func (m *Memory) GetPayee(_ context.Context, id ledger.PayeeID) (*ledger.Payee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payees[id]
	if !ok {
		return nil, &ledger.NotFoundError{Kind: "payee", ID: string(id)}
	}
	return &p, nil
}

func (m *Memory) FindPayeeByName(_ context.Context, budgetID ledger.BudgetID, name string) (*ledger.Payee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payees {
		if p.BudgetID == budgetID && p.Name == name {
			c := p
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListPayees(_ context.Context, budgetID ledger.BudgetID) ([]*ledger.Payee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ledger.Payee
	for _, p := range m.payees {
		if p.BudgetID == budgetID {
			c := p
			out = append(out, &c)
		}
	}
	return out, nil
}

// =============================================================================
// CATEGORY GROUPS
// =============================================================================

func (m *Memory) CreateCategoryGroup(_ context.Context, g *ledger.CategoryGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID] = *g
	return nil
}

func (m *Memory) GetCategoryGroup(_ context.Context, id ledger.CategoryGroupID) (*ledger.CategoryGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, &ledger.NotFoundError{Kind: "category group", ID: string(id)}
	}
	return &g, nil
}

func (m *Memory) FindCategoryGroupByName(_ context.Context, budgetID ledger.BudgetID, name string) (*ledger.CategoryGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.groups {
		if g.BudgetID == budgetID && g.Name == name {
			c := g
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListCategoryGroups(_ context.Context, budgetID ledger.BudgetID) ([]*ledger.CategoryGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ledger.CategoryGroup
	for _, g := range m.groups {
		if g.BudgetID == budgetID {
			c := g
			out = append(out, &c)
		}
	}
	return out, nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (m *Memory) CreateCategory(_ context.Context, c *ledger.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = *c
	return nil
}

func (m *Memory) GetCategory(_ context.Context, id ledger.CategoryID) (*ledger.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, &ledger.NotFoundError{Kind: "category", ID: string(id)}
	}
	return &c, nil
}

func (m *Memory) FindInflowCategory(_ context.Context, budgetID ledger.BudgetID) (*ledger.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.categories {
		if c.BudgetID == budgetID && c.Inflow {
			cc := c
			return &cc, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindCategoryByTrackingAccount(_ context.Context, accountID ledger.AccountID) (*ledger.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.categories {
		if c.TrackingAccountID == accountID {
			cc := c
			return &cc, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListCategories(_ context.Context, budgetID ledger.BudgetID) ([]*ledger.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ledger.Category
	for _, c := range m.categories {
		if c.BudgetID == budgetID {
			cc := c
			out = append(out, &cc)
		}
	}
	return out, nil
}

// =============================================================================
// BUDGET MONTHS
// =============================================================================

func (m *Memory) CreateBudgetMonth(_ context.Context, bm *ledger.BudgetMonth) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgetMonths[bm.ID] = *bm
	return nil
}

func (m *Memory) GetBudgetMonthByID(_ context.Context, id ledger.BudgetMonthID) (*ledger.BudgetMonth, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bm, ok := m.budgetMonths[id]
	if !ok {
		return nil, &ledger.NotFoundError{Kind: "budget month", ID: string(id)}
	}
	return &bm, nil
}

func (m *Memory) FindBudgetMonth(_ context.Context, budgetID ledger.BudgetID, month ledger.Month) (*ledger.BudgetMonth, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, bm := range m.budgetMonths {
		if bm.BudgetID == budgetID && bm.Month.Equal(month) {
			c := bm
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) UpdateBudgetMonth(_ context.Context, bm *ledger.BudgetMonth) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgetMonths[bm.ID]; !ok {
		return &ledger.NotFoundError{Kind: "budget month", ID: string(bm.ID)}
	}
	m.budgetMonths[bm.ID] = *bm
	return nil
}

func (m *Memory) ListBudgetMonths(_ context.Context, budgetID ledger.BudgetID) ([]*ledger.BudgetMonth, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ledger.BudgetMonth
	for _, bm := range m.budgetMonths {
		if bm.BudgetID == budgetID {
			c := bm
			out = append(out, &c)
		}
	}
	return out, nil
}

// =============================================================================
// CATEGORY MONTHS
// =============================================================================

func (m *Memory) CreateCategoryMonth(_ context.Context, cm *ledger.CategoryMonth) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categoryMonths[cm.ID] = *cm
	return nil
}

func (m *Memory) FindCategoryMonth(_ context.Context, categoryID ledger.CategoryID, month ledger.Month) (*ledger.CategoryMonth, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cm := range m.categoryMonths {
		if cm.CategoryID == categoryID && cm.Month.Equal(month) {
			c := cm
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) UpdateCategoryMonth(_ context.Context, cm *ledger.CategoryMonth) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categoryMonths[cm.ID]; !ok {
		return &ledger.NotFoundError{Kind: "category month", ID: string(cm.ID)}
	}
	m.categoryMonths[cm.ID] = *cm
	return nil
}

func (m *Memory) ListCategoryMonths(_ context.Context, budgetMonthID ledger.BudgetMonthID) ([]*ledger.CategoryMonth, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ledger.CategoryMonth
	for _, cm := range m.categoryMonths {
		if cm.BudgetMonthID == budgetMonthID {
			c := cm
			out = append(out, &c)
		}
	}
	return out, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (m *Memory) CreateTransaction(_ context.Context, t *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[t.ID] = *t
	return nil
}

func (m *Memory) GetTransaction(_ context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, &ledger.NotFoundError{Kind: "transaction", ID: string(id)}
	}
	return &t, nil
}

func (m *Memory) UpdateTransaction(_ context.Context, t *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[t.ID]; !ok {
		return &ledger.NotFoundError{Kind: "transaction", ID: string(t.ID)}
	}
	m.transactions[t.ID] = *t
	return nil
}

func (m *Memory) DeleteTransaction(_ context.Context, id ledger.TransactionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transactions, id)
	return nil
}

func (m *Memory) ListTransactionsByAccount(_ context.Context, accountID ledger.AccountID) ([]*ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ledger.Transaction
	for _, t := range m.transactions {
		if t.AccountID == accountID {
			c := t
			out = append(out, &c)
		}
	}
	return out, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
	txMu sync.Mutex
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn against the store. For the memory store, atomicity is
// simulated with a snapshot taken up front and restored on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	snap := tm.snapshot()
	if err := fn(tm.Memory); err != nil {
		tm.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	budgets        map[ledger.BudgetID]ledger.Budget
	accounts       map[ledger.AccountID]ledger.Account
	payees         map[ledger.PayeeID]ledger.Payee
	groups         map[ledger.CategoryGroupID]ledger.CategoryGroup
	categories     map[ledger.CategoryID]ledger.Category
	budgetMonths   map[ledger.BudgetMonthID]ledger.BudgetMonth
	categoryMonths map[ledger.CategoryMonthID]ledger.CategoryMonth
	transactions   map[ledger.TransactionID]ledger.Transaction
}

func (tm *TxMemory) snapshot() memorySnapshot {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return memorySnapshot{
		budgets:        copyMap(tm.budgets),
		accounts:       copyMap(tm.accounts),
		payees:         copyMap(tm.payees),
		groups:         copyMap(tm.groups),
		categories:     copyMap(tm.categories),
		budgetMonths:   copyMap(tm.budgetMonths),
		categoryMonths: copyMap(tm.categoryMonths),
		transactions:   copyMap(tm.transactions),
	}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.budgets = s.budgets
	tm.accounts = s.accounts
	tm.payees = s.payees
	tm.groups = s.groups
	tm.categories = s.categories
	tm.budgetMonths = s.budgetMonths
	tm.categoryMonths = s.categoryMonths
	tm.transactions = s.transactions
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
