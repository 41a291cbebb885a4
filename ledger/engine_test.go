package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/ledger"
	"github.com/warp/budget-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine() *ledger.Engine {
	return ledger.NewEngine(store.NewTxMemory())
}

func newTestBudget(t *testing.T, e *ledger.Engine) *ledger.Budget {
	t.Helper()
	b, err := e.CreateBudget(context.Background(), "user-1", "Household", "EUR")
	require.NoError(t, err)
	return b
}

func newTestAccount(t *testing.T, e *ledger.Engine, budgetID ledger.BudgetID, name string, typ ledger.AccountType, starting ledger.Money) *ledger.Account {
	t.Helper()
	a, err := e.CreateAccount(context.Background(), budgetID, name, typ, starting)
	require.NoError(t, err)
	return a
}

func newTestCategory(t *testing.T, e *ledger.Engine, budgetID ledger.BudgetID, name string) *ledger.Category {
	t.Helper()
	ctx := context.Background()
	g, err := e.CreateCategoryGroup(ctx, budgetID, name+" Group")
	require.NoError(t, err)
	c, err := e.CreateCategory(ctx, budgetID, g.ID, name)
	require.NoError(t, err)
	return c
}

func getBudget(t *testing.T, e *ledger.Engine, id ledger.BudgetID) *ledger.Budget {
	t.Helper()
	b, err := e.Store().GetBudget(context.Background(), id)
	require.NoError(t, err)
	return b
}

func getAccount(t *testing.T, e *ledger.Engine, id ledger.AccountID) *ledger.Account {
	t.Helper()
	a, err := e.Store().GetAccount(context.Background(), id)
	require.NoError(t, err)
	return a
}

func getCategoryMonth(t *testing.T, e *ledger.Engine, categoryID ledger.CategoryID, month ledger.Month) *ledger.CategoryMonth {
	t.Helper()
	cm, err := e.Store().FindCategoryMonth(context.Background(), categoryID, month)
	require.NoError(t, err)
	return cm
}

func trackingCategory(t *testing.T, e *ledger.Engine, cardID ledger.AccountID) *ledger.Category {
	t.Helper()
	c, err := e.Store().FindCategoryByTrackingAccount(context.Background(), cardID)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

// =============================================================================
// BUDGET CREATION
// =============================================================================

func TestCreateBudget_CreatesThreeMonthsWithZeroAggregates(t *testing.T) {
	// GIVEN: A fresh engine
	// WHEN: Creating a budget
	// THEN: Previous, current, and next budget months exist with zero aggregates

	e := newTestEngine()
	b := newTestBudget(t, e)
	ctx := context.Background()

	current := ledger.CurrentMonth()
	for _, m := range []ledger.Month{current.Prev(), current, current.Next()} {
		bm, err := e.Store().FindBudgetMonth(ctx, b.ID, m)
		require.NoError(t, err)
		require.NotNil(t, bm, "month %s should exist", m)
		assert.Zero(t, bm.Income)
		assert.Zero(t, bm.Budgeted)
		assert.Zero(t, bm.Activity)
		assert.Zero(t, bm.Underfunded)
	}

	// No month beyond the window
	bm, err := e.Store().FindBudgetMonth(ctx, b.ID, current.Next().Next())
	require.NoError(t, err)
	assert.Nil(t, bm)
}

func TestCreateBudget_CreatesInflowCategory(t *testing.T) {
	// GIVEN: A fresh engine
	// WHEN: Creating a budget
	// THEN: The locked inflow category exists in the locked internal group

	e := newTestEngine()
	b := newTestBudget(t, e)
	ctx := context.Background()

	inflow, err := e.Store().FindInflowCategory(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, inflow)
	assert.Equal(t, ledger.CategoryNameInflow, inflow.Name)
	assert.True(t, inflow.Locked)

	group, err := e.Store().GetCategoryGroup(ctx, inflow.GroupID)
	require.NoError(t, err)
	assert.True(t, group.Locked)
	assert.True(t, group.Internal)
}

// =============================================================================
// ACCOUNT CREATION
// =============================================================================

func TestCreateAccount_CreatesTransferPayee(t *testing.T) {
	// GIVEN: A budget
	// WHEN: Creating an account
	// THEN: Its transfer payee exists and links back to the account

	e := newTestEngine()
	b := newTestBudget(t, e)
	a := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 0)

	p, err := e.Store().GetPayee(context.Background(), a.TransferPayeeID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TransferPayeeName("Checking"), p.Name)
	assert.True(t, p.Internal)
	assert.Equal(t, a.ID, p.TransferAccountID)
	assert.True(t, p.IsTransfer())
}

func TestCreateAccount_BankStartingBalance_FlowsIntoToBeBudgeted(t *testing.T) {
	// GIVEN: A budget
	// WHEN: Creating a bank account with starting balance 500
	// THEN: The balance lands in the cleared bucket and toBeBudgeted is 500

	e := newTestEngine()
	b := newTestBudget(t, e)
	a := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 500)

	got := getAccount(t, e, a.ID)
	assert.Equal(t, ledger.Money(500), got.Cleared)
	assert.Equal(t, ledger.Money(0), got.Uncleared)
	assert.Equal(t, ledger.Money(500), got.Balance)

	assert.Equal(t, ledger.Money(500), getBudget(t, e, b.ID).ToBeBudgeted)
}

func TestCreateAccount_TrackingStartingBalance_DoesNotTouchBudget(t *testing.T) {
	// GIVEN: A budget
	// WHEN: Creating an off-budget tracking account with starting balance 10000
	// THEN: The account balance is set but toBeBudgeted stays untouched

	e := newTestEngine()
	b := newTestBudget(t, e)
	a := newTestAccount(t, e, b.ID, "Brokerage", ledger.AccountTracking, 10000)

	assert.Equal(t, ledger.Money(10000), getAccount(t, e, a.ID).Balance)
	assert.Equal(t, ledger.Money(0), getBudget(t, e, b.ID).ToBeBudgeted)
}

func TestCreateAccount_CreditCard_CreatesLockedTrackingCategory(t *testing.T) {
	// GIVEN: A budget
	// WHEN: Creating two credit card accounts
	// THEN: Each gets its own locked tracking category in one shared locked group

	e := newTestEngine()
	b := newTestBudget(t, e)
	ctx := context.Background()

	visa := newTestAccount(t, e, b.ID, "Visa", ledger.AccountCreditCard, 0)
	amex := newTestAccount(t, e, b.ID, "Amex", ledger.AccountCreditCard, 0)

	visaCat := trackingCategory(t, e, visa.ID)
	amexCat := trackingCategory(t, e, amex.ID)

	assert.Equal(t, "Visa", visaCat.Name)
	assert.Equal(t, "Amex", amexCat.Name)
	assert.True(t, visaCat.Locked)
	assert.True(t, visaCat.IsTracking())
	assert.Equal(t, visaCat.GroupID, amexCat.GroupID, "cards share one group")

	group, err := e.Store().GetCategoryGroup(ctx, visaCat.GroupID)
	require.NoError(t, err)
	assert.Equal(t, ledger.GroupNameCreditCards, group.Name)
	assert.True(t, group.Locked)
}

func TestCreateAccount_CreditCardStartingDebt_MirrorsInversely(t *testing.T) {
	// GIVEN: A budget
	// WHEN: Creating a credit card with -300 starting balance (existing debt)
	// THEN: The tracking category inverts it to +300

	e := newTestEngine()
	b := newTestBudget(t, e)
	card := newTestAccount(t, e, b.ID, "Visa", ledger.AccountCreditCard, -300)

	assert.Equal(t, ledger.Money(-300), getAccount(t, e, card.ID).Balance)

	tracking := trackingCategory(t, e, card.ID)
	cm := getCategoryMonth(t, e, tracking.ID, ledger.CurrentMonth())
	require.NotNil(t, cm)
	// The mirror inverts the card transaction: -(-300) = +300.
	assert.Equal(t, ledger.Money(300), cm.Activity)
	assert.Equal(t, ledger.Money(300), cm.Balance)
}

// =============================================================================
// CATEGORY CREATION
// =============================================================================

func TestCreateCategory_RejectsLockedGroup(t *testing.T) {
	// GIVEN: A budget with its locked internal group
	// WHEN: Creating a category inside it
	// THEN: The engine refuses

	e := newTestEngine()
	b := newTestBudget(t, e)
	ctx := context.Background()

	inflow, err := e.Store().FindInflowCategory(ctx, b.ID)
	require.NoError(t, err)

	_, err = e.CreateCategory(ctx, b.ID, inflow.GroupID, "Sneaky")
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrLockedCategory)
}

func TestCreateBudget_IsolatedFromOtherBudgets(t *testing.T) {
	// GIVEN: Two budgets for different users
	// WHEN: Listing budgets per user
	// THEN: Each user sees only their own

	e := newTestEngine()
	ctx := context.Background()

	_, err := e.CreateBudget(ctx, "alice", "A", "USD")
	require.NoError(t, err)
	_, err = e.CreateBudget(ctx, "bob", "B", "USD")
	require.NoError(t, err)

	mine, err := e.Store().ListBudgets(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "A", mine[0].Name)
}
