package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/ledger"
)

// =============================================================================
// POSTING
// =============================================================================

func TestPostTransaction_InflowThenDelete_RoundTripsToZero(t *testing.T) {
	// GIVEN: A bank account
	// WHEN: Posting +100 to the inflow category, then deleting it
	// THEN: Account balance and toBeBudgeted go to 100 and back to 0

	e := newTestEngine()
	b := newTestBudget(t, e)
	a := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 0)
	ctx := context.Background()

	inflow, err := e.Store().FindInflowCategory(ctx, b.ID)
	require.NoError(t, err)

	tx, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:   b.ID,
		AccountID:  a.ID,
		PayeeName:  "Employer",
		CategoryID: inflow.ID,
		Amount:     100,
		Date:       ledger.CurrentMonth().FirstDay(),
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.Money(100), getAccount(t, e, a.ID).Balance)
	assert.Equal(t, ledger.Money(100), getBudget(t, e, b.ID).ToBeBudgeted)

	require.NoError(t, e.DeleteTransaction(ctx, tx.ID))

	assert.Equal(t, ledger.Money(0), getAccount(t, e, a.ID).Balance)
	assert.Equal(t, ledger.Money(0), getBudget(t, e, b.ID).ToBeBudgeted)
}

func TestPostTransaction_InflowUpdatesIncome(t *testing.T) {
	// GIVEN: A bank account
	// WHEN: Posting +100 inflow
	// THEN: The month's income aggregate is 100

	e := newTestEngine()
	b := newTestBudget(t, e)
	a := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 0)
	ctx := context.Background()
	current := ledger.CurrentMonth()

	inflow, err := e.Store().FindInflowCategory(ctx, b.ID)
	require.NoError(t, err)

	_, err = e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:   b.ID,
		AccountID:  a.ID,
		PayeeName:  "Employer",
		CategoryID: inflow.ID,
		Amount:     100,
		Date:       current.FirstDay(),
	})
	require.NoError(t, err)

	bm, err := e.Store().FindBudgetMonth(ctx, b.ID, current)
	require.NoError(t, err)
	assert.Equal(t, ledger.Money(100), bm.Income)
}

func TestPostTransaction_StatusRoutesBuckets(t *testing.T) {
	// GIVEN: A bank account
	// WHEN: Posting a pending and a cleared transaction
	// THEN: Amounts land in the right buckets and balance is their sum

	e := newTestEngine()
	b := newTestBudget(t, e)
	a := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 0)
	ctx := context.Background()
	date := ledger.CurrentMonth().FirstDay()

	_, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID: b.ID, AccountID: a.ID, PayeeName: "A", Amount: -30, Date: date,
	})
	require.NoError(t, err)
	_, err = e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID: b.ID, AccountID: a.ID, PayeeName: "B", Amount: -20, Date: date,
		Status: ledger.StatusCleared,
	})
	require.NoError(t, err)

	got := getAccount(t, e, a.ID)
	assert.Equal(t, ledger.Money(-30), got.Uncleared)
	assert.Equal(t, ledger.Money(-20), got.Cleared)
	assert.Equal(t, ledger.Money(-50), got.Balance)
}

func TestPostTransaction_RejectsTrackingCategory(t *testing.T) {
	// GIVEN: A credit card's tracking category
	// WHEN: Posting directly against it
	// THEN: The engine refuses

	e := newTestEngine()
	b := newTestBudget(t, e)
	card := newTestAccount(t, e, b.ID, "Visa", ledger.AccountCreditCard, 0)
	checking := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 0)
	ctx := context.Background()

	tracking := trackingCategory(t, e, card.ID)

	_, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:   b.ID,
		AccountID:  checking.ID,
		PayeeName:  "Store",
		CategoryID: tracking.ID,
		Amount:     -10,
		Date:       ledger.CurrentMonth().FirstDay(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrLockedCategory)
}

// =============================================================================
// TRANSFERS
// =============================================================================

func TestTransfer_CreatesLinkedSymmetricPair(t *testing.T) {
	// GIVEN: Checking and Savings
	// WHEN: Transferring -50 from Checking to Savings
	// THEN: A linked pair exists: negated amounts, same date, uncategorized,
	//       and toBeBudgeted is untouched

	e := newTestEngine()
	b := newTestBudget(t, e)
	checking := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 100)
	savings := newTestAccount(t, e, b.ID, "Savings", ledger.AccountBank, 0)
	ctx := context.Background()
	date := ledger.CurrentMonth().FirstDay()

	origin, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:  b.ID,
		AccountID: checking.ID,
		PayeeID:   savings.TransferPayeeID,
		Amount:    -50,
		Date:      date,
	})
	require.NoError(t, err)

	require.True(t, origin.IsTransferLinked())
	assert.Equal(t, savings.ID, origin.TransferAccountID)
	assert.Empty(t, origin.CategoryID, "transfer halves are uncategorized")

	cp, err := e.Store().GetTransaction(ctx, origin.TransferTransactionID)
	require.NoError(t, err)
	assert.Equal(t, savings.ID, cp.AccountID)
	assert.Equal(t, ledger.Money(50), cp.Amount)
	assert.True(t, cp.Date.Equal(origin.Date))
	assert.Equal(t, origin.ID, cp.TransferTransactionID)
	assert.Empty(t, cp.CategoryID)

	assert.Equal(t, ledger.Money(50), getAccount(t, e, checking.ID).Balance)
	assert.Equal(t, ledger.Money(50), getAccount(t, e, savings.ID).Balance)
	assert.Equal(t, ledger.Money(100), getBudget(t, e, b.ID).ToBeBudgeted)
}

func TestTransfer_DeleteEitherHalfDeletesBoth(t *testing.T) {
	// GIVEN: A linked transfer pair
	// WHEN: Deleting the counterpart half
	// THEN: Both halves are gone and both balances restored

	e := newTestEngine()
	b := newTestBudget(t, e)
	checking := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 100)
	savings := newTestAccount(t, e, b.ID, "Savings", ledger.AccountBank, 0)
	ctx := context.Background()

	origin, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:  b.ID,
		AccountID: checking.ID,
		PayeeID:   savings.TransferPayeeID,
		Amount:    -50,
		Date:      ledger.CurrentMonth().FirstDay(),
	})
	require.NoError(t, err)

	require.NoError(t, e.DeleteTransaction(ctx, origin.TransferTransactionID))

	_, err = e.Store().GetTransaction(ctx, origin.ID)
	assert.True(t, ledger.IsNotFound(err))
	_, err = e.Store().GetTransaction(ctx, origin.TransferTransactionID)
	assert.True(t, ledger.IsNotFound(err))

	assert.Equal(t, ledger.Money(100), getAccount(t, e, checking.ID).Balance)
	assert.Equal(t, ledger.Money(0), getAccount(t, e, savings.ID).Balance)
}

func TestTransfer_AmountUpdateSyncsCounterpart(t *testing.T) {
	// GIVEN: A linked -50 transfer pair
	// WHEN: Changing the origin amount to -80
	// THEN: The counterpart becomes +80 and balances follow

	e := newTestEngine()
	b := newTestBudget(t, e)
	checking := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 100)
	savings := newTestAccount(t, e, b.ID, "Savings", ledger.AccountBank, 0)
	ctx := context.Background()

	origin, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:  b.ID,
		AccountID: checking.ID,
		PayeeID:   savings.TransferPayeeID,
		Amount:    -50,
		Date:      ledger.CurrentMonth().FirstDay(),
	})
	require.NoError(t, err)

	amount := ledger.Money(-80)
	_, err = e.UpdateTransaction(ctx, origin.ID, ledger.TransactionPatch{Amount: &amount})
	require.NoError(t, err)

	cp, err := e.Store().GetTransaction(ctx, origin.TransferTransactionID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Money(80), cp.Amount)

	assert.Equal(t, ledger.Money(20), getAccount(t, e, checking.ID).Balance)
	assert.Equal(t, ledger.Money(80), getAccount(t, e, savings.ID).Balance)
}

func TestTransfer_PayeeChangeToRegular_TearsDownPair(t *testing.T) {
	// GIVEN: A linked transfer pair
	// WHEN: Repointing the origin at a regular payee
	// THEN: The counterpart is deleted and the origin is a plain transaction

	e := newTestEngine()
	b := newTestBudget(t, e)
	checking := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 100)
	savings := newTestAccount(t, e, b.ID, "Savings", ledger.AccountBank, 0)
	ctx := context.Background()

	origin, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:  b.ID,
		AccountID: checking.ID,
		PayeeID:   savings.TransferPayeeID,
		Amount:    -50,
		Date:      ledger.CurrentMonth().FirstDay(),
	})
	require.NoError(t, err)
	counterpartID := origin.TransferTransactionID

	grocer, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID: b.ID, AccountID: checking.ID, PayeeName: "Grocer",
		Amount: -1, Date: ledger.CurrentMonth().FirstDay(),
	})
	require.NoError(t, err)

	updated, err := e.UpdateTransaction(ctx, origin.ID, ledger.TransactionPatch{PayeeID: &grocer.PayeeID})
	require.NoError(t, err)

	assert.False(t, updated.IsTransfer())
	assert.Empty(t, updated.TransferAccountID)

	_, err = e.Store().GetTransaction(ctx, counterpartID)
	assert.True(t, ledger.IsNotFound(err), "counterpart should be deleted")

	assert.Equal(t, ledger.Money(0), getAccount(t, e, savings.ID).Balance)
}

func TestTransfer_PayeeChangeToTransfer_MaterializesPair(t *testing.T) {
	// GIVEN: A plain categorized transaction
	// WHEN: Repointing it at a transfer payee
	// THEN: It becomes a linked pair and loses its category

	e := newTestEngine()
	b := newTestBudget(t, e)
	checking := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 100)
	savings := newTestAccount(t, e, b.ID, "Savings", ledger.AccountBank, 0)
	cat := newTestCategory(t, e, b.ID, "Misc")
	ctx := context.Background()

	tx, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:   b.ID,
		AccountID:  checking.ID,
		PayeeName:  "Shop",
		CategoryID: cat.ID,
		Amount:     -50,
		Date:       ledger.CurrentMonth().FirstDay(),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Money(-50), getCategoryMonth(t, e, cat.ID, ledger.CurrentMonth()).Activity)

	updated, err := e.UpdateTransaction(ctx, tx.ID, ledger.TransactionPatch{PayeeID: &savings.TransferPayeeID})
	require.NoError(t, err)

	require.True(t, updated.IsTransferLinked())
	assert.Empty(t, updated.CategoryID)
	assert.Equal(t, ledger.Money(50), getAccount(t, e, savings.ID).Balance)

	// The category activity was backed out.
	assert.Equal(t, ledger.Money(0), getCategoryMonth(t, e, cat.ID, ledger.CurrentMonth()).Activity)
}

// =============================================================================
// CREDIT CARD MIRROR
// =============================================================================

func TestCreditCard_CategorizedPurchase_MirrorsIntoTracking(t *testing.T) {
	// GIVEN: A credit card and a "Power" category
	// WHEN: Posting a -50 purchase on the card
	// THEN: Card balance -50, Power balance -50, tracking balance +50

	e := newTestEngine()
	b := newTestBudget(t, e)
	card := newTestAccount(t, e, b.ID, "Visa", ledger.AccountCreditCard, 0)
	power := newTestCategory(t, e, b.ID, "Power")
	ctx := context.Background()
	current := ledger.CurrentMonth()

	_, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:   b.ID,
		AccountID:  card.ID,
		PayeeName:  "Utility Co",
		CategoryID: power.ID,
		Amount:     -50,
		Date:       current.FirstDay(),
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.Money(-50), getAccount(t, e, card.ID).Balance)
	assert.Equal(t, ledger.Money(-50), getCategoryMonth(t, e, power.ID, current).Balance)

	tracking := trackingCategory(t, e, card.ID)
	assert.Equal(t, ledger.Money(50), getCategoryMonth(t, e, tracking.ID, current).Balance)
}

func TestCreditCard_InflowCategorized_NotMirrored(t *testing.T) {
	// GIVEN: A credit card
	// WHEN: Posting a +30 inflow-categorized transaction on the card
	// THEN: Neither the inflow cascade nor the mirror moves; only the
	//       account and toBeBudgeted... which also stays put

	e := newTestEngine()
	b := newTestBudget(t, e)
	card := newTestAccount(t, e, b.ID, "Visa", ledger.AccountCreditCard, 0)
	ctx := context.Background()
	current := ledger.CurrentMonth()

	inflow, err := e.Store().FindInflowCategory(ctx, b.ID)
	require.NoError(t, err)

	_, err = e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:   b.ID,
		AccountID:  card.ID,
		PayeeName:  "Cashback",
		CategoryID: inflow.ID,
		Amount:     30,
		Date:       current.FirstDay(),
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.Money(30), getAccount(t, e, card.ID).Balance)
	assert.Equal(t, ledger.Money(0), getBudget(t, e, b.ID).ToBeBudgeted)

	tracking := trackingCategory(t, e, card.ID)
	cm := getCategoryMonth(t, e, tracking.ID, current)
	require.NotNil(t, cm)
	assert.Equal(t, ledger.Money(0), cm.Activity)
}

func TestCreditCard_PaymentTransfer_Mirrored(t *testing.T) {
	// GIVEN: Card with -50 of categorized spending (tracking +50)
	// WHEN: Paying the card with a 50 transfer from checking
	// THEN: The tracking category drains back to 0 and the card to 0

	e := newTestEngine()
	b := newTestBudget(t, e)
	checking := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 100)
	card := newTestAccount(t, e, b.ID, "Visa", ledger.AccountCreditCard, 0)
	power := newTestCategory(t, e, b.ID, "Power")
	ctx := context.Background()
	current := ledger.CurrentMonth()

	_, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:   b.ID,
		AccountID:  card.ID,
		PayeeName:  "Utility Co",
		CategoryID: power.ID,
		Amount:     -50,
		Date:       current.FirstDay(),
	})
	require.NoError(t, err)

	_, err = e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:  b.ID,
		AccountID: checking.ID,
		PayeeID:   card.TransferPayeeID,
		Amount:    -50,
		Date:      current.FirstDay(),
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.Money(0), getAccount(t, e, card.ID).Balance)
	assert.Equal(t, ledger.Money(50), getAccount(t, e, checking.ID).Balance)

	tracking := trackingCategory(t, e, card.ID)
	assert.Equal(t, ledger.Money(0), getCategoryMonth(t, e, tracking.ID, current).Balance)
}

func TestCreditCard_TransferToOffBudget_NotMirrored(t *testing.T) {
	// GIVEN: A credit card and an off-budget tracking account
	// WHEN: Transferring -40 from the card to the off-budget account
	// THEN: The card's tracking category does not move

	e := newTestEngine()
	b := newTestBudget(t, e)
	card := newTestAccount(t, e, b.ID, "Visa", ledger.AccountCreditCard, 0)
	brokerage := newTestAccount(t, e, b.ID, "Brokerage", ledger.AccountTracking, 0)
	ctx := context.Background()
	current := ledger.CurrentMonth()

	_, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:  b.ID,
		AccountID: card.ID,
		PayeeID:   brokerage.TransferPayeeID,
		Amount:    -40,
		Date:      current.FirstDay(),
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.Money(-40), getAccount(t, e, card.ID).Balance)
	assert.Equal(t, ledger.Money(40), getAccount(t, e, brokerage.ID).Balance)

	tracking := trackingCategory(t, e, card.ID)
	cm := getCategoryMonth(t, e, tracking.ID, current)
	require.NotNil(t, cm)
	assert.Equal(t, ledger.Money(0), cm.Activity)
}

// =============================================================================
// UPDATES
// =============================================================================

func TestUpdateTransaction_CategoryChange_MovesActivity(t *testing.T) {
	// GIVEN: A -40 transaction against Groceries
	// WHEN: Recategorizing it to Dining
	// THEN: Groceries is restored and Dining carries the activity

	e := newTestEngine()
	b := newTestBudget(t, e)
	a := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 0)
	groceries := newTestCategory(t, e, b.ID, "Groceries")
	dining := newTestCategory(t, e, b.ID, "Dining")
	ctx := context.Background()
	current := ledger.CurrentMonth()

	tx, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:   b.ID,
		AccountID:  a.ID,
		PayeeName:  "Cafe",
		CategoryID: groceries.ID,
		Amount:     -40,
		Date:       current.FirstDay(),
	})
	require.NoError(t, err)

	_, err = e.UpdateTransaction(ctx, tx.ID, ledger.TransactionPatch{CategoryID: &dining.ID})
	require.NoError(t, err)

	assert.Equal(t, ledger.Money(0), getCategoryMonth(t, e, groceries.ID, current).Activity)
	assert.Equal(t, ledger.Money(-40), getCategoryMonth(t, e, dining.ID, current).Activity)
}

func TestUpdateTransaction_StatusChange_MovesBuckets(t *testing.T) {
	// GIVEN: A pending -30 transaction
	// WHEN: Marking it cleared
	// THEN: The amount moves from uncleared to cleared; balance unchanged

	e := newTestEngine()
	b := newTestBudget(t, e)
	a := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 0)
	ctx := context.Background()

	tx, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID: b.ID, AccountID: a.ID, PayeeName: "Shop",
		Amount: -30, Date: ledger.CurrentMonth().FirstDay(),
	})
	require.NoError(t, err)

	cleared := ledger.StatusCleared
	_, err = e.UpdateTransaction(ctx, tx.ID, ledger.TransactionPatch{Status: &cleared})
	require.NoError(t, err)

	got := getAccount(t, e, a.ID)
	assert.Equal(t, ledger.Money(0), got.Uncleared)
	assert.Equal(t, ledger.Money(-30), got.Cleared)
	assert.Equal(t, ledger.Money(-30), got.Balance)
}

func TestUpdateTransaction_MonthChange_MovesActivityBetweenMonths(t *testing.T) {
	// GIVEN: A -40 transaction in the previous month
	// WHEN: Moving its date into the current month
	// THEN: Activity moves with it

	e := newTestEngine()
	b := newTestBudget(t, e)
	a := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 0)
	cat := newTestCategory(t, e, b.ID, "Groceries")
	ctx := context.Background()
	current := ledger.CurrentMonth()

	tx, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:   b.ID,
		AccountID:  a.ID,
		PayeeName:  "Market",
		CategoryID: cat.ID,
		Amount:     -40,
		Date:       current.Prev().FirstDay(),
	})
	require.NoError(t, err)

	newDate := current.FirstDay()
	_, err = e.UpdateTransaction(ctx, tx.ID, ledger.TransactionPatch{Date: &newDate})
	require.NoError(t, err)

	assert.Equal(t, ledger.Money(0), getCategoryMonth(t, e, cat.ID, current.Prev()).Activity)
	assert.Equal(t, ledger.Money(-40), getCategoryMonth(t, e, cat.ID, current).Activity)
}

func TestUpdateTransaction_MemoOnly_NoLedgerMovement(t *testing.T) {
	// GIVEN: A posted transaction
	// WHEN: Changing only its memo
	// THEN: No balances move

	e := newTestEngine()
	b := newTestBudget(t, e)
	a := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 0)
	cat := newTestCategory(t, e, b.ID, "Groceries")
	ctx := context.Background()
	current := ledger.CurrentMonth()

	tx, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:   b.ID,
		AccountID:  a.ID,
		PayeeName:  "Market",
		CategoryID: cat.ID,
		Amount:     -40,
		Date:       current.FirstDay(),
	})
	require.NoError(t, err)

	memo := "weekly shop"
	updated, err := e.UpdateTransaction(ctx, tx.ID, ledger.TransactionPatch{Memo: &memo})
	require.NoError(t, err)
	assert.Equal(t, "weekly shop", updated.Memo)

	assert.Equal(t, ledger.Money(-40), getAccount(t, e, a.ID).Balance)
	assert.Equal(t, ledger.Money(-40), getCategoryMonth(t, e, cat.ID, current).Activity)
}

func TestUpdateTransaction_PayeeToOffBudgetTransfer_UnwindsMirror(t *testing.T) {
	// GIVEN: An uncategorized -50 card purchase, mirrored into the
	//        card's payment category
	// WHEN: Repointing only the payee at an off-budget account's
	//       transfer payee
	// THEN: The mirror is backed out; transfers to off-budget accounts
	//       carry no payment weight

	e := newTestEngine()
	b := newTestBudget(t, e)
	card := newTestAccount(t, e, b.ID, "Visa", ledger.AccountCreditCard, 0)
	brokerage := newTestAccount(t, e, b.ID, "Brokerage", ledger.AccountTracking, 0)
	ctx := context.Background()
	current := ledger.CurrentMonth()

	tx, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:  b.ID,
		AccountID: card.ID,
		PayeeName: "Unknown Charge",
		Amount:    -50,
		Date:      current.FirstDay(),
	})
	require.NoError(t, err)

	tracking := trackingCategory(t, e, card.ID)
	assert.Equal(t, ledger.Money(50), getCategoryMonth(t, e, tracking.ID, current).Activity)

	updated, err := e.UpdateTransaction(ctx, tx.ID, ledger.TransactionPatch{PayeeID: &brokerage.TransferPayeeID})
	require.NoError(t, err)
	assert.True(t, updated.IsTransferLinked())

	assert.Equal(t, ledger.Money(0), getCategoryMonth(t, e, tracking.ID, current).Activity)
	assert.Equal(t, ledger.Money(-50), getAccount(t, e, card.ID).Balance)
	assert.Equal(t, ledger.Money(50), getAccount(t, e, brokerage.ID).Balance)
}

func TestUpdateTransaction_PayeeFromOffBudgetTransfer_AppliesMirror(t *testing.T) {
	// GIVEN: A -50 card transfer to an off-budget account (not mirrored)
	// WHEN: Repointing only the payee at a regular payee
	// THEN: The pair is torn down and the now-plain card outflow is
	//       mirrored into the payment category

	e := newTestEngine()
	b := newTestBudget(t, e)
	card := newTestAccount(t, e, b.ID, "Visa", ledger.AccountCreditCard, 0)
	brokerage := newTestAccount(t, e, b.ID, "Brokerage", ledger.AccountTracking, 0)
	ctx := context.Background()
	current := ledger.CurrentMonth()

	origin, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:  b.ID,
		AccountID: card.ID,
		PayeeID:   brokerage.TransferPayeeID,
		Amount:    -50,
		Date:      current.FirstDay(),
	})
	require.NoError(t, err)

	tracking := trackingCategory(t, e, card.ID)
	assert.Equal(t, ledger.Money(0), getCategoryMonth(t, e, tracking.ID, current).Activity)

	// Mint a regular payee to repoint at
	grocer, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID: b.ID, AccountID: card.ID, PayeeName: "Grocer",
		Amount: -1, Date: current.FirstDay(),
	})
	require.NoError(t, err)

	updated, err := e.UpdateTransaction(ctx, origin.ID, ledger.TransactionPatch{PayeeID: &grocer.PayeeID})
	require.NoError(t, err)
	assert.False(t, updated.IsTransfer())

	// -1 from the minted payee plus the repointed -50
	assert.Equal(t, ledger.Money(51), getCategoryMonth(t, e, tracking.ID, current).Activity)
	assert.Equal(t, ledger.Money(0), getAccount(t, e, brokerage.ID).Balance)
}

func TestUpdateTransaction_CategorizeTransferHalf_Rejected(t *testing.T) {
	// GIVEN: A linked transfer pair
	// WHEN: Patching a category onto one half without touching the payee
	// THEN: The update is rejected as a client error and nothing moves

	e := newTestEngine()
	b := newTestBudget(t, e)
	checking := newTestAccount(t, e, b.ID, "Checking", ledger.AccountBank, 100)
	savings := newTestAccount(t, e, b.ID, "Savings", ledger.AccountBank, 0)
	cat := newTestCategory(t, e, b.ID, "Groceries")
	ctx := context.Background()
	current := ledger.CurrentMonth()

	origin, err := e.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:  b.ID,
		AccountID: checking.ID,
		PayeeID:   savings.TransferPayeeID,
		Amount:    -50,
		Date:      current.FirstDay(),
	})
	require.NoError(t, err)

	_, err = e.UpdateTransaction(ctx, origin.ID, ledger.TransactionPatch{CategoryID: &cat.ID})
	require.Error(t, err)
	assert.True(t, ledger.IsClientError(err))
	assert.ErrorIs(t, err, ledger.ErrTransferCategorized)

	cm := getCategoryMonth(t, e, cat.ID, current)
	if cm != nil {
		assert.Zero(t, cm.Activity)
	}
	stored, err := e.Store().GetTransaction(ctx, origin.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.CategoryID)
}
