/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate a fresh budget with
	realistic data for testing and demos. Each scenario creates accounts,
	categories, budgeted amounts, and transactions that demonstrate
	specific features.

AVAILABLE SCENARIOS:

	fresh-start:       Checking account, everyday categories, salary inflow
	credit-card:       Categorized card spending with a payment transfer
	savings-transfers: On-budget savings plus an off-budget tracking account

HOW SCENARIOS WORK:
 1. Create a new budget (existing budgets are left untouched)
 2. Create accounts (starting balances flow through the normal posting path)
 3. Create category groups and categories
 4. Budget amounts into the current month
 5. Post transactions (spending, inflows, transfers)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "credit-card"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

SEE ALSO:
  - handlers.go: ListScenarios, LoadScenario routing
  - ledger/engine.go: The operations every loader goes through
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/budget-engine/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-start",
		Name:        "Fresh Start",
		Description: "Checking account, everyday categories, salary inflow and spending",
	},
	{
		ID:          "credit-card",
		Name:        "Credit Card",
		Description: "Categorized card purchases mirrored into the payment category, plus a payment transfer",
	},
	{
		ID:          "savings-transfers",
		Name:        "Savings & Transfers",
		Description: "Linked transfer between checking and savings, plus an off-budget tracking account",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario creates a fresh demo budget populated by the named
// scenario and returns its summary.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
		UserID     string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		req.UserID = "demo"
	}

	ctx := r.Context()

	var budget *ledger.Budget
	var err error
	switch req.ScenarioID {
	case "fresh-start":
		budget, err = h.loadFreshStartScenario(ctx, req.UserID)
	case "credit-card":
		budget, err = h.loadCreditCardScenario(ctx, req.UserID)
	case "savings-transfers":
		budget, err = h.loadSavingsTransfersScenario(ctx, req.UserID)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	summary, err := h.Engine.GetBudgetSummary(ctx, budget.ID)
	if err != nil {
		writeDomainError(w, "Failed to load scenario summary", err)
		return
	}

	exp := currencyExponent(summary.Budget.Currency)
	dto := BudgetSummaryDTO{Budget: toBudgetDTO(summary.Budget)}
	for _, a := range summary.Accounts {
		dto.Accounts = append(dto.Accounts, toAccountDTO(a, exp))
	}
	for _, g := range summary.Groups {
		row := CategoryGroupDTO{ID: string(g.Group.ID), Name: g.Group.Name, Locked: g.Group.Locked}
		for _, c := range g.Categories {
			row.Categories = append(row.Categories, toCategoryDTO(c))
		}
		dto.Groups = append(dto.Groups, row)
	}
	writeJSON(w, http.StatusCreated, dto)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// dayOfCurrentMonth returns the given day in the current calendar month.
func dayOfCurrentMonth(day int) time.Time {
	return ledger.CurrentMonth().FirstDay().AddDate(0, 0, day-1)
}

func (h *Handler) loadFreshStartScenario(ctx context.Context, userID string) (*ledger.Budget, error) {
	budget, err := h.Engine.CreateBudget(ctx, userID, "Fresh Start", "USD")
	if err != nil {
		return nil, err
	}

	// $2,500 opening balance lands in To be Budgeted
	checking, err := h.Engine.CreateAccount(ctx, budget.ID, "Checking", ledger.AccountBank, 250000)
	if err != nil {
		return nil, err
	}

	everyday, err := h.Engine.CreateCategoryGroup(ctx, budget.ID, "Everyday")
	if err != nil {
		return nil, err
	}
	bills, err := h.Engine.CreateCategoryGroup(ctx, budget.ID, "Bills")
	if err != nil {
		return nil, err
	}

	groceries, err := h.Engine.CreateCategory(ctx, budget.ID, everyday.ID, "Groceries")
	if err != nil {
		return nil, err
	}
	dining, err := h.Engine.CreateCategory(ctx, budget.ID, everyday.ID, "Dining Out")
	if err != nil {
		return nil, err
	}
	rent, err := h.Engine.CreateCategory(ctx, budget.ID, bills.ID, "Rent")
	if err != nil {
		return nil, err
	}

	month := ledger.CurrentMonth()
	for _, b := range []struct {
		cat    ledger.CategoryID
		amount ledger.Money
	}{
		{groceries.ID, 40000},
		{dining.ID, 15000},
		{rent.ID, 120000},
	} {
		if err := h.Engine.SetBudgeted(ctx, budget.ID, b.cat, month, b.amount); err != nil {
			return nil, err
		}
	}

	spends := []ledger.TransactionInput{
		{BudgetID: budget.ID, AccountID: checking.ID, PayeeName: "Corner Market", CategoryID: groceries.ID, Amount: -6250, Date: dayOfCurrentMonth(3), Status: ledger.StatusCleared},
		{BudgetID: budget.ID, AccountID: checking.ID, PayeeName: "Noodle Bar", CategoryID: dining.ID, Amount: -2400, Date: dayOfCurrentMonth(5), Status: ledger.StatusCleared},
		{BudgetID: budget.ID, AccountID: checking.ID, PayeeName: "Hillside Property Mgmt", CategoryID: rent.ID, Amount: -120000, Date: dayOfCurrentMonth(1), Status: ledger.StatusCleared},
	}
	for _, in := range spends {
		if _, err := h.Engine.PostTransaction(ctx, in); err != nil {
			return nil, err
		}
	}
	return budget, nil
}

func (h *Handler) loadCreditCardScenario(ctx context.Context, userID string) (*ledger.Budget, error) {
	budget, err := h.Engine.CreateBudget(ctx, userID, "Credit Card Demo", "USD")
	if err != nil {
		return nil, err
	}

	checking, err := h.Engine.CreateAccount(ctx, budget.ID, "Checking", ledger.AccountBank, 100000)
	if err != nil {
		return nil, err
	}
	card, err := h.Engine.CreateAccount(ctx, budget.ID, "Rewards Card", ledger.AccountCreditCard, 0)
	if err != nil {
		return nil, err
	}

	everyday, err := h.Engine.CreateCategoryGroup(ctx, budget.ID, "Everyday")
	if err != nil {
		return nil, err
	}
	groceries, err := h.Engine.CreateCategory(ctx, budget.ID, everyday.ID, "Groceries")
	if err != nil {
		return nil, err
	}
	gas, err := h.Engine.CreateCategory(ctx, budget.ID, everyday.ID, "Gas")
	if err != nil {
		return nil, err
	}

	month := ledger.CurrentMonth()
	if err := h.Engine.SetBudgeted(ctx, budget.ID, groceries.ID, month, 30000); err != nil {
		return nil, err
	}
	if err := h.Engine.SetBudgeted(ctx, budget.ID, gas.ID, month, 10000); err != nil {
		return nil, err
	}

	// Card spending: the mirror moves each amount into the card's
	// payment category as it posts
	purchases := []ledger.TransactionInput{
		{BudgetID: budget.ID, AccountID: card.ID, PayeeName: "Corner Market", CategoryID: groceries.ID, Amount: -8200, Date: dayOfCurrentMonth(4), Status: ledger.StatusCleared},
		{BudgetID: budget.ID, AccountID: card.ID, PayeeName: "Fuel Stop", CategoryID: gas.ID, Amount: -3600, Date: dayOfCurrentMonth(7), Status: ledger.StatusCleared},
	}
	for _, in := range purchases {
		if _, err := h.Engine.PostTransaction(ctx, in); err != nil {
			return nil, err
		}
	}

	// Pay part of the card balance from checking
	_, err = h.Engine.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:  budget.ID,
		AccountID: checking.ID,
		PayeeID:   card.TransferPayeeID,
		Amount:    -5000,
		Date:      dayOfCurrentMonth(10),
		Status:    ledger.StatusCleared,
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

func (h *Handler) loadSavingsTransfersScenario(ctx context.Context, userID string) (*ledger.Budget, error) {
	budget, err := h.Engine.CreateBudget(ctx, userID, "Savings Demo", "USD")
	if err != nil {
		return nil, err
	}

	checking, err := h.Engine.CreateAccount(ctx, budget.ID, "Checking", ledger.AccountBank, 150000)
	if err != nil {
		return nil, err
	}
	savings, err := h.Engine.CreateAccount(ctx, budget.ID, "Savings", ledger.AccountBank, 50000)
	if err != nil {
		return nil, err
	}
	brokerage, err := h.Engine.CreateAccount(ctx, budget.ID, "Brokerage", ledger.AccountTracking, 800000)
	if err != nil {
		return nil, err
	}

	// On-budget transfer: linked pair, no budget effect
	_, err = h.Engine.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:  budget.ID,
		AccountID: checking.ID,
		PayeeID:   savings.TransferPayeeID,
		Amount:    -25000,
		Date:      dayOfCurrentMonth(2),
		Status:    ledger.StatusCleared,
	})
	if err != nil {
		return nil, err
	}

	// Off-budget transfer: money leaves the budget through the
	// account ledger alone
	goals, err := h.Engine.CreateCategoryGroup(ctx, budget.ID, "Savings Goals")
	if err != nil {
		return nil, err
	}
	investing, err := h.Engine.CreateCategory(ctx, budget.ID, goals.ID, "Investing")
	if err != nil {
		return nil, err
	}
	if err := h.Engine.SetBudgeted(ctx, budget.ID, investing.ID, ledger.CurrentMonth(), 50000); err != nil {
		return nil, err
	}
	_, err = h.Engine.PostTransaction(ctx, ledger.TransactionInput{
		BudgetID:  budget.ID,
		AccountID: checking.ID,
		PayeeID:   brokerage.TransferPayeeID,
		Amount:    -50000,
		Date:      dayOfCurrentMonth(6),
		Status:    ledger.StatusCleared,
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}
