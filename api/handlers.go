/*
handlers.go - HTTP API handlers for the budgeting engine

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Budgets:
    GET    /api/budgets                     List budgets for a user
    POST   /api/budgets                     Create budget
    GET    /api/budgets/{id}                Budget summary (accounts + categories)
    GET    /api/budgets/{id}/months/{month} Month view
    POST   /api/budgets/{id}/budgeted       Set a category's budgeted amount
    POST   /api/budgets/{id}/accounts       Create account
    GET    /api/budgets/{id}/payees         List payees
    POST   /api/budgets/{id}/category-groups Create category group
    POST   /api/budgets/{id}/categories     Create category
    POST   /api/budgets/{id}/transactions   Post transaction

  Accounts:
    GET    /api/accounts/{id}/register      Account register
    POST   /api/accounts/{id}/reconcile     Reconcile against a stated balance

  Transactions:
    GET    /api/transactions/{id}           Get transaction
    PUT    /api/transactions/{id}           Update transaction
    DELETE /api/transactions/{id}           Delete transaction

  Scenarios (scenarios.go):
    GET    /api/scenarios                   List demo scenarios
    POST   /api/scenarios/load              Load a demo scenario

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (engine)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, locked categories
  - 404: Entity not found
  - 500: Internal errors

SECURITY NOTE:
  Authentication and authorization are the caller's concern; handlers
  trust the user_id they are given.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/budget-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *ledger.Engine
}

// NewHandler creates a new handler backed by the given engine.
func NewHandler(engine *ledger.Engine) *Handler {
	return &Handler{Engine: engine}
}

// =============================================================================
// BUDGET HANDLERS
// =============================================================================

// ListBudgets returns all budgets for a user.
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	budgets, err := h.Engine.Store().ListBudgets(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list budgets", err)
		return
	}

	dtos := make([]BudgetDTO, len(budgets))
	for i, b := range budgets {
		dtos[i] = toBudgetDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBudget creates a new budget with its system categories and months.
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req CreateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "user_id and name are required", nil)
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	b, err := h.Engine.CreateBudget(r.Context(), req.UserID, req.Name, req.Currency)
	if err != nil {
		writeDomainError(w, "Failed to create budget", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetDTO(b))
}

// GetBudget returns the budget summary: accounts plus the category tree.
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "budgetID"))

	summary, err := h.Engine.GetBudgetSummary(r.Context(), budgetID)
	if err != nil {
		writeDomainError(w, "Failed to get budget", err)
		return
	}

	exp := currencyExponent(summary.Budget.Currency)
	dto := BudgetSummaryDTO{
		Budget:   toBudgetDTO(summary.Budget),
		Accounts: make([]AccountDTO, len(summary.Accounts)),
	}
	for i, a := range summary.Accounts {
		dto.Accounts[i] = toAccountDTO(a, exp)
	}
	for _, g := range summary.Groups {
		row := CategoryGroupDTO{
			ID:     string(g.Group.ID),
			Name:   g.Group.Name,
			Locked: g.Group.Locked,
		}
		for _, c := range g.Categories {
			row.Categories = append(row.Categories, toCategoryDTO(c))
		}
		dto.Groups = append(dto.Groups, row)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetMonth returns the month view: the budget month plus its category rows.
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "budgetID"))

	month, err := ledger.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month format (use YYYY-MM)", err)
		return
	}

	exp, err := h.budgetExponent(r, budgetID)
	if err != nil {
		writeDomainError(w, "Failed to get budget", err)
		return
	}

	view, err := h.Engine.GetMonthView(r.Context(), budgetID, month)
	if err != nil {
		writeDomainError(w, "Failed to get month", err)
		return
	}

	dto := MonthViewDTO{
		BudgetMonth: toBudgetMonthDTO(view.BudgetMonth, exp),
		Categories:  make([]CategoryMonthDTO, len(view.Categories)),
	}
	for i, row := range view.Categories {
		dto.Categories[i] = CategoryMonthDTO{
			CategoryID:   string(row.Category.ID),
			CategoryName: row.Category.Name,
			Month:        row.Month.Month.String(),
			Budgeted:     formatMoney(row.Month.Budgeted, exp),
			Activity:     formatMoney(row.Month.Activity, exp),
			Balance:      formatMoney(row.Month.Balance, exp),
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// SetBudgeted assigns money to a category for a month and cascades the
// resulting balance change forward.
func (h *Handler) SetBudgeted(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "budgetID"))

	var req SetBudgetedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	month, err := ledger.ParseMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month format (use YYYY-MM)", err)
		return
	}

	exp, err := h.budgetExponent(r, budgetID)
	if err != nil {
		writeDomainError(w, "Failed to get budget", err)
		return
	}
	amount, err := parseMoney(req.Amount, exp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	err = h.Engine.SetBudgeted(r.Context(), budgetID, ledger.CategoryID(req.CategoryID), month, amount)
	if err != nil {
		writeDomainError(w, "Failed to set budgeted amount", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// CreateAccount creates an account in a budget.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "budgetID"))

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	typ := ledger.AccountType(req.Type)
	switch typ {
	case ledger.AccountBank, ledger.AccountCreditCard, ledger.AccountTracking:
	default:
		writeError(w, http.StatusBadRequest, "type must be bank, credit_card, or tracking", nil)
		return
	}

	exp, err := h.budgetExponent(r, budgetID)
	if err != nil {
		writeDomainError(w, "Failed to get budget", err)
		return
	}

	var starting ledger.Money
	if req.StartingBalance != "" {
		starting, err = parseMoney(req.StartingBalance, exp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid starting_balance", err)
			return
		}
	}

	a, err := h.Engine.CreateAccount(r.Context(), budgetID, req.Name, typ, starting)
	if err != nil {
		writeDomainError(w, "Failed to create account", err)
		return
	}
	// Re-read: a non-zero starting balance has already moved the ledger.
	a, err = h.Engine.Store().GetAccount(r.Context(), a.ID)
	if err != nil {
		writeDomainError(w, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(a, exp))
}

// GetRegister returns an account with its transactions in date order.
func (h *Handler) GetRegister(w http.ResponseWriter, r *http.Request) {
	accountID := ledger.AccountID(chi.URLParam(r, "accountID"))

	reg, err := h.Engine.GetAccountRegister(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, "Failed to get register", err)
		return
	}

	exp, err := h.budgetExponent(r, reg.Account.BudgetID)
	if err != nil {
		writeDomainError(w, "Failed to get budget", err)
		return
	}

	dto := AccountRegisterDTO{
		Account:      toAccountDTO(reg.Account, exp),
		Transactions: make([]TransactionDTO, len(reg.Transactions)),
	}
	for i, tx := range reg.Transactions {
		dto.Transactions[i] = toTransactionDTO(tx, exp)
	}
	writeJSON(w, http.StatusOK, dto)
}

// Reconcile flips cleared transactions to reconciled and books an
// adjustment for any difference from the stated balance.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	accountID := ledger.AccountID(chi.URLParam(r, "accountID"))

	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	account, err := h.Engine.Store().GetAccount(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, "Failed to get account", err)
		return
	}
	exp, err := h.budgetExponent(r, account.BudgetID)
	if err != nil {
		writeDomainError(w, "Failed to get budget", err)
		return
	}

	stated, err := parseMoney(req.StatedBalance, exp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid stated_balance", err)
		return
	}

	result, err := h.Engine.ReconcileAccount(r.Context(), accountID, stated)
	if err != nil {
		writeDomainError(w, "Failed to reconcile account", err)
		return
	}

	resp := ReconcileResponse{Account: toAccountDTO(result.Account, exp)}
	if result.Adjustment != nil {
		dto := toTransactionDTO(result.Adjustment, exp)
		resp.Adjustment = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// PAYEE / CATEGORY HANDLERS
// =============================================================================

// ListPayees returns all payees in a budget.
func (h *Handler) ListPayees(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "budgetID"))

	payees, err := h.Engine.Store().ListPayees(r.Context(), budgetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payees", err)
		return
	}

	dtos := make([]PayeeDTO, len(payees))
	for i, p := range payees {
		dtos[i] = toPayeeDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCategoryGroup creates a user category group.
func (h *Handler) CreateCategoryGroup(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "budgetID"))

	var req CreateCategoryGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	g, err := h.Engine.CreateCategoryGroup(r.Context(), budgetID, req.Name)
	if err != nil {
		writeDomainError(w, "Failed to create category group", err)
		return
	}
	writeJSON(w, http.StatusCreated, CategoryGroupDTO{
		ID:     string(g.ID),
		Name:   g.Name,
		Locked: g.Locked,
	})
}

// CreateCategory creates a user category in an existing group.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "budgetID"))

	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.GroupID == "" {
		writeError(w, http.StatusBadRequest, "group_id and name are required", nil)
		return
	}

	c, err := h.Engine.CreateCategory(r.Context(), budgetID, ledger.CategoryGroupID(req.GroupID), req.Name)
	if err != nil {
		writeDomainError(w, "Failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(c))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// PostTransaction records a new transaction.
func (h *Handler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "budgetID"))

	var req PostTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required", nil)
		return
	}
	if req.PayeeID == "" && req.PayeeName == "" {
		writeError(w, http.StatusBadRequest, "payee_id or payee_name is required", nil)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	exp, err := h.budgetExponent(r, budgetID)
	if err != nil {
		writeDomainError(w, "Failed to get budget", err)
		return
	}
	amount, err := parseMoney(req.Amount, exp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	status, ok := parseStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "status must be pending, cleared, or reconciled", nil)
		return
	}

	tx, err := h.Engine.PostTransaction(r.Context(), ledger.TransactionInput{
		BudgetID:   budgetID,
		AccountID:  ledger.AccountID(req.AccountID),
		PayeeID:    ledger.PayeeID(req.PayeeID),
		PayeeName:  req.PayeeName,
		CategoryID: ledger.CategoryID(req.CategoryID),
		Amount:     amount,
		Date:       date,
		Memo:       req.Memo,
		Status:     status,
	})
	if err != nil {
		writeDomainError(w, "Failed to post transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx, exp))
}

// GetTransaction returns a single transaction.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	tx, err := h.Engine.Store().GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get transaction", err)
		return
	}
	exp, err := h.budgetExponent(r, tx.BudgetID)
	if err != nil {
		writeDomainError(w, "Failed to get budget", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx, exp))
}

// UpdateTransaction applies a partial update to a transaction.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	var req UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	stored, err := h.Engine.Store().GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get transaction", err)
		return
	}
	exp, err := h.budgetExponent(r, stored.BudgetID)
	if err != nil {
		writeDomainError(w, "Failed to get budget", err)
		return
	}

	var patch ledger.TransactionPatch
	if req.PayeeID != nil {
		p := ledger.PayeeID(*req.PayeeID)
		patch.PayeeID = &p
	}
	if req.CategoryID != nil {
		c := ledger.CategoryID(*req.CategoryID)
		patch.CategoryID = &c
	}
	if req.Amount != nil {
		amount, err := parseMoney(*req.Amount, exp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
		patch.Amount = &amount
	}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		patch.Date = &date
	}
	if req.Memo != nil {
		patch.Memo = req.Memo
	}
	if req.Status != nil {
		status, ok := parseStatus(*req.Status)
		if !ok || status == "" {
			writeError(w, http.StatusBadRequest, "status must be pending, cleared, or reconciled", nil)
			return
		}
		patch.Status = &status
	}

	tx, err := h.Engine.UpdateTransaction(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, "Failed to update transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx, exp))
}

// DeleteTransaction deletes a transaction (and its transfer counterpart).
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	if err := h.Engine.DeleteTransaction(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

// budgetExponent looks up the budget's currency exponent for amount
// conversion at the boundary.
func (h *Handler) budgetExponent(r *http.Request, budgetID ledger.BudgetID) (int32, error) {
	b, err := h.Engine.Store().GetBudget(r.Context(), budgetID)
	if err != nil {
		return 0, err
	}
	return currencyExponent(b.Currency), nil
}

func parseStatus(s string) (ledger.TransactionStatus, bool) {
	switch ledger.TransactionStatus(s) {
	case "", ledger.StatusPending:
		return ledger.StatusPending, true
	case ledger.StatusCleared:
		return ledger.StatusCleared, true
	case ledger.StatusReconciled:
		return ledger.StatusReconciled, true
	default:
		return "", false
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps ledger error categories to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
