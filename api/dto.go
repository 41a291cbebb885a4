/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

AMOUNTS ON THE WIRE:
  The core keeps every amount as int64 minor units. At the API boundary
  amounts travel as decimal strings in major units ("12.50"), converted
  against the budget currency's exponent. shopspring/decimal does the
  parsing and formatting; no float ever touches an amount.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Money conversion helpers
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/ledger"
)

// =============================================================================
// AMOUNT CONVERSION
// =============================================================================

// currencyExponent returns the number of minor unit digits for an ISO
// currency code. Zero-decimal currencies get 0; everything else 2.
func currencyExponent(code string) int32 {
	switch code {
	case "JPY", "KRW", "VND", "CLP", "ISK":
		return 0
	default:
		return 2
	}
}

func formatMoney(m ledger.Money, exponent int32) string {
	return m.Decimal(exponent).StringFixed(exponent)
}

func parseMoney(s string, exponent int32) (ledger.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return ledger.MoneyFromDecimal(d, exponent), nil
}

// =============================================================================
// BUDGET
// =============================================================================

type BudgetDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Currency     string `json:"currency"`
	ToBeBudgeted string `json:"to_be_budgeted"`
	CreatedAt    string `json:"created_at"`
}

func toBudgetDTO(b *ledger.Budget) BudgetDTO {
	exp := currencyExponent(b.Currency)
	return BudgetDTO{
		ID:           string(b.ID),
		Name:         b.Name,
		Currency:     b.Currency,
		ToBeBudgeted: formatMoney(b.ToBeBudgeted, exp),
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
	}
}

type CreateBudgetRequest struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// =============================================================================
// ACCOUNT
// =============================================================================

type AccountDTO struct {
	ID              string `json:"id"`
	BudgetID        string `json:"budget_id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Cleared         string `json:"cleared"`
	Uncleared       string `json:"uncleared"`
	Balance         string `json:"balance"`
	TransferPayeeID string `json:"transfer_payee_id"`
	OnBudget        bool   `json:"on_budget"`
}

func toAccountDTO(a *ledger.Account, exp int32) AccountDTO {
	return AccountDTO{
		ID:              string(a.ID),
		BudgetID:        string(a.BudgetID),
		Name:            a.Name,
		Type:            string(a.Type),
		Cleared:         formatMoney(a.Cleared, exp),
		Uncleared:       formatMoney(a.Uncleared, exp),
		Balance:         formatMoney(a.Balance, exp),
		TransferPayeeID: string(a.TransferPayeeID),
		OnBudget:        a.OnBudget(),
	}
}

type CreateAccountRequest struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	StartingBalance string `json:"starting_balance,omitempty"`
}

type ReconcileRequest struct {
	StatedBalance string `json:"stated_balance"`
}

type ReconcileResponse struct {
	Account    AccountDTO      `json:"account"`
	Adjustment *TransactionDTO `json:"adjustment,omitempty"`
}

// =============================================================================
// PAYEE / CATEGORY
// =============================================================================

type PayeeDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Internal          bool   `json:"internal"`
	TransferAccountID string `json:"transfer_account_id,omitempty"`
}

func toPayeeDTO(p *ledger.Payee) PayeeDTO {
	return PayeeDTO{
		ID:                string(p.ID),
		Name:              p.Name,
		Internal:          p.Internal,
		TransferAccountID: string(p.TransferAccountID),
	}
}

type CategoryGroupDTO struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Locked     bool          `json:"locked"`
	Categories []CategoryDTO `json:"categories,omitempty"`
}

type CategoryDTO struct {
	ID                string `json:"id"`
	GroupID           string `json:"group_id"`
	Name              string `json:"name"`
	Inflow            bool   `json:"inflow"`
	Locked            bool   `json:"locked"`
	TrackingAccountID string `json:"tracking_account_id,omitempty"`
}

func toCategoryDTO(c *ledger.Category) CategoryDTO {
	return CategoryDTO{
		ID:                string(c.ID),
		GroupID:           string(c.GroupID),
		Name:              c.Name,
		Inflow:            c.Inflow,
		Locked:            c.Locked,
		TrackingAccountID: string(c.TrackingAccountID),
	}
}

type CreateCategoryGroupRequest struct {
	Name string `json:"name"`
}

type CreateCategoryRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

// =============================================================================
// MONTHS
// =============================================================================

type BudgetMonthDTO struct {
	ID          string `json:"id"`
	Month       string `json:"month"`
	Income      string `json:"income"`
	Budgeted    string `json:"budgeted"`
	Activity    string `json:"activity"`
	Underfunded string `json:"underfunded"`
}

func toBudgetMonthDTO(bm *ledger.BudgetMonth, exp int32) BudgetMonthDTO {
	return BudgetMonthDTO{
		ID:          string(bm.ID),
		Month:       bm.Month.String(),
		Income:      formatMoney(bm.Income, exp),
		Budgeted:    formatMoney(bm.Budgeted, exp),
		Activity:    formatMoney(bm.Activity, exp),
		Underfunded: formatMoney(bm.Underfunded, exp),
	}
}

type CategoryMonthDTO struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Month        string `json:"month"`
	Budgeted     string `json:"budgeted"`
	Activity     string `json:"activity"`
	Balance      string `json:"balance"`
}

type MonthViewDTO struct {
	BudgetMonth BudgetMonthDTO     `json:"budget_month"`
	Categories  []CategoryMonthDTO `json:"categories"`
}

type SetBudgetedRequest struct {
	CategoryID string `json:"category_id"`
	Month      string `json:"month"`
	Amount     string `json:"amount"`
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

type TransactionDTO struct {
	ID                    string `json:"id"`
	BudgetID              string `json:"budget_id"`
	AccountID             string `json:"account_id"`
	PayeeID               string `json:"payee_id"`
	CategoryID            string `json:"category_id,omitempty"`
	Amount                string `json:"amount"`
	Date                  string `json:"date"`
	Memo                  string `json:"memo,omitempty"`
	Status                string `json:"status"`
	TransferAccountID     string `json:"transfer_account_id,omitempty"`
	TransferTransactionID string `json:"transfer_transaction_id,omitempty"`
}

func toTransactionDTO(t *ledger.Transaction, exp int32) TransactionDTO {
	return TransactionDTO{
		ID:                    string(t.ID),
		BudgetID:              string(t.BudgetID),
		AccountID:             string(t.AccountID),
		PayeeID:               string(t.PayeeID),
		CategoryID:            string(t.CategoryID),
		Amount:                formatMoney(t.Amount, exp),
		Date:                  t.Date.Format("2006-01-02"),
		Memo:                  t.Memo,
		Status:                string(t.Status),
		TransferAccountID:     string(t.TransferAccountID),
		TransferTransactionID: string(t.TransferTransactionID),
	}
}

type PostTransactionRequest struct {
	AccountID  string `json:"account_id"`
	PayeeID    string `json:"payee_id,omitempty"`
	PayeeName  string `json:"payee_name,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Memo       string `json:"memo,omitempty"`
	Status     string `json:"status,omitempty"`
}

// UpdateTransactionRequest carries only the fields being changed. Absent
// fields leave the stored value untouched.
type UpdateTransactionRequest struct {
	PayeeID    *string `json:"payee_id,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
	Amount     *string `json:"amount,omitempty"`
	Date       *string `json:"date,omitempty"`
	Memo       *string `json:"memo,omitempty"`
	Status     *string `json:"status,omitempty"`
}

// =============================================================================
// READ MODELS
// =============================================================================

type AccountRegisterDTO struct {
	Account      AccountDTO       `json:"account"`
	Transactions []TransactionDTO `json:"transactions"`
}

type BudgetSummaryDTO struct {
	Budget   BudgetDTO          `json:"budget"`
	Accounts []AccountDTO       `json:"accounts"`
	Groups   []CategoryGroupDTO `json:"groups"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
