/*
scenarios_test.go - Scenario loader tests

Each loader builds a full budget through the public engine operations, so
these tests double as end-to-end consistency checks: after loading, every
aggregate the summary exposes must line up with the transactions posted.
*/
package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/api"
	"github.com/warp/budget-engine/ledger"
)

func loadScenario(t *testing.T, srv *httptest.Server, id string) api.BudgetSummaryDTO {
	t.Helper()
	var summary api.BudgetSummaryDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load", map[string]string{
		"scenario_id": id,
	}, &summary)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return summary
}

func TestScenarios_List(t *testing.T) {
	srv := newTestServer(t)

	var list []api.ScenarioDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/scenarios", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 3)
	assert.Equal(t, "fresh-start", list[0].ID)
}

func TestScenarios_Load_Unknown_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load", map[string]string{
		"scenario_id": "nope",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScenarios_FreshStart_AggregatesLineUp(t *testing.T) {
	// GIVEN: The fresh-start scenario
	// WHEN: Loading it
	// THEN: toBeBudgeted and the account balance reflect the seeded
	//       inflow, budgeting, and spending

	srv := newTestServer(t)
	summary := loadScenario(t, srv, "fresh-start")

	// 2500 opening inflow, 400+150+1200 budgeted away
	assert.Equal(t, "750.00", summary.Budget.ToBeBudgeted)

	require.Len(t, summary.Accounts, 1)
	// 2500 - 62.50 - 24.00 - 1200.00
	assert.Equal(t, "1213.50", summary.Accounts[0].Balance)
}

func TestScenarios_CreditCard_MirrorVisible(t *testing.T) {
	// GIVEN: The credit-card scenario
	// WHEN: Loading it
	// THEN: The card carries its purchases minus the payment, and the
	//       locked payment group holds the card's tracking category

	srv := newTestServer(t)
	summary := loadScenario(t, srv, "credit-card")

	var card api.AccountDTO
	for _, a := range summary.Accounts {
		if a.Type == "credit_card" {
			card = a
		}
	}
	require.NotEmpty(t, card.ID)
	// -82.00 - 36.00 + 50.00 payment
	assert.Equal(t, "-68.00", card.Balance)
	assert.True(t, card.OnBudget, "credit cards are on budget")

	var paymentGroup *api.CategoryGroupDTO
	for i := range summary.Groups {
		if summary.Groups[i].Name == ledger.GroupNameCreditCards {
			paymentGroup = &summary.Groups[i]
		}
	}
	require.NotNil(t, paymentGroup)
	assert.True(t, paymentGroup.Locked)
	require.Len(t, paymentGroup.Categories, 1)
	assert.Equal(t, card.ID, paymentGroup.Categories[0].TrackingAccountID)
}

func TestScenarios_SavingsTransfers_BalancesLineUp(t *testing.T) {
	// GIVEN: The savings-transfers scenario
	// WHEN: Loading it
	// THEN: Transfer halves moved money between accounts without
	//       touching toBeBudgeted beyond the budgeting action

	srv := newTestServer(t)
	summary := loadScenario(t, srv, "savings-transfers")

	byName := map[string]api.AccountDTO{}
	for _, a := range summary.Accounts {
		byName[a.Name] = a
	}

	// 1500 - 250 to savings - 500 to brokerage
	assert.Equal(t, "750.00", byName["Checking"].Balance)
	// 500 opening + 250 transferred in
	assert.Equal(t, "750.00", byName["Savings"].Balance)
	// 8000 opening + 500 transferred in; off budget
	assert.Equal(t, "8500.00", byName["Brokerage"].Balance)
	assert.False(t, byName["Brokerage"].OnBudget)

	// 1500 + 500 opening inflows, 500 budgeted to Investing. The
	// transfers themselves move nothing in the budget.
	assert.Equal(t, "1500.00", summary.Budget.ToBeBudgeted)
}
