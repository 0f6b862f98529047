package portfolio

import (
	"testing"
	"time"

	"github.com/KotFed0t/grant_tracker_bot/internal/ledger"
	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData() model.AppData {
	data := model.EmptyAppData(mustParse("2025-03-01"))
	data.CurrentPrice = 20
	data.Grants = []model.Grant{
		{ID: "g1", Year: 2020, Type: model.GrantTypePurchase, Shares: 1000, Price: 10, VestStart: "2021-03-01", VestPeriods: 4, PassedPeriods: 1},
		{ID: "g2", Year: 2021, Type: model.GrantTypeBonus, Shares: 300, Price: 12, VestStart: "2022-03-01", VestPeriods: 3, PassedPeriods: 3},
	}
	data.BaseLoans = []model.BaseLoan{
		{ID: "l1", GrantID: "g1", GrantYear: 2020, GrantType: model.GrantTypePurchase, LoanType: model.LoanTypePurchase, Amount: 1000, Rate: 0.05, Due: "2022-07-15"},
	}
	data.ShareEvents = []model.ShareEvent{
		{ID: "s1", Date: "2021-03-01", VestedDelta: 250, Label: "vest"},
		{ID: "s2", Date: "2022-03-01", VestedDelta: -50, Label: "repay"},
	}
	return data
}

func mustParse(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeCurrentShares(t *testing.T) {
	got := ComputeCurrentShares(sampleData())
	assert.True(t, got.Equal(decimal.NewFromInt(200)), "got %s", got)
}

func TestComputeTotalLoanBalance(t *testing.T) {
	loans := []model.ComputedLoan{
		{Amount: decimal.NewFromInt(100)},
		{Amount: decimal.NewFromInt(40), Superseded: true},
		{Amount: decimal.NewFromInt(5), Kind: model.KindInterest},
	}
	assert.True(t, ComputeTotalLoanBalance(loans).Equal(decimal.NewFromInt(105)))
}

func TestComputePortfolioSummary(t *testing.T) {
	data := sampleData()
	s := ComputePortfolioSummary(data, ledger.ComputeAllLoans(data))

	tests := []struct {
		name string
		got  decimal.Decimal
		want decimal.Decimal
	}{
		{"current shares", s.CurrentShares, decimal.NewFromInt(200)},
		{"portfolio value", s.PortfolioValue, decimal.NewFromInt(4000)},
		{"loan balance", s.TotalLoanBalance, decimal.NewFromInt(1100)},
		{"net value", s.NetValue, decimal.NewFromInt(2900)},
		{"accrued interest", s.TotalAccruedInterest, decimal.NewFromInt(100)},
		{"vested shares", s.VestedShares, decimal.NewFromInt(550)},
		{"unvested shares", s.UnvestedShares, decimal.NewFromInt(750)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.got.Equal(tt.want), "got %s want %s", tt.got, tt.want)
		})
	}
}

func TestComputePortfolioSummary_Empty(t *testing.T) {
	data := model.EmptyAppData(mustParse("2025-01-01"))
	s := ComputePortfolioSummary(data, ledger.ComputeAllLoans(data))

	for _, v := range []decimal.Decimal{
		s.CurrentShares, s.PortfolioValue, s.TotalLoanBalance, s.NetValue,
		s.TotalAccruedInterest, s.VestedShares, s.UnvestedShares,
	} {
		assert.True(t, v.IsZero())
	}
}

func TestComputePortfolioSummary_SupersededInterestExcluded(t *testing.T) {
	data := sampleData()
	data.RefinanceEvents = []model.RefinanceEvent{
		{ID: "r1", Date: "2023-01-10", ReplacesLoanIDs: []string{"l1"}, NewRate: 0.02, NewDue: "2026-07-15"},
	}
	s := ComputePortfolioSummary(data, ledger.ComputeAllLoans(data))

	assert.True(t, s.TotalAccruedInterest.IsZero())
	assert.True(t, s.TotalLoanBalance.Equal(decimal.NewFromInt(1100)))
}

func TestVestedPortion_Clamped(t *testing.T) {
	tests := []struct {
		name  string
		grant model.Grant
		want  int64
	}{
		{"over vested", model.Grant{Shares: 90, VestPeriods: 3, PassedPeriods: 7}, 90},
		{"negative passed", model.Grant{Shares: 90, VestPeriods: 3, PassedPeriods: -1}, 0},
		{"no periods", model.Grant{Shares: 90, VestPeriods: 0, PassedPeriods: 0}, 0},
		{"partial", model.Grant{Shares: 90, VestPeriods: 3, PassedPeriods: 2}, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, vestedPortion(tt.grant).Equal(decimal.NewFromInt(tt.want)))
		})
	}
}

func TestBuildDashboard(t *testing.T) {
	data := sampleData()
	data.PriceHistory = []model.PricePoint{{Date: "2025-02-01", Price: 19}, {Date: "2025-01-01", Price: 18}}

	d := BuildDashboard(data)

	assert.Len(t, d.Loans, 3)
	require.Len(t, d.LoanChart, 1)
	assert.Equal(t, "2020 Purchase", d.LoanChart[0].Name)
	assert.True(t, d.LoanChart[0].Balance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, d.LoanChart[0].Interest.Equal(decimal.NewFromInt(100)))

	require.Len(t, d.VestingChart, 2)
	assert.Equal(t, 2020, d.VestingChart[0].Year)
	assert.True(t, d.VestingChart[0].VestedShares.Equal(decimal.NewFromInt(250)))
	assert.True(t, d.VestingChart[1].UnvestedShares.IsZero())

	require.Len(t, d.PriceHistory, 2)
	assert.Equal(t, "2025-01-01", d.PriceHistory[0].Date)
}
