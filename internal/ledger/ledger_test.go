package ledger

import (
	"testing"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchaseLoan() model.BaseLoan {
	return model.BaseLoan{
		ID:        "l1",
		GrantID:   "g1",
		GrantYear: 2020,
		GrantType: model.GrantTypePurchase,
		LoanType:  model.LoanTypePurchase,
		Amount:    1000,
		Rate:      0.05,
		Due:       "2023-07-15",
	}
}

func emptyData() model.AppData {
	return model.AppData{
		Grants:          []model.Grant{},
		BaseLoans:       []model.BaseLoan{},
		RatesByYear:     []model.RateYear{},
		RefinanceEvents: []model.RefinanceEvent{},
		ShareEvents:     []model.ShareEvent{},
		PriceHistory:    []model.PricePoint{},
	}
}

func TestComputeInterestLoans(t *testing.T) {
	tests := []struct {
		name       string
		due        string
		rates      []model.RateYear
		wantYears  []int
		wantAmount []int64
	}{
		{
			name:       "fallback to loan rate",
			due:        "2023-07-15",
			wantYears:  []int{2021, 2022, 2023},
			wantAmount: []int64{50, 50, 50},
		},
		{
			name:       "year rate overrides loan rate",
			due:        "2022-01-01",
			rates:      []model.RateYear{{Year: 2022, Rate: 0.03}},
			wantYears:  []int{2021, 2022},
			wantAmount: []int64{50, 30},
		},
		{
			name: "due in grant year",
			due:  "2020-12-31",
		},
		{
			name: "due before grant year",
			due:  "2019-06-01",
		},
		{
			name: "unparseable due",
			due:  "someday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := purchaseLoan()
			loan.Due = tt.due

			got := ComputeInterestLoans(loan, tt.rates)
			require.Len(t, got, len(tt.wantYears))
			for i, l := range got {
				assert.Equal(t, tt.wantYears[i], l.OriginYear)
				assert.True(t, l.Amount.Equal(decimal.NewFromInt(tt.wantAmount[i])), "amount %s", l.Amount)
				assert.Equal(t, model.KindInterest, l.Kind)
				assert.Equal(t, "l1", l.SourceBaseLoanID)
				assert.Equal(t, tt.due, l.Due)
				assert.False(t, l.Superseded)
			}
		})
	}
}

func TestComputeInterestLoans_SimpleInterest(t *testing.T) {
	loan := purchaseLoan()
	loan.Due = "2030-01-01"

	got := ComputeInterestLoans(loan, nil)
	require.Len(t, got, 10)
	for _, l := range got {
		assert.True(t, l.Amount.Equal(decimal.NewFromInt(50)))
	}
}

func TestComputeAllLoans_Empty(t *testing.T) {
	assert.Empty(t, ComputeAllLoans(emptyData()))
}

func TestComputeAllLoans_BaseAndInterest(t *testing.T) {
	data := emptyData()
	data.BaseLoans = append(data.BaseLoans, purchaseLoan())

	got := ComputeAllLoans(data)
	require.Len(t, got, 4)

	assert.Equal(t, model.KindBase, got[0].Kind)
	assert.Equal(t, 2020, got[0].OriginYear)
	assert.Equal(t, "2020 Purchase Purchase loan", got[0].Label)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(1000)))

	for i, year := range []int{2021, 2022, 2023} {
		assert.Equal(t, year, got[i+1].OriginYear)
		assert.Equal(t, model.KindInterest, got[i+1].Kind)
	}
}

func TestComputeAllLoans_SortedByGrantThenOriginYear(t *testing.T) {
	late := purchaseLoan()
	late.ID = "late"
	late.GrantYear = 2022
	late.Due = "2023-01-01"

	early := purchaseLoan()
	early.ID = "early"
	early.GrantYear = 2019
	early.Due = "2020-01-01"

	data := emptyData()
	data.BaseLoans = []model.BaseLoan{late, early}

	got := ComputeAllLoans(data)
	require.Len(t, got, 4)
	assert.Equal(t, "early", got[0].ID)
	assert.Equal(t, "early-interest-2020", got[1].ID)
	assert.Equal(t, "late", got[2].ID)
	assert.Equal(t, "late-interest-2023", got[3].ID)
}

func TestComputeAllLoans_Refinance(t *testing.T) {
	data := emptyData()
	data.BaseLoans = append(data.BaseLoans, purchaseLoan())
	data.RefinanceEvents = append(data.RefinanceEvents, model.RefinanceEvent{
		ID:              "r1",
		Date:            "2024-02-01",
		ReplacesLoanIDs: []string{"l1", "missing"},
		NewRate:         0.02,
		NewDue:          "2028-07-15",
	})

	got := ComputeAllLoans(data)
	require.Len(t, got, 5)

	var replacement model.ComputedLoan
	for _, l := range got {
		if l.Kind == model.KindRefinanceReplacement {
			replacement = l
			continue
		}
		assert.True(t, l.Superseded, l.ID)
		assert.Equal(t, "r1", l.RefinanceEventID)
	}

	assert.Equal(t, "r1", replacement.ID)
	assert.True(t, replacement.Amount.Equal(decimal.NewFromInt(1150)), "amount %s", replacement.Amount)
	assert.True(t, replacement.Rate.Equal(decimal.NewFromFloat(0.02)))
	assert.Equal(t, "2028-07-15", replacement.Due)
	assert.Equal(t, 2024, replacement.OriginYear)
	assert.Equal(t, 2020, replacement.GrantYear)
	assert.Equal(t, model.GrantTypePurchase, replacement.GrantType)
	assert.False(t, replacement.Superseded)
	assert.Equal(t, got[len(got)-1], replacement)
}

func TestComputeAllLoans_ChainedRefinance(t *testing.T) {
	data := emptyData()
	data.BaseLoans = append(data.BaseLoans, purchaseLoan())
	// listed out of order, applied by date
	data.RefinanceEvents = []model.RefinanceEvent{
		{ID: "r2", Date: "2025-03-01", ReplacesLoanIDs: []string{"r1"}, NewRate: 0.01, NewDue: "2030-01-01"},
		{ID: "r1", Date: "2024-02-01", ReplacesLoanIDs: []string{"l1"}, NewRate: 0.02, NewDue: "2028-07-15"},
	}

	got := ComputeAllLoans(data)
	require.Len(t, got, 6)

	active := make([]model.ComputedLoan, 0)
	for _, l := range got {
		if !l.Superseded {
			active = append(active, l)
		}
	}
	require.Len(t, active, 1)
	assert.Equal(t, "r2", active[0].ID)
	assert.True(t, active[0].Amount.Equal(decimal.NewFromInt(1150)))
	assert.Equal(t, 2025, active[0].OriginYear)
}

func TestComputeAllLoans_UnknownRefinanceIsNoop(t *testing.T) {
	data := emptyData()
	data.BaseLoans = append(data.BaseLoans, purchaseLoan())
	data.RefinanceEvents = append(data.RefinanceEvents, model.RefinanceEvent{
		ID: "r1", Date: "2024-02-01", ReplacesLoanIDs: []string{"nope"}, NewRate: 0.02, NewDue: "2028-07-15",
	})

	got := ComputeAllLoans(data)
	require.Len(t, got, 4)
	for _, l := range got {
		assert.False(t, l.Superseded)
	}
}

func TestComputeAllLoans_Deterministic(t *testing.T) {
	data := emptyData()
	data.BaseLoans = append(data.BaseLoans, purchaseLoan())
	data.RatesByYear = append(data.RatesByYear, model.RateYear{Year: 2022, Rate: 0.041})

	assert.Equal(t, ComputeAllLoans(data), ComputeAllLoans(data))
}
