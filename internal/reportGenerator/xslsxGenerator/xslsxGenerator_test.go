package xslsxGenerator

import (
	"bytes"
	"context"
	"testing"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerate(t *testing.T) {
	report := model.Report{
		Dashboard: model.Dashboard{
			AsOfDate:     "2025-03-01",
			CurrentPrice: 20,
			Summary: model.PortfolioSummary{
				CurrentShares:        decimal.NewFromInt(200),
				PortfolioValue:       decimal.NewFromInt(4000),
				TotalLoanBalance:     decimal.NewFromInt(1100),
				NetValue:             decimal.NewFromInt(2900),
				TotalAccruedInterest: decimal.NewFromInt(100),
				VestedShares:         decimal.NewFromInt(550),
				UnvestedShares:       decimal.NewFromInt(750),
			},
			Loans: []model.ComputedLoan{
				{Label: "2020 Purchase Purchase loan", Kind: model.KindBase, OriginYear: 2020, Amount: decimal.NewFromInt(1000), Rate: decimal.NewFromFloat(0.05), Due: "2022-07-15"},
				{Label: "2020 Purchase Purchase interest 2021", Kind: model.KindInterest, OriginYear: 2021, Amount: decimal.NewFromInt(50), Rate: decimal.NewFromFloat(0.05), Due: "2022-07-15", Superseded: true, RefinanceEventID: "r1"},
			},
		},
		Upcoming: []model.UpcomingEvent{
			{Date: "2025-07-15", Label: "Annual interest compounding date", Type: model.EventInterestCompound},
		},
	}

	fileBytes, ext, err := New().Generate(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)

	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, loansSheet, upcomingSheet}, f.GetSheetList())

	netValue, err := f.GetCellValue(summarySheet, "B7", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "2900", netValue)

	label, err := f.GetCellValue(loansSheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "2020 Purchase Purchase interest 2021", label)

	superseded, err := f.GetCellValue(loansSheet, "G3")
	require.NoError(t, err)
	assert.Equal(t, "TRUE", superseded)

	rows, err := f.GetRows(upcomingSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2025-07-15", "interest-compound", "Annual interest compounding date"}, rows[1])
}

func TestGenerate_Empty(t *testing.T) {
	fileBytes, _, err := New().Generate(context.Background(), model.Report{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(loansSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
