package portfolio

import (
	"github.com/KotFed0t/grant_tracker_bot/internal/ledger"
	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/shopspring/decimal"
)

// ComputeCurrentShares sums the explicit share events. Grant schedules are not included.
func ComputeCurrentShares(data model.AppData) decimal.Decimal {
	total := decimal.Zero
	for _, ev := range data.ShareEvents {
		total = total.Add(decimal.NewFromFloat(ev.VestedDelta))
	}
	return total
}

// ComputeTotalLoanBalance sums every line not superseded by a refinance.
func ComputeTotalLoanBalance(loans []model.ComputedLoan) decimal.Decimal {
	total := decimal.Zero
	for _, l := range loans {
		if !l.Superseded {
			total = total.Add(l.Amount)
		}
	}
	return total
}

func ComputePortfolioSummary(data model.AppData, loans []model.ComputedLoan) model.PortfolioSummary {
	s := model.PortfolioSummary{
		CurrentShares:        ComputeCurrentShares(data),
		TotalLoanBalance:     ComputeTotalLoanBalance(loans),
		TotalAccruedInterest: decimal.Zero,
		VestedShares:         decimal.Zero,
		UnvestedShares:       decimal.Zero,
	}
	s.PortfolioValue = s.CurrentShares.Mul(decimal.NewFromFloat(data.CurrentPrice))
	s.NetValue = s.PortfolioValue.Sub(s.TotalLoanBalance)

	for _, l := range loans {
		if !l.Superseded && l.Kind == model.KindInterest {
			s.TotalAccruedInterest = s.TotalAccruedInterest.Add(l.Amount)
		}
	}

	for _, g := range data.Grants {
		vested := vestedPortion(g)
		s.VestedShares = s.VestedShares.Add(vested)
		s.UnvestedShares = s.UnvestedShares.Add(decimal.NewFromFloat(g.Shares).Sub(vested))
	}

	return s
}

// vestedPortion projects the vested shares of a grant from its schedule.
// passedPeriods is clamped to [0, vestPeriods].
func vestedPortion(g model.Grant) decimal.Decimal {
	if g.VestPeriods <= 0 {
		return decimal.Zero
	}
	passed := min(max(g.PassedPeriods, 0), g.VestPeriods)
	return decimal.NewFromFloat(g.Shares).
		Mul(decimal.NewFromInt(int64(passed))).
		Div(decimal.NewFromInt(int64(g.VestPeriods)))
}

// BuildDashboard derives everything the dashboard shows from the document.
func BuildDashboard(data model.AppData) model.Dashboard {
	loans := ledger.ComputeAllLoans(data)
	return model.Dashboard{
		AsOfDate:     data.AsOfDate,
		CurrentPrice: data.CurrentPrice,
		Summary:      ComputePortfolioSummary(data, loans),
		Loans:        loans,
		LoanChart:    BuildLoanChart(loans),
		VestingChart: BuildVestingChart(data.Grants),
		PriceHistory: model.SortedPriceHistory(data),
	}
}
