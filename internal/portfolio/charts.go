package portfolio

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/shopspring/decimal"
)

// BuildLoanChart groups active ledger lines by grant, splitting principal from interest.
// Groups keep the order they first appear in the ledger.
func BuildLoanChart(loans []model.ComputedLoan) []model.LoanChartPoint {
	res := make([]model.LoanChartPoint, 0)
	index := make(map[string]int)

	for _, l := range loans {
		if l.Superseded {
			continue
		}
		name := fmt.Sprintf("%d %s", l.GrantYear, l.GrantType)
		i, ok := index[name]
		if !ok {
			i = len(res)
			index[name] = i
			res = append(res, model.LoanChartPoint{Name: name, Balance: decimal.Zero, Interest: decimal.Zero})
		}
		if l.Kind == model.KindInterest {
			res[i].Interest = res[i].Interest.Add(l.Amount)
		} else {
			res[i].Balance = res[i].Balance.Add(l.Amount)
		}
	}
	return res
}

// BuildVestingChart totals projected vested and unvested shares per grant year.
func BuildVestingChart(grants []model.Grant) []model.VestingChartPoint {
	byYear := make(map[int]*model.VestingChartPoint)
	for _, g := range grants {
		p, ok := byYear[g.Year]
		if !ok {
			p = &model.VestingChartPoint{Year: g.Year, VestedShares: decimal.Zero, UnvestedShares: decimal.Zero}
			byYear[g.Year] = p
		}
		vested := vestedPortion(g)
		p.VestedShares = p.VestedShares.Add(vested)
		p.UnvestedShares = p.UnvestedShares.Add(decimal.NewFromFloat(g.Shares).Sub(vested))
	}

	res := make([]model.VestingChartPoint, 0, len(byYear))
	for _, p := range byYear {
		res = append(res, *p)
	}
	slices.SortFunc(res, func(a, b model.VestingChartPoint) int { return cmp.Compare(a.Year, b.Year) })
	return res
}
