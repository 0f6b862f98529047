// Package ledger derives the full loan ledger from the base loans a user entered:
// yearly simple-interest lines and refinance supersession.
package ledger

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/shopspring/decimal"
)

// ComputeInterestLoans returns one interest line per year in (grantYear, year(due)].
// Each line is principal × the rate of its year, interest does not compound.
func ComputeInterestLoans(loan model.BaseLoan, rates []model.RateYear) []model.ComputedLoan {
	dueYear, ok := model.YearOf(loan.Due)
	if !ok || dueYear <= loan.GrantYear {
		return []model.ComputedLoan{}
	}

	principal := decimal.NewFromFloat(loan.Amount)
	res := make([]model.ComputedLoan, 0, dueYear-loan.GrantYear)
	for y := loan.GrantYear + 1; y <= dueYear; y++ {
		rate := effectiveRate(y, loan.Rate, rates)
		res = append(res, model.ComputedLoan{
			ID:               fmt.Sprintf("%s-interest-%d", loan.ID, y),
			Label:            fmt.Sprintf("%d %s %s interest %d", loan.GrantYear, loan.GrantType, loan.LoanType, y),
			GrantYear:        loan.GrantYear,
			GrantType:        loan.GrantType,
			LoanType:         loan.LoanType,
			OriginYear:       y,
			Amount:           principal.Mul(rate),
			Rate:             rate,
			Due:              loan.Due,
			Kind:             model.KindInterest,
			SourceBaseLoanID: loan.ID,
		})
	}
	return res
}

// effectiveRate is the rate offered for the year, or the loan's own rate when the year has none.
func effectiveRate(year int, fallback float64, rates []model.RateYear) decimal.Decimal {
	rate := fallback
	for _, r := range rates {
		if r.Year == year {
			rate = r.Rate
		}
	}
	return decimal.NewFromFloat(rate)
}

// ComputeAllLoans expands every base loan, applies refinance events in date order and
// sorts the ledger by grant year then origin year.
func ComputeAllLoans(data model.AppData) []model.ComputedLoan {
	loans := make([]model.ComputedLoan, 0, len(data.BaseLoans))
	for _, bl := range data.BaseLoans {
		loans = append(loans, baseLine(bl))
		loans = append(loans, ComputeInterestLoans(bl, data.RatesByYear)...)
	}

	for _, ev := range chronological(data.RefinanceEvents) {
		loans = applyRefinance(loans, ev)
	}

	slices.SortStableFunc(loans, func(a, b model.ComputedLoan) int {
		return cmp.Or(cmp.Compare(a.GrantYear, b.GrantYear), cmp.Compare(a.OriginYear, b.OriginYear))
	})
	return loans
}

func baseLine(bl model.BaseLoan) model.ComputedLoan {
	return model.ComputedLoan{
		ID:         bl.ID,
		Label:      fmt.Sprintf("%d %s %s loan", bl.GrantYear, bl.GrantType, bl.LoanType),
		GrantYear:  bl.GrantYear,
		GrantType:  bl.GrantType,
		LoanType:   bl.LoanType,
		OriginYear: bl.GrantYear,
		Amount:     decimal.NewFromFloat(bl.Amount),
		Rate:       decimal.NewFromFloat(bl.Rate),
		Due:        bl.Due,
		Kind:       model.KindBase,
	}
}

func chronological(events []model.RefinanceEvent) []model.RefinanceEvent {
	res := append([]model.RefinanceEvent{}, events...)
	slices.SortStableFunc(res, func(a, b model.RefinanceEvent) int { return model.CompareDates(a.Date, b.Date) })
	return res
}

// applyRefinance supersedes the lines referenced by ev and appends the consolidated loan.
// Lines already superseded are left alone, unknown ids are ignored.
func applyRefinance(loans []model.ComputedLoan, ev model.RefinanceEvent) []model.ComputedLoan {
	total := decimal.Zero
	first := -1
	replaced := 0

	for _, id := range ev.ReplacesLoanIDs {
		for i := range loans {
			if loans[i].Superseded || !references(loans[i], id) {
				continue
			}
			loans[i].Superseded = true
			loans[i].RefinanceEventID = ev.ID
			total = total.Add(loans[i].Amount)
			replaced++
			if first < 0 {
				first = i
			}
		}
	}

	if first < 0 {
		return loans
	}

	src := loans[first]
	originYear, ok := model.YearOf(ev.Date)
	if !ok {
		originYear = src.OriginYear
	}

	return append(loans, model.ComputedLoan{
		ID:               ev.ID,
		Label:            fmt.Sprintf("%d %s %s refinanced %s (%d lines)", src.GrantYear, src.GrantType, src.LoanType, ev.Date, replaced),
		GrantYear:        src.GrantYear,
		GrantType:        src.GrantType,
		LoanType:         src.LoanType,
		OriginYear:       originYear,
		Amount:           total,
		Rate:             decimal.NewFromFloat(ev.NewRate),
		Due:              ev.NewDue,
		Kind:             model.KindRefinanceReplacement,
		RefinanceEventID: ev.ID,
	})
}

// references reports whether a refinance listing id targets the line.
// Interest lines follow their base loan.
func references(l model.ComputedLoan, id string) bool {
	if l.Kind == model.KindInterest {
		return l.SourceBaseLoanID == id
	}
	return l.ID == id
}
