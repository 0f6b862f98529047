package model

import (
	"cmp"
	"slices"
	"time"
)

// The functions below are the prev -> next transforms applied by the tracker service.
// None of them mutates prev.

// ApplyPriceUpdate sets the current price as of the given day and records it in the
// price history, replacing an existing point for the same day.
func ApplyPriceUpdate(prev AppData, price float64, on time.Time) AppData {
	next := prev.Clone()
	day := FormatDate(on)
	next.CurrentPrice = price
	next.AsOfDate = day
	next.PriceHistory = slices.DeleteFunc(next.PriceHistory, func(p PricePoint) bool { return p.Date == day })
	next.PriceHistory = append(next.PriceHistory, PricePoint{Date: day, Price: price})
	return next
}

// UpsertRate stores the rate for its year, last write wins. Rates stay sorted by year.
func UpsertRate(prev AppData, rate RateYear) AppData {
	next := prev.Clone()
	next.RatesByYear = slices.DeleteFunc(next.RatesByYear, func(r RateYear) bool { return r.Year == rate.Year })
	next.RatesByYear = append(next.RatesByYear, rate)
	slices.SortStableFunc(next.RatesByYear, func(a, b RateYear) int { return cmp.Compare(a.Year, b.Year) })
	return next
}

func DeleteRate(prev AppData, year int) AppData {
	next := prev.Clone()
	next.RatesByYear = slices.DeleteFunc(next.RatesByYear, func(r RateYear) bool { return r.Year == year })
	return next
}

func AddShareEvent(prev AppData, ev ShareEvent) AppData {
	next := prev.Clone()
	next.ShareEvents = append(next.ShareEvents, ev)
	return next
}

func AddGrant(prev AppData, g Grant) AppData {
	next := prev.Clone()
	next.Grants = append(next.Grants, g)
	return next
}

// DeleteGrant removes the grant and every base loan funding it.
func DeleteGrant(prev AppData, grantID string) AppData {
	next := prev.Clone()
	next.Grants = slices.DeleteFunc(next.Grants, func(g Grant) bool { return g.ID == grantID })
	next.BaseLoans = slices.DeleteFunc(next.BaseLoans, func(l BaseLoan) bool { return l.GrantID == grantID })
	return next
}

func AddBaseLoan(prev AppData, l BaseLoan) AppData {
	next := prev.Clone()
	next.BaseLoans = append(next.BaseLoans, l)
	return next
}

func DeleteBaseLoan(prev AppData, loanID string) AppData {
	next := prev.Clone()
	next.BaseLoans = slices.DeleteFunc(next.BaseLoans, func(l BaseLoan) bool { return l.ID == loanID })
	return next
}

func AddRefinanceEvent(prev AppData, ev RefinanceEvent) AppData {
	next := prev.Clone()
	ev.ReplacesLoanIDs = append([]string{}, ev.ReplacesLoanIDs...)
	next.RefinanceEvents = append(next.RefinanceEvents, ev)
	return next
}

func SetNotificationPreference(prev AppData, pref NotificationPreference) AppData {
	next := prev.Clone()
	next.NotificationPreference = &pref
	return next
}

// SortedPriceHistory returns the price history ordered by date.
func SortedPriceHistory(d AppData) []PricePoint {
	res := append([]PricePoint{}, d.PriceHistory...)
	slices.SortStableFunc(res, func(a, b PricePoint) int { return CompareDates(a.Date, b.Date) })
	return res
}
