package model

import "github.com/shopspring/decimal"

type ComputedLoanKind string

const (
	KindBase                 ComputedLoanKind = "base"
	KindInterest             ComputedLoanKind = "interest"
	KindRefinanceReplacement ComputedLoanKind = "refinance-replacement"
)

// ComputedLoan is one line of the derived loan ledger. It is regenerated from AppData on every read.
type ComputedLoan struct {
	ID        string
	Label     string
	GrantYear int
	GrantType GrantType
	LoanType  LoanType
	// OriginYear is the year this specific ledger line originates.
	OriginYear int
	Amount     decimal.Decimal
	Rate       decimal.Decimal
	Due        string
	Kind       ComputedLoanKind
	Superseded bool
	// RefinanceEventID is set on replacement lines and on lines superseded by a refinance.
	RefinanceEventID string
	// SourceBaseLoanID is set on interest lines.
	SourceBaseLoanID string
}

// PortfolioSummary holds the dashboard figures.
//
// CurrentShares is event-sourced (sum of ShareEvent deltas) and powers the valuation.
// VestedShares/UnvestedShares are projected from grant schedules and only power the
// vesting progress figure.
type PortfolioSummary struct {
	CurrentShares        decimal.Decimal
	PortfolioValue       decimal.Decimal
	TotalLoanBalance     decimal.Decimal
	NetValue             decimal.Decimal
	TotalAccruedInterest decimal.Decimal
	VestedShares         decimal.Decimal
	UnvestedShares       decimal.Decimal
}

type LoanChartPoint struct {
	Name     string
	Balance  decimal.Decimal
	Interest decimal.Decimal
}

type VestingChartPoint struct {
	Year           int
	VestedShares   decimal.Decimal
	UnvestedShares decimal.Decimal
}

type Dashboard struct {
	AsOfDate     string
	CurrentPrice float64
	Summary      PortfolioSummary
	Loans        []ComputedLoan
	LoanChart    []LoanChartPoint
	VestingChart []VestingChartPoint
	PriceHistory []PricePoint
}
