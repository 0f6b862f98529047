package validation

// The raw* types mirror model.AppData with pointer fields so that a missing field
// can be told apart from a zero value.

type rawGrant struct {
	ID            *string  `json:"id" validate:"required"`
	Year          *int     `json:"year" validate:"required"`
	Type          *string  `json:"type" validate:"required,oneof=Purchase 'Catch-Up Purchase' Bonus 'Catch-Up Bonus'"`
	Shares        *float64 `json:"shares" validate:"required,gt=0"`
	Price         *float64 `json:"price" validate:"required,gt=0"`
	VestStart     *string  `json:"vestStart" validate:"required,isodate"`
	VestPeriods   *int     `json:"vestPeriods" validate:"required,gt=0"`
	PassedPeriods *int     `json:"passedPeriods" validate:"required,gte=0"`
}

type rawBaseLoan struct {
	ID        *string  `json:"id" validate:"required"`
	GrantID   *string  `json:"grantId" validate:"required"`
	GrantYear *int     `json:"grantYear" validate:"required"`
	GrantType *string  `json:"grantType" validate:"required,oneof=Purchase 'Catch-Up Purchase' Bonus 'Catch-Up Bonus'"`
	LoanType  *string  `json:"loanType" validate:"required,oneof=Purchase Tax"`
	Amount    *float64 `json:"amount" validate:"required,gt=0"`
	Rate      *float64 `json:"rate" validate:"required,min=0,max=1"`
	Due       *string  `json:"due" validate:"required,isodate"`
}

type rawRateYear struct {
	Year *int     `json:"year" validate:"required"`
	Rate *float64 `json:"rate" validate:"required,min=0,max=1"`
}

type rawRefinanceEvent struct {
	ID              *string  `json:"id" validate:"required"`
	Date            *string  `json:"date" validate:"required,isodate"`
	ReplacesLoanIDs []string `json:"replacesLoanIds" validate:"required"`
	NewRate         *float64 `json:"newRate" validate:"required,min=0,max=1"`
	NewDue          *string  `json:"newDue" validate:"required,isodate"`
}

type rawShareEvent struct {
	ID          *string  `json:"id" validate:"required"`
	Date        *string  `json:"date" validate:"required,isodate"`
	VestedDelta *float64 `json:"vestedDelta" validate:"required"`
	Label       *string  `json:"label" validate:"required"`
}

type rawPricePoint struct {
	Date  *string  `json:"date" validate:"required,isodate"`
	Price *float64 `json:"price" validate:"required,gt=0"`
}

type rawAppData struct {
	SchemaVersion          *int                `json:"schemaVersion" validate:"omitempty,gte=1"`
	CurrentPrice           *float64            `json:"currentPrice" validate:"required,gte=0"`
	AsOfDate               *string             `json:"asOfDate" validate:"required,isodate"`
	Grants                 []rawGrant          `json:"grants" validate:"required,dive"`
	BaseLoans              []rawBaseLoan       `json:"baseLoans" validate:"required,dive"`
	RatesByYear            []rawRateYear       `json:"ratesByYear" validate:"required,dive"`
	RefinanceEvents        []rawRefinanceEvent `json:"refinanceEvents" validate:"required,dive"`
	ShareEvents            []rawShareEvent     `json:"shareEvents" validate:"required,dive"`
	PriceHistory           []rawPricePoint     `json:"priceHistory" validate:"required,dive"`
	NotificationPreference *string             `json:"notificationPreference" validate:"omitempty,oneof=granted denied pending"`
}
