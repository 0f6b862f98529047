package model

import "time"

type GrantType string

const (
	GrantTypePurchase        GrantType = "Purchase"
	GrantTypeCatchUpPurchase GrantType = "Catch-Up Purchase"
	GrantTypeBonus           GrantType = "Bonus"
	GrantTypeCatchUpBonus    GrantType = "Catch-Up Bonus"
)

type LoanType string

const (
	LoanTypePurchase LoanType = "Purchase"
	LoanTypeTax      LoanType = "Tax"
)

type NotificationPreference string

const (
	NotificationGranted NotificationPreference = "granted"
	NotificationDenied  NotificationPreference = "denied"
	NotificationPending NotificationPreference = "pending"
)

// Grant is one award of shares vesting linearly, one period per year starting at VestStart.
type Grant struct {
	ID            string    `json:"id"`
	Year          int       `json:"year"`
	Type          GrantType `json:"type"`
	Shares        float64   `json:"shares"`
	Price         float64   `json:"price"`
	VestStart     string    `json:"vestStart"`
	VestPeriods   int       `json:"vestPeriods"`
	PassedPeriods int       `json:"passedPeriods"`
}

// BaseLoan is an originally issued principal or tax loan. Interest loans are never stored,
// they are derived by the ledger.
type BaseLoan struct {
	ID        string    `json:"id"`
	GrantID   string    `json:"grantId"`
	GrantYear int       `json:"grantYear"`
	GrantType GrantType `json:"grantType"`
	LoanType  LoanType  `json:"loanType"`
	Amount    float64   `json:"amount"`
	Rate      float64   `json:"rate"`
	Due       string    `json:"due"`
}

type RateYear struct {
	Year int     `json:"year"`
	Rate float64 `json:"rate"`
}

// RefinanceEvent supersedes the referenced loans with one consolidated loan.
type RefinanceEvent struct {
	ID              string   `json:"id"`
	Date            string   `json:"date"`
	ReplacesLoanIDs []string `json:"replacesLoanIds"`
	NewRate         float64  `json:"newRate"`
	NewDue          string   `json:"newDue"`
}

// ShareEvent is an explicit adjustment of the vested share count.
// Positive = vested/received, negative = repaid/exchanged.
type ShareEvent struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	VestedDelta float64 `json:"vestedDelta"`
	Label       string  `json:"label"`
}

type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// AppData is the root document stored in the user's Drive appDataFolder.
type AppData struct {
	SchemaVersion          int                     `json:"schemaVersion"`
	CurrentPrice           float64                 `json:"currentPrice"`
	AsOfDate               string                  `json:"asOfDate"`
	Grants                 []Grant                 `json:"grants"`
	BaseLoans              []BaseLoan              `json:"baseLoans"`
	RatesByYear            []RateYear              `json:"ratesByYear"`
	RefinanceEvents        []RefinanceEvent        `json:"refinanceEvents"`
	ShareEvents            []ShareEvent            `json:"shareEvents"`
	PriceHistory           []PricePoint            `json:"priceHistory"`
	NotificationPreference *NotificationPreference `json:"notificationPreference,omitempty"`
}

// EmptyAppData returns the document a user starts with when no remote file exists yet.
func EmptyAppData(now time.Time) AppData {
	return AppData{
		SchemaVersion:   1,
		AsOfDate:        FormatDate(now),
		Grants:          []Grant{},
		BaseLoans:       []BaseLoan{},
		RatesByYear:     []RateYear{},
		RefinanceEvents: []RefinanceEvent{},
		ShareEvents:     []ShareEvent{},
		PriceHistory:    []PricePoint{},
	}
}

// NotificationsGranted reports whether the user allowed notifications.
func (d AppData) NotificationsGranted() bool {
	return d.NotificationPreference != nil && *d.NotificationPreference == NotificationGranted
}

// Clone returns a copy that shares no slices with d.
func (d AppData) Clone() AppData {
	c := d
	c.Grants = append([]Grant{}, d.Grants...)
	c.BaseLoans = append([]BaseLoan{}, d.BaseLoans...)
	c.RatesByYear = append([]RateYear{}, d.RatesByYear...)
	c.RefinanceEvents = make([]RefinanceEvent, 0, len(d.RefinanceEvents))
	for _, re := range d.RefinanceEvents {
		re.ReplacesLoanIDs = append([]string{}, re.ReplacesLoanIDs...)
		c.RefinanceEvents = append(c.RefinanceEvents, re)
	}
	c.ShareEvents = append([]ShareEvent{}, d.ShareEvents...)
	c.PriceHistory = append([]PricePoint{}, d.PriceHistory...)
	if d.NotificationPreference != nil {
		p := *d.NotificationPreference
		c.NotificationPreference = &p
	}
	return c
}
