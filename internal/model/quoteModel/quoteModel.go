package quoteModel

import "github.com/shopspring/decimal"

// RawQuotes is the ISS table response: column names plus rows of loosely typed cells.
type RawQuotes struct {
	Marketdata Marketdata `json:"marketdata"`
}

type Marketdata struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

type Quote struct {
	Ticker string
	Price  decimal.Decimal
}
