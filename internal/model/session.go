package model

type State int

const (
	DefaultState State = iota
	ExpectingImportDocument
	ExpectingPrice
)

// Session is the per-chat conversation state kept between messages.
type Session struct {
	State State `json:"state"`
}
