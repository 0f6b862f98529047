package model

// Report is everything the spreadsheet export contains.
type Report struct {
	Dashboard Dashboard
	Upcoming  []UpcomingEvent
}
