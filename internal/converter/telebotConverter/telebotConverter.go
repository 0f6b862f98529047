package telebotConverter

import (
	"fmt"
	"strings"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/internal/validation"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"
)

// FormatMoney renders whole dollars with thousands separators: $1,234 or -$1,234.
func FormatMoney(d decimal.Decimal) string {
	rounded := d.Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return sign + "$" + groupThousands(rounded.StringFixed(0))
}

// FormatPercent renders a fractional rate: 0.037 -> 3.70%.
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

func FormatShares(d decimal.Decimal) string {
	return groupThousands(d.Round(2).String())
}

func groupThousands(s string) string {
	var sb strings.Builder
	if strings.HasPrefix(s, "-") {
		sb.WriteByte('-')
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	if hasFrac {
		sb.WriteString("." + frac)
	}
	return sb.String()
}

func SummaryResponse(d model.Dashboard) string {
	var sb strings.Builder
	s := d.Summary

	sb.WriteString("📊 Portfolio\n")
	if d.AsOfDate != "" {
		sb.WriteString(fmt.Sprintf("as of %s, price %s\n\n", d.AsOfDate, FormatMoney(decimal.NewFromFloat(d.CurrentPrice))))
	}
	sb.WriteString(fmt.Sprintf("Shares: %s\n", FormatShares(s.CurrentShares)))
	sb.WriteString(fmt.Sprintf("Value: %s\n", FormatMoney(s.PortfolioValue)))
	sb.WriteString(fmt.Sprintf("Loan balance: %s\n", FormatMoney(s.TotalLoanBalance)))
	sb.WriteString(fmt.Sprintf("Net value: %s\n", FormatMoney(s.NetValue)))
	sb.WriteString(fmt.Sprintf("Accrued interest: %s\n\n", FormatMoney(s.TotalAccruedInterest)))

	total := s.VestedShares.Add(s.UnvestedShares)
	sb.WriteString(fmt.Sprintf("Vested: %s / %s shares", FormatShares(s.VestedShares), FormatShares(total)))
	if total.IsPositive() {
		sb.WriteString(fmt.Sprintf(" (%s)", FormatPercent(s.VestedShares.Div(total))))
	}
	sb.WriteString("\n")

	if len(d.VestingChart) > 0 {
		sb.WriteString("\nVesting by grant year:\n")
		for _, p := range d.VestingChart {
			sb.WriteString(fmt.Sprintf("  %d: %s vested, %s unvested\n", p.Year, FormatShares(p.VestedShares), FormatShares(p.UnvestedShares)))
		}
	}

	return sb.String()
}

func LoansResponse(loans []model.ComputedLoan) string {
	if len(loans) == 0 {
		return "No loans yet."
	}

	var sb strings.Builder
	sb.WriteString("💳 Loans\n\n")
	for _, l := range loans {
		mark := "▸"
		if l.Superseded {
			mark = "✖"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", mark, l.Label))
		sb.WriteString(fmt.Sprintf("   %s at %s, due %s", FormatMoney(l.Amount), FormatPercent(l.Rate), l.Due))
		if l.Superseded {
			sb.WriteString(" (refinanced)")
		}
		sb.WriteString(fmt.Sprintf("\n   id: %s\n", l.ID))
	}
	return sb.String()
}

func UpcomingResponse(events []model.UpcomingEvent, days int) string {
	if len(events) == 0 {
		return fmt.Sprintf("Nothing in the next %d days.", days)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 Next %d days\n\n", days))
	for _, ev := range events {
		sb.WriteString(fmt.Sprintf("%s  %s\n", ev.Date, ev.Label))
	}
	return sb.String()
}

func GrantsResponse(grants []model.Grant) string {
	if len(grants) == 0 {
		return "No grants yet."
	}

	var sb strings.Builder
	sb.WriteString("🎁 Grants\n\n")
	for _, g := range grants {
		sb.WriteString(fmt.Sprintf("▸ %d %s: %s shares at %s\n", g.Year, g.Type,
			FormatShares(decimal.NewFromFloat(g.Shares)), FormatMoney(decimal.NewFromFloat(g.Price))))
		sb.WriteString(fmt.Sprintf("   vesting from %s, %d/%d periods\n", g.VestStart, g.PassedPeriods, g.VestPeriods))
		sb.WriteString(fmt.Sprintf("   id: %s\n", g.ID))
	}
	return sb.String()
}

func PriceHistoryResponse(points []model.PricePoint) string {
	if len(points) == 0 {
		return "No prices recorded yet."
	}

	var sb strings.Builder
	sb.WriteString("📈 Price history\n\n")
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%s  %s\n", p.Date, FormatMoney(decimal.NewFromFloat(p.Price))))
	}
	return sb.String()
}

// ValidationErrorResponse lists every problem found in a rejected document.
func ValidationErrorResponse(verr *validation.ValidationError) string {
	var sb strings.Builder
	sb.WriteString("The document was rejected:\n")
	for _, is := range verr.Issues {
		sb.WriteString(fmt.Sprintf("• %s: %s\n", is.Path, is.Message))
	}
	return sb.String()
}

func NotificationsMarkup(granted bool) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	label := "/notifications on"
	if granted {
		label = "/notifications off"
	}
	markup.Reply(markup.Row(markup.Text(label)))
	return markup
}
