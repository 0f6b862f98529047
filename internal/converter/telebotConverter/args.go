package telebotConverter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/google/uuid"
)

var ErrBadArgs = errors.New("bad command arguments")

var grantTypes = map[string]model.GrantType{
	"purchase":         model.GrantTypePurchase,
	"catchup_purchase": model.GrantTypeCatchUpPurchase,
	"bonus":            model.GrantTypeBonus,
	"catchup_bonus":    model.GrantTypeCatchUpBonus,
}

var loanTypes = map[string]model.LoanType{
	"purchase": model.LoanTypePurchase,
	"tax":      model.LoanTypeTax,
}

func badArgs(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrBadArgs, fmt.Sprintf(format, a...))
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "$"), 64)
	if err != nil {
		return 0, badArgs("%s must be a number", name)
	}
	return v, nil
}

func parseInt(name, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, badArgs("%s must be an integer", name)
	}
	return v, nil
}

// parseRate accepts a fraction (0.037) or a percent (3.7%).
func parseRate(s string) (float64, error) {
	percent := strings.HasSuffix(s, "%")
	v, err := parseFloat("rate", strings.TrimSuffix(s, "%"))
	if err != nil {
		return 0, err
	}
	if percent {
		v /= 100
	}
	if v < 0 {
		return 0, badArgs("rate must not be negative")
	}
	return v, nil
}

func parseDate(name, s string) (string, error) {
	t, err := model.ParseDate(s)
	if err != nil {
		return "", badArgs("%s must be a YYYY-MM-DD date", name)
	}
	return model.FormatDate(t), nil
}

// ParsePrice parses "/price <value>".
func ParsePrice(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, badArgs("usage: /price <value>")
	}
	price, err := parseFloat("price", args[0])
	if err != nil {
		return 0, err
	}
	if price < 0 {
		return 0, badArgs("price must not be negative")
	}
	return price, nil
}

// ParseRate parses "/rate <year> <rate>".
func ParseRate(args []string) (model.RateYear, error) {
	if len(args) != 2 {
		return model.RateYear{}, badArgs("usage: /rate <year> <rate>")
	}
	year, err := parseInt("year", args[0])
	if err != nil {
		return model.RateYear{}, err
	}
	rate, err := parseRate(args[1])
	if err != nil {
		return model.RateYear{}, err
	}
	return model.RateYear{Year: year, Rate: rate}, nil
}

// ParseShareEvent parses "/share <date> <delta> <label...>".
func ParseShareEvent(args []string) (model.ShareEvent, error) {
	if len(args) < 3 {
		return model.ShareEvent{}, badArgs("usage: /share <date> <delta> <label>")
	}
	date, err := parseDate("date", args[0])
	if err != nil {
		return model.ShareEvent{}, err
	}
	delta, err := parseFloat("delta", args[1])
	if err != nil {
		return model.ShareEvent{}, err
	}
	return model.ShareEvent{
		ID:          uuid.NewString(),
		Date:        date,
		VestedDelta: delta,
		Label:       strings.Join(args[2:], " "),
	}, nil
}

// ParseGrant parses "/grant <year> <type> <shares> <price> <vestStart> <periods> [passed]".
func ParseGrant(args []string) (model.Grant, error) {
	if len(args) != 6 && len(args) != 7 {
		return model.Grant{}, badArgs("usage: /grant <year> <purchase|catchup_purchase|bonus|catchup_bonus> <shares> <price> <vestStart> <periods> [passed]")
	}

	var (
		g   = model.Grant{ID: uuid.NewString()}
		ok  bool
		err error
	)
	if g.Year, err = parseInt("year", args[0]); err != nil {
		return model.Grant{}, err
	}
	if g.Type, ok = grantTypes[strings.ToLower(args[1])]; !ok {
		return model.Grant{}, badArgs("unknown grant type %q", args[1])
	}
	if g.Shares, err = parseFloat("shares", args[2]); err != nil {
		return model.Grant{}, err
	}
	if g.Price, err = parseFloat("price", args[3]); err != nil {
		return model.Grant{}, err
	}
	if g.VestStart, err = parseDate("vestStart", args[4]); err != nil {
		return model.Grant{}, err
	}
	if g.VestPeriods, err = parseInt("periods", args[5]); err != nil {
		return model.Grant{}, err
	}
	if len(args) == 7 {
		if g.PassedPeriods, err = parseInt("passed", args[6]); err != nil {
			return model.Grant{}, err
		}
	}

	if g.Shares < 0 || g.Price < 0 || g.VestPeriods < 1 || g.PassedPeriods < 0 {
		return model.Grant{}, badArgs("shares and price must not be negative, periods must be at least 1")
	}
	if g.PassedPeriods > g.VestPeriods {
		return model.Grant{}, badArgs("passed periods can't exceed vesting periods")
	}
	return g, nil
}

// ParseBaseLoan parses "/loan <grantId> <purchase|tax> <amount> <rate> <due>".
// The grant fields of the loan are copied from the referenced grant.
func ParseBaseLoan(args []string, grants []model.Grant) (model.BaseLoan, error) {
	if len(args) != 5 {
		return model.BaseLoan{}, badArgs("usage: /loan <grantId> <purchase|tax> <amount> <rate> <due>")
	}

	idx := -1
	for i, g := range grants {
		if g.ID == args[0] {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.BaseLoan{}, badArgs("grant %q not found", args[0])
	}
	g := grants[idx]

	l := model.BaseLoan{ID: uuid.NewString(), GrantID: g.ID, GrantYear: g.Year, GrantType: g.Type}
	var (
		ok  bool
		err error
	)
	if l.LoanType, ok = loanTypes[strings.ToLower(args[1])]; !ok {
		return model.BaseLoan{}, badArgs("unknown loan type %q", args[1])
	}
	if l.Amount, err = parseFloat("amount", args[2]); err != nil {
		return model.BaseLoan{}, err
	}
	if l.Amount < 0 {
		return model.BaseLoan{}, badArgs("amount must not be negative")
	}
	if l.Rate, err = parseRate(args[3]); err != nil {
		return model.BaseLoan{}, err
	}
	if l.Due, err = parseDate("due", args[4]); err != nil {
		return model.BaseLoan{}, err
	}
	return l, nil
}

// ParseRefinance parses "/refinance <date> <newRate> <newDue> <loanId> [loanId...]".
func ParseRefinance(args []string) (model.RefinanceEvent, error) {
	if len(args) < 4 {
		return model.RefinanceEvent{}, badArgs("usage: /refinance <date> <newRate> <newDue> <loanId> [loanId...]")
	}

	ev := model.RefinanceEvent{ID: uuid.NewString(), ReplacesLoanIDs: args[3:]}
	var err error
	if ev.Date, err = parseDate("date", args[0]); err != nil {
		return model.RefinanceEvent{}, err
	}
	if ev.NewRate, err = parseRate(args[1]); err != nil {
		return model.RefinanceEvent{}, err
	}
	if ev.NewDue, err = parseDate("newDue", args[2]); err != nil {
		return model.RefinanceEvent{}, err
	}
	return ev, nil
}

// ParseDays parses the optional window of "/upcoming [days]"; 0 means the default.
func ParseDays(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	days, err := parseInt("days", args[0])
	if err != nil {
		return 0, err
	}
	if days < 1 || days > 366 {
		return 0, badArgs("days must be between 1 and 366")
	}
	return days, nil
}
