package xslsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	loansSheet    = "Loans"
	upcomingSheet = "Upcoming"
	defaultSheet  = "Sheet1"
)

const (
	moneyFormat = "#,##0.00"
	rateFormat  = "0.00%"
)

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

func (g *XSLSXGenerator) Generate(ctx context.Context, report model.Report) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	styles, err := newStyles(f)
	if err != nil {
		return nil, "", err
	}

	if err = g.fillSummary(f, report, styles); err != nil {
		return nil, "", fmt.Errorf("fill summary: %w", err)
	}
	if err = g.fillLoans(f, report.Dashboard.Loans, styles); err != nil {
		return nil, "", fmt.Errorf("fill loans: %w", err)
	}
	if err = g.fillUpcoming(f, report.Upcoming, styles); err != nil {
		return nil, "", fmt.Errorf("fill upcoming: %w", err)
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

type styles struct {
	header int
	money  int
	rate   int
	muted  int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return styles{}, err
	}

	moneyFmt := moneyFormat
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt}); err != nil {
		return styles{}, err
	}

	rateFmt := rateFormat
	if s.rate, err = f.NewStyle(&excelize.Style{CustomNumFmt: &rateFmt}); err != nil {
		return styles{}, err
	}

	s.muted, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Color: "#999999", Strike: true},
		CustomNumFmt: &moneyFmt,
	})
	if err != nil {
		return styles{}, err
	}

	return s, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err = f.SetCellStr(sheet, cell, h); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func (g *XSLSXGenerator) fillSummary(f *excelize.File, report model.Report, st styles) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := writeHeader(f, summarySheet, []string{"metric", "value"}, st.header); err != nil {
		return err
	}

	s := report.Dashboard.Summary
	rows := []struct {
		name  string
		value decimal.Decimal
		money bool
	}{
		{"share price", decimal.NewFromFloat(report.Dashboard.CurrentPrice), true},
		{"current shares", s.CurrentShares, false},
		{"portfolio value", s.PortfolioValue, true},
		{"total loan balance", s.TotalLoanBalance, true},
		{"net value", s.NetValue, true},
		{"accrued interest", s.TotalAccruedInterest, true},
		{"vested shares (projected)", s.VestedShares, false},
		{"unvested shares (projected)", s.UnvestedShares, false},
	}

	_ = f.SetCellStr(summarySheet, "A2", "as of")
	_ = f.SetCellStr(summarySheet, "B2", report.Dashboard.AsOfDate)
	for i, r := range rows {
		row := i + 3
		_ = f.SetCellStr(summarySheet, fmt.Sprintf("A%d", row), r.name)
		_ = f.SetCellFloat(summarySheet, fmt.Sprintf("B%d", row), r.value.InexactFloat64(), -1, 64)
		if r.money {
			_ = f.SetCellStyle(summarySheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), st.money)
		}
	}

	return f.SetColWidth(summarySheet, "A", "B", 28)
}

func (g *XSLSXGenerator) fillLoans(f *excelize.File, loans []model.ComputedLoan, st styles) error {
	if _, err := f.NewSheet(loansSheet); err != nil {
		return err
	}
	headers := []string{"label", "kind", "origin year", "amount", "rate", "due", "superseded", "refinance"}
	if err := writeHeader(f, loansSheet, headers, st.header); err != nil {
		return err
	}

	for i, l := range loans {
		row := i + 2
		_ = f.SetCellStr(loansSheet, fmt.Sprintf("A%d", row), l.Label)
		_ = f.SetCellStr(loansSheet, fmt.Sprintf("B%d", row), string(l.Kind))
		_ = f.SetCellInt(loansSheet, fmt.Sprintf("C%d", row), int64(l.OriginYear))
		_ = f.SetCellFloat(loansSheet, fmt.Sprintf("D%d", row), l.Amount.InexactFloat64(), -1, 64)
		_ = f.SetCellFloat(loansSheet, fmt.Sprintf("E%d", row), l.Rate.InexactFloat64(), -1, 64)
		_ = f.SetCellStr(loansSheet, fmt.Sprintf("F%d", row), l.Due)
		_ = f.SetCellBool(loansSheet, fmt.Sprintf("G%d", row), l.Superseded)
		_ = f.SetCellStr(loansSheet, fmt.Sprintf("H%d", row), l.RefinanceEventID)

		amountStyle := st.money
		if l.Superseded {
			amountStyle = st.muted
		}
		_ = f.SetCellStyle(loansSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), amountStyle)
		_ = f.SetCellStyle(loansSheet, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), st.rate)
	}

	return f.SetColWidth(loansSheet, "A", "A", 45)
}

func (g *XSLSXGenerator) fillUpcoming(f *excelize.File, events []model.UpcomingEvent, st styles) error {
	if _, err := f.NewSheet(upcomingSheet); err != nil {
		return err
	}
	if err := writeHeader(f, upcomingSheet, []string{"date", "type", "event"}, st.header); err != nil {
		return err
	}

	for i, ev := range events {
		row := i + 2
		_ = f.SetCellStr(upcomingSheet, fmt.Sprintf("A%d", row), ev.Date)
		_ = f.SetCellStr(upcomingSheet, fmt.Sprintf("B%d", row), string(ev.Type))
		_ = f.SetCellStr(upcomingSheet, fmt.Sprintf("C%d", row), ev.Label)
	}

	return f.SetColWidth(upcomingSheet, "C", "C", 45)
}
