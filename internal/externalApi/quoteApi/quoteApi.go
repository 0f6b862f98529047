package quoteApi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/grant_tracker_bot/config"
	"github.com/KotFed0t/grant_tracker_bot/internal/externalApi"
	"github.com/KotFed0t/grant_tracker_bot/internal/model/quoteModel"
	"github.com/KotFed0t/grant_tracker_bot/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const securitiesUrl = "/iss/engines/stock/markets/shares/boards/TQBR/securities.json"

type QuoteApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *QuoteApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.QuoteApi.Url)
	return &QuoteApi{client: client}
}

// GetPrice returns the latest market price of the ticker.
// externalApi.ErrNotFound is returned when the ticker is unknown or has no price yet.
func (a *QuoteApi) GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	rqId := utils.GetRequestIDFromCtx(ctx)
	op := "QuoteApi.GetPrice"
	params := map[string]string{
		"iss.meta":           "off",
		"iss.only":           "marketdata",
		"marketdata.columns": "SECID,MARKETPRICE",
		"securities":         ticker,
	}

	slog.Debug("start QuoteApi.GetPrice request", slog.String("rqID", rqId), slog.String("op", op), slog.String("ticker", ticker))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(securitiesUrl)
	if err != nil {
		slog.Error("error while dialing QuoteApi", slog.String("err", err.Error()), slog.String("rqID", rqId), slog.String("op", op))
		return decimal.Zero, err
	}
	if resp.IsError() {
		slog.Error("QuoteApi responded with error", slog.String("status", resp.Status()), slog.String("rqID", rqId), slog.String("op", op))
		return decimal.Zero, fmt.Errorf("quote api status %d", resp.StatusCode())
	}

	raw := quoteModel.RawQuotes{}
	err = json.Unmarshal(resp.Body(), &raw)
	if err != nil {
		slog.Error("can't unmarshall response into quoteModel.RawQuotes", slog.String("err", err.Error()), slog.String("rqID", rqId), slog.String("op", op))
		return decimal.Zero, err
	}

	quotes, err := parseQuotes(raw)
	if err != nil {
		slog.Error("can't parse raw data", slog.String("err", err.Error()), slog.String("rqID", rqId), slog.String("op", op))
		return decimal.Zero, err
	}

	for _, q := range quotes {
		if q.Ticker == ticker && q.Price.IsPositive() {
			slog.Debug("QuoteApi.GetPrice request complete", slog.String("rqID", rqId), slog.String("price", q.Price.String()))
			return q.Price, nil
		}
	}

	return decimal.Zero, externalApi.ErrNotFound
}

// parseQuotes maps ISS rows onto quotes. A null price is left as zero.
func parseQuotes(raw quoteModel.RawQuotes) ([]quoteModel.Quote, error) {
	res := make([]quoteModel.Quote, 0, len(raw.Marketdata.Data))

	for i := 0; i < len(raw.Marketdata.Data); i++ {
		row := raw.Marketdata.Data[i]
		if len(row) != len(raw.Marketdata.Columns) {
			return nil, errors.New("invalid Marketdata")
		}

		quote := quoteModel.Quote{Price: decimal.Zero}
		for j, column := range raw.Marketdata.Columns {
			ok := true
			switch column {
			case "SECID":
				quote.Ticker, ok = row[j].(string)
			case "MARKETPRICE":
				if row[j] != nil {
					var price float64
					price, ok = row[j].(float64)
					if ok {
						quote.Price = decimal.NewFromFloat(price)
					}
				}
			default:
				return nil, fmt.Errorf("unknown column %s", column)
			}

			if !ok {
				return nil, fmt.Errorf("invalid type %s = %v", column, row[j])
			}
		}
		res = append(res, quote)
	}

	return res, nil
}
