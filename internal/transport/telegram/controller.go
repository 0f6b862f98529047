package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/KotFed0t/grant_tracker_bot/config"
	"github.com/KotFed0t/grant_tracker_bot/data/session"
	"github.com/KotFed0t/grant_tracker_bot/internal/converter/telebotConverter"
	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/internal/service"
	"github.com/KotFed0t/grant_tracker_bot/internal/validation"
	"github.com/KotFed0t/grant_tracker_bot/utils"
	tele "gopkg.in/telebot.v4"
)

const (
	internalErrMsg     = "something went wrong..."
	notConnectedErrMsg = "Google Drive is not connected. Send /connect <refresh_token> first."
)

type TrackerService interface {
	RegUser(ctx context.Context, chatID int64) error
	Connect(ctx context.Context, chatID int64, refreshToken string) error
	Disconnect(ctx context.Context, chatID int64) error
	Data(ctx context.Context, chatID int64) (model.AppData, error)
	Update(ctx context.Context, chatID int64, fn func(prev model.AppData) model.AppData) (model.AppData, error)
	Reload(ctx context.Context, chatID int64) (model.AppData, error)
	Import(ctx context.Context, chatID int64, raw []byte) (model.AppData, error)
	Export(ctx context.Context, chatID int64) (body []byte, filename string, err error)
	Dashboard(ctx context.Context, chatID int64) (model.Dashboard, error)
	Upcoming(ctx context.Context, chatID int64, days int) ([]model.UpcomingEvent, error)
	Report(ctx context.Context, chatID int64) (fileBytes []byte, filename string, err error)
	SetPrice(ctx context.Context, chatID int64, price float64) (model.AppData, error)
	RefreshPrice(ctx context.Context, chatID int64) (model.AppData, error)
}

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type Controller struct {
	cfg            *config.Config
	trackerService TrackerService
	session        Session
}

func NewController(cfg *config.Config, trackerService TrackerService, session Session) *Controller {
	return &Controller{
		cfg:            cfg,
		trackerService: trackerService,
		session:        session,
	}
}

func (ctrl *Controller) Start(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	_ = ctrl.trackerService.RegUser(ctx, c.Chat().ID)
	return c.Reply(helpMsg)
}

func (ctrl *Controller) Help(c tele.Context) error {
	return c.Send(helpMsg)
}

func (ctrl *Controller) Connect(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	args := c.Args()
	if len(args) != 1 {
		return c.Send("usage: /connect <refresh_token>")
	}

	// the token should not stay in the chat history
	if err := c.Delete(); err != nil {
		slog.Warn("can't delete message with token", slog.String("rqID", rqID), slog.String("err", err.Error()))
	}

	if err := ctrl.trackerService.Connect(ctx, c.Chat().ID, args[0]); err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Connect", err)
	}
	return c.Send("Google Drive connected ✅")
}

func (ctrl *Controller) Disconnect(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	if err := ctrl.trackerService.Disconnect(ctx, c.Chat().ID); err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Disconnect", err)
	}
	return c.Send("Google Drive disconnected.")
}

func (ctrl *Controller) Summary(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	d, err := ctrl.trackerService.Dashboard(ctx, c.Chat().ID)
	if err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Dashboard", err)
	}
	return c.Send(telebotConverter.SummaryResponse(d))
}

func (ctrl *Controller) Loans(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	d, err := ctrl.trackerService.Dashboard(ctx, c.Chat().ID)
	if err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Dashboard", err)
	}
	return c.Send(telebotConverter.LoansResponse(d.Loans))
}

func (ctrl *Controller) Grants(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	data, err := ctrl.trackerService.Data(ctx, c.Chat().ID)
	if err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Data", err)
	}
	return c.Send(telebotConverter.GrantsResponse(data.Grants))
}

func (ctrl *Controller) PriceHistory(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	data, err := ctrl.trackerService.Data(ctx, c.Chat().ID)
	if err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Data", err)
	}
	return c.Send(telebotConverter.PriceHistoryResponse(model.SortedPriceHistory(data)))
}

func (ctrl *Controller) Upcoming(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	days, err := telebotConverter.ParseDays(c.Args())
	if err != nil {
		return c.Send(err.Error())
	}
	if days == 0 {
		days = ctrl.cfg.Notifications.SessionWindowDays
	}

	events, err := ctrl.trackerService.Upcoming(ctx, c.Chat().ID, days)
	if err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Upcoming", err)
	}
	return c.Send(telebotConverter.UpcomingResponse(events, days))
}

// InitPrice sets a price given inline, or asks for it.
func (ctrl *Controller) InitPrice(c tele.Context) error {
	if len(c.Args()) > 0 {
		return ctrl.setPrice(c, c.Args())
	}

	ctx := utils.CreateCtxWithRqID(c)
	if err := ctrl.setState(ctx, c, model.ExpectingPrice); err != nil {
		return c.Send(internalErrMsg)
	}
	return c.Send("Enter the current share price:")
}

func (ctrl *Controller) ProcessPrice(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	defer func() { _ = ctrl.setState(ctx, c, model.DefaultState) }()
	return ctrl.setPrice(c, []string{c.Text()})
}

func (ctrl *Controller) setPrice(c tele.Context, args []string) error {
	ctx := utils.CreateCtxWithRqID(c)
	price, err := telebotConverter.ParsePrice(args)
	if err != nil {
		return c.Send(err.Error())
	}

	data, err := ctrl.trackerService.SetPrice(ctx, c.Chat().ID, price)
	if err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.SetPrice", err)
	}
	return c.Send(fmt.Sprintf("Price set to %v as of %s.", data.CurrentPrice, data.AsOfDate))
}

func (ctrl *Controller) RefreshPrice(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	data, err := ctrl.trackerService.RefreshPrice(ctx, c.Chat().ID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("No quote available for " + ctrl.cfg.API.QuoteApi.Ticker)
		}
		return ctrl.sendErr(ctx, c, "trackerService.RefreshPrice", err)
	}
	return c.Send(fmt.Sprintf("Price updated: %v as of %s.", data.CurrentPrice, data.AsOfDate))
}

func (ctrl *Controller) Rate(c tele.Context) error {
	rate, err := telebotConverter.ParseRate(c.Args())
	if err != nil {
		return c.Send(err.Error())
	}
	return ctrl.update(c, "Rate saved.", func(prev model.AppData) model.AppData {
		return model.UpsertRate(prev, rate)
	})
}

func (ctrl *Controller) DeleteRate(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("usage: /delete_rate <year>")
	}
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return c.Send("year must be an integer")
	}
	return ctrl.update(c, "Rate deleted.", func(prev model.AppData) model.AppData {
		return model.DeleteRate(prev, year)
	})
}

func (ctrl *Controller) Share(c tele.Context) error {
	ev, err := telebotConverter.ParseShareEvent(c.Args())
	if err != nil {
		return c.Send(err.Error())
	}
	return ctrl.update(c, "Share event recorded.", func(prev model.AppData) model.AppData {
		return model.AddShareEvent(prev, ev)
	})
}

func (ctrl *Controller) Grant(c tele.Context) error {
	g, err := telebotConverter.ParseGrant(c.Args())
	if err != nil {
		return c.Send(err.Error())
	}
	return ctrl.update(c, "Grant added, id: "+g.ID, func(prev model.AppData) model.AppData {
		return model.AddGrant(prev, g)
	})
}

func (ctrl *Controller) DeleteGrant(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("usage: /delete_grant <id>")
	}
	return ctrl.update(c, "Grant and its loans deleted.", func(prev model.AppData) model.AppData {
		return model.DeleteGrant(prev, args[0])
	})
}

func (ctrl *Controller) Loan(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	data, err := ctrl.trackerService.Data(ctx, c.Chat().ID)
	if err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Data", err)
	}

	l, err := telebotConverter.ParseBaseLoan(c.Args(), data.Grants)
	if err != nil {
		return c.Send(err.Error())
	}
	return ctrl.update(c, "Loan added, id: "+l.ID, func(prev model.AppData) model.AppData {
		return model.AddBaseLoan(prev, l)
	})
}

func (ctrl *Controller) DeleteLoan(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("usage: /delete_loan <id>")
	}
	return ctrl.update(c, "Loan deleted.", func(prev model.AppData) model.AppData {
		return model.DeleteBaseLoan(prev, args[0])
	})
}

func (ctrl *Controller) Refinance(c tele.Context) error {
	ev, err := telebotConverter.ParseRefinance(c.Args())
	if err != nil {
		return c.Send(err.Error())
	}
	return ctrl.update(c, "Refinance recorded.", func(prev model.AppData) model.AppData {
		return model.AddRefinanceEvent(prev, ev)
	})
}

func (ctrl *Controller) Notifications(c tele.Context) error {
	var pref model.NotificationPreference
	args := c.Args()
	if len(args) != 1 {
		return c.Send("usage: /notifications on|off")
	}
	switch args[0] {
	case "on":
		pref = model.NotificationGranted
	case "off":
		pref = model.NotificationDenied
	default:
		return c.Send("usage: /notifications on|off")
	}

	ctx := utils.CreateCtxWithRqID(c)
	data, err := ctrl.trackerService.Update(ctx, c.Chat().ID, func(prev model.AppData) model.AppData {
		return model.SetNotificationPreference(prev, pref)
	})
	if err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Update", err)
	}

	msg := "Notifications are off."
	if data.NotificationsGranted() {
		msg = "Notifications are on. You'll get a message at 09:00 on event days."
	}
	return c.Send(msg, telebotConverter.NotificationsMarkup(data.NotificationsGranted()))
}

func (ctrl *Controller) Export(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	body, filename, err := ctrl.trackerService.Export(ctx, c.Chat().ID)
	if err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Export", err)
	}
	return c.Send(&tele.Document{File: tele.FromReader(bytes.NewReader(body)), FileName: filename, MIME: "application/json"})
}

func (ctrl *Controller) Report(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	fileBytes, filename, err := ctrl.trackerService.Report(ctx, c.Chat().ID)
	if err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Report", err)
	}
	return c.Send(&tele.Document{File: tele.FromReader(bytes.NewReader(fileBytes)), FileName: filename})
}

func (ctrl *Controller) Reload(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	if _, err := ctrl.trackerService.Reload(ctx, c.Chat().ID); err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Reload", err)
	}
	return c.Send("Reloaded from Google Drive.")
}

func (ctrl *Controller) InitImport(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	if err := ctrl.setState(ctx, c, model.ExpectingImportDocument); err != nil {
		return c.Send(internalErrMsg)
	}
	return c.Send("Send the JSON document to import. It replaces all current data.")
}

func (ctrl *Controller) ProcessImport(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	doc := c.Message().Document
	if doc == nil {
		return c.Send("Please send the document as a file.")
	}
	if int(doc.FileSize) > ctrl.cfg.Telegram.FileLimitInBytes {
		return c.Send(fmt.Sprintf("The file is too large, the limit is %d bytes.", ctrl.cfg.Telegram.FileLimitInBytes))
	}

	defer func() { _ = ctrl.setState(ctx, c, model.DefaultState) }()

	reader, err := c.Bot().File(&doc.File)
	if err != nil {
		slog.Error("can't download document", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, int64(ctrl.cfg.Telegram.FileLimitInBytes)+1))
	if err != nil {
		slog.Error("can't read document", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	data, err := ctrl.trackerService.Import(ctx, c.Chat().ID, raw)
	if err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Import", err)
	}
	return c.Send(fmt.Sprintf("Imported %d grants and %d loans.", len(data.Grants), len(data.BaseLoans)))
}

// Cancel resets the conversation state.
func (ctrl *Controller) Cancel(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	if err := ctrl.setState(ctx, c, model.DefaultState); err != nil {
		return c.Send(internalErrMsg)
	}
	return c.Send("Cancelled.")
}

func (ctrl *Controller) update(c tele.Context, okMsg string, fn func(prev model.AppData) model.AppData) error {
	ctx := utils.CreateCtxWithRqID(c)
	if _, err := ctrl.trackerService.Update(ctx, c.Chat().ID, fn); err != nil {
		return ctrl.sendErr(ctx, c, "trackerService.Update", err)
	}
	return c.Send(okMsg)
}

// sendErr maps a service error to a user message.
func (ctrl *Controller) sendErr(ctx context.Context, c tele.Context, op string, err error) error {
	var verr *validation.ValidationError
	switch {
	case errors.Is(err, service.ErrNotConnected):
		return c.Send(notConnectedErrMsg)
	case errors.As(err, &verr):
		if verr.Source == validation.SourceLoad {
			return c.Send("The document stored in Google Drive is invalid. Import a valid one with /import.\n\n" + telebotConverter.ValidationErrorResponse(verr))
		}
		return c.Send(telebotConverter.ValidationErrorResponse(verr))
	default:
		slog.Error("got error from "+op, slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
}

func (ctrl *Controller) setState(ctx context.Context, c tele.Context, state model.State) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	strChatID := strconv.FormatInt(c.Chat().ID, 10)

	chatSession, err := ctrl.session.GetSession(ctx, strChatID)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	chatSession.State = state
	if err = ctrl.session.SetSession(ctx, strChatID, chatSession); err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}
	return nil
}
