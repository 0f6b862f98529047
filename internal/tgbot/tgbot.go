package tgbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/KotFed0t/grant_tracker_bot/config"
	"github.com/KotFed0t/grant_tracker_bot/data/session"
	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/internal/transport/telegram"
	customMW "github.com/KotFed0t/grant_tracker_bot/internal/transport/telegram/middleware"
	"github.com/KotFed0t/grant_tracker_bot/utils"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type TGBot struct {
	bot     *tele.Bot
	ctrl    *telegram.Controller
	session Session
}

func New(cfg *config.Config, session Session) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, session: session}
}

// Start registers the controller and starts polling. The bot can deliver
// notifications before Start is called.
func (b *TGBot) Start(ctrl *telegram.Controller) {
	b.ctrl = ctrl

	b.bot.Use(middleware.Recover(), customMW.Logger())

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

// Deliver sends a notification message to the chat.
func (b *TGBot) Deliver(ctx context.Context, chatID int64, title, body, dedupeKey string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	_, err := b.bot.Send(tele.ChatID(chatID), fmt.Sprintf("🔔 %s\n%s", title, body))
	if err != nil {
		slog.Error("can't deliver notification", slog.String("rqID", rqID), slog.Int64("chatID", chatID), slog.String("key", dedupeKey), slog.String("err", err.Error()))
		return err
	}

	slog.Info("notification delivered", slog.String("rqID", rqID), slog.Int64("chatID", chatID), slog.String("key", dedupeKey))
	return nil
}

func (b *TGBot) chatSession(c tele.Context) (model.Session, error) {
	ctx := utils.CreateCtxWithRqID(c)
	chatSession, err := b.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		slog.Error("got error from session.GetSession", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
		return model.Session{}, err
	}
	return chatSession, nil
}

func (b *TGBot) setupRoutes() {
	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		// pick the controller method by the step the user is on
		chatSession, err := b.chatSession(c)
		if err != nil {
			return c.Send("something went wrong...")
		}

		switch chatSession.State {
		case model.ExpectingPrice:
			return b.ctrl.ProcessPrice(c)
		case model.ExpectingImportDocument:
			return c.Send("Send the JSON document as a file, or /cancel.")
		default:
			return c.Send("Enter one of the commands first, see /help")
		}
	})

	b.bot.Handle(tele.OnDocument, func(c tele.Context) error {
		chatSession, err := b.chatSession(c)
		if err != nil {
			return c.Send("something went wrong...")
		}

		if chatSession.State != model.ExpectingImportDocument {
			return c.Send("To import a document send /import first.")
		}
		return b.ctrl.ProcessImport(c)
	})

	b.bot.Handle("/start", b.ctrl.Start)
	b.bot.Handle("/help", b.ctrl.Help)
	b.bot.Handle("/cancel", b.ctrl.Cancel)

	b.bot.Handle("/connect", b.ctrl.Connect)
	b.bot.Handle("/disconnect", b.ctrl.Disconnect)
	b.bot.Handle("/reload", b.ctrl.Reload)

	b.bot.Handle("/summary", b.ctrl.Summary)
	b.bot.Handle("/loans", b.ctrl.Loans)
	b.bot.Handle("/grants", b.ctrl.Grants)
	b.bot.Handle("/prices", b.ctrl.PriceHistory)
	b.bot.Handle("/upcoming", b.ctrl.Upcoming)

	b.bot.Handle("/price", b.ctrl.InitPrice)
	b.bot.Handle("/refresh_price", b.ctrl.RefreshPrice)
	b.bot.Handle("/rate", b.ctrl.Rate)
	b.bot.Handle("/delete_rate", b.ctrl.DeleteRate)
	b.bot.Handle("/share", b.ctrl.Share)
	b.bot.Handle("/grant", b.ctrl.Grant)
	b.bot.Handle("/delete_grant", b.ctrl.DeleteGrant)
	b.bot.Handle("/loan", b.ctrl.Loan)
	b.bot.Handle("/delete_loan", b.ctrl.DeleteLoan)
	b.bot.Handle("/refinance", b.ctrl.Refinance)
	b.bot.Handle("/notifications", b.ctrl.Notifications)

	b.bot.Handle("/export", b.ctrl.Export)
	b.bot.Handle("/import", b.ctrl.InitImport)
	b.bot.Handle("/report", b.ctrl.Report)
}
