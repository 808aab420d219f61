package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/relaybot/core/bootstrap"
	"github.com/m3rciful/relaybot/core/logger"
	coretelegram "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/commands"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	tgrouter "github.com/m3rciful/relaybot/core/telegram/router"
	tgsender "github.com/m3rciful/relaybot/core/telegram/sender"
	"github.com/m3rciful/relaybot/relay"
	relaybot "github.com/m3rciful/relaybot/relay/bot"
	"github.com/m3rciful/relaybot/relay/journal"
	"github.com/m3rciful/relaybot/relay/journal/migrations"
	"github.com/m3rciful/relaybot/relay/moderation"
	"github.com/m3rciful/relaybot/relay/payload"

	tele "gopkg.in/telebot.v4"
)

// App owns the bot, the relay router and the infrastructure behind them.
type App struct {
	cfg        *Config
	infra      *bootstrap.Result
	bot        *tele.Bot
	router     *relay.Router
	registry   *coretelegram.Registry
	dispatcher *tgsender.Dispatcher
}

// Bootstrap initializes logging and the optional journal database, connects the
// bot and builds the relay.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}

	bot, err := coretelegram.NewBot(&cfg.Config)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	a := &App{cfg: cfg, infra: infra, bot: bot}
	a.wire(relaybot.NewTransport(bot), bot.Me.ID, journalFor(infra))

	logger.Info(ctx, "relay", "relay.ready",
		slog.Int64("admin_group_id", cfg.Relay.AdminGroupID),
		slog.String("channel", cfg.Relay.Channel),
		slog.Bool("journal", infra.DB != nil),
		slog.Bool("restrict_banned", cfg.Relay.RestrictBannedMembers),
	)
	return a, nil
}

func journalFor(infra *bootstrap.Result) journal.Journal {
	if infra == nil || infra.DB == nil {
		return journal.Nop{}
	}
	return journal.NewPostgres(infra.DB)
}

// wire builds the router and the handler registry on top of t.
func (a *App) wire(t relay.Transport, botID int64, j journal.Journal) {
	a.router = relay.NewRouter(a.cfg.Relay, moderation.New(), t, j)
	a.registry = newRegistry(relaybot.NewBinder(a.router, botID).Handle)
	a.dispatcher = tgsender.NewDispatcher(coretelegram.DispatcherOptionsFrom(&a.cfg.Config))
}

// newRegistry binds every relay endpoint to handle. Admin-only entries only shape
// the command menu; the router checks the roster on every privileged action.
func newRegistry(handle tele.HandlerFunc) *coretelegram.Registry {
	reg := coretelegram.NewRegistry()
	reg.RegisterCommand(relay.CmdStart, commands.Command{Handler: handle, Description: "Start the bot"})
	reg.RegisterCommand(relay.CmdBanlist, commands.Command{Handler: handle, Description: "List banned senders", AdminOnly: true})
	reg.RegisterCommand(relay.CmdUnban, commands.Command{Handler: handle, Description: "Unban a sender by id or @username", AdminOnly: true})
	reg.RegisterCommand(relay.CmdReply, commands.Command{Handler: handle, Description: "Reply to a sender by id or @username", AdminOnly: true})
	reg.RegisterCommand(relay.CmdHistory, commands.Command{Handler: handle, Description: "Show recent activity of a sender", AdminOnly: true})
	reg.RegisterCommand(relay.CmdCancel, commands.Command{Handler: handle, Description: "Cancel your pending reply", AdminOnly: true})

	for _, key := range []string{payload.TagSend, payload.TagBan, payload.TagReply, payload.TagUnban} {
		_ = reg.RegisterCallback(key, handle)
	}
	reg.SetCallbackNotFound(handle)
	reg.SetTextFallback(handle)
	return reg
}

// TelegramRunOptions assembles routes and middlewares for coretelegram.RunTelegram.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a.router == nil || a.registry == nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: not bootstrapped")
	}
	routes := tgrouter.CommandRoutes(a.registry)
	routes = append(routes, tgrouter.CallbackRoute(a.registry))
	routes = append(routes, tgrouter.MessageRoutes(a.registry, tgrouter.MessageOptions{
		Media: a.registry.TextFallback(),
	})...)

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Bot:         a.bot,
		Dispatcher:  a.dispatcher,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, a.dispatcher, answerLimited),
		Routes:      routes,
		AdminChats:  []int64{a.cfg.Relay.AdminGroupID},
	}, nil
}

// answerLimited stops the button spinner of a dropped callback.
func answerLimited(c tele.Context) error {
	return tghelpers.Answer(c, "")
}

// Router returns the relay router.
func (a *App) Router() *relay.Router { return a.router }

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.infra.Close()
}
