// Package telegram runs the bot on the Telegram Bot API through telebot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/bot"
	coreconfig "github.com/m3rciful/utilbot/core/config"
	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/store"
	tghelpers "github.com/m3rciful/utilbot/core/telegram/helpers"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config *coreconfig.Config
	Store  store.Store

	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *bot.Dispatcher
}

// messageEndpoints are the telebot events forwarded to the dispatcher in
// addition to the registered commands. Any message in a group counts for
// group tracking, so non-text kinds are listed too. Joins that include the
// bot itself arrive as OnAddedToGroup.
var messageEndpoints = []string{
	tele.OnText,
	tele.OnMedia,
	tele.OnContact,
	tele.OnLocation,
	tele.OnVenue,
	tele.OnPoll,
	tele.OnDice,
	tele.OnPinned,
	tele.OnUserJoined,
	tele.OnAddedToGroup,
	tele.OnUserLeft,
	tele.OnCallback,
}

// RunTelegram builds the bot, wires the dispatcher and processes updates
// one at a time until ctx is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	if opts.Store == nil {
		return fmt.Errorf("telegram: nil store provided")
	}
	cfg := opts.Config

	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})

	buildStart := time.Now()
	tb, err := tele.NewBot(tele.Settings{
		Token:       cfg.Telegram.Token,
		Poller:      poller,
		Client:      BuildHTTPClient(HTTPClientOptions{Timeout: httpTimeout(cfg.Telegram.LongPollTimeoutSeconds)}),
		Synchronous: true,
		OnError:     onError,
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logMode(ctx, poller, tb, logger.Took(buildStart))

	if !opts.DisableWebhookCleanup && strings.EqualFold(cfg.Telegram.RunMode, coreconfig.RunModeLongpoll) {
		if err := tb.RemoveWebhook(false); err != nil {
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "delete_webhook", slog.Any("err", err))
		}
	}

	admins := bot.NewAdmins(cfg.Telegram.AdminIDs...)
	disp := bot.NewDispatcher(opts.Store, admins, NewClient(tb), logger.Bot)
	rt := Runtime{Bot: tb, Dispatcher: disp}

	for _, mw := range DefaultMiddlewares(ctx, cfg, nil) {
		tb.Use(mw.Use)
	}
	routes := wire(ctx, tb, disp)
	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "tg.wire",
		slog.String("status", logger.StatusOK),
		slog.Int("routes", routes),
		slog.Int("admins", admins.Len()),
	)
	SetupCommands(ctx, tb, disp.Registry())

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runDone := make(chan struct{})
	go func() {
		tb.Start()
		close(runDone)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		tb.Stop()
		<-runDone
		runErr = ctx.Err()
	case <-runDone:
	}

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// wire routes every registered command and message endpoint of tb to disp
// and returns the number of routes.
func wire(ctx context.Context, tb *tele.Bot, disp *bot.Dispatcher) int {
	h := newUpdateHandler(ctx, disp)
	routes := 0
	for _, cmd := range disp.Registry().Commands() {
		tb.Handle("/"+cmd.Name, h.handle)
		routes++
	}
	for _, ep := range messageEndpoints {
		tb.Handle(ep, h.handle)
		routes++
	}
	return routes
}

// SetupCommands publishes the command menu.
func SetupCommands(ctx context.Context, tb *tele.Bot, reg *bot.Registry) {
	menu := reg.Menu()
	cmds := make([]tele.Command, 0, len(menu))
	for _, e := range menu {
		cmds = append(cmds, tele.Command{Text: e.Name, Description: e.Description})
	}
	if err := tb.SetCommands(cmds); err != nil {
		logger.LogEvent(ctx, logger.TWire, slog.LevelError, "register.commands.set_failed", slog.Any("err", err))
		return
	}
	logger.LogEvent(ctx, logger.TWire, slog.LevelDebug, "register.commands", slog.Int("count", len(cmds)))
}

// updateHandler forwards telebot events to the dispatcher.
type updateHandler struct {
	parent context.Context
	disp   *bot.Dispatcher
	joins  *tghelpers.RecentSet
}

func newUpdateHandler(parent context.Context, disp *bot.Dispatcher) *updateHandler {
	return &updateHandler{parent: parent, disp: disp, joins: tghelpers.NewRecentSet(time.Minute)}
}

func (h *updateHandler) handle(c tele.Context) error {
	u := toUpdate(c.Update())
	// telebot invokes OnUserJoined once per member of the same update
	if len(u.NewMembers) > 0 && h.joins.Seen(u.ID) {
		return nil
	}
	return h.disp.Handle(tghelpers.BuildContext(h.parent, c), u)
}

// onError sees errors the dispatcher has already logged, plus telebot's own.
func onError(err error, c tele.Context) {
	var ctx context.Context
	if c != nil {
		ctx, _ = tghelpers.ContextFrom(c)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "tg.handler_error", slog.Any("err", err))
}

func logMode(ctx context.Context, poller tele.Poller, tb *tele.Bot, took time.Duration) {
	attrs := []slog.Attr{
		slog.String("username", tb.Me.Username),
		slog.Duration("duration", took),
	}
	switch p := poller.(type) {
	case *tele.Webhook:
		attrs = append(attrs,
			slog.String("mode", RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
		)
	case *tele.LongPoller:
		attrs = append(attrs,
			slog.String("mode", RunModeLongpoll),
			slog.Duration("timeout", p.Timeout),
		)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode", attrs...)
}

// httpTimeout leaves room for a long poll on top of ordinary request time.
func httpTimeout(longPollSeconds int) time.Duration {
	poll := defaultLongPollTimeout
	if longPollSeconds > 0 {
		poll = time.Duration(longPollSeconds) * time.Second
	}
	return poll + 30*time.Second
}
