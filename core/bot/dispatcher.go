package bot

import (
	"context"
	"log/slog"
	"time"

	boterr "github.com/m3rciful/utilbot/core/errors"
	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/store"
)

const replyAdminOnly = "Admin only!"

// Dispatcher routes updates to handlers. It holds the shared store and is
// safe to use from one goroutine at a time per update; the store guards
// its own state.
type Dispatcher struct {
	store    store.Store
	admins   Admins
	client   Client
	registry *Registry
	log      *slog.Logger
}

// NewDispatcher wires the built-in commands. A nil log discards output.
func NewDispatcher(st store.Store, admins Admins, client Client, log *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		store:    st,
		admins:   admins,
		client:   client,
		registry: NewRegistry(),
		log:      logger.OrDiscard(log),
	}
	d.registerCommands()
	return d
}

// Registry exposes the command table, e.g. for the client's command menu.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Handle processes one update:
//  1. a button press goes to the button handler;
//  2. any update from a group records the group;
//  3. member joins are greeted;
//  4. a registered command runs its handler.
//
// Anything else is ignored. The returned error is already logged.
func (d *Dispatcher) Handle(ctx context.Context, u Update) error {
	var userID int64
	if u.From != nil {
		userID = u.From.ID
	}
	ctx = logger.WithRID(ctx, logger.BuildRID(u.ID, u.Chat.ID, userID))
	ctx = logger.WithUpdateMeta(ctx, u.ID, userID, u.Chat.ID)

	if u.Callback != nil {
		return d.run(ctx, "button", func(ctx context.Context) error {
			return d.handleButton(ctx, u)
		}, slog.String("action", ParseAction(u.Callback.Data).String()))
	}

	if u.Chat.IsGroup() {
		d.trackGroup(ctx, u.Chat.ID)
	}

	if len(u.NewMembers) > 0 {
		return d.run(ctx, "welcome", func(ctx context.Context) error {
			return d.handleNewMembers(ctx, u)
		}, slog.Int("members", len(u.NewMembers)))
	}

	if u.Message == nil {
		return nil
	}
	name, args, ok := ParseCommand(u.Message.Text)
	if !ok {
		return nil
	}
	cmd, ok := d.registry.Lookup(name)
	if !ok {
		return nil
	}

	if cmd.AdminOnly && !d.admins.IsAdmin(userID) {
		start := time.Now()
		ctx = logger.WithHandler(ctx, cmd.Name)
		err := d.reply(ctx, u, Text(replyAdminOnly))
		d.summary(ctx, start, logger.StatusDenied, err)
		return err
	}
	return d.run(ctx, cmd.Name, func(ctx context.Context) error {
		return cmd.Handler(ctx, Request{Update: u, Args: args})
	})
}

func (d *Dispatcher) run(ctx context.Context, handler string, fn func(context.Context) error, extras ...slog.Attr) error {
	start := time.Now()
	ctx = logger.WithHandler(ctx, handler)
	err := fn(ctx)
	d.summary(ctx, start, logger.Status(err), err, extras...)
	return err
}

func (d *Dispatcher) summary(ctx context.Context, start time.Time, status string, err error, extras ...slog.Attr) {
	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", string(boterr.CodeOf(err))),
		)
	}
	attrs = append(attrs, extras...)
	logger.LogEvent(ctx, d.log, level, "handler.handled", attrs...)
}

func (d *Dispatcher) trackGroup(ctx context.Context, chatID int64) {
	added, err := d.store.TrackGroup(ctx, chatID)
	switch {
	case err != nil:
		logger.LogEvent(ctx, d.log, slog.LevelError, "group.track",
			slog.String("status", logger.StatusFail),
			slog.Any("err", err),
		)
	case added:
		logger.LogEvent(ctx, d.log, slog.LevelInfo, "group.track",
			slog.String("status", logger.StatusOK),
		)
	}
}

// reply answers the update's message in its chat.
func (d *Dispatcher) reply(ctx context.Context, u Update, r Reply) error {
	var replyTo int
	if u.Message != nil {
		replyTo = u.Message.ID
	}
	return d.client.Reply(ctx, u.Chat.ID, replyTo, r)
}
