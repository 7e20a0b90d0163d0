package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	boterr "github.com/m3rciful/utilbot/core/errors"
	"github.com/m3rciful/utilbot/core/logger"
)

const noUsername = "—"

func (d *Dispatcher) registerCommands() {
	for _, cmd := range []Command{
		{Name: "start", Description: "welcome menu", Handler: d.handleStart},
		{Name: "help", Description: "list commands", Hidden: true, Handler: d.handleHelp},
		{Name: "id", Description: "show your ID", Handler: d.handleID},
		{Name: "chatinfo", Description: "show chat details", Handler: d.handleChatInfo},
		{Name: "whois", Description: "info about a user", Handler: d.handleWhois},
		{Name: "setwelcome", Usage: "<text>", Description: "set welcome msg (admin)", AdminOnly: true, Handler: d.handleSetWelcome},
		{Name: "broadcast", Usage: "<text>", Description: "send to all groups (admin)", AdminOnly: true, Handler: d.handleBroadcast},
		{Name: "pin", Description: "pin replied message (admin)", AdminOnly: true, Handler: d.handlePin},
	} {
		if err := d.registry.Register(cmd); err != nil {
			panic(err)
		}
	}
}

func (d *Dispatcher) handleStart(ctx context.Context, req Request) error {
	r := Text(fmt.Sprintf("Hello %s! 👋\nUse /help to see commands.", sender(req.Update).FirstName))
	r.Keyboard = [][]Button{
		{{Text: "Show My ID", Action: ActionMyID}},
		{{Text: "Show Chat ID", Action: ActionChatID}},
	}
	return d.reply(ctx, req.Update, r)
}

func (d *Dispatcher) handleHelp(ctx context.Context, req Request) error {
	return d.reply(ctx, req.Update, Text(d.registry.HelpText()))
}

func (d *Dispatcher) handleID(ctx context.Context, req Request) error {
	u := req.Update
	return d.reply(ctx, u, Markdown(fmt.Sprintf("Your ID: `%d`\nChat ID: `%d`", sender(u).ID, u.Chat.ID)))
}

func (d *Dispatcher) handleChatInfo(ctx context.Context, req Request) error {
	chat := req.Update.Chat
	title := chat.Title
	if title == "" {
		title = chat.FullName()
	}
	text := fmt.Sprintf("Chat ID: `%d`\nChat Type: %s\nTitle: %s", chat.ID, chat.Type, escapeMarkdown(title))
	return d.reply(ctx, req.Update, Markdown(text))
}

func (d *Dispatcher) handleWhois(ctx context.Context, req Request) error {
	msg := req.Update.Message
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.From == nil {
		return d.reply(ctx, req.Update, Text("Reply to a user or use an ID/username."))
	}
	user := *msg.ReplyTo.From
	text := fmt.Sprintf("Name: %s\nUser ID: `%d`\nUsername: @%s",
		escapeMarkdown(user.FullName()), user.ID, usernameOrDash(user))
	return d.reply(ctx, req.Update, Markdown(text))
}

func (d *Dispatcher) handleSetWelcome(ctx context.Context, req Request) error {
	u := req.Update
	if req.Args == "" {
		return d.reply(ctx, u, Text("Usage: /setwelcome <text>"))
	}
	if err := d.store.SetWelcome(ctx, u.Chat.ID, req.Args); err != nil {
		persistErr := boterr.Wrap(err, boterr.CodeBotPersistFailure, "set welcome", boterr.FieldChatID(u.Chat.ID))
		if replyErr := d.reply(ctx, u, Text("Could not save the welcome message.")); replyErr != nil {
			return errors.Join(persistErr, replyErr)
		}
		return persistErr
	}
	return d.reply(ctx, u, Text("Welcome message updated!"))
}

// handleNewMembers greets each joined member, in order, with the chat's
// template. One failed greeting does not skip the rest.
func (d *Dispatcher) handleNewMembers(ctx context.Context, u Update) error {
	template, err := d.store.Welcome(ctx, u.Chat.ID)
	if err != nil {
		return err
	}
	var errs []error
	for _, member := range u.NewMembers {
		text := strings.ReplaceAll(template, "{name}", member.FirstName)
		if err := d.reply(ctx, u, Text(text)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// handleBroadcast sends the text to every known group. Failed groups are
// logged and skipped; only cancellation stops the loop.
func (d *Dispatcher) handleBroadcast(ctx context.Context, req Request) error {
	u := req.Update
	if req.Args == "" {
		return d.reply(ctx, u, Text("Usage: /broadcast <text>"))
	}
	groups, err := d.store.Groups(ctx)
	if err != nil {
		return err
	}

	sent, failed := 0, 0
	for _, gid := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := d.client.Send(ctx, gid, req.Args)
		if err == nil {
			sent++
			continue
		}
		failed++
		level := slog.LevelError
		if boterr.IsDelivery(err) {
			level = slog.LevelWarn
		}
		logger.LogEvent(ctx, d.log, level, "broadcast.send",
			slog.String("status", logger.StatusFail),
			slog.Int64("target_chat_id", gid),
			slog.Any("err", err),
		)
	}

	logger.LogEvent(ctx, d.log, slog.LevelInfo, "broadcast.summary",
		slog.Int("groups", len(groups)),
		slog.Int("sent", sent),
		slog.Int("failed", failed),
	)
	return d.reply(ctx, u, Text(fmt.Sprintf("Broadcast sent to %d chats.", sent)))
}

func (d *Dispatcher) handlePin(ctx context.Context, req Request) error {
	u := req.Update
	if u.Message == nil || u.Message.ReplyTo == nil {
		return d.reply(ctx, u, Text("Reply to a message to pin it!"))
	}
	if err := d.client.Pin(ctx, u.Chat.ID, u.Message.ReplyTo.ID); err != nil {
		return err
	}
	return d.reply(ctx, u, Text("Pinned!"))
}

// handleButton acknowledges the press, then edits the menu message in place.
func (d *Dispatcher) handleButton(ctx context.Context, u Update) error {
	cb := u.Callback
	if err := d.client.AnswerCallback(ctx, cb.ID); err != nil {
		logger.LogEvent(ctx, d.log, slog.LevelWarn, "callback.answer",
			slog.String("status", logger.StatusFail),
			slog.Any("err", err),
		)
	}

	var text string
	switch action := ParseAction(cb.Data); action {
	case ActionMyID:
		user := sender(u)
		text = fmt.Sprintf("Your ID: `%d`\nUsername: @%s", user.ID, usernameOrDash(user))
	case ActionChatID:
		text = fmt.Sprintf("Chat ID: `%d`\nChat type: %s", u.Chat.ID, u.Chat.Type)
	case ActionUnknown:
		logger.LogEvent(ctx, d.log, slog.LevelDebug, "callback.unknown",
			slog.String("status", logger.StatusSkip),
			slog.String("data", logger.SanitizeLimit(cb.Data, 64)),
		)
		return nil
	}
	return d.client.Edit(ctx, u.Chat.ID, cb.MessageID, Markdown(text))
}

func sender(u Update) User {
	if u.From == nil {
		return User{}
	}
	return *u.From
}

func usernameOrDash(u User) string {
	if u.Username == "" {
		return noUsername
	}
	return escapeMarkdown(u.Username)
}
