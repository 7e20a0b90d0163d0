package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/bot"
	boterr "github.com/m3rciful/utilbot/core/errors"
	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/netutil"
)

// api is the subset of *tele.Bot the client calls.
type api interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Pin(msg tele.Editable, opts ...interface{}) error
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Client implements bot.Client over the Bot API.
type Client struct {
	api api
}

var _ bot.Client = (*Client)(nil)

// NewClient wraps a telebot instance.
func NewClient(b *tele.Bot) *Client {
	return &Client{api: b}
}

func (c *Client) Reply(ctx context.Context, chatID int64, replyTo int, r bot.Reply) error {
	opts := sendOptions(r)
	if replyTo != 0 {
		opts.ReplyTo = &tele.Message{ID: replyTo}
		opts.AllowWithoutReply = true
	}
	return c.call(ctx, "reply", chatID, func() error {
		_, err := c.api.Send(tele.ChatID(chatID), r.Text, opts)
		return err
	})
}

func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "send", chatID, func() error {
		_, err := c.api.Send(tele.ChatID(chatID), text)
		return err
	})
}

func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, r bot.Reply) error {
	return c.call(ctx, "edit", chatID, func() error {
		_, err := c.api.Edit(storedMessage(chatID, messageID), r.Text, sendOptions(r))
		if err != nil && strings.Contains(err.Error(), "message is not modified") {
			// pressing the same button twice edits to identical content
			return nil
		}
		return err
	})
}

func (c *Client) Pin(ctx context.Context, chatID int64, messageID int) error {
	return c.call(ctx, "pin", chatID, func() error {
		return c.api.Pin(storedMessage(chatID, messageID))
	})
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answer_callback", 0, func() error {
		return c.api.Respond(&tele.Callback{ID: callbackID})
	})
}

// call runs one API request and codes its failure. Rejections aimed at a
// single chat (4xx, flood control, network trouble) are delivery failures;
// server-side errors are platform failures.
func (c *Client) call(ctx context.Context, action string, chatID int64, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	if err == nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "tg.call",
			slog.String("status", logger.StatusOK),
			slog.String("action", action),
			slog.Duration("duration", logger.Took(start)),
		)
		return nil
	}

	kind := netutil.Classify(err)
	if kind == netutil.KindCanceled {
		return err
	}
	code := boterr.CodeBotDeliveryFailure
	if kind == netutil.KindHTTP5xx || kind == netutil.KindUnknown {
		code = boterr.CodeBotPlatformFailure
	}
	fields := []boterr.Attr{
		boterr.Field("action", action),
		boterr.Field("kind", kind),
	}
	if chatID != 0 {
		fields = append(fields, boterr.Field("target_chat_id", chatID))
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "tg.call",
		slog.String("status", logger.StatusFail),
		slog.String("action", action),
		slog.String("kind", kind),
		slog.Duration("duration", logger.Took(start)),
	)
	return boterr.Wrap(errors.New(netutil.Redact(err.Error())), code, "telegram "+action, fields...)
}

func sendOptions(r bot.Reply) *tele.SendOptions {
	opts := &tele.SendOptions{}
	if r.Markdown {
		opts.ParseMode = tele.ModeMarkdown
	}
	if markup := keyboard.Inline(r.Keyboard); markup != nil {
		opts.ReplyMarkup = markup
	}
	return opts
}

func storedMessage(chatID int64, messageID int) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
}
