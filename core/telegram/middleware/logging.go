package middleware

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/utilbot/core/telegram/helpers"
)

// Logging stores the per-update context derived from parent and logs one
// sampled "update.received" line per update.
func Logging(parent context.Context) tele.MiddlewareFunc {
	recent := tghelpers.NewRecentSet(10 * time.Second)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			ctx := tghelpers.BuildContext(parent, c)
			upd := c.Update()
			if !logger.ShouldSampleDebug() || recent.Seen(upd.ID) {
				return next(c)
			}

			var attrs []slog.Attr
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if user := c.Sender(); user != nil && user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
			switch {
			case upd.Callback != nil:
				attrs = append(attrs,
					slog.String("kind", "callback"),
					slog.String("action", logger.SanitizeLimit(callbacks.Key(upd.Callback), 64)),
				)
			case upd.Message != nil:
				kind := "message"
				if upd.Message.UserJoined != nil || len(upd.Message.UsersJoined) > 0 {
					kind = "user_joined"
				}
				attrs = append(attrs, slog.String("kind", kind))
				if t := c.Text(); t != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
				}
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
			return next(c)
		}
	}
}
