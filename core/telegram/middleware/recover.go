// Package middleware holds telebot middleware shared by every handler.
package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/logger"
	tghelpers "github.com/m3rciful/utilbot/core/telegram/helpers"
)

// Recover turns a handler panic into an error so one bad update cannot
// stop the poller.
func Recover(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				ctx, _ := tghelpers.ContextFrom(c)
				logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("panic in handler: %v", r)
			}
		}()
		return next(c)
	}
}
