// Package keyboard renders inline keyboards for telebot.
package keyboard

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/bot"
)

// Inline builds an inline keyboard whose buttons carry their action name
// as plain callback data. It returns nil for an empty layout.
func Inline(rows [][]bot.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			r = append(r, tele.InlineButton{Text: b.Text, Data: b.Action.String()})
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}
