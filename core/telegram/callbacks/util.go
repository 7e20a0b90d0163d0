// Package callbacks decodes inline button callback data.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse splits telebot's "\f<unique>|<payload>" encoding. Plain data
// without the prefix is returned as the key.
func Parse(data string) (key, payload string) {
	raw := strings.TrimPrefix(data, "\f")
	key, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// Key returns the action key of cb: its Unique when telebot already
// matched a handler, otherwise the key parsed from Data.
func Key(cb *tele.Callback) string {
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	key, _ := Parse(cb.Data)
	return key
}
