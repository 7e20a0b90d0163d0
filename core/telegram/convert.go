package telegram

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/bot"
	"github.com/m3rciful/utilbot/core/telegram/callbacks"
)

// toUpdate converts a telebot update into the platform-neutral form.
// Updates other than messages and button presses yield an update with
// only ID set.
func toUpdate(upd tele.Update) bot.Update {
	u := bot.Update{ID: upd.ID}

	if cb := upd.Callback; cb != nil {
		u.From = toUser(cb.Sender)
		u.Callback = &bot.Callback{ID: cb.ID, Data: callbacks.Key(cb)}
		if cb.Message != nil {
			u.Callback.MessageID = cb.Message.ID
			u.Chat = toChat(cb.Message.Chat)
		}
		return u
	}

	m := upd.Message
	if m == nil {
		return u
	}
	u.Chat = toChat(m.Chat)
	u.From = toUser(m.Sender)
	u.Message = toMessage(m)

	// new_chat_members carries everyone; the legacy single field only the first
	joined := m.UsersJoined
	if len(joined) == 0 && m.UserJoined != nil {
		joined = []tele.User{*m.UserJoined}
	}
	for i := range joined {
		u.NewMembers = append(u.NewMembers, *toUser(&joined[i]))
	}
	return u
}

func toChat(c *tele.Chat) bot.Chat {
	if c == nil {
		return bot.Chat{}
	}
	return bot.Chat{
		ID:        c.ID,
		Type:      string(c.Type),
		Title:     c.Title,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Username:  c.Username,
	}
}

func toUser(u *tele.User) *bot.User {
	if u == nil {
		return nil
	}
	return &bot.User{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func toMessage(m *tele.Message) *bot.Message {
	if m == nil {
		return nil
	}
	out := &bot.Message{ID: m.ID, Text: m.Text, From: toUser(m.Sender)}
	if m.ReplyTo != nil {
		out.ReplyTo = &bot.Message{ID: m.ReplyTo.ID, Text: m.ReplyTo.Text, From: toUser(m.ReplyTo.Sender)}
	}
	return out
}
