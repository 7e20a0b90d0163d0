package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/bot"
)

func TestToUpdateMessage(t *testing.T) {
	upd := tele.Update{
		ID: 7,
		Message: &tele.Message{
			ID:     42,
			Text:   "/whois",
			Sender: &tele.User{ID: 5, FirstName: "Ann", Username: "ann"},
			Chat:   &tele.Chat{ID: -100, Type: tele.ChatSuperGroup, Title: "Team"},
			ReplyTo: &tele.Message{
				ID:     41,
				Text:   "hi",
				Sender: &tele.User{ID: 9, FirstName: "Bob", LastName: "Stone"},
			},
		},
	}

	u := toUpdate(upd)
	assert.Equal(t, 7, u.ID)
	assert.Equal(t, bot.Chat{ID: -100, Type: bot.ChatSupergroup, Title: "Team"}, u.Chat)
	require.NotNil(t, u.From)
	assert.Equal(t, int64(5), u.From.ID)
	require.NotNil(t, u.Message)
	assert.Equal(t, 42, u.Message.ID)
	require.NotNil(t, u.Message.ReplyTo)
	assert.Equal(t, 41, u.Message.ReplyTo.ID)
	assert.Equal(t, "Bob Stone", u.Message.ReplyTo.From.FullName())
	assert.Nil(t, u.Callback)
	assert.Empty(t, u.NewMembers)
}

func TestToUpdateJoins(t *testing.T) {
	chat := &tele.Chat{ID: -5, Type: tele.ChatGroup}

	u := toUpdate(tele.Update{ID: 1, Message: &tele.Message{
		Chat:        chat,
		UsersJoined: []tele.User{{ID: 1, FirstName: "A"}, {ID: 2, FirstName: "B"}},
		UserJoined:  &tele.User{ID: 1, FirstName: "A"},
	}})
	require.Len(t, u.NewMembers, 2)
	assert.Equal(t, "A", u.NewMembers[0].FirstName)
	assert.Equal(t, "B", u.NewMembers[1].FirstName)

	u = toUpdate(tele.Update{ID: 2, Message: &tele.Message{
		Chat:       chat,
		UserJoined: &tele.User{ID: 3, FirstName: "C"},
	}})
	require.Len(t, u.NewMembers, 1)
	assert.Equal(t, "C", u.NewMembers[0].FirstName)
}

func TestToUpdateCallback(t *testing.T) {
	u := toUpdate(tele.Update{ID: 3, Callback: &tele.Callback{
		ID:      "cb1",
		Data:    "\fmy_id|",
		Sender:  &tele.User{ID: 8},
		Message: &tele.Message{ID: 99, Chat: &tele.Chat{ID: 8, Type: tele.ChatPrivate}},
	}})
	require.NotNil(t, u.Callback)
	assert.Equal(t, &bot.Callback{ID: "cb1", Data: "my_id", MessageID: 99}, u.Callback)
	assert.Equal(t, int64(8), u.Chat.ID)
	assert.Equal(t, bot.ChatPrivate, u.Chat.Type)
	assert.Nil(t, u.Message)
}

func TestToUpdateOther(t *testing.T) {
	assert.Equal(t, bot.Update{ID: 4}, toUpdate(tele.Update{ID: 4}))
}
