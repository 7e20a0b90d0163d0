package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/bot"
	boterr "github.com/m3rciful/utilbot/core/errors"
)

type sentMessage struct {
	to   tele.Recipient
	what interface{}
	opts []interface{}
}

type fakeAPI struct {
	sent     []sentMessage
	edited   []tele.Editable
	pinned   []tele.Editable
	answered []string
	err      error
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.sent = append(f.sent, sentMessage{to: to, what: what, opts: opts})
	return &tele.Message{}, f.err
}

func (f *fakeAPI) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.edited = append(f.edited, msg)
	return &tele.Message{}, f.err
}

func (f *fakeAPI) Pin(msg tele.Editable, opts ...interface{}) error {
	f.pinned = append(f.pinned, msg)
	return f.err
}

func (f *fakeAPI) Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error {
	f.answered = append(f.answered, c.ID)
	return f.err
}

func TestClientReplyOptions(t *testing.T) {
	api := &fakeAPI{}
	c := &Client{api: api}

	r := bot.Markdown("Your ID: `5`")
	r.Keyboard = [][]bot.Button{{{Text: "Show My ID", Action: bot.ActionMyID}}}
	require.NoError(t, c.Reply(context.Background(), -100, 42, r))

	require.Len(t, api.sent, 1)
	msg := api.sent[0]
	assert.Equal(t, "-100", msg.to.Recipient())
	assert.Equal(t, "Your ID: `5`", msg.what)
	require.Len(t, msg.opts, 1)
	opts, ok := msg.opts[0].(*tele.SendOptions)
	require.True(t, ok)
	assert.Equal(t, tele.ModeMarkdown, opts.ParseMode)
	require.NotNil(t, opts.ReplyTo)
	assert.Equal(t, 42, opts.ReplyTo.ID)
	assert.True(t, opts.AllowWithoutReply)
	require.NotNil(t, opts.ReplyMarkup)
	assert.Equal(t, "my_id", opts.ReplyMarkup.InlineKeyboard[0][0].Data)
}

func TestClientPlainSend(t *testing.T) {
	api := &fakeAPI{}
	c := &Client{api: api}

	require.NoError(t, c.Send(context.Background(), -7, "hello"))
	require.Len(t, api.sent, 1)
	assert.Empty(t, api.sent[0].opts)

	require.NoError(t, c.Pin(context.Background(), -7, 11))
	require.Len(t, api.pinned, 1)
	id, chatID := api.pinned[0].MessageSig()
	assert.Equal(t, "11", id)
	assert.Equal(t, int64(-7), chatID)

	require.NoError(t, c.AnswerCallback(context.Background(), "cb"))
	assert.Equal(t, []string{"cb"}, api.answered)
}

func TestClientEditIgnoresNotModified(t *testing.T) {
	api := &fakeAPI{err: &tele.Error{Code: 400, Description: "Bad Request: message is not modified"}}
	c := &Client{api: api}

	require.NoError(t, c.Edit(context.Background(), 1, 2, bot.Text("same")))
	assert.Len(t, api.edited, 1)
}

func TestClientErrorCodes(t *testing.T) {
	ctx := context.Background()

	c := &Client{api: &fakeAPI{err: &tele.Error{Code: 403, Description: "Forbidden: bot was kicked"}}}
	err := c.Send(ctx, -1, "x")
	require.Error(t, err)
	assert.Equal(t, boterr.CodeBotDeliveryFailure, boterr.CodeOf(err))
	assert.True(t, boterr.IsDelivery(err))

	c = &Client{api: &fakeAPI{err: &tele.Error{Code: 502, Description: "Bad Gateway"}}}
	err = c.Send(ctx, -1, "x")
	assert.Equal(t, boterr.CodeBotPlatformFailure, boterr.CodeOf(err))

	c = &Client{api: &fakeAPI{err: errors.New(`Post "https://api.telegram.org/bot1:abc/sendMessage": boom`)}}
	err = c.Send(ctx, -1, "x")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "bot1:abc")
}

func TestClientCanceledContext(t *testing.T) {
	api := &fakeAPI{}
	c := &Client{api: api}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Send(ctx, -1, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.sent)
}
