package bot

import "context"

// Client sends output back to the chat platform.
type Client interface {
	// Reply sends r to chatID as a reply to message replyTo.
	Reply(ctx context.Context, chatID int64, replyTo int, r Reply) error
	// Send posts plain text to chatID.
	Send(ctx context.Context, chatID int64, text string) error
	// Edit replaces the text and keyboard of an existing message.
	Edit(ctx context.Context, chatID int64, messageID int, r Reply) error
	// Pin pins messageID in chatID.
	Pin(ctx context.Context, chatID int64, messageID int) error
	// AnswerCallback acknowledges a button press.
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Reply is an outgoing message body.
type Reply struct {
	Text     string
	Markdown bool
	Keyboard [][]Button
}

// Button is an inline keyboard button.
type Button struct {
	Text   string
	Action ButtonAction
}

// Text is a plain text reply.
func Text(s string) Reply {
	return Reply{Text: s}
}

// Markdown is a reply rendered with the legacy Markdown parse mode.
func Markdown(s string) Reply {
	return Reply{Text: s, Markdown: true}
}
