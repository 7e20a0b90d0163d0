// Package bot maps incoming chat updates to command handlers. It knows
// nothing about the Telegram wire format; adapters convert their updates
// into Update and implement Client.
package bot

import (
	"strings"
)

// Chat types as reported by Telegram.
const (
	ChatPrivate    = "private"
	ChatGroup      = "group"
	ChatSupergroup = "supergroup"
	ChatChannel    = "channel"
)

// Update is one inbound event: a message, a button press, or a member join.
type Update struct {
	ID         int
	Chat       Chat
	From       *User
	Message    *Message
	NewMembers []User
	Callback   *Callback
}

// Chat is the conversation an update belongs to.
type Chat struct {
	ID        int64
	Type      string
	Title     string
	FirstName string
	LastName  string
	Username  string
}

// IsGroup reports whether the chat is a group or supergroup.
func (c Chat) IsGroup() bool {
	return c.Type == ChatGroup || c.Type == ChatSupergroup
}

// FullName is the private chat's first and last name.
func (c Chat) FullName() string {
	return joinName(c.FirstName, c.LastName)
}

// User is a chat participant.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// FullName joins first and last name with a space.
func (u User) FullName() string {
	return joinName(u.FirstName, u.LastName)
}

// Message is the text message carried by an update.
type Message struct {
	ID      int
	Text    string
	From    *User
	ReplyTo *Message
}

// Callback is an inline button press.
type Callback struct {
	ID        string
	Data      string
	MessageID int
}

func joinName(first, last string) string {
	if last == "" {
		return first
	}
	if first == "" {
		return last
	}
	return first + " " + last
}

// ParseCommand splits "/name@bot arg1  arg2" into "name" and "arg1 arg2".
// Arguments are split on whitespace and re-joined with single spaces.
// ok is false when text is not a command.
func ParseCommand(text string) (name, args string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", "", false
	}
	name = strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.Join(fields[1:], " "), true
}
