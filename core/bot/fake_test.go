package bot

import (
	"context"
	"slices"

	"github.com/m3rciful/utilbot/core/store"
)

type call struct {
	Method     string
	ChatID     int64
	ReplyTo    int
	MessageID  int
	Reply      Reply
	CallbackID string
}

// fakeClient records every outbound call.
type fakeClient struct {
	calls   []call
	sendErr map[int64]error
	pinErr  error
	ackErr  error
}

func (f *fakeClient) Reply(_ context.Context, chatID int64, replyTo int, r Reply) error {
	f.calls = append(f.calls, call{Method: "reply", ChatID: chatID, ReplyTo: replyTo, Reply: r})
	return nil
}

func (f *fakeClient) Send(_ context.Context, chatID int64, text string) error {
	f.calls = append(f.calls, call{Method: "send", ChatID: chatID, Reply: Text(text)})
	return f.sendErr[chatID]
}

func (f *fakeClient) Edit(_ context.Context, chatID int64, messageID int, r Reply) error {
	f.calls = append(f.calls, call{Method: "edit", ChatID: chatID, MessageID: messageID, Reply: r})
	return nil
}

func (f *fakeClient) Pin(_ context.Context, chatID int64, messageID int) error {
	f.calls = append(f.calls, call{Method: "pin", ChatID: chatID, MessageID: messageID})
	return f.pinErr
}

func (f *fakeClient) AnswerCallback(_ context.Context, callbackID string) error {
	f.calls = append(f.calls, call{Method: "answer", CallbackID: callbackID})
	return f.ackErr
}

func (f *fakeClient) byMethod(method string) []call {
	var out []call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeClient) replies() []string {
	var out []string
	for _, c := range f.byMethod("reply") {
		out = append(out, c.Reply.Text)
	}
	return out
}

// memStore is an in-memory store.Store with injectable failures.
type memStore struct {
	welcome map[int64]string
	groups  []int64
	saveErr error
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{welcome: make(map[int64]string)}
}

func (m *memStore) Welcome(_ context.Context, chatID int64) (string, error) {
	if text, ok := m.welcome[chatID]; ok {
		return text, nil
	}
	return store.DefaultWelcome, nil
}

func (m *memStore) SetWelcome(_ context.Context, chatID int64, text string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.welcome[chatID] = text
	return nil
}

func (m *memStore) TrackGroup(_ context.Context, chatID int64) (bool, error) {
	if slices.Contains(m.groups, chatID) {
		return false, nil
	}
	if m.saveErr != nil {
		return false, m.saveErr
	}
	m.groups = append(m.groups, chatID)
	return true, nil
}

func (m *memStore) Groups(_ context.Context) ([]int64, error) {
	return slices.Clone(m.groups), nil
}

func (m *memStore) Close() error { return nil }
