// Package store keeps per-chat welcome templates and the set of known groups.
package store

import "context"

// DefaultWelcome is returned for chats without a custom template.
const DefaultWelcome = "Welcome {name}!"

// Store is the persisted state shared by all command handlers.
// Every mutation is durable once the call returns without error.
type Store interface {
	// Welcome returns the chat's template or DefaultWelcome.
	Welcome(ctx context.Context, chatID int64) (string, error)
	// SetWelcome inserts or overwrites the chat's template.
	SetWelcome(ctx context.Context, chatID int64, text string) error
	// TrackGroup records chatID as a known group. It reports false, and
	// writes nothing, when the group was already known.
	TrackGroup(ctx context.Context, chatID int64) (bool, error)
	// Groups returns known group IDs in the order they were first seen.
	Groups(ctx context.Context) ([]int64, error)
	Close() error
}
