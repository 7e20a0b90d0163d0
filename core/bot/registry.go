package bot

import (
	"context"
	"fmt"
	"strings"
)

// HandlerFunc handles one command invocation.
type HandlerFunc func(ctx context.Context, req Request) error

// Request is what a command handler receives.
type Request struct {
	Update Update
	// Args is the text after the command name with whitespace collapsed.
	Args string
}

// Command describes a slash command.
type Command struct {
	Name        string
	Usage       string
	Description string
	// AdminOnly commands are rejected with "Admin only!" for everyone else.
	AdminOnly bool
	// Hidden commands are left out of the /help listing.
	Hidden  bool
	Handler HandlerFunc
}

// MenuEntry is a command as shown in the client's command menu.
type MenuEntry struct {
	Name        string
	Description string
}

// Registry keeps commands in registration order.
type Registry struct {
	order  []string
	byName map[string]Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register adds cmd. Names are case-insensitive and must be unique.
func (r *Registry) Register(cmd Command) error {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cmd.Name), "/"))
	if name == "" || cmd.Handler == nil {
		return fmt.Errorf("register command %q: name and handler are required", cmd.Name)
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("register command %q: already registered", name)
	}
	cmd.Name = name
	r.byName[name] = cmd
	r.order = append(r.order, name)
	return nil
}

// Lookup finds a command by name, with or without the leading slash.
func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.byName[strings.ToLower(strings.TrimPrefix(name, "/"))]
	return cmd, ok
}

// Commands returns all commands in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// HelpText renders one "/name usage - description" line per listed command.
func (r *Registry) HelpText() string {
	var b strings.Builder
	for _, cmd := range r.Commands() {
		if cmd.Hidden {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("/" + cmd.Name)
		if cmd.Usage != "" {
			b.WriteString(" " + cmd.Usage)
		}
		b.WriteString(" - " + cmd.Description)
	}
	return b.String()
}

// Menu lists commands for the client's command menu. Admin-only commands
// are left out.
func (r *Registry) Menu() []MenuEntry {
	var out []MenuEntry
	for _, cmd := range r.Commands() {
		if cmd.AdminOnly || cmd.Description == "" {
			continue
		}
		out = append(out, MenuEntry{Name: cmd.Name, Description: cmd.Description})
	}
	return out
}
