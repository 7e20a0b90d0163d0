package bot

// ButtonAction identifies what an inline button does. It travels as the
// button's callback data.
type ButtonAction int

const (
	ActionUnknown ButtonAction = iota
	ActionMyID
	ActionChatID
)

var actionNames = map[ButtonAction]string{
	ActionMyID:   "my_id",
	ActionChatID: "chat_id",
}

// ParseAction maps callback data to an action. Unrecognised data yields
// ActionUnknown.
func ParseAction(data string) ButtonAction {
	for action, name := range actionNames {
		if name == data {
			return action
		}
	}
	return ActionUnknown
}

// String returns the callback data for a.
func (a ButtonAction) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}
