package bot

// Admins is the global allow-list for admin-only commands. It is fixed at
// construction and applies in every chat.
type Admins struct {
	ids map[int64]struct{}
}

// NewAdmins builds the allow-list from ids.
func NewAdmins(ids ...int64) Admins {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return Admins{ids: set}
}

// IsAdmin reports whether userID is on the allow-list.
func (a Admins) IsAdmin(userID int64) bool {
	_, ok := a.ids[userID]
	return ok
}

// Len returns the number of admins.
func (a Admins) Len() int {
	return len(a.ids)
}
