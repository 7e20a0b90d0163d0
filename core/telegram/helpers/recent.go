package helpers

import (
	"sync"
	"time"
)

// RecentSet remembers update IDs for a short window. Telebot runs the
// handler chain once per joined user for a single update; callers use it
// to act on such an update only once.
type RecentSet struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[int]time.Time
	now  func() time.Time
}

// NewRecentSet returns a set that forgets IDs after ttl.
func NewRecentSet(ttl time.Duration) *RecentSet {
	return &RecentSet{ttl: ttl, seen: make(map[int]time.Time), now: time.Now}
}

// Seen records id and reports whether it was already recorded within ttl.
func (s *RecentSet) Seen(id int) bool {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, ts := range s.seen {
		if now.Sub(ts) > s.ttl {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = now
	return false
}
