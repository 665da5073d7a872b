package ledger

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultMaxEntries = 1 << 16
	DefaultTTL        = 10 * time.Minute
)

// Ledger remembers message ids that were already delivered locally. It is the
// one piece of mutable state shared by every session and the topic bridge, so
// check-then-insert runs as a single critical section under one lock.
//
// Only the recent loop-back window matters for dedup: a message published by
// a session comes back through the broker within seconds. The set is therefore
// bounded — least-recently-seen ids fall out past maxEntries, and every entry
// expires after ttl.
type Ledger struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

func New(maxEntries int, ttl time.Duration) *Ledger {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Ledger{seen: expirable.NewLRU[string, struct{}](maxEntries, nil, ttl)}
}

// HasSeen reports whether id is already recorded.
func (l *Ledger) HasSeen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen.Contains(id)
}

// MarkSeen records id and reports whether it was new. Concurrent calls for the
// same id hand exactly one caller true.
func (l *Ledger) MarkSeen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen.Contains(id) {
		return false
	}
	l.seen.Add(id, struct{}{})
	return true
}

// Len is the current number of recorded ids.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen.Len()
}
