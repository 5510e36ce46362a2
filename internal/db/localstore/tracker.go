package localstore

import "sync"

// Tracker fans table change notifications out to subscribers. Each
// subscriber has a one-slot channel: notifications that arrive while one is
// pending are coalesced, and Notify never blocks.
type Tracker struct {
	subs map[*subscriber]struct{}
	mu   sync.Mutex
}

type subscriber struct {
	tables map[string]struct{} // empty means every table
	ch     chan struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers interest in tables, or in every table when none are
// given. The returned func unsubscribes and may be called more than once.
func (t *Tracker) Subscribe(tables ...string) (<-chan struct{}, func()) {
	sub := &subscriber{
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan struct{}, 1),
	}
	for _, table := range tables {
		sub.tables[table] = struct{}{}
	}

	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, sub)
			t.mu.Unlock()
		})
	}
}

// Notify signals every subscriber interested in any of tables.
func (t *Tracker) Notify(tables ...string) {
	if len(tables) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for sub := range t.subs {
		if !sub.wants(tables) {
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

func (s *subscriber) wants(tables []string) bool {
	if len(s.tables) == 0 {
		return true
	}
	for _, table := range tables {
		if _, ok := s.tables[table]; ok {
			return true
		}
	}
	return false
}
