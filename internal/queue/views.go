package queue

import "sort"

// Snapshot returns a consistent copy of the whole queue
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns a copy of one item
func (s *Store) Get(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// ActiveDownloads returns pending and in-flight standalone items, in
// dispatch order. Playlist members are represented by their group in the
// grouped view rather than listed here.
func (s *Store) ActiveDownloads() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []Item
	for _, it := range s.items {
		if it.PlaylistID != "" {
			continue
		}
		if it.Status == StatusPending || it.Status.IsActive() {
			items = append(items, *it)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority < items[j].Priority
		}
		return items[i].AddedAt.Before(items[j].AddedAt)
	})
	return items
}

// PendingCount returns the number of items waiting to be dispatched
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, it := range s.items {
		if it.Status == StatusPending {
			count++
		}
	}
	return count
}

// IsPaused reports the global pause flag
func (s *Store) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Grouped returns the playlist groups plus standalone items derived from
// the current snapshot
func (s *Store) Grouped() GroupedView {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return GroupItems(snap.Items)
}

// Subscribe registers an observer. The channel immediately carries the
// current snapshot and then one consistent snapshot per mutation; a slow
// observer sees the latest state rather than an unbounded backlog. The
// returned function unsubscribes.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}
