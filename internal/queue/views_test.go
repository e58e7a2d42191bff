package queue

import "testing"

func TestActiveDownloads(t *testing.T) {
	s, _ := newTestStore(t, 1, nil)
	s.Pause()

	a, _ := s.Add("https://example.com/a", Options{})
	b, _ := s.Add("https://example.com/b", Options{})
	paused, _ := s.Add("https://example.com/c", Options{})
	s.PauseItem(paused)

	// Playlist members belong to their group view, not the flat list.
	if _, _, err := s.AddPlaylist("Mix", []PlaylistEntry{
		{URL: "https://example.com/track1", Index: 1},
	}, Options{}); err != nil {
		t.Fatalf("AddPlaylist failed: %v", err)
	}

	s.MoveToTop(b)

	active := s.ActiveDownloads()
	if len(active) != 2 {
		t.Fatalf("ActiveDownloads returned %d items, want 2", len(active))
	}
	if active[0].ID != b || active[1].ID != a {
		t.Errorf("order = [%s %s], want [%s %s]", active[0].ID, active[1].ID, b, a)
	}
}

func TestActiveDownloads_IncludesInFlight(t *testing.T) {
	s, bridge := newTestStore(t, 1, nil)

	id, _ := s.Add("https://example.com/a", Options{})
	bridge.awaitStart(t)

	active := s.ActiveDownloads()
	if len(active) != 1 || active[0].ID != id {
		t.Fatalf("ActiveDownloads = %+v, want the in-flight item", active)
	}
	if !active[0].Status.IsActive() {
		t.Errorf("status = %s, want an in-flight status", active[0].Status)
	}

	bridge.complete(id, "/tmp/a")
	waitFor(t, s, "completed", func(snap Snapshot) bool {
		return statusOf(snap, id) == StatusCompleted
	})
	if got := s.ActiveDownloads(); len(got) != 0 {
		t.Errorf("completed item still listed: %+v", got)
	}
}

func TestPendingCount(t *testing.T) {
	s, bridge := newTestStore(t, 1, nil)
	s.Pause()

	s.Add("https://example.com/a", Options{})
	s.Add("https://example.com/b", Options{})
	paused, _ := s.Add("https://example.com/c", Options{})
	s.PauseItem(paused)

	// Playlist members count while they wait.
	if _, _, err := s.AddPlaylist("Mix", []PlaylistEntry{
		{URL: "https://example.com/track1", Index: 1},
	}, Options{}); err != nil {
		t.Fatalf("AddPlaylist failed: %v", err)
	}

	if got := s.PendingCount(); got != 3 {
		t.Errorf("PendingCount = %d, want 3", got)
	}

	s.Resume()
	bridge.awaitStart(t)
	waitFor(t, s, "one item claimed", func(snap Snapshot) bool {
		return s.PendingCount() == 2
	})
}
