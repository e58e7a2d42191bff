package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fetchdeck/backend/internal/logger"
	"github.com/fetchdeck/backend/internal/validators"
)

const persistTimeout = 10 * time.Second

var (
	// ErrDuplicate signals that an equivalent download is already queued.
	// Re-adding is idempotent: no new item is created and no state changes.
	ErrDuplicate = errors.New("duplicate download")

	// ErrClosed is returned by mutations after Close
	ErrClosed = errors.New("queue store is closed")
)

// Snapshot is the consistent post-mutation view delivered to observers
type Snapshot struct {
	Items  []Item `json:"items"`
	Paused bool   `json:"paused"`
}

// Config configures a Store
type Config struct {
	// ConcurrencyLimit is read once per dispatch decision, so setting
	// changes apply to future dispatches only. Nil or non-positive
	// values fall back to DefaultConcurrencyLimit.
	ConcurrencyLimit func() int

	// Bridges maps item kinds to the worker that fetches them
	Bridges map[Kind]Bridge

	// Saver persists snapshots across restarts. Optional.
	Saver Saver
}

// Store is the canonical mutable collection of download items plus the
// global pause flag. All mutations complete synchronously under one lock:
// the slot-counting check, the status transitions that claim slots, and
// the snapshot observers receive all belong to the same pass, so no
// partially-applied batch is ever observable.
type Store struct {
	mu       sync.Mutex
	items    map[string]*Item
	paused   bool
	nextPrio int
	closed   bool

	limit   func() int
	bridges map[Kind]Bridge
	saver   Saver

	// cancels holds the abort function for each in-flight worker task;
	// gens invalidates events from workers that were detached by a
	// pause or cancel before they noticed
	cancels map[string]context.CancelFunc
	gens    map[string]int

	subs    map[int]chan Snapshot
	nextSub int

	saveCh   chan []Item
	saveDone chan struct{}
}

// Open builds a Store, restores the persisted snapshot if a Saver is
// configured, and dispatches any eligible pending work. Items that were
// mid-flight when the previous process exited are rehydrated as pending:
// no worker survives a restart.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if len(cfg.Bridges) == 0 {
		return nil, errors.New("queue: at least one bridge is required")
	}

	s := &Store{
		items:    make(map[string]*Item),
		limit:    cfg.ConcurrencyLimit,
		bridges:  cfg.Bridges,
		saver:    cfg.Saver,
		cancels:  make(map[string]context.CancelFunc),
		gens:     make(map[string]int),
		subs:     make(map[int]chan Snapshot),
		saveCh:   make(chan []Item, 1),
		saveDone: make(chan struct{}),
	}

	if s.saver != nil {
		items, err := s.saver.Load(ctx)
		if err != nil {
			logger.Warn("queue snapshot load failed, starting empty", zap.Error(err))
			items = nil
		}
		for _, loaded := range items {
			it := loaded
			if it.Status.IsActive() {
				it.Status = StatusPending
				it.Progress = 0
				it.Speed, it.ETA, it.StatusMessage = "", "", ""
				it.StartedAt = nil
			}
			if it.Priority >= s.nextPrio {
				s.nextPrio = it.Priority + 1
			}
			s.items[it.ID] = &it
		}
		if len(s.items) > 0 {
			logger.Info("queue snapshot restored", zap.Int("items", len(s.items)))
		}
	}

	go s.persistLoop()

	s.mu.Lock()
	launches := s.dispatchLocked()
	s.mu.Unlock()
	s.start(launches)

	return s, nil
}

// Close aborts all in-flight workers, stops the persistence loop and
// writes a final synchronous snapshot
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
	}
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	items := s.snapshotLocked().Items
	s.mu.Unlock()

	close(s.saveCh)
	<-s.saveDone

	if s.saver != nil {
		if err := s.saver.Save(ctx, items); err != nil {
			return fmt.Errorf("final queue snapshot save: %w", err)
		}
	}
	return nil
}

// Add normalizes rawURL, rejects duplicates of any non-terminal item with
// the same fingerprint, and otherwise appends a new pending media item at
// the back of the queue. Returns ErrDuplicate for duplicates and
// validators.ErrInvalidURL for URLs that cannot be normalized.
func (s *Store) Add(rawURL string, opts Options) (string, error) {
	return s.add(rawURL, KindMedia, opts)
}

// AddFile is Add for direct file downloads, which skip the metadata-fetch
// stage and go straight to downloading when dispatched
func (s *Store) AddFile(rawURL string, opts Options) (string, error) {
	return s.add(rawURL, KindFile, opts)
}

func (s *Store) add(rawURL string, kind Kind, opts Options) (string, error) {
	norm, err := validators.Canonicalize(rawURL)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	fp := opts.Fingerprint(norm)
	if s.hasDuplicateLocked(fp) {
		s.mu.Unlock()
		return "", ErrDuplicate
	}

	it := s.newItemLocked(norm, kind, opts)
	s.items[it.ID] = it

	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)

	logger.Info("download added",
		zap.String("id", it.ID),
		zap.String("url", norm),
		zap.String("kind", string(kind)))
	return it.ID, nil
}

// PlaylistEntry is one expanded member of a playlist
type PlaylistEntry struct {
	URL      string
	Title    string
	Index    int
	Duration float64
	Size     int64
}

// AddPlaylist creates one item per entry, all sharing a freshly assigned
// playlist ID. Entries whose fingerprint duplicates an existing
// non-terminal item (or an earlier entry of the same batch) are skipped.
// Observers see the whole batch as a single notification. Returns
// ErrDuplicate when every entry was a duplicate.
func (s *Store) AddPlaylist(title string, entries []PlaylistEntry, opts Options) (string, []string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", nil, ErrClosed
	}

	playlistID := uuid.New().String()
	seen := make(map[string]bool)
	var ids []string

	for _, e := range entries {
		norm, err := validators.Canonicalize(e.URL)
		if err != nil {
			logger.Warn("skipping playlist entry with invalid URL",
				zap.String("url", e.URL), zap.Error(err))
			continue
		}
		fp := opts.Fingerprint(norm)
		if seen[fp] || s.hasDuplicateLocked(fp) {
			continue
		}
		seen[fp] = true

		it := s.newItemLocked(norm, KindMedia, opts)
		it.PlaylistID = playlistID
		it.PlaylistIndex = e.Index
		it.PlaylistTitle = title
		it.Title = e.Title
		it.Duration = e.Duration
		it.Size = e.Size
		s.items[it.ID] = it
		ids = append(ids, it.ID)
	}

	if len(ids) == 0 {
		s.mu.Unlock()
		return "", nil, ErrDuplicate
	}

	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)

	logger.Info("playlist added",
		zap.String("playlist_id", playlistID),
		zap.String("title", title),
		zap.Int("items", len(ids)))
	return playlistID, ids, nil
}

// newItemLocked appends a new pending item at the lowest priority
func (s *Store) newItemLocked(normURL string, kind Kind, opts Options) *Item {
	it := &Item{
		ID:       uuid.New().String(),
		URL:      normURL,
		Kind:     kind,
		Status:   StatusPending,
		Priority: s.nextPrio,
		Options:  opts,
		AddedAt:  time.Now(),
	}
	s.nextPrio++
	return it
}

func (s *Store) hasDuplicateLocked(fingerprint string) bool {
	for _, it := range s.items {
		if !it.IsTerminal() && it.Fingerprint() == fingerprint {
			return true
		}
	}
	return false
}

// Cancel aborts the item's worker if one is running and removes the item
// from the store. Unknown ids are a no-op.
func (s *Store) Cancel(id string) {
	s.mu.Lock()
	if _, ok := s.items[id]; !ok {
		s.mu.Unlock()
		return
	}
	s.detachLocked(id)
	delete(s.items, id)
	delete(s.gens, id)

	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)

	logger.Info("download cancelled", zap.String("id", id))
}

// PauseItem pauses a pending or in-flight item. The worker is signalled
// best-effort and the slot is released immediately; invalid transitions
// are no-ops.
func (s *Store) PauseItem(id string) {
	s.mu.Lock()
	if !s.pauseItemLocked(id) {
		s.mu.Unlock()
		return
	}
	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)
}

func (s *Store) pauseItemLocked(id string) bool {
	it, ok := s.items[id]
	if !ok || (it.Status != StatusPending && !it.Status.IsActive()) {
		return false
	}
	s.detachLocked(id)
	it.Status = StatusPaused
	it.Speed, it.ETA = "", ""
	return true
}

// ResumeItem moves a paused item back to pending. No-op otherwise.
func (s *Store) ResumeItem(id string) {
	s.mu.Lock()
	if !s.resumeItemLocked(id) {
		s.mu.Unlock()
		return
	}
	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)
}

func (s *Store) resumeItemLocked(id string) bool {
	it, ok := s.items[id]
	if !ok || it.Status != StatusPaused {
		return false
	}
	it.Status = StatusPending
	return true
}

// MoveToTop gives the item a priority below the current minimum among
// pending items, making it the next dispatched. Only meaningful for
// pending or paused items.
func (s *Store) MoveToTop(id string) {
	s.mu.Lock()
	it, ok := s.items[id]
	if !ok || (it.Status != StatusPending && it.Status != StatusPaused) {
		s.mu.Unlock()
		return
	}

	min := it.Priority
	for _, other := range s.items {
		if (other.Status == StatusPending || other.Status == StatusPaused) && other.Priority < min {
			min = other.Priority
		}
	}
	it.Priority = min - 1

	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)
}

// Retry re-queues a failed item. Retries are an explicit user action, the
// scheduler never retries on its own.
func (s *Store) Retry(id string) {
	s.mu.Lock()
	it, ok := s.items[id]
	if !ok || it.Status != StatusFailed {
		s.mu.Unlock()
		return
	}
	it.Status = StatusPending
	it.RetryCount++
	it.Progress = 0
	it.LastError = ""
	it.FinishedAt = nil

	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)
}

// Pause sets the global pause flag: no new items are dispatched while it
// is set, but in-flight items continue unless individually paused.
func (s *Store) Pause() {
	s.mu.Lock()
	if s.paused || s.closed {
		s.mu.Unlock()
		return
	}
	s.paused = true
	s.afterMutationLocked()
	s.mu.Unlock()
	logger.Info("queue paused")
}

// Resume clears the global pause flag and dispatches eligible work
func (s *Store) Resume() {
	s.mu.Lock()
	if !s.paused || s.closed {
		s.mu.Unlock()
		return
	}
	s.paused = false
	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)
	logger.Info("queue resumed")
}

// TogglePause flips the global pause flag and returns the new state.
// The read and the flip happen under one lock pass so concurrent
// togglers always land on alternating states.
func (s *Store) TogglePause() bool {
	s.mu.Lock()
	if s.closed {
		paused := s.paused
		s.mu.Unlock()
		return paused
	}
	s.paused = !s.paused
	paused := s.paused
	var launches []launch
	if !paused {
		launches = s.dispatchLocked()
	}
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)

	if paused {
		logger.Info("queue paused")
	} else {
		logger.Info("queue resumed")
	}
	return paused
}

// PausePlaylist pauses every pausable member of the playlist in one pass;
// observers receive a single notification for the whole batch
func (s *Store) PausePlaylist(playlistID string) {
	s.mu.Lock()
	changed := false
	for id, it := range s.items {
		if it.PlaylistID == playlistID && s.pauseItemLocked(id) {
			changed = true
		}
	}
	if !changed {
		s.mu.Unlock()
		return
	}
	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)
}

// ResumePlaylist resumes every paused member of the playlist in one pass
func (s *Store) ResumePlaylist(playlistID string) {
	s.mu.Lock()
	changed := false
	for id, it := range s.items {
		if it.PlaylistID == playlistID && s.resumeItemLocked(id) {
			changed = true
		}
	}
	if !changed {
		s.mu.Unlock()
		return
	}
	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)
}

// CancelPlaylist removes every member of the playlist, aborting any
// in-flight workers, in one pass
func (s *Store) CancelPlaylist(playlistID string) {
	s.mu.Lock()
	changed := false
	for id, it := range s.items {
		if it.PlaylistID != playlistID {
			continue
		}
		s.detachLocked(id)
		delete(s.items, id)
		delete(s.gens, id)
		changed = true
	}
	if !changed {
		s.mu.Unlock()
		return
	}
	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)

	logger.Info("playlist cancelled", zap.String("playlist_id", playlistID))
}

// ClearFinished removes all completed and failed items and returns how
// many were cleared
func (s *Store) ClearFinished() int {
	s.mu.Lock()
	cleared := 0
	for id, it := range s.items {
		if it.IsTerminal() {
			delete(s.items, id)
			delete(s.gens, id)
			cleared++
		}
	}
	if cleared == 0 {
		s.mu.Unlock()
		return 0
	}
	s.afterMutationLocked()
	s.mu.Unlock()
	return cleared
}

// detachLocked aborts the item's worker task, if any, and invalidates
// any events it may still emit
func (s *Store) detachLocked(id string) {
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
	s.gens[id]++
}

// afterMutationLocked takes the post-mutation snapshot and hands it to
// the persistence loop and every subscriber. Both handoffs are
// non-blocking with latest-wins semantics.
func (s *Store) afterMutationLocked() {
	snap := s.snapshotLocked()
	s.enqueueSaveLocked(snap.Items)
	s.notifyLocked(snap)
}

func (s *Store) snapshotLocked() Snapshot {
	items := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, *it)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].AddedAt.Before(items[j].AddedAt)
		}
		return items[i].ID < items[j].ID
	})
	return Snapshot{Items: items, Paused: s.paused}
}

func (s *Store) enqueueSaveLocked(items []Item) {
	if s.saver == nil || s.closed {
		return
	}
	select {
	case s.saveCh <- items:
	default:
		select {
		case <-s.saveCh:
		default:
		}
		select {
		case s.saveCh <- items:
		default:
		}
	}
}

func (s *Store) notifyLocked(snap Snapshot) {
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// persistLoop serializes snapshot writes. Saves may be coalesced under
// load (latest wins) but the final state is always flushed by Close.
func (s *Store) persistLoop() {
	defer close(s.saveDone)
	for items := range s.saveCh {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := s.saver.Save(ctx, items); err != nil {
			logger.Warn("queue snapshot save failed", zap.Error(err))
		}
		cancel()
	}
}
