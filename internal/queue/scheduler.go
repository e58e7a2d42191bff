package queue

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fetchdeck/backend/internal/logger"
)

// DefaultConcurrencyLimit applies when no limit provider is configured
const DefaultConcurrencyLimit = 3

// launch is one dispatch decision: a claimed slot plus everything needed
// to run the worker task outside the lock
type launch struct {
	ctx    context.Context
	req    FetchRequest
	gen    int
	bridge Bridge
}

// dispatchLocked is one dispatch pass. It is greedy and work-conserving:
// while a slot is free, global pause is clear and pending work exists, it
// claims the slot by transitioning the chosen item, so the count check and
// the claim can never interleave with another pass.
func (s *Store) dispatchLocked() []launch {
	if s.paused || s.closed {
		return nil
	}

	limit := DefaultConcurrencyLimit
	if s.limit != nil {
		if n := s.limit(); n > 0 {
			limit = n
		}
	}

	active := 0
	for _, it := range s.items {
		if it.Status.IsActive() {
			active++
		}
	}

	var launches []launch
	for active < limit {
		it := s.nextPendingLocked()
		if it == nil {
			break
		}

		bridge := s.bridges[it.Kind]
		if bridge == nil {
			it.Status = StatusFailed
			it.LastError = "no worker available for kind " + string(it.Kind)
			now := time.Now()
			it.FinishedAt = &now
			continue
		}

		now := time.Now()
		it.StartedAt = &now
		if it.Kind == KindFile {
			it.Status = StatusDownloading
		} else {
			it.Status = StatusFetchingInfo
		}

		ctx, cancel := context.WithCancel(context.Background())
		s.cancels[it.ID] = cancel
		s.gens[it.ID]++
		launches = append(launches, launch{
			ctx:    ctx,
			req:    FetchRequest{ID: it.ID, URL: it.URL, Kind: it.Kind, Options: it.Options},
			gen:    s.gens[it.ID],
			bridge: bridge,
		})
		active++
	}
	return launches
}

// nextPendingLocked selects the pending item with the lowest priority,
// breaking ties by insertion time
func (s *Store) nextPendingLocked() *Item {
	var best *Item
	for _, it := range s.items {
		if it.Status != StatusPending {
			continue
		}
		if best == nil ||
			it.Priority < best.Priority ||
			(it.Priority == best.Priority && it.AddedAt.Before(best.AddedAt)) {
			best = it
		}
	}
	return best
}

// start runs the claimed launches. Called after the lock is released.
func (s *Store) start(launches []launch) {
	for _, l := range launches {
		go s.runFetch(l)
	}
}

func (s *Store) runFetch(l launch) {
	logger.Debug("dispatching download",
		zap.String("id", l.req.ID),
		zap.String("url", l.req.URL))

	res, err := l.bridge.Fetch(l.ctx, l.req, func(ev Event) {
		s.handleEvent(l.req.ID, l.gen, ev)
	})
	if err != nil {
		s.handleFailure(l.req.ID, l.gen, err)
		return
	}
	s.handleSuccess(l.req.ID, l.gen, res)
}

// currentLocked resolves an id/generation pair to its live item, or nil
// if the item is gone or the worker was detached by a pause or cancel
func (s *Store) currentLocked(id string, gen int) *Item {
	it, ok := s.items[id]
	if !ok || s.gens[id] != gen {
		return nil
	}
	return it
}

// handleEvent applies a progress event. Stage transitions follow the
// worker's own progression; progress never decreases while active.
func (s *Store) handleEvent(id string, gen int, ev Event) {
	s.mu.Lock()
	it := s.currentLocked(id, gen)
	if it == nil || !it.Status.IsActive() {
		s.mu.Unlock()
		return
	}

	switch ev.Stage {
	case StageDownload:
		it.Status = StatusDownloading
	case StageProcess:
		it.Status = StatusProcessing
	}
	if ev.Progress > it.Progress {
		it.Progress = ev.Progress
	}
	if ev.Speed != "" {
		it.Speed = ev.Speed
	}
	if ev.ETA != "" {
		it.ETA = ev.ETA
	}
	if ev.Message != "" {
		it.StatusMessage = ev.Message
	}
	if ev.Title != "" {
		it.Title = ev.Title
	}
	if ev.Size > 0 {
		it.Size = ev.Size
	}
	if ev.Duration > 0 {
		it.Duration = ev.Duration
	}

	s.afterMutationLocked()
	s.mu.Unlock()
}

// handleSuccess records a terminal success and immediately re-dispatches
// with the freed slot
func (s *Store) handleSuccess(id string, gen int, res *Result) {
	s.mu.Lock()
	it := s.currentLocked(id, gen)
	if it == nil || !it.Status.IsActive() {
		s.mu.Unlock()
		return
	}
	delete(s.cancels, id)

	it.Status = StatusCompleted
	it.Progress = 100
	it.Speed, it.ETA, it.StatusMessage = "", "", ""
	if res != nil && res.OutputPath != "" {
		it.OutputPath = res.OutputPath
	}
	now := time.Now()
	it.FinishedAt = &now

	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)

	logger.Info("download completed", zap.String("id", id))
}

// handleFailure records a terminal failure and immediately re-dispatches
// with the freed slot. Context cancellation is not a failure: it means
// the worker was detached by a pause, cancel or shutdown that has already
// settled the item's state.
func (s *Store) handleFailure(id string, gen int, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}

	s.mu.Lock()
	it := s.currentLocked(id, gen)
	if it == nil || !it.Status.IsActive() {
		s.mu.Unlock()
		return
	}
	delete(s.cancels, id)

	it.Status = StatusFailed
	it.LastError = err.Error()
	it.Speed, it.ETA = "", ""
	now := time.Now()
	it.FinishedAt = &now

	launches := s.dispatchLocked()
	s.afterMutationLocked()
	s.mu.Unlock()
	s.start(launches)

	logger.Warn("download failed", zap.String("id", id), zap.Error(err))
}
