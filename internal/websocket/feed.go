package websocket

import (
	"context"
	"encoding/json"

	"github.com/fetchdeck/backend/internal/logger"
	"github.com/fetchdeck/backend/internal/queue"
	"go.uber.org/zap"
)

// queueUpdate is the frame pushed to clients whenever the queue changes
type queueUpdate struct {
	Type   string            `json:"type"`
	Paused bool              `json:"paused"`
	Queue  queue.GroupedView `json:"queue"`
}

// Feed subscribes to queue snapshots and broadcasts them through the
// hub. Snapshots arrive coalesced, so a burst of mutations produces
// one frame carrying the latest state.
type Feed struct {
	store *queue.Store
	hub   *Hub
}

// NewFeed creates a feed bridging the store to the hub.
func NewFeed(store *queue.Store, hub *Hub) *Feed {
	return &Feed{store: store, hub: hub}
}

// Run blocks until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) {
	snapshots, unsubscribe := f.store.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			frame, err := json.Marshal(queueUpdate{
				Type:   "queue_update",
				Paused: snap.Paused,
				Queue:  queue.GroupItems(snap.Items),
			})
			if err != nil {
				logger.Error("failed to encode queue update", zap.Error(err))
				continue
			}
			f.hub.Broadcast(frame)
		}
	}
}
