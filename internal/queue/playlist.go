package queue

import "sort"

// Group is the derived view over all items sharing a playlist ID. It owns
// no state of its own: it is recomputed from the live item set and can
// never drift out of sync with it.
type Group struct {
	PlaylistID     string  `json:"playlist_id"`
	Title          string  `json:"title"`
	Items          []Item  `json:"items"`
	TotalSize      int64   `json:"total_size"`
	TotalDuration  float64 `json:"total_duration"`
	CompletedCount int     `json:"completed_count"`
	FailedCount    int     `json:"failed_count"`
	PausedCount    int     `json:"paused_count"`
	Progress       int     `json:"progress"` // completed members as a percentage
	HasActiveWork  bool    `json:"has_active_work"`
}

// GroupedView partitions the queue into playlist groups and standalone
// items
type GroupedView struct {
	Groups  []Group `json:"groups"`
	Singles []Item  `json:"singles"`
}

// GroupItems derives the grouped view from an item list. It is pure:
// the input is never mutated and equal inputs produce equal outputs.
func GroupItems(items []Item) GroupedView {
	byPlaylist := make(map[string][]Item)
	var singles []Item
	var order []string

	for _, it := range items {
		if it.PlaylistID == "" {
			singles = append(singles, it)
			continue
		}
		if _, seen := byPlaylist[it.PlaylistID]; !seen {
			order = append(order, it.PlaylistID)
		}
		byPlaylist[it.PlaylistID] = append(byPlaylist[it.PlaylistID], it)
	}

	groups := make([]Group, 0, len(order))
	for _, pid := range order {
		members := byPlaylist[pid]
		sort.Slice(members, func(i, j int) bool {
			if members[i].PlaylistIndex != members[j].PlaylistIndex {
				return members[i].PlaylistIndex < members[j].PlaylistIndex
			}
			return members[i].AddedAt.Before(members[j].AddedAt)
		})

		g := Group{
			PlaylistID: pid,
			Title:      members[0].PlaylistTitle,
			Items:      members,
		}
		for _, it := range members {
			g.TotalSize += it.Size
			g.TotalDuration += it.Duration
			switch {
			case it.Status == StatusCompleted:
				g.CompletedCount++
			case it.Status == StatusFailed:
				g.FailedCount++
			case it.Status == StatusPaused:
				g.PausedCount++
			case it.Status == StatusPending || it.Status.IsActive():
				g.HasActiveWork = true
			}
		}
		if len(members) > 0 {
			g.Progress = g.CompletedCount * 100 / len(members)
		}
		groups = append(groups, g)
	}

	return GroupedView{Groups: groups, Singles: singles}
}
