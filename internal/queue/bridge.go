package queue

import "context"

// Stage identifies which phase of a fetch a progress event belongs to.
// The scheduler maps stages onto item statuses as the worker advances.
type Stage string

const (
	StageInfo     Stage = "info"
	StageDownload Stage = "download"
	StageProcess  Stage = "process"
)

// Event is a progress update emitted by a Bridge while a fetch is running
type Event struct {
	Stage    Stage
	Progress int    // 0-100
	Speed    string // human readable, e.g. "1.2MiB/s"
	ETA      string // human readable, e.g. "00:42"
	Message  string
	Title    string
	Size     int64   // bytes, 0 if unknown
	Duration float64 // seconds, 0 if unknown
}

// Result is the terminal outcome of a successful fetch
type Result struct {
	OutputPath string
}

// FetchRequest carries everything a Bridge needs to perform one download
type FetchRequest struct {
	ID      string
	URL     string
	Kind    Kind
	Options Options
}

// Bridge is the external worker that performs the actual fetch. A fetch is
// a single cancellable task: progress arrives through emit, the terminal
// outcome through the return values. Cancelling the context is the
// best-effort pause/abort signal; the scheduler never waits for teardown.
type Bridge interface {
	Fetch(ctx context.Context, req FetchRequest, emit func(Event)) (*Result, error)
}

// Saver persists queue snapshots across restarts. Both operations are
// fallible boundaries: a load failure yields an empty queue and a save
// failure is logged without blocking the mutation that triggered it.
type Saver interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}
