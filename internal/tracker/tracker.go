package tracker

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tinytelemetry/logway/internal/model"
)

// State is the tracker lifecycle phase.
type State int32

const (
	Bootstrapping State = iota
	Live
	Stopped
)

func (s State) String() string {
	switch s {
	case Bootstrapping:
		return "bootstrapping"
	case Live:
		return "live"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Tracker keeps the highest-latency entries seen on a change feed. Reads are
// lock-free snapshots; updates are applied one change at a time by Run.
type Tracker struct {
	feed     model.LatencyFeed
	capacity int

	mu       sync.Mutex // serialises writers
	snapshot atomic.Pointer[[]model.LogEntry]
	state    atomic.Int32
}

// New creates a tracker over feed. A non-positive capacity means
// model.WorstCallsCapacity.
func New(feed model.LatencyFeed, capacity int) *Tracker {
	if capacity <= 0 {
		capacity = model.WorstCallsCapacity
	}
	t := &Tracker{feed: feed, capacity: capacity}
	empty := []model.LogEntry{}
	t.snapshot.Store(&empty)
	return t
}

// Current returns the entries currently held, highest latency first. It never
// blocks and never touches the backend; during bootstrap it returns an empty slice.
func (t *Tracker) Current() []model.LogEntry {
	return *t.snapshot.Load()
}

// State reports the lifecycle phase.
func (t *Tracker) State() State {
	return State(t.state.Load())
}

// Run bootstraps from a one-off scan and then follows the change feed until it
// ends or ctx is cancelled. Feed failures are logged and the last known set
// keeps being served; Run does not reconnect. It returns nil on cancellation.
func (t *Tracker) Run(ctx context.Context) error {
	defer t.state.Store(int32(Stopped))

	initial, err := t.feed.TopByLatency(ctx, t.capacity)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		log.Printf("tracker: bootstrap failed: %v", err)
		return nil
	}
	t.Reset(initial)
	t.state.Store(int32(Live))
	log.Printf("tracker: live with %d entries", len(initial))

	stream, err := t.feed.WatchTopByLatency(ctx, t.capacity)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("tracker: subscribe failed, serving last known set: %v", err)
		}
		return nil
	}
	defer stream.Close()

	for {
		change, ok := stream.Next(ctx)
		if !ok {
			break
		}
		t.Apply(change)
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		log.Printf("tracker: change feed failed, serving last known set: %v", err)
	} else if ctx.Err() == nil {
		log.Printf("tracker: change feed closed, serving last known set")
	}
	return nil
}

// Reset replaces the held set.
func (t *Tracker) Reset(entries []model.LogEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.publish(append([]model.LogEntry(nil), entries...))
}

// Apply folds one change into the set: entries matching the old value's id are
// removed, the new value is added, and the set is re-ranked and trimmed to
// capacity.
func (t *Tracker) Apply(c model.Change) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := *t.snapshot.Load()
	next := make([]model.LogEntry, 0, len(current)+1)
	if c.Old != nil {
		oldID := c.Old.ID()
		for _, e := range current {
			if e.ID() != oldID {
				next = append(next, e)
			}
		}
	} else {
		next = append(next, current...)
	}
	if c.New != nil {
		next = append(next, c.New)
	}
	t.publish(next)
}

// publish ranks entries by descending latency, trims them and swaps the
// snapshot. Callers hold t.mu.
func (t *Tracker) publish(entries []model.LogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, _ := entries[i].Latency()
		b, _ := entries[j].Latency()
		return a > b
	})
	if len(entries) > t.capacity {
		entries = entries[:t.capacity]
	}
	t.snapshot.Store(&entries)
}
