package model

import "context"

// Backend is the query contract every log store adapter implements.
// Row-returning operations apply the limit inside the backend query.
type Backend interface {
	Name() string
	RawQuery(ctx context.Context, w TimeWindow, limit int) ([]LogEntry, error)
	FilteredQuery(ctx context.Context, w TimeWindow, level int, limit int) ([]LogEntry, error)
	GroupedCountByDayAndLevel(ctx context.Context, w TimeWindow) ([]GroupedCount, error)
	CountInRange(ctx context.Context, w TimeWindow, r LatencyRange) (int64, error)
}

// RangeCounter is the narrow contract needed to build latency histograms.
type RangeCounter interface {
	CountInRange(ctx context.Context, w TimeWindow, r LatencyRange) (int64, error)
}

// ChangeStream delivers change events until the feed closes or fails.
type ChangeStream interface {
	// Next blocks for the next change. It returns false once the stream is
	// exhausted; Err then reports why.
	Next(ctx context.Context) (Change, bool)
	Err() error
	Close() error
}

// LatencyFeed is the store-side contract of the worst-latency tracker.
type LatencyFeed interface {
	TopByLatency(ctx context.Context, n int) ([]LogEntry, error)
	WatchTopByLatency(ctx context.Context, n int) (ChangeStream, error)
}
