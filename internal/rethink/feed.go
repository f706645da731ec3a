package rethink

import (
	"context"
	"sync"

	"github.com/tinytelemetry/logway/internal/model"
	"github.com/tinytelemetry/logway/internal/reshape"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

func (s *Store) topTerm(n int) r.Term {
	return r.Table(s.table).
		OrderBy(r.OrderByOpts{Index: r.Desc(s.latencyIndex)}).
		Limit(n)
}

// TopByLatency returns the n entries with the largest ms, descending.
func (s *Store) TopByLatency(ctx context.Context, n int) ([]model.LogEntry, error) {
	return s.fetchEntries(ctx, "top by latency", s.topTerm(n))
}

// WatchTopByLatency subscribes to changes of the top-n-by-latency view. The
// stream ends when ctx is cancelled or the server closes the feed.
func (s *Store) WatchTopByLatency(ctx context.Context, n int) (model.ChangeStream, error) {
	cursor, err := s.topTerm(n).Changes().Run(s.session, r.RunOpts{Context: ctx})
	if err != nil {
		return nil, unavailable("watch top by latency", err)
	}
	cs := &changeStream{cursor: cursor}
	cs.stop = context.AfterFunc(ctx, func() { _ = cs.Close() })
	return cs, nil
}

type changeStream struct {
	cursor *r.Cursor
	stop   func() bool

	closeOnce sync.Once
}

func (cs *changeStream) Next(ctx context.Context) (model.Change, bool) {
	if ctx.Err() != nil {
		return model.Change{}, false
	}
	var doc map[string]interface{}
	if !cs.cursor.Next(&doc) {
		return model.Change{}, false
	}
	c := decodeChange(doc)
	if c.Old != nil {
		c.Old = reshape.Document(c.Old)
	}
	if c.New != nil {
		c.New = reshape.Document(c.New)
	}
	return c, true
}

func (cs *changeStream) Err() error {
	if err := cs.cursor.Err(); err != nil {
		return unavailable("change feed", err)
	}
	return nil
}

func (cs *changeStream) Close() error {
	var err error
	cs.closeOnce.Do(func() {
		if cs.stop != nil {
			cs.stop()
		}
		err = cs.cursor.Close()
	})
	return err
}
