// Package poller implements a cancellable fixed-interval polling task: start
// it with a fetch function and a keep-polling predicate, receive a sequence of
// snapshots, and rely on the guarantee that no fetch is ever issued after the
// predicate turns false or the context is cancelled.
package poller

import (
	"context"
	"time"
)

// Cadences observed for the two polling flows: the results view refreshes
// every 2s while an idea is ANALYZING, the idea-of-the-day flow every 5s.
const (
	ResultsInterval   = 2 * time.Second
	SpotlightInterval = 5 * time.Second
)

// Snapshot is one poll result. Exactly one of Value/Err is meaningful.
type Snapshot[T any] struct {
	Value T
	Err   error
}

// Poller drives strictly sequential fetches: the next tick is scheduled only
// after the previous fetch resolves, so stale and fresh reads can never
// invert.
type Poller[T any] struct {
	// Interval between the end of one fetch and the start of the next.
	Interval time.Duration

	// Fetch loads the current state. Called at most once at a time.
	Fetch func(ctx context.Context) (T, error)

	// KeepPolling decides, from the last successful fetch, whether another
	// tick should be scheduled. A false return stops the poller immediately.
	KeepPolling func(T) bool

	// Terminal reports whether a fetch error ends the poll (e.g. the record
	// was deleted by another session). Non-terminal errors skip the tick and
	// polling continues. Nil treats every error as transient.
	Terminal func(error) bool
}

// Start launches the poll loop and returns its snapshot stream. The first
// fetch happens immediately. The channel is closed when the predicate turns
// false, a terminal error occurs, or ctx is done — on every exit path the
// goroutine and its timer are released.
func (p *Poller[T]) Start(ctx context.Context) <-chan Snapshot[T] {
	interval := p.Interval
	if interval <= 0 {
		interval = ResultsInterval
	}

	out := make(chan Snapshot[T])
	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil {
				return
			}

			v, err := p.Fetch(ctx)
			snap := Snapshot[T]{Value: v, Err: err}

			// Deliver the snapshot unless the consumer is already gone.
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}

			if err != nil {
				if ctx.Err() != nil || (p.Terminal != nil && p.Terminal(err)) {
					return
				}
				// transient: skip this tick, retry next interval
			} else if p.KeepPolling != nil && !p.KeepPolling(v) {
				return
			}

			timer := time.NewTimer(interval)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}()
	return out
}

// WatchUntil is a convenience wrapper: poll until the predicate turns false
// and return the final successful snapshot. Transient errors are skipped;
// terminal errors and cancellation are returned.
func WatchUntil[T any](ctx context.Context, p *Poller[T]) (T, error) {
	var last T
	seen := false
	for snap := range p.Start(ctx) {
		if snap.Err != nil {
			if p.Terminal != nil && p.Terminal(snap.Err) {
				return last, snap.Err
			}
			continue
		}
		last = snap.Value
		seen = true
	}
	if err := ctx.Err(); err != nil {
		return last, err
	}
	if !seen {
		return last, context.Canceled
	}
	return last, nil
}
