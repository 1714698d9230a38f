package extract

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-serve/internal/events"
)

// WorkItem holds an event ready for extraction.
type WorkItem struct {
	Seq   int
	Event *events.Event
}

// Result holds the extraction output for a single event.
type Result struct {
	Seq          int
	Event        *events.Event
	Type         events.Type
	TranscriptID string
	Hotspots     []Hotspot
	Regions      []Region
	Err          error
	// Elapsed is the time spent resolving the event.
	Elapsed time.Duration
}

// pipeline reads events from src, resolves them on workers goroutines and
// calls fn with each result in input order. The first error from the
// source or from fn cancels the pipeline; workers stop without resolving
// the events still queued.
func (e *Extractor) pipeline(ctx context.Context, src EventSource, workers int, fn func(Result) error) error {
	g, ctx := errgroup.WithContext(ctx)
	items := make(chan WorkItem, 2*workers)
	results := make(chan Result, 2*workers)

	g.Go(func() error {
		defer close(items)
		for seq := 0; ; seq++ {
			ev, err := src.Next()
			if err != nil {
				return fmt.Errorf("read event: %w", err)
			}
			if ev == nil {
				return nil
			}
			select {
			case items <- WorkItem{Seq: seq, Event: ev}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		g.Go(func() error {
			defer wg.Done()
			return e.work(ctx, items, results)
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	g.Go(func() error {
		return collectOrdered(ctx, results, fn)
	})
	return g.Wait()
}

// work resolves items until the channel closes or ctx is cancelled.
func (e *Extractor) work(ctx context.Context, items <-chan WorkItem, results chan<- Result) error {
	for item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		r := e.Extract(item.Event)
		r.Seq = item.Seq
		r.Elapsed = time.Since(start)
		select {
		case results <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// collectOrdered calls fn for each result in sequence-number order,
// holding back results that arrive ahead of their turn. It returns when
// results is closed, fn fails or ctx is cancelled.
func collectOrdered(ctx context.Context, results <-chan Result, fn func(Result) error) error {
	pending := make(map[int]Result)
	next := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-results:
			if !ok {
				if len(pending) > 0 {
					return fmt.Errorf("%d results missing before sequence %d", len(pending), next)
				}
				return nil
			}
			pending[r.Seq] = r
			for {
				rr, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if err := fn(rr); err != nil {
					return err
				}
			}
		}
	}
}
