package extract

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inodb/vibe-serve/internal/events"
)

// EventSource yields events until it returns nil, nil.
type EventSource interface {
	Next() (*events.Event, error)
}

// Sink receives extraction results in input order.
type Sink interface {
	Write(r Result) error
	Flush() error
}

// Stats summarizes an extraction run.
type Stats struct {
	Events     int
	Resolved   int
	Unresolved int
	Hotspots   int
	Regions    int
	// ResolveTime is the summed worker time over all events.
	ResolveTime time.Duration
}

// Run extracts every event from src with the given number of workers and
// writes resolved results to sink. Unresolved events are logged and counted;
// only read and write failures abort the run. Cancelling ctx stops the run
// and returns the context error.
func (e *Extractor) Run(ctx context.Context, src EventSource, sink Sink, workers int) (Stats, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var stats Stats
	err := e.pipeline(ctx, src, workers, func(r Result) error {
		stats.Events++
		stats.ResolveTime += r.Elapsed
		if r.Err != nil {
			stats.Unresolved++
			e.logger.Warn("unresolved event",
				zap.String("gene", r.Event.Gene),
				zap.String("event", r.Event.Text),
				zap.Int("line", r.Event.Line),
				zap.Error(r.Err))
			return nil
		}
		stats.Resolved++
		stats.Hotspots += len(r.Hotspots)
		stats.Regions += len(r.Regions)
		if err := sink.Write(r); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	e.logger.Info("extraction finished",
		zap.Int("events", stats.Events),
		zap.Int("resolved", stats.Resolved),
		zap.Int("unresolved", stats.Unresolved),
		zap.Int("hotspots", stats.Hotspots),
		zap.Int("regions", stats.Regions),
		zap.Duration("resolve_time", stats.ResolveTime))

	return stats, sink.Flush()
}

// Tee returns a Sink writing every result to all sinks in order.
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

type teeSink []Sink

func (t teeSink) Write(r Result) error {
	for _, s := range t {
		if err := s.Write(r); err != nil {
			return err
		}
	}
	return nil
}

func (t teeSink) Flush() error {
	var err error
	for _, s := range t {
		err = multierr.Append(err, s.Flush())
	}
	return err
}
