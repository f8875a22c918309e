// Package metrics wires the buffer manager's counters to OpenTelemetry. It
// uses whatever MeterProvider the embedding process has installed globally
// (the default is the no-op provider; this package never ships an
// exporter), matching the rest of this codebase's lineage, which declares
// the OpenTelemetry API dependency without pulling in an SDK exporter.
package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Recorder holds the counters the buffer manager increments. A nil
// *Recorder is valid and every method on it is a no-op, so callers that
// don't care about metrics can pass nil.
type Recorder struct {
	hits       metric.Int64Counter
	misses     metric.Int64Counter
	promotions metric.Int64Counter
	evictions  metric.Int64Counter
	writebacks metric.Int64Counter
	bufferFull metric.Int64Counter
	ioErrors   metric.Int64Counter
}

// New builds a Recorder against the globally installed MeterProvider. It
// only fails if the provider rejects instrument creation, which the default
// no-op provider never does.
func New() (*Recorder, error) {
	meter := otel.GetMeterProvider().Meter("bufferpool")

	hits, err := meter.Int64Counter("bufferpool.hits")
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter("bufferpool.misses")
	if err != nil {
		return nil, err
	}

	promotions, err := meter.Int64Counter("bufferpool.promotions")
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter("bufferpool.evictions")
	if err != nil {
		return nil, err
	}

	writebacks, err := meter.Int64Counter("bufferpool.writebacks")
	if err != nil {
		return nil, err
	}

	bufferFull, err := meter.Int64Counter("bufferpool.buffer_full")
	if err != nil {
		return nil, err
	}

	ioErrors, err := meter.Int64Counter("bufferpool.io_errors")
	if err != nil {
		return nil, err
	}

	return &Recorder{
		hits:       hits,
		misses:     misses,
		promotions: promotions,
		evictions:  evictions,
		writebacks: writebacks,
		bufferFull: bufferFull,
		ioErrors:   ioErrors,
	}, nil
}

func (r *Recorder) Hit() {
	if r == nil {
		return
	}

	r.hits.Add(context.Background(), 1)
}

func (r *Recorder) Miss() {
	if r == nil {
		return
	}

	r.misses.Add(context.Background(), 1)
}

func (r *Recorder) Promotion() {
	if r == nil {
		return
	}

	r.promotions.Add(context.Background(), 1)
}

func (r *Recorder) Eviction() {
	if r == nil {
		return
	}

	r.evictions.Add(context.Background(), 1)
}

func (r *Recorder) Writeback() {
	if r == nil {
		return
	}

	r.writebacks.Add(context.Background(), 1)
}

func (r *Recorder) BufferFull() {
	if r == nil {
		return
	}

	r.bufferFull.Add(context.Background(), 1)
}

func (r *Recorder) IOError() {
	if r == nil {
		return
	}

	r.ioErrors.Add(context.Background(), 1)
}
