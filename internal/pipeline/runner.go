package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sankeertg21/traffic-wait-timer/internal/detect"
	"github.com/sankeertg21/traffic-wait-timer/internal/monitoring"
	"github.com/sankeertg21/traffic-wait-timer/internal/timeutil"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// BatchSource yields detection batches until io.EOF. *detect.Source
// satisfies it.
type BatchSource interface {
	Next() (detect.Batch, error)
}

// FrameSink receives every processed frame in order.
type FrameSink interface {
	HandleFrame(b detect.Batch, res waittime.FrameResult) error
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(detect.Batch, waittime.FrameResult) error

func (f FrameSinkFunc) HandleFrame(b detect.Batch, res waittime.FrameResult) error { return f(b, res) }

// SkipSink is optionally implemented by sinks that want to see malformed
// batches, e.g. to pass the raw line through unchanged.
type SkipSink interface {
	HandleSkipped(b detect.Batch, err error) error
}

// Stats counts what a run did.
type Stats struct {
	FramesRead      int           `json:"frames_read"`
	FramesProcessed int           `json:"frames_processed"`
	FramesSkipped   int           `json:"frames_skipped"`
	Observations    int           `json:"observations"`
	Ignored         int           `json:"ignored"`
	Expired         int           `json:"expired"`
	Started         time.Time     `json:"started"`
	Duration        time.Duration `json:"duration"`
}

// Runner feeds a BatchSource into a Machine. It is not safe for concurrent
// use.
type Runner struct {
	machine *waittime.Machine
	sinks   []FrameSink
	clock   timeutil.Clock
	pace    float64

	stats    Stats
	lastTS   float64
	havePrev bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithSinks appends frame sinks.
func WithSinks(sinks ...FrameSink) Option {
	return func(r *Runner) { r.sinks = append(r.sinks, sinks...) }
}

// WithClock replaces the wall clock used for stats and pacing.
func WithClock(c timeutil.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithPacing replays the stream at speed times real time (1 = real time).
// Zero disables pacing.
func WithPacing(speed float64) Option {
	return func(r *Runner) { r.pace = speed }
}

// NewRunner returns a Runner for m.
func NewRunner(m *waittime.Machine, opts ...Option) *Runner {
	r := &Runner{machine: m, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Machine returns the driven machine.
func (r *Runner) Machine() *waittime.Machine { return r.machine }

// Stats returns a copy of the counters so far.
func (r *Runner) Stats() Stats { return r.stats }

// Run reads src until io.EOF or ctx is cancelled. Malformed batches are
// counted and skipped. The returned error is nil at end of input and
// ctx.Err() on cancellation.
func (r *Runner) Run(ctx context.Context, src BatchSource) (Stats, error) {
	r.stats.Started = r.clock.Now()

	for {
		if err := ctx.Err(); err != nil {
			return r.finish(), err
		}

		b, err := src.Next()
		if errors.Is(err, io.EOF) {
			return r.finish(), nil
		}
		var be *detect.BatchError
		if err != nil && !errors.As(err, &be) {
			return r.finish(), fmt.Errorf("reading detections: %w", err)
		}
		r.stats.FramesRead++

		if be != nil {
			r.stats.FramesSkipped++
			monitoring.Logf("Skipping malformed batch: %v", be)
			if err := r.skip(b, be); err != nil {
				return r.finish(), err
			}
			continue
		}

		if err := r.wait(ctx, b.Frame.Timestamp); err != nil {
			return r.finish(), err
		}
		if _, err := r.Step(b); err != nil {
			return r.finish(), err
		}
	}
}

func (r *Runner) finish() Stats {
	r.stats.Duration = r.clock.Since(r.stats.Started)
	return r.stats
}

// Step processes one parsed batch and hands the result to the sinks.
func (r *Runner) Step(b detect.Batch) (waittime.FrameResult, error) {
	res := r.machine.ProcessFrame(b.Frame)
	r.stats.FramesProcessed++
	r.stats.Observations += len(res.States)
	r.stats.Ignored += res.Ignored
	r.stats.Expired += len(res.Expired)

	for _, s := range r.sinks {
		if err := s.HandleFrame(b, res); err != nil {
			return res, fmt.Errorf("frame %d: %w", b.Frame.Index, err)
		}
	}
	return res, nil
}

func (r *Runner) skip(b detect.Batch, err error) error {
	for _, s := range r.sinks {
		if ss, ok := s.(SkipSink); ok {
			if serr := ss.HandleSkipped(b, err); serr != nil {
				return fmt.Errorf("line %d: %w", b.Line, serr)
			}
		}
	}
	return nil
}

// wait sleeps for the stream-time gap since the previous frame when pacing
// is enabled.
func (r *Runner) wait(ctx context.Context, ts float64) error {
	prev, had := r.lastTS, r.havePrev
	r.lastTS, r.havePrev = ts, true
	if r.pace <= 0 || !had || ts <= prev {
		return nil
	}
	d := time.Duration((ts - prev) / r.pace * float64(time.Second))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.clock.After(d):
		return nil
	}
}
