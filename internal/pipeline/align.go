package pipeline

import (
	"errors"
	"io"

	"github.com/sankeertg21/traffic-wait-timer/internal/detect"
	"github.com/sankeertg21/traffic-wait-timer/internal/monitoring"
)

// Aligner pairs detection batches with decoded video frames by frame index.
// Batches must arrive in non-decreasing index order; a batch for a later
// frame is held back until that frame is reached.
type Aligner struct {
	src     BatchSource
	pending *detect.Batch
	eof     bool
	skipped int
}

func NewAligner(src BatchSource) *Aligner {
	return &Aligner{src: src}
}

// Until returns every batch whose index is at most frame, in stream order.
// Malformed batches are logged and dropped. io.EOF is never returned; once
// the source is exhausted Until returns no batches.
func (a *Aligner) Until(frame int) ([]detect.Batch, error) {
	var out []detect.Batch
	for {
		if a.pending != nil {
			if a.pending.Frame.Index > frame {
				return out, nil
			}
			out = append(out, *a.pending)
			a.pending = nil
		}
		if a.eof {
			return out, nil
		}

		b, err := a.src.Next()
		if errors.Is(err, io.EOF) {
			a.eof = true
			continue
		}
		var be *detect.BatchError
		if errors.As(err, &be) {
			a.skipped++
			monitoring.Logf("Skipping malformed batch: %v", be)
			continue
		}
		if err != nil {
			return out, err
		}
		a.pending = &b
	}
}

// Skipped reports how many malformed batches were dropped.
func (a *Aligner) Skipped() int { return a.skipped }

// Done reports whether every batch has been handed out.
func (a *Aligner) Done() bool { return a.eof && a.pending == nil }
