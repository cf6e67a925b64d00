package pipeline

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sankeertg21/traffic-wait-timer/internal/detect"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// JSONLWriter writes every input line back out, annotated with the wait
// state of its tracks. Malformed lines pass through unchanged so the output
// stays aligned with the input.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter writes to w. Call Flush when done.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

func (j *JSONLWriter) HandleFrame(b detect.Batch, res waittime.FrameResult) error {
	out, err := detect.Annotate(b.Raw, res)
	if err != nil {
		return fmt.Errorf("annotate: %w", err)
	}
	return j.writeLine(out)
}

func (j *JSONLWriter) HandleSkipped(b detect.Batch, _ error) error {
	return j.writeLine(b.Raw)
}

func (j *JSONLWriter) writeLine(p []byte) error {
	if _, err := j.w.Write(p); err != nil {
		return err
	}
	return j.w.WriteByte('\n')
}

// Flush writes any buffered output.
func (j *JSONLWriter) Flush() error { return j.w.Flush() }
