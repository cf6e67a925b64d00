package detect

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// Batch is one decoded line together with its raw bytes.
type Batch struct {
	Line  int
	Raw   []byte
	Frame waittime.Frame
}

// Source reads batches from a JSON Lines stream. Blank lines are skipped.
type Source struct {
	Parser

	scanner *bufio.Scanner
	line    int
	seq     int
}

// NewSource reads batches from r, deriving timestamps from fps when a line
// has none.
func NewSource(r io.Reader, fps float64) *Source {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Source{Parser: Parser{FPS: fps}, scanner: s}
}

// Next returns the next batch. At end of input it returns io.EOF. A line
// that fails to parse yields the batch (with Raw and Line set) and a
// *BatchError; the caller may keep calling Next.
func (s *Source) Next() (Batch, error) {
	for s.scanner.Scan() {
		s.line++
		raw := bytes.TrimSpace(s.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		s.seq++
		b := Batch{Line: s.line, Raw: append([]byte(nil), raw...)}
		f, err := s.Parse(b.Raw, s.seq)
		if err != nil {
			return b, &BatchError{Line: s.line, Err: err}
		}
		b.Frame = f
		return b, nil
	}
	if err := s.scanner.Err(); err != nil {
		return Batch{}, err
	}
	return Batch{}, io.EOF
}

// ReadAll drains src, skipping malformed lines. It returns the parsed frames
// and the errors for the skipped lines.
func ReadAll(src *Source) ([]waittime.Frame, []error, error) {
	var frames []waittime.Frame
	var skipped []error
	for {
		b, err := src.Next()
		if err == io.EOF {
			return frames, skipped, nil
		}
		if err != nil {
			var be *BatchError
			if errors.As(err, &be) {
				skipped = append(skipped, be)
				continue
			}
			return frames, skipped, err
		}
		frames = append(frames, b.Frame)
	}
}
