package detect

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sankeertg21/traffic-wait-timer/internal/geom"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// ErrMalformedBatch is wrapped by every parse failure.
var ErrMalformedBatch = errors.New("malformed detection batch")

// BatchError reports a malformed line of input.
type BatchError struct {
	Line int
	Err  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedBatch, fmt.Sprintf(format, args...))
}

// Parser turns one JSON line into a waittime.Frame.
type Parser struct {
	// FPS converts frame indices to seconds when a line has no "t".
	FPS float64
	// Names maps numeric class ids to labels. A "names" array on the line
	// takes precedence.
	Names []string
}

// Parse decodes line. seq is the 1-based position of the line in the
// stream and is used as the frame index when the line has none.
func (p Parser) Parse(line []byte, seq int) (waittime.Frame, error) {
	if !gjson.ValidBytes(line) {
		return waittime.Frame{}, malformed("invalid JSON")
	}
	doc := gjson.ParseBytes(line)
	if !doc.IsObject() {
		return waittime.Frame{}, malformed("batch must be a JSON object")
	}

	f := waittime.Frame{Index: seq}
	if v := doc.Get("frame"); v.Exists() {
		if v.Type != gjson.Number {
			return waittime.Frame{}, malformed("frame must be a number")
		}
		f.Index = int(v.Int())
	}
	if v := doc.Get("t"); v.Exists() {
		if v.Type != gjson.Number {
			return waittime.Frame{}, malformed("t must be a number")
		}
		f.Timestamp = v.Float()
	} else {
		if p.FPS <= 0 {
			return waittime.Frame{}, malformed("no timestamp and no fps")
		}
		f.Timestamp = float64(f.Index) / p.FPS
	}

	names := p.Names
	if v := doc.Get("names"); v.IsArray() {
		names = nil
		for _, n := range v.Array() {
			names = append(names, n.String())
		}
	}

	var err error
	switch {
	case doc.Get("detections").Exists():
		f.Detections, err = parseObjects(doc.Get("detections"), names)
	case doc.Get("ids").Exists() || doc.Get("boxes").Exists():
		f.Detections, err = parseColumns(doc, names)
	default:
		// A frame with nothing tracked is still a frame; the sweep must run.
	}
	if err != nil {
		return waittime.Frame{}, err
	}
	return f, nil
}

func parseObjects(arr gjson.Result, names []string) ([]waittime.Detection, error) {
	if !arr.IsArray() {
		return nil, malformed("detections must be an array")
	}
	items := arr.Array()
	out := make([]waittime.Detection, 0, len(items))
	for i, item := range items {
		id, err := parseID(item.Get("id"))
		if err != nil {
			return nil, malformed("detections[%d]: %v", i, err)
		}
		box, err := parseBox(item.Get("box"))
		if err != nil {
			return nil, malformed("detections[%d]: %v", i, err)
		}
		out = append(out, waittime.Detection{TrackID: id, Box: box, Class: classLabel(item.Get("class"), names)})
	}
	return out, nil
}

func parseColumns(doc gjson.Result, names []string) ([]waittime.Detection, error) {
	ids, boxes := doc.Get("ids"), doc.Get("boxes")
	if !ids.IsArray() {
		return nil, malformed("missing ids")
	}
	if !boxes.IsArray() {
		return nil, malformed("missing boxes")
	}
	idList, boxList := ids.Array(), boxes.Array()
	if len(idList) != len(boxList) {
		return nil, malformed("%d ids for %d boxes", len(idList), len(boxList))
	}
	var classList []gjson.Result
	if classes := doc.Get("classes"); classes.Exists() {
		if !classes.IsArray() {
			return nil, malformed("classes must be an array")
		}
		classList = classes.Array()
		if len(classList) != len(idList) {
			return nil, malformed("%d classes for %d ids", len(classList), len(idList))
		}
	}

	out := make([]waittime.Detection, 0, len(idList))
	for i := range idList {
		id, err := parseID(idList[i])
		if err != nil {
			return nil, malformed("ids[%d]: %v", i, err)
		}
		box, err := parseBox(boxList[i])
		if err != nil {
			return nil, malformed("boxes[%d]: %v", i, err)
		}
		d := waittime.Detection{TrackID: id, Box: box}
		if classList != nil {
			d.Class = classLabel(classList[i], names)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseID(v gjson.Result) (int64, error) {
	switch v.Type {
	case gjson.Number:
		if math.IsInf(v.Num, 0) || v.Num != math.Trunc(v.Num) {
			return 0, fmt.Errorf("id %s is not an integer", v.Raw)
		}
		return v.Int(), nil
	case gjson.String:
		id, err := strconv.ParseInt(v.Str, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("id %q is not an integer", v.Str)
		}
		return id, nil
	default:
		return 0, errors.New("missing id")
	}
}

func parseBox(v gjson.Result) (geom.Box, error) {
	if !v.IsArray() {
		return geom.Box{}, errors.New("box must be an array")
	}
	vals := v.Array()
	if len(vals) != 4 {
		return geom.Box{}, fmt.Errorf("box has %d values, want 4", len(vals))
	}
	var c [4]float64
	for i, n := range vals {
		if n.Type != gjson.Number {
			return geom.Box{}, fmt.Errorf("box[%d] is not a number", i)
		}
		c[i] = n.Float()
	}
	return geom.Box{X1: c[0], Y1: c[1], X2: c[2], Y2: c[3]}, nil
}

func classLabel(v gjson.Result, names []string) string {
	if v.Type == gjson.Number {
		idx := int(v.Int())
		if idx >= 0 && idx < len(names) {
			return strings.ToLower(strings.TrimSpace(names[idx]))
		}
		return strconv.Itoa(idx)
	}
	return strings.ToLower(strings.TrimSpace(v.String()))
}
