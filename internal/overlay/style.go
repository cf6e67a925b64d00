// Package overlay draws wait-time state onto video frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/sankeertg21/traffic-wait-timer/internal/geom"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// Palette colours. gocv converts color.RGBA to BGR itself, so these are
// plain RGB values.
var (
	ColorROI         = color.RGBA{255, 0, 0, 255}
	ColorActiveBox   = color.RGBA{0, 0, 255, 255}
	ColorInactiveBox = color.RGBA{0, 255, 0, 255}
	ColorText        = color.RGBA{255, 255, 255, 255}
	ColorCentroid    = color.RGBA{0, 255, 255, 255}
	ColorSpeedText   = color.RGBA{200, 200, 200, 255}
)

// minLabelY keeps labels from being clipped at the top edge of the frame.
const minLabelY = 15

// BoxColor is blue while the track's wait is being counted, green otherwise.
func BoxColor(s waittime.State) color.RGBA {
	if s.ActivelyCounted {
		return ColorActiveBox
	}
	return ColorInactiveBox
}

// Label renders "<CLASS> ID:<id>" followed by the wait timer once the
// track has been credited.
func Label(s waittime.State) string {
	label := fmt.Sprintf("%s ID:%d", strings.ToUpper(s.Class), s.TrackID)
	if w := s.WaitLabel(); w != "" {
		label += " " + w
	}
	return label
}

// SpeedText formats a windowed speed. Undetermined speeds show as "--".
func SpeedText(speed float64) string {
	if math.IsInf(speed, 0) || math.IsNaN(speed) {
		return "--px/s"
	}
	return fmt.Sprintf("%.1fpx/s", speed)
}

// ToRect truncates a box to pixel coordinates.
func ToRect(b geom.Box) image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
}

// LabelOrigin places text just above r, or just below it when r touches
// the top of the frame.
func LabelOrigin(r image.Rectangle, offset int) image.Point {
	p := image.Point{X: r.Min.X, Y: r.Min.Y - offset}
	if p.Y < minLabelY {
		p.Y = r.Max.Y + offset + minLabelY
	}
	return p
}
