package geom

import (
	"fmt"
	"math"
)

// Point is a position in pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned bounding box in xyxy form.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Rect is an axis-aligned rectangle. The ROI uses the same xyxy layout as
// detection boxes so both live in one coordinate space.
type Rect = Box

// Centroid returns the centre of the box.
func (b Box) Centroid() Point {
	return Point{X: (b.X1 + b.X2) / 2.0, Y: (b.Y1 + b.Y2) / 2.0}
}

// Contains reports whether p lies inside r, edges included.
func (b Box) Contains(p Point) bool {
	return b.X1 <= p.X && p.X <= b.X2 && b.Y1 <= p.Y && p.Y <= b.Y2
}

// Valid reports whether the box has finite coordinates and positive extent
// on both axes.
func (b Box) Valid() bool {
	for _, v := range [4]float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

func (b Box) String() string {
	return fmt.Sprintf("(%g,%g)-(%g,%g)", b.X1, b.Y1, b.X2, b.Y2)
}

// InsideROI reports whether the centroid of box falls within roi.
func InsideROI(box Box, roi Rect) bool {
	return roi.Contains(box.Centroid())
}
