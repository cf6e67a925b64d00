package overlay

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/sankeertg21/traffic-wait-timer/internal/geom"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// Renderer draws track boxes, labels and the ROI onto frames in place.
type Renderer struct {
	ROI geom.Rect

	LabelScale float64
	SpeedScale float64
	ROIScale   float64
}

func NewRenderer(roi geom.Rect) *Renderer {
	return &Renderer{
		ROI:        roi,
		LabelScale: 0.6,
		SpeedScale: 0.45,
		ROIScale:   0.7,
	}
}

// Draw annotates img with every observation of res followed by the ROI.
func (r *Renderer) Draw(img *gocv.Mat, res waittime.FrameResult) {
	for _, s := range res.States {
		r.DrawTrack(img, s)
	}
	r.DrawROI(img)
}

func (r *Renderer) DrawTrack(img *gocv.Mat, s waittime.State) {
	rect := ToRect(s.Box)
	gocv.Rectangle(img, rect, BoxColor(s), 2)
	gocv.PutText(img, Label(s), LabelOrigin(rect, 8), gocv.FontHersheySimplex, r.LabelScale, ColorText, 2)

	c := image.Point{X: int(s.Centroid.X), Y: int(s.Centroid.Y)}
	gocv.Circle(img, c, 3, ColorCentroid, -1)
	gocv.PutText(img, SpeedText(s.Speed), c.Add(image.Point{X: 6, Y: 6}),
		gocv.FontHersheySimplex, r.SpeedScale, ColorSpeedText, 1)
}

func (r *Renderer) DrawROI(img *gocv.Mat) {
	rect := ToRect(r.ROI)
	gocv.Rectangle(img, rect, ColorROI, 2)
	gocv.PutText(img, "ROI", LabelOrigin(rect, 10).Add(image.Point{X: 6}),
		gocv.FontHersheySimplex, r.ROIScale, ColorROI, 2)
}
