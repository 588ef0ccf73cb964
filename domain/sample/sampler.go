package sample

import (
	"image"
	"log/slog"
	"math"

	"gocv.io/x/gocv"

	"github.com/pixviz/pixviz-go/domain/roi"
)

// Sampler evaluates a collection of ROIs against one decoded frame,
// producing a name→intensity mapping. A failure inside one ROI is recovered
// to NaN; the remaining ROIs are still computed.
type Sampler struct {
	logger *slog.Logger
}

// NewSampler constructs a sampler with an injected logger. logger may be nil.
func NewSampler(logger *slog.Logger) *Sampler {
	return &Sampler{logger: logger}
}

// Sample evaluates rois in the given (caller-determined) order against one
// BGR frame. viewW and viewH are the rendering surface size the ROI
// geometry was drawn against. The BGR→RGB conversion happens once per
// frame, not per ROI.
func (s *Sampler) Sample(frame gocv.Mat, rois []*roi.Record, viewW, viewH int) map[string]float64 {
	out := make(map[string]float64, len(rois))
	if len(rois) == 0 {
		return out
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(frame, &rgb, gocv.ColorBGRToRGB)

	for _, rec := range rois {
		out[rec.Name()] = s.sampleOne(rgb, rec, viewW, viewH)
	}
	return out
}

func (s *Sampler) sampleOne(rgb gocv.Mat, rec *roi.Record, viewW, viewH int) (val float64) {
	val = math.NaN()
	defer func() {
		if r := recover(); r != nil {
			if s.logger != nil {
				s.logger.Error("roi computation failed", "name", rec.Name(), "error", r)
			}
			val = math.NaN()
		}
	}()

	bounds := MapToSource(rec.Geometry(), viewW, viewH, rgb.Cols(), rgb.Rows())
	if bounds.Empty() {
		return math.NaN()
	}

	target := rgb
	if angle := rec.AngleDeg(); angle != 0 {
		// The whole frame is warped about the ROI's scaled center, then
		// the crop is taken from the warped frame with the same bounds.
		rotated := rotateFrame(rgb, bounds.Center(), angle)
		defer rotated.Close()
		target = rotated
	}

	region := target.Region(bounds.Rect())
	defer region.Close()

	v, err := Reduce(region, rec.Statistic())
	if err != nil {
		if s.logger != nil && err != ErrEmptyRegion {
			s.logger.Error("roi reduction failed", "name", rec.Name(), "error", err)
		}
		return math.NaN()
	}
	return v
}

// rotateFrame applies a 2D affine rotation of angleDeg about center to the
// whole frame. The caller owns the returned Mat.
func rotateFrame(frame gocv.Mat, center image.Point, angleDeg float64) gocv.Mat {
	m := gocv.GetRotationMatrix2D(center, angleDeg, 1.0)
	defer m.Close()
	rotated := gocv.NewMat()
	gocv.WarpAffine(frame, &rotated, m, image.Pt(frame.Cols(), frame.Rows()))
	return rotated
}
