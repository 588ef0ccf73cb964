package sample

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gocv.io/x/gocv"

	"github.com/pixviz/pixviz-go/domain/roi"
)

// ErrEmptyRegion signals a crop with zero area or one that fell entirely
// outside the frame after clamping. Callers map it to NaN, never a crash.
var ErrEmptyRegion = errors.New("empty roi region")

// Reduce converts an RGB (or already grayscale) region to single-channel
// luminance and reduces it to one scalar with the given statistic.
func Reduce(region gocv.Mat, stat roi.Statistic) (float64, error) {
	if region.Empty() || region.Rows() == 0 || region.Cols() == 0 {
		return math.NaN(), ErrEmptyRegion
	}

	gray := region
	switch region.Channels() {
	case 3:
		converted := gocv.NewMat()
		defer converted.Close()
		gocv.CvtColor(region, &converted, gocv.ColorRGBToGray)
		gray = converted
	case 1:
	default:
		return math.NaN(), fmt.Errorf("unsupported channel count %d", region.Channels())
	}

	switch stat {
	case roi.Mean:
		return gray.Mean().Val1, nil
	case roi.Median:
		if !gray.IsContinuous() {
			// region views share the frame's stride; ToBytes needs a
			// packed buffer.
			packed := gray.Clone()
			defer packed.Close()
			gray = packed
		}
		return median(gray.ToBytes()), nil
	default:
		return math.NaN(), fmt.Errorf("unknown statistic %q", stat)
	}
}

// median averages the two midpoints for even-length input.
func median(pix []byte) float64 {
	vals := make([]float64, len(pix))
	for i, p := range pix {
		vals[i] = float64(p)
	}
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
