package sample

import (
	"image"

	"github.com/pixviz/pixviz-go/domain/roi"
)

// SourceBounds is an integer crop window in native frame pixels,
// half-open on the right and bottom edges.
type SourceBounds struct {
	Left, Top, Right, Bottom int
}

// Rect converts the bounds to an image.Rectangle for Mat cropping.
func (b SourceBounds) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// Empty reports degenerate or inverted bounds after clamping.
func (b SourceBounds) Empty() bool {
	return b.Right <= b.Left || b.Bottom <= b.Top
}

// Center returns the bounds' center pixel, the pivot for rotation.
func (b SourceBounds) Center() image.Point {
	return image.Pt((b.Left+b.Right)/2, (b.Top+b.Bottom)/2)
}

// MapToSource transforms a view-space rectangle into native frame pixel
// bounds. Width and height scale factors are computed independently: the
// playback surface is routinely letterboxed or resized disproportionately
// to the native resolution, so non-uniform scaling is the normal case.
// Scaled edges are truncated toward zero, then clamped to the frame.
//
// The caller must treat Empty() output as an empty-region condition (NaN),
// not an error.
func MapToSource(r roi.Rect, viewW, viewH, nativeW, nativeH int) SourceBounds {
	r = r.Normalized()
	if viewW <= 0 || viewH <= 0 {
		return SourceBounds{}
	}
	factorW := float64(nativeW) / float64(viewW)
	factorH := float64(nativeH) / float64(viewH)

	b := SourceBounds{
		Left:   int(r.Left * factorW),
		Top:    int(r.Top * factorH),
		Right:  int((r.Left + r.Width) * factorW),
		Bottom: int((r.Top + r.Height) * factorH),
	}
	return b.clamp(nativeW, nativeH)
}

func (b SourceBounds) clamp(w, h int) SourceBounds {
	b.Left = clampInt(b.Left, 0, w)
	b.Right = clampInt(b.Right, 0, w)
	b.Top = clampInt(b.Top, 0, h)
	b.Bottom = clampInt(b.Bottom, 0, h)
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
