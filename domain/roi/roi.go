package roi

import (
	"fmt"
	"math"
)

// Statistic selects how a grayscale crop is reduced to one scalar.
type Statistic string

const (
	Mean   Statistic = "mean"
	Median Statistic = "median"
)

// Valid reports whether s is a known reduction statistic.
func (s Statistic) Valid() bool { return s == Mean || s == Median }

// Rect is an axis-aligned rectangle in display/view coordinates, the
// coordinate system of the rendering surface at ROI-creation time.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// NewRectFromCorners builds a normalized Rect from two drag endpoints.
// A drag in any direction yields non-negative extents.
func NewRectFromCorners(x0, y0, x1, y1 float64) Rect {
	return Rect{
		Left:   math.Min(x0, x1),
		Top:    math.Min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}

// Normalized returns a copy with non-negative width and height, folding
// negative extents back over the origin corner.
func (r Rect) Normalized() Rect {
	if r.Width < 0 {
		r.Left += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Top += r.Height
		r.Height = -r.Height
	}
	return r
}

// Center returns the rectangle's center point in view coordinates.
func (r Rect) Center() (x, y float64) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

// Empty reports whether the rectangle has zero area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// String renders the stable textual form used in persisted metadata.
func (r Rect) String() string {
	return fmt.Sprintf("Rect(%g, %g, %g, %g)", r.Left, r.Top, r.Width, r.Height)
}

// ParseRect parses the textual form produced by Rect.String.
func ParseRect(s string) (Rect, error) {
	var r Rect
	n, err := fmt.Sscanf(s, "Rect(%g, %g, %g, %g)", &r.Left, &r.Top, &r.Width, &r.Height)
	if err != nil || n != 4 {
		return Rect{}, fmt.Errorf("malformed rect %q", s)
	}
	return r.Normalized(), nil
}

// Provisional is an ROI in the drawing state: geometry and rotation exist,
// but no name or statistic has been confirmed yet. It is promoted to a
// committed Record by Registry.Commit, or simply discarded on cancel.
type Provisional struct {
	Geometry Rect
	AngleDeg float64
}

// Record is one committed, named ROI: view-space geometry, accumulated
// rotation, reduction statistic, and the per-frame sample series.
type Record struct {
	name   string
	geom   Rect
	angle  float64 // degrees, stored modulo 360
	stat   Statistic
	series []float64
}

// NewRecord builds a committed record. Callers normally go through
// Registry.Commit, which also enforces name uniqueness.
func NewRecord(name string, prov Provisional, stat Statistic) (*Record, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if !stat.Valid() {
		return nil, fmt.Errorf("unknown statistic %q", stat)
	}
	return &Record{
		name:  name,
		geom:  prov.Geometry.Normalized(),
		angle: normalizeAngle(prov.AngleDeg),
		stat:  stat,
	}, nil
}

func (r *Record) Name() string         { return r.name }
func (r *Record) Geometry() Rect       { return r.geom }
func (r *Record) AngleDeg() float64    { return r.angle }
func (r *Record) Statistic() Statistic { return r.stat }

// SetStatistic replaces the reduction statistic. Only reachable by
// re-opening the ROI settings.
func (r *Record) SetStatistic(stat Statistic) error {
	if !stat.Valid() {
		return fmt.Errorf("unknown statistic %q", stat)
	}
	r.stat = stat
	return nil
}

// Rotate accumulates a rotation delta in degrees about the rectangle's own
// center. The stored angle stays within [0, 360).
func (r *Record) Rotate(deltaDeg float64) {
	r.angle = normalizeAngle(r.angle + deltaDeg)
}

// Append adds one live-mode sample. Live series grow without bound.
func (r *Record) Append(v float64) { r.series = append(r.series, v) }

// Series returns the accumulated sample buffer. The slice is the record's
// own storage; callers on other goroutines must not retain it.
func (r *Record) Series() []float64 { return r.series }

// SetSeries replaces the sample buffer, used when reloading stored results.
func (r *Record) SetSeries(s []float64) { r.series = s }

// ClearSeries drops accumulated samples.
func (r *Record) ClearSeries() { r.series = nil }

// Meta returns the persisted metadata entry for this record at matrix row idx.
func (r *Record) Meta(idx int) Meta {
	return Meta{
		Name:  r.name,
		Index: idx,
		Item:  r.geom.String(),
		Angle: r.angle,
		Func:  r.stat,
	}
}

func (r *Record) String() string {
	return fmt.Sprintf("Record(%s %s %.1f° %s)", r.name, r.geom, r.angle, r.stat)
}

func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
