package sample

import (
	"math"
	"testing"

	"gocv.io/x/gocv"

	"github.com/pixviz/pixviz-go/domain/roi"
)

func constantBGR(t *testing.T, rows, cols int, v float64) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), rows, cols, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { m.Close() })
	return m
}

func mustRecord(t *testing.T, name string, geom roi.Rect, angle float64, stat roi.Statistic) *roi.Record {
	t.Helper()
	rec, err := roi.NewRecord(name, roi.Provisional{Geometry: geom, AngleDeg: angle}, stat)
	if err != nil {
		t.Fatalf("record %s: %v", name, err)
	}
	return rec
}

func TestSampler_WholeFrameMean(t *testing.T) {
	frame := constantBGR(t, 100, 100, 80)
	rec := mustRecord(t, "full", roi.Rect{Left: 0, Top: 0, Width: 100, Height: 100}, 0, roi.Mean)

	s := NewSampler(nil)
	out := s.Sample(frame, []*roi.Record{rec}, 100, 100)
	if v := out["full"]; v != 80 {
		t.Fatalf("whole-frame mean = %g, want 80", v)
	}
}

func TestSampler_ScaledView(t *testing.T) {
	// ROI drawn against a half-size view still lands on the right pixels.
	frame := constantBGR(t, 100, 100, 60)
	rec := mustRecord(t, "r", roi.Rect{Left: 10, Top: 10, Width: 20, Height: 20}, 0, roi.Median)

	s := NewSampler(nil)
	out := s.Sample(frame, []*roi.Record{rec}, 50, 50)
	if v := out["r"]; v != 60 {
		t.Fatalf("scaled median = %g, want 60", v)
	}
}

func TestSampler_RotatedRoiOnConstantFrame(t *testing.T) {
	// A centered ROI on a constant frame reduces to the same value at any
	// rotation: the warp only reshuffles equal pixels.
	frame := constantBGR(t, 100, 100, 100)
	rec := mustRecord(t, "rot", roi.Rect{Left: 30, Top: 30, Width: 40, Height: 40}, 30, roi.Mean)

	s := NewSampler(nil)
	out := s.Sample(frame, []*roi.Record{rec}, 100, 100)
	if v := out["rot"]; math.Abs(v-100) > 1e-9 {
		t.Fatalf("rotated mean = %g, want 100", v)
	}
}

func TestSampler_RotationRoundTrip(t *testing.T) {
	frame := constantBGR(t, 100, 100, 42)
	rec := mustRecord(t, "r", roi.Rect{Left: 30, Top: 30, Width: 40, Height: 40}, 0, roi.Mean)

	s := NewSampler(nil)
	base := s.Sample(frame, []*roi.Record{rec}, 100, 100)["r"]

	rec.Rotate(27)
	rec.Rotate(-27)
	again := s.Sample(frame, []*roi.Record{rec}, 100, 100)["r"]
	if base != again {
		t.Fatalf("rotate round trip changed value: %g != %g", base, again)
	}
}

func TestSampler_EmptyRegionYieldsNaN(t *testing.T) {
	frame := constantBGR(t, 50, 50, 10)
	cases := []roi.Rect{
		{Left: 200, Top: 200, Width: 30, Height: 30}, // fully outside
		{Left: 10, Top: 10, Width: 0, Height: 10},    // zero width
		{Left: 10, Top: 10, Width: 10, Height: 0},    // zero height
	}
	s := NewSampler(nil)
	for i, geom := range cases {
		rec := mustRecord(t, "bad", geom, 0, roi.Mean)
		out := s.Sample(frame, []*roi.Record{rec}, 50, 50)
		if !math.IsNaN(out["bad"]) {
			t.Fatalf("case %d: expected NaN, got %g", i, out["bad"])
		}
	}
}

func TestSampler_BadRoiDoesNotPoisonOthers(t *testing.T) {
	frame := constantBGR(t, 50, 50, 90)
	bad := mustRecord(t, "bad", roi.Rect{Left: 500, Top: 500, Width: 10, Height: 10}, 0, roi.Mean)
	good := mustRecord(t, "good", roi.Rect{Left: 0, Top: 0, Width: 50, Height: 50}, 0, roi.Mean)

	s := NewSampler(nil)
	out := s.Sample(frame, []*roi.Record{bad, good}, 50, 50)
	if !math.IsNaN(out["bad"]) {
		t.Fatalf("bad roi should be NaN, got %g", out["bad"])
	}
	if out["good"] != 90 {
		t.Fatalf("good roi = %g, want 90", out["good"])
	}
}

func TestSampler_NoRois(t *testing.T) {
	frame := constantBGR(t, 10, 10, 1)
	out := NewSampler(nil).Sample(frame, nil, 10, 10)
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %v", out)
	}
}
