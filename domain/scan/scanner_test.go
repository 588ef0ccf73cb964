package scan

import (
	"errors"
	"math"
	"testing"

	"gocv.io/x/gocv"

	"github.com/pixviz/pixviz-go/domain/roi"
	"github.com/pixviz/pixviz-go/domain/sample"
)

// fakeSource serves synthetic constant-value frames, with selectable
// per-index read failures.
type fakeSource struct {
	frames int
	w, h   int
	fail   map[int]bool
	value  func(i int) float64
	pos    int
	seeks  []int
	gate   chan struct{} // when set, ReadNext blocks until a token arrives
}

func (f *fakeSource) TotalFrames() int      { return f.frames }
func (f *fakeSource) FrameRate() float64    { return 30 }
func (f *fakeSource) FrameSize() (int, int) { return f.w, f.h }
func (f *fakeSource) Close() error          { return nil }

func (f *fakeSource) Seek(frameIndex int) error {
	f.seeks = append(f.seeks, frameIndex)
	f.pos = frameIndex
	return nil
}

func (f *fakeSource) ReadNext() (gocv.Mat, bool) {
	if f.gate != nil {
		<-f.gate
	}
	i := f.pos
	f.pos++
	if i >= f.frames || f.fail[i] {
		return gocv.Mat{}, false
	}
	v := f.value(i)
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), f.h, f.w, gocv.MatTypeCV8UC3)
	return m, true
}

func newTestSource(frames int, fail ...int) *fakeSource {
	failSet := make(map[int]bool, len(fail))
	for _, i := range fail {
		failSet[i] = true
	}
	return &fakeSource{
		frames: frames,
		w:      32,
		h:      24,
		fail:   failSet,
		value:  func(i int) float64 { return float64(i * 10) },
	}
}

func wholeFrameRois(t *testing.T, names ...string) []*roi.Record {
	t.Helper()
	out := make([]*roi.Record, 0, len(names))
	for _, name := range names {
		rec, err := roi.NewRecord(name, roi.Provisional{Geometry: roi.Rect{Left: 0, Top: 0, Width: 32, Height: 24}}, roi.Mean)
		if err != nil {
			t.Fatalf("record %s: %v", name, err)
		}
		out = append(out, rec)
	}
	return out
}

func runScan(t *testing.T, src *fakeSource, rois []*roi.Record) (map[string][]float64, []int, int) {
	t.Helper()
	var (
		progress []int
		result   map[string][]float64
		emitted  int
	)
	s := NewScanner(src, sample.NewSampler(nil), rois, 32, 24, nil, Hooks{
		Progress: func(i int) { progress = append(progress, i) },
		Result: func(series map[string][]float64) {
			emitted++
			result = series
		},
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Wait()
	return result, progress, emitted
}

func TestScanner_EndToEndWithReadFailure(t *testing.T) {
	// 10-frame video, whole-frame mean ROI, read fails at frame 4:
	// expect one 10-wide row, NaN only at column 4.
	src := newTestSource(10, 4)
	result, progress, emitted := runScan(t, src, wholeFrameRois(t, "full"))

	if emitted != 1 {
		t.Fatalf("result emitted %d times, want exactly once", emitted)
	}
	row, ok := result["full"]
	if !ok || len(row) != 10 {
		t.Fatalf("bad result row: %v", result)
	}
	for i, v := range row {
		if i == 4 {
			if !math.IsNaN(v) {
				t.Fatalf("column 4 should be NaN, got %g", v)
			}
			continue
		}
		if v != float64(i*10) {
			t.Fatalf("column %d = %g, want %d", i, v, i*10)
		}
	}
	if len(progress) != 10 {
		t.Fatalf("progress events: %d, want 10", len(progress))
	}
	for i, p := range progress {
		if p != i {
			t.Fatalf("progress out of order at %d: %v", i, progress)
		}
	}
}

func TestScanner_ColumnAlignmentAcrossRois(t *testing.T) {
	src := newTestSource(8, 2, 5)
	result, _, _ := runScan(t, src, wholeFrameRois(t, "a", "b"))

	for _, name := range []string{"a", "b"} {
		row := result[name]
		if len(row) != 8 {
			t.Fatalf("%s: row length %d", name, len(row))
		}
		for i, v := range row {
			failed := i == 2 || i == 5
			if failed != math.IsNaN(v) {
				t.Fatalf("%s column %d: NaN=%v, want failed=%v", name, i, math.IsNaN(v), failed)
			}
		}
	}
}

func TestScanner_Deterministic(t *testing.T) {
	first, _, _ := runScan(t, newTestSource(12, 3), wholeFrameRois(t, "full"))
	second, _, _ := runScan(t, newTestSource(12, 3), wholeFrameRois(t, "full"))

	a, b := first["full"], second["full"]
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		// Bit-identical, including NaN placement.
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			t.Fatalf("column %d differs: %g vs %g", i, a[i], b[i])
		}
	}
}

func TestScanner_SeeksToFrameZero(t *testing.T) {
	src := newTestSource(3)
	src.pos = 2 // playback left the cursor mid-video
	runScan(t, src, wholeFrameRois(t, "full"))
	if len(src.seeks) == 0 || src.seeks[0] != 0 {
		t.Fatalf("scan did not seek to frame 0: %v", src.seeks)
	}
}

func TestScanner_RequiresRois(t *testing.T) {
	s := NewScanner(newTestSource(3), sample.NewSampler(nil), nil, 32, 24, nil, Hooks{})
	if err := s.Start(); !errors.Is(err, ErrNoRois) {
		t.Fatalf("expected ErrNoRois, got %v", err)
	}
}

func TestScanner_SingleRunGuard(t *testing.T) {
	src := newTestSource(3)
	src.gate = make(chan struct{})
	s := NewScanner(src, sample.NewSampler(nil), wholeFrameRois(t, "full"), 32, 24, nil, Hooks{})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Worker is parked on the first read; a second start must be refused.
	if err := s.Start(); !errors.Is(err, ErrScanInFlight) {
		t.Fatalf("expected ErrScanInFlight, got %v", err)
	}
	for i := 0; i < 3; i++ {
		src.gate <- struct{}{}
	}
	s.Wait()
	if s.Running() {
		t.Fatal("scanner still running after wait")
	}
}

func TestScanner_Stats(t *testing.T) {
	src := newTestSource(6, 1, 2)
	s := NewScanner(src, sample.NewSampler(nil), wholeFrameRois(t, "full"), 32, 24, nil, Hooks{})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Wait()
	st := s.Stats()
	if st.FramesTotal != 6 || st.FramesRead != 4 || st.ReadFailures != 2 {
		t.Fatalf("bad stats: %+v", st)
	}
}
