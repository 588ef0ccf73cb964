package scan

import (
	"errors"
	"log/slog"
	"math"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/pixviz/pixviz-go/domain/roi"
	"github.com/pixviz/pixviz-go/domain/sample"
	"github.com/pixviz/pixviz-go/video"
)

var (
	// ErrScanInFlight is returned when Start is called while a previous
	// run has not finished. At most one batch run may be active.
	ErrScanInFlight = errors.New("batch scan already running")

	// ErrNoRois is returned when a scan is started with an empty ROI set.
	ErrNoRois = errors.New("no roi committed")
)

// Hooks carries the notifications a batch run hands back across the
// core/UI boundary. Progress fires once per frame index in strictly
// increasing order; Result fires exactly once after the last index,
// carrying the complete name→series mapping. Nil hooks are skipped.
type Hooks struct {
	Progress func(frameIndex int)
	Result   func(series map[string][]float64)
}

// Stats summarises one batch run.
type Stats struct {
	FramesTotal  int
	FramesRead   uint64
	ReadFailures uint64
	Elapsed      time.Duration
}

// Scanner processes every frame of a video in order on a dedicated worker
// goroutine, evaluating a frozen ROI set per frame and assembling a
// full-length series per ROI. Per-frame failures are logged and skipped:
// the affected column stays NaN across all ROIs and the scan continues, so
// the output always has one column per frame index.
type Scanner struct {
	src     video.Source
	sampler *sample.Sampler
	rois    []*roi.Record // snapshot taken by the caller at start time
	viewW   int
	viewH   int
	logger  *slog.Logger
	hooks   Hooks

	running      atomic.Bool
	framesRead   atomic.Uint64
	readFailures atomic.Uint64
	started      time.Time
	elapsed      atomic.Int64

	total  int
	series map[string][]float64
}

// NewScanner prepares a batch run over src for the given frozen ROI
// records. viewW and viewH are the rendering surface size the geometry was
// drawn against. The records are used read-only; live series buffers are
// never touched.
func NewScanner(src video.Source, sampler *sample.Sampler, rois []*roi.Record, viewW, viewH int, logger *slog.Logger, hooks Hooks) *Scanner {
	return &Scanner{
		src:     src,
		sampler: sampler,
		rois:    rois,
		viewW:   viewW,
		viewH:   viewH,
		logger:  logger,
		hooks:   hooks,
	}
}

// Running reports whether the worker goroutine is active.
func (s *Scanner) Running() bool { return s.running.Load() }

// Stats returns run counters. Valid during and after a run.
func (s *Scanner) Stats() Stats {
	return Stats{
		FramesTotal:  s.total,
		FramesRead:   s.framesRead.Load(),
		ReadFailures: s.readFailures.Load(),
		Elapsed:      time.Duration(s.elapsed.Load()),
	}
}

// Start launches the worker goroutine. It fails if a run is already in
// flight or the ROI snapshot is empty.
func (s *Scanner) Start() error {
	if len(s.rois) == 0 {
		return ErrNoRois
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrScanInFlight
	}
	s.total = s.src.TotalFrames()
	s.series = make(map[string][]float64, len(s.rois))
	for _, rec := range s.rois {
		row := make([]float64, s.total)
		for i := range row {
			row[i] = math.NaN()
		}
		s.series[rec.Name()] = row
	}
	s.started = time.Now()
	go s.run()
	return nil
}

// Wait blocks until the current run finishes. Intended for headless hosts;
// UI hosts consume the Result hook instead.
func (s *Scanner) Wait() {
	for s.running.Load() {
		time.Sleep(10 * time.Millisecond)
	}
}

func (s *Scanner) run() {
	defer func() {
		s.elapsed.Store(int64(time.Since(s.started)))
		s.running.Store(false)
	}()

	if err := s.src.Seek(0); err != nil && s.logger != nil {
		s.logger.Warn("seek to frame 0 failed", "error", err)
	}

	for i := 0; i < s.total; i++ {
		s.processFrame(i)
		if s.hooks.Progress != nil {
			s.hooks.Progress(i)
		}
	}

	if s.logger != nil {
		s.logger.Info("batch scan finished",
			"frames", s.total,
			"read_failures", s.readFailures.Load(),
			"elapsed", time.Since(s.started),
			"rois", len(s.rois),
		)
	}
	if s.hooks.Result != nil {
		s.hooks.Result(s.series)
	}
}

// processFrame is the per-frame failure boundary: a read failure or a
// panic while sampling leaves this column NaN and lets the scan continue.
func (s *Scanner) processFrame(frameIndex int) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("frame processing failed",
				"frame", frameIndex,
				"error", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	frame, ok := s.src.ReadNext()
	if !ok {
		s.readFailures.Add(1)
		if s.logger != nil {
			s.logger.Warn("frame read failed", "frame", frameIndex)
		}
		return
	}
	defer frame.Close()
	s.framesRead.Add(1)

	values := s.sampler.Sample(frame, s.rois, s.viewW, s.viewH)
	for name, v := range values {
		if row, ok := s.series[name]; ok {
			row[frameIndex] = v
		}
	}
}
