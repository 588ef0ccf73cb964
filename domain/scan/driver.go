package scan

import (
	"context"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/pixviz/pixviz-go/domain/roi"
	"github.com/pixviz/pixviz-go/domain/sample"
)

// Playback narrows what the driver needs from the playback surface: the
// frame currently rendered (a snapshot, not a seek), the display surface
// size, and the transport position for the end-of-media guard.
type Playback struct {
	// GrabFrame returns the currently displayed frame in BGR order. The
	// driver closes the Mat after sampling. ok=false skips the tick.
	GrabFrame func() (frame gocv.Mat, ok bool)
	// ViewSize returns the current rendering surface size in pixels.
	ViewSize func() (w, h int)
	// Position and Duration report the transport position; when both are
	// set and Position >= Duration, ticking stops. Nil disables the guard.
	Position func() time.Duration
	Duration func() time.Duration
	// Drawing reports whether a rectangle-drawing gesture is in progress;
	// ticks are no-ops while it returns true. Nil means never drawing.
	Drawing func() bool
}

// Driver samples whatever frame is currently displayed, once per tick, and
// appends the per-ROI intensities to each record's live series. Ticks are
// synchronous and never block: a tick that cannot get a frame simply
// skips. The driver runs in the UI/tick context and is the only writer of
// the live series buffers.
type Driver struct {
	registry *roi.Registry
	sampler  *sample.Sampler
	playback Playback
	logger   *slog.Logger

	// LiveSample, when set, receives the per-ROI scalar mapping of each
	// successful tick.
	LiveSample func(values map[string]float64)
}

// NewDriver constructs a realtime driver. logger may be nil.
func NewDriver(registry *roi.Registry, sampler *sample.Sampler, playback Playback, logger *slog.Logger) *Driver {
	return &Driver{registry: registry, sampler: sampler, playback: playback, logger: logger}
}

// Tick performs one sampling pass. It returns false once the end-of-media
// guard trips, meaning no further ticks should be scheduled.
func (d *Driver) Tick() bool {
	if d.playback.Position != nil && d.playback.Duration != nil {
		if dur := d.playback.Duration(); dur > 0 && d.playback.Position() >= dur {
			if d.logger != nil {
				d.logger.Info("end of media, realtime sampling stopped")
			}
			return false
		}
	}
	if d.registry.Len() == 0 {
		return true
	}
	if d.playback.Drawing != nil && d.playback.Drawing() {
		return true
	}

	frame, ok := d.playback.GrabFrame()
	if !ok {
		return true
	}
	defer frame.Close()

	viewW, viewH := d.playback.ViewSize()
	records := d.registry.Records()
	values := d.sampler.Sample(frame, records, viewW, viewH)

	for _, rec := range records {
		if v, ok := values[rec.Name()]; ok {
			rec.Append(v)
		}
	}
	if d.LiveSample != nil {
		d.LiveSample(values)
	}
	return true
}

// TickInterval converts a sampling rate in Hz to the driver's tick period.
func TickInterval(samplingRateHz float64) time.Duration {
	if samplingRateHz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / samplingRateHz)
}

// Run drives Tick on a ticker at the given sampling rate until the context
// is cancelled or the end-of-media guard trips. Hosts with their own tick
// scheduler call Tick directly instead.
func (d *Driver) Run(ctx context.Context, samplingRateHz float64) {
	interval := TickInterval(samplingRateHz)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !d.Tick() {
				return
			}
		}
	}
}
