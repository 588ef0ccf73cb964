package debug

// Debug memory metrics logger. Started only when config.Debug is true.
// Batch scans churn one decoded frame (plus a warp per rotated ROI) per
// iteration, so heap behaviour during a long run is worth watching.

import (
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

// StartMemLogger launches a ticker that logs goroutine count and heap usage
// at a fixed interval. It is lightweight; disable by running without the
// debug flag.
func StartMemLogger(interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
		for range t.C {
			metrics.Read(samples)
			goroutines := samples[0].Value.Uint64()
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			logger.Info("memstats",
				slog.Uint64("goroutines", goroutines),
				slog.Uint64("heap_alloc", ms.HeapAlloc),
				slog.Uint64("heap_inuse", ms.HeapInuse),
				slog.Uint64("stack_inuse", uint64(ms.StackInuse)),
				slog.Uint64("num_gc", uint64(ms.NumGC)),
			)
		}
	}()
}
