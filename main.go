package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/pixviz/pixviz-go/config"
	debugpkg "github.com/pixviz/pixviz-go/debug"
	"github.com/pixviz/pixviz-go/domain/roi"
	"github.com/pixviz/pixviz-go/domain/sample"
	"github.com/pixviz/pixviz-go/domain/scan"
	"github.com/pixviz/pixviz-go/store"
	"github.com/pixviz/pixviz-go/video"
)

// Headless batch harness: load a video, load an ROI definition file (same
// format as the persisted metadata artifact), run one full scan and write
// the result pair. Interactive hosts embed the same components and drive
// them from their own event loop.
func main() {
	var (
		videoPath string
		roisPath  string
		outPath   string
		cfgPath   string
		viewSpec  string
		debug     bool
	)
	flag.StringVar(&videoPath, "video", "", "video file to process")
	flag.StringVar(&roisPath, "rois", "", "roi definition file (metadata JSON)")
	flag.StringVar(&outPath, "out", "", "output data path (default: derived from video path)")
	flag.StringVar(&cfgPath, "config", "pixviz.json", "config file path")
	flag.StringVar(&viewSpec, "view", "", "view size the rois were drawn against, WxH (default: native)")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	if videoPath == "" || roisPath == "" {
		fmt.Fprintln(os.Stderr, "usage: pixviz -video FILE -rois FILE [-out FILE] [-view WxH]")
		os.Exit(2)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	level := slog.LevelInfo
	if debug || cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level)
	if debug || cfg.Debug {
		debugpkg.StartMemLogger(5*time.Second, logger)
	}

	if err := run(videoPath, roisPath, outPath, viewSpec, cfg, logger); err != nil {
		logger.Error("batch run failed", "error", err)
		os.Exit(1)
	}
}

func run(videoPath, roisPath, outPath, viewSpec string, cfg *config.Config, logger *slog.Logger) error {
	src, err := video.OpenFile(videoPath)
	if err != nil {
		return err
	}
	defer src.Close()

	nativeW, nativeH := src.FrameSize()
	logger.Info("video loaded", "category", "io",
		"path", videoPath,
		"frames", src.TotalFrames(),
		"fps", src.FrameRate(),
		"size", fmt.Sprintf("%dx%d", nativeW, nativeH),
	)

	viewW, viewH := nativeW, nativeH
	if viewSpec != "" {
		if _, err := fmt.Sscanf(viewSpec, "%dx%d", &viewW, &viewH); err != nil {
			return fmt.Errorf("malformed view size %q", viewSpec)
		}
	}

	registry, err := loadRoiSet(roisPath, logger)
	if err != nil {
		return err
	}
	logger.Info("roi set loaded", "category", "io", "path", roisPath, "rois", registry.Len())

	if outPath == "" {
		outPath = store.DataPath(videoPath)
	}

	sampler := sample.NewSampler(logger)
	snapshot := registry.Snapshot()
	results := store.New(logger)

	var scanErr error
	scanner := scan.NewScanner(src, sampler, snapshot, viewW, viewH, logger, scan.Hooks{
		Progress: func(frameIndex int) {
			if frameIndex%cfg.LogEveryFrames == 0 {
				logger.Debug("batch progress", "frame", frameIndex)
			}
		},
		Result: func(series map[string][]float64) {
			scanErr = results.Save(outPath, series, snapshot)
		},
	})
	if err := scanner.Start(); err != nil {
		return err
	}
	scanner.Wait()

	stats := scanner.Stats()
	logger.Info("done",
		"frames", stats.FramesTotal,
		"read_failures", stats.ReadFailures,
		"elapsed", stats.Elapsed,
	)
	return scanErr
}

// loadRoiSet rebuilds a registry from a metadata-format definition file,
// committing records in their stored index order.
func loadRoiSet(path string, logger *slog.Logger) (*roi.Registry, error) {
	meta, err := store.ReadMetaFile(path)
	if err != nil {
		return nil, err
	}
	entries := make([]roi.Meta, 0, len(meta))
	for _, m := range meta {
		entries = append(entries, m)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })

	registry := roi.NewRegistry(logger)
	for _, m := range entries {
		rect, err := roi.ParseRect(m.Item)
		if err != nil {
			return nil, err
		}
		if _, err := registry.Commit(m.Name, roi.Provisional{Geometry: rect, AngleDeg: m.Angle}, m.Func); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
