// Package store persists batch scan results as a pair of artifacts: a
// dense (R, F) float64 matrix in gonum's binary encoding, and a
// human-inspectable JSON metadata file describing each ROI row. The two
// are always written and loaded together; the metadata path is derived
// from the data path.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/pixviz/pixviz-go/domain/roi"
)

const (
	dataSuffix = "_pixviz.dat"
	metaSuffix = "_pixviz_meta.json"
)

// DataPath derives the numeric artifact path from a video file path:
// dir/clip.mp4 → dir/clip_pixviz.dat.
func DataPath(videoPath string) string {
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + dataSuffix
}

// MetaPath derives the metadata artifact path from the numeric artifact
// path: dir/clip_pixviz.dat → dir/clip_pixviz_meta.json.
func MetaPath(dataPath string) string {
	if strings.HasSuffix(dataPath, dataSuffix) {
		return strings.TrimSuffix(dataPath, dataSuffix) + metaSuffix
	}
	ext := filepath.Ext(dataPath)
	return strings.TrimSuffix(dataPath, ext) + metaSuffix
}

// Store writes and reads result pairs.
type Store struct {
	logger *slog.Logger
}

// New constructs a store with an injected logger. logger may be nil.
func New(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

// Save writes the matrix and metadata pair for a finished batch run. Row
// order follows the rois slice; each metadata entry records its row index
// explicitly. A key-set mismatch between rois and series is surfaced as an
// error log but does not abandon the save: the run's data is written
// best-effort, with missing rows left NaN.
func (st *Store) Save(dataPath string, series map[string][]float64, rois []*roi.Record) error {
	if len(rois) == 0 {
		return fmt.Errorf("nothing to save: empty roi set")
	}
	if mismatched(series, rois) && st.logger != nil {
		st.logger.Error("roi set and result keys disagree, saving best-effort",
			"rois", len(rois), "series", len(series))
	}

	frames := 0
	for _, row := range series {
		if len(row) > frames {
			frames = len(row)
		}
	}
	if frames == 0 {
		return fmt.Errorf("nothing to save: empty series")
	}

	m := mat.NewDense(len(rois), frames, nil)
	meta := make(map[string]roi.Meta, len(rois))
	for i, rec := range rois {
		row, ok := series[rec.Name()]
		if !ok {
			row = nanRow(frames)
		} else if len(row) < frames {
			padded := nanRow(frames)
			copy(padded, row)
			row = padded
		}
		m.SetRow(i, row)
		meta[rec.Name()] = rec.Meta(i)
	}

	if err := writeMeta(MetaPath(dataPath), meta); err != nil {
		return err
	}
	if err := writeMatrix(dataPath, m); err != nil {
		return err
	}
	if st.logger != nil {
		st.logger.Info("result saved", "category", "io",
			"data", dataPath, "meta", MetaPath(dataPath),
			"rois", len(rois), "frames", frames)
	}
	return nil
}

// Load reads a result pair and reconstructs the ROI records with their
// series attached. Rows are routed by the index recorded in each metadata
// entry, never by map iteration order.
func (st *Store) Load(dataPath string) (*mat.Dense, []*roi.Record, error) {
	meta, err := readMeta(MetaPath(dataPath))
	if err != nil {
		return nil, nil, err
	}
	m, err := readMatrix(dataPath)
	if err != nil {
		return nil, nil, err
	}

	rows, _ := m.Dims()
	if rows != len(meta) {
		return nil, nil, fmt.Errorf("matrix has %d rows but metadata describes %d rois", rows, len(meta))
	}

	records := make([]*roi.Record, rows)
	for name, entry := range meta {
		if entry.Index < 0 || entry.Index >= rows {
			return nil, nil, fmt.Errorf("roi %q: row index %d out of range", name, entry.Index)
		}
		if records[entry.Index] != nil {
			return nil, nil, fmt.Errorf("roi %q: duplicate row index %d", name, entry.Index)
		}
		rec, err := entry.Restore()
		if err != nil {
			return nil, nil, err
		}
		rec.SetSeries(mat.Row(nil, entry.Index, m))
		records[entry.Index] = rec
	}

	if st.logger != nil {
		cols := m.RawMatrix().Cols
		st.logger.Info("result loaded", "category", "io",
			"data", dataPath, "rois", rows, "frames", cols)
	}
	return m, records, nil
}

func mismatched(series map[string][]float64, rois []*roi.Record) bool {
	if len(series) != len(rois) {
		return true
	}
	for _, rec := range rois {
		if _, ok := series[rec.Name()]; !ok {
			return true
		}
	}
	return false
}

func nanRow(n int) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = math.NaN()
	}
	return row
}

func writeMeta(path string, meta map[string]roi.Meta) error {
	buf, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path, append(buf, '\n'), 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// ReadMetaFile reads a standalone metadata file. Besides result reload,
// this serves headless hosts that define their ROI set in the same format.
func ReadMetaFile(path string) (map[string]roi.Meta, error) {
	return readMeta(path)
}

func readMeta(path string) (map[string]roi.Meta, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var meta map[string]roi.Meta
	if err := json.Unmarshal(buf, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}

func writeMatrix(path string, m *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write matrix: %w", err)
	}
	defer f.Close()
	if _, err := m.MarshalBinaryTo(f); err != nil {
		return fmt.Errorf("encode matrix: %w", err)
	}
	return nil
}

func readMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read matrix: %w", err)
	}
	defer f.Close()
	var m mat.Dense
	if _, err := m.UnmarshalBinaryFrom(f); err != nil {
		return nil, fmt.Errorf("decode matrix: %w", err)
	}
	return &m, nil
}
