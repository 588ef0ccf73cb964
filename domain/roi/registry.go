package roi

import (
	"fmt"
	"log/slog"
)

// Registry holds the active ROI set in insertion order. It is owned by the
// UI/tick context: all mutation happens there, and concurrent consumers
// (the batch scanner) work from a Snapshot taken at start time instead of
// holding a lock.
type Registry struct {
	order   []string
	records map[string]*Record
	logger  *slog.Logger
}

// NewRegistry returns an empty registry. logger may be nil.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{records: make(map[string]*Record), logger: logger}
}

// Commit promotes a provisional ROI to a committed, named record. A name
// collision or an empty name is rejected synchronously with an error and
// leaves the active set unchanged, so the caller can keep the drawing state
// in place for a retry.
func (g *Registry) Commit(name string, prov Provisional, stat Statistic) (*Record, error) {
	if _, ok := g.records[name]; ok {
		if g.logger != nil {
			g.logger.Error("roi name collision", "name", name)
		}
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	rec, err := NewRecord(name, prov, stat)
	if err != nil {
		return nil, err
	}
	g.records[name] = rec
	g.order = append(g.order, name)
	if g.logger != nil {
		g.logger.Info("roi committed", "name", name, "geometry", rec.Geometry().String(), "func", string(stat))
	}
	return rec, nil
}

// Remove deletes a committed ROI and purges its series data. The host is
// responsible for tearing down any rendered overlay state it holds for the
// same name.
func (g *Registry) Remove(name string) error {
	rec, ok := g.records[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	rec.ClearSeries()
	delete(g.records, name)
	for i, n := range g.order {
		if n == name {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	if g.logger != nil {
		g.logger.Info("roi deleted", "name", name)
	}
	return nil
}

// Get returns the record for name, if present.
func (g *Registry) Get(name string) (*Record, bool) {
	rec, ok := g.records[name]
	return rec, ok
}

// Has reports whether name is in the active set.
func (g *Registry) Has(name string) bool {
	_, ok := g.records[name]
	return ok
}

// Len returns the number of committed ROIs.
func (g *Registry) Len() int { return len(g.order) }

// Names returns the committed names in insertion order.
func (g *Registry) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Records returns the committed records in insertion order. The records
// themselves are shared, not copied; see Snapshot for cross-goroutine use.
func (g *Registry) Records() []*Record {
	out := make([]*Record, 0, len(g.order))
	for _, n := range g.order {
		out = append(out, g.records[n])
	}
	return out
}

// Snapshot returns value copies of the committed records in insertion
// order. A batch run works from this frozen view, so ROI edits made after
// the run starts do not affect it.
func (g *Registry) Snapshot() []*Record {
	out := make([]*Record, 0, len(g.order))
	for _, n := range g.order {
		rec := *g.records[n]
		rec.series = nil
		out = append(out, &rec)
	}
	return out
}

// Clear drops every committed ROI, purging series data.
func (g *Registry) Clear() {
	for _, rec := range g.records {
		rec.ClearSeries()
	}
	g.records = make(map[string]*Record)
	g.order = nil
}
