package roi

import "fmt"

// Meta is the persisted metadata entry for one ROI. Index is the 0-based
// row of the ROI in the numeric result matrix; reload routes rows by this
// field, never by map iteration order. Angle is absent in legacy files and
// decodes as 0.
type Meta struct {
	Name  string    `json:"name"`
	Index int       `json:"index"`
	Item  string    `json:"item"`
	Angle float64   `json:"angle"`
	Func  Statistic `json:"func"`
}

// Restore rebuilds a committed Record from persisted metadata.
func (m Meta) Restore() (*Record, error) {
	rect, err := ParseRect(m.Item)
	if err != nil {
		return nil, fmt.Errorf("roi %q: %w", m.Name, err)
	}
	return NewRecord(m.Name, Provisional{Geometry: rect, AngleDeg: m.Angle}, m.Func)
}
