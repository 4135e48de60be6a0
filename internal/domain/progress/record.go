// Package progress defines per-user progress records and the pure
// aggregation helpers computed from them.
package progress

import (
	"time"

	"github.com/sweetshooter/study-progress-tracker/internal/domain/catalog"
)

// TimestampFormat is the layout used for Record.LastUpdated,
// e.g. "2025/08/28 14:30".
const TimestampFormat = "2006/01/02 15:04"

// Record holds one user's watched-unit counts per subject. The name doubles
// as the remote document key; there is no separate synthetic id.
type Record struct {
	Name        string         `json:"name"`
	Progress    map[string]int `json:"progress"`
	LastUpdated string         `json:"last_updated"`
}

// NewRecord builds a record with every catalog subject at zero.
func NewRecord(cat *catalog.Catalog, name string, lastUpdated string) Record {
	p := make(map[string]int, cat.Len())
	for _, s := range cat.All() {
		p[s.ID] = 0
	}
	return Record{Name: name, Progress: p, LastUpdated: lastUpdated}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	p := make(map[string]int, len(r.Progress))
	for k, v := range r.Progress {
		p[k] = v
	}
	return Record{Name: r.Name, Progress: p, LastUpdated: r.LastUpdated}
}

// Normalized returns a copy with every catalog subject present (missing
// entries default to zero) and entries for unknown subjects dropped.
func (r Record) Normalized(cat *catalog.Catalog) Record {
	p := make(map[string]int, cat.Len())
	for _, s := range cat.All() {
		p[s.ID] = r.Progress[s.ID]
	}
	return Record{Name: r.Name, Progress: p, LastUpdated: r.LastUpdated}
}

// Timestamp formats t in the record timestamp layout.
func Timestamp(t time.Time) string {
	return t.Format(TimestampFormat)
}
