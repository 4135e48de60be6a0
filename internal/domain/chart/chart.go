// Package chart projects the roster into ready-to-render chart series.
// Everything here is a pure function of (roster, catalog); series are
// recomputed on demand and never cached.
package chart

import (
	"sort"

	"github.com/sweetshooter/study-progress-tracker/internal/domain/catalog"
	"github.com/sweetshooter/study-progress-tracker/internal/domain/progress"
)

// BarRow is one subject's row in the cross-user comparison bar chart.
type BarRow struct {
	SubjectID  string         `json:"subject_id"`
	Subject    string         `json:"subject"`
	TotalUnits int            `json:"total_units"`
	Watched    map[string]int `json:"watched"` // user name -> units watched
}

// PieSlice is one subject's share of a single user's distribution pie.
type PieSlice struct {
	SubjectID  string `json:"subject_id"`
	Subject    string `json:"subject"`
	Value      int    `json:"value"`
	TotalUnits int    `json:"total_units"`
}

// Pie is one user's progress distribution.
type Pie struct {
	Name        string     `json:"name"`
	LastUpdated string     `json:"last_updated"`
	Slices      []PieSlice `json:"slices"`
}

// Overview is one user's card in the aggregate overview.
type Overview struct {
	Name         string `json:"name"`
	Watched      int    `json:"watched"`
	TotalUnits   int    `json:"total_units"`
	TotalPercent int    `json:"total_percent"`
	LastUpdated  string `json:"last_updated"`
}

// Bars builds one row per catalog subject with each user's watched count.
func Bars(cat *catalog.Catalog, roster []progress.Record) []BarRow {
	rows := make([]BarRow, 0, cat.Len())
	for _, s := range cat.All() {
		row := BarRow{
			SubjectID:  s.ID,
			Subject:    s.Name,
			TotalUnits: s.TotalUnits,
			Watched:    make(map[string]int, len(roster)),
		}
		for _, rec := range roster {
			row.Watched[rec.Name] = rec.Progress[s.ID]
		}
		rows = append(rows, row)
	}
	return rows
}

// Pies builds one distribution pie per user, in name order.
func Pies(cat *catalog.Catalog, roster []progress.Record) []Pie {
	pies := make([]Pie, 0, len(roster))
	for _, rec := range roster {
		p := Pie{
			Name:        rec.Name,
			LastUpdated: rec.LastUpdated,
			Slices:      make([]PieSlice, 0, cat.Len()),
		}
		for _, s := range cat.All() {
			p.Slices = append(p.Slices, PieSlice{
				SubjectID:  s.ID,
				Subject:    s.Name,
				Value:      rec.Progress[s.ID],
				TotalUnits: s.TotalUnits,
			})
		}
		pies = append(pies, p)
	}
	sort.Slice(pies, func(i, j int) bool { return pies[i].Name < pies[j].Name })
	return pies
}

// Overviews builds the per-user total progress cards, in name order.
func Overviews(cat *catalog.Catalog, roster []progress.Record) []Overview {
	out := make([]Overview, 0, len(roster))
	for _, rec := range roster {
		out = append(out, Overview{
			Name:         rec.Name,
			Watched:      progress.Watched(cat, rec),
			TotalUnits:   cat.TotalUnits(),
			TotalPercent: progress.TotalPercent(cat, rec),
			LastUpdated:  rec.LastUpdated,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
