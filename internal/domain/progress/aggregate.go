package progress

import (
	"math"

	"github.com/sweetshooter/study-progress-tracker/internal/domain/catalog"
)

// percent rounds watched/total to the nearest whole percentage.
func percent(watched, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(watched) / float64(total) * 100))
}

// PercentFor returns the completion percentage for one subject, 0..100.
// Unknown subjects and zero totals yield 0.
func PercentFor(cat *catalog.Catalog, rec Record, subjectID string) int {
	s, err := cat.ByID(subjectID)
	if err != nil {
		return 0
	}
	return percent(rec.Progress[subjectID], s.TotalUnits)
}

// TotalPercent returns the overall completion percentage across the whole
// catalog, 0..100. An empty catalog yields 0.
func TotalPercent(cat *catalog.Catalog, rec Record) int {
	return percent(Watched(cat, rec), cat.TotalUnits())
}

// Watched returns the total units watched across all catalog subjects.
func Watched(cat *catalog.Catalog, rec Record) int {
	sum := 0
	for _, s := range cat.All() {
		sum += rec.Progress[s.ID]
	}
	return sum
}

// Clamp restricts value into [0, subject.TotalUnits]. Every write is
// sanitized through here before it reaches the roster or the remote store.
func Clamp(cat *catalog.Catalog, subjectID string, value int) (int, error) {
	s, err := cat.ByID(subjectID)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, nil
	}
	if value > s.TotalUnits {
		return s.TotalUnits, nil
	}
	return value, nil
}
