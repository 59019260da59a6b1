package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/warren/components"
)

// CountsRecord is one tick of the per-species population time series.
type CountsRecord struct {
	Tick      int32 `csv:"tick" json:"tick"`
	Epoch     int   `csv:"epoch" json:"epoch"`
	Foragers  int   `csv:"foragers" json:"foragers"`
	Predators int   `csv:"predators" json:"predators"`
	Food      int   `csv:"food" json:"food"`
}

// NewCountsRecord builds a record from counts indexed by species.
func NewCountsRecord(tick int32, epoch int, counts [components.NumSpecies]int) CountsRecord {
	return CountsRecord{
		Tick:      tick,
		Epoch:     epoch,
		Foragers:  counts[components.SpeciesForager],
		Predators: counts[components.SpeciesPredator],
		Food:      counts[components.SpeciesFood],
	}
}

// Count returns the recorded count for s.
func (r CountsRecord) Count(s components.Species) int {
	switch s {
	case components.SpeciesForager:
		return r.Foragers
	case components.SpeciesPredator:
		return r.Predators
	case components.SpeciesFood:
		return r.Food
	}
	return 0
}

// History is the ordered per-tick counts series. It only grows.
type History struct {
	records []CountsRecord
}

// Append adds one record.
func (h *History) Append(r CountsRecord) {
	h.records = append(h.records, r)
}

// Len returns the number of recorded ticks.
func (h *History) Len() int {
	return len(h.records)
}

// Last returns the most recent record.
func (h *History) Last() (CountsRecord, bool) {
	if len(h.records) == 0 {
		return CountsRecord{}, false
	}
	return h.records[len(h.records)-1], true
}

// Records returns a copy of the series.
func (h *History) Records() []CountsRecord {
	return append([]CountsRecord(nil), h.records...)
}

// Tail returns a copy of the last n records (fewer if the series is shorter).
func (h *History) Tail(n int) []CountsRecord {
	if n > len(h.records) {
		n = len(h.records)
	}
	return append([]CountsRecord(nil), h.records[len(h.records)-n:]...)
}

// Series returns the count series for one species as float64.
func (h *History) Series(s components.Species) []float64 {
	out := make([]float64, len(h.records))
	for i, r := range h.records {
		out[i] = float64(r.Count(s))
	}
	return out
}

// Summary returns the mean and sample standard deviation of the count series for s.
// The deviation is zero for fewer than two records.
func (h *History) Summary(s components.Species) (mean, std float64) {
	switch len(h.records) {
	case 0:
		return 0, 0
	case 1:
		return float64(h.records[0].Count(s)), 0
	}
	return stat.MeanStdDev(h.Series(s), nil)
}
