package game

import "fmt"

// Stats counts cleared rows for the current game.
type Stats struct {
	Cleared   int `json:"cleared"`
	OneLine   int `json:"one_line"`
	TwoLine   int `json:"two_line"`
	ThreeLine int `json:"three_line"`
	FourLine  int `json:"four_line"`
}

// Record folds one lock's cleared row count into the counters.
// A single piece spans at most four rows, so any other count is a bug.
func (s *Stats) Record(rows int) {
	switch rows {
	case 0:
		return
	case 1:
		s.OneLine++
	case 2:
		s.TwoLine++
	case 3:
		s.ThreeLine++
	case 4:
		s.FourLine++
	default:
		panic(fmt.Sprintf("cleared %d rows with a single piece", rows))
	}
	s.Cleared += rows
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	*s = Stats{}
}
