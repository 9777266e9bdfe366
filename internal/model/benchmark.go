package model

import "time"

// BenchmarkPoint is a single dated close value of a benchmark index.
type BenchmarkPoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// BenchmarkSeries is a historical value series for a benchmark index.
type BenchmarkSeries struct {
	Symbol string           `json:"symbol"`
	Points []BenchmarkPoint `json:"points"`
}

// ClosestTo returns the point whose date has the minimal absolute time
// delta to target. The second return is false when the series is empty.
func (s BenchmarkSeries) ClosestTo(target time.Time) (BenchmarkPoint, bool) {
	if len(s.Points) == 0 {
		return BenchmarkPoint{}, false
	}

	best := s.Points[0]
	bestDelta := absDuration(best.Date.Sub(target))
	for _, p := range s.Points[1:] {
		if d := absDuration(p.Date.Sub(target)); d < bestDelta {
			best = p
			bestDelta = d
		}
	}
	return best, true
}

// Latest returns the most recent point in the series.
func (s BenchmarkSeries) Latest() (BenchmarkPoint, bool) {
	if len(s.Points) == 0 {
		return BenchmarkPoint{}, false
	}

	best := s.Points[0]
	for _, p := range s.Points[1:] {
		if p.Date.After(best.Date) {
			best = p
		}
	}
	return best, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// BenchmarkComparison is the benchmark-relative baseline computed for a
// portfolio: the index value at portfolio inception, its current value, and
// the return over [inception, now] using the same arithmetic as asset
// performance.
type BenchmarkComparison struct {
	Symbol         string    `json:"symbol"`
	InceptionDate  time.Time `json:"inceptionDate"`
	InceptionValue float64   `json:"inceptionValue"`
	CurrentValue   float64   `json:"currentValue"`
	Return         float64   `json:"return"`

	// Source records which resolution step produced the inception value:
	// "series", "table" or "default".
	Source string `json:"source"`
}
