package store

import (
	"math"
	"testing"
)

func TestNewStats(t *testing.T) {
	if s := NewStats(nil); s != (Stats{}) {
		t.Errorf("Expected zero stats for no values, got %+v", s)
	}

	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if s.Mean != 5 || s.Min != 2 || s.Max != 9 {
		t.Errorf("Unexpected stats %+v", s)
	}
	if math.Abs(s.StdDeviation-2) > 1e-9 {
		t.Errorf("Expected standard deviation 2, got %f", s.StdDeviation)
	}
}

func TestNewDistributionStats(t *testing.T) {
	even := NewDistributionStats([]float64{10, 10, 10, 10})
	if even.DistributionQuality != 1 {
		t.Errorf("Expected perfect quality for an even distribution, got %f", even.DistributionQuality)
	}

	skewed := NewDistributionStats([]float64{0, 0, 0, 40})
	if skewed.DistributionQuality >= even.DistributionQuality {
		t.Errorf("Expected a skewed distribution to score lower (%f >= %f)", skewed.DistributionQuality, even.DistributionQuality)
	}

	// an empty store is evenly distributed
	empty := NewDistributionStats([]float64{0, 0})
	if empty.DistributionQuality != 1 {
		t.Errorf("Expected quality 1 for an empty store, got %f", empty.DistributionQuality)
	}
}
