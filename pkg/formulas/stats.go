package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Quantile returns the empirical p-quantile (0 <= p <= 1) of data.
// The input does not need to be sorted.
func Quantile(p float64, data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Describe summarizes a distribution for monitoring output.
type Describe struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	P25    float64
	P50    float64
	P75    float64
	Max    float64
}

// DescribeValues computes summary statistics over data. NaN entries are
// excluded; an all-NaN or empty input yields Count 0 with NaN statistics.
func DescribeValues(data []float64) Describe {
	clean := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return Describe{Count: 0, Mean: math.NaN(), StdDev: math.NaN(),
			Min: math.NaN(), P25: math.NaN(), P50: math.NaN(), P75: math.NaN(), Max: math.NaN()}
	}
	sort.Float64s(clean)
	return Describe{
		Count:  len(clean),
		Mean:   stat.Mean(clean, nil),
		StdDev: stat.StdDev(clean, nil),
		Min:    clean[0],
		P25:    stat.Quantile(0.25, stat.Empirical, clean, nil),
		P50:    stat.Quantile(0.50, stat.Empirical, clean, nil),
		P75:    stat.Quantile(0.75, stat.Empirical, clean, nil),
		Max:    clean[len(clean)-1],
	}
}
