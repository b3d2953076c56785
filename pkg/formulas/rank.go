package formulas

import "sort"

// PercentileRanks maps each value to its average-rank percentile within
// data, in (0, 1]. Equal values share the average of the rank positions
// they occupy, so ties never depend on input order. With n values the
// smallest unique value gets 1/n and the largest gets 1.
//
// Callers must pass NaN-free input; ranks are only meaningful after
// imputation.
func PercentileRanks(data []float64) []float64 {
	n := len(data)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return data[idx[a]] < data[idx[b]] })

	i := 0
	for i < n {
		j := i
		for j+1 < n && data[idx[j+1]] == data[idx[i]] {
			j++
		}
		// Positions i..j hold 1-based ranks i+1..j+1; ties get the average.
		avgRank := float64(i+j+2) / 2
		pct := avgRank / float64(n)
		for k := i; k <= j; k++ {
			out[idx[k]] = pct
		}
		i = j + 1
	}
	return out
}

// IsConstant reports whether every value in data equals the first one.
// An empty or single-element slice is constant.
func IsConstant(data []float64) bool {
	for i := 1; i < len(data); i++ {
		if data[i] != data[0] {
			return false
		}
	}
	return true
}
