package formulas

import (
	"math"
	"testing"
)

func TestPercentileRanks(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want []float64
	}{
		{
			name: "distinct values",
			data: []float64{30, 10, 20},
			want: []float64{1.0, 1.0 / 3, 2.0 / 3},
		},
		{
			name: "ties share average rank",
			data: []float64{5, 5, 1},
			// ranks 2 and 3 average to 2.5 -> 2.5/3
			want: []float64{2.5 / 3, 2.5 / 3, 1.0 / 3},
		},
		{
			name: "constant column",
			data: []float64{7, 7, 7, 7},
			// average of ranks 1..4 is 2.5 -> 2.5/4
			want: []float64{0.625, 0.625, 0.625, 0.625},
		},
		{
			name: "single value",
			data: []float64{42},
			want: []float64{1.0},
		},
		{
			name: "empty",
			data: []float64{},
			want: []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentileRanks(tt.data)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d ranks, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("rank[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPercentileRanksIgnoreInputOrder(t *testing.T) {
	a := PercentileRanks([]float64{1, 2, 2, 3})
	b := PercentileRanks([]float64{3, 2, 2, 1})

	// The two tied values must get the same rank in both orderings.
	if a[1] != a[2] || b[1] != b[2] {
		t.Fatalf("tied values got different ranks: %v / %v", a, b)
	}
	if a[1] != b[1] {
		t.Errorf("tie rank depends on input order: %v vs %v", a[1], b[1])
	}
}

func TestPercentileRanksRange(t *testing.T) {
	data := []float64{0, 9999, 3, 3, 17, 0.5}
	for i, r := range PercentileRanks(data) {
		if r <= 0 || r > 1 {
			t.Errorf("rank[%d] = %v outside (0,1]", i, r)
		}
	}
}

func TestIsConstant(t *testing.T) {
	if !IsConstant([]float64{2, 2, 2}) {
		t.Error("expected constant")
	}
	if IsConstant([]float64{2, 2, 3}) {
		t.Error("expected not constant")
	}
	if !IsConstant(nil) {
		t.Error("empty slice should be constant")
	}
}
