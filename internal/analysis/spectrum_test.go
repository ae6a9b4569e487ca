package analysis

import (
	"math"
	"testing"
)

func TestPowerSpectrum_SinePeak(t *testing.T) {
	// 8 full cycles over 128 unit-spaced samples puts all power in bin 8.
	n := 128
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * 8 * float64(i) / float64(n))
	}

	ps := PowerSpectrum(data)
	if len(ps) != n/2 {
		t.Fatalf("spectrum length = %d, want %d", len(ps), n/2)
	}

	maxIdx := 0
	for i, p := range ps {
		if p > ps[maxIdx] {
			maxIdx = i
		}
	}
	if maxIdx != 8 {
		t.Errorf("peak at bin %d, want 8", maxIdx)
	}
}

func TestPowerSpectrum_ZeroPads(t *testing.T) {
	ps := PowerSpectrum(make([]float64, 100))
	if len(ps) != 64 {
		t.Errorf("spectrum length = %d, want 64 (padded to 128)", len(ps))
	}
}

func TestDominantPeriod(t *testing.T) {
	n := 256
	dt := 0.5
	data := make([]float64, n)
	for i := range data {
		// Period 16 time units riding on a constant offset.
		data[i] = 5 + math.Sin(2*math.Pi*float64(i)*dt/16.0)
	}

	period := DominantPeriod(data, dt)
	if math.Abs(period-16.0) > 1e-9 {
		t.Errorf("dominant period = %f, want 16", period)
	}
}

func TestDominantPeriod_NoOscillation(t *testing.T) {
	flat := []float64{3, 3, 3, 3, 3, 3, 3, 3}
	if p := DominantPeriod(flat, 0.1); p != 0 {
		t.Errorf("flat series gave period %f, want 0", p)
	}
	if p := DominantPeriod([]float64{1, 2}, 0.1); p != 0 {
		t.Errorf("short series gave period %f, want 0", p)
	}
	if p := DominantPeriod(make([]float64, 16), 0); p != 0 {
		t.Errorf("zero dt gave period %f, want 0", p)
	}
}

func TestHalfLife_Exponential(t *testing.T) {
	k := 0.1
	times := make([]float64, 51)
	data := make([]float64, 51)
	for i := range times {
		times[i] = float64(i)
		data[i] = 10 * math.Exp(-k*times[i])
	}

	got := HalfLife(times, data)
	want := math.Ln2 / k
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("half-life = %f, want %f", got, want)
	}
}

func TestHalfLife_Unusable(t *testing.T) {
	tests := []struct {
		name  string
		times []float64
		data  []float64
	}{
		{"growth", []float64{0, 1, 2, 3}, []float64{1, 2, 4, 8}},
		{"constant", []float64{0, 1, 2, 3}, []float64{5, 5, 5, 5}},
		{"too short", []float64{0, 1}, []float64{4, 2}},
		{"length mismatch", []float64{0, 1, 2}, []float64{4, 2}},
		{"nonpositive prefix", []float64{0, 1, 2, 3}, []float64{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HalfLife(tt.times, tt.data); got != 0 {
				t.Errorf("half-life = %f, want 0", got)
			}
		})
	}
}
