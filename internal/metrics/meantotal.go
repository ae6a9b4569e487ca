package metrics

import "kinsim/internal/kinetics"

// MeanTotal averages the summed concentration over all samples.
type MeanTotal struct {
	name    string
	samples int
	total   float64
}

func NewMeanTotal() *MeanTotal {
	return &MeanTotal{name: "mean_total"}
}

func (m *MeanTotal) Name() string { return m.name }

func (m *MeanTotal) Observe(x kinetics.State, t float64) {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	m.total += sum
	m.samples++
}

func (m *MeanTotal) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanTotal) Reset() {
	m.total = 0
	m.samples = 0
}
