package metrics

import "kinsim/internal/kinetics"

// Positivity reports the fraction of samples in which every concentration
// stayed non-negative. Concentrations going negative flag an integration
// step too coarse for the rate constants.
type Positivity struct {
	name       string
	tolerance  float64
	violations int
	samples    int
}

func NewPositivity(tolerance float64) *Positivity {
	return &Positivity{
		name:      "positivity",
		tolerance: tolerance,
	}
}

func (p *Positivity) Name() string {
	return p.name
}

func (p *Positivity) Observe(x kinetics.State, t float64) {
	p.samples++
	for _, val := range x {
		if val < -p.tolerance {
			p.violations++
			break
		}
	}
}

func (p *Positivity) Value() float64 {
	if p.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(p.violations)/float64(p.samples)
}

func (p *Positivity) Reset() {
	p.violations = 0
	p.samples = 0
}
