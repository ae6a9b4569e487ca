package metrics

import (
	"math"

	"kinsim/internal/kinetics"
)

// Conservation tracks the worst relative drift of total mass across the
// run, for systems implementing kinetics.Conserver.
type Conservation struct {
	name        string
	sys         kinetics.System
	initialMass float64
	maxDrift    float64
	samples     int
}

func NewConservation(sys kinetics.System) *Conservation {
	return &Conservation{
		name: "mass_drift",
		sys:  sys,
	}
}

func (c *Conservation) Name() string { return c.name }

func (c *Conservation) Observe(x kinetics.State, t float64) {
	cons, ok := c.sys.(kinetics.Conserver)
	if !ok {
		return
	}

	mass := cons.TotalMass(x)

	if c.samples == 0 {
		c.initialMass = mass
	}
	c.samples++

	if c.initialMass != 0 {
		drift := math.Abs(mass-c.initialMass) / math.Abs(c.initialMass)
		c.maxDrift = math.Max(c.maxDrift, drift)
	}
}

func (c *Conservation) Value() float64 {
	return c.maxDrift
}

func (c *Conservation) Reset() {
	c.initialMass = 0
	c.maxDrift = 0
	c.samples = 0
}
