package integrators

import "kinsim/internal/kinetics"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys kinetics.System, x kinetics.State, t, dt float64) kinetics.State {
	dx := sys.Derive(x, t)
	result := make(kinetics.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
