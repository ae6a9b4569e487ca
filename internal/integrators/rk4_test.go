package integrators

import (
	"math"
	"testing"

	"kinsim/internal/kinetics"
)

// firstOrderDecay is dC/dt = -k*C with the analytic solution C0*exp(-k*t).
type firstOrderDecay struct {
	k float64
}

func (d *firstOrderDecay) Derive(x kinetics.State, t float64) kinetics.State {
	return kinetics.State{-d.k * x[0]}
}

func (d *firstOrderDecay) Dim() int { return 1 }

func TestEuler_Accuracy(t *testing.T) {
	integ := NewEuler()
	sys := &firstOrderDecay{k: 0.1}

	x := kinetics.State{10.0}
	dt := 0.001
	for i := 0; i < 10000; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	want := 10.0 * math.Exp(-0.1*10.0)
	if math.Abs(x[0]-want) > 0.01 {
		t.Errorf("euler final = %f, want ~%f", x[0], want)
	}
}

func TestRK4_Accuracy(t *testing.T) {
	integ := NewRK4()
	sys := &firstOrderDecay{k: 0.1}

	x := kinetics.State{10.0}
	dt := 0.1
	for i := 0; i < 500; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	want := 10.0 * math.Exp(-0.1*50.0)
	if math.Abs(x[0]-want) > 1e-6 {
		t.Errorf("rk4 final = %g, want %g", x[0], want)
	}
}

func TestRK4_ReusedScratchIndependentOfDim(t *testing.T) {
	integ := NewRK4()

	// Step a 1-dim system, then a 2-dim one with the same integrator.
	one := &firstOrderDecay{k: 0.1}
	_ = integ.Step(one, kinetics.State{1}, 0, 0.01)

	two := &exchange{}
	x := integ.Step(two, kinetics.State{1, 0}, 0, 0.01)
	if len(x) != 2 {
		t.Fatalf("expected 2-dim result, got %d", len(x))
	}
	if !x.IsValid() {
		t.Error("invalid state after scratch resize")
	}
}

// exchange moves mass from x0 to x1 at unit rate.
type exchange struct{}

func (e *exchange) Derive(x kinetics.State, t float64) kinetics.State {
	return kinetics.State{-x[0], x[0]}
}

func (e *exchange) Dim() int { return 2 }

func TestRK4_MassConservation(t *testing.T) {
	integ := NewRK4()
	sys := &exchange{}

	x := kinetics.State{10, 0}
	dt := 0.01
	for i := 0; i < 5000; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	total := x[0] + x[1]
	if math.Abs(total-10.0) > 1e-9 {
		t.Errorf("total mass = %f, want 10", total)
	}
}
