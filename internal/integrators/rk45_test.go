package integrators

import (
	"math"
	"testing"

	"kinsim/internal/kinetics"
)

func TestRK45_Step(t *testing.T) {
	integ := NewRK45()
	sys := &firstOrderDecay{k: 0.5}

	x := kinetics.State{10.0}
	dt := 0.01
	for i := 0; i < 1000; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}

	want := 10.0 * math.Exp(-0.5*10.0)
	if math.Abs(x[0]-want) > 1e-6 {
		t.Errorf("rk45 final = %g, want %g", x[0], want)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integ := NewRK45()
	sys := &firstOrderDecay{k: 0.1}

	x, newDt, err := integ.StepAdaptive(sys, kinetics.State{10.0}, 0, 0.1, 1e-8)
	if err != nil {
		t.Errorf("StepAdaptive returned error: %v", err)
	}
	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if newDt <= 0 {
		t.Errorf("StepAdaptive returned invalid dt: %f", newDt)
	}
}

func TestRK45_SuggestsSmallerStepForStiffRate(t *testing.T) {
	integ := NewRK45()
	stiff := &firstOrderDecay{k: 100.0}

	_, dtStiff, err := integ.StepAdaptive(stiff, kinetics.State{10.0}, 0, 0.1, 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	if dtStiff >= 0.1 {
		t.Errorf("expected shrunken dt for stiff system, got %f", dtStiff)
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	rk4 := NewRK4()
	rk45 := NewRK45()
	sys := &firstOrderDecay{k: 1.0}

	x4 := kinetics.State{1.0}
	x45 := kinetics.State{1.0}
	dt := 0.1

	for i := 0; i < 100; i++ {
		x4 = rk4.Step(sys, x4, float64(i)*dt, dt)
		x45 = rk45.Step(sys, x45, float64(i)*dt, dt)
	}

	want := math.Exp(-10.0)
	e4 := math.Abs(x4[0] - want)
	e45 := math.Abs(x45[0] - want)
	t.Logf("RK4 err: %e, RK45 err: %e", e4, e45)

	if e45 > 1e-6 {
		t.Errorf("RK45 error too large: %e", e45)
	}
}
