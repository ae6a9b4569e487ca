package kinetics

import (
	"fmt"
	"math"
)

// State is a vector of species concentrations, ordered as declared by the
// model that produced it.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous ODE system dC/dt = f(C, t) over a concentration
// vector.
type System interface {
	Derive(x State, t float64) State
	Dim() int
}

// Conserver is implemented by systems whose reactions are mass balanced;
// TotalMass is constant along exact trajectories and its drift measures
// integration error.
type Conserver interface {
	TotalMass(x State) float64
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(x State, t float64)
}

// Configurable allows runtime adjustment of model parameters, used by the
// live view.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Config describes one time-course simulation: sample rows at uniform times
// over [Start, End], integrating with internal substeps no larger than Dt.
type Config struct {
	Start         float64
	End           float64
	Samples       int
	Dt            float64
	Tolerance     float64
	Adaptive      bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Start:         0,
		End:           50,
		Samples:       51,
		Dt:            0.01,
		Tolerance:     1e-6,
		Adaptive:      false,
		ValidateState: true,
	}
}

// Result is a simulated time course: one state row per sample time.
type Result struct {
	Times             []float64
	States            []State
	Metrics           map[string]float64
	ConservationDrift float64
	StepsTaken        int
}

// Row returns the time course of a single species.
func (r *Result) Row(idx int) []float64 {
	data := make([]float64, len(r.States))
	for i, s := range r.States {
		if idx < len(s) {
			data[i] = s[idx]
		}
	}
	return data
}

type SimError struct {
	Time    float64
	Sample  int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("sample %d (t=%.4f): %s", e.Sample, e.Time, e.Message)
}
