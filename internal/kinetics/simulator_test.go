package kinetics

import (
	"context"
	"math"
	"testing"
)

type decaySystem struct{}

func (d *decaySystem) Derive(x State, t float64) State {
	return State{-x[0]}
}

func (d *decaySystem) Dim() int { return 1 }

type eulerStep struct{}

func (e *eulerStep) Step(sys System, x State, t, dt float64) State {
	dx := sys.Derive(x, t)
	result := make(State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

func TestSimulatorRun(t *testing.T) {
	sim := New(&decaySystem{}, &eulerStep{})

	cfg := Config{
		Start:   0,
		End:     1.0,
		Samples: 11,
		Dt:      0.01,
	}

	x0 := State{1.0}
	result, err := sim.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 rows, got %d", len(result.States))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}

	if result.Times[0] != 0 {
		t.Errorf("expected first sample at t=0, got %f", result.Times[0])
	}
	last := result.Times[len(result.Times)-1]
	if math.Abs(last-1.0) > 1e-9 {
		t.Errorf("expected last sample at t=1, got %f", last)
	}

	finalState := result.States[len(result.States)-1][0]
	expected := math.Exp(-1.0)
	if math.Abs(finalState-expected) > 0.01 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, finalState)
	}
}

func TestSimulatorUniformGrid(t *testing.T) {
	sim := New(&decaySystem{}, &eulerStep{})

	cfg := Config{Start: 0, End: 50, Samples: 51, Dt: 0.1}
	result, err := sim.Run(context.Background(), State{10.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for i, tm := range result.Times {
		want := float64(i)
		if math.Abs(tm-want) > 1e-9 {
			t.Fatalf("row %d: expected t=%g, got %g", i, want, tm)
		}
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&decaySystem{}, &eulerStep{})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"end before start", Config{Start: 10, End: 5, Samples: 11, Dt: 0.1}},
		{"end equals start", Config{Start: 5, End: 5, Samples: 11, Dt: 0.1}},
		{"zero samples", Config{Start: 0, End: 1, Samples: 0, Dt: 0.1}},
		{"one sample", Config{Start: 0, End: 1, Samples: 1, Dt: 0.1}},
		{"zero dt", Config{Start: 0, End: 1, Samples: 11, Dt: 0}},
		{"negative dt", Config{Start: 0, End: 1, Samples: 11, Dt: -0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), State{1.0}, tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

type divergingSystem struct{}

func (d *divergingSystem) Derive(x State, t float64) State {
	return State{math.NaN()}
}

func (d *divergingSystem) Dim() int { return 1 }

func TestSimulatorInvalidState(t *testing.T) {
	sim := New(&divergingSystem{}, &eulerStep{})

	cfg := Config{Start: 0, End: 1, Samples: 11, Dt: 0.1, ValidateState: true}
	_, err := sim.Run(context.Background(), State{1.0}, cfg)
	if err == nil {
		t.Fatal("expected SimError for NaN state")
	}
	if _, ok := err.(SimError); !ok {
		t.Errorf("expected SimError, got %T: %v", err, err)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (m *testMetric) Name() string { return "test" }
func (m *testMetric) Observe(x State, t float64) {
	m.count++
	m.sum += x[0]
}
func (m *testMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *testMetric) Reset() {
	m.count = 0
	m.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&decaySystem{}, &eulerStep{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	cfg := Config{Start: 0, End: 1, Samples: 11, Dt: 0.1}
	result, err := sim.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 11 {
		t.Errorf("expected 11 observations (one per row), got %d", metric.count)
	}
}

func TestSimulatorCancellation(t *testing.T) {
	sim := New(&decaySystem{}, &eulerStep{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Start: 0, End: 1, Samples: 11, Dt: 0.1}
	_, err := sim.Run(ctx, State{1.0}, cfg)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// conservingSystem exchanges mass between two pools; the derivatives sum
// to zero, so x0+x1 is conserved exactly even under Euler.
type conservingSystem struct{}

func (c *conservingSystem) Derive(x State, t float64) State {
	return State{-x[0], x[0]}
}

func (c *conservingSystem) Dim() int { return 2 }

func (c *conservingSystem) TotalMass(x State) float64 { return x[0] + x[1] }

func TestSimulatorConservationDrift(t *testing.T) {
	sim := New(&conservingSystem{}, &eulerStep{})

	cfg := Config{Start: 0, End: 10, Samples: 101, Dt: 0.001}
	result, err := sim.Run(context.Background(), State{10, 0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Euler conserves the plain sum exactly for this exchange system.
	if result.ConservationDrift > 1e-9 {
		t.Errorf("conservation drift too high: %e", result.ConservationDrift)
	}
}
