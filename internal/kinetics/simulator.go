package kinetics

import (
	"context"
	"fmt"
	"math"
)

// Simulator integrates a System over a uniform sampling grid.
type Simulator struct {
	sys        System
	integrator Integrator
	metrics    []Metric
	observers  []Observer
}

func New(sys System, integrator Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates from cfg.Start to cfg.End and returns one row per sample
// time, endpoints included. The integrator takes substeps no larger than
// cfg.Dt inside each sample interval, so the row spacing never limits
// accuracy.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Times:   make([]float64, 0, cfg.Samples),
		States:  make([]State, 0, cfg.Samples),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	span := cfg.End - cfg.Start
	h := span / float64(cfg.Samples-1)

	x := x0.Clone()
	t := cfg.Start
	dt := math.Min(cfg.Dt, h)

	initialMass := s.totalMass(x)
	maxDrift := 0.0

	s.sample(result, x, t)

	for i := 1; i < cfg.Samples; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		target := cfg.Start + float64(i)*h

		for t < target-1e-12*span {
			step := math.Min(dt, target-t)

			var newX State
			if cfg.Adaptive {
				var next float64
				var err error
				newX, next, err = s.adaptiveStep(x, t, step, cfg)
				if err != nil {
					return result, err
				}
				if next > 0 {
					dt = math.Min(next, h)
				}
			} else {
				newX = s.integrator.Step(s.sys, x, t, step)
			}

			if cfg.ValidateState && !newX.IsValid() {
				return result, SimError{Time: t, Sample: i, Message: "invalid state (NaN/Inf)"}
			}

			x = newX
			t += step
			result.StepsTaken++
		}

		t = target
		s.sample(result, x, t)

		if initialMass != 0 {
			drift := math.Abs(s.totalMass(x)-initialMass) / math.Abs(initialMass)
			maxDrift = math.Max(maxDrift, drift)
		}
	}

	result.ConservationDrift = maxDrift

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) sample(result *Result, x State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnSample(x, t)
	}
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.End <= cfg.Start {
		return fmt.Errorf("end time must exceed start time, got [%g, %g]", cfg.Start, cfg.End)
	}
	if cfg.Samples < 2 {
		return fmt.Errorf("samples must be at least 2, got %d", cfg.Samples)
	}
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", cfg.Dt)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	return nil
}

func (s *Simulator) totalMass(x State) float64 {
	if c, ok := s.sys.(Conserver); ok {
		return c.TotalMass(x)
	}
	return 0
}

func (s *Simulator) adaptiveStep(x State, t, dt float64, cfg Config) (State, float64, error) {
	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(s.sys, x, t, dt, cfg.Tolerance)
	}

	// Step-doubling fallback for fixed-step integrators.
	x1 := s.integrator.Step(s.sys, x, t, dt)
	xHalf := s.integrator.Step(s.sys, x, t, dt/2)
	x2 := s.integrator.Step(s.sys, xHalf, t+dt/2, dt/2)

	err := x1.Sub(x2).Norm()
	if err > cfg.Tolerance && dt > 1e-10 {
		return s.adaptiveStep(x, t, dt/2, cfg)
	}

	next := dt
	if err < cfg.Tolerance/10 {
		next = dt * 2
	}
	return x2, next, nil
}

// RunWithCallback integrates step by step without building a Result,
// invoking callback after every substep until it returns false or the
// duration elapses. Used by the live view.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, callback func(State, float64) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	x := x0.Clone()
	t := cfg.Start

	for t < cfg.End {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(x, t) {
			return nil
		}

		x = s.integrator.Step(s.sys, x, t, cfg.Dt)
		t += cfg.Dt

		if cfg.ValidateState && !x.IsValid() {
			return fmt.Errorf("invalid state at t=%.4f", t)
		}
	}

	return nil
}
