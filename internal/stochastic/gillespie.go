// Package stochastic simulates reaction networks with the Gillespie direct
// method, treating concentrations as discrete copy numbers.
package stochastic

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"kinsim/internal/kinetics"
	"kinsim/internal/network"
)

// Gillespie runs exact stochastic simulation over a compiled network. Rate
// laws are evaluated at the current copy numbers to give propensities, which
// matches the deterministic rate laws for mass-action kinetics.
type Gillespie struct {
	net *network.Network
	rng *rand.Rand
}

func New(net *network.Network, seed int64) *Gillespie {
	return &Gillespie{
		net: net,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Run produces a trajectory sampled onto the same uniform grid the ODE
// simulator uses, so downstream rendering and storage treat both paths
// alike. Initial amounts must be non-negative integers.
func (g *Gillespie) Run(ctx context.Context, cfg kinetics.Config) (*kinetics.Result, error) {
	if cfg.End <= cfg.Start {
		return nil, fmt.Errorf("end time must exceed start time, got [%g, %g]", cfg.Start, cfg.End)
	}
	if cfg.Samples < 2 {
		return nil, fmt.Errorf("samples must be at least 2, got %d", cfg.Samples)
	}

	x := g.net.InitialState()
	for i, v := range x {
		if v < 0 || math.Abs(v-math.Round(v)) > 1e-9 {
			return nil, fmt.Errorf("species %s: stochastic runs need a non-negative integer initial amount, got %g",
				g.net.Species[i].Name, v)
		}
		x[i] = math.Round(v)
	}

	h := (cfg.End - cfg.Start) / float64(cfg.Samples-1)
	result := &kinetics.Result{
		Times:   make([]float64, 0, cfg.Samples),
		States:  make([]kinetics.State, 0, cfg.Samples),
		Metrics: make(map[string]float64),
	}

	t := cfg.Start
	next := 0 // index of the next grid point to record

	record := func(upTo float64) {
		for next < cfg.Samples {
			gridT := cfg.Start + float64(next)*h
			if gridT > upTo+1e-12 {
				return
			}
			result.Times = append(result.Times, gridT)
			result.States = append(result.States, x.Clone())
			next++
		}
	}

	for next < cfg.Samples {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		a0 := 0.0
		props := make([]float64, len(g.net.Reactions))
		for i := range g.net.Reactions {
			p := g.net.RateAt(i, x, t)
			if p < 0 {
				return result, fmt.Errorf("reaction %s: negative propensity %g at t=%g",
					g.net.Reactions[i].Name, p, t)
			}
			props[i] = p
			a0 += p
		}

		if a0 == 0 {
			// Nothing can fire; the state holds for the rest of the course.
			record(cfg.End)
			break
		}

		tau := -math.Log(g.rng.Float64()) / a0
		record(t + tau)
		t += tau
		if t > cfg.End {
			break
		}

		r := g.rng.Float64() * a0
		chosen := len(props) - 1
		for i, p := range props {
			if r < p {
				chosen = i
				break
			}
			r -= p
		}

		// A rate law that does not vanish at zero (constant-rate
		// consumption, say) can fire with an exhausted reactant; copy
		// numbers clamp at zero rather than going negative.
		for idx, coeff := range g.net.Reactions[chosen].Stoich {
			x[idx] += coeff
			if x[idx] < 0 {
				x[idx] = 0
			}
		}
		result.StepsTaken++
	}

	record(cfg.End)
	return result, nil
}
