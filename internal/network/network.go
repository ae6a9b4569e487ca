// Package network compiles parsed model source into an executable reaction
// network implementing the kinetics.System interface.
package network

import (
	"fmt"
	"sort"

	"kinsim/internal/antimony"
	"kinsim/internal/kinetics"
)

// Species is one chemical species of the network.
type Species struct {
	Name     string
	Initial  float64
	Boundary bool
}

// Reaction pairs a compiled rate law with the net stoichiometric change it
// applies to each species.
type Reaction struct {
	Name   string
	Rate   antimony.Expr
	Stoich map[int]float64 // species index -> net coefficient
	// Reactants/Products keep per-side coefficients for SSA propensities
	// and mass bookkeeping.
	Reactants map[int]float64
	Products  map[int]float64
}

// Network is a compiled reaction system. It is immutable apart from
// parameter values, which the live view adjusts through SetParam.
type Network struct {
	Name      string
	Species   []Species
	Reactions []Reaction

	params     map[string]float64
	paramOrder []string
	index      map[string]int // species name -> index
	env        map[string]float64
	balanced   bool
}

// Compile resolves a parsed model into a Network. Every identifier in a
// rate law must be a declared species, an assigned parameter, or "time";
// anything else is a compile error rather than an implicit zero.
func Compile(model *antimony.Model) (*Network, error) {
	n := &Network{
		params: make(map[string]float64),
		index:  make(map[string]int),
	}

	addSpecies := func(ref antimony.SpeciesRef) {
		if idx, ok := n.index[ref.Name]; ok {
			if ref.Boundary {
				n.Species[idx].Boundary = true
			}
			return
		}
		n.index[ref.Name] = len(n.Species)
		n.Species = append(n.Species, Species{Name: ref.Name, Boundary: ref.Boundary})
	}

	names := make(map[string]int)
	for _, r := range model.Reactions {
		if r.Name != "" {
			if prev, ok := names[r.Name]; ok {
				return nil, fmt.Errorf("line %d: duplicate reaction name %q (first on line %d)", r.Line, r.Name, prev)
			}
			names[r.Name] = r.Line
		}
		for _, ref := range r.Reactants {
			addSpecies(ref)
		}
		for _, ref := range r.Products {
			addSpecies(ref)
		}
	}

	// Assignments bind species initial concentrations when the name is a
	// declared species, parameters otherwise.
	for _, a := range model.Assignments {
		if idx, ok := n.index[a.Name]; ok {
			n.Species[idx].Initial = a.Value
			continue
		}
		n.params[a.Name] = a.Value
	}
	n.paramOrder = make([]string, 0, len(n.params))
	for name := range n.params {
		n.paramOrder = append(n.paramOrder, name)
	}
	sort.Strings(n.paramOrder)

	n.balanced = true
	for i, r := range model.Reactions {
		cr := Reaction{
			Name:      r.Name,
			Rate:      r.Rate,
			Stoich:    make(map[int]float64),
			Reactants: make(map[int]float64),
			Products:  make(map[int]float64),
		}
		if cr.Name == "" {
			cr.Name = fmt.Sprintf("_J%d", i)
		}

		// Clamped species are sources or sinks and carry no conserved
		// mass, so they stay out of the per-side balance sums.
		reactantMass, productMass := 0.0, 0.0
		for _, ref := range r.Reactants {
			idx := n.index[ref.Name]
			cr.Reactants[idx] += ref.Stoich
			if !ref.Boundary && !n.Species[idx].Boundary {
				cr.Stoich[idx] -= ref.Stoich
				reactantMass += ref.Stoich
			}
		}
		for _, ref := range r.Products {
			idx := n.index[ref.Name]
			cr.Products[idx] += ref.Stoich
			if !ref.Boundary && !n.Species[idx].Boundary {
				cr.Stoich[idx] += ref.Stoich
				productMass += ref.Stoich
			}
		}
		if reactantMass != productMass || len(r.Reactants) == 0 || len(r.Products) == 0 {
			n.balanced = false
		}

		vars := make(map[string]struct{})
		r.Rate.CollectVars(vars)
		for v := range vars {
			if _, ok := n.index[v]; ok {
				continue
			}
			if _, ok := n.params[v]; ok {
				continue
			}
			if v == "time" {
				continue
			}
			return nil, fmt.Errorf("line %d: rate law references undefined symbol %q", r.Line, v)
		}

		n.Reactions = append(n.Reactions, cr)
	}

	n.env = make(map[string]float64, len(n.Species)+len(n.params)+1)
	for name, v := range n.params {
		n.env[name] = v
	}

	return n, nil
}

// Load parses and compiles model source in one call.
func Load(src string) (*Network, error) {
	model, err := antimony.Parse(src)
	if err != nil {
		return nil, err
	}
	return Compile(model)
}

func (n *Network) Dim() int { return len(n.Species) }

// InitialState returns the declared initial concentrations.
func (n *Network) InitialState() kinetics.State {
	x := make(kinetics.State, len(n.Species))
	for i, sp := range n.Species {
		x[i] = sp.Initial
	}
	return x
}

// SpeciesNames returns names in declaration order.
func (n *Network) SpeciesNames() []string {
	names := make([]string, len(n.Species))
	for i, sp := range n.Species {
		names[i] = sp.Name
	}
	return names
}

// SpeciesIndex returns the state index of a species name.
func (n *Network) SpeciesIndex(name string) (int, bool) {
	idx, ok := n.index[name]
	return idx, ok
}

// SeriesFor extracts one column per named species from a result, in the
// given order. An empty selection means every species.
func (n *Network) SeriesFor(result *kinetics.Result, names []string) ([][]float64, []string, error) {
	if len(names) == 0 {
		names = n.SpeciesNames()
	}
	series := make([][]float64, 0, len(names))
	selected := make([]string, 0, len(names))
	for _, name := range names {
		idx, ok := n.index[name]
		if !ok {
			return nil, nil, fmt.Errorf("model has no species %q (has: %v)", name, n.SpeciesNames())
		}
		series = append(series, result.Row(idx))
		selected = append(selected, name)
	}
	return series, selected, nil
}

// Derive evaluates dC/dt = sum over reactions of stoich * rate. Boundary
// species are clamped: their derivative is always zero.
func (n *Network) Derive(x kinetics.State, t float64) kinetics.State {
	for i, sp := range n.Species {
		n.env[sp.Name] = x[i]
	}
	n.env["time"] = t

	dx := make(kinetics.State, len(n.Species))
	for _, r := range n.Reactions {
		rate := r.Rate.Eval(n.env)
		for idx, coeff := range r.Stoich {
			dx[idx] += coeff * rate
		}
	}
	return dx
}

// RateAt evaluates one reaction's rate law at the given state, used by the
// stochastic solver for propensities.
func (n *Network) RateAt(i int, x kinetics.State, t float64) float64 {
	for j, sp := range n.Species {
		n.env[sp.Name] = x[j]
	}
	n.env["time"] = t
	return n.Reactions[i].Rate.Eval(n.env)
}

// TotalMass implements kinetics.Conserver for mass-balanced closed
// networks; for open or unbalanced ones the simulator skips drift tracking.
func (n *Network) TotalMass(x kinetics.State) float64 {
	if !n.balanced {
		return 0
	}
	sum := 0.0
	for i := range n.Species {
		if n.Species[i].Boundary {
			continue
		}
		sum += x[i]
	}
	return sum
}

// Balanced reports whether every reaction conserves total stoichiometric
// mass among non-boundary species.
func (n *Network) Balanced() bool { return n.balanced }

// GetParams implements kinetics.Configurable.
func (n *Network) GetParams() map[string]float64 {
	out := make(map[string]float64, len(n.params))
	for k, v := range n.params {
		out[k] = v
	}
	return out
}

// SetParam implements kinetics.Configurable.
func (n *Network) SetParam(name string, value float64) error {
	if _, ok := n.params[name]; !ok {
		return fmt.Errorf("unknown param: %s", name)
	}
	n.params[name] = value
	n.env[name] = value
	return nil
}

// ParamNames returns parameter names in sorted order.
func (n *Network) ParamNames() []string {
	out := make([]string, len(n.paramOrder))
	copy(out, n.paramOrder)
	return out
}
