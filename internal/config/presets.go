package config

import "sort"

// Preset is a built-in model with suggested simulation bounds.
type Preset struct {
	Description string
	Source      string
	Start       float64
	End         float64
	Samples     int
	Solver      string
}

var Presets = map[string]*Preset{
	"decay": {
		Description: "first-order conversion S1 -> S2, exponential decay",
		Source:      "S1 -> S2; k1*S1; k1 = 0.1; S1 = 10",
		Start:       0, End: 50, Samples: 51,
		Solver: "rk4",
	},
	"chain": {
		Description: "linear chain A -> B -> C with distinct rate constants",
		Source: `A -> B; k1*A
B -> C; k2*B
k1 = 0.3; k2 = 0.1; A = 5`,
		Start: 0, End: 40, Samples: 81,
		Solver: "rk4",
	},
	"michaelis": {
		Description: "enzyme kinetics E + S <-> ES -> E + P (mass action)",
		Source: `bind:    E + S -> ES; k1*E*S
unbind:  ES -> E + S; k2*ES
convert: ES -> E + P; k3*ES
k1 = 0.5; k2 = 0.1; k3 = 0.4
E = 1; S = 10`,
		Start: 0, End: 60, Samples: 121,
		Solver: "rk45",
	},
	"lotka": {
		Description: "Lotka-Volterra oscillator in reaction form",
		Source: `grow: X -> 2 X; k1*X
eat:  X + Y -> 2 Y; k2*X*Y
die:  Y -> ; k3*Y
k1 = 1.0; k2 = 0.2; k3 = 0.5
X = 2; Y = 1`,
		Start: 0, End: 40, Samples: 401,
		Solver: "rk45",
	},
	"dimer": {
		Description: "reversible dimerization 2 M <-> D",
		Source: `assoc: 2 M -> D; ka*M^2
dissoc: D -> 2 M; kd*D
ka = 0.05; kd = 0.2; M = 10`,
		Start: 0, End: 30, Samples: 61,
		Solver: "rk4",
	},
}

func GetPreset(name string) *Preset {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply copies a preset's model and bounds onto a config.
func (p *Preset) Apply(cfg *Config) {
	cfg.Model = p.Source
	cfg.Start = p.Start
	cfg.End = p.End
	cfg.Samples = p.Samples
	if p.Solver != "" {
		cfg.Solver = p.Solver
	}
}
