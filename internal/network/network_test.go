package network

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinsim/internal/integrators"
	"kinsim/internal/kinetics"
)

const decaySrc = "S1 -> S2; k1*S1; k1 = 0.1; S1 = 10"

func TestCompile_Decay(t *testing.T) {
	net, err := Load(decaySrc)
	require.NoError(t, err)

	assert.Equal(t, []string{"S1", "S2"}, net.SpeciesNames())
	assert.Equal(t, 2, net.Dim())

	x0 := net.InitialState()
	assert.Equal(t, kinetics.State{10, 0}, x0)

	params := net.GetParams()
	assert.Equal(t, 0.1, params["k1"])
	assert.Equal(t, []string{"k1"}, net.ParamNames())

	require.Len(t, net.Reactions, 1)
	assert.Equal(t, "_J0", net.Reactions[0].Name)
	assert.True(t, net.Balanced())
}

func TestNetwork_Derive(t *testing.T) {
	net, err := Load(decaySrc)
	require.NoError(t, err)

	dx := net.Derive(net.InitialState(), 0)
	require.Len(t, dx, 2)
	assert.InDelta(t, -1.0, dx[0], 1e-12)
	assert.InDelta(t, 1.0, dx[1], 1e-12)
}

func TestNetwork_BoundaryClamp(t *testing.T) {
	net, err := Load("$X -> S; k*X; k = 1; X = 5")
	require.NoError(t, err)

	idx, ok := net.SpeciesIndex("X")
	require.True(t, ok)

	dx := net.Derive(net.InitialState(), 0)
	assert.Zero(t, dx[idx], "boundary species must not change")

	sIdx, _ := net.SpeciesIndex("S")
	assert.InDelta(t, 5.0, dx[sIdx], 1e-12)
}

func TestCompile_UndefinedSymbol(t *testing.T) {
	_, err := Load("S1 -> S2; k1*S1*vmax; k1 = 0.1; S1 = 10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vmax")
}

func TestCompile_DuplicateReactionName(t *testing.T) {
	_, err := Load("J1: A -> B; k*A\nJ1: B -> A; k*B\nk = 1; A = 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "J1")
}

func TestCompile_TimeIsImplicit(t *testing.T) {
	net, err := Load("-> S; k*time; k = 2")
	require.NoError(t, err)

	dx := net.Derive(net.InitialState(), 3)
	idx, _ := net.SpeciesIndex("S")
	assert.InDelta(t, 6.0, dx[idx], 1e-12)
}

func TestNetwork_SetParam(t *testing.T) {
	net, err := Load(decaySrc)
	require.NoError(t, err)

	require.NoError(t, net.SetParam("k1", 0.5))
	dx := net.Derive(net.InitialState(), 0)
	assert.InDelta(t, -5.0, dx[0], 1e-12)

	assert.Error(t, net.SetParam("nope", 1))
}

func TestNetwork_TotalMass(t *testing.T) {
	net, err := Load(decaySrc)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, net.TotalMass(net.InitialState()), 1e-12)

	// Open system: synthesis from nothing is not mass balanced.
	open, err := Load("-> S; k0; k0 = 1")
	require.NoError(t, err)
	assert.False(t, open.Balanced())
	assert.Zero(t, open.TotalMass(open.InitialState()))
}

func TestCompile_BoundaryFedNotBalanced(t *testing.T) {
	net, err := Load("$X -> S; k*X; k = 1; X = 5; S = 2")
	require.NoError(t, err)

	assert.False(t, net.Balanced(), "a clamped source adds mass, not conserves it")
	assert.Zero(t, net.TotalMass(net.InitialState()))

	cfg := kinetics.DefaultConfig()
	cfg.Start, cfg.End, cfg.Samples = 0, 10, 11

	sim := kinetics.New(net, integrators.NewRK4())
	result, err := sim.Run(context.Background(), net.InitialState(), cfg)
	require.NoError(t, err)

	assert.Zero(t, result.ConservationDrift, "open network must not report mass drift")

	// Constant inflow at rate 5 on top of the initial 2.
	sIdx, _ := net.SpeciesIndex("S")
	assert.InDelta(t, 52.0, result.States[10][sIdx], 1e-6)
}

func TestNetwork_SeriesFor(t *testing.T) {
	net, err := Load(decaySrc)
	require.NoError(t, err)

	cfg := kinetics.DefaultConfig()
	cfg.Start, cfg.End, cfg.Samples = 0, 10, 11

	sim := kinetics.New(net, integrators.NewRK4())
	result, err := sim.Run(context.Background(), net.InitialState(), cfg)
	require.NoError(t, err)

	series, names, err := net.SeriesFor(result, []string{"S2"})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, []string{"S2"}, names)
	assert.Zero(t, series[0][0])
	assert.Greater(t, series[0][10], 0.0)

	all, names, err := net.SeriesFor(result, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, []string{"S1", "S2"}, names)

	_, _, err = net.SeriesFor(result, []string{"bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestNetwork_RateAt(t *testing.T) {
	net, err := Load(decaySrc)
	require.NoError(t, err)

	r := net.RateAt(0, kinetics.State{4, 0}, 0)
	assert.InDelta(t, 0.4, r, 1e-12)
}

// TestDecayTimeCourse runs the canonical first order decay end to end and
// checks the trajectory against the analytic solution.
func TestDecayTimeCourse(t *testing.T) {
	net, err := Load(decaySrc)
	require.NoError(t, err)

	cfg := kinetics.DefaultConfig()
	cfg.Start, cfg.End, cfg.Samples = 0, 50, 51

	sim := kinetics.New(net, integrators.NewRK4())
	result, err := sim.Run(context.Background(), net.InitialState(), cfg)
	require.NoError(t, err)

	require.Len(t, result.Times, 51)
	require.Len(t, result.States, 51)

	assert.Equal(t, 0.0, result.Times[0])
	assert.Equal(t, 50.0, result.Times[50])
	assert.InDelta(t, 10.0, result.States[0][0], 1e-12)
	assert.InDelta(t, 0.0, result.States[0][1], 1e-12)

	for i := 1; i < len(result.States); i++ {
		assert.LessOrEqual(t, result.States[i][0], result.States[i-1][0],
			"S1 must decay monotonically")
		assert.GreaterOrEqual(t, result.States[i][1], result.States[i-1][1],
			"S2 must grow monotonically")
		total := result.States[i][0] + result.States[i][1]
		assert.InDelta(t, 10.0, total, 1e-8, "mass must be conserved")
	}

	want := 10.0 * math.Exp(-0.1*50.0)
	assert.InDelta(t, want, result.States[50][0], 1e-6)
	assert.InDelta(t, 10.0-want, result.States[50][1], 1e-6)
	assert.Less(t, result.ConservationDrift, 1e-9)
}

func TestDecayTimeCourse_Deterministic(t *testing.T) {
	cfg := kinetics.DefaultConfig()
	cfg.Start, cfg.End, cfg.Samples = 0, 20, 21

	run := func() *kinetics.Result {
		net, err := Load(decaySrc)
		require.NoError(t, err)
		sim := kinetics.New(net, integrators.NewRK4())
		res, err := sim.Run(context.Background(), net.InitialState(), cfg)
		require.NoError(t, err)
		return res
	}

	a, b := run(), run()
	require.Equal(t, a.Times, b.Times)
	for i := range a.States {
		assert.Equal(t, a.States[i], b.States[i], "row %d differs between runs", i)
	}
}
