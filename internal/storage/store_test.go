package storage

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinsim/internal/kinetics"
)

func sampleResult() *kinetics.Result {
	return &kinetics.Result{
		Times: []float64{0, 1, 2},
		States: []kinetics.State{
			{10, 0},
			{9, 1},
			{8.1, 1.9},
		},
		Metrics: map[string]float64{"mass_drift": 0},
	}
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	cfg := kinetics.DefaultConfig()
	cfg.Start, cfg.End, cfg.Samples = 0, 2, 3

	runID, err := store.Save("decay", "rk4", 0, []string{"S1", "S2"}, cfg, sampleResult())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "decay_"))

	meta, err := store.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, "decay", meta.Model)
	assert.Equal(t, "rk4", meta.Solver)
	assert.Equal(t, 3, meta.Samples)
	assert.Equal(t, []string{"S1", "S2"}, meta.Species)

	times, values, err := store.LoadSeries(runID)
	require.NoError(t, err)
	require.Len(t, times, 3)
	require.Len(t, values, 3)
	assert.InDelta(t, 10.0, values[0][0], 1e-6)
	assert.InDelta(t, 1.9, values[2][1], 1e-6)
}

func TestStore_List(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	cfg := kinetics.DefaultConfig()
	cfg.Start, cfg.End, cfg.Samples = 0, 2, 3

	_, err := store.Save("decay", "rk4", 0, []string{"S1", "S2"}, cfg, sampleResult())
	require.NoError(t, err)
	_, err = store.Save("chain", "euler", 0, []string{"A", "B", "C"}, cfg, sampleResult())
	require.NoError(t, err)

	runs, err := store.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStore_ListEmptyDir(t *testing.T) {
	store := New(t.TempDir() + "/never-created")
	runs, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStore_LoadUnknownRun(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	_, err := store.Load("no-such-run")
	assert.Error(t, err)
}

func TestExportJSON(t *testing.T) {
	meta := &RunMetadata{
		ID:      "decay_abcd1234",
		Model:   "decay",
		Solver:  "rk4",
		Start:   0,
		End:     2,
		Samples: 3,
		Species: []string{"S1", "S2"},
		Metrics: map[string]float64{"mass_drift": 0},
	}

	var buf bytes.Buffer
	err := ExportJSON(&buf, meta, []float64{0, 1, 2}, [][]float64{{10, 0}, {9, 1}, {8, 2}})
	require.NoError(t, err)

	var out ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "decay_abcd1234", out.ID)
	assert.Equal(t, []string{"S1", "S2"}, out.Species)
	require.Len(t, out.Times, 3)
	require.Len(t, out.Values, 3)
	assert.Equal(t, 10.0, out.Values[0][0])
}
