package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Solver  string             `json:"solver"`
	Start   float64            `json:"start"`
	End     float64            `json:"end"`
	Samples int                `json:"samples"`
	Species []string           `json:"species"`
	Times   []float64          `json:"times"`
	Values  [][]float64        `json:"values"`
	Metrics map[string]float64 `json:"metrics"`
}

// ExportJSON writes a complete run (metadata plus time course) as indented
// JSON to w.
func ExportJSON(w io.Writer, meta *RunMetadata, times []float64, values [][]float64) error {
	data := ExportData{
		ID:      meta.ID,
		Model:   meta.Model,
		Solver:  meta.Solver,
		Start:   meta.Start,
		End:     meta.End,
		Samples: meta.Samples,
		Species: meta.Species,
		Times:   times,
		Values:  values,
		Metrics: meta.Metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
