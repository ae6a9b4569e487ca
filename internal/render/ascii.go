// Package render turns simulated time courses into terminal plots, SVG
// documents, and PNG images.
package render

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

const (
	defaultWidth  = 80
	defaultHeight = 12
)

// Terminal renders one asciigraph panel per species, stacked vertically
// with the species name as caption.
func Terminal(series [][]float64, names []string) string {
	var sb strings.Builder
	for i, data := range series {
		caption := fmt.Sprintf("x%d vs time", i)
		if i < len(names) {
			caption = fmt.Sprintf("[%s] vs time", names[i])
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(defaultHeight),
			asciigraph.Width(defaultWidth),
			asciigraph.Caption(caption),
		)
		sb.WriteString(graph)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// TerminalCombined renders all species into one panel with a legend.
func TerminalCombined(series [][]float64, names []string) string {
	colors := []asciigraph.AnsiColor{
		asciigraph.Green,
		asciigraph.Red,
		asciigraph.Cyan,
		asciigraph.Yellow,
		asciigraph.Magenta,
		asciigraph.Blue,
	}
	for len(colors) < len(series) {
		colors = append(colors, colors...)
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(defaultHeight+6),
		asciigraph.Width(defaultWidth),
		asciigraph.SeriesColors(colors[:len(series)]...),
		asciigraph.SeriesLegends(names...),
		asciigraph.Caption("concentration vs time"),
	)
}
