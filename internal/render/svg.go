package render

import (
	"fmt"
	"os"
	"strings"
)

var svgPalette = []string{
	"#00ff88", "#ff5555", "#55aaff", "#ffcc00", "#ff55ff", "#55ffff",
}

// SVG builds a dark-background line chart of every series against time.
// The document is hand-assembled; no drawing dependency is needed for a
// polyline plot.
func SVG(times []float64, series [][]float64, names []string, width, height int) string {
	if len(times) < 2 || len(series) == 0 {
		return ""
	}

	const margin = 50.0
	plotW := float64(width) - 2*margin
	plotH := float64(height) - 2*margin

	tMin, tMax := times[0], times[len(times)-1]
	yMin, yMax := series[0][0], series[0][0]
	for _, s := range series {
		for _, v := range s {
			if v < yMin {
				yMin = v
			}
			if v > yMax {
				yMax = v
			}
		}
	}

	tRange := tMax - tMin
	yRange := yMax - yMin
	if tRange == 0 {
		tRange = 1
	}
	if yRange == 0 {
		yRange = 1
	}
	yMin -= yRange * 0.05
	yMax += yRange * 0.05
	yRange = yMax - yMin

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	// Axes
	sb.WriteString(fmt.Sprintf(`<g stroke="#444444" stroke-width="1">
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
</g>
`, margin, margin+plotH, margin+plotW, margin+plotH,
		margin, margin, margin, margin+plotH))

	// Axis labels
	sb.WriteString(fmt.Sprintf(`<g fill="#aaaaaa" font-family="monospace" font-size="11">
<text x="%.1f" y="%.1f">%.3g</text>
<text x="%.1f" y="%.1f" text-anchor="end">%.3g</text>
<text x="%.1f" y="%.1f" text-anchor="end">%.3g</text>
<text x="%.1f" y="%.1f" text-anchor="end">%.3g</text>
</g>
`, margin, margin+plotH+16, tMin,
		margin+plotW, margin+plotH+16, tMax,
		margin-6, margin+plotH, yMin,
		margin-6, margin+10, yMax))

	for si, s := range series {
		color := svgPalette[si%len(svgPalette)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))

		for i := range s {
			x := margin + (times[i]-tMin)/tRange*plotW
			y := margin + plotH - (s[i]-yMin)/yRange*plotH
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	// Legend
	for si, name := range names {
		if si >= len(series) {
			break
		}
		color := svgPalette[si%len(svgPalette)]
		y := margin + float64(si)*16
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="10" height="10" fill="%s"/>
<text x="%.1f" y="%.1f" fill="#cccccc" font-family="monospace" font-size="12">%s</text>
`, margin+plotW-90, y, color, margin+plotW-75, y+9, name))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// WriteSVG renders the chart and writes it to path.
func WriteSVG(path string, times []float64, series [][]float64, names []string) error {
	doc := SVG(times, series, names, 800, 500)
	if doc == "" {
		return fmt.Errorf("nothing to render")
	}
	return os.WriteFile(path, []byte(doc), 0644)
}
