package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// WritePNG renders the time course as a raster line chart. The output
// format follows the file extension, so .svg and .pdf work too.
func WritePNG(path, title string, times []float64, series [][]float64, names []string) error {
	if len(times) == 0 || len(series) == 0 {
		return fmt.Errorf("nothing to render")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Y.Label.Text = "concentration"
	p.Add(plotter.NewGrid())

	args := make([]interface{}, 0, 2*len(series))
	for i, s := range series {
		pts := make(plotter.XYs, len(s))
		for j := range s {
			pts[j].X = times[j]
			pts[j].Y = s[j]
		}
		name := fmt.Sprintf("x%d", i)
		if i < len(names) {
			name = names[i]
		}
		args = append(args, name, pts)
	}

	if err := plotutil.AddLines(p, args...); err != nil {
		return err
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
