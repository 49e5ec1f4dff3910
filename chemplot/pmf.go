/*
 * pmf.go, part of gorjmc
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

// Package chemplot plots the torsion PMFs used in geometry proposals, together with
// the histograms of the torsions actually sampled.
package chemplot

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"github.com/rmera/gorjmc/histo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

func basicPMFPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Torsion (deg)"
	p.Y.Label.Text = "Probability density (1/rad)"
	//Constant x axis
	p.X.Min = -180
	p.X.Max = 180
	p.Y.Min = 0
	p.Add(plotter.NewGrid())
	return p
}

// density returns the points (bin center in degrees, density in 1/rad) of a histogram.
func density(D *histo.Data) plotter.XYs {
	div := D.CopyDividers()
	c := D.Centers()
	v := D.View()
	sum := D.Sum()
	pts := make(plotter.XYs, len(v))
	for i := range v {
		pts[i].X = c[i] * 180 / math.Pi
		if sum > 0 {
			pts[i].Y = v[i] / sum / (div[i+1] - div[i])
		}
	}
	return pts
}

// PMFPlot plots the torsion distributions in pmfs as lines and, if samples is not nil,
// the histograms in samples as points of the same color as the corresponding PMF. The
// dividers of the histograms are in radians. names, if not nil, labels each PMF in the
// legend. The plot is saved to plotname, in the format given by its extension (png if
// it has none).
func PMFPlot(pmfs, samples []*histo.Data, names []string, title, plotname string) error {
	if len(pmfs) == 0 {
		return fmt.Errorf("chemplot.PMFPlot: No distributions given")
	}
	if samples != nil && len(samples) != len(pmfs) {
		return fmt.Errorf("chemplot.PMFPlot: %d distributions but %d histograms of samples", len(pmfs), len(samples))
	}
	if names != nil && len(names) != len(pmfs) {
		return fmt.Errorf("chemplot.PMFPlot: %d distributions but %d names", len(pmfs), len(names))
	}
	p := basicPMFPlot(title)
	for key, pmf := range pmfs {
		r, g, b := colors(key, len(pmfs))
		col := color.RGBA{R: r, G: g, B: b, A: 255}
		l, err := plotter.NewLine(density(pmf))
		if err != nil {
			return fmt.Errorf("chemplot.PMFPlot: %w", err)
		}
		l.LineStyle.Color = col
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
		if names != nil {
			p.Legend.Add(names[key], l)
		}
		if samples == nil || samples[key] == nil || samples[key].Sum() == 0 {
			continue
		}
		s, err := plotter.NewScatter(density(samples[key]))
		if err != nil {
			return fmt.Errorf("chemplot.PMFPlot: %w", err)
		}
		s.GlyphStyle.Color = col
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
	}
	if filepath.Ext(plotname) == "" {
		plotname += ".png"
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, plotname); err != nil {
		return fmt.Errorf("chemplot.PMFPlot: %w", err)
	}
	return nil
}

// takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	var i, f, p, q, t float64
	var r, g, b float64
	maxcolor := 255.0
	conversion := maxcolor * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i = math.Floor(h)
	f = h - i
	p = v * (1 - s)
	q = v * (1 - s*f)
	t = v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default: //case 5
		r, g, b = v, p, q
	}
	return uint8(r * conversion), uint8(g * conversion), uint8(b * conversion)
}

// colors returns the color for the curve key out of steps, going around the
// hue wheel and skipping yellows, which are hard to see on white.
func colors(key, steps int) (r, g, b uint8) {
	norm := 260.0 / float64(steps)
	hp := float64(key)*norm + 20.0
	var h float64
	if hp < 55 {
		h = hp - 20.0
	} else {
		h = hp + 20.0
	}
	return iHVS2RGB(h, 1, 1)
}
