/*
 * pmf_test.go, part of gorjmc.
 *
 * Copyright 2024 Raul Mera A. (rmeraaatacademicosdotutadotcl)
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package chemplot

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/gorjmc/histo"
)

func TestPMFPlot(Te *testing.T) {
	n := 36
	w := 2 * math.Pi / float64(n)
	logp := make([]float64, n)
	for i := range logp {
		phi := -math.Pi + (float64(i)+0.5)*w
		logp[i] = 2 * math.Cos(3*phi)
	}
	pmf := histo.FromLogP(-math.Pi, w, logp)
	samples := histo.NewData(pmf.CopyDividers(), nil)
	samples.AddData(-math.Pi/3, -math.Pi/3+0.05, 0.02, math.Pi/3, math.Pi)
	name := filepath.Join(Te.TempDir(), "torsions")
	if err := PMFPlot([]*histo.Data{pmf}, []*histo.Data{samples}, []string{"H5"}, "Ethane torsions", name); err != nil {
		Te.Fatal(err)
	}
	if fi, err := os.Stat(name + ".png"); err != nil || fi.Size() == 0 {
		Te.Errorf("plot not written: %v", err)
	}
	if err := PMFPlot(nil, nil, nil, "", name); err == nil {
		Te.Error("a plot with no distributions should fail")
	}
	if err := PMFPlot([]*histo.Data{pmf}, nil, []string{"a", "b"}, "", name); err == nil {
		Te.Error("wrong number of names should fail")
	}
}

func TestColors(Te *testing.T) {
	seen := make(map[[3]uint8]bool)
	for i := 0; i < 5; i++ {
		r, g, b := colors(i, 5)
		seen[[3]uint8{r, g, b}] = true
	}
	if len(seen) != 5 {
		Te.Errorf("expected 5 different colors, got %d", len(seen))
	}
}
