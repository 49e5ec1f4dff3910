/*
 * generator.go, part of gorjmc.
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

package ff

import (
	"fmt"
	"math"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/chemgraph"
)

// Parameterizer builds a System for a topology. The particles of the system
// follow the order of the atoms in the topology.
type Parameterizer interface {
	Parameterize(top *chem.Topology) (*System, error)
}

// Lennard-Jones well depths, in kJ/mol, for the elements supported by Generator.
var elementEpsilon = map[string]float64{
	"H":  0.0657,
	"C":  0.359,
	"N":  0.711,
	"O":  0.879,
	"S":  1.046,
	"P":  0.836,
	"F":  0.255,
	"Cl": 1.108,
	"Br": 1.33,
	"I":  1.67,
}

const (
	hcovrad       = 0.032 //nm
	bondK         = 2.5e5 //kJ/(mol nm^2)
	bondKH        = 3e5
	angleK        = 400.0 //kJ/(mol rad^2)
	angleKH       = 300.0
	tetrahedral   = 1.9106332362490186 //109.47 degrees
	scee          = 1.2
	scnb          = 2.0
	pauling       = 0.071 //nm
	sigmaFromRmin = 1.122462048309373 //2^(1/6)
)

// Generator is a Parameterizer that assigns generic valence and Lennard-Jones
// parameters from the elements, bond orders and hybridizations of the atoms,
// in the spirit of general force fields. Charges are taken from the topology.
type Generator struct {
	// ConstrainHydrogens replaces the bonds to hydrogens with constraints.
	ConstrainHydrogens bool
	// Cutoff for the nonbonded interactions, in nm. 0 means no cutoff.
	Cutoff float64
}

// NewGenerator returns a Generator with default settings.
func NewGenerator() *Generator {
	return &Generator{}
}

// Parameterize returns a System for top. It fails, naming the residue, if an
// atom has an element with no parameters.
func (G *Generator) Parameterize(top *chem.Topology) (*System, error) {
	top.FillIndexes()
	S := &System{Cutoff: G.Cutoff}
	for _, at := range top.Atoms {
		eps, ok := elementEpsilon[at.Symbol]
		vdw, ok2 := chem.VdwRadius(at.Symbol)
		if !ok || !ok2 {
			return nil, NewError(fmt.Sprintf("No parameters for element '%s' of atom %s in residue %s %d", at.Symbol, at.Name, at.MolName, at.MolID), "Generator.Parameterize")
		}
		m := at.Mass
		if m == 0 {
			m, _ = chem.Mass(at.Symbol)
		}
		S.Particles = append(S.Particles, Particle{Mass: m, Charge: at.Charge, Sigma: 2 * vdw / sigmaFromRmin, Epsilon: eps})
	}
	for _, b := range top.Bonds {
		i, j := b.At1.Index(), b.At2.Index()
		r0 := bondLength(b)
		if G.ConstrainHydrogens && (!b.At1.Heavy() || !b.At2.Heavy()) {
			S.Constraints = append(S.Constraints, Constraint{Atoms: [2]int{i, j}, Distance: r0})
			continue
		}
		k := bondK
		if !b.At1.Heavy() || !b.At2.Heavy() {
			k = bondKH
		}
		S.Bonds = append(S.Bonds, HarmonicBond{Atoms: [2]int{i, j}, Length: r0, K: k})
	}
	g := chemgraph.TopologyFromChem(top, nil)
	rings := g.Rings()
	for j := range top.Atoms {
		neigh := top.BondedTo(j)
		for a := 0; a < len(neigh); a++ {
			for c := a + 1; c < len(neigh); c++ {
				i, k := neigh[a], neigh[c]
				kk := angleK
				if !top.Atom(i).Heavy() || !top.Atom(k).Heavy() {
					kk = angleKH
				}
				S.Angles = append(S.Angles, HarmonicAngle{Atoms: [3]int{i, j, k}, Angle: equilibriumAngle(top, rings, i, j, k), K: kk})
			}
		}
	}
	for _, b := range top.Bonds {
		j, k := b.At1.Index(), b.At2.Index()
		n, phase, K := torsionParameters(top, b)
		if K == 0 {
			continue
		}
		for _, i := range top.BondedTo(j) {
			if i == k {
				continue
			}
			for _, l := range top.BondedTo(k) {
				if l == j || l == i {
					continue
				}
				S.Torsions = append(S.Torsions, PeriodicTorsion{Atoms: [4]int{i, j, k, l}, Periodicity: n, Phase: phase, K: K})
			}
		}
	}
	for i := range top.Atoms {
		for j, path := range g.ShortestPaths(i, 3) {
			if j <= i {
				continue
			}
			switch len(path) {
			case 2, 3:
				S.AddException(i, j, 0, 1, 0)
			case 4:
				a, b := S.Particles[i], S.Particles[j]
				sigma, epsilon := LorentzBerthelot(a, b)
				S.AddException(i, j, a.Charge*b.Charge/scee, sigma, epsilon/scnb)
			}
		}
	}
	S.SortTerms()
	return S, nil
}

// bondLength estimates the equilibrium length of a bond, in nm, from the covalent
// radii of the atoms, shortened for multiple bonds following Pauling.
func bondLength(b *chem.Bond) float64 {
	radius := func(a *chem.Atom) float64 {
		if a.Symbol == "H" {
			return hcovrad
		}
		r, _ := chem.CovalentRadius(a.Symbol)
		return r
	}
	order := b.Order
	if order < 1 {
		order = 1
	}
	return radius(b.At1) + radius(b.At2) - pauling*math.Log10(order)
}

// equilibriumAngle returns the reference angle i-j-k. Atoms in the same small ring take the
// angle of the regular polygon, for 3 and 4 membered rings, or for sp2 vertexes in 5 and 6
// membered rings.
func equilibriumAngle(top *chem.Topology, rings [][]int, i, j, k int) float64 {
	hyb := top.Hybridization(j)
	for _, r := range rings {
		n := len(r)
		if n > 6 || !inRing(r, i) || !inRing(r, j) || !inRing(r, k) {
			continue
		}
		if n <= 4 || hyb == 2 {
			return math.Pi * float64(n-2) / float64(n)
		}
	}
	switch hyb {
	case 1:
		return math.Pi
	case 2:
		return 2 * math.Pi / 3
	}
	return tetrahedral
}

func inRing(ring []int, i int) bool {
	for _, v := range ring {
		if v == i {
			return true
		}
	}
	return false
}

// torsionParameters returns the periodicity, phase and force constant
// for torsions around the bond b. K is 0 for bonds with no torsions (linear atoms).
func torsionParameters(top *chem.Topology, b *chem.Bond) (int, float64, float64) {
	j, k := b.At1.Index(), b.At2.Index()
	hj, hk := top.Hybridization(j), top.Hybridization(k)
	switch {
	case hj == 1 || hk == 1:
		return 0, 0, 0
	case b.Order == 2 || b.Aromatic():
		return 2, math.Pi, 15
	case amide(top, b):
		return 2, math.Pi, 10
	case hj == 3 && hk == 3:
		return 3, 0, 0.65
	}
	return 3, 0, 0.5
}

// amide returns true if b is a single C-N bond where the carbon has a double bond to an oxygen.
func amide(top *chem.Topology, b *chem.Bond) bool {
	if b.Order != 1 {
		return false
	}
	c, n := b.At1, b.At2
	if c.Symbol == "N" {
		c, n = n, c
	}
	if c.Symbol != "C" || n.Symbol != "N" {
		return false
	}
	for _, cb := range c.Bonds {
		if o := cb.Cross(c); o.Symbol == "O" && cb.Order == 2 {
			return true
		}
	}
	return false
}
