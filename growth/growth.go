/*
 * growth.go, part of gorjmc.
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

// Package growth builds restricted versions of a force field system, where each
// term is active only after the atoms it involves have been placed. A single integer
// stage, the growth index, controls which terms are active, so atoms can be added
// to a structure one at a time while only the interactions with the atoms already
// present contribute to the energy.
package growth

import (
	"fmt"
	"math"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/chemgraph"
	"github.com/rmera/gorjmc/ff"
	v3 "github.com/rmera/gorjmc/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultParameterName is the name of the global growth parameter.
const DefaultParameterName = "growth_stage"

// reservedName is the name of the per-term parameter, which the global one can't take.
const reservedName = "growth_idx"

const (
	stericsCutoff = 0.9    //nm
	extraTorsionK = 120 * chem.Kcal2KJ
	extraAngleK   = 400.0
)

// System is a growth-indexed energy model. Each term of the reference system has a
// growth index, 0 for terms among atoms that were already present, or the largest rank (1-based
// position in the growth order) of the new atoms it involves. Terms are active when their growth
// index is not larger than the current stage of the system.
type System struct {
	name       string
	stage      int
	rank       map[int]int
	n          int
	bonds      [][]ff.HarmonicBond
	angles     [][]ff.HarmonicAngle
	torsions   [][]ff.PeriodicTorsion
	exceptions [][]ff.Exception
	pairs      [][][2]int
	particles  []ff.Particle
	sterics    bool
	cutoff     float64
	released   bool

	extraTorsions bool
	extraAngles   bool
	top           *chem.Topology
	refpos        map[int]r3.Vec
}

// Option sets optional features of a System.
type Option func(*System) error

// WithSterics enables the Lennard-Jones and Coulomb interactions between new atoms,
// and between new atoms and old atoms.
func WithSterics(use bool) Option {
	return func(S *System) error {
		S.sterics = use
		return nil
	}
}

// WithParameterName sets the name of the global growth parameter.
func WithParameterName(name string) Option {
	return func(S *System) error {
		if name == reservedName {
			return chem.NewError(fmt.Sprintf("The parameter name '%s' is reserved for the per-term growth index", name), "WithParameterName")
		}
		S.name = name
		return nil
	}
}

// WithExtraTorsions adds stiff torsion restraints that keep the new ring atoms at the
// torsions they have in the reference positions, so rings are not proposed open. top is
// the topology of the system, and reference holds positions, in nm, for the atoms
// that should be restrained.
func WithExtraTorsions(top *chem.Topology, reference map[int]r3.Vec) Option {
	return func(S *System) error {
		S.extraTorsions = true
		S.top = top
		S.refpos = reference
		return nil
	}
}

// WithExtraAngles is like WithExtraTorsions, but for angles.
func WithExtraAngles(top *chem.Topology, reference map[int]r3.Vec) Option {
	return func(S *System) error {
		S.extraAngles = true
		S.top = top
		S.refpos = reference
		return nil
	}
}

// New returns a growth-indexed version of reference, where the new atoms are
// added in the given order. Bonds, angles, torsions and the 1-4 exceptions with
// nonzero interactions are always included.
func New(reference *ff.System, order []int, opts ...Option) (*System, error) {
	S := &System{name: DefaultParameterName, rank: make(map[int]int, len(order)), n: len(order), cutoff: stericsCutoff}
	for _, o := range opts {
		if err := o(S); err != nil {
			return nil, errDecorate(err, "growth.New")
		}
	}
	np := reference.NParticles()
	for i, v := range order {
		if v < 0 || v >= np {
			return nil, chem.NewError(fmt.Sprintf("Atom %d in the growth order is not in the system (%d particles)", v, np), "growth.New")
		}
		if _, ok := S.rank[v]; ok {
			return nil, chem.NewError(fmt.Sprintf("Atom %d appears twice in the growth order", v), "growth.New")
		}
		S.rank[v] = i + 1
	}
	S.particles = append([]ff.Particle(nil), reference.Particles...)
	S.bonds = make([][]ff.HarmonicBond, S.n+1)
	S.angles = make([][]ff.HarmonicAngle, S.n+1)
	S.torsions = make([][]ff.PeriodicTorsion, S.n+1)
	S.exceptions = make([][]ff.Exception, S.n+1)
	S.pairs = make([][][2]int, S.n+1)
	for _, b := range reference.Bonds {
		g := S.GrowthIndex(b.Atoms[:]...)
		S.bonds[g] = append(S.bonds[g], b)
	}
	for _, a := range reference.Angles {
		g := S.GrowthIndex(a.Atoms[:]...)
		S.angles[g] = append(S.angles[g], a)
	}
	for _, t := range reference.Torsions {
		g := S.GrowthIndex(t.Atoms[:]...)
		S.torsions[g] = append(S.torsions[g], t)
	}
	for _, e := range reference.Exceptions {
		if e.Excluded() {
			continue
		}
		g := S.GrowthIndex(e.Atoms[:]...)
		S.exceptions[g] = append(S.exceptions[g], e)
	}
	if S.sterics {
		S.addSterics(reference)
	}
	if S.extraTorsions || S.extraAngles {
		if err := S.addRingRestraints(); err != nil {
			return nil, errDecorate(err, "growth.New")
		}
	}
	return S, nil
}

// addSterics adds the new-old and new-new nonbonded pairs that are not exceptions.
func (S *System) addSterics(reference *ff.System) {
	exc := reference.ExceptionMap()
	np := reference.NParticles()
	for i := 0; i < np; i++ {
		for j := i + 1; j < np; j++ {
			g := S.GrowthIndex(i, j)
			if g == 0 {
				continue //old-old pair
			}
			if _, ok := exc[[2]int{i, j}]; ok {
				continue
			}
			S.pairs[g] = append(S.pairs[g], [2]int{i, j})
		}
	}
}

// addRingRestraints adds the extra torsions and angles for new atoms in rings.
func (S *System) addRingRestraints() error {
	if S.top == nil || S.top.Len() != len(S.particles) {
		return chem.NewError("Ring restraints need a topology matching the system", "addRingRestraints")
	}
	g := chemgraph.TopologyFromChem(S.top, nil)
	has := func(ats ...int) bool {
		for _, v := range ats {
			if _, ok := S.refpos[v]; !ok {
				return false
			}
		}
		return true
	}
	for _, ring := range g.Rings() {
		inring := make(map[int]bool, len(ring))
		anynew := false
		for _, v := range ring {
			inring[v] = true
			if S.rank[v] > 0 {
				anynew = true
			}
		}
		if !anynew || !has(ring...) {
			continue
		}
		//walk the ring bonds. Each ring angle is b-c-d, each ring torsion a-b-c-d.
		for _, c := range ring {
			for _, b := range S.top.BondedTo(c) {
				if !inring[b] {
					continue
				}
				for _, d := range S.top.BondedTo(c) {
					if d <= b || !inring[d] {
						continue
					}
					if S.extraAngles && S.GrowthIndex(b, c, d) > 0 {
						theta := v3.VAngle(S.refpos[b], S.refpos[c], S.refpos[d])
						gi := S.GrowthIndex(b, c, d)
						S.angles[gi] = append(S.angles[gi], ff.HarmonicAngle{Atoms: [3]int{b, c, d}, Angle: theta, K: extraAngleK})
					}
				}
				if !S.extraTorsions || b < c {
					continue
				}
				//torsions around the ring bond c-b (each ring bond visited once)
				for _, a := range S.top.BondedTo(c) {
					if a == b || !inring[a] {
						continue
					}
					for _, d := range S.top.BondedTo(b) {
						if d == c || d == a || !inring[d] {
							continue
						}
						gi := S.GrowthIndex(a, c, b, d)
						if gi == 0 {
							continue
						}
						phi := v3.VDihedral(S.refpos[a], S.refpos[c], S.refpos[b], S.refpos[d])
						phase := math.Remainder(phi+math.Pi, 2*math.Pi)
						S.torsions[gi] = append(S.torsions[gi], ff.PeriodicTorsion{Atoms: [4]int{a, c, b, d}, Periodicity: 1, Phase: phase, K: extraTorsionK})
					}
				}
			}
		}
	}
	return nil
}

// GrowthIndex returns the growth index of a term involving the given atoms: 0 if none of them
// is new, or the largest rank among the new atoms.
func (S *System) GrowthIndex(atoms ...int) int {
	g := 0
	for _, v := range atoms {
		if r := S.rank[v]; r > g {
			g = r
		}
	}
	return g
}

// ParameterName returns the name of the global growth parameter.
func (S *System) ParameterName() string {
	return S.name
}

// NStages returns the number of new atoms, i.e. the largest meaningful growth index.
func (S *System) NStages() int {
	return S.n
}

// GrowthStage returns the current growth index.
func (S *System) GrowthStage() int {
	return S.stage
}

// SetGrowthIndex activates all the terms with growth index up to k. Negative values
// are taken as 0, values larger than the number of new atoms as that number.
func (S *System) SetGrowthIndex(k int) {
	S.stage = max(0, min(k, S.n))
}

// Release frees the terms of the system. The system can't be used afterwards.
func (S *System) Release() {
	S.released = true
	S.bonds = nil
	S.angles = nil
	S.torsions = nil
	S.exceptions = nil
	S.pairs = nil
}

// Energy returns the energy of the active terms, in kJ/mol, for the positions x, in nm.
func (S *System) Energy(x *v3.Matrix) (float64, error) {
	return S.energy(x, -1)
}

// AtomEnergy returns the energy of the active terms that involve the atom with index atom.
// The difference with Energy is a constant for any set of positions that only differ
// in the position of atom.
func (S *System) AtomEnergy(x *v3.Matrix, atom int) (float64, error) {
	return S.energy(x, atom)
}

func involves(atom int, ats []int) bool {
	if atom < 0 {
		return true
	}
	for _, v := range ats {
		if v == atom {
			return true
		}
	}
	return false
}

func (S *System) energy(x *v3.Matrix, atom int) (float64, error) {
	if S.released {
		return 0, chem.NewError("Energy requested from a released growth system", "growth.System.Energy")
	}
	if x == nil || x.NVecs() != len(S.particles) {
		return 0, chem.NewError(fmt.Sprintf("Expected %d positions", len(S.particles)), "growth.System.Energy")
	}
	var E float64
	for g := 0; g <= S.stage; g++ {
		for _, b := range S.bonds[g] {
			if involves(atom, b.Atoms[:]) {
				E += ff.BondEnergy(b, x)
			}
		}
		for _, a := range S.angles[g] {
			if involves(atom, a.Atoms[:]) {
				E += ff.AngleEnergy(a, x)
			}
		}
		for _, t := range S.torsions[g] {
			if involves(atom, t.Atoms[:]) {
				E += ff.TorsionEnergy(t, x)
			}
		}
		for _, e := range S.exceptions[g] {
			if involves(atom, e.Atoms[:]) {
				E += ff.ExceptionEnergy(e, x)
			}
		}
		for _, p := range S.pairs[g] {
			if !involves(atom, p[:]) {
				continue
			}
			a, b := S.particles[p[0]], S.particles[p[1]]
			sigma, epsilon := ff.LorentzBerthelot(a, b)
			r := v3.VDist(x.Vec(p[0]), x.Vec(p[1]))
			E += ff.PairEnergy(r, a.Charge*b.Charge, sigma, epsilon, S.cutoff)
		}
	}
	return E, nil
}

// NTerms returns the number of bond, angle, torsion, exception and steric pair terms
// active at the current stage.
func (S *System) NTerms() (bonds, angles, torsions, exceptions, pairs int) {
	for g := 0; g <= S.stage && g < len(S.bonds); g++ {
		bonds += len(S.bonds[g])
		angles += len(S.angles[g])
		torsions += len(S.torsions[g])
		exceptions += len(S.exceptions[g])
		pairs += len(S.pairs[g])
	}
	return
}

func errDecorate(err error, caller string) error {
	return chem.ErrDecorate(err, caller)
}
