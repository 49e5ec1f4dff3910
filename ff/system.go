/*
 * system.go, part of gorjmc.
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
	"sort"
)

// Particle holds the per-atom parameters of a system. Sigma is in nm,
// Epsilon in kJ/mol, Charge in elementary charges and Mass in amu.
type Particle struct {
	Mass    float64
	Charge  float64
	Sigma   float64
	Epsilon float64
}

// HarmonicBond is a bond term, U = K/2 (r - Length)^2.
type HarmonicBond struct {
	Atoms  [2]int
	Length float64 //nm
	K      float64 //kJ/(mol nm^2)
}

// HarmonicAngle is an angle term, U = K/2 (theta - Angle)^2. Atoms[1] is the vertex.
type HarmonicAngle struct {
	Atoms [3]int
	Angle float64 //radians
	K     float64 //kJ/(mol rad^2)
}

// PeriodicTorsion is a torsion term, U = K (1 + cos(Periodicity phi - Phase)).
type PeriodicTorsion struct {
	Atoms       [4]int
	Periodicity int
	Phase       float64 //radians
	K           float64 //kJ/mol
}

// Exception replaces the regular nonbonded interaction between two atoms.
// An exception with zero ChargeProd and Epsilon is an exclusion.
type Exception struct {
	Atoms      [2]int
	ChargeProd float64 //e^2
	Sigma      float64 //nm
	Epsilon    float64 //kJ/mol
}

// Excluded returns true if the exception turns off the interaction completely.
func (E Exception) Excluded() bool {
	return E.ChargeProd == 0 && E.Epsilon == 0
}

// Constraint fixes the distance between two atoms.
type Constraint struct {
	Atoms    [2]int
	Distance float64 //nm
}

// System is a parameterized energy model for a set of particles, with harmonic
// bonds and angles, periodic torsions, and Lennard-Jones plus Coulomb nonbonded
// interactions, with exceptions. It plays the role of the force field "system"
// paired with each topology.
type System struct {
	Particles   []Particle
	Bonds       []HarmonicBond
	Angles      []HarmonicAngle
	Torsions    []PeriodicTorsion
	Exceptions  []Exception
	Constraints []Constraint
	Cutoff      float64 //nonbonded cutoff in nm, 0 for no cutoff.
}

// NParticles returns the number of particles in the system.
func (S *System) NParticles() int {
	return len(S.Particles)
}

// Masses returns the masses of all particles.
func (S *System) Masses() []float64 {
	ret := make([]float64, len(S.Particles))
	for i, v := range S.Particles {
		ret[i] = v.Mass
	}
	return ret
}

// Copy returns a deep copy of the system.
func (S *System) Copy() *System {
	r := &System{Cutoff: S.Cutoff}
	r.Particles = append([]Particle(nil), S.Particles...)
	r.Bonds = append([]HarmonicBond(nil), S.Bonds...)
	r.Angles = append([]HarmonicAngle(nil), S.Angles...)
	r.Torsions = append([]PeriodicTorsion(nil), S.Torsions...)
	r.Exceptions = append([]Exception(nil), S.Exceptions...)
	r.Constraints = append([]Constraint(nil), S.Constraints...)
	return r
}

// Equal returns true if both systems have the same particles and
// the same terms, in the same order.
func (S *System) Equal(O *System) bool {
	if S.Cutoff != O.Cutoff || len(S.Particles) != len(O.Particles) || len(S.Bonds) != len(O.Bonds) ||
		len(S.Angles) != len(O.Angles) || len(S.Torsions) != len(O.Torsions) ||
		len(S.Exceptions) != len(O.Exceptions) || len(S.Constraints) != len(O.Constraints) {
		return false
	}
	for i := range S.Particles {
		if S.Particles[i] != O.Particles[i] {
			return false
		}
	}
	for i := range S.Bonds {
		if S.Bonds[i] != O.Bonds[i] {
			return false
		}
	}
	for i := range S.Angles {
		if S.Angles[i] != O.Angles[i] {
			return false
		}
	}
	for i := range S.Torsions {
		if S.Torsions[i] != O.Torsions[i] {
			return false
		}
	}
	for i := range S.Exceptions {
		if S.Exceptions[i] != O.Exceptions[i] {
			return false
		}
	}
	for i := range S.Constraints {
		if S.Constraints[i] != O.Constraints[i] {
			return false
		}
	}
	return true
}

// Check verifies that all the terms refer to existing particles, and that
// no term has repeated atoms.
func (S *System) Check() error {
	n := len(S.Particles)
	check := func(kind string, i int, ats []int) error {
		for k, a := range ats {
			if a < 0 || a >= n {
				return NewError(fmt.Sprintf("%s %d refers to particle %d, but the system has %d particles", kind, i, a, n), "Check")
			}
			for _, b := range ats[k+1:] {
				if a == b {
					return NewError(fmt.Sprintf("%s %d has the particle %d repeated", kind, i, a), "Check")
				}
			}
		}
		return nil
	}
	for i, v := range S.Bonds {
		if err := check("bond", i, v.Atoms[:]); err != nil {
			return err
		}
	}
	for i, v := range S.Angles {
		if err := check("angle", i, v.Atoms[:]); err != nil {
			return err
		}
	}
	for i, v := range S.Torsions {
		if err := check("torsion", i, v.Atoms[:]); err != nil {
			return err
		}
	}
	for i, v := range S.Exceptions {
		if err := check("exception", i, v.Atoms[:]); err != nil {
			return err
		}
	}
	for i, v := range S.Constraints {
		if err := check("constraint", i, v.Atoms[:]); err != nil {
			return err
		}
	}
	return nil
}

// FindBond returns the harmonic bond between atoms i and j, if any.
func (S *System) FindBond(i, j int) (HarmonicBond, bool) {
	for _, b := range S.Bonds {
		if (b.Atoms[0] == i && b.Atoms[1] == j) || (b.Atoms[0] == j && b.Atoms[1] == i) {
			return b, true
		}
	}
	return HarmonicBond{}, false
}

// FindConstraint returns the constraint between atoms i and j, if any.
func (S *System) FindConstraint(i, j int) (Constraint, bool) {
	for _, c := range S.Constraints {
		if (c.Atoms[0] == i && c.Atoms[1] == j) || (c.Atoms[0] == j && c.Atoms[1] == i) {
			return c, true
		}
	}
	return Constraint{}, false
}

// FindAngle returns the harmonic angle i-j-k (or k-j-i), with j the vertex, if any.
func (S *System) FindAngle(i, j, k int) (HarmonicAngle, bool) {
	for _, a := range S.Angles {
		if a.Atoms[1] != j {
			continue
		}
		if (a.Atoms[0] == i && a.Atoms[2] == k) || (a.Atoms[0] == k && a.Atoms[2] == i) {
			return a, true
		}
	}
	return HarmonicAngle{}, false
}

// ExceptionMap returns the exceptions of the system indexed by pair,
// with the lower index first.
func (S *System) ExceptionMap() map[[2]int]Exception {
	ret := make(map[[2]int]Exception, len(S.Exceptions))
	for _, e := range S.Exceptions {
		ret[pairKey(e.Atoms[0], e.Atoms[1])] = e
	}
	return ret
}

func pairKey(i, j int) [2]int {
	if i > j {
		return [2]int{j, i}
	}
	return [2]int{i, j}
}

// AddException adds an exception for the pair i, j, replacing any
// previous one for the same pair.
func (S *System) AddException(i, j int, chargeprod, sigma, epsilon float64) {
	k := pairKey(i, j)
	for l, e := range S.Exceptions {
		if pairKey(e.Atoms[0], e.Atoms[1]) == k {
			S.Exceptions[l] = Exception{Atoms: k, ChargeProd: chargeprod, Sigma: sigma, Epsilon: epsilon}
			return
		}
	}
	S.Exceptions = append(S.Exceptions, Exception{Atoms: k, ChargeProd: chargeprod, Sigma: sigma, Epsilon: epsilon})
}

// SortTerms sorts all terms by their atom indexes, so systems built
// by different paths can be compared.
func (S *System) SortTerms() {
	sort.Slice(S.Bonds, func(i, j int) bool { return lessInts(S.Bonds[i].Atoms[:], S.Bonds[j].Atoms[:]) })
	sort.Slice(S.Angles, func(i, j int) bool { return lessInts(S.Angles[i].Atoms[:], S.Angles[j].Atoms[:]) })
	sort.SliceStable(S.Torsions, func(i, j int) bool { return lessInts(S.Torsions[i].Atoms[:], S.Torsions[j].Atoms[:]) })
	sort.Slice(S.Exceptions, func(i, j int) bool { return lessInts(S.Exceptions[i].Atoms[:], S.Exceptions[j].Atoms[:]) })
	sort.Slice(S.Constraints, func(i, j int) bool { return lessInts(S.Constraints[i].Atoms[:], S.Constraints[j].Atoms[:]) })
}

func lessInts(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// LorentzBerthelot returns the combined sigma and epsilon for two particles.
func LorentzBerthelot(a, b Particle) (sigma, epsilon float64) {
	return 0.5 * (a.Sigma + b.Sigma), math.Sqrt(a.Epsilon * b.Epsilon)
}
