/*
 * energy.go, part of gorjmc.
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
	v3 "github.com/rmera/gorjmc/v3"
)

// Evaluator is anything that can return the potential energy, in kJ/mol, of a set
// of coordinates in nm.
type Evaluator interface {
	Energy(x *v3.Matrix) (float64, error)
}

// BondEnergy returns the energy of the bond b for the coordinates x.
func BondEnergy(b HarmonicBond, x *v3.Matrix) float64 {
	r := v3.VDist(x.Vec(b.Atoms[0]), x.Vec(b.Atoms[1]))
	d := r - b.Length
	return 0.5 * b.K * d * d
}

// AngleEnergy returns the energy of the angle a for the coordinates x.
func AngleEnergy(a HarmonicAngle, x *v3.Matrix) float64 {
	theta := v3.VAngle(x.Vec(a.Atoms[0]), x.Vec(a.Atoms[1]), x.Vec(a.Atoms[2]))
	d := theta - a.Angle
	return 0.5 * a.K * d * d
}

// TorsionEnergy returns the energy of the torsion t for the coordinates x.
func TorsionEnergy(t PeriodicTorsion, x *v3.Matrix) float64 {
	phi := v3.VDihedral(x.Vec(t.Atoms[0]), x.Vec(t.Atoms[1]), x.Vec(t.Atoms[2]), x.Vec(t.Atoms[3]))
	return t.K * (1 + math.Cos(float64(t.Periodicity)*phi-t.Phase))
}

// PairEnergy returns the Lennard-Jones plus Coulomb energy of two particles at
// distance r, with the given charge product, sigma and epsilon.
// A zero cutoff means no cutoff.
func PairEnergy(r, chargeprod, sigma, epsilon, cutoff float64) float64 {
	if cutoff > 0 && r > cutoff {
		return 0
	}
	var lj float64
	if epsilon != 0 {
		s6 := math.Pow(sigma/r, 6)
		lj = 4 * epsilon * (s6*s6 - s6)
	}
	return lj + chem.ONE4PIEPS0*chargeprod/r
}

// ExceptionEnergy returns the energy of the exception e for the coordinates x.
// Exceptions are not affected by the cutoff.
func ExceptionEnergy(e Exception, x *v3.Matrix) float64 {
	if e.Excluded() {
		return 0
	}
	r := v3.VDist(x.Vec(e.Atoms[0]), x.Vec(e.Atoms[1]))
	return PairEnergy(r, e.ChargeProd, e.Sigma, e.Epsilon, 0)
}

// NonbondedEnergy returns the energy of the regular nonbonded interaction between
// particles i and j, ignoring exceptions.
func (S *System) NonbondedEnergy(i, j int, x *v3.Matrix) float64 {
	a := S.Particles[i]
	b := S.Particles[j]
	sigma, epsilon := LorentzBerthelot(a, b)
	r := v3.VDist(x.Vec(i), x.Vec(j))
	return PairEnergy(r, a.Charge*b.Charge, sigma, epsilon, S.Cutoff)
}

// Energy returns the potential energy of the system, in kJ/mol, for the coordinates
// x, in nm. Constraints do not contribute to the energy.
func (S *System) Energy(x *v3.Matrix) (float64, error) {
	if x == nil || x.NVecs() != len(S.Particles) {
		n := 0
		if x != nil {
			n = x.NVecs()
		}
		return 0, NewError(fmt.Sprintf("System has %d particles but %d positions were given", len(S.Particles), n), "Energy")
	}
	var E float64
	for _, b := range S.Bonds {
		E += BondEnergy(b, x)
	}
	for _, a := range S.Angles {
		E += AngleEnergy(a, x)
	}
	for _, t := range S.Torsions {
		E += TorsionEnergy(t, x)
	}
	for _, e := range S.Exceptions {
		E += ExceptionEnergy(e, x)
	}
	exc := S.ExceptionMap()
	for i := range S.Particles {
		for j := i + 1; j < len(S.Particles); j++ {
			if _, ok := exc[[2]int{i, j}]; ok {
				continue
			}
			E += S.NonbondedEnergy(i, j, x)
		}
	}
	if math.IsNaN(E) {
		return E, NewError("NaN energy", "Energy")
	}
	return E, nil
}
