/*
 * internal.go, part of gorjmc.
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

package geometry

import (
	"math"

	v3 "github.com/rmera/gorjmc/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// InternalToCartesian returns the position of an atom at a distance r from bond,
// forming an angle theta with angle and bond, and a dihedral phi with torsion, angle and bond.
// It also returns the Jacobian determinant of the transformation, |r^2 sin(theta)|.
// The dihedral follows the convention of chem.Dihedral (0 for cis).
func InternalToCartesian(bond, angle, torsion r3.Vec, r, theta, phi float64) (r3.Vec, float64) {
	bc := v3.VUnit(r3.Sub(bond, angle))
	n := v3.VUnit(r3.Cross(r3.Sub(angle, torsion), bc))
	m := r3.Cross(n, bc)
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	d := r3.Add(r3.Scale(-ct, bc), r3.Scale(st*cp, m))
	d = r3.Add(d, r3.Scale(st*sp, n))
	return r3.Add(bond, r3.Scale(r, d)), math.Abs(r * r * st)
}

// CartesianToInternal returns the bond length, angle and dihedral of atom with respect
// to the reference atoms, and the Jacobian determinant of the transformation.
// It is the inverse of InternalToCartesian.
func CartesianToInternal(atom, bond, angle, torsion r3.Vec) (r, theta, phi, detJ float64) {
	r = v3.VDist(atom, bond)
	theta = v3.VAngle(angle, bond, atom)
	phi = v3.VDihedral(torsion, angle, bond, atom)
	detJ = math.Abs(r * r * math.Sin(theta))
	return
}
