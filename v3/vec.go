/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package v3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

//Single vectors are gonum r3.Vec values. These are the few operations on them
//that r3 doesn't provide.

// VUnit returns a normalized copy of a. It panics if a is the zero vector.
func VUnit(a r3.Vec) r3.Vec {
	if r3.Norm(a) == 0 {
		panic(ErrZeroVector)
	}
	return r3.Unit(a)
}

// VDist returns the distance between a and b.
func VDist(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// VAngle returns the angle a-b-c, in radians, with b at the vertex.
func VAngle(a, b, c r3.Vec) float64 {
	cos := r3.Cos(r3.Sub(a, b), r3.Sub(c, b))
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}

// VDihedral returns the dihedral angle, in radians, between the planes abc and bcd.
// The result is in [-pi, pi], 0 for a cis arrangement.
func VDihedral(a, b, c, d r3.Vec) float64 {
	bma := r3.Sub(b, a)
	cmb := r3.Sub(c, b)
	dmc := r3.Sub(d, c)
	n2 := r3.Cross(cmb, dmc)
	first := r3.Dot(r3.Scale(r3.Norm(cmb), bma), n2)
	second := r3.Dot(r3.Cross(bma, cmb), n2)
	return math.Atan2(first, second)
}
