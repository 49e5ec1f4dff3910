/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

import (
	"fmt"
	"math"

	v3 "github.com/rmera/gorjmc/v3"
)

func checkVecs(vecs ...*v3.Matrix) {
	for number, point := range vecs {
		if point == nil {
			panic(fmt.Sprintf("Vector %d is nil", number))
		}
		pr, pc := point.Dims()
		if pr != 1 || pc != 3 {
			panic(fmt.Sprintf("Vector %d has invalid shape", number))
		}
	}
}

// Angle takes 2 vectors and calculate the angle in radians between them
// It does not check for correctness or return errors!
func Angle(v1, v2 *v3.Matrix) float64 {
	checkVecs(v1, v2)
	normproduct := v1.Norm() * v2.Norm()
	dotprod := v1.Dot(v2)
	argument := dotprod / normproduct
	//Take care of floating point math errors
	if math.Abs(argument-1) <= appzero {
		argument = 1
	} else if math.Abs(argument+1) <= appzero {
		argument = -1
	}
	angle := math.Acos(argument)
	if math.IsNaN(angle) {
		return 0
	}
	return angle
}

// BondAngle returns the angle, in radians, formed by the points a, b and c,
// with b at the vertex.
func BondAngle(a, b, c *v3.Matrix) float64 {
	checkVecs(a, b, c)
	ba := v3.Zeros(1)
	bc := v3.Zeros(1)
	ba.Sub(a, b)
	bc.Sub(c, b)
	return Angle(ba, bc)
}

// Distance returns the distance between the points a and b
func Distance(a, b *v3.Matrix) float64 {
	checkVecs(a, b)
	d := v3.Zeros(1)
	d.Sub(a, b)
	return d.Norm()
}

// Dihedral calculate the dihedral between the points a, b, c, d, where the first plane
// is defined by abc and the second by bcd. The result is in [-pi, pi], 0 for a cis
// arrangement.
func Dihedral(a, b, c, d *v3.Matrix) float64 {
	checkVecs(a, b, c, d)
	//bma=b minus a
	bma := v3.Zeros(1)
	cmb := v3.Zeros(1)
	dmc := v3.Zeros(1)
	bmascaled := v3.Zeros(1)
	bma.Sub(b, a)
	cmb.Sub(c, b)
	dmc.Sub(d, c)
	bmascaled.Scale(cmb.Norm(), bma)
	first := bmascaled.Dot(cross(cmb, dmc))
	v1 := cross(bma, cmb)
	v2 := cross(cmb, dmc)
	second := v1.Dot(v2)
	dihedral := math.Atan2(first, second)
	return dihedral
}

func cross(a, b *v3.Matrix) *v3.Matrix {
	c := v3.Zeros(1)
	c.Cross(a, b)
	return c
}

const appzero float64 = 0.000000000001 //used to correct floating point
//errors. Everything equal or less than this is considered zero.
