/*
 * growth_test.go, part of gorjmc.
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

package growth

import (
	"math"
	"testing"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/ff"
	v3 "github.com/rmera/gorjmc/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ethane returns an ethane system and rough staggered coordinates.
func ethane(Te *testing.T) (*chem.Topology, *ff.System, *v3.Matrix) {
	top := chem.NewTopology(0, 0)
	for _, n := range []string{"C1", "H11", "H12", "H13", "C2", "H21", "H22", "H23"} {
		top.AddAtom(&chem.Atom{Name: n, Symbol: n[:1], MolName: "ETH", MolID: 1})
	}
	for _, i := range []int{1, 2, 3} {
		top.AddBond(0, i, 1)
		top.AddBond(4, i+4, 1)
	}
	top.AddBond(0, 4, 1)
	top.Atom(1).Charge = 0.1
	top.Atom(5).Charge = -0.1
	S, err := ff.NewGenerator().Parameterize(top)
	if err != nil {
		Te.Fatal(err)
	}
	x, _ := v3.NewMatrix([]float64{
		0, 0, 0,
		-0.036, 0.103, 0,
		-0.036, -0.051, 0.089,
		-0.036, -0.051, -0.089,
		0.153, 0, 0,
		0.189, -0.103, 0,
		0.189, 0.051, 0.089,
		0.189, 0.051, -0.089,
	})
	return top, S, x
}

func TestGrowthStages(Te *testing.T) {
	_, ref, x := ethane(Te)
	S, err := New(ref, []int{5, 6, 7}, WithSterics(true))
	if err != nil {
		Te.Fatal(err)
	}
	if S.ParameterName() != DefaultParameterName || S.NStages() != 3 {
		Te.Error("wrong defaults")
	}
	moved := x.Copy()
	moved.SetVec(5, r3.Vec{X: 0.3, Y: -0.2, Z: 0.1})
	e0, _ := S.Energy(x)
	e1, _ := S.Energy(moved)
	if e0 != e1 {
		Te.Errorf("at stage 0 the new atoms should not contribute: %f %f", e0, e1)
	}
	S.SetGrowthIndex(1)
	e0, _ = S.Energy(x)
	e1, _ = S.Energy(moved)
	if e0 == e1 {
		Te.Error("at stage 1 the first new atom should contribute")
	}
	moved2 := x.Copy()
	moved2.SetVec(6, r3.Vec{X: 0.3, Y: 0.2, Z: 0.1})
	if e2, _ := S.Energy(moved2); e2 != e0 {
		Te.Error("at stage 1 the second new atom should not contribute")
	}
	//the energy not involving the atom does not depend on its position
	a0, _ := S.AtomEnergy(x, 5)
	a1, _ := S.AtomEnergy(moved, 5)
	if math.Abs((e0-a0)-(e1-a1)) > 1e-9 {
		Te.Errorf("Energy and AtomEnergy should differ by a constant: %f %f", e0-a0, e1-a1)
	}
	S.SetGrowthIndex(10)
	if S.GrowthStage() != 3 {
		Te.Errorf("stage should be clamped to 3, got %d", S.GrowthStage())
	}
	bonds, _, _, _, pairs := S.NTerms()
	if bonds != 7 {
		Te.Errorf("all bonds should be active at the last stage, got %d", bonds)
	}
	if pairs != 0 {
		Te.Errorf("all pairs in ethane are exceptions, got %d steric pairs", pairs)
	}
	S.SetGrowthIndex(0)
	bonds, angles, torsions, _, _ := S.NTerms()
	if bonds != 4 || angles != 6 || torsions != 0 {
		Te.Errorf("wrong terms at stage 0: %d %d %d", bonds, angles, torsions)
	}
	S.Release()
	if _, err := S.Energy(x); err == nil {
		Te.Error("Energy after Release should fail")
	}
}

func TestGrowthErrors(Te *testing.T) {
	_, ref, _ := ethane(Te)
	if _, err := New(ref, []int{5}, WithParameterName("growth_idx")); err == nil {
		Te.Error("the reserved parameter name should be rejected")
	}
	if _, err := New(ref, []int{5, 5}); err == nil {
		Te.Error("repeated atoms should be rejected")
	}
	if _, err := New(ref, []int{8}); err == nil {
		Te.Error("atoms out of range should be rejected")
	}
	S, err := New(ref, []int{7}, WithParameterName("lambda_growth"))
	if err != nil || S.ParameterName() != "lambda_growth" {
		Te.Error("custom parameter name not set")
	}
}

func TestRingRestraints(Te *testing.T) {
	top := chem.NewTopology(0, 0)
	ref := make(map[int]r3.Vec)
	data := make([]float64, 0, 18)
	for i := 0; i < 6; i++ {
		top.AddAtom(&chem.Atom{Name: "C", Symbol: "C", MolName: "BNZ", MolID: 1})
		a := float64(i) * math.Pi / 3
		p := r3.Vec{X: 0.14 * math.Cos(a), Y: 0.14 * math.Sin(a)}
		ref[i] = p
		data = append(data, p.X, p.Y, p.Z)
	}
	for i := 0; i < 6; i++ {
		top.AddBond(i, (i+1)%6, 1.5)
	}
	sys, err := ff.NewGenerator().Parameterize(top)
	if err != nil {
		Te.Fatal(err)
	}
	plain, _ := New(sys, []int{3, 4, 5})
	S, err := New(sys, []int{3, 4, 5}, WithExtraTorsions(top, ref), WithExtraAngles(top, ref))
	if err != nil {
		Te.Fatal(err)
	}
	S.SetGrowthIndex(3)
	plain.SetGrowthIndex(3)
	_, a1, t1, _, _ := S.NTerms()
	_, a0, t0, _, _ := plain.NTerms()
	if t1-t0 != 6 || a1-a0 != 5 {
		Te.Errorf("expected 6 extra torsions and 5 extra angles, got %d and %d", t1-t0, a1-a0)
	}
	x, _ := v3.NewMatrix(data)
	e1, _ := S.Energy(x)
	e0, _ := plain.Energy(x)
	if math.Abs(e1-e0) > 1e-6 {
		Te.Errorf("the restraints should vanish at the reference geometry, got %f", e1-e0)
	}
}
