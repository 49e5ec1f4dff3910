/*
 * ff_test.go, part of gorjmc.
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
	"bufio"
	"bytes"
	"math"
	"strings"
	"testing"

	chem "github.com/rmera/gorjmc"
	v3 "github.com/rmera/gorjmc/v3"
)

func ethane() *chem.Topology {
	top := chem.NewTopology(0, 0)
	names := []string{"C1", "H11", "H12", "H13", "C2", "H21", "H22", "H23"}
	for _, n := range names {
		top.AddAtom(&chem.Atom{Name: n, Symbol: n[:1], MolName: "ETH", MolID: 1, OldIndex: -1})
	}
	for _, i := range []int{1, 2, 3} {
		top.AddBond(0, i, 1)
		top.AddBond(4, i+4, 1)
	}
	top.AddBond(0, 4, 1)
	return top
}

func TestGeneratorEthane(Te *testing.T) {
	S, err := NewGenerator().Parameterize(ethane())
	if err != nil {
		Te.Fatal(err)
	}
	if S.NParticles() != 8 || len(S.Bonds) != 7 || len(S.Angles) != 12 || len(S.Torsions) != 9 {
		Te.Errorf("wrong term counts: %d particles %d bonds %d angles %d torsions", S.NParticles(), len(S.Bonds), len(S.Angles), len(S.Torsions))
	}
	if len(S.Exceptions) != 28 {
		Te.Errorf("all 28 pairs in ethane are within 3 bonds, got %d exceptions", len(S.Exceptions))
	}
	ex := S.ExceptionMap()
	if !ex[[2]int{0, 1}].Excluded() || !ex[[2]int{1, 4}].Excluded() || ex[[2]int{1, 5}].Excluded() {
		Te.Error("1-2 and 1-3 pairs should be excluded, 1-4 pairs scaled")
	}
	if e := ex[[2]int{1, 5}]; math.Abs(e.Epsilon-0.0657/2) > 1e-9 {
		Te.Errorf("wrong 1-4 epsilon %f", e.Epsilon)
	}
	b, ok := S.FindBond(4, 0)
	if !ok || math.Abs(b.Length-0.152) > 0.002 {
		Te.Errorf("wrong C-C bond %+v", b)
	}
	a, ok := S.FindAngle(1, 0, 2)
	if !ok || math.Abs(a.Angle-tetrahedral) > 1e-9 || a.K != angleKH {
		Te.Errorf("wrong H-C-H angle %+v", a)
	}
	if S.Torsions[0].Periodicity != 3 || S.Torsions[0].Phase != 0 {
		Te.Errorf("wrong sp3-sp3 torsion %+v", S.Torsions[0])
	}
	if err := S.Check(); err != nil {
		Te.Error(err)
	}
	G := &Generator{ConstrainHydrogens: true}
	S2, err := G.Parameterize(ethane())
	if err != nil {
		Te.Fatal(err)
	}
	if len(S2.Bonds) != 1 || len(S2.Constraints) != 6 {
		Te.Errorf("expected 1 bond and 6 constraints, got %d and %d", len(S2.Bonds), len(S2.Constraints))
	}
	if _, ok := S2.FindConstraint(5, 4); !ok {
		Te.Error("missing C-H constraint")
	}
	bad := ethane()
	bad.Atom(0).Symbol = "Xx"
	if _, err := NewGenerator().Parameterize(bad); err == nil || !strings.Contains(err.Error(), "ETH") {
		Te.Errorf("expected an error naming the residue, got %v", err)
	}
}

func TestEnergyTerms(Te *testing.T) {
	S := &System{Particles: []Particle{{Mass: 12, Sigma: 0.3, Epsilon: 0.5}, {Mass: 12, Sigma: 0.3, Epsilon: 0.5}}}
	rmin := 0.3 * math.Pow(2, 1.0/6.0)
	x, _ := v3.NewMatrix([]float64{0, 0, 0, rmin, 0, 0})
	E, err := S.Energy(x)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(E+0.5) > 1e-9 {
		Te.Errorf("LJ energy at the minimum should be -epsilon, got %f", E)
	}
	S.Bonds = append(S.Bonds, HarmonicBond{Atoms: [2]int{0, 1}, Length: 0.3, K: 1000})
	S.AddException(1, 0, 0, 1, 0)
	E, _ = S.Energy(x)
	d := rmin - 0.3
	if math.Abs(E-500*d*d) > 1e-9 {
		Te.Errorf("excluded pair with a bond, got %f", E)
	}
	if _, err := S.Energy(v3.Zeros(3)); err == nil {
		Te.Error("wrong number of positions should fail")
	}
	t := PeriodicTorsion{Atoms: [4]int{0, 1, 2, 3}, Periodicity: 2, Phase: math.Pi, K: 10}
	y, _ := v3.NewMatrix([]float64{1, 1, 0, 1, 0, 0, 0, 0, 0, 0, 1, 0})
	if e := TorsionEnergy(t, y); math.Abs(e) > 1e-9 {
		Te.Errorf("planar cis torsion with phase pi should have 0 energy, got %f", e)
	}
}

const ethaneItp = `; ethane, OPLS-like
[ defaults ]
; nbfunc comb-rule gen-pairs fudgeLJ fudgeQQ
1 3 yes 0.5 0.5

[ atomtypes ]
CT 6 12.01 0.0 A 3.50000e-01 2.76144e-01
HC 1 1.008 0.0 A 2.50000e-01 1.25520e-01

[ moleculetype ]
ETH 3

[ atoms ]
1 CT 1 ETH C1 1 -0.18 12.011
#ifdef HEAVYH
2 HC 1 ETH H11 1 0.06 3.024
#else
2 HC 1 ETH H11 1 0.06 1.008
#endif
3 HC 1 ETH H12 1 0.06
4 HC 1 ETH H13 1 0.06
5 CT 1 ETH C2 2 -0.18 12.011
6 HC 1 ETH H21 2 0.06
7 HC 1 ETH H22 2 0.06
8 HC 1 ETH H23 2 0.06

[ bonds ]
1 2 1 0.109 284512.0
1 3 1 0.109 284512.0
1 4 1 0.109 284512.0
1 5 1 0.1529 224262.4
5 6 1 0.109 284512.0
5 7 1 0.109 284512.0
5 8 1 0.109 284512.0

[ angles ]
2 1 5 1 110.7 313.8

[ dihedrals ]
2 1 5 6 3 0.62760 1.88280 0.00000 -2.51040 0.00000 0.00000

[ pairs ]
2 6 1
`

func TestReadGromacs(Te *testing.T) {
	top, S, err := ReadGromacs(bufio.NewReader(strings.NewReader(ethaneItp)))
	if err != nil {
		Te.Fatal(err)
	}
	if top.Len() != 8 || len(top.Bonds) != 7 || len(S.Bonds) != 7 {
		Te.Fatalf("read %d atoms, %d topology bonds and %d bonds", top.Len(), len(top.Bonds), len(S.Bonds))
	}
	if top.Atom(1).Symbol != "H" || top.Atom(4).Symbol != "C" || S.Particles[2].Mass != 1.008 || S.Particles[1].Mass != 1.008 {
		Te.Errorf("wrong atoms %v %+v", top.Atoms, S.Particles[:3])
	}
	if math.Abs(S.Angles[0].Angle-110.7*chem.Deg2Rad) > 1e-9 {
		Te.Errorf("angle not in radians %f", S.Angles[0].Angle)
	}
	if len(S.Torsions) != 1 || S.Torsions[0].Periodicity != 3 || math.Abs(S.Torsions[0].K+0.6276) > 1e-9 || math.Abs(S.Torsions[0].Phase-math.Pi) > 1e-9 {
		Te.Errorf("wrong RB conversion %+v", S.Torsions)
	}
	if len(S.Exceptions) != 28 {
		Te.Errorf("expected 28 exceptions, got %d", len(S.Exceptions))
	}
	e := S.ExceptionMap()[[2]int{1, 5}]
	if math.Abs(e.ChargeProd-0.0036*0.5) > 1e-12 || math.Abs(e.Epsilon-0.5*0.12552) > 1e-9 {
		Te.Errorf("wrong pair %+v", e)
	}
	_, S2, err := ReadGromacs(bufio.NewReader(strings.NewReader(ethaneItp)), "HEAVYH")
	if err != nil {
		Te.Fatal(err)
	}
	if S2.Particles[1].Mass != 3.024 {
		Te.Errorf("conditional not followed, mass %f", S2.Particles[1].Mass)
	}
	if _, _, err := ReadGromacs(bufio.NewReader(strings.NewReader("[ atoms ]\n1 CT 1 ETH C1 1 notanumber\n"))); err == nil {
		Te.Error("a malformed line should give an error")
	}
}

func TestWriteGromacs(Te *testing.T) {
	top := ethane()
	top.Atom(0).Charge = -0.3
	top.Atom(1).Charge = 0.1
	S, err := NewGenerator().Parameterize(top)
	if err != nil {
		Te.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteGromacs(&buf, "ETH", top, S); err != nil {
		Te.Fatal(err)
	}
	top2, S2, err := ReadGromacs(&buf)
	if err != nil {
		Te.Fatal(err)
	}
	if top2.Len() != 8 || len(S2.Bonds) != len(S.Bonds) || len(S2.Angles) != len(S.Angles) ||
		len(S2.Torsions) != len(S.Torsions) || len(S2.Exceptions) != len(S.Exceptions) {
		Te.Fatal("the system read differs from the one written")
	}
	for i := range S.Exceptions {
		a, b := S.Exceptions[i], S2.Exceptions[i]
		if a.Atoms != b.Atoms || a.Excluded() != b.Excluded() || math.Abs(a.ChargeProd-b.ChargeProd) > 1e-8 || math.Abs(a.Epsilon-b.Epsilon) > 1e-6 {
			Te.Errorf("exception %d differs: %+v %+v", i, a, b)
		}
	}
	for i := range S.Angles {
		if math.Abs(S.Angles[i].Angle-S2.Angles[i].Angle) > 1e-5 {
			Te.Errorf("angle %d differs", i)
		}
	}
}
