/*
 * geometry_test.go, part of gorjmc.
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
	"math/rand"
	"strings"
	"testing"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/ff"
	"github.com/rmera/gorjmc/proposal"
	"github.com/rmera/gorjmc/smiles"
	v3 "github.com/rmera/gorjmc/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

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

// regrow returns a proposal from ethane to ethane where the hydrogens of the
// second carbon are unmapped.
func regrow(Te *testing.T) (*proposal.TopologyProposal, *v3.Matrix) {
	top, S, x := ethane(Te)
	tp, err := proposal.NewTopologyProposal(proposal.TopologyProposalArgs{
		OldTopology:         top,
		NewTopology:         top,
		OldSystem:           S,
		NewSystem:           S,
		NewToOld:            map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 4: 4},
		OldChemicalStateKey: "CC",
		NewChemicalStateKey: "CC",
	})
	if err != nil {
		Te.Fatal(err)
	}
	return tp, x
}

func TestInternalCoordinates(Te *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 20; i++ {
		b := r3.Vec{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
		a := r3.Vec{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
		t := r3.Vec{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
		r := 0.1 + rng.Float64()*0.1
		theta := 0.2 + rng.Float64()*2.5
		phi := -math.Pi + rng.Float64()*2*math.Pi
		xyz, detJ := InternalToCartesian(b, a, t, r, theta, phi)
		r2, theta2, phi2, detJ2 := CartesianToInternal(xyz, b, a, t)
		if math.Abs(r-r2) > 1e-9 || math.Abs(theta-theta2) > 1e-9 || math.Abs(phi-phi2) > 1e-9 {
			Te.Errorf("round trip failed: %f %f %f vs %f %f %f", r, theta, phi, r2, theta2, phi2)
		}
		if math.Abs(detJ-r*r*math.Sin(theta)) > 1e-12 || math.Abs(detJ-detJ2) > 1e-9 {
			Te.Errorf("wrong Jacobian %f %f", detJ, detJ2)
		}
	}
}

func TestPMF(Te *testing.T) {
	beta := chem.Beta(300)
	rng := rand.New(rand.NewSource(1))
	bond := BondPMF(0.109, 2.5e5, beta, 1000)
	angle := AnglePMF(1.91, 400, beta, 180)
	for _, p := range []*PMF{bond, angle} {
		if p == nil {
			Te.Fatal("nil distribution")
		}
		var total float64
		for _, v := range p.LogP {
			total += math.Exp(v)
		}
		if math.Abs(total-1) > 1e-9 {
			Te.Errorf("distribution not normalized: %f", total)
		}
		for i := 0; i < 100; i++ {
			x, logp := p.Sample(rng)
			if x < p.Lo || x >= p.Hi {
				Te.Errorf("sample %f out of range [%f,%f)", x, p.Lo, p.Hi)
			}
			if math.Abs(logp-p.LogDensity(x)) > 1e-9 {
				Te.Errorf("sampled log-density %f differs from LogDensity %f", logp, p.LogDensity(x))
			}
		}
		if p.LogDensity(p.Hi+1) != LogZero || p.LogDensity(p.Lo-1) != LogZero {
			Te.Error("values out of range should have LogZero density")
		}
	}
	var mean float64
	for i := 0; i < 2000; i++ {
		r, _ := bond.Sample(rng)
		mean += r / 2000
	}
	if math.Abs(mean-0.109) > 0.001 {
		Te.Errorf("bond lengths should be centered at 0.109, mean %f", mean)
	}
	if p := newPMF(0, 1, []float64{math.Inf(-1), math.Inf(-1)}); p != nil {
		Te.Error("a distribution with no mass should be nil")
	}
}

func TestProposalOrder(Te *testing.T) {
	tp, _ := regrow(Te)
	P, err := NewProposalOrder(tp, Forward, rand.New(rand.NewSource(7)))
	if err != nil {
		Te.Fatal(err)
	}
	records, logp, err := P.Determine()
	if err != nil {
		Te.Fatal(err)
	}
	if len(records) != 3 {
		Te.Fatalf("expected 3 records, got %d", len(records))
	}
	placed := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}
	for _, r := range records {
		if !placed[r.Bond] || !placed[r.Angle] || !placed[r.Torsion] {
			Te.Errorf("record %v uses atoms not yet placed", r)
		}
		if r.Bond != 4 || r.Angle != 0 {
			Te.Errorf("unexpected torsion %v", r)
		}
		placed[r.Atom] = true
	}
	//3 torsion choices per atom, and the 3! orders of a single pass.
	expected := -3*math.Log(3) - math.Log(6)
	if math.Abs(logp-expected) > 1e-9 {
		Te.Errorf("logp %f, expected %f", logp, expected)
	}
	same, _ := proposal.NewTopologyProposal(proposal.TopologyProposalArgs{
		OldTopology: tp.OldTopology(), NewTopology: tp.NewTopology(),
		OldSystem: tp.OldSystem(), NewSystem: tp.NewSystem(),
		NewToOld:            map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 4: 4, 5: 5, 6: 6, 7: 7},
		OldChemicalStateKey: "CC", NewChemicalStateKey: "CC",
	})
	if _, err := NewProposalOrder(same, Reverse, rand.New(rand.NewSource(7))); err == nil {
		Te.Error("a proposal with no unique atoms should fail")
	}
}

type recorder map[string]int

func (R recorder) WriteRecords(name string, iteration int, records [][]float64) error {
	R[name] += len(records)
	return nil
}

func TestProposeReverse(Te *testing.T) {
	tp, x := regrow(Te)
	beta := chem.Beta(300)
	rec := recorder{}
	E := NewEngine(nil, rand.New(rand.NewSource(42)), rec)
	newpos, logp, err := E.Propose(tp, x, beta)
	if err != nil {
		Te.Fatal(err)
	}
	if math.IsNaN(logp) || math.IsInf(logp, 0) {
		Te.Fatalf("invalid logp %f", logp)
	}
	if E.NProposed() != 1 || rec["forward_placements"] != 3 || rec["forward_order"] != 3 || rec["forward_torsions"] != 3 {
		Te.Errorf("wrong bookkeeping: %d %v", E.NProposed(), rec)
	}
	for i := 0; i < 5; i++ {
		if newpos.Vec(i) != x.Vec(i) {
			Te.Errorf("mapped atom %d moved", i)
		}
	}
	for i := 5; i < 8; i++ {
		r := v3.VDist(newpos.Vec(i), newpos.Vec(4))
		if r < 0.09 || r > 0.13 {
			Te.Errorf("C-H distance for atom %d is %f", i, r)
		}
		theta := v3.VAngle(newpos.Vec(0), newpos.Vec(4), newpos.Vec(i))
		if math.Abs(theta*chem.Rad2Deg-109.5) > 25 {
			Te.Errorf("C-C-H angle for atom %d is %f", i, theta*chem.Rad2Deg)
		}
	}
	//Evaluating the same placements with the same random choices of order gives the same probability.
	back, err := tp.Reverse(0)
	if err != nil {
		Te.Fatal(err)
	}
	R := NewEngine(nil, rand.New(rand.NewSource(42)), rec)
	logpr, err := R.LogPReverse(back, x, newpos, beta)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(logp-logpr) > 1e-6 {
		Te.Errorf("forward logp %f and reverse logp %f differ", logp, logpr)
	}
	if rec["reverse_placements"] != 3 {
		Te.Errorf("reverse placements not stored: %v", rec)
	}
	if _, _, err := E.Propose(tp, v3.Zeros(3), beta); err == nil {
		Te.Error("wrong number of positions should fail")
	}
}

// Growing the second ring of naphthalene from benzene, with ring restraints, and evaluating
// the same placements in the reverse proposal must give the same probability.
func TestRingRestraintsReversible(Te *testing.T) {
	rng := rand.New(rand.NewSource(5))
	top, x, err := smiles.Build("c1ccccc1", "MOL", rng)
	if err != nil {
		Te.Fatal(err)
	}
	gen := proposal.NewSystemGenerator(nil)
	sys, err := gen.BuildSystem(top)
	if err != nil {
		Te.Fatal(err)
	}
	eng, err := proposal.NewTwoMoleculeSetProposalEngine(proposal.SmallMoleculeConfig{Smiles: []string{"c1ccccc1", "c1ccc2ccccc2c1"}, AllowRingBreaking: true}, gen, rng)
	if err != nil {
		Te.Fatal(err)
	}
	tp, err := eng.Propose(sys, top, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if len(tp.UniqueNewAtoms()) == 0 || len(tp.NewReferencePositions()) != tp.NAtomsNew() || len(tp.OldReferencePositions()) != tp.NAtomsOld() {
		Te.Fatalf("expected new atoms and reference positions for both molecules: %v %d %d", tp.UniqueNewAtoms(), len(tp.NewReferencePositions()), len(tp.OldReferencePositions()))
	}
	opts := DefaultOptions()
	opts.ExtraTorsions(true)
	opts.ExtraAngles(true)
	opts.TorsionDivisions(120)
	beta := chem.Beta(300)
	F := NewEngine(opts, rand.New(rand.NewSource(11)), nil)
	newpos, logp, err := F.Propose(tp, x, beta)
	if err != nil {
		Te.Fatal(err)
	}
	back, err := tp.Reverse(0)
	if err != nil {
		Te.Fatal(err)
	}
	R := NewEngine(opts, rand.New(rand.NewSource(11)), nil)
	logpr, err := R.LogPReverse(back, x, newpos, beta)
	if err != nil {
		Te.Fatal(err)
	}
	if math.IsInf(logp, 0) || math.Abs(logp-logpr) > 1e-6 {
		Te.Errorf("forward logp %f and reverse logp %f differ", logp, logpr)
	}
}

func TestProposeNoNewAtoms(Te *testing.T) {
	top, S, x := ethane(Te)
	m := map[int]int{}
	for i := 0; i < 8; i++ {
		m[i] = 7 - i
	}
	tp, err := proposal.NewTopologyProposal(proposal.TopologyProposalArgs{
		OldTopology: top, NewTopology: top, OldSystem: S, NewSystem: S, NewToOld: m,
		OldChemicalStateKey: "CC", NewChemicalStateKey: "CC",
	})
	if err != nil {
		Te.Fatal(err)
	}
	E := NewEngine(nil, rand.New(rand.NewSource(1)), nil)
	newpos, logp, err := E.Propose(tp, x, chem.Beta(300))
	if err != nil || logp != 0 {
		Te.Fatalf("expected logp 0 and no error: %f %v", logp, err)
	}
	if newpos.Vec(0) != x.Vec(7) {
		Te.Error("positions not copied through the atom map")
	}
	if lr, err := E.LogPReverse(tp, newpos, x, chem.Beta(300)); err != nil || lr != 0 {
		Te.Errorf("expected reverse logp 0 and no error: %f %v", lr, err)
	}
}

func TestOptionsFromYAML(Te *testing.T) {
	doc := `
use_sterics: true
n_torsion_divisions: 72
bond_softening_constant: 0.5
pdb_filename_prefix: test
`
	O, err := OptionsFromYAML(strings.NewReader(doc))
	if err != nil {
		Te.Fatal(err)
	}
	if !O.UseSterics() || O.TorsionDivisions() != 72 || O.BondSoftening() != 0.5 || O.PDBPrefix() != "test" {
		Te.Errorf("options not read: %+v", O)
	}
	if O.BondDivisions() != 1000 || O.AngleDivisions() != 180 || O.AngleSoftening() != 1 {
		Te.Error("missing options should keep their defaults")
	}
	if O, err = OptionsFromYAML(strings.NewReader("")); err != nil || O.TorsionDivisions() != 360 {
		Te.Errorf("an empty document should give the defaults: %v", err)
	}
	if _, err = OptionsFromYAML(strings.NewReader("n_bond_divisions: [")); err == nil {
		Te.Error("malformed YAML should fail")
	}
	for _, bad := range []string{"n_bond_divisions: 0", "n_angle_divisions: -3", "n_torsion_divisions: 0", "bond_softening_constant: 0", "angle_softening_constant: -1.5"} {
		if _, err = OptionsFromYAML(strings.NewReader(bad)); err == nil || !strings.Contains(err.Error(), "must be positive") {
			Te.Errorf("%q should fail, got %v", bad, err)
		}
	}
}

func TestPMFEmptyBins(Te *testing.T) {
	inf := math.Inf(-1)
	p := newPMF(0, 1, []float64{inf, 0, inf, inf, 1, inf})
	if p == nil {
		Te.Fatal("nil distribution")
	}
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		x, logp := p.Sample(rng)
		if b := p.Bin(x); b != 1 && b != 4 {
			Te.Fatalf("sampled %f from bin %d, which has no mass", x, b)
		}
		if math.IsInf(logp, 0) || math.IsNaN(logp) {
			Te.Fatalf("sampled a value with log-density %f", logp)
		}
	}
	if p.LogDensity(0.5) != LogZero || p.LogDensity(5.5) != LogZero {
		Te.Error("bins with no mass should have LogZero density")
	}
}

func TestTorsionsAllNaN(Te *testing.T) {
	tp, x := regrow(Te)
	S := tp.NewSystem()
	for i := range S.Torsions {
		S.Torsions[i].K = math.NaN()
	}
	E := NewEngine(nil, rand.New(rand.NewSource(2)), nil)
	_, _, err := E.Propose(tp, x, chem.Beta(300))
	if err == nil || !strings.Contains(err.Error(), "are NaN") {
		Te.Errorf("a torsion scan with only NaN energies should fail, got %v", err)
	}
}

func TestConstrainedBond(Te *testing.T) {
	top := chem.NewTopology(0, 0)
	top.AddAtom(&chem.Atom{Name: "C1", Symbol: "C"})
	top.AddAtom(&chem.Atom{Name: "H1", Symbol: "H"})
	top.AddBond(0, 1, 1)
	S := &ff.System{Particles: make([]ff.Particle, 2), Constraints: []ff.Constraint{{Atoms: [2]int{0, 1}, Distance: 0.109}}}
	E := NewEngine(nil, rand.New(rand.NewSource(2)), nil)
	rec := TorsionRecord{Atom: 1, Bond: 0, Angle: -1, Torsion: -1}
	beta := chem.Beta(300)
	r, logp, err := E.bond(S, top, rec, beta, 0, Forward)
	if err != nil || r != 0.109 || logp != 0 {
		Te.Errorf("a constrained bond should have its constraint length and logp 0: %f %f %v", r, logp, err)
	}
	r, logp, err = E.bond(S, top, rec, beta, 0.11, Reverse)
	if err != nil || r != 0.11 || logp != 0 {
		Te.Errorf("a constrained bond in reverse should keep its length and logp 0: %f %f %v", r, logp, err)
	}
	if _, _, err := E.bond(&ff.System{Particles: make([]ff.Particle, 2)}, top, rec, beta, 0, Forward); err == nil ||
		!strings.Contains(err.Error(), "neither a bond term nor a constraint") {
		Te.Errorf("a bond with no term and no constraint should fail, got %v", err)
	}
}
