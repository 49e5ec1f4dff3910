/*
 * proposal_test.go, part of gorjmc.
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

package proposal

import (
	"bufio"
	"math"
	"math/rand"
	"strings"
	"testing"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/ff"
	"github.com/rmera/gorjmc/smiles"
	"github.com/rmera/gorjmc/templates"
)

func peptide(Te *testing.T, seq ...string) (*chem.Topology, *ff.System) {
	Te.Helper()
	top, err := templates.BuildPeptide(templates.AminoAcids(), seq, "A")
	if err != nil {
		Te.Fatal(err)
	}
	sys, err := NewSystemGenerator(nil).BuildSystem(top)
	if err != nil {
		Te.Fatal(err)
	}
	return top, sys
}

func molecule(Te *testing.T, s, resname, chain string) *chem.Topology {
	Te.Helper()
	M, err := smiles.Parse(s)
	if err != nil {
		Te.Fatal(err)
	}
	top, err := M.Topology(resname, 1, chain)
	if err != nil {
		Te.Fatal(err)
	}
	return top
}

// join returns a topology with the atoms of a followed by those of b.
func join(a, b *chem.Topology) *chem.Topology {
	ret := a.Copy()
	start := ret.Len()
	for _, at := range b.Atoms {
		ret.AddAtom(at.Copy())
	}
	for _, bo := range b.Bonds {
		ret.AddBond(bo.At1.Index()+start, bo.At2.Index()+start, bo.Order)
	}
	ret.SetCharge(a.Charge() + b.Charge())
	return ret
}

func TestTopologyProposal(Te *testing.T) {
	top, sys := peptide(Te, "ALA", "GLY")
	args := TopologyProposalArgs{
		OldTopology:         top,
		NewTopology:         top,
		OldSystem:           sys,
		NewSystem:           sys,
		NewToOld:            map[int]int{0: 0, 1: 2, 2: 1},
		OldChemicalStateKey: "ALA-GLY",
		NewChemicalStateKey: "ALA-GLY",
		LogPProposal:        -1.5,
		Metadata:            map[string]any{"test": 1},
	}
	tp, err := NewTopologyProposal(args)
	if err != nil {
		Te.Fatal(err)
	}
	n := top.Len()
	if len(tp.UniqueNewAtoms()) != n-3 || len(tp.UniqueOldAtoms()) != n-3 || tp.UniqueNewAtoms()[0] != 3 {
		Te.Errorf("wrong unique atoms %v %v", tp.UniqueNewAtoms(), tp.UniqueOldAtoms())
	}
	if tp.OldToNewAtomMap()[2] != 1 {
		Te.Error("wrong inverse map")
	}
	m := tp.NewToOldAtomMap()
	m[5] = 5
	if _, ok := tp.NewToOldAtomMap()[5]; ok {
		Te.Error("the atom map of a proposal should not change")
	}
	tp.Metadata()["test"] = 2
	if tp.Metadata()["test"] != 1 {
		Te.Error("the metadata of a proposal should not change")
	}
	rev, err := tp.Reverse(-2)
	if err != nil {
		Te.Fatal(err)
	}
	if rev.NewToOldAtomMap()[1] != 2 || rev.LogPProposal() != -2 {
		Te.Error("wrong reverse proposal")
	}
	bad := []map[int]int{{0: n}, {n: 0}, {-1: 0}, {0: 1, 1: 1}}
	for _, b := range bad {
		a := args
		a.NewToOld = b
		if _, err := NewTopologyProposal(a); err == nil {
			Te.Errorf("map %v should be rejected", b)
		}
	}
	a := args
	a.NewChemicalStateKey = ""
	if _, err := NewTopologyProposal(a); err == nil {
		Te.Error("empty state keys should be rejected")
	}
}

// checkPolymerMap verifies that mapped atoms have the same name and residue, and that
// unique atoms belong to mutated residues.
func checkPolymerMap(Te *testing.T, tp *TopologyProposal, mutated map[int]bool) {
	Te.Helper()
	oldtop, newtop := tp.OldTopology(), tp.NewTopology()
	for n, o := range tp.NewToOldAtomMap() {
		na, oa := newtop.Atom(n), oldtop.Atom(o)
		if na.Name != oa.Name || na.MolID != oa.MolID {
			Te.Errorf("atom %s mapped onto %s", na, oa)
		}
	}
	for _, u := range tp.UniqueNewAtoms() {
		if !mutated[newtop.Atom(u).MolID] {
			Te.Errorf("new atom %s is not in a mutated residue", newtop.Atom(u))
		}
	}
	for _, u := range tp.UniqueOldAtoms() {
		if !mutated[oldtop.Atom(u).MolID] {
			Te.Errorf("old atom %s is not in a mutated residue", oldtop.Atom(u))
		}
	}
	if tp.NewSystem().NParticles() != newtop.Len() {
		Te.Errorf("new system has %d particles, new topology %d atoms", tp.NewSystem().NParticles(), newtop.Len())
	}
}

func TestPointMutation(Te *testing.T) {
	top, sys := peptide(Te, "ACE", "ALA", "ALA", "ALA", "NME")
	E, err := NewPointMutationEngine(PointMutationConfig{Chain: "A", MaxPointMutants: 1, AlwaysChange: true}, nil, nil, rand.New(rand.NewSource(11)))
	if err != nil {
		Te.Fatal(err)
	}
	oldkey, _ := E.ComputeStateKey(top)
	if oldkey != "ACE-ALA-ALA-ALA-NME" {
		Te.Errorf("wrong state key %s", oldkey)
	}
	for i := 0; i < 50; i++ {
		tp, err := E.Propose(sys, top, nil)
		if err != nil {
			Te.Fatal(err)
		}
		if tp.NewChemicalStateKey() == tp.OldChemicalStateKey() {
			Te.Fatalf("proposal %d did not change the sequence", i)
		}
		labels := tp.Metadata()["mutations"].([]string)
		if len(labels) != 1 || !strings.HasPrefix(labels[0], "ALA-") {
			Te.Fatalf("wrong mutation labels %v", labels)
		}
		f := strings.Split(labels[0], "-")
		if f[1] != "2" && f[1] != "3" && f[1] != "4" {
			Te.Errorf("caps should not be mutated: %v", labels)
		}
		mutated := make(map[int]bool)
		for _, r := range tp.NewTopology().Residues() {
			if r.Name != "ALA" && r.Name != "ACE" && r.Name != "NME" {
				mutated[r.ID] = true
			}
		}
		if len(mutated) != 1 {
			Te.Errorf("expected one mutated residue, got %v", tp.NewChemicalStateKey())
		}
		checkPolymerMap(Te, tp, mutated)
	}
	if _, err := NewPointMutationEngine(PointMutationConfig{Chain: "A"}, nil, nil, nil); err == nil {
		Te.Error("an engine with neither max_point_mutants nor allowed_mutations should fail")
	}
	E2, _ := NewPointMutationEngine(PointMutationConfig{Chain: "B", MaxPointMutants: 1}, nil, nil, nil)
	_, err = E2.Propose(sys, top, nil)
	if err == nil || !strings.Contains(err.Error(), "Chain 'B' not found in Topology. Chains present are: ['A']") {
		Te.Errorf("wrong error for a missing chain: %v", err)
	}
}

func TestAllowedMutations(Te *testing.T) {
	top, sys := peptide(Te, "ACE", "ALA", "LEU", "ALA", "NME")
	C := PointMutationConfig{Chain: "A", AlwaysChange: true, AllowedMutations: [][]Mutation{
		{{ResID: 3, Name: "LEU"}},
		{{ResID: 3, Name: "GLY"}},
	}}
	E, err := NewPointMutationEngine(C, nil, nil, rand.New(rand.NewSource(5)))
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		tp, err := E.Propose(sys, top, map[string]any{"step": i})
		if err != nil {
			Te.Fatal(err)
		}
		if tp.NewChemicalStateKey() != "ACE-ALA-GLY-ALA-NME" {
			Te.Fatalf("the only change allowed is L3G, got %s", tp.NewChemicalStateKey())
		}
		md := tp.Metadata()
		if md["step"] != i || md["mutations"].([]string)[0] != "LEU-3-GLY" {
			Te.Errorf("wrong metadata %v", md)
		}
		checkPolymerMap(Te, tp, map[int]bool{3: true})
	}
	tp, _ := E.Propose(sys, top, nil)
	//and back
	back, err := NewPointMutationEngine(PointMutationConfig{Chain: "A", AllowedMutations: [][]Mutation{{{ResID: 3, Name: "LEU"}}}}, nil, nil, nil)
	if err != nil {
		Te.Fatal(err)
	}
	rev, err := back.Propose(tp.NewSystem(), tp.NewTopology(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	if rev.NewChemicalStateKey() != tp.OldChemicalStateKey() {
		Te.Errorf("reverse mutation gives %s, expected %s", rev.NewChemicalStateKey(), tp.OldChemicalStateKey())
	}
	if rev.NAtomsNew() != top.Len() {
		Te.Errorf("reverse mutation has %d atoms, expected %d", rev.NAtomsNew(), top.Len())
	}
	//the reverse map sends every common atom back where it came from
	fwd, bwd := tp.NewToOldAtomMap(), rev.NewToOldAtomMap()
	if len(fwd) != len(bwd) {
		Te.Errorf("forward and reverse maps have %d and %d atoms", len(fwd), len(bwd))
	}
	for n, o := range fwd {
		if m, ok := bwd[o]; !ok || m != n {
			Te.Errorf("atom %d maps to %d, but back to %d", n, o, m)
		}
	}
	//a mutation with no effect, with the engine forced to change, is an error
	C.AllowedMutations = C.AllowedMutations[:1]
	E, _ = NewPointMutationEngine(C, nil, nil, nil)
	if _, err := E.Propose(sys, top, nil); err == nil {
		Te.Error("no allowed mutation changes the sequence, the proposal should fail")
	}
}

func TestPeptideLibrary(Te *testing.T) {
	top, sys := peptide(Te, "ALA", "ALA", "ALA")
	E, err := NewPeptideLibraryEngine("A", []string{"aaa"}, nil, nil, rand.New(rand.NewSource(3)), false)
	if err != nil {
		Te.Fatal(err)
	}
	tp, err := E.Propose(sys, top, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if tp.NewChemicalStateKey() != tp.OldChemicalStateKey() || len(tp.UniqueNewAtoms()) != 0 || len(tp.UniqueOldAtoms()) != 0 {
		Te.Error("proposing the current sequence should change nothing")
	}
	E, _ = NewPeptideLibraryEngine("A", []string{"AHA"}, nil, nil, rand.New(rand.NewSource(3)), false)
	tp, err = E.Propose(sys, top, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if k := tp.NewChemicalStateKey(); k != "ALA-HIE-ALA" && k != "ALA-HID-ALA" {
		Te.Errorf("wrong sequence %s", k)
	}
	checkPolymerMap(Te, tp, map[int]bool{2: true})
	//terminal residues use the terminal templates
	E, _ = NewPeptideLibraryEngine("A", []string{"GAA"}, nil, nil, nil, false)
	tp, err = E.Propose(sys, top, nil)
	if err != nil {
		Te.Fatal(err)
	}
	nt := tp.NewTopology()
	first := nt.Residues()[0]
	if first.Name != "GLY" || first.AtomByName(nt, "H3") < 0 || first.AtomByName(nt, "HA2") < 0 {
		Te.Error("the N-terminal GLY was not built from the N-terminal template")
	}
	if nt.Charge() != 0 {
		Te.Errorf("zwitterion should be neutral, got %d", nt.Charge())
	}
	E, _ = NewPeptideLibraryEngine("A", []string{"AA"}, nil, nil, nil, false)
	if _, err := E.Propose(sys, top, nil); err == nil {
		Te.Error("sequences of the wrong length should fail")
	}
	if _, err := NewPeptideLibraryEngine("A", []string{"AZA"}, nil, nil, nil, false); err == nil {
		Te.Error("invalid sequences should fail")
	}
}

func TestSmallMolecules(Te *testing.T) {
	gen := NewSystemGenerator(nil)
	butane := molecule(Te, "CCCC", "MOL", "L")
	water := molecule(Te, "O", "HOH", "W")
	old := join(butane, water)
	sys, err := gen.BuildSystem(old)
	if err != nil {
		Te.Fatal(err)
	}
	E, err := NewTwoMoleculeSetProposalEngine(SmallMoleculeConfig{Smiles: []string{"CCCC", "CCCCC", "C(C)CC"}}, gen, rand.New(rand.NewSource(9)))
	if err != nil {
		Te.Fatal(err)
	}
	tp, err := E.Propose(sys, old, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if tp.NAtomsOld() != 17 || tp.NAtomsNew() != 20 {
		Te.Errorf("butane+water to pentane+water should go from 17 to 20 atoms, got %d %d", tp.NAtomsOld(), tp.NAtomsNew())
	}
	pentane, _ := smiles.Canonical("CCCCC")
	if tp.NewChemicalStateKey() != pentane {
		Te.Errorf("expected %s, got %s", pentane, tp.NewChemicalStateKey())
	}
	nt := tp.NewTopology()
	if nt.Residues()[0].Name != "HOH" || nt.Residues()[1].Name != "MOL" {
		Te.Error("the receptor should come before the molecule")
	}
	m := tp.NewToOldAtomMap()
	for k := 0; k < 3; k++ {
		if m[k] != k+14 {
			Te.Errorf("water atom %d should map to %d, got %d", k, k+14, m[k])
		}
	}
	//butane maps onto either end of pentane
	if math.Abs(tp.LogPProposal()+math.Log(2)) > 1e-9 {
		Te.Errorf("expected logp %.4f, got %.4f", -math.Log(2), tp.LogPProposal())
	}
	//a terminal CH3 of pentane is new, and one H of the butane CH3 that maps onto a CH2 has no partner
	if len(tp.UniqueNewAtoms()) != 4 || len(tp.UniqueOldAtoms()) != 1 {
		Te.Errorf("expected 4 new atoms and 1 old one, got %v %v", tp.UniqueNewAtoms(), tp.UniqueOldAtoms())
	}
	if len(tp.NewReferencePositions()) != 17 {
		Te.Errorf("expected reference positions for the 17 atoms of pentane, got %d", len(tp.NewReferencePositions()))
	}
	//and back
	rev, err := E.Propose(tp.NewSystem(), tp.NewTopology(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	if rev.NewChemicalStateKey() != tp.OldChemicalStateKey() || rev.NAtomsNew() != 17 {
		Te.Errorf("the reverse proposal should give butane back, got %s", rev.NewChemicalStateKey())
	}
	//the pentane gets the same reference geometry whether it is proposed or left behind
	if len(tp.OldReferencePositions()) != 14 {
		Te.Errorf("expected reference positions for the 14 atoms of butane, got %d", len(tp.OldReferencePositions()))
	}
	newrefs, oldrefs := tp.NewReferencePositions(), rev.OldReferencePositions()
	if len(oldrefs) != len(newrefs) {
		Te.Fatalf("reference positions of pentane differ in size: %d %d", len(newrefs), len(oldrefs))
	}
	for k, v := range newrefs {
		if oldrefs[k] != v {
			Te.Errorf("reference position of atom %d differs: %v %v", k, v, oldrefs[k])
		}
	}
	back, _ := tp.Reverse(0)
	if len(back.NewReferencePositions()) != 14 || len(back.OldReferencePositions()) != 17 {
		Te.Error("Reverse should swap the reference positions")
	}
	//no receptor
	sys, err = gen.BuildSystem(butane)
	if err != nil {
		Te.Fatal(err)
	}
	E, _ = NewTwoMoleculeSetProposalEngine(SmallMoleculeConfig{Smiles: []string{"CCCC", "CCCCC"}}, gen, rand.New(rand.NewSource(9)))
	tp, err = E.Propose(sys, butane, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if tp.NAtomsOld() != 14 || tp.NAtomsNew() != 17 {
		Te.Errorf("butane to pentane should go from 14 to 17 atoms, got %d %d", tp.NAtomsOld(), tp.NAtomsNew())
	}
	if len(tp.NewTopology().Residues()) != 1 || len(tp.NewToOldAtomMap()) != 13 {
		Te.Errorf("only the molecule should be mapped: %d residues, %d mapped atoms", len(tp.NewTopology().Residues()), len(tp.NewToOldAtomMap()))
	}
	for n, o := range tp.NewToOldAtomMap() {
		if tp.NewTopology().Atom(n).MolName != "MOL" || tp.OldTopology().Atom(o).MolName != "MOL" {
			Te.Errorf("mapped atoms %d-%d are not in the molecule", n, o)
		}
	}
}

func TestSmallMoleculeSelf(Te *testing.T) {
	tol := molecule(Te, "Cc1ccccc1", "LIG", "A")
	sys, err := NewSystemGenerator(nil).BuildSystem(tol)
	if err != nil {
		Te.Fatal(err)
	}
	E, err := NewSmallMoleculeSetProposalEngine(SmallMoleculeConfig{Smiles: []string{"c1ccccc1C"}, ResidueName: "LIG", MapStrength: "strong"}, nil, rand.New(rand.NewSource(1)))
	if err != nil {
		Te.Fatal(err)
	}
	tp, err := E.Propose(sys, tol, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if tp.OldChemicalStateKey() != tp.NewChemicalStateKey() {
		Te.Errorf("keys should be equal: %s %s", tp.OldChemicalStateKey(), tp.NewChemicalStateKey())
	}
	if len(tp.UniqueNewAtoms()) != 0 || len(tp.UniqueOldAtoms()) != 0 || tp.LogPProposal() != 0 {
		Te.Errorf("proposing the same molecule should map every atom, got %d %d unique atoms, logp %.3f",
			len(tp.UniqueNewAtoms()), len(tp.UniqueOldAtoms()), tp.LogPProposal())
	}
	if _, err := E.Propose(sys, molecule(Te, "CC", "MOL", "A"), nil); err == nil {
		Te.Error("a topology without the molecule residue should fail")
	}
	if _, err := NewSmallMoleculeSetProposalEngine(SmallMoleculeConfig{Smiles: []string{"C(C"}}, nil, nil); err == nil {
		Te.Error("invalid SMILES should fail")
	}
	if _, err := NewTwoMoleculeSetProposalEngine(SmallMoleculeConfig{Smiles: []string{"CCO", "OCC"}}, nil, nil); err == nil {
		Te.Error("two SMILES of the same molecule should fail")
	}
}

func TestStereoMolecules(Te *testing.T) {
	trans, _ := smiles.Canonical("C/C=C/C")
	top := molecule(Te, trans, "MOL", "A")
	gen := NewSystemGenerator(nil)
	sys, err := gen.BuildSystem(top)
	if err != nil {
		Te.Fatal(err)
	}
	E, err := NewTwoMoleculeSetProposalEngine(SmallMoleculeConfig{Smiles: []string{"C/C=C/C", "CC=CCC"}}, gen, rand.New(rand.NewSource(4)))
	if err != nil {
		Te.Fatal(err)
	}
	if E.Smiles()[0] != trans {
		Te.Errorf("the engine should keep the stereo SMILES %s, got %v", trans, E.Smiles())
	}
	tp, err := E.Propose(sys, top, nil)
	if err != nil {
		Te.Fatal(err)
	}
	graph, _ := smiles.CanonicalGraph("C/C=C/C")
	pentene, _ := smiles.Canonical("CC=CCC")
	if tp.OldChemicalStateKey() != graph || tp.NewChemicalStateKey() != pentene {
		Te.Errorf("state keys should be graph SMILES: %s %s", tp.OldChemicalStateKey(), tp.NewChemicalStateKey())
	}
	back, err := E.Propose(tp.NewSystem(), tp.NewTopology(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	if back.NewChemicalStateKey() != graph || back.Metadata()["new_smiles"] != trans {
		Te.Errorf("the way back should build %s, got %s %v", trans, back.NewChemicalStateKey(), back.Metadata()["new_smiles"])
	}
	if _, err := NewSmallMoleculeSetProposalEngine(SmallMoleculeConfig{Smiles: []string{"C/C=C/C", "C/C=C\\C"}}, nil, nil); err == nil ||
		!strings.Contains(err.Error(), "stereoisomers") {
		Te.Errorf("stereoisomers can't be told apart by their topologies, got %v", err)
	}
}

const dimethylSelenideItp = `[ defaults ]
1 2 yes 0.5 0.5

[ atomtypes ]
CT 6 12.011 0.0 A 0.350 0.276
SE 34 78.97 0.0 A 0.400 1.200
HC 1 1.008 0.0 A 0.250 0.125

[ atoms ]
1 CT 1 SEL C1 1 -0.20 12.011
2 SE 1 SEL Se1 1 -0.10 78.97
3 CT 1 SEL C2 1 -0.20 12.011
4 HC 1 SEL H1 1 0.0833
5 HC 1 SEL H2 1 0.0833
6 HC 1 SEL H3 1 0.0834
7 HC 1 SEL H4 1 0.0833
8 HC 1 SEL H5 1 0.0833
9 HC 1 SEL H6 1 0.0834

[ bonds ]
1 2 1 0.195 200000.0
2 3 1 0.195 200000.0
1 4 1 0.109 284512.0
1 5 1 0.109 284512.0
1 6 1 0.109 284512.0
3 7 1 0.109 284512.0
3 8 1 0.109 284512.0
3 9 1 0.109 284512.0

[ angles ]
1 2 3 1 96.0 500.0
`

func TestSystemGeneratorError(Te *testing.T) {
	top := molecule(Te, "C[Se]C", "SEL", "A")
	_, err := NewSystemGenerator(nil).BuildSystem(top)
	if err == nil || !strings.Contains(err.Error(), "SEL") {
		Te.Errorf("the error should name the residue, got %v", err)
	}
	//with a Gromacs topology for the residue, the same molecule can be built next to water.
	itop, isys, err := ff.ReadGromacs(bufio.NewReader(strings.NewReader(dimethylSelenideItp)))
	if err != nil {
		Te.Fatal(err)
	}
	P, err := ff.GromacsParameterizerFrom(itop, isys, ff.NewGenerator())
	if err != nil {
		Te.Fatal(err)
	}
	gen := NewSystemGenerator(P)
	if gen.Parameterizer() != ff.Parameterizer(P) {
		Te.Error("wrong parameterizer")
	}
	S, err := gen.BuildSystem(join(top, molecule(Te, "O", "HOH", "W")))
	if err != nil {
		Te.Fatal(err)
	}
	if S.NParticles() != 12 || S.Particles[1].Mass != 78.97 || S.Particles[1].Charge != -0.10 {
		Te.Errorf("wrong system from the Gromacs topology: %d %+v", S.NParticles(), S.Particles[1])
	}
}

func TestLoadConfig(Te *testing.T) {
	conf := `
engine: point_mutation
seed: 3
point_mutation:
  chain: A
  max_point_mutants: 1
  always_change: true
`
	C, err := LoadConfig(strings.NewReader(conf))
	if err != nil {
		Te.Fatal(err)
	}
	E, err := C.NewEngine(nil)
	if err != nil {
		Te.Fatal(err)
	}
	if _, ok := E.(*PointMutationEngine); !ok {
		Te.Errorf("expected a point mutation engine, got %T", E)
	}
	conf = `
engine: two_molecule
small_molecule:
  smiles: [CCCC, CCCCC]
  map_strength: weak
`
	C, err = LoadConfig(strings.NewReader(conf))
	if err != nil {
		Te.Fatal(err)
	}
	if E, err = C.NewEngine(nil); err != nil {
		Te.Fatal(err)
	}
	if len(E.(*SmallMoleculeSetProposalEngine).Smiles()) != 2 {
		Te.Error("wrong molecules")
	}
	for _, bad := range []string{"engine: foo\n", "engine: peptide_library\n", "engine: point_mutation\ncolor: blue\n"} {
		if _, err := LoadConfig(strings.NewReader(bad)); err == nil {
			Te.Errorf("%q should fail", bad)
		}
	}
}
