/*
 * templates_test.go, part of gorjmc.
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

package templates

import (
	"strings"
	"testing"

	"github.com/rmera/gorjmc/ff"
)

func TestAminoAcids(Te *testing.T) {
	L := AminoAcids()
	for _, name := range AminoAcidNames {
		if name == "HIS" {
			name = "HIE"
		}
		for _, v := range []string{name, "N" + name, "C" + name} {
			t, ok := L.Template(v)
			if !ok {
				Te.Errorf("template %s missing", v)
				continue
			}
			for _, b := range t.Bonds {
				if !t.Has(b.A) || !t.Has(b.B) {
					Te.Errorf("template %s has a bond with unknown atoms %v", v, b)
				}
			}
		}
	}
	gly, _ := L.Template("GLY")
	if len(gly.Atoms) != 7 || len(gly.Bonds) != 6 {
		Te.Errorf("GLY should have 7 atoms and 6 bonds, got %d %d", len(gly.Atoms), len(gly.Bonds))
	}
	ngly, _ := L.Template("NGLY")
	if ngly.Has("H") || !ngly.Has("H1") || !ngly.Has("H3") || ngly.Atoms[ngly.Index("N")].Formal != 1 {
		Te.Error("wrong N-terminal variant of GLY")
	}
	npro, _ := L.Template("NPRO")
	if npro.Has("H1") || !npro.Has("H2") || !npro.Has("H3") {
		Te.Error("wrong N-terminal variant of PRO")
	}
	cala, _ := L.Template("CALA")
	if !cala.Has("OXT") || len(cala.Atoms) != 11 {
		Te.Error("wrong C-terminal variant of ALA")
	}
	if _, ok := L.Template("NACE"); ok {
		Te.Error("caps should have no terminal variants")
	}
	if _, err := L.Lookup("XYZ", false, false); err == nil {
		Te.Error("unknown residues should fail")
	}
	if t, _ := L.Lookup("ALA", true, true); t.Name != "NALA" {
		Te.Errorf("a single residue should use the N-terminal variant, got %s", t.Name)
	}
}

func TestLoadErrors(Te *testing.T) {
	bad := `
XXX:
  atoms: [C1, C2]
  bonds: [[C1, C3]]
`
	if _, err := Load(strings.NewReader(bad)); err == nil {
		Te.Error("bonds to unknown atoms should fail")
	}
	bad = `
XXX:
  atoms: [C1, C2]
  bonds: [[C1, C2, double]]
`
	if _, err := Load(strings.NewReader(bad)); err == nil {
		Te.Error("malformed bond orders should fail")
	}
}

func TestBuildPeptide(Te *testing.T) {
	top, err := BuildPeptide(AminoAcids(), []string{"ACE", "ALA", "GLY", "NME"}, "A")
	if err != nil {
		Te.Fatal(err)
	}
	//ACE 6, ALA 10, GLY 7, NME 6
	if top.Len() != 29 {
		Te.Errorf("expected 29 atoms, got %d", top.Len())
	}
	res := top.Residues()
	if len(res) != 4 || res[1].Name != "ALA" || res[1].ID != 2 {
		Te.Errorf("wrong residues %v", res)
	}
	c := res[1].AtomByName(top, "C")
	n := res[2].AtomByName(top, "N")
	if !top.Bonded(c, n) {
		Te.Error("missing peptide bond")
	}
	if top.Charge() != 0 {
		Te.Errorf("capped peptide should be neutral, got %d", top.Charge())
	}
	S, err := ff.NewGenerator().Parameterize(top)
	if err != nil {
		Te.Fatal(err)
	}
	if S.NParticles() != 29 {
		Te.Errorf("wrong number of particles %d", S.NParticles())
	}
	zwit, err := BuildPeptide(AminoAcids(), []string{"LYS", "HIS", "ASP"}, "A")
	if err != nil {
		Te.Fatal(err)
	}
	if zwit.Charge() != 0 {
		Te.Errorf("KHD zwitterion should be neutral, got %d", zwit.Charge())
	}
	if zwit.Residues()[0].Name != "LYS" {
		Te.Errorf("terminal residues should keep the bare name, got %s", zwit.Residues()[0].Name)
	}
	if zwit.Residues()[1].Name != "HIE" {
		Te.Error("HIS should be built as HIE")
	}
	if _, err := BuildPeptide(AminoAcids(), []string{"ALA", "FOO"}, "A"); err == nil {
		Te.Error("unknown residues should fail")
	}
}

func TestCodes(Te *testing.T) {
	if r, _ := ThreeLetter('W'); r != "TRP" {
		Te.Error("wrong code for W")
	}
	if _, err := ThreeLetter('Z'); err == nil {
		Te.Error("Z is not an amino acid")
	}
	if OneLetter("HID") != 'H' || OneLetter("FOO") != 'X' {
		Te.Error("wrong one-letter codes")
	}
}
