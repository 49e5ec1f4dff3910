package templates

import (
	"fmt"
	"math/rand"
	"strings"

	chem "github.com/rmera/gorjmc"
)

// AminoAcidNames are the residue names of the 20 standard amino acids. Histidine
// is HIS, which is built as HIE or HID.
var AminoAcidNames = []string{"ALA", "ARG", "ASN", "ASP", "CYS", "GLN", "GLU", "GLY", "HIS", "ILE",
	"LEU", "LYS", "MET", "PHE", "PRO", "SER", "THR", "TRP", "TYR", "VAL"}

var oneToThree = map[byte]string{
	'A': "ALA", 'R': "ARG", 'N': "ASN", 'D': "ASP", 'C': "CYS", 'Q': "GLN", 'E': "GLU", 'G': "GLY",
	'H': "HIS", 'I': "ILE", 'L': "LEU", 'K': "LYS", 'M': "MET", 'F': "PHE", 'P': "PRO", 'S': "SER",
	'T': "THR", 'W': "TRP", 'Y': "TYR", 'V': "VAL",
}

// Generic returns the standard name for a residue name: the protonation
// variants of histidine become HIS. Other names are returned unchanged.
func Generic(name string) string {
	switch name {
	case "HIE", "HID", "HIP":
		return "HIS"
	}
	return name
}

// Histidine returns HIE or HID with probability 1/2 each.
func Histidine(rng *rand.Rand) string {
	if rng.Intn(2) == 0 {
		return "HIE"
	}
	return "HID"
}

// ThreeLetter translates a one-letter amino acid code. HIS is returned for H.
func ThreeLetter(code byte) (string, error) {
	r, ok := oneToThree[code]
	if !ok {
		return "", chem.NewError(fmt.Sprintf("Unknown amino acid code '%c'", code), "ThreeLetter")
	}
	return r, nil
}

// OneLetter returns the one-letter code for a residue name, or 'X'.
func OneLetter(name string) byte {
	name = Generic(name)
	for k, v := range oneToThree {
		if v == name {
			return k
		}
	}
	return 'X'
}

// AppendResidue adds the atoms and bonds of t to top, as the residue resid of the
// given chain, and returns the indexes of the new atoms, in template order. The new
// atoms have OldIndex -1 and element masses. The residue is named after the template,
// without terminal prefixes.
func AppendResidue(top *chem.Topology, t *Template, chain string, resid int) ([]int, error) {
	ret := make([]int, len(t.Atoms))
	for i, a := range t.Atoms {
		at := &chem.Atom{Name: a.Name, Symbol: a.Symbol, MolName: t.ResidueName(), MolID: resid, Chain: chain,
			Formal: a.Formal, Charge: float64(a.Formal), OldIndex: -1}
		m, ok := chem.Mass(a.Symbol)
		if !ok {
			return nil, chem.NewError(fmt.Sprintf("Unknown element %s for atom %s of %s", a.Symbol, a.Name, t.Name), "AppendResidue")
		}
		at.Mass = m
		ret[i] = top.AddAtom(at)
	}
	for _, b := range t.Bonds {
		top.AddBond(ret[t.Index(b.A)], ret[t.Index(b.B)], b.Order)
	}
	return ret, nil
}

// BuildPeptide returns the topology of a linear peptide with the residue names in seq,
// numbered from 1, in the given chain. The first and last residues use the terminal
// variants of their templates unless they are caps (or next to a cap). HIS is built as HIE.
func BuildPeptide(L *Library, seq []string, chain string) (*chem.Topology, error) {
	if len(seq) == 0 {
		return nil, chem.NewError("Empty sequence", "BuildPeptide")
	}
	top := chem.NewTopology(0, 0)
	prevC := -1
	for i, name := range seq {
		name = strings.ToUpper(name)
		if name == "HIS" {
			name = "HIE"
		}
		first := i == 0
		last := i == len(seq)-1
		t, err := L.Lookup(name, first, last)
		if err != nil {
			return nil, chem.ErrDecorate(err, "BuildPeptide")
		}
		idx, err := AppendResidue(top, t, chain, i+1)
		if err != nil {
			return nil, chem.ErrDecorate(err, "BuildPeptide")
		}
		if n := t.Index("N"); prevC >= 0 && n >= 0 {
			top.AddBond(prevC, idx[n], 1)
		}
		prevC = -1
		if c := t.Index("C"); c >= 0 && t.Atoms[c].Symbol == "C" && t.Has("O") {
			prevC = idx[c]
		}
	}
	var charge int
	for _, a := range top.Atoms {
		charge += a.Formal
	}
	top.SetCharge(charge)
	return top, nil
}
