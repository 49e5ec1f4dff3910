package smiles

import (
	"fmt"

	chem "github.com/rmera/gorjmc"
)

// Topology returns a topology for the molecule, with explicit hydrogens, as a single
// residue. Heavy atoms come first, in the order of the molecule, followed by the
// hydrogens in the order of the atoms they are bonded to. Atoms are named by element
// and a running number (C1, C2, O1, H1...).
func (M *Molecule) Topology(resname string, resid int, chain string) (*chem.Topology, error) {
	top := chem.NewTopology(0, 0)
	count := make(map[string]int)
	add := func(symbol string, formal int, aromatic bool) (int, error) {
		m, ok := chem.Mass(symbol)
		if !ok {
			return -1, chem.NewError(fmt.Sprintf("Unknown element %s", symbol), "Molecule.Topology")
		}
		count[symbol]++
		at := &chem.Atom{
			Name:     fmt.Sprintf("%s%d", symbol, count[symbol]),
			Symbol:   symbol,
			MolName:  resname,
			MolID:    resid,
			Chain:    chain,
			Mass:     m,
			Formal:   formal,
			Charge:   float64(formal),
			Aromatic: aromatic,
			OldIndex: -1,
		}
		return top.AddAtom(at), nil
	}
	charge := 0
	for _, a := range M.Atoms {
		if _, err := add(a.Symbol, a.Formal, a.Aromatic); err != nil {
			return nil, err
		}
		charge += a.Formal
	}
	for _, b := range M.Bonds {
		top.AddBond(b.A, b.B, b.Order)
	}
	for i, a := range M.Atoms {
		for k := 0; k < a.Hs; k++ {
			h, _ := add("H", 0, false)
			top.AddBond(i, h, 1)
		}
	}
	top.SetCharge(charge)
	return top, nil
}

// FromTopology returns the molecular graph of the given atoms of top (all of them if atoms
// is empty). Hydrogens bonded to heavy atoms become hydrogen counts, and the bonds to atoms
// not in the list are ignored. It also returns the topology index of each atom of the molecule.
func FromTopology(top *chem.Topology, atoms []int) (*Molecule, []int, error) {
	if len(atoms) == 0 {
		atoms = seq(top.Len())
	}
	in := make(map[int]bool, len(atoms))
	for _, v := range atoms {
		if v < 0 || v >= top.Len() {
			return nil, nil, chem.NewError(fmt.Sprintf("Atom %d out of range", v), "FromTopology")
		}
		in[v] = true
	}
	M := new(Molecule)
	index := make(map[int]int)
	orig := make([]int, 0, len(atoms))
	isH := func(i int) bool { return top.Atom(i).Symbol == "H" }
	folded := func(i int) bool {
		if !isH(i) || top.Atom(i).Formal != 0 {
			return false
		}
		heavy := 0
		for _, j := range top.BondedTo(i) {
			if in[j] {
				if isH(j) {
					return false
				}
				heavy++
			}
		}
		return heavy == 1
	}
	for _, i := range atoms {
		if folded(i) {
			continue
		}
		at := top.Atom(i)
		a := &Atom{Symbol: at.Symbol, Aromatic: at.Aromatic, Formal: at.Formal, bracket: true}
		for _, b := range at.Bonds {
			if b.Aromatic() {
				a.Aromatic = true
			}
		}
		index[i] = M.addAtom(a)
		orig = append(orig, i)
	}
	for _, i := range atoms {
		if folded(i) {
			for _, j := range top.BondedTo(i) {
				if in[j] {
					M.Atoms[index[j]].Hs++
				}
			}
		}
	}
	for _, b := range top.Bonds {
		i, j := b.At1.Index(), b.At2.Index()
		ni, ok1 := index[i]
		nj, ok2 := index[j]
		if !ok1 || !ok2 {
			continue
		}
		o := b.Order
		if o == 0 {
			o = 1
		}
		M.addBond(ni, nj, o)
	}
	return M, orig, nil
}
