/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

import (
	"fmt"

	v3 "github.com/rmera/gorjmc/v3"
)

// constants from DOI:10.1186/1758-2946-3-33, in nm.
const (
	tooclose = 0.063
	bondtol  = 0.045
)

// Bond represents a chemical bond. Order 1.5 is used for aromatic
// bonds, and 0 means undetermined.
type Bond struct {
	Index int
	At1   *Atom
	At2   *Atom
	Dist  float64
	Order float64 //Order 0 means undetermined
}

// Cross returns the atom bonded to the origin atom.
func (B *Bond) Cross(origin *Atom) *Atom {
	if origin.index == B.At1.index {
		return B.At2
	}
	if origin.index == B.At2.index {
		return B.At1
	}
	panic("Trying to cross a bond: The origin atom given is not present in the bond!") //I think this got to be a programming error, so a panic is warranted.
}

// Aromatic returns true for aromatic bonds.
func (B *Bond) Aromatic() bool {
	return B.Order == 1.5
}

// return a new *Bond slice with the bond b removed
func takefromslice(bonds []*Bond, b *Bond) []*Bond {
	newb := make([]*Bond, 0, len(bonds))
	for _, v := range bonds {
		if v != b {
			newb = append(newb, v)
		}
	}
	return newb
}

// RemoveBond removes the bond between the atoms with indexes i and j from the
// topology and from both atoms.
func (T *Topology) RemoveBond(i, j int) error {
	b := T.Bond(i, j)
	if b == nil {
		return NewError(fmt.Sprintf("Failed to remove bond: atoms %d and %d are not bonded", i, j), "RemoveBond")
	}
	b.At1.Bonds = takefromslice(b.At1.Bonds, b)
	b.At2.Bonds = takefromslice(b.At2.Bonds, b)
	T.Bonds = takefromslice(T.Bonds, b)
	T.FillIndexes()
	return nil
}

// AssignBonds assigns bonds to a topology based on a simple distance
// criterium, similar to that described in DOI:10.1186/1758-2946-3-33.
// Coordinates are expected in nm.
func AssignBonds(coord *v3.Matrix, mol *Topology) error {
	// might get slow for
	//large systems. It's really not thought
	//for proteins or macromolecules.
	if coord.NVecs() != mol.Len() {
		return NewError(fmt.Sprintf("%d coordinates for %d atoms", coord.NVecs(), mol.Len()), "AssignBonds")
	}
	for i := 0; i < mol.Len(); i++ {
		at1 := mol.Atom(i)
		cov1, ok := CovalentRadius(at1.Symbol)
		if !ok {
			return NewError(fmt.Sprintf("Covalent radius for %s not available", at1.Symbol), "AssignBonds")
		}
		for j := i + 1; j < mol.Len(); j++ {
			at2 := mol.Atom(j)
			cov2, ok := CovalentRadius(at2.Symbol)
			if !ok {
				return NewError(fmt.Sprintf("Covalent radius for %s not available", at2.Symbol), "AssignBonds")
			}
			d := v3.VDist(coord.Vec(i), coord.Vec(j))
			if d < tooclose || d > cov1+cov2+bondtol {
				continue
			}
			b := mol.AddBond(i, j, 1)
			b.Dist = d
		}
	}
	//Atoms with a maximum of bonds keep only the shortest ones.
	for _, at := range mol.Atoms {
		max := MaxBonds(at.Symbol)
		for max > 0 && len(at.Bonds) > max {
			longest := at.Bonds[0]
			for _, b := range at.Bonds {
				if b.Dist > longest.Dist {
					longest = b
				}
			}
			mol.RemoveBond(longest.At1.index, longest.At2.index)
		}
	}
	return nil
}

// Hybridization returns a guess for the hybridization of the atom with index i, from the orders
// of its bonds: 1 (sp) for atoms with a triple bond or two double bonds, 2 (sp2) for atoms with
// a double or aromatic bond, 3 (sp3) otherwise. Hydrogens and atoms without bonds give 3.
func (T *Topology) Hybridization(i int) int {
	var doubles, triples, aromatic int
	for _, b := range T.Atom(i).Bonds {
		switch {
		case b.Order == 3:
			triples++
		case b.Order == 2:
			doubles++
		case b.Aromatic():
			aromatic++
		}
	}
	if triples > 0 || doubles > 1 {
		return 1
	}
	if doubles > 0 || aromatic > 0 || T.Atom(i).Aromatic {
		return 2
	}
	return 3
}
