/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

import (
	"fmt"
	"sort"

	v3 "github.com/rmera/gorjmc/v3"
)

/**Note: Many funcitons here panic instead of returning errors. This is because they are "fundamental"
 * functions. I considered that if something goes wrong here, the program is way-most likely wrong and should
 * crash. Most panics are related to using the funciton on a nil object or trying to access out-of bounds
 * fields**/

// Atom contains the atoms read except for the coordinates, which will be in a matrix.
type Atom struct {
	Name     string
	ID       int
	Tag      int //Just added this for something that someone might want to keep that is not a float.
	MolName  string
	MolID    int
	Chain    string
	Mass     float64
	Charge   float64
	Formal   int //formal charge, used for chemical identity.
	Symbol   string
	Het      bool // is hetatm in the pdb file?
	Aromatic bool
	OldIndex int //index of this atom in the topology it was derived from, -1 if it is new.
	Bonds    []*Bond
	index    int
}

//Atom methods

// Copy returns a copy of the Atom object. The bonds are not copied.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	Newat := new(Atom)
	*Newat = *A
	Newat.Bonds = nil
	return Newat
}

// Index returns the index of the atom in its topology.
func (A *Atom) Index() int {
	return A.index
}

// Heavy returns true if the atom is not a hydrogen.
func (A *Atom) Heavy() bool {
	return A.Symbol != "H"
}

// String returns a short description of the atom, useful for error messages.
func (A *Atom) String() string {
	return fmt.Sprintf("%s%d:%s(%d)", A.MolName, A.MolID, A.Name, A.index)
}

/*****Topology type***/

// Topology contains information about a molecule which is not expected to change in time (i.e. everything except for coordinates)
type Topology struct {
	Atoms    []*Atom
	Bonds    []*Bond
	charge   int
	unpaired int
}

// NewTopology returns a topology with the given charge, unpaired electrons
// and, optionally, atoms.
func NewTopology(charge, unpaired int, ats ...[]*Atom) *Topology {
	top := new(Topology)
	top.charge = charge
	top.unpaired = unpaired
	if len(ats) > 0 && ats[0] != nil {
		top.Atoms = ats[0]
	}
	top.FillIndexes()
	return top
}

/*Topology methods*/

// Charge gets the total charge of the topology
func (T *Topology) Charge() int {
	return T.charge
}

// Unpaired gets the number of unpaired electrons in the topology
func (T *Topology) Unpaired() int {
	return T.unpaired
}

// SetCharge sets the total charge of the topology to i
func (T *Topology) SetCharge(i int) {
	T.charge = i
}

// FillIndexes sets the index of each atom to its position in
// the topology, and the index of each bond to its position in
// the bond list.
func (T *Topology) FillIndexes() {
	for i, v := range T.Atoms {
		v.index = i
	}
	for i, v := range T.Bonds {
		v.Index = i
	}
}

// Atom returns the Atom corresponding to the index i
// of the Atom slice in the Topology. Panics if
// out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() {
		panic(fmt.Sprintf("Topology: Requested Atom %d out of bounds (%d)", i, T.Len()))
	}
	return T.Atoms[i]
}

// AddAtom appends an atom at the end of the reference and returns its index.
func (T *Topology) AddAtom(at *Atom) int {
	at.index = len(T.Atoms)
	T.Atoms = append(T.Atoms, at)
	return at.index
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

// AddBond bonds the atoms with indexes i and j, with the given order, and
// returns the bond. If the atoms are already bonded, the existing bond is returned.
func (T *Topology) AddBond(i, j int, order float64) *Bond {
	if i == j {
		panic(fmt.Sprintf("Topology: Can't bond atom %d to itself", i))
	}
	if b := T.Bond(i, j); b != nil {
		return b
	}
	at1 := T.Atom(i)
	at2 := T.Atom(j)
	b := &Bond{Index: len(T.Bonds), At1: at1, At2: at2, Order: order}
	at1.Bonds = append(at1.Bonds, b)
	at2.Bonds = append(at2.Bonds, b)
	T.Bonds = append(T.Bonds, b)
	return b
}

// Bond returns the bond between the atoms with indexes i and j, or nil
// if they are not bonded.
func (T *Topology) Bond(i, j int) *Bond {
	for _, b := range T.Atom(i).Bonds {
		if b.Cross(T.Atoms[i]).index == j {
			return b
		}
	}
	return nil
}

// Bonded returns true if the atoms with indexes i and j are bonded.
func (T *Topology) Bonded(i, j int) bool {
	return T.Bond(i, j) != nil
}

// BondedTo returns the indexes of the atoms bonded to the atom with index i,
// in increasing order.
func (T *Topology) BondedTo(i int) []int {
	at := T.Atom(i)
	ret := make([]int, 0, len(at.Bonds))
	for _, b := range at.Bonds {
		ret = append(ret, b.Cross(at).index)
	}
	sort.Ints(ret)
	return ret
}

// Copy returns a deep copy of the topology, including bonds.
func (T *Topology) Copy() *Topology {
	ret := NewTopology(T.charge, T.unpaired)
	ret.Atoms = make([]*Atom, 0, T.Len())
	for _, v := range T.Atoms {
		ret.AddAtom(v.Copy())
	}
	for _, b := range T.Bonds {
		ret.AddBond(b.At1.index, b.At2.index, b.Order)
	}
	return ret
}

// SomeAtoms returns a new topology with copies of the atoms in atomlist, in
// that order, and the bonds among them. The OldIndex of each new atom is set to
// its index in T.
func (T *Topology) SomeAtoms(atomlist []int) (*Topology, error) {
	ret := NewTopology(0, 0)
	newindex := make(map[int]int, len(atomlist))
	for _, i := range atomlist {
		if i < 0 || i >= T.Len() {
			return nil, NewError(fmt.Sprintf("Index %d out of range (%d atoms)", i, T.Len()), "SomeAtoms")
		}
		at := T.Atoms[i].Copy()
		at.OldIndex = i
		newindex[i] = ret.AddAtom(at)
	}
	for _, b := range T.Bonds {
		i, ok1 := newindex[b.At1.index]
		j, ok2 := newindex[b.At2.index]
		if ok1 && ok2 {
			ret.AddBond(i, j, b.Order)
		}
	}
	return ret, nil
}

// Masses returns a slice of float64 with the masses of the atoms in the topology, or nil and an error if they have not been calculated
func (T *Topology) Masses() ([]float64, error) {
	mass := make([]float64, T.Len())
	for i := 0; i < T.Len(); i++ {
		thisatom := T.Atom(i)
		if thisatom.Mass == 0 {
			return nil, NewError(fmt.Sprintf("Not all the masses have been obtained: %d %v", i, thisatom), "Masses")
		}
		mass[i] = thisatom.Mass
	}
	return mass, nil
}

// AssignMasses sets the mass of all atoms with a zero mass from the element tables.
func (T *Topology) AssignMasses() error {
	for _, v := range T.Atoms {
		if v.Mass != 0 {
			continue
		}
		m, ok := Mass(v.Symbol)
		if !ok {
			return NewError(fmt.Sprintf("Mass for element %s not available", v.Symbol), "AssignMasses")
		}
		v.Mass = m
	}
	return nil
}

/****Residues****/

// Residue is a consecutive set of atoms in a topology sharing chain, residue
// ID and residue name.
type Residue struct {
	Name  string
	ID    int
	Chain string
	Atoms []int
}

// AtomByName returns the index of the atom called name in the residue, or -1 if there is
// no such atom.
func (R *Residue) AtomByName(T *Topology, name string) int {
	for _, v := range R.Atoms {
		if T.Atoms[v].Name == name {
			return v
		}
	}
	return -1
}

// Residues returns the residues of the topology, in topology order.
func (T *Topology) Residues() []*Residue {
	ret := make([]*Residue, 0, 10)
	var cur *Residue
	for i, v := range T.Atoms {
		if cur == nil || v.Chain != cur.Chain || v.MolID != cur.ID || v.MolName != cur.Name {
			cur = &Residue{Name: v.MolName, ID: v.MolID, Chain: v.Chain}
			ret = append(ret, cur)
		}
		cur.Atoms = append(cur.Atoms, i)
	}
	return ret
}

// ChainResidues returns the residues that belong to the given chain.
func (T *Topology) ChainResidues(chain string) []*Residue {
	ret := make([]*Residue, 0, 10)
	for _, v := range T.Residues() {
		if v.Chain == chain {
			ret = append(ret, v)
		}
	}
	return ret
}

// Chains returns the IDs of all the chains present in the topology, in order
// of appearance.
func (T *Topology) Chains() []string {
	ret := make([]string, 0, 2)
	for _, v := range T.Atoms {
		if !isInString(ret, v.Chain) {
			ret = append(ret, v.Chain)
		}
	}
	return ret
}

// ResidueOf returns the residue that contains the atom with index i.
func (T *Topology) ResidueOf(i int) *Residue {
	for _, v := range T.Residues() {
		if isInInt(v.Atoms, i) {
			return v
		}
	}
	return nil
}

/**Molecule**/

// Molecule contains all the info for a molecule in one state.
type Molecule struct {
	*Topology
	Coords *v3.Matrix
}

// NewMolecule makes a molecule with the topology ats and the coordinates coords.
// It returns an error if the number of atoms and coordinates differ.
func NewMolecule(ats *Topology, coords *v3.Matrix) (*Molecule, error) {
	if ats == nil || coords == nil {
		return nil, NewError("Nil topology or coordinates given", "NewMolecule")
	}
	if ats.Len() != coords.NVecs() {
		return nil, NewError(fmt.Sprintf("Mismatched number of atoms (%d) and coordinates (%d)", ats.Len(), coords.NVecs()), "NewMolecule")
	}
	return &Molecule{Topology: ats, Coords: coords}, nil
}
