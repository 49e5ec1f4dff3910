// Package smiles is a small-molecule toolkit: it reads SMILES strings into
// molecular graphs, writes canonical SMILES, converts molecules to topologies
// and back, and builds 3-D coordinates for them.
//
// Tetrahedral (@, @@) and double bond (/, \) stereochemistry is kept, so canonical
// SMILES are isomeric, but coordinates are built without it. Isotopes are ignored.
package smiles

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	chem "github.com/rmera/gorjmc"
)

// Atom is a heavy atom of a molecular graph (or an H not bonded to a heavy atom).
// Hydrogens bonded to heavy atoms are kept as counts.
type Atom struct {
	Symbol   string
	Aromatic bool
	Formal   int
	Hs       int
	bracket  bool
	chiral   int //1 for @, 2 for @@, relative to the order of the atom's neighbors.
}

// Bond joins the atoms with indexes A and B. Aromatic bonds have Order 1.5.
type Bond struct {
	A, B  int
	Order float64
	//directional mark (/ or \) as read, and the atom written before it.
	dir  byte
	from int
	//for double bonds, cis or trans relation between a neighbor of A and one of B.
	stereo int
	refs   [2]int
}

const (
	stereoCis   = 1
	stereoTrans = 2
)

// Molecule is a molecular graph with implicit hydrogens.
type Molecule struct {
	Atoms []*Atom
	Bonds []*Bond
	adj   [][]int
	order [][]int //neighbors of each atom in the order read, -1 for a hydrogen.
}

func (M *Molecule) addAtom(a *Atom) int {
	M.Atoms = append(M.Atoms, a)
	M.adj = append(M.adj, nil)
	M.order = append(M.order, nil)
	return len(M.Atoms) - 1
}

func (M *Molecule) addBond(i, j int, order float64) error {
	if i == j || M.bond(i, j) != nil {
		return fmt.Errorf("invalid bond between atoms %d and %d", i, j)
	}
	M.Bonds = append(M.Bonds, &Bond{A: i, B: j, Order: order})
	M.adj[i] = append(M.adj[i], j)
	M.adj[j] = append(M.adj[j], i)
	return nil
}

func (M *Molecule) bond(i, j int) *Bond {
	for _, b := range M.Bonds {
		if (b.A == i && b.B == j) || (b.A == j && b.B == i) {
			return b
		}
	}
	return nil
}

// Neighbors returns the indexes of the atoms bonded to atom i.
func (M *Molecule) Neighbors(i int) []int {
	return append([]int(nil), M.adj[i]...)
}

// NHydrogens returns the total number of hydrogens in the molecule.
func (M *Molecule) NHydrogens() int {
	var n int
	for _, a := range M.Atoms {
		n += a.Hs
		if a.Symbol == "H" {
			n++
		}
	}
	return n
}

// NAtoms returns the number of atoms including hydrogens.
func (M *Molecule) NAtoms() int {
	var n int
	for _, a := range M.Atoms {
		if a.Symbol != "H" {
			n++
		}
	}
	return n + M.NHydrogens()
}

// implicitH returns the number of hydrogens an atom of the organic subset has when
// written without brackets, from the lowest normal valence that fits its bonds.
// Aromatic atoms count one extra bond.
func (M *Molecule) implicitH(i int) int {
	a := M.Atoms[i]
	var sum int
	for _, j := range M.adj[i] {
		o := M.bond(i, j).Order
		if o == 1.5 {
			sum++
		} else {
			sum += int(o)
		}
	}
	if a.Aromatic {
		sum++
	}
	for _, v := range chem.Valences(a.Symbol) {
		if v >= sum {
			return v - sum
		}
	}
	return 0
}

var organic = map[string]bool{"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true}

var aromaticOK = map[string]bool{"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"Se": true, "As": true}

type ringOpen struct {
	atom  int
	order float64
	dir   byte
	slot  int //position of the closure in the neighbor order of atom
}

// Parse reads a SMILES string. Bonds between aromatic atoms are aromatic unless
// given explicitly. Hydrogens written as atoms are folded into their heavy atoms.
func Parse(s string) (*Molecule, error) {
	M := new(Molecule)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, chem.NewError("Empty SMILES", "Parse")
	}
	if f := strings.Fields(s); len(f) > 1 {
		s = f[0] //the rest is a title
	}
	prev := -1
	var order float64 //0 means not given
	var dir byte
	stack := make([]int, 0, 4)
	rings := make(map[int]ringOpen)
	fail := func(pos int, msg string) error {
		return chem.NewError(fmt.Sprintf("Can't parse SMILES %s at position %d: %s", s, pos, msg), "Parse")
	}
	connect := func(i, j int, o float64, d byte, from int) error {
		if o == 0 {
			o = 1
			if M.Atoms[i].Aromatic && M.Atoms[j].Aromatic {
				o = 1.5
			}
		}
		if err := M.addBond(i, j, o); err != nil {
			return err
		}
		b := M.Bonds[len(M.Bonds)-1]
		b.dir, b.from = d, from
		return nil
	}
	//chain joins a new atom to the previous one.
	chain := func(idx int) error {
		if prev >= 0 {
			if err := connect(prev, idx, order, dir, prev); err != nil {
				return err
			}
			M.order[prev] = append(M.order[prev], idx)
			M.order[idx] = append(M.order[idx], prev)
		}
		if M.Atoms[idx].bracket && M.Atoms[idx].Hs > 0 {
			M.order[idx] = append(M.order[idx], -1)
		}
		return nil
	}
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '(':
			if prev < 0 {
				return nil, fail(i, "branch with no atom")
			}
			stack = append(stack, prev)
			i++
		case c == ')':
			if len(stack) == 0 {
				return nil, fail(i, "unbalanced parenthesis")
			}
			prev = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			i++
		case c == '-' || c == '/' || c == '\\':
			order = 1
			if c != '-' {
				dir = c
			}
			i++
		case c == '=':
			order = 2
			i++
		case c == '#':
			order = 3
			i++
		case c == ':':
			order = 1.5
			i++
		case c == '.':
			prev = -1
			i++
		case c == '%' || unicode.IsDigit(rune(c)):
			num := int(c - '0')
			i++
			if c == '%' {
				if i+2 > len(s) {
					return nil, fail(i, "incomplete ring number")
				}
				n, err := strconv.Atoi(s[i : i+2])
				if err != nil {
					return nil, fail(i, "bad ring number")
				}
				num = n
				i += 2
			}
			if prev < 0 {
				return nil, fail(i, "ring closure with no atom")
			}
			if o, ok := rings[num]; ok {
				ro := order
				if ro == 0 {
					ro = o.order
				}
				d, from := dir, prev
				if d == 0 {
					d, from = o.dir, o.atom
				}
				if err := connect(o.atom, prev, ro, d, from); err != nil {
					return nil, fail(i, err.Error())
				}
				M.order[prev] = append(M.order[prev], o.atom)
				M.order[o.atom][o.slot] = prev
				delete(rings, num)
			} else {
				rings[num] = ringOpen{atom: prev, order: order, dir: dir, slot: len(M.order[prev])}
				M.order[prev] = append(M.order[prev], -2)
			}
			order, dir = 0, 0
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fail(i, "unclosed bracket")
			}
			a, err := bracketAtom(s[i+1 : i+end])
			if err != nil {
				return nil, fail(i, err.Error())
			}
			idx := M.addAtom(a)
			if err := chain(idx); err != nil {
				return nil, fail(i, err.Error())
			}
			prev, order, dir = idx, 0, 0
			i += end + 1
		default:
			a, n := organicAtom(s[i:])
			if a == nil {
				return nil, fail(i, fmt.Sprintf("unexpected character '%c'", c))
			}
			idx := M.addAtom(a)
			if err := chain(idx); err != nil {
				return nil, fail(i, err.Error())
			}
			prev, order, dir = idx, 0, 0
			i += n
		}
	}
	if len(stack) > 0 {
		return nil, fail(len(s), "unbalanced parenthesis")
	}
	if len(rings) > 0 {
		return nil, fail(len(s), "unclosed ring")
	}
	for i, a := range M.Atoms {
		if !a.bracket {
			a.Hs = M.implicitH(i)
		}
	}
	M.resolveDoubleBonds()
	M.foldHydrogens()
	M.checkChirality()
	return M, nil
}

// organicAtom reads an atom of the organic subset, and returns it with the number of
// characters read, or nil.
func organicAtom(s string) (*Atom, int) {
	if len(s) >= 2 && (s[:2] == "Cl" || s[:2] == "Br") {
		return &Atom{Symbol: s[:2]}, 2
	}
	c := string(s[0])
	if organic[c] {
		return &Atom{Symbol: c}, 1
	}
	up := strings.ToUpper(c)
	if c != up && aromaticOK[up] && organic[up] {
		return &Atom{Symbol: up, Aromatic: true}, 1
	}
	return nil, 0
}

// bracketAtom reads the contents of a bracket atom: isotope, symbol, chirality,
// hydrogen count, charge and class. Isotope and class are ignored.
func bracketAtom(s string) (*Atom, error) {
	a := &Atom{bracket: true}
	i := 0
	for i < len(s) && unicode.IsDigit(rune(s[i])) {
		i++
	}
	if i >= len(s) {
		return nil, fmt.Errorf("no element in [%s]", s)
	}
	switch {
	case i+1 < len(s) && unicode.IsUpper(rune(s[i])) && unicode.IsLower(rune(s[i+1])) && known(s[i:i+2]):
		a.Symbol = s[i : i+2]
		i += 2
	case unicode.IsUpper(rune(s[i])) && known(s[i:i+1]):
		a.Symbol = s[i : i+1]
		i++
	case i+1 < len(s) && (s[i:i+2] == "se" || s[i:i+2] == "as"):
		a.Symbol = strings.ToUpper(s[i:i+1]) + s[i+1:i+2]
		a.Aromatic = true
		i += 2
	case unicode.IsLower(rune(s[i])) && aromaticOK[strings.ToUpper(s[i:i+1])]:
		a.Symbol = strings.ToUpper(s[i : i+1])
		a.Aromatic = true
		i++
	default:
		return nil, fmt.Errorf("unknown element in [%s]", s)
	}
	for i < len(s) && s[i] == '@' {
		a.chiral++
		i++
	}
	if a.chiral > 2 {
		a.chiral = 0
	}
	if i < len(s) && s[i] == 'H' {
		i++
		a.Hs = 1
		if i < len(s) && unicode.IsDigit(rune(s[i])) {
			a.Hs = int(s[i] - '0')
			i++
		}
	}
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		sign := 1
		if s[i] == '-' {
			sign = -1
		}
		ch := s[i]
		i++
		n := 1
		switch {
		case i < len(s) && unicode.IsDigit(rune(s[i])):
			n = int(s[i] - '0')
			i++
		default:
			for i < len(s) && s[i] == ch {
				n++
				i++
			}
		}
		a.Formal = sign * n
	}
	if i < len(s) && s[i] == ':' {
		i = len(s)
	}
	if i != len(s) {
		return nil, fmt.Errorf("unexpected characters in [%s]", s)
	}
	return a, nil
}

func known(symbol string) bool {
	_, ok := chem.Mass(symbol)
	return ok
}

// foldHydrogens turns neutral hydrogens bonded to one heavy atom into counts of that atom.
func (M *Molecule) foldHydrogens() {
	remove := make(map[int]bool)
	for i, a := range M.Atoms {
		if a.Symbol != "H" || a.Formal != 0 || a.Hs != 0 || len(M.adj[i]) != 1 {
			continue
		}
		j := M.adj[i][0]
		if M.Atoms[j].Symbol == "H" {
			continue
		}
		M.Atoms[j].Hs++
		remove[i] = true
	}
	if len(remove) == 0 {
		return
	}
	newidx := make([]int, len(M.Atoms))
	N := new(Molecule)
	for i, a := range M.Atoms {
		newidx[i] = -1
		if !remove[i] {
			newidx[i] = N.addAtom(a)
		}
	}
	for _, b := range M.Bonds {
		if newidx[b.A] >= 0 && newidx[b.B] >= 0 {
			N.addBond(newidx[b.A], newidx[b.B], b.Order)
			if b.stereo != 0 {
				nb := N.Bonds[len(N.Bonds)-1]
				nb.stereo, nb.refs = M.foldRefs(b, remove, newidx)
			}
		}
	}
	for i, l := range M.order {
		if newidx[i] < 0 {
			continue
		}
		nl := make([]int, len(l))
		for k, v := range l {
			nl[k] = -1
			if v >= 0 {
				nl[k] = newidx[v]
			}
		}
		N.order[newidx[i]] = nl
	}
	*M = *N
}

// foldRefs returns the stereo of the double bond b once the hydrogens in remove are
// folded. A removed reference atom is replaced by the other neighbor of its end.
func (M *Molecule) foldRefs(b *Bond, remove map[int]bool, newidx []int) (int, [2]int) {
	st, refs := b.stereo, b.refs
	ends := [2]int{b.A, b.B}
	for k := range refs {
		if !remove[refs[k]] {
			continue
		}
		other := -1
		for _, x := range M.adj[ends[k]] {
			if x != ends[1-k] && x != refs[k] && !remove[x] {
				other = x
			}
		}
		if other < 0 {
			return 0, [2]int{}
		}
		refs[k] = other
		st = 3 - st
	}
	return st, [2]int{newidx[refs[0]], newidx[refs[1]]}
}

// resolveDoubleBonds sets the cis/trans relation of the double bonds that have
// a directional bond at each end.
func (M *Molecule) resolveDoubleBonds() {
	for _, b := range M.Bonds {
		if b.Order != 2 {
			continue
		}
		x, sx := M.marked(b.A, b.B)
		y, sy := M.marked(b.B, b.A)
		if x < 0 || y < 0 {
			continue
		}
		b.stereo = stereoTrans
		if sx == sy {
			b.stereo = stereoCis
		}
		b.refs = [2]int{x, y}
	}
}

// marked returns a neighbor of e, other than partner, joined to e by a directional
// bond, and its side, or -1.
func (M *Molecule) marked(e, partner int) (int, int) {
	for _, x := range M.adj[e] {
		if x == partner {
			continue
		}
		if b := M.bond(e, x); b.dir != 0 {
			return x, side(b.dir, b.from, e)
		}
	}
	return -1, 0
}

// side returns 1 if the atom joined to e by a bond with the directional mark d,
// written after the atom from, lies above e, and -1 if it lies below.
func side(d byte, from, e int) int {
	s := 1
	if d == '\\' {
		s = -1
	}
	if from != e {
		s = -s
	}
	return s
}

// checkChirality drops the chirality of atoms that don't have four different
// neighbors, counting hydrogens.
func (M *Molecule) checkChirality() {
	for i, a := range M.Atoms {
		if a.chiral == 0 {
			continue
		}
		hs := 0
		for _, v := range M.order[i] {
			if v < 0 {
				hs++
			}
		}
		if len(M.order[i]) != 4 || hs > 1 || a.Hs > 1 {
			a.chiral = 0
		}
	}
}
