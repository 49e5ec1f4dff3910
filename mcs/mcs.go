// Package mcs maps the atoms of two molecules onto each other through their
// maximum common substructure.
//
// The common substructure is searched over heavy atoms only, as the largest
// connected clique of the modular product of the two molecular graphs. Hydrogens are
// then mapped pairwise on each pair of mapped heavy atoms.
package mcs

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"strings"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/chemgraph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Strength sets how similar two heavy atoms need to be in order to be mapped
// onto each other. Bond orders always need to match.
type Strength int

const (
	//Weak maps any heavy atom onto any heavy atom.
	Weak Strength = iota
	//Default requires the same hybridization and ring membership.
	Default
	//Strong also requires the same element.
	Strong
)

func (S Strength) String() string {
	switch S {
	case Weak:
		return "weak"
	case Strong:
		return "strong"
	}
	return "default"
}

// ParseStrength returns the Strength named s ("weak", "default" or "strong").
// The empty string gives Default.
func ParseStrength(s string) (Strength, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weak":
		return Weak, nil
	case "default", "":
		return Default, nil
	case "strong":
		return Strong, nil
	}
	return Default, chem.NewError(fmt.Sprintf("Unknown map strength '%s'. Valid strengths are: [weak default strong]", s), "mcs.ParseStrength")
}

// Mapper finds atom maps between molecules.
type Mapper struct {
	Strength          Strength
	AllowRingBreaking bool //if false, maps that leave a ring partially mapped are discarded.
	Verbose           bool
}

// NewMapper returns a mapper with the given strength, that does not allow ring breaking.
func NewMapper(strength Strength) *Mapper {
	return &Mapper{Strength: strength}
}

// molecule is the part of a topology being mapped.
type molecule struct {
	top   *chem.Topology
	heavy []int
	hs    map[int][]int //hydrogens bonded to each heavy atom, sorted
	ring  map[int]bool
	rings [][]int
}

func newMolecule(top *chem.Topology, atoms []int) (*molecule, error) {
	if len(atoms) == 0 {
		atoms = make([]int, top.Len())
		for i := range atoms {
			atoms[i] = i
		}
	}
	in := make(map[int]bool, len(atoms))
	for _, v := range atoms {
		if v < 0 || v >= top.Len() {
			return nil, chem.NewError(fmt.Sprintf("Atom %d out of range", v), "mcs.newMolecule")
		}
		in[v] = true
	}
	g := chemgraph.TopologyFromChem(top, atoms)
	m := &molecule{top: top, hs: make(map[int][]int), ring: g.RingAtoms(), rings: g.Rings()}
	for _, v := range atoms {
		if top.Atom(v).Heavy() {
			m.heavy = append(m.heavy, v)
		}
	}
	sort.Ints(m.heavy)
	for _, v := range m.heavy {
		for _, j := range top.BondedTo(v) {
			if in[j] && !top.Atom(j).Heavy() {
				m.hs[v] = append(m.hs[v], j)
			}
		}
	}
	return m, nil
}

// bondOrder returns the order of the bond between i and j, or 0 if they are not bonded.
// Bonds without an order count as single.
func (m *molecule) bondOrder(i, j int) float64 {
	b := m.top.Bond(i, j)
	if b == nil {
		return 0
	}
	if b.Order == 0 {
		return 1
	}
	return b.Order
}

func (M *Mapper) atomsMatch(old *molecule, i int, new *molecule, j int) bool {
	if M.Strength == Weak {
		return true
	}
	if old.top.Hybridization(i) != new.top.Hybridization(j) || old.ring[i] != new.ring[j] {
		return false
	}
	if M.Strength == Strong {
		return old.top.Atom(i).Symbol == new.top.Atom(j).Symbol
	}
	return true
}

// match is a correspondence between heavy atoms, old[k] maps to new[k].
type match struct {
	old, new []int
}

// key identifies the atom sets of a match, regardless of the correspondence.
func (m match) key() string {
	o := append([]int(nil), m.old...)
	n := append([]int(nil), m.new...)
	sort.Ints(o)
	sort.Ints(n)
	return fmt.Sprint(o, n)
}

func (m match) String() string {
	var b strings.Builder
	for k := range m.old {
		fmt.Fprintf(&b, "%d-%d ", m.old[k], m.new[k])
	}
	return b.String()
}

type pair struct{ i, j int }

// heavyMatches returns the distinct largest connected common substructures of the
// heavy atoms of the two molecules, sorted by key. Matches with the same atom sets
// are considered the same. Unless ring breaking is allowed, the largest matches that
// break rings are discarded, and if none is left, nil is returned.
func (M *Mapper) heavyMatches(old, new *molecule) []match {
	pairs := make([]pair, 0, len(old.heavy)*len(new.heavy))
	for _, i := range old.heavy {
		for _, j := range new.heavy {
			if M.atomsMatch(old, i, new, j) {
				pairs = append(pairs, pair{i, j})
			}
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	//modular product
	g := simple.NewUndirectedGraph()
	for k := range pairs {
		g.AddNode(simple.Node(k))
	}
	for a := 0; a < len(pairs); a++ {
		for b := a + 1; b < len(pairs); b++ {
			p, q := pairs[a], pairs[b]
			if p.i == q.i || p.j == q.j {
				continue
			}
			if old.bondOrder(p.i, q.i) == new.bondOrder(p.j, q.j) {
				g.SetEdge(g.NewEdge(simple.Node(a), simple.Node(b)))
			}
		}
	}
	var largest []match
	size := 0
	for _, clique := range topo.BronKerbosch(g) {
		if len(clique) < size {
			continue
		}
		members := make([]pair, 0, len(clique))
		for _, n := range clique {
			members = append(members, pairs[n.ID()])
		}
		sort.Slice(members, func(a, b int) bool { return members[a].i < members[b].i })
		for _, piece := range bondedPieces(old, members) {
			if len(piece) < size {
				continue
			}
			if len(piece) > size {
				size = len(piece)
				largest = largest[:0]
			}
			m := match{}
			for _, k := range piece {
				m.old = append(m.old, members[k].i)
				m.new = append(m.new, members[k].j)
			}
			largest = append(largest, m)
		}
	}
	best := make(map[string]match)
	for _, m := range largest {
		if !M.AllowRingBreaking && breaksRings(old, new, m) {
			continue
		}
		k := m.key()
		if prev, ok := best[k]; !ok || m.String() < prev.String() {
			best[k] = m
		}
	}
	keys := make([]string, 0, len(best))
	for k := range best {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ret := make([]match, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, best[k])
	}
	return ret
}

// bondedPieces splits the members of a clique into the pieces connected by bonds
// (in the old molecule, the same bonds exist in the new one) and returns the largest ones.
func bondedPieces(old *molecule, members []pair) [][]int {
	seen := make([]bool, len(members))
	var pieces [][]int
	largest := 0
	for s := range members {
		if seen[s] {
			continue
		}
		piece := []int{s}
		seen[s] = true
		for q := 0; q < len(piece); q++ {
			for k := range members {
				if !seen[k] && old.bondOrder(members[piece[q]].i, members[k].i) != 0 {
					seen[k] = true
					piece = append(piece, k)
				}
			}
		}
		switch {
		case len(piece) > largest:
			largest = len(piece)
			pieces = [][]int{piece}
		case len(piece) == largest:
			pieces = append(pieces, piece)
		}
	}
	for _, p := range pieces {
		sort.Ints(p)
	}
	return pieces
}

// breaksRings returns true if the match leaves some ring of either molecule
// partially mapped, or maps a ring atom onto a non-ring atom.
func breaksRings(old, new *molecule, m match) bool {
	partial := func(rings [][]int, mapped []int) bool {
		in := make(map[int]bool, len(mapped))
		for _, v := range mapped {
			in[v] = true
		}
		for _, r := range rings {
			n := 0
			for _, v := range r {
				if in[v] {
					n++
				}
			}
			if n > 0 && n < len(r) {
				return true
			}
		}
		return false
	}
	for k := range m.old {
		if old.ring[m.old[k]] != new.ring[m.new[k]] {
			return true
		}
	}
	return partial(old.rings, m.old) || partial(new.rings, m.new)
}

// Matches returns the distinct maximum common substructures of the heavy atoms of the
// molecules formed by the atoms oldAtoms of old and newAtoms of new (all the atoms of the
// topology if the list is empty), as maps from new to old topology indexes.
func (M *Mapper) Matches(old *chem.Topology, oldAtoms []int, new *chem.Topology, newAtoms []int) ([]map[int]int, error) {
	om, err := newMolecule(old, oldAtoms)
	if err != nil {
		return nil, chem.ErrDecorate(err, "mcs.Matches")
	}
	nm, err := newMolecule(new, newAtoms)
	if err != nil {
		return nil, chem.ErrDecorate(err, "mcs.Matches")
	}
	matches := M.heavyMatches(om, nm)
	ret := make([]map[int]int, 0, len(matches))
	for _, m := range matches {
		ret = append(ret, m.newToOld())
	}
	return ret, nil
}

func (m match) newToOld() map[int]int {
	ret := make(map[int]int, len(m.old))
	for k := range m.old {
		ret[m.new[k]] = m.old[k]
	}
	return ret
}

// Map returns a map from new to old topology indexes for the atoms of the molecules formed
// by the atoms oldAtoms of old and newAtoms of new (all the atoms of the topology, if the
// list is empty). One of the distinct maximum common substructures is chosen uniformly,
// and the log-probability of the choice is returned. The hydrogens of each pair of mapped
// heavy atoms are then mapped in index order, as many as the atom with fewer hydrogens has.
// If no substructure can be mapped, the map is empty and the log-probability is 0.
func (M *Mapper) Map(old *chem.Topology, oldAtoms []int, new *chem.Topology, newAtoms []int, rng *rand.Rand) (map[int]int, float64, error) {
	om, err := newMolecule(old, oldAtoms)
	if err != nil {
		return nil, 0, chem.ErrDecorate(err, "mcs.Map")
	}
	nm, err := newMolecule(new, newAtoms)
	if err != nil {
		return nil, 0, chem.ErrDecorate(err, "mcs.Map")
	}
	matches := M.heavyMatches(om, nm)
	if len(matches) == 0 {
		if M.Verbose {
			log.Printf("mcs: no common substructure found (strength %s, ring breaking %t)", M.Strength, M.AllowRingBreaking)
		}
		return map[int]int{}, 0, nil
	}
	choice := 0
	if len(matches) > 1 {
		if rng == nil {
			return nil, 0, chem.NewError("A random source is needed to choose among several matches", "mcs.Map")
		}
		choice = rng.Intn(len(matches))
	}
	logp := -math.Log(float64(len(matches)))
	m := matches[choice]
	ret := m.newToOld()
	for k := range m.old {
		oh, nh := om.hs[m.old[k]], nm.hs[m.new[k]]
		for h := 0; h < len(oh) && h < len(nh); h++ {
			ret[nh[h]] = oh[h]
		}
	}
	if M.Verbose {
		log.Printf("mcs: %d distinct matches of %d heavy atoms, chose %s", len(matches), len(m.old), m)
	}
	return ret, logp, nil
}
