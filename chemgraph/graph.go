/*
 * graph.go, part of gorjmc.
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

package chemgraph

import (
	"sort"

	chem "github.com/rmera/gorjmc"
	"gonum.org/v1/gonum/graph"
)

// Atom is a node of the graph. Its ID is the index of the atom in the
// chem.Topology the graph was built from.
type Atom struct {
	*chem.Atom
}

func (A *Atom) ID() int64 {
	return int64(A.Index())
}

// Bond is an edge of the graph. Bonds are not directional, the
// From and To ends only reflect how the edge was requested.
type Bond struct {
	*chem.Bond
	At1, At2 *Atom
}

func (B *Bond) From() graph.Node {
	return B.At1
}

func (B *Bond) To() graph.Node {
	return B.At2
}

// ReversedEdge returns a new edge with the ends swapped.
func (B *Bond) ReversedEdge() graph.Edge {
	return &Bond{Bond: B.Bond, At1: B.At2, At2: B.At1}
}

// Atoms implements gonum.graph.Nodes
type Atoms struct {
	Atoms []*Atom
	curr  int
}

func newAtoms(ats []*Atom) *Atoms {
	return &Atoms{Atoms: ats, curr: -1}
}

// Len returns the number of nodes left to iterate.
func (A *Atoms) Len() int {
	return len(A.Atoms) - (A.curr + 1)
}
func (A *Atoms) Reset() {
	A.curr = -1
}
func (A *Atoms) Next() bool {
	if A.curr+1 >= len(A.Atoms) {
		return false
	}
	A.curr++
	return true
}
func (A *Atoms) Node() graph.Node {
	if A.curr < 0 || A.curr >= len(A.Atoms) {
		return nil
	}
	return A.Atoms[A.curr]
}

// Topology implements the gonum graph.Undirected interface for
// a set of atoms of a chem.Topology and the bonds among them.
type Topology struct {
	*chem.Topology
	atoms     map[int64]*Atom
	neighbors map[int64][]*Atom
	order     []*Atom
}

// TopologyFromChem builds a graph with the atoms of top with indexes in subset,
// or with all the atoms, if subset is nil. Only bonds between atoms of the
// subset are included.
func TopologyFromChem(top *chem.Topology, subset []int) *Topology {
	top.FillIndexes()
	T := &Topology{Topology: top, atoms: make(map[int64]*Atom), neighbors: make(map[int64][]*Atom)}
	if subset == nil {
		subset = make([]int, top.Len())
		for i := range subset {
			subset[i] = i
		}
	}
	sorted := append([]int(nil), subset...)
	sort.Ints(sorted)
	for _, i := range sorted {
		if _, ok := T.atoms[int64(i)]; ok {
			continue
		}
		a := &Atom{Atom: top.Atom(i)}
		T.atoms[int64(i)] = a
		T.order = append(T.order, a)
	}
	for _, a := range T.order {
		id := a.ID()
		for _, n := range top.BondedTo(a.Index()) {
			if na, ok := T.atoms[int64(n)]; ok {
				T.neighbors[id] = append(T.neighbors[id], na)
			}
		}
	}
	return T
}

// Node returns the node with the given ID, or nil if it is not in the graph.
func (T *Topology) Node(id int64) graph.Node {
	a, ok := T.atoms[id]
	if !ok {
		return nil
	}
	return a
}

// Nodes returns all the nodes in the graph, in increasing index order.
func (T *Topology) Nodes() graph.Nodes {
	if len(T.order) == 0 {
		return graph.Empty
	}
	return newAtoms(append([]*Atom(nil), T.order...))
}

// From returns the nodes bonded to the node with the given id, in increasing index order.
func (T *Topology) From(id int64) graph.Nodes {
	n := T.neighbors[id]
	if len(n) == 0 {
		return graph.Empty
	}
	return newAtoms(append([]*Atom(nil), n...))
}

func (T *Topology) HasEdgeBetween(id1, id2 int64) bool {
	_, ok1 := T.atoms[id1]
	_, ok2 := T.atoms[id2]
	if !ok1 || !ok2 {
		return false
	}
	return T.Topology.Bonded(int(id1), int(id2))
}

// Edge returns the bond between the given atoms, oriented from id1 to id2, or nil
// if there is no such bond in the graph.
func (T *Topology) Edge(id1, id2 int64) graph.Edge {
	if !T.HasEdgeBetween(id1, id2) {
		return nil
	}
	return &Bond{Bond: T.Topology.Bond(int(id1), int(id2)), At1: T.atoms[id1], At2: T.atoms[id2]}
}

// EdgeBetween is the same as Edge, as the graph is undirected.
func (T *Topology) EdgeBetween(id1, id2 int64) graph.Edge {
	return T.Edge(id1, id2)
}

// Len returns the number of atoms in the graph.
func (T *Topology) Len() int {
	return len(T.order)
}

// Has returns true if the atom with index i is part of the graph.
func (T *Topology) Has(i int) bool {
	_, ok := T.atoms[int64(i)]
	return ok
}

// Degree returns the number of bonds the atom with index i has within the graph.
func (T *Topology) Degree(i int) int {
	return len(T.neighbors[int64(i)])
}
