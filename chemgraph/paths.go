/*
 * paths.go, part of gorjmc.
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

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// ShortestPaths returns, for each atom reachable from source through at most cutoff
// bonds, one shortest path from source to that atom (both included). The breadth-first
// search visits neighbors in increasing index order, so the result is deterministic.
// A negative cutoff means no cutoff.
func (T *Topology) ShortestPaths(source, cutoff int) map[int][]int {
	return T.shortestPaths(source, cutoff, nil)
}

// shortestPaths is ShortestPaths, but never crossing the edge skip, if given.
func (T *Topology) shortestPaths(source, cutoff int, skip *[2]int) map[int][]int {
	ret := make(map[int][]int)
	src := T.Node(int64(source))
	if src == nil {
		return ret
	}
	parent := map[int64]int64{}
	depth := map[int64]int{src.ID(): 0}
	var from int64
	bf := traverse.BreadthFirst{
		Traverse: func(e graph.Edge) bool {
			f, t := e.From().ID(), e.To().ID()
			if skip != nil && ((f == int64(skip[0]) && t == int64(skip[1])) || (f == int64(skip[1]) && t == int64(skip[0]))) {
				return false
			}
			if cutoff >= 0 && depth[f] >= cutoff {
				return false
			}
			from = f
			return true
		},
		Visit: func(n graph.Node) {
			id := n.ID()
			if id == src.ID() {
				return
			}
			parent[id] = from
			depth[id] = depth[from] + 1
		},
	}
	bf.Walk(T, src, nil)
	ret[source] = []int{source}
	for id := range depth {
		if id == src.ID() {
			continue
		}
		path := []int{int(id)}
		for cur := id; cur != src.ID(); {
			cur = parent[cur]
			path = append(path, int(cur))
		}
		//reverse, so the path starts at source
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
		ret[int(id)] = path
	}
	return ret
}

// Rings returns the smallest ring through each ring bond of the graph, without
// repetitions. Each ring is given as a sorted slice of atom indexes, and the rings are
// sorted by size, then lexicographically.
func (T *Topology) Rings() [][]int {
	seen := make(map[string]bool)
	ret := make([][]int, 0, 2)
	for _, a := range T.order {
		i := a.Index()
		for _, n := range T.neighbors[a.ID()] {
			j := n.Index()
			if j < i {
				continue
			}
			paths := T.shortestPaths(i, -1, &[2]int{i, j})
			p, ok := paths[j]
			if !ok {
				continue //a bridge, not in any ring.
			}
			ring := append([]int(nil), p...)
			sort.Ints(ring)
			key := intsKey(ring)
			if seen[key] {
				continue
			}
			seen[key] = true
			ret = append(ret, ring)
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		if len(ret[i]) != len(ret[j]) {
			return len(ret[i]) < len(ret[j])
		}
		for k := range ret[i] {
			if ret[i][k] != ret[j][k] {
				return ret[i][k] < ret[j][k]
			}
		}
		return false
	})
	return ret
}

// RingBond returns true if the bond between the atoms i and j is part of a ring,
// i.e. if i and j are still connected when the bond is removed.
func (T *Topology) RingBond(i, j int) bool {
	if !T.HasEdgeBetween(int64(i), int64(j)) {
		return false
	}
	_, ok := T.shortestPaths(i, -1, &[2]int{i, j})[j]
	return ok
}

// RingAtoms returns a set with the atoms that belong to at least one ring.
func (T *Topology) RingAtoms() map[int]bool {
	ret := make(map[int]bool)
	for _, r := range T.Rings() {
		for _, v := range r {
			ret[v] = true
		}
	}
	return ret
}

// Components returns the connected components of the graph, each as a
// sorted slice of atom indexes. Components are sorted by their first atom.
func (T *Topology) Components() [][]int {
	cc := topo.ConnectedComponents(T)
	ret := make([][]int, 0, len(cc))
	for _, c := range cc {
		r := make([]int, 0, len(c))
		for _, n := range c {
			r = append(r, int(n.ID()))
		}
		sort.Ints(r)
		ret = append(ret, r)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i][0] < ret[j][0] })
	return ret
}

func intsKey(s []int) string {
	b := make([]byte, 0, 4*len(s))
	for _, v := range s {
		b = append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return string(b)
}
