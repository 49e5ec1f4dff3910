/*
 * graph_test.go, part of gorjmc.
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
	"testing"

	chem "github.com/rmera/gorjmc"
)

// naphthalene returns the carbon skeleton of naphthalene, plus a methyl carbon
// bonded to atom 0, and an isolated atom.
func naphthalene() *chem.Topology {
	top := chem.NewTopology(0, 0)
	for i := 0; i < 12; i++ {
		top.AddAtom(&chem.Atom{Name: "C", Symbol: "C"})
	}
	ring := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 0}, {4, 6}, {6, 7}, {7, 8}, {8, 9}, {9, 3}}
	for _, b := range ring {
		top.AddBond(b[0], b[1], 1.5)
	}
	top.AddBond(0, 10, 1)
	return top
}

func TestRingsAndComponents(Te *testing.T) {
	g := TopologyFromChem(naphthalene(), nil)
	rings := g.Rings()
	if len(rings) != 2 {
		Te.Fatalf("naphthalene should have 2 small rings, got %v", rings)
	}
	for _, r := range rings {
		if len(r) != 6 {
			Te.Errorf("ring of size %d: %v", len(r), r)
		}
	}
	if g.RingBond(0, 10) {
		Te.Error("the methyl bond is not a ring bond")
	}
	if !g.RingBond(3, 4) {
		Te.Error("the fusion bond is a ring bond")
	}
	ra := g.RingAtoms()
	if len(ra) != 10 || ra[10] {
		Te.Errorf("wrong ring atoms %v", ra)
	}
	cc := g.Components()
	if len(cc) != 2 || len(cc[0]) != 11 || cc[1][0] != 11 {
		Te.Errorf("wrong components %v", cc)
	}
}

func TestShortestPaths(Te *testing.T) {
	g := TopologyFromChem(naphthalene(), nil)
	paths := g.ShortestPaths(10, 3)
	p, ok := paths[2]
	if !ok {
		Te.Fatal("atom 2 should be 3 bonds away from atom 10")
	}
	if len(p) != 4 || p[0] != 10 || p[1] != 0 || p[2] != 1 || p[3] != 2 {
		Te.Errorf("wrong path %v", p)
	}
	if _, ok := paths[3]; ok {
		Te.Error("atom 3 is 4 bonds away and should be beyond the cutoff")
	}
	if len(paths[10]) != 1 {
		Te.Error("the path to the source is the source itself")
	}
	sub := TopologyFromChem(naphthalene(), []int{0, 1, 2, 10})
	if sub.Len() != 4 || sub.Has(3) {
		Te.Error("wrong subset")
	}
	if _, ok := sub.ShortestPaths(10, -1)[5]; ok {
		Te.Error("atom 5 is not in the subgraph")
	}
	n := sub.From(0)
	count := 0
	for n.Next() {
		count++
	}
	if count != 2 {
		Te.Errorf("atom 0 has 2 neighbors in the subgraph, got %d", count)
	}
}
