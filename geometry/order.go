/*
 * order.go, part of gorjmc.
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

package geometry

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/chemgraph"
	"github.com/rmera/gorjmc/proposal"
)

// Direction is the direction of a geometry proposal.
type Direction int

const (
	// Forward proposes positions for the atoms unique to the new topology.
	Forward Direction = iota
	// Reverse evaluates the proposal of the atoms unique to the old topology.
	Reverse
)

func (D Direction) String() string {
	if D == Reverse {
		return "reverse"
	}
	return "forward"
}

// TorsionRecord gives the atom to be placed and the three atoms, already placed,
// that define its internal coordinates. Atom-Bond-Angle-Torsion is a path of bonds.
type TorsionRecord struct {
	Atom    int
	Bond    int
	Angle   int
	Torsion int
}

// ProposalOrder determines the order in which the unique atoms of a proposal are
// placed, and the torsion used to place each of them.
type ProposalOrder struct {
	top       *chem.Topology
	unique    []int
	positions map[int]bool
	graph     *chemgraph.Topology
	rng       *rand.Rand
	direction Direction
}

// NewProposalOrder returns a ProposalOrder for the given proposal and direction.
// It fails if there are no atoms to place in that direction.
func NewProposalOrder(tp *proposal.TopologyProposal, direction Direction, rng *rand.Rand) (*ProposalOrder, error) {
	P := &ProposalOrder{rng: rng, direction: direction, positions: make(map[int]bool)}
	var mapped map[int]int
	switch direction {
	case Forward:
		P.top = tp.NewTopology()
		P.unique = tp.UniqueNewAtoms()
		mapped = tp.NewToOldAtomMap()
	case Reverse:
		P.top = tp.OldTopology()
		P.unique = tp.UniqueOldAtoms()
		mapped = tp.OldToNewAtomMap()
	default:
		return nil, NewError(fmt.Sprintf("Unknown direction %d", direction), "NewProposalOrder")
	}
	if len(P.unique) == 0 {
		return nil, NewError(fmt.Sprintf("No new atoms for the %s direction", direction), "NewProposalOrder")
	}
	for k := range mapped {
		P.positions[k] = true
	}
	//the graph includes every residue that has unique atoms.
	resatoms := make([]int, 0, 30)
	seen := make(map[*chem.Residue]bool)
	residues := P.top.Residues()
	for _, u := range P.unique {
		for _, r := range residues {
			if !seen[r] && containsInt(r.Atoms, u) {
				seen[r] = true
				resatoms = append(resatoms, r.Atoms...)
			}
		}
	}
	P.graph = chemgraph.TopologyFromChem(P.top, resatoms)
	return P, nil
}

func containsInt(s []int, v int) bool {
	for _, i := range s {
		if i == v {
			return true
		}
	}
	return false
}

// Determine returns the growth order, with heavy atoms before hydrogens, and the
// log-probability of the choices of torsions and of order made.
func (P *ProposalOrder) Determine() ([]TorsionRecord, float64, error) {
	heavy := make([]int, 0, len(P.unique))
	hydrogens := make([]int, 0, len(P.unique))
	for _, v := range P.unique {
		if P.top.Atom(v).Heavy() {
			heavy = append(heavy, v)
		} else {
			hydrogens = append(hydrogens, v)
		}
	}
	placed := make(map[int]bool, len(P.positions)+len(P.unique))
	for k := range P.positions {
		placed[k] = true
	}
	h, logph, err := P.proposeInOrder(heavy, placed)
	if err != nil {
		return nil, 0, errDecorate(err, "Determine")
	}
	hy, logphy, err := P.proposeInOrder(hydrogens, placed)
	if err != nil {
		return nil, 0, errDecorate(err, "Determine")
	}
	return append(h, hy...), logph + logphy, nil
}

// proposeInOrder places the atoms of group in passes. In each pass, every atom with a torsion
// path to 3 atoms placed before the pass gets a torsion chosen uniformly. The atoms placed in a
// pass are added in a random order.
func (P *ProposalOrder) proposeInOrder(group []int, placed map[int]bool) ([]TorsionRecord, float64, error) {
	remaining := append([]int(nil), group...)
	sort.Ints(remaining)
	ret := make([]TorsionRecord, 0, len(group))
	var logp float64
	for len(remaining) > 0 {
		pass := make([]TorsionRecord, 0, len(remaining))
		left := make([]int, 0, len(remaining))
		for _, a := range remaining {
			eligible := P.eligibleTorsions(a, placed)
			if len(eligible) == 0 {
				left = append(left, a)
				continue
			}
			i := P.rng.Intn(len(eligible))
			logp -= math.Log(float64(len(eligible)))
			pass = append(pass, eligible[i])
		}
		if len(pass) == 0 {
			stuck := make([]string, 0, len(left))
			for _, v := range left {
				stuck = append(stuck, P.top.Atom(v).String())
			}
			return nil, 0, NewError(fmt.Sprintf("No torsion to place atoms %v: the residue is disconnected or mis-mapped", stuck), "proposeInOrder")
		}
		P.rng.Shuffle(len(pass), func(i, j int) { pass[i], pass[j] = pass[j], pass[i] })
		lg, _ := math.Lgamma(float64(len(pass) + 1))
		logp -= lg
		for _, v := range pass {
			placed[v.Atom] = true
		}
		ret = append(ret, pass...)
		remaining = left
	}
	return ret, logp, nil
}

// eligibleTorsions returns the shortest paths of 4 atoms starting at atom a, where the other 3 atoms
// are placed, in increasing order of the last atom.
func (P *ProposalOrder) eligibleTorsions(a int, placed map[int]bool) []TorsionRecord {
	paths := P.graph.ShortestPaths(a, 3)
	ret := make([]TorsionRecord, 0, 3)
	for _, dest := range chem.SortedKeys(paths) {
		p := paths[dest]
		if len(p) != 4 || !placed[p[1]] || !placed[p[2]] || !placed[p[3]] {
			continue
		}
		ret = append(ret, TorsionRecord{Atom: p[0], Bond: p[1], Angle: p[2], Torsion: p[3]})
	}
	return ret
}
