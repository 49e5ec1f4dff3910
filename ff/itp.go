/*
 * itp.go, part of gorjmc.
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

package ff

import (
	"fmt"

	chem "github.com/rmera/gorjmc"
)

// itpResidue is a residue read from a Gromacs topology, with its terms
// renumbered to the local indexes of the residue atoms.
type itpResidue struct {
	names map[string]int
	sys   *System
}

// GromacsParameterizer parameterizes the residues of a topology using templates
// read from a Gromacs topology. A residue is matched to a template if both have the same
// name and the same set of atom names. Residues with no template, and the terms
// between residues, are taken from the fallback Parameterizer.
type GromacsParameterizer struct {
	templates map[string]*itpResidue
	fallback  Parameterizer
}

// NewGromacsParameterizer reads the templates from the Gromacs topology file name, following
// the given defines. fallback can be nil, in which case every residue must have a template.
func NewGromacsParameterizer(name string, fallback Parameterizer, defines ...string) (*GromacsParameterizer, error) {
	top, S, err := GromacsFileRead(name, defines...)
	if err != nil {
		return nil, errDecorate(err, "NewGromacsParameterizer")
	}
	return GromacsParameterizerFrom(top, S, fallback)
}

// GromacsParameterizerFrom builds the templates from a topology and its system. Only the
// first residue with a given name becomes a template.
func GromacsParameterizerFrom(top *chem.Topology, S *System, fallback Parameterizer) (*GromacsParameterizer, error) {
	if top.Len() != S.NParticles() {
		return nil, NewError(fmt.Sprintf("Topology has %d atoms but the system has %d particles", top.Len(), S.NParticles()), "GromacsParameterizerFrom")
	}
	G := &GromacsParameterizer{templates: make(map[string]*itpResidue), fallback: fallback}
	for _, r := range top.Residues() {
		if _, ok := G.templates[r.Name]; ok {
			continue
		}
		local := make(map[int]int, len(r.Atoms))
		t := &itpResidue{names: make(map[string]int, len(r.Atoms)), sys: &System{}}
		for i, a := range r.Atoms {
			name := top.Atom(a).Name
			if _, ok := t.names[name]; ok {
				return nil, NewError(fmt.Sprintf("Atom name %s repeated in residue %s", name, r.Name), "GromacsParameterizerFrom")
			}
			t.names[name] = i
			local[a] = i
			t.sys.Particles = append(t.sys.Particles, S.Particles[a])
		}
		copyTerms(S, t.sys, local)
		G.templates[r.Name] = t
	}
	if len(G.templates) == 0 {
		return nil, NewError("No residues in the Gromacs topology", "GromacsParameterizerFrom")
	}
	return G, nil
}

// Has returns true if there is a template for the residue name.
func (G *GromacsParameterizer) Has(resname string) bool {
	_, ok := G.templates[resname]
	return ok
}

// copyTerms appends to dst the terms of src whose atoms are all keys of m,
// renumbered with m.
func copyTerms(src, dst *System, m map[int]int) {
	all := func(ats []int) ([]int, bool) {
		ret := make([]int, len(ats))
		for i, a := range ats {
			v, ok := m[a]
			if !ok {
				return nil, false
			}
			ret[i] = v
		}
		return ret, true
	}
	for _, b := range src.Bonds {
		if a, ok := all(b.Atoms[:]); ok {
			b.Atoms = [2]int{a[0], a[1]}
			dst.Bonds = append(dst.Bonds, b)
		}
	}
	for _, b := range src.Angles {
		if a, ok := all(b.Atoms[:]); ok {
			b.Atoms = [3]int{a[0], a[1], a[2]}
			dst.Angles = append(dst.Angles, b)
		}
	}
	for _, b := range src.Torsions {
		if a, ok := all(b.Atoms[:]); ok {
			b.Atoms = [4]int{a[0], a[1], a[2], a[3]}
			dst.Torsions = append(dst.Torsions, b)
		}
	}
	for _, b := range src.Exceptions {
		if a, ok := all(b.Atoms[:]); ok {
			dst.AddException(a[0], a[1], b.ChargeProd, b.Sigma, b.Epsilon)
		}
	}
	for _, b := range src.Constraints {
		if a, ok := all(b.Atoms[:]); ok {
			b.Atoms = [2]int{a[0], a[1]}
			dst.Constraints = append(dst.Constraints, b)
		}
	}
}

// dropTerms removes from S every term whose atoms all belong to in.
func dropTerms(S *System, in map[int]bool) {
	all := func(ats []int) bool {
		for _, a := range ats {
			if !in[a] {
				return false
			}
		}
		return true
	}
	bonds := S.Bonds[:0]
	for _, b := range S.Bonds {
		if !all(b.Atoms[:]) {
			bonds = append(bonds, b)
		}
	}
	S.Bonds = bonds
	angles := S.Angles[:0]
	for _, b := range S.Angles {
		if !all(b.Atoms[:]) {
			angles = append(angles, b)
		}
	}
	S.Angles = angles
	torsions := S.Torsions[:0]
	for _, b := range S.Torsions {
		if !all(b.Atoms[:]) {
			torsions = append(torsions, b)
		}
	}
	S.Torsions = torsions
	exc := S.Exceptions[:0]
	for _, b := range S.Exceptions {
		if !all(b.Atoms[:]) {
			exc = append(exc, b)
		}
	}
	S.Exceptions = exc
	cons := S.Constraints[:0]
	for _, b := range S.Constraints {
		if !all(b.Atoms[:]) {
			cons = append(cons, b)
		}
	}
	S.Constraints = cons
}

// match returns the template atom index for each atom of the residue, or nil
// if the residue has no matching template.
func (G *GromacsParameterizer) match(top *chem.Topology, r *chem.Residue) ([]int, *itpResidue) {
	t, ok := G.templates[r.Name]
	if !ok || len(t.names) != len(r.Atoms) {
		return nil, nil
	}
	ret := make([]int, len(r.Atoms))
	for i, a := range r.Atoms {
		l, ok := t.names[top.Atom(a).Name]
		if !ok {
			return nil, nil
		}
		ret[i] = l
	}
	return ret, t
}

// Parameterize returns a System for top. Matched residues take all their particles and
// internal terms from their template. If no bond joins two residues, the fallback only
// parameterizes the residues with no template. Otherwise, it parameterizes the whole
// topology, and the template terms replace its terms within matched residues.
func (G *GromacsParameterizer) Parameterize(top *chem.Topology) (*System, error) {
	top.FillIndexes()
	type hit struct {
		res   *chem.Residue
		local []int
		t     *itpResidue
	}
	hits := make([]hit, 0, 2)
	var unmatched *chem.Residue
	rest := make([]int, 0, top.Len())
	for _, r := range top.Residues() {
		if l, t := G.match(top, r); t != nil {
			hits = append(hits, hit{r, l, t})
			continue
		}
		if unmatched == nil {
			unmatched = r
		}
		rest = append(rest, r.Atoms...)
	}
	crossing := false
	for _, b := range top.Bonds {
		a1, a2 := b.At1, b.At2
		if a1.MolID != a2.MolID || a1.MolName != a2.MolName || a1.Chain != a2.Chain {
			crossing = true
			break
		}
	}
	if G.fallback == nil && unmatched != nil {
		return nil, NewError(fmt.Sprintf("No template for residue %s %d and no fallback parameterizer", unmatched.Name, unmatched.ID), "GromacsParameterizer.Parameterize")
	}
	if G.fallback == nil && crossing {
		return nil, NewError("Bonds between residues need a fallback parameterizer", "GromacsParameterizer.Parameterize")
	}
	var S *System
	var err error
	switch {
	case crossing:
		S, err = G.fallback.Parameterize(top)
		if err != nil {
			return nil, errDecorate(err, "GromacsParameterizer.Parameterize")
		}
	case len(rest) > 0:
		S = &System{Particles: make([]Particle, top.Len())}
		sub, err := top.SomeAtoms(rest)
		if err != nil {
			return nil, errDecorate(err, "GromacsParameterizer.Parameterize")
		}
		F, err := G.fallback.Parameterize(sub)
		if err != nil {
			return nil, errDecorate(err, "GromacsParameterizer.Parameterize")
		}
		back := make(map[int]int, len(rest))
		for k, a := range rest {
			back[k] = a
			S.Particles[a] = F.Particles[k]
		}
		copyTerms(F, S, back)
		S.Cutoff = F.Cutoff
	default:
		S = &System{Particles: make([]Particle, top.Len())}
	}
	for _, h := range hits {
		in := make(map[int]bool, len(h.res.Atoms))
		//template index to topology index
		back := make(map[int]int, len(h.res.Atoms))
		for i, a := range h.res.Atoms {
			in[a] = true
			back[h.local[i]] = a
			S.Particles[a] = h.t.sys.Particles[h.local[i]]
		}
		dropTerms(S, in)
		copyTerms(h.t.sys, S, back)
	}
	S.SortTerms()
	if err := S.Check(); err != nil {
		return nil, errDecorate(err, "GromacsParameterizer.Parameterize")
	}
	return S, nil
}
