/*
 * mcs_test.go, part of gorjmc.
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

package mcs

import (
	"math"
	"math/rand"
	"testing"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/smiles"
)

func mol(Te *testing.T, s string) *chem.Topology {
	Te.Helper()
	M, err := smiles.Parse(s)
	if err != nil {
		Te.Fatal(err)
	}
	top, err := M.Topology("MOL", 1, "A")
	if err != nil {
		Te.Fatal(err)
	}
	return top
}

func TestStrengths(Te *testing.T) {
	cases := []struct {
		old, new string
		unique   [3][2]int //weak, default, strong
	}{
		{"Cc1ccccc1", "Nc1ccccc1", [3][2]int{{1, 0}, {1, 0}, {4, 3}}},
		{"CCc1ccccc1", "O=Cc1ccccc1", [3][2]int{{5, 1}, {7, 3}, {7, 3}}},
		{"Oc1ccccc1", "Sc1ccccc1", [3][2]int{{0, 0}, {0, 0}, {2, 2}}},
	}
	rng := rand.New(rand.NewSource(1))
	for _, c := range cases {
		old, new := mol(Te, c.old), mol(Te, c.new)
		for s, strength := range []Strength{Weak, Default, Strong} {
			m, _, err := NewMapper(strength).Map(old, nil, new, nil, rng)
			if err != nil {
				Te.Fatal(err)
			}
			if err := checkMap(m, old, new); err != "" {
				Te.Errorf("%s->%s %s: %s", c.old, c.new, strength, err)
			}
			uo, un := old.Len()-len(m), new.Len()-len(m)
			if uo != c.unique[s][0] || un != c.unique[s][1] {
				Te.Errorf("%s->%s %s: expected %v unique old and new atoms, got %d %d", c.old, c.new, strength, c.unique[s], uo, un)
			}
		}
	}
}

// checkMap returns a non-empty string if the map is not one-to-one, or maps
// atoms of different kinds (hydrogen and heavy).
func checkMap(m map[int]int, old, new *chem.Topology) string {
	seen := make(map[int]bool)
	for n, o := range m {
		if seen[o] {
			return "atom mapped twice"
		}
		seen[o] = true
		if old.Atom(o).Heavy() != new.Atom(n).Heavy() {
			return "hydrogen mapped onto a heavy atom"
		}
	}
	return ""
}

func TestRingBreaking(Te *testing.T) {
	naph, benz := mol(Te, "c1ccc2ccccc2c1"), mol(Te, "c1ccccc1")
	mapper := NewMapper(Default)
	m, logp, err := mapper.Map(naph, nil, benz, nil, rand.New(rand.NewSource(2)))
	if err != nil {
		Te.Fatal(err)
	}
	if len(m) != 0 || logp != 0 {
		Te.Errorf("naphthalene to benzene breaks a ring, and should give an empty map, got %v", m)
	}
	mapper.AllowRingBreaking = true
	m, logp, err = mapper.Map(naph, nil, benz, nil, rand.New(rand.NewSource(2)))
	if err != nil {
		Te.Fatal(err)
	}
	heavy := 0
	for n := range m {
		if benz.Atom(n).Heavy() {
			heavy++
		}
	}
	if heavy != 6 {
		Te.Errorf("with ring breaking, the whole benzene ring should be mapped, got %d atoms", heavy)
	}
	if math.Abs(logp+math.Log(2)) > 1e-9 {
		Te.Errorf("either ring of naphthalene can be mapped, expected logp %.4f, got %.4f", -math.Log(2), logp)
	}
}

func TestHeterocycle(Te *testing.T) {
	benz, pyr := mol(Te, "c1ccccc1"), mol(Te, "c1ccncc1")
	m, _, err := NewMapper(Default).Map(benz, nil, pyr, nil, rand.New(rand.NewSource(3)))
	if err != nil {
		Te.Fatal(err)
	}
	n := -1
	for i := 0; i < pyr.Len(); i++ {
		if pyr.Atom(i).Symbol == "N" {
			n = i
		}
	}
	o, ok := m[n]
	if !ok || benz.Atom(o).Symbol != "C" {
		Te.Errorf("the pyridine nitrogen should be mapped onto a benzene carbon, map: %v", m)
	}
	//the hydrogen of that carbon is left unmapped.
	if len(m) != 11 {
		Te.Errorf("expected 11 mapped atoms, got %d", len(m))
	}
	matches, err := NewMapper(Strong).Matches(benz, nil, pyr, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if len(matches) != 0 {
		Te.Errorf("with strong mapping, the only common substructure breaks the ring, got %d matches", len(matches))
	}
}

func TestSubsets(Te *testing.T) {
	//two copies of ethanol in the same topology, only the second one is mapped
	M, _ := smiles.Parse("CCO.CCO")
	top, err := M.Topology("MOL", 1, "A")
	if err != nil {
		Te.Fatal(err)
	}
	second := []int{3, 4, 5}
	for i := 6; i < top.Len(); i++ {
		for _, j := range top.BondedTo(i) {
			if j >= 3 {
				second = append(second, i)
			}
		}
	}
	prop := mol(Te, "CCCO")
	m, _, err := NewMapper(Strong).Map(top, second, prop, nil, rand.New(rand.NewSource(4)))
	if err != nil {
		Te.Fatal(err)
	}
	for _, o := range m {
		found := false
		for _, v := range second {
			if v == o {
				found = true
			}
		}
		if !found {
			Te.Errorf("atom %d is outside of the mapped subset", o)
		}
	}
	if _, _, err := NewMapper(Strong).Map(top, []int{-1}, prop, nil, nil); err == nil {
		Te.Error("atoms out of range should fail")
	}
}

func TestParseStrength(Te *testing.T) {
	for s, want := range map[string]Strength{"weak": Weak, "Default": Default, "": Default, " strong": Strong} {
		if got, err := ParseStrength(s); err != nil || got != want {
			Te.Errorf("%q: expected %s, got %s (%v)", s, want, got, err)
		}
	}
	if _, err := ParseStrength("medium"); err == nil {
		Te.Error("medium is not a strength")
	}
}
