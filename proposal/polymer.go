package proposal

import (
	"fmt"
	"maps"
	"math/rand"
	"sort"
	"strings"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/ff"
	"github.com/rmera/gorjmc/templates"
)

// polymerEngine edits residues of one chain of a polymer, following residue templates.
// It is the shared part of the point mutation and peptide library engines.
type polymerEngine struct {
	chain     string
	templates *templates.Library
	generator *SystemGenerator
	rng       *rand.Rand
	verbose   bool
}

func newPolymerEngine(chain string, lib *templates.Library, gen *SystemGenerator, rng *rand.Rand, verbose bool) *polymerEngine {
	if lib == nil {
		lib = templates.AminoAcids()
	}
	if gen == nil {
		gen = NewSystemGenerator(nil)
	}
	return &polymerEngine{chain: chain, templates: lib, generator: gen, rng: newRand(rng), verbose: verbose}
}

// polymerStateKey returns the names of the residues of top, joined with '-'.
func polymerStateKey(top *chem.Topology) string {
	res := top.Residues()
	names := make([]string, 0, len(res))
	for _, r := range res {
		names = append(names, r.Name)
	}
	return strings.Join(names, "-")
}

// ComputeStateKey returns the names of the residues of top, in order, joined with '-'.
func (P *polymerEngine) ComputeStateKey(top *chem.Topology) (string, error) {
	if top == nil || top.Len() == 0 {
		return "", NewError("Empty topology", "ComputeStateKey")
	}
	return polymerStateKey(top), nil
}

// chainResidues returns the residues of the engine's chain in top.
func (P *polymerEngine) chainResidues(top *chem.Topology) ([]*chem.Residue, error) {
	res := top.ChainResidues(P.chain)
	if len(res) == 0 {
		chains := top.Chains()
		quoted := make([]string, 0, len(chains))
		for _, c := range chains {
			quoted = append(quoted, "'"+c+"'")
		}
		return nil, NewError(fmt.Sprintf("Chain '%s' not found in Topology. Chains present are: [%s]", P.chain, strings.Join(quoted, ", ")), "chainResidues")
	}
	return res, nil
}

// isAminoAcid returns true if the residue name is one of the standard amino acids,
// or a protonation variant of one.
func isAminoAcid(name string) bool {
	name = templates.Generic(name)
	for _, v := range templates.AminoAcidNames {
		if v == name {
			return true
		}
	}
	return false
}

type residueEdit struct {
	name     string
	template *templates.Template
}

// edit returns a copy of top where the residues of the chain at the positions given as
// keys of mutations (0-based, in chain order) are replaced by the residues named by the
// values. It also returns the map from atoms of the new topology to atoms of top.
func (P *polymerEngine) edit(top *chem.Topology, mutations map[int]string) (*chem.Topology, map[int]int, error) {
	top.FillIndexes()
	chainres, err := P.chainResidues(top)
	if err != nil {
		return nil, nil, errDecorate(err, "edit")
	}
	edits := make(map[int]residueEdit) //keyed by the first atom of the residue
	for pos, name := range mutations {
		if pos < 0 || pos >= len(chainres) {
			return nil, nil, NewError(fmt.Sprintf("Residue position %d out of range for chain '%s' (%d residues)", pos, P.chain, len(chainres)), "edit")
		}
		t, err := P.templates.Lookup(name, pos == 0, pos == len(chainres)-1)
		if err != nil {
			return nil, nil, errDecorate(err, "edit")
		}
		edits[chainres[pos].Atoms[0]] = residueEdit{name: name, template: t}
	}
	newtop := chem.NewTopology(0, top.Unpaired())
	newindex := make(map[int]int, top.Len())
	byname := make(map[int]map[string]int) //new atom indexes by name, for each edited residue
	residueOf := make(map[int]int, top.Len())
	charge := top.Charge()
	for _, r := range top.Residues() {
		for _, i := range r.Atoms {
			residueOf[i] = r.Atoms[0]
		}
		e, ok := edits[r.Atoms[0]]
		if !ok {
			for _, i := range r.Atoms {
				at := top.Atom(i).Copy()
				at.OldIndex = i
				newindex[i] = newtop.AddAtom(at)
			}
			continue
		}
		t := e.template
		names := make(map[string]int, len(t.Atoms))
		byname[r.Atoms[0]] = names
		for _, i := range r.Atoms {
			old := top.Atom(i)
			charge -= old.Formal
			k := t.Index(old.Name)
			if k < 0 || t.Atoms[k].Symbol != old.Symbol {
				logV(P.verbose, "removing atom %s", old)
				continue
			}
			at := old.Copy()
			at.OldIndex = i
			at.MolName = e.name
			at.Formal = t.Atoms[k].Formal
			at.Charge = float64(at.Formal)
			newindex[i] = newtop.AddAtom(at)
			names[at.Name] = newindex[i]
		}
		for _, ta := range t.Atoms {
			if _, ok := names[ta.Name]; ok {
				continue
			}
			m, ok := chem.Mass(ta.Symbol)
			if !ok {
				return nil, nil, NewError(fmt.Sprintf("Unknown element %s in template %s", ta.Symbol, t.Name), "edit")
			}
			at := &chem.Atom{Name: ta.Name, Symbol: ta.Symbol, MolName: e.name, MolID: r.ID, Chain: r.Chain,
				Mass: m, Formal: ta.Formal, Charge: float64(ta.Formal), OldIndex: -1}
			names[ta.Name] = newtop.AddAtom(at)
		}
		for _, ta := range t.Atoms {
			charge += ta.Formal
		}
	}
	for _, b := range top.Bonds {
		i, j := b.At1.Index(), b.At2.Index()
		ni, ok1 := newindex[i]
		nj, ok2 := newindex[j]
		if !ok1 || !ok2 {
			continue
		}
		order := b.Order
		if residueOf[i] == residueOf[j] {
			if e, ok := edits[residueOf[i]]; ok {
				tb, ok := e.template.Bond(b.At1.Name, b.At2.Name)
				if !ok {
					logV(P.verbose, "removing bond %s-%s", b.At1, b.At2)
					continue
				}
				order = tb.Order
			}
		}
		newtop.AddBond(ni, nj, order)
	}
	for first, e := range edits {
		names := byname[first]
		for _, tb := range e.template.Bonds {
			newtop.AddBond(names[tb.A], names[tb.B], tb.Order)
		}
	}
	newtop.SetCharge(charge)
	newToOld := make(map[int]int, newtop.Len())
	for k, at := range newtop.Atoms {
		at.ID = k + 1
		if at.OldIndex >= 0 {
			newToOld[k] = at.OldIndex
		}
	}
	return newtop, newToOld, nil
}

// propose builds the proposal for the given mutations of the chain.
func (P *polymerEngine) propose(system *ff.System, top *chem.Topology, metadata map[string]any, mutations map[int]string, labels []string) (*TopologyProposal, error) {
	if system == nil || top == nil {
		return nil, NewError("Nil system or topology given", "propose")
	}
	newtop, newToOld, err := P.edit(top, mutations)
	if err != nil {
		return nil, errDecorate(err, "propose")
	}
	newsys, err := P.generator.BuildSystem(newtop)
	if err != nil {
		return nil, errDecorate(err, "propose")
	}
	md := maps.Clone(metadata)
	if md == nil {
		md = make(map[string]any)
	}
	md["mutations"] = labels
	tp, err := NewTopologyProposal(TopologyProposalArgs{
		OldTopology:         top,
		NewTopology:         newtop,
		OldSystem:           system,
		NewSystem:           newsys,
		NewToOld:            newToOld,
		OldChemicalStateKey: polymerStateKey(top),
		NewChemicalStateKey: polymerStateKey(newtop),
		LogPProposal:        0,
		Metadata:            md,
	})
	if err != nil {
		return nil, errDecorate(err, "propose")
	}
	logV(P.verbose, "%s -> %s, mutations %v", tp.OldChemicalStateKey(), tp.NewChemicalStateKey(), labels)
	return tp, nil
}

// mutationLabels returns the WT-resid-MUT labels for the mutations, in chain order.
func mutationLabels(chainres []*chem.Residue, mutations map[int]string) []string {
	pos := make([]int, 0, len(mutations))
	for k := range mutations {
		pos = append(pos, k)
	}
	sort.Ints(pos)
	ret := make([]string, 0, len(pos))
	for _, p := range pos {
		ret = append(ret, fmt.Sprintf("%s-%d-%s", chainres[p].Name, chainres[p].ID, mutations[p]))
	}
	return ret
}
