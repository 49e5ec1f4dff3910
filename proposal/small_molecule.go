package proposal

import (
	"fmt"
	"maps"
	"math/rand"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/ff"
	"github.com/rmera/gorjmc/mcs"
	"github.com/rmera/gorjmc/smiles"
	"gonum.org/v1/gonum/spatial/r3"
)

// SmallMoleculeConfig holds the settings of a SmallMoleculeSetProposalEngine.
type SmallMoleculeConfig struct {
	Smiles            []string `yaml:"smiles"`
	ResidueName       string   `yaml:"residue_name"` //MOL by default
	MapStrength       string   `yaml:"map_strength"` //weak, default or strong
	AllowRingBreaking bool     `yaml:"allow_ring_breaking"`
	Verbose           bool     `yaml:"verbose"`
}

// SmallMoleculeSetProposalEngine proposes small molecules from a set, in place of
// the residue that holds the current molecule. The molecules are built from their isomeric
// canonical SMILES, and the chemical state keys are the canonical SMILES of their graphs,
// which is what a topology can tell apart.
type SmallMoleculeSetProposalEngine struct {
	smiles    []string
	keys      []string //state key of each molecule
	resname   string
	mapper    *mcs.Mapper
	generator *SystemGenerator
	rng       *rand.Rand
	verbose   bool
	two       bool
}

// NewSmallMoleculeSetProposalEngine returns an engine for the molecules in C.Smiles, which are
// canonicalized and deduplicated. gen and rng can be nil.
func NewSmallMoleculeSetProposalEngine(C SmallMoleculeConfig, gen *SystemGenerator, rng *rand.Rand) (*SmallMoleculeSetProposalEngine, error) {
	strength, err := mcs.ParseStrength(C.MapStrength)
	if err != nil {
		return nil, errDecorate(err, "NewSmallMoleculeSetProposalEngine")
	}
	E := &SmallMoleculeSetProposalEngine{
		resname:   C.ResidueName,
		mapper:    &mcs.Mapper{Strength: strength, AllowRingBreaking: C.AllowRingBreaking, Verbose: C.Verbose},
		generator: gen,
		rng:       newRand(rng),
		verbose:   C.Verbose,
	}
	if E.resname == "" {
		E.resname = "MOL"
	}
	if E.generator == nil {
		E.generator = NewSystemGenerator(nil)
	}
	seen := make(map[string]bool)
	graphs := make(map[string]string)
	for _, s := range C.Smiles {
		c, err := smiles.Canonical(s)
		if err != nil {
			return nil, NewError(fmt.Sprintf("Invalid SMILES %s", s), "NewSmallMoleculeSetProposalEngine", err)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		key, _ := smiles.CanonicalGraph(c)
		if other, ok := graphs[key]; ok {
			return nil, NewError(fmt.Sprintf("%s and %s are stereoisomers, which have the same topology", other, c), "NewSmallMoleculeSetProposalEngine")
		}
		graphs[key] = c
		E.smiles = append(E.smiles, c)
		E.keys = append(E.keys, key)
	}
	if len(E.smiles) == 0 {
		return nil, NewError("No molecules given", "NewSmallMoleculeSetProposalEngine")
	}
	return E, nil
}

// NewTwoMoleculeSetProposalEngine returns a SmallMoleculeSetProposalEngine for exactly two
// molecules, that always proposes the molecule that is not the current one.
func NewTwoMoleculeSetProposalEngine(C SmallMoleculeConfig, gen *SystemGenerator, rng *rand.Rand) (*SmallMoleculeSetProposalEngine, error) {
	E, err := NewSmallMoleculeSetProposalEngine(C, gen, rng)
	if err != nil {
		return nil, errDecorate(err, "NewTwoMoleculeSetProposalEngine")
	}
	if len(E.smiles) != 2 {
		return nil, NewError(fmt.Sprintf("Exactly two different molecules are needed, got %d", len(E.smiles)), "NewTwoMoleculeSetProposalEngine")
	}
	E.two = true
	return E, nil
}

// Smiles returns the isomeric canonical SMILES of the molecules of the engine.
func (E *SmallMoleculeSetProposalEngine) Smiles() []string {
	return append([]string(nil), E.smiles...)
}

// molResidue returns the only residue of top with the engine's residue name.
func (E *SmallMoleculeSetProposalEngine) molResidue(top *chem.Topology) (*chem.Residue, error) {
	var ret *chem.Residue
	for _, r := range top.Residues() {
		if r.Name != E.resname {
			continue
		}
		if ret != nil {
			return nil, NewError(fmt.Sprintf("More than one residue named %s in the topology", E.resname), "molResidue")
		}
		ret = r
	}
	if ret == nil {
		return nil, NewError(fmt.Sprintf("No residue named %s in the topology", E.resname), "molResidue")
	}
	return ret, nil
}

func residueSmiles(top *chem.Topology, atoms []int) (string, error) {
	M, _, err := smiles.FromTopology(top, atoms)
	if err != nil {
		return "", err
	}
	return M.CanonicalGraph(), nil
}

// ComputeStateKey returns the canonical SMILES of the molecule residue of top.
func (E *SmallMoleculeSetProposalEngine) ComputeStateKey(top *chem.Topology) (string, error) {
	r, err := E.molResidue(top)
	if err != nil {
		return "", errDecorate(err, "ComputeStateKey")
	}
	key, err := residueSmiles(top, r.Atoms)
	if err != nil {
		return "", errDecorate(err, "ComputeStateKey")
	}
	return key, nil
}

// choose returns the index of the proposed molecule, and the log-probability of the choice,
// which is 0, as the choice is symmetric.
func (E *SmallMoleculeSetProposalEngine) choose(current string) (int, float64, error) {
	if !E.two {
		return E.rng.Intn(len(E.smiles)), 0, nil
	}
	switch current {
	case E.keys[0]:
		return 1, 0, nil
	case E.keys[1]:
		return 0, 0, nil
	}
	return -1, 0, NewError(fmt.Sprintf("Current molecule %s is not one of %v", current, E.keys), "choose")
}

// Propose replaces the molecule residue of top by a molecule of the set. The new topology
// has the receptor (every other residue) first, followed by the new molecule.
// The proposal carries reference positions for the old and the new molecule.
func (E *SmallMoleculeSetProposalEngine) Propose(system *ff.System, top *chem.Topology, metadata map[string]any) (*TopologyProposal, error) {
	if system == nil || top == nil {
		return nil, NewError("Nil system or topology given", "SmallMoleculeSetProposalEngine.Propose")
	}
	top.FillIndexes()
	res, err := E.molResidue(top)
	if err != nil {
		return nil, errDecorate(err, "SmallMoleculeSetProposalEngine.Propose")
	}
	oldKey, err := residueSmiles(top, res.Atoms)
	if err != nil {
		return nil, errDecorate(err, "SmallMoleculeSetProposalEngine.Propose")
	}
	chosen, logp, err := E.choose(oldKey)
	if err != nil {
		return nil, errDecorate(err, "SmallMoleculeSetProposalEngine.Propose")
	}
	newSmiles, newKey := E.smiles[chosen], E.keys[chosen]
	M, err := smiles.Parse(newSmiles)
	if err != nil {
		return nil, errDecorate(err, "SmallMoleculeSetProposalEngine.Propose")
	}
	mol, err := M.Topology(E.resname, res.ID, res.Chain)
	if err != nil {
		return nil, errDecorate(err, "SmallMoleculeSetProposalEngine.Propose")
	}
	inres := make(map[int]bool, len(res.Atoms))
	for _, v := range res.Atoms {
		inres[v] = true
	}
	receptor := make([]int, 0, top.Len()-len(res.Atoms))
	for i := 0; i < top.Len(); i++ {
		if !inres[i] {
			receptor = append(receptor, i)
		}
	}
	newtop, err := top.SomeAtoms(receptor)
	if err != nil {
		return nil, errDecorate(err, "SmallMoleculeSetProposalEngine.Propose")
	}
	start := newtop.Len()
	for _, at := range mol.Atoms {
		newtop.AddAtom(at.Copy())
	}
	for _, b := range mol.Bonds {
		newtop.AddBond(b.At1.Index()+start, b.At2.Index()+start, b.Order)
	}
	for k, at := range newtop.Atoms {
		at.ID = k + 1
	}
	newtop.SetCharge(top.Charge() - residueFormal(top, res.Atoms) + mol.Charge())
	newsys, err := E.generator.BuildSystem(newtop)
	if err != nil {
		return nil, errDecorate(err, "SmallMoleculeSetProposalEngine.Propose")
	}
	molatoms := make([]int, mol.Len())
	for k := range molatoms {
		molatoms[k] = k + start
	}
	if check, err := residueSmiles(newtop, molatoms); err != nil || check != newKey {
		return nil, NewError(fmt.Sprintf("The new topology has SMILES %s, expected %s", check, newKey), "SmallMoleculeSetProposalEngine.Propose", err)
	}
	newToOld, maplogp, err := E.mapper.Map(top, res.Atoms, newtop, molatoms, E.rng)
	if err != nil {
		return nil, errDecorate(err, "SmallMoleculeSetProposalEngine.Propose")
	}
	for k := 0; k < start; k++ {
		newToOld[k] = newtop.Atom(k).OldIndex
	}
	newrefs, err := ReferencePositions(newtop, molatoms)
	if err != nil {
		return nil, errDecorate(err, "SmallMoleculeSetProposalEngine.Propose")
	}
	oldrefs, err := ReferencePositions(top, res.Atoms)
	if err != nil {
		return nil, errDecorate(err, "SmallMoleculeSetProposalEngine.Propose")
	}
	md := maps.Clone(metadata)
	if md == nil {
		md = make(map[string]any)
	}
	md["old_smiles"] = oldKey
	md["new_smiles"] = newSmiles
	tp, err := NewTopologyProposal(TopologyProposalArgs{
		OldTopology:           top,
		NewTopology:           newtop,
		OldSystem:             system,
		NewSystem:             newsys,
		NewToOld:              newToOld,
		OldChemicalStateKey:   oldKey,
		NewChemicalStateKey:   newKey,
		LogPProposal:          logp + maplogp,
		Metadata:              md,
		NewReferencePositions: newrefs,
		OldReferencePositions: oldrefs,
	})
	if err != nil {
		return nil, errDecorate(err, "SmallMoleculeSetProposalEngine.Propose")
	}
	logV(E.verbose, "%s -> %s, %d atoms mapped, logp %.3f", oldKey, newKey, len(newToOld)-start, tp.LogPProposal())
	return tp, nil
}

// referenceSeed seeds the embedding of reference positions, so they are a function
// of the molecule alone.
const referenceSeed = 1

// ReferencePositions returns 3-D positions, in nm, for the molecule formed by the atoms
// of top, keyed by atom index. The embedding uses a fixed random seed, so the same molecule,
// with its atoms in the same order, always gets the same positions.
func ReferencePositions(top *chem.Topology, atoms []int) (map[int]r3.Vec, error) {
	sub, err := top.SomeAtoms(atoms)
	if err != nil {
		return nil, errDecorate(err, "ReferencePositions")
	}
	coords, err := smiles.Embed(sub, nil, rand.New(rand.NewSource(referenceSeed)))
	if err != nil {
		return nil, errDecorate(err, "ReferencePositions")
	}
	ret := make(map[int]r3.Vec, len(atoms))
	for k, v := range atoms {
		ret[v] = coords.Vec(k)
	}
	return ret, nil
}

func residueFormal(top *chem.Topology, atoms []int) int {
	var ret int
	for _, v := range atoms {
		ret += top.Atom(v).Formal
	}
	return ret
}
