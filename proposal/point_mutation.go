package proposal

import (
	"fmt"
	"math/rand"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/ff"
	"github.com/rmera/gorjmc/templates"
)

// Mutation sets the residue with ID ResID to Name.
type Mutation struct {
	ResID int    `yaml:"resid"`
	Name  string `yaml:"name"`
}

// PointMutationConfig holds the settings of a PointMutationEngine. Either MaxPointMutants
// or AllowedMutations must be given. If AllowedMutations is given, MaxPointMutants
// and ResiduesAllowedToMutate are ignored.
type PointMutationConfig struct {
	Chain                   string       `yaml:"chain"`
	MaxPointMutants         int          `yaml:"max_point_mutants"`
	ResiduesAllowedToMutate []int        `yaml:"residues_allowed_to_mutate"` //residue IDs
	AllowedMutations        [][]Mutation `yaml:"allowed_mutations"`
	AlwaysChange            bool         `yaml:"always_change"`
	Verbose                 bool         `yaml:"verbose"`
}

// PointMutationEngine proposes mutations of the amino acids of one chain.
type PointMutationEngine struct {
	*polymerEngine
	maxPointMutants int
	allowedResidues map[int]bool
	allowed         [][]Mutation
	alwaysChange    bool
}

// NewPointMutationEngine returns an engine with the configuration C. lib, gen and rng
// can be nil, in which case the amino acid templates, a default SystemGenerator and a
// time-seeded source are used.
func NewPointMutationEngine(C PointMutationConfig, lib *templates.Library, gen *SystemGenerator, rng *rand.Rand) (*PointMutationEngine, error) {
	if C.MaxPointMutants <= 0 && len(C.AllowedMutations) == 0 {
		return nil, NewError("Must specify either max_point_mutants or allowed_mutations", "NewPointMutationEngine")
	}
	for _, set := range C.AllowedMutations {
		if len(set) == 0 {
			return nil, NewError("Empty set of allowed mutations", "NewPointMutationEngine")
		}
		for _, m := range set {
			if !isAminoAcid(m.Name) {
				return nil, NewError(fmt.Sprintf("Unknown amino acid %s in allowed mutations. Valid names are: %v", m.Name, templates.AminoAcidNames), "NewPointMutationEngine")
			}
		}
	}
	E := &PointMutationEngine{
		polymerEngine:   newPolymerEngine(C.Chain, lib, gen, rng, C.Verbose),
		maxPointMutants: C.MaxPointMutants,
		allowed:         C.AllowedMutations,
		alwaysChange:    C.AlwaysChange,
	}
	if len(C.ResiduesAllowedToMutate) > 0 {
		E.allowedResidues = make(map[int]bool, len(C.ResiduesAllowedToMutate))
		for _, v := range C.ResiduesAllowedToMutate {
			E.allowedResidues[v] = true
		}
	}
	return E, nil
}

// Propose returns a proposal of a mutant of the chain. The metadata of the proposal
// contains the labels of the mutations (WT-resid-MUT) under the key "mutations".
func (E *PointMutationEngine) Propose(system *ff.System, top *chem.Topology, metadata map[string]any) (*TopologyProposal, error) {
	if top == nil {
		return nil, NewError("Nil topology given", "PointMutationEngine.Propose")
	}
	chainres, err := E.chainResidues(top)
	if err != nil {
		return nil, errDecorate(err, "PointMutationEngine.Propose")
	}
	var mutations map[int]string
	if len(E.allowed) > 0 {
		mutations, err = E.chooseAllowed(chainres)
	} else {
		mutations, err = E.choosePoint(chainres)
	}
	if err != nil {
		return nil, errDecorate(err, "PointMutationEngine.Propose")
	}
	return E.propose(system, top, metadata, mutations, mutationLabels(chainres, mutations))
}

// chooseAllowed chooses uniformly one of the allowed sets of mutations. If the engine
// always changes the sequence, sets that would leave it unchanged are not considered.
func (E *PointMutationEngine) chooseAllowed(chainres []*chem.Residue) (map[int]string, error) {
	position := make(map[int]int, len(chainres))
	for k, r := range chainres {
		position[r.ID] = k
	}
	candidates := make([]int, 0, len(E.allowed))
	for k, set := range E.allowed {
		same := true
		for _, m := range set {
			p, ok := position[m.ResID]
			if !ok {
				return nil, NewError(fmt.Sprintf("Residue %d not found in chain '%s'", m.ResID, E.chain), "chooseAllowed")
			}
			if templates.Generic(chainres[p].Name) != templates.Generic(m.Name) {
				same = false
			}
		}
		if !same || !E.alwaysChange {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return nil, NewError("All the allowed mutations leave the sequence unchanged", "chooseAllowed")
	}
	set := E.allowed[candidates[E.rng.Intn(len(candidates))]]
	ret := make(map[int]string, len(set))
	for _, m := range set {
		name := m.Name
		if name == "HIS" {
			name = templates.Histidine(E.rng)
		}
		ret[position[m.ResID]] = name
	}
	return ret, nil
}

// choosePoint chooses maxPointMutants distinct positions among the mutable residues, and
// for each, an amino acid different from the current one.
func (E *PointMutationEngine) choosePoint(chainres []*chem.Residue) (map[int]string, error) {
	mutable := make([]int, 0, len(chainres))
	for k, r := range chainres {
		if !isAminoAcid(r.Name) {
			continue
		}
		if E.allowedResidues != nil && !E.allowedResidues[r.ID] {
			continue
		}
		mutable = append(mutable, k)
	}
	if len(mutable) < E.maxPointMutants {
		return nil, NewError(fmt.Sprintf("Can't make %d point mutations with %d mutable residues in chain '%s'", E.maxPointMutants, len(mutable), E.chain), "choosePoint")
	}
	ret := make(map[int]string, E.maxPointMutants)
	for _, k := range E.rng.Perm(len(mutable))[:E.maxPointMutants] {
		pos := mutable[k]
		current := templates.Generic(chainres[pos].Name)
		options := make([]string, 0, len(templates.AminoAcidNames)-1)
		for _, v := range templates.AminoAcidNames {
			if v != current {
				options = append(options, v)
			}
		}
		name := options[E.rng.Intn(len(options))]
		if name == "HIS" {
			name = templates.Histidine(E.rng)
		}
		ret[pos] = name
	}
	return ret, nil
}
