package proposal

import (
	"fmt"
	"math/rand"
	"strings"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/ff"
	"github.com/rmera/gorjmc/templates"
)

// PeptideLibraryEngine proposes one of a library of sequences for the amino acids of a chain.
type PeptideLibraryEngine struct {
	*polymerEngine
	library []string
}

// NewPeptideLibraryEngine returns an engine that chooses uniformly among the sequences in
// library, given as one-letter codes. Capping groups in the chain are not part of the
// sequences. lib, gen and rng can be nil, as in NewPointMutationEngine.
func NewPeptideLibraryEngine(chain string, library []string, lib *templates.Library, gen *SystemGenerator, rng *rand.Rand, verbose bool) (*PeptideLibraryEngine, error) {
	if len(library) == 0 {
		return nil, NewError("Empty peptide library", "NewPeptideLibraryEngine")
	}
	seqs := make([]string, 0, len(library))
	for _, s := range library {
		s = strings.ToUpper(strings.TrimSpace(s))
		for i := 0; i < len(s); i++ {
			if _, err := templates.ThreeLetter(s[i]); err != nil {
				return nil, NewError(fmt.Sprintf("Invalid sequence %s in peptide library", s), "NewPeptideLibraryEngine", err)
			}
		}
		seqs = append(seqs, s)
	}
	return &PeptideLibraryEngine{polymerEngine: newPolymerEngine(chain, lib, gen, rng, verbose), library: seqs}, nil
}

// Propose returns a proposal of a sequence of the library. Only the positions where the
// sequence differs from the current one are mutated.
func (E *PeptideLibraryEngine) Propose(system *ff.System, top *chem.Topology, metadata map[string]any) (*TopologyProposal, error) {
	if top == nil {
		return nil, NewError("Nil topology given", "PeptideLibraryEngine.Propose")
	}
	chainres, err := E.chainResidues(top)
	if err != nil {
		return nil, errDecorate(err, "PeptideLibraryEngine.Propose")
	}
	positions := make([]int, 0, len(chainres))
	for k, r := range chainres {
		if isAminoAcid(r.Name) {
			positions = append(positions, k)
		}
	}
	seq := E.library[E.rng.Intn(len(E.library))]
	if len(seq) != len(positions) {
		return nil, NewError(fmt.Sprintf("Sequence %s has %d residues, chain '%s' has %d amino acids", seq, len(seq), E.chain, len(positions)), "PeptideLibraryEngine.Propose")
	}
	mutations := make(map[int]string)
	for k, pos := range positions {
		name, _ := templates.ThreeLetter(seq[k])
		if name == templates.Generic(chainres[pos].Name) {
			continue
		}
		if name == "HIS" {
			name = templates.Histidine(E.rng)
		}
		mutations[pos] = name
	}
	return E.propose(system, top, metadata, mutations, mutationLabels(chainres, mutations))
}
