package proposal

import (
	"log"
	"math/rand"
	"time"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/ff"
)

// Engine proposes new chemical states from the current one.
type Engine interface {
	// Propose returns a proposal of a new state, given the current system and topology.
	// metadata can be nil.
	Propose(system *ff.System, top *chem.Topology, metadata map[string]any) (*TopologyProposal, error)
	// ComputeStateKey returns the chemical state key of a topology.
	ComputeStateKey(top *chem.Topology) (string, error)
}

func newRand(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func logV(verbose bool, format string, v ...any) {
	if verbose {
		log.Printf("proposal: "+format, v...)
	}
}
