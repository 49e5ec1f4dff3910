package proposal

import (
	"fmt"
	"maps"
	"sort"

	"github.com/google/uuid"
	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/ff"
	"gonum.org/v1/gonum/spatial/r3"
)

// TopologyProposalArgs holds the data needed to build a TopologyProposal.
type TopologyProposalArgs struct {
	OldTopology         *chem.Topology
	NewTopology         *chem.Topology
	OldSystem           *ff.System
	NewSystem           *ff.System
	NewToOld            map[int]int //new atom index -> old atom index
	OldChemicalStateKey string
	NewChemicalStateKey string
	LogPProposal        float64
	Metadata            map[string]any
	// Reference positions, in nm, for atoms of the new and old topologies. Optional.
	// They restrain rings during the geometry proposal, so they must depend only on
	// the chemical identity of each molecule, and be built the same way for both.
	NewReferencePositions map[int]r3.Vec
	OldReferencePositions map[int]r3.Vec
}

// TopologyProposal is a proposed transformation between two chemical states, with
// the correspondence between the atoms of both. It can't be modified after creation:
// its accessors return copies of maps and slices. The topologies and systems are shared,
// and must not be modified either.
type TopologyProposal struct {
	id            uuid.UUID
	oldTop        *chem.Topology
	newTop        *chem.Topology
	oldSys        *ff.System
	newSys        *ff.System
	newToOld      map[int]int
	oldToNew      map[int]int
	uniqueNew     []int
	uniqueOld     []int
	oldKey        string
	newKey        string
	logp          float64
	metadata      map[string]any
	newReferences map[int]r3.Vec
	oldReferences map[int]r3.Vec
}

// NewTopologyProposal validates the arguments and returns a TopologyProposal. It
// fails if a chemical state key is missing, if the number of atoms of a topology and
// particles of its system differ, or if the atom map is not an injective map from new
// atom indexes to old atom indexes.
func NewTopologyProposal(A TopologyProposalArgs) (*TopologyProposal, error) {
	if A.OldChemicalStateKey == "" || A.NewChemicalStateKey == "" {
		return nil, NewError("Both chemical state keys must be set", "NewTopologyProposal")
	}
	if A.OldTopology == nil || A.NewTopology == nil || A.OldSystem == nil || A.NewSystem == nil {
		return nil, NewError("Topologies and systems can't be nil", "NewTopologyProposal")
	}
	nold, nnew := A.OldSystem.NParticles(), A.NewSystem.NParticles()
	if A.OldTopology.Len() != nold || A.NewTopology.Len() != nnew {
		return nil, NewError(fmt.Sprintf("Topologies (%d old, %d new atoms) and systems (%d old, %d new particles) don't match",
			A.OldTopology.Len(), A.NewTopology.Len(), nold, nnew), "NewTopologyProposal")
	}
	if err := ValidateAtomMap(A.NewToOld, nnew, nold); err != nil {
		return nil, errDecorate(err, "NewTopologyProposal")
	}
	T := &TopologyProposal{
		id:            uuid.New(),
		oldTop:        A.OldTopology,
		newTop:        A.NewTopology,
		oldSys:        A.OldSystem,
		newSys:        A.NewSystem,
		newToOld:      maps.Clone(A.NewToOld),
		oldKey:        A.OldChemicalStateKey,
		newKey:        A.NewChemicalStateKey,
		logp:          A.LogPProposal,
		metadata:      maps.Clone(A.Metadata),
		newReferences: maps.Clone(A.NewReferencePositions),
		oldReferences: maps.Clone(A.OldReferencePositions),
	}
	if T.newToOld == nil {
		T.newToOld = make(map[int]int)
	}
	if T.metadata == nil {
		T.metadata = make(map[string]any)
	}
	T.oldToNew = make(map[int]int, len(T.newToOld))
	for k, v := range T.newToOld {
		T.oldToNew[v] = k
	}
	T.uniqueNew = complement(T.newToOld, nnew)
	T.uniqueOld = complement(T.oldToNew, nold)
	return T, nil
}

// ValidateAtomMap returns an error if a key of newToOld is not in [0,nnew), a value not in
// [0,nold), or if two keys share a value.
func ValidateAtomMap(newToOld map[int]int, nnew, nold int) error {
	seen := make(map[int]int, len(newToOld))
	for _, k := range chem.SortedKeys(newToOld) {
		v := newToOld[k]
		if k < 0 || k >= nnew {
			return NewError(fmt.Sprintf("Atom map key %d out of range for the new system (%d particles)", k, nnew), "ValidateAtomMap")
		}
		if v < 0 || v >= nold {
			return NewError(fmt.Sprintf("Atom map value %d (key %d) out of range for the old system (%d particles)", v, k, nold), "ValidateAtomMap")
		}
		if prev, ok := seen[v]; ok {
			return NewError(fmt.Sprintf("Atom map is not injective: new atoms %d and %d map to old atom %d", prev, k, v), "ValidateAtomMap")
		}
		seen[v] = k
	}
	return nil
}

// complement returns, sorted, the integers in [0,n) that are not keys of m.
func complement(m map[int]int, n int) []int {
	ret := make([]int, 0, n-len(m))
	for i := 0; i < n; i++ {
		if _, ok := m[i]; !ok {
			ret = append(ret, i)
		}
	}
	sort.Ints(ret)
	return ret
}

// ID returns a unique identifier for the proposal.
func (T *TopologyProposal) ID() uuid.UUID { return T.id }

func (T *TopologyProposal) OldTopology() *chem.Topology { return T.oldTop }

func (T *TopologyProposal) NewTopology() *chem.Topology { return T.newTop }

func (T *TopologyProposal) OldSystem() *ff.System { return T.oldSys }

func (T *TopologyProposal) NewSystem() *ff.System { return T.newSys }

// NewToOldAtomMap returns a copy of the map from new atom indexes to old atom indexes.
func (T *TopologyProposal) NewToOldAtomMap() map[int]int { return maps.Clone(T.newToOld) }

// OldToNewAtomMap returns a copy of the inverse of the atom map.
func (T *TopologyProposal) OldToNewAtomMap() map[int]int { return maps.Clone(T.oldToNew) }

// UniqueNewAtoms returns, sorted, the indexes of the new atoms with no counterpart in the old system.
func (T *TopologyProposal) UniqueNewAtoms() []int { return append([]int(nil), T.uniqueNew...) }

// UniqueOldAtoms returns, sorted, the indexes of the old atoms with no counterpart in the new system.
func (T *TopologyProposal) UniqueOldAtoms() []int { return append([]int(nil), T.uniqueOld...) }

func (T *TopologyProposal) NAtomsNew() int { return T.newSys.NParticles() }

func (T *TopologyProposal) NAtomsOld() int { return T.oldSys.NParticles() }

func (T *TopologyProposal) OldChemicalStateKey() string { return T.oldKey }

func (T *TopologyProposal) NewChemicalStateKey() string { return T.newKey }

// LogPProposal returns the log-probability of having proposed the new chemical state,
// not including the proposal of coordinates.
func (T *TopologyProposal) LogPProposal() float64 { return T.logp }

// Metadata returns a shallow copy of the metadata of the proposal.
func (T *TopologyProposal) Metadata() map[string]any { return maps.Clone(T.metadata) }

// NewReferencePositions returns a copy of the reference positions for new atoms, if any.
func (T *TopologyProposal) NewReferencePositions() map[int]r3.Vec {
	return maps.Clone(T.newReferences)
}

// OldReferencePositions returns a copy of the reference positions for old atoms, if any.
func (T *TopologyProposal) OldReferencePositions() map[int]r3.Vec {
	return maps.Clone(T.oldReferences)
}

// Reverse returns the proposal of the old state from the new one, with the inverse
// atom map. The log-probability of the reverse proposal is given by logp.
func (T *TopologyProposal) Reverse(logp float64) (*TopologyProposal, error) {
	return NewTopologyProposal(TopologyProposalArgs{
		OldTopology:           T.newTop,
		NewTopology:           T.oldTop,
		OldSystem:             T.newSys,
		NewSystem:             T.oldSys,
		NewToOld:              T.oldToNew,
		OldChemicalStateKey:   T.newKey,
		NewChemicalStateKey:   T.oldKey,
		LogPProposal:          logp,
		Metadata:              T.metadata,
		NewReferencePositions: T.oldReferences,
		OldReferencePositions: T.newReferences,
	})
}
