package proposal

import (
	"fmt"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/ff"
)

// SystemGenerator builds the systems for the topologies proposed by the engines.
type SystemGenerator struct {
	generator ff.Parameterizer
}

// NewSystemGenerator returns a SystemGenerator that uses p to parameterize topologies.
// If p is nil, a default ff.Generator is used.
func NewSystemGenerator(p ff.Parameterizer) *SystemGenerator {
	if p == nil {
		p = ff.NewGenerator()
	}
	return &SystemGenerator{generator: p}
}

// Parameterizer returns the parameterizer used to build the systems.
func (G *SystemGenerator) Parameterizer() ff.Parameterizer {
	return G.generator
}

// BuildSystem returns the system for top. When the parameterization fails, the
// error names the first residue that can't be parameterized on its own.
func (G *SystemGenerator) BuildSystem(top *chem.Topology) (*ff.System, error) {
	S, err := G.generator.Parameterize(top)
	if err == nil {
		return S, nil
	}
	for _, r := range top.Residues() {
		sub, err2 := top.SomeAtoms(r.Atoms)
		if err2 != nil {
			continue
		}
		if _, err2 := G.generator.Parameterize(sub); err2 != nil {
			return nil, NewError(fmt.Sprintf("Can't parameterize residue %s %d of chain '%s'", r.Name, r.ID, r.Chain), "SystemGenerator.BuildSystem", err2)
		}
	}
	return nil, NewError("Can't parameterize topology", "SystemGenerator.BuildSystem", err)
}
