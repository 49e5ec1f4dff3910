package proposal

import (
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/rmera/gorjmc/templates"
	"gopkg.in/yaml.v3"
)

// PeptideLibraryConfig holds the settings of a PeptideLibraryEngine.
type PeptideLibraryConfig struct {
	Chain   string   `yaml:"chain"`
	Library []string `yaml:"library"`
	Verbose bool     `yaml:"verbose"`
}

// Config selects and configures a proposal engine. Engine is one of point_mutation,
// peptide_library, small_molecule or two_molecule, and the section with the same
// name (small_molecule for two_molecule) holds its settings. A Seed of 0 means a
// time-seeded random source.
type Config struct {
	Engine         string                `yaml:"engine"`
	Seed           int64                 `yaml:"seed"`
	PointMutation  *PointMutationConfig  `yaml:"point_mutation"`
	PeptideLibrary *PeptideLibraryConfig `yaml:"peptide_library"`
	SmallMolecule  *SmallMoleculeConfig  `yaml:"small_molecule"`
}

var engineNames = []string{"point_mutation", "peptide_library", "small_molecule", "two_molecule"}

// LoadConfig reads an engine configuration in YAML format.
func LoadConfig(r io.Reader) (*Config, error) {
	C := new(Config)
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(C); err != nil {
		return nil, NewError("Can't decode engine configuration", "LoadConfig", err)
	}
	C.Engine = strings.ToLower(strings.TrimSpace(C.Engine))
	if err := C.check(); err != nil {
		return nil, errDecorate(err, "LoadConfig")
	}
	return C, nil
}

func (C *Config) check() error {
	var ok bool
	switch C.Engine {
	case "point_mutation":
		ok = C.PointMutation != nil
	case "peptide_library":
		ok = C.PeptideLibrary != nil
	case "small_molecule", "two_molecule":
		ok = C.SmallMolecule != nil
	default:
		return NewError(fmt.Sprintf("Unknown engine '%s'. Valid engines are: %v", C.Engine, engineNames), "Config.check")
	}
	if !ok {
		return NewError(fmt.Sprintf("No settings given for engine %s", C.Engine), "Config.check")
	}
	return nil
}

// NewEngine builds the engine described by the configuration. gen can be nil.
func (C *Config) NewEngine(gen *SystemGenerator) (Engine, error) {
	if err := C.check(); err != nil {
		return nil, errDecorate(err, "Config.NewEngine")
	}
	var rng *rand.Rand
	if C.Seed != 0 {
		rng = rand.New(rand.NewSource(C.Seed))
	}
	var E Engine
	var err error
	switch C.Engine {
	case "point_mutation":
		E, err = NewPointMutationEngine(*C.PointMutation, templates.AminoAcids(), gen, rng)
	case "peptide_library":
		P := C.PeptideLibrary
		E, err = NewPeptideLibraryEngine(P.Chain, P.Library, templates.AminoAcids(), gen, rng, P.Verbose)
	case "small_molecule":
		E, err = NewSmallMoleculeSetProposalEngine(*C.SmallMolecule, gen, rng)
	case "two_molecule":
		E, err = NewTwoMoleculeSetProposalEngine(*C.SmallMolecule, gen, rng)
	}
	if err != nil {
		return nil, errDecorate(err, "Config.NewEngine")
	}
	return E, nil
}
