package geometry

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Options contains the settings of the geometry engine.
type Options struct {
	useSterics       bool
	bondDivisions    int
	angleDivisions   int
	torsionDivisions int
	bondSoftening    float64
	angleSoftening   float64
	verbose          bool
	writePDB         bool
	pdbPrefix        string
	extraTorsions    bool
	extraAngles      bool
}

// DefaultOptions returns the default settings: no sterics, 1000 bond bins, 180 angle
// bins and 360 torsion bins, and no softening.
func DefaultOptions() *Options {
	return &Options{
		bondDivisions:    1000,
		angleDivisions:   180,
		torsionDivisions: 360,
		bondSoftening:    1.0,
		angleSoftening:   1.0,
		pdbPrefix:        "geometry-proposal",
	}
}

// UseSterics returns whether nonbonded interactions are included when scanning torsions,
// and sets it to a new value, if given.
func (O *Options) UseSterics(use ...bool) bool {
	if len(use) > 0 {
		O.useSterics = use[0]
	}
	return O.useSterics
}

// Returns the number of bins for bond lengths,
// and sets it to a new value, if given.
func (O *Options) BondDivisions(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.bondDivisions = n[0]
	}
	return O.bondDivisions
}

// Returns the number of bins for angles,
// and sets it to a new value, if given.
func (O *Options) AngleDivisions(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.angleDivisions = n[0]
	}
	return O.angleDivisions
}

// Returns the number of bins for torsions,
// and sets it to a new value, if given.
func (O *Options) TorsionDivisions(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.torsionDivisions = n[0]
	}
	return O.torsionDivisions
}

// BondSoftening returns the factor that scales the bond force constants, and sets
// it to a new value, if given. Values below 1 broaden the bond length proposals.
func (O *Options) BondSoftening(s ...float64) float64 {
	if len(s) > 0 && s[0] > 0 {
		O.bondSoftening = s[0]
	}
	return O.bondSoftening
}

// AngleSoftening is like BondSoftening, for angles.
func (O *Options) AngleSoftening(s ...float64) float64 {
	if len(s) > 0 && s[0] > 0 {
		O.angleSoftening = s[0]
	}
	return O.angleSoftening
}

func (O *Options) Verbose(v ...bool) bool {
	if len(v) > 0 {
		O.verbose = v[0]
	}
	return O.verbose
}

// WriteProposalPDB returns whether the partial structures of each forward proposal are
// written to a PDB file, one model per placed atom, and sets it to a new value, if given.
func (O *Options) WriteProposalPDB(w ...bool) bool {
	if len(w) > 0 {
		O.writePDB = w[0]
	}
	return O.writePDB
}

// Returns the prefix for the names of the proposal PDB files,
// and sets it to a new value, if given.
func (O *Options) PDBPrefix(prefix ...string) string {
	if len(prefix) > 0 && prefix[0] != "" {
		O.pdbPrefix = prefix[0]
	}
	return O.pdbPrefix
}

// ExtraTorsions returns whether new ring atoms get torsion restraints to the reference
// geometry of the proposal, and sets it to a new value, if given.
func (O *Options) ExtraTorsions(e ...bool) bool {
	if len(e) > 0 {
		O.extraTorsions = e[0]
	}
	return O.extraTorsions
}

// ExtraAngles is like ExtraTorsions, for angles.
func (O *Options) ExtraAngles(e ...bool) bool {
	if len(e) > 0 {
		O.extraAngles = e[0]
	}
	return O.extraAngles
}

// yamlOptions mirrors Options for YAML files. Missing keys keep the defaults.
type yamlOptions struct {
	UseSterics       *bool    `yaml:"use_sterics"`
	BondDivisions    *int     `yaml:"n_bond_divisions"`
	AngleDivisions   *int     `yaml:"n_angle_divisions"`
	TorsionDivisions *int     `yaml:"n_torsion_divisions"`
	BondSoftening    *float64 `yaml:"bond_softening_constant"`
	AngleSoftening   *float64 `yaml:"angle_softening_constant"`
	Verbose          *bool    `yaml:"verbose"`
	WriteProposalPDB *bool    `yaml:"write_proposal_pdb"`
	PDBPrefix        *string  `yaml:"pdb_filename_prefix"`
	ExtraTorsions    *bool    `yaml:"use_extra_torsions"`
	ExtraAngles      *bool    `yaml:"use_extra_angles"`
}

// OptionsFromYAML reads the engine settings from a YAML document. Settings not
// present in the document take their default values. Divisions and softening
// constants must be positive.
func OptionsFromYAML(r io.Reader) (*Options, error) {
	var y yamlOptions
	if err := yaml.NewDecoder(r).Decode(&y); err != nil && err != io.EOF {
		return nil, NewError("Can't decode the geometry options", "OptionsFromYAML", err)
	}
	if err := y.check(); err != nil {
		return nil, err
	}
	return y.apply(DefaultOptions()), nil
}

func (y *yamlOptions) check() error {
	ints := map[string]*int{"n_bond_divisions": y.BondDivisions, "n_angle_divisions": y.AngleDivisions, "n_torsion_divisions": y.TorsionDivisions}
	for k, v := range ints {
		if v != nil && *v <= 0 {
			return NewError(fmt.Sprintf("%s must be positive, got %d", k, *v), "OptionsFromYAML")
		}
	}
	floats := map[string]*float64{"bond_softening_constant": y.BondSoftening, "angle_softening_constant": y.AngleSoftening}
	for k, v := range floats {
		if v != nil && !(*v > 0) {
			return NewError(fmt.Sprintf("%s must be positive, got %g", k, *v), "OptionsFromYAML")
		}
	}
	return nil
}

func (y *yamlOptions) apply(O *Options) *Options {
	if y.UseSterics != nil {
		O.UseSterics(*y.UseSterics)
	}
	if y.BondDivisions != nil {
		O.BondDivisions(*y.BondDivisions)
	}
	if y.AngleDivisions != nil {
		O.AngleDivisions(*y.AngleDivisions)
	}
	if y.TorsionDivisions != nil {
		O.TorsionDivisions(*y.TorsionDivisions)
	}
	if y.BondSoftening != nil {
		O.BondSoftening(*y.BondSoftening)
	}
	if y.AngleSoftening != nil {
		O.AngleSoftening(*y.AngleSoftening)
	}
	if y.Verbose != nil {
		O.Verbose(*y.Verbose)
	}
	if y.WriteProposalPDB != nil {
		O.WriteProposalPDB(*y.WriteProposalPDB)
	}
	if y.PDBPrefix != nil {
		O.PDBPrefix(*y.PDBPrefix)
	}
	if y.ExtraTorsions != nil {
		O.ExtraTorsions(*y.ExtraTorsions)
	}
	if y.ExtraAngles != nil {
		O.ExtraAngles(*y.ExtraAngles)
	}
	return O
}
