/*
 * main.go, part of gorjmc
 *
 *  This program is free software; you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation; either version 2.1 of the License, or
 *  (at your option) any later version.
 *
 *  This program is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 *  GNU General Public License for more details.
 *
 *  You should have received a copy of the GNU Lesser General Public License
 *  along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

/*To the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche*/

// rjmc runs a reversible-jump Monte Carlo chain over a set of small molecules in vacuum.
// Each step proposes a new molecule, places its new atoms with the geometry engine, and
// accepts or rejects the move with the Metropolis-Hastings criterion.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/ff"
	"github.com/rmera/gorjmc/geometry"
	"github.com/rmera/gorjmc/proposal"
	"github.com/rmera/gorjmc/smiles"
	"github.com/rmera/gorjmc/stf"
	v3 "github.com/rmera/gorjmc/v3"
)

var verb int

// If level is larger or equal, prints the d arguments to stderr
// otherwise, does nothing.
func LogV(level int, d ...interface{}) {
	if level <= verb {
		fmt.Fprintln(os.Stderr, d...)
	}
}

// If level is larger or equal, prints the d arguments to stdout
// otherwise, does nothing.
func PrintV(level int, d ...interface{}) {
	if level <= verb {
		fmt.Println(d...)
	}
}

// settings holds everything a run needs.
type settings struct {
	smiles      []string
	config      *proposal.Config
	geom        *geometry.Options
	steps       int
	temperature float64
	seed        int64
	stfname     string
	plot        string
	out         string
	itp         string
}

func main() {
	conf := flag.String("config", "", "YAML file with the proposal engine settings. It must use the small_molecule or two_molecule engine. If not given, the SMILES in the arguments are used")
	geom := flag.String("geom", "", "YAML file with the geometry engine settings")
	steps := flag.Int("n", 10, "Number of Monte Carlo steps")
	temp := flag.Float64("T", 300, "Temperature, in K")
	seed := flag.Int64("seed", 0, "Seed for the random numbers. 0 means a time-dependent seed")
	stfname := flag.String("stf", "", "File where the records of each geometry proposal are stored")
	plot := flag.String("plot", "", "Prefix for the plots of the torsion distributions and the sampled torsions")
	out := flag.String("out", "", "PDB file where the last accepted structure of each step is written")
	itp := flag.String("itp", "", "Gromacs topology with parameters for some of the molecules. Residues not in it are parameterized with the default generator")
	verbose := flag.Int("v", 1, "Level of verbosity")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage:\n  %s: [flags] SMILES1 SMILES2 ...\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	verb = *verbose
	S := &settings{smiles: flag.Args(), steps: *steps, temperature: *temp, seed: *seed, stfname: *stfname, plot: *plot, out: *out, itp: *itp}
	if *conf != "" {
		f, err := os.Open(*conf)
		if err != nil {
			log.Fatal(err)
		}
		S.config, err = proposal.LoadConfig(f)
		f.Close()
		if err != nil {
			log.Fatal(err)
		}
	}
	if *geom != "" {
		f, err := os.Open(*geom)
		if err != nil {
			log.Fatal(err)
		}
		S.geom, err = geometry.OptionsFromYAML(f)
		f.Close()
		if err != nil {
			log.Fatal(err)
		}
	}
	if _, err := run(S); err != nil {
		log.Fatal(err)
	}
}

// engineConfig returns the engine configuration for the run, from the configuration
// file if given, or from the SMILES otherwise.
func engineConfig(S *settings) (*proposal.Config, error) {
	if S.config != nil {
		C := S.config
		if C.Engine != "small_molecule" && C.Engine != "two_molecule" {
			return nil, fmt.Errorf("rjmc only runs the small_molecule and two_molecule engines, got %s", C.Engine)
		}
		if C.Seed == 0 {
			C.Seed = S.seed
		}
		return C, nil
	}
	if len(S.smiles) < 2 {
		return nil, fmt.Errorf("At least two SMILES are needed, got %d", len(S.smiles))
	}
	C := &proposal.Config{Engine: "small_molecule", Seed: S.seed, SmallMolecule: &proposal.SmallMoleculeConfig{Smiles: S.smiles}}
	if len(S.smiles) == 2 {
		C.Engine = "two_molecule"
	}
	return C, nil
}

// summary counts the outcomes of the steps of a run.
type summary struct {
	accepted int
	rejected int
	failed   int //proposals that could not be completed, counted as rejected too.
}

func run(S *settings) (*summary, error) {
	C, err := engineConfig(S)
	if err != nil {
		return nil, err
	}
	if S.seed == 0 {
		S.seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(S.seed))
	gen := proposal.NewSystemGenerator(nil)
	if S.itp != "" {
		itpgen, err := ff.NewGromacsParameterizer(S.itp, gen.Parameterizer())
		if err != nil {
			return nil, err
		}
		gen = proposal.NewSystemGenerator(itpgen)
	}
	E, err := C.NewEngine(gen)
	if err != nil {
		return nil, err
	}
	resname := C.SmallMolecule.ResidueName
	if resname == "" {
		resname = "MOL"
	}
	//the engine builds every molecule from its canonical SMILES, so the first one is built the same way.
	first, err := smiles.Canonical(C.SmallMolecule.Smiles[0])
	if err != nil {
		return nil, err
	}
	top, x, err := smiles.Build(first, resname, rng)
	if err != nil {
		return nil, err
	}
	sys, err := gen.BuildSystem(top)
	if err != nil {
		return nil, err
	}
	col := newCollector()
	if S.stfname != "" {
		w, err := stf.NewWriter(S.stfname, map[string]string{"smiles": strings.Join(C.SmallMolecule.Smiles, ","), "seed": fmt.Sprint(S.seed)})
		if err != nil {
			return nil, err
		}
		defer w.Close()
		col.w = w
	}
	var pdb *os.File
	if S.out != "" {
		pdb, err = os.Create(S.out)
		if err != nil {
			return nil, err
		}
		defer pdb.Close()
	}
	geo := geometry.NewEngine(S.geom, rng, col)
	beta := chem.Beta(S.temperature)
	energy, err := sys.Energy(x)
	if err != nil {
		return nil, err
	}
	sum := new(summary)
	for step := 0; step < S.steps; step++ {
		st, err := mcStep(E, geo, top, sys, x, energy, beta, step, col, rng)
		if err != nil {
			sum.failed++
			sum.rejected++
			PrintV(1, fmt.Sprintf("%4d proposal failed, rejected: %v", step, err))
		} else if st != nil {
			sum.accepted++
			top, sys, x, energy = st.top, st.sys, st.x, st.energy
		} else {
			sum.rejected++
		}
		if pdb != nil {
			if err := chem.PDBWrite(pdb, top, x, step+1); err != nil {
				return sum, err
			}
		}
	}
	LogV(1, fmt.Sprintf("Accepted %d of %d steps, %d failed proposals (seed %d)", sum.accepted, S.steps, sum.failed, S.seed))
	if S.plot != "" {
		if err := col.plot(S.plot); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// state is a point of the chain.
type state struct {
	top    *chem.Topology
	sys    *ff.System
	x      *v3.Matrix
	energy float64
}

// mcStep proposes a new molecule and positions for it, and returns the new state if the move
// is accepted, or nil if it is rejected. An error means the proposal could not be completed.
func mcStep(E proposal.Engine, geo *geometry.Engine, top *chem.Topology, sys *ff.System, x *v3.Matrix, energy, beta float64, step int, col *collector, rng *rand.Rand) (*state, error) {
	tp, err := E.Propose(sys, top, map[string]any{"step": step})
	if err != nil {
		return nil, err
	}
	col.setTransition(tp.OldChemicalStateKey() + " -> " + tp.NewChemicalStateKey())
	newx, logpF, err := geo.Propose(tp, x, beta)
	if err != nil {
		return nil, err
	}
	logpR, err := geo.LogPReverse(tp, newx, x, beta)
	if err != nil {
		return nil, err
	}
	newEnergy, err := tp.NewSystem().Energy(newx)
	if err != nil {
		return nil, err
	}
	//the topology proposals of the molecule set engines are symmetric, so only
	//the geometry terms enter the acceptance.
	logAccept := -beta*(newEnergy-energy) + logpR - logpF
	accept := !math.IsNaN(logAccept) && math.Log(rng.Float64()) < logAccept
	PrintV(1, fmt.Sprintf("%4d %s -> %s logP_topology=%.3f logp_forward=%.3f logp_reverse=%.3f dU=%.3f accepted=%v",
		step, tp.OldChemicalStateKey(), tp.NewChemicalStateKey(), tp.LogPProposal(), logpF, logpR, newEnergy-energy, accept))
	if !accept {
		return nil, nil
	}
	return &state{top: tp.NewTopology(), sys: tp.NewSystem(), x: newx, energy: newEnergy}, nil
}
