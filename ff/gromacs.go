/*
 * gromacs.go, part of gorjmc.
 *
 * Copyright 2024 Raul Mera A. (rmeraaatacademicosdotutadotcl)
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package ff

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/chemgraph"
	"github.com/rmera/scu"
)

// StringReader is the interface for the sources of Gromacs topologies.
type StringReader interface {
	ReadString(byte) (string, error)
}

// lineSource gives one line per call, and "EOF" when it is exhausted,
// as scu.MustReadFile does.
type lineSource interface {
	Next() string
}

type readerSource struct {
	r StringReader
}

func (R *readerSource) Next() string {
	s, err := R.r.ReadString('\n')
	if err != nil && s == "" {
		return "EOF"
	}
	return s
}

type topHeader struct {
	wany *regexp.Regexp
	spec map[string]*regexp.Regexp
}

func newTopHeader() *topHeader {
	T := new(topHeader)
	T.wany = regexp.MustCompile(`\[\p{Zs}*.*\p{Zs}*\]`)
	T.spec = make(map[string]*regexp.Regexp)
	for _, v := range []string{"defaults", "atomtypes", "moleculetype", "atoms", "bonds", "pairs", "constraints", "angles", "dihedrals", "exclusions", "system", "molecules"} {
		T.spec[v] = regexp.MustCompile(`\[\p{Zs}*` + v + `\p{Zs}*\]`)
	}
	return T
}

// Is returns true if the line is a Gromacs header.
func (T *topHeader) Is(line string) bool {
	return T.wany.MatchString(cleanString(line))
}

// Which returns the name of the header in the line, or an empty string for
// headers that are not supported.
func (T *topHeader) Which(line string) string {
	line = cleanString(line)
	for k, v := range T.spec {
		if v.MatchString(line) {
			return k
		}
	}
	return ""
}

// Returns a string without gromacs comments (sequences starting with ';'),
// trailing and leading spaces, tabs and newlines
func cleanString(s string) string {
	f := strings.Split(s, ";")[0]
	return strings.Trim(f, "\n\t\r ")
}

type cond struct {
	reading []bool
}

// read processes the preprocessor conditionals, and returns true if the
// line should be parsed.
func (c *cond) read(line string, defines []string) bool {
	f := strings.Fields(line)
	switch f[0] {
	case "#ifdef", "#ifndef":
		in := len(f) > 1 && slices.Contains(defines, f[1])
		c.reading = append(c.reading, in == (f[0] == "#ifdef"))
		return false
	case "#else":
		if l := len(c.reading); l > 0 {
			c.reading[l-1] = !c.reading[l-1]
		}
		return false
	case "#endif":
		if l := len(c.reading); l > 0 {
			c.reading = c.reading[:l-1]
		}
		return false
	}
	for _, v := range c.reading {
		if !v {
			return false
		}
	}
	return true
}

type atomType struct {
	mass, sigma, epsilon float64
}

// groReader keeps the state of the parsing of a Gromacs topology.
type groReader struct {
	top        *chem.Topology
	sys        *System
	types      map[string]atomType
	header     string
	sigmaeps   bool
	fudgeLJ    float64
	fudgeQQ    float64
	offset     int //index of the first atom of the current molecule type
	nrexcl     []int
	molstart   []int
	pairs      [][2]int
	exclusions [][2]int
	defines    []string
	dir        string
	cond       *cond
	h          *topHeader
}

// ReadGromacs reads a Gromacs topology (top or itp) from r, and returns the topology
// and the system it describes. Only the symbols in defines are considered defined by the
// #ifdef conditionals. Include statements are not followed. Angles and torsions are
// converted to radians, while Ryckaert-Bellemans torsions are converted to periodic torsions.
// Several molecule types are placed one after the other; the molecules section is not
// used to replicate them.
func ReadGromacs(r StringReader, defines ...string) (*chem.Topology, *System, error) {
	G := newGroReader(defines, "")
	if err := G.read(&readerSource{r: r}); err != nil {
		return nil, nil, errDecorate(err, "ReadGromacs")
	}
	return G.finish()
}

// GromacsFileRead is like ReadGromacs, but reads the file name, and follows its
// include statements, relative to the directory of the file.
func GromacsFileRead(name string, defines ...string) (*chem.Topology, *System, error) {
	G := newGroReader(defines, filepath.Dir(name))
	if err := G.readFile(name); err != nil {
		return nil, nil, errDecorate(err, "GromacsFileRead")
	}
	return G.finish()
}

func newGroReader(defines []string, dir string) *groReader {
	return &groReader{
		top:      chem.NewTopology(0, 0),
		sys:      &System{},
		types:    make(map[string]atomType),
		sigmaeps: true,
		fudgeLJ:  1,
		fudgeQQ:  1,
		defines:  defines,
		dir:      dir,
		cond:     &cond{},
		h:        newTopHeader(),
	}
}

func (G *groReader) readFile(name string) error {
	f, err := scu.NewMustReadFile(name)
	if err != nil {
		return NewError("Can't open "+name, "readFile", err)
	}
	defer f.Close()
	return G.read(f)
}

func (G *groReader) read(r lineSource) (err error) {
	var s string
	defer func() {
		if rec := recover(); rec != nil {
			err = NewError(fmt.Sprintf("Couldn't read header %s. Line: %s. Error: %v", G.header, cleanString(s), rec), "read")
		}
	}()
	for s = r.Next(); s != "EOF"; s = r.Next() {
		line := cleanString(s)
		if line == "" {
			continue
		}
		if !G.cond.read(line, G.defines) {
			continue
		}
		if strings.HasPrefix(line, "#include") {
			if G.dir == "" {
				continue
			}
			f := strings.Fields(line)
			fname := strings.Trim(f[len(f)-1], "\"'<>")
			if !filepath.IsAbs(fname) {
				fname = filepath.Join(G.dir, fname)
			}
			if err := G.readFile(fname); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if G.h.Is(line) {
			G.header = G.h.Which(line)
			continue
		}
		scu.QErr(G.parse(line))
	}
	return nil
}

// parse processes one line of the current header. It may panic on malformed lines.
func (G *groReader) parse(line string) error {
	f := strings.Fields(line)
	switch G.header {
	case "defaults":
		G.sigmaeps = f[1] != "1"
		if len(f) > 4 {
			G.fudgeLJ = scu.MustParseFloat(f[3])
			G.fudgeQQ = scu.MustParseFloat(f[4])
		}
	case "atomtypes":
		return G.atomType(f)
	case "moleculetype":
		G.offset = G.top.Len()
		G.molstart = append(G.molstart, G.offset)
		excl := 3
		if len(f) > 1 {
			excl = scu.MustAtoi(f[1])
		}
		G.nrexcl = append(G.nrexcl, excl)
	case "atoms":
		return G.atom(f)
	case "bonds":
		i, j := G.index(f[0]), G.index(f[1])
		G.top.AddBond(i, j, 1)
		ft := scu.MustAtoi(f[2])
		if ft == 5 {
			return nil //connection only
		}
		if ft != 1 || len(f) < 5 {
			return fmt.Errorf("Unsupported bond function %d", ft)
		}
		G.sys.Bonds = append(G.sys.Bonds, HarmonicBond{Atoms: [2]int{i, j}, Length: scu.MustParseFloat(f[3]), K: scu.MustParseFloat(f[4])})
	case "constraints":
		i, j := G.index(f[0]), G.index(f[1])
		if scu.MustAtoi(f[2]) == 1 {
			G.top.AddBond(i, j, 1)
		}
		G.sys.Constraints = append(G.sys.Constraints, Constraint{Atoms: [2]int{i, j}, Distance: scu.MustParseFloat(f[3])})
	case "pairs":
		i, j := G.index(f[0]), G.index(f[1])
		G.pairs = append(G.pairs, [2]int{i, j})
		ft := scu.MustAtoi(f[2])
		switch {
		case ft == 2 && len(f) >= 8:
			//fudgeQQ qi qj V W
			q := scu.MustParseFloat(f[3]) * scu.MustParseFloat(f[4]) * scu.MustParseFloat(f[5])
			sigma, eps := G.lj(scu.MustParseFloat(f[6]), scu.MustParseFloat(f[7]))
			G.sys.AddException(i, j, q, sigma, eps)
		case ft == 1 && len(f) >= 5:
			q := G.sys.Particles[i].Charge * G.sys.Particles[j].Charge * G.fudgeQQ
			sigma, eps := G.lj(scu.MustParseFloat(f[3]), scu.MustParseFloat(f[4]))
			G.sys.AddException(i, j, q, sigma, eps)
		}
	case "angles":
		ft := scu.MustAtoi(f[3])
		if ft != 1 && ft != 5 {
			return fmt.Errorf("Unsupported angle function %d", ft)
		}
		G.sys.Angles = append(G.sys.Angles, HarmonicAngle{Atoms: [3]int{G.index(f[0]), G.index(f[1]), G.index(f[2])},
			Angle: scu.MustParseFloat(f[4]) * chem.Deg2Rad, K: scu.MustParseFloat(f[5])})
	case "dihedrals":
		return G.dihedral(f)
	case "exclusions":
		i := G.index(f[0])
		for _, v := range f[1:] {
			G.exclusions = append(G.exclusions, [2]int{i, G.index(v)})
		}
	}
	return nil
}

// index turns a 1-based atom number of the current molecule type into a 0-based
// index in the topology.
func (G *groReader) index(s string) int {
	i := scu.MustAtoi(s) - 1 + G.offset
	if i < G.offset || i >= G.top.Len() {
		panic(fmt.Sprintf("atom %s not in the current molecule", s))
	}
	return i
}

// lj returns sigma and epsilon from the two nonbonded parameters read.
func (G *groReader) lj(v, w float64) (float64, float64) {
	if G.sigmaeps {
		return v, w
	}
	if v == 0 || w == 0 {
		return 0, 0
	}
	return math.Pow(w/v, 1.0/6.0), v * v / (4 * w)
}

func (G *groReader) atomType(f []string) error {
	//the number of fields changes, but the particle type is always right before V and W.
	p := -1
	for i := len(f) - 3; i > 0; i-- {
		if f[i] == "A" || f[i] == "D" || f[i] == "S" || f[i] == "V" {
			p = i
			break
		}
	}
	if p < 2 {
		return fmt.Errorf("Can't find the particle type in atom type %s", f[0])
	}
	sigma, eps := G.lj(scu.MustParseFloat(f[p+1]), scu.MustParseFloat(f[p+2]))
	G.types[f[0]] = atomType{mass: scu.MustParseFloat(f[p-2]), sigma: sigma, epsilon: eps}
	return nil
}

func (G *groReader) atom(f []string) error {
	if len(G.molstart) == 0 {
		G.molstart = append(G.molstart, 0)
		G.nrexcl = append(G.nrexcl, 3)
	}
	at := &chem.Atom{ID: scu.MustAtoi(f[0]), MolID: scu.MustAtoi(f[2]), MolName: f[3], Name: f[4], OldIndex: -1}
	at.Charge = scu.MustParseFloat(f[6])
	t, ok := G.types[f[1]]
	if !ok {
		log.Printf("ff: atom type %s of atom %s not defined, no Lennard-Jones parameters assigned", f[1], at.Name)
	}
	at.Mass = t.mass
	if len(f) > 7 {
		at.Mass = scu.MustParseFloat(f[7])
	}
	var err error
	at.Symbol, err = chem.SymbolFromName(at.Name)
	if err != nil {
		sym, ok := chem.SymbolFromMass(at.Mass)
		if !ok {
			return fmt.Errorf("Can't determine the element of atom %s", at.Name)
		}
		at.Symbol = sym
	}
	G.top.AddAtom(at)
	G.sys.Particles = append(G.sys.Particles, Particle{Mass: at.Mass, Charge: at.Charge, Sigma: t.sigma, Epsilon: t.epsilon})
	return nil
}

func (G *groReader) dihedral(f []string) error {
	ats := [4]int{G.index(f[0]), G.index(f[1]), G.index(f[2]), G.index(f[3])}
	ft := scu.MustAtoi(f[4])
	switch ft {
	case 1, 4, 9:
		G.sys.Torsions = append(G.sys.Torsions, PeriodicTorsion{Atoms: ats, Phase: scu.MustParseFloat(f[5]) * chem.Deg2Rad,
			K: scu.MustParseFloat(f[6]), Periodicity: scu.MustAtoi(f[7])})
	case 3:
		var c [6]float64
		for i := range c {
			c[i] = scu.MustParseFloat(f[5+i])
		}
		G.sys.Torsions = append(G.sys.Torsions, rbToPeriodic(ats, c)...)
	default:
		return fmt.Errorf("Unsupported dihedral function %d", ft)
	}
	return nil
}

// rbToPeriodic writes a Ryckaert-Bellemans torsion, sum_n C_n cos^n(phi-pi), as a sum of
// periodic torsions. The result differs from the original by a constant.
func rbToPeriodic(ats [4]int, c [6]float64) []PeriodicTorsion {
	a := [6]float64{
		0,
		c[1] + 3*c[3]/4 + 10*c[5]/16,
		c[2]/2 + c[4]/2,
		c[3]/4 + 5*c[5]/16,
		c[4] / 8,
		c[5] / 16,
	}
	ret := make([]PeriodicTorsion, 0, 5)
	for n := 1; n < 6; n++ {
		if math.Abs(a[n]) < 1e-10 {
			continue
		}
		ret = append(ret, PeriodicTorsion{Atoms: ats, Periodicity: n, Phase: math.Mod(float64(n)*math.Pi, 2*math.Pi), K: a[n]})
	}
	return ret
}

// finish builds the exclusions and 1-4 pairs, once all the bonds are known.
func (G *groReader) finish() (*chem.Topology, *System, error) {
	explicit := G.sys.ExceptionMap()
	g := chemgraph.TopologyFromChem(G.top, nil)
	for m, start := range G.molstart {
		end := G.top.Len()
		if m+1 < len(G.molstart) {
			end = G.molstart[m+1]
		}
		for i := start; i < end; i++ {
			for j := range g.ShortestPaths(i, G.nrexcl[m]) {
				if j > i {
					G.sys.AddException(i, j, 0, 1, 0)
				}
			}
		}
	}
	for _, p := range G.pairs {
		k := pairKey(p[0], p[1])
		if e, ok := explicit[k]; ok {
			G.sys.AddException(k[0], k[1], e.ChargeProd, e.Sigma, e.Epsilon)
			continue
		}
		a, b := G.sys.Particles[k[0]], G.sys.Particles[k[1]]
		sigma, eps := LorentzBerthelot(a, b)
		G.sys.AddException(k[0], k[1], a.Charge*b.Charge*G.fudgeQQ, sigma, eps*G.fudgeLJ)
	}
	for _, e := range G.exclusions {
		G.sys.AddException(e[0], e[1], 0, 1, 0)
	}
	if err := G.sys.Check(); err != nil {
		return nil, nil, errDecorate(err, "ReadGromacs")
	}
	G.sys.SortTerms()
	return G.top, G.sys, nil
}

// WriteGromacs writes the system and topology as a Gromacs topology with one atom type
// per atom and a single molecule type, called name. The 1-4 interactions are written
// with their own charge products, so ReadGromacs gives back the same system.
func WriteGromacs(w io.Writer, name string, top *chem.Topology, S *System) error {
	if top.Len() != S.NParticles() {
		return NewError(fmt.Sprintf("Topology has %d atoms, system has %d particles", top.Len(), S.NParticles()), "WriteGromacs")
	}
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "[ defaults ]\n1 2 no 1.0 1.0\n\n[ atomtypes ]\n")
	for i, p := range S.Particles {
		fmt.Fprintf(b, "t%-4d %9.4f %9.5f A %12.6e %12.6e\n", i+1, p.Mass, p.Charge, p.Sigma, p.Epsilon)
	}
	fmt.Fprintf(b, "\n[ moleculetype ]\n%s 3\n\n[ atoms ]\n", name)
	for i, at := range top.Atoms {
		p := S.Particles[i]
		fmt.Fprintf(b, "%5d t%-4d %5d %4s %4s %5d %12.8f %9.4f\n", i+1, i+1, at.MolID, at.MolName, at.Name, i+1, p.Charge, p.Mass)
	}
	fmt.Fprintf(b, "\n[ bonds ]\n")
	for _, v := range S.Bonds {
		fmt.Fprintf(b, "%5d %5d 1 %10.5f %12.2f\n", v.Atoms[0]+1, v.Atoms[1]+1, v.Length, v.K)
	}
	fmt.Fprintf(b, "\n[ constraints ]\n")
	for _, v := range S.Constraints {
		fmt.Fprintf(b, "%5d %5d 1 %10.5f\n", v.Atoms[0]+1, v.Atoms[1]+1, v.Distance)
	}
	fmt.Fprintf(b, "\n[ angles ]\n")
	for _, v := range S.Angles {
		fmt.Fprintf(b, "%5d %5d %5d 1 %10.4f %10.3f\n", v.Atoms[0]+1, v.Atoms[1]+1, v.Atoms[2]+1, v.Angle*chem.Rad2Deg, v.K)
	}
	fmt.Fprintf(b, "\n[ dihedrals ]\n")
	for _, v := range S.Torsions {
		fmt.Fprintf(b, "%5d %5d %5d %5d 9 %10.4f %10.5f %d\n", v.Atoms[0]+1, v.Atoms[1]+1, v.Atoms[2]+1, v.Atoms[3]+1, v.Phase*chem.Rad2Deg, v.K, v.Periodicity)
	}
	fmt.Fprintf(b, "\n[ pairs ]\n")
	for _, v := range S.Exceptions {
		if v.Excluded() {
			continue
		}
		fmt.Fprintf(b, "%5d %5d 2 1.0 %14.10f 1.0 %12.6e %12.6e\n", v.Atoms[0]+1, v.Atoms[1]+1, v.ChargeProd, v.Sigma, v.Epsilon)
	}
	return b.Flush()
}
