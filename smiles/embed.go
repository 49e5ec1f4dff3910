package smiles

import (
	"fmt"
	"math"
	"math/rand"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/chemgraph"
	"github.com/rmera/gorjmc/ff"
	v3 "github.com/rmera/gorjmc/v3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	bondWeight  = 100.0
	angleWeight = 50.0
	ringWeight  = 20.0
	repulsion   = 10.0
	minDistance = 0.25 //nm, for atoms 3 or more bonds apart
)

type restraint struct {
	i, j int
	d, w float64
	lower bool //only penalize distances shorter than d
}

// Embed returns 3-D coordinates, in nm, for top, from its connectivity. The ideal bond
// lengths and angles come from S, which can be nil, in which case they are generated
// with ff.Generator. Initial coordinates are obtained by metric matrix embedding of
// estimated distances, and then refined against the ideal geometry, keeping atoms
// 3 or more bonds apart at least 0.25 nm from each other, and aromatic rings planar.
func Embed(top *chem.Topology, S *ff.System, rng *rand.Rand) (*v3.Matrix, error) {
	var err error
	if S == nil {
		if S, err = ff.NewGenerator().Parameterize(top); err != nil {
			return nil, chem.ErrDecorate(err, "Embed")
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	n := top.Len()
	if n == 0 {
		return nil, chem.NewError("Empty topology", "Embed")
	}
	if n != S.NParticles() {
		return nil, chem.NewError(fmt.Sprintf("Topology has %d atoms, system %d particles", n, S.NParticles()), "Embed")
	}
	g := chemgraph.TopologyFromChem(top, nil)
	rest := restraints(top, S, g)
	x0 := metricEmbedding(n, g, rest, rng)
	x := refine(x0, rest)
	return v3.NewMatrix(x)
}

// Build parses a SMILES string and returns the topology of the molecule, as a single
// residue with the given name, and its 3-D coordinates.
func Build(s, resname string, rng *rand.Rand) (*chem.Topology, *v3.Matrix, error) {
	M, err := Parse(s)
	if err != nil {
		return nil, nil, chem.ErrDecorate(err, "Build")
	}
	top, err := M.Topology(resname, 1, "A")
	if err != nil {
		return nil, nil, chem.ErrDecorate(err, "Build")
	}
	coords, err := Embed(top, nil, rng)
	if err != nil {
		return nil, nil, chem.ErrDecorate(err, "Build")
	}
	return top, coords, nil
}

func bondLength(S *ff.System, i, j int) float64 {
	if b, ok := S.FindBond(i, j); ok {
		return b.Length
	}
	if c, ok := S.FindConstraint(i, j); ok {
		return c.Distance
	}
	return 0.15
}

func restraints(top *chem.Topology, S *ff.System, g *chemgraph.Topology) []restraint {
	ret := make([]restraint, 0, 4*top.Len())
	seen := make(map[[2]int]bool)
	add := func(r restraint) {
		k := [2]int{min(r.i, r.j), max(r.i, r.j)}
		if seen[k] {
			return
		}
		seen[k] = true
		ret = append(ret, r)
	}
	for _, b := range top.Bonds {
		i, j := b.At1.Index(), b.At2.Index()
		add(restraint{i: i, j: j, d: bondLength(S, i, j), w: bondWeight})
	}
	for _, a := range S.Angles {
		i, j, k := a.Atoms[0], a.Atoms[1], a.Atoms[2]
		b1, b2 := bondLength(S, i, j), bondLength(S, j, k)
		d := math.Sqrt(b1*b1 + b2*b2 - 2*b1*b2*math.Cos(a.Angle))
		add(restraint{i: i, j: k, d: d, w: angleWeight})
	}
	//aromatic rings as regular planar polygons
	for _, r := range g.Rings() {
		aromatic := true
		for _, v := range r {
			if !top.Atom(v).Aromatic && top.Hybridization(v) != 2 {
				aromatic = false
			}
		}
		if !aromatic || len(r) > 7 {
			continue
		}
		m := float64(len(r))
		for a := 0; a < len(r); a++ {
			for b := a + 1; b < len(r); b++ {
				p := g.ShortestPaths(r[a], len(r)/2)[r[b]]
				if len(p) < 4 {
					continue
				}
				k := float64(len(p) - 1)
				d := 0.139 * math.Sin(k*math.Pi/m) / math.Sin(math.Pi/m)
				add(restraint{i: r[a], j: r[b], d: d, w: ringWeight})
			}
		}
	}
	for i := 0; i < top.Len(); i++ {
		paths := g.ShortestPaths(i, -1)
		for j := i + 1; j < top.Len(); j++ {
			if p, ok := paths[j]; ok && len(p) < 4 {
				continue
			}
			add(restraint{i: i, j: j, d: minDistance, w: repulsion, lower: true})
		}
	}
	return ret
}

// metricEmbedding returns coordinates that approximately reproduce the restrained distances,
// and estimates from the number of bonds between atoms for the other pairs.
func metricEmbedding(n int, g *chemgraph.Topology, rest []restraint, rng *rand.Rand) []float64 {
	d2 := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		paths := g.ShortestPaths(i, -1)
		for j := i + 1; j < n; j++ {
			d := 0.5 //different molecules
			if p, ok := paths[j]; ok {
				d = 0.125 * math.Pow(float64(len(p)-1), 0.85)
			}
			d2.SetSym(i, j, d*d)
		}
	}
	for _, r := range rest {
		if !r.lower {
			d2.SetSym(r.i, r.j, r.d*r.d)
		}
	}
	rowmean := make([]float64, n)
	var mean float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			rowmean[i] += d2.At(i, j) / float64(n)
		}
		mean += rowmean[i] / float64(n)
	}
	B := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			B.SetSym(i, j, -0.5*(d2.At(i, j)-rowmean[i]-rowmean[j]+mean))
		}
	}
	x := make([]float64, 3*n)
	var es mat.EigenSym
	if ok := es.Factorize(B, true); ok {
		vals := es.Values(nil)
		var vecs mat.Dense
		es.VectorsTo(&vecs)
		//eigenvalues are in ascending order
		for k := 0; k < 3 && k < n; k++ {
			col := n - 1 - k
			l := math.Sqrt(math.Max(vals[col], 1e-4))
			for i := 0; i < n; i++ {
				x[3*i+k] = vecs.At(i, col) * l
			}
		}
	}
	for i := range x {
		x[i] += 0.01 * rng.NormFloat64()
	}
	return x
}

// atVec returns the ith vector of the flat coordinate slice x.
func atVec(x []float64, i int) r3.Vec {
	return r3.Vec{X: x[3*i], Y: x[3*i+1], Z: x[3*i+2]}
}

func restraintEnergy(x, grad []float64, rest []restraint) float64 {
	var e float64
	for i := range grad {
		grad[i] = 0
	}
	for _, r := range rest {
		diff := r3.Sub(atVec(x, r.i), atVec(x, r.j))
		d := r3.Norm(diff)
		delta := d - r.d
		if r.lower && delta > 0 {
			continue
		}
		e += r.w * delta * delta
		if grad == nil || d == 0 {
			continue
		}
		f := r3.Scale(2*r.w*delta/d, diff)
		grad[3*r.i] += f.X
		grad[3*r.i+1] += f.Y
		grad[3*r.i+2] += f.Z
		grad[3*r.j] -= f.X
		grad[3*r.j+1] -= f.Y
		grad[3*r.j+2] -= f.Z
	}
	return e
}

func refine(x0 []float64, rest []restraint) []float64 {
	p := optimize.Problem{
		Func: func(x []float64) float64 { return restraintEnergy(x, nil, rest) },
		Grad: func(grad, x []float64) { restraintEnergy(x, grad, rest) },
	}
	settings := &optimize.Settings{MajorIterations: 5000, GradientThreshold: 1e-8}
	res, err := optimize.Minimize(p, x0, settings, &optimize.LBFGS{})
	if res == nil || (err != nil && res.F > restraintEnergy(x0, nil, rest)) {
		return x0
	}
	return res.X
}
