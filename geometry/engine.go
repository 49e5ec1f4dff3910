/*
 * engine.go, part of gorjmc.
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

package geometry

import (
	"bytes"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	chem "github.com/rmera/gorjmc"
	"github.com/rmera/gorjmc/ff"
	"github.com/rmera/gorjmc/growth"
	"github.com/rmera/gorjmc/proposal"
	v3 "github.com/rmera/gorjmc/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Storage receives diagnostic records from the engine. Each record of a placement is
// atom, r, theta, phi, logp_r, logp_theta, logp_phi and log(detJ). Each record of an
// order is atom, bond atom, angle atom and torsion atom. Each record of the torsions
// is the atom followed by the log-masses of the bins of its torsion PMF, which start at -pi.
type Storage interface {
	WriteRecords(name string, iteration int, records [][]float64) error
}

// Engine proposes positions for the atoms unique to the new topology of a proposal,
// one at a time, sampling bond lengths, angles and torsions from distributions derived
// from the force field, and computes the log-probability of such proposals.
type Engine struct {
	opts      *Options
	rng       *rand.Rand
	storage   Storage
	nproposed int
}

// NewEngine returns an engine with the given options, random source and storage.
// Defaults are used for a nil opts, a time-seeded source for a nil rng. storage can be nil.
func NewEngine(opts *Options, rng *rand.Rand, storage Storage) *Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{opts: opts, rng: rng, storage: storage}
}

// NProposed returns the number of calls to Propose so far.
func (E *Engine) NProposed() int {
	return E.nproposed
}

// Propose returns new positions, in nm, for the new topology of tp, and the
// log-probability of having proposed them. current are the positions of the old topology,
// and beta is 1/kT, in mol/kJ. The atoms with a counterpart in the old topology keep its position.
func (E *Engine) Propose(tp *proposal.TopologyProposal, current *v3.Matrix, beta float64) (*v3.Matrix, float64, error) {
	if current == nil || current.NVecs() != tp.NAtomsOld() {
		return nil, 0, NewError(fmt.Sprintf("The old system has %d particles but a different number of positions was given", tp.NAtomsOld()), "Propose")
	}
	if beta <= 0 {
		return nil, 0, NewError(fmt.Sprintf("Invalid beta %f", beta), "Propose")
	}
	E.nproposed++
	newpos := v3.Zeros(tp.NAtomsNew())
	for n, o := range tp.NewToOldAtomMap() {
		newpos.SetVec(n, current.Vec(o))
	}
	if len(tp.UniqueNewAtoms()) == 0 {
		return newpos, 0, nil
	}
	logp, err := E.logpPropose(tp, newpos, beta, Forward)
	if err != nil {
		return nil, 0, errDecorate(err, "Propose")
	}
	return newpos, logp, nil
}

// LogPReverse returns the log-probability of proposing the positions oldPos, for the atoms unique
// to the old topology of tp, starting from the positions newPos of the new topology. It is the
// probability of the forward proposal of the inverse transformation.
func (E *Engine) LogPReverse(tp *proposal.TopologyProposal, newPos, oldPos *v3.Matrix, beta float64) (float64, error) {
	if newPos == nil || oldPos == nil || newPos.NVecs() != tp.NAtomsNew() || oldPos.NVecs() != tp.NAtomsOld() {
		return 0, NewError("Positions don't match the number of particles of the systems", "LogPReverse")
	}
	if beta <= 0 {
		return 0, NewError(fmt.Sprintf("Invalid beta %f", beta), "LogPReverse")
	}
	if len(tp.UniqueOldAtoms()) == 0 {
		return 0, nil
	}
	work := oldPos.Copy()
	for o, n := range tp.OldToNewAtomMap() {
		work.SetVec(o, newPos.Vec(n))
	}
	logp, err := E.logpPropose(tp, work, beta, Reverse)
	if err != nil {
		return 0, errDecorate(err, "LogPReverse")
	}
	return logp, nil
}

// logpPropose places (Forward) or evaluates the placement of (Reverse) each unique atom in
// growth order. pos holds the positions of the destination topology. In the forward direction,
// the unique atoms get their new positions. In the reverse direction, the positions of the
// unique atoms in pos are the ones evaluated, and they are not changed.
func (E *Engine) logpPropose(tp *proposal.TopologyProposal, pos *v3.Matrix, beta float64, dir Direction) (logp float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			logp = 0
			err = NewError(fmt.Sprintf("Degenerate geometry: %v", r), "logpPropose")
		}
	}()
	order, err := NewProposalOrder(tp, dir, E.rng)
	if err != nil {
		return 0, errDecorate(err, "logpPropose")
	}
	records, logpChoice, err := order.Determine()
	if err != nil {
		return 0, errDecorate(err, "logpPropose")
	}
	system, top := tp.NewSystem(), tp.NewTopology()
	if dir == Reverse {
		system, top = tp.OldSystem(), tp.OldTopology()
	}
	actual := pos.Copy()
	atoms := make([]int, len(records))
	for i, r := range records {
		atoms[i] = r.Atom
		pos.SetVec(r.Atom, r3.Vec{X: E.rng.Float64(), Y: E.rng.Float64(), Z: E.rng.Float64()})
	}
	gs, err := growth.New(system, atoms, E.growthOptions(tp, top, dir)...)
	if err != nil {
		return 0, errDecorate(err, "logpPropose")
	}
	defer gs.Release()
	var pdb *bytes.Buffer
	if dir == Forward && E.opts.writePDB {
		pdb = new(bytes.Buffer)
	}
	logp = logpChoice
	placements := make([][]float64, 0, len(records))
	torsions := make([][]float64, 0, len(records))
	for k, rec := range records {
		gs.SetGrowthIndex(k + 1)
		var r, theta, phi float64
		if dir == Reverse {
			r, theta, phi, _ = CartesianToInternal(actual.Vec(rec.Atom), pos.Vec(rec.Bond), pos.Vec(rec.Angle), pos.Vec(rec.Torsion))
		}
		var logpR, logpTheta, logpPhi float64
		r, logpR, err = E.bond(system, top, rec, beta, r, dir)
		if err != nil {
			return 0, errDecorate(err, "logpPropose")
		}
		theta, logpTheta, err = E.angle(system, top, rec, beta, theta, dir)
		if err != nil {
			return 0, errDecorate(err, "logpPropose")
		}
		var tpmf *PMF
		tpmf, err = E.torsionPMF(gs, pos, rec, r, theta, beta)
		if err != nil {
			return 0, errDecorate(err, "logpPropose")
		}
		var xyz r3.Vec
		var detJ float64
		if dir == Forward {
			phi, logpPhi = tpmf.Sample(E.rng)
			xyz, detJ = InternalToCartesian(pos.Vec(rec.Bond), pos.Vec(rec.Angle), pos.Vec(rec.Torsion), r, theta, phi)
		} else {
			if phi >= math.Pi {
				phi -= 2 * math.Pi
			}
			logpPhi = tpmf.LogDensity(phi)
			xyz = actual.Vec(rec.Atom)
			detJ = math.Abs(r * r * math.Sin(theta))
		}
		pos.SetVec(rec.Atom, xyz)
		logdetJ := math.Log(detJ)
		logp += logpR + logpTheta + logpPhi - logdetJ
		placements = append(placements, []float64{float64(rec.Atom), r, theta, phi, logpR, logpTheta, logpPhi, logdetJ})
		torsions = append(torsions, append([]float64{float64(rec.Atom)}, tpmf.LogP...))
		if E.opts.verbose {
			log.Printf("geometry: %s %s r=%.4f theta=%.4f phi=%.4f logp_r=%.3f logp_theta=%.3f logp_phi=%.3f log_detJ=%.3f",
				dir, top.Atom(rec.Atom), r, theta, phi, logpR, logpTheta, logpPhi, logdetJ)
		}
		if pdb != nil {
			if err := chem.PDBWrite(pdb, top, pos, k+1); err != nil {
				return 0, errDecorate(err, "logpPropose")
			}
		}
	}
	if E.opts.verbose {
		log.Printf("geometry: %s logp_choice=%.4f logp_total=%.4f", dir, logpChoice, logp)
	}
	if pdb != nil {
		name := fmt.Sprintf("%s-%d.pdb", E.opts.pdbPrefix, E.nproposed)
		if err := os.WriteFile(name, pdb.Bytes(), 0644); err != nil {
			log.Printf("geometry: can't write %s: %v", name, err)
		}
	}
	if err := E.store(dir, records, placements, torsions); err != nil {
		return 0, errDecorate(err, "logpPropose")
	}
	return logp, nil
}

func (E *Engine) store(dir Direction, records []TorsionRecord, placements, torsions [][]float64) error {
	if E.storage == nil {
		return nil
	}
	ord := make([][]float64, len(records))
	for i, r := range records {
		ord[i] = []float64{float64(r.Atom), float64(r.Bond), float64(r.Angle), float64(r.Torsion)}
	}
	if err := E.storage.WriteRecords(dir.String()+"_order", E.nproposed, ord); err != nil {
		return err
	}
	if err := E.storage.WriteRecords(dir.String()+"_placements", E.nproposed, placements); err != nil {
		return err
	}
	return E.storage.WriteRecords(dir.String()+"_torsions", E.nproposed, torsions)
}

// growthOptions returns the options for the growth system of a direction. The extra ring
// terms restrain to the reference positions of the destination molecule.
func (E *Engine) growthOptions(tp *proposal.TopologyProposal, top *chem.Topology, dir Direction) []growth.Option {
	opts := []growth.Option{growth.WithSterics(E.opts.useSterics)}
	if !E.opts.extraTorsions && !E.opts.extraAngles {
		return opts
	}
	ref, other := tp.NewReferencePositions(), tp.OldReferencePositions()
	if dir == Reverse {
		ref, other = other, ref
	}
	//both directions must be restrained, or none.
	if len(ref) == 0 || len(other) == 0 {
		if E.opts.verbose {
			log.Printf("geometry: the proposal lacks reference positions, extra ring terms not used")
		}
		return opts
	}
	if E.opts.extraTorsions {
		opts = append(opts, growth.WithExtraTorsions(top, ref))
	}
	if E.opts.extraAngles {
		opts = append(opts, growth.WithExtraAngles(top, ref))
	}
	return opts
}

// bond returns the bond length for the atom placed in rec and its log-density. In the
// reverse direction, r is the actual length.
func (E *Engine) bond(S *ff.System, top *chem.Topology, rec TorsionRecord, beta, r float64, dir Direction) (float64, float64, error) {
	if b, ok := S.FindBond(rec.Atom, rec.Bond); ok {
		var pmf *PMF
		if b.K > 0 {
			pmf = BondPMF(b.Length, b.K*E.opts.bondSoftening, beta, E.opts.bondDivisions)
		}
		if pmf == nil {
			return 0, 0, NewError(fmt.Sprintf("Invalid bond between %s and %s", top.Atom(rec.Atom), top.Atom(rec.Bond)), "bond")
		}
		if dir == Forward {
			r, logp := pmf.Sample(E.rng)
			return r, logp, nil
		}
		return r, pmf.LogDensity(r), nil
	}
	if c, ok := S.FindConstraint(rec.Atom, rec.Bond); ok {
		if dir == Forward {
			return c.Distance, 0, nil
		}
		return r, 0, nil
	}
	return 0, 0, NewError(fmt.Sprintf("The bond between %s and %s has neither a bond term nor a constraint", top.Atom(rec.Atom), top.Atom(rec.Bond)), "bond")
}

// angle is like bond, for the angle atom-bond-angle.
func (E *Engine) angle(S *ff.System, top *chem.Topology, rec TorsionRecord, beta, theta float64, dir Direction) (float64, float64, error) {
	a, ok := S.FindAngle(rec.Atom, rec.Bond, rec.Angle)
	if !ok {
		return 0, 0, NewError(fmt.Sprintf("No angle term for %s-%s-%s", top.Atom(rec.Atom), top.Atom(rec.Bond), top.Atom(rec.Angle)), "angle")
	}
	pmf := AnglePMF(a.Angle, a.K*E.opts.angleSoftening, beta, E.opts.angleDivisions)
	if pmf == nil {
		return 0, 0, NewError(fmt.Sprintf("Invalid angle %s-%s-%s", top.Atom(rec.Atom), top.Atom(rec.Bond), top.Atom(rec.Angle)), "angle")
	}
	if dir == Forward {
		theta, logp := pmf.Sample(E.rng)
		return theta, logp, nil
	}
	return theta, pmf.LogDensity(theta), nil
}

// torsionPMF scans the torsion of the atom in rec over [-pi, pi), at the left edge of each bin,
// and returns the distribution exp(-beta U(phi)). The position of the atom in x is changed.
// Bins with NaN energies get zero mass.
func (E *Engine) torsionPMF(gs *growth.System, x *v3.Matrix, rec TorsionRecord, r, theta, beta float64) (*PMF, error) {
	n := E.opts.torsionDivisions
	w := 2 * math.Pi / float64(n)
	b, a, t := x.Vec(rec.Bond), x.Vec(rec.Angle), x.Vec(rec.Torsion)
	logq := make([]float64, n)
	nan := 0
	for i := range logq {
		phi := -math.Pi + float64(i)*w
		xyz, _ := InternalToCartesian(b, a, t, r, theta, phi)
		x.SetVec(rec.Atom, xyz)
		e, err := gs.AtomEnergy(x, rec.Atom)
		if err != nil {
			return nil, errDecorate(err, "torsionPMF")
		}
		if math.IsNaN(e) {
			nan++
			logq[i] = math.Inf(-1)
			continue
		}
		logq[i] = -beta * e
	}
	if nan == n {
		return nil, NewError(fmt.Sprintf("All the torsion energies for atom %d are NaN", rec.Atom), "torsionPMF")
	}
	pmf := newPMF(-math.Pi, w, logq)
	if pmf == nil {
		return nil, NewError(fmt.Sprintf("No torsion of atom %d has a finite energy", rec.Atom), "torsionPMF")
	}
	return pmf, nil
}
