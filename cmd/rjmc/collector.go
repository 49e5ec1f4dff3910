package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/rmera/gorjmc/chemplot"
	"github.com/rmera/gorjmc/histo"
	"github.com/rmera/gorjmc/stf"
)

// torsionStats accumulates, for one atom of one transition, the torsions sampled for it and
// the sum of the torsion PMFs they were sampled from.
type torsionStats struct {
	sampled *histo.Data
	pmf     *histo.Data
}

// collector receives the records of the geometry engine. It passes them to an STF
// writer, if it has one, and keeps the statistics of the forward torsions of each transition.
type collector struct {
	w          *stf.Writer
	transition string
	stats      map[string]map[int]*torsionStats
	lastPhi    map[int][]float64
}

func newCollector() *collector {
	return &collector{stats: make(map[string]map[int]*torsionStats), lastPhi: make(map[int][]float64)}
}

func (C *collector) setTransition(t string) {
	C.transition = t
}

// WriteRecords fulfills geometry.Storage. The engine writes the torsion PMFs of a proposal
// after its placements, so the statistics are updated when the PMFs arrive.
func (C *collector) WriteRecords(name string, iteration int, records [][]float64) error {
	if C.w != nil {
		if err := C.w.WriteRecords(name, iteration, records); err != nil {
			return err
		}
	}
	switch name {
	case "forward_placements":
		C.lastPhi = make(map[int][]float64, len(records))
		for _, r := range records {
			C.lastPhi[int(r[0])] = []float64{r[3]}
		}
	case "forward_torsions":
		t, ok := C.stats[C.transition]
		if !ok {
			t = make(map[int]*torsionStats)
			C.stats[C.transition] = t
		}
		for _, r := range records {
			atom := int(r[0])
			phi, ok := C.lastPhi[atom]
			if !ok {
				return fmt.Errorf("No placement recorded for atom %d", atom)
			}
			n := len(r) - 1
			pmf := histo.FromLogP(-math.Pi, 2*math.Pi/float64(n), r[1:], atom)
			s, ok := t[atom]
			if !ok {
				s = &torsionStats{sampled: histo.NewData(pmf.CopyDividers(), nil, atom), pmf: pmf}
				t[atom] = s
			} else if err := s.pmf.Merge(pmf); err != nil {
				return err
			}
			s.sampled.AddData(phi...)
		}
	}
	return nil
}

// plot writes, for each transition, a plot of the mean torsion PMFs with the sampled torsions,
// and the histograms in JSON format. The Kullback-Leibler divergence of each PMF from the
// sampled torsions is logged.
func (C *collector) plot(prefix string) error {
	transitions := make([]string, 0, len(C.stats))
	for k := range C.stats {
		transitions = append(transitions, k)
	}
	sort.Strings(transitions)
	for i, tr := range transitions {
		t := C.stats[tr]
		atoms := make([]int, 0, len(t))
		for a := range t {
			atoms = append(atoms, a)
		}
		sort.Ints(atoms)
		M := histo.NewMatrix(len(atoms), 2, nil)
		pmfs := make([]*histo.Data, len(atoms))
		samples := make([]*histo.Data, len(atoms))
		names := make([]string, len(atoms))
		for r, a := range atoms {
			s := t[a]
			if err := M.Set(r, 0, s.sampled); err != nil {
				return err
			}
			if err := M.Set(r, 1, s.pmf); err != nil {
				return err
			}
			pmfs[r], samples[r] = s.pmf, s.sampled
			names[r] = fmt.Sprintf("atom %d", a)
			kl, err := s.sampled.KullbackLeibler(s.pmf)
			if err != nil {
				return err
			}
			LogV(2, fmt.Sprintf("%s atom %d: %d torsions sampled, KL divergence from the PMF %.3f", tr, a, s.sampled.Total(), kl))
		}
		M.NormalizeAll()
		name := fmt.Sprintf("%s-%d", prefix, i)
		if err := chemplot.PMFPlot(pmfs, samples, names, strings.ReplaceAll(tr, "->", "to"), name+".png"); err != nil {
			return err
		}
		j, err := json.Marshal(M)
		if err != nil {
			return err
		}
		if err := os.WriteFile(name+".json", j, 0644); err != nil {
			return err
		}
	}
	return nil
}
