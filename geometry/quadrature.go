/*
 * quadrature.go, part of gorjmc.
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
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// LogZero is the log-density given to values outside the range of a distribution.
const LogZero = -1e6

// angleEpsilon keeps the angle distribution away from the sin(theta)=0 singularities.
const angleEpsilon = 1e-3

// PMF is a probability mass function over equal-width bins covering [Lo, Hi).
// It is the discretized version of a continuous density, which is recovered by
// sampling uniformly within the chosen bin.
type PMF struct {
	Lo, Hi float64
	Width  float64
	LogP   []float64 //normalized log-masses of the bins
	cum    []float64
}

// newPMF normalizes the unnormalized log-weights logq over bins of width w starting at lo.
// It returns nil if no weight is finite.
func newPMF(lo, w float64, logq []float64) *PMF {
	norm := floats.LogSumExp(logq)
	if math.IsInf(norm, 0) || math.IsNaN(norm) {
		return nil
	}
	P := &PMF{Lo: lo, Hi: lo + w*float64(len(logq)), Width: w, LogP: make([]float64, len(logq))}
	p := make([]float64, len(logq))
	for i, v := range logq {
		P.LogP[i] = v - norm
		p[i] = math.Exp(P.LogP[i])
	}
	P.cum = floats.CumSum(p, p)
	return P
}

// BondPMF returns the discretized distribution p(r) ~ r^2 exp(-beta K/2 (r-r0)^2), with
// n bins over [max(0, r0-6 sigma), r0+6 sigma), where sigma = sqrt(1/(beta K)).
func BondPMF(r0, K, beta float64, n int) *PMF {
	sigma := math.Sqrt(1 / (beta * K))
	lo := math.Max(0, r0-6*sigma)
	hi := r0 + 6*sigma
	w := (hi - lo) / float64(n)
	logq := make([]float64, n)
	for i := range logq {
		r := lo + (float64(i)+0.5)*w
		z := (r - r0) / sigma
		logq[i] = 2*math.Log(r) - 0.5*z*z
	}
	return newPMF(lo, w, logq)
}

// AnglePMF returns the discretized distribution p(theta) ~ sin(theta) exp(-beta K/2 (theta-theta0)^2)
// with n bins over (epsilon, pi-epsilon).
func AnglePMF(theta0, K, beta float64, n int) *PMF {
	lo := angleEpsilon
	hi := math.Pi - angleEpsilon
	w := (hi - lo) / float64(n)
	logq := make([]float64, n)
	for i := range logq {
		t := lo + (float64(i)+0.5)*w
		d := t - theta0
		logq[i] = math.Log(math.Sin(t)) - 0.5*beta*K*d*d
	}
	return newPMF(lo, w, logq)
}

// Sample draws a value from the distribution and returns it with its log-density.
func (P *PMF) Sample(rng *rand.Rand) (float64, float64) {
	u := rng.Float64() * P.cum[len(P.cum)-1]
	i := sort.SearchFloat64s(P.cum, u)
	if i >= len(P.LogP) {
		i = len(P.LogP) - 1
	}
	//only happens for u=0 with empty leading bins
	for math.IsInf(P.LogP[i], -1) && i < len(P.LogP)-1 {
		i++
	}
	x := P.Lo + (float64(i)+rng.Float64())*P.Width
	return x, P.LogP[i] - math.Log(P.Width)
}

// Bin returns the index of the bin that contains x, or -1 if x is out of range.
func (P *PMF) Bin(x float64) int {
	if x < P.Lo || x >= P.Hi {
		return -1
	}
	i := int((x - P.Lo) / P.Width)
	if i >= len(P.LogP) {
		i = len(P.LogP) - 1
	}
	return i
}

// LogDensity returns the log-density of x, or LogZero if x is out of range or in a bin
// with no mass.
func (P *PMF) LogDensity(x float64) float64 {
	i := P.Bin(x)
	if i < 0 || math.IsInf(P.LogP[i], -1) {
		return LogZero
	}
	return P.LogP[i] - math.Log(P.Width)
}
