// Package histo provides histograms, and matrices of them, used to compare the torsions
// sampled in geometry proposals with the torsion PMFs they were sampled from.
package histo

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// A matrix of histograms
type Matrix struct {
	rows, cols int       //total
	d          []*Data   //row-major
	dividers   []float64 //if not nil, all histograms have the same dividers
}

// NewMatrix returns a new matrix of *Data with r and c rows and column
// and dividers dividers. Dividers can be nil, in which case, elements
// of the matrix will not be forced to have the same dividers
func NewMatrix(r, c int, dividers []float64) *Matrix {
	ret := new(Matrix)
	ret.rows = r
	ret.cols = c
	ret.d = make([]*Data, r*c)
	ret.dividers = dividers
	return ret
}

func (M *Matrix) Dims() (int, int) {
	return M.rows, M.cols
}

func (M *Matrix) String() string {
	ret := fmt.Sprintf("rows:%d cols:%d | Data:\n", M.rows, M.cols)
	t := make([]string, 0, len(M.d))
	for _, v := range M.d {
		t = append(t, v.String())
	}
	return ret + strings.Join(t, "\n\n")
}

type jsonMatrix struct {
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	D        []*Data   `json:"data"`
	Dividers []float64 `json:"dividers"`
}

func (M *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonMatrix{Rows: M.rows, Cols: M.cols, D: M.d, Dividers: M.dividers})
}

func (M *Matrix) UnmarshalJSON(b []byte) error {
	var a jsonMatrix
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.D) != a.Rows*a.Cols {
		return fmt.Errorf("gorjmc/histo: %d histograms for a %dx%d matrix", len(a.D), a.Rows, a.Cols)
	}
	M.rows = a.Rows
	M.cols = a.Cols
	M.d = a.D
	M.dividers = a.Dividers
	return nil
}

// returns the index in the []*Data slice of a matrix given
// the row and column indexes.
func (M *Matrix) rc2i(r, c int) int {
	M.Check(r, c, true)
	return M.cols*r + c
}

// Fill fills the matrix with empty histograms
// If the matrix has a non-nil delimiters slice,
// that slice is used for all the histograms created
func (M *Matrix) Fill() {
	for i := 0; i < M.rows; i++ {
		for j := 0; j < M.cols; j++ {
			M.NewHisto(i, j, M.dividers, nil)
		}
	}
}

// Check checks if the given row and column indexes are within range.
// if pan is given and true, it panics if either is out of range,
// otherwise, it returns an error.
func (M *Matrix) Check(r, c int, pan ...bool) error {
	var err error
	if r < 0 || r >= M.rows {
		err = fmt.Errorf("gorjmc/histo: Row %d out of range", r)
	}
	if c < 0 || c >= M.cols {
		err = fmt.Errorf("gorjmc/histo: Column %d out of range", c)
	}
	if err != nil && len(pan) > 0 && pan[0] {
		panic(err.Error())
	}
	return err
}

// NewHisto Puts a new histogram in the r,c position in the matrix. Dividers can be nil, in which case, the matrix
// should have its dividers. If there are no dividers, the function will panic.
// rawdata can also be nil, in which case, an empty histogram will be put in the position.
func (M *Matrix) NewHisto(r, c int, dividers []float64, rawdata []float64, ID ...int) {
	if dividers == nil {
		if M.dividers != nil {
			dividers = M.dividers
		} else {
			panic("gorjmc/histo.Matrix.NewHisto: dividers not given, and the matrix has none")
		}
	} else if M.dividers != nil && !floats.Equal(M.dividers, dividers) {
		log.Printf("gorjmc/histo.Matrix.NewHisto: dividers given but don't match the dividers of the matrix. The matrix's dividers will be used.")
		dividers = M.dividers
	}
	M.d[M.rc2i(r, c)] = NewData(dividers, rawdata, ID...)
}

// Set puts the histogram D in the r,c position of the matrix. It returns an error if the
// matrix has dividers and the ones of D don't match them.
func (M *Matrix) Set(r, c int, D *Data) error {
	if err := M.Check(r, c); err != nil {
		return err
	}
	if M.dividers != nil && !floats.Equal(M.dividers, D.dividers) {
		return fmt.Errorf("gorjmc/histo: The dividers of the histogram don't match those of the matrix")
	}
	M.d[M.rc2i(r, c)] = D
	return nil
}

// View Returns a view of the histogram in the r,c position in the matrix
func (M *Matrix) View(r, c int) *Data {
	return M.d[M.rc2i(r, c)]
}

// Adds one or more data points to the histogram in the r,c position in the matrix
func (M *Matrix) AddData(r, c int, point ...float64) {
	M.d[M.rc2i(r, c)].AddData(point...)
}

// Normalize all the histograms in the matrix
func (M *Matrix) NormalizeAll() {
	for _, v := range M.d {
		v.Normalize()
	}
}

// Data is a histogram.
type Data struct {
	id         int
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

type jsonData struct {
	ID         int       `json:"id"`
	Normalized bool      `json:"normalized"`
	Total      int       `json:"total"`
	Dividers   []float64 `json:"dividers"`
	Histo      []float64 `json:"histo"`
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonData{ID: D.id, Normalized: D.normalized, Total: D.total, Dividers: D.dividers, Histo: D.histo})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a jsonData
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.Dividers) != len(a.Histo)+1 {
		return fmt.Errorf("gorjmc/histo: %d dividers for %d bins", len(a.Dividers), len(a.Histo))
	}
	D.id = a.ID
	D.normalized = a.Normalized
	D.total = a.Total
	D.dividers = a.Dividers
	D.histo = a.Histo
	return nil
}

// ID returns the ID of the histogram
func (D *Data) ID() int {
	return D.id
}

// String prints a -hopefully- pretty string representation of
// the histogram. The representation uses 3 lines of text
func (D *Data) String() string {
	ret := fmt.Sprintf("ID: %d, Normalized: %v, TotalData: %d\n", D.id, D.normalized, D.total)
	d := make([]string, 0, len(D.histo))
	h := make([]string, 0, len(D.histo))
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2f-%4.2f", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return ret + fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

// Returns a new histogram from the dividers and rawdata given
// rawdata can be nil. In that case, an empty histogram is created.
// if an ID for the histogram is given, it will be set. If not, the ID will
// be set to -1.
func NewData(dividers []float64, rawdata []float64, ID ...int) *Data {
	d := new(Data)
	//I prefer to copy the slice to avoid somebody changing it from outside
	d.dividers = append([]float64(nil), dividers...)
	d.histo = make([]float64, len(dividers)-1)
	if rawdata != nil {
		d.ReHisto(d.dividers, rawdata)
	}
	d.id = -1
	if len(ID) > 0 {
		d.id = ID[0]
	}
	return d
}

// Dividers returns n+1 equally spaced dividers for n bins of width w, starting at lo.
func Dividers(lo, w float64, n int) []float64 {
	ret := make([]float64, n+1)
	for i := range ret {
		ret[i] = lo + float64(i)*w
	}
	return ret
}

// FromLogP returns a normalized histogram with the probability masses of a PMF with
// bins of width w starting at lo, given the log-masses logp.
func FromLogP(lo, w float64, logp []float64, ID ...int) *Data {
	d := NewData(Dividers(lo, w, len(logp)), nil, ID...)
	for i, v := range logp {
		d.histo[i] = math.Exp(v)
	}
	if s := floats.Sum(d.histo); s > 0 {
		floats.Scale(1/s, d.histo)
	}
	d.total = 1
	d.normalized = true
	return d
}

// Adds the given data point(s) to the histogram. Points outside the dividers are omitted,
// but still counted for normalization.
func (M *Data) AddData(point ...float64) {
	var norma bool
	if M.normalized {
		norma = true
		M.UnNormalize()
	}
	for _, v := range point {
		//the last divider is the end of the last bin
		i := sort.SearchFloat64s(M.dividers, v)
		if i < len(M.dividers) && M.dividers[i] == v {
			i++
		}
		if i > 0 && i < len(M.dividers) {
			M.histo[i-1]++
		}
	}
	M.total += len(point)
	//if it was normalized, we should return it to that state
	if norma {
		M.Normalize()
	}
}

// Merge adds the (un-normalized) counts of a to the receiver. Both histograms must have the same dividers.
func (D *Data) Merge(a *Data) error {
	if !floats.Equal(D.dividers, a.dividers) {
		return fmt.Errorf("gorjmc/histo.Data.Merge: Dividers must match in merged histograms")
	}
	dnorm, anorm := D.normalized, a.normalized
	D.UnNormalize()
	a.UnNormalize()
	floats.Add(D.histo, a.histo)
	D.total += a.total
	if anorm {
		a.Normalize()
	}
	if dnorm {
		D.Normalize()
	}
	return nil
}

// Normalized Returns true if the histogram is normalized
func (D *Data) Normalized() bool {
	return D.normalized
}

// Total returns the number of data points added to the histogram.
func (D *Data) Total() int {
	return D.total
}

// Normalize normalizes the histogram
func (D *Data) Normalize() {
	D.normaunnorma(true)
}

// UnNormalize un-normalizes the histogram
func (D *Data) UnNormalize() {
	D.normaunnorma(false)
}

// normalizes or un-normalizes the histogram depending
// on whether normalize is true
func (D *Data) normaunnorma(normalize bool) {
	if D.total <= 0 || D.normalized == normalize {
		return
	}
	n := float64(D.total)
	D.normalized = false
	if normalize {
		n = 1 / float64(D.total)
		D.normalized = true
	}
	floats.Scale(n, D.histo)
}

// CopyDividers copies the dividers of the histogram
func (D *Data) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.dividers), dest...)
	return floats.ScaleTo(d, 1, D.dividers)
}

// Centers returns the center of each bin.
func (D *Data) Centers() []float64 {
	ret := make([]float64, len(D.histo))
	for i := range ret {
		ret[i] = (D.dividers[i] + D.dividers[i+1]) / 2
	}
	return ret
}

// View returns the values of the histogram. They should not be modified.
func (D *Data) View() []float64 {
	return D.histo
}

func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

// KullbackLeibler returns the Kullback-Leibler divergence of the (normalized)
// histogram q from the (normalized) receiver. Neither histogram is modified.
// The result is +Inf if q has no mass in a bin where the receiver does.
func (D *Data) KullbackLeibler(q *Data) (float64, error) {
	if !floats.Equal(D.dividers, q.dividers) {
		return 0, fmt.Errorf("gorjmc/histo.Data.KullbackLeibler: Dividers must match")
	}
	p, qq := D.probabilities(), q.probabilities()
	if p == nil || qq == nil {
		return 0, fmt.Errorf("gorjmc/histo.Data.KullbackLeibler: Empty histogram")
	}
	return stat.KullbackLeibler(p, qq), nil
}

func (D *Data) probabilities() []float64 {
	s := floats.Sum(D.histo)
	if s <= 0 {
		return nil
	}
	ret := make([]float64, len(D.histo))
	return floats.ScaleTo(ret, 1/s, D.histo)
}

// ReHisto replaces the contents of the histogram with the histogram of rawdata over dividers.
// rawdata is sorted in place.
func (D *Data) ReHisto(dividers, rawdata []float64) {
	if rawdata != nil {
		sort.Float64s(rawdata)
		//stat.Histogram just panics instead of omitting the values that are off limits
		//so we remove them here before the call.
		maxi := sort.SearchFloat64s(rawdata, dividers[len(dividers)-1])
		mini := sort.SearchFloat64s(rawdata, dividers[0])
		rawdata = rawdata[mini:maxi]
	}
	D.dividers = append(D.dividers[:0], dividers...)
	D.total = len(rawdata) //as this could have been modified
	D.normalized = false
	D.histo = stat.Histogram(nil, dividers, rawdata, nil)
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	var d []float64
	if len(dest) > 0 && len(dest[0]) >= N {
		d = dest[0][:N] //floats.ScaleTo wants both slices to _match_
	} else {
		d = make([]float64, N)
	}
	return d
}
