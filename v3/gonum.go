/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package v3

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Matrix is a set of vectors in 3D space. The underlying implementation
// varies. Values are stored in row-major order, one vector per row.
type Matrix struct {
	*mat.Dense
}

// Matrix2Dense returns the A as a mat.Dense. The data is not copied.
func Matrix2Dense(A *Matrix) *mat.Dense {
	return A.Dense
}

// Dense2Matrix returns a *Matrix from a mat.Dense. It panics if
// the number of columns is not 3. The data is not copied.
func Dense2Matrix(A *mat.Dense) *Matrix {
	_, c := A.Dims()
	if c != 3 {
		panic(ErrShape)
	}
	return &Matrix{A}
}

// NewMatrix generates and returns a *Matrix with 3 columns from the
// data given, which has to be a multiple of 3. The data is not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	rows := l / cols
	if l%cols != 0 {
		return nil, Error{fmt.Sprintf("Input slice length %d not divisible by %d: %d", l, cols, l%cols), []string{"NewMatrix"}, true}
	}
	if rows == 0 {
		return nil, Error{"Empty slice given", []string{"NewMatrix"}, true}
	}
	r := mat.NewDense(rows, cols, data)
	return &Matrix{r}, nil
}

// Zeros returns a zero-filled Matrix with vecs vectors and 3 in the other dimension.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	f := make([]float64, cols*vecs)
	return &Matrix{mat.NewDense(vecs, cols, f)}
}

// NVecs return the number of (row) vectors in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrShape)
	}
	return r
}

// VecView returns a view of the ith vector of the matrix. Changes in the
// view affect the original.
func (F *Matrix) VecView(i int) *Matrix {
	r := F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)
	return &Matrix{r}
}

// View returns a view of F starting from i,j and spanning r rows and
// c columns. Changes in the view are reflected in F.
func (F *Matrix) View(i, j, r, c int) *Matrix {
	ret := F.Dense.Slice(i, i+r, j, j+c).(*mat.Dense)
	return &Matrix{ret}
}

// Vec returns a copy of the ith vector.
func (F *Matrix) Vec(i int) r3.Vec {
	return r3.Vec{X: F.At(i, 0), Y: F.At(i, 1), Z: F.At(i, 2)}
}

// SetVec sets the ith vector of F to the values in v.
func (F *Matrix) SetVec(i int, v r3.Vec) {
	F.Set(i, 0, v.X)
	F.Set(i, 1, v.Y)
	F.Set(i, 2, v.Z)
}

// SetVecs sets the vector F[clist[i]] to the vector A[i], for all indexes i in clist.
// nth vector of A. Indexes i must be positive or 0
func (F *Matrix) SetVecs(A *Matrix, clist []int) {
	ar, ac := A.Dims()
	fr, fc := F.Dims()
	if ac != fc || fr < len(clist) || ar < len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		for j := 0; j < ac; j++ {
			F.Set(val, j, A.At(key, j))
		}
	}
}

// SomeVecs Returns a matrix contaning all the ith vectors of matrix A,
// where i are the numbers in clist. The vectors are in the same order
// than the clist.
func (F *Matrix) SomeVecs(A *Matrix, clist []int) {
	ar, ac := A.Dims()
	fr, _ := F.Dims()
	if fr != len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		if val >= ar {
			panic(ErrIndexOutOfRange)
		}
		for j := 0; j < ac; j++ {
			F.Set(key, j, A.At(val, j))
		}
	}
}

// Copy returns a new Matrix with the same values as F.
func (F *Matrix) Copy() *Matrix {
	r := Zeros(F.NVecs())
	r.Dense.Copy(F.Dense)
	return r
}

// AddVec adds a vector to the  coordmatrix A putting the result on the received.
// depending on whether the underlying matrix to coordmatrix
// is col or row major, it could add a col or a row vector.
func (F *Matrix) AddVec(A, vec *Matrix) {
	ar, ac := A.Dims()
	rr, rc := vec.Dims()
	fr, fc := F.Dims()
	if ac != rc || rr != 1 || ac != fc || ar != fr {
		panic(ErrShape)
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			F.Set(i, j, A.At(i, j)+vec.At(0, j))
		}
	}
}

// SubVec subtracts the vector  to each vector of the matrix A, putting
// the result on the receiver. Panics if matrices are mismatched.  It will not
// work if A and row reference to the same Matrix.
func (F *Matrix) SubVec(A, vec *Matrix) {
	vec.Scale(-1, vec)
	F.AddVec(A, vec)
	vec.Scale(-1, vec)
}

// Cross puts the cross product of the first vecs of a and b in the first vec of F. Panics if error.
func (F *Matrix) Cross(a, b *Matrix) {
	if a.NVecs() < 1 || b.NVecs() < 1 || F.NVecs() < 1 {
		panic(ErrNoCrossProduct)
	}
	//I ask for Matrix instead of Matrix, even though  I only need the At method.
	//This is so I dont need to ensure that the rows are taken, and thus I dont need to break the
	//API if the matrices become col-major.
	x := a.At(0, 1)*b.At(0, 2) - a.At(0, 2)*b.At(0, 1)
	y := a.At(0, 2)*b.At(0, 0) - a.At(0, 0)*b.At(0, 2)
	z := a.At(0, 0)*b.At(0, 1) - a.At(0, 1)*b.At(0, 0)
	F.Set(0, 0, x)
	F.Set(0, 1, y)
	F.Set(0, 2, z)
}

// Dot returns the dot product between the first vectors of F and B.
func (F *Matrix) Dot(B *Matrix) float64 {
	return F.At(0, 0)*B.At(0, 0) + F.At(0, 1)*B.At(0, 1) + F.At(0, 2)*B.At(0, 2)
}

// Norm returns the Euclidean norm of F, taken as a single vector
// if F has one row, or the Frobenius norm otherwise.
func (F *Matrix) Norm() float64 {
	return mat.Norm(F.Dense, 2)
}

// Unit puts in the received a unit vector pointing in the same
// direction as the first vector of A.
func (F *Matrix) Unit(A *Matrix) {
	norm := math.Sqrt(A.Dot(A))
	if norm == 0 {
		panic(ErrZeroVector)
	}
	F.Set(0, 0, A.At(0, 0)/norm)
	F.Set(0, 1, A.At(0, 1)/norm)
	F.Set(0, 2, A.At(0, 2)/norm)
}

// SwapVecs swaps the vectors i and j in the receiver
func (F *Matrix) SwapVecs(i, j int) {
	if i >= F.NVecs() || j >= F.NVecs() {
		panic(ErrIndexOutOfRange)
	}
	rowi := F.RawRowView(i)
	rowj := F.RawRowView(j)
	for k := 0; k < 3; k++ {
		rowi[k], rowj[k] = rowj[k], rowi[k]
	}
}

// String returns a neat string representation of a Matrix
func (F *Matrix) String() string {
	r := F.NVecs()
	out := "[\n"
	for i := 0; i < r; i++ {
		out = out + fmt.Sprintf("%8.4f %8.4f %8.4f\n", F.At(i, 0), F.At(i, 1), F.At(i, 2))
	}
	return out + "]\n"
}

//Errors

type errorInt interface {
	Error() string
	Critical() bool
	Decorate(string) []string
}

// Error is the error type for the v3 package.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return err.message
}

// Decorate adds dec to the decoration slice of the error, and returns
// the resulting slice. If dec is empty, it only returns the current slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns true if the error is critical.
func (err Error) Critical() bool { return err.critical }

// PanicMsg is the type of the messages used in panics by this package.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix    = PanicMsg("goChem/v3: A VecMatrix should have 3 columns")
	ErrNoCrossProduct  = PanicMsg("goChem/v3: Invalid matrix for cross product")
	ErrIndexOutOfRange = PanicMsg("goChem/v3: Index out of range")
	ErrShape           = PanicMsg("goChem/v3: Dimension mismatch")
	ErrZeroVector      = PanicMsg("goChem/v3: Zero vector can't be normalized")
)
