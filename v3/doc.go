/*
Package v3 implements a Matrix type representing a row-major 3D matrix (i.e. a Nx3 matrix).
The v3.Matrix is used to represent the cartesian coordinates of sets of atoms, in nanometers.
It is based on gonum's (gonum.org/v1/gonum/mat) Dense type, with some additional restrictions
because of the fixed number of columns and with some additional functions that were found
useful for the purposes of building and evaluating coordinate proposals.
*/
package v3
