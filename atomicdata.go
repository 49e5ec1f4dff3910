/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

import "math"

// A map for assigning mass to elements.
//Note that just common "bio-elements" are present
var symbolMass = map[string]float64{
	"H":  1.0,
	"C":  12.01,
	"O":  16.00,
	"N":  14.01,
	"P":  30.97,
	"S":  32.06,
	"Se": 78.96,
	"K":  39.1,
	"Ca": 40.08,
	"Mg": 24.30,
	"Cl": 35.45,
	"Na": 22.99,
	"Cu": 63.55,
	"Zn": 65.38,
	"Co": 58.93,
	"Fe": 55.84,
	"Mn": 54.94,
	"Cr": 51.996,
	"Si": 28.08,
	"Be": 9.012,
	"F":  18.998,
	"Br": 79.904,
	"I":  126.90,
}

// A map for assigning covalent radii to elements
//Values from Cordero et al., 2008 (DOI:10.1039/B801115J)
//Note that just common "bio-elements" are present
var symbolCovrad = map[string]float64{
	"H":  0.4,  // 0.31 I altered this one. Since H always has only one bond, it doesn't matter if I set a longer radius, the extra bonds will get eliminated later.
	"C":  0.76, //the sp3 radius
	"O":  0.66,
	"N":  0.71,
	"P":  1.07,
	"S":  1.05,
	"Se": 1.2,
	"K":  2.03,
	"Ca": 1.76,
	"Mg": 1.41,
	"Cl": 1.02,
	"Na": 1.66,
	"Cu": 1.32,
	"Zn": 1.22,
	"Co": 1.5,  // hs
	"Fe": 1.52, //hs
	"Mn": 1.61, //hs
	"Cr": 1.39,
	"Si": 1.11,
	"Be": 0.96,
	"F":  0.57,
	"Br": 1.2,
	"I":  1.39,
}

// A map for assigning van der Waals radii to elements
//Values from 10.1021/j100785a001 and 10.1021/jp8111556
//metal radii from 10.1023/A:1011625728803
//Note that just common "bio-elements" are present
var symbolVdwrad = map[string]float64{
	"H":  1.10, // 0.31 I altered this one. Since H always has only one bond, it doesn't matter if I set a longer radius, the extra bonds will get eliminated later.
	"C":  1.70, //the sp3 radius
	"O":  1.52,
	"N":  1.55,
	"P":  1.80,
	"S":  1.80,
	"Se": 1.90,
	"K":  2.75,
	"Ca": 2.31,
	"Mg": 1.73,
	"Cl": 1.75,
	"Na": 2.27,
	"Cu": 2.00,
	"Zn": 2.02,
	"Co": 1.95,
	"Fe": 1.96,
	"Mn": 1.96,
	"Cr": 1.97,
	"Si": 2.10,
	"Be": 1.53,
	"F":  1.47,
	"Br": 1.83,
	"I":  1.98,
}

// A map for checking that atoms don't
//have too many bonds. A value of 0 means
//undefined, i.e. that this atom shouldn't
//be checked for max bonds. I decided not to define it
var symbolMaxBonds = map[string]int{
	"H":  1, //this is the only one truly important.
	"C":  4, //the sp3 radius
	"O":  2,
	"N":  0, //undefined
	"P":  0,
	"S":  0,
	"Se": 0,
	"Be": 0,
	"F":  1,
	"Br": 1,
	"I":  1,
}

// Atomic numbers, used to compare atoms when mapping molecules.
var symbolAtomicNumber = map[string]int{
	"H":  1,
	"Be": 4,
	"C":  6,
	"N":  7,
	"O":  8,
	"F":  9,
	"Na": 11,
	"Mg": 12,
	"Si": 14,
	"P":  15,
	"S":  16,
	"Cl": 17,
	"K":  19,
	"Ca": 20,
	"Cr": 24,
	"Mn": 25,
	"Fe": 26,
	"Co": 27,
	"Cu": 29,
	"Zn": 30,
	"Se": 34,
	"Br": 35,
	"I":  53,
}

// Lowest "normal" valences of the organic subset. Used to
// fill implicit hydrogens. The first value that is not smaller
// than the explicit valence of an atom is taken.
var symbolValences = map[string][]int{
	"B":  {3},
	"C":  {4},
	"N":  {3, 5},
	"O":  {2},
	"P":  {3, 5},
	"S":  {2, 4, 6},
	"F":  {1},
	"Cl": {1},
	"Br": {1},
	"I":  {1},
}

// Mass returns the mass, in amu, for the element symbol,
// and false if the element is not in the tables.
func Mass(symbol string) (float64, bool) {
	m, ok := symbolMass[symbol]
	return m, ok
}

// CovalentRadius returns the covalent radius of the element symbol, in nm.
func CovalentRadius(symbol string) (float64, bool) {
	r, ok := symbolCovrad[symbol]
	return r * A2nm, ok
}

// VdwRadius returns the van der Waals radius of the element symbol, in nm.
func VdwRadius(symbol string) (float64, bool) {
	r, ok := symbolVdwrad[symbol]
	return r * A2nm, ok
}

// AtomicNumber returns the atomic number for the symbol, or 0
// if the symbol is unknown.
func AtomicNumber(symbol string) int {
	return symbolAtomicNumber[symbol]
}

// MaxBonds returns the maximum number of bonds an atom of the given
// element can have, or 0 if undefined.
func MaxBonds(symbol string) int {
	return symbolMaxBonds[symbol]
}

// Valences returns the allowed valences of an element of the organic subset.
func Valences(symbol string) []int {
	return symbolValences[symbol]
}

// SymbolFromMass returns the element in the tables with the mass closest to m,
// if there is one closer than 0.1 amu.
func SymbolFromMass(m float64) (string, bool) {
	best := ""
	bestdiff := 0.1
	for k, v := range symbolMass {
		if d := math.Abs(v - m); d < bestdiff {
			best = k
			bestdiff = d
		}
	}
	return best, best != ""
}
