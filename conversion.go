/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

//This provides useful conversion factors and other constants.
//The internal unit system is nm, radians, kJ/mol, elementary charges and amu.

//Conversions
const (
	Deg2Rad = 0.0174533
	Rad2Deg = 1 / 0.0174533
	KJ2Kcal = 1 / 4.184
	Kcal2KJ = 4.184
	A2nm    = 0.1
	Nm2A    = 10.0
)

//Others
const (
	//Boltzmann constant in kJ/(mol K)
	KB = 0.0083144626
	//1/(4 pi eps0) in kJ nm/(mol e^2)
	ONE4PIEPS0 = 138.935456
)

// Beta returns 1/kT in mol/kJ for the temperature T, in K.
func Beta(T float64) float64 {
	return 1 / (KB * T)
}
