// Package physconst holds the 2018 CODATA physical constants in SI units.
package physconst

const (
	C   = 299792458.        // speed of light [m/s]
	Ep0 = 8.8541878128e-12  // vacuum permittivity [F/m]
	Mu0 = 1.25663706212e-06 // vacuum permeability [H/m]
	Qe  = 1.602176634e-19   // elementary charge [C]
	Me  = 9.1093837015e-31  // electron mass [kg]
	Mp  = 1.67262192369e-27 // proton mass [kg]
)
