package flow

import (
	"math"

	"github.com/aerotools/cartconv/cart3d"
)

// DerivedNames lists the fields Derive attaches, in emission order.
var DerivedNames = []string{"rho", "U", "V", "W", "|V|", "p", "Mach", "Cp"}

// Derive computes the secondary quantities from the conservative variables
// and attaches them to the model. It reads only the primitive result columns
// and replaces any previously derived fields wholesale, so calling it twice
// yields identical values.
//
// A sample with non-positive density or pressure gets NaN for the quantities
// that depend on it; one degenerate cell never aborts the conversion.
//
// Models without results, or with a custom variable scheme, are left
// untouched.
func Derive(m *cart3d.Model, fs Freestream) error {
	if m.Results == nil || m.Results.Scheme != cart3d.Conservative {
		return nil
	}
	if err := fs.validate(); err != nil {
		return err
	}

	rho := m.Results.Values[0]
	rhoU := m.Results.Values[1]
	rhoV := m.Results.Values[2]
	rhoW := m.Results.Values[3]
	energy := m.Results.Values[4]
	n := len(rho)

	fields := make([]cart3d.Field, len(DerivedNames))
	for i, name := range DerivedNames {
		fields[i] = cart3d.Field{Name: name, Values: make([]float64, n)}
	}
	out := func(name string) []float64 {
		for i := range fields {
			if fields[i].Name == name {
				return fields[i].Values
			}
		}
		panic("unknown derived field " + name)
	}
	fRho, fU, fV, fW := out("rho"), out("U"), out("V"), out("W")
	fVmag, fP, fMach, fCp := out("|V|"), out("p"), out("Mach"), out("Cp")

	qinf := fs.DynamicPressure()
	for i := 0; i < n; i++ {
		r := rho[i]
		fRho[i] = r
		if r <= 0 {
			fU[i], fV[i], fW[i] = math.NaN(), math.NaN(), math.NaN()
			fVmag[i], fP[i], fMach[i], fCp[i] = math.NaN(), math.NaN(), math.NaN(), math.NaN()
			continue
		}
		u, v, w := rhoU[i]/r, rhoV[i]/r, rhoW[i]/r
		vmag := math.Sqrt(u*u + v*v + w*w)
		p := (fs.Gamma - 1) * (energy[i] - 0.5*r*vmag*vmag)
		fU[i], fV[i], fW[i], fVmag[i] = u, v, w, vmag
		fP[i] = p
		if p <= 0 {
			fMach[i] = math.NaN()
		} else {
			fMach[i] = vmag / math.Sqrt(fs.Gamma*p/r)
		}
		if qinf == 0 {
			fCp[i] = math.NaN()
		} else {
			fCp[i] = (p - fs.P) / qinf
		}
	}

	m.Derived = fields
	return nil
}
