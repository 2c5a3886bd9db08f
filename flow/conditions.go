package flow

import (
	"fmt"
	"math"

	"github.com/ghodss/yaml"
)

// Freestream holds the reference state used to normalize derived quantities.
// Values follow the usual nondimensional convention: density 1, pressure
// 1/gamma, speed equal to the freestream Mach number.
type Freestream struct {
	Gamma float64 `yaml:"Gamma"`
	Mach  float64 `yaml:"Minf"`
	Rho   float64 `yaml:"RhoInf"`
	P     float64 `yaml:"PInf"`
}

// DefaultFreestream returns the nondimensional reference state for a given
// freestream Mach number with gamma = 1.4.
func DefaultFreestream(mach float64) Freestream {
	gamma := 1.4
	return Freestream{
		Gamma: gamma,
		Mach:  mach,
		Rho:   1.0,
		P:     1.0 / gamma,
	}
}

// Parse reads freestream conditions from YAML, filling unset values with the
// nondimensional defaults.
func (fs *Freestream) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, fs); err != nil {
		return err
	}
	if fs.Gamma == 0 {
		fs.Gamma = 1.4
	}
	if fs.Rho == 0 {
		fs.Rho = 1.0
	}
	if fs.P == 0 {
		fs.P = 1.0 / fs.Gamma
	}
	return fs.validate()
}

func (fs Freestream) validate() error {
	if fs.Gamma <= 1 {
		return fmt.Errorf("freestream: Gamma must exceed 1, have %g", fs.Gamma)
	}
	if fs.Rho <= 0 || fs.P <= 0 {
		return fmt.Errorf("freestream: non-positive reference state: rho=%g p=%g", fs.Rho, fs.P)
	}
	if fs.Mach < 0 {
		return fmt.Errorf("freestream: negative Mach number %g", fs.Mach)
	}
	return nil
}

// Speed returns the freestream velocity magnitude, Mach times the reference
// speed of sound.
func (fs Freestream) Speed() float64 {
	return fs.Mach * math.Sqrt(fs.Gamma*fs.P/fs.Rho)
}

// DynamicPressure returns 1/2 rho |v|^2 at the freestream state.
func (fs Freestream) DynamicPressure() float64 {
	v := fs.Speed()
	return 0.5 * fs.Rho * v * v
}

func (fs Freestream) Print() {
	fmt.Printf("%8.5f\t\t= Gamma\n", fs.Gamma)
	fmt.Printf("%8.5f\t\t= Minf\n", fs.Mach)
	fmt.Printf("%8.5f\t\t= RhoInf\n", fs.Rho)
	fmt.Printf("%8.5f\t\t= PInf\n", fs.P)
}
