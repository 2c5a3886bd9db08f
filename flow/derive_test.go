package flow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerotools/cartconv/cart3d"
)

// uniformModel attaches the same conservative state to every sample.
func uniformModel(placement cart3d.Placement, state [5]float64) *cart3d.Model {
	m := &cart3d.Model{
		Points:  [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		Tris:    [][3]int{{0, 1, 2}, {1, 3, 2}},
		Regions: []int{0, 0},
	}
	n := m.SampleCount(placement)
	values := make([][]float64, 5)
	for v := range values {
		col := make([]float64, n)
		for i := range col {
			col[i] = state[v]
		}
		values[v] = col
	}
	m.Results = &cart3d.ResultSet{
		Placement: placement,
		Scheme:    cart3d.Conservative,
		Names:     cart3d.ConservativeNames,
		Values:    values,
	}
	return m
}

func TestDeriveUniformState(t *testing.T) {
	// rho=1, momentum=(0.1,0,0), E=2.5 at every node, gamma=1.4.
	m := uniformModel(cart3d.NodeBased, [5]float64{1.0, 0.1, 0.0, 0.0, 2.5})
	fs := DefaultFreestream(0.8)
	require.NoError(t, Derive(m, fs))

	require.Len(t, m.Derived, len(DerivedNames))
	for i, f := range m.Derived {
		assert.Equal(t, DerivedNames[i], f.Name)
		assert.Len(t, f.Values, 4, f.Name)
	}

	// Closed-form ideal-gas values.
	gamma := 1.4
	u := 0.1
	vmag := 0.1
	p := (gamma - 1) * (2.5 - 0.5*1.0*vmag*vmag)
	mach := vmag / math.Sqrt(gamma*p/1.0)
	qinf := 0.5 * 1.0 * 0.8 * 0.8
	cp := (p - 1.0/gamma) / qinf

	for i := 0; i < 4; i++ {
		assert.InEpsilon(t, 1.0, m.DerivedField("rho").Values[i], 1e-9)
		assert.InEpsilon(t, u, m.DerivedField("U").Values[i], 1e-9)
		assert.Zero(t, m.DerivedField("V").Values[i])
		assert.Zero(t, m.DerivedField("W").Values[i])
		assert.InEpsilon(t, vmag, m.DerivedField("|V|").Values[i], 1e-9)
		assert.InEpsilon(t, p, m.DerivedField("p").Values[i], 1e-9)
		assert.InEpsilon(t, mach, m.DerivedField("Mach").Values[i], 1e-9)
		assert.InEpsilon(t, cp, m.DerivedField("Cp").Values[i], 1e-9)
	}
}

func TestDeriveIdempotent(t *testing.T) {
	m := uniformModel(cart3d.NodeBased, [5]float64{1.2, 0.3, -0.1, 0.05, 2.8})
	fs := DefaultFreestream(0.5)

	require.NoError(t, Derive(m, fs))
	first := make([][]float64, len(m.Derived))
	for i, f := range m.Derived {
		first[i] = append([]float64(nil), f.Values...)
	}

	require.NoError(t, Derive(m, fs))
	require.Len(t, m.Derived, len(first))
	for i, f := range m.Derived {
		assert.Equal(t, first[i], f.Values, f.Name)
	}
}

func TestDeriveCellPlacement(t *testing.T) {
	m := uniformModel(cart3d.CellBased, [5]float64{1.0, 0.0, 0.0, 0.0, 2.5})
	require.NoError(t, Derive(m, DefaultFreestream(0.8)))
	for _, f := range m.Derived {
		// One entry per triangle, never truncated or padded.
		assert.Len(t, f.Values, 2, f.Name)
	}
}

func TestDeriveBadSampleYieldsNaN(t *testing.T) {
	m := uniformModel(cart3d.NodeBased, [5]float64{1.0, 0.1, 0.0, 0.0, 2.5})
	m.Results.Values[0][1] = 0.0   // zero density at node 1
	m.Results.Values[4][2] = 0.001 // energy low enough for negative pressure at node 2

	require.NoError(t, Derive(m, DefaultFreestream(0.8)))

	// The bad samples get NaN; their neighbors are unaffected.
	assert.True(t, math.IsNaN(m.DerivedField("p").Values[1]))
	assert.True(t, math.IsNaN(m.DerivedField("Mach").Values[1]))
	assert.True(t, math.IsNaN(m.DerivedField("Cp").Values[1]))
	assert.True(t, math.IsNaN(m.DerivedField("U").Values[1]))

	assert.True(t, math.IsNaN(m.DerivedField("Mach").Values[2]))
	assert.False(t, math.IsNaN(m.DerivedField("p").Values[2]))

	assert.False(t, math.IsNaN(m.DerivedField("p").Values[0]))
	assert.False(t, math.IsNaN(m.DerivedField("Mach").Values[3]))
}

func TestDeriveSkipsCustomScheme(t *testing.T) {
	m := uniformModel(cart3d.NodeBased, [5]float64{1, 0, 0, 0, 2.5})
	m.Results.Scheme = cart3d.Custom
	require.NoError(t, Derive(m, DefaultFreestream(0.8)))
	assert.Empty(t, m.Derived)
}

func TestDeriveSkipsModelWithoutResults(t *testing.T) {
	m := uniformModel(cart3d.NodeBased, [5]float64{1, 0, 0, 0, 2.5})
	m.Results = nil
	require.NoError(t, Derive(m, DefaultFreestream(0.8)))
	assert.Empty(t, m.Derived)
}

func TestFreestreamParse(t *testing.T) {
	var fs Freestream
	require.NoError(t, fs.Parse([]byte("Minf: 2.0\nGamma: 1.3\n")))
	assert.Equal(t, 1.3, fs.Gamma)
	assert.Equal(t, 2.0, fs.Mach)
	assert.Equal(t, 1.0, fs.Rho)
	assert.InEpsilon(t, 1.0/1.3, fs.P, 1e-12)
	// Nondimensional convention: speed equals Mach.
	assert.InEpsilon(t, 2.0, fs.Speed(), 1e-12)
}

func TestFreestreamParseRejectsBadGamma(t *testing.T) {
	var fs Freestream
	err := fs.Parse([]byte("Gamma: 0.9"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gamma")
}
