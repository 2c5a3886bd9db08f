package convert

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerotools/cartconv/cart3d"
	"github.com/aerotools/cartconv/flow"
)

const quadASCII = `4 2
0.0 0.0 0.0
1.0 0.0 0.0
0.0 1.0 0.0
1.0 1.0 0.0
1 2 3
2 4 3
`

const nodeResults = `1.0 0.1 0.0 0.0 2.5
1.0 0.1 0.0 0.0 2.5
1.0 0.1 0.0 0.0 2.5
1.0 0.1 0.0 0.0 2.5
`

// Two samples: cell-based on the quad fixture.
const cellResults = `1.0 0.1 0.0 0.0 2.5
1.0 0.1 0.0 0.0 2.5
`

func TestParseTarget(t *testing.T) {
	for name, want := range map[string]Target{
		"nastran": Nastran, "bdf": Nastran,
		"STL": STL,
		"tecplot": Tecplot, "dat": Tecplot,
		"cart3d": Cart3D, "tri": Cart3D,
	} {
		got, err := ParseTarget(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseTarget("iges")
	require.Error(t, err)
}

func TestConvertToTecplotWithDerivation(t *testing.T) {
	var phases []string
	opts := Options{
		Freestream: flow.DefaultFreestream(0.8),
		Derive:     true,
		Progress:   func(phase string) { phases = append(phases, phase) },
	}
	res, err := Convert(strings.NewReader(quadASCII), strings.NewReader(nodeResults), Tecplot, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"read", "derive", "write"}, phases)
	out := string(res.Output)
	assert.Contains(t, out, `"rho", "rhoU", "rhoV", "rhoW", "E"`)
	assert.Contains(t, out, `"Cp"`)
	assert.Equal(t, 4, res.Model.NumPoints())
	require.Len(t, res.Model.Derived, len(flow.DerivedNames))
}

func TestConvertRejectsCellResultsForTecplot(t *testing.T) {
	res, err := Convert(strings.NewReader(quadASCII), strings.NewReader(cellResults), Tecplot, Options{})
	var ce *cart3d.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Nil(t, res, "a failed conversion yields no partial output")
}

func TestConvertToSTL(t *testing.T) {
	res, err := Convert(strings.NewReader(quadASCII), nil, STL, Options{})
	require.NoError(t, err)
	assert.Zero(t, res.DegenerateFacets)
	assert.True(t, strings.HasPrefix(string(res.Output), "solid"))
}

func TestConvertToNastran(t *testing.T) {
	res, err := Convert(strings.NewReader(quadASCII), nil, Nastran, Options{})
	require.NoError(t, err)
	assert.Contains(t, string(res.Output), "GRID")
	assert.Contains(t, string(res.Output), "CTRIA3")
}

func TestConvertCart3DRoundTrip(t *testing.T) {
	opts := Options{}
	opts.Cart3D.Binary = true

	res, err := Convert(strings.NewReader(quadASCII), nil, Cart3D, opts)
	require.NoError(t, err)

	// The binary rendition reads back to the same mesh.
	m, err := cart3d.Read(bytes.NewReader(res.Output), nil)
	require.NoError(t, err)
	assert.Equal(t, res.Model.Points, m.Points)
	assert.Equal(t, res.Model.Tris, m.Tris)
}

func TestConvertPropagatesFormatError(t *testing.T) {
	_, err := Convert(strings.NewReader("garbage that is not a mesh"), nil, STL, Options{})
	var fe *cart3d.FormatError
	require.ErrorAs(t, err, &fe)
}

func TestConvertDeterministic(t *testing.T) {
	a, err := Convert(strings.NewReader(quadASCII), strings.NewReader(nodeResults), Tecplot,
		Options{Derive: true, Freestream: flow.DefaultFreestream(0.8)})
	require.NoError(t, err)
	b, err := Convert(strings.NewReader(quadASCII), strings.NewReader(nodeResults), Tecplot,
		Options{Derive: true, Freestream: flow.DefaultFreestream(0.8)})
	require.NoError(t, err)
	assert.Equal(t, a.Output, b.Output)
}
