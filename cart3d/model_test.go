package cart3d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validModel() *Model {
	return &Model{
		Points:  [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Tris:    [][3]int{{0, 1, 2}},
		Regions: []int{0},
	}
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validModel().Validate())
}

func TestValidateOutOfRange(t *testing.T) {
	m := validModel()
	m.Tris[0][2] = 3
	err := m.Validate()
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Msg, "references node 3")
}

func TestValidateDegenerateTriangle(t *testing.T) {
	m := validModel()
	m.Tris[0] = [3]int{0, 1, 1}
	err := m.Validate()
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Msg, "degenerate")
}

func TestValidateRegionCount(t *testing.T) {
	m := validModel()
	m.Regions = []int{0, 1}
	err := m.Validate()
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "regions", fe.Block)
}

func TestValidateResultColumnLength(t *testing.T) {
	m := validModel()
	m.Results = &ResultSet{
		Placement: NodeBased,
		Scheme:    Custom,
		Names:     []string{"Cp"},
		Values:    [][]float64{{1, 2}}, // 2 samples for 3 nodes
	}
	err := m.Validate()
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Msg, `column "Cp" has 2 samples, want 3`)
}

func TestFieldPlacement(t *testing.T) {
	m := validModel()
	assert.Equal(t, NodeBased, m.FieldPlacement())
	m.Results = &ResultSet{Placement: CellBased}
	assert.Equal(t, CellBased, m.FieldPlacement())
}

func TestDerivedFieldLookup(t *testing.T) {
	m := validModel()
	m.Derived = []Field{{Name: "Cp", Values: []float64{1, 2, 3}}}
	require.NotNil(t, m.DerivedField("Cp"))
	assert.Nil(t, m.DerivedField("Mach"))
}
