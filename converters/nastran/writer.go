// Package nastran writes a triangulated surface as Nastran bulk data:
// small-field GRID cards for the points and CTRIA3 cards for the triangles,
// with each Cart3D region id mapped to a property id.
package nastran

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/aerotools/cartconv/cart3d"
)

// maxID is the largest id a small-field 8-character card field can carry.
const maxID = 99999999

// Config controls the id numbering of the emitted cards.
type Config struct {
	NodeOffset    int // added to the 1-based grid point ids
	ElementOffset int // added to the 1-based element ids
	// PropertyOffset is added to each region id to form the CTRIA3
	// property id. Zero means 1, since property ids start at 1 and
	// Cart3D region ids start at 0.
	PropertyOffset int
	// AllowCellResults admits models whose results are element-centered.
	// The bulk data carries geometry only either way; by default a
	// cell-based model is rejected so the mismatch is not silently
	// dropped.
	AllowCellResults bool
}

// Write emits the bulk data deck for the model in stored order.
func Write(m *cart3d.Model, cfg Config, w io.Writer) error {
	if m.Results != nil && m.Results.Placement == cart3d.CellBased && !cfg.AllowCellResults {
		return &cart3d.ConversionError{Writer: "nastran",
			Msg: "model carries cell-based results; set AllowCellResults to write geometry only"}
	}
	if id := m.NumPoints() + cfg.NodeOffset; id > maxID {
		return &cart3d.ConversionError{Writer: "nastran",
			Msg: fmt.Sprintf("grid point id %d exceeds the 8-character field limit %d", id, maxID)}
	}
	if id := m.NumTris() + cfg.ElementOffset; id > maxID {
		return &cart3d.ConversionError{Writer: "nastran",
			Msg: fmt.Sprintf("element id %d exceeds the 8-character field limit %d", id, maxID)}
	}
	propOffset := cfg.PropertyOffset
	if propOffset == 0 {
		propOffset = 1
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "$ %d grid points, %d CTRIA3 elements\n", m.NumPoints(), m.NumTris())
	fmt.Fprintln(bw, "BEGIN BULK")
	for i, p := range m.Points {
		fmt.Fprintf(bw, "GRID    %8d        %s%s%s\n",
			i+1+cfg.NodeOffset, field8(p[0]), field8(p[1]), field8(p[2]))
	}
	for i, t := range m.Tris {
		pid := m.Regions[i] + propOffset
		fmt.Fprintf(bw, "CTRIA3  %8d%8d%8d%8d%8d\n",
			i+1+cfg.ElementOffset, pid,
			t[0]+1+cfg.NodeOffset, t[1]+1+cfg.NodeOffset, t[2]+1+cfg.NodeOffset)
	}
	fmt.Fprintln(bw, "ENDDATA")
	return bw.Flush()
}

// field8 formats a float into the widest representation that fits a
// small-field 8-character card field.
func field8(v float64) string {
	if v == 0 {
		return fmt.Sprintf("%8s", "0.")
	}
	for prec := 8; prec >= 1; prec-- {
		s := strconv.FormatFloat(v, 'g', prec, 64)
		if len(s) <= 8 {
			return fmt.Sprintf("%8s", s)
		}
	}
	return fmt.Sprintf("%8.1e", v)
}
