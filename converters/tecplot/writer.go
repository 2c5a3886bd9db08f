// Package tecplot writes a triangulated surface as a finite-element point
// zone: a node block carrying coordinates plus one data column per result
// variable and derived field, followed by 1-based triangle connectivity.
package tecplot

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/aerotools/cartconv/cart3d"
)

// Config controls the zone header.
type Config struct {
	Title string
}

// Write emits the model as a FEPOINT zone. Data columns live on the node
// block, so any attached results or derived fields must be node-based.
func Write(m *cart3d.Model, cfg Config, w io.Writer) error {
	columns, names := dataColumns(m)
	if len(columns) > 0 && m.FieldPlacement() == cart3d.CellBased {
		return &cart3d.ConversionError{Writer: "tecplot",
			Msg: "writer requires node-based results; model results are cell-based"}
	}

	title := cfg.Title
	if title == "" {
		title = "cart3d surface"
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "TITLE = \"%s\"\n", title)
	vars := append([]string{"X", "Y", "Z"}, names...)
	quoted := make([]string, len(vars))
	for i, v := range vars {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	fmt.Fprintf(bw, "VARIABLES = %s\n", strings.Join(quoted, ", "))
	fmt.Fprintf(bw, "ZONE N=%d, E=%d, F=FEPOINT, ET=TRIANGLE\n", m.NumPoints(), m.NumTris())

	for i, p := range m.Points {
		fmt.Fprintf(bw, "%.9g %.9g %.9g", p[0], p[1], p[2])
		for _, col := range columns {
			fmt.Fprintf(bw, " %.9g", col[i])
		}
		fmt.Fprintln(bw)
	}
	for _, t := range m.Tris {
		fmt.Fprintf(bw, "%d %d %d\n", t[0]+1, t[1]+1, t[2]+1)
	}
	return bw.Flush()
}

// dataColumns collects the raw result columns followed by the derived
// fields, in stored order.
func dataColumns(m *cart3d.Model) (cols [][]float64, names []string) {
	if m.Results != nil {
		cols = append(cols, m.Results.Values...)
		names = append(names, m.Results.Names...)
	}
	for _, f := range m.Derived {
		cols = append(cols, f.Values)
		names = append(names, f.Name)
	}
	return cols, names
}
