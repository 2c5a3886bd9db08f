// Package convert sequences a full conversion: read the Cart3D input,
// optionally derive the secondary flow quantities, and write the target
// format. Output is buffered in memory so a failed conversion never produces
// a partial file.
package convert

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/aerotools/cartconv/cart3d"
	"github.com/aerotools/cartconv/converters/nastran"
	"github.com/aerotools/cartconv/converters/stl"
	"github.com/aerotools/cartconv/converters/tecplot"
	"github.com/aerotools/cartconv/flow"
)

// Target selects the output format.
type Target int

const (
	Nastran Target = iota
	STL
	Tecplot
	Cart3D
)

func (t Target) String() string {
	return [...]string{"nastran", "stl", "tecplot", "cart3d"}[t]
}

// ParseTarget maps a format name to its Target.
func ParseTarget(name string) (Target, error) {
	switch strings.ToLower(name) {
	case "nastran", "bdf", "nas":
		return Nastran, nil
	case "stl":
		return STL, nil
	case "tecplot", "plt", "dat":
		return Tecplot, nil
	case "cart3d", "tri":
		return Cart3D, nil
	}
	return 0, fmt.Errorf("unknown target format %q", name)
}

// Options carries the per-conversion configuration. Each conversion gets its
// own Options value; nothing is shared, so independent conversions are safe
// to run concurrently.
type Options struct {
	Freestream flow.Freestream
	Derive     bool
	// ResultNames names the result columns for a custom variable scheme;
	// empty means the 5 conservative flow variables.
	ResultNames []string

	Nastran nastran.Config
	STL     stl.Config
	Tecplot tecplot.Config
	Cart3D  cart3d.WriteConfig

	// Progress, when set, is called at phase boundaries (read, derive,
	// write) and never influences control flow.
	Progress func(phase string)
}

// Result is a completed conversion.
type Result struct {
	Output []byte
	Model  *cart3d.Model
	// DegenerateFacets counts the zero-area facets an STL write flagged.
	DegenerateFacets int
}

// Convert runs read -> derive -> write for one target format. Pass nil for
// results when there is no results file. Failures are terminal for the
// invocation: no retries, no partial output.
func Convert(geom, results io.Reader, target Target, opts Options) (*Result, error) {
	progress := opts.Progress
	if progress == nil {
		progress = func(string) {}
	}

	m, err := cart3d.Read(geom, results, opts.ResultNames...)
	if err != nil {
		return nil, err
	}
	progress("read")

	if opts.Derive {
		if err := flow.Derive(m, opts.Freestream); err != nil {
			return nil, err
		}
		progress("derive")
	}

	res := &Result{Model: m}
	var buf bytes.Buffer
	switch target {
	case Nastran:
		err = nastran.Write(m, opts.Nastran, &buf)
	case STL:
		res.DegenerateFacets, err = stl.Write(m, opts.STL, &buf)
	case Tecplot:
		err = tecplot.Write(m, opts.Tecplot, &buf)
	case Cart3D:
		err = cart3d.Write(m, opts.Cart3D, &buf)
	default:
		err = fmt.Errorf("unknown target format %d", target)
	}
	if err != nil {
		return nil, err
	}
	progress("write")

	res.Output = buf.Bytes()
	return res, nil
}
