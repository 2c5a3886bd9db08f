// Package stl writes a triangulated surface as a stereolithography facet
// list, in either text or binary framing. STL is facet-based: shared-vertex
// topology, region ids, and any attached results do not survive the
// conversion.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/aerotools/cartconv/cart3d"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config controls the output framing.
type Config struct {
	Binary bool
	Name   string // solid name in ASCII mode; header text in binary mode
}

// Write emits one facet per triangle, in stored order, with an outward
// normal computed from the triangle's edge vectors. A near-zero-area facet
// gets a zero normal and is counted in the returned degenerate total but
// still emitted; the format is permissive about such facets.
func Write(m *cart3d.Model, cfg Config, w io.Writer) (degenerate int, err error) {
	if cfg.Binary {
		return writeBinary(m, cfg, w)
	}
	return writeASCII(m, cfg, w)
}

// facetNormal returns the normalized cross product of two edge vectors, or
// the zero vector for a degenerate triangle.
func facetNormal(a, b, c r3.Vec) (r3.Vec, bool) {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	nrm := r3.Norm(n)
	if nrm <= 1e-30 {
		return r3.Vec{}, false
	}
	return r3.Scale(1/nrm, n), true
}

func vec(p [3]float64) r3.Vec {
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

func writeASCII(m *cart3d.Model, cfg Config, w io.Writer) (int, error) {
	name := cfg.Name
	if name == "" {
		name = "cart3d"
	}
	degenerate := 0
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for _, t := range m.Tris {
		a, b, c := vec(m.Points[t[0]]), vec(m.Points[t[1]]), vec(m.Points[t[2]])
		n, ok := facetNormal(a, b, c)
		if !ok {
			degenerate++
		}
		fmt.Fprintf(bw, "  facet normal %g %g %g\n", n.X, n.Y, n.Z)
		fmt.Fprintln(bw, "    outer loop")
		for _, v := range []r3.Vec{a, b, c} {
			fmt.Fprintf(bw, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
		}
		fmt.Fprintln(bw, "    endloop")
		fmt.Fprintln(bw, "  endfacet")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return degenerate, bw.Flush()
}

func writeBinary(m *cart3d.Model, cfg Config, w io.Writer) (int, error) {
	var header [80]byte
	copy(header[:], cfg.Name)
	if _, err := w.Write(header[:]); err != nil {
		return 0, err
	}
	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(m.NumTris()))
	if _, err := w.Write(count[:]); err != nil {
		return 0, err
	}

	degenerate := 0
	// 12 float32 coordinates plus the unused attribute count.
	facet := make([]byte, 50)
	for _, t := range m.Tris {
		a, b, c := vec(m.Points[t[0]]), vec(m.Points[t[1]]), vec(m.Points[t[2]])
		n, ok := facetNormal(a, b, c)
		if !ok {
			degenerate++
		}
		off := 0
		for _, v := range []r3.Vec{n, a, b, c} {
			for _, x := range []float64{v.X, v.Y, v.Z} {
				binary.LittleEndian.PutUint32(facet[off:], math.Float32bits(float32(x)))
				off += 4
			}
		}
		facet[48], facet[49] = 0, 0
		if _, err := w.Write(facet); err != nil {
			return degenerate, err
		}
	}
	return degenerate, nil
}
