package cart3d

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WriteConfig selects the output encoding for re-serializing a model in
// Cart3D form.
type WriteConfig struct {
	Binary    bool
	Order     binary.ByteOrder // nil means little-endian
	Double    bool             // 8-byte floats in binary mode
	Precision int              // significant digits in ASCII mode; 0 means 9
}

// Write re-serializes the model's geometry in Cart3D form, ASCII or binary
// per the config. Points and triangles are emitted in stored order; triangle
// indices are converted back to the format's 1-based numbering.
func Write(m *Model, cfg WriteConfig, w io.Writer) error {
	if cfg.Binary {
		return writeBinary(m, cfg, w)
	}
	return writeASCII(m, cfg, w)
}

func writeASCII(m *Model, cfg WriteConfig, w io.Writer) error {
	prec := cfg.Precision
	if prec == 0 {
		prec = 9
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", m.NumPoints(), m.NumTris())
	for _, p := range m.Points {
		fmt.Fprintf(bw, "%.*g %.*g %.*g\n", prec, p[0], prec, p[1], prec, p[2])
	}
	for _, t := range m.Tris {
		fmt.Fprintf(bw, "%d %d %d\n", t[0]+1, t[1]+1, t[2]+1)
	}
	for _, r := range m.Regions {
		fmt.Fprintf(bw, "%d\n", r)
	}
	return bw.Flush()
}

func writeBinary(m *Model, cfg WriteConfig, w io.Writer) error {
	order := cfg.Order
	if order == nil {
		order = binary.LittleEndian
	}

	header := make([]byte, 8)
	order.PutUint32(header[0:], uint32(m.NumPoints()))
	order.PutUint32(header[4:], uint32(m.NumTris()))
	if err := writeRecord(w, order, header); err != nil {
		return err
	}

	floatBytes := 4
	if cfg.Double {
		floatBytes = 8
	}
	points := make([]byte, 3*m.NumPoints()*floatBytes)
	for i, p := range m.Points {
		for j, v := range p {
			off := (3*i + j) * floatBytes
			if cfg.Double {
				order.PutUint64(points[off:], math.Float64bits(v))
			} else {
				order.PutUint32(points[off:], math.Float32bits(float32(v)))
			}
		}
	}
	if err := writeRecord(w, order, points); err != nil {
		return err
	}

	tris := make([]byte, 12*m.NumTris())
	for i, t := range m.Tris {
		for j, n := range t {
			order.PutUint32(tris[(3*i+j)*4:], uint32(n+1))
		}
	}
	if err := writeRecord(w, order, tris); err != nil {
		return err
	}

	regions := make([]byte, 4*len(m.Regions))
	for i, r := range m.Regions {
		order.PutUint32(regions[4*i:], uint32(r))
	}
	return writeRecord(w, order, regions)
}
