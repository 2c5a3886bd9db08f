package cart3d

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Read parses a Cart3D geometry stream, plus an optional paired results
// stream, into a Model. Binary and ASCII variants are detected automatically;
// for binary, endianness and float width are detected from the record
// framing. Pass nil for results when there is no results file.
//
// resultNames optionally names the result columns for a custom variable
// scheme; when omitted the results are taken to be the 5 conservative flow
// variables (density, momentum, total energy).
func Read(geom io.Reader, results io.Reader, resultNames ...string) (*Model, error) {
	br := bufio.NewReader(geom)
	layout, err := DetectLayout(br)
	if err != nil {
		return nil, err
	}

	var (
		m        *Model
		declared int
	)
	if layout.Binary {
		m, declared, err = readBinaryGeometry(br, &layout)
	} else {
		m, declared, err = readASCIIGeometry(br)
	}
	if err != nil {
		return nil, err
	}

	if results != nil {
		rs, err := readResults(results, m, declared, layout, resultNames)
		if err != nil {
			return nil, err
		}
		m.Results = rs
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadFile reads a geometry file and an optional results file. Pass an empty
// results path when there is none.
func ReadFile(geomPath, resultsPath string, resultNames ...string) (*Model, error) {
	gf, err := os.Open(geomPath)
	if err != nil {
		return nil, err
	}
	defer gf.Close()

	var results io.Reader
	if resultsPath != "" {
		rf, err := os.Open(resultsPath)
		if err != nil {
			return nil, err
		}
		defer rf.Close()
		results = rf
	}
	return Read(gf, results, resultNames...)
}

// readBinaryGeometry parses the framed records of a binary geometry stream.
// It resolves layout.FloatBytes in place so the results parse inherits the
// detected precision.
func readBinaryGeometry(br *bufio.Reader, layout *Layout) (*Model, int, error) {
	rr := newRecordReader(br, layout.Order)

	header, err := rr.readRecord("header")
	if err != nil {
		return nil, 0, err
	}
	counts, err := rr.ints("header", header)
	if err != nil {
		return nil, 0, err
	}
	np, nt := counts[0], counts[1]
	declared := 0
	if layout.HasResultCount {
		declared = counts[2]
	}
	if np <= 0 || nt <= 0 {
		return nil, 0, formatErrf("header", 0, "non-positive counts: %d points, %d triangles", np, nt)
	}

	// The coordinate record resolves the float width: its length is
	// 3*np floats at either 4 or 8 bytes.
	recLen, err := rr.peekRecordLen("points")
	if err != nil {
		return nil, 0, err
	}
	switch {
	case recLen == uint32(12*np):
		layout.FloatBytes = 4
	case recLen == uint32(24*np):
		layout.FloatBytes = 8
	default:
		return nil, 0, formatErrf("points", rr.offset,
			"coordinate record of %d bytes matches neither single (%d) nor double (%d) precision for %d points",
			recLen, 12*np, 24*np, np)
	}

	raw, err := rr.readBlock("points", 3*np*layout.FloatBytes)
	if err != nil {
		return nil, 0, err
	}
	coords, err := rr.floats("points", raw, layout.FloatBytes)
	if err != nil {
		return nil, 0, err
	}
	m := &Model{Points: make([][3]float64, np)}
	for i := range m.Points {
		m.Points[i] = [3]float64{coords[3*i], coords[3*i+1], coords[3*i+2]}
	}

	raw, err = rr.readBlock("tris", 12*nt)
	if err != nil {
		return nil, 0, err
	}
	conn, err := rr.ints("tris", raw)
	if err != nil {
		return nil, 0, err
	}
	m.Tris = make([][3]int, nt)
	for i := range m.Tris {
		for j := 0; j < 3; j++ {
			n := conn[3*i+j]
			if n < 1 || n > np {
				return nil, 0, formatErrf("tris", rr.offset, "triangle %d references node %d, valid range [1,%d]", i, n, np)
			}
			// File indices are 1-based.
			m.Tris[i][j] = n - 1
		}
	}

	// Region ids are optional; absent means every triangle belongs to
	// component 0.
	m.Regions = make([]int, nt)
	if !rr.atEOF() {
		raw, err = rr.readBlock("regions", 4*nt)
		if err != nil {
			return nil, 0, err
		}
		regions, err := rr.ints("regions", raw)
		if err != nil {
			return nil, 0, err
		}
		for i, r := range regions {
			if r < 0 {
				return nil, 0, formatErrf("regions", rr.offset, "triangle %d has negative region id %d", i, r)
			}
			m.Regions[i] = r
		}
	}
	return m, declared, nil
}

func readASCIIGeometry(br *bufio.Reader) (*Model, int, error) {
	np, nt, declared, err := readASCIIHeader(br)
	if err != nil {
		return nil, 0, err
	}

	ts := newTokenScanner(br)
	m := &Model{Points: make([][3]float64, np)}
	for i := range m.Points {
		for j := 0; j < 3; j++ {
			v, err := ts.nextFloat("points")
			if err != nil {
				return nil, 0, err
			}
			m.Points[i][j] = v
		}
	}

	m.Tris = make([][3]int, nt)
	for i := range m.Tris {
		for j := 0; j < 3; j++ {
			n, err := ts.nextInt("tris")
			if err != nil {
				return nil, 0, err
			}
			if n < 1 || n > np {
				return nil, 0, formatErrf("tris", ts.index-1, "triangle %d references node %d, valid range [1,%d]", i, n, np)
			}
			m.Tris[i][j] = n - 1
		}
	}

	m.Regions = make([]int, nt)
	if !ts.atEOF() {
		for i := range m.Regions {
			r, err := ts.nextInt("regions")
			if err != nil {
				return nil, 0, err
			}
			if r < 0 {
				return nil, 0, formatErrf("regions", ts.index-1, "triangle %d has negative region id %d", i, r)
			}
			m.Regions[i] = r
		}
	}
	return m, declared, nil
}

// readASCIIHeader parses the counts line: "np nt" or "np nt nvars". The
// header is line-delimited even though the remaining blocks are free-form.
func readASCIIHeader(br *bufio.Reader) (np, nt, declared int, err error) {
	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, 0, 0, formatErrf("header", 0, "reading counts line: %v", err)
	}
	fields := strings.Fields(line)
	if len(fields) != 2 && len(fields) != 3 {
		return 0, 0, 0, formatErrf("header", 0, "counts line has %d fields, want 2 or 3: %q", len(fields), strings.TrimSpace(line))
	}
	vals := make([]int, len(fields))
	for i, f := range fields {
		vals[i], err = strconv.Atoi(f)
		if err != nil {
			return 0, 0, 0, formatErrf("header", int64(i), "invalid count %q", f)
		}
	}
	np, nt = vals[0], vals[1]
	if len(vals) == 3 {
		declared = vals[2]
	}
	if np <= 0 || nt <= 0 {
		return 0, 0, 0, formatErrf("header", 0, "non-positive counts: %d points, %d triangles", np, nt)
	}
	return np, nt, declared, nil
}

// readResults parses a paired results stream and decides its placement by
// exact length match: node-based when the sample count equals the point
// count, cell-based when it equals the triangle count. Anything else, or a
// mesh on which both match, is an error — placement is never guessed.
func readResults(r io.Reader, m *Model, declared int, geomLayout Layout, names []string) (*ResultSet, error) {
	scheme := Conservative
	nvars := 5
	if len(names) > 0 {
		scheme = Custom
		nvars = len(names)
	} else if declared > 0 && declared != 5 {
		scheme = Custom
		nvars = declared
		names = make([]string, nvars)
		for i := range names {
			names[i] = fmt.Sprintf("q%d", i+1)
		}
	} else {
		names = append([]string(nil), ConservativeNames...)
	}
	if declared > 0 && declared != nvars {
		return nil, formatErrf("results", 0, "geometry header declares %d result variables, caller supplied %d", declared, nvars)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, formatErrf("results", 0, "reading results stream: %v", err)
	}
	if len(data) == 0 {
		return nil, formatErrf("results", 0, "results stream is empty")
	}

	var samples []float64
	if len(data) >= markerBytes && !isASCIIHead(data[:markerBytes]) {
		samples, err = binaryResultSamples(data, m, nvars, geomLayout)
	} else {
		samples, err = asciiResultSamples(data)
	}
	if err != nil {
		return nil, err
	}

	if len(samples)%nvars != 0 {
		return nil, formatErrf("results", 0, "have %d values, not a multiple of %d variables", len(samples), nvars)
	}
	count := len(samples) / nvars
	placement, err := matchPlacement(m, count)
	if err != nil {
		return nil, err
	}

	// Samples are stored row-major in the file (one vector per node or
	// triangle); transpose to columns.
	rs := &ResultSet{Placement: placement, Scheme: scheme, Names: names, Values: make([][]float64, nvars)}
	for v := range rs.Values {
		col := make([]float64, count)
		for i := range col {
			col[i] = samples[i*nvars+v]
		}
		rs.Values[v] = col
	}
	return rs, nil
}

// matchPlacement decides where a column of count samples lives. Placement is
// never guessed: the count must match exactly one of the two totals.
func matchPlacement(m *Model, count int) (Placement, error) {
	matchNode := count == m.NumPoints()
	matchCell := count == m.NumTris()
	switch {
	case matchNode && matchCell:
		return 0, formatErrf("results", 0, "ambiguous result length: %d samples match both %d points and %d triangles",
			count, m.NumPoints(), m.NumTris())
	case matchNode:
		return NodeBased, nil
	case matchCell:
		return CellBased, nil
	default:
		return 0, formatErrf("results", 0, "mismatched result length: %d samples match neither %d points nor %d triangles",
			count, m.NumPoints(), m.NumTris())
	}
}

// binaryResultSamples reassembles the record payloads of a binary results
// stream. The geometry's byte order is tried first; the float width comes
// from the geometry when known, otherwise from whichever width yields a
// sample count that matches the mesh.
func binaryResultSamples(data []byte, m *Model, nvars int, geomLayout Layout) ([]float64, error) {
	orders := []binary.ByteOrder{binary.LittleEndian, binary.BigEndian}
	if geomLayout.Binary && geomLayout.Order == binary.BigEndian {
		orders = []binary.ByteOrder{binary.BigEndian, binary.LittleEndian}
	}

	var payload []byte
	var rr *recordReader
	for _, order := range orders {
		r := newRecordReader(bufio.NewReader(bytes.NewReader(data)), order)
		r.limit = int64(len(data))
		var buf []byte
		ok := true
		for !r.atEOF() {
			rec, err := r.readRecord("results")
			if err != nil {
				ok = false
				break
			}
			buf = append(buf, rec...)
		}
		if ok {
			payload = buf
			rr = r
			break
		}
	}
	if rr == nil {
		return nil, formatErrf("results", 0, "unrecognized layout: record framing is inconsistent in both byte orders")
	}

	widths := []int{4, 8}
	if geomLayout.FloatBytes != 0 {
		widths = []int{geomLayout.FloatBytes}
	}
	for _, w := range widths {
		if len(payload)%(w*nvars) != 0 {
			continue
		}
		count := len(payload) / (w * nvars)
		if count == m.NumPoints() || count == m.NumTris() {
			return rr.floats("results", payload, w)
		}
	}
	return nil, formatErrf("results", 0, "mismatched result length: %d payload bytes fit neither %d points nor %d triangles at %d variables",
		len(payload), m.NumPoints(), m.NumTris(), nvars)
}

func asciiResultSamples(data []byte) ([]float64, error) {
	ts := newTokenScanner(bytes.NewReader(data))
	var samples []float64
	for !ts.atEOF() {
		v, err := ts.nextFloat("results")
		if err != nil {
			return nil, err
		}
		samples = append(samples, v)
	}
	return samples, nil
}
