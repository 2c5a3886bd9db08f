package cart3d

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"strconv"
)

// Layout describes the on-disk encoding of a Cart3D file. It is decided once,
// up front, and threaded through the rest of the parse rather than being
// re-detected per field.
type Layout struct {
	Binary         bool
	Order          binary.ByteOrder
	FloatBytes     int  // 4 or 8; zero until the coordinate record resolves it
	HasResultCount bool // header record carries a third (result-variable) count
}

const markerBytes = 4

// headerCandidates are the admissible first-record payload sizes: two or
// three 4-byte counts.
var headerCandidates = []struct {
	size           uint32
	hasResultCount bool
}{
	{8, false},
	{12, true},
}

// DetectLayout inspects the first four bytes of the stream without consuming
// them. A value that decodes, in either byte order, to a valid header record
// length selects binary mode; bytes that look like whitespace-separated text
// select ASCII mode. Anything else is an unrecognized layout.
func DetectLayout(br *bufio.Reader) (Layout, error) {
	head, err := br.Peek(markerBytes)
	if err != nil {
		return Layout{}, formatErrf("header", 0, "file shorter than a record marker: %v", err)
	}
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		marker := order.Uint32(head)
		for _, c := range headerCandidates {
			if marker == c.size {
				return Layout{Binary: true, Order: order, HasResultCount: c.hasResultCount}, nil
			}
		}
	}
	if isASCIIHead(head) {
		return Layout{Binary: false}, nil
	}
	return Layout{}, formatErrf("header", 0, "unrecognized layout: first bytes % x match no binary header or ASCII text", head)
}

func isASCIIHead(b []byte) bool {
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9':
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		case c == '+' || c == '-' || c == '.' || c == '#':
		default:
			return false
		}
	}
	return true
}

// recordReader reads sequential length-framed binary records, tracking the
// byte offset for error reporting. Each record is a 4-byte length marker, the
// payload, and a trailing marker that must match the leading one.
type recordReader struct {
	r      *bufio.Reader
	order  binary.ByteOrder
	offset int64
	limit  int64 // largest admissible payload, 0 means unbounded
}

func newRecordReader(r *bufio.Reader, order binary.ByteOrder) *recordReader {
	return &recordReader{r: r, order: order}
}

func (rr *recordReader) readMarker(block string) (uint32, error) {
	var buf [markerBytes]byte
	if _, err := io.ReadFull(rr.r, buf[:]); err != nil {
		return 0, formatErrf(block, rr.offset, "reading record marker: %v", err)
	}
	rr.offset += markerBytes
	return rr.order.Uint32(buf[:]), nil
}

// readRecord returns one complete record payload.
func (rr *recordReader) readRecord(block string) ([]byte, error) {
	start := rr.offset
	lead, err := rr.readMarker(block)
	if err != nil {
		return nil, err
	}
	if rr.limit > 0 && int64(lead) > rr.limit {
		return nil, formatErrf(block, start, "record marker declares %d bytes, stream holds at most %d", lead, rr.limit)
	}
	payload := make([]byte, lead)
	if _, err := io.ReadFull(rr.r, payload); err != nil {
		return nil, formatErrf(block, rr.offset, "record payload truncated, wanted %d bytes: %v", lead, err)
	}
	rr.offset += int64(lead)
	trail, err := rr.readMarker(block)
	if err != nil {
		return nil, err
	}
	if trail != lead {
		return nil, formatErrf(block, start, "record length markers disagree: leading %d, trailing %d", lead, trail)
	}
	return payload, nil
}

// peekRecordLen reads the next record's leading marker without consuming it.
func (rr *recordReader) peekRecordLen(block string) (uint32, error) {
	head, err := rr.r.Peek(markerBytes)
	if err != nil {
		return 0, formatErrf(block, rr.offset, "reading record marker: %v", err)
	}
	return rr.order.Uint32(head), nil
}

// readBlock collects exactly n payload bytes, spanning as many records as the
// file used to store the block. A record that straddles the requested size
// indicates a framing problem and fails.
func (rr *recordReader) readBlock(block string, n int) ([]byte, error) {
	buf := make([]byte, 0, n)
	for len(buf) < n {
		rec, err := rr.readRecord(block)
		if err != nil {
			return nil, err
		}
		if len(buf)+len(rec) > n {
			return nil, formatErrf(block, rr.offset, "record of %d bytes overruns block: need %d more", len(rec), n-len(buf))
		}
		buf = append(buf, rec...)
	}
	return buf, nil
}

// atEOF reports whether another record follows.
func (rr *recordReader) atEOF() bool {
	_, err := rr.r.Peek(1)
	return err != nil
}

func (rr *recordReader) floats(block string, raw []byte, floatBytes int) ([]float64, error) {
	if len(raw)%floatBytes != 0 {
		return nil, formatErrf(block, rr.offset, "payload of %d bytes is not a whole number of %d-byte floats", len(raw), floatBytes)
	}
	out := make([]float64, len(raw)/floatBytes)
	switch floatBytes {
	case 4:
		for i := range out {
			out[i] = float64(math.Float32frombits(rr.order.Uint32(raw[4*i:])))
		}
	case 8:
		for i := range out {
			out[i] = math.Float64frombits(rr.order.Uint64(raw[8*i:]))
		}
	default:
		return nil, formatErrf(block, rr.offset, "unsupported float width %d", floatBytes)
	}
	return out, nil
}

func (rr *recordReader) ints(block string, raw []byte) ([]int, error) {
	if len(raw)%4 != 0 {
		return nil, formatErrf(block, rr.offset, "payload of %d bytes is not a whole number of 4-byte ints", len(raw))
	}
	out := make([]int, len(raw)/4)
	for i := range out {
		out[i] = int(int32(rr.order.Uint32(raw[4*i:])))
	}
	return out, nil
}

// writeRecord emits one length-framed record: marker, payload, marker.
func writeRecord(w io.Writer, order binary.ByteOrder, payload []byte) error {
	var marker [markerBytes]byte
	order.PutUint32(marker[:], uint32(len(payload)))
	if _, err := w.Write(marker[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	_, err := w.Write(marker[:])
	return err
}

// tokenScanner is the ASCII fallback: a whitespace-delimited numeric token
// stream. The token index stands in for a byte offset in errors.
type tokenScanner struct {
	s       *bufio.Scanner
	index   int64
	pending string
	hasPend bool
}

func newTokenScanner(r io.Reader) *tokenScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	s.Split(bufio.ScanWords)
	return &tokenScanner{s: s}
}

func (ts *tokenScanner) next(block string) (string, error) {
	if ts.hasPend {
		ts.hasPend = false
		ts.index++
		return ts.pending, nil
	}
	if !ts.s.Scan() {
		if err := ts.s.Err(); err != nil {
			return "", formatErrf(block, ts.index, "scanner error: %v", err)
		}
		return "", formatErrf(block, ts.index, "unexpected EOF")
	}
	ts.index++
	return ts.s.Text(), nil
}

func (ts *tokenScanner) nextInt(block string) (int, error) {
	tok, err := ts.next(block)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, formatErrf(block, ts.index-1, "invalid integer %q", tok)
	}
	return v, nil
}

func (ts *tokenScanner) nextFloat(block string) (float64, error) {
	tok, err := ts.next(block)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, formatErrf(block, ts.index-1, "invalid float %q", tok)
	}
	return v, nil
}

// atEOF reports whether another token follows. A token consumed by the
// lookahead is replayed on the next read.
func (ts *tokenScanner) atEOF() bool {
	if ts.hasPend {
		return false
	}
	if ts.s.Scan() {
		ts.pending = ts.s.Text()
		ts.hasPend = true
		return false
	}
	return true
}
