package cart3d

import "fmt"

// FormatError reports a malformed input file. Block names the section that
// failed (header, points, tris, regions, results) and Offset is the byte
// offset for binary input or the token index for ASCII input.
type FormatError struct {
	Block  string
	Offset int64
	Msg    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cart3d: %s block at offset %d: %s", e.Block, e.Offset, e.Msg)
}

// ConversionError reports a writer precondition violation. The model itself
// remains valid for other writers.
type ConversionError struct {
	Writer string
	Msg    string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s writer: %s", e.Writer, e.Msg)
}

func formatErrf(block string, offset int64, format string, args ...interface{}) *FormatError {
	return &FormatError{Block: block, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
