package iso8583

import (
	"bytes"
	"io"
)

// cursor is the reader abstraction fields parse from. It wraps a
// bytes.Reader so the header double-parse (4.D) can rewind to the start
// without the fields needing to know anything about the container that
// held the original bytes.
type cursor struct {
	data []byte
	r    *bytes.Reader
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data, r: bytes.NewReader(data)}
}

// readN reads exactly n bytes or returns a TruncatedError naming where.
func (c *cursor) readN(n int, where string) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil, &TruncatedError{Where: where}
	}
	return buf, nil
}

// rewind resets the cursor to the start of the underlying buffer, used
// between the header pass and the full segment pass (4.D step 5).
func (c *cursor) rewind() {
	c.r.Seek(0, io.SeekStart)
}

// remaining returns the bytes not yet consumed.
func (c *cursor) remaining() []byte {
	pos, _ := c.r.Seek(0, io.SeekCurrent)
	return c.data[pos:]
}

// position reports how many bytes have been consumed so far.
func (c *cursor) position() int64 {
	pos, _ := c.r.Seek(0, io.SeekCurrent)
	return pos
}
