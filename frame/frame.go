// Package frame implements the Message Length Indicator (MLI) framing
// that sits under the TCP server and client: a big-endian length prefix,
// 2 or 4 bytes wide, declaring the payload length either exclusive or
// inclusive of the indicator itself, per spec component F.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Variant selects the MLI width and whether the declared length counts
// the indicator bytes themselves.
type Variant int

const (
	// TwoExclusive: uint16 big-endian, value = len(payload).
	TwoExclusive Variant = iota
	// TwoInclusive: uint16 big-endian, value = len(payload)+2.
	TwoInclusive
	// FourExclusive: uint32 big-endian, value = len(payload).
	FourExclusive
	// FourInclusive: uint32 big-endian, value = len(payload)+4.
	FourInclusive
)

func (v Variant) String() string {
	switch v {
	case TwoExclusive:
		return "2E"
	case TwoInclusive:
		return "2I"
	case FourExclusive:
		return "4E"
	case FourInclusive:
		return "4I"
	default:
		return "unknown"
	}
}

// Width returns the number of bytes the indicator occupies on the wire.
func (v Variant) Width() int {
	switch v {
	case TwoExclusive, TwoInclusive:
		return 2
	default:
		return 4
	}
}

func (v Variant) inclusive() bool {
	return v == TwoInclusive || v == FourInclusive
}

// ErrConnectionClosed reports that the peer closed the connection
// cleanly between frames (EOF exactly at an MLI boundary).
var ErrConnectionClosed = errors.New("frame: connection closed")

// TruncatedError reports a short read while reading the indicator or
// a declared-length payload.
type TruncatedError struct {
	Where string
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("frame: truncated reading %s", e.Where)
}

// Create renders the MLI bytes for a payload of length n.
func Create(n int, v Variant) ([]byte, error) {
	declared := n
	if v.inclusive() {
		declared += v.Width()
	}

	buf := make([]byte, v.Width())
	switch v.Width() {
	case 2:
		if declared > 0xFFFF {
			return nil, fmt.Errorf("frame: length %d exceeds 2-byte MLI range", declared)
		}
		binary.BigEndian.PutUint16(buf, uint16(declared))
	case 4:
		if declared < 0 || uint64(declared) > 0xFFFFFFFF {
			return nil, fmt.Errorf("frame: length %d exceeds 4-byte MLI range", declared)
		}
		binary.BigEndian.PutUint32(buf, uint32(declared))
	}
	return buf, nil
}

// ParseBytes decodes an already-read indicator buffer into a payload
// length.
func ParseBytes(buf []byte, v Variant) (int, error) {
	var declared int
	switch v.Width() {
	case 2:
		declared = int(binary.BigEndian.Uint16(buf))
	case 4:
		declared = int(binary.BigEndian.Uint32(buf))
	}
	if v.inclusive() {
		declared -= v.Width()
	}
	if declared < 0 {
		return 0, fmt.Errorf("frame: negative payload length")
	}
	return declared, nil
}

// Read reads one MLI indicator from r and returns the payload length it
// declares. A clean EOF at the very start of the indicator is reported
// as ErrConnectionClosed; any other short read is a TruncatedError.
func Read(r io.Reader, v Variant) (int, error) {
	buf := make([]byte, v.Width())
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return 0, ErrConnectionClosed
		}
		return 0, &TruncatedError{Where: "MLI"}
	}
	return ParseBytes(buf, v)
}

// ReadPayload reads exactly n bytes of message body from r.
func ReadPayload(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, &TruncatedError{Where: "body"}
	}
	return buf, nil
}

// Write prepends an MLI to payload and writes both to w in a single
// call.
func Write(w io.Writer, payload []byte, v Variant) error {
	mli, err := Create(len(payload), v)
	if err != nil {
		return err
	}
	framed := make([]byte, 0, len(mli)+len(payload))
	framed = append(framed, mli...)
	framed = append(framed, payload...)
	_, err = w.Write(framed)
	return err
}
