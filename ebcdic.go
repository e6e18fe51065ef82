package iso8583

import (
	"errors"

	"golang.org/x/text/encoding/charmap"
)

var (
	errUnknownEncoding         = errors.New("unknown encoding")
	errOddHexLength            = errors.New("odd-length hex data")
	errNonASCIIByte            = errors.New("byte outside 7-bit ASCII range")
	errNonASCIIChar            = errors.New("character outside 7-bit ASCII range")
	errNonRepresentableEBCDIC  = errors.New("byte has no EBCDIC (cp037) mapping")
	errNonRepresentableASCII   = errors.New("character has no EBCDIC (cp037) mapping")
	errLengthIndicatorOverflow = errors.New("data length exceeds length indicator width")
)

// ebcdicCodec is IBM code page 037, the codec this library relies on for
// EBCDIC fields. charmap.CodePage037 already implements the IBM 037 byte
// table exactly, so the digit/letter/punctuation layout doesn't need
// hand transcription here - the round-trip invariant for the characters
// ISO8583 numeric and MTI fields actually carry comes for free.
var ebcdicCodec = charmap.CodePage037

var ebcdicDecoder = ebcdicCodec.NewDecoder()
var ebcdicEncoder = ebcdicCodec.NewEncoder()

func ebcdicToString(data []byte) (string, error) {
	out, err := ebcdicDecoder.Bytes(data)
	if err != nil {
		return "", &BadEncodingError{Where: "ebcdic", Err: errNonRepresentableEBCDIC}
	}
	return string(out), nil
}

func stringToEBCDIC(s string) ([]byte, error) {
	out, err := ebcdicEncoder.Bytes([]byte(s))
	if err != nil {
		return nil, &BadEncodingError{Where: "ebcdic", Err: errNonRepresentableASCII}
	}
	return out, nil
}
