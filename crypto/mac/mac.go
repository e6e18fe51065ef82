// Package mac implements the ISO 9797-1 MAC algorithms of spec
// component K: Algorithm 1 (CBC-MAC) and Algorithm 3 (Retail MAC) over
// DES/3DES, each usable with padding methods 1 and 2.
package mac

import (
	"bytes"
	"fmt"

	"github.com/kestrelpay/iso8583/crypto/tdes"
)

// Algorithm selects the ISO 9797-1 MAC algorithm.
type Algorithm int

const (
	Algorithm1 Algorithm = iota // CBC-MAC
	Algorithm3                  // Retail MAC
)

// PadMethod selects the ISO 9797-1 padding method.
type PadMethod int

const (
	// Pad1 appends 0x00 bytes until the length is a positive multiple
	// of 8; a non-empty already-aligned input is left unchanged.
	Pad1 PadMethod = iota
	// Pad2 appends 0x80 then 0x00 bytes until the length is a positive
	// multiple of 8; it always adds at least one byte.
	Pad2
)

var zeroIV = make([]byte, 8)

// Pad applies the given padding method to data.
func Pad(data []byte, method PadMethod) []byte {
	switch method {
	case Pad2:
		out := make([]byte, len(data), len(data)+8)
		copy(out, data)
		out = append(out, 0x80)
		for len(out)%8 != 0 {
			out = append(out, 0x00)
		}
		return out
	default:
		if len(data) > 0 && len(data)%8 == 0 {
			return data
		}
		out := make([]byte, len(data), len(data)+8)
		copy(out, data)
		for len(out)%8 != 0 {
			out = append(out, 0x00)
		}
		if len(out) == 0 {
			out = make([]byte, 8)
		}
		return out
	}
}

// ErrMismatch reports a MAC verification failure.
var ErrMismatch = fmt.Errorf("mac: mismatch")

// Generate computes an 8-byte MAC over data using alg and method under
// a 16-byte 3DES key, per 4.J.
func Generate(alg Algorithm, method PadMethod, key16, data []byte) ([]byte, error) {
	if len(key16) != 16 {
		return nil, fmt.Errorf("mac: key must be 16 bytes, got %d", len(key16))
	}

	switch alg {
	case Algorithm1:
		return cbcMAC(key16, Pad(data, method))
	case Algorithm3:
		return retailMAC(key16, data, method)
	default:
		return nil, fmt.Errorf("mac: unknown algorithm %d", alg)
	}
}

// Verify recomputes the MAC and compares it byte-wise to expected,
// returning ErrMismatch on any difference.
func Verify(alg Algorithm, method PadMethod, key16, data, expected []byte) error {
	got, err := Generate(alg, method, key16, data)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, expected) {
		return ErrMismatch
	}
	return nil
}

func cbcMAC(key16, padded []byte) ([]byte, error) {
	cipher, err := tdes.EncryptCBC(key16, zeroIV, padded)
	if err != nil {
		return nil, err
	}
	return cipher[len(cipher)-8:], nil
}

// retailMAC implements ISO 9797-1 Algorithm 3. A single-block (8-byte,
// unpadded) input is MACed directly with one 3DES-EDE operation under
// IV zero; longer input is chained through single-DES under K1 for all
// but the last block, then the last block is finished with a 3DES-CBC
// step under the full key, per 4.J.
func retailMAC(key16, data []byte, method PadMethod) ([]byte, error) {
	if len(data) == 8 {
		return tdes.EncryptBlock(key16, data)
	}

	padded := Pad(data, method)
	k1 := key16[0:8]

	if len(padded) == 8 {
		return tdes.EncryptBlock(key16, padded)
	}

	allButLast := padded[:len(padded)-8]
	lastBlock := padded[len(padded)-8:]

	chained, err := tdes.DESCBCEncrypt(k1, zeroIV, allButLast)
	if err != nil {
		return nil, err
	}
	iv := chained[len(chained)-8:]

	final, err := tdes.EncryptCBC(key16, iv, lastBlock)
	if err != nil {
		return nil, err
	}
	return final[len(final)-8:], nil
}
