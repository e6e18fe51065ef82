package iso8583

import "encoding/hex"

// bitmapTierSize is the byte width of one bitmap tier: 64 positions per
// 8-byte tier, matching ISO8583's primary/secondary/tertiary split.
const bitmapTierSize = 8

// BitmapEncoding selects how a bitmap tier is rendered on the wire.
type BitmapEncoding int

const (
	// BitmapBinary packs each tier as 8 raw bytes.
	BitmapBinary BitmapEncoding = iota
	// BitmapHex renders each tier as 16 upper-case hex characters.
	BitmapHex
)

// Bitmap tracks which of the 192 possible data element positions are
// present in a message. Position 1 is the secondary-bitmap indicator and
// position 65 is the tertiary-bitmap indicator; Bitmap keeps those bits in
// lockstep with whichever tiers actually hold a set bit, per 4.B.
type Bitmap struct {
	primary   [bitmapTierSize]byte
	secondary [bitmapTierSize]byte
	tertiary  [bitmapTierSize]byte
}

// NewBitmap returns an empty 192-position bitmap.
func NewBitmap() *Bitmap {
	return &Bitmap{}
}

func tierFor(pos int) (*[bitmapTierSize]byte, int) {
	switch {
	case pos <= 64:
		return nil, pos
	case pos <= 128:
		return nil, pos - 64
	default:
		return nil, pos - 128
	}
}

func bitCoords(posInTier int) (byteIndex, bitIndex int) {
	return (posInTier - 1) / 8, 7 - ((posInTier - 1) % 8)
}

// Set turns on the bit for pos (1-192), cascading the secondary/tertiary
// indicator bits in the enclosing tier as needed.
func (b *Bitmap) Set(pos int) error {
	if pos < 1 || pos > 192 {
		return &BadPositionError{Position: pos}
	}
	switch {
	case pos <= 64:
		byteIdx, bitIdx := bitCoords(pos)
		b.primary[byteIdx] |= 1 << uint(bitIdx)
	case pos <= 128:
		byteIdx, bitIdx := bitCoords(pos - 64)
		b.secondary[byteIdx] |= 1 << uint(bitIdx)
		b.primary[0] |= 0x80
	default:
		byteIdx, bitIdx := bitCoords(pos - 128)
		b.tertiary[byteIdx] |= 1 << uint(bitIdx)
		b.secondary[0] |= 0x80
		b.primary[0] |= 0x80
	}
	return nil
}

// Clear turns off the bit for pos, dropping the secondary/tertiary
// indicator once its tier goes fully empty.
func (b *Bitmap) Clear(pos int) error {
	if pos < 1 || pos > 192 {
		return &BadPositionError{Position: pos}
	}
	switch {
	case pos <= 64:
		byteIdx, bitIdx := bitCoords(pos)
		b.primary[byteIdx] &^= 1 << uint(bitIdx)
	case pos <= 128:
		byteIdx, bitIdx := bitCoords(pos - 64)
		b.secondary[byteIdx] &^= 1 << uint(bitIdx)
		if isZeroTier(b.secondary[:]) {
			b.primary[0] &^= 0x80
		}
	default:
		byteIdx, bitIdx := bitCoords(pos - 128)
		b.tertiary[byteIdx] &^= 1 << uint(bitIdx)
		if isZeroTier(b.tertiary[:]) {
			b.secondary[0] &^= 0x80
			if isZeroTier(b.secondary[:]) {
				b.primary[0] &^= 0x80
			}
		}
	}
	return nil
}

// IsSet reports whether pos is on. Positions in a tier that is not
// present (no secondary/tertiary indicator) read as unset.
func (b *Bitmap) IsSet(pos int) bool {
	if pos < 1 || pos > 192 {
		return false
	}
	switch {
	case pos <= 64:
		byteIdx, bitIdx := bitCoords(pos)
		return b.primary[byteIdx]&(1<<uint(bitIdx)) != 0
	case pos <= 128:
		if !b.HasSecondary() {
			return false
		}
		byteIdx, bitIdx := bitCoords(pos - 64)
		return b.secondary[byteIdx]&(1<<uint(bitIdx)) != 0
	default:
		if !b.HasTertiary() {
			return false
		}
		byteIdx, bitIdx := bitCoords(pos - 128)
		return b.tertiary[byteIdx]&(1<<uint(bitIdx)) != 0
	}
}

// HasSecondary reports whether position 1 (the secondary-bitmap
// indicator) is on.
func (b *Bitmap) HasSecondary() bool {
	return b.primary[0]&0x80 != 0
}

// HasTertiary reports whether position 65 (the tertiary-bitmap
// indicator) is on. A tertiary bitmap cannot be present without a
// secondary one.
func (b *Bitmap) HasTertiary() bool {
	return b.HasSecondary() && b.secondary[0]&0x80 != 0
}

// Positions returns the sorted set positions across all present tiers,
// excluding the tier-indicator bits themselves (1 and 65).
func (b *Bitmap) Positions() []int {
	out := make([]int, 0, 32)
	for i := 2; i <= 64; i++ {
		if b.IsSet(i) {
			out = append(out, i)
		}
	}
	if b.HasSecondary() {
		for i := 65; i <= 128; i++ {
			if i == 65 {
				continue
			}
			if b.IsSet(i) {
				out = append(out, i)
			}
		}
	}
	if b.HasTertiary() {
		for i := 129; i <= 192; i++ {
			if b.IsSet(i) {
				out = append(out, i)
			}
		}
	}
	return out
}

func isZeroTier(tier []byte) bool {
	for _, v := range tier {
		if v != 0 {
			return false
		}
	}
	return true
}

// Encode renders the bitmap's present tiers per enc, per 4.B. Only the
// tiers implied by the indicator bits are emitted: primary always,
// secondary when position 1 is set, tertiary when position 65 is set.
func (b *Bitmap) Encode(enc BitmapEncoding) []byte {
	tiers := [][]byte{b.primary[:]}
	if b.HasSecondary() {
		tiers = append(tiers, b.secondary[:])
	}
	if b.HasTertiary() {
		tiers = append(tiers, b.tertiary[:])
	}

	if enc == BitmapHex {
		out := make([]byte, 0, len(tiers)*bitmapTierSize*2)
		for _, t := range tiers {
			enc := make([]byte, hex.EncodedLen(len(t)))
			hex.Encode(enc, t)
			upperInPlace(enc)
			out = append(out, enc...)
		}
		return out
	}

	out := make([]byte, 0, len(tiers)*bitmapTierSize)
	for _, t := range tiers {
		out = append(out, t...)
	}
	return out
}

// HexString renders all three tiers as 48 upper-case hex characters,
// zero-filling any tier not cascade-active, per 4.B. Unlike Encode, which
// emits only the tiers the indicator bits call for, HexString always shows
// the full 192-position picture.
func (b *Bitmap) HexString() string {
	var secondary, tertiary [bitmapTierSize]byte
	if b.HasSecondary() {
		secondary = b.secondary
	}
	if b.HasTertiary() {
		tertiary = b.tertiary
	}
	full := make([]byte, 0, bitmapTierSize*3)
	full = append(full, b.primary[:]...)
	full = append(full, secondary[:]...)
	full = append(full, tertiary[:]...)

	out := make([]byte, hex.EncodedLen(len(full)))
	hex.Encode(out, full)
	upperInPlace(out)
	return string(out)
}

func upperInPlace(b []byte) {
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - ('a' - 'A')
		}
	}
}

// Decode reads one cascade of tiers (primary, and secondary/tertiary as
// indicated) from data and returns the number of wire bytes consumed.
// It does not interpret the bits beyond reading the cascade indicators;
// the words are kept exactly as read and the cascade is not re-enforced
// afterwards, per design note in 9.
func (b *Bitmap) Decode(data []byte, enc BitmapEncoding) (int, error) {
	tierWire := bitmapTierSize
	if enc == BitmapHex {
		tierWire = bitmapTierSize * 2
	}

	if len(data) < tierWire {
		return 0, &TruncatedError{Where: "primary bitmap"}
	}
	if err := decodeTier(b.primary[:], data[:tierWire], enc); err != nil {
		return 0, err
	}
	offset := tierWire

	if b.HasSecondary() {
		if len(data) < offset+tierWire {
			return 0, &TruncatedError{Where: "secondary bitmap"}
		}
		if err := decodeTier(b.secondary[:], data[offset:offset+tierWire], enc); err != nil {
			return 0, err
		}
		offset += tierWire
	} else {
		for i := range b.secondary {
			b.secondary[i] = 0
		}
	}

	if b.HasTertiary() {
		if len(data) < offset+tierWire {
			return 0, &TruncatedError{Where: "tertiary bitmap"}
		}
		if err := decodeTier(b.tertiary[:], data[offset:offset+tierWire], enc); err != nil {
			return 0, err
		}
		offset += tierWire
	} else {
		for i := range b.tertiary {
			b.tertiary[i] = 0
		}
	}

	return offset, nil
}

func decodeTier(dst []byte, src []byte, enc BitmapEncoding) error {
	if enc == BitmapHex {
		if _, err := hex.Decode(dst, src); err != nil {
			return &BadEncodingError{Where: "bitmap", Err: err}
		}
		return nil
	}
	copy(dst, src)
	return nil
}
