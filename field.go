package iso8583

import (
	"bytes"
	"strconv"
)

// fieldStore is the (fd_map, bitmap) pair a Field parses into and
// assembles from. fd_map holds each field's wire-encoded bytes keyed by
// name; bmp is the live Bitmap a BitmapField both populates during parse
// and recomputes from during assemble.
type fieldStore struct {
	fd  map[string][]byte
	bmp *Bitmap
}

func newFieldStore() *fieldStore {
	return &fieldStore{fd: make(map[string][]byte)}
}

// Field is the capability set every field variant implements: parse off
// a cursor into the store, assemble from the store onto a buffer, and
// convert between the stored wire bytes and a field's string view.
type Field interface {
	Name() string
	Position() int
	Parse(c *cursor, store *fieldStore) error
	Assemble(store *fieldStore, w *bytes.Buffer) error
	ToString(data []byte) (string, error)
	ToWire(s string) ([]byte, error)
	Children() map[int]Field
}

func missingFieldErr(name string, position int) error {
	if position > 0 {
		return &MissingFieldError{Position: position}
	}
	return &MissingFieldError{Name: name}
}

// FixedField consumes exactly Length bytes, per 4.C.
type FixedField struct {
	FieldName string
	ID        string
	Pos       int
	Length    int
	Enc       Encoding
}

func (f *FixedField) Name() string          { return f.FieldName }
func (f *FixedField) Position() int         { return f.Pos }
func (f *FixedField) Children() map[int]Field { return nil }

func (f *FixedField) Parse(c *cursor, store *fieldStore) error {
	data, err := c.readN(f.Length, f.FieldName)
	if err != nil {
		return err
	}
	store.fd[f.FieldName] = data
	return nil
}

func (f *FixedField) Assemble(store *fieldStore, w *bytes.Buffer) error {
	data, ok := store.fd[f.FieldName]
	if !ok {
		return missingFieldErr(f.FieldName, f.Pos)
	}
	w.Write(data)
	return nil
}

func (f *FixedField) ToString(data []byte) (string, error) { return decodeBytes(f.Enc, data) }
func (f *FixedField) ToWire(s string) ([]byte, error)       { return encodeString(f.Enc, s) }

// VarField consumes a decimal length indicator of LenInd characters
// followed by that many data bytes, per 4.C.
type VarField struct {
	FieldName  string
	ID         string
	Pos        int
	LenInd     int // 1, 2 or 3
	LenEnc     Encoding
	DataEnc    Encoding
}

func (f *VarField) Name() string            { return f.FieldName }
func (f *VarField) Position() int           { return f.Pos }
func (f *VarField) Children() map[int]Field { return nil }

func (f *VarField) Parse(c *cursor, store *fieldStore) error {
	indRaw, err := c.readN(f.LenInd, f.FieldName)
	if err != nil {
		return err
	}
	indStr, err := decodeBytes(f.LenEnc, indRaw)
	if err != nil {
		return &BadLengthIndicatorError{Field: f.FieldName}
	}
	n, err := strconv.Atoi(indStr)
	if err != nil || n < 0 || len(indStr) != f.LenInd {
		return &BadLengthIndicatorError{Field: f.FieldName}
	}

	data, err := c.readN(n, f.FieldName)
	if err != nil {
		return err
	}
	store.fd[f.FieldName] = data
	return nil
}

func (f *VarField) Assemble(store *fieldStore, w *bytes.Buffer) error {
	data, ok := store.fd[f.FieldName]
	if !ok {
		return missingFieldErr(f.FieldName, f.Pos)
	}
	indStr, err := zeroPadDecimal(len(data), f.LenInd)
	if err != nil {
		return &BadLengthIndicatorError{Field: f.FieldName}
	}
	indWire, err := encodeString(f.LenEnc, indStr)
	if err != nil {
		return err
	}
	w.Write(indWire)
	w.Write(data)
	return nil
}

func (f *VarField) ToString(data []byte) (string, error) { return decodeBytes(f.DataEnc, data) }
func (f *VarField) ToWire(s string) ([]byte, error)       { return encodeString(f.DataEnc, s) }

// zeroPadDecimal renders n as a decimal string zero-padded to width. It
// errors when n does not fit in width digits, since truncating would
// silently shrink the length indicator below the data's true size.
func zeroPadDecimal(n, width int) (string, error) {
	s := strconv.Itoa(n)
	if len(s) > width {
		return "", errLengthIndicatorOverflow
	}
	if len(s) == width {
		return s, nil
	}
	pad := make([]byte, width-len(s))
	for i := range pad {
		pad[i] = '0'
	}
	return string(pad) + s, nil
}

// BitmapField reads the cascade-on bitmap (8/16/24 bytes with BitmapBinary,
// 16/32/48 with BitmapHex), stores its wire
// bytes under its own name for observability, and recursively parses
// each child whose position bit is on, per 4.C and design note 9.
type BitmapField struct {
	FieldName string
	BmpEnc    BitmapEncoding
	Kids      map[int]Field
}

func (f *BitmapField) Name() string            { return f.FieldName }
func (f *BitmapField) Position() int           { return 0 }
func (f *BitmapField) Children() map[int]Field { return f.Kids }

func (f *BitmapField) Parse(c *cursor, store *fieldStore) error {
	if store.bmp == nil {
		store.bmp = NewBitmap()
	}

	tierWire := bitmapTierSize
	if f.BmpEnc == BitmapHex {
		tierWire = bitmapTierSize * 2
	}

	primary, err := c.readN(tierWire, f.FieldName)
	if err != nil {
		return err
	}
	if err := decodeTier(store.bmp.primary[:], primary, f.BmpEnc); err != nil {
		return err
	}
	wire := append([]byte{}, primary...)

	if store.bmp.HasSecondary() {
		secondary, err := c.readN(tierWire, f.FieldName)
		if err != nil {
			return err
		}
		if err := decodeTier(store.bmp.secondary[:], secondary, f.BmpEnc); err != nil {
			return err
		}
		wire = append(wire, secondary...)

		if store.bmp.HasTertiary() {
			tertiary, err := c.readN(tierWire, f.FieldName)
			if err != nil {
				return err
			}
			if err := decodeTier(store.bmp.tertiary[:], tertiary, f.BmpEnc); err != nil {
				return err
			}
			wire = append(wire, tertiary...)
		}
	}

	store.fd[f.FieldName] = wire

	for pos := 2; pos <= 192; pos++ {
		if pos == 65 || pos == 129 {
			continue
		}
		if !store.bmp.IsSet(pos) {
			continue
		}
		child, ok := f.Kids[pos]
		if !ok {
			return &UndefinedFieldError{Position: pos}
		}
		if err := child.Parse(c, store); err != nil {
			return err
		}
	}
	return nil
}

func (f *BitmapField) Assemble(store *fieldStore, w *bytes.Buffer) error {
	if store.bmp == nil {
		store.bmp = NewBitmap()
	}
	w.Write(store.bmp.Encode(f.BmpEnc))

	for pos := 2; pos <= 192; pos++ {
		if pos == 65 || pos == 129 {
			continue
		}
		if !store.bmp.IsSet(pos) {
			continue
		}
		child, ok := f.Kids[pos]
		if !ok {
			return &UndefinedFieldError{Position: pos}
		}
		if err := child.Assemble(store, w); err != nil {
			return err
		}
	}
	return nil
}

func (f *BitmapField) ToString(data []byte) (string, error) { return decodeBytes(BINARY, data) }
func (f *BitmapField) ToWire(s string) ([]byte, error)       { return encodeString(BINARY, s) }
