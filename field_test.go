package iso8583

import (
	"bytes"
	"testing"
)

func TestFixedFieldParseAssemble(t *testing.T) {
	f := &FixedField{FieldName: "mti", Length: 4, Enc: ASCII}
	store := newFieldStore()
	c := newCursor([]byte("1100trailing"))

	if err := f.Parse(c, store); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := f.ToString(store.fd["mti"])
	if err != nil {
		t.Fatalf("ToString: %v", err)
	}
	if s != "1100" {
		t.Fatalf("got %q, want %q", s, "1100")
	}

	var buf bytes.Buffer
	if err := f.Assemble(store, &buf); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if buf.String() != "1100" {
		t.Fatalf("assembled %q, want %q", buf.String(), "1100")
	}
}

func TestFixedFieldMissingOnAssemble(t *testing.T) {
	f := &FixedField{FieldName: "mti", Pos: 0, Length: 4, Enc: ASCII}
	store := newFieldStore()
	var buf bytes.Buffer
	if err := f.Assemble(store, &buf); err == nil {
		t.Fatal("expected error assembling an unset field")
	}
}

func TestVarFieldParseAssemble(t *testing.T) {
	f := &VarField{FieldName: "pan", LenInd: 2, LenEnc: ASCII, DataEnc: ASCII}
	store := newFieldStore()
	c := newCursor([]byte("164111111111111111"))

	if err := f.Parse(c, store); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := f.ToString(store.fd["pan"])
	if err != nil {
		t.Fatal(err)
	}
	if s != "4111111111111111" {
		t.Fatalf("got %q", s)
	}

	var buf bytes.Buffer
	if err := f.Assemble(store, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "164111111111111111" {
		t.Fatalf("assembled %q", buf.String())
	}
}

func TestVarFieldBadLengthIndicator(t *testing.T) {
	f := &VarField{FieldName: "pan", LenInd: 2, LenEnc: ASCII, DataEnc: ASCII}
	store := newFieldStore()
	c := newCursor([]byte("XX4111111111111111"))
	if err := f.Parse(c, store); err == nil {
		t.Fatal("expected BadLengthIndicatorError for non-numeric length")
	}
}

func TestVarFieldAssembleOverflowsLengthIndicator(t *testing.T) {
	f := &VarField{FieldName: "pan", LenInd: 2, LenEnc: ASCII, DataEnc: ASCII}
	store := newFieldStore()
	store.fd["pan"] = bytes.Repeat([]byte("9"), 150)

	var buf bytes.Buffer
	err := f.Assemble(store, &buf)
	if err == nil {
		t.Fatal("expected BadLengthIndicatorError when data exceeds the 2-digit indicator width")
	}
	if _, ok := err.(*BadLengthIndicatorError); !ok {
		t.Fatalf("got %T, want *BadLengthIndicatorError", err)
	}
}

func TestBitmapFieldUndefinedPositionErrors(t *testing.T) {
	f := &BitmapField{FieldName: "bitmap", BmpEnc: BitmapBinary, Kids: map[int]Field{}}
	store := newFieldStore()
	store.bmp = NewBitmap()
	if err := store.bmp.Set(2); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := f.Assemble(store, &buf); err == nil {
		t.Fatal("expected UndefinedFieldError for a set bit with no child field")
	}
}

func buildSampleSegment() MessageSegment {
	return MessageSegment{
		Name:     "authorization_request",
		ID:       "1100",
		Selector: []string{"1100"},
		Fields: []Field{
			&FixedField{FieldName: "mti", Pos: 0, Length: 4, Enc: ASCII},
			&BitmapField{
				FieldName: "bitmap",
				BmpEnc:    BitmapBinary,
				Kids: map[int]Field{
					2:  &VarField{FieldName: "pan", Pos: 2, LenInd: 2, LenEnc: ASCII, DataEnc: ASCII},
					3:  &FixedField{FieldName: "processing_code", Pos: 3, Length: 6, Enc: ASCII},
					4:  &FixedField{FieldName: "amount", Pos: 4, Length: 12, Enc: ASCII},
					11: &FixedField{FieldName: "stan", Pos: 11, Length: 6, Enc: ASCII},
				},
			},
		},
	}
}

func testSpec() *Spec {
	seg := buildSampleSegment()
	return &Spec{
		Name:         "sample",
		HeaderFields: []Field{&FixedField{FieldName: "mti", Pos: 0, Length: 4, Enc: ASCII}},
		Messages:     []MessageSegment{seg},
	}
}
