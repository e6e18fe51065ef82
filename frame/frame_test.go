package frame

import (
	"bytes"
	"testing"
)

func TestWriteReadRoundTripAllVariants(t *testing.T) {
	payload := []byte("hello iso8583")
	for _, v := range []Variant{TwoExclusive, TwoInclusive, FourExclusive, FourInclusive} {
		var buf bytes.Buffer
		if err := Write(&buf, payload, v); err != nil {
			t.Fatalf("%s: Write: %v", v, err)
		}
		n, err := Read(&buf, v)
		if err != nil {
			t.Fatalf("%s: Read: %v", v, err)
		}
		got, err := ReadPayload(&buf, n)
		if err != nil {
			t.Fatalf("%s: ReadPayload: %v", v, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("%s: got %q, want %q", v, got, payload)
		}
	}
}

func TestReadConnectionClosedAtBoundary(t *testing.T) {
	r := bytes.NewReader(nil)
	if _, err := Read(r, TwoExclusive); err != ErrConnectionClosed {
		t.Fatalf("got %v, want ErrConnectionClosed", err)
	}
}

func TestReadTruncatedMidIndicator(t *testing.T) {
	r := bytes.NewReader([]byte{0x00})
	_, err := Read(r, TwoExclusive)
	if err == nil || err == ErrConnectionClosed {
		t.Fatalf("expected a TruncatedError, got %v", err)
	}
}

func TestInclusiveVariantsCountIndicatorWidth(t *testing.T) {
	mli, err := Create(10, TwoInclusive)
	if err != nil {
		t.Fatal(err)
	}
	n, err := ParseBytes(mli, TwoInclusive)
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 {
		t.Fatalf("declared payload length = %d, want 10", n)
	}
}

func TestReadPayloadTruncated(t *testing.T) {
	r := bytes.NewReader([]byte("ab"))
	if _, err := ReadPayload(r, 5); err == nil {
		t.Fatal("expected a truncation error reading a short body")
	}
}
