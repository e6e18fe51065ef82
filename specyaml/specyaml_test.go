package specyaml

import "testing"

const minimalSpec = `
name: test-spec
header_fields:
  - name: mti
    type: fixed
    len: 4
    data_encoding: ascii
messages:
  - name: echo
    id: "0800"
    selector: ["0800"]
    fields:
      - name: mti
        type: fixed
        len: 4
        data_encoding: ascii
      - name: bitmap
        type: bitmapped
        bitmap_encoding: hex
        children:
          11:
            name: stan
            type: fixed
            len: 6
            data_encoding: ascii
          2:
            name: pan
            type: variable
            len: 2
            len_encoding: ascii
            data_encoding: ascii
`

func TestLoadBytesBuildsSpec(t *testing.T) {
	spec, err := LoadBytes([]byte(minimalSpec))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if spec.Name != "test-spec" {
		t.Fatalf("name = %q", spec.Name)
	}
	if len(spec.HeaderFields) != 1 {
		t.Fatalf("header fields = %d, want 1", len(spec.HeaderFields))
	}

	seg, err := spec.GetSegmentFor("0800")
	if err != nil {
		t.Fatalf("GetSegmentFor: %v", err)
	}
	if seg.Name != "echo" {
		t.Fatalf("segment = %q", seg.Name)
	}
}

func TestLoadBytesRejectsUnknownFieldType(t *testing.T) {
	bad := `
name: bad-spec
header_fields: []
messages:
  - name: x
    id: "0000"
    selector: ["0000"]
    fields:
      - name: y
        type: nonsense
        len: 1
`
	if _, err := LoadBytes([]byte(bad)); err == nil {
		t.Fatal("expected an error for an unknown field type")
	}
}

func TestLoadBytesRejectsBadVariableLength(t *testing.T) {
	bad := `
name: bad-spec
header_fields: []
messages:
  - name: x
    id: "0000"
    selector: ["0000"]
    fields:
      - name: y
        type: variable
        len: 9
        len_encoding: ascii
        data_encoding: ascii
`
	if _, err := LoadBytes([]byte(bad)); err == nil {
		t.Fatal("expected an error for a len_ind width outside 1-3")
	}
}
