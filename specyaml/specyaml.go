// Package specyaml is the declarative spec loader of spec section 6: it
// reads the enumerated per-field schema (name, id, type, len(s),
// encodings, position, children) from YAML and builds an in-memory
// iso8583.Spec. Treated as an external collaborator to the core per 1 —
// the core never imports this package, and the core has no notion of
// files or YAML.
package specyaml

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kestrelpay/iso8583"
)

// fieldDoc is the YAML shape of one field declaration, shared by
// header fields, segment fields and bitmap children.
type fieldDoc struct {
	Name           string              `yaml:"name"`
	ID             string              `yaml:"id,omitempty"`
	Type           string              `yaml:"type"` // fixed | variable | bitmapped
	Len            int                 `yaml:"len,omitempty"`
	LenEncoding    string              `yaml:"len_encoding,omitempty"`
	DataEncoding   string              `yaml:"data_encoding,omitempty"`
	BitmapEncoding string              `yaml:"bitmap_encoding,omitempty"`
	Position       int                 `yaml:"position,omitempty"`
	Children       map[int]fieldDoc    `yaml:"children,omitempty"`
}

type segmentDoc struct {
	Name     string     `yaml:"name"`
	ID       string     `yaml:"id,omitempty"`
	Selector []string   `yaml:"selector"`
	Fields   []fieldDoc `yaml:"fields"`
}

type specDoc struct {
	Name         string       `yaml:"name"`
	ID           string       `yaml:"id,omitempty"`
	HeaderFields []fieldDoc   `yaml:"header_fields"`
	Messages     []segmentDoc `yaml:"messages"`
}

func parseEncoding(s string) (iso8583.Encoding, error) {
	switch s {
	case "", "ascii":
		return iso8583.ASCII, nil
	case "ebcdic":
		return iso8583.EBCDIC, nil
	case "binary":
		return iso8583.BINARY, nil
	case "bcd":
		return iso8583.BCD, nil
	default:
		return 0, fmt.Errorf("specyaml: unknown encoding %q", s)
	}
}

func parseBitmapEncoding(s string) (iso8583.BitmapEncoding, error) {
	switch s {
	case "", "binary":
		return iso8583.BitmapBinary, nil
	case "hex":
		return iso8583.BitmapHex, nil
	default:
		return 0, fmt.Errorf("specyaml: unknown bitmap encoding %q", s)
	}
}

func buildField(doc fieldDoc) (iso8583.Field, error) {
	switch doc.Type {
	case "fixed":
		enc, err := parseEncoding(doc.DataEncoding)
		if err != nil {
			return nil, err
		}
		return &iso8583.FixedField{
			FieldName: doc.Name,
			ID:        doc.ID,
			Pos:       doc.Position,
			Length:    doc.Len,
			Enc:       enc,
		}, nil

	case "variable":
		lenEnc, err := parseEncoding(doc.LenEncoding)
		if err != nil {
			return nil, err
		}
		dataEnc, err := parseEncoding(doc.DataEncoding)
		if err != nil {
			return nil, err
		}
		if doc.Len < 1 || doc.Len > 3 {
			return nil, fmt.Errorf("specyaml: field %q: len_ind_bytes must be 1-3, got %d", doc.Name, doc.Len)
		}
		return &iso8583.VarField{
			FieldName: doc.Name,
			ID:        doc.ID,
			Pos:       doc.Position,
			LenInd:    doc.Len,
			LenEnc:    lenEnc,
			DataEnc:   dataEnc,
		}, nil

	case "bitmapped":
		bmpEnc, err := parseBitmapEncoding(doc.BitmapEncoding)
		if err != nil {
			return nil, err
		}
		kids := make(map[int]iso8583.Field, len(doc.Children))
		for pos, childDoc := range doc.Children {
			childDoc.Position = pos
			child, err := buildField(childDoc)
			if err != nil {
				return nil, err
			}
			kids[pos] = child
		}
		return &iso8583.BitmapField{
			FieldName: doc.Name,
			BmpEnc:    bmpEnc,
			Kids:      kids,
		}, nil

	default:
		return nil, fmt.Errorf("specyaml: unknown field type %q for field %q", doc.Type, doc.Name)
	}
}

// Load reads a YAML spec document from path and builds an iso8583.Spec.
func Load(path string) (*iso8583.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("specyaml: read %s: %w", path, err)
	}
	return LoadBytes(data)
}

// LoadBytes builds an iso8583.Spec from an in-memory YAML document.
func LoadBytes(data []byte) (*iso8583.Spec, error) {
	var doc specDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("specyaml: parse: %w", err)
	}

	headerFields := make([]iso8583.Field, 0, len(doc.HeaderFields))
	for _, fd := range doc.HeaderFields {
		f, err := buildField(fd)
		if err != nil {
			return nil, err
		}
		headerFields = append(headerFields, f)
	}

	messages := make([]iso8583.MessageSegment, 0, len(doc.Messages))
	for _, sd := range doc.Messages {
		fields := make([]iso8583.Field, 0, len(sd.Fields))
		for _, fd := range sd.Fields {
			f, err := buildField(fd)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		messages = append(messages, iso8583.MessageSegment{
			Name:     sd.Name,
			ID:       sd.ID,
			Selector: sd.Selector,
			Fields:   fields,
		})
	}

	return &iso8583.Spec{
		Name:         doc.Name,
		ID:           doc.ID,
		HeaderFields: headerFields,
		Messages:     messages,
	}, nil
}
