package iso8583

import "strings"

// MessageSegment is one routable message definition within a Spec: a
// selector of header values it answers to, and the ordered list of
// fields (bitmap typically among them) that make up its wire form.
type MessageSegment struct {
	Name     string
	ID       string
	Selector []string
	Fields   []Field
}

func (s *MessageSegment) findFieldByName(name string) Field {
	for _, f := range s.Fields {
		if f.Name() == name {
			return f
		}
	}
	for _, f := range s.Fields {
		if kids := f.Children(); kids != nil {
			for _, k := range kids {
				if k.Name() == name {
					return k
				}
			}
		}
	}
	return nil
}

func (s *MessageSegment) bitmapField() *BitmapField {
	for _, f := range s.Fields {
		if bf, ok := f.(*BitmapField); ok {
			return bf
		}
	}
	return nil
}

func (s *MessageSegment) childAtPosition(pos int) (Field, bool) {
	bf := s.bitmapField()
	if bf == nil {
		return nil, false
	}
	child, ok := bf.Kids[pos]
	return child, ok
}

// Spec is the process-lifetime, immutable description of a dialect:
// which fields make up the routing header, and which MessageSegments it
// can route to. Loaded once at startup, per 3.
type Spec struct {
	Name         string
	ID           string
	HeaderFields []Field
	Messages     []MessageSegment
}

// GetSegmentFor linear-scans Messages and returns the first whose
// Selector contains headerValue, per 4.D.
func (s *Spec) GetSegmentFor(headerValue string) (*MessageSegment, error) {
	for i := range s.Messages {
		seg := &s.Messages[i]
		for _, sel := range seg.Selector {
			if sel == headerValue {
				return seg, nil
			}
		}
	}
	return nil, &UnknownMessageError{Header: headerValue}
}

// NewMessageForSegment creates an empty Message bound to seg, ready for
// Set/SetOn and eventual Assemble.
func (s *Spec) NewMessageForSegment(seg *MessageSegment) *Message {
	return &Message{
		spec:    s,
		segment: seg,
		store:   &fieldStore{fd: make(map[string][]byte), bmp: NewBitmap()},
	}
}

// Parse implements the two-pass algorithm of 4.D: the header fields are
// read once to compute a routing selector, the cursor is rewound, and
// the located segment's full field list is read from the start. Residual
// bytes after the declared fields are discarded with a logged warning,
// per design note 9, not treated as an error.
func (s *Spec) Parse(data []byte) (*Message, error) {
	c := newCursor(data)
	header := newFieldStore()

	var selector strings.Builder
	for _, hf := range s.HeaderFields {
		if err := hf.Parse(c, header); err != nil {
			return nil, err
		}
		str, err := hf.ToString(header.fd[hf.Name()])
		if err != nil {
			return nil, err
		}
		selector.WriteString(str)
	}

	seg, err := s.GetSegmentFor(selector.String())
	if err != nil {
		return nil, err
	}

	msg := s.NewMessageForSegment(seg)
	c.rewind()

	for _, fld := range seg.Fields {
		if err := fld.Parse(c, msg.store); err != nil {
			return nil, err
		}
	}

	if residual := c.remaining(); len(residual) > 0 {
		logResidualBytes(seg.Name, len(residual))
	}

	return msg, nil
}
