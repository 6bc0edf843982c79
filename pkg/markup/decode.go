package markup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/ianaindex"
)

// ErrMalformed indicates the input is not well-formed markup.
var ErrMalformed = errors.New("malformed markup")

// EventKind identifies a streaming event.
type EventKind int

// Event kinds.
const (
	EventStart EventKind = iota
	EventEnd
	EventText
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	case EventText:
		return "text"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one start, end or text token. Attrs is only set for EventStart
// and Text only for EventText. Seq numbers start and end tags in document
// order, matching Element.Start and Element.End.
type Event struct {
	Kind  EventKind
	Name  string
	Attrs []Attr
	Text  string
	Line  int
	Seq   int
}

// Decoder produces events in document order. Comments, processing
// instructions and directives are dropped.
type Decoder struct {
	dec *xml.Decoder
	seq int
}

// NewDecoder returns a Decoder reading from r. Documents declaring a
// non-UTF-8 encoding are decoded through its IANA charset.
func NewDecoder(r io.Reader) *Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	return &Decoder{dec: dec}
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}

// Next returns the next event, or io.EOF once the input is exhausted.
func (d *Decoder) Next() (Event, error) {
	for {
		line, _ := d.dec.InputPos()
		tok, err := d.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var attrs []Attr
			for _, a := range t.Attr {
				if namespaceDecl(a.Name.Space, a.Name.Local) {
					continue
				}
				attrs = append(attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			d.seq++
			return Event{Kind: EventStart, Name: t.Name.Local, Attrs: attrs, Line: line, Seq: d.seq}, nil
		case xml.EndElement:
			d.seq++
			return Event{Kind: EventEnd, Name: t.Name.Local, Line: line, Seq: d.seq}, nil
		case xml.CharData:
			return Event{Kind: EventText, Text: string(t), Line: line}, nil
		default:
		}
	}
}

func namespaceDecl(space, local string) bool {
	return space == "xmlns" || (space == "" && local == "xmlns")
}
