package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/agentflare-ai/go-xmldom"
)

// ErrNoRoot indicates the input contained no element.
var ErrNoRoot = errors.New("no root element")

// ReadTree decodes the whole document into a DOM and returns its root
// element converted to an Element tree.
func ReadTree(r io.Reader) (*Element, error) {
	doc, err := xmldom.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	root := doc.DocumentElement()
	if root == nil {
		return nil, ErrNoRoot
	}
	for n := root.NextSibling(); n != nil; n = n.NextSibling() {
		if n.NodeType() == xmldom.ELEMENT_NODE {
			line, _, _ := n.Position()
			return nil, fmt.Errorf("%w: line %d: second root element %q", ErrMalformed, line, n.LocalName())
		}
	}
	var seq int
	return convert(root, &seq), nil
}

// ReadTreeString is ReadTree over a string.
func ReadTreeString(s string) (*Element, error) {
	return ReadTree(strings.NewReader(s))
}

// convert copies a DOM element and its subtree. seq numbers start and end
// tags the way Decoder does.
func convert(n xmldom.Element, seq *int) *Element {
	*seq++
	line, _, _ := n.Position()
	e := &Element{Name: string(n.LocalName()), Line: line, Start: *seq}

	if attrs := n.Attributes(); attrs != nil {
		for i := uint(0); i < attrs.Length(); i++ {
			a, ok := attrs.Item(i).(xmldom.Attr)
			if !ok || namespaceDecl(string(a.NamespaceURI()), string(a.LocalName())) {
				continue
			}
			e.Attrs = append(e.Attrs, Attr{Name: string(a.LocalName()), Value: string(a.Value())})
		}
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.NodeType() {
		case xmldom.ELEMENT_NODE:
			if ce, ok := c.(xmldom.Element); ok {
				e.AppendChild(convert(ce, seq))
			}
		case xmldom.TEXT_NODE, xmldom.CDATA_SECTION_NODE:
			e.AppendText(string(c.NodeValue()))
		}
	}

	*seq++
	e.End = *seq
	return e
}
