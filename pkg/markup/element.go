// Package markup reads XML documents into an ordered element tree or a flat
// stream of start/end/text events. Names are local names only: namespaces
// and prefixes are dropped, and matching is case-sensitive.
package markup

import "strings"

// Attr is a single attribute in document order.
type Attr struct {
	Name  string
	Value string
}

// Element is one tag instance with its attributes, children and text.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string
	// HasText reports whether any character data (including whitespace)
	// appeared directly inside the element.
	HasText bool
	Line    int
	// Start and End are the ordinals of the element's start and end tags
	// among all tags of the document, counting from 1. Zero means unknown.
	Start int
	End   int
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first child with the given name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the children with the given name in document order.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// TrimmedText returns the element text without surrounding whitespace.
func (e *Element) TrimmedText() string {
	return strings.TrimSpace(e.Text)
}

// AppendText adds a fragment of character data.
func (e *Element) AppendText(s string) {
	e.Text += s
	e.HasText = true
}

// AppendChild attaches c as the last child.
func (e *Element) AppendChild(c *Element) {
	e.Children = append(e.Children, c)
}
