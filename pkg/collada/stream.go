package collada

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ndisidore/collada/pkg/markup"
)

type frame struct {
	el   *markup.Element
	kind elementKind
}

// streamer is the streaming stack parser. It is idle until the root start
// tag arrives and active while frames are on the stack.
type streamer struct {
	b     *builder
	stack []frame
	skip  []string
	seen  bool
	root  *Document
}

// stream parses r event by event. Each node kind is constructed when its end
// tag arrives; unknown subtrees are skipped without being materialized.
func stream(r io.Reader, b *builder) (*Document, error) {
	dec := markup.NewDecoder(r)
	s := &streamer{b: b}
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case markup.EventStart:
			err = s.start(ev)
		case markup.EventEnd:
			err = s.end(ev)
		case markup.EventText:
			s.text(ev.Text)
		}
		if err != nil {
			return nil, err
		}
	}
	if s.root == nil {
		return nil, ErrNoRoot
	}
	return s.root, nil
}

func (s *streamer) start(ev markup.Event) error {
	if len(s.skip) > 0 {
		s.skip = append(s.skip, ev.Name)
		return nil
	}
	el := &markup.Element{Name: ev.Name, Attrs: ev.Attrs, Line: ev.Line, Start: ev.Seq}
	if len(s.stack) == 0 {
		if s.seen {
			return fmt.Errorf("%w: line %d: second root element %q", markup.ErrMalformed, ev.Line, ev.Name)
		}
		s.seen = true
		if ev.Name != "COLLADA" {
			s.skipFrom("", ev)
			return nil
		}
		s.stack = append(s.stack, frame{el: el, kind: _kinds["COLLADA"]})
		return nil
	}
	top := s.stack[len(s.stack)-1]
	kind, ok := _rawKind, top.kind.raw
	if !ok {
		kind, ok = lookupKind(top.el.Name, ev.Name)
	}
	if !ok {
		if misplaced(ev.Name) {
			return s.wrap(misplacedError(el, top.el.Name))
		}
		s.skipFrom(top.el.Name, ev)
		return nil
	}
	top.el.AppendChild(el)
	s.stack = append(s.stack, frame{el: el, kind: kind})
	return nil
}

func (s *streamer) skipFrom(parent string, ev markup.Event) {
	s.b.log.Debug("skipping element",
		slog.String("element", ev.Name),
		slog.String("parent", parent),
		slog.Int("line", ev.Line),
	)
	s.skip = append(s.skip, ev.Name)
}

func (s *streamer) end(ev markup.Event) error {
	if len(s.skip) > 0 {
		s.skip = s.skip[:len(s.skip)-1]
		return nil
	}
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	f.el.End = ev.Seq
	if f.kind.build == nil {
		return nil
	}
	n, err := build(s.b, f.el, f.kind.build)
	if err != nil {
		return s.wrap(err)
	}
	s.b.built[f.el] = n
	s.b.log.Debug("constructed node",
		slog.String("element", f.el.Name),
		slog.Int("line", f.el.Line),
	)
	if len(s.stack) == 0 {
		doc, ok := n.(*Document)
		if !ok {
			return ErrNoRoot
		}
		s.root = doc
	}
	return nil
}

func (s *streamer) text(t string) {
	if len(s.skip) > 0 || len(s.stack) == 0 {
		return
	}
	if top := s.stack[len(s.stack)-1]; top.kind.text {
		top.el.AppendText(t)
	}
}

// wrap prefixes err with the labels of the open ancestors, outermost first.
func (s *streamer) wrap(err error) error {
	for i := len(s.stack) - 1; i >= 0; i-- {
		err = fmt.Errorf("%s: %w", label(s.stack[i].el), err)
	}
	return err
}
