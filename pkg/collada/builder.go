package collada

import (
	"fmt"
	"log/slog"

	"github.com/ndisidore/collada/pkg/markup"
)

// builder carries the state every constructor shares during one parse: the
// registry nodes register into and the nodes the streaming front-end has
// already finished.
type builder struct {
	reg          *Registry
	built        map[*markup.Element]Node
	log          *slog.Logger
	duplicates   DuplicatePolicy
	strictCounts bool
}

func newBuilder(opts Options, log *slog.Logger) *builder {
	return &builder{
		reg:          NewRegistry(),
		built:        make(map[*markup.Element]Node),
		log:          log,
		duplicates:   opts.Duplicates,
		strictCounts: opts.StrictCounts,
	}
}

// ctor constructs one element kind.
type ctor[T any] func(*markup.Element, *builder) (T, error)

// build runs fn on e unless the streaming front-end already constructed e,
// in which case the finished node is returned. Errors are prefixed with the
// element label so a failure names its path.
func build[T any](b *builder, e *markup.Element, fn ctor[T]) (T, error) {
	if n, ok := b.built[e]; ok {
		t, ok := n.(T)
		if !ok {
			var zero T
			return zero, &StructuralError{Element: e.Name, Field: e.Name, Err: ErrUnexpectedParent}
		}
		return t, nil
	}
	t, err := fn(e, b)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", label(e), err)
	}
	return t, nil
}

// label names an element for error messages.
func label(e *markup.Element) string {
	for _, key := range []string{"id", "sid", "name"} {
		if v, ok := e.Attr(key); ok {
			return fmt.Sprintf("%s %q", e.Name, v)
		}
	}
	return e.Name
}

// single returns the only child named name, or nil. A second one is an
// error since the caller would otherwise drop it.
func single(e *markup.Element, name string) (*markup.Element, error) {
	var found *markup.Element
	for _, c := range e.Children {
		if c.Name != name {
			continue
		}
		if found != nil {
			return nil, &StructuralError{Element: e.Name, Field: name, Err: ErrRepeatedChild}
		}
		found = c
	}
	return found, nil
}

// optional builds the child named name, or returns the zero value.
func optional[T any](b *builder, e *markup.Element, name string, fn ctor[T]) (T, error) {
	var zero T
	c, err := single(e, name)
	if err != nil || c == nil {
		return zero, err
	}
	return build(b, c, fn)
}

// required builds the child named name, failing when it is absent.
func required[T any](b *builder, e *markup.Element, name string, fn ctor[T]) (T, error) {
	var zero T
	c, err := single(e, name)
	if err != nil {
		return zero, err
	}
	if c == nil {
		return zero, missingChild(e.Name, name)
	}
	return build(b, c, fn)
}

// repeated builds every child named name in document order.
func repeated[T any](b *builder, e *markup.Element, name string, fn ctor[T]) ([]T, error) {
	var out []T
	for _, c := range e.Children {
		if c.Name != name {
			continue
		}
		t, err := build(b, c, fn)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// atLeast is repeated with a lower bound on the number of children.
func atLeast[T any](b *builder, e *markup.Element, name string, n int, fn ctor[T]) ([]T, error) {
	out, err := repeated(b, e, name, fn)
	if err != nil {
		return nil, err
	}
	if len(out) < n {
		return nil, missingChild(e.Name, name)
	}
	return out, nil
}

// extras builds the extension blocks of e.
func extras(b *builder, e *markup.Element) ([]*Extra, error) {
	return repeated(b, e, "extra", buildExtra)
}

// register records n under id as the constructor's final step.
func register[T Node](b *builder, e *markup.Element, id string, n T) (T, error) {
	if b.duplicates == DuplicateOverwrite {
		if b.reg.replace(id, n, e.End) {
			b.log.Warn("duplicate id overwritten",
				slog.String("id", id),
				slog.String("element", n.ElementName()),
			)
		}
		return n, nil
	}
	if err := b.reg.add(id, n, e.End); err != nil {
		var zero T
		return zero, err
	}
	return n, nil
}

// registerOpt registers n when the element declared an id.
func registerOpt[T Node](b *builder, e *markup.Element, id *string, n T) (T, error) {
	if id == nil {
		return n, nil
	}
	return register(b, e, *id, n)
}

// ref resolves a reference from e against nodes whose elements closed before
// e opened. Both front-ends therefore agree on forward references.
func (b *builder) ref(e *markup.Element, uri string) Ref {
	r := Ref{URI: uri}
	if r.Local() {
		if n, ok := b.reg.resolveBefore(uri, e.Start); ok {
			r.Target = n
			return r
		}
	}
	b.log.Debug("reference unresolved at construction", slog.String("uri", uri))
	return r
}

// reqRef reads a required reference attribute.
func reqRef(b *builder, e *markup.Element, name string) (Ref, error) {
	v, err := reqAttr(e, name)
	if err != nil {
		return Ref{}, err
	}
	return b.ref(e, v), nil
}

// optRef reads an optional reference attribute.
func optRef(b *builder, e *markup.Element, name string) *Ref {
	v, ok := e.Attr(name)
	if !ok {
		return nil
	}
	r := b.ref(e, v)
	return &r
}
