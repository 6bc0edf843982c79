package collada

import (
	"fmt"

	"github.com/ndisidore/collada/pkg/markup"
)

// alt is one alternative of a choice group: the element name that selects
// it and the constructor producing the group's variant.
type alt[T any] struct {
	name string
	fn   ctor[T]
}

// alternative adapts a concrete constructor to a choice group's variant
// type. N must implement T.
func alternative[T any, N any](name string, fn ctor[N]) alt[T] {
	return alt[T]{name: name, fn: func(e *markup.Element, b *builder) (T, error) {
		n, err := fn(e, b)
		if err != nil {
			var zero T
			return zero, err
		}
		t, ok := any(n).(T)
		if !ok {
			panic(fmt.Sprintf("alternative %q: %T does not implement the choice group", name, n))
		}
		return t, nil
	}}
}

// match returns the alternative selected by name.
func match[T any](alts []alt[T], name string) (alt[T], bool) {
	for _, a := range alts {
		if a.name == name {
			return a, true
		}
	}
	return alt[T]{}, false
}

// choose fills a single choice slot. Alternatives are tried in declared
// order against e itself, then against e's children; the first match wins.
func choose[T any](b *builder, e *markup.Element, alts []alt[T]) (T, bool, error) {
	if a, ok := match(alts, e.Name); ok {
		t, err := build(b, e, a.fn)
		return t, true, err
	}
	for _, a := range alts {
		if c := e.Child(a.name); c != nil {
			t, err := build(b, c, a.fn)
			return t, true, err
		}
	}
	var zero T
	return zero, false, nil
}

// chooseRequired is choose for a mandatory slot.
func chooseRequired[T any](b *builder, e *markup.Element, slot string, alts []alt[T]) (T, error) {
	t, ok, err := choose(b, e, alts)
	if err != nil {
		return t, err
	}
	if !ok {
		return t, &StructuralError{Element: e.Name, Field: slot, Err: ErrNoChoice}
	}
	return t, nil
}

// chooseEach fills a repeated choice: every child of e that names an
// alternative is built in document order; other children are ignored.
func chooseEach[T any](b *builder, e *markup.Element, alts []alt[T]) ([]T, error) {
	var out []T
	for _, c := range e.Children {
		a, ok := match(alts, c.Name)
		if !ok {
			continue
		}
		t, err := build(b, c, a.fn)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
