package collada

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ndisidore/collada/pkg/markup"
)

var (
	_errNotBool = errors.New("not a boolean")
	_errNotEnum = errors.New("not a permitted value")
	_errNotTime = errors.New("not a dateTime")
)

// _timeLayouts are the xs:dateTime forms seen in the wild; the zone is
// optional.
var _timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseFloat(tok string) (float64, error) { return strconv.ParseFloat(tok, 64) }

func parseInt(tok string) (int64, error) { return strconv.ParseInt(tok, 10, 64) }

func parseUint(tok string) (uint64, error) { return strconv.ParseUint(tok, 10, 64) }

func parseBool(tok string) (bool, error) {
	switch tok {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, _errNotBool
	}
}

func parseString(tok string) (string, error) { return tok, nil }

func parseTime(tok string) (time.Time, error) {
	for _, layout := range _timeLayouts {
		if t, err := time.Parse(layout, tok); err == nil {
			return t, nil
		}
	}
	return time.Time{}, _errNotTime
}

// scalar parses a single token, reporting failures as a ValueError.
func scalar[T any](e *markup.Element, field, tok string, parse func(string) (T, error)) (T, error) {
	v, err := parse(tok)
	if err != nil {
		var zero T
		return zero, &ValueError{Element: e.Name, Field: field, Token: tok, Err: unwrapNum(err)}
	}
	return v, nil
}

// list parses whitespace-delimited tokens. The first bad token fails the
// whole list.
func list[T any](e *markup.Element, field, s string, parse func(string) (T, error)) ([]T, error) {
	fields := strings.Fields(s)
	out := make([]T, 0, len(fields))
	for _, tok := range fields {
		v, err := scalar(e, field, tok, parse)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// fixed parses exactly n whitespace-delimited values.
func fixed[T any](e *markup.Element, field, s string, n int, parse func(string) (T, error)) ([]T, error) {
	out, err := list(e, field, s, parse)
	if err != nil {
		return nil, err
	}
	if len(out) != n {
		return nil, &ValueError{
			Element: e.Name,
			Field:   field,
			Err:     fmt.Errorf("%w: want %d, got %d", ErrArity, n, len(out)),
		}
	}
	return out, nil
}

// unwrapNum strips strconv's NumError wrapper, which repeats the token.
func unwrapNum(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}

// enumValue checks tok against the permitted values.
func enumValue[T ~string](e *markup.Element, field, tok string, allowed ...T) (T, error) {
	for _, a := range allowed {
		if string(a) == tok {
			return a, nil
		}
	}
	return "", &ValueError{Element: e.Name, Field: field, Token: tok, Err: _errNotEnum}
}

// enumAttrOr reads an optional enumerated attribute with a schema default.
func enumAttrOr[T ~string](e *markup.Element, name string, def T, allowed ...T) (T, error) {
	v, ok := e.Attr(name)
	if !ok {
		return def, nil
	}
	return enumValue(e, name, v, allowed...)
}

func reqAttr(e *markup.Element, name string) (string, error) {
	v, ok := e.Attr(name)
	if !ok {
		return "", missingAttr(e.Name, name)
	}
	return v, nil
}

func optAttr(e *markup.Element, name string) *string {
	v, ok := e.Attr(name)
	if !ok {
		return nil
	}
	return &v
}

func reqUintAttr(e *markup.Element, name string) (uint64, error) {
	v, err := reqAttr(e, name)
	if err != nil {
		return 0, err
	}
	return scalar(e, name, v, parseUint)
}

func optUintAttr(e *markup.Element, name string) (*uint64, error) {
	v, ok := e.Attr(name)
	if !ok {
		return nil, nil
	}
	u, err := scalar(e, name, v, parseUint)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func uintAttrOr(e *markup.Element, name string, def uint64) (uint64, error) {
	v, ok := e.Attr(name)
	if !ok {
		return def, nil
	}
	return scalar(e, name, v, parseUint)
}

func intAttrOr(e *markup.Element, name string, def int64) (int64, error) {
	v, ok := e.Attr(name)
	if !ok {
		return def, nil
	}
	return scalar(e, name, v, parseInt)
}

func floatAttrOr(e *markup.Element, name string, def float64) (float64, error) {
	v, ok := e.Attr(name)
	if !ok {
		return def, nil
	}
	return scalar(e, name, v, parseFloat)
}

func optFloatAttr(e *markup.Element, name string) (*float64, error) {
	v, ok := e.Attr(name)
	if !ok {
		return nil, nil
	}
	f, err := scalar(e, name, v, parseFloat)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func boolAttrOr(e *markup.Element, name string, def bool) (bool, error) {
	v, ok := e.Attr(name)
	if !ok {
		return def, nil
	}
	return scalar(e, name, v, parseBool)
}

func optBoolAttr(e *markup.Element, name string) (*bool, error) {
	v, ok := e.Attr(name)
	if !ok {
		return nil, nil
	}
	f, err := scalar(e, name, v, parseBool)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// childText returns the trimmed text of the first child named name.
func childText(e *markup.Element, name string) *string {
	c := e.Child(name)
	if c == nil {
		return nil
	}
	s := c.TrimmedText()
	return &s
}

func reqChildText(e *markup.Element, name string) (string, error) {
	c := e.Child(name)
	if c == nil {
		return "", missingChild(e.Name, name)
	}
	return c.TrimmedText(), nil
}

func reqChildTime(e *markup.Element, name string) (time.Time, error) {
	s, err := reqChildText(e, name)
	if err != nil {
		return time.Time{}, err
	}
	return scalar(e.Child(name), name, s, parseTime)
}

// childFloat reads an optional float-valued child.
func childFloat(e *markup.Element, name string) (*float64, error) {
	c := e.Child(name)
	if c == nil {
		return nil, nil
	}
	f, err := scalar(c, name, c.TrimmedText(), parseFloat)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func childFloatOr(e *markup.Element, name string, def float64) (float64, error) {
	f, err := childFloat(e, name)
	if err != nil || f == nil {
		return def, err
	}
	return *f, nil
}

func childBool(e *markup.Element, name string) (*bool, error) {
	c := e.Child(name)
	if c == nil {
		return nil, nil
	}
	v, err := scalar(c, name, c.TrimmedText(), parseBool)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// childFixed reads an optional child holding exactly n floats.
func childFixed(e *markup.Element, name string, n int) ([]float64, error) {
	c := e.Child(name)
	if c == nil {
		return nil, nil
	}
	return fixed(c, name, c.Text, n, parseFloat)
}

// SIDFloat is a float value that may be addressed by a scoped id.
type SIDFloat struct {
	SID   *string
	Value float64
}

func sidFloat(c *markup.Element) (SIDFloat, error) {
	v, err := scalar(c, c.Name, c.TrimmedText(), parseFloat)
	if err != nil {
		return SIDFloat{}, err
	}
	return SIDFloat{SID: optAttr(c, "sid"), Value: v}, nil
}

func optSIDFloat(e *markup.Element, name string) (*SIDFloat, error) {
	c := e.Child(name)
	if c == nil {
		return nil, nil
	}
	v, err := sidFloat(c)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func reqSIDFloat(e *markup.Element, name string) (SIDFloat, error) {
	c := e.Child(name)
	if c == nil {
		return SIDFloat{}, missingChild(e.Name, name)
	}
	return sidFloat(c)
}
