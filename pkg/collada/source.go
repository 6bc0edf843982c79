package collada

import (
	"fmt"

	"github.com/ndisidore/collada/pkg/markup"
)

// DataArray is the array held by a source: one of float_array, int_array,
// bool_array, Name_array, IDREF_array, SIDREF_array or token_array.
type DataArray interface {
	Node
	Len() int
	isDataArray()
}

// ArrayHeader holds the attributes shared by every array kind.
type ArrayHeader struct {
	ID    *string
	Name  *string
	Count uint64
}

// FloatArray is a float_array.
type FloatArray struct {
	ArrayHeader
	Digits    int64
	Magnitude int64
	Values    []float64
}

// IntArray is an int_array.
type IntArray struct {
	ArrayHeader
	MinInclusive int64
	MaxInclusive int64
	Values       []int64
}

// BoolArray is a bool_array.
type BoolArray struct {
	ArrayHeader
	Values []bool
}

// NameArray is a Name_array.
type NameArray struct {
	ArrayHeader
	Values []string
}

// IDREFArray is an IDREF_array.
type IDREFArray struct {
	ArrayHeader
	Values []string
}

// SIDREFArray is a SIDREF_array.
type SIDREFArray struct {
	ArrayHeader
	Values []string
}

// TokenArray is a token_array.
type TokenArray struct {
	ArrayHeader
	Values []string
}

func (*FloatArray) ElementName() string  { return "float_array" }
func (*IntArray) ElementName() string    { return "int_array" }
func (*BoolArray) ElementName() string   { return "bool_array" }
func (*NameArray) ElementName() string   { return "Name_array" }
func (*IDREFArray) ElementName() string  { return "IDREF_array" }
func (*SIDREFArray) ElementName() string { return "SIDREF_array" }
func (*TokenArray) ElementName() string  { return "token_array" }

func (a *FloatArray) Len() int  { return len(a.Values) }
func (a *IntArray) Len() int    { return len(a.Values) }
func (a *BoolArray) Len() int   { return len(a.Values) }
func (a *NameArray) Len() int   { return len(a.Values) }
func (a *IDREFArray) Len() int  { return len(a.Values) }
func (a *SIDREFArray) Len() int { return len(a.Values) }
func (a *TokenArray) Len() int  { return len(a.Values) }

func (*FloatArray) isDataArray()  {}
func (*IntArray) isDataArray()    {}
func (*BoolArray) isDataArray()   {}
func (*NameArray) isDataArray()   {}
func (*IDREFArray) isDataArray()  {}
func (*SIDREFArray) isDataArray() {}
func (*TokenArray) isDataArray()  {}

// Param describes one component of an accessor's stride.
type Param struct {
	Name     *string
	SID      *string
	Type     string
	Semantic *string
}

// Accessor describes how to read a source's array.
type Accessor struct {
	Count  uint64
	Offset uint64
	Source Ref
	Stride uint64
	Params []Param
}

// Source is a typed data container.
type Source struct {
	ID         string
	Name       *string
	Asset      *Asset
	Array      DataArray
	Accessor   *Accessor
	Techniques []Technique
}

// ElementName implements Node.
func (*Source) ElementName() string { return "source" }

// InputUnshared binds a semantic to a source.
type InputUnshared struct {
	Semantic string
	Source   Ref
}

// InputShared binds a semantic to a source at an index offset.
type InputShared struct {
	Offset   uint64
	Semantic string
	Source   Ref
	Set      *uint64
}

var _arrayAlts = []alt[DataArray]{
	alternative[DataArray]("float_array", buildFloatArray),
	alternative[DataArray]("int_array", buildIntArray),
	alternative[DataArray]("bool_array", buildBoolArray),
	alternative[DataArray]("Name_array", stringArray(func(h ArrayHeader, v []string) *NameArray { return &NameArray{h, v} })),
	alternative[DataArray]("IDREF_array", stringArray(func(h ArrayHeader, v []string) *IDREFArray { return &IDREFArray{h, v} })),
	alternative[DataArray]("SIDREF_array", stringArray(func(h ArrayHeader, v []string) *SIDREFArray { return &SIDREFArray{h, v} })),
	alternative[DataArray]("token_array", stringArray(func(h ArrayHeader, v []string) *TokenArray { return &TokenArray{h, v} })),
}

func buildSource(e *markup.Element, b *builder) (*Source, error) {
	id, err := reqAttr(e, "id")
	if err != nil {
		return nil, err
	}
	s := &Source{ID: id, Name: optAttr(e, "name")}
	if s.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if s.Array, _, err = choose(b, e, _arrayAlts); err != nil {
		return nil, err
	}
	if tc := e.Child("technique_common"); tc != nil {
		acc, err := required(b, tc, "accessor", buildAccessor)
		if err != nil {
			return nil, fmt.Errorf("technique_common: %w", err)
		}
		s.Accessor = acc
	}
	if s.Techniques, err = techniques(e); err != nil {
		return nil, err
	}
	return register(b, e, id, s)
}

func arrayHeader(e *markup.Element) (ArrayHeader, error) {
	count, err := reqUintAttr(e, "count")
	if err != nil {
		return ArrayHeader{}, err
	}
	return ArrayHeader{ID: optAttr(e, "id"), Name: optAttr(e, "name"), Count: count}, nil
}

// checkCount enforces the declared element count when strict counting is on.
func checkCount(b *builder, e *markup.Element, h ArrayHeader, n int) error {
	if !b.strictCounts || h.Count == uint64(n) {
		return nil
	}
	return &ValueError{
		Element: e.Name,
		Field:   "count",
		Err:     fmt.Errorf("%w: count=%d, values=%d", ErrCountMismatch, h.Count, n),
	}
}

func buildFloatArray(e *markup.Element, b *builder) (*FloatArray, error) {
	h, err := arrayHeader(e)
	if err != nil {
		return nil, err
	}
	a := &FloatArray{ArrayHeader: h}
	if a.Digits, err = intAttrOr(e, "digits", 6); err != nil {
		return nil, err
	}
	if a.Magnitude, err = intAttrOr(e, "magnitude", 38); err != nil {
		return nil, err
	}
	if a.Values, err = list(e, e.Name, e.Text, parseFloat); err != nil {
		return nil, err
	}
	if err := checkCount(b, e, h, len(a.Values)); err != nil {
		return nil, err
	}
	return registerOpt(b, e, h.ID, a)
}

func buildIntArray(e *markup.Element, b *builder) (*IntArray, error) {
	h, err := arrayHeader(e)
	if err != nil {
		return nil, err
	}
	a := &IntArray{ArrayHeader: h}
	if a.MinInclusive, err = intAttrOr(e, "minInclusive", -2147483648); err != nil {
		return nil, err
	}
	if a.MaxInclusive, err = intAttrOr(e, "maxInclusive", 2147483647); err != nil {
		return nil, err
	}
	if a.Values, err = list(e, e.Name, e.Text, parseInt); err != nil {
		return nil, err
	}
	if err := checkCount(b, e, h, len(a.Values)); err != nil {
		return nil, err
	}
	return registerOpt(b, e, h.ID, a)
}

func buildBoolArray(e *markup.Element, b *builder) (*BoolArray, error) {
	h, err := arrayHeader(e)
	if err != nil {
		return nil, err
	}
	a := &BoolArray{ArrayHeader: h}
	if a.Values, err = list(e, e.Name, e.Text, parseBool); err != nil {
		return nil, err
	}
	if err := checkCount(b, e, h, len(a.Values)); err != nil {
		return nil, err
	}
	return registerOpt(b, e, h.ID, a)
}

// stringArray returns a constructor for the token-valued array kinds.
func stringArray[T Node](mk func(ArrayHeader, []string) T) ctor[T] {
	return func(e *markup.Element, b *builder) (T, error) {
		var zero T
		h, err := arrayHeader(e)
		if err != nil {
			return zero, err
		}
		values, err := list(e, e.Name, e.Text, parseString)
		if err != nil {
			return zero, err
		}
		if err := checkCount(b, e, h, len(values)); err != nil {
			return zero, err
		}
		return registerOpt(b, e, h.ID, mk(h, values))
	}
}

func buildAccessor(e *markup.Element, b *builder) (*Accessor, error) {
	count, err := reqUintAttr(e, "count")
	if err != nil {
		return nil, err
	}
	src, err := reqRef(b, e, "source")
	if err != nil {
		return nil, err
	}
	a := &Accessor{Count: count, Source: src}
	if a.Offset, err = uintAttrOr(e, "offset", 0); err != nil {
		return nil, err
	}
	if a.Stride, err = uintAttrOr(e, "stride", 1); err != nil {
		return nil, err
	}
	for _, p := range e.ChildrenNamed("param") {
		typ, err := reqAttr(p, "type")
		if err != nil {
			return nil, fmt.Errorf("param: %w", err)
		}
		a.Params = append(a.Params, Param{
			Name:     optAttr(p, "name"),
			SID:      optAttr(p, "sid"),
			Type:     typ,
			Semantic: optAttr(p, "semantic"),
		})
	}
	return a, nil
}

func inputUnshared(b *builder, e *markup.Element) (InputUnshared, error) {
	sem, err := reqAttr(e, "semantic")
	if err != nil {
		return InputUnshared{}, err
	}
	src, err := reqRef(b, e, "source")
	if err != nil {
		return InputUnshared{}, err
	}
	return InputUnshared{Semantic: sem, Source: src}, nil
}

// inputsUnshared reads the unshared inputs of e; at least minCount are required.
func inputsUnshared(b *builder, e *markup.Element, minCount int) ([]InputUnshared, error) {
	var out []InputUnshared
	for _, c := range e.ChildrenNamed("input") {
		in, err := inputUnshared(b, c)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		out = append(out, in)
	}
	if len(out) < minCount {
		return nil, missingChild(e.Name, "input")
	}
	return out, nil
}

func inputsShared(b *builder, e *markup.Element) ([]InputShared, error) {
	var out []InputShared
	for _, c := range e.ChildrenNamed("input") {
		offset, err := reqUintAttr(c, "offset")
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		base, err := inputUnshared(b, c)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		set, err := optUintAttr(c, "set")
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		out = append(out, InputShared{Offset: offset, Semantic: base.Semantic, Source: base.Source, Set: set})
	}
	return out, nil
}
