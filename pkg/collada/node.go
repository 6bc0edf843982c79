package collada

import (
	"strings"
	"time"

	"github.com/ndisidore/collada/pkg/markup"
)

// Node is implemented by every typed element kind.
type Node interface {
	// ElementName returns the schema element name the node was built from.
	ElementName() string
}

// Ref is a URI-valued attribute. Target is set when the reference named a
// node that had finished constructing before the referrer.
type Ref struct {
	URI    string
	Target Node
}

// ID returns the referenced id without the local-reference marker.
func (r Ref) ID() string { return strings.TrimPrefix(r.URI, "#") }

// Local reports whether the reference points into the same document.
func (r Ref) Local() bool { return strings.HasPrefix(r.URI, "#") }

// Resolved reports whether Target is set.
func (r Ref) Resolved() bool { return r.Target != nil }

// UpAxis is the asset's up direction.
type UpAxis string

// Up axes.
const (
	XUp UpAxis = "X_UP"
	YUp UpAxis = "Y_UP"
	ZUp UpAxis = "Z_UP"
)

// Contributor describes one author of an asset.
type Contributor struct {
	Author        *string
	AuthoringTool *string
	Comments      *string
	Copyright     *string
	SourceData    *string
}

// Unit is the distance unit, expressed in meters.
type Unit struct {
	Name  string
	Meter float64
}

// DefaultUnit applies when an asset declares no unit.
var DefaultUnit = Unit{Name: "meter", Meter: 1}

// Asset carries document or element metadata.
type Asset struct {
	Contributors []Contributor
	Created      time.Time
	Modified     time.Time
	Keywords     *string
	Revision     *string
	Subject      *string
	Title        *string
	// Unit and UpAxis are nil when the asset does not declare them.
	Unit   *Unit
	UpAxis *UpAxis
}

// ElementName implements Node.
func (*Asset) ElementName() string { return "asset" }

// DistanceUnit returns the declared unit or DefaultUnit.
func (a *Asset) DistanceUnit() Unit {
	if a == nil || a.Unit == nil {
		return DefaultUnit
	}
	return *a.Unit
}

// Up returns the declared up axis or YUp.
func (a *Asset) Up() UpAxis {
	if a == nil || a.UpAxis == nil {
		return YUp
	}
	return *a.UpAxis
}

// Technique is profile-specific content kept as raw markup.
type Technique struct {
	Profile string
	Content *markup.Element
}

// Extra holds vendor extension content.
type Extra struct {
	ID         *string
	Name       *string
	Type       *string
	Asset      *Asset
	Techniques []Technique
}

// ElementName implements Node.
func (*Extra) ElementName() string { return "extra" }

func buildAsset(e *markup.Element, b *builder) (*Asset, error) {
	a := &Asset{}
	for _, c := range e.ChildrenNamed("contributor") {
		a.Contributors = append(a.Contributors, Contributor{
			Author:        childText(c, "author"),
			AuthoringTool: childText(c, "authoring_tool"),
			Comments:      childText(c, "comments"),
			Copyright:     childText(c, "copyright"),
			SourceData:    childText(c, "source_data"),
		})
	}
	var err error
	if a.Created, err = reqChildTime(e, "created"); err != nil {
		return nil, err
	}
	if a.Modified, err = reqChildTime(e, "modified"); err != nil {
		return nil, err
	}
	a.Keywords = childText(e, "keywords")
	a.Revision = childText(e, "revision")
	a.Subject = childText(e, "subject")
	a.Title = childText(e, "title")
	if u := e.Child("unit"); u != nil {
		unit := DefaultUnit
		if name, ok := u.Attr("name"); ok {
			unit.Name = name
		}
		if unit.Meter, err = floatAttrOr(u, "meter", 1); err != nil {
			return nil, err
		}
		a.Unit = &unit
	}
	if up := e.Child("up_axis"); up != nil {
		axis, err := enumValue(up, "up_axis", up.TrimmedText(), XUp, YUp, ZUp)
		if err != nil {
			return nil, err
		}
		a.UpAxis = &axis
	}
	return a, nil
}

func buildExtra(e *markup.Element, b *builder) (*Extra, error) {
	x := &Extra{
		ID:   optAttr(e, "id"),
		Name: optAttr(e, "name"),
		Type: optAttr(e, "type"),
	}
	var err error
	if x.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if x.Techniques, err = techniques(e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, x.ID, x)
}

// techniques collects the profile-specific technique children of e.
func techniques(e *markup.Element) ([]Technique, error) {
	var out []Technique
	for _, t := range e.ChildrenNamed("technique") {
		profile, err := reqAttr(t, "profile")
		if err != nil {
			return nil, err
		}
		out = append(out, Technique{Profile: profile, Content: t})
	}
	return out, nil
}
