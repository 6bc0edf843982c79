package collada

import (
	"fmt"

	"github.com/ndisidore/collada/pkg/markup"
)

// Projection is a camera's projection: perspective or orthographic.
type Projection interface {
	Node
	isProjection()
}

// Perspective is a perspective projection. Field-of-view values are in
// degrees.
type Perspective struct {
	XFov        *SIDFloat
	YFov        *SIDFloat
	AspectRatio *SIDFloat
	ZNear       SIDFloat
	ZFar        SIDFloat
}

// Orthographic is an orthographic projection.
type Orthographic struct {
	XMag        *SIDFloat
	YMag        *SIDFloat
	AspectRatio *SIDFloat
	ZNear       SIDFloat
	ZFar        SIDFloat
}

func (*Perspective) ElementName() string  { return "perspective" }
func (*Orthographic) ElementName() string { return "orthographic" }
func (*Perspective) isProjection()        {}
func (*Orthographic) isProjection()       {}

// Optics describes a camera's lens.
type Optics struct {
	Projection Projection
	Techniques []Technique
	Extras     []*Extra
}

// Camera is a camera library item.
type Camera struct {
	ID     *string
	Name   *string
	Asset  *Asset
	Optics Optics
	Extras []*Extra
}

// ElementName implements Node.
func (*Camera) ElementName() string { return "camera" }

// LightSource is a light's emitter: ambient, directional, point or spot.
type LightSource interface {
	Node
	LightColor() SIDColor
	isLightSource()
}

// SIDColor is an RGB color optionally addressable by sid.
type SIDColor struct {
	SID *string
	RGB [3]float64
}

// LightColor returns c; it lets every emitter satisfy LightSource.
func (c SIDColor) LightColor() SIDColor { return c }

// Attenuation is the falloff of point and spot lights.
type Attenuation struct {
	Constant  SIDFloat
	Linear    SIDFloat
	Quadratic SIDFloat
}

// AmbientLight lights everything uniformly.
type AmbientLight struct{ SIDColor }

// DirectionalLight shines along the node's -Z axis.
type DirectionalLight struct{ SIDColor }

// PointLight shines from the node's origin.
type PointLight struct {
	SIDColor
	Attenuation
}

// SpotLight shines a cone along the node's -Z axis.
type SpotLight struct {
	SIDColor
	Attenuation
	FalloffAngle    SIDFloat
	FalloffExponent SIDFloat
}

func (*AmbientLight) ElementName() string     { return "ambient" }
func (*DirectionalLight) ElementName() string { return "directional" }
func (*PointLight) ElementName() string       { return "point" }
func (*SpotLight) ElementName() string        { return "spot" }

func (*AmbientLight) isLightSource()     {}
func (*DirectionalLight) isLightSource() {}
func (*PointLight) isLightSource()       {}
func (*SpotLight) isLightSource()        {}

// Light is a light library item.
type Light struct {
	ID         *string
	Name       *string
	Asset      *Asset
	Source     LightSource
	Techniques []Technique
	Extras     []*Extra
}

// ElementName implements Node.
func (*Light) ElementName() string { return "light" }

var (
	_projectionAlts = []alt[Projection]{
		alternative[Projection]("perspective", buildPerspective),
		alternative[Projection]("orthographic", buildOrthographic),
	}
	_lightAlts = []alt[LightSource]{
		alternative[LightSource]("ambient", buildAmbientLight),
		alternative[LightSource]("directional", buildDirectionalLight),
		alternative[LightSource]("point", buildPointLight),
		alternative[LightSource]("spot", buildSpotLight),
	}
)

func buildCamera(e *markup.Element, b *builder) (*Camera, error) {
	c := &Camera{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if c.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	optics := e.Child("optics")
	if optics == nil {
		return nil, missingChild(e.Name, "optics")
	}
	tc := optics.Child("technique_common")
	if tc == nil {
		return nil, fmt.Errorf("optics: %w", missingChild("optics", "technique_common"))
	}
	if c.Optics.Projection, err = chooseRequired(b, tc, "perspective|orthographic", _projectionAlts); err != nil {
		return nil, fmt.Errorf("optics: technique_common: %w", err)
	}
	if c.Optics.Techniques, err = techniques(optics); err != nil {
		return nil, fmt.Errorf("optics: %w", err)
	}
	if c.Optics.Extras, err = extras(b, optics); err != nil {
		return nil, fmt.Errorf("optics: %w", err)
	}
	if c.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, c.ID, c)
}

func buildPerspective(e *markup.Element, _ *builder) (*Perspective, error) {
	p := &Perspective{}
	var err error
	if p.XFov, err = optSIDFloat(e, "xfov"); err != nil {
		return nil, err
	}
	if p.YFov, err = optSIDFloat(e, "yfov"); err != nil {
		return nil, err
	}
	if p.AspectRatio, err = optSIDFloat(e, "aspect_ratio"); err != nil {
		return nil, err
	}
	if p.ZNear, err = reqSIDFloat(e, "znear"); err != nil {
		return nil, err
	}
	if p.ZFar, err = reqSIDFloat(e, "zfar"); err != nil {
		return nil, err
	}
	return p, nil
}

func buildOrthographic(e *markup.Element, _ *builder) (*Orthographic, error) {
	o := &Orthographic{}
	var err error
	if o.XMag, err = optSIDFloat(e, "xmag"); err != nil {
		return nil, err
	}
	if o.YMag, err = optSIDFloat(e, "ymag"); err != nil {
		return nil, err
	}
	if o.AspectRatio, err = optSIDFloat(e, "aspect_ratio"); err != nil {
		return nil, err
	}
	if o.ZNear, err = reqSIDFloat(e, "znear"); err != nil {
		return nil, err
	}
	if o.ZFar, err = reqSIDFloat(e, "zfar"); err != nil {
		return nil, err
	}
	return o, nil
}

func buildLight(e *markup.Element, b *builder) (*Light, error) {
	l := &Light{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if l.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	tc := e.Child("technique_common")
	if tc == nil {
		return nil, missingChild(e.Name, "technique_common")
	}
	if l.Source, err = chooseRequired(b, tc, "ambient|directional|point|spot", _lightAlts); err != nil {
		return nil, fmt.Errorf("technique_common: %w", err)
	}
	if l.Techniques, err = techniques(e); err != nil {
		return nil, err
	}
	if l.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, l.ID, l)
}

func lightColor(e *markup.Element) (SIDColor, error) {
	c := e.Child("color")
	if c == nil {
		return SIDColor{}, missingChild(e.Name, "color")
	}
	v, err := fixed(c, "color", c.Text, 3, parseFloat)
	if err != nil {
		return SIDColor{}, err
	}
	return SIDColor{SID: optAttr(c, "sid"), RGB: [3]float64{v[0], v[1], v[2]}}, nil
}

// sidFloatOr reads an optional SIDFloat child, falling back to def.
func sidFloatOr(e *markup.Element, name string, def float64) (SIDFloat, error) {
	v, err := optSIDFloat(e, name)
	if err != nil {
		return SIDFloat{}, err
	}
	if v == nil {
		return SIDFloat{Value: def}, nil
	}
	return *v, nil
}

func attenuation(e *markup.Element) (Attenuation, error) {
	var (
		a   Attenuation
		err error
	)
	if a.Constant, err = sidFloatOr(e, "constant_attenuation", 1); err != nil {
		return a, err
	}
	if a.Linear, err = sidFloatOr(e, "linear_attenuation", 0); err != nil {
		return a, err
	}
	if a.Quadratic, err = sidFloatOr(e, "quadratic_attenuation", 0); err != nil {
		return a, err
	}
	return a, nil
}

func buildAmbientLight(e *markup.Element, _ *builder) (*AmbientLight, error) {
	c, err := lightColor(e)
	if err != nil {
		return nil, err
	}
	return &AmbientLight{c}, nil
}

func buildDirectionalLight(e *markup.Element, _ *builder) (*DirectionalLight, error) {
	c, err := lightColor(e)
	if err != nil {
		return nil, err
	}
	return &DirectionalLight{c}, nil
}

func buildPointLight(e *markup.Element, _ *builder) (*PointLight, error) {
	c, err := lightColor(e)
	if err != nil {
		return nil, err
	}
	a, err := attenuation(e)
	if err != nil {
		return nil, err
	}
	return &PointLight{SIDColor: c, Attenuation: a}, nil
}

func buildSpotLight(e *markup.Element, _ *builder) (*SpotLight, error) {
	c, err := lightColor(e)
	if err != nil {
		return nil, err
	}
	s := &SpotLight{SIDColor: c}
	if s.Attenuation, err = attenuation(e); err != nil {
		return nil, err
	}
	if s.FalloffAngle, err = sidFloatOr(e, "falloff_angle", 180); err != nil {
		return nil, err
	}
	if s.FalloffExponent, err = sidFloatOr(e, "falloff_exponent", 0); err != nil {
		return nil, err
	}
	return s, nil
}
