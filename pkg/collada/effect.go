package collada

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ndisidore/collada/pkg/markup"
)

// ImageSource is where an image's texels come from: init_from or data.
type ImageSource interface {
	Node
	isImageSource()
}

// InitFrom names an external image file.
type InitFrom struct {
	URI string
}

// ImageData is an embedded, hex-encoded image.
type ImageData struct {
	Bytes []byte
}

func (*InitFrom) ElementName() string  { return "init_from" }
func (*ImageData) ElementName() string { return "data" }
func (*InitFrom) isImageSource()       {}
func (*ImageData) isImageSource()      {}

// Image is an image library item.
type Image struct {
	ID     *string
	Name   *string
	Format *string
	Height *uint64
	Width  *uint64
	Depth  uint64
	Asset  *Asset
	Source ImageSource
	Extras []*Extra
}

// ElementName implements Node.
func (*Image) ElementName() string { return "image" }

// TechniqueHint suggests which technique of an effect to use.
type TechniqueHint struct {
	Platform *string
	Profile  *string
	Ref      string
}

// SetParam overrides an effect parameter; the value is kept as raw markup.
type SetParam struct {
	Ref   string
	Value *markup.Element
}

// InstanceEffect instantiates an effect for a material.
type InstanceEffect struct {
	SID            *string
	Name           *string
	URL            Ref
	TechniqueHints []TechniqueHint
	SetParams      []SetParam
	Extras         []*Extra
}

// Material is a material library item.
type Material struct {
	ID             *string
	Name           *string
	Asset          *Asset
	InstanceEffect InstanceEffect
	Extras         []*Extra
}

// ElementName implements Node.
func (*Material) ElementName() string { return "material" }

// ParamValue is the value of a newparam: float, float2, float3, float4,
// surface or sampler2D.
type ParamValue interface {
	Node
	isParamValue()
}

// FloatValue is a single float, optionally addressable by sid.
type FloatValue struct {
	SID   *string
	Value float64
}

// Float2 is a float2 parameter value.
type Float2 [2]float64

// Float3 is a float3 parameter value.
type Float3 [3]float64

// Float4 is a float4 parameter value.
type Float4 [4]float64

// Surface declares a texture surface.
type Surface struct {
	Type     string
	InitFrom *string
	Format   *string
}

// Sampler2D declares a 2D texture sampler.
type Sampler2D struct {
	Source        *string
	InstanceImage *Ref
	WrapS         *string
	WrapT         *string
	MinFilter     *string
	MagFilter     *string
}

func (*FloatValue) ElementName() string { return "float" }
func (*Float2) ElementName() string     { return "float2" }
func (*Float3) ElementName() string     { return "float3" }
func (*Float4) ElementName() string     { return "float4" }
func (*Surface) ElementName() string    { return "surface" }
func (*Sampler2D) ElementName() string  { return "sampler2D" }

func (*FloatValue) isParamValue() {}
func (*Float2) isParamValue()     {}
func (*Float3) isParamValue()     {}
func (*Float4) isParamValue()     {}
func (*Surface) isParamValue()    {}
func (*Sampler2D) isParamValue()  {}

// NewParam declares an effect parameter.
type NewParam struct {
	SID      string
	Semantic *string
	Value    ParamValue
}

// ColorOrTexture is a shading channel: a color, a texture or a param
// reference.
type ColorOrTexture interface {
	Node
	isColorOrTexture()
}

// FloatOrParam is a scalar shading channel: a float or a param reference.
type FloatOrParam interface {
	Node
	isFloatOrParam()
}

// Color is an RGBA color.
type Color struct {
	SID  *string
	RGBA [4]float64
}

// Texture samples a texture through a sampler parameter.
type Texture struct {
	Texture  string
	Texcoord string
	Extras   []*Extra
}

// ParamRef refers to a parameter by sid.
type ParamRef struct {
	Ref string
}

func (*Color) ElementName() string    { return "color" }
func (*Texture) ElementName() string  { return "texture" }
func (*ParamRef) ElementName() string { return "param" }

func (*Color) isColorOrTexture()    {}
func (*Texture) isColorOrTexture()  {}
func (*ParamRef) isColorOrTexture() {}
func (*FloatValue) isFloatOrParam() {}
func (*ParamRef) isFloatOrParam()   {}

// OpaqueMode selects how transparency is computed.
type OpaqueMode string

// Opaque modes.
const (
	OpaqueAOne    OpaqueMode = "A_ONE"
	OpaqueRGBZero OpaqueMode = "RGB_ZERO"
	OpaqueAZero   OpaqueMode = "A_ZERO"
	OpaqueRGBOne  OpaqueMode = "RGB_ONE"
)

// Transparent is the transparent channel with its opacity mode.
type Transparent struct {
	Opaque  OpaqueMode
	Channel ColorOrTexture
}

// ShaderParams holds the channels of the common shading models. Channels a
// model does not define are always nil.
type ShaderParams struct {
	Emission          ColorOrTexture
	Ambient           ColorOrTexture
	Diffuse           ColorOrTexture
	Specular          ColorOrTexture
	Shininess         FloatOrParam
	Reflective        ColorOrTexture
	Reflectivity      FloatOrParam
	Transparent       *Transparent
	Transparency      FloatOrParam
	IndexOfRefraction FloatOrParam
}

// Params returns p; it lets every shading model satisfy Shader.
func (p *ShaderParams) Params() *ShaderParams { return p }

// Shader is a common-profile shading model: constant, lambert, phong or
// blinn.
type Shader interface {
	Node
	Params() *ShaderParams
	isShader()
}

// Constant is unlit shading.
type Constant struct{ ShaderParams }

// Lambert is diffuse shading.
type Lambert struct{ ShaderParams }

// Phong is Phong shading.
type Phong struct{ ShaderParams }

// Blinn is Blinn-Torrance-Sparrow shading.
type Blinn struct{ ShaderParams }

func (*Constant) ElementName() string { return "constant" }
func (*Lambert) ElementName() string  { return "lambert" }
func (*Phong) ElementName() string    { return "phong" }
func (*Blinn) ElementName() string    { return "blinn" }

func (*Constant) isShader() {}
func (*Lambert) isShader()  {}
func (*Phong) isShader()    {}
func (*Blinn) isShader()    {}

// ShadingTechnique is the technique block of the common profile.
type ShadingTechnique struct {
	ID     *string
	SID    string
	Shader Shader
	Extras []*Extra
}

// Profile is an effect profile. Only profile_COMMON is modeled; other
// profiles are ignored.
type Profile interface {
	Node
	isProfile()
}

// ProfileCommon is the fixed-function profile.
type ProfileCommon struct {
	ID        *string
	Asset     *Asset
	Images    []*Image
	NewParams []NewParam
	Technique ShadingTechnique
	Extras    []*Extra
}

// ElementName implements Node.
func (*ProfileCommon) ElementName() string { return "profile_COMMON" }
func (*ProfileCommon) isProfile()          {}

// Effect is an effect library item.
type Effect struct {
	ID        string
	Name      *string
	Asset     *Asset
	Images    []*Image
	NewParams []NewParam
	Profiles  []Profile
	Extras    []*Extra
}

// ElementName implements Node.
func (*Effect) ElementName() string { return "effect" }

// Common returns the effect's profile_COMMON, or nil.
func (fx *Effect) Common() *ProfileCommon {
	for _, p := range fx.Profiles {
		if pc, ok := p.(*ProfileCommon); ok {
			return pc
		}
	}
	return nil
}

var (
	_imageSourceAlts = []alt[ImageSource]{
		alternative[ImageSource]("init_from", buildInitFrom),
		alternative[ImageSource]("data", buildImageData),
	}
	_paramValueAlts = []alt[ParamValue]{
		alternative[ParamValue]("float", buildFloatValue),
		alternative[ParamValue]("float2", floatVector(2, func(v []float64) *Float2 { return &Float2{v[0], v[1]} })),
		alternative[ParamValue]("float3", floatVector(3, func(v []float64) *Float3 { return &Float3{v[0], v[1], v[2]} })),
		alternative[ParamValue]("float4", floatVector(4, func(v []float64) *Float4 { return &Float4{v[0], v[1], v[2], v[3]} })),
		alternative[ParamValue]("surface", buildSurface),
		alternative[ParamValue]("sampler2D", buildSampler2D),
	}
	_profileAlts = []alt[Profile]{
		alternative[Profile]("profile_COMMON", buildProfileCommon),
	}
	_shaderAlts = []alt[Shader]{
		alternative[Shader]("constant", shader(func(p ShaderParams) *Constant { return &Constant{p} }, "emission", "reflective", "reflectivity", "transparent", "transparency", "index_of_refraction")),
		alternative[Shader]("lambert", shader(func(p ShaderParams) *Lambert { return &Lambert{p} }, "emission", "ambient", "diffuse", "reflective", "reflectivity", "transparent", "transparency", "index_of_refraction")),
		alternative[Shader]("phong", shader(func(p ShaderParams) *Phong { return &Phong{p} }, _allChannels...)),
		alternative[Shader]("blinn", shader(func(p ShaderParams) *Blinn { return &Blinn{p} }, _allChannels...)),
	}
	_colorOrTextureAlts = []alt[ColorOrTexture]{
		alternative[ColorOrTexture]("color", buildColor),
		alternative[ColorOrTexture]("texture", buildTexture),
		alternative[ColorOrTexture]("param", buildParamRef),
	}
	_floatOrParamAlts = []alt[FloatOrParam]{
		alternative[FloatOrParam]("float", buildFloatValue),
		alternative[FloatOrParam]("param", buildParamRef),
	}
)

var _allChannels = []string{
	"emission", "ambient", "diffuse", "specular", "shininess", "reflective",
	"reflectivity", "transparent", "transparency", "index_of_refraction",
}

func buildImage(e *markup.Element, b *builder) (*Image, error) {
	img := &Image{ID: optAttr(e, "id"), Name: optAttr(e, "name"), Format: optAttr(e, "format")}
	var err error
	if img.Height, err = optUintAttr(e, "height"); err != nil {
		return nil, err
	}
	if img.Width, err = optUintAttr(e, "width"); err != nil {
		return nil, err
	}
	if img.Depth, err = uintAttrOr(e, "depth", 1); err != nil {
		return nil, err
	}
	if img.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if img.Source, err = chooseRequired(b, e, "init_from|data", _imageSourceAlts); err != nil {
		return nil, err
	}
	if img.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, img.ID, img)
}

func buildInitFrom(e *markup.Element, _ *builder) (*InitFrom, error) {
	if ref := e.Child("ref"); ref != nil {
		return &InitFrom{URI: ref.TrimmedText()}, nil
	}
	return &InitFrom{URI: e.TrimmedText()}, nil
}

func buildImageData(e *markup.Element, _ *builder) (*ImageData, error) {
	raw := strings.Join(strings.Fields(e.Text), "")
	data, err := hex.DecodeString(raw)
	if err != nil {
		return nil, &ValueError{Element: e.Name, Field: e.Name, Err: err}
	}
	return &ImageData{Bytes: data}, nil
}

func buildMaterial(e *markup.Element, b *builder) (*Material, error) {
	m := &Material{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if m.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	ie := e.Child("instance_effect")
	if ie == nil {
		return nil, missingChild(e.Name, "instance_effect")
	}
	if m.InstanceEffect, err = instanceEffect(b, ie); err != nil {
		return nil, fmt.Errorf("instance_effect: %w", err)
	}
	if m.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, m.ID, m)
}

func instanceEffect(b *builder, e *markup.Element) (InstanceEffect, error) {
	url, err := reqRef(b, e, "url")
	if err != nil {
		return InstanceEffect{}, err
	}
	ie := InstanceEffect{SID: optAttr(e, "sid"), Name: optAttr(e, "name"), URL: url}
	for _, h := range e.ChildrenNamed("technique_hint") {
		ref, err := reqAttr(h, "ref")
		if err != nil {
			return InstanceEffect{}, fmt.Errorf("technique_hint: %w", err)
		}
		ie.TechniqueHints = append(ie.TechniqueHints, TechniqueHint{
			Platform: optAttr(h, "platform"),
			Profile:  optAttr(h, "profile"),
			Ref:      ref,
		})
	}
	for _, sp := range e.ChildrenNamed("setparam") {
		ref, err := reqAttr(sp, "ref")
		if err != nil {
			return InstanceEffect{}, fmt.Errorf("setparam: %w", err)
		}
		var value *markup.Element
		if len(sp.Children) > 0 {
			value = sp.Children[0]
		}
		ie.SetParams = append(ie.SetParams, SetParam{Ref: ref, Value: value})
	}
	if ie.Extras, err = extras(b, e); err != nil {
		return InstanceEffect{}, err
	}
	return ie, nil
}

func buildEffect(e *markup.Element, b *builder) (*Effect, error) {
	id, err := reqAttr(e, "id")
	if err != nil {
		return nil, err
	}
	fx := &Effect{ID: id, Name: optAttr(e, "name")}
	if fx.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if fx.Images, err = repeated(b, e, "image", buildImage); err != nil {
		return nil, err
	}
	if fx.NewParams, err = newParams(b, e); err != nil {
		return nil, err
	}
	if fx.Profiles, err = chooseEach(b, e, _profileAlts); err != nil {
		return nil, err
	}
	if fx.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return register(b, e, id, fx)
}

func newParams(b *builder, e *markup.Element) ([]NewParam, error) {
	var out []NewParam
	for _, np := range e.ChildrenNamed("newparam") {
		sid, err := reqAttr(np, "sid")
		if err != nil {
			return nil, fmt.Errorf("newparam: %w", err)
		}
		p := NewParam{SID: sid, Semantic: childText(np, "semantic")}
		if p.Value, _, err = choose(b, np, _paramValueAlts); err != nil {
			return nil, fmt.Errorf("newparam %q: %w", sid, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func buildProfileCommon(e *markup.Element, b *builder) (*ProfileCommon, error) {
	pc := &ProfileCommon{ID: optAttr(e, "id")}
	var err error
	if pc.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if pc.Images, err = repeated(b, e, "image", buildImage); err != nil {
		return nil, err
	}
	if pc.NewParams, err = newParams(b, e); err != nil {
		return nil, err
	}
	t := e.Child("technique")
	if t == nil {
		return nil, missingChild(e.Name, "technique")
	}
	if pc.Technique, err = shadingTechnique(b, t); err != nil {
		return nil, fmt.Errorf("%s: %w", label(t), err)
	}
	if pc.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, pc.ID, pc)
}

func shadingTechnique(b *builder, e *markup.Element) (ShadingTechnique, error) {
	sid, err := reqAttr(e, "sid")
	if err != nil {
		return ShadingTechnique{}, err
	}
	t := ShadingTechnique{ID: optAttr(e, "id"), SID: sid}
	if t.Shader, err = chooseRequired(b, e, "shader", _shaderAlts); err != nil {
		return ShadingTechnique{}, err
	}
	if t.Extras, err = extras(b, e); err != nil {
		return ShadingTechnique{}, err
	}
	return t, nil
}

// shader returns the constructor of one shading model reading only the
// channels that model defines.
func shader[T Shader](mk func(ShaderParams) T, channels ...string) ctor[T] {
	return func(e *markup.Element, b *builder) (T, error) {
		var (
			p    ShaderParams
			zero T
		)
		for _, ch := range channels {
			c := e.Child(ch)
			if c == nil {
				continue
			}
			if err := shaderChannel(b, c, &p); err != nil {
				return zero, fmt.Errorf("%s: %w", ch, err)
			}
		}
		return mk(p), nil
	}
}

func shaderChannel(b *builder, c *markup.Element, p *ShaderParams) error {
	var err error
	colorSlot := func(dst *ColorOrTexture) {
		*dst, _, err = choose(b, c, _colorOrTextureAlts)
	}
	floatSlot := func(dst *FloatOrParam) {
		*dst, _, err = choose(b, c, _floatOrParamAlts)
	}
	switch c.Name {
	case "emission":
		colorSlot(&p.Emission)
	case "ambient":
		colorSlot(&p.Ambient)
	case "diffuse":
		colorSlot(&p.Diffuse)
	case "specular":
		colorSlot(&p.Specular)
	case "reflective":
		colorSlot(&p.Reflective)
	case "shininess":
		floatSlot(&p.Shininess)
	case "reflectivity":
		floatSlot(&p.Reflectivity)
	case "transparency":
		floatSlot(&p.Transparency)
	case "index_of_refraction":
		floatSlot(&p.IndexOfRefraction)
	case "transparent":
		t := &Transparent{}
		if t.Opaque, err = enumAttrOr(c, "opaque", OpaqueAOne, OpaqueAOne, OpaqueRGBZero, OpaqueAZero, OpaqueRGBOne); err != nil {
			return err
		}
		if t.Channel, _, err = choose(b, c, _colorOrTextureAlts); err != nil {
			return err
		}
		p.Transparent = t
	default:
		panic(fmt.Sprintf("shaderChannel: unexpected channel %q", c.Name))
	}
	return err
}

func buildColor(e *markup.Element, _ *builder) (*Color, error) {
	v, err := fixed(e, e.Name, e.Text, 4, parseFloat)
	if err != nil {
		return nil, err
	}
	return &Color{SID: optAttr(e, "sid"), RGBA: [4]float64{v[0], v[1], v[2], v[3]}}, nil
}

func buildTexture(e *markup.Element, b *builder) (*Texture, error) {
	tex, err := reqAttr(e, "texture")
	if err != nil {
		return nil, err
	}
	coord, err := reqAttr(e, "texcoord")
	if err != nil {
		return nil, err
	}
	t := &Texture{Texture: tex, Texcoord: coord}
	if t.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return t, nil
}

func buildParamRef(e *markup.Element, _ *builder) (*ParamRef, error) {
	ref, err := reqAttr(e, "ref")
	if err != nil {
		return nil, err
	}
	return &ParamRef{Ref: ref}, nil
}

func buildFloatValue(e *markup.Element, _ *builder) (*FloatValue, error) {
	v, err := sidFloat(e)
	if err != nil {
		return nil, err
	}
	return &FloatValue{SID: v.SID, Value: v.Value}, nil
}

// floatVector returns the constructor of a fixed-size float vector value.
func floatVector[T Node](n int, mk func([]float64) T) ctor[T] {
	return func(e *markup.Element, _ *builder) (T, error) {
		v, err := fixed(e, e.Name, e.Text, n, parseFloat)
		if err != nil {
			var zero T
			return zero, err
		}
		return mk(v), nil
	}
}

func buildSurface(e *markup.Element, _ *builder) (*Surface, error) {
	typ, err := reqAttr(e, "type")
	if err != nil {
		return nil, err
	}
	return &Surface{Type: typ, InitFrom: childText(e, "init_from"), Format: childText(e, "format")}, nil
}

func buildSampler2D(e *markup.Element, b *builder) (*Sampler2D, error) {
	s := &Sampler2D{
		Source:    childText(e, "source"),
		WrapS:     childText(e, "wrap_s"),
		WrapT:     childText(e, "wrap_t"),
		MinFilter: childText(e, "minfilter"),
		MagFilter: childText(e, "magfilter"),
	}
	if ii := e.Child("instance_image"); ii != nil {
		url, err := reqRef(b, ii, "url")
		if err != nil {
			return nil, fmt.Errorf("instance_image: %w", err)
		}
		s.InstanceImage = &url
	}
	return s, nil
}
