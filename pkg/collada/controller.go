package collada

import (
	"fmt"

	"github.com/ndisidore/collada/pkg/markup"
)

// ControlElement is a controller's deformer: skin or morph.
type ControlElement interface {
	Node
	isControlElement()
}

// Joints binds joint names to their inverse bind matrices.
type Joints struct {
	Inputs []InputUnshared
	Extras []*Extra
}

// VertexWeights assigns joint influences to each vertex.
type VertexWeights struct {
	Count  uint64
	Inputs []InputShared
	VCount []uint64
	V      []int64
	Extras []*Extra
}

// Skin deforms a base mesh by a joint hierarchy.
type Skin struct {
	Source          Ref
	BindShapeMatrix *[16]float64
	Sources         []*Source
	Joints          Joints
	VertexWeights   VertexWeights
	Extras          []*Extra
}

// MorphMethod selects how morph targets combine.
type MorphMethod string

// Morph methods.
const (
	MorphNormalized MorphMethod = "NORMALIZED"
	MorphRelative   MorphMethod = "RELATIVE"
)

// Morph blends a base mesh with target meshes.
type Morph struct {
	Source  Ref
	Method  MorphMethod
	Sources []*Source
	Targets []InputUnshared
	Extras  []*Extra
}

func (*Skin) ElementName() string  { return "skin" }
func (*Morph) ElementName() string { return "morph" }

func (*Skin) isControlElement()  {}
func (*Morph) isControlElement() {}

// Controller is a controller library item.
type Controller struct {
	ID      *string
	Name    *string
	Asset   *Asset
	Control ControlElement
	Extras  []*Extra
}

// ElementName implements Node.
func (*Controller) ElementName() string { return "controller" }

var _controlAlts = []alt[ControlElement]{
	alternative[ControlElement]("skin", buildSkin),
	alternative[ControlElement]("morph", buildMorph),
}

func buildController(e *markup.Element, b *builder) (*Controller, error) {
	c := &Controller{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if c.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if c.Control, err = chooseRequired(b, e, "control_element", _controlAlts); err != nil {
		return nil, err
	}
	if c.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, c.ID, c)
}

func buildSkin(e *markup.Element, b *builder) (*Skin, error) {
	src, err := reqRef(b, e, "source")
	if err != nil {
		return nil, err
	}
	s := &Skin{Source: src}
	if c := e.Child("bind_shape_matrix"); c != nil {
		v, err := fixed(c, c.Name, c.Text, 16, parseFloat)
		if err != nil {
			return nil, err
		}
		m := [16]float64(v)
		s.BindShapeMatrix = &m
	}
	if s.Sources, err = atLeast(b, e, "source", 3, buildSource); err != nil {
		return nil, err
	}
	j := e.Child("joints")
	if j == nil {
		return nil, missingChild(e.Name, "joints")
	}
	if s.Joints.Inputs, err = inputsUnshared(b, j, 2); err != nil {
		return nil, fmt.Errorf("joints: %w", err)
	}
	if s.Joints.Extras, err = extras(b, j); err != nil {
		return nil, fmt.Errorf("joints: %w", err)
	}
	vw := e.Child("vertex_weights")
	if vw == nil {
		return nil, missingChild(e.Name, "vertex_weights")
	}
	if s.VertexWeights, err = vertexWeights(b, vw); err != nil {
		return nil, fmt.Errorf("vertex_weights: %w", err)
	}
	if s.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return s, nil
}

func vertexWeights(b *builder, e *markup.Element) (VertexWeights, error) {
	count, err := reqUintAttr(e, "count")
	if err != nil {
		return VertexWeights{}, err
	}
	vw := VertexWeights{Count: count}
	if vw.Inputs, err = inputsShared(b, e); err != nil {
		return VertexWeights{}, err
	}
	if len(vw.Inputs) < 2 {
		return VertexWeights{}, missingChild(e.Name, "input")
	}
	if c := e.Child("vcount"); c != nil {
		if vw.VCount, err = list(c, c.Name, c.Text, parseUint); err != nil {
			return VertexWeights{}, err
		}
	}
	if c := e.Child("v"); c != nil {
		if vw.V, err = list(c, c.Name, c.Text, parseInt); err != nil {
			return VertexWeights{}, err
		}
	}
	if vw.Extras, err = extras(b, e); err != nil {
		return VertexWeights{}, err
	}
	return vw, nil
}

func buildMorph(e *markup.Element, b *builder) (*Morph, error) {
	src, err := reqRef(b, e, "source")
	if err != nil {
		return nil, err
	}
	m := &Morph{Source: src}
	if m.Method, err = enumAttrOr(e, "method", MorphNormalized, MorphNormalized, MorphRelative); err != nil {
		return nil, err
	}
	if m.Sources, err = atLeast(b, e, "source", 2, buildSource); err != nil {
		return nil, err
	}
	t := e.Child("targets")
	if t == nil {
		return nil, missingChild(e.Name, "targets")
	}
	if m.Targets, err = inputsUnshared(b, t, 2); err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}
	if m.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return m, nil
}
