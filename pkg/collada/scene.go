package collada

import (
	"fmt"
	"strings"

	"github.com/ndisidore/collada/pkg/markup"
)

// Transform is one entry of a node's transform stack: lookat, matrix,
// rotate, scale, skew or translate.
type Transform interface {
	Node
	TransformSID() *string
	isTransform()
}

// TransformHeader holds the scoped id shared by every transform kind.
type TransformHeader struct {
	SID *string
}

// TransformSID returns the transform's scoped id.
func (h TransformHeader) TransformSID() *string { return h.SID }

// LookAt positions and aims: eye, interest point and up vector.
type LookAt struct {
	TransformHeader
	Values [9]float64
}

// Matrix is a 4x4 row-major matrix.
type Matrix struct {
	TransformHeader
	Values [16]float64
}

// Rotate is an axis and an angle in degrees.
type Rotate struct {
	TransformHeader
	Values [4]float64
}

// Scale is a non-uniform scale.
type Scale struct {
	TransformHeader
	Values [3]float64
}

// Skew is an angle, a rotation axis and a translation axis.
type Skew struct {
	TransformHeader
	Values [7]float64
}

// Translate is a translation.
type Translate struct {
	TransformHeader
	Values [3]float64
}

func (*LookAt) ElementName() string    { return "lookat" }
func (*Matrix) ElementName() string    { return "matrix" }
func (*Rotate) ElementName() string    { return "rotate" }
func (*Scale) ElementName() string     { return "scale" }
func (*Skew) ElementName() string      { return "skew" }
func (*Translate) ElementName() string { return "translate" }

func (*LookAt) isTransform()    {}
func (*Matrix) isTransform()    {}
func (*Rotate) isTransform()    {}
func (*Scale) isTransform()     {}
func (*Skew) isTransform()      {}
func (*Translate) isTransform() {}

// Bind binds an effect parameter to a scene value.
type Bind struct {
	Semantic string
	Target   string
}

// BindVertexInput binds a geometry input set to an effect semantic.
type BindVertexInput struct {
	Semantic      string
	InputSemantic string
	InputSet      *uint64
}

// InstanceMaterial binds a material to a geometry's material symbol.
type InstanceMaterial struct {
	SID              *string
	Name             *string
	Symbol           string
	Target           Ref
	Binds            []Bind
	BindVertexInputs []BindVertexInput
	Extras           []*Extra
}

// BindMaterial binds materials to an instanced geometry or controller.
type BindMaterial struct {
	Params     []Param
	Materials  []InstanceMaterial
	Techniques []Technique
	Extras     []*Extra
}

// Instance references a library item from the scene graph.
type Instance struct {
	SID    *string
	Name   *string
	URL    Ref
	Extras []*Extra
}

// InstanceGeometry places a geometry.
type InstanceGeometry struct {
	Instance
	BindMaterial *BindMaterial
}

// InstanceController places a skinned or morphed geometry.
type InstanceController struct {
	Instance
	Skeletons    []string
	BindMaterial *BindMaterial
}

// NodeType distinguishes joints from ordinary nodes.
type NodeType string

// Node types.
const (
	NodeTypeNode  NodeType = "NODE"
	NodeTypeJoint NodeType = "JOINT"
)

// SceneNode is a node of the visual scene graph.
type SceneNode struct {
	ID                  *string
	Name                *string
	SID                 *string
	Type                NodeType
	Layers              []string
	Asset               *Asset
	Transforms          []Transform
	InstanceCameras     []Instance
	InstanceControllers []InstanceController
	InstanceGeometries  []InstanceGeometry
	InstanceLights      []Instance
	InstanceNodes       []Instance
	Children            []*SceneNode
	Extras              []*Extra
}

// ElementName implements Node.
func (*SceneNode) ElementName() string { return "node" }

// VisualScene is a visual scene library item.
type VisualScene struct {
	ID     *string
	Name   *string
	Asset  *Asset
	Nodes  []*SceneNode
	Extras []*Extra
}

// ElementName implements Node.
func (*VisualScene) ElementName() string { return "visual_scene" }

// Scene selects what the document instantiates.
type Scene struct {
	InstancePhysicsScenes   []Instance
	InstanceVisualScene     *Instance
	InstanceKinematicsScene *Instance
	Extras                  []*Extra
}

var _transformAlts = []alt[Transform]{
	alternative[Transform]("lookat", transform(9, func(h TransformHeader, v []float64) *LookAt {
		return &LookAt{h, [9]float64(v)}
	})),
	alternative[Transform]("matrix", transform(16, func(h TransformHeader, v []float64) *Matrix {
		return &Matrix{h, [16]float64(v)}
	})),
	alternative[Transform]("rotate", transform(4, func(h TransformHeader, v []float64) *Rotate {
		return &Rotate{h, [4]float64(v)}
	})),
	alternative[Transform]("scale", transform(3, func(h TransformHeader, v []float64) *Scale {
		return &Scale{h, [3]float64(v)}
	})),
	alternative[Transform]("skew", transform(7, func(h TransformHeader, v []float64) *Skew {
		return &Skew{h, [7]float64(v)}
	})),
	alternative[Transform]("translate", transform(3, func(h TransformHeader, v []float64) *Translate {
		return &Translate{h, [3]float64(v)}
	})),
}

// transform returns the constructor of a transform holding n floats.
func transform[T Transform](n int, mk func(TransformHeader, []float64) T) ctor[T] {
	return func(e *markup.Element, _ *builder) (T, error) {
		v, err := fixed(e, e.Name, e.Text, n, parseFloat)
		if err != nil {
			var zero T
			return zero, err
		}
		return mk(TransformHeader{SID: optAttr(e, "sid")}, v), nil
	}
}

func buildVisualScene(e *markup.Element, b *builder) (*VisualScene, error) {
	vs := &VisualScene{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if vs.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if vs.Nodes, err = atLeast(b, e, "node", 1, buildSceneNode); err != nil {
		return nil, err
	}
	if vs.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, vs.ID, vs)
}

// buildSceneNode reads the node's children in document order so transforms
// keep their stacking order and instances resolve against nodes finished
// before them.
func buildSceneNode(e *markup.Element, b *builder) (*SceneNode, error) {
	n := &SceneNode{ID: optAttr(e, "id"), Name: optAttr(e, "name"), SID: optAttr(e, "sid")}
	var err error
	if n.Type, err = enumAttrOr(e, "type", NodeTypeNode, NodeTypeNode, NodeTypeJoint); err != nil {
		return nil, err
	}
	if layer, ok := e.Attr("layer"); ok {
		n.Layers = strings.Fields(layer)
	}
	if n.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if n.Transforms, err = chooseEach(b, e, _transformAlts); err != nil {
		return nil, err
	}
	for _, c := range e.Children {
		switch c.Name {
		case "instance_camera":
			err = appendInstance(b, c, &n.InstanceCameras)
		case "instance_light":
			err = appendInstance(b, c, &n.InstanceLights)
		case "instance_node":
			err = appendInstance(b, c, &n.InstanceNodes)
		case "instance_geometry":
			var ig InstanceGeometry
			if ig, err = instanceGeometry(b, c); err == nil {
				n.InstanceGeometries = append(n.InstanceGeometries, ig)
			}
		case "instance_controller":
			var ic InstanceController
			if ic, err = instanceController(b, c); err == nil {
				n.InstanceControllers = append(n.InstanceControllers, ic)
			}
		case "node":
			var child *SceneNode
			if child, err = build(b, c, buildSceneNode); err == nil {
				n.Children = append(n.Children, child)
			}
		}
		if err != nil {
			if c.Name == "node" {
				return nil, err
			}
			return nil, fmt.Errorf("%s: %w", label(c), err)
		}
	}
	if n.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, n.ID, n)
}

func instance(b *builder, e *markup.Element) (Instance, error) {
	url, err := reqRef(b, e, "url")
	if err != nil {
		return Instance{}, err
	}
	in := Instance{SID: optAttr(e, "sid"), Name: optAttr(e, "name"), URL: url}
	if in.Extras, err = extras(b, e); err != nil {
		return Instance{}, err
	}
	return in, nil
}

func appendInstance(b *builder, e *markup.Element, dst *[]Instance) error {
	in, err := instance(b, e)
	if err != nil {
		return err
	}
	*dst = append(*dst, in)
	return nil
}

func optInstance(b *builder, e *markup.Element, name string) (*Instance, error) {
	c, err := single(e, name)
	if err != nil || c == nil {
		return nil, err
	}
	in, err := instance(b, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &in, nil
}

func instances(b *builder, e *markup.Element, name string) ([]Instance, error) {
	var out []Instance
	for _, c := range e.ChildrenNamed(name) {
		if err := appendInstance(b, c, &out); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return out, nil
}

func instanceGeometry(b *builder, e *markup.Element) (InstanceGeometry, error) {
	in, err := instance(b, e)
	if err != nil {
		return InstanceGeometry{}, err
	}
	ig := InstanceGeometry{Instance: in}
	if ig.BindMaterial, err = bindMaterial(b, e); err != nil {
		return InstanceGeometry{}, err
	}
	return ig, nil
}

func instanceController(b *builder, e *markup.Element) (InstanceController, error) {
	in, err := instance(b, e)
	if err != nil {
		return InstanceController{}, err
	}
	ic := InstanceController{Instance: in}
	for _, s := range e.ChildrenNamed("skeleton") {
		ic.Skeletons = append(ic.Skeletons, s.TrimmedText())
	}
	if ic.BindMaterial, err = bindMaterial(b, e); err != nil {
		return InstanceController{}, err
	}
	return ic, nil
}

func bindMaterial(b *builder, parent *markup.Element) (*BindMaterial, error) {
	e := parent.Child("bind_material")
	if e == nil {
		return nil, nil
	}
	bm := &BindMaterial{}
	for _, p := range e.ChildrenNamed("param") {
		typ, err := reqAttr(p, "type")
		if err != nil {
			return nil, fmt.Errorf("bind_material: param: %w", err)
		}
		bm.Params = append(bm.Params, Param{
			Name:     optAttr(p, "name"),
			SID:      optAttr(p, "sid"),
			Type:     typ,
			Semantic: optAttr(p, "semantic"),
		})
	}
	tc := e.Child("technique_common")
	if tc == nil {
		return nil, fmt.Errorf("bind_material: %w", missingChild(e.Name, "technique_common"))
	}
	for _, im := range tc.ChildrenNamed("instance_material") {
		m, err := instanceMaterial(b, im)
		if err != nil {
			return nil, fmt.Errorf("bind_material: %s: %w", label(im), err)
		}
		bm.Materials = append(bm.Materials, m)
	}
	var err error
	if bm.Techniques, err = techniques(e); err != nil {
		return nil, fmt.Errorf("bind_material: %w", err)
	}
	if bm.Extras, err = extras(b, e); err != nil {
		return nil, fmt.Errorf("bind_material: %w", err)
	}
	return bm, nil
}

func instanceMaterial(b *builder, e *markup.Element) (InstanceMaterial, error) {
	symbol, err := reqAttr(e, "symbol")
	if err != nil {
		return InstanceMaterial{}, err
	}
	target, err := reqRef(b, e, "target")
	if err != nil {
		return InstanceMaterial{}, err
	}
	im := InstanceMaterial{SID: optAttr(e, "sid"), Name: optAttr(e, "name"), Symbol: symbol, Target: target}
	for _, c := range e.ChildrenNamed("bind") {
		sem, err := reqAttr(c, "semantic")
		if err != nil {
			return InstanceMaterial{}, fmt.Errorf("bind: %w", err)
		}
		tgt, err := reqAttr(c, "target")
		if err != nil {
			return InstanceMaterial{}, fmt.Errorf("bind: %w", err)
		}
		im.Binds = append(im.Binds, Bind{Semantic: sem, Target: tgt})
	}
	for _, c := range e.ChildrenNamed("bind_vertex_input") {
		sem, err := reqAttr(c, "semantic")
		if err != nil {
			return InstanceMaterial{}, fmt.Errorf("bind_vertex_input: %w", err)
		}
		inSem, err := reqAttr(c, "input_semantic")
		if err != nil {
			return InstanceMaterial{}, fmt.Errorf("bind_vertex_input: %w", err)
		}
		set, err := optUintAttr(c, "input_set")
		if err != nil {
			return InstanceMaterial{}, fmt.Errorf("bind_vertex_input: %w", err)
		}
		im.BindVertexInputs = append(im.BindVertexInputs, BindVertexInput{Semantic: sem, InputSemantic: inSem, InputSet: set})
	}
	if im.Extras, err = extras(b, e); err != nil {
		return InstanceMaterial{}, err
	}
	return im, nil
}

func scene(b *builder, e *markup.Element) (*Scene, error) {
	s := &Scene{}
	var err error
	if s.InstancePhysicsScenes, err = instances(b, e, "instance_physics_scene"); err != nil {
		return nil, err
	}
	if s.InstanceVisualScene, err = optInstance(b, e, "instance_visual_scene"); err != nil {
		return nil, err
	}
	if s.InstanceKinematicsScene, err = optInstance(b, e, "instance_kinematics_scene"); err != nil {
		return nil, err
	}
	if s.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return s, nil
}
