package collada

import (
	"fmt"

	"github.com/ndisidore/collada/pkg/markup"
)

// PhysicsMaterial holds surface friction and restitution.
type PhysicsMaterial struct {
	ID              *string
	Name            *string
	Asset           *Asset
	DynamicFriction *SIDFloat
	Restitution     *SIDFloat
	StaticFriction  *SIDFloat
	Techniques      []Technique
	Extras          []*Extra
}

// InstancePhysicsMaterial references a physics material.
type InstancePhysicsMaterial struct {
	Instance
}

func (*PhysicsMaterial) ElementName() string         { return "physics_material" }
func (*InstancePhysicsMaterial) ElementName() string { return "instance_physics_material" }

func (*PhysicsMaterial) isPhysicsMaterialSource()         {}
func (*InstancePhysicsMaterial) isPhysicsMaterialSource() {}

// PhysicsMaterialSource is an inline physics material or an instance of one.
type PhysicsMaterialSource interface {
	Node
	isPhysicsMaterialSource()
}

// ShapeGeometry is the collision volume of a shape.
type ShapeGeometry interface {
	Node
	isShapeGeometry()
}

// Plane is the plane ax+by+cz+d=0.
type Plane struct {
	Equation [4]float64
	Extras   []*Extra
}

// Box is an axis-aligned box given by its half extents.
type Box struct {
	HalfExtents [3]float64
	Extras      []*Extra
}

// Sphere is a sphere of the given radius.
type Sphere struct {
	Radius float64
	Extras []*Extra
}

// Cylinder is a cylinder with an elliptical cross-section.
type Cylinder struct {
	Height float64
	Radius [2]float64
	Extras []*Extra
}

// Capsule is a cylinder capped with half-ellipsoids.
type Capsule struct {
	Height float64
	Radius [2]float64
	Extras []*Extra
}

func (*Plane) ElementName() string            { return "plane" }
func (*Box) ElementName() string              { return "box" }
func (*Sphere) ElementName() string           { return "sphere" }
func (*Cylinder) ElementName() string         { return "cylinder" }
func (*Capsule) ElementName() string          { return "capsule" }
func (*InstanceGeometry) ElementName() string { return "instance_geometry" }

func (*Plane) isShapeGeometry()            {}
func (*Box) isShapeGeometry()              {}
func (*Sphere) isShapeGeometry()           {}
func (*Cylinder) isShapeGeometry()         {}
func (*Capsule) isShapeGeometry()          {}
func (*InstanceGeometry) isShapeGeometry() {}

// Shape is one collision shape of a rigid body.
type Shape struct {
	Hollow     *bool
	Mass       *float64
	Density    *float64
	Material   PhysicsMaterialSource
	Geometry   ShapeGeometry
	Transforms []Transform
	Extras     []*Extra
}

// RigidBody is a simulated body of a physics model.
type RigidBody struct {
	SID        string
	Name       *string
	Dynamic    *bool
	Mass       *float64
	MassFrame  []Transform
	Inertia    *[3]float64
	Material   PhysicsMaterialSource
	Shapes     []Shape
	Techniques []Technique
	Extras     []*Extra
}

// PhysicsModel groups rigid bodies.
type PhysicsModel struct {
	ID                    *string
	Name                  *string
	Asset                 *Asset
	RigidBodies           []RigidBody
	InstancePhysicsModels []InstancePhysicsModel
	Extras                []*Extra
}

// ElementName implements Node.
func (*PhysicsModel) ElementName() string { return "physics_model" }

// InstanceRigidBody binds a rigid body to a scene node.
type InstanceRigidBody struct {
	Body   string
	Target Ref
	Extras []*Extra
}

// InstancePhysicsModel places a physics model.
type InstancePhysicsModel struct {
	Instance
	Parent              *Ref
	InstanceRigidBodies []InstanceRigidBody
}

// PhysicsScene is a physics scene library item.
type PhysicsScene struct {
	ID                    *string
	Name                  *string
	Asset                 *Asset
	InstancePhysicsModels []InstancePhysicsModel
	Gravity               *[3]float64
	TimeStep              *float64
	Techniques            []Technique
	Extras                []*Extra
}

// ElementName implements Node.
func (*PhysicsScene) ElementName() string { return "physics_scene" }

var _physicsMaterialAlts = []alt[PhysicsMaterialSource]{
	alternative[PhysicsMaterialSource]("instance_physics_material", buildInstancePhysicsMaterial),
	alternative[PhysicsMaterialSource]("physics_material", buildPhysicsMaterial),
}

var _shapeGeometryAlts = []alt[ShapeGeometry]{
	alternative[ShapeGeometry]("plane", buildPlane),
	alternative[ShapeGeometry]("box", buildBox),
	alternative[ShapeGeometry]("sphere", buildSphere),
	alternative[ShapeGeometry]("cylinder", roundShape(func(h float64, r [2]float64) *Cylinder {
		return &Cylinder{Height: h, Radius: r}
	})),
	alternative[ShapeGeometry]("capsule", roundShape(func(h float64, r [2]float64) *Capsule {
		return &Capsule{Height: h, Radius: r}
	})),
	alternative[ShapeGeometry]("instance_geometry", func(e *markup.Element, b *builder) (*InstanceGeometry, error) {
		ig, err := instanceGeometry(b, e)
		if err != nil {
			return nil, err
		}
		return &ig, nil
	}),
}

func buildPhysicsMaterial(e *markup.Element, b *builder) (*PhysicsMaterial, error) {
	m := &PhysicsMaterial{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if m.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	tc := e.Child("technique_common")
	if tc == nil {
		return nil, missingChild(e.Name, "technique_common")
	}
	for _, f := range []struct {
		name string
		dst  **SIDFloat
	}{
		{"dynamic_friction", &m.DynamicFriction},
		{"restitution", &m.Restitution},
		{"static_friction", &m.StaticFriction},
	} {
		if *f.dst, err = optSIDFloat(tc, f.name); err != nil {
			return nil, fmt.Errorf("technique_common: %w", err)
		}
	}
	if m.Techniques, err = techniques(e); err != nil {
		return nil, err
	}
	if m.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, m.ID, m)
}

func buildInstancePhysicsMaterial(e *markup.Element, b *builder) (*InstancePhysicsMaterial, error) {
	in, err := instance(b, e)
	if err != nil {
		return nil, err
	}
	return &InstancePhysicsMaterial{Instance: in}, nil
}

func buildPlane(e *markup.Element, b *builder) (*Plane, error) {
	v, err := childFixed(e, "equation", 4)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, missingChild(e.Name, "equation")
	}
	p := &Plane{Equation: [4]float64(v)}
	if p.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return p, nil
}

func buildBox(e *markup.Element, b *builder) (*Box, error) {
	v, err := childFixed(e, "half_extents", 3)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, missingChild(e.Name, "half_extents")
	}
	box := &Box{HalfExtents: [3]float64(v)}
	if box.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return box, nil
}

func buildSphere(e *markup.Element, b *builder) (*Sphere, error) {
	r, err := childFloat(e, "radius")
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, missingChild(e.Name, "radius")
	}
	s := &Sphere{Radius: *r}
	if s.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return s, nil
}

// roundShape builds the shapes described by a height and two radii.
func roundShape[T interface {
	ShapeGeometry
	setExtras([]*Extra)
}](mk func(float64, [2]float64) T) ctor[T] {
	return func(e *markup.Element, b *builder) (T, error) {
		var zero T
		h, err := childFloat(e, "height")
		if err != nil {
			return zero, err
		}
		if h == nil {
			return zero, missingChild(e.Name, "height")
		}
		r, err := childFixed(e, "radius", 2)
		if err != nil {
			return zero, err
		}
		if r == nil {
			return zero, missingChild(e.Name, "radius")
		}
		t := mk(*h, [2]float64(r))
		x, err := extras(b, e)
		if err != nil {
			return zero, err
		}
		t.setExtras(x)
		return t, nil
	}
}

func (c *Cylinder) setExtras(x []*Extra) { c.Extras = x }
func (c *Capsule) setExtras(x []*Extra)  { c.Extras = x }

func shape(b *builder, e *markup.Element) (Shape, error) {
	var (
		s   Shape
		err error
	)
	if s.Hollow, err = childBool(e, "hollow"); err != nil {
		return Shape{}, err
	}
	if s.Mass, err = childFloat(e, "mass"); err != nil {
		return Shape{}, err
	}
	if s.Density, err = childFloat(e, "density"); err != nil {
		return Shape{}, err
	}
	if s.Material, _, err = choose(b, e, _physicsMaterialAlts); err != nil {
		return Shape{}, err
	}
	if s.Geometry, err = chooseRequired(b, e, "geometry", _shapeGeometryAlts); err != nil {
		return Shape{}, err
	}
	if s.Transforms, err = chooseEach(b, e, _transformAlts); err != nil {
		return Shape{}, err
	}
	if s.Extras, err = extras(b, e); err != nil {
		return Shape{}, err
	}
	return s, nil
}

func rigidBody(b *builder, e *markup.Element) (RigidBody, error) {
	sid, err := reqAttr(e, "sid")
	if err != nil {
		return RigidBody{}, err
	}
	rb := RigidBody{SID: sid, Name: optAttr(e, "name")}
	tc := e.Child("technique_common")
	if tc == nil {
		return RigidBody{}, missingChild(e.Name, "technique_common")
	}
	if err := rigidBodyCommon(b, tc, &rb); err != nil {
		return RigidBody{}, fmt.Errorf("technique_common: %w", err)
	}
	if rb.Techniques, err = techniques(e); err != nil {
		return RigidBody{}, err
	}
	if rb.Extras, err = extras(b, e); err != nil {
		return RigidBody{}, err
	}
	return rb, nil
}

func rigidBodyCommon(b *builder, tc *markup.Element, rb *RigidBody) error {
	var err error
	if rb.Dynamic, err = childBool(tc, "dynamic"); err != nil {
		return err
	}
	if rb.Mass, err = childFloat(tc, "mass"); err != nil {
		return err
	}
	if mf := tc.Child("mass_frame"); mf != nil {
		if rb.MassFrame, err = chooseEach(b, mf, _transformAlts); err != nil {
			return fmt.Errorf("mass_frame: %w", err)
		}
	}
	inertia, err := childFixed(tc, "inertia", 3)
	if err != nil {
		return err
	}
	if inertia != nil {
		v := [3]float64(inertia)
		rb.Inertia = &v
	}
	if rb.Material, _, err = choose(b, tc, _physicsMaterialAlts); err != nil {
		return err
	}
	for _, c := range tc.ChildrenNamed("shape") {
		s, err := shape(b, c)
		if err != nil {
			return fmt.Errorf("shape: %w", err)
		}
		rb.Shapes = append(rb.Shapes, s)
	}
	if len(rb.Shapes) == 0 {
		return missingChild(tc.Name, "shape")
	}
	return nil
}

func buildPhysicsModel(e *markup.Element, b *builder) (*PhysicsModel, error) {
	m := &PhysicsModel{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if m.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	for _, c := range e.ChildrenNamed("rigid_body") {
		rb, err := rigidBody(b, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label(c), err)
		}
		m.RigidBodies = append(m.RigidBodies, rb)
	}
	if m.InstancePhysicsModels, err = instancePhysicsModels(b, e); err != nil {
		return nil, err
	}
	if m.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, m.ID, m)
}

func instancePhysicsModels(b *builder, e *markup.Element) ([]InstancePhysicsModel, error) {
	var out []InstancePhysicsModel
	for _, c := range e.ChildrenNamed("instance_physics_model") {
		in, err := instance(b, c)
		if err != nil {
			return nil, fmt.Errorf("instance_physics_model: %w", err)
		}
		ipm := InstancePhysicsModel{Instance: in, Parent: optRef(b, c, "parent")}
		for _, rb := range c.ChildrenNamed("instance_rigid_body") {
			body, err := reqAttr(rb, "body")
			if err != nil {
				return nil, fmt.Errorf("instance_physics_model: instance_rigid_body: %w", err)
			}
			target, err := reqRef(b, rb, "target")
			if err != nil {
				return nil, fmt.Errorf("instance_physics_model: instance_rigid_body: %w", err)
			}
			irb := InstanceRigidBody{Body: body, Target: target}
			if irb.Extras, err = extras(b, rb); err != nil {
				return nil, fmt.Errorf("instance_physics_model: instance_rigid_body: %w", err)
			}
			ipm.InstanceRigidBodies = append(ipm.InstanceRigidBodies, irb)
		}
		out = append(out, ipm)
	}
	return out, nil
}

func buildPhysicsScene(e *markup.Element, b *builder) (*PhysicsScene, error) {
	s := &PhysicsScene{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if s.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if s.InstancePhysicsModels, err = instancePhysicsModels(b, e); err != nil {
		return nil, err
	}
	tc := e.Child("technique_common")
	if tc == nil {
		return nil, missingChild(e.Name, "technique_common")
	}
	gravity, err := childFixed(tc, "gravity", 3)
	if err != nil {
		return nil, fmt.Errorf("technique_common: %w", err)
	}
	if gravity != nil {
		g := [3]float64(gravity)
		s.Gravity = &g
	}
	if s.TimeStep, err = childFloat(tc, "time_step"); err != nil {
		return nil, fmt.Errorf("technique_common: %w", err)
	}
	if s.Techniques, err = techniques(e); err != nil {
		return nil, err
	}
	if s.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, s.ID, s)
}
