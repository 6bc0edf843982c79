package collada

import (
	"fmt"

	"github.com/ndisidore/collada/pkg/markup"
)

// JointPrimitive is one degree of freedom of a joint.
type JointPrimitive interface {
	Node
	Header() *JointAxis
	isJointPrimitive()
}

// Limits bounds a joint axis.
type Limits struct {
	Min *SIDFloat
	Max *SIDFloat
}

// JointAxis holds what prismatic and revolute primitives share.
type JointAxis struct {
	SID     *string
	AxisSID *string
	Axis    [3]float64
	Limits  *Limits
}

// Header returns the shared axis description.
func (a *JointAxis) Header() *JointAxis { return a }

// Prismatic is a translational degree of freedom.
type Prismatic struct{ JointAxis }

// Revolute is a rotational degree of freedom.
type Revolute struct{ JointAxis }

func (*Prismatic) ElementName() string { return "prismatic" }
func (*Revolute) ElementName() string  { return "revolute" }

func (*Prismatic) isJointPrimitive() {}
func (*Revolute) isJointPrimitive()  {}

// Joint is a joint library item.
type Joint struct {
	ID         *string
	Name       *string
	SID        *string
	Primitives []JointPrimitive
	Extras     []*Extra
}

// ElementName implements Node.
func (*Joint) ElementName() string { return "joint" }

// Attachment connects a link to a child link through a joint.
type Attachment struct {
	Joint      string
	Transforms []Transform
	Link       *Link
}

// Link is a rigid segment of a kinematic chain.
type Link struct {
	SID         *string
	Name        *string
	Transforms  []Transform
	Attachments []Attachment
}

// KinematicsModel describes a kinematic chain.
type KinematicsModel struct {
	ID             *string
	Name           *string
	Asset          *Asset
	InstanceJoints []Instance
	Joints         []*Joint
	Links          []Link
	Techniques     []Technique
	Extras         []*Extra
}

// ElementName implements Node.
func (*KinematicsModel) ElementName() string { return "kinematics_model" }

// ArticulatedBody is the content of an articulated system.
type ArticulatedBody interface {
	Node
	isArticulatedBody()
}

// AxisInfo configures one joint axis of a kinematics system.
type AxisInfo struct {
	SID    *string
	Name   *string
	Axis   string
	Active *bool
	Locked *bool
	Limits *Limits
}

// Kinematics binds kinematics models into a system.
type Kinematics struct {
	InstanceKinematicsModels []Instance
	AxisInfos                []AxisInfo
	Techniques               []Technique
	Extras                   []*Extra
}

// MotionAxisInfo gives the dynamic limits of one axis.
type MotionAxisInfo struct {
	SID          *string
	Name         *string
	Axis         string
	Speed        FloatOrParam
	Acceleration FloatOrParam
	Deceleration FloatOrParam
	Jerk         FloatOrParam
}

// Motion adds dynamics to an articulated system.
type Motion struct {
	InstanceArticulatedSystem Instance
	AxisInfos                 []MotionAxisInfo
	Techniques                []Technique
	Extras                    []*Extra
}

func (*Kinematics) ElementName() string { return "kinematics" }
func (*Motion) ElementName() string     { return "motion" }

func (*Kinematics) isArticulatedBody() {}
func (*Motion) isArticulatedBody()     {}

// ArticulatedSystem is an articulated system library item.
type ArticulatedSystem struct {
	ID     *string
	Name   *string
	Asset  *Asset
	Body   ArticulatedBody
	Extras []*Extra
}

// ElementName implements Node.
func (*ArticulatedSystem) ElementName() string { return "articulated_system" }

// KinematicsScene is a kinematics scene library item.
type KinematicsScene struct {
	ID                         *string
	Name                       *string
	Asset                      *Asset
	InstanceKinematicsModels   []Instance
	InstanceArticulatedSystems []Instance
	Extras                     []*Extra
}

// ElementName implements Node.
func (*KinematicsScene) ElementName() string { return "kinematics_scene" }

var _jointAlts = []alt[JointPrimitive]{
	alternative[JointPrimitive]("prismatic", jointPrimitive(func(a JointAxis) *Prismatic { return &Prismatic{a} })),
	alternative[JointPrimitive]("revolute", jointPrimitive(func(a JointAxis) *Revolute { return &Revolute{a} })),
}

var _articulatedAlts = []alt[ArticulatedBody]{
	alternative[ArticulatedBody]("kinematics", buildKinematics),
	alternative[ArticulatedBody]("motion", buildMotion),
}

func buildJoint(e *markup.Element, b *builder) (*Joint, error) {
	j := &Joint{ID: optAttr(e, "id"), Name: optAttr(e, "name"), SID: optAttr(e, "sid")}
	var err error
	if j.Primitives, err = chooseEach(b, e, _jointAlts); err != nil {
		return nil, err
	}
	if len(j.Primitives) == 0 {
		return nil, &StructuralError{Element: e.Name, Field: "prismatic|revolute", Err: ErrNoChoice}
	}
	if j.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, j.ID, j)
}

func jointPrimitive[T JointPrimitive](mk func(JointAxis) T) ctor[T] {
	return func(e *markup.Element, _ *builder) (T, error) {
		var zero T
		ax := e.Child("axis")
		if ax == nil {
			return zero, missingChild(e.Name, "axis")
		}
		v, err := fixed(ax, ax.Name, ax.Text, 3, parseFloat)
		if err != nil {
			return zero, err
		}
		a := JointAxis{SID: optAttr(e, "sid"), AxisSID: optAttr(ax, "sid"), Axis: [3]float64(v)}
		if a.Limits, err = limits(e); err != nil {
			return zero, err
		}
		return mk(a), nil
	}
}

func limits(e *markup.Element) (*Limits, error) {
	c := e.Child("limits")
	if c == nil {
		return nil, nil
	}
	l := &Limits{}
	var err error
	if l.Min, err = optSIDFloat(c, "min"); err != nil {
		return nil, fmt.Errorf("limits: %w", err)
	}
	if l.Max, err = optSIDFloat(c, "max"); err != nil {
		return nil, fmt.Errorf("limits: %w", err)
	}
	return l, nil
}

func buildKinematicsModel(e *markup.Element, b *builder) (*KinematicsModel, error) {
	m := &KinematicsModel{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if m.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	tc := e.Child("technique_common")
	if tc == nil {
		return nil, missingChild(e.Name, "technique_common")
	}
	if m.InstanceJoints, err = instances(b, tc, "instance_joint"); err != nil {
		return nil, fmt.Errorf("technique_common: %w", err)
	}
	if m.Joints, err = repeated(b, tc, "joint", buildJoint); err != nil {
		return nil, fmt.Errorf("technique_common: %w", err)
	}
	for _, c := range tc.ChildrenNamed("link") {
		l, err := link(b, c)
		if err != nil {
			return nil, fmt.Errorf("technique_common: %s: %w", label(c), err)
		}
		m.Links = append(m.Links, l)
	}
	if m.Techniques, err = techniques(e); err != nil {
		return nil, err
	}
	if m.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, m.ID, m)
}

func link(b *builder, e *markup.Element) (Link, error) {
	l := Link{SID: optAttr(e, "sid"), Name: optAttr(e, "name")}
	var err error
	if l.Transforms, err = chooseEach(b, e, _transformAlts); err != nil {
		return Link{}, err
	}
	for _, c := range e.ChildrenNamed("attachment_full") {
		joint, err := reqAttr(c, "joint")
		if err != nil {
			return Link{}, fmt.Errorf("attachment_full: %w", err)
		}
		a := Attachment{Joint: joint}
		if a.Transforms, err = chooseEach(b, c, _transformAlts); err != nil {
			return Link{}, fmt.Errorf("attachment_full: %w", err)
		}
		if lc := c.Child("link"); lc != nil {
			child, err := link(b, lc)
			if err != nil {
				return Link{}, fmt.Errorf("attachment_full: %s: %w", label(lc), err)
			}
			a.Link = &child
		}
		l.Attachments = append(l.Attachments, a)
	}
	return l, nil
}

func buildArticulatedSystem(e *markup.Element, b *builder) (*ArticulatedSystem, error) {
	s := &ArticulatedSystem{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if s.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if s.Body, err = chooseRequired(b, e, "kinematics|motion", _articulatedAlts); err != nil {
		return nil, err
	}
	if s.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, s.ID, s)
}

func buildKinematics(e *markup.Element, b *builder) (*Kinematics, error) {
	k := &Kinematics{}
	var err error
	if k.InstanceKinematicsModels, err = instances(b, e, "instance_kinematics_model"); err != nil {
		return nil, err
	}
	if tc := e.Child("technique_common"); tc != nil {
		for _, c := range tc.ChildrenNamed("axis_info") {
			ai, err := axisInfo(c)
			if err != nil {
				return nil, fmt.Errorf("technique_common: axis_info: %w", err)
			}
			k.AxisInfos = append(k.AxisInfos, ai)
		}
	}
	if k.Techniques, err = techniques(e); err != nil {
		return nil, err
	}
	if k.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return k, nil
}

func axisInfo(e *markup.Element) (AxisInfo, error) {
	axis, err := reqAttr(e, "axis")
	if err != nil {
		return AxisInfo{}, err
	}
	ai := AxisInfo{SID: optAttr(e, "sid"), Name: optAttr(e, "name"), Axis: axis}
	if ai.Active, err = childBool(e, "active"); err != nil {
		return AxisInfo{}, err
	}
	if ai.Locked, err = childBool(e, "locked"); err != nil {
		return AxisInfo{}, err
	}
	if ai.Limits, err = limits(e); err != nil {
		return AxisInfo{}, err
	}
	return ai, nil
}

func buildMotion(e *markup.Element, b *builder) (*Motion, error) {
	c := e.Child("instance_articulated_system")
	if c == nil {
		return nil, missingChild(e.Name, "instance_articulated_system")
	}
	in, err := instance(b, c)
	if err != nil {
		return nil, fmt.Errorf("instance_articulated_system: %w", err)
	}
	m := &Motion{InstanceArticulatedSystem: in}
	if tc := e.Child("technique_common"); tc != nil {
		for _, c := range tc.ChildrenNamed("axis_info") {
			ai, err := motionAxisInfo(b, c)
			if err != nil {
				return nil, fmt.Errorf("technique_common: axis_info: %w", err)
			}
			m.AxisInfos = append(m.AxisInfos, ai)
		}
	}
	if m.Techniques, err = techniques(e); err != nil {
		return nil, err
	}
	if m.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return m, nil
}

func motionAxisInfo(b *builder, e *markup.Element) (MotionAxisInfo, error) {
	axis, err := reqAttr(e, "axis")
	if err != nil {
		return MotionAxisInfo{}, err
	}
	ai := MotionAxisInfo{SID: optAttr(e, "sid"), Name: optAttr(e, "name"), Axis: axis}
	for _, f := range []struct {
		name string
		dst  *FloatOrParam
	}{
		{"speed", &ai.Speed},
		{"acceleration", &ai.Acceleration},
		{"deceleration", &ai.Deceleration},
		{"jerk", &ai.Jerk},
	} {
		c := e.Child(f.name)
		if c == nil {
			continue
		}
		if *f.dst, err = chooseRequired(b, c, f.name, _floatOrParamAlts); err != nil {
			return MotionAxisInfo{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return ai, nil
}

func buildKinematicsScene(e *markup.Element, b *builder) (*KinematicsScene, error) {
	s := &KinematicsScene{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if s.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if s.InstanceKinematicsModels, err = instances(b, e, "instance_kinematics_model"); err != nil {
		return nil, err
	}
	if s.InstanceArticulatedSystems, err = instances(b, e, "instance_articulated_system"); err != nil {
		return nil, err
	}
	if s.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, s.ID, s)
}
