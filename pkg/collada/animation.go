package collada

import (
	"fmt"

	"github.com/ndisidore/collada/pkg/markup"
)

// Behavior is a sampler's extrapolation before the first or after the last key.
type Behavior string

// Sampler behaviors.
const (
	BehaviorUndefined     Behavior = "UNDEFINED"
	BehaviorConstant      Behavior = "CONSTANT"
	BehaviorGradient      Behavior = "GRADIENT"
	BehaviorCycle         Behavior = "CYCLE"
	BehaviorOscillate     Behavior = "OSCILLATE"
	BehaviorCycleRelative Behavior = "CYCLE_RELATIVE"
)

var _behaviors = []Behavior{
	BehaviorUndefined, BehaviorConstant, BehaviorGradient,
	BehaviorCycle, BehaviorOscillate, BehaviorCycleRelative,
}

// Sampler interpolates animation keys.
type Sampler struct {
	ID           *string
	PreBehavior  *Behavior
	PostBehavior *Behavior
	Inputs       []InputUnshared
}

// ElementName implements Node.
func (*Sampler) ElementName() string { return "sampler" }

// Input returns the input bound to semantic, if any.
func (s *Sampler) Input(semantic string) (InputUnshared, bool) {
	for _, in := range s.Inputs {
		if in.Semantic == semantic {
			return in, true
		}
	}
	return InputUnshared{}, false
}

// Channel connects a sampler's output to a target value.
type Channel struct {
	Source Ref
	Target string
}

// Animation is an animation library item. Animations nest.
type Animation struct {
	ID         *string
	Name       *string
	Asset      *Asset
	Sources    []*Source
	Samplers   []*Sampler
	Channels   []Channel
	Animations []*Animation
	Extras     []*Extra
}

// ElementName implements Node.
func (*Animation) ElementName() string { return "animation" }

// AnimationClip groups animations over a time span.
type AnimationClip struct {
	ID                 *string
	Name               *string
	Start              float64
	End                *float64
	Asset              *Asset
	InstanceAnimations []Instance
	Extras             []*Extra
}

// ElementName implements Node.
func (*AnimationClip) ElementName() string { return "animation_clip" }

func buildAnimation(e *markup.Element, b *builder) (*Animation, error) {
	a := &Animation{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if a.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if a.Sources, err = repeated(b, e, "source", buildSource); err != nil {
		return nil, err
	}
	if a.Samplers, err = repeated(b, e, "sampler", buildSampler); err != nil {
		return nil, err
	}
	for _, c := range e.ChildrenNamed("channel") {
		ch, err := channel(b, c)
		if err != nil {
			return nil, fmt.Errorf("channel: %w", err)
		}
		a.Channels = append(a.Channels, ch)
	}
	if a.Animations, err = repeated(b, e, "animation", buildAnimation); err != nil {
		return nil, err
	}
	if len(a.Animations) == 0 && (len(a.Samplers) == 0 || len(a.Channels) == 0) {
		return nil, missingChild(e.Name, "channel")
	}
	if a.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, a.ID, a)
}

func buildSampler(e *markup.Element, b *builder) (*Sampler, error) {
	s := &Sampler{ID: optAttr(e, "id")}
	for _, attr := range []struct {
		name string
		dst  **Behavior
	}{{"pre_behavior", &s.PreBehavior}, {"post_behavior", &s.PostBehavior}} {
		v, ok := e.Attr(attr.name)
		if !ok {
			continue
		}
		bh, err := enumValue(e, attr.name, v, _behaviors...)
		if err != nil {
			return nil, err
		}
		*attr.dst = &bh
	}
	var err error
	if s.Inputs, err = inputsUnshared(b, e, 1); err != nil {
		return nil, err
	}
	return registerOpt(b, e, s.ID, s)
}

func channel(b *builder, e *markup.Element) (Channel, error) {
	src, err := reqRef(b, e, "source")
	if err != nil {
		return Channel{}, err
	}
	target, err := reqAttr(e, "target")
	if err != nil {
		return Channel{}, err
	}
	return Channel{Source: src, Target: target}, nil
}

func buildAnimationClip(e *markup.Element, b *builder) (*AnimationClip, error) {
	c := &AnimationClip{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if c.Start, err = floatAttrOr(e, "start", 0); err != nil {
		return nil, err
	}
	if c.End, err = optFloatAttr(e, "end"); err != nil {
		return nil, err
	}
	if c.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if c.InstanceAnimations, err = instances(b, e, "instance_animation"); err != nil {
		return nil, err
	}
	if len(c.InstanceAnimations) == 0 {
		return nil, missingChild(e.Name, "instance_animation")
	}
	if c.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, c.ID, c)
}
