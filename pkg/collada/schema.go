package collada

import (
	"fmt"
	"slices"

	"github.com/ndisidore/collada/pkg/markup"
)

// elementKind tells the streaming parser how to treat an element.
//
// Node kinds have their own constructor, run when the end tag arrives. Data
// kinds are kept in the element tree for the parent's constructor, and text
// kinds additionally keep their character content. Raw kinds are captured
// verbatim with every descendant; constructors read them lazily, exactly as
// the tree mapper does.
type elementKind struct {
	build ctor[Node]
	text  bool
	raw   bool
}

func nodeKind[T Node](fn ctor[T]) elementKind {
	return elementKind{build: func(e *markup.Element, b *builder) (Node, error) {
		return fn(e, b)
	}}
}

var (
	_dataKind = elementKind{}
	_textKind = elementKind{text: true}
	_rawKind  = elementKind{raw: true, text: true}
)

// _lenient kinds are skipped, not rejected, when they turn up under a known
// parent that does not read them.
var _lenient = []string{"asset", "extra", "technique"}

var _kinds = map[string]elementKind{
	"COLLADA": nodeKind(buildDocument),

	"library_animations":          nodeKind(_libAnimations),
	"library_animation_clips":     nodeKind(_libAnimationClips),
	"library_cameras":             nodeKind(_libCameras),
	"library_controllers":         nodeKind(_libControllers),
	"library_effects":             nodeKind(_libEffects),
	"library_geometries":          nodeKind(_libGeometries),
	"library_images":              nodeKind(_libImages),
	"library_lights":              nodeKind(_libLights),
	"library_materials":           nodeKind(_libMaterials),
	"library_nodes":               nodeKind(_libNodes),
	"library_physics_materials":   nodeKind(_libPhysicsMaterials),
	"library_physics_models":      nodeKind(_libPhysicsModels),
	"library_physics_scenes":      nodeKind(_libPhysicsScenes),
	"library_visual_scenes":       nodeKind(_libVisualScenes),
	"library_joints":              nodeKind(_libJoints),
	"library_kinematics_models":   nodeKind(_libKinematicsModels),
	"library_articulated_systems": nodeKind(_libArticulatedSystems),
	"library_kinematics_scenes":   nodeKind(_libKinematicsScenes),

	"animation":          nodeKind(buildAnimation),
	"animation_clip":     nodeKind(buildAnimationClip),
	"articulated_system": nodeKind(buildArticulatedSystem),
	"camera":             nodeKind(buildCamera),
	"controller":         nodeKind(buildController),
	"effect":             nodeKind(buildEffect),
	"extra":              nodeKind(buildExtra),
	"geometry":           nodeKind(buildGeometry),
	"image":              nodeKind(buildImage),
	"joint":              nodeKind(buildJoint),
	"kinematics_model":   nodeKind(buildKinematicsModel),
	"kinematics_scene":   nodeKind(buildKinematicsScene),
	"light":              nodeKind(buildLight),
	"material":           nodeKind(buildMaterial),
	"node":               nodeKind(buildSceneNode),
	"physics_material":   nodeKind(buildPhysicsMaterial),
	"physics_model":      nodeKind(buildPhysicsModel),
	"physics_scene":      nodeKind(buildPhysicsScene),
	"profile_COMMON":     nodeKind(buildProfileCommon),
	"sampler":            nodeKind(buildSampler),
	"source":             nodeKind(buildSource),
	"vertices":           nodeKind(buildVertices),
	"visual_scene":       nodeKind(buildVisualScene),

	"float_array":  _textKind,
	"int_array":    _textKind,
	"bool_array":   _textKind,
	"Name_array":   _textKind,
	"IDREF_array":  _textKind,
	"SIDREF_array": _textKind,
	"token_array":  _textKind,

	"channel":          _dataKind,
	"control_vertices": _dataKind,
	"convex_mesh":      _dataKind,
	"input":            _dataKind,
	"joints":           _dataKind,
	"lines":            _dataKind,
	"linestrips":       _dataKind,
	"mesh":             _dataKind,
	"morph":            _dataKind,
	"polygons":         _dataKind,
	"polylist":         _dataKind,
	"skin":             _dataKind,
	"spline":           _dataKind,
	"targets":          _dataKind,
	"triangles":        _dataKind,
	"trifans":          _dataKind,
	"tristrips":        _dataKind,
	"vertex_weights":   _dataKind,

	"bind_shape_matrix": _textKind,
	"data":              _textKind,
	"lookat":            _textKind,
	"matrix":            _textKind,
	"p":                 _textKind,
	"rotate":            _textKind,
	"scale":             _textKind,
	"skew":              _textKind,
	"translate":         _textKind,
	"v":                 _textKind,
	"vcount":            _textKind,

	"annotate":                    _rawKind,
	"asset":                       _rawKind,
	"brep":                        _rawKind,
	"init_from":                   _rawKind,
	"instance_animation":          _rawKind,
	"instance_articulated_system": _rawKind,
	"instance_camera":             _rawKind,
	"instance_controller":         _rawKind,
	"instance_effect":             _rawKind,
	"instance_geometry":           _rawKind,
	"instance_kinematics_model":   _rawKind,
	"instance_light":              _rawKind,
	"instance_node":               _rawKind,
	"instance_physics_model":      _rawKind,
	"kinematics":                  _rawKind,
	"motion":                      _rawKind,
	"newparam":                    _rawKind,
	"optics":                      _rawKind,
	"ph":                          _rawKind,
	"prismatic":                   _rawKind,
	"revolute":                    _rawKind,
	"rigid_body":                  _rawKind,
	"scene":                       _rawKind,
	"technique":                   _rawKind,
	"technique_common":            _rawKind,
}

var _primitiveContent = []string{"input", "p", "extra"}

var _meshContent = []string{
	"source", "vertices", "lines", "linestrips", "polygons", "polylist",
	"triangles", "trifans", "tristrips", "extra",
}

// _content lists, per parent, the children its constructor reads.
var _content = map[string][]string{
	"COLLADA": {
		"asset",
		"library_animations", "library_animation_clips", "library_cameras",
		"library_controllers", "library_effects", "library_geometries",
		"library_images", "library_lights", "library_materials", "library_nodes",
		"library_physics_materials", "library_physics_models",
		"library_physics_scenes", "library_visual_scenes", "library_joints",
		"library_kinematics_models", "library_articulated_systems",
		"library_kinematics_scenes",
		"scene", "extra",
	},
	"library_animations":          {"asset", "animation", "extra"},
	"library_animation_clips":     {"asset", "animation_clip", "extra"},
	"library_cameras":             {"asset", "camera", "extra"},
	"library_controllers":         {"asset", "controller", "extra"},
	"library_effects":             {"asset", "effect", "extra"},
	"library_geometries":          {"asset", "geometry", "extra"},
	"library_images":              {"asset", "image", "extra"},
	"library_lights":              {"asset", "light", "extra"},
	"library_materials":           {"asset", "material", "extra"},
	"library_nodes":               {"asset", "node", "extra"},
	"library_physics_materials":   {"asset", "physics_material", "extra"},
	"library_physics_models":      {"asset", "physics_model", "extra"},
	"library_physics_scenes":      {"asset", "physics_scene", "extra"},
	"library_visual_scenes":       {"asset", "visual_scene", "extra"},
	"library_joints":              {"asset", "joint", "extra"},
	"library_kinematics_models":   {"asset", "kinematics_model", "extra"},
	"library_articulated_systems": {"asset", "articulated_system", "extra"},
	"library_kinematics_scenes":   {"asset", "kinematics_scene", "extra"},

	"animation":      {"asset", "source", "sampler", "channel", "animation", "extra"},
	"animation_clip": {"asset", "instance_animation", "extra"},
	"sampler":        {"input"},
	"source": {
		"asset", "float_array", "int_array", "bool_array", "Name_array",
		"IDREF_array", "SIDREF_array", "token_array", "technique_common", "technique",
	},

	"camera":         {"asset", "optics", "extra"},
	"controller":     {"asset", "skin", "morph", "extra"},
	"skin":           {"bind_shape_matrix", "source", "joints", "vertex_weights", "extra"},
	"joints":         {"input", "extra"},
	"vertex_weights": {"input", "vcount", "v", "extra"},
	"morph":          {"source", "targets", "extra"},
	"targets":        {"input"},

	"effect":         {"asset", "annotate", "image", "newparam", "profile_COMMON", "extra"},
	"profile_COMMON": {"asset", "image", "newparam", "technique", "extra"},
	"image":          {"asset", "data", "init_from", "extra"},
	"material":       {"asset", "instance_effect", "extra"},
	"light":          {"asset", "technique_common", "technique", "extra"},

	"geometry":         {"asset", "convex_mesh", "mesh", "spline", "brep", "extra"},
	"mesh":             _meshContent,
	"convex_mesh":      _meshContent,
	"spline":           {"source", "control_vertices", "extra"},
	"control_vertices": {"input"},
	"vertices":         {"input", "extra"},
	"lines":            _primitiveContent,
	"linestrips":       _primitiveContent,
	"triangles":        _primitiveContent,
	"trifans":          _primitiveContent,
	"tristrips":        _primitiveContent,
	"polylist":         {"input", "vcount", "p", "extra"},
	"polygons":         {"input", "p", "ph", "extra"},

	"visual_scene": {"asset", "node", "extra"},
	"node": {
		"asset", "lookat", "matrix", "rotate", "scale", "skew", "translate",
		"instance_camera", "instance_controller", "instance_geometry",
		"instance_light", "instance_node", "node", "extra",
	},

	"physics_material": {"asset", "technique_common", "technique", "extra"},
	"physics_model":    {"asset", "rigid_body", "instance_physics_model", "extra"},
	"physics_scene":    {"asset", "instance_physics_model", "technique_common", "technique", "extra"},

	"joint":              {"prismatic", "revolute", "extra"},
	"kinematics_model":   {"asset", "technique_common", "technique", "extra"},
	"articulated_system": {"asset", "kinematics", "motion", "extra"},
	"kinematics_scene":   {"asset", "instance_kinematics_model", "instance_articulated_system", "extra"},

	"extra": {"asset", "technique"},
}

// lookupKind reports how name is treated under parent.
func lookupKind(parent, name string) (elementKind, bool) {
	if !slices.Contains(_content[parent], name) {
		return elementKind{}, false
	}
	k, ok := _kinds[name]
	return k, ok
}

// misplaced reports whether name is a node kind that parent never reads.
func misplaced(name string) bool {
	k, ok := _kinds[name]
	if !ok || k.build == nil {
		return false
	}
	return !slices.Contains(_lenient, name)
}

func misplacedError(el *markup.Element, parent string) error {
	return fmt.Errorf("%s: %w", label(el), &StructuralError{Element: el.Name, Field: parent, Err: ErrUnexpectedParent})
}

// checkPlacement walks a COLLADA tree the way the streaming parser admits
// elements and fails on the first node kind found under a parent that never
// reads it. Raw content and unknown subtrees are not descended.
func checkPlacement(e *markup.Element, kind elementKind) error {
	if kind.raw {
		return nil
	}
	for _, c := range e.Children {
		k, ok := lookupKind(e.Name, c.Name)
		if !ok {
			if misplaced(c.Name) {
				return fmt.Errorf("%s: %w", label(e), misplacedError(c, e.Name))
			}
			continue
		}
		if err := checkPlacement(c, k); err != nil {
			return fmt.Errorf("%s: %w", label(e), err)
		}
	}
	return nil
}
