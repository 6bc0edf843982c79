package collada

import (
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/ndisidore/collada/pkg/markup"
)

// Library is one library_* element: an ordered set of items of one kind.
type Library[T Node] struct {
	ID     *string
	Name   *string
	Asset  *Asset
	Items  []T
	Extras []*Extra

	element string
}

// ElementName implements Node.
func (l *Library[T]) ElementName() string { return l.element }

// Document is the typed root of a parsed COLLADA document.
type Document struct {
	Version string
	Base    *string
	Asset   *Asset

	LibraryAnimations         []*Library[*Animation]
	LibraryAnimationClips     []*Library[*AnimationClip]
	LibraryCameras            []*Library[*Camera]
	LibraryControllers        []*Library[*Controller]
	LibraryEffects            []*Library[*Effect]
	LibraryGeometries         []*Library[*Geometry]
	LibraryImages             []*Library[*Image]
	LibraryLights             []*Library[*Light]
	LibraryMaterials          []*Library[*Material]
	LibraryNodes              []*Library[*SceneNode]
	LibraryPhysicsMaterials   []*Library[*PhysicsMaterial]
	LibraryPhysicsModels      []*Library[*PhysicsModel]
	LibraryPhysicsScenes      []*Library[*PhysicsScene]
	LibraryVisualScenes       []*Library[*VisualScene]
	LibraryJoints             []*Library[*Joint]
	LibraryKinematicsModels   []*Library[*KinematicsModel]
	LibraryArticulatedSystems []*Library[*ArticulatedSystem]
	LibraryKinematicsScenes   []*Library[*KinematicsScene]

	Scene    *Scene
	Extras   []*Extra
	Registry *Registry

	// Digest is the content digest of the source bytes.
	Digest digest.Digest
}

// ElementName implements Node.
func (*Document) ElementName() string { return "COLLADA" }

// Resolve looks ref up in the document's registry.
func (d *Document) Resolve(ref string) (Node, bool) {
	return d.Registry.Resolve(ref)
}

// Deref returns the node r points at. A reference left unresolved during
// construction is retried against the complete registry.
func (d *Document) Deref(r Ref) (Node, error) {
	if r.Target != nil {
		return r.Target, nil
	}
	if r.Local() {
		if n, ok := d.Registry.Resolve(r.URI); ok {
			return n, nil
		}
	}
	return nil, &ReferenceError{URI: r.URI}
}

// Geometries flattens every geometry library.
func (d *Document) Geometries() []*Geometry { return flatten(d.LibraryGeometries) }

// Materials flattens every material library.
func (d *Document) Materials() []*Material { return flatten(d.LibraryMaterials) }

// Effects flattens every effect library.
func (d *Document) Effects() []*Effect { return flatten(d.LibraryEffects) }

// VisualScenes flattens every visual scene library.
func (d *Document) VisualScenes() []*VisualScene { return flatten(d.LibraryVisualScenes) }

// Cameras flattens every camera library.
func (d *Document) Cameras() []*Camera { return flatten(d.LibraryCameras) }

// Lights flattens every light library.
func (d *Document) Lights() []*Light { return flatten(d.LibraryLights) }

// Images flattens every image library.
func (d *Document) Images() []*Image { return flatten(d.LibraryImages) }

// Controllers flattens every controller library.
func (d *Document) Controllers() []*Controller { return flatten(d.LibraryControllers) }

// Animations flattens every animation library.
func (d *Document) Animations() []*Animation { return flatten(d.LibraryAnimations) }

func flatten[T Node](libs []*Library[T]) []T {
	var out []T
	for _, l := range libs {
		out = append(out, l.Items...)
	}
	return out
}

var (
	_libAnimations         = library("animation", buildAnimation)
	_libAnimationClips     = library("animation_clip", buildAnimationClip)
	_libCameras            = library("camera", buildCamera)
	_libControllers        = library("controller", buildController)
	_libEffects            = library("effect", buildEffect)
	_libGeometries         = library("geometry", buildGeometry)
	_libImages             = library("image", buildImage)
	_libLights             = library("light", buildLight)
	_libMaterials          = library("material", buildMaterial)
	_libNodes              = library("node", buildSceneNode)
	_libPhysicsMaterials   = library("physics_material", buildPhysicsMaterial)
	_libPhysicsModels      = library("physics_model", buildPhysicsModel)
	_libPhysicsScenes      = library("physics_scene", buildPhysicsScene)
	_libVisualScenes       = library("visual_scene", buildVisualScene)
	_libJoints             = library("joint", buildJoint)
	_libKinematicsModels   = library("kinematics_model", buildKinematicsModel)
	_libArticulatedSystems = library("articulated_system", buildArticulatedSystem)
	_libKinematicsScenes   = library("kinematics_scene", buildKinematicsScene)
)

// library returns the constructor of a library holding items named item.
func library[T Node](item string, fn ctor[T]) ctor[*Library[T]] {
	return func(e *markup.Element, b *builder) (*Library[T], error) {
		l := &Library[T]{ID: optAttr(e, "id"), Name: optAttr(e, "name"), element: e.Name}
		var err error
		if l.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
			return nil, err
		}
		if l.Items, err = atLeast(b, e, item, 1, fn); err != nil {
			return nil, err
		}
		if l.Extras, err = extras(b, e); err != nil {
			return nil, err
		}
		return registerOpt(b, e, l.ID, l)
	}
}

func appendLibrary[T Node](b *builder, e *markup.Element, dst *[]*Library[T], fn ctor[*Library[T]]) error {
	l, err := build(b, e, fn)
	if err != nil {
		return err
	}
	*dst = append(*dst, l)
	return nil
}

// buildDocument maps the COLLADA root. Children are built in document order
// so a reference resolves exactly when its target precedes it.
func buildDocument(e *markup.Element, b *builder) (*Document, error) {
	if e.Name != "COLLADA" {
		return nil, fmt.Errorf("%w: found %q", ErrNoRoot, e.Name)
	}
	version, err := reqAttr(e, "version")
	if err != nil {
		return nil, err
	}
	d := &Document{Version: version, Base: optAttr(e, "base")}
	for _, c := range e.Children {
		switch {
		case c.Name == "asset":
			if d.Asset != nil {
				return nil, &StructuralError{Element: e.Name, Field: c.Name, Err: ErrRepeatedChild}
			}
			d.Asset, err = build(b, c, buildAsset)
		case c.Name == "scene":
			if d.Scene != nil {
				return nil, &StructuralError{Element: e.Name, Field: c.Name, Err: ErrRepeatedChild}
			}
			if d.Scene, err = scene(b, c); err != nil {
				err = fmt.Errorf("scene: %w", err)
			}
		case c.Name == "extra":
			var x *Extra
			if x, err = build(b, c, buildExtra); err == nil {
				d.Extras = append(d.Extras, x)
			}
		case strings.HasPrefix(c.Name, "library_"):
			err = d.addLibrary(b, c)
		}
		if err != nil {
			return nil, err
		}
	}
	if d.Asset == nil {
		return nil, missingChild(e.Name, "asset")
	}
	d.Registry = b.reg
	return d, nil
}

func (d *Document) addLibrary(b *builder, e *markup.Element) error {
	switch e.Name {
	case "library_animations":
		return appendLibrary(b, e, &d.LibraryAnimations, _libAnimations)
	case "library_animation_clips":
		return appendLibrary(b, e, &d.LibraryAnimationClips, _libAnimationClips)
	case "library_cameras":
		return appendLibrary(b, e, &d.LibraryCameras, _libCameras)
	case "library_controllers":
		return appendLibrary(b, e, &d.LibraryControllers, _libControllers)
	case "library_effects":
		return appendLibrary(b, e, &d.LibraryEffects, _libEffects)
	case "library_geometries":
		return appendLibrary(b, e, &d.LibraryGeometries, _libGeometries)
	case "library_images":
		return appendLibrary(b, e, &d.LibraryImages, _libImages)
	case "library_lights":
		return appendLibrary(b, e, &d.LibraryLights, _libLights)
	case "library_materials":
		return appendLibrary(b, e, &d.LibraryMaterials, _libMaterials)
	case "library_nodes":
		return appendLibrary(b, e, &d.LibraryNodes, _libNodes)
	case "library_physics_materials":
		return appendLibrary(b, e, &d.LibraryPhysicsMaterials, _libPhysicsMaterials)
	case "library_physics_models":
		return appendLibrary(b, e, &d.LibraryPhysicsModels, _libPhysicsModels)
	case "library_physics_scenes":
		return appendLibrary(b, e, &d.LibraryPhysicsScenes, _libPhysicsScenes)
	case "library_visual_scenes":
		return appendLibrary(b, e, &d.LibraryVisualScenes, _libVisualScenes)
	case "library_joints":
		return appendLibrary(b, e, &d.LibraryJoints, _libJoints)
	case "library_kinematics_models":
		return appendLibrary(b, e, &d.LibraryKinematicsModels, _libKinematicsModels)
	case "library_articulated_systems":
		return appendLibrary(b, e, &d.LibraryArticulatedSystems, _libArticulatedSystems)
	case "library_kinematics_scenes":
		return appendLibrary(b, e, &d.LibraryKinematicsScenes, _libKinematicsScenes)
	}
	return nil
}
