package collada

import (
	"fmt"

	"github.com/ndisidore/collada/pkg/markup"
)

// GeometricElement is the shape held by a geometry: mesh, convex_mesh,
// spline or brep.
type GeometricElement interface {
	Node
	isGeometricElement()
}

// Geometry is a geometry library item.
type Geometry struct {
	ID      *string
	Name    *string
	Asset   *Asset
	Element GeometricElement
	Extras  []*Extra
}

// ElementName implements Node.
func (*Geometry) ElementName() string { return "geometry" }

// Mesh returns the geometry's mesh, or nil when it holds another shape.
func (g *Geometry) Mesh() *Mesh {
	m, _ := g.Element.(*Mesh)
	return m
}

// Vertices declares the mesh-vertex attributes.
type Vertices struct {
	ID     string
	Name   *string
	Inputs []InputUnshared
	Extras []*Extra
}

// ElementName implements Node.
func (*Vertices) ElementName() string { return "vertices" }

// Mesh is a polygonal mesh.
type Mesh struct {
	Sources    []*Source
	Vertices   *Vertices
	Primitives []Primitive
	Extras     []*Extra
}

// ConvexMesh is a mesh known to be convex, or the hull of another geometry.
type ConvexMesh struct {
	ConvexHullOf *Ref
	Sources      []*Source
	Vertices     *Vertices
	Primitives   []Primitive
	Extras       []*Extra
}

// Spline is a multi-segment spline.
type Spline struct {
	Closed          bool
	Sources         []*Source
	ControlVertices []InputUnshared
	Extras          []*Extra
}

// Brep is a boundary representation; its content is kept as raw markup.
type Brep struct {
	Content *markup.Element
}

func (*Mesh) ElementName() string       { return "mesh" }
func (*ConvexMesh) ElementName() string { return "convex_mesh" }
func (*Spline) ElementName() string     { return "spline" }
func (*Brep) ElementName() string       { return "brep" }

func (*Mesh) isGeometricElement()       {}
func (*ConvexMesh) isGeometricElement() {}
func (*Spline) isGeometricElement()     {}
func (*Brep) isGeometricElement()       {}

// Primitive is one primitive block of a mesh: lines, linestrips, polygons,
// polylist, triangles, trifans or tristrips.
type Primitive interface {
	Node
	Header() *PrimitiveHeader
	isPrimitive()
}

// PrimitiveHeader holds what every primitive kind shares.
type PrimitiveHeader struct {
	Name     *string
	Count    uint64
	Material *string
	Inputs   []InputShared
	Extras   []*Extra
}

// Header returns h; it lets every primitive kind satisfy Primitive.
func (h *PrimitiveHeader) Header() *PrimitiveHeader { return h }

// Lines is a set of independent line segments.
type Lines struct {
	PrimitiveHeader
	P []uint64
}

// Triangles is a set of independent triangles.
type Triangles struct {
	PrimitiveHeader
	P []uint64
}

// Linestrips is a set of connected line strips, one index list each.
type Linestrips struct {
	PrimitiveHeader
	P [][]uint64
}

// Trifans is a set of triangle fans.
type Trifans struct {
	PrimitiveHeader
	P [][]uint64
}

// Tristrips is a set of triangle strips.
type Tristrips struct {
	PrimitiveHeader
	P [][]uint64
}

// Polylist is a set of polygons sharing one index list.
type Polylist struct {
	PrimitiveHeader
	VCount []uint64
	P      []uint64
}

// PolygonHole is a polygon with holes.
type PolygonHole struct {
	P []uint64
	H [][]uint64
}

// Polygons is a set of polygons, each with its own index list.
type Polygons struct {
	PrimitiveHeader
	P  [][]uint64
	PH []PolygonHole
}

func (*Lines) ElementName() string      { return "lines" }
func (*Triangles) ElementName() string  { return "triangles" }
func (*Linestrips) ElementName() string { return "linestrips" }
func (*Trifans) ElementName() string    { return "trifans" }
func (*Tristrips) ElementName() string  { return "tristrips" }
func (*Polylist) ElementName() string   { return "polylist" }
func (*Polygons) ElementName() string   { return "polygons" }

func (*Lines) isPrimitive()      {}
func (*Triangles) isPrimitive()  {}
func (*Linestrips) isPrimitive() {}
func (*Trifans) isPrimitive()    {}
func (*Tristrips) isPrimitive()  {}
func (*Polylist) isPrimitive()   {}
func (*Polygons) isPrimitive()   {}

var _geometricAlts = []alt[GeometricElement]{
	alternative[GeometricElement]("convex_mesh", buildConvexMesh),
	alternative[GeometricElement]("mesh", buildMesh),
	alternative[GeometricElement]("spline", buildSpline),
	alternative[GeometricElement]("brep", buildBrep),
}

var _primitiveAlts = []alt[Primitive]{
	alternative[Primitive]("lines", buildLines),
	alternative[Primitive]("linestrips", buildLinestrips),
	alternative[Primitive]("polygons", buildPolygons),
	alternative[Primitive]("polylist", buildPolylist),
	alternative[Primitive]("triangles", buildTriangles),
	alternative[Primitive]("trifans", buildTrifans),
	alternative[Primitive]("tristrips", buildTristrips),
}

func buildGeometry(e *markup.Element, b *builder) (*Geometry, error) {
	g := &Geometry{ID: optAttr(e, "id"), Name: optAttr(e, "name")}
	var err error
	if g.Asset, err = optional(b, e, "asset", buildAsset); err != nil {
		return nil, err
	}
	if g.Element, err = chooseRequired(b, e, "geometric element", _geometricAlts); err != nil {
		return nil, err
	}
	if g.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return registerOpt(b, e, g.ID, g)
}

func buildMesh(e *markup.Element, b *builder) (*Mesh, error) {
	m := &Mesh{}
	var err error
	if m.Sources, err = atLeast(b, e, "source", 1, buildSource); err != nil {
		return nil, err
	}
	if m.Vertices, err = required(b, e, "vertices", buildVertices); err != nil {
		return nil, err
	}
	if m.Primitives, err = chooseEach(b, e, _primitiveAlts); err != nil {
		return nil, err
	}
	if m.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return m, nil
}

func buildConvexMesh(e *markup.Element, b *builder) (*ConvexMesh, error) {
	m := &ConvexMesh{ConvexHullOf: optRef(b, e, "convex_hull_of")}
	var err error
	if m.Sources, err = repeated(b, e, "source", buildSource); err != nil {
		return nil, err
	}
	if m.ConvexHullOf == nil {
		if m.Vertices, err = required(b, e, "vertices", buildVertices); err != nil {
			return nil, err
		}
	} else if m.Vertices, err = optional(b, e, "vertices", buildVertices); err != nil {
		return nil, err
	}
	if m.Primitives, err = chooseEach(b, e, _primitiveAlts); err != nil {
		return nil, err
	}
	if m.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return m, nil
}

func buildSpline(e *markup.Element, b *builder) (*Spline, error) {
	s := &Spline{}
	var err error
	if s.Closed, err = boolAttrOr(e, "closed", false); err != nil {
		return nil, err
	}
	if s.Sources, err = atLeast(b, e, "source", 1, buildSource); err != nil {
		return nil, err
	}
	cv := e.Child("control_vertices")
	if cv == nil {
		return nil, missingChild(e.Name, "control_vertices")
	}
	if s.ControlVertices, err = inputsUnshared(b, cv, 1); err != nil {
		return nil, fmt.Errorf("control_vertices: %w", err)
	}
	if s.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return s, nil
}

func buildBrep(e *markup.Element, _ *builder) (*Brep, error) {
	return &Brep{Content: e}, nil
}

func buildVertices(e *markup.Element, b *builder) (*Vertices, error) {
	id, err := reqAttr(e, "id")
	if err != nil {
		return nil, err
	}
	v := &Vertices{ID: id, Name: optAttr(e, "name")}
	if v.Inputs, err = inputsUnshared(b, e, 1); err != nil {
		return nil, err
	}
	if v.Extras, err = extras(b, e); err != nil {
		return nil, err
	}
	return register(b, e, id, v)
}

func primitiveHeader(b *builder, e *markup.Element) (PrimitiveHeader, error) {
	count, err := reqUintAttr(e, "count")
	if err != nil {
		return PrimitiveHeader{}, err
	}
	h := PrimitiveHeader{Name: optAttr(e, "name"), Count: count, Material: optAttr(e, "material")}
	if h.Inputs, err = inputsShared(b, e); err != nil {
		return PrimitiveHeader{}, err
	}
	if h.Extras, err = extras(b, e); err != nil {
		return PrimitiveHeader{}, err
	}
	return h, nil
}

// indices parses the optional single index list child named name.
func indices(e *markup.Element, name string) ([]uint64, error) {
	c := e.Child(name)
	if c == nil {
		return nil, nil
	}
	return list(c, name, c.Text, parseUint)
}

// indexLists parses every index list child named name.
func indexLists(e *markup.Element, name string) ([][]uint64, error) {
	var out [][]uint64
	for _, c := range e.ChildrenNamed(name) {
		p, err := list(c, name, c.Text, parseUint)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func buildLines(e *markup.Element, b *builder) (*Lines, error) {
	h, err := primitiveHeader(b, e)
	if err != nil {
		return nil, err
	}
	p, err := indices(e, "p")
	if err != nil {
		return nil, err
	}
	return &Lines{PrimitiveHeader: h, P: p}, nil
}

func buildTriangles(e *markup.Element, b *builder) (*Triangles, error) {
	h, err := primitiveHeader(b, e)
	if err != nil {
		return nil, err
	}
	p, err := indices(e, "p")
	if err != nil {
		return nil, err
	}
	return &Triangles{PrimitiveHeader: h, P: p}, nil
}

func buildLinestrips(e *markup.Element, b *builder) (*Linestrips, error) {
	h, err := primitiveHeader(b, e)
	if err != nil {
		return nil, err
	}
	p, err := indexLists(e, "p")
	if err != nil {
		return nil, err
	}
	return &Linestrips{PrimitiveHeader: h, P: p}, nil
}

func buildTrifans(e *markup.Element, b *builder) (*Trifans, error) {
	h, err := primitiveHeader(b, e)
	if err != nil {
		return nil, err
	}
	p, err := indexLists(e, "p")
	if err != nil {
		return nil, err
	}
	return &Trifans{PrimitiveHeader: h, P: p}, nil
}

func buildTristrips(e *markup.Element, b *builder) (*Tristrips, error) {
	h, err := primitiveHeader(b, e)
	if err != nil {
		return nil, err
	}
	p, err := indexLists(e, "p")
	if err != nil {
		return nil, err
	}
	return &Tristrips{PrimitiveHeader: h, P: p}, nil
}

func buildPolylist(e *markup.Element, b *builder) (*Polylist, error) {
	h, err := primitiveHeader(b, e)
	if err != nil {
		return nil, err
	}
	pl := &Polylist{PrimitiveHeader: h}
	if pl.VCount, err = indices(e, "vcount"); err != nil {
		return nil, err
	}
	if pl.P, err = indices(e, "p"); err != nil {
		return nil, err
	}
	return pl, nil
}

func buildPolygons(e *markup.Element, b *builder) (*Polygons, error) {
	h, err := primitiveHeader(b, e)
	if err != nil {
		return nil, err
	}
	pg := &Polygons{PrimitiveHeader: h}
	if pg.P, err = indexLists(e, "p"); err != nil {
		return nil, err
	}
	for _, ph := range e.ChildrenNamed("ph") {
		p, err := indices(ph, "p")
		if err != nil {
			return nil, fmt.Errorf("ph: %w", err)
		}
		if p == nil {
			return nil, fmt.Errorf("ph: %w", missingChild("ph", "p"))
		}
		holes, err := indexLists(ph, "h")
		if err != nil {
			return nil, fmt.Errorf("ph: %w", err)
		}
		pg.PH = append(pg.PH, PolygonHole{P: p, H: holes})
	}
	return pg, nil
}
