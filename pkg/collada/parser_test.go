package collada

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndisidore/collada/pkg/markup"
)

var _frontEnds = []FrontEnd{FrontEndTree, FrontEndStream}

// captureHandler records every log record it receives.
type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

// logged reports whether a record with msg carried element=name.
func (h *captureHandler) logged(msg, name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.Message != msg {
			continue
		}
		found := false
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "element" && a.Value.String() == name {
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

func quietParser(fe FrontEnd) *Parser {
	opts := DefaultOptions()
	opts.FrontEnd = fe
	return &Parser{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Options: opts}
}

// minimal wraps body in a COLLADA root with the required asset.
func minimal(body string) string {
	return `<COLLADA version="1.4.1"><asset><created>2024-01-01T00:00:00Z</created>` +
		`<modified>2024-01-01T00:00:00Z</modified></asset>` + body + `</COLLADA>`
}

func parseScene(t *testing.T, fe FrontEnd) *Document {
	t.Helper()
	doc, err := quietParser(fe).ParseFile("testdata/scene.dae")
	require.NoError(t, err)
	return doc
}

func TestParseScene(t *testing.T) {
	t.Parallel()

	for _, fe := range _frontEnds {
		t.Run(string(fe), func(t *testing.T) {
			t.Parallel()
			doc := parseScene(t, fe)

			assert.Equal(t, "1.4.1", doc.Version)
			require.NotNil(t, doc.Asset)
			assert.Equal(t, ZUp, doc.Asset.Up())
			require.NotNil(t, doc.Asset.Unit)
			assert.Equal(t, Unit{Name: "centimeter", Meter: 0.01}, *doc.Asset.Unit)
			assert.True(t, time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC).Equal(doc.Asset.Modified))
			require.Len(t, doc.Asset.Contributors, 1)
			assert.Equal(t, "tester", *doc.Asset.Contributors[0].Author)

			require.Len(t, doc.Geometries(), 1)
			geom := doc.Geometries()[0]
			assert.Equal(t, "box", *geom.ID)
			mesh := geom.Mesh()
			require.NotNil(t, mesh)
			require.Len(t, mesh.Sources, 1)

			arr, ok := mesh.Sources[0].Array.(*FloatArray)
			require.True(t, ok)
			assert.Equal(t, []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}, arr.Values)
			assert.Equal(t, uint64(9), arr.Count)
			require.NotNil(t, mesh.Sources[0].Accessor)
			assert.Same(t, arr, mesh.Sources[0].Accessor.Source.Target)
			assert.Equal(t, uint64(3), mesh.Sources[0].Accessor.Stride)

			require.Len(t, mesh.Primitives, 2)
			tris, ok := mesh.Primitives[0].(*Triangles)
			require.True(t, ok)
			assert.Equal(t, []uint64{0, 1, 2}, tris.P)
			assert.Equal(t, "mat-sym", *tris.Material)
			require.Len(t, tris.Inputs, 1)
			assert.Same(t, mesh.Vertices, tris.Inputs[0].Source.Target)
			poly, ok := mesh.Primitives[1].(*Polylist)
			require.True(t, ok)
			assert.Equal(t, []uint64{3}, poly.VCount)

			require.Len(t, geom.Extras, 1)
			require.Len(t, geom.Extras[0].Techniques, 1)
			assert.Equal(t, "MAYA", geom.Extras[0].Techniques[0].Profile)
			assert.Equal(t, "1", geom.Extras[0].Techniques[0].Content.Child("double_sided").TrimmedText())

			fx := doc.Effects()[0].Common()
			require.NotNil(t, fx)
			phong, ok := fx.Technique.Shader.(*Phong)
			require.True(t, ok)
			assert.Equal(t, &Texture{Texture: "samp", Texcoord: "UV"}, phong.Diffuse)
			assert.Equal(t, &FloatValue{SID: ptr("shine"), Value: 20}, phong.Shininess)
			require.NotNil(t, phong.Transparent)
			assert.Equal(t, OpaqueRGBZero, phong.Transparent.Opaque)
			require.Len(t, fx.NewParams, 2)
			assert.Equal(t, &Surface{Type: "2D", InitFrom: ptr("tex-img")}, fx.NewParams[0].Value)

			cam := doc.Cameras()[0]
			persp, ok := cam.Optics.Projection.(*Perspective)
			require.True(t, ok)
			assert.Equal(t, &SIDFloat{SID: ptr("xfov"), Value: 49.13}, persp.XFov)
			assert.Nil(t, persp.YFov)
			assert.Equal(t, 100.0, persp.ZFar.Value)

			sun, ok := doc.Lights()[0].Source.(*DirectionalLight)
			require.True(t, ok)
			assert.Equal(t, [3]float64{1, 1, 0.9}, sun.RGB)

			skin, ok := doc.Controllers()[0].Control.(*Skin)
			require.True(t, ok)
			assert.Same(t, geom, skin.Source.Target)
			require.NotNil(t, skin.BindShapeMatrix)
			assert.Equal(t, 1.0, skin.BindShapeMatrix[15])
			assert.Len(t, skin.Sources, 3)
			assert.Equal(t, []uint64{1, 1, 1}, skin.VertexWeights.VCount)
			assert.Equal(t, []int64{0, 0, 0, 0, 0, 0}, skin.VertexWeights.V)

			vs := doc.VisualScenes()[0]
			require.Len(t, vs.Nodes, 3)
			box := vs.Nodes[0]
			require.Len(t, box.Transforms, 2)
			assert.Equal(t, &Translate{TransformHeader{SID: ptr("location")}, [3]float64{0, 0, 1}}, box.Transforms[0])
			assert.Equal(t, &Rotate{TransformHeader{SID: ptr("rotY")}, [4]float64{0, 1, 0, 45}}, box.Transforms[1])
			require.Len(t, box.InstanceGeometries, 1)
			ig := box.InstanceGeometries[0]
			assert.Same(t, geom, ig.URL.Target)
			require.NotNil(t, ig.BindMaterial)
			require.Len(t, ig.BindMaterial.Materials, 1)
			assert.Same(t, doc.Materials()[0], ig.BindMaterial.Materials[0].Target.Target)
			require.Len(t, box.Children, 1)
			assert.Same(t, doc.Cameras()[0], box.Children[0].InstanceCameras[0].URL.Target)
			assert.Equal(t, NodeTypeJoint, vs.Nodes[2].Type)

			anim := doc.Animations()[0]
			require.Len(t, anim.Samplers, 1)
			require.NotNil(t, anim.Samplers[0].PreBehavior)
			assert.Equal(t, BehaviorConstant, *anim.Samplers[0].PreBehavior)
			assert.Nil(t, anim.Samplers[0].PostBehavior)
			assert.Same(t, anim.Samplers[0], anim.Channels[0].Source.Target)

			require.NotNil(t, doc.Scene)
			require.NotNil(t, doc.Scene.InstanceVisualScene)
			assert.Same(t, vs, doc.Scene.InstanceVisualScene.URL.Target)

			assert.Equal(t, "library_geometries", doc.LibraryGeometries[0].ElementName())
			assert.Equal(t, digest.Canonical, doc.Digest.Algorithm())
		})
	}
}

func TestSourceReferenceIsSameInstance(t *testing.T) {
	t.Parallel()

	for _, fe := range _frontEnds {
		t.Run(string(fe), func(t *testing.T) {
			t.Parallel()
			doc := parseScene(t, fe)
			n, ok := doc.Resolve("#mysource")
			require.True(t, ok)
			assert.Same(t, doc.Geometries()[0].Mesh().Sources[0], n)
		})
	}
}

func TestEveryIDResolves(t *testing.T) {
	t.Parallel()

	doc := parseScene(t, FrontEndTree)
	ids := doc.Registry.IDs()
	require.NotEmpty(t, ids)
	for _, id := range ids {
		n, ok := doc.Registry.Resolve("#" + id)
		require.True(t, ok, id)
		assert.NotNil(t, n, id)
	}
	assert.Equal(t, []string{"cam", "sun", "tex-img", "mat", "fx"}, ids[:5])
}

const (
	_forwardRef = `<library_visual_scenes><visual_scene id="vs">` +
		`<node id="p"><instance_node url="#k"/><node id="k"/></node>` +
		`</visual_scene></library_visual_scenes>`
	_backwardRef = `<library_visual_scenes><visual_scene id="vs">` +
		`<node id="p"><node id="k"/><instance_node url="#k"/></node>` +
		`</visual_scene></library_visual_scenes>`
	_twoArrays = `<library_geometries><geometry id="g"><mesh>` +
		`<source id="s"><float_array id="f" count="1">1</float_array><int_array id="i" count="1">2</int_array></source>` +
		`<vertices id="v"><input semantic="POSITION" source="#s"/></vertices>` +
		`</mesh></geometry></library_geometries>`
)

func TestFrontEndsAgree(t *testing.T) {
	t.Parallel()

	scene, err := os.ReadFile("testdata/scene.dae")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{name: "scene", input: string(scene)},
		{name: "forward reference to a later sibling", input: minimal(_forwardRef)},
		{name: "backward reference to an earlier sibling", input: minimal(_backwardRef)},
		{name: "losing array alternative", input: minimal(_twoArrays)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tree, err := quietParser(FrontEndTree).ParseString(tt.input)
			require.NoError(t, err)
			streamed, err := quietParser(FrontEndStream).ParseString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tree, streamed)
			assert.Equal(t, tree.Registry.IDs(), streamed.Registry.IDs())
		})
	}
}

func TestReferenceFollowsDocumentOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		resolved bool
	}{
		{name: "target after referrer", input: _forwardRef, resolved: false},
		{name: "target before referrer", input: _backwardRef, resolved: true},
	}
	for _, tt := range tests {
		for _, fe := range _frontEnds {
			t.Run(tt.name+"/"+string(fe), func(t *testing.T) {
				t.Parallel()
				doc, err := quietParser(fe).ParseString(minimal(tt.input))
				require.NoError(t, err)
				p := doc.VisualScenes()[0].Nodes[0]
				require.Len(t, p.InstanceNodes, 1)
				assert.Equal(t, tt.resolved, p.InstanceNodes[0].URL.Resolved())

				_, ok := doc.Resolve("#k")
				assert.True(t, ok, "the id is registered once parsing ends")
			})
		}
	}
}

func TestLosingArrayNotRegistered(t *testing.T) {
	t.Parallel()

	for _, fe := range _frontEnds {
		t.Run(string(fe), func(t *testing.T) {
			t.Parallel()
			doc, err := quietParser(fe).ParseString(minimal(_twoArrays))
			require.NoError(t, err)

			src := doc.Geometries()[0].Mesh().Sources[0]
			assert.IsType(t, &FloatArray{}, src.Array)
			_, ok := doc.Resolve("#f")
			assert.True(t, ok)
			_, ok = doc.Resolve("#i")
			assert.False(t, ok)
		})
	}
}

func TestRepeatedChild(t *testing.T) {
	t.Parallel()

	const asset = `<asset><created>2024-01-01T00:00:00Z</created><modified>2024-01-01T00:00:00Z</modified></asset>`
	tests := []struct {
		name   string
		input  string
		parent string
		child  string
	}{
		{
			name:   "second document asset",
			input:  `<COLLADA version="1.4.1">` + asset + asset + `</COLLADA>`,
			parent: "COLLADA",
			child:  "asset",
		},
		{
			name: "second scene",
			input: minimal(`<library_visual_scenes><visual_scene id="vs"/></library_visual_scenes>` +
				`<scene><instance_visual_scene url="#vs"/></scene><scene/>`),
			parent: "COLLADA",
			child:  "scene",
		},
		{
			name: "second mesh vertices",
			input: minimal(`<library_geometries><geometry id="g"><mesh>` +
				`<source id="s"><float_array count="1">1</float_array></source>` +
				`<vertices id="v1"><input semantic="POSITION" source="#s"/></vertices>` +
				`<vertices id="v2"><input semantic="POSITION" source="#s"/></vertices>` +
				`</mesh></geometry></library_geometries>`),
			parent: "mesh",
			child:  "vertices",
		},
	}
	for _, tt := range tests {
		for _, fe := range _frontEnds {
			t.Run(tt.name+"/"+string(fe), func(t *testing.T) {
				t.Parallel()
				_, err := quietParser(fe).ParseString(tt.input)
				var se *StructuralError
				require.ErrorAs(t, err, &se)
				assert.ErrorIs(t, err, ErrRepeatedChild)
				assert.Equal(t, tt.parent, se.Element)
				assert.Equal(t, tt.child, se.Field)
			})
		}
	}
}

func TestAssetDefaults(t *testing.T) {
	t.Parallel()

	for _, fe := range _frontEnds {
		t.Run(string(fe), func(t *testing.T) {
			t.Parallel()
			doc, err := quietParser(fe).ParseString(minimal(""))
			require.NoError(t, err)
			require.NotNil(t, doc.Asset)
			assert.Nil(t, doc.Asset.Unit)
			assert.Nil(t, doc.Asset.UpAxis)
			assert.Equal(t, DefaultUnit, doc.Asset.DistanceUnit())
			assert.Equal(t, YUp, doc.Asset.Up())

			var none *Asset
			assert.Equal(t, DefaultUnit, none.DistanceUnit())
			assert.Equal(t, YUp, none.Up())
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	t.Parallel()

	for _, fe := range _frontEnds {
		t.Run(string(fe), func(t *testing.T) {
			t.Parallel()
			first := parseScene(t, fe)
			second := parseScene(t, fe)
			assert.Equal(t, first, second)
			assert.Equal(t, first.Digest, second.Digest)
		})
	}
}

func TestDigestMatchesSource(t *testing.T) {
	t.Parallel()

	raw, err := os.ReadFile("testdata/scene.dae")
	require.NoError(t, err)
	doc := parseScene(t, FrontEndStream)
	assert.Equal(t, digest.FromBytes(raw), doc.Digest)
}

func TestDeref(t *testing.T) {
	t.Parallel()

	doc := parseScene(t, FrontEndTree)
	mat := doc.Materials()[0]
	assert.False(t, mat.InstanceEffect.URL.Resolved(), "effect is defined after the material")

	n, err := doc.Deref(mat.InstanceEffect.URL)
	require.NoError(t, err)
	assert.Same(t, doc.Effects()[0], n)

	_, err = doc.Deref(Ref{URI: "#nowhere"})
	var re *ReferenceError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "#nowhere", re.URI)
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.ErrorIs(t, err, errdefs.ErrNotFound)

	_, err = doc.Deref(Ref{URI: "other.dae#box"})
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestResolveTarget(t *testing.T) {
	t.Parallel()

	doc := parseScene(t, FrontEndTree)
	box, _ := doc.Resolve("box-node")
	node := box.(*SceneNode)

	tests := []struct {
		name       string
		path       string
		wantValue  any
		wantMember string
		wantErr    bool
	}{
		{name: "transform member", path: "box-node/rotY.ANGLE", wantValue: node.Transforms[1], wantMember: "ANGLE"},
		{name: "index member", path: "box-node/location(2)", wantValue: node.Transforms[0], wantMember: "(2)"},
		{name: "whole node", path: "box-node", wantValue: box},
		{name: "child node", path: "box-node/camera", wantValue: node.Children[0]},
		{name: "effect parameter", path: "fx/common", wantValue: &doc.Effects()[0].Common().Technique},
		{name: "camera value", path: "cam/xfov", wantValue: doc.Cameras()[0].Optics.Projection.(*Perspective).XFov},
		{name: "unknown sid", path: "box-node/nope.X", wantErr: true},
		{name: "unknown id", path: "ghost/rotY", wantErr: true},
		{name: "empty", path: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := doc.ResolveTarget(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, errdefs.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, tt.wantMember, got.Member)
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantErr   error
		wantField string
		wantElem  string
		wantToken string
	}{
		{
			name:      "source without id",
			input:     minimal(`<library_geometries><geometry id="g"><mesh><source><float_array count="1">1</float_array></source></mesh></geometry></library_geometries>`),
			wantErr:   ErrMissingAttribute,
			wantField: "id",
			wantElem:  "source",
		},
		{
			name:      "bad float token",
			input:     minimal(`<library_geometries><geometry><mesh><source id="s"><float_array count="3">1.0 x 3</float_array></source></mesh></geometry></library_geometries>`),
			wantErr:   ErrInvalidValue,
			wantField: "float_array",
			wantElem:  "float_array",
			wantToken: "x",
		},
		{
			name:     "missing version",
			input:    `<COLLADA><asset><created>2024-01-01T00:00:00Z</created><modified>2024-01-01T00:00:00Z</modified></asset></COLLADA>`,
			wantErr:  ErrMissingAttribute,
			wantElem: "COLLADA",
		},
		{
			name:     "missing asset",
			input:    `<COLLADA version="1.4.1"></COLLADA>`,
			wantErr:  ErrMissingChild,
			wantElem: "COLLADA",
		},
		{
			name:     "geometry without element",
			input:    minimal(`<library_geometries><geometry id="g"/></library_geometries>`),
			wantErr:  ErrNoChoice,
			wantElem: "geometry",
		},
		{
			name:    "duplicate id",
			input:   minimal(`<library_lights><light id="l"><technique_common><ambient><color>1 1 1</color></ambient></technique_common></light><light id="l"><technique_common><ambient><color>0 0 0</color></ambient></technique_common></light></library_lights>`),
			wantErr: ErrDuplicateID,
		},
		{
			name:    "count mismatch",
			input:   minimal(`<library_geometries><geometry><mesh><source id="s"><float_array count="4">1 2 3</float_array></source></mesh></geometry></library_geometries>`),
			wantErr: ErrCountMismatch,
		},
		{
			name:    "matrix arity",
			input:   minimal(`<library_visual_scenes><visual_scene><node><matrix>1 0 0</matrix></node></visual_scene></library_visual_scenes>`),
			wantErr: ErrArity,
		},
		{
			name:    "not collada",
			input:   `<scene/>`,
			wantErr: ErrNoRoot,
		},
		{
			name:    "empty",
			input:   ``,
			wantErr: ErrNoRoot,
		},
		{
			name:    "malformed",
			input:   `<COLLADA version="1.4.1"><asset>`,
			wantErr: markup.ErrMalformed,
		},
	}

	for _, tt := range tests {
		for _, fe := range _frontEnds {
			t.Run(tt.name+"/"+string(fe), func(t *testing.T) {
				t.Parallel()
				doc, err := quietParser(fe).ParseString(tt.input)
				require.Error(t, err)
				assert.Nil(t, doc)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, strings.HasPrefix(err.Error(), "<string>: "), err.Error())
				if tt.wantField != "" || tt.wantElem != "" {
					var se *StructuralError
					var ve *ValueError
					switch {
					case errors.As(err, &se):
						assert.Equal(t, tt.wantElem, se.Element)
						if tt.wantField != "" {
							assert.Equal(t, tt.wantField, se.Field)
						}
					case errors.As(err, &ve):
						assert.Equal(t, tt.wantElem, ve.Element)
						assert.Equal(t, tt.wantField, ve.Field)
						assert.Equal(t, tt.wantToken, ve.Token)
					default:
						t.Fatalf("unexpected error type %T", err)
					}
				}
			})
		}
	}
}

func TestSourceErrorNamesPath(t *testing.T) {
	t.Parallel()

	_, err := quietParser(FrontEndTree).ParseString(minimal(
		`<library_geometries><geometry id="g"><mesh><source/></mesh></geometry></library_geometries>`))
	require.Error(t, err)
	assert.Equal(t,
		`<string>: COLLADA: library_geometries: geometry "g": mesh: source: missing required attribute "id"`,
		err.Error())
}

func TestDuplicateOverwrite(t *testing.T) {
	t.Parallel()

	logs := &captureHandler{}
	opts := DefaultOptions()
	opts.Duplicates = DuplicateOverwrite
	p := &Parser{Logger: slog.New(logs), Options: opts}

	doc, err := p.ParseString(minimal(`<library_lights>` +
		`<light id="l" name="first"><technique_common><ambient><color>1 1 1</color></ambient></technique_common></light>` +
		`<light id="l" name="second"><technique_common><ambient><color>0 0 0</color></ambient></technique_common></light>` +
		`</library_lights>`))
	require.NoError(t, err)

	n, ok := doc.Resolve("#l")
	require.True(t, ok)
	assert.Equal(t, "second", *n.(*Light).Name)
	assert.Len(t, doc.Lights(), 2)
	assert.True(t, logs.logged("duplicate id overwritten", "light"))
}

func TestLenientCounts(t *testing.T) {
	t.Parallel()

	p := quietParser(FrontEndTree)
	p.Options.StrictCounts = false
	doc, err := p.ParseString(minimal(`<library_geometries><geometry><mesh>` +
		`<source id="s"><float_array count="4">1 2 3</float_array></source>` +
		`<vertices id="v"><input semantic="POSITION" source="#s"/></vertices>` +
		`</mesh></geometry></library_geometries>`))
	require.NoError(t, err)
	arr := doc.Geometries()[0].Mesh().Sources[0].Array.(*FloatArray)
	assert.Equal(t, uint64(4), arr.Count)
	assert.Len(t, arr.Values, 3)
}

func TestUnknownFrontEnd(t *testing.T) {
	t.Parallel()

	p := &Parser{Options: Options{FrontEnd: "dom"}}
	_, err := p.ParseString(minimal(""))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func ptr[T any](v T) *T { return &v }
