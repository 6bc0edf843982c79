package collada

import "strings"

// Target is what an animation channel target addresses.
type Target struct {
	// Node is the registered node named by the path's leading id.
	Node Node
	// Value is the item named by the last sid, or Node when the path has
	// none.
	Value any
	// Member is the component selector: "ANGLE" for ".ANGLE", "(3)(1)" for
	// an index selector, empty when the whole value is addressed.
	Member string
}

// ResolveTarget resolves a channel target of the form
// "nodeID/sid[/sid...][.member]" or "nodeID/sid(i)(j)". Scoped ids are
// searched depth-first below the previous hop.
func (d *Document) ResolveTarget(path string) (Target, error) {
	body, member := splitMember(path)
	segments := strings.Split(body, "/")
	if segments[0] == "" || segments[0] == "." {
		return Target{}, &ReferenceError{URI: path}
	}
	n, ok := d.Registry.Resolve(segments[0])
	if !ok {
		return Target{}, &ReferenceError{URI: path}
	}
	var cur any = n
	for _, sid := range segments[1:] {
		if cur, ok = findSID(cur, sid); !ok {
			return Target{}, &ReferenceError{URI: path}
		}
	}
	return Target{Node: n, Value: cur, Member: member}, nil
}

func splitMember(path string) (string, string) {
	last := strings.LastIndexByte(path, '/')
	if last < 0 {
		return path, ""
	}
	if i := strings.IndexByte(path[last+1:], '.'); i >= 0 {
		i += last + 1
		return path[:i], path[i+1:]
	}
	if i := strings.IndexByte(path[last+1:], '('); i >= 0 {
		i += last + 1
		return path[:i], path[i:]
	}
	return path, ""
}

func sidIs(p *string, sid string) bool { return p != nil && *p == sid }

func findSID(v any, sid string) (any, bool) {
	switch n := v.(type) {
	case *SceneNode:
		return nodeSID(n, sid)
	case *Effect:
		for i := range n.NewParams {
			if n.NewParams[i].SID == sid {
				return &n.NewParams[i], true
			}
		}
		if pc := n.Common(); pc != nil {
			for i := range pc.NewParams {
				if pc.NewParams[i].SID == sid {
					return &pc.NewParams[i], true
				}
			}
			if pc.Technique.SID == sid {
				return &pc.Technique, true
			}
		}
	case *Camera:
		var fields []*SIDFloat
		switch p := n.Optics.Projection.(type) {
		case *Perspective:
			fields = []*SIDFloat{p.XFov, p.YFov, p.AspectRatio, &p.ZNear, &p.ZFar}
		case *Orthographic:
			fields = []*SIDFloat{p.XMag, p.YMag, p.AspectRatio, &p.ZNear, &p.ZFar}
		}
		for _, f := range fields {
			if f != nil && sidIs(f.SID, sid) {
				return f, true
			}
		}
	case *Light:
		if n.Source == nil {
			break
		}
		if c := n.Source.LightColor(); sidIs(c.SID, sid) {
			return c, true
		}
	}
	return nil, false
}

func nodeSID(n *SceneNode, sid string) (any, bool) {
	for _, t := range n.Transforms {
		if sidIs(t.TransformSID(), sid) {
			return t, true
		}
	}
	for i := range n.InstanceGeometries {
		if sidIs(n.InstanceGeometries[i].SID, sid) {
			return &n.InstanceGeometries[i], true
		}
	}
	for i := range n.InstanceControllers {
		if sidIs(n.InstanceControllers[i].SID, sid) {
			return &n.InstanceControllers[i], true
		}
	}
	for _, list := range [][]Instance{n.InstanceCameras, n.InstanceLights, n.InstanceNodes} {
		for i := range list {
			if sidIs(list[i].SID, sid) {
				return &list[i], true
			}
		}
	}
	for _, c := range n.Children {
		if sidIs(c.SID, sid) {
			return c, true
		}
	}
	for _, c := range n.Children {
		if v, ok := nodeSID(c, sid); ok {
			return v, true
		}
	}
	return nil, false
}
