package collada

import "strings"

// DuplicatePolicy decides what happens when an id is registered twice.
type DuplicatePolicy int

// Duplicate id policies.
const (
	// DuplicateReject fails the parse with ErrDuplicateID.
	DuplicateReject DuplicatePolicy = iota
	// DuplicateOverwrite keeps the later node.
	DuplicateOverwrite
)

func (p DuplicatePolicy) String() string {
	if p == DuplicateOverwrite {
		return "overwrite"
	}
	return "reject"
}

// Registry maps document-unique ids to the nodes that declared them. Nodes
// are inserted only once fully constructed. Each registration remembers the
// end tag ordinal of its element so references made during the parse see
// only nodes whose element closed before the referring element opened.
type Registry struct {
	nodes map[string][]entry
	order []string
}

type entry struct {
	node Node
	end  int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string][]entry)}
}

// Register inserts id. It returns ErrDuplicateID if id is already taken.
func (r *Registry) Register(id string, n Node) error {
	return r.add(id, n, 0)
}

// Replace inserts or overwrites id, reporting whether a node was replaced.
func (r *Registry) Replace(id string, n Node) bool {
	return r.replace(id, n, 0)
}

func (r *Registry) add(id string, n Node, end int) error {
	if _, ok := r.nodes[id]; ok {
		return &StructuralError{Element: n.ElementName(), Field: id, Err: ErrDuplicateID}
	}
	r.nodes[id] = []entry{{node: n, end: end}}
	r.order = append(r.order, id)
	return nil
}

// replace keeps earlier registrations of id so resolveBefore still finds
// them for references that precede the overwriting element.
func (r *Registry) replace(id string, n Node, end int) bool {
	es, existed := r.nodes[id]
	r.nodes[id] = append(es, entry{node: n, end: end})
	if !existed {
		r.order = append(r.order, id)
	}
	return existed
}

// Resolve looks up a reference, with or without the leading '#'.
func (r *Registry) Resolve(ref string) (Node, bool) {
	return r.resolveBefore(ref, 0)
}

// resolveBefore is Resolve restricted to registrations whose element ended
// before tag ordinal start. A zero start or end is unordered.
func (r *Registry) resolveBefore(ref string, start int) (Node, bool) {
	if r == nil {
		return nil, false
	}
	es := r.nodes[strings.TrimPrefix(ref, "#")]
	for i := len(es) - 1; i >= 0; i-- {
		if start == 0 || es[i].end == 0 || es[i].end < start {
			return es[i].node, true
		}
	}
	return nil, false
}

// Len returns the number of registered ids.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.nodes)
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
