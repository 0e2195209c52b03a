package fieldgraph

import (
	"github.com/onceinteractive/cascade/pkg/types"
)

// Filter binds one wire key of a lookup operation to the upstream field that
// supplies its value. The order of a field's filters is the order of the
// filter tuple sent to the lookup service.
type Filter struct {
	Key    string        `yaml:"key"`
	Source types.FieldID `yaml:"source"`
}

// Spec declares one field of the cascade. The root field has no parent, no
// filters and no operation; every dependent field has exactly one parent and
// at least one filter.
type Spec struct {
	ID        types.FieldID `yaml:"id"`
	Operation string        `yaml:"operation"`
	Parent    types.FieldID `yaml:"parent"`
	Filters   []Filter      `yaml:"filters"`
}

// Dependent reports whether the field takes its choices from the cascade.
func (s Spec) Dependent() bool {
	return s.Parent != ""
}

// Graph is the static dependency tree of a form. Fields are registered
// top-down, root first; child order within a parent is registration order and
// is the fan-out order of the engine.
type Graph struct {
	root     types.FieldID
	order    []types.FieldID
	specs    map[types.FieldID]Spec
	children map[types.FieldID][]types.FieldID
}

// New creates a graph with the given root field.
func New(root types.FieldID) *Graph {
	g := &Graph{
		root:     root,
		specs:    make(map[types.FieldID]Spec),
		children: make(map[types.FieldID][]types.FieldID),
	}
	g.specs[root] = Spec{ID: root}
	g.order = append(g.order, root)
	return g
}

// AddField registers a dependent field. The parent and every filter source
// must already be registered, which keeps the graph acyclic by construction.
func (g *Graph) AddField(spec Spec) error {
	if _, exists := g.specs[spec.ID]; exists {
		return NewValidationError("add", string(spec.ID), ErrDuplicateField)
	}
	if spec.ID == g.root || spec.Parent == "" {
		return NewValidationError("add", string(spec.ID), ErrRootIsDependent)
	}
	if spec.Operation == "" {
		return NewValidationError("add", string(spec.ID), ErrMissingOperation)
	}
	if _, exists := g.specs[spec.Parent]; !exists {
		return NewValidationError("add", string(spec.ID), ErrUnknownParent)
	}
	for _, f := range spec.Filters {
		if _, exists := g.specs[f.Source]; !exists {
			return NewValidationError("add", string(spec.ID), ErrUnknownFilterSource)
		}
		if !g.isAncestorOrSelf(f.Source, spec.Parent) {
			return NewValidationError("add", string(spec.ID), ErrFilterNotAncestor)
		}
	}

	g.specs[spec.ID] = spec
	g.order = append(g.order, spec.ID)
	g.children[spec.Parent] = append(g.children[spec.Parent], spec.ID)
	return nil
}

// isAncestorOrSelf walks the parent chain from 'from' looking for 'target'.
func (g *Graph) isAncestorOrSelf(target, from types.FieldID) bool {
	for id := from; id != ""; id = g.specs[id].Parent {
		if id == target {
			return true
		}
	}
	return false
}

// Root returns the independent field at the top of the cascade.
func (g *Graph) Root() types.FieldID {
	return g.root
}

// Spec returns the declaration of a field.
func (g *Graph) Spec(id types.FieldID) (Spec, bool) {
	s, ok := g.specs[id]
	return s, ok
}

// Has reports whether the field is registered.
func (g *Graph) Has(id types.FieldID) bool {
	_, ok := g.specs[id]
	return ok
}

// Children returns the direct tree children of a field in registration order.
func (g *Graph) Children(id types.FieldID) []types.FieldID {
	return g.children[id]
}

// Subtree returns every strict descendant of a field, parents before
// children, siblings in registration order.
func (g *Graph) Subtree(id types.FieldID) []types.FieldID {
	var out []types.FieldID
	queue := append([]types.FieldID(nil), g.children[id]...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		out = append(out, current)
		queue = append(queue, g.children[current]...)
	}
	return out
}

// InSubtree reports whether candidate is a strict descendant of id.
func (g *Graph) InSubtree(id, candidate types.FieldID) bool {
	if id == candidate {
		return false
	}
	return g.isAncestorOrSelf(id, g.specs[candidate].Parent)
}

// TopDown returns all fields, root first, in registration order. Registration
// is top-down so every parent precedes its children.
func (g *Graph) TopDown() []types.FieldID {
	return append([]types.FieldID(nil), g.order...)
}

// RefetchTargets returns the fields whose choices must be refetched after the
// given field changes: its direct tree children, plus any field outside its
// subtree that lists it among its filter sources. Fields inside the subtree
// beyond the first level are excluded on purpose: the reset already cleared
// them and they stay dormant until their own parent is re-selected.
func (g *Graph) RefetchTargets(id types.FieldID) []types.FieldID {
	out := append([]types.FieldID(nil), g.children[id]...)
	for _, candidate := range g.order {
		if candidate == id || g.InSubtree(id, candidate) {
			continue
		}
		spec := g.specs[candidate]
		for _, f := range spec.Filters {
			if f.Source == id {
				out = append(out, candidate)
				break
			}
		}
	}
	return out
}
