package schema

import (
	"fmt"
	"strings"
	"sync"
)

// UnresolvedRefError reports a reference whose target component does not
// exist in the library.
type UnresolvedRefError struct {
	// Ref is the dangling pointer.
	Ref string
	// Origin names where the reference was encountered (operation key,
	// component name, or field path). May be empty.
	Origin string
}

func (e *UnresolvedRefError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("unresolved reference %q in %s", e.Ref, e.Origin)
	}
	return fmt.Sprintf("unresolved reference %q", e.Ref)
}

// CyclicRefError reports a reference chain that revisits a component
// already on the current resolution path.
type CyclicRefError struct {
	// Cycle lists the component names forming the cycle, in order of
	// traversal, ending with the revisited name.
	Cycle []string
}

func (e *CyclicRefError) Error() string {
	return fmt.Sprintf("cyclic reference: %s", strings.Join(e.Cycle, " -> "))
}

// Resolver dereferences reference nodes against a component library.
// Resolution is cached per reference string, so repeated pointers resolve
// once per resolver lifetime. The resolver never mutates its inputs:
// callers always receive deep copies.
//
// A Resolver is safe for concurrent use once constructed.
type Resolver struct {
	components map[string]*Schema

	mu    sync.Mutex
	cache map[string]*Schema
}

// NewResolver builds a resolver over the given component library. The
// library map is used by reference and must not be mutated afterwards.
func NewResolver(components map[string]*Schema) *Resolver {
	return &Resolver{
		components: components,
		cache:      make(map[string]*Schema),
	}
}

// Resolve returns the concrete schema a node stands for. Concrete nodes
// are returned as-is; reference nodes are followed depth-first until a
// concrete node is reached. Chains that revisit a component fail with
// *CyclicRefError, dangling pointers with *UnresolvedRefError.
func (r *Resolver) Resolve(s *Schema) (*Schema, error) {
	if !s.IsRef() {
		return s, nil
	}

	r.mu.Lock()
	cached, ok := r.cache[s.Ref]
	r.mu.Unlock()
	if ok {
		return cached.Clone(), nil
	}

	resolved, err := r.follow(s, nil)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[s.Ref] = resolved
	r.mu.Unlock()
	return resolved.Clone(), nil
}

// follow walks a reference chain, tracking the names on the current path.
func (r *Resolver) follow(s *Schema, path []string) (*Schema, error) {
	name, ok := s.RefName()
	if !ok {
		return nil, &UnresolvedRefError{Ref: s.Ref}
	}
	for _, seen := range path {
		if seen == name {
			return nil, &CyclicRefError{Cycle: append(append([]string(nil), path...), name)}
		}
	}
	target, ok := r.components[name]
	if !ok {
		return nil, &UnresolvedRefError{Ref: s.Ref}
	}
	if target.IsRef() {
		return r.follow(target, append(path, name))
	}
	return target.Clone(), nil
}

// CheckRefs validates every reference reachable from the schema tree,
// including references inside the components the tree points at. origin is
// used in error messages. Cycles through component bodies (A's property
// referencing B whose property references A) are reported as cyclic.
func (r *Resolver) CheckRefs(s *Schema, origin string) error {
	return r.checkRefs(s, origin, nil)
}

func (r *Resolver) checkRefs(s *Schema, origin string, path []string) error {
	if s == nil {
		return nil
	}
	if s.IsRef() {
		name, ok := s.RefName()
		if !ok {
			return &UnresolvedRefError{Ref: s.Ref, Origin: origin}
		}
		for _, seen := range path {
			if seen == name {
				return &CyclicRefError{Cycle: append(append([]string(nil), path...), name)}
			}
		}
		target, ok := r.components[name]
		if !ok {
			return &UnresolvedRefError{Ref: s.Ref, Origin: origin}
		}
		return r.checkRefs(target, origin, append(path, name))
	}
	for _, name := range sortedKeys(s.Properties) {
		if err := r.checkRefs(s.Properties[name], origin, path); err != nil {
			return err
		}
	}
	return r.checkRefs(s.Items, origin, path)
}
