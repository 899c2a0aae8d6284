package spec

import (
	"fmt"
	"sort"
	"sync"

	"github.com/getspecd/specd/pkg/schema"
)

// Info is the document metadata block.
type Info struct {
	Title       string `json:"title" yaml:"title"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Server is one entry of the servers list.
type Server struct {
	URL         string            `json:"url" yaml:"url"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Variables   map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// SecurityScheme is carried through to the compiled document unvalidated.
type SecurityScheme struct {
	Type         string `json:"type" yaml:"type"`
	Scheme       string `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	BearerFormat string `json:"bearerFormat,omitempty" yaml:"bearerFormat,omitempty"`
}

// Registry accumulates declared operations and shared components. Mutating
// calls are serialized internally and legal only before Freeze; afterwards
// the registry is immutable and safe for unsynchronized concurrent reads.
type Registry struct {
	mu     sync.RWMutex
	frozen bool

	info            Info
	servers         []Server
	securitySchemes map[string]SecurityScheme

	ops        map[string]*Operation
	components map[string]*schema.Schema

	resolver *schema.Resolver
}

// NewRegistry returns an empty, open registry.
func NewRegistry(info Info) *Registry {
	return &Registry{
		info:            info,
		ops:             make(map[string]*Operation),
		components:      make(map[string]*schema.Schema),
		securitySchemes: make(map[string]SecurityScheme),
	}
}

// Register adds an operation. It fails with *DuplicateOperationError when
// the (path, method) pair is already registered, and with
// *RegistryClosedError after Freeze. Under concurrent duplicate
// registration exactly one caller loses.
func (r *Registry) Register(op *Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return &RegistryClosedError{Op: fmt.Sprintf("register %s %s", op.Method, op.Path)}
	}
	key := op.Key()
	if _, exists := r.ops[key]; exists {
		return &DuplicateOperationError{Method: op.Method, Path: op.Path}
	}
	r.ops[key] = op
	return nil
}

// RegisterComponent adds a named schema to the component library.
func (r *Registry) RegisterComponent(name string, s *schema.Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return &RegistryClosedError{Op: fmt.Sprintf("register component %s", name)}
	}
	if _, exists := r.components[name]; exists {
		return &DuplicateComponentError{Name: name}
	}
	r.components[name] = s
	return nil
}

// RegisterSecurityScheme adds a passthrough security scheme.
func (r *Registry) RegisterSecurityScheme(name string, s SecurityScheme) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return &RegistryClosedError{Op: fmt.Sprintf("register security scheme %s", name)}
	}
	if _, exists := r.securitySchemes[name]; exists {
		return &DuplicateComponentError{Name: name}
	}
	r.securitySchemes[name] = s
	return nil
}

// AddServer appends to the servers list.
func (r *Registry) AddServer(srv Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return &RegistryClosedError{Op: "add server"}
	}
	r.servers = append(r.servers, srv)
	return nil
}

// SetInfo replaces the document metadata.
func (r *Registry) SetInfo(info Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return &RegistryClosedError{Op: "set info"}
	}
	r.info = info
	return nil
}

// Freeze transitions the registry to read-only and validates every stored
// schema: structural well-formedness plus resolution of every reference.
// Any dangling pointer is fatal and names both the pointer and its origin;
// reference cycles are fatal and name the cycle. Freeze is idempotent once
// it has succeeded.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return nil
	}

	resolver := schema.NewResolver(r.components)

	for _, name := range sortedComponentNames(r.components) {
		s := r.components[name]
		if err := s.CheckWellFormed(); err != nil {
			return fmt.Errorf("component %q: %w", name, err)
		}
		if err := resolver.CheckRefs(s, fmt.Sprintf("component %q", name)); err != nil {
			return err
		}
	}

	for _, key := range r.sortedOpKeys() {
		op := r.ops[key]
		for origin, s := range op.schemas() {
			if err := s.CheckWellFormed(); err != nil {
				return fmt.Errorf("%s, %s: %w", key, origin, err)
			}
			if err := resolver.CheckRefs(s, fmt.Sprintf("%s, %s", key, origin)); err != nil {
				return err
			}
		}
	}

	r.resolver = resolver
	r.frozen = true
	return nil
}

// Frozen reports whether Freeze has succeeded.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Resolver returns the reference resolver built by Freeze, or nil before
// Freeze.
func (r *Registry) Resolver() *schema.Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolver
}

// Lookup returns the operation registered for (method, path).
func (r *Registry) Lookup(method, path string) (*Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[OperationKey(method, path)]
	return op, ok
}

// Operations returns all operations sorted by path, then method.
func (r *Registry) Operations() []*Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Operation, 0, len(r.ops))
	for _, key := range r.sortedOpKeys() {
		out = append(out, r.ops[key])
	}
	return out
}

// Components returns the component library. Callers must treat the map as
// read-only.
func (r *Registry) Components() map[string]*schema.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.components
}

// SecuritySchemes returns the passthrough security schemes.
func (r *Registry) SecuritySchemes() map[string]SecurityScheme {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.securitySchemes
}

// Info returns the document metadata.
func (r *Registry) Info() Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.info
}

// Servers returns the servers list.
func (r *Registry) Servers() []Server {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.servers
}

// sortedOpKeys orders operations by path first, then method, so error
// reporting and compilation are deterministic. Callers hold the lock.
func (r *Registry) sortedOpKeys() []string {
	keys := make([]string, 0, len(r.ops))
	for k := range r.ops {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := r.ops[keys[i]], r.ops[keys[j]]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Method < b.Method
	})
	return keys
}

func sortedComponentNames(m map[string]*schema.Schema) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
