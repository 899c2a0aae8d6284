package spec

import "fmt"

// DuplicateOperationError reports a second registration for an already
// registered (path, method) pair.
type DuplicateOperationError struct {
	Method string
	Path   string
}

func (e *DuplicateOperationError) Error() string {
	return fmt.Sprintf("operation %s %s is already registered", e.Method, e.Path)
}

// DuplicateComponentError reports a component name collision.
type DuplicateComponentError struct {
	Name string
}

func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("component %q is already registered", e.Name)
}

// RegistryClosedError reports a registration attempted after Freeze.
type RegistryClosedError struct {
	// Op describes the rejected call ("register POST /x" or
	// "register component Driver").
	Op string
}

func (e *RegistryClosedError) Error() string {
	return fmt.Sprintf("registry is frozen: %s rejected", e.Op)
}
