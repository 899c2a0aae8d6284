// Package spec holds the in-memory specification registry: the set of
// declared API operations plus the shared component library their schemas
// reference.
//
// Registration happens in a declare phase, potentially from many
// goroutines; the registry serializes mutations internally. Freeze moves
// the registry to read-only and validates every reference in every stored
// schema; after a successful Freeze the registry may be read concurrently
// without synchronization.
//
// Operations are built with an explicit fluent builder and registered as
// immutable values:
//
//	op := spec.NewOperation("POST", "/api/v1/lap_times").
//	    Tags("lap_times").
//	    Body(schema.RefTo("LapTimeCreate"), true).
//	    Response(201, schema.RefTo("LapTime")).
//	    Build()
//	err := reg.Register(op)
//
// Duplicate (path, method) registrations, duplicate component names, and
// post-freeze registrations are hard errors; distinct methods under one
// path merge.
package spec
