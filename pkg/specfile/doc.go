// Package specfile loads declarative contract files (*.spec.yaml) into a
// specification registry and a scenario list.
//
// A spec file declares the document info block, servers, reusable
// components, and per-path operations with their example scenarios. Each
// file is validated against an embedded JSON Schema before decoding, so
// shape mistakes surface with pointer-addressed messages instead of
// half-decoded structs.
//
// Multiple files merge into one registry: distinct methods under the same
// path merge, a duplicate (path, method), a duplicate component name, or a
// second info block is fatal.
package specfile
