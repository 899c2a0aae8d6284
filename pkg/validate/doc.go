// Package validate checks concrete values against schema nodes and
// accumulates contract violations.
//
// Validation never short-circuits: one Result can report every violation
// found in a value, each addressed by a dotted/indexed field path
// ("driver.laps[2].time_ms") together with a machine-readable code, the
// expected constraint, and the kind of value actually received.
//
// Objects are strict by default: a key not declared in the schema's
// properties is an unknown_field violation unless the schema allows
// additional properties. Reference nodes are dereferenced through a
// schema.Resolver before validation.
//
// RawValidator validates a body against a full JSON Schema document
// (draft 2020-12) for operations whose contract is maintained as an
// external schema file.
package validate
