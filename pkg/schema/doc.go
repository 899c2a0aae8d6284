// Package schema defines the typed constraint tree used to describe the
// shape of JSON-like values, plus reference resolution against a component
// library.
//
// A Schema is either a concrete node (object, array, string, integer,
// number, boolean) or a reference node pointing at a named entry in a
// component library ("#/components/schemas/Name"). Reference nodes carry no
// other constraints; a Resolver dereferences them into concrete copies
// without mutating the original, so documents keep the compact $ref form
// while validators see the expanded tree.
//
// Schemas are built with fluent constructors:
//
//	lapTime := schema.Object().
//	    Prop("driver_id", schema.Integer()).
//	    Prop("time_ms", schema.Integer()).
//	    Req("driver_id", "time_ms")
//
// The package also provides string format validators (date-time, email,
// uuid, ...) used when a schema sets Format.
package schema
