// Package document compiles a frozen specification registry into an
// OpenAPI 3 document.
//
// Compilation is deterministic: paths are sorted lexicographically, methods
// emit in a fixed canonical order (get, post, put, patch, delete, head,
// options), and component and property maps marshal with sorted keys, so
// compiling an unchanged registry twice yields byte-identical output.
// References stay in their compact $ref form; the compiler never expands
// them.
//
// Lint loads an emitted document back through kin-openapi and runs its
// structural validation, catching anything this engine's own checks miss.
package document
