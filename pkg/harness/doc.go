// Package harness executes documented example scenarios against a live
// application and validates the captured exchanges against the registered
// contract.
//
// Each scenario walks a private state machine, Defined -> Executed ->
// Validated -> Passed|Failed. The exchange itself is produced by an
// Executor, the external collaborator owning the real HTTP round trip;
// HTTPExecutor drives either a base URL over the network or an
// http.Handler in-process.
//
// The Runner executes scenarios concurrently against the read-only frozen
// registry and gathers verdicts over a channel into a single Report. A
// failing scenario never cancels its siblings; fail-fast mode only stops
// scenarios that have not started yet.
package harness
