// Package algebra holds the host-side query-plan fragments the compiler
// consumes: filter expression trees, aggregate descriptors, and the
// physical operator shapes the execution adapter dispatches on.
//
// All ASTs in this package are sealed interfaces (marker method pattern),
// so backend translation can use exhaustive type switches and treat any
// unknown node as an explicit "unsupported" outcome rather than an
// implicit fallthrough.
//
// Nothing in this package evaluates anything. Construction happens in the
// host planner (or the CLI query-document loader); consumption happens in
// internal/cypher and internal/exec, read-only.
package algebra
