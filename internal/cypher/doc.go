// Package cypher compiles SPARQL-style basic graph patterns into
// parameterized Cypher so pattern evaluation can be pushed into a remote
// graph database instead of running triple-by-triple in a generic
// engine.
//
// The compiler is a classification-and-dispatch decision tree applied
// once per compile call:
//
//   - a variable in predicate position produces a three-branch union
//     (relationship / property / label) because the predicate's meaning
//     is unknown until evaluation;
//   - a single triple with an otherwise-unconstrained object variable
//     produces a two-branch union (related entity vs. scalar property);
//   - everything else is compiled structurally, with remaining ambiguous
//     object variables expanded into a bounded power-set union when the
//     pattern has a relationship anchor.
//
// Every path that cannot guarantee a translation equivalent to naive
// evaluation returns a typed *CompileError. Wrong translation silently
// returns wrong data, so correctness always beats cleverness here.
//
// CRITICAL: bound URIs and literals from patterns and filters are never
// interpolated into the query text - they travel as named parameters.
// The only inlined values are syntactic identifiers (labels,
// relationship types, property keys), which Cypher cannot parameterize;
// those are backtick-quoted instead.
//
// All compilation is pure and deterministic: identical inputs produce
// byte-identical query text, parameters, and bindings.
package cypher
